package isup

import (
	"github.com/creslin7/ss7stack/mtp3"
	"github.com/creslin7/ss7stack/scheduler"
)

// Call is one (CIC, DPC) call-control record, trimmed from libss7's
// isup_call to the fields this stack's supplemented feature set actually
// exercises: party numbers, redirection/generic info, OLI/JIP, CUG,
// group-supervision shadow state, cause, continuity flags, the
// got_sent_msg FSM bitset and its per-call timer table.
type Call struct {
	CIC uint32
	DPC uint32
	SLS uint8

	Called      PartyNumber
	Calling     PartyNumber
	Connected   PartyNumber
	Redirecting PartyNumber
	OrigCalled  PartyNumber

	GenericName    string
	GenericDigits  string
	GenericAddress string
	OLI            int
	JIP            string

	NatureOfConnection  byte
	ForwardCallInd      uint16
	CallingPartyCat     byte
	BackwardCallInd     uint16
	EventInfo           byte
	SusResInd           byte

	CUGIndicator     byte
	CUGInterlockCode uint16

	Cause     int
	CauseCode int
	CauseLoc  int

	COTCheckRequired        bool
	COTCheckPassedPrevCIC   bool

	// Group-supervision shadow state: the request this call originated so
	// an A-message (CGBA/CGUA/GRA/CQR) can be validated against it.
	Range           int
	Status          [255]byte
	SentCGBStatus   [255]byte
	SentCGUStatus   [255]byte
	SentCGBType     int
	SentCGUType     int
	SentGRSEndCIC   int
	SentCGBEndCIC   int
	SentCGUEndCIC   int

	GotSentMsg GotSentMsg

	rawParams   map[byte][]byte // opaque passthrough for parameters with no typed field
	rawOptional map[byte][]byte // optional-section parameters received verbatim, re-sent verbatim

	timers [maxCallTimer + 1]scheduler.ID

	dualSeizureLoser bool
}

// NewCall allocates a Call for cic/dpc bound to sls (ITU: CIC low 4 bits;
// ANSI: caller-supplied monotonic counter), per §3's "Call.sls" invariant.
func NewCall(cic uint32, dpc uint32, sls uint8) *Call {
	c := &Call{CIC: cic, DPC: dpc, SLS: sls, rawParams: make(map[byte][]byte)}
	for i := range c.timers {
		c.timers[i] = -1
	}
	return c
}

// IsConnected reports whether the call is in the "unexpected messages are
// ignored, not a circuit reset" regime.
func (c *Call) IsConnected() bool { return c.GotSentMsg&CallConnected != 0 }

// Clear cancels every live per-call timer; used before freeing a call.
func (c *Call) Clear(sched *scheduler.Scheduler) {
	for i := range c.timers {
		sched.Cancel(&c.timers[i])
	}
}

// idle reports whether the call carries no FSM state and no live timers,
// ported from libss7's free_call_if_clear gate.
func (c *Call) idle() bool {
	if c.GotSentMsg != 0 {
		return false
	}
	for _, id := range c.timers {
		if id >= 0 {
			return false
		}
	}
	return true
}

// deriveSLS computes Call.sls per §3: ITU takes the CIC's low 4 bits;
// ANSI uses the caller-supplied monotonic counter directly.
func deriveSLS(variant mtp3.Variant, cic uint32, ansiCounter uint8) uint8 {
	if variant == mtp3.ANSI {
		return ansiCounter
	}
	return uint8(cic & 0xf)
}
