package isup

import (
	"time"

	"github.com/creslin7/ss7stack/mtp3"
	"github.com/creslin7/ss7stack/scheduler"
)

// callKey identifies a call by the (CIC, DPC) pair §3 names as the call
// index: CICs are only unique per adjacent point code.
type callKey struct {
	cic uint32
	dpc uint32
}

// mtp3Sender is the narrow slice of *mtp3.Engine's public surface the
// Engine actually calls: accepting it as an interface (rather than a
// concrete *mtp3.Engine) keeps isup testable against a fake sender without
// standing up a fully adjacency-up mtp3 linkset.
type mtp3Sender interface {
	Send(now time.Time, dpc uint32, userPart uint8, sls uint8, payload []byte) error
}

// Engine is the session-wide ISUP instance: one per Session, sitting above
// a single mtp3.Engine and fanning received/sent messages across its live
// calls. It implements mtp3.Upper so the facade can wire it directly as the
// MTP3 engine's upper layer.
type Engine struct {
	Variant mtp3.Variant
	OwnPC   uint32
	Timers  Timers
	Sched   *scheduler.Scheduler
	Log     mtp3.Logger
	MTP3    mtp3Sender
	Host    HostCallbacks
	Upper   Upper

	ansiSLS uint8 // monotonic SLS counter for outgoing ANSI calls, §3

	calls map[callKey]*Call
}

// NewEngine creates an Engine bound to mtp3Sender (ordinarily a
// *mtp3.Engine); ownPC is this side's own point code, used to resolve dual
// seizure per §4.4/S6. timers.resolved() is applied once up front so every
// arm call sees concrete durations.
func NewEngine(variant mtp3.Variant, ownPC uint32, timers Timers, sched *scheduler.Scheduler, log mtp3.Logger, sender mtp3Sender, host HostCallbacks, upper Upper) *Engine {
	e := &Engine{
		Variant: variant,
		OwnPC:   ownPC,
		Timers:  timers.resolved(),
		Sched:   sched,
		Log:     log,
		MTP3:    sender,
		Host:    host,
		Upper:   upper,
		calls:   make(map[callKey]*Call),
	}
	return e
}

func (e *Engine) callFor(cic, dpc uint32) *Call {
	return e.calls[callKey{cic: cic, dpc: dpc}]
}

func (e *Engine) putCall(c *Call) {
	e.calls[callKey{cic: c.CIC, dpc: c.DPC}] = c
}

// ActiveCallCount returns the number of live calls, for metrics reporting.
func (e *Engine) ActiveCallCount() int { return len(e.calls) }

// CallByCIC returns the live call tracked for (cic, dpc), for a host that
// learned of a circuit from an event rather than holding the *Call NewCallOut
// returned. ok is false if no call is currently tracked for that circuit.
func (e *Engine) CallByCIC(cic, dpc uint32) (c *Call, ok bool) {
	c = e.callFor(cic, dpc)
	return c, c != nil
}

// freeCall drops c from the live-call table if it has gone idle, mirroring
// libss7's free_call_if_clear gate; called after every FSM transition that
// might have cleared the last bit/timer.
func (e *Engine) freeCall(c *Call) {
	if c.idle() {
		if e.Host != nil {
			e.Host.CallNull(uint16(c.CIC), c.DPC)
		}
		delete(e.calls, callKey{cic: c.CIC, dpc: c.DPC})
	}
}

// NewCallOut allocates and registers an outbound call, deriving its SLS
// per §3 and advancing the ANSI round-robin counter.
func (e *Engine) NewCallOut(cic, dpc uint32) *Call {
	sls := deriveSLS(e.Variant, cic, e.ansiSLS)
	if e.Variant == mtp3.ANSI {
		e.ansiSLS++
	}
	c := NewCall(cic, dpc, sls)
	e.putCall(c)
	return c
}

// send encodes and transmits one ISUP message for c over mtp3. It sets no
// got_sent_msg bit; callers tag the FSM bits themselves.
func (e *Engine) send(now time.Time, c *Call, msgType byte) error {
	body, err := encodeMessage(msgType, c)
	if err != nil {
		return err
	}
	frame := append(EncodeCIC(e.Variant, uint16(c.CIC)), msgType)
	frame = append(frame, body...)
	return e.MTP3.Send(now, c.DPC, mtp3.SIGISUP, c.SLS, frame)
}

// DeliverUserPart implements mtp3.Upper: decode the CIC/message-type
// header, locate or create the call, decode the parameter body, and
// dispatch to the per-type handler.
func (e *Engine) DeliverUserPart(now time.Time, rl mtp3.RoutingLabel, userPart byte, payload []byte) {
	if userPart != mtp3.SIGISUP {
		return
	}
	if len(payload) < 3 {
		e.Log.Errorf("isup: short message from PC %d, dropping", rl.OPC)
		return
	}
	cic := uint32(DecodeCIC(e.Variant, payload[0:2]))
	msgType := payload[2]
	body := payload[3:]

	c := e.callFor(cic, rl.OPC)
	if c == nil {
		c = NewCall(cic, rl.OPC, rl.SLS)
		e.putCall(c)
	}
	if err := decodeMessage(msgType, body, c); err != nil {
		e.Log.Errorf("isup: decode %s on CIC %d: %v", MessageName(msgType), cic, err)
		return
	}
	e.dispatch(now, c, msgType)
}

// dispatch is the message-type switch handlers.go's per-type functions
// plug into.
func (e *Engine) dispatch(now time.Time, c *Call, msgType byte) {
	switch msgType {
	case IAM:
		e.handleIAM(now, c)
	case SAM:
		e.handleSAM(now, c)
	case ACM:
		e.handleACM(now, c)
	case CON:
		e.handleCON(now, c)
	case ANM:
		e.handleANM(now, c)
	case REL:
		e.handleREL(now, c)
	case RLC:
		e.handleRLC(now, c)
	case RSC:
		e.handleRSC(now, c)
	case SUS:
		e.handleSUS(now, c)
	case RES:
		e.handleRES(now, c)
	case CPG:
		e.handleCPG(now, c)
	case BLO:
		e.handleBLO(now, c)
	case UBL:
		e.handleUBL(now, c)
	case BLA:
		e.handleBLA(now, c)
	case UBA:
		e.handleUBA(now, c)
	case CGB:
		e.handleCGB(now, c)
	case CGU:
		e.handleCGU(now, c)
	case CGBA:
		e.handleCGBA(now, c)
	case CGUA:
		e.handleCGUA(now, c)
	case GRS:
		e.handleGRS(now, c)
	case GRA:
		e.handleGRA(now, c)
	case CQM:
		e.handleCQM(now, c)
	case CQR:
		e.handleCQR(now, c)
	case UCIC:
		e.handleUCIC(now, c)
	case INR:
		e.handleINR(now, c)
	case INF:
		e.handleINF(now, c)
	case COT:
		e.handleCOT(now, c)
	case CCR:
		e.handleCCR(now, c)
	case LPA:
		e.handleLPA(now, c)
	default:
		e.Log.Debugf("isup: CIC %d: no handler for %s, ignoring", c.CIC, MessageName(msgType))
	}
	e.freeCall(c)
}

// mtp3.Upper's link/linkset state callbacks: ISUP has no call-control
// reaction to them directly, so they are logged here and passed through to
// Upper, which the facade implements to turn them into host-visible events
// (MTP2-LINK-UP/DOWN, SS7-STATE-UP/DOWN per §4.4's events list).
func (e *Engine) LinkUp(slc int) {
	e.Log.Infof("isup: link %d up", slc)
	if e.Upper != nil {
		e.Upper.LinkUp(slc)
	}
}

func (e *Engine) LinkDown(slc int) {
	e.Log.Infof("isup: link %d down", slc)
	if e.Upper != nil {
		e.Upper.LinkDown(slc)
	}
}

func (e *Engine) LinksetUp() {
	e.Log.Infof("isup: linkset up")
	if e.Upper != nil {
		e.Upper.LinksetUp()
	}
}

func (e *Engine) LinksetDown() {
	e.Log.Infof("isup: linkset down")
	if e.Upper != nil {
		e.Upper.LinksetDown()
	}
}
