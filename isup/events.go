package isup

import "time"

// EventKind enumerates the ISUP events a call can raise, transcribed from
// libss7.h's ISUP_EVENT_* list plus the DigitTimeout event this stack adds
// for overlap-received dialling, per §4.4's events list.
type EventKind int

const (
	EventIAM EventKind = iota
	EventDigitTimeout
	EventSAM
	EventINF
	EventINR
	EventCQM
	EventGRS
	EventGRA
	EventRSC
	EventREL
	EventRLC
	EventACM
	EventCON
	EventANM
	EventCOT
	EventCCR
	EventCVT
	EventBLO
	EventUBL
	EventBLA
	EventLPA
	EventUBA
	EventCGB
	EventCGU
	EventCGBA
	EventCGUA
	EventCPG
	EventUCIC
	EventFAA
	EventFAR
	EventSUS
	EventRES
)

//go:generate stringer -type=EventKind

func (k EventKind) String() string {
	if n, ok := eventNames[k]; ok {
		return n
	}
	return "UNKNOWN"
}

var eventNames = map[EventKind]string{
	EventIAM: "IAM", EventDigitTimeout: "DIGITTIMEOUT", EventSAM: "SAM",
	EventINF: "INF", EventINR: "INR", EventCQM: "CQM", EventGRS: "GRS",
	EventGRA: "GRA", EventRSC: "RSC", EventREL: "REL", EventRLC: "RLC",
	EventACM: "ACM", EventCON: "CON", EventANM: "ANM", EventCOT: "COT",
	EventCCR: "CCR", EventCVT: "CVT", EventBLO: "BLO", EventUBL: "UBL",
	EventBLA: "BLA", EventLPA: "LPA", EventUBA: "UBA", EventCGB: "CGB",
	EventCGU: "CGU", EventCGBA: "CGBA", EventCGUA: "CGUA", EventCPG: "CPG",
	EventUCIC: "UCIC", EventFAA: "FAA", EventFAR: "FAR", EventSUS: "SUS",
	EventRES: "RES",
}

// Event is one call-control occurrence the Engine reports upward. It is
// kept independent of the root facade's event type so this package never
// imports it (isup must not import the package that imports isup).
type Event struct {
	Time time.Time
	Kind EventKind
	Call *Call
	Data any
}

// Upper is the event sink the Engine reports call-control occurrences to,
// plus the link/linkset state transitions forwarded through from mtp3.Upper
// (isup.Engine is the concrete mtp3.Upper the facade wires in, so it is the
// one place these pass through on their way to the event ring). The root
// facade implements this to wrap each occurrence into its own
// correlation-tagged event ring entry.
type Upper interface {
	ISUPEvent(Event)
	LinkUp(slc int)
	LinkDown(slc int)
	LinksetUp()
	LinksetDown()
}

// emit timestamps and forwards an event to the configured sink, a no-op if
// none is set (useful in codec-only tests that never construct a full
// Engine).
func (e *Engine) emit(now time.Time, c *Call, kind EventKind, data any) {
	if e.Upper == nil {
		return
	}
	e.Upper.ISUPEvent(Event{Time: now, Kind: kind, Call: c, Data: data})
}
