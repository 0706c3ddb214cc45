package isup

// HostCallbacks lets the Engine ask the host application about CIC state it
// does not track itself: whether a circuit is actually idle/in-use before
// honoring a hangup or reset request, and a notice that a circuit has gone
// out of service. Mirrors libss7's hangup/cic-state callback pair that the
// isup_* C API exposes to the application layer.
type HostCallbacks interface {
	// Hangup reports that the call on cic/dpc should be torn down for cause,
	// and asks the host to decide how: resulting HangupResult/HangupAction
	// values come straight from libss7.h's SS7_CIC_*/SS7_HANGUP_* enums.
	Hangup(cic uint16, dpc uint32, cause int) (HangupResult, HangupAction)

	// NotInService reports that cic on dpc has gone out of service (T5/RSC
	// without RLC); the host should stop offering it to new calls.
	NotInService(cic uint16, dpc uint32)

	// CallNull is invoked just before the Engine frees a Call, so the host
	// can clear any back-reference it holds, per §6's call-null(call, lock)
	// callback.
	CallNull(cic uint16, dpc uint32)
}
