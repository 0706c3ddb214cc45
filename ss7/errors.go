package ss7

import "errors"

// Sentinel errors a host can branch on with errors.Is, per SPEC_FULL.md
// §10's error-handling section. Layer errors are always wrapped with
// fmt.Errorf("...: %w", err) before crossing back out of Session methods,
// the way the original's ss7_error() wrapped strerror-style messages.
var (
	// ErrSchedulerFull means the scheduler's slot table has no room for a
	// new timer; the operation that tried to arm it failed and, if it was
	// arming a per-call timer, the originating Call is freed.
	ErrSchedulerFull = errors.New("ss7: scheduler slot table exhausted")

	// ErrEventRingFull means CheckEvent has not drained fast enough; the
	// event that could not be appended is dropped and logged.
	ErrEventRingFull = errors.New("ss7: event ring full, event dropped")

	// ErrLinkNotInService is returned by host-originated sends that target
	// a link not yet IN-SERVICE.
	ErrLinkNotInService = errors.New("ss7: link not in service")

	// ErrNoRoute means no link or route currently admits traffic to the
	// requested destination point code.
	ErrNoRoute = errors.New("ss7: no route to destination point code")

	// ErrUnknownLink is returned by Session methods that take a link index
	// out of range of the links added with AddLink.
	ErrUnknownLink = errors.New("ss7: unknown link")

	// ErrNotStarted is returned by Run if called before Start.
	ErrNotStarted = errors.New("ss7: session not started")

	// ErrUnknownCIC is returned by CallByCIC when no call is currently
	// tracked for the given (CIC, DPC) pair.
	ErrUnknownCIC = errors.New("ss7: unknown CIC")
)
