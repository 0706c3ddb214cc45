package ss7

import "github.com/creslin7/ss7stack/isup"

// HostCallbacks is every callback the facade invokes into host code,
// registered once per session (§6): the isup.HostCallbacks trio
// (Hangup/NotInService/CallNull) plus the structured-logging sinks §6 also
// names. A host implements this once and passes it to New.
type HostCallbacks interface {
	isup.HostCallbacks

	// Message and Error are the structured-logging sinks §6 calls out; the
	// Session's Logger forwards every Infof/Errorf call through these in
	// addition to the injected zap logger.
	Message(msg string)
	Error(err error)
}
