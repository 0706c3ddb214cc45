package ss7

import (
	"fmt"

	"github.com/creslin7/ss7stack/mtp2"
)

// Logger is the Debugf/Infof/Errorf-shaped structured-logging surface every
// subsystem logs through; identical in shape to mtp2.Logger and mtp3.Logger
// so a single *zap.SugaredLogger adapter satisfies all of them, per
// SPEC_FULL.md §10.
type Logger = mtp2.Logger

// hostLogger is the Logger the facade actually injects into every
// scheduler/mtp2/mtp3/isup constructor: it forwards to the zap-backed
// Logger the host supplied to New, and additionally relays Infof/Errorf
// text through the host's message/error callback sinks (§6), which is the
// sense in which "the facade satisfies ss7.Logger by wrapping the injected
// zap logger."
type hostLogger struct {
	zap  Logger
	host HostCallbacks
}

func newHostLogger(zap Logger, host HostCallbacks) *hostLogger {
	return &hostLogger{zap: zap, host: host}
}

func (l *hostLogger) Debugf(format string, args ...any) {
	l.zap.Debugf(format, args...)
}

func (l *hostLogger) Infof(format string, args ...any) {
	l.zap.Infof(format, args...)
	if l.host != nil {
		l.host.Message(fmt.Sprintf(format, args...))
	}
}

func (l *hostLogger) Errorf(format string, args ...any) {
	l.zap.Errorf(format, args...)
	if l.host != nil {
		l.host.Error(fmt.Errorf(format, args...))
	}
}
