package mtp2

// DeviceEvent is a side-channel error the underlying link device can report
// alongside (not instead of) a normal read. These arrive out-of-band from
// an ioctl-style query per SPEC_FULL.md §6.
type DeviceEvent int

const (
	// EventNone means the device has nothing to report.
	EventNone DeviceEvent = iota
	// EventOverrun is a receiver buffer overrun.
	EventOverrun
	// EventBadFCS is a frame that failed its checksum.
	EventBadFCS
	// EventHDLCAbort is an HDLC abort sequence.
	EventHDLCAbort
	// EventUnknown is any device event this stack does not recognise; it
	// is logged and otherwise ignored, per §6.
	EventUnknown
)

func (e DeviceEvent) String() string {
	switch e {
	case EventNone:
		return "none"
	case EventOverrun:
		return "overrun"
	case EventBadFCS:
		return "bad-fcs"
	case EventHDLCAbort:
		return "hdlc-abort"
	default:
		return "unknown"
	}
}

// Device is the byte-oriented link carrying HDLC-framed signalling units.
// One read returns exactly one frame with its trailing FCS already
// stripped by the driver; Write enqueues one frame for transmission. Both
// are expected to be non-blocking: ReadFrame returns ok=false rather than
// blocking when nothing is available, and WriteFrame returns
// a non-nil error when the device cannot accept more data this cycle.
//
// Implementations for a zap-MTP2 transport (the driver performs framing
// and sequencing itself) set ZapMTP2 to true; ReadFrame then delivers
// pre-stripped MSU payloads directly and WriteFrame is gated by
// WriteReady rather than by layer-2 timing.
type Device interface {
	// ReadFrame returns the next available frame, if any.
	ReadFrame() (frame []byte, ok bool, err error)
	// WriteFrame transmits a single frame.
	WriteFrame(frame []byte) error
	// PollEvent returns the next pending side-channel device event.
	PollEvent() (DeviceEvent, bool)
	// WriteReady reports whether the device can currently accept a write;
	// only meaningful for a zap-MTP2 transport.
	WriteReady() bool
	// ZapMTP2 reports whether this device performs its own MTP2 framing.
	ZapMTP2() bool
}
