// Package fakedevice provides an in-memory mtp2.Device, generalizing the
// mtp2 package's own testDevice (mtp2/link_test.go) into a pair that wires
// two Devices together so two ss7.Session instances can exchange frames
// without a real HDLC transport — the equivalent of net.Pipe for this
// stack's Device interface, used to drive end-to-end scenarios in tests
// and in ss7harness's loopback mode.
package fakedevice

import "github.com/creslin7/ss7stack/mtp2"

// Device is an in-memory mtp2.Device. WriteFrame appends to peer's inbox
// (when paired); ReadFrame drains its own inbox FIFO-first. InjectEvent
// queues a DeviceEvent for the next PollEvent call, letting a test force
// an overrun/bad-FCS/HDLC-abort alarm without corrupting real bytes.
type Device struct {
	peer *Device

	inbox  [][]byte
	events []mtp2.DeviceEvent

	writeReady bool
	zapMTP2    bool
}

// New creates an unpaired Device; Feed/ReadFrame work immediately but
// WriteFrame has nowhere to deliver to until Pair is called.
func New() *Device {
	return &Device{writeReady: true}
}

// Pair wires a and b so each one's WriteFrame delivers into the other's
// inbox, mirroring two ends of one signalling link.
func Pair() (a, b *Device) {
	a, b = New(), New()
	a.peer, b.peer = b, a
	return a, b
}

func (d *Device) ReadFrame() ([]byte, bool, error) {
	if len(d.inbox) == 0 {
		return nil, false, nil
	}
	f := d.inbox[0]
	d.inbox = d.inbox[1:]
	return f, true, nil
}

func (d *Device) WriteFrame(frame []byte) error {
	if d.peer != nil {
		cp := make([]byte, len(frame))
		copy(cp, frame)
		d.peer.inbox = append(d.peer.inbox, cp)
	}
	return nil
}

func (d *Device) PollEvent() (mtp2.DeviceEvent, bool) {
	if len(d.events) == 0 {
		return mtp2.EventNone, false
	}
	ev := d.events[0]
	d.events = d.events[1:]
	return ev, true
}

func (d *Device) WriteReady() bool { return d.writeReady }
func (d *Device) ZapMTP2() bool    { return d.zapMTP2 }

// SetWriteReady lets a test simulate backpressure.
func (d *Device) SetWriteReady(ready bool) { d.writeReady = ready }

// SetZapMTP2 selects whether this device reports itself as a Zaptel/DAHDI
// MTP2-in-hardware device (mtp2.Device.ZapMTP2, §6).
func (d *Device) SetZapMTP2(zap bool) { d.zapMTP2 = zap }

// Feed queues frame for the next ReadFrame call, for tests that need to
// inject a frame without going through a peer (e.g. malformed input).
func (d *Device) Feed(frame []byte) { d.inbox = append(d.inbox, frame) }

// InjectEvent queues ev for the next PollEvent call.
func (d *Device) InjectEvent(ev mtp2.DeviceEvent) { d.events = append(d.events, ev) }

// Pending reports how many frames are queued for this device to read.
// Frames this device writes are not kept here; they go straight to the
// peer's inbox.
func (d *Device) Pending() int { return len(d.inbox) }
