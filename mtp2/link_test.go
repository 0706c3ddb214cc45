package mtp2

import (
	"testing"
	"time"

	"github.com/creslin7/ss7stack/scheduler"
)

// testDevice is an in-memory Device: writes accumulate in sent, and reads
// are served from a manually-fed queue, letting tests drive a Link frame
// by frame without a real HDLC transport.
type testDevice struct {
	sent  [][]byte
	inbox [][]byte
}

func (d *testDevice) ReadFrame() ([]byte, bool, error) {
	if len(d.inbox) == 0 {
		return nil, false, nil
	}
	f := d.inbox[0]
	d.inbox = d.inbox[1:]
	return f, true, nil
}

func (d *testDevice) WriteFrame(frame []byte) error {
	d.sent = append(d.sent, frame)
	return nil
}

func (d *testDevice) PollEvent() (DeviceEvent, bool) { return EventNone, false }
func (d *testDevice) WriteReady() bool               { return true }
func (d *testDevice) ZapMTP2() bool                  { return false }

func (d *testDevice) feed(frame []byte) { d.inbox = append(d.inbox, frame) }

func (d *testDevice) lastSent() []byte {
	if len(d.sent) == 0 {
		return nil
	}
	return d.sent[len(d.sent)-1]
}

// testUpper records DeliverMSU payloads and LinkStateChanged transitions.
type testUpper struct {
	delivered [][]byte
	upEvents  []bool
}

func (u *testUpper) DeliverMSU(now time.Time, l *Link, sif []byte) {
	u.delivered = append(u.delivered, sif)
}

func (u *testUpper) LinkStateChanged(now time.Time, l *Link, up bool) {
	u.upEvents = append(u.upEvents, up)
}

type testLogger struct{}

func (testLogger) Debugf(string, ...any) {}
func (testLogger) Infof(string, ...any)  {}
func (testLogger) Errorf(string, ...any) {}

func newTestLink() (*Link, *testDevice, *testUpper, *scheduler.Scheduler) {
	dev := &testDevice{}
	up := &testUpper{}
	sched := scheduler.New(16)
	l := NewLink(dev, 0, 1, ITU, DefaultTimers(ITU), up, testLogger{}, sched)
	return l, dev, up, sched
}

func lssuFrame(status LSSUStatus, bsn uint8, bib bool) []byte {
	return encodeLSSU(suHeader{bsn: bsn, bib: bib}, status)
}

func fisuFrame(bsn uint8, bib bool) []byte {
	return encodeFISU(suHeader{bsn: bsn, bib: bib})
}

func TestAlignmentHappyPath(t *testing.T) {
	l, dev, up, _ := newTestLink()
	now := time.Now()

	l.Start(now, false)
	if l.State() != StateNotAligned {
		t.Fatalf("expected NOT-ALIGNED after Start, got %s", l.State())
	}
	if dev.lastSent() == nil {
		t.Fatalf("expected Start to send an SIO")
	}

	if err := l.Receive(now, lssuFrame(StatusSIO, 127, true)); err != nil {
		t.Fatalf("receive SIO: %v", err)
	}
	if l.State() != StateAligned {
		t.Fatalf("expected ALIGNED after peer SIO, got %s", l.State())
	}

	if err := l.Receive(now, lssuFrame(StatusSIN, 127, true)); err != nil {
		t.Fatalf("receive SIN: %v", err)
	}
	if l.State() != StateProving {
		t.Fatalf("expected PROVING after peer SIN, got %s", l.State())
	}

	// T4 (proving period) expires: link becomes ALIGNED-READY and sends a FISU.
	when, ok := l.Sched.NextDeadline()
	if !ok {
		t.Fatal("expected T4 to be armed")
	}
	l.Sched.RunDue(when)
	if l.State() != StateAlignedReady {
		t.Fatalf("expected ALIGNED-READY after T4 expiry, got %s", l.State())
	}

	if len(up.upEvents) != 0 {
		t.Fatalf("link must not be reported up before a FISU/MSU is exchanged")
	}

	if err := l.Receive(when, fisuFrame(127, true)); err != nil {
		t.Fatalf("receive FISU: %v", err)
	}
	if l.State() != StateInService {
		t.Fatalf("expected IN-SERVICE after peer FISU, got %s", l.State())
	}
	if len(up.upEvents) != 1 || !up.upEvents[0] {
		t.Fatalf("expected exactly one up=true LinkStateChanged event, got %v", up.upEvents)
	}
}

func TestNotAlignedPlainSIOGoesToAligned(t *testing.T) {
	l, _, _, _ := newTestLink()
	now := time.Now()
	l.Start(now, false)
	l.Receive(now, lssuFrame(StatusSIO, 127, true))
	if l.State() != StateAligned {
		t.Fatalf("expected ALIGNED, got %s", l.State())
	}
	if l.t3 < 0 {
		t.Errorf("expected T3 to be armed on entering ALIGNED")
	}
}

func TestAlignedSIOSGoesIdle(t *testing.T) {
	l, _, _, _ := newTestLink()
	now := time.Now()
	l.Start(now, false)
	l.Receive(now, lssuFrame(StatusSIO, 127, true))
	l.Receive(now, lssuFrame(StatusSIOS, 127, true))
	if l.State() != StateIdle {
		t.Fatalf("expected IDLE after SIOS while ALIGNED, got %s", l.State())
	}
}

func TestProvingPlainSIODowngradesToAligned(t *testing.T) {
	l, _, _, _ := newTestLink()
	now := time.Now()
	l.Start(now, true)
	l.Receive(now, lssuFrame(StatusSIE, 127, true))
	if l.State() != StateProving {
		t.Fatalf("expected PROVING, got %s", l.State())
	}
	l.Receive(now, lssuFrame(StatusSIO, 127, true))
	if l.State() != StateAligned {
		t.Fatalf("expected downgrade to ALIGNED on plain SIO while PROVING, got %s", l.State())
	}
	if l.t3 < 0 {
		t.Errorf("expected T3 to be re-armed on the PROVING->ALIGNED downgrade")
	}
}

func TestT3ExpiryInAlignedForcesIdle(t *testing.T) {
	l, _, _, sched := newTestLink()
	now := time.Now()
	l.Start(now, false)
	l.Receive(now, lssuFrame(StatusSIO, 127, true))
	if l.State() != StateAligned {
		t.Fatalf("expected ALIGNED, got %s", l.State())
	}
	when, ok := sched.NextDeadline()
	if !ok {
		t.Fatal("expected T3 deadline")
	}
	sched.RunDue(when)
	if l.State() != StateIdle {
		t.Fatalf("expected T3 expiry to force IDLE, got %s", l.State())
	}
}

func TestInServiceAnyLSSUReAligns(t *testing.T) {
	l, _, up, _ := newTestLink()
	now := time.Now()
	bringInService(t, l, now)

	l.Receive(now, lssuFrame(StatusSIN, 127, true))
	if l.State() != StateIdle {
		t.Fatalf("expected IN-SERVICE to re-align to IDLE on any LSSU, got %s", l.State())
	}
	if len(up.upEvents) != 2 || up.upEvents[1] {
		t.Fatalf("expected a down LinkStateChanged event, got %v", up.upEvents)
	}
}

func bringInService(t *testing.T, l *Link, now time.Time) {
	t.Helper()
	l.Start(now, false)
	l.Receive(now, lssuFrame(StatusSIN, 127, true))
	when, _ := l.Sched.NextDeadline()
	l.Sched.RunDue(when)
	if err := l.Receive(when, fisuFrame(127, true)); err != nil {
		t.Fatalf("receive FISU: %v", err)
	}
	if l.State() != StateInService {
		t.Fatalf("setup: expected IN-SERVICE, got %s", l.State())
	}
}

func TestMSUSequencingAndDelivery(t *testing.T) {
	l, _, up, _ := newTestLink()
	now := time.Now()
	bringInService(t, l, now)

	sif := []byte{0x01, 0x02, 0x03}
	hdr := suHeader{fsn: 0, fib: l.curBIB, bsn: l.lastFSNAcked, bib: l.curBIB}
	frame, err := encodeMSU(hdr, sif)
	if err != nil {
		t.Fatalf("encodeMSU: %v", err)
	}
	if err := l.Receive(now, frame); err != nil {
		t.Fatalf("receive MSU: %v", err)
	}
	if len(up.delivered) != 1 {
		t.Fatalf("expected one delivered MSU, got %d", len(up.delivered))
	}
	if string(up.delivered[0]) != string(sif) {
		t.Errorf("delivered payload mismatch: got %v want %v", up.delivered[0], sif)
	}
	if l.lastFSNAcked != 0 {
		t.Errorf("expected lastFSNAcked to advance to 0, got %d", l.lastFSNAcked)
	}
}

func TestMSUOutOfSequenceTogglesBIB(t *testing.T) {
	l, _, up, _ := newTestLink()
	now := time.Now()
	bringInService(t, l, now)
	startBIB := l.curBIB

	// FSN 5 arrives when 0 is expected: a gap, not a duplicate.
	hdr := suHeader{fsn: 5, fib: l.curBIB, bsn: l.lastFSNAcked, bib: l.curBIB}
	frame, _ := encodeMSU(hdr, []byte{0xff, 0xff, 0xff})
	if err := l.Receive(now, frame); err != nil {
		t.Fatalf("receive MSU: %v", err)
	}
	if len(up.delivered) != 0 {
		t.Fatalf("expected the out-of-sequence MSU to be dropped, not delivered")
	}
	if l.curBIB == startBIB {
		t.Errorf("expected BIB to toggle on a sequence gap")
	}
}

func TestNegativeAckRetransmitsBuffer(t *testing.T) {
	l, dev, _, _ := newTestLink()
	now := time.Now()
	bringInService(t, l, now)

	if err := l.MSU(now, []byte{0x01}); err != nil {
		t.Fatalf("MSU: %v", err)
	}
	l.Flush(now)
	sentBefore := len(dev.sent)

	// Peer sends an MSU whose FIB disagrees with our BIB: a negative ack,
	// which must retransmit everything still sitting in txBuf.
	nackHdr := suHeader{fsn: 9, fib: !l.curBIB, bsn: l.lastFSNAcked, bib: l.curBIB}
	frame, err := encodeMSU(nackHdr, []byte{0xee, 0xee, 0xee})
	if err != nil {
		t.Fatalf("encodeMSU: %v", err)
	}
	if err := l.Receive(now, frame); err != nil {
		t.Fatalf("receive: %v", err)
	}
	if len(dev.sent) <= sentBefore {
		t.Errorf("expected a negative ack to trigger retransmission, sent count unchanged")
	}
}

func TestDeviceAlarmReAligns(t *testing.T) {
	l, _, _, _ := newTestLink()
	now := time.Now()
	bringInService(t, l, now)
	l.DeviceAlarm(now, EventBadFCS)
	if l.State() != StateIdle {
		t.Fatalf("expected IDLE after device alarm, got %s", l.State())
	}
}

func TestAlarmAndNoAlarm(t *testing.T) {
	l, _, _, _ := newTestLink()
	now := time.Now()
	l.Start(now, false)
	l.Alarm(now)
	if l.State() != StateAlarm {
		t.Fatalf("expected ALARM, got %s", l.State())
	}
	l.NoAlarm(now)
	if l.State() != StateIdle {
		t.Fatalf("expected IDLE after NoAlarm, got %s", l.State())
	}
}
