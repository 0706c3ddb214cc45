package mtp3

import (
	"testing"
	"time"

	"github.com/creslin7/ss7stack/mtp2"
	"github.com/creslin7/ss7stack/scheduler"
)

type fakeDevice struct {
	sent  [][]byte
	inbox [][]byte
}

func (d *fakeDevice) ReadFrame() ([]byte, bool, error) {
	if len(d.inbox) == 0 {
		return nil, false, nil
	}
	f := d.inbox[0]
	d.inbox = d.inbox[1:]
	return f, true, nil
}
func (d *fakeDevice) WriteFrame(frame []byte) error { d.sent = append(d.sent, frame); return nil }
func (d *fakeDevice) PollEvent() (mtp2.DeviceEvent, bool) { return mtp2.EventNone, false }
func (d *fakeDevice) WriteReady() bool                    { return true }
func (d *fakeDevice) ZapMTP2() bool                       { return false }

type fakeUpper struct {
	linkUp, linkDown   []int
	linksetUp          bool
	linksetDown        bool
	delivered          []byte
}

func (u *fakeUpper) DeliverUserPart(now time.Time, rl RoutingLabel, userPart byte, payload []byte) {
	u.delivered = payload
}
func (u *fakeUpper) LinkUp(slc int)   { u.linkUp = append(u.linkUp, slc) }
func (u *fakeUpper) LinkDown(slc int) { u.linkDown = append(u.linkDown, slc) }
func (u *fakeUpper) LinksetUp()       { u.linksetUp = true }
func (u *fakeUpper) LinksetDown()     { u.linksetDown = true }

type quietLog struct{}

func (quietLog) Debugf(string, ...any) {}
func (quietLog) Infof(string, ...any)  {}
func (quietLog) Errorf(string, ...any) {}

// bringLinkUp drives the mtp2 alignment handshake directly (mirroring
// mtp2's own test helper) so mtp3 sees a real IN-SERVICE transition.
func bringLinkUp(t *testing.T, l *LinkState, sched *scheduler.Scheduler, now time.Time) {
	t.Helper()
	l.Start(now, false)
	if err := l.Receive(now, testLSSU(1, true)); err != nil {
		t.Fatalf("peer SIN: %v", err)
	}
	when, ok := sched.NextDeadline()
	if !ok {
		t.Fatal("expected T4 deadline")
	}
	sched.RunDue(when)
	if err := l.Receive(when, testFISU()); err != nil {
		t.Fatalf("peer FISU: %v", err)
	}
	if !l.InService() {
		t.Fatalf("setup: link not IN-SERVICE")
	}
}

func newTestEngine(t *testing.T) (*Engine, *LinkState, *fakeDevice, *fakeUpper, *scheduler.Scheduler) {
	t.Helper()
	sched := scheduler.New(64)
	upper := &fakeUpper{}
	e := NewEngine(ITU, 100, NINational, 0, sched, quietLog{}, upper)
	sp := NewAdjacentSP(200, quietLog{})
	dev := &fakeDevice{}
	link := mtp2.NewLink(dev, 0, 200, mtp2.ITU, mtp2.DefaultTimers(mtp2.ITU), nil, quietLog{}, sched)
	ls := NewLinkState(link, sp, 0, sched, quietLog{}, MTP3Timers{T1: time.Second, T2: time.Second, T12: time.Second, T13: time.Second, T14: time.Second}, Q707Timers{T1: time.Second, T2: 10 * time.Second})
	link.Upper = ls
	e.AddAdjacentSP(sp)
	return e, ls, dev, upper, sched
}

func TestSLTMSendOnLinkUp(t *testing.T) {
	e, ls, dev, upper, sched := newTestEngine(t)
	now := time.Now()
	bringLinkUp(t, ls, sched, now)

	if len(upper.linkUp) != 1 || upper.linkUp[0] != 0 {
		t.Fatalf("expected LinkUp(0), got %v", upper.linkUp)
	}
	sentBefore := len(dev.sent)
	ls.Flush(now)
	if len(dev.sent) == sentBefore {
		t.Fatal("expected an SLTM to be sent on link up")
	}
	last := dev.sent[len(dev.sent)-1]
	if _, _, up := DecodeSIO(last[3]); up != SIGStdTest {
		t.Fatalf("expected the SLTM user part %d, got %d", SIGStdTest, up)
	}
	_ = e
}

func TestSLTMReceiveAndPass(t *testing.T) {
	e, ls, _, _, sched := newTestEngine(t)
	now := time.Now()
	bringLinkUp(t, ls, sched, now)

	sio := EncodeSIO(NINational, 0, SIGStdTest)
	label := EncodeLabel(ITU, RoutingLabel{DPC: 100, OPC: 200, SLS: 0})
	body := append([]byte{0x21, byte(len(sltTestPattern)) << 4}, sltTestPattern...) // SLTA h0=1,h1=2
	sif := append(label, body...)
	e.deliverUserPart(now, ls, sio, sif)

	if !ls.STDTestPassed {
		t.Fatalf("expected SLTA with matching pattern to pass the test")
	}
}

func TestSLTMReceiveMismatchFailsLink(t *testing.T) {
	e, ls, _, upper, sched := newTestEngine(t)
	now := time.Now()
	bringLinkUp(t, ls, sched, now)

	sio := EncodeSIO(NINational, 0, SIGStdTest)
	label := EncodeLabel(ITU, RoutingLabel{DPC: 100, OPC: 200, SLS: 0})
	bad := []byte("wrongpattern")
	body := append([]byte{0x21, byte(len(bad)) << 4}, bad...)
	sif := append(label, body...)
	e.deliverUserPart(now, ls, sio, sif)

	if ls.State() != mtp2.StateAlarm {
		t.Fatalf("expected link to alarm after a failed SLTA, got %s", ls.State())
	}
	if len(upper.linkDown) != 1 {
		t.Fatalf("expected LinkDown to fire, got %v", upper.linkDown)
	}
}

func TestTRABringsAdjacentSPUp(t *testing.T) {
	e, ls, _, upper, sched := newTestEngine(t)
	now := time.Now()
	bringLinkUp(t, ls, sched, now)

	ls.STDTestPassed = true
	e.maybeStartTRA(now, ls.Owner)
	if ls.Owner.State != AdjSPAligning {
		t.Fatalf("expected ALIGNING after sending TRA, got %s", ls.Owner.State)
	}

	e.onTRA(now, ls.Owner)
	if ls.Owner.State != AdjSPUp {
		t.Fatalf("expected UP once both sides' TRA are accounted for, got %s", ls.Owner.State)
	}
	if !upper.linksetUp {
		t.Fatalf("expected LinksetUp to fire")
	}
}

func TestRouteStateTFPThenTFA(t *testing.T) {
	e, ls, _, _, sched := newTestEngine(t)
	now := time.Now()
	bringLinkUp(t, ls, sched, now)

	e.onRouteState(now, ls.Owner, 50, RouteProhibited)
	r := ls.Owner.RouteFor(50)
	if r.State != RouteProhibited {
		t.Fatalf("expected TFP, got %s", r.State)
	}

	e.onRouteState(now, ls.Owner, 50, RouteAllowed)
	if r.State != RouteAllowed {
		t.Fatalf("expected TFA, got %s", r.State)
	}
}

func TestChangeoverOrderRecordsGotCOO(t *testing.T) {
	e, ls, _, _, sched := newTestEngine(t)
	now := time.Now()
	bringLinkUp(t, ls, sched, now)
	ls.Owner.setState(now, AdjSPUp)

	e.onChangeoverOrder(now, ls, false, 127)
	if ls.SentGotNetMsg&GotCOO == 0 {
		t.Fatalf("expected GotCOO to be recorded")
	}
}

// testLSSU/testFISU build minimal ITU SU frames matching mtp2's 3-octet
// header layout (BSN:7|BIB:1, FSN:7|FIB:1, LI:6|spare:2), good enough to
// drive the peer side of the alignment handshake under test.
func testLSSU(status byte, bib bool) []byte {
	b0 := byte(0x7f)
	if bib {
		b0 |= 0x80
	}
	return []byte{b0, 0x80, 1, status}
}

func testFISU() []byte {
	return []byte{0xff, 0x80, 0}
}
