package ss7

import (
	"testing"
	"time"

	"github.com/creslin7/ss7stack/internal/fakedevice"
	"github.com/creslin7/ss7stack/isup"
	"github.com/creslin7/ss7stack/mtp3"
)

type nopLogger struct{}

func (nopLogger) Debugf(format string, args ...any) {}
func (nopLogger) Infof(format string, args ...any)  {}
func (nopLogger) Errorf(format string, args ...any) {}

type nopHost struct{}

func (nopHost) Hangup(cic uint16, dpc uint32, cause int) (isup.HangupResult, isup.HangupAction) {
	return isup.CICIdle, isup.HangupFreeCall
}
func (nopHost) NotInService(cic uint16, dpc uint32) {}
func (nopHost) CallNull(cic uint16, dpc uint32)     {}
func (nopHost) Message(msg string)                  {}
func (nopHost) Error(err error)                     {}

func newTestSession(t *testing.T) *Session {
	t.Helper()
	sess, err := New(DefaultConfig(mtp3.ITU), nopHost{}, nopLogger{})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	return sess
}

func TestAddLinkAssignsSequentialSLCs(t *testing.T) {
	sess := newTestSession(t)
	devA, _ := fakedevice.Pair()
	devB, _ := fakedevice.Pair()

	slc0, err := sess.AddLink(devA, 2)
	if err != nil {
		t.Fatalf("AddLink: %v", err)
	}
	slc1, err := sess.AddLink(devB, 3)
	if err != nil {
		t.Fatalf("AddLink: %v", err)
	}
	if slc0 != 0 || slc1 != 1 {
		t.Errorf("AddLink slcs = %d, %d, want 0, 1", slc0, slc1)
	}
}

func TestAddLinkReusesAdjacentSPPerDPC(t *testing.T) {
	sess := newTestSession(t)
	devA, _ := fakedevice.Pair()
	devB, _ := fakedevice.Pair()

	if _, err := sess.AddLink(devA, 7); err != nil {
		t.Fatalf("AddLink: %v", err)
	}
	if _, err := sess.AddLink(devB, 7); err != nil {
		t.Fatalf("AddLink: %v", err)
	}

	sps := sess.MTP3().AdjacentSPs
	if len(sps) != 1 {
		t.Fatalf("AdjacentSPs = %d entries, want 1 (both links share DPC 7)", len(sps))
	}
	if len(sps[0].Links) != 2 {
		t.Errorf("AdjacentSP.Links = %d, want 2", len(sps[0].Links))
	}
}

func TestAddLinkDistinctDPCsGetDistinctAdjacentSPs(t *testing.T) {
	sess := newTestSession(t)
	devA, _ := fakedevice.Pair()
	devB, _ := fakedevice.Pair()

	if _, err := sess.AddLink(devA, 7); err != nil {
		t.Fatalf("AddLink: %v", err)
	}
	if _, err := sess.AddLink(devB, 8); err != nil {
		t.Fatalf("AddLink: %v", err)
	}

	if got := len(sess.MTP3().AdjacentSPs); got != 2 {
		t.Errorf("AdjacentSPs = %d entries, want 2", got)
	}
}

func TestRunBeforeStartReturnsErrNotStarted(t *testing.T) {
	sess := newTestSession(t)
	if err := sess.Run(time.Now()); err != ErrNotStarted {
		t.Errorf("Run before Start = %v, want ErrNotStarted", err)
	}
}

func TestCheckEventEmptyBeforeAnyTraffic(t *testing.T) {
	sess := newTestSession(t)
	devA, _ := fakedevice.Pair()
	if _, err := sess.AddLink(devA, 2); err != nil {
		t.Fatalf("AddLink: %v", err)
	}
	now := time.Now()
	if err := sess.Start(now); err != nil {
		t.Fatalf("Start: %v", err)
	}
	if err := sess.Run(now); err != nil {
		t.Fatalf("Run: %v", err)
	}
	if _, ok := sess.CheckEvent(); ok {
		t.Errorf("CheckEvent: got an event before any link reached service")
	}
}

func TestCallByCICUnknownReturnsErrUnknownCIC(t *testing.T) {
	sess := newTestSession(t)
	if _, err := sess.CallByCIC(5, 7); err != ErrUnknownCIC {
		t.Errorf("CallByCIC on an untracked circuit = %v, want ErrUnknownCIC", err)
	}
}

func TestCallByCICFindsCallCreatedByNewCallOut(t *testing.T) {
	sess := newTestSession(t)
	want := sess.ISUP().NewCallOut(5, 7)
	got, err := sess.CallByCIC(5, 7)
	if err != nil {
		t.Fatalf("CallByCIC: %v", err)
	}
	if got != want {
		t.Errorf("CallByCIC returned a different *Call than NewCallOut produced")
	}
}

func TestPollFlagsReportsSchedulerDeadlineAfterStart(t *testing.T) {
	sess := newTestSession(t)
	devA, _ := fakedevice.Pair()
	if _, err := sess.AddLink(devA, 2); err != nil {
		t.Fatalf("AddLink: %v", err)
	}
	now := time.Now()
	if err := sess.Start(now); err != nil {
		t.Fatalf("Start: %v", err)
	}
	pf := sess.PollFlags()
	if !pf.HasDeadline {
		t.Errorf("PollFlags: expected a scheduler deadline after Start armed T2, got none")
	}
}
