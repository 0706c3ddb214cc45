package isup

import (
	"testing"
	"time"

	"github.com/creslin7/ss7stack/mtp3"
	"github.com/creslin7/ss7stack/scheduler"
	"github.com/stretchr/testify/require"
)

type quietLog struct{}

func (quietLog) Debugf(string, ...any) {}
func (quietLog) Infof(string, ...any)  {}
func (quietLog) Errorf(string, ...any) {}

type fakeSender struct {
	sent []sentFrame
	err  error
}

type sentFrame struct {
	dpc      uint32
	userPart uint8
	sls      uint8
	payload  []byte
}

func (f *fakeSender) Send(now time.Time, dpc uint32, userPart uint8, sls uint8, payload []byte) error {
	if f.err != nil {
		return f.err
	}
	f.sent = append(f.sent, sentFrame{dpc, userPart, sls, payload})
	return nil
}

type fakeHost struct {
	notInService []uint16
	nulled       []uint16
}

func (h *fakeHost) Hangup(cic uint16, dpc uint32, cause int) (HangupResult, HangupAction) {
	return CICIdle, HangupFreeCall
}
func (h *fakeHost) NotInService(cic uint16, dpc uint32) { h.notInService = append(h.notInService, cic) }
func (h *fakeHost) CallNull(cic uint16, dpc uint32)     { h.nulled = append(h.nulled, cic) }

type fakeUpper struct {
	events             []Event
	linkUp, linkDown   []int
	linksetUp, linksetDown int
}

func (u *fakeUpper) ISUPEvent(e Event)  { u.events = append(u.events, e) }
func (u *fakeUpper) LinkUp(slc int)     { u.linkUp = append(u.linkUp, slc) }
func (u *fakeUpper) LinkDown(slc int)   { u.linkDown = append(u.linkDown, slc) }
func (u *fakeUpper) LinksetUp()         { u.linksetUp++ }
func (u *fakeUpper) LinksetDown()       { u.linksetDown++ }

func newTestEngine(t *testing.T) (*Engine, *fakeSender, *fakeHost, *fakeUpper) {
	t.Helper()
	sched := scheduler.New(256)
	sender := &fakeSender{}
	host := &fakeHost{}
	upper := &fakeUpper{}
	e := NewEngine(mtp3.ITU, 100, DefaultTimers(), sched, quietLog{}, sender, host, upper)
	return e, sender, host, upper
}

func TestNewCallOutDerivesITUSlsFromCIC(t *testing.T) {
	e, _, _, _ := newTestEngine(t)
	c := e.NewCallOut(0x1234, 200)
	require.Equal(t, uint8(0x1234&0xf), c.SLS)
}

func TestNewCallOutDerivesANSISlsFromCounter(t *testing.T) {
	e, _, _, _ := newTestEngine(t)
	e.Variant = mtp3.ANSI
	c1 := e.NewCallOut(1, 200)
	c2 := e.NewCallOut(2, 200)
	require.Equal(t, uint8(0), c1.SLS)
	require.Equal(t, uint8(1), c2.SLS)
}

func TestOutboundIAMSentOverSender(t *testing.T) {
	e, sender, _, _ := newTestEngine(t)
	now := time.Now()
	c := e.NewCallOut(5, 200)
	c.Called = PartyNumber{Digits: "5551234", NAI: NAINational, Plan: 1}
	require.NoError(t, e.send(now, c, IAM))
	require.Len(t, sender.sent, 1)
	require.Equal(t, uint32(200), sender.sent[0].dpc)
	require.Equal(t, uint8(mtp3.SIGISUP), sender.sent[0].userPart)
}

func TestDeliverUserPartDispatchesIAMAndArmsT7(t *testing.T) {
	e, _, _, upper := newTestEngine(t)
	now := time.Now()

	c := NewCall(9, 0, 0)
	c.Called = PartyNumber{Digits: "1234", NAI: NAINational, Plan: 1}
	body, err := encodeMessage(IAM, c)
	require.NoError(t, err)
	payload := append(EncodeCIC(mtp3.ITU, 9), IAM)
	payload = append(payload, body...)

	e.DeliverUserPart(now, mtp3.RoutingLabel{DPC: 100, OPC: 300, SLS: 2}, mtp3.SIGISUP, payload)

	require.Len(t, upper.events, 1)
	require.Equal(t, EventIAM, upper.events[0].Kind)
	got := e.callFor(9, 300)
	require.NotNil(t, got)
	require.Equal(t, "1234", got.Called.Digits)

	when, ok := e.Sched.NextDeadline()
	require.True(t, ok, "expected T7 to be armed")
	require.True(t, when.After(now))
}

func TestDualSeizureLoserResendsIAMAfterRLC(t *testing.T) {
	e, sender, _, _ := newTestEngine(t)
	now := time.Now()

	// We are PC 100; the peer at 300 has the higher point code and wins.
	c := e.NewCallOut(9, 300)
	c.GotSentMsg |= SentIAM
	e.putCall(c)

	body, err := encodeMessage(IAM, c)
	require.NoError(t, err)
	payload := append(EncodeCIC(mtp3.ITU, 9), IAM)
	payload = append(payload, body...)
	e.DeliverUserPart(now, mtp3.RoutingLabel{DPC: 100, OPC: 300, SLS: 0}, mtp3.SIGISUP, payload)

	require.True(t, c.dualSeizureLoser)
	require.Len(t, sender.sent, 1, "expected REL to be sent as the dual-seizure loser")

	// Simulate the RLC coming back.
	rlcPayload := append(EncodeCIC(mtp3.ITU, 9), RLC)
	e.DeliverUserPart(now, mtp3.RoutingLabel{DPC: 100, OPC: 300, SLS: 0}, mtp3.SIGISUP, rlcPayload)
	require.Equal(t, GotSentMsg(0), c.GotSentMsg)
}

func TestSUSArmsTimerAndRESCancelsIt(t *testing.T) {
	e, _, _, _ := newTestEngine(t)
	now := time.Now()
	c := NewCall(3, 300, 0)
	e.putCall(c)

	e.handleSUS(now, c)
	_, ok := e.Sched.NextDeadline()
	require.True(t, ok)

	e.handleRES(now, c)
	require.True(t, c.idle())
}

func TestUCICNotifiesHost(t *testing.T) {
	e, _, host, _ := newTestEngine(t)
	now := time.Now()
	c := NewCall(11, 300, 0)
	e.putCall(c)

	e.handleUCIC(now, c)
	require.Equal(t, []uint16{11}, host.notInService)
}

func TestSendBLOArmsT12ThenT13(t *testing.T) {
	e, sender, _, _ := newTestEngine(t)
	e.Timers.T12 = time.Second
	e.Timers.T13 = time.Second
	now := time.Now()
	c := e.NewCallOut(6, 300)

	require.NoError(t, e.SendBLO(now, c))
	require.Len(t, sender.sent, 1)

	when, ok := e.Sched.NextDeadline()
	require.True(t, ok)
	e.Sched.RunDue(when)
	require.Len(t, sender.sent, 2, "expected T12 expiry to resend BLO")

	when, ok = e.Sched.NextDeadline()
	require.True(t, ok)
	e.Sched.RunDue(when)
	require.Len(t, sender.sent, 3, "expected T13 expiry to resend BLO again")
}

func TestT1RetransmitsRELUntilRLC(t *testing.T) {
	e, sender, _, _ := newTestEngine(t)
	e.Timers.T1 = time.Second
	now := time.Now()
	c := e.NewCallOut(4, 300)

	e.sendREL(now, c, 16)
	require.Len(t, sender.sent, 1)

	when, ok := e.Sched.NextDeadline()
	require.True(t, ok)
	e.Sched.RunDue(when)
	require.Len(t, sender.sent, 2, "expected T1 expiry to retransmit REL")
}
