package mtp3

import (
	"time"

	"github.com/creslin7/ss7stack/mtp2"
	"github.com/creslin7/ss7stack/queue"
	"github.com/creslin7/ss7stack/scheduler"
)

// Logger is the structured-logging surface mtp3 needs; identical to
// mtp2.Logger so a single *zap.SugaredLogger adapter serves both layers.
type Logger = mtp2.Logger

// Q707Timers holds the link-test retry/retest intervals (Q.707 is the ITU
// recommendation for the SLTM/SLTA procedure).
type Q707Timers struct {
	T1 time.Duration // bounds waiting for an SLTA
	T2 time.Duration // drives periodic re-test of an in-service link
}

// MTP3Timers holds the routing/link-management timer durations that live
// on a LinkState (as opposed to Q707Timers, or the per-AdjacentSP/Route
// timers T19/T21/T6/T10).
type MTP3Timers struct {
	T1, T2 time.Duration // COO/ECO sent, bound waiting for COA/ECA
	T3, T4, T5 time.Duration // changeback settle / CBD retransmit / abandon
	T12, T13 time.Duration // LIN sent, retransmit then abandon
	T14 time.Duration      // LUN sent, retransmit
	T22, T23 time.Duration // periodic LLT/LRT while inhibited
}

// LinkState is mtp3's view of a link: the embedded *mtp2.Link carries
// alignment and sequencing state, and everything here is MTP3-specific —
// inhibition, changeover/changeback, the Q.707 test, and the link's place
// in its AdjacentSP's routing table. Splitting it this way keeps mtp2
// ignorant of mtp3 (the leaves-first dependency order) while matching the
// original's single intrusive "struct mtp2" that carried both layers'
// state directly.
type LinkState struct {
	*mtp2.Link

	Owner *AdjacentSP
	SLC   int

	Inhibit         Inhibit
	Changeover      ChangeoverState
	STDTestPassed   bool
	SentGotNetMsg   SentGotNetMsg
	Q707T1FailCount int

	// Changeover snapshots: COTxBuf holds the unacked and queued MSUs
	// copied out of the mtp2.Link's own buffers at the moment of failure;
	// COBuf accumulates new traffic while changeover is in progress;
	// CBBuf accumulates traffic destined for the link while it is down,
	// to be flushed back once changeback completes.
	COTxBuf        []outboundSnapshot
	COLastFSNAcked uint8
	COBuf, CBBuf   *queue.Queue

	Timers     MTP3Timers
	Q707Timers Q707Timers

	t1, t2, t3, t4, t5, t12, t13, t14, t22, t23 scheduler.ID
	q707t1, q707t2                              scheduler.ID

	Sched *scheduler.Scheduler
	Log   Logger

	Engine netMsgSender
}

// outboundSnapshot is one MSU preserved across a changeover, in FSN order.
type outboundSnapshot struct {
	fsn uint8
	sif []byte
}

// netMsgSender is the subset of Engine a LinkState needs to originate
// network-management traffic and deliver decoded MSUs; kept as a small
// interface so link.go does not import engine.go's concrete type.
type netMsgSender interface {
	sendNetMsg(now time.Time, l *LinkState, typ NetMsgType, param byte)
	deliverUserPart(now time.Time, l *LinkState, sio byte, sif []byte)
	linkUp(now time.Time, l *LinkState)
	linkDown(now time.Time, l *LinkState)
}

// NewLinkState wraps link with the MTP3 state it needs, owned by sp.
func NewLinkState(link *mtp2.Link, sp *AdjacentSP, slc int, sched *scheduler.Scheduler, log Logger, timers MTP3Timers, q707 Q707Timers) *LinkState {
	ls := &LinkState{
		Link:       link,
		Owner:      sp,
		SLC:        slc,
		COBuf:      queue.New(),
		CBBuf:      queue.New(),
		Timers:     timers,
		Q707Timers: q707,
		Sched:      sched,
		Log:        log,
		t1: -1, t2: -1, t3: -1, t4: -1, t5: -1,
		t12: -1, t13: -1, t14: -1, t22: -1, t23: -1,
		q707t1: -1, q707t2: -1,
	}
	sp.Links = append(sp.Links, ls)
	return ls
}

// DeliverMSU implements mtp2.Upper: a fully-acknowledged MSU arrived on
// this link. mtp3 demultiplexes on the SIO's user part.
func (l *LinkState) DeliverMSU(now time.Time, _ *mtp2.Link, sif []byte) {
	if len(sif) < 1 {
		return
	}
	l.Engine.deliverUserPart(now, l, sif[0], sif[1:])
}

// LinkStateChanged implements mtp2.Upper: the link layer's alignment FSM
// went up or down.
func (l *LinkState) LinkStateChanged(now time.Time, _ *mtp2.Link, up bool) {
	if up {
		l.Engine.linkUp(now, l)
	} else {
		l.Engine.linkDown(now, l)
	}
}

// available reports whether this link currently accepts new traffic for
// direct transmission: MTP2 up, adjacent SP up, and no changeover blocking
// it outright.
func (l *LinkState) available() bool {
	return l.InService() && l.Owner.State == AdjSPUp && l.Changeover != ChangeoverCompleted
}
