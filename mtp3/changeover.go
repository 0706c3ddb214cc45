package mtp3

import "time"

// beginChangeover moves failed's traffic onto a replacement link: the
// unacked tx_buf/tx_q are snapshotted off failed, a replacement is chosen
// among the adjacent SP's other available links, and a CO(O)/ECO
// announces the last FSN failed received so the replacement knows what to
// retransmit. Lacking a replacement, traffic queues on failed's own
// changeover buffer until one becomes available.
func (e *Engine) beginChangeover(now time.Time, failed *LinkState, emergency bool) {
	failed.Changeover = ChangeoverInitiated
	for _, p := range failed.PendingOutbound() {
		failed.COTxBuf = append(failed.COTxBuf, outboundSnapshot{fsn: p.FSN, sif: p.SIF})
	}
	failed.COLastFSNAcked = failed.LastFSNReceived()

	typ := COO
	if emergency {
		typ = ECO
	}
	replacement := e.selectReplacement(failed)
	if replacement == nil {
		e.Log.Infof("mtp3: link %d: changeover with no replacement link, queuing on COBuf", failed.SLC)
		return
	}
	e.sendNetMsg(now, replacement, typ, failed.COLastFSNAcked)
	failed.SentGotNetMsg |= SentCOO
	if emergency {
		failed.SentGotNetMsg |= SentECO
	}
	failed.Changeover = ChangeoverInProgress
	e.armT2(now, failed)
}

// selectReplacement picks another in-service, non-inhibited, non-
// changeover link on the same adjacent SP to carry a failed link's traffic.
func (e *Engine) selectReplacement(failed *LinkState) *LinkState {
	for _, l := range failed.Owner.Links {
		if l == failed {
			continue
		}
		if l.available() && l.Inhibit == 0 {
			return l
		}
	}
	return nil
}

func (e *Engine) armT2(now time.Time, l *LinkState) {
	e.Sched.Cancel(&l.t2)
	if l.Timers.T2 <= 0 {
		return
	}
	id, _ := e.Sched.Schedule(now, l.Timers.T2, func(now time.Time, ud any) { e.onChangeoverT2(now, ud.(*LinkState)) }, l)
	l.t2 = id
}

// onChangeoverT2 forces the changeover complete if no COA/ECA arrived in
// time: the original treats an unanswered changeover order as completed
// rather than retrying indefinitely.
func (e *Engine) onChangeoverT2(now time.Time, l *LinkState) {
	l.t2 = -1
	if l.Changeover != ChangeoverInProgress {
		return
	}
	l.Changeover = ChangeoverCompleted
	l.COTxBuf = nil
	e.flushCOBuf(now, l)
}

// flushCOBuf sends everything queued on l's COBuf while changeover lacked
// a replacement, now that one has taken over l's traffic.
func (e *Engine) flushCOBuf(now time.Time, l *LinkState) {
	for l.COBuf.Length() > 0 {
		v, _ := l.COBuf.Pop()
		m := v.(pendingMSU)
		e.sendViaSelectedLink(now, m.sio, m.sif)
	}
}

// onChangeoverOrder handles an incoming COO/ECO naming this link (l here
// is the replacement the order arrived on): record GotCOO and answer with a
// COA/ECA echoing lastFSNAcked. It retransmits nothing itself.
func (e *Engine) onChangeoverOrder(now time.Time, l *LinkState, emergency bool, lastFSNAcked byte) {
	l.SentGotNetMsg |= GotCOO
	typ := COA
	if emergency {
		typ = ECA
	}
	e.sendNetMsg(now, l, typ, lastFSNAcked)
}

// onChangeoverAck completes a changeover we originated: everything in
// COTxBuf not yet acknowledged by param is retransmitted on the
// replacement, and the failed link's snapshot is discarded.
func (e *Engine) onChangeoverAck(now time.Time, replacement *LinkState, lastFSNAcked byte) {
	for _, sp := range e.AdjacentSPs {
		for _, l := range sp.Links {
			if l.Changeover != ChangeoverInProgress {
				continue
			}
			e.Sched.Cancel(&l.t2)
			for _, ob := range l.COTxBuf {
				if fsnAfter(ob.fsn, lastFSNAcked) {
					replacement.MSU(now, ob.sif)
				}
			}
			l.Changeover = ChangeoverCompleted
			l.COTxBuf = nil
			e.flushCOBuf(now, l)
		}
	}
}

func fsnAfter(fsn, ref byte) bool {
	return (fsn-ref-1)&0x7f < 0x40
}

// onChangebackDeclaration answers a CBD with a CBA and marks l restored;
// traffic accumulated on its CBBuf while it was down is flushed back.
func (e *Engine) onChangebackDeclaration(now time.Time, l *LinkState, seq byte) {
	e.sendNetMsg(now, l, CBA, seq)
	e.completeChangeback(now, l)
}

// onChangebackAck processes the CBA for a changeback we initiated.
func (e *Engine) onChangebackAck(now time.Time, l *LinkState) {
	e.completeChangeback(now, l)
}

// beginChangeback starts restoring traffic to l once it has realigned and
// repassed its Q.707 test: announce CBD with a sequence byte and arm T4 to
// bound the wait for CBA, retransmitting once before T5 gives up.
func (e *Engine) beginChangeback(now time.Time, l *LinkState) {
	if l.Changeover == NoChangeover {
		return
	}
	l.Changeover = ChangebackInitiated
	e.sendNetMsg(now, l, CBD, 0)
	l.SentGotNetMsg |= SentCBD
	e.armT4Changeback(now, l)
}

func (e *Engine) armT4Changeback(now time.Time, l *LinkState) {
	e.Sched.Cancel(&l.t4)
	if l.Timers.T4 <= 0 {
		return
	}
	id, _ := e.Sched.Schedule(now, l.Timers.T4, func(now time.Time, ud any) { e.onT4Changeback(now, ud.(*LinkState)) }, l)
	l.t4 = id
}

// onT4Changeback retransmits an unanswered CBD once, then arms T5 to
// abandon the changeback if that second attempt also goes unanswered.
func (e *Engine) onT4Changeback(now time.Time, l *LinkState) {
	l.t4 = -1
	if l.Changeover != ChangebackInitiated {
		return
	}
	e.sendNetMsg(now, l, CBD, 0)
	e.Sched.Cancel(&l.t5)
	if l.Timers.T5 > 0 {
		id, _ := e.Sched.Schedule(now, l.Timers.T5, func(now time.Time, ud any) { e.onT5Changeback(now, ud.(*LinkState)) }, l)
		l.t5 = id
	}
}

// onT5Changeback gives up waiting for a CBA: the changeback is abandoned
// and the link stays on whatever is currently carrying its traffic.
func (e *Engine) onT5Changeback(now time.Time, l *LinkState) {
	l.t5 = -1
	if l.Changeover != ChangebackInitiated {
		return
	}
	e.Log.Errorf("mtp3: link %d: changeback abandoned, CBA never arrived", l.SLC)
}

func (e *Engine) completeChangeback(now time.Time, l *LinkState) {
	e.Sched.Cancel(&l.t3)
	e.Sched.Cancel(&l.t4)
	e.Sched.Cancel(&l.t5)
	l.Changeover = NoChangeover
	for l.CBBuf.Length() > 0 {
		v, _ := l.CBBuf.Pop()
		m := v.(pendingMSU)
		l.MSU(now, append([]byte{m.sio}, m.sif...))
	}
}
