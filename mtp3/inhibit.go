package mtp3

import "time"

// Inhibit marks l locally inhibited (operator-requested removal from
// service without tearing down alignment) and asks the peer to
// acknowledge with LIA. T12 bounds the wait and retries once; T13 then
// abandons the request.
func (e *Engine) Inhibit(now time.Time, l *LinkState) {
	if l.Inhibit&InhibitedLocally != 0 {
		return
	}
	e.sendNetMsg(now, l, LIN, 0)
	l.SentGotNetMsg |= SentLIN
	e.armT12(now, l)
}

// Uninhibit reverses a local inhibition, per LUN/LUA.
func (e *Engine) Uninhibit(now time.Time, l *LinkState) {
	if l.Inhibit&InhibitedLocally == 0 {
		return
	}
	e.sendNetMsg(now, l, LUN, 0)
	l.SentGotNetMsg |= SentLUN
	e.armT14(now, l)
}

func (e *Engine) armT12(now time.Time, l *LinkState) {
	e.Sched.Cancel(&l.t12)
	if l.Timers.T12 <= 0 {
		return
	}
	id, _ := e.Sched.Schedule(now, l.Timers.T12, func(now time.Time, ud any) { e.onT12(now, ud.(*LinkState)) }, l)
	l.t12 = id
}

// onT12 retries the LIN once, then T13 bounds the retry.
func (e *Engine) onT12(now time.Time, l *LinkState) {
	l.t12 = -1
	if l.Inhibit&InhibitedLocally != 0 {
		return
	}
	e.sendNetMsg(now, l, LIN, 0)
	e.armT13(now, l)
}

func (e *Engine) armT13(now time.Time, l *LinkState) {
	e.Sched.Cancel(&l.t13)
	if l.Timers.T13 <= 0 {
		return
	}
	id, _ := e.Sched.Schedule(now, l.Timers.T13, func(now time.Time, ud any) { e.onT13(now, ud.(*LinkState)) }, l)
	l.t13 = id
}

// onT13 abandons an unanswered inhibit request.
func (e *Engine) onT13(now time.Time, l *LinkState) {
	l.t13 = -1
	e.Log.Infof("mtp3: link %d: LIN unanswered, abandoning inhibit request", l.SLC)
}

func (e *Engine) armT14(now time.Time, l *LinkState) {
	e.Sched.Cancel(&l.t14)
	if l.Timers.T14 <= 0 {
		return
	}
	id, _ := e.Sched.Schedule(now, l.Timers.T14, func(now time.Time, ud any) { e.onT14(now, ud.(*LinkState)) }, l)
	l.t14 = id
}

// onT14 retries an unanswered LUN once.
func (e *Engine) onT14(now time.Time, l *LinkState) {
	l.t14 = -1
	if l.Inhibit&InhibitedLocally == 0 {
		return
	}
	e.sendNetMsg(now, l, LUN, 0)
}

func (e *Engine) onInhibit(now time.Time, l *LinkState) {
	l.Inhibit |= InhibitedRemotely
	e.sendNetMsg(now, l, LIA, 0)
	e.armQ707T22(now, l)
}

func (e *Engine) onUninhibit(now time.Time, l *LinkState) {
	l.Inhibit &^= InhibitedRemotely
	e.sendNetMsg(now, l, LUA, 0)
	e.Sched.Cancel(&l.t22)
}

func (e *Engine) onInhibitAck(now time.Time, l *LinkState) {
	e.Sched.Cancel(&l.t12)
	e.Sched.Cancel(&l.t13)
	l.Inhibit |= InhibitedLocally
	e.armQ707T23(now, l)
}

func (e *Engine) onUninhibitAck(now time.Time, l *LinkState) {
	e.Sched.Cancel(&l.t14)
	l.Inhibit &^= InhibitedLocally
	e.Sched.Cancel(&l.t23)
}

// onForcedUninhibit handles an LFU: the peer has no other link available
// and is overriding our inhibition regardless of our wishes.
func (e *Engine) onForcedUninhibit(now time.Time, l *LinkState) {
	l.Inhibit = 0
	e.Sched.Cancel(&l.t12)
	e.Sched.Cancel(&l.t13)
	e.Sched.Cancel(&l.t14)
	e.Sched.Cancel(&l.t22)
	e.Sched.Cancel(&l.t23)
}

func (e *Engine) armQ707T22(now time.Time, l *LinkState) {
	e.Sched.Cancel(&l.t22)
	if l.Timers.T22 <= 0 {
		return
	}
	id, _ := e.Sched.Schedule(now, l.Timers.T22, func(now time.Time, ud any) { e.onT22(now, ud.(*LinkState)) }, l)
	l.t22 = id
}

// onT22 periodically tests a remotely-inhibited link (LLT, the inhibited
// counterpart of the Q.707 SLTM).
func (e *Engine) onT22(now time.Time, l *LinkState) {
	l.t22 = -1
	if l.Inhibit&InhibitedRemotely == 0 {
		return
	}
	e.sendNetMsg(now, l, LLT, 0)
	e.armQ707T22(now, l)
}

func (e *Engine) armQ707T23(now time.Time, l *LinkState) {
	e.Sched.Cancel(&l.t23)
	if l.Timers.T23 <= 0 {
		return
	}
	id, _ := e.Sched.Schedule(now, l.Timers.T23, func(now time.Time, ud any) { e.onT23(now, ud.(*LinkState)) }, l)
	l.t23 = id
}

// onT23 periodically tests a locally-inhibited link (LRT).
func (e *Engine) onT23(now time.Time, l *LinkState) {
	l.t23 = -1
	if l.Inhibit&InhibitedLocally == 0 {
		return
	}
	e.sendNetMsg(now, l, LRT, 0)
	e.armQ707T23(now, l)
}
