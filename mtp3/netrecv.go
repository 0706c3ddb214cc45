package mtp3

import "time"

// receiveNetMsg handles an incoming network-management message: changeover
// family, inhibition family, route-set-test/management, and the traffic-
// restart handshake.
func (e *Engine) receiveNetMsg(now time.Time, l *LinkState, rl RoutingLabel, body []byte) {
	if len(body) < 1 {
		return
	}
	typ := decodeNetMsgType(body[0])
	var param byte
	if len(body) > 1 {
		param = body[1]
	}
	switch typ {
	case COO, ECO:
		e.onChangeoverOrder(now, l, typ == ECO, param)
	case COA, ECA:
		e.onChangeoverAck(now, l, param)
	case CBD:
		e.onChangebackDeclaration(now, l, param)
	case CBA:
		e.onChangebackAck(now, l)
	case TFP:
		e.onRouteState(now, l.Owner, param, RouteProhibited)
	case TFR:
		e.onRouteState(now, l.Owner, param, RouteRestrictedNonActive)
	case TFA:
		e.onRouteState(now, l.Owner, param, RouteAllowed)
	case LIN:
		e.onInhibit(now, l)
	case LUN:
		e.onUninhibit(now, l)
	case LIA:
		e.onInhibitAck(now, l)
	case LUA:
		e.onUninhibitAck(now, l)
	case LFU:
		e.onForcedUninhibit(now, l)
	case TRA:
		e.onTRA(now, l.Owner)
	default:
		e.Log.Debugf("mtp3: link %d: unhandled net-mng message %s", l.SLC, typ)
	}
}

// onTRA records that the peer has sent traffic-restart-allowed and, once
// we've both sent and received it, brings the adjacent SP up.
func (e *Engine) onTRA(now time.Time, sp *AdjacentSP) {
	sp.traGot = true
	e.Sched.Cancel(&sp.t21)
	e.tryBringUp(now, sp)
}

// maybeStartTRA sends TRA on the first link to pass its Q.707 test and
// arms T21 to bound the wait for the peer's TRA.
func (e *Engine) maybeStartTRA(now time.Time, sp *AdjacentSP) {
	if sp.traSent || sp.State == AdjSPUp {
		return
	}
	l := e.firstAvailableLink(sp)
	if l == nil {
		return
	}
	sp.traSent = true
	sp.setState(now, AdjSPAligning)
	e.sendNetMsg(now, l, TRA, 0)
	e.armT21(now, sp)
	e.tryBringUp(now, sp)
}

func (e *Engine) tryBringUp(now time.Time, sp *AdjacentSP) {
	if sp.traSent && sp.traGot && sp.State != AdjSPUp {
		sp.setState(now, AdjSPUp)
		e.Sched.Cancel(&sp.t21)
		if !e.up {
			e.up = true
			e.Upper.LinksetUp()
		}
	}
}

func (e *Engine) armT21(now time.Time, sp *AdjacentSP) {
	e.Sched.Cancel(&sp.t21)
	l := e.firstAvailableLink(sp)
	if l == nil || l.Timers.T1 <= 0 {
		return
	}
	// T21 reuses the same duration class as link timer T1 on this
	// implementation; bounding the TRA wait does not need a distinct knob.
	id, _ := e.Sched.Schedule(now, l.Timers.T1, func(now time.Time, ud any) { e.onT21(now, ud.(*AdjacentSP)) }, sp)
	sp.t21 = id
}

// onT21 fires if the peer's TRA never arrives: per Q.704, traffic is
// accepted anyway rather than leaving the adjacent SP stuck aligning.
func (e *Engine) onT21(now time.Time, sp *AdjacentSP) {
	sp.t21 = -1
	e.Log.Infof("mtp3: adjacent SP %d: T21 expired, accepting traffic without peer TRA", sp.PC)
	sp.traGot = true
	e.tryBringUp(now, sp)
}

func (e *Engine) firstAvailableLink(sp *AdjacentSP) *LinkState {
	for _, l := range sp.Links {
		if l.STDTestPassed && l.InService() {
			return l
		}
	}
	return nil
}

// onRouteState applies a TFP/TFR/TFA for the DPC carried in the message's
// one-octet parameter field (passed in as affectedDPC).
func (e *Engine) onRouteState(now time.Time, sp *AdjacentSP, affectedDPC uint8, s RouteState) {
	r := sp.RouteFor(uint32(affectedDPC))
	if r.State == s {
		return
	}
	old := r.State
	r.State = s
	e.Log.Infof("mtp3: route to %d: %s -> %s", r.DPC, old, s)
	switch s {
	case RouteProhibited:
		e.Sched.Cancel(&r.t6)
		e.armT10(now, r)
	case RouteAllowed:
		e.Sched.Cancel(&r.t10)
		if old == RouteRestrictedActive {
			e.armT6(now, r)
		} else {
			e.flushRoute(now, r)
		}
	case RouteRestrictedNonActive:
		e.Sched.Cancel(&r.t10)
	}
}

func (e *Engine) armT10(now time.Time, r *Route) {
	e.Sched.Cancel(&r.t10)
	id, _ := e.Sched.Schedule(now, 2*time.Second, func(now time.Time, ud any) { e.onT10(now, ud.(*Route)) }, r)
	r.t10 = id
}

// onT10 only re-arms T10 while the route stays prohibited; it sends
// nothing. The peer's next TFR/TFA updates the route's state.
func (e *Engine) onT10(now time.Time, r *Route) {
	r.t10 = -1
	if r.State != RouteProhibited {
		return
	}
	e.armT10(now, r)
}

func (e *Engine) armT6(now time.Time, r *Route) {
	r.State = RouteRestrictedActive
	id, _ := e.Sched.Schedule(now, time.Second, func(now time.Time, ud any) { e.onT6(now, ud.(*Route)) }, r)
	r.t6 = id
}

// onT6 ends controlled rerouting: whatever queued on the route while it
// waited flushes onto the now-allowed path.
func (e *Engine) onT6(now time.Time, r *Route) {
	r.t6 = -1
	e.flushRoute(now, r)
}

func (e *Engine) flushRoute(now time.Time, r *Route) {
	for r.pending.Length() > 0 {
		v, _ := r.pending.Pop()
		m := v.(pendingMSU)
		e.sendViaSelectedLink(now, m.sio, m.sif)
	}
}
