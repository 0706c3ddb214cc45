package mtp3

import "time"

// sltTestPattern is the fixed payload an SLTM/SLTM-spare carries; the peer
// must echo it back unchanged in the SLTA for the test to pass.
var sltTestPattern = []byte("2564286288")

// sendSLTM transmits a link-test message on l and arms Q.707 T1 to bound
// the wait for the SLTA.
func (e *Engine) sendSLTM(now time.Time, l *LinkState) {
	rl := RoutingLabel{DPC: l.Owner.PC, OPC: e.OwnPC, SLS: uint8(l.SLC)}
	sio := EncodeSIO(e.NI, 0, sltUserPart(e.Variant))
	body := make([]byte, 2+len(sltTestPattern))
	body[0] = 0x11 // h0=1 (SLTM), h1=1
	body[1] = byte(len(sltTestPattern)) << 4
	copy(body[2:], sltTestPattern)
	sif := append([]byte{sio}, append(EncodeLabel(e.Variant, rl), body...)...)
	if err := l.MSU(now, sif); err != nil {
		e.Log.Errorf("mtp3: link %d: send SLTM: %v", l.SLC, err)
	}
	e.armQ707T1(now, l)
}

func sltUserPart(v Variant) byte {
	if v == ANSI {
		return SIGSpecTest
	}
	return SIGStdTest
}

func (e *Engine) armQ707T1(now time.Time, l *LinkState) {
	e.Sched.Cancel(&l.q707t1)
	if l.Q707Timers.T1 <= 0 {
		return
	}
	id, _ := e.Sched.Schedule(now, l.Q707Timers.T1, func(now time.Time, ud any) { e.onQ707T1(now, ud.(*LinkState)) }, l)
	l.q707t1 = id
}

func (e *Engine) armQ707T2(now time.Time, l *LinkState) {
	e.Sched.Cancel(&l.q707t2)
	if l.Q707Timers.T2 <= 0 {
		return
	}
	id, _ := e.Sched.Schedule(now, l.Q707Timers.T2, func(now time.Time, ud any) { e.onQ707T2(now, ud.(*LinkState)) }, l)
	l.q707t2 = id
}

// onQ707T1 fires when no SLTA arrived in time. The first failure resends
// the SLTM (which re-arms T1); a second consecutive failure declares the
// link failed without another test.
func (e *Engine) onQ707T1(now time.Time, l *LinkState) {
	l.q707t1 = -1
	l.Q707T1FailCount++
	if l.Q707T1FailCount > 1 {
		e.Log.Errorf("mtp3: link %d: Q.707 T1 expired a second time, failing link", l.SLC)
		l.Q707T1FailCount = 0
		e.Sched.Cancel(&l.q707t2)
		// Alarm forces the link out of IN-SERVICE, which itself fires
		// LinkStateChanged(false) -> Engine.linkDown; no separate call needed.
		l.Alarm(now)
		return
	}
	e.sendSLTM(now, l)
}

// onQ707T2 periodically re-tests an in-service link.
func (e *Engine) onQ707T2(now time.Time, l *LinkState) {
	l.q707t2 = -1
	if !l.InService() {
		return
	}
	e.sendSLTM(now, l)
	e.armQ707T1(now, l)
}

// receiveSLTM handles an incoming SLTM (h0=1,h1=1) by echoing an SLTA with
// the same pattern, and an incoming SLTA (h0=1,h1=2) by validating it
// against what we sent and clearing Q.707 T1.
func (e *Engine) receiveSLTM(now time.Time, l *LinkState, rl RoutingLabel, body []byte, spare bool) {
	if len(body) < 2 {
		return
	}
	h0, h1 := body[0]&0xf, (body[0]>>4)&0xf
	patLen := int(body[1] >> 4)
	if len(body) < 2+patLen {
		return
	}
	pattern := body[2 : 2+patLen]
	switch {
	case h0 == 1 && h1 == 1: // SLTM
		e.sendSLTA(now, l, pattern)
	case h0 == 1 && h1 == 2: // SLTA
		e.Sched.Cancel(&l.q707t1)
		l.Q707T1FailCount = 0
		if string(pattern) != string(sltTestPattern) {
			e.Log.Errorf("mtp3: link %d: SLTA pattern mismatch, failing link", l.SLC)
			l.Alarm(now) // triggers LinkStateChanged(false) -> Engine.linkDown
			return
		}
		l.STDTestPassed = true
		e.armQ707T2(now, l)
		e.recomputeAdjSPState(now, l.Owner)
		e.maybeStartTRA(now, l.Owner)
		if l.Changeover == ChangeoverCompleted {
			e.beginChangeback(now, l)
		}
	}
}

func (e *Engine) sendSLTA(now time.Time, l *LinkState, pattern []byte) {
	rl := RoutingLabel{DPC: l.Owner.PC, OPC: e.OwnPC, SLS: uint8(l.SLC)}
	sio := EncodeSIO(e.NI, 0, sltUserPart(e.Variant))
	body := make([]byte, 2+len(pattern))
	body[0] = 0x21 // h0=1, h1=2 (SLTA)
	body[1] = byte(len(pattern)) << 4
	copy(body[2:], pattern)
	sif := append([]byte{sio}, append(EncodeLabel(e.Variant, rl), body...)...)
	if err := l.MSU(now, sif); err != nil {
		e.Log.Errorf("mtp3: link %d: send SLTA: %v", l.SLC, err)
	}
}
