package isup

import "time"

// Per-call timer slots, indexed into Call.timers. Named after the ISUP
// timer numbers in Q.764/libss7's isup.h; T3/T4/T9/T10/T11/T24-T26/T28-T32/
// T34 are not part of this core (group-supervision and circuit-reset
// variants the spec names cover the same ground) and are omitted rather
// than carried as dead slots.
const (
	timerT1 = iota
	timerT2
	timerT5
	timerT6
	timerT7
	timerT8
	timerT12
	timerT13
	timerT14
	timerT15
	timerT16
	timerT17
	timerT18
	timerT19
	timerT20
	timerT21
	timerT22
	timerT23
	timerT27
	timerT33
	timerT35
	timerDigit
	maxCallTimer = timerDigit
)

// Timers holds every ISUP per-call timer duration. A zero value disables
// the timer; a negative value resolves to DefaultTimers, matching §6's
// "timer duration 0 means disabled; negative means default" contract.
type Timers struct {
	T1, T2, T5, T6, T7, T8                     time.Duration
	T12, T13, T14, T15, T16, T17               time.Duration
	T18, T19, T20, T21, T22, T23               time.Duration
	T27, T33, T35                              time.Duration
	DigitTimeout                                time.Duration
}

// DefaultTimers returns the approximate ITU-T Q.764 default durations used
// when a configured value is negative.
func DefaultTimers() Timers {
	return Timers{
		T1: 15 * time.Second, T2: 180 * time.Second, T5: 300 * time.Second,
		T6: 15 * time.Second, T7: 25 * time.Second, T8: 15 * time.Second,
		T12: 15 * time.Second, T13: 15 * time.Second,
		T14: 15 * time.Second, T15: 15 * time.Second,
		T16: 15 * time.Second, T17: 300 * time.Second,
		T18: 20 * time.Second, T19: 300 * time.Second,
		T20: 20 * time.Second, T21: 300 * time.Second,
		T22: 20 * time.Second, T23: 300 * time.Second,
		T27: 4 * time.Second, T33: 12 * time.Second, T35: 15 * time.Second,
		DigitTimeout: 15 * time.Second,
	}
}

// resolve applies the "negative means default" rule to a single duration.
func resolve(configured, def time.Duration) time.Duration {
	if configured < 0 {
		return def
	}
	return configured
}

func (t Timers) resolved() Timers {
	def := DefaultTimers()
	return Timers{
		T1: resolve(t.T1, def.T1), T2: resolve(t.T2, def.T2), T5: resolve(t.T5, def.T5),
		T6: resolve(t.T6, def.T6), T7: resolve(t.T7, def.T7), T8: resolve(t.T8, def.T8),
		T12: resolve(t.T12, def.T12), T13: resolve(t.T13, def.T13),
		T14: resolve(t.T14, def.T14), T15: resolve(t.T15, def.T15),
		T16: resolve(t.T16, def.T16), T17: resolve(t.T17, def.T17),
		T18: resolve(t.T18, def.T18), T19: resolve(t.T19, def.T19),
		T20: resolve(t.T20, def.T20), T21: resolve(t.T21, def.T21),
		T22: resolve(t.T22, def.T22), T23: resolve(t.T23, def.T23),
		T27: resolve(t.T27, def.T27), T33: resolve(t.T33, def.T33), T35: resolve(t.T35, def.T35),
		DigitTimeout: resolve(t.DigitTimeout, def.DigitTimeout),
	}
}

// arm schedules onFire against call.timers[slot], cancelling whatever was
// already running there; a zero duration disables the timer entirely (the
// "0 means disabled" half of §6's contract).
func (e *Engine) arm(now time.Time, c *Call, slot int, d time.Duration, onFire func(now time.Time)) {
	e.Sched.Cancel(&c.timers[slot])
	if d <= 0 {
		return
	}
	id, _ := e.Sched.Schedule(now, d, func(now time.Time, _ any) { onFire(now) }, c)
	c.timers[slot] = id
}

func (e *Engine) cancel(c *Call, slot int) {
	e.Sched.Cancel(&c.timers[slot])
}

// ArmDigitTimeout lets the host bound an overlap-dialling pause; on expiry
// a DIGITTIMEOUT event is emitted, per §4.4's events list.
func (e *Engine) ArmDigitTimeout(now time.Time, c *Call) {
	e.arm(now, c, timerDigit, e.Timers.DigitTimeout, func(now time.Time) {
		e.emit(now, c, EventDigitTimeout, nil)
	})
}

// armT1 bounds waiting for an RLC after REL; retransmits REL and rearms
// itself on expiry, per §4.4's timer table.
func (e *Engine) armT1(now time.Time, c *Call) {
	e.arm(now, c, timerT1, e.Timers.T1, func(now time.Time) {
		e.sendREL(now, c, c.Cause)
		e.armT1(now, c)
	})
}

// armSuspendTimer covers both T2 and T6 (SUS received): either forces a
// REL with cause 16, per §4.4.
func (e *Engine) armSuspendTimer(now time.Time, c *Call, ansi bool) {
	d, slot := e.Timers.T2, timerT2
	if ansi {
		d, slot = e.Timers.T6, timerT6
	}
	e.arm(now, c, slot, d, func(now time.Time) {
		e.releaseCall(now, c, 16)
	})
}

// armT5 covers "REL sent without RLC": mark the CIC not-in-service with the
// host, send RSC, and fall into the RSC retransmit regime (T16/T17).
func (e *Engine) armT5(now time.Time, c *Call) {
	e.arm(now, c, timerT5, e.Timers.T5, func(now time.Time) {
		if e.Host != nil {
			e.Host.NotInService(uint16(c.CIC), c.DPC)
		}
		e.sendRSC(now, c)
	})
}

// armT7 bounds waiting for ACM/ANM after IAM.
func (e *Engine) armT7(now time.Time, c *Call) {
	e.arm(now, c, timerT7, e.Timers.T7, func(now time.Time) {
		e.releaseCall(now, c, 31)
	})
}

// armT8 bounds waiting for a continuity-check result.
func (e *Engine) armT8(now time.Time, c *Call) {
	e.arm(now, c, timerT8, e.Timers.T8, func(now time.Time) {
		e.releaseCall(now, c, 41)
	})
}

// armT33 bounds waiting for an INF after INR.
func (e *Engine) armT33(now time.Time, c *Call) {
	e.arm(now, c, timerT33, e.Timers.T33, func(now time.Time) {
		e.releaseCall(now, c, 16)
	})
}

// armT35 bounds an overlap-received IAM that never completes with "#" and
// is never answered with ACM.
func (e *Engine) armT35(now time.Time, c *Call) {
	e.arm(now, c, timerT35, e.Timers.T35, func(now time.Time) {
		e.releaseCall(now, c, 28)
	})
}

// armRSCRetransmit drives the T16 (first retry) / T17 (abandon-by-repeat)
// pair after an RSC send, mirroring the two-stage idiom mtp3 uses for
// Q.707 T1/T2 and LIN/LUN.
func (e *Engine) armRSCRetransmit(now time.Time, c *Call) {
	e.arm(now, c, timerT16, e.Timers.T16, func(now time.Time) {
		e.sendRSC(now, c)
		e.arm(now, c, timerT17, e.Timers.T17, func(now time.Time) {
			e.sendRSC(now, c)
		})
	})
}

// armT27 retries a failed continuity check by sending RSC.
func (e *Engine) armT27(now time.Time, c *Call) {
	e.arm(now, c, timerT27, e.Timers.T27, func(now time.Time) {
		e.sendRSC(now, c)
	})
}

// twoStage arms a first-expiry resend followed by a second-expiry action
// (the abandon callback; every current caller passes another resend), the
// shared shape behind BLO/CGB/GRS retransmission.
func (e *Engine) twoStage(now time.Time, c *Call, firstSlot int, firstDur time.Duration, resend func(time.Time), secondSlot int, secondDur time.Duration, abandon func(time.Time)) {
	e.arm(now, c, firstSlot, firstDur, func(now time.Time) {
		resend(now)
		e.arm(now, c, secondSlot, secondDur, func(now time.Time) {
			abandon(now)
		})
	})
}
