package isup

import "time"

// sendREL builds and transmits a REL with cause, arming T1 to retransmit
// until RLC arrives, per §4.4's release procedure.
func (e *Engine) sendREL(now time.Time, c *Call, cause int) {
	c.Cause = cause
	c.GotSentMsg |= SentREL
	if err := e.send(now, c, REL); err != nil {
		e.Log.Errorf("isup: CIC %d: send REL: %v", c.CIC, err)
	}
	e.armT1(now, c)
}

// sendRSC builds and transmits an RSC, arming the T16/T17 retransmit pair.
func (e *Engine) sendRSC(now time.Time, c *Call) {
	c.GotSentMsg |= SentRSC
	if err := e.send(now, c, RSC); err != nil {
		e.Log.Errorf("isup: CIC %d: send RSC: %v", c.CIC, err)
	}
	e.armRSCRetransmit(now, c)
}

// releaseCall is the common "tear this call down with cause" entry point
// every timeout path in timers.go calls into: cancel whatever else is
// running and start the REL/RLC handshake.
func (e *Engine) releaseCall(now time.Time, c *Call, cause int) {
	e.cancel(c, timerT7)
	e.cancel(c, timerT33)
	e.cancel(c, timerT35)
	e.sendREL(now, c, cause)
}

// SendIAM transmits an Initial Address Message built from c's already-
// populated Called/Calling/NatureOfConnection/ForwardCallInd/
// CallingPartyCat fields, arming T7 to bound the wait for ACM/ANM/CON.
// Call c normally comes from NewCallOut.
func (e *Engine) SendIAM(now time.Time, c *Call) error {
	if err := e.send(now, c, IAM); err != nil {
		return err
	}
	c.GotSentMsg |= SentIAM
	e.armT7(now, c)
	return nil
}

// SendACM acknowledges an incoming IAM ("address complete, call is being
// set up"), cancelling nothing on its own — T7 stays armed until ANM/CON.
func (e *Engine) SendACM(now time.Time, c *Call) error {
	if err := e.send(now, c, ACM); err != nil {
		return err
	}
	c.GotSentMsg |= SentACM
	return nil
}

// SendCON answers an IAM directly with connect, the "called party answers
// with no separate address-complete" path.
func (e *Engine) SendCON(now time.Time, c *Call) error {
	e.cancel(c, timerT7)
	if err := e.send(now, c, CON); err != nil {
		return err
	}
	c.GotSentMsg |= SentCON
	return nil
}

// SendANM reports that the called party has answered.
func (e *Engine) SendANM(now time.Time, c *Call) error {
	e.cancel(c, timerT7)
	if err := e.send(now, c, ANM); err != nil {
		return err
	}
	c.GotSentMsg |= SentANM
	return nil
}

// SendREL initiates a host-requested release (e.g. an on-hook event),
// following the same T1 retransmit-until-RLC regime as every other release
// path in this engine.
func (e *Engine) SendREL(now time.Time, c *Call, cause int) error {
	e.cancel(c, timerT7)
	e.sendREL(now, c, cause)
	return nil
}

// handleIAM processes an incoming Initial Address Message: §4.4's dual-
// seizure check (both ends seized the same idle CIC at once) runs first,
// then T7 is armed to bound the wait for an answer.
func (e *Engine) handleIAM(now time.Time, c *Call) {
	if c.GotSentMsg&SentIAM != 0 {
		e.resolveDualSeizure(now, c)
		return
	}
	c.GotSentMsg |= GotIAM
	if c.CallingPartyCat == 0 && len(c.Called.Digits) == 0 {
		e.ArmDigitTimeout(now, c)
	}
	e.armT7(now, c)
	e.emit(now, c, EventIAM, nil)
}

// resolveDualSeizure implements §4.4/S6: the side with the greater point
// code keeps the call it originated; the loser sends REL cause 44
// ("requested circuit/channel not available", libss7's stand-in for
// try-again) and, once RLC arrives, re-events its own IAM as a fresh
// outbound attempt.
func (e *Engine) resolveDualSeizure(now time.Time, c *Call) {
	if e.OwnPC > c.DPC {
		return // we keep it; the incoming IAM is simply discarded
	}
	c.dualSeizureLoser = true
	e.sendREL(now, c, 44)
}

func (e *Engine) handleSAM(now time.Time, c *Call) {
	e.cancel(c, timerDigit)
	if len(c.Called.Digits) > 0 {
		e.ArmDigitTimeout(now, c)
	}
	e.emit(now, c, EventSAM, nil)
}

func (e *Engine) handleACM(now time.Time, c *Call) {
	e.cancel(c, timerT7)
	c.GotSentMsg |= GotACM
	e.emit(now, c, EventACM, nil)
}

func (e *Engine) handleCON(now time.Time, c *Call) {
	e.cancel(c, timerT7)
	c.GotSentMsg |= GotCON
	e.emit(now, c, EventCON, nil)
}

func (e *Engine) handleANM(now time.Time, c *Call) {
	e.cancel(c, timerT7)
	c.GotSentMsg |= GotANM
	e.emit(now, c, EventANM, nil)
}

// handleREL processes an incoming release request: answer with RLC and
// clear the call. The dual-seizure loser's retry is driven by the RLC it
// later receives (handleRLC), not here.
func (e *Engine) handleREL(now time.Time, c *Call) {
	e.cancel(c, timerT7)
	e.cancel(c, timerT1)
	if err := e.send(now, c, RLC); err != nil {
		e.Log.Errorf("isup: CIC %d: send RLC: %v", c.CIC, err)
	}
	c.Clear(e.Sched)
	c.GotSentMsg = 0
	e.emit(now, c, EventREL, c.Cause)
}

// handleRLC completes either a normal release or, for the dual-seizure
// loser, re-events the original IAM so the host can retry the call.
func (e *Engine) handleRLC(now time.Time, c *Call) {
	e.cancel(c, timerT1)
	e.cancel(c, timerT16)
	e.cancel(c, timerT17)
	lost := c.dualSeizureLoser
	c.Clear(e.Sched)
	c.GotSentMsg = 0
	if lost {
		c.dualSeizureLoser = false
		e.emit(now, c, EventIAM, nil)
		return
	}
	e.emit(now, c, EventRLC, false)
}

func (e *Engine) handleRSC(now time.Time, c *Call) {
	c.Clear(e.Sched)
	c.GotSentMsg = 0
	if err := e.send(now, c, RLC); err != nil {
		e.Log.Errorf("isup: CIC %d: send RLC for RSC: %v", c.CIC, err)
	}
	e.emit(now, c, EventRSC, nil)
}

func (e *Engine) handleSUS(now time.Time, c *Call) {
	ansi := c.SusResInd&0x1 != 0
	e.armSuspendTimer(now, c, ansi)
	e.emit(now, c, EventSUS, nil)
}

func (e *Engine) handleRES(now time.Time, c *Call) {
	e.cancel(c, timerT2)
	e.cancel(c, timerT6)
	e.emit(now, c, EventRES, nil)
}

func (e *Engine) handleCPG(now time.Time, c *Call) {
	e.emit(now, c, EventCPG, c.EventInfo)
}

func (e *Engine) handleCOT(now time.Time, c *Call) {
	e.cancel(c, timerT8)
	e.emit(now, c, EventCOT, nil)
}

func (e *Engine) handleCCR(now time.Time, c *Call) {
	e.armT8(now, c)
	e.emit(now, c, EventCCR, nil)
}

// handleBLO/UBL/BLA/UBA implement circuit maintenance blocking, per §4.4:
// a BLO/UBL is answered immediately with BLA/UBA (no retransmit timer is
// armed on the receiving side, matching libss7's immediate-ack behavior).
func (e *Engine) handleBLO(now time.Time, c *Call) {
	if err := e.send(now, c, BLA); err != nil {
		e.Log.Errorf("isup: CIC %d: send BLA: %v", c.CIC, err)
	}
	e.emit(now, c, EventBLO, nil)
}

func (e *Engine) handleUBL(now time.Time, c *Call) {
	if err := e.send(now, c, UBA); err != nil {
		e.Log.Errorf("isup: CIC %d: send UBA: %v", c.CIC, err)
	}
	e.emit(now, c, EventUBL, nil)
}

func (e *Engine) handleBLA(now time.Time, c *Call) {
	e.cancel(c, timerT12)
	e.cancel(c, timerT13)
	c.GotSentMsg |= SentBLO
	e.emit(now, c, EventBLA, nil)
}

func (e *Engine) handleUBA(now time.Time, c *Call) {
	e.cancel(c, timerT14)
	e.cancel(c, timerT15)
	c.GotSentMsg &^= SentBLO
	c.GotSentMsg |= SentUBL
	e.emit(now, c, EventUBA, nil)
}

// handleCGB/CGU drive group supervision: record the requested range/status
// shadow state so the matching CGBA/CGUA can be validated, then ack.
func (e *Engine) handleCGB(now time.Time, c *Call) {
	copy(c.SentCGBStatus[:], c.Status[:])
	if err := e.send(now, c, CGBA); err != nil {
		e.Log.Errorf("isup: CIC %d: send CGBA: %v", c.CIC, err)
	}
	e.emit(now, c, EventCGB, nil)
}

func (e *Engine) handleCGU(now time.Time, c *Call) {
	copy(c.SentCGUStatus[:], c.Status[:])
	if err := e.send(now, c, CGUA); err != nil {
		e.Log.Errorf("isup: CIC %d: send CGUA: %v", c.CIC, err)
	}
	e.emit(now, c, EventCGU, nil)
}

func (e *Engine) handleCGBA(now time.Time, c *Call) {
	e.cancel(c, timerT18)
	e.cancel(c, timerT19)
	e.emit(now, c, EventCGBA, nil)
}

func (e *Engine) handleCGUA(now time.Time, c *Call) {
	e.cancel(c, timerT20)
	e.cancel(c, timerT21)
	e.emit(now, c, EventCGUA, nil)
}

// handleGRS answers a circuit group reset with a GRA over the same range
// and emits EventGRS. It does not clear calls on the range's other CICs.
func (e *Engine) handleGRS(now time.Time, c *Call) {
	if err := e.send(now, c, GRA); err != nil {
		e.Log.Errorf("isup: CIC %d: send GRA: %v", c.CIC, err)
	}
	e.emit(now, c, EventGRS, nil)
}

func (e *Engine) handleGRA(now time.Time, c *Call) {
	e.cancel(c, timerT22)
	e.cancel(c, timerT23)
	e.emit(now, c, EventGRA, nil)
}

// SendBLO initiates circuit blocking on c's CIC, arming the T12/T13
// retransmit-then-repeat pair until BLA arrives.
func (e *Engine) SendBLO(now time.Time, c *Call) error {
	if err := e.send(now, c, BLO); err != nil {
		return err
	}
	c.GotSentMsg |= SentBLO
	e.twoStage(now, c, timerT12, e.Timers.T12, func(now time.Time) {
		if err := e.send(now, c, BLO); err != nil {
			e.Log.Errorf("isup: CIC %d: resend BLO: %v", c.CIC, err)
		}
	}, timerT13, e.Timers.T13, func(now time.Time) {
		if err := e.send(now, c, BLO); err != nil {
			e.Log.Errorf("isup: CIC %d: resend BLO: %v", c.CIC, err)
		}
	})
	return nil
}

// SendCGB initiates a circuit group block over the range already recorded
// in c.Range/c.Status, arming the T18/T19 retransmit-then-repeat pair
// until CGBA arrives.
func (e *Engine) SendCGB(now time.Time, c *Call) error {
	if err := e.send(now, c, CGB); err != nil {
		return err
	}
	c.GotSentMsg |= SentCGB
	e.twoStage(now, c, timerT18, e.Timers.T18, func(now time.Time) {
		if err := e.send(now, c, CGB); err != nil {
			e.Log.Errorf("isup: CIC %d: resend CGB: %v", c.CIC, err)
		}
	}, timerT19, e.Timers.T19, func(now time.Time) {
		if err := e.send(now, c, CGB); err != nil {
			e.Log.Errorf("isup: CIC %d: resend CGB: %v", c.CIC, err)
		}
	})
	return nil
}

// SendGRS initiates a circuit group reset over c.Range, arming the
// T22/T23 retransmit-then-repeat pair until GRA arrives.
func (e *Engine) SendGRS(now time.Time, c *Call) error {
	if err := e.send(now, c, GRS); err != nil {
		return err
	}
	c.GotSentMsg |= SentGRS
	e.twoStage(now, c, timerT22, e.Timers.T22, func(now time.Time) {
		if err := e.send(now, c, GRS); err != nil {
			e.Log.Errorf("isup: CIC %d: resend GRS: %v", c.CIC, err)
		}
	}, timerT23, e.Timers.T23, func(now time.Time) {
		if err := e.send(now, c, GRS); err != nil {
			e.Log.Errorf("isup: CIC %d: resend GRS: %v", c.CIC, err)
		}
	})
	return nil
}

func (e *Engine) handleCQM(now time.Time, c *Call) {
	if err := e.send(now, c, CQR); err != nil {
		e.Log.Errorf("isup: CIC %d: send CQR: %v", c.CIC, err)
	}
	e.emit(now, c, EventCQM, nil)
}

func (e *Engine) handleCQR(now time.Time, c *Call) {
	e.emit(now, c, EventCQM, nil)
}

// handleUCIC reports an unequipped-circuit indication the host should treat
// as "take this CIC out of service", per libss7's ISUP_EVENT_UCIC.
func (e *Engine) handleUCIC(now time.Time, c *Call) {
	if e.Host != nil {
		e.Host.NotInService(uint16(c.CIC), c.DPC)
	}
	e.emit(now, c, EventUCIC, nil)
}

func (e *Engine) handleINR(now time.Time, c *Call) {
	e.armT33(now, c)
	e.emit(now, c, EventINR, nil)
}

func (e *Engine) handleINF(now time.Time, c *Call) {
	e.cancel(c, timerT33)
	e.emit(now, c, EventINF, nil)
}

func (e *Engine) handleLPA(now time.Time, c *Call) {
	e.emit(now, c, EventLPA, nil)
}
