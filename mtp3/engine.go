package mtp3

import (
	"time"

	"github.com/creslin7/ss7stack/scheduler"
)

// Upper receives traffic and events mtp3 has fully processed: ISUP/SCCP
// payloads demultiplexed out of MSUs, and link/linkset state changes the
// facade turns into host-visible events.
type Upper interface {
	DeliverUserPart(now time.Time, rl RoutingLabel, userPart byte, payload []byte)
	LinkUp(slc int)
	LinkDown(slc int)
	LinksetUp()
	LinksetDown()
}

// Engine is the session-wide MTP3 instance: one per Session, owning every
// AdjacentSP (and, transitively, every Route and LinkState) in the
// linkset.
type Engine struct {
	Variant  Variant
	OwnPC    uint32
	NI       NetworkIndicator
	SLSShift uint

	AdjacentSPs []*AdjacentSP

	Sched *scheduler.Scheduler
	Log   Logger
	Upper Upper

	up bool
}

// NewEngine creates an Engine; AdjacentSPs and their Links must be added
// with AddAdjacentSP/NewLinkState before Start.
func NewEngine(variant Variant, ownPC uint32, ni NetworkIndicator, slsShift uint, sched *scheduler.Scheduler, log Logger, upper Upper) *Engine {
	return &Engine{Variant: variant, OwnPC: ownPC, NI: ni, SLSShift: slsShift, Sched: sched, Log: log, Upper: upper}
}

// AddAdjacentSP registers sp with the engine and wires its links' Engine
// back-reference so LinkState can call back into this Engine.
func (e *Engine) AddAdjacentSP(sp *AdjacentSP) {
	e.AdjacentSPs = append(e.AdjacentSPs, sp)
	for _, l := range sp.Links {
		l.Engine = e
	}
}

func (e *Engine) allLinks() []*LinkState {
	var out []*LinkState
	for _, sp := range e.AdjacentSPs {
		out = append(out, sp.Links...)
	}
	return out
}

// Start ignites MTP2 alignment on every configured link.
func (e *Engine) Start(now time.Time, emergency bool) {
	for _, l := range e.allLinks() {
		l.Start(now, emergency)
	}
}

// linkUp is called by LinkState.LinkStateChanged when a link's alignment
// FSM reaches IN-SERVICE: kick off the Q.707 test before the link carries
// any user traffic.
func (e *Engine) linkUp(now time.Time, l *LinkState) {
	e.Log.Infof("mtp3: link %d up, starting Q.707 test", l.SLC)
	e.Upper.LinkUp(l.SLC)
	e.sendSLTM(now, l)
	e.armQ707T1(now, l)
}

// linkDown is called when a link's alignment FSM leaves IN-SERVICE:
// initiate changeover if it was carrying traffic.
func (e *Engine) linkDown(now time.Time, l *LinkState) {
	e.Log.Infof("mtp3: link %d down", l.SLC)
	l.STDTestPassed = false
	e.Sched.Cancel(&l.q707t1)
	e.Sched.Cancel(&l.q707t2)
	e.Upper.LinkDown(l.SLC)
	e.recomputeAdjSPState(now, l.Owner)
	if l.Changeover == NoChangeover {
		e.beginChangeover(now, l, false)
	}
}

// recomputeAdjSPState applies the teardown rule: DOWN when no link passes
// SLT. Bringing the SP UP (TRA both sent and received, or T21 expiring
// first) happens in tryBringUp, not here.
func (e *Engine) recomputeAdjSPState(now time.Time, sp *AdjacentSP) {
	if !sp.anyLinkPassingSLT() {
		if sp.State != AdjSPDown {
			sp.setState(now, AdjSPDown)
			sp.destroyRoutes(e.Sched)
			e.Sched.Cancel(&sp.t19)
			e.Sched.Cancel(&sp.t21)
			sp.traSent, sp.traGot = false, false
			if e.allAdjSPDown() {
				e.up = false
				e.Upper.LinksetDown()
			}
		}
	}
}

func (e *Engine) allAdjSPDown() bool {
	for _, sp := range e.AdjacentSPs {
		if sp.State == AdjSPUp {
			return false
		}
	}
	return true
}

// deliverUserPart demultiplexes an MSU's SIF after MTP2 has fully
// delivered it: routing-label parse, destination check, and hand-off
// either to net-mgmt/SLTM handling here or to Upper for ISUP/SCCP.
func (e *Engine) deliverUserPart(now time.Time, l *LinkState, sio byte, sif []byte) {
	rl, n, err := DecodeLabel(e.Variant, sif)
	if err != nil {
		e.Log.Errorf("mtp3: link %d: %v", l.SLC, err)
		return
	}
	body := sif[n:]
	if rl.DPC != e.OwnPC {
		e.Log.Errorf("mtp3: link %d: MSU for DPC %d, not our PC %d, dropping", l.SLC, rl.DPC, e.OwnPC)
		return
	}
	_, _, userPart := DecodeSIO(sio)
	switch userPart {
	case SIGNetMng:
		e.receiveNetMsg(now, l, rl, body)
	case SIGStdTest, SIGSpecTest:
		e.receiveSLTM(now, l, rl, body, userPart == SIGSpecTest)
	default:
		e.Upper.DeliverUserPart(now, rl, userPart, body)
	}
}

// sendNetMsg implements netMsgSender: build and transmit a network-
// management message over l.
func (e *Engine) sendNetMsg(now time.Time, l *LinkState, typ NetMsgType, param byte) {
	rl := RoutingLabel{DPC: l.Owner.PC, OPC: e.OwnPC, SLS: uint8(l.SLC)}
	sio := EncodeSIO(e.NI, 0, SIGNetMng)
	sif := append([]byte{sio}, EncodeNetMsg(e.Variant, NetMsg{Type: typ, Label: rl, Param: param})...)
	if err := l.MSU(now, sif); err != nil {
		e.Log.Errorf("mtp3: link %d: send %s: %v", l.SLC, typ, err)
	}
}
