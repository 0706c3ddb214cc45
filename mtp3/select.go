package mtp3

import (
	"fmt"
	"time"
)

// Send is the entry point Upper (ISUP, or SCCP if ever added) calls to
// transmit one message: it builds the SIO/routing label, selects a link
// per the SLS, and either transmits immediately or queues for rerouting
// depending on adjacent-SP/route state.
func (e *Engine) Send(now time.Time, dpc uint32, userPart uint8, sls uint8, payload []byte) error {
	rl := RoutingLabel{DPC: dpc, OPC: e.OwnPC, SLS: sls}
	sio := EncodeSIO(e.NI, 0, userPart)
	sif := append(EncodeLabel(e.Variant, rl), payload...)
	return e.sendViaSelectedLink(now, sio, sif)
}

// sendViaSelectedLink selects a link for sif (whose first bytes are
// already an encoded routing label) and transmits, queuing onto the
// destination's route or a link's changeover buffer if nothing is
// currently available.
func (e *Engine) sendViaSelectedLink(now time.Time, sio byte, sif []byte) error {
	rl, _, err := DecodeLabel(e.Variant, sif)
	if err != nil {
		return err
	}
	sp := e.adjacentFor(rl.DPC)
	if sp != nil {
		if l := e.selectLink(sp, rl.SLS); l != nil {
			frame := append([]byte{sio}, sif...)
			return l.MSU(now, frame)
		}
		if co := e.anyChangingOverLink(sp); co != nil {
			co.COBuf.Push(pendingMSU{sio: sio, sif: sif})
			return nil
		}
		return fmt.Errorf("mtp3: no available link to adjacent SP %d", sp.PC)
	}
	// Not directly adjacent: route via whichever adjacent SP currently
	// allows traffic to this DPC, queuing if the route is restricted or
	// prohibited.
	for _, cand := range e.AdjacentSPs {
		r := cand.RouteFor(rl.DPC)
		switch r.State {
		case RouteAllowed:
			if l := e.selectLink(cand, rl.SLS); l != nil {
				frame := append([]byte{sio}, sif...)
				return l.MSU(now, frame)
			}
		case RouteRestrictedActive, RouteProhibited:
			r.pending.Push(pendingMSU{sio: sio, sif: sif})
			return nil
		case RouteRestrictedNonActive:
			if l := e.selectLink(cand, rl.SLS); l != nil {
				frame := append([]byte{sio}, sif...)
				return l.MSU(now, frame)
			}
			r.pending.Push(pendingMSU{sio: sio, sif: sif})
			return nil
		}
	}
	return fmt.Errorf("mtp3: no route to DPC %d", rl.DPC)
}

// anyChangingOverLink finds a link on sp currently mid-changeover, whose
// COBuf is the holding pen for traffic that arrives before a replacement
// link becomes available.
func (e *Engine) anyChangingOverLink(sp *AdjacentSP) *LinkState {
	for _, l := range sp.Links {
		if l.Changeover == ChangeoverInitiated || l.Changeover == ChangeoverInProgress {
			return l
		}
	}
	return nil
}

func (e *Engine) adjacentFor(dpc uint32) *AdjacentSP {
	for _, sp := range e.AdjacentSPs {
		if sp.PC == dpc {
			return sp
		}
	}
	return nil
}

// selectLink implements the original's primary-link-by-SLS-hash with a
// linear-scan fallback: (sls >> SLSShift) % numlinks picks the preferred
// link; if it is not currently available, every other link on the
// adjacent SP is tried in order.
func (e *Engine) selectLink(sp *AdjacentSP, sls uint8) *LinkState {
	n := len(sp.Links)
	if n == 0 {
		return nil
	}
	primary := (int(sls) >> e.SLSShift) % n
	if l := sp.Links[primary]; l.available() && l.Inhibit == 0 {
		return l
	}
	for i, l := range sp.Links {
		if i == primary {
			continue
		}
		if l.available() && l.Inhibit == 0 {
			return l
		}
	}
	return nil
}
