package mtp3

import (
	"time"

	"github.com/creslin7/ss7stack/queue"
	"github.com/creslin7/ss7stack/scheduler"
)

// pendingMSU is one message buffered on a Route or a link's changeover/
// changeback queue while waiting for a destination to become available
// again.
type pendingMSU struct {
	sio byte
	sif []byte
}

// Route is this session's view of how traffic to a non-adjacent DPC is
// currently allowed to flow, driven by TFP/TFA/TFR from the adjacent SP.
type Route struct {
	DPC   uint32
	State RouteState

	// t6 bounds controlled rerouting (TFA received while TFR-active):
	// messages queue here until it expires, then flush onto the link.
	// t10 runs while the route is prohibited (TFP received): it re-arms
	// itself periodically until the route leaves that state.
	t6, t10 scheduler.ID

	pending *queue.Queue
}

func newRoute(dpc uint32) *Route {
	return &Route{DPC: dpc, State: RouteRestrictedNonActive, t6: -1, t10: -1, pending: queue.New()}
}

// AdjacentSP is the signalling point directly reachable over one or more
// links (as opposed to a Route, which is reached indirectly via one).
type AdjacentSP struct {
	PC    uint32
	State AdjSPState

	Links []*LinkState
	Routes []*Route

	traSent, traGot bool
	t19             scheduler.ID // duplicate-TRA suppression slot; nothing arms it, it is only cancelled when the SP goes DOWN
	t21             scheduler.ID // bounds waiting for peer TRA

	Log Logger
}

// NewAdjacentSP creates an AdjacentSP with no links; NewLinkState appends
// each link it constructs to its owner's Links.
func NewAdjacentSP(pc uint32, log Logger) *AdjacentSP {
	return &AdjacentSP{PC: pc, State: AdjSPDown, t19: -1, t21: -1, Log: log}
}

// RouteFor returns (creating if necessary) the Route entry for dpc.
func (a *AdjacentSP) RouteFor(dpc uint32) *Route {
	for _, r := range a.Routes {
		if r.DPC == dpc {
			return r
		}
	}
	r := newRoute(dpc)
	a.Routes = append(a.Routes, r)
	return r
}

// destroyRoutes discards all route state for this adjacent SP, per the
// "adjacent-SP DOWN destroys all route state" rule.
func (a *AdjacentSP) destroyRoutes(sched *scheduler.Scheduler) {
	for _, r := range a.Routes {
		sched.Cancel(&r.t6)
		sched.Cancel(&r.t10)
		r.pending.Clear()
	}
	a.Routes = nil
}

func (a *AdjacentSP) anyLinkPassingSLT() bool {
	for _, l := range a.Links {
		if l.STDTestPassed {
			return true
		}
	}
	return false
}

func (a *AdjacentSP) setState(now time.Time, s AdjSPState) {
	if a.State == s {
		return
	}
	old := a.State
	a.State = s
	if a.Log != nil {
		a.Log.Infof("adjacent SP %d: %s -> %s", a.PC, old, s)
	}
}
