// Package ss7 is the session facade: it wires a Scheduler, one mtp3.Engine
// and its isup.Engine together behind the single-threaded cooperative host
// loop spec.md §4.5 describes (poll-flags -> block -> drain I/O -> run due
// timers -> drain event ring), and is the one place in this module that
// implements isup.Upper to turn ISUP call-control occurrences and MTP3
// link/linkset transitions into events a host drains with CheckEvent.
package ss7

import (
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/creslin7/ss7stack/internal/metrics"
	"github.com/creslin7/ss7stack/isup"
	"github.com/creslin7/ss7stack/mtp2"
	"github.com/creslin7/ss7stack/mtp3"
	"github.com/creslin7/ss7stack/scheduler"
)

// Session is a process-wide per-linkset instance, per spec.md §3's data
// model: one switch variant, one own point code, one scheduler table, an
// ordered list of links, and the event ring the host drains.
type Session struct {
	cfg  Config
	sched *scheduler.Scheduler
	mtp3 *mtp3.Engine
	isup *isup.Engine
	host HostCallbacks
	log  Logger

	links       []*mtp3.LinkState
	lastRetrans []uint64
	lastSent    []uint64
	lastRecv    []uint64
	sps         map[uint32]*mtp3.AdjacentSP

	ring           *eventRing
	linksetUpTimer scheduler.ID

	started bool
	lastNow time.Time

	dumpWriter dumpWriter
	DebugMask  DebugMask

	metrics *metrics.Metrics
}

// dumpWriter is the minimal io.Writer-shaped surface SetDumpWriter needs;
// named locally so this file doesn't have to import io just for the one
// method signature.
type dumpWriter interface {
	Write(p []byte) (n int, err error)
}

// New builds a Session from cfg, ready for AddLink. host is the callback
// set registered once per session (§6); zapLog is the structured-logging
// sink every subsystem's Logger wraps (§10) — ordinarily a
// *zap.SugaredLogger adapter.
func New(cfg Config, host HostCallbacks, zapLog Logger) (*Session, error) {
	if host == nil {
		panic("ss7: New: nil HostCallbacks")
	}
	if zapLog == nil {
		panic("ss7: New: nil Logger")
	}
	cfg = cfg.resolved()
	sched := scheduler.New(cfg.SchedulerCapacity)
	log := newHostLogger(zapLog, host)

	s := &Session{
		cfg:            cfg,
		sched:          sched,
		host:           host,
		log:            log,
		sps:            make(map[uint32]*mtp3.AdjacentSP),
		ring:           newEventRing(cfg.EventRingSize),
		linksetUpTimer: -1,
	}

	m := mtp3.NewEngine(cfg.Variant, cfg.OwnPC, cfg.NI, cfg.SLSShift, sched, log, nil)
	i := isup.NewEngine(cfg.Variant, cfg.OwnPC, cfg.ISUPTimers, sched, log, m, host, s)
	m.Upper = i
	s.mtp3, s.isup = m, i
	return s, nil
}

// SetMetrics attaches a prometheus metrics set the session reports link,
// call, scheduler, and event-ring occupancy to. Run also reports per-link
// MSU sent/received and retransmission counts, taken from each mtp2 link's
// own counters.
func (s *Session) SetMetrics(m *metrics.Metrics) {
	s.metrics = m
}

// ISUP exposes the session's isup.Engine so a host can call its call-
// origination/maintenance methods (NewCallOut, SendIAM, SendACM, SendBLO,
// ...) directly, the way the facade stays thin and delegates to the layer
// that actually implements §4.4.
func (s *Session) ISUP() *isup.Engine { return s.isup }

// MTP3 exposes the session's mtp3.Engine for link-management operations
// (§4.3) the facade does not itself wrap.
func (s *Session) MTP3() *mtp3.Engine { return s.mtp3 }

// CallByCIC looks up the live call for (cic, dpc), for a host that learned
// of a circuit from an Event rather than holding the *isup.Call NewCallOut
// returned. It returns ErrUnknownCIC if no call is currently tracked for
// that circuit.
func (s *Session) CallByCIC(cic uint16, dpc uint32) (*isup.Call, error) {
	c, ok := s.isup.CallByCIC(uint32(cic), dpc)
	if !ok {
		return nil, ErrUnknownCIC
	}
	return c, nil
}

// AddLink attaches dev as a new link reaching adjacent point code dpc,
// lazily creating the AdjacentSP the first time it is seen by any link, per
// §3's lifecycle rule. Returns the link's slc (signalling-link-code, its
// index among this session's links). A nil Device is a programmer error and
// panics at construction, matching §10's panic-only-on-programmer-error
// rule.
func (s *Session) AddLink(dev mtp2.Device, dpc uint32) (int, error) {
	if dev == nil {
		panic("ss7: AddLink: nil Device")
	}
	slc := len(s.links)
	sp, ok := s.sps[dpc]
	if !ok {
		sp = mtp3.NewAdjacentSP(dpc, s.log)
		s.sps[dpc] = sp
		s.mtp3.AddAdjacentSP(sp)
	}
	link := mtp2.NewLink(dev, slc, dpc, s.cfg.Variant, s.cfg.MTP2Timers, nil, s.log, s.sched)
	ls := mtp3.NewLinkState(link, sp, slc, s.sched, s.log, s.cfg.MTP3Timers, s.cfg.Q707Timers)
	link.Upper = ls
	ls.Engine = s.mtp3
	s.links = append(s.links, ls)
	s.lastRetrans = append(s.lastRetrans, 0)
	s.lastSent = append(s.lastSent, 0)
	s.lastRecv = append(s.lastRecv, 0)
	return slc, nil
}

// Start ignites MTP2 alignment on every configured link, per §4.5.
func (s *Session) Start(now time.Time) error {
	s.lastNow = now
	s.mtp3.Start(now, false)
	s.started = true
	return nil
}

// PollFlags reports what the host should wait on before its next Run: the
// earliest scheduler deadline (if any) and which links have data queued to
// write, per §4.5's "compute poll-flags" step.
type PollFlags struct {
	Deadline    time.Time
	HasDeadline bool
	WantWrite   []int
}

// PollFlags computes this cycle's poll-flags.
func (s *Session) PollFlags() PollFlags {
	pf := PollFlags{}
	if when, ok := s.sched.NextDeadline(); ok {
		pf.Deadline, pf.HasDeadline = when, true
	}
	for i, l := range s.links {
		if l.NeedsWrite() {
			pf.WantWrite = append(pf.WantWrite, i)
		}
	}
	return pf
}

// Run is one host-loop iteration: drain every link's I/O, then run due
// timers, per §4.5 ("drain I/O (read/write), run due timers"). The host is
// expected to call CheckEvent in a loop afterward to drain the event ring.
func (s *Session) Run(now time.Time) error {
	if !s.started {
		return ErrNotStarted
	}
	s.lastNow = now
	for i, l := range s.links {
		s.drainLink(now, l)
		s.lastRetrans[i] = bumpCounter(s.lastRetrans[i], l.RetransmissionCount(), func() { s.metrics.ObserveRetransmission(l.SLC) })
		s.lastSent[i] = bumpCounter(s.lastSent[i], l.MSUsSentCount(), func() { s.metrics.ObserveMSUSent(l.SLC) })
		s.lastRecv[i] = bumpCounter(s.lastRecv[i], l.MSUsReceivedCount(), func() { s.metrics.ObserveMSUReceived(l.SLC) })
	}
	s.sched.RunDue(now)
	s.metrics.SetActiveCalls(s.isup.ActiveCallCount())
	s.metrics.SetSchedulerUtilization(s.sched.InUse(), s.sched.Cap())
	return nil
}

// bumpCounter calls observe once per unit current has advanced past prev,
// turning a monotonic total (as mtp2.Link's counters report) into the
// delta of per-event Inc() calls prometheus.CounterVec expects.
func bumpCounter(prev, current uint64, observe func()) uint64 {
	for ; prev < current; prev++ {
		observe()
	}
	return current
}

// drainLink reads every frame and device event currently available from
// l's Device and feeds them to the alignment FSM, then flushes anything
// queued for transmission.
func (s *Session) drainLink(now time.Time, l *mtp3.LinkState) {
	dev := l.Device
	for {
		frame, ok, err := dev.ReadFrame()
		if err != nil {
			s.log.Errorf("ss7: link %d: read: %v", l.SLC, err)
			break
		}
		if !ok {
			break
		}
		if err := l.Receive(now, frame); err != nil {
			s.log.Errorf("ss7: link %d: %v", l.SLC, err)
		}
	}
	for {
		ev, ok := dev.PollEvent()
		if !ok {
			break
		}
		l.DeviceAlarm(now, ev)
	}
	l.Flush(now)
}

// CheckEvent returns the next event already sitting in the ring, per
// §4.5's "check_event always returns events already in the ring" — it does
// not itself read I/O or run timers; call Run first each cycle.
func (s *Session) CheckEvent() (Event, bool) {
	return s.ring.pop()
}

func (s *Session) pushEvent(e Event) {
	if !s.ring.push(e) {
		s.metrics.ObserveEventRingDrop()
		s.log.Errorf("%v", ErrEventRingFull)
	}
}

// ISUPEvent implements isup.Upper: every admissible received ISUP message
// becomes one ring event, tagged with a fresh correlation id (§11).
func (s *Session) ISUPEvent(e isup.Event) {
	s.pushEvent(Event{ID: uuid.New(), Time: e.Time, Kind: EventISUP, ISUP: e})
	if s.dumpWriter != nil && s.DebugMask&DebugISUP != 0 {
		cic, dpc := uint32(0), uint32(0)
		if e.Call != nil {
			cic, dpc = e.Call.CIC, e.Call.DPC
		}
		fmt.Fprintf(s.dumpWriter, "isup: %s cic=%d dpc=%d\n", e.Kind, cic, dpc)
	}
}

// LinkUp implements isup.Upper's pass-through of mtp3.Upper's link-state
// callback: one MTP2-LINK-UP event per §4.4's events list.
func (s *Session) LinkUp(slc int) {
	s.metrics.ObserveLinkUp(slc)
	s.pushEvent(Event{ID: uuid.New(), Time: s.lastNow, Kind: EventMTP2LinkUp, SLC: slc})
	if s.dumpWriter != nil && s.DebugMask&DebugMTP2 != 0 {
		fmt.Fprintf(s.dumpWriter, "mtp2: link %d up\n", slc)
	}
}

// LinkDown mirrors LinkUp for the down transition.
func (s *Session) LinkDown(slc int) {
	s.metrics.ObserveLinkDown(slc)
	s.pushEvent(Event{ID: uuid.New(), Time: s.lastNow, Kind: EventMTP2LinkDown, SLC: slc})
	if s.dumpWriter != nil && s.DebugMask&DebugMTP2 != 0 {
		fmt.Fprintf(s.dumpWriter, "mtp2: link %d down\n", slc)
	}
}

// LinksetUp implements isup.Upper: rather than posting SS7-STATE-UP the
// instant the adjacent SP reaches UP, it arms the linkset-up delay (§6,
// 500ms default) and posts the event on expiry, matching S1's "SS7-STATE-UP
// within linkset-up-delay" timing.
func (s *Session) LinksetUp() {
	s.sched.Cancel(&s.linksetUpTimer)
	id, err := s.sched.Schedule(s.lastNow, s.cfg.LinksetUpDelay, func(now time.Time, _ any) {
		s.pushEvent(Event{ID: uuid.New(), Time: now, Kind: EventSS7StateUp})
		if s.dumpWriter != nil && s.DebugMask&DebugMTP3 != 0 {
			fmt.Fprintf(s.dumpWriter, "mtp3: linkset up\n")
		}
	}, nil)
	if err != nil {
		s.log.Errorf("ss7: arm linkset-up delay: %v", err)
		return
	}
	s.linksetUpTimer = id
}

// LinksetDown implements isup.Upper: cancels any pending delayed
// SS7-STATE-UP and posts SS7-STATE-DOWN immediately.
func (s *Session) LinksetDown() {
	s.sched.Cancel(&s.linksetUpTimer)
	s.pushEvent(Event{ID: uuid.New(), Time: s.lastNow, Kind: EventSS7StateDown})
	if s.dumpWriter != nil && s.DebugMask&DebugMTP3 != 0 {
		fmt.Fprintf(s.dumpWriter, "mtp3: linkset down\n")
	}
}

// SetDumpWriter enables a one-line human-readable trace of every ISUP
// event and link/linkset transition, gated by DebugMask, per SPEC_FULL.md
// §12's debug-dump-hooks supplement.
func (s *Session) SetDumpWriter(w dumpWriter) {
	s.dumpWriter = w
}
