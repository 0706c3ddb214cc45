// Package mtp2 implements the link layer of the stack: frame transmit and
// receive, the alignment state machine, FSN/BSN sequencing with
// retransmission, and basic flow control. It knows nothing about routing
// labels, point codes, or ISUP; it delivers raw MSU payloads upward and
// accepts raw MSU payloads to queue for transmission, matching the
// dependency order Scheduler -> MTP2 -> MTP3 -> ISUP -> Facade.
package mtp2

import (
	"fmt"
	"time"

	"github.com/creslin7/ss7stack/counter"
	"github.com/creslin7/ss7stack/queue"
	"github.com/creslin7/ss7stack/scheduler"
)

// State is an alignment state of a Link's state machine.
type State int

const (
	StateIdle State = iota
	StateNotAligned
	StateAligned
	StateProving
	StateAlignedReady
	StateInService
	StateAlarm
)

var stateNames = map[State]string{
	StateIdle:         "IDLE",
	StateNotAligned:   "NOT-ALIGNED",
	StateAligned:      "ALIGNED",
	StateProving:      "PROVING",
	StateAlignedReady: "ALIGNED-READY",
	StateInService:    "IN-SERVICE",
	StateAlarm:        "ALARM",
}

func (s State) String() string {
	if n, ok := stateNames[s]; ok {
		return n
	}
	return fmt.Sprintf("State(%d)", int(s))
}

// Variant selects the MTP2 timer constants in effect for a Link.
type Variant int

const (
	ITU Variant = iota
	ANSI
)

// Timers holds the six MTP2 timer durations, in the units SPEC_FULL.md's
// ambient config layer resolves negative-means-default/zero-means-disabled
// values into before constructing a Link.
type Timers struct {
	T1           time.Duration
	T2           time.Duration
	T3           time.Duration
	T4Normal     time.Duration
	T4Emergency  time.Duration
	T7           time.Duration
}

// DefaultTimers returns the constants from SPEC_FULL.md §6 / the original
// mtp2.h for the given variant.
func DefaultTimers(v Variant) Timers {
	switch v {
	case ANSI:
		return Timers{
			T1:          16000 * time.Millisecond,
			T2:          11500 * time.Millisecond,
			T3:          11500 * time.Millisecond,
			T4Normal:    2300 * time.Millisecond,
			T4Emergency: 600 * time.Millisecond,
			T7:          1250 * time.Millisecond,
		}
	default:
		return Timers{
			T1:          45000 * time.Millisecond,
			T2:          50000 * time.Millisecond,
			T3:          1500 * time.Millisecond,
			T4Normal:    8500 * time.Millisecond,
			T4Emergency: 500 * time.Millisecond,
			T7:          1250 * time.Millisecond,
		}
	}
}

// Logger is the minimal structured-logging surface mtp2 needs; satisfied
// by *zap.SugaredLogger without importing zap here.
type Logger interface {
	Debugf(format string, args ...any)
	Infof(format string, args ...any)
	Errorf(format string, args ...any)
}

// Upper receives events from a Link: delivered MSU payloads and alignment
// state transitions. MTP3's per-link wrapper implements this to drive
// routing and link management; it is the session-scoped callback
// configuration the design notes call for in place of global function
// pointers.
type Upper interface {
	DeliverMSU(now time.Time, l *Link, sif []byte)
	LinkStateChanged(now time.Time, l *Link, up bool)
}

// outbound is one queued or in-flight MSU: its encoded SIF payload plus
// the sequence number it was, or will be, sent with.
type outbound struct {
	fsn uint8
	fib bool
	sif []byte
}

// Link is one MTP2 instance: a signalling link attached to a Device. SLC
// is the link's index among the session's links; DPC is the adjacent
// point code the link reaches (assigned at configuration, per the data
// model in spec.md §3).
type Link struct {
	Device  Device
	SLC     int
	DPC     uint32
	Variant Variant
	Timers  Timers
	Upper   Upper
	Log     Logger
	Sched   *scheduler.Scheduler

	state State

	// timer slot handles: t3 bounds how long the link may sit in ALIGNED
	// waiting for the peer to start proving, per the original's
	// mtp2_setstate/t3_expiry (armed entering ALIGNED, cancelled leaving it,
	// expiry forces IDLE).
	t1, t2, t3, t4, t7 scheduler.ID

	provingEmergency bool

	// sequencing
	curFSN        uint8
	curFIB        bool
	lastFSNAcked  uint8
	curBIB        bool
	txBuf *queue.Queue // unacked, sent MSUs, ordered by FSN ascending
	txQ   *queue.Queue // queued MSUs not yet transmitted

	needsWrite bool

	lastSUSent []byte
	lastSURecv []byte

	retransmissions *counter.Counter
	msusSent        *counter.Counter
	msusReceived    *counter.Counter
}

// NewLink creates a Link bound to dev, not yet started.
func NewLink(dev Device, slc int, dpc uint32, variant Variant, timers Timers, upper Upper, log Logger, sched *scheduler.Scheduler) *Link {
	return &Link{
		Device:       dev,
		SLC:          slc,
		DPC:          dpc,
		Variant:      variant,
		Timers:       timers,
		Upper:        upper,
		Log:          log,
		Sched:        sched,
		state:        StateIdle,
		t1:           -1,
		t2:           -1,
		t3:           -1,
		t4:           -1,
		t7:           -1,
		lastFSNAcked:    127,
		curFSN:          0,
		curBIB:          true,
		txBuf:           queue.New(),
		txQ:             queue.New(),
		retransmissions: counter.New(),
		msusSent:        counter.New(),
		msusReceived:    counter.New(),
	}
}

// State returns the link's current alignment state.
func (l *Link) State() State { return l.state }

// RetransmissionCount returns how many MSUs this link has had to resend
// due to a negative acknowledgement, for metrics reporting.
func (l *Link) RetransmissionCount() uint64 { return l.retransmissions.Value() }

// MSUsSentCount returns how many MSUs this link has accepted for
// transmission, for metrics reporting.
func (l *Link) MSUsSentCount() uint64 { return l.msusSent.Value() }

// MSUsReceivedCount returns how many MSUs this link has delivered upward,
// for metrics reporting.
func (l *Link) MSUsReceivedCount() uint64 { return l.msusReceived.Value() }

// InService reports whether the link currently accepts MSUs from MTP3.
func (l *Link) InService() bool { return l.state == StateInService }

func (l *Link) setState(now time.Time, s State) {
	wasUp := l.state == StateInService
	l.state = s
	isUp := l.state == StateInService
	if wasUp != isUp && l.Upper != nil {
		l.Upper.LinkStateChanged(now, l, isUp)
	}
}

func (l *Link) cancelAll() {
	l.Sched.Cancel(&l.t1)
	l.Sched.Cancel(&l.t2)
	l.Sched.Cancel(&l.t3)
	l.Sched.Cancel(&l.t4)
	l.Sched.Cancel(&l.t7)
}

// Start begins the alignment procedure. emergency requests the shorter
// proving period if the peer also indicates emergency alignment.
func (l *Link) Start(now time.Time, emergency bool) {
	l.provingEmergency = emergency
	l.reset(now)
	l.setState(now, StateNotAligned)
	l.sendLSSU(now, StatusSIO)
	l.armT2(now)
}

// Stop halts the link unconditionally (used for ALARM and host-initiated
// teardown).
func (l *Link) Stop(now time.Time) {
	l.cancelAll()
	l.flushBuffers()
	l.setState(now, StateIdle)
}

// Alarm drives the link to the ALARM state from any state; the only way
// out is Start after NoAlarm.
func (l *Link) Alarm(now time.Time) {
	l.cancelAll()
	l.setState(now, StateAlarm)
}

// NoAlarm clears an alarm condition, returning the link to IDLE so a
// fresh Start can realign it.
func (l *Link) NoAlarm(now time.Time) {
	if l.state == StateAlarm {
		l.setState(now, StateIdle)
	}
}

func (l *Link) reset(now time.Time) {
	l.curFSN = 0
	l.curFIB = false
	l.curBIB = true
	l.lastFSNAcked = 127
	l.flushBuffers()
}

func (l *Link) flushBuffers() {
	l.txBuf.Clear()
	l.txQ.Clear()
}

func (l *Link) armT1(now time.Time) {
	l.Sched.Cancel(&l.t1)
	id, _ := l.Sched.Schedule(now, l.Timers.T1, func(now time.Time, _ any) { l.onT1(now) }, nil)
	l.t1 = id
}

func (l *Link) armT2(now time.Time) {
	l.Sched.Cancel(&l.t2)
	id, _ := l.Sched.Schedule(now, l.Timers.T2, func(now time.Time, _ any) { l.onT2(now) }, nil)
	l.t2 = id
}

func (l *Link) armT4(now time.Time) {
	l.Sched.Cancel(&l.t4)
	d := l.Timers.T4Normal
	if l.provingEmergency {
		d = l.Timers.T4Emergency
	}
	id, _ := l.Sched.Schedule(now, d, func(now time.Time, _ any) { l.onT4(now) }, nil)
	l.t4 = id
}

func (l *Link) armT7(now time.Time) {
	if l.t7 >= 0 {
		return
	}
	id, _ := l.Sched.Schedule(now, l.Timers.T7, func(now time.Time, _ any) { l.onT7(now) }, nil)
	l.t7 = id
}

func (l *Link) armT3(now time.Time) {
	l.Sched.Cancel(&l.t3)
	id, _ := l.Sched.Schedule(now, l.Timers.T3, func(now time.Time, _ any) { l.onT3(now) }, nil)
	l.t3 = id
}

// Timer callbacks are invoked by the scheduler with the "now" timestamp
// that made them due; the scheduler is the stack's sole time source (see
// SPEC_FULL.md §5), so no timer handler reads the wall clock itself.

func (l *Link) onT2(now time.Time) {
	if l.state != StateNotAligned {
		return
	}
	l.sendLSSU(now, StatusSIO)
	l.armT2(now)
}

func (l *Link) onT4(now time.Time) {
	if l.state != StateProving {
		return
	}
	l.setState(now, StateAlignedReady)
	l.armT1(now)
	l.sendFISU(now)
}

func (l *Link) onT1(now time.Time) {
	if l.state != StateAlignedReady {
		return
	}
	l.setState(now, StateIdle)
}

func (l *Link) onT7(now time.Time) {
	l.t7 = -1
	if l.txBuf.Length() > 0 {
		l.setState(now, StateIdle)
		l.reset(now)
	}
}

// onT3 fires if the peer never starts proving while we sit in ALIGNED;
// the original unconditionally forces IDLE regardless of what arrived
// (or didn't) in the meantime.
func (l *Link) onT3(now time.Time) {
	if l.state != StateAligned {
		return
	}
	l.setState(now, StateIdle)
	l.reset(now)
}

// Receive processes one frame read from the Device.
func (l *Link) Receive(now time.Time, frame []byte) error {
	su, err := decodeSU(frame)
	if err != nil {
		return err
	}
	l.lastSURecv = frame
	switch su.kind {
	case kindLSSU:
		l.onLSSU(now, su)
	case kindFISU:
		l.onFISU(now, su)
	case kindMSU:
		l.onMSU(now, su)
	}
	return nil
}

// DeviceAlarm processes a side-channel device event; every recognised kind
// aborts alignment and returns the link to IDLE, per SPEC_FULL.md §4.2.
func (l *Link) DeviceAlarm(now time.Time, ev DeviceEvent) {
	switch ev {
	case EventOverrun, EventBadFCS, EventHDLCAbort:
		l.Log.Errorf("link %d: device event %s, re-aligning", l.SLC, ev)
		l.setState(now, StateIdle)
		l.reset(now)
	case EventUnknown:
		l.Log.Infof("link %d: unrecognised device event, ignoring", l.SLC)
	}
}

// onLSSU reproduces the original's lssu_rx/mtp2_setstate branching:
//   - IDLE/NOT-ALIGNED: plain SIO goes straight to ALIGNED (T3 armed);
//     SIN/SIE start proving (T4 armed, T2 cancelled).
//   - ALIGNED: SIOS drops to IDLE; anything else starts proving (T3
//     cancelled, T4 armed).
//   - PROVING: SIOS drops to IDLE; plain SIO downgrades back to ALIGNED
//     (T4 cancelled, T3 re-armed); any other status is ignored.
//   - ALIGNED-READY/IN-SERVICE: any LSSU forces a re-align to IDLE.
func (l *Link) onLSSU(now time.Time, su decodedSU) {
	l.processAck(now, su.header)
	switch l.state {
	case StateIdle, StateNotAligned:
		switch su.status {
		case StatusSIO:
			l.setState(now, StateAligned)
			l.Sched.Cancel(&l.t2)
			l.armT3(now)
		case StatusSIN, StatusSIE:
			l.provingEmergency = su.status == StatusSIE
			l.setState(now, StateProving)
			l.Sched.Cancel(&l.t2)
			l.armT4(now)
		}
	case StateAligned:
		switch su.status {
		case StatusSIOS:
			l.Sched.Cancel(&l.t3)
			l.setState(now, StateIdle)
			l.reset(now)
		default:
			l.provingEmergency = su.status == StatusSIE
			l.Sched.Cancel(&l.t3)
			l.setState(now, StateProving)
			l.armT4(now)
		}
	case StateProving:
		switch su.status {
		case StatusSIOS:
			l.Sched.Cancel(&l.t4)
			l.setState(now, StateIdle)
			l.reset(now)
		case StatusSIO:
			l.Sched.Cancel(&l.t4)
			l.setState(now, StateAligned)
			l.armT3(now)
		}
		// SIN/SIE while already proving: no change.
	case StateAlignedReady, StateInService:
		if su.status != StatusSIO && su.status != StatusSIOS {
			l.Log.Infof("link %d: LSSU %s while %s, re-aligning", l.SLC, su.status, l.state)
		}
		l.Sched.Cancel(&l.t1)
		l.setState(now, StateIdle)
		l.reset(now)
	}
}

func (l *Link) onFISU(now time.Time, su decodedSU) {
	l.processAck(now, su.header)
	if l.state == StateAlignedReady {
		l.Sched.Cancel(&l.t1)
		l.setState(now, StateInService)
	}
}

func (l *Link) onMSU(now time.Time, su decodedSU) {
	if l.state != StateInService {
		return
	}
	l.processAck(now, su.header)
	h := su.header
	if h.fib != l.curBIB {
		// Peer is negative-acking: toggle our forward indicator and
		// retransmit everything from the saved cursor.
		l.negativeAck(now)
		return
	}
	expected := (l.lastFSNAcked + 1) % 128
	if h.fsn == l.lastFSNAcked {
		return // duplicate, drop silently
	}
	if h.fsn != expected {
		// Gap: request retransmission by toggling BIB.
		l.curBIB = !l.curBIB
		return
	}
	l.lastFSNAcked = h.fsn
	l.msusReceived.Increment()
	l.Upper.DeliverMSU(now, l, su.sif)
}

// processAck advances the unacked-buffer tail using the peer's BSN.
func (l *Link) processAck(now time.Time, h suHeader) {
	l.updateTxBuf(h.bsn)
}

func (l *Link) updateTxBuf(upto uint8) {
	l.txBuf.RemoveWhere(func(v any) bool {
		ob := v.(outbound)
		return fsnLE(ob.fsn, upto)
	})
	if l.txBuf.Length() == 0 {
		l.Sched.Cancel(&l.t7)
	}
}

// fsnLE reports whether a precedes or equals b in the mod-128 sequence
// space, treating the window as "not wrapped past" per §3's invariant
// that lastfsnacked stays within [0,128) and tx_buf carries strictly
// increasing FSNs modulo wraparound.
func fsnLE(a, b uint8) bool {
	d := (b - a) & 0x7f
	return d < 64
}

func (l *Link) negativeAck(now time.Time) {
	l.curFIB = !l.curFIB
	for _, v := range l.txBuf.Items() {
		ob := v.(outbound)
		ob.fib = l.curFIB
		l.retransmitQueue(now, ob)
	}
}

func (l *Link) retransmitQueue(now time.Time, ob outbound) {
	l.retransmissions.Increment()
	frame, err := encodeMSU(suHeader{fsn: ob.fsn, fib: ob.fib, bsn: l.lastFSNAcked, bib: l.curBIB}, ob.sif)
	if err != nil {
		l.Log.Errorf("link %d: re-encode on retransmit: %v", l.SLC, err)
		return
	}
	l.sendFrame(now, frame)
}

// MSU queues sif for transmission; callers must check InService first,
// matching the invariant that a link not IN-SERVICE never accepts MSUs
// from MTP3.
func (l *Link) MSU(now time.Time, sif []byte) error {
	if !l.InService() {
		return fmt.Errorf("mtp2: link %d not in service", l.SLC)
	}
	fsn := l.curFSN
	l.curFSN = (l.curFSN + 1) % 128
	ob := outbound{fsn: fsn, fib: l.curFIB, sif: sif}
	l.txQ.Push(ob)
	l.needsWrite = true
	l.msusSent.Increment()
	l.armT7(now)
	return nil
}

// Flush transmits everything queued in txQ, moving each item into txBuf.
// Call once per poll cycle after MSU() calls and before checking
// Device.WriteReady/issuing writes.
func (l *Link) Flush(now time.Time) {
	for {
		item, ok := l.txQ.Pop()
		if !ok {
			break
		}
		ob := item.(outbound)
		l.txBuf.Push(ob)
		frame, err := encodeMSU(suHeader{fsn: ob.fsn, fib: ob.fib, bsn: l.lastFSNAcked, bib: l.curBIB}, ob.sif)
		if err != nil {
			l.Log.Errorf("link %d: encode MSU: %v", l.SLC, err)
			continue
		}
		l.sendFrame(now, frame)
	}
	l.needsWrite = false
}

func (l *Link) sendFISU(now time.Time) {
	frame := encodeFISU(suHeader{bsn: l.lastFSNAcked, bib: l.curBIB})
	l.sendFrame(now, frame)
}

func (l *Link) sendLSSU(now time.Time, status LSSUStatus) {
	frame := encodeLSSU(suHeader{bsn: l.lastFSNAcked, bib: l.curBIB}, status)
	l.sendFrame(now, frame)
	if status == StatusSIOS || status == StatusSIO {
		l.curFSN = 0
		l.curFIB = true
		l.curBIB = true
		l.lastFSNAcked = 127
		l.flushBuffers()
	}
}

func (l *Link) sendFrame(now time.Time, frame []byte) {
	l.lastSUSent = frame
	if err := l.Device.WriteFrame(frame); err != nil {
		l.Log.Errorf("link %d: write: %v", l.SLC, err)
	}
}

// NeedsWrite reports whether the link has data queued to write this cycle.
func (l *Link) NeedsWrite() bool { return l.needsWrite || l.txQ.Length() > 0 }

// PendingMSU is one outbound MSU not yet known to be accepted by the peer,
// as reported by PendingOutbound.
type PendingMSU struct {
	FSN uint8
	SIF []byte
}

// PendingOutbound returns every MSU sent-but-unacked and queued-but-unsent
// on this link, in FSN order. mtp3 uses this to snapshot a failed link's
// outstanding traffic onto its changeover buffer.
func (l *Link) PendingOutbound() []PendingMSU {
	var out []PendingMSU
	for _, v := range l.txBuf.Items() {
		ob := v.(outbound)
		out = append(out, PendingMSU{FSN: ob.fsn, SIF: ob.sif})
	}
	for _, v := range l.txQ.Items() {
		ob := v.(outbound)
		out = append(out, PendingMSU{FSN: ob.fsn, SIF: ob.sif})
	}
	return out
}

// LastFSNReceived returns the FSN of the last MSU this link accepted from
// its peer — the cursor a changeover order reports so the replacement link
// knows what it must retransmit.
func (l *Link) LastFSNReceived() uint8 { return l.lastFSNAcked }
