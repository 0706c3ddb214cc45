// Package metrics exposes the stack's prometheus/client_golang counters and
// gauges: link state transitions, MSU traffic, retransmissions, active
// calls, and scheduler slot utilization, per SPEC_FULL.md §11's
// observability supplement. Grounded on runZeroInc-sockstats's
// pkg/exporter use of prometheus/client_golang; that package wraps a
// custom Collector around per-connection kernel state, which this stack
// has no equivalent of, so these are registered directly as
// Counter/CounterVec/Gauge instead of through a custom Collector.
package metrics

import (
	"strconv"

	"github.com/prometheus/client_golang/prometheus"
)

// Metrics holds every collector a Session reports to. A nil *Metrics is
// valid and every method on it is a no-op, so wiring it into a Session
// is optional for a caller that never constructs one.
type Metrics struct {
	LinkStateTransitions *prometheus.CounterVec
	MSUsSent             *prometheus.CounterVec
	MSUsReceived         *prometheus.CounterVec
	Retransmissions      *prometheus.CounterVec
	ActiveCalls          prometheus.Gauge
	SchedulerInUse        prometheus.Gauge
	SchedulerCapacity     prometheus.Gauge
	EventRingDrops        prometheus.Counter
}

// New creates and registers a Metrics set against reg. Pass
// prometheus.DefaultRegisterer for the global registry, or a fresh
// prometheus.NewRegistry() in tests that want isolation.
func New(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		LinkStateTransitions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "ss7stack",
			Subsystem: "mtp2",
			Name:      "link_state_transitions_total",
			Help:      "Count of MTP2 link alignment state transitions, by link and resulting state.",
		}, []string{"slc", "state"}),
		MSUsSent: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "ss7stack",
			Subsystem: "mtp2",
			Name:      "msus_sent_total",
			Help:      "Count of MSUs transmitted, by link.",
		}, []string{"slc"}),
		MSUsReceived: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "ss7stack",
			Subsystem: "mtp2",
			Name:      "msus_received_total",
			Help:      "Count of MSUs accepted, by link.",
		}, []string{"slc"}),
		Retransmissions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "ss7stack",
			Subsystem: "mtp2",
			Name:      "retransmissions_total",
			Help:      "Count of MSU retransmissions forced by a negative acknowledgement, by link.",
		}, []string{"slc"}),
		ActiveCalls: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "ss7stack",
			Subsystem: "isup",
			Name:      "active_calls",
			Help:      "Number of live ISUP calls across every adjacent point code.",
		}),
		SchedulerInUse: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "ss7stack",
			Subsystem: "scheduler",
			Name:      "slots_in_use",
			Help:      "Occupied slots in the scheduler's delayed-callback table.",
		}),
		SchedulerCapacity: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "ss7stack",
			Subsystem: "scheduler",
			Name:      "slots_capacity",
			Help:      "Total slots in the scheduler's delayed-callback table.",
		}),
		EventRingDrops: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "ss7stack",
			Subsystem: "facade",
			Name:      "event_ring_drops_total",
			Help:      "Count of events dropped because the event ring was full.",
		}),
	}
	reg.MustRegister(
		m.LinkStateTransitions, m.MSUsSent, m.MSUsReceived, m.Retransmissions,
		m.ActiveCalls, m.SchedulerInUse, m.SchedulerCapacity, m.EventRingDrops,
	)
	return m
}

func (m *Metrics) linkStateTransition(slc int, state string) {
	if m == nil {
		return
	}
	m.LinkStateTransitions.WithLabelValues(strconv.Itoa(slc), state).Inc()
}

// ObserveLinkUp and ObserveLinkDown record an MTP2 link reaching IN-SERVICE
// or leaving it, keyed by slc.
func (m *Metrics) ObserveLinkUp(slc int)   { m.linkStateTransition(slc, "up") }
func (m *Metrics) ObserveLinkDown(slc int) { m.linkStateTransition(slc, "down") }

// ObserveMSUSent and ObserveMSUReceived count one MSU crossing the wire on
// link slc.
func (m *Metrics) ObserveMSUSent(slc int) {
	if m == nil {
		return
	}
	m.MSUsSent.WithLabelValues(strconv.Itoa(slc)).Inc()
}

func (m *Metrics) ObserveMSUReceived(slc int) {
	if m == nil {
		return
	}
	m.MSUsReceived.WithLabelValues(strconv.Itoa(slc)).Inc()
}

// ObserveRetransmission counts one forced retransmission on link slc.
func (m *Metrics) ObserveRetransmission(slc int) {
	if m == nil {
		return
	}
	m.Retransmissions.WithLabelValues(strconv.Itoa(slc)).Inc()
}

// SetActiveCalls reports the current live-call count.
func (m *Metrics) SetActiveCalls(n int) {
	if m == nil {
		return
	}
	m.ActiveCalls.Set(float64(n))
}

// SetSchedulerUtilization reports the scheduler table's current
// occupancy/capacity.
func (m *Metrics) SetSchedulerUtilization(inUse, capacity int) {
	if m == nil {
		return
	}
	m.SchedulerInUse.Set(float64(inUse))
	m.SchedulerCapacity.Set(float64(capacity))
}

// ObserveEventRingDrop counts one event dropped for a full ring.
func (m *Metrics) ObserveEventRingDrop() {
	if m == nil {
		return
	}
	m.EventRingDrops.Inc()
}
