package ss7

import (
	"time"

	"github.com/google/uuid"

	"github.com/creslin7/ss7stack/isup"
)

// EventKind enumerates every occurrence the facade surfaces to the host:
// one ISUP call-control event per admissible received message (§4.4's
// events list, carried verbatim in ISUP), plus the link/linkset state
// transitions that same list appends (MTP2-LINK-UP/DOWN, SS7-STATE-UP/DOWN).
type EventKind int

const (
	EventISUP EventKind = iota
	EventMTP2LinkUp
	EventMTP2LinkDown
	EventSS7StateUp
	EventSS7StateDown
)

func (k EventKind) String() string {
	switch k {
	case EventISUP:
		return "ISUP"
	case EventMTP2LinkUp:
		return "MTP2-LINK-UP"
	case EventMTP2LinkDown:
		return "MTP2-LINK-DOWN"
	case EventSS7StateUp:
		return "SS7-STATE-UP"
	case EventSS7StateDown:
		return "SS7-STATE-DOWN"
	default:
		return "UNKNOWN"
	}
}

// Event is one occurrence drained from the ring by CheckEvent. ID is a
// uuid correlation tag (SPEC_FULL.md §11) a host aggregating logs across
// goroutine-per-linkset sessions can stitch to the log lines that produced
// it; it carries no wire semantics of its own.
type Event struct {
	ID   uuid.UUID
	Time time.Time
	Kind EventKind

	// SLC is meaningful for EventMTP2LinkUp/EventMTP2LinkDown.
	SLC int

	// ISUP is meaningful when Kind == EventISUP; it is the call-control
	// occurrence isup.Engine reported, passed through unwrapped so the host
	// keeps access to isup.Event's Call/Data fields.
	ISUP isup.Event
}

// eventRing is a bounded, single-producer/single-consumer FIFO per §5's
// "the event ring is SPSC" rule — every producer runs on the session's one
// goroutine. push reports false (and drops the event) when full rather
// than blocking or growing, matching §7's "event-ring-full" resource
// exhaustion case; the caller turns that into ErrEventRingFull.
type eventRing struct {
	buf        []Event
	head, size int
}

func newEventRing(capacity int) *eventRing {
	if capacity <= 0 {
		capacity = 16
	}
	return &eventRing{buf: make([]Event, capacity)}
}

func (r *eventRing) push(e Event) bool {
	if r.size == len(r.buf) {
		return false
	}
	tail := (r.head + r.size) % len(r.buf)
	r.buf[tail] = e
	r.size++
	return true
}

func (r *eventRing) pop() (Event, bool) {
	if r.size == 0 {
		return Event{}, false
	}
	e := r.buf[r.head]
	r.head = (r.head + 1) % len(r.buf)
	r.size--
	return e, true
}

func (r *eventRing) len() int { return r.size }
