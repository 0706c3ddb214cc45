package counter

import (
	"fmt"
)

// Counter is a 64 bit counter, used for link- and call-level bookkeeping
// (e.g. mtp2.Link's retransmission count) that a caller wants to read back
// without pulling in prometheus.
type Counter struct {
	count uint64
}

// New creates a new 64 bit counter
func New() *Counter {
	return new(Counter)
}

// Reset zeroes the counter.
func (c *Counter) Reset() {
	c.count = 0
}

// Increment adds one.
func (c *Counter) Increment() {
	c.count++
}

// Value returns the current count.
func (c *Counter) Value() uint64 {
	return uint64(c.count)
}

// String implements fmt.Stringer
func (c *Counter) String() string {
	return fmt.Sprintf("%d", c.count)
}
