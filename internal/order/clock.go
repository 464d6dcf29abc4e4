package order

import (
	"sync"
	"time"
)

// KeyLayout is RFC 3339 with fixed-width nanoseconds, so keys sort in time order.
const KeyLayout = "2006-01-02T15:04:05.000000000Z07:00"

// clock hands out strictly increasing UTC times within the process.
type clock struct {
	mu   sync.Mutex
	last time.Time
	now  func() time.Time
}

func newClock(now func() time.Time) *clock {
	return &clock{now: now}
}

func (c *clock) Next() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	t := c.now().UTC()
	if !t.After(c.last) {
		t = c.last.Add(time.Nanosecond)
	}
	c.last = t
	return t
}
