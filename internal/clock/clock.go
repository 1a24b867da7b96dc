// Package clock stamps snippet records in one fixed civil-time zone.
package clock

import (
	"sync"
	"time"
)

// Clock returns moments in a fixed location that never go backwards within
// one process, even if the host clock is stepped back.
type Clock struct {
	loc *time.Location
	now func() time.Time

	mu   sync.Mutex
	last time.Time
}

func New(loc *time.Location) *Clock {
	return NewWithSource(loc, time.Now)
}

// NewWithSource is used by tests to drive the clock.
func NewWithSource(loc *time.Location, now func() time.Time) *Clock {
	if loc == nil {
		loc = time.UTC
	}
	return &Clock{loc: loc, now: now}
}

func (c *Clock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	t := c.now().In(c.loc).Round(0)
	if t.Before(c.last) {
		t = c.last
	}
	c.last = t
	return t
}
