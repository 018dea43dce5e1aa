package testutil

import (
	"sync"
	"time"

	"artsync/internal/artsync"
)

// StubClock is an artsync.Clock under test control. It stamps sync runs,
// last-synced times and commit author dates. Safe for concurrent use.
type StubClock struct {
	mu  sync.Mutex
	now time.Time
}

var _ artsync.Clock = (*StubClock)(nil)

// NewStubClock creates a StubClock set to t.
func NewStubClock(t time.Time) *StubClock {
	return &StubClock{now: t}
}

// FixedClock pins sync tests to 2024-01-15 10:30:00 UTC, the created_at of
// the sample prompt, so golden output and last-synced stamps are stable.
func FixedClock() *StubClock {
	return NewStubClock(time.Date(2024, 1, 15, 10, 30, 0, 0, time.UTC))
}

func (c *StubClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

// Advance moves the clock forward by d, e.g. to tell two syncs apart.
func (c *StubClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}
