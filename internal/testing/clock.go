package testing

import (
	"sync"
	"time"
)

// DefaultFeedTime is the initial clock reading, unix 1700000000.
var DefaultFeedTime = time.Unix(1700000000, 0).UTC()

// ManualClock supplies the timestamps tests write into data feeds. Feed
// timestamps have second resolution, so the clock only moves when told to.
type ManualClock struct {
	mu  sync.RWMutex
	now time.Time
}

// NewManualClock returns a clock at DefaultFeedTime.
func NewManualClock() *ManualClock {
	return &ManualClock{now: DefaultFeedTime}
}

// Now returns the clock reading.
func (c *ManualClock) Now() time.Time {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.now
}

// Timestamp returns the reading as unix seconds, the unit setValue carries.
func (c *ManualClock) Timestamp() int64 {
	return c.Now().Unix()
}

// Advance moves the clock by d. A negative d moves it back, which tests use
// to produce stale timestamps.
func (c *ManualClock) Advance(d time.Duration) {
	c.mu.Lock()
	c.now = c.now.Add(d)
	c.mu.Unlock()
}

// Set moves the clock to t.
func (c *ManualClock) Set(t time.Time) {
	c.mu.Lock()
	c.now = t
	c.mu.Unlock()
}
