// Package coalescetest provides a manually advanced clock for debounce
// tests.
package coalescetest

import (
	"sort"
	"sync"
	"time"

	"github.com/eckfel/Implicit-Surface-Visualizer/pkg/coalesce"
)

// Clock is a coalesce.Clock whose time only moves on Advance.
type Clock struct {
	mu     sync.Mutex
	now    time.Duration
	timers []*timer
}

var _ coalesce.Clock = (*Clock)(nil)

type timer struct {
	clock   *Clock
	at      time.Duration
	f       func()
	stopped bool
	fired   bool
}

func (t *timer) Stop() bool {
	t.clock.mu.Lock()
	defer t.clock.mu.Unlock()
	if t.fired || t.stopped {
		return false
	}
	t.stopped = true
	return true
}

// NewClock returns a clock at time zero.
func NewClock() *Clock {
	return &Clock{}
}

// AfterFunc schedules f at now+d.
func (c *Clock) AfterFunc(d time.Duration, f func()) coalesce.Timer {
	c.mu.Lock()
	defer c.mu.Unlock()
	t := &timer{clock: c, at: c.now + d, f: f}
	c.timers = append(c.timers, t)
	return t
}

// Advance moves time forward by d and runs, in deadline order, every timer
// that came due. Callbacks run on the calling goroutine.
func (c *Clock) Advance(d time.Duration) {
	c.mu.Lock()
	c.now += d
	var due []*timer
	for _, t := range c.timers {
		if !t.stopped && !t.fired && t.at <= c.now {
			t.fired = true
			due = append(due, t)
		}
	}
	sort.SliceStable(due, func(i, j int) bool { return due[i].at < due[j].at })
	c.mu.Unlock()

	for _, t := range due {
		t.f()
	}
}

// Armed returns the number of timers that are neither stopped nor fired.
func (c *Clock) Armed() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	n := 0
	for _, t := range c.timers {
		if !t.stopped && !t.fired {
			n++
		}
	}
	return n
}

// Inline is a coalesce.Poster that runs posted functions immediately on the
// caller's goroutine.
type Inline struct{}

// Post runs f and reports true.
func (Inline) Post(f func()) bool {
	f()
	return true
}
