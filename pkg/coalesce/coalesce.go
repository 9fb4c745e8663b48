// Package coalesce debounces bursts of edit events into single delayed
// submissions. Each edit channel holds at most one pending submission;
// arming a channel again cancels the previous one, so only the last edit
// inside the quiet period is submitted.
package coalesce

import (
	"time"

	"github.com/eckfel/Implicit-Surface-Visualizer/pkg/params"
)

// Channel identifies an independent stream of edits.
type Channel int

const (
	ChannelFormula Channel = iota // formula typing
	ChannelLimits                 // limits slider dragging
)

func (c Channel) String() string {
	switch c {
	case ChannelFormula:
		return "formula"
	case ChannelLimits:
		return "limits"
	default:
		return "unknown"
	}
}

// Default quiet periods per channel.
const (
	FormulaDelay = 1500 * time.Millisecond
	LimitsDelay  = 1000 * time.Millisecond
)

// Poster runs a function on the owner's event loop.
type Poster interface {
	Post(f func()) bool
}

// SubmitFunc receives the override of the edit that survived the quiet
// period. Fields the edit did not supply are left nil and must be resolved
// by the receiver at call time.
type SubmitFunc func(params.Override)

// pending is one armed timer and the override it will submit.
type pending struct {
	timer    Timer
	override params.Override
	gen      uint64
}

// Coalescer owns the pending timers of every channel. Its methods must be
// called from the loop that the Poster feeds; timer callbacks hop back onto
// that loop before touching any state.
type Coalescer struct {
	clock   Clock
	poster  Poster
	submit  SubmitFunc
	pending map[Channel]*pending
	gen     uint64
}

// New creates a Coalescer. Fired submissions are posted through poster and
// delivered to submit.
func New(clock Clock, poster Poster, submit SubmitFunc) *Coalescer {
	if clock == nil {
		clock = RealClock{}
	}
	return &Coalescer{
		clock:   clock,
		poster:  poster,
		submit:  submit,
		pending: make(map[Channel]*pending),
	}
}

// Schedule cancels the pending submission of ch, if any, and arms a new one
// that submits override after delay. A non-positive delay submits
// immediately.
func (c *Coalescer) Schedule(ch Channel, override params.Override, delay time.Duration) {
	c.Cancel(ch)

	if delay <= 0 {
		c.submit(override)
		return
	}

	c.gen++
	p := &pending{override: override, gen: c.gen}
	c.pending[ch] = p
	p.timer = c.clock.AfterFunc(delay, func() {
		c.poster.Post(func() { c.fire(ch, p.gen) })
	})
}

// fire runs on the loop. A timer whose entry was cancelled or superseded
// after it fired is discarded by the generation check.
func (c *Coalescer) fire(ch Channel, gen uint64) {
	p, ok := c.pending[ch]
	if !ok || p.gen != gen {
		return
	}
	delete(c.pending, ch)
	c.submit(p.override)
}

// Cancel discards the pending submission of ch without side effects.
func (c *Coalescer) Cancel(ch Channel) {
	p, ok := c.pending[ch]
	if !ok {
		return
	}
	p.timer.Stop()
	delete(c.pending, ch)
}

// CancelAll discards every pending submission.
func (c *Coalescer) CancelAll() {
	for ch := range c.pending {
		c.Cancel(ch)
	}
}

// Pending reports whether ch has an armed timer.
func (c *Coalescer) Pending(ch Channel) bool {
	_, ok := c.pending[ch]
	return ok
}
