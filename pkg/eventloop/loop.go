// Package eventloop provides the single logical thread the viewer runs on.
// UI events, debounce timer fires and network completions are all posted
// onto one Loop and executed sequentially, so the state they touch needs no
// locking.
package eventloop

import (
	"context"
	"errors"
	"sync"
	"time"
)

// ErrStopped is returned by Do when the loop is no longer running.
var ErrStopped = errors.New("eventloop: stopped")

// defaultQueue is the buffered queue length.
const defaultQueue = 256

// Loop executes posted functions one at a time, in posting order.
type Loop struct {
	queue chan func()
	done  chan struct{}

	mu      sync.Mutex
	stopped bool
}

// New creates a Loop. Call Run to start executing posted functions.
func New() *Loop {
	return &Loop{
		queue: make(chan func(), defaultQueue),
		done:  make(chan struct{}),
	}
}

// Run drains the queue until ctx is cancelled. Functions still queued when
// ctx ends are dropped.
func (l *Loop) Run(ctx context.Context) error {
	defer func() {
		l.mu.Lock()
		l.stopped = true
		l.mu.Unlock()
		close(l.done)
	}()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case f := <-l.queue:
			f()
		}
	}
}

// Post enqueues f. It reports false if the loop has stopped. Post blocks
// while the queue is full, so it must not be called from the loop itself
// with a full queue.
func (l *Loop) Post(f func()) bool {
	l.mu.Lock()
	stopped := l.stopped
	l.mu.Unlock()
	if stopped {
		return false
	}

	select {
	case l.queue <- f:
		return true
	case <-l.done:
		return false
	}
}

// Do posts f and waits until it has run.
func (l *Loop) Do(f func()) error {
	ran := make(chan struct{})
	if !l.Post(func() {
		defer close(ran)
		f()
	}) {
		return ErrStopped
	}
	select {
	case <-ran:
		return nil
	case <-l.done:
		return ErrStopped
	}
}

// Done is closed once Run has returned.
func (l *Loop) Done() <-chan struct{} {
	return l.done
}

// Every posts f onto the loop at a fixed interval until ctx is cancelled.
// A tick is skipped while the previous one is still queued, so a slow loop
// does not accumulate a backlog of frames.
func (l *Loop) Every(ctx context.Context, interval time.Duration, f func()) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	var busy sync.Mutex
	for {
		select {
		case <-ctx.Done():
			return
		case <-l.done:
			return
		case <-ticker.C:
			if !busy.TryLock() {
				continue
			}
			if !l.Post(func() {
				defer busy.Unlock()
				f()
			}) {
				busy.Unlock()
				return
			}
		}
	}
}
