package coalesce

import "time"

// Timer is a cancelable scheduled callback.
type Timer interface {
	// Stop cancels the timer. It reports false if the timer already fired.
	Stop() bool
}

// Clock schedules callbacks. RealClock is used in production; tests
// substitute a manually advanced clock.
type Clock interface {
	AfterFunc(d time.Duration, f func()) Timer
}

// RealClock schedules callbacks with the time package.
type RealClock struct{}

// AfterFunc calls f on its own goroutine after d.
func (RealClock) AfterFunc(d time.Duration, f func()) Timer {
	return time.AfterFunc(d, f)
}
