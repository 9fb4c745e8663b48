package engine

import (
	"errors"
	"fmt"
	"time"
)

// DefaultTimeout bounds one Evaluate call over all probe points.
const DefaultTimeout = 5 * time.Second

var (
	// ErrTimeout is returned when the probes do not finish in time. The
	// sandbox goroutine keeps running and its result is dropped.
	ErrTimeout = errors.New("engine: evaluation timed out")
	// ErrSuperseded is returned when a later Evaluate on the same engine
	// started before this one finished.
	ErrSuperseded = errors.New("engine: evaluation superseded")
)

type probeResult struct {
	values []float64
	errs   []EvalError
	err    error
}

// begin claims the next generation.
func (e *Engine) begin() uint64 {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.generation++
	return e.generation
}

func (e *Engine) latest(gen uint64) bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return gen == e.generation
}

// await returns the result of generation gen from ch.
func (e *Engine) await(ch <-chan probeResult, gen uint64) ([]float64, []EvalError, error) {
	e.mu.Lock()
	d := e.timeout
	e.mu.Unlock()

	timer := time.NewTimer(d)
	defer timer.Stop()

	select {
	case res := <-ch:
		if !e.latest(gen) {
			return nil, nil, ErrSuperseded
		}
		return res.values, res.errs, res.err
	case <-timer.C:
		return nil, nil, fmt.Errorf("%w after %s", ErrTimeout, d)
	}
}
