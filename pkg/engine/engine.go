// Package engine evaluates surface formulas inside a sandboxed zygomys
// interpreter. The meshing service uses it to certify a formula before
// spending CPU on meshing: the formula is rendered as a Lisp program and
// run at a handful of probe points in a fresh sandbox, under a hard timeout.
package engine

import (
	"fmt"
	"math"
	"regexp"
	"strconv"
	"strings"
	"sync"
	"time"

	zygo "github.com/glycerine/zygomys/zygo"

	"github.com/eckfel/Implicit-Surface-Visualizer/pkg/formula"
)

// EvalError represents a non-fatal error encountered during evaluation,
// such as a parse error or a runtime error in user code.
type EvalError struct {
	Line    int
	Col     int
	Message string
}

func (e EvalError) Error() string {
	if e.Line > 0 {
		return fmt.Sprintf("line %d: %s", e.Line, e.Message)
	}
	return e.Message
}

// Point is a probe location.
type Point struct {
	X, Y, Z float64
}

// DefaultProbes are off-axis points, chosen so that typical formulas do not
// hit an exact division by zero.
var DefaultProbes = []Point{
	{0.37, 0.61, 0.83},
	{-1.13, 2.29, -0.71},
	{3.41, -2.17, 1.93},
	{-4.73, -3.31, -5.07},
	{7.19, 6.67, -8.39},
}

// Engine wraps the zygomys interpreter for formula evaluation.
// It is safe for concurrent use; each call creates fresh sandboxed
// environments for determinism.
type Engine struct {
	mu         sync.Mutex
	generation uint64
	probes     []Point
	timeout    time.Duration
}

// NewEngine creates a new Engine instance probing DefaultProbes.
func NewEngine() *Engine {
	return &Engine{probes: DefaultProbes, timeout: DefaultTimeout}
}

// WithProbes returns an engine that probes the given points instead.
func WithProbes(points []Point) *Engine {
	return &Engine{probes: points, timeout: DefaultTimeout}
}

// SetTimeout changes the evaluation bound. Non-positive values restore
// DefaultTimeout.
func (e *Engine) SetTimeout(d time.Duration) {
	if d <= 0 {
		d = DefaultTimeout
	}
	e.mu.Lock()
	e.timeout = d
	e.mu.Unlock()
}

// Evaluate runs expr at every probe point and returns the values.
//
// Return semantics:
//   - On success: returns values + nil errors + nil error
//   - On parse/eval failure: returns nil values + eval errors + nil error
//   - On fatal failure: returns nil + nil + error (ErrTimeout,
//     ErrSuperseded or a recovered panic)
func (e *Engine) Evaluate(expr *formula.Expr) ([]float64, []EvalError, error) {
	gen := e.begin()
	ch := make(chan probeResult, 1)

	go func() {
		defer func() {
			if r := recover(); r != nil {
				ch <- probeResult{err: fmt.Errorf("panic during evaluation: %v", r)}
			}
		}()

		values, evalErrs, err := e.evaluate(expr)
		ch <- probeResult{values: values, errs: evalErrs, err: err}
	}()

	return e.await(ch, gen)
}

// Check certifies expr. It fails when the sandbox raises at any probe, or
// when the expression is not finite at any probe (for example 1/0).
func (e *Engine) Check(expr *formula.Expr) ([]EvalError, error) {
	values, evalErrs, err := e.Evaluate(expr)
	if err != nil || len(evalErrs) > 0 {
		return evalErrs, err
	}
	for _, v := range values {
		if !math.IsNaN(v) && !math.IsInf(v, 0) {
			return nil, nil
		}
	}
	return []EvalError{{Message: "expression is not finite at any probe point"}}, nil
}

// evaluate performs the actual zygomys evaluation, one fresh sandbox per
// probe point.
func (e *Engine) evaluate(expr *formula.Expr) ([]float64, []EvalError, error) {
	body := expr.Lisp()
	values := make([]float64, 0, len(e.probes))

	for _, p := range e.probes {
		v, evalErrs := runProgram(program(body, p))
		if len(evalErrs) > 0 {
			return nil, evalErrs, nil
		}
		values = append(values, v)
	}
	return values, nil, nil
}

// program binds the free variables and appends the body as the final form,
// whose value Run returns.
func program(body string, p Point) string {
	var b strings.Builder
	fmt.Fprintf(&b, "(def x %s)\n", lispFloat(p.X))
	fmt.Fprintf(&b, "(def y %s)\n", lispFloat(p.Y))
	fmt.Fprintf(&b, "(def z %s)\n", lispFloat(p.Z))
	b.WriteString(body)
	b.WriteByte('\n')
	return b.String()
}

func lispFloat(v float64) string {
	s := strconv.FormatFloat(v, 'f', -1, 64)
	if !strings.Contains(s, ".") {
		s += ".0"
	}
	return s
}

// runProgram evaluates source in a fresh sandbox and converts the result.
func runProgram(source string) (float64, []EvalError) {
	// Sandbox mode prevents user code from accessing the filesystem or syscalls.
	env := zygo.NewZlispSandbox()
	defer env.Stop()
	registerBuiltins(env)

	// Load and compile the source string into bytecode.
	if err := env.LoadString(source); err != nil {
		return 0, parseZygomysError(err)
	}

	// Execute the compiled bytecode.
	res, err := env.Run()
	if err != nil {
		return 0, parseZygomysError(err)
	}

	v, err := toFloat64(res)
	if err != nil {
		return 0, []EvalError{{Message: err.Error()}}
	}
	return v, nil
}

// linePattern matches zygomys error messages that include "Error on line N: ..."
var linePattern = regexp.MustCompile(`(?i)(?:error )?on line (\d+):\s*(.*)`)

// linePatternShort matches simpler "line N: ..." patterns.
var linePatternShort = regexp.MustCompile(`(?i)^line (\d+):\s*(.*)`)

// parseZygomysError converts a zygomys error into one or more EvalError values.
// It attempts to extract line number information from the error message.
func parseZygomysError(err error) []EvalError {
	msg := err.Error()

	// zygomys formats parse errors as "Error on line N: <details>\n"
	if m := linePattern.FindStringSubmatch(msg); m != nil {
		line, _ := strconv.Atoi(m[1])
		return []EvalError{{Line: line, Message: strings.TrimSpace(m[2])}}
	}

	if m := linePatternShort.FindStringSubmatch(msg); m != nil {
		line, _ := strconv.Atoi(m[1])
		return []EvalError{{Line: line, Message: strings.TrimSpace(m[2])}}
	}

	// Fallback: no line info available.
	return []EvalError{{Message: strings.TrimSpace(msg)}}
}
