package engine

import (
	"fmt"
	"math"

	zygo "github.com/glycerine/zygomys/zygo"

	"github.com/eckfel/Implicit-Surface-Visualizer/pkg/formula"
)

// ---------------------------------------------------------------------------
// Conversion helpers
// ---------------------------------------------------------------------------

func toFloat64(s zygo.Sexp) (float64, error) {
	switch v := s.(type) {
	case *zygo.SexpInt:
		return float64(v.Val), nil
	case *zygo.SexpFloat:
		return v.Val, nil
	default:
		return 0, fmt.Errorf("expected number, got %T", s)
	}
}

func twoFloats(name string, args []zygo.Sexp) (float64, float64, error) {
	if len(args) != 2 {
		return 0, 0, fmt.Errorf("%s requires exactly 2 arguments, got %d", name, len(args))
	}
	a, err := toFloat64(args[0])
	if err != nil {
		return 0, 0, fmt.Errorf("%s: %w", name, err)
	}
	b, err := toFloat64(args[1])
	if err != nil {
		return 0, 0, fmt.Errorf("%s: %w", name, err)
	}
	return a, b, nil
}

// ---------------------------------------------------------------------------
// Builtin registration
// ---------------------------------------------------------------------------

// registerBuiltins installs the functions that formula.Expr.Lisp emits for
// operators zygomys has no float form of.
func registerBuiltins(env *zygo.Zlisp) {

	// (pow base exponent)
	env.AddFunction("pow", func(env *zygo.Zlisp, name string, args []zygo.Sexp) (zygo.Sexp, error) {
		a, b, err := twoFloats(name, args)
		if err != nil {
			return zygo.SexpNull, err
		}
		return &zygo.SexpFloat{Val: math.Pow(a, b)}, nil
	})

	// (fmod a b), floored like the formula evaluator.
	env.AddFunction("fmod", func(env *zygo.Zlisp, name string, args []zygo.Sexp) (zygo.Sexp, error) {
		a, b, err := twoFloats(name, args)
		if err != nil {
			return zygo.SexpNull, err
		}
		return &zygo.SexpFloat{Val: formula.Mod(a, b)}, nil
	})
}
