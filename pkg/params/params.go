// Package params defines the user-editable generation parameters that are
// sent to the meshing service, and the override mechanism used to submit a
// freshly computed value instead of a possibly stale stored one.
package params

import (
	"errors"
	"fmt"
)

// Algorithm selects the meshing algorithm used by the service.
type Algorithm int

const (
	MarchingCubes Algorithm = iota // uniform marching cubes
	DualContour                    // dual contouring
)

// MinLimits is the smallest accepted limits value for every algorithm.
const MinLimits = 2

// ErrInvalid is returned by Validate for out-of-range parameters.
var ErrInvalid = errors.New("params: invalid generation parameters")

func (a Algorithm) String() string {
	switch a {
	case MarchingCubes:
		return "marching_cubes"
	case DualContour:
		return "dual_contour"
	default:
		return "unknown"
	}
}

// ParseAlgorithm maps a wire name to an Algorithm.
func ParseAlgorithm(s string) (Algorithm, error) {
	switch s {
	case "marching_cubes":
		return MarchingCubes, nil
	case "dual_contour":
		return DualContour, nil
	default:
		return 0, fmt.Errorf("params: unknown algorithm %q", s)
	}
}

// MarshalText encodes the algorithm by its wire name, which also makes
// JSON and YAML use the wire name.
func (a Algorithm) MarshalText() ([]byte, error) {
	if a != MarchingCubes && a != DualContour {
		return nil, fmt.Errorf("params: unknown algorithm %d", int(a))
	}
	return []byte(a.String()), nil
}

// UnmarshalText decodes a wire name.
func (a *Algorithm) UnmarshalText(b []byte) error {
	v, err := ParseAlgorithm(string(b))
	if err != nil {
		return err
	}
	*a = v
	return nil
}

// MaxLimits returns the largest limits value the algorithm can mesh in
// reasonable time.
func MaxLimits(a Algorithm) int {
	if a == DualContour {
		return 10
	}
	return 40
}

// BoundLimits clamps v into [MinLimits, MaxLimits(a)].
func BoundLimits(a Algorithm, v int) int {
	return min(max(v, MinLimits), MaxLimits(a))
}

// Generation is the full set of parameters for one regeneration request.
type Generation struct {
	Formula   string    `json:"visualizationFunction"`
	Limits    int       `json:"limits"`
	Algorithm Algorithm `json:"algorithm"`
}

// Default returns the parameters the viewer starts with.
func Default() Generation {
	return Generation{
		Formula:   Examples[0].Formula,
		Limits:    10,
		Algorithm: MarchingCubes,
	}
}

// Validate checks limits against the algorithm's range.
func (g Generation) Validate() error {
	if g.Algorithm != MarchingCubes && g.Algorithm != DualContour {
		return fmt.Errorf("%w: unknown algorithm %d", ErrInvalid, int(g.Algorithm))
	}
	if g.Limits < MinLimits || g.Limits > MaxLimits(g.Algorithm) {
		return fmt.Errorf("%w: limits %d outside [%d, %d] for %s",
			ErrInvalid, g.Limits, MinLimits, MaxLimits(g.Algorithm), g.Algorithm)
	}
	return nil
}

// ClampLimits lowers Limits to the algorithm maximum when it exceeds it.
// It never raises Limits.
func (g Generation) ClampLimits() Generation {
	if hi := MaxLimits(g.Algorithm); g.Limits > hi {
		g.Limits = hi
	}
	return g
}

// Override is a partial Generation. Nil fields are resolved from stored
// state when the submission runs.
type Override struct {
	Formula   *string
	Limits    *int
	Algorithm *Algorithm
}

// WithFormula returns an override carrying only a formula.
func WithFormula(f string) Override { return Override{Formula: &f} }

// WithLimits returns an override carrying only limits.
func WithLimits(l int) Override { return Override{Limits: &l} }

// WithAlgorithm returns an override carrying an algorithm and the limits
// that go with it.
func WithAlgorithm(a Algorithm, limits int) Override {
	return Override{Algorithm: &a, Limits: &limits}
}

// IsZero reports whether no field is set.
func (o Override) IsZero() bool {
	return o.Formula == nil && o.Limits == nil && o.Algorithm == nil
}

// Apply merges o over base; set fields take precedence.
func (o Override) Apply(base Generation) Generation {
	if o.Formula != nil {
		base.Formula = *o.Formula
	}
	if o.Limits != nil {
		base.Limits = *o.Limits
	}
	if o.Algorithm != nil {
		base.Algorithm = *o.Algorithm
	}
	return base
}
