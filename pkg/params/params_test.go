package params

import (
	"encoding/json"
	"errors"
	"testing"
)

func TestMaxLimits(t *testing.T) {
	tests := []struct {
		alg  Algorithm
		want int
	}{
		{MarchingCubes, 40},
		{DualContour, 10},
	}
	for _, tt := range tests {
		t.Run(tt.alg.String(), func(t *testing.T) {
			if got := MaxLimits(tt.alg); got != tt.want {
				t.Errorf("MaxLimits(%s) = %d, want %d", tt.alg, got, tt.want)
			}
		})
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		g       Generation
		wantErr bool
	}{
		{"default", Default(), false},
		{"mc upper bound", Generation{Limits: 40, Algorithm: MarchingCubes}, false},
		{"mc too large", Generation{Limits: 41, Algorithm: MarchingCubes}, true},
		{"dc upper bound", Generation{Limits: 10, Algorithm: DualContour}, false},
		{"dc too large", Generation{Limits: 25, Algorithm: DualContour}, true},
		{"below min", Generation{Limits: 1, Algorithm: MarchingCubes}, true},
		{"unknown algorithm", Generation{Limits: 5, Algorithm: Algorithm(7)}, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.g.Validate()
			if (err != nil) != tt.wantErr {
				t.Fatalf("Validate() = %v, wantErr %v", err, tt.wantErr)
			}
			if err != nil && !errors.Is(err, ErrInvalid) {
				t.Errorf("Validate() error %v does not wrap ErrInvalid", err)
			}
		})
	}
}

func TestClampLimitsNeverRaises(t *testing.T) {
	g := Generation{Limits: 25, Algorithm: DualContour}.ClampLimits()
	if g.Limits != 10 {
		t.Fatalf("clamped limits = %d, want 10", g.Limits)
	}
	g.Algorithm = MarchingCubes
	if got := g.ClampLimits().Limits; got != 10 {
		t.Errorf("clamp on wider algorithm changed limits to %d", got)
	}
}

func TestBoundLimits(t *testing.T) {
	tests := []struct {
		alg  Algorithm
		in   int
		want int
	}{
		{MarchingCubes, 25, 25},
		{MarchingCubes, 99, 40},
		{DualContour, 25, 10},
		{DualContour, 0, MinLimits},
		{MarchingCubes, -3, MinLimits},
	}
	for _, tt := range tests {
		if got := BoundLimits(tt.alg, tt.in); got != tt.want {
			t.Errorf("BoundLimits(%s, %d) = %d, want %d", tt.alg, tt.in, got, tt.want)
		}
	}
}

func TestOverrideApply(t *testing.T) {
	base := Generation{Formula: "x", Limits: 5, Algorithm: MarchingCubes}

	if got := (Override{}).Apply(base); got != base {
		t.Errorf("zero override changed base: %+v", got)
	}
	if got := WithFormula("y").Apply(base); got.Formula != "y" || got.Limits != 5 {
		t.Errorf("formula override = %+v", got)
	}
	if got := WithLimits(7).Apply(base); got.Limits != 7 || got.Formula != "x" {
		t.Errorf("limits override = %+v", got)
	}
	got := WithAlgorithm(DualContour, 3).Apply(base)
	if got.Algorithm != DualContour || got.Limits != 3 {
		t.Errorf("algorithm override = %+v", got)
	}
	if !(Override{}).IsZero() || WithLimits(2).IsZero() {
		t.Error("IsZero reported wrong value")
	}
}

func TestGenerationJSONWireNames(t *testing.T) {
	b, err := json.Marshal(Generation{Formula: "x+y", Limits: 4, Algorithm: DualContour})
	if err != nil {
		t.Fatalf("Marshal: %v", err)
	}
	want := `{"visualizationFunction":"x+y","limits":4,"algorithm":"dual_contour"}`
	if string(b) != want {
		t.Errorf("Marshal = %s, want %s", b, want)
	}

	var g Generation
	if err := json.Unmarshal([]byte(`{"visualizationFunction":"z","limits":2,"algorithm":"marching_cubes"}`), &g); err != nil {
		t.Fatalf("Unmarshal: %v", err)
	}
	if g.Algorithm != MarchingCubes || g.Formula != "z" || g.Limits != 2 {
		t.Errorf("Unmarshal = %+v", g)
	}
	if err := json.Unmarshal([]byte(`{"algorithm":"octree"}`), &g); err == nil {
		t.Error("expected error for unknown algorithm")
	}
}

func TestLookupExample(t *testing.T) {
	e, ok := LookupExample("Torus")
	if !ok || e.Formula == "" {
		t.Fatalf("LookupExample(Torus) = %+v, %v", e, ok)
	}
	if _, ok := LookupExample("Klein bottle"); ok {
		t.Error("unexpected example found")
	}
}
