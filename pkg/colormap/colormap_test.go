package colormap

import (
	"math"
	"math/rand"
	"testing"

	"github.com/fractalscope/fractalscope/pkg/fractal"
)

func TestMapInteriorUsesInteriorColor(t *testing.T) {
	s := Default()
	s.Interior = RGB{R: 1, G: 2, B: 3}

	got := s.Map(fractal.Result{Escaped: false, Iterations: 1000}, 1000)
	if got != s.Interior {
		t.Errorf("interior mapped to %v, want %v", got, s.Interior)
	}
}

func TestMapIsDeterministic(t *testing.T) {
	s := Default()
	res := fractal.Result{Escaped: true, Iterations: 42, Smoothed: 42.7}

	first := s.Map(res, 1000)
	for i := 0; i < 5; i++ {
		if got := s.Map(res, 1000); got != first {
			t.Fatalf("Map not deterministic: %v != %v", got, first)
		}
	}
}

func TestContinuousColorContinuity(t *testing.T) {
	s := Default()
	const maxIter = 1000

	// Adjacent smoothed values must map to nearby colors: the per-channel
	// delta is bounded by the interpolation step between stops.
	step := 0.25
	maxChannelDelta := float64(len(s.Stops)-1) * step / float64(maxIter) * 255 * 2

	prev := s.Map(fractal.Result{Escaped: true, Iterations: 10, Smoothed: 10}, maxIter)
	for v := 10.0 + step; v < 900; v += step {
		cur := s.Map(fractal.Result{Escaped: true, Iterations: int(v), Smoothed: v}, maxIter)
		if chanDelta(prev, cur) > maxChannelDelta+1 {
			t.Fatalf("discontinuity at smoothed=%v: %v -> %v (delta %v, allowed %v)",
				v, prev, cur, chanDelta(prev, cur), maxChannelDelta+1)
		}
		prev = cur
	}
}

func chanDelta(a, b RGB) float64 {
	return math.Max(
		math.Abs(float64(a.R)-float64(b.R)),
		math.Max(
			math.Abs(float64(a.G)-float64(b.G)),
			math.Abs(float64(a.B)-float64(b.B)),
		),
	)
}

func TestGradientEndpoints(t *testing.T) {
	s := Scheme{
		Name:  "two",
		Mode:  Continuous,
		Stops: Default().Stops[:2],
	}

	first := s.at(0)
	last := s.at(1)
	if first == last {
		t.Fatal("gradient endpoints are identical; stops not applied in order")
	}
	if got := s.at(0); got != first {
		t.Errorf("at(0) = %v, want first stop %v", got, first)
	}
	if got := s.at(1); got != last {
		t.Errorf("at(1) = %v, want last stop %v", got, last)
	}
}

func TestDiscreteModeBuckets(t *testing.T) {
	s := Default()
	s.Mode = Discrete

	a := s.Map(fractal.Result{Escaped: true, Iterations: 100, Smoothed: 100.9}, 1000)
	b := s.Map(fractal.Result{Escaped: true, Iterations: 100, Smoothed: 100.1}, 1000)
	if a != b {
		t.Errorf("discrete mode used smoothed value: %v != %v", a, b)
	}
}

func TestSchemeValidate(t *testing.T) {
	tests := []struct {
		name    string
		scheme  Scheme
		wantErr bool
	}{
		{"default", Default(), false},
		{"no stops", Scheme{Name: "empty", Mode: Continuous}, true},
		{"bad mode", Scheme{Name: "bad", Mode: Mode(9), Stops: Default().Stops}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.scheme.Validate()
			if (err != nil) != tt.wantErr {
				t.Errorf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestLookupAndList(t *testing.T) {
	for _, name := range List() {
		s, err := Lookup(name)
		if err != nil {
			t.Errorf("Lookup(%q) error: %v", name, err)
		}
		if err := s.Validate(); err != nil {
			t.Errorf("builtin scheme %q invalid: %v", name, err)
		}
	}

	if _, err := Lookup("nonexistent"); err == nil {
		t.Error("Lookup(nonexistent) succeeded, want error")
	}
}

func TestHSVWheel(t *testing.T) {
	s := HSVWheel(120, 1, 1, 16)
	if len(s.Stops) != 16 {
		t.Errorf("stop count = %d, want 16", len(s.Stops))
	}
	if err := s.Validate(); err != nil {
		t.Errorf("HSVWheel scheme invalid: %v", err)
	}
}

func TestRandomWheelValid(t *testing.T) {
	rng := rand.New(rand.NewSource(1))
	for i := 0; i < 20; i++ {
		if err := RandomWheel(rng).Validate(); err != nil {
			t.Fatalf("RandomWheel produced invalid scheme: %v", err)
		}
	}
}
