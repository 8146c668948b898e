package fractal

import (
	"math/rand"
	"testing"
)

func TestEvaluateDeterminism(t *testing.T) {
	points := []complex128{
		complex(0, 0),
		complex(-0.5, 0.25),
		complex(0.3, -0.7),
		complex(2, 2),
	}

	for _, variant := range Variants() {
		params := Params{
			Variant:      variant,
			Power:        2.7,
			Shape:        complex(0.4, 0.2),
			MaxIter:      200,
			EscapeRadius: 2.0,
		}
		for _, pt := range points {
			first := Evaluate(pt, params)
			for i := 0; i < 3; i++ {
				if got := Evaluate(pt, params); got != first {
					t.Errorf("%s: Evaluate(%v) not deterministic: %+v != %+v", variant, pt, got, first)
				}
			}
		}
	}
}

func TestMandelbrotInteriorPoint(t *testing.T) {
	params := Params{
		Variant:      Mandelbrot,
		Power:        2.0,
		MaxIter:      1000,
		EscapeRadius: 2.0,
	}

	res := Evaluate(complex(0, 0), params)
	if res.Escaped {
		t.Fatalf("origin escaped after %d iterations; it is a known interior point", res.Iterations)
	}
	if res.Iterations != 1000 {
		t.Errorf("interior point Iterations = %d, want %d", res.Iterations, 1000)
	}
}

func TestMandelbrotExteriorPointEscapesFast(t *testing.T) {
	params := Params{
		Variant:      Mandelbrot,
		Power:        2.0,
		MaxIter:      1000,
		EscapeRadius: 2.0,
	}

	res := Evaluate(complex(2, 2), params)
	if !res.Escaped {
		t.Fatal("point 2+2i did not escape")
	}
	if res.Iterations >= 5 {
		t.Errorf("point 2+2i escaped after %d iterations, want < 5", res.Iterations)
	}
	if res.Smoothed <= 0 {
		t.Errorf("Smoothed = %v, want > 0 for escaped point", res.Smoothed)
	}
}

func TestSmoothedValueNearIterationCount(t *testing.T) {
	params := Params{
		Variant:      Mandelbrot,
		Power:        2.0,
		MaxIter:      500,
		EscapeRadius: 2.0,
	}

	// A point just outside the set: smoothed value must stay within a couple
	// of units of the integer count (it is a fractional refinement, not a
	// different scale).
	res := Evaluate(complex(0.3, 0.5), params)
	if !res.Escaped {
		t.Skip("test point did not escape; adjust point")
	}
	diff := res.Smoothed - float64(res.Iterations)
	if diff < -2 || diff > 2 {
		t.Errorf("Smoothed %v too far from Iterations %d", res.Smoothed, res.Iterations)
	}
}

func TestVariantsTerminate(t *testing.T) {
	// Every variant must terminate within MaxIter for arbitrary inputs,
	// including degenerate iterates like z = 0.
	points := []complex128{0, complex(1e-9, 0), complex(-1.2, 0.8), complex(3, -3)}

	for _, variant := range Variants() {
		params := Params{
			Variant:      variant,
			Power:        3.0,
			Shape:        complex(0.3, -0.6),
			MaxIter:      64,
			EscapeRadius: 4.0,
		}
		for _, pt := range points {
			res := Evaluate(pt, params)
			if res.Iterations < 0 || res.Iterations > params.MaxIter {
				t.Errorf("%s: Iterations = %d outside [0, %d]", variant, res.Iterations, params.MaxIter)
			}
			if !res.Escaped && res.Iterations != params.MaxIter {
				t.Errorf("%s: interior point stopped early at %d", variant, res.Iterations)
			}
		}
	}
}

func TestParamsValidate(t *testing.T) {
	valid := DefaultParams()

	tests := []struct {
		name    string
		mutate  func(*Params)
		wantErr bool
	}{
		{"default params", func(p *Params) {}, false},
		{"power at lower bound", func(p *Params) { p.Power = PowerMin }, false},
		{"power at upper bound", func(p *Params) { p.Power = PowerMax }, false},
		{"power too low", func(p *Params) { p.Power = 1.5 }, true},
		{"power too high", func(p *Params) { p.Power = 4.5 }, true},
		{"shape too large", func(p *Params) { p.Shape = complex(2, 2) }, true},
		{"zero iterations", func(p *Params) { p.MaxIter = 0 }, true},
		{"negative iterations", func(p *Params) { p.MaxIter = -1 }, true},
		{"escape radius too small", func(p *Params) { p.EscapeRadius = 1.0 }, true},
		{"unknown variant", func(p *Params) { p.Variant = Variant(99) }, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := valid
			tt.mutate(&p)
			err := p.Validate()
			if (err != nil) != tt.wantErr {
				t.Errorf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestRandomizeProducesValidParams(t *testing.T) {
	rng := rand.New(rand.NewSource(42))
	for i := 0; i < 100; i++ {
		p := Randomize(rng)
		if err := p.Validate(); err != nil {
			t.Fatalf("Randomize produced invalid params on draw %d: %v (%+v)", i, err, p)
		}
		if p.MaxIter < 100 || p.MaxIter > 5000 {
			t.Fatalf("Randomize MaxIter = %d outside [100, 5000]", p.MaxIter)
		}
	}
}

func TestRandomizeIsSeedDeterministic(t *testing.T) {
	a := Randomize(rand.New(rand.NewSource(7)))
	b := Randomize(rand.New(rand.NewSource(7)))
	if a != b {
		t.Errorf("same seed produced different params: %+v vs %+v", a, b)
	}
}

func TestParseVariant(t *testing.T) {
	for _, v := range Variants() {
		got, err := ParseVariant(v.String())
		if err != nil {
			t.Errorf("ParseVariant(%q) error: %v", v.String(), err)
		}
		if got != v {
			t.Errorf("ParseVariant(%q) = %v, want %v", v.String(), got, v)
		}
	}

	if _, err := ParseVariant("julia"); err == nil {
		t.Error("ParseVariant(\"julia\") succeeded, want error")
	}
}
