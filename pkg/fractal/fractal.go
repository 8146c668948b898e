// Package fractal implements generalized escape-time iteration for the
// Mandelbrot family of fractals.
//
// Every variant shares one evaluation entry point:
//
//	res := fractal.Evaluate(point, params)
//
// Evaluate is pure and side-effect-free: the same (point, params) pair always
// produces the same Result, which is what makes per-pixel evaluation trivially
// parallelizable.
//
// # Variants
//
// The per-variant update rules form a closed, tested contract:
//
//   - Mandelbrot: z₀ = 0, z ← z^p + c, where c is the evaluated point.
//   - Spiral:     z₀ = point, z ← z^p·e^(i·|s|) + s — the power map rotated by
//     |s| radians each step, then offset by s.
//   - Flower:     z₀ = point, z ← z^p + s·sin(z) — a sine-modulated offset
//     whose periodicity produces petal symmetry.
//   - Phoenix:    z₀ = 0, z₋₁ = 0, z ← z^p + c + s·z₋₁ — the classic two-term
//     recurrence retaining the previous iterate.
//   - Butterfly:  z₀ = point, z ← polar(|z|^m, arg(z)·p) + s with the modulus
//     exponent m = clamp(|s|, 0.1, 2) — a polar fold that decouples the
//     modulus and angle exponents.
//
// where p is Params.Power and s is Params.Shape.
package fractal

import (
	"math"
	"math/cmplx"
)

// Variant selects one of the supported iteration formulas.
type Variant int

// The closed set of fractal variants.
const (
	Mandelbrot Variant = iota
	Spiral
	Flower
	Phoenix
	Butterfly
)

var variantNames = [...]string{
	Mandelbrot: "mandelbrot",
	Spiral:     "spiral",
	Flower:     "flower",
	Phoenix:    "phoenix",
	Butterfly:  "butterfly",
}

// String returns the lowercase variant name.
func (v Variant) String() string {
	if v < 0 || int(v) >= len(variantNames) {
		return "unknown"
	}
	return variantNames[v]
}

// Variants returns all supported variants in declaration order.
func Variants() []Variant {
	return []Variant{Mandelbrot, Spiral, Flower, Phoenix, Butterfly}
}

// Result is the per-pixel output of formula evaluation.
type Result struct {
	// Escaped reports whether |z| exceeded the escape radius within the
	// iteration budget. False means the point is treated as interior.
	Escaped bool

	// Iterations is the number of completed iterations before escape, or
	// MaxIter for interior points.
	Iterations int

	// Smoothed is the fractional escape value used for continuous coloring.
	// Only meaningful when Escaped is true.
	Smoothed float64
}

// butterfly modulus exponent bounds. |z|^m explodes for large m and collapses
// to 1 for m near 0, so the shape magnitude is clamped into a workable band.
const (
	butterflyExpMin = 0.1
	butterflyExpMax = 2.0
)

// Evaluate runs bounded escape-time iteration of the selected variant at the
// given plane point. It is pure: no shared state, guaranteed termination
// after at most params.MaxIter steps.
func Evaluate(point complex128, params Params) Result {
	// Compare squared magnitudes so the hot loop never takes a square root.
	bail := params.EscapeRadius * params.EscapeRadius

	var z, prev complex128
	c := point
	power := complex(params.Power, 0)

	switch params.Variant {
	case Mandelbrot, Phoenix:
		z = 0
	default:
		z = point
	}

	for n := 0; n < params.MaxIter; n++ {
		if magSq(z) > bail {
			return Result{
				Escaped:    true,
				Iterations: n,
				Smoothed:   smooth(n, z, params.Power),
			}
		}

		switch params.Variant {
		case Mandelbrot:
			// Quadratic fast path: the common case avoids cmplx.Pow's
			// exp/log round trip.
			if params.Power == 2 {
				z = z*z + c
			} else {
				z = cmplx.Pow(z, power) + c
			}

		case Spiral:
			rot := cmplx.Exp(complex(0, cmplx.Abs(params.Shape)))
			z = cmplx.Pow(z, power)*rot + params.Shape

		case Flower:
			z = cmplx.Pow(z, power) + params.Shape*cmplx.Sin(z)

		case Phoenix:
			next := cmplx.Pow(z, power) + c + params.Shape*prev
			prev, z = z, next

		case Butterfly:
			r := cmplx.Abs(z)
			if r == 0 {
				z = params.Shape
				break
			}
			m := clamp(cmplx.Abs(params.Shape), butterflyExpMin, butterflyExpMax)
			theta := cmplx.Phase(z) * params.Power
			z = cmplx.Rect(math.Pow(r, m), theta) + params.Shape
		}
	}

	return Result{Escaped: false, Iterations: params.MaxIter}
}

// smooth computes the fractional escape value n + 1 − log(log|z|)/log(power).
// |z| is clamped just above 1 so the outer logarithm stays in its domain even
// when the iterate barely crossed the escape radius.
func smooth(n int, z complex128, power float64) float64 {
	mag := cmplx.Abs(z)
	if mag <= 1 {
		mag = 1 + 1e-12
	}
	return float64(n) + 1 - math.Log(math.Log(mag))/math.Log(power)
}

// magSq returns |z|² without the square root.
func magSq(z complex128) float64 {
	return real(z)*real(z) + imag(z)*imag(z)
}

func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
