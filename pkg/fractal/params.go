package fractal

import (
	"math"
	"math/rand"

	"github.com/fractalscope/fractalscope/pkg/errors"
)

// Parameter domain bounds. These mirror the ranges the interactive controls
// expose; values outside them are rejected at the setter boundary.
const (
	PowerMin = 2.0
	PowerMax = 4.0

	// ShapeMagMax bounds |Shape|. Larger offsets push every orbit straight
	// past the escape radius and the image degenerates to a flat exterior.
	ShapeMagMax = 1.5

	MaxIterMin = 1
	MaxIterMax = 100000

	EscapeRadiusMin = 2.0
	EscapeRadiusMax = 1000.0
)

// DefaultParams returns the classic power-2 Mandelbrot configuration.
func DefaultParams() Params {
	return Params{
		Variant:      Mandelbrot,
		Power:        2.0,
		Shape:        complex(0.5, 0),
		MaxIter:      1000,
		EscapeRadius: 2.0,
	}
}

// Params is one immutable fractal definition. A render generation snapshots
// a Params value; it is replaced wholesale on user edit or randomization,
// never mutated in place.
type Params struct {
	// Variant selects the iteration formula.
	Variant Variant

	// Power is the exponent of the power map, in [PowerMin, PowerMax].
	Power float64

	// Shape is the secondary parameter; its meaning varies per variant
	// (rotation/offset for Spiral, sine modulation for Flower, the retained
	// term's coefficient for Phoenix, polar fold for Butterfly).
	Shape complex128

	// MaxIter bounds the iteration loop.
	MaxIter int

	// EscapeRadius is the bailout magnitude.
	EscapeRadius float64
}

// Validate checks the parameter domain. It returns an ErrCodeInvalidParams
// error naming the first offending field.
func (p Params) Validate() error {
	if p.Variant < Mandelbrot || p.Variant > Butterfly {
		return errors.New(errors.ErrCodeInvalidParams, "unknown variant %d", int(p.Variant))
	}
	if math.IsNaN(p.Power) || p.Power < PowerMin || p.Power > PowerMax {
		return errors.New(errors.ErrCodeInvalidParams, "power %v outside [%v, %v]", p.Power, PowerMin, PowerMax)
	}
	if mag := math.Hypot(real(p.Shape), imag(p.Shape)); math.IsNaN(mag) || mag > ShapeMagMax {
		return errors.New(errors.ErrCodeInvalidParams, "shape constant magnitude %v exceeds %v", mag, ShapeMagMax)
	}
	if p.MaxIter < MaxIterMin || p.MaxIter > MaxIterMax {
		return errors.New(errors.ErrCodeInvalidParams, "max iterations %d outside [%d, %d]", p.MaxIter, MaxIterMin, MaxIterMax)
	}
	if math.IsNaN(p.EscapeRadius) || p.EscapeRadius < EscapeRadiusMin || p.EscapeRadius > EscapeRadiusMax {
		return errors.New(errors.ErrCodeInvalidParams, "escape radius %v outside [%v, %v]", p.EscapeRadius, EscapeRadiusMin, EscapeRadiusMax)
	}
	return nil
}

// ParseVariant resolves a variant by its lowercase name.
func ParseVariant(name string) (Variant, error) {
	for i, n := range variantNames {
		if n == name {
			return Variant(i), nil
		}
	}
	return 0, errors.New(errors.ErrCodeInvalidParams, "unknown variant %q", name)
}

// Randomize produces a valid random Params from the provided randomness
// source. Keeping the source injected leaves the engine itself deterministic
// and testable: the same *rand.Rand seed always yields the same Params.
func Randomize(rng *rand.Rand) Params {
	// Shape magnitude stays in [0.1, 0.9] so every variant keeps visible
	// structure. Angle is unrestricted.
	mag := 0.1 + rng.Float64()*0.8
	angle := rng.Float64() * 2 * math.Pi

	return Params{
		Variant:      Variants()[rng.Intn(len(Variants()))],
		Power:        PowerMin + rng.Float64()*(PowerMax-PowerMin),
		Shape:        complex(mag*math.Cos(angle), mag*math.Sin(angle)),
		MaxIter:      100 + rng.Intn(50)*100,
		EscapeRadius: 2.0,
	}
}
