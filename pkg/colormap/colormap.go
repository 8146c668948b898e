// Package colormap maps escape-time results onto RGB colors.
//
// A Scheme is an ordered sequence of color stops plus a mapping mode. The
// exterior of the fractal is colored by interpolating linearly (per channel)
// between adjacent stops; interior points get a fixed interior color. In
// Continuous mode the fractional smoothed escape value drives the gradient,
// which removes the visible banding the integer iteration count produces.
package colormap

import (
	"image/color"

	colorful "github.com/lucasb-eyer/go-colorful"

	"github.com/fractalscope/fractalscope/pkg/errors"
	"github.com/fractalscope/fractalscope/pkg/fractal"
)

// Mode selects how escape results are positioned along the gradient.
type Mode int

const (
	// Continuous interpolates by the fractional smoothed escape value.
	Continuous Mode = iota

	// Discrete buckets by the raw integer iteration count.
	Discrete
)

// String returns the lowercase mode name.
func (m Mode) String() string {
	switch m {
	case Continuous:
		return "continuous"
	case Discrete:
		return "discrete"
	default:
		return "unknown"
	}
}

// RGB is one 8-bit-per-channel pixel value.
type RGB struct {
	R, G, B uint8
}

// RGBA implements color.Color.
func (c RGB) RGBA() (r, g, b, a uint32) {
	return color.RGBA{R: c.R, G: c.G, B: c.B, A: 0xff}.RGBA()
}

// Scheme is an ordered gradient definition. Stops are order-significant:
// the gradient runs from Stops[0] at t=0 to Stops[len-1] at t=1.
type Scheme struct {
	Name     string
	Stops    []colorful.Color
	Mode     Mode
	Interior RGB
}

// Validate checks the scheme invariants.
func (s Scheme) Validate() error {
	if len(s.Stops) == 0 {
		return errors.New(errors.ErrCodeInvalidScheme, "color scheme %q needs at least one stop", s.Name)
	}
	if s.Mode != Continuous && s.Mode != Discrete {
		return errors.New(errors.ErrCodeInvalidScheme, "color scheme %q has unknown mode %d", s.Name, int(s.Mode))
	}
	return nil
}

// Map converts one escape result to a color. It is deterministic and pure.
// maxIter normalizes the escape value into [0, 1] along the gradient.
func (s Scheme) Map(res fractal.Result, maxIter int) RGB {
	if !res.Escaped {
		return s.Interior
	}

	var t float64
	switch s.Mode {
	case Discrete:
		if maxIter > 0 {
			t = float64(res.Iterations) / float64(maxIter)
		}
	default:
		if maxIter > 0 {
			t = res.Smoothed / float64(maxIter)
		}
	}

	return s.at(clamp01(t))
}

// at samples the gradient at t ∈ [0, 1] with a linear per-channel blend
// between the two adjacent stops.
func (s Scheme) at(t float64) RGB {
	n := len(s.Stops)
	if n == 1 {
		return toRGB(s.Stops[0])
	}

	pos := t * float64(n-1)
	i := int(pos)
	if i >= n-1 {
		return toRGB(s.Stops[n-1])
	}
	frac := pos - float64(i)
	return toRGB(s.Stops[i].BlendRgb(s.Stops[i+1], frac))
}

func toRGB(c colorful.Color) RGB {
	r, g, b := c.Clamped().RGB255()
	return RGB{R: r, G: g, B: b}
}

func clamp01(t float64) float64 {
	if t < 0 {
		return 0
	}
	if t > 1 {
		return 1
	}
	return t
}
