// Package plane maps pixel coordinates onto the complex plane.
//
// A Viewport describes which rectangle of the complex plane is visible at a
// given output resolution. It owns the pan/zoom state of the view and provides
// the two transforms every renderer needs:
//
//	pt := vp.PixelToPlane(px, py)   // screen → plane
//	px, py := vp.PlaneToPixel(pt)   // plane → screen
//
// The transforms are exact inverses of each other up to floating-point
// rounding. Scale is expressed in plane units per pixel, so a square pixel
// grid always maps to an aspect-correct region of the plane.
package plane

import (
	"math"

	"github.com/fractalscope/fractalscope/pkg/errors"
)

// Viewport is a window onto the complex plane.
//
// Invariants: Scale > 0 and Width, Height > 0. Use New to construct a
// validated viewport; the zero value is not usable.
type Viewport struct {
	// Center is the plane coordinate at the middle of the pixel grid.
	Center complex128

	// Scale is the size of one pixel in plane units.
	Scale float64

	// Width and Height are the output resolution in pixels.
	Width  int
	Height int
}

// precisionMargin is the factor applied to the float64 machine epsilon when
// deciding that further zoom-in would drop below representable precision.
// At scales below |center|·epsilon·margin adjacent pixels collapse onto the
// same float64 value and the image degenerates into blocks.
const precisionMargin = 32

// New creates a validated viewport.
func New(center complex128, scale float64, width, height int) (Viewport, error) {
	vp := Viewport{Center: center, Scale: scale, Width: width, Height: height}
	if err := vp.Validate(); err != nil {
		return Viewport{}, err
	}
	return vp, nil
}

// Default returns the classic Mandelbrot framing: centered on (-0.5, 0)
// covering roughly [-2, 1] × [-1.5, 1.5] at the given resolution.
func Default(width, height int) Viewport {
	if width <= 0 {
		width = 1
	}
	if height <= 0 {
		height = 1
	}
	// Fit a 3-unit-wide, 3-unit-tall region, whichever axis is tighter.
	scale := math.Max(3.0/float64(width), 3.0/float64(height))
	return Viewport{Center: complex(-0.5, 0), Scale: scale, Width: width, Height: height}
}

// Validate checks the viewport invariants.
func (v Viewport) Validate() error {
	if v.Width <= 0 || v.Height <= 0 {
		return errors.New(errors.ErrCodeDegenerateViewport, "viewport dimensions must be positive, got %dx%d", v.Width, v.Height)
	}
	if v.Scale <= 0 || math.IsNaN(v.Scale) || math.IsInf(v.Scale, 0) {
		return errors.New(errors.ErrCodeDegenerateViewport, "viewport scale must be positive and finite, got %v", v.Scale)
	}
	return nil
}

// PixelToPlane converts a pixel coordinate to its plane coordinate.
// Pixel y grows downward while the imaginary axis grows upward, so the
// vertical component is negated.
func (v Viewport) PixelToPlane(px, py float64) complex128 {
	re := real(v.Center) + (px-float64(v.Width)/2)*v.Scale
	im := imag(v.Center) - (py-float64(v.Height)/2)*v.Scale
	return complex(re, im)
}

// PlaneToPixel converts a plane coordinate back to pixel space.
// It is the inverse of PixelToPlane up to floating-point rounding.
func (v Viewport) PlaneToPixel(pt complex128) (px, py float64) {
	px = (real(pt)-real(v.Center))/v.Scale + float64(v.Width)/2
	py = (imag(v.Center)-imag(pt))/v.Scale + float64(v.Height)/2
	return px, py
}

// Pan shifts the view by a pixel-space delta. The delta converts 1:1
// visually: dragging the view ten pixels right moves the center ten pixels
// worth of plane units left, so the content follows the pointer.
func (v *Viewport) Pan(dxPx, dyPx float64) {
	v.Center += complex(-dxPx*v.Scale, dyPx*v.Scale)
}

// Zoom rescales the view around an anchor pixel. The plane coordinate under
// the anchor is identical before and after the call. A factor below 1 zooms
// in, above 1 zooms out.
//
// Zoom returns ErrCodeDegenerateViewport for non-positive or non-finite
// factors and ErrCodePrecisionLimit when zooming in would push the scale
// below the float64 precision floor; in both cases the viewport is left
// unchanged.
func (v *Viewport) Zoom(factor, anchorPx, anchorPy float64) error {
	if factor <= 0 || math.IsNaN(factor) || math.IsInf(factor, 0) {
		return errors.New(errors.ErrCodeDegenerateViewport, "zoom factor must be positive and finite, got %v", factor)
	}

	newScale := v.Scale * factor
	if factor < 1 && newScale < v.precisionFloor() {
		return errors.New(errors.ErrCodePrecisionLimit, "scale %v is below the float64 precision floor for center %v", newScale, v.Center)
	}

	before := v.PixelToPlane(anchorPx, anchorPy)
	v.Scale = newScale
	after := v.PixelToPlane(anchorPx, anchorPy)
	v.Center += before - after
	return nil
}

// precisionFloor returns the smallest scale at which adjacent pixels still
// resolve to distinct float64 plane coordinates around the current center.
func (v Viewport) precisionFloor() float64 {
	mag := math.Max(math.Abs(real(v.Center)), math.Abs(imag(v.Center)))
	if mag < 1 {
		mag = 1
	}
	return mag * precisionMargin * 0x1p-52
}

// Resize re-targets the viewport to a new pixel resolution, keeping the
// center and scale. The visible plane region grows or shrinks with the grid.
func (v *Viewport) Resize(width, height int) error {
	if width <= 0 || height <= 0 {
		return errors.New(errors.ErrCodeDegenerateViewport, "viewport dimensions must be positive, got %dx%d", width, height)
	}
	v.Width = width
	v.Height = height
	return nil
}
