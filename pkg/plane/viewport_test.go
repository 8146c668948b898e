package plane

import (
	"math"
	"math/cmplx"
	"testing"

	"github.com/fractalscope/fractalscope/pkg/errors"
)

func TestPixelPlaneInverse(t *testing.T) {
	vp, err := New(complex(-0.5, 0.3), 0.01, 800, 600)
	if err != nil {
		t.Fatalf("New: %v", err)
	}

	for _, px := range []float64{0, 1, 399.5, 400, 799} {
		for _, py := range []float64{0, 1, 299.5, 300, 599} {
			pt := vp.PixelToPlane(px, py)
			gotPx, gotPy := vp.PlaneToPixel(pt)
			if math.Abs(gotPx-px) > 1e-9 || math.Abs(gotPy-py) > 1e-9 {
				t.Errorf("roundtrip (%v, %v) -> %v -> (%v, %v)", px, py, pt, gotPx, gotPy)
			}
		}
	}
}

func TestPixelToPlaneOrientation(t *testing.T) {
	vp := Default(100, 100)

	top := vp.PixelToPlane(50, 0)
	bottom := vp.PixelToPlane(50, 99)
	if imag(top) <= imag(bottom) {
		t.Errorf("screen top %v should map above screen bottom %v on the imaginary axis", top, bottom)
	}

	left := vp.PixelToPlane(0, 50)
	right := vp.PixelToPlane(99, 50)
	if real(left) >= real(right) {
		t.Errorf("screen left %v should map left of screen right %v on the real axis", left, right)
	}
}

func TestDefaultFramesClassicRegion(t *testing.T) {
	vp := Default(400, 400)

	if vp.Center != complex(-0.5, 0) {
		t.Errorf("Center = %v, want (-0.5, 0)", vp.Center)
	}

	topLeft := vp.PixelToPlane(0, 0)
	bottomRight := vp.PixelToPlane(float64(vp.Width), float64(vp.Height))
	if real(topLeft) > -2+1e-9 || real(bottomRight) < 1-1e-9 {
		t.Errorf("default view [%v, %v] does not cover [-2, 1]", real(topLeft), real(bottomRight))
	}
	if imag(topLeft) < 1.5-1e-9 || imag(bottomRight) > -1.5+1e-9 {
		t.Errorf("default view [%v, %v] does not cover [-1.5, 1.5]", imag(bottomRight), imag(topLeft))
	}
}

func TestPanFollowsDrag(t *testing.T) {
	vp := Default(200, 200)

	// The plane point under the pointer before a drag must sit under the
	// pointer's end position afterwards.
	const startX, startY = 60.0, 80.0
	const dx, dy = 25.0, -10.0
	before := vp.PixelToPlane(startX, startY)

	vp.Pan(dx, dy)

	after := vp.PixelToPlane(startX+dx, startY+dy)
	if cmplx.Abs(after-before) > 1e-12 {
		t.Errorf("dragged point moved: before %v, after %v", before, after)
	}
}

func TestZoomAnchorInvariance(t *testing.T) {
	tests := []struct {
		name             string
		factor           float64
		anchorX, anchorY float64
	}{
		{"zoom in centered", 0.5, 100, 100},
		{"zoom in off-center", 0.25, 13, 177},
		{"zoom out", 2.0, 50, 150},
		{"slight zoom", 0.95, 199, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			vp := Default(200, 200)
			before := vp.PixelToPlane(tt.anchorX, tt.anchorY)

			if err := vp.Zoom(tt.factor, tt.anchorX, tt.anchorY); err != nil {
				t.Fatalf("Zoom: %v", err)
			}

			after := vp.PixelToPlane(tt.anchorX, tt.anchorY)
			if cmplx.Abs(after-before) > 1e-12 {
				t.Errorf("anchor moved from %v to %v", before, after)
			}
		})
	}
}

func TestZoomScaleChange(t *testing.T) {
	vp := Default(200, 200)
	orig := vp.Scale

	if err := vp.Zoom(0.5, 100, 100); err != nil {
		t.Fatalf("Zoom: %v", err)
	}
	if math.Abs(vp.Scale-orig*0.5) > 1e-15 {
		t.Errorf("Scale = %v, want %v", vp.Scale, orig*0.5)
	}
}

func TestZoomRejectsDegenerateFactor(t *testing.T) {
	for _, factor := range []float64{0, -1, math.NaN(), math.Inf(1)} {
		vp := Default(200, 200)
		before := vp

		err := vp.Zoom(factor, 100, 100)
		if !errors.Is(err, errors.ErrCodeDegenerateViewport) {
			t.Errorf("Zoom(%v) error = %v, want DEGENERATE_VIEWPORT", factor, err)
		}
		if vp != before {
			t.Errorf("Zoom(%v) mutated the viewport on rejection", factor)
		}
	}
}

func TestZoomPrecisionFloor(t *testing.T) {
	vp := Default(200, 200)
	vp.Scale = 1e-18 // already near the float64 floor around |center| ≈ 1

	before := vp
	err := vp.Zoom(0.5, 100, 100)
	if !errors.Is(err, errors.ErrCodePrecisionLimit) {
		t.Fatalf("Zoom past precision floor error = %v, want PRECISION_LIMIT", err)
	}
	if vp != before {
		t.Error("viewport mutated despite PRECISION_LIMIT no-op")
	}

	// Zooming back out must still work.
	if err := vp.Zoom(2.0, 100, 100); err != nil {
		t.Errorf("zoom out at precision floor failed: %v", err)
	}
}

func TestNewValidates(t *testing.T) {
	tests := []struct {
		name          string
		scale         float64
		width, height int
	}{
		{"zero scale", 0, 100, 100},
		{"negative scale", -1, 100, 100},
		{"NaN scale", math.NaN(), 100, 100},
		{"zero width", 0.01, 0, 100},
		{"negative height", 0.01, 100, -5},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := New(0, tt.scale, tt.width, tt.height)
			if !errors.Is(err, errors.ErrCodeDegenerateViewport) {
				t.Errorf("New error = %v, want DEGENERATE_VIEWPORT", err)
			}
		})
	}
}

func TestResize(t *testing.T) {
	vp := Default(200, 100)
	if err := vp.Resize(400, 300); err != nil {
		t.Fatalf("Resize: %v", err)
	}
	if vp.Width != 400 || vp.Height != 300 {
		t.Errorf("dimensions = %dx%d, want 400x300", vp.Width, vp.Height)
	}

	if err := vp.Resize(0, 10); !errors.Is(err, errors.ErrCodeDegenerateViewport) {
		t.Errorf("Resize(0, 10) error = %v, want DEGENERATE_VIEWPORT", err)
	}
}
