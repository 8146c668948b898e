package cli

import (
	"context"
	"strings"
	"testing"

	"github.com/fractalscope/fractalscope/pkg/colormap"
	"github.com/fractalscope/fractalscope/pkg/engine"
	"github.com/fractalscope/fractalscope/pkg/fractal"
	"github.com/fractalscope/fractalscope/pkg/plane"
)

func renderTestFrame(t *testing.T, width, height int) *engine.Framebuffer {
	t.Helper()
	fb, err := engine.Render(context.Background(),
		plane.Default(width, height), fractal.DefaultParams(), colormap.Default())
	if err != nil {
		t.Fatalf("Render: %v", err)
	}
	return fb
}

func TestRasterizeGrid(t *testing.T) {
	fb := renderTestFrame(t, 8, 8)

	out := rasterize(fb, 8, 4)
	lines := strings.Split(out, "\n")
	if len(lines) != 4 {
		t.Fatalf("raster rows = %d, want 4", len(lines))
	}
	for i, line := range lines {
		if got := strings.Count(line, "▀"); got != 8 {
			t.Errorf("row %d has %d cells, want 8", i, got)
		}
		if !strings.HasSuffix(line, "\x1b[0m") {
			t.Errorf("row %d does not reset attributes", i)
		}
	}
}

func TestRasterizeRescalesStaleFrame(t *testing.T) {
	// A frame sized for a previous terminal grid still fills the new one.
	fb := renderTestFrame(t, 16, 16)

	out := rasterize(fb, 10, 3)
	lines := strings.Split(out, "\n")
	if len(lines) != 3 {
		t.Fatalf("raster rows = %d, want 3", len(lines))
	}
	for i, line := range lines {
		if got := strings.Count(line, "▀"); got != 10 {
			t.Errorf("row %d has %d cells, want 10", i, got)
		}
	}
}

func TestRasterizeNilFrame(t *testing.T) {
	if out := rasterize(nil, 10, 10); out != "" {
		t.Errorf("rasterize(nil) = %q, want empty", out)
	}
}
