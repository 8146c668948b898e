package cli

import (
	"fmt"
	"image"
	"strings"

	"golang.org/x/image/draw"

	"github.com/fractalscope/fractalscope/pkg/engine"
)

// rasterize converts a framebuffer to truecolor terminal output on a cols×rows
// cell grid. Each cell packs two vertically stacked pixels into the
// upper-half-block glyph, so the effective pixel grid is cols × rows*2.
//
// A framebuffer whose size does not match the grid (a frame published before
// the last resize) is rescaled with Catmull-Rom interpolation so stale frames
// still fill the screen while the re-render is in flight.
func rasterize(fb *engine.Framebuffer, cols, rows int) string {
	if fb == nil || cols < 1 || rows < 1 {
		return ""
	}

	img := fb.ToRGBA()
	if fb.Width != cols || fb.Height != rows*2 {
		scaled := image.NewRGBA(image.Rect(0, 0, cols, rows*2))
		draw.CatmullRom.Scale(scaled, scaled.Bounds(), img, img.Bounds(), draw.Src, nil)
		img = scaled
	}

	var b strings.Builder
	b.Grow(cols * rows * 40)
	for row := 0; row < rows; row++ {
		for col := 0; col < cols; col++ {
			top := img.RGBAAt(col, row*2)
			bottom := img.RGBAAt(col, row*2+1)
			fmt.Fprintf(&b, "\x1b[38;2;%d;%d;%dm\x1b[48;2;%d;%d;%dm▀",
				top.R, top.G, top.B, bottom.R, bottom.G, bottom.B)
		}
		b.WriteString("\x1b[0m")
		if row < rows-1 {
			b.WriteByte('\n')
		}
	}
	return b.String()
}
