package engine

import (
	"image"

	"github.com/fractalscope/fractalscope/pkg/colormap"
)

// Framebuffer is a completed RGB image of one render generation.
//
// A framebuffer is written exactly once, during tile merge inside the
// scheduler, and is immutable once published: display paths may read it
// concurrently without synchronization.
type Framebuffer struct {
	Width  int
	Height int

	// Generation is the render generation that produced this frame.
	Generation uint64

	// Pix holds pixels in row-major order, y*Width + x.
	Pix []colormap.RGB
}

// newFramebuffer allocates a zeroed frame for the given resolution.
func newFramebuffer(width, height int, generation uint64) *Framebuffer {
	return &Framebuffer{
		Width:      width,
		Height:     height,
		Generation: generation,
		Pix:        make([]colormap.RGB, width*height),
	}
}

// At returns the pixel at (x, y). Out-of-bounds coordinates return black.
func (f *Framebuffer) At(x, y int) colormap.RGB {
	if x < 0 || y < 0 || x >= f.Width || y >= f.Height {
		return colormap.RGB{}
	}
	return f.Pix[y*f.Width+x]
}

// set writes the pixel at (x, y). Callers stay within their own tile bounds.
func (f *Framebuffer) set(x, y int, c colormap.RGB) {
	f.Pix[y*f.Width+x] = c
}

// ToRGBA copies the frame into a standard library image for presentation
// layers (PNG encoding, rescaling).
func (f *Framebuffer) ToRGBA() *image.RGBA {
	img := image.NewRGBA(image.Rect(0, 0, f.Width, f.Height))
	for y := 0; y < f.Height; y++ {
		for x := 0; x < f.Width; x++ {
			c := f.Pix[y*f.Width+x]
			off := img.PixOffset(x, y)
			img.Pix[off+0] = c.R
			img.Pix[off+1] = c.G
			img.Pix[off+2] = c.B
			img.Pix[off+3] = 0xff
		}
	}
	return img
}
