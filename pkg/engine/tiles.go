package engine

import (
	"context"
	"image"
	"sync"

	"github.com/fractalscope/fractalscope/pkg/colormap"
	"github.com/fractalscope/fractalscope/pkg/fractal"
	"github.com/fractalscope/fractalscope/pkg/observability"
	"github.com/fractalscope/fractalscope/pkg/plane"
)

// tileSize is the edge length of one render tile in pixels. Tiles this size
// keep per-task dispatch overhead low while still giving the worker pool
// several tiles per worker to balance the non-uniform per-pixel cost of
// escape-time iteration.
const tileSize = 64

// snapshot is the immutable input set of one render generation. Workers
// receive snapshots by value; nothing in a snapshot aliases engine-owned
// mutable state, so tile computation needs no locking.
type snapshot struct {
	generation uint64
	viewport   plane.Viewport
	params     fractal.Params
	scheme     colormap.Scheme
}

// splitTiles partitions r into tiles of at most size×size pixels. Tiles at
// the right and bottom edges are clipped if r is not evenly divisible.
func splitTiles(r image.Rectangle, size int) []image.Rectangle {
	w := r.Dx()
	h := r.Dy()

	var tiles []image.Rectangle
	for oy := 0; oy < h; oy += size {
		th := min(size, h-oy)
		for ox := 0; ox < w; ox += size {
			tw := min(size, w-ox)
			tiles = append(tiles, image.Rect(
				r.Min.X+ox,
				r.Min.Y+oy,
				r.Min.X+ox+tw,
				r.Min.Y+oy+th,
			))
		}
	}
	return tiles
}

// renderTiles computes one full frame for snap on a pool of workers goroutines.
//
// Each worker pulls tiles from a shared channel and writes pixels only inside
// its own tile's region of the shared frame, so tiles never contend during
// computation. Cancellation is cooperative: ctx is checked once per pixel row
// and an abandoned frame is reported via ctx.Err().
func renderTiles(ctx context.Context, snap snapshot, workers int) (*Framebuffer, error) {
	if workers < 1 {
		workers = 1
	}

	fb := newFramebuffer(snap.viewport.Width, snap.viewport.Height, snap.generation)
	tiles := splitTiles(image.Rect(0, 0, fb.Width, fb.Height), tileSize)

	work := make(chan image.Rectangle)
	var wg sync.WaitGroup

	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for tile := range work {
				if renderTile(ctx, snap, fb, tile) {
					observability.Render().OnTileDone(ctx, snap.generation, tile.Dx()*tile.Dy())
				}
			}
		}()
	}

feed:
	for _, tile := range tiles {
		select {
		case work <- tile:
		case <-ctx.Done():
			break feed
		}
	}
	close(work)
	wg.Wait()

	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return fb, nil
}

// renderTile evaluates every pixel of one tile: pixel → plane coordinate →
// escape-time iteration → color. Returns false if it stopped early because
// the context was cancelled.
func renderTile(ctx context.Context, snap snapshot, fb *Framebuffer, tile image.Rectangle) bool {
	for y := tile.Min.Y; y < tile.Max.Y; y++ {
		select {
		case <-ctx.Done():
			return false
		default:
		}
		for x := tile.Min.X; x < tile.Max.X; x++ {
			pt := snap.viewport.PixelToPlane(float64(x), float64(y))
			res := fractal.Evaluate(pt, snap.params)
			fb.set(x, y, snap.scheme.Map(res, snap.params.MaxIter))
		}
	}
	return true
}
