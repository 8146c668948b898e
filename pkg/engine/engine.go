// Package engine orchestrates fractal rendering: it owns the current
// viewport, fractal parameters, and color scheme, fans render work out to a
// fixed worker pool tile by tile, and publishes completed framebuffers.
//
// # Generations
//
// Every mutation (pan, zoom, parameter or scheme change) bumps a monotonic
// generation counter and snapshots the inputs immutably. Workers compute
// against the snapshot; when a generation finishes, its framebuffer is
// published only if no newer generation has been requested in the meantime.
// Stale generations are discarded whole — a published frame is always the
// output of exactly one consistent input snapshot, never a blend.
//
// Cancellation is advisory: superseded generations have their context
// cancelled and stop at the next row boundary, but even a generation that
// runs to completion is discarded if its tag no longer matches.
//
// # Concurrency
//
// The engine's mutable state (current inputs, generation counter, published
// frame) sits behind a small mutex and an atomic counter; the per-pixel hot
// path shares nothing. PollFramebuffer and the setter API are safe for
// concurrent use.
package engine

import (
	"context"
	"math/rand"
	"runtime"
	"sync"
	"sync/atomic"
	"time"

	"github.com/charmbracelet/log"

	"github.com/fractalscope/fractalscope/pkg/colormap"
	"github.com/fractalscope/fractalscope/pkg/errors"
	"github.com/fractalscope/fractalscope/pkg/fractal"
	"github.com/fractalscope/fractalscope/pkg/observability"
	"github.com/fractalscope/fractalscope/pkg/plane"
)

// Render computes one frame synchronously: the pure boundary function from
// (viewport, params, scheme) to a framebuffer. It validates its inputs and
// splits the work across a worker pool sized to GOMAXPROCS.
//
// Render is what the Engine runs per generation; it is exported so one-shot
// consumers (CLI render, HTTP render endpoint) can bypass generation
// bookkeeping entirely.
func Render(ctx context.Context, vp plane.Viewport, params fractal.Params, scheme colormap.Scheme) (*Framebuffer, error) {
	if err := vp.Validate(); err != nil {
		return nil, err
	}
	if err := params.Validate(); err != nil {
		return nil, err
	}
	if err := scheme.Validate(); err != nil {
		return nil, err
	}
	snap := snapshot{viewport: vp, params: params, scheme: scheme}
	return renderTiles(ctx, snap, runtime.GOMAXPROCS(0))
}

// Option configures an Engine.
type Option func(*Engine)

// WithWorkers sets the worker pool size. Defaults to GOMAXPROCS.
func WithWorkers(n int) Option {
	return func(e *Engine) {
		if n > 0 {
			e.workers = n
		}
	}
}

// WithLogger sets the engine logger. Defaults to log.Default().
func WithLogger(l *log.Logger) Option {
	return func(e *Engine) {
		if l != nil {
			e.logger = l
		}
	}
}

// WithRand sets the randomness source used by RandomizeParams. Defaults to
// a time-seeded source; tests inject a fixed seed.
func WithRand(rng *rand.Rand) Option {
	return func(e *Engine) {
		if rng != nil {
			e.rng = rng
		}
	}
}

// Engine is the interactive render orchestrator.
type Engine struct {
	workers int
	logger  *log.Logger

	// generation is the latest requested render generation. Workers read it
	// on completion to tag-check their output.
	generation atomic.Uint64

	// published is the latest fully merged framebuffer, or nil before the
	// first generation completes.
	published atomic.Pointer[Framebuffer]

	// mu guards the current inputs, the in-flight cancel handle, and rng.
	mu       sync.Mutex
	viewport plane.Viewport
	params   fractal.Params
	scheme   colormap.Scheme
	rng      *rand.Rand
	cancel   context.CancelFunc

	// inflight tracks unfinished generations so Wait can drain them.
	inflight sync.WaitGroup
}

// New creates an engine with the given initial inputs. Invalid inputs are
// rejected; the engine starts Idle with no published frame until the first
// Request completes.
func New(vp plane.Viewport, params fractal.Params, scheme colormap.Scheme, opts ...Option) (*Engine, error) {
	if err := vp.Validate(); err != nil {
		return nil, err
	}
	if err := params.Validate(); err != nil {
		return nil, err
	}
	if err := scheme.Validate(); err != nil {
		return nil, err
	}

	e := &Engine{
		workers:  runtime.GOMAXPROCS(0),
		logger:   log.Default(),
		viewport: vp,
		params:   params,
		scheme:   scheme,
		rng:      rand.New(rand.NewSource(time.Now().UnixNano())),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e, nil
}

// Request snapshots the current inputs under a fresh generation and renders
// asynchronously. Rapid successive calls supersede one another: earlier
// generations are cancelled and their output discarded, so only the most
// recent completed generation is ever published.
func (e *Engine) Request() uint64 {
	e.mu.Lock()
	gen := e.generation.Add(1)
	snap := snapshot{
		generation: gen,
		viewport:   e.viewport,
		params:     e.params,
		scheme:     e.scheme,
	}
	if e.cancel != nil {
		e.cancel()
	}
	ctx, cancel := context.WithCancel(context.Background())
	e.cancel = cancel
	e.mu.Unlock()

	observability.Render().OnGenerationStart(ctx, gen, snap.viewport.Width, snap.viewport.Height)
	e.logger.Debug("render generation dispatched",
		"generation", gen,
		"variant", snap.params.Variant,
		"size", snap.viewport.Width*snap.viewport.Height)

	e.inflight.Add(1)
	go e.run(ctx, snap)
	return gen
}

// run renders one generation and publishes or discards the result.
func (e *Engine) run(ctx context.Context, snap snapshot) {
	defer e.inflight.Done()
	start := time.Now()

	fb, err := renderTiles(ctx, snap, e.workers)
	if err != nil {
		// Cancelled mid-flight: a newer generation took over.
		observability.Render().OnGenerationDiscard(ctx, snap.generation, e.generation.Load())
		return
	}

	// Tag check: publish only if this is still the latest requested
	// generation. A completed-but-superseded frame is wasted compute, not
	// an error.
	if latest := e.generation.Load(); latest != snap.generation {
		observability.Render().OnGenerationDiscard(ctx, snap.generation, latest)
		e.logger.Debug("render generation discarded",
			"generation", snap.generation,
			"latest", latest)
		return
	}

	if !e.publish(fb) {
		observability.Render().OnGenerationDiscard(ctx, snap.generation, e.generation.Load())
		return
	}
	observability.Render().OnGenerationPublish(ctx, snap.generation, time.Since(start))
	e.logger.Debug("render generation published",
		"generation", snap.generation,
		"duration", time.Since(start).Round(time.Millisecond))
}

// publish swaps fb in as the latest frame unless a newer generation already
// published. The compare-and-swap loop closes the window where a slow older
// generation passes the tag check and then races a faster successor.
func (e *Engine) publish(fb *Framebuffer) bool {
	for {
		cur := e.published.Load()
		if cur != nil && cur.Generation >= fb.Generation {
			return false
		}
		if e.published.CompareAndSwap(cur, fb) {
			return true
		}
	}
}

// PollFramebuffer returns the latest fully merged framebuffer, or nil if no
// generation has completed yet. The frame may lag behind the latest inputs
// while a newer generation is still computing.
func (e *Engine) PollFramebuffer() *Framebuffer {
	return e.published.Load()
}

// Wait blocks until all in-flight generations have finished (published or
// discarded). Primarily for tests and orderly shutdown.
func (e *Engine) Wait() {
	e.inflight.Wait()
}

// Close cancels any in-flight generation and drains the worker pool.
func (e *Engine) Close() {
	e.mu.Lock()
	if e.cancel != nil {
		e.cancel()
	}
	e.mu.Unlock()
	e.inflight.Wait()
}

// =============================================================================
// Setter boundary
// =============================================================================

// Viewport returns a copy of the current viewport.
func (e *Engine) Viewport() plane.Viewport {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.viewport
}

// Params returns a copy of the current fractal parameters.
func (e *Engine) Params() fractal.Params {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.params
}

// Scheme returns the current color scheme.
func (e *Engine) Scheme() colormap.Scheme {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.scheme
}

// SetViewport replaces the viewport and triggers a re-render. On validation
// failure the previous viewport is retained and no render is issued.
func (e *Engine) SetViewport(vp plane.Viewport) error {
	if err := vp.Validate(); err != nil {
		return err
	}
	e.mu.Lock()
	e.viewport = vp
	e.mu.Unlock()
	e.Request()
	return nil
}

// Pan shifts the view by a pixel delta and triggers a re-render.
func (e *Engine) Pan(dxPx, dyPx float64) {
	e.mu.Lock()
	e.viewport.Pan(dxPx, dyPx)
	e.mu.Unlock()
	e.Request()
}

// Zoom rescales the view around an anchor pixel and triggers a re-render.
// A PRECISION_LIMIT or DEGENERATE_VIEWPORT rejection leaves the view (and
// the last published frame) unchanged and issues no render.
func (e *Engine) Zoom(factor, anchorPx, anchorPy float64) error {
	e.mu.Lock()
	err := e.viewport.Zoom(factor, anchorPx, anchorPy)
	e.mu.Unlock()
	if err != nil {
		return err
	}
	e.Request()
	return nil
}

// Resize re-targets the output resolution and triggers a re-render.
func (e *Engine) Resize(width, height int) error {
	e.mu.Lock()
	err := e.viewport.Resize(width, height)
	e.mu.Unlock()
	if err != nil {
		return err
	}
	e.Request()
	return nil
}

// SetParams replaces the fractal parameters and triggers a re-render. On
// validation failure the previous parameters are retained.
func (e *Engine) SetParams(p fractal.Params) error {
	if err := p.Validate(); err != nil {
		return err
	}
	e.mu.Lock()
	e.params = p
	e.mu.Unlock()
	e.Request()
	return nil
}

// RandomizeParams draws new random parameters and a matching random color
// wheel, then triggers a re-render.
func (e *Engine) RandomizeParams() fractal.Params {
	e.mu.Lock()
	p := fractal.Randomize(e.rng)
	e.params = p
	e.scheme = colormap.RandomWheel(e.rng)
	e.mu.Unlock()
	e.Request()
	return p
}

// SetColorScheme replaces the color scheme and triggers a re-render. On
// validation failure the previous scheme is retained.
func (e *Engine) SetColorScheme(s colormap.Scheme) error {
	if err := s.Validate(); err != nil {
		return err
	}
	e.mu.Lock()
	e.scheme = s
	e.mu.Unlock()
	e.Request()
	return nil
}

// Generation returns the latest requested generation id.
func (e *Engine) Generation() uint64 {
	return e.generation.Load()
}

// ErrNoFrame is returned by helpers that need a completed frame before one
// has been published.
var ErrNoFrame = errors.New(errors.ErrCodeNotFound, "no framebuffer published yet")
