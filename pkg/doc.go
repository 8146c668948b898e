// Package pkg provides the core libraries for Fractalscope fractal rendering.
//
// # Overview
//
// Fractalscope renders parametric escape-time fractals of the Mandelbrot
// family and lets consumers navigate them interactively. The pkg directory is
// organized into four main areas:
//
//  1. [plane], [fractal], [colormap] - Domain logic (viewport math, iteration, coloring)
//  2. [engine] - Orchestration (tiled parallel rendering, generations, publishing)
//  3. [cache], [preset] - Infrastructure (frame caching, named view storage)
//  4. [errors], [observability], [buildinfo] - Cross-cutting support
//
// # Architecture
//
// The typical data flow through Fractalscope:
//
//	Viewport + Params + Scheme (one immutable snapshot per generation)
//	         ↓
//	    [plane] package (pixel → complex plane mapping)
//	         ↓
//	    [fractal] package (escape-time iteration per point)
//	         ↓
//	    [colormap] package (iteration result → RGB)
//	         ↓
//	    [engine] package (tiles, worker pool, latest-wins publish)
//	         ↓
//	    Framebuffer → PNG / terminal raster / HTTP
//
// # Quick Start
//
// Render one frame:
//
//	import (
//	    "context"
//	    "github.com/fractalscope/fractalscope/pkg/colormap"
//	    "github.com/fractalscope/fractalscope/pkg/engine"
//	    "github.com/fractalscope/fractalscope/pkg/fractal"
//	    "github.com/fractalscope/fractalscope/pkg/plane"
//	)
//
//	fb, err := engine.Render(context.Background(),
//	    plane.Default(1280, 960), fractal.DefaultParams(), colormap.Default())
//
// Or drive an interactive session:
//
//	eng, err := engine.New(vp, params, scheme)
//	eng.Pan(24, 0)             // triggers an asynchronous re-render
//	fb := eng.PollFramebuffer() // latest fully merged frame, never partial
//
// # Design Principles
//
//   - Published frames are whole: a framebuffer always reflects exactly one
//     input snapshot, never a blend of two generations.
//   - Mutation never blocks on rendering; superseded generations are
//     cancelled and discarded.
//   - Validation happens at the boundary; rejected inputs leave prior state
//     untouched.
package pkg
