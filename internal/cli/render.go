package cli

import (
	"bytes"
	"fmt"
	"image/png"
	"os"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/fractalscope/fractalscope/pkg/cache"
	"github.com/fractalscope/fractalscope/pkg/colormap"
	"github.com/fractalscope/fractalscope/pkg/engine"
	"github.com/fractalscope/fractalscope/pkg/errors"
	"github.com/fractalscope/fractalscope/pkg/fractal"
	"github.com/fractalscope/fractalscope/pkg/plane"
	"github.com/fractalscope/fractalscope/pkg/preset"
)

// renderOptions holds flags for the render command.
type renderOptions struct {
	output       string
	size         string
	presetName   string
	variant      string
	power        float64
	shapeRe      float64
	shapeIm      float64
	maxIter      int
	escapeRadius float64
	scheme       string
	centerRe     float64
	centerIm     float64
	span         float64
	noCache      bool
}

// renderCommand creates the one-shot render command.
func (c *CLI) renderCommand() *cobra.Command {
	opts := renderOptions{}

	cmd := &cobra.Command{
		Use:   "render",
		Short: "Render a fractal frame to a PNG file",
		Long: `Render computes one frame and writes it as a PNG.

The view can come from a preset (built-in name or TOML file) or from
flags; flags override preset values. Rendered frames are cached by
input snapshot, so re-rendering an identical view is instant.`,
		Example: `  fractalscope render -o out.png
  fractalscope render --preset seahorse-valley --size 1920x1080
  fractalscope render --variant phoenix --shape-re -0.5 --max-iter 2000
  fractalscope render --preset myspot.toml --scheme fire`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.runRender(cmd, opts)
		},
	}

	defaults := fractal.DefaultParams()
	cmd.Flags().StringVarP(&opts.output, "output", "o", "fractal.png", "output PNG path")
	cmd.Flags().StringVar(&opts.size, "size", defaultSize, "output resolution as WIDTHxHEIGHT")
	cmd.Flags().StringVar(&opts.presetName, "preset", "", "built-in preset name or TOML preset file")
	cmd.Flags().StringVar(&opts.variant, "variant", defaults.Variant.String(), "fractal variant (mandelbrot, spiral, flower, phoenix, butterfly)")
	cmd.Flags().Float64Var(&opts.power, "power", defaults.Power, "iteration exponent")
	cmd.Flags().Float64Var(&opts.shapeRe, "shape-re", real(defaults.Shape), "shape parameter, real part")
	cmd.Flags().Float64Var(&opts.shapeIm, "shape-im", imag(defaults.Shape), "shape parameter, imaginary part")
	cmd.Flags().IntVar(&opts.maxIter, "max-iter", defaults.MaxIter, "iteration budget")
	cmd.Flags().Float64Var(&opts.escapeRadius, "escape-radius", defaults.EscapeRadius, "escape radius")
	cmd.Flags().StringVar(&opts.scheme, "scheme", "", "color scheme name")
	cmd.Flags().Float64Var(&opts.centerRe, "center-re", -0.5, "view center, real part")
	cmd.Flags().Float64Var(&opts.centerIm, "center-im", 0, "view center, imaginary part")
	cmd.Flags().Float64Var(&opts.span, "span", 3, "plane extent across the smaller dimension")
	cmd.Flags().BoolVar(&opts.noCache, "no-cache", false, "bypass the frame cache")

	return cmd
}

// runRender executes the render command.
func (c *CLI) runRender(cmd *cobra.Command, opts renderOptions) error {
	ctx := cmd.Context()

	width, height, err := parseSize(opts.size)
	if err != nil {
		return err
	}

	vp, params, scheme, err := resolveView(cmd, opts, width, height)
	if err != nil {
		return err
	}

	frameCache, err := newCache(opts.noCache)
	if err != nil {
		return fmt.Errorf("open cache: %w", err)
	}
	defer frameCache.Close()

	key := frameKey(cache.NewDefaultKeyer(), vp, params, scheme)
	prog := newProgress(c.Logger)
	start := time.Now()

	if data, hit, err := frameCache.Get(ctx, key); err == nil && hit {
		c.Logger.Debug("frame cache hit", "key", key)
		if err := os.WriteFile(opts.output, data, 0644); err != nil {
			return fmt.Errorf("write output: %w", err)
		}
		printSuccess("Rendered %s", opts.output)
		printRenderStats(width, height, params.MaxIter, true, time.Since(start))
		return nil
	}

	spinner := newSpinnerWithContext(ctx, fmt.Sprintf("Rendering %dx%d %s...", width, height, params.Variant))
	spinner.Start()

	fb, err := engine.Render(ctx, vp, params, scheme)
	spinner.Stop()
	if err != nil {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		return err
	}

	var buf bytes.Buffer
	if err := png.Encode(&buf, fb.ToRGBA()); err != nil {
		return fmt.Errorf("encode png: %w", err)
	}
	if err := os.WriteFile(opts.output, buf.Bytes(), 0644); err != nil {
		return fmt.Errorf("write output: %w", err)
	}
	if err := frameCache.Set(ctx, key, buf.Bytes(), cache.TTLFrame); err != nil {
		c.Logger.Debug("frame cache store failed", "err", err)
	}

	prog.done(fmt.Sprintf("Rendered %dx%d frame", width, height))
	printSuccess("Rendered %s", opts.output)
	printFile(opts.output)
	printRenderStats(width, height, params.MaxIter, false, time.Since(start))
	printNextStep("Explore interactively", "fractalscope explore")
	return nil
}

// resolveView builds the render inputs from a preset and flag overrides.
// Flags that were explicitly set take precedence over preset values.
func resolveView(cmd *cobra.Command, opts renderOptions, width, height int) (plane.Viewport, fractal.Params, colormap.Scheme, error) {
	base := preset.Preset{
		Name:         "flags",
		CenterRe:     opts.centerRe,
		CenterIm:     opts.centerIm,
		Span:         opts.span,
		Variant:      opts.variant,
		Power:        opts.power,
		ShapeRe:      opts.shapeRe,
		ShapeIm:      opts.shapeIm,
		MaxIter:      opts.maxIter,
		EscapeRadius: opts.escapeRadius,
		Scheme:       opts.scheme,
	}

	if opts.presetName != "" {
		p, err := loadPreset(opts.presetName)
		if err != nil {
			return plane.Viewport{}, fractal.Params{}, colormap.Scheme{}, err
		}
		merged := *p
		flags := cmd.Flags()
		if !flags.Changed("center-re") {
			base.CenterRe = merged.CenterRe
		}
		if !flags.Changed("center-im") {
			base.CenterIm = merged.CenterIm
		}
		if !flags.Changed("span") {
			base.Span = merged.Span
		}
		if !flags.Changed("variant") {
			base.Variant = merged.Variant
		}
		if !flags.Changed("power") {
			base.Power = merged.Power
		}
		if !flags.Changed("shape-re") {
			base.ShapeRe = merged.ShapeRe
		}
		if !flags.Changed("shape-im") {
			base.ShapeIm = merged.ShapeIm
		}
		if !flags.Changed("max-iter") {
			base.MaxIter = merged.MaxIter
		}
		if !flags.Changed("escape-radius") {
			base.EscapeRadius = merged.EscapeRadius
		}
		if !flags.Changed("scheme") {
			base.Scheme = merged.Scheme
		}
	}

	if err := base.Validate(); err != nil {
		return plane.Viewport{}, fractal.Params{}, colormap.Scheme{}, err
	}
	vp, err := base.Viewport(width, height)
	if err != nil {
		return plane.Viewport{}, fractal.Params{}, colormap.Scheme{}, err
	}
	params, err := base.Params()
	if err != nil {
		return plane.Viewport{}, fractal.Params{}, colormap.Scheme{}, err
	}
	scheme, err := base.ColorScheme()
	if err != nil {
		return plane.Viewport{}, fractal.Params{}, colormap.Scheme{}, err
	}
	return vp, params, scheme, nil
}

// loadPreset resolves a preset reference: a TOML file path when it looks like
// one, otherwise a built-in name.
func loadPreset(ref string) (*preset.Preset, error) {
	if strings.HasSuffix(ref, ".toml") || strings.ContainsRune(ref, os.PathSeparator) {
		p, err := preset.Load(ref)
		if err != nil {
			return nil, err
		}
		return &p, nil
	}
	if p := preset.Builtin(ref); p != nil {
		return p, nil
	}
	return nil, errors.New(errors.ErrCodePresetNotFound, "unknown preset %q", ref)
}

// frameKey builds the cache key for one render input snapshot.
func frameKey(keyer cache.Keyer, vp plane.Viewport, params fractal.Params, scheme colormap.Scheme) string {
	snap := fmt.Sprintf("%v|%v|%g|%v|%d|%g|%s|%d",
		vp.Center, vp.Scale, params.Power, params.Shape,
		params.MaxIter, params.EscapeRadius, scheme.Name, params.Variant)
	return keyer.FrameKey(cache.Hash([]byte(snap)), cache.FrameKeyOpts{
		Width:  vp.Width,
		Height: vp.Height,
		Format: "png",
	})
}
