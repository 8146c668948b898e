// Package preset provides named, serializable render configurations.
//
// A preset captures everything needed to reproduce a view: the plane region,
// the fractal parameters, and the color scheme name. Presets round-trip
// through TOML files (Load/Save) for the CLI, and through a Store for the
// HTTP server:
//   - memory: in-memory storage seeded with the built-in landmarks
//   - mongo: MongoDB-backed storage for the HTTP server
//
// Presets store parameters only, never rendered pixels.
package preset

import (
	"context"
	"math"
	"os"

	"github.com/BurntSushi/toml"

	"github.com/fractalscope/fractalscope/pkg/colormap"
	fserrors "github.com/fractalscope/fractalscope/pkg/errors"
	"github.com/fractalscope/fractalscope/pkg/fractal"
	"github.com/fractalscope/fractalscope/pkg/plane"
)

// Preset is a named render configuration. The plane region is stored as
// center + span so it is resolution independent: span is the extent in plane
// units across the smaller output dimension, matching the default framing
// convention.
type Preset struct {
	Name        string `toml:"name" bson:"_id" json:"name"`
	Description string `toml:"description,omitempty" bson:"description,omitempty" json:"description,omitempty"`

	CenterRe float64 `toml:"center_re" bson:"center_re" json:"center_re"`
	CenterIm float64 `toml:"center_im" bson:"center_im" json:"center_im"`
	Span     float64 `toml:"span" bson:"span" json:"span"`

	Variant      string  `toml:"variant" bson:"variant" json:"variant"`
	Power        float64 `toml:"power" bson:"power" json:"power"`
	ShapeRe      float64 `toml:"shape_re" bson:"shape_re" json:"shape_re"`
	ShapeIm      float64 `toml:"shape_im" bson:"shape_im" json:"shape_im"`
	MaxIter      int     `toml:"max_iter" bson:"max_iter" json:"max_iter"`
	EscapeRadius float64 `toml:"escape_radius" bson:"escape_radius" json:"escape_radius"`

	Scheme string `toml:"scheme" bson:"scheme" json:"scheme"`
}

// Validate checks the preset for renderability: name present, region finite
// and non-degenerate, parameters within bounds, scheme known.
func (p *Preset) Validate() error {
	if p.Name == "" {
		return fserrors.New(fserrors.ErrCodeInvalidPreset, "preset name is required")
	}
	if p.Span <= 0 || math.IsInf(p.Span, 0) || math.IsNaN(p.Span) {
		return fserrors.New(fserrors.ErrCodeInvalidPreset, "preset span must be a positive finite number")
	}
	if math.IsNaN(p.CenterRe) || math.IsNaN(p.CenterIm) ||
		math.IsInf(p.CenterRe, 0) || math.IsInf(p.CenterIm, 0) {
		return fserrors.New(fserrors.ErrCodeInvalidPreset, "preset center must be finite")
	}
	params, err := p.Params()
	if err != nil {
		return err
	}
	if err := params.Validate(); err != nil {
		return fserrors.Wrap(fserrors.ErrCodeInvalidPreset, err, "preset parameters out of range")
	}
	if _, err := p.ColorScheme(); err != nil {
		return err
	}
	return nil
}

// Params converts the preset's fractal fields to validated-shape parameters.
func (p *Preset) Params() (fractal.Params, error) {
	variant, err := fractal.ParseVariant(p.Variant)
	if err != nil {
		return fractal.Params{}, fserrors.Wrap(fserrors.ErrCodeInvalidPreset, err, "preset variant unknown")
	}
	return fractal.Params{
		Variant:      variant,
		Power:        p.Power,
		Shape:        complex(p.ShapeRe, p.ShapeIm),
		MaxIter:      p.MaxIter,
		EscapeRadius: p.EscapeRadius,
	}, nil
}

// Viewport frames the preset's region at the given output resolution. The
// span maps onto the smaller dimension; the larger dimension shows more of
// the plane rather than stretching.
func (p *Preset) Viewport(width, height int) (plane.Viewport, error) {
	m := min(width, height)
	if m < 1 {
		return plane.Viewport{}, fserrors.New(fserrors.ErrCodeDegenerateViewport, "viewport dimensions must be positive")
	}
	return plane.New(complex(p.CenterRe, p.CenterIm), p.Span/float64(m), width, height)
}

// ColorScheme resolves the preset's scheme name, defaulting when empty.
func (p *Preset) ColorScheme() (colormap.Scheme, error) {
	if p.Scheme == "" {
		return colormap.Default(), nil
	}
	return colormap.Lookup(p.Scheme)
}

// FromState captures live engine state as a preset, the inverse of
// Params/Viewport/ColorScheme.
func FromState(name string, vp plane.Viewport, params fractal.Params, scheme colormap.Scheme) Preset {
	return Preset{
		Name:         name,
		CenterRe:     real(vp.Center),
		CenterIm:     imag(vp.Center),
		Span:         vp.Scale * float64(min(vp.Width, vp.Height)),
		Variant:      params.Variant.String(),
		Power:        params.Power,
		ShapeRe:      real(params.Shape),
		ShapeIm:      imag(params.Shape),
		MaxIter:      params.MaxIter,
		EscapeRadius: params.EscapeRadius,
		Scheme:       scheme.Name,
	}
}

// Load reads and validates a preset from a TOML file.
func Load(path string) (Preset, error) {
	var p Preset
	if _, err := toml.DecodeFile(path, &p); err != nil {
		return Preset{}, fserrors.Wrap(fserrors.ErrCodeInvalidPreset, err, "failed to parse preset file")
	}
	if err := p.Validate(); err != nil {
		return Preset{}, err
	}
	return p, nil
}

// Save writes a preset to a TOML file.
func Save(path string, p Preset) error {
	if err := p.Validate(); err != nil {
		return err
	}
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()
	return toml.NewEncoder(f).Encode(p)
}

// Store is the interface for preset storage backends.
type Store interface {
	// Get retrieves a preset by name.
	// Returns nil, nil if the preset doesn't exist.
	Get(ctx context.Context, name string) (*Preset, error)

	// Set stores a preset, replacing any existing preset with the same name.
	Set(ctx context.Context, p *Preset) error

	// Delete removes a preset. Deleting a missing preset is not an error.
	Delete(ctx context.Context, name string) error

	// List returns all stored presets sorted by name.
	List(ctx context.Context) ([]Preset, error)
}
