package colormap

import (
	"math"
	"math/rand"
	"sort"

	colorful "github.com/lucasb-eyer/go-colorful"

	"github.com/fractalscope/fractalscope/pkg/errors"
)

// builtin is the registry of named schemes. Order-independent; List sorts.
var builtin = map[string]Scheme{
	"classic": {
		Name: "classic",
		Mode: Continuous,
		Stops: []colorful.Color{
			{R: 0.00, G: 0.03, B: 0.39}, // deep blue
			{R: 0.12, G: 0.42, B: 0.79}, // azure
			{R: 0.93, G: 1.00, B: 1.00}, // near white
			{R: 1.00, G: 0.67, B: 0.00}, // orange
			{R: 0.00, G: 0.01, B: 0.00}, // almost black
		},
	},
	"fire": {
		Name: "fire",
		Mode: Continuous,
		Stops: []colorful.Color{
			{R: 0.02, G: 0.00, B: 0.00},
			{R: 0.60, G: 0.05, B: 0.00},
			{R: 1.00, G: 0.55, B: 0.00},
			{R: 1.00, G: 0.95, B: 0.60},
		},
	},
	"ocean": {
		Name: "ocean",
		Mode: Continuous,
		Stops: []colorful.Color{
			{R: 0.00, G: 0.05, B: 0.15},
			{R: 0.00, G: 0.35, B: 0.55},
			{R: 0.20, G: 0.75, B: 0.85},
			{R: 0.90, G: 1.00, B: 1.00},
		},
	},
	"grayscale": {
		Name: "grayscale",
		Mode: Continuous,
		Stops: []colorful.Color{
			{R: 0, G: 0, B: 0},
			{R: 1, G: 1, B: 1},
		},
	},
}

// Lookup resolves a built-in scheme by name.
func Lookup(name string) (Scheme, error) {
	s, ok := builtin[name]
	if !ok {
		return Scheme{}, errors.New(errors.ErrCodeInvalidScheme, "unknown color scheme %q", name)
	}
	return s, nil
}

// List returns the built-in scheme names in sorted order.
func List() []string {
	names := make([]string, 0, len(builtin))
	for name := range builtin {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Default returns the scheme used when nothing else is configured.
func Default() Scheme {
	return builtin["classic"]
}

// HSVWheel builds a scheme of n stops walking the hue wheel from hueOffset
// degrees, at fixed saturation and value. This reproduces hue-offset coloring
// where the escape value selects a hue directly.
func HSVWheel(hueOffset, saturation, value float64, n int) Scheme {
	if n < 1 {
		n = 1
	}
	stops := make([]colorful.Color, n)
	for i := range stops {
		hue := math.Mod(hueOffset+float64(i)*360/float64(n), 360)
		stops[i] = colorful.Hsv(hue, saturation, value)
	}
	return Scheme{Name: "hsv", Mode: Continuous, Stops: stops}
}

// RandomWheel draws a random HSV wheel from the provided randomness source:
// arbitrary hue offset, saturation and value in [0.7, 1.0).
func RandomWheel(rng *rand.Rand) Scheme {
	return HSVWheel(rng.Float64()*360, 0.7+rng.Float64()*0.3, 0.7+rng.Float64()*0.3, 16)
}
