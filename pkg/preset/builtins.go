package preset

// Classic landmarks in the Mandelbrot set, shipped as built-in presets.
// Deeper regions carry larger iteration budgets since their boundary detail
// needs more iterations to resolve.
var builtins = []Preset{
	{
		Name:         "home",
		Description:  "Full view of the set",
		CenterRe:     -0.5,
		CenterIm:     0,
		Span:         3,
		Variant:      "mandelbrot",
		Power:        2,
		ShapeRe:      0.5,
		MaxIter:      1000,
		EscapeRadius: 2,
		Scheme:       "classic",
	},
	{
		Name:         "seahorse-valley",
		Description:  "Dense filaments and repeating seahorse curls",
		CenterRe:     -0.75,
		CenterIm:     0.10,
		Span:         0.1,
		Variant:      "mandelbrot",
		Power:        2,
		ShapeRe:      0.5,
		MaxIter:      1000,
		EscapeRadius: 2,
		Scheme:       "ocean",
	},
	{
		Name:         "elephant-valley",
		Description:  "Large bulb with trunk-like tendrils",
		CenterRe:     -1.80,
		CenterIm:     -0.06,
		Span:         0.1,
		Variant:      "mandelbrot",
		Power:        2,
		ShapeRe:      0.5,
		MaxIter:      1000,
		EscapeRadius: 2,
		Scheme:       "fire",
	},
	{
		Name:         "spiral-minibrot",
		Description:  "Small Mandelbrot copy with tight spiral arms",
		CenterRe:     -0.74275,
		CenterIm:     0.13175,
		Span:         0.0015,
		Variant:      "mandelbrot",
		Power:        2,
		ShapeRe:      0.5,
		MaxIter:      2500,
		EscapeRadius: 2,
		Scheme:       "classic",
	},
	{
		Name:         "triple-spiral",
		Description:  "Threefold symmetric spiral structure",
		CenterRe:     -0.7465,
		CenterIm:     0.0965,
		Span:         0.003,
		Variant:      "mandelbrot",
		Power:        2,
		ShapeRe:      0.5,
		MaxIter:      2000,
		EscapeRadius: 2,
		Scheme:       "classic",
	},
	{
		Name:         "valley-of-the-dragon",
		Description:  "Deep, highly detailed spiral filaments",
		CenterRe:     -0.7375,
		CenterIm:     0.1825,
		Span:         0.005,
		Variant:      "mandelbrot",
		Power:        2,
		ShapeRe:      0.5,
		MaxIter:      2000,
		EscapeRadius: 2,
		Scheme:       "fire",
	},
	{
		Name:         "minibrot-in-mini-spiral",
		Description:  "Self-similar Mandelbrot copy inside a spiral arm",
		CenterRe:     -1.73825,
		CenterIm:     -0.02275,
		Span:         0.0015,
		Variant:      "mandelbrot",
		Power:        2,
		ShapeRe:      0.5,
		MaxIter:      2500,
		EscapeRadius: 2,
		Scheme:       "ocean",
	},
	{
		Name:         "phoenix-classic",
		Description:  "Phoenix feedback fractal at its classic parameter",
		CenterRe:     0,
		CenterIm:     0,
		Span:         3,
		Variant:      "phoenix",
		Power:        2,
		ShapeRe:      -0.5,
		ShapeIm:      0,
		MaxIter:      1000,
		EscapeRadius: 2,
		Scheme:       "grayscale",
	},
}

// Builtins returns the built-in presets. The returned slice is a copy.
func Builtins() []Preset {
	out := make([]Preset, len(builtins))
	copy(out, builtins)
	return out
}

// Builtin looks up one built-in preset by name.
// Returns nil if no built-in has that name.
func Builtin(name string) *Preset {
	for i := range builtins {
		if builtins[i].Name == name {
			p := builtins[i]
			return &p
		}
	}
	return nil
}
