package cli

import (
	"fmt"
	"io"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/log"
	"github.com/spf13/cobra"

	"github.com/fractalscope/fractalscope/pkg/colormap"
	"github.com/fractalscope/fractalscope/pkg/engine"
	"github.com/fractalscope/fractalscope/pkg/fractal"
	"github.com/fractalscope/fractalscope/pkg/plane"
	"github.com/fractalscope/fractalscope/pkg/preset"
)

const (
	// statusLines is the number of terminal rows reserved below the raster.
	statusLines = 2

	// frameInterval is how often the TUI polls for a newly published frame.
	frameInterval = 33 * time.Millisecond

	// panFraction is the screen fraction one arrow keypress pans by.
	panFraction = 8

	zoomInFactor  = 0.5
	zoomOutFactor = 2.0
)

// exploreCommand creates the interactive terminal explorer command.
func (c *CLI) exploreCommand() *cobra.Command {
	var presetRef string

	cmd := &cobra.Command{
		Use:   "explore",
		Short: "Explore fractals interactively in the terminal",
		Long: `Explore opens a full-screen terminal viewer.

Keys:
  arrows / hjkl   pan
  + / -           zoom in / out at the view center
  v               cycle fractal variant
  c               cycle color scheme
  r               randomize parameters and colors
  0               reset to the home view
  w               write the current view to a preset file
  q / ctrl+c      quit`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.runExplore(cmd, presetRef)
		},
	}

	cmd.Flags().StringVar(&presetRef, "preset", "", "start from a built-in preset name or TOML preset file")
	return cmd
}

// runExplore builds the engine and hands the terminal to bubbletea.
func (c *CLI) runExplore(cmd *cobra.Command, presetRef string) error {
	// The raster owns the terminal; engine logs would corrupt it.
	quiet := newLogger(io.Discard, log.InfoLevel)

	// Size is corrected by the first WindowSizeMsg.
	vp := plane.Default(80, 48)
	params := fractal.DefaultParams()
	scheme := colormap.Default()

	if presetRef != "" {
		p, err := loadPreset(presetRef)
		if err != nil {
			return err
		}
		if vp, err = p.Viewport(80, 48); err != nil {
			return err
		}
		if params, err = p.Params(); err != nil {
			return err
		}
		if scheme, err = p.ColorScheme(); err != nil {
			return err
		}
	}

	eng, err := engine.New(vp, params, scheme, engine.WithLogger(quiet))
	if err != nil {
		return err
	}
	defer eng.Close()

	model := newExploreModel(eng)
	prog := tea.NewProgram(model, tea.WithAltScreen(), tea.WithContext(cmd.Context()))
	_, err = prog.Run()
	return err
}

// frameTickMsg drives framebuffer polling.
type frameTickMsg time.Time

func frameTick() tea.Cmd {
	return tea.Tick(frameInterval, func(t time.Time) tea.Msg {
		return frameTickMsg(t)
	})
}

// exploreModel is the bubbletea model for the interactive explorer.
type exploreModel struct {
	eng *engine.Engine

	cols, rows int // raster cell grid
	frame      string
	frameGen   uint64
	rendering  bool
	notice     string
}

func newExploreModel(eng *engine.Engine) exploreModel {
	return exploreModel{eng: eng}
}

func (m exploreModel) Init() tea.Cmd {
	return frameTick()
}

func (m exploreModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.cols = msg.Width
		m.rows = msg.Height - statusLines
		if m.rows < 1 {
			m.rows = 1
		}
		// Two pixels per cell row via the half-block glyph.
		if err := m.eng.Resize(m.cols, m.rows*2); err == nil {
			m.rendering = true
		}
		return m, nil

	case frameTickMsg:
		if fb := m.eng.PollFramebuffer(); fb != nil && fb.Generation != m.frameGen {
			m.frame = rasterize(fb, m.cols, m.rows)
			m.frameGen = fb.Generation
		}
		m.rendering = m.frameGen != m.eng.Generation()
		return m, frameTick()

	case tea.KeyMsg:
		return m.handleKey(msg)
	}
	return m, nil
}

func (m exploreModel) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	m.notice = ""
	vp := m.eng.Viewport()
	panX := float64(vp.Width) / panFraction
	panY := float64(vp.Height) / panFraction
	centerX := float64(vp.Width) / 2
	centerY := float64(vp.Height) / 2

	switch msg.String() {
	case "q", "ctrl+c", "esc":
		return m, tea.Quit

	// Panning drags the content: looking left means dragging it right.
	case "left", "h":
		m.eng.Pan(panX, 0)
	case "right", "l":
		m.eng.Pan(-panX, 0)
	case "up", "k":
		m.eng.Pan(0, panY)
	case "down", "j":
		m.eng.Pan(0, -panY)

	case "+", "=":
		if err := m.eng.Zoom(zoomInFactor, centerX, centerY); err != nil {
			m.notice = err.Error()
		}
	case "-", "_":
		if err := m.eng.Zoom(zoomOutFactor, centerX, centerY); err != nil {
			m.notice = err.Error()
		}

	case "v":
		params := m.eng.Params()
		variants := fractal.Variants()
		params.Variant = variants[(int(params.Variant)+1)%len(variants)]
		if err := m.eng.SetParams(params); err != nil {
			m.notice = err.Error()
		}

	case "c":
		names := colormap.List()
		cur := m.eng.Scheme().Name
		next := names[0]
		for i, n := range names {
			if n == cur {
				next = names[(i+1)%len(names)]
				break
			}
		}
		if s, err := colormap.Lookup(next); err == nil {
			if err := m.eng.SetColorScheme(s); err != nil {
				m.notice = err.Error()
			}
		}

	case "r":
		m.eng.RandomizeParams()

	case "0":
		vp := plane.Default(m.cols, m.rows*2)
		if err := m.eng.SetViewport(vp); err == nil {
			_ = m.eng.SetParams(fractal.DefaultParams())
		}

	case "w":
		p := preset.FromState(
			fmt.Sprintf("explore-%d", time.Now().Unix()),
			m.eng.Viewport(), m.eng.Params(), m.eng.Scheme(),
		)
		path := p.Name + ".toml"
		if err := preset.Save(path, p); err != nil {
			m.notice = err.Error()
		} else {
			m.notice = "saved " + path
		}
	}

	m.rendering = m.frameGen != m.eng.Generation()
	return m, nil
}

func (m exploreModel) View() string {
	if m.cols == 0 {
		return "loading..."
	}

	body := m.frame
	if body == "" {
		body = StyleDim.Render("rendering first frame...")
	}

	return body + "\n" + m.statusBar()
}

// statusBar renders the two info lines under the raster.
func (m exploreModel) statusBar() string {
	vp := m.eng.Viewport()
	params := m.eng.Params()

	state := fmt.Sprintf(" %s  power %.2f  shape %.3g%+.3gi  iter %d  center %.6g%+.6gi  scale %.3g",
		StyleHighlight.Render(params.Variant.String()),
		params.Power, real(params.Shape), imag(params.Shape), params.MaxIter,
		real(vp.Center), imag(vp.Center), vp.Scale)
	if m.rendering {
		state += "  " + StyleWarning.Render("rendering")
	}
	if m.notice != "" {
		state += "  " + StyleWarning.Render(m.notice)
	}

	help := StyleDim.Render(" arrows pan · +/- zoom · v variant · c colors · r randomize · 0 home · w save · q quit")
	return state + "\n" + help
}
