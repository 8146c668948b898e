package cli

import (
	"io"
	"testing"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/log"

	"github.com/fractalscope/fractalscope/pkg/colormap"
	"github.com/fractalscope/fractalscope/pkg/engine"
	"github.com/fractalscope/fractalscope/pkg/fractal"
	"github.com/fractalscope/fractalscope/pkg/plane"
)

func newTestExploreModel(t *testing.T) exploreModel {
	t.Helper()
	quiet := newLogger(io.Discard, log.InfoLevel)
	eng, err := engine.New(plane.Default(40, 20), fractal.DefaultParams(), colormap.Default(),
		engine.WithLogger(quiet), engine.WithWorkers(2))
	if err != nil {
		t.Fatalf("engine.New: %v", err)
	}
	t.Cleanup(eng.Close)

	m := newExploreModel(eng)
	next, _ := m.Update(tea.WindowSizeMsg{Width: 40, Height: 12})
	return next.(exploreModel)
}

func keyMsg(s string) tea.KeyMsg {
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)}
}

func TestExploreWindowSizeResizesEngine(t *testing.T) {
	m := newTestExploreModel(t)

	if m.cols != 40 || m.rows != 12-statusLines {
		t.Fatalf("grid = %dx%d", m.cols, m.rows)
	}
	vp := m.eng.Viewport()
	if vp.Width != 40 || vp.Height != (12-statusLines)*2 {
		t.Errorf("engine resolution = %dx%d, want %dx%d", vp.Width, vp.Height, 40, (12-statusLines)*2)
	}
	m.eng.Wait()
}

func TestExplorePanKeysMoveView(t *testing.T) {
	m := newTestExploreModel(t)
	before := m.eng.Viewport().Center

	next, _ := m.Update(tea.KeyMsg{Type: tea.KeyLeft})
	m = next.(exploreModel)

	after := m.eng.Viewport().Center
	if real(after) >= real(before) {
		t.Errorf("left pan: center re %v -> %v, want decrease", real(before), real(after))
	}
	if imag(after) != imag(before) {
		t.Errorf("left pan moved the imaginary axis: %v -> %v", imag(before), imag(after))
	}
	m.eng.Wait()
}

func TestExploreZoomKeys(t *testing.T) {
	m := newTestExploreModel(t)
	before := m.eng.Viewport().Scale

	next, _ := m.Update(keyMsg("+"))
	m = next.(exploreModel)
	if got := m.eng.Viewport().Scale; got != before*zoomInFactor {
		t.Errorf("zoom in: scale = %v, want %v", got, before*zoomInFactor)
	}

	next, _ = m.Update(keyMsg("-"))
	m = next.(exploreModel)
	if got := m.eng.Viewport().Scale; got != before {
		t.Errorf("zoom out: scale = %v, want %v", got, before)
	}
	m.eng.Wait()
}

func TestExploreVariantCycle(t *testing.T) {
	m := newTestExploreModel(t)

	next, _ := m.Update(keyMsg("v"))
	m = next.(exploreModel)
	if got := m.eng.Params().Variant; got != fractal.Spiral {
		t.Errorf("variant after one cycle = %v, want spiral", got)
	}

	// Cycling through all variants wraps around.
	for i := 0; i < len(fractal.Variants())-1; i++ {
		next, _ = m.Update(keyMsg("v"))
		m = next.(exploreModel)
	}
	if got := m.eng.Params().Variant; got != fractal.Mandelbrot {
		t.Errorf("variant after full cycle = %v, want mandelbrot", got)
	}
	m.eng.Wait()
}

func TestExploreRandomizeBumpsGeneration(t *testing.T) {
	m := newTestExploreModel(t)
	before := m.eng.Generation()

	next, _ := m.Update(keyMsg("r"))
	m = next.(exploreModel)
	if m.eng.Generation() != before+1 {
		t.Errorf("generation = %d, want %d", m.eng.Generation(), before+1)
	}
	if err := m.eng.Params().Validate(); err != nil {
		t.Errorf("randomized params invalid: %v", err)
	}
	m.eng.Wait()
}

func TestExploreQuitKey(t *testing.T) {
	m := newTestExploreModel(t)

	_, cmd := m.Update(keyMsg("q"))
	if cmd == nil {
		t.Fatal("q did not produce a command")
	}
	if _, ok := cmd().(tea.QuitMsg); !ok {
		t.Errorf("q produced %T, want tea.QuitMsg", cmd())
	}
	m.eng.Wait()
}

func TestExploreFrameTickPicksUpFrame(t *testing.T) {
	m := newTestExploreModel(t)
	m.eng.Request()
	m.eng.Wait()

	next, _ := m.Update(frameTickMsg{})
	m = next.(exploreModel)
	if m.frame == "" {
		t.Error("tick did not pick up the published frame")
	}
	if m.frameGen == 0 {
		t.Error("frame generation not recorded")
	}
}
