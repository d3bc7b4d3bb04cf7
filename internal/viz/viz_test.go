package viz

import (
	"math"
	"strings"
	"testing"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/san-kum/taylorsim/internal/dynamo"
	"github.com/san-kum/taylorsim/internal/jet"
	"github.com/san-kum/taylorsim/internal/systems"
	"github.com/san-kum/taylorsim/internal/taylor"
)

func TestCanvasSet(t *testing.T) {
	c := NewCanvas(2, 1)
	c.Set(0, 0)
	c.Set(3, 3)
	c.Set(-1, 0)
	c.Set(4, 0)

	if c.Grid[0][0] != 0x2801 {
		t.Errorf("expected dot 1, got %U", c.Grid[0][0])
	}
	if c.Grid[0][1] != 0x2880 {
		t.Errorf("expected dot 8, got %U", c.Grid[0][1])
	}
	c.Clear()
	if strings.Trim(c.String(), "⠀\n") != "" {
		t.Error("expected blank canvas after Clear")
	}
}

func TestCanvasPolylineCorners(t *testing.T) {
	c := NewCanvas(10, 5)
	b := Bounds{0, 1, 0, 1}
	if x, y := c.Pixel(b, 0, 0); x != 0 || y != 19 {
		t.Errorf("origin maps to (%d, %d)", x, y)
	}
	if x, y := c.Pixel(b, 1, 1); x != 19 || y != 0 {
		t.Errorf("(1,1) maps to (%d, %d)", x, y)
	}
	c.Polyline(b, []float64{0, 1}, []float64{0, 1})
	if c.Grid[4][0] == 0x2800 || c.Grid[0][9] == 0x2800 {
		t.Error("expected diagonal to reach both corners")
	}
}

func TestFitPadsDegenerateRange(t *testing.T) {
	b := Fit([]float64{2, 2}, []float64{-1, 1})
	if b.MinX >= 2 || b.MaxX <= 2 {
		t.Errorf("bad x bounds %+v", b)
	}
	if math.Abs(b.MinY+1.2) > 1e-12 || math.Abs(b.MaxY-1.2) > 1e-12 {
		t.Errorf("bad y bounds %+v", b)
	}
}

func newLiveModel(t *testing.T) Model {
	t.Helper()
	ta, err := taylor.New(systems.NewOscillator(), dynamo.State{1, 0})
	if err != nil {
		t.Fatal(err)
	}
	return NewModel("oscillator", ta, 0.5, 2, 0, 1)
}

func tickModel(m Model) Model {
	next, _ := m.Update(TickMsg{})
	return next.(Model)
}

func key(s string) tea.KeyMsg {
	if s == " " {
		return tea.KeyMsg{Type: tea.KeySpace, Runes: []rune(s)}
	}
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)}
}

func TestLiveAdvancesOneFrame(t *testing.T) {
	m := tickModel(newLiveModel(t))
	if math.Abs(m.ta.Time()-0.5) > 1e-15 {
		t.Errorf("expected t=0.5, got %v", m.ta.Time())
	}
	if m.nsteps == 0 || len(m.steps) != m.nsteps {
		t.Errorf("expected recorded steps, got %d/%d", len(m.steps), m.nsteps)
	}
	if d := m.drift[len(m.drift)-1]; d > 1e-14 {
		t.Errorf("energy drift %g", d)
	}
}

func TestLivePauseAndReverse(t *testing.T) {
	m := newLiveModel(t)
	next, _ := m.Update(key(" "))
	m = tickModel(next.(Model))
	if m.ta.Time() != 0 {
		t.Errorf("paused model advanced to %v", m.ta.Time())
	}

	next, _ = m.Update(key(" "))
	m = tickModel(next.(Model))
	next, _ = m.Update(key("b"))
	m = tickModel(next.(Model))
	if math.Abs(m.ta.Time()) > 1e-15 {
		t.Errorf("expected return to t=0, got %v", m.ta.Time())
	}
	if math.Abs(m.ta.State()[0]-1) > 1e-14 {
		t.Errorf("expected x=1 after reversal, got %v", m.ta.State()[0])
	}
}

func TestLiveReset(t *testing.T) {
	m := tickModel(tickModel(newLiveModel(t)))
	next, _ := m.Update(key("up"))
	m = next.(Model)
	if math.Abs(m.params["omega"]-1.05) > 1e-12 {
		t.Fatalf("expected omega 1.05, got %v", m.params["omega"])
	}

	next, _ = m.Update(key("r"))
	m = next.(Model)
	if m.ta.Time() != 0 || m.ta.State()[0] != 1 || m.ta.State()[1] != 0 {
		t.Errorf("reset left t=%v x=%v", m.ta.Time(), m.ta.State())
	}
	if m.ta.System().(*systems.Oscillator).Omega != 1 {
		t.Error("reset did not restore omega")
	}
	if m.nsteps != 0 || len(m.trailX) != 1 {
		t.Errorf("reset kept history: %d steps, %d points", m.nsteps, len(m.trailX))
	}
}

func TestLiveStopsOnTerminalEvent(t *testing.T) {
	ev := taylor.TerminalEvent{
		Eq: func(x []jet.Series, _ []float64, _ jet.Series) jet.Series { return x[0] },
	}
	ta, err := taylor.New(systems.NewOscillator(), dynamo.State{1, 0}, taylor.WithTerminalEvents(ev))
	if err != nil {
		t.Fatal(err)
	}
	m := NewModel("oscillator", ta, 1, math.Inf(1), 0, 1)
	m = tickModel(tickModel(m))
	if !m.stopped || m.outcome != taylor.EventStop(0) {
		t.Fatalf("expected event stop, got stopped=%v outcome=%v", m.stopped, m.outcome)
	}
	if math.Abs(m.ta.Time()-math.Pi/2) > 1e-12 {
		t.Errorf("expected stop at pi/2, got %v", m.ta.Time())
	}
	if !strings.Contains(m.View(), "event_stop") {
		t.Error("expected stop status in view")
	}
}

func TestLiveView(t *testing.T) {
	v := tickModel(newLiveModel(t)).View()
	for _, want := range []string{"OSCILLATOR", "RUNNING", "omega", "energy drift"} {
		if !strings.Contains(v, want) {
			t.Errorf("view missing %q", want)
		}
	}
}
