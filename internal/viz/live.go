package viz

import (
	"fmt"
	"math"
	"sort"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/guptarohit/asciigraph"

	"github.com/san-kum/taylorsim/internal/dynamo"
	"github.com/san-kum/taylorsim/internal/taylor"
)

const (
	canvasWidth     = 60
	canvasHeight    = 20
	historyCapacity = 600
	frameRate       = 30
)

type TickMsg time.Time

func tick() tea.Cmd {
	return tea.Tick(time.Second/frameRate, func(t time.Time) tea.Msg { return TickMsg(t) })
}

// Model is the Bubble Tea model of a live propagation. Each frame
// propagates the integrator by Frame time units and records every step.
type Model struct {
	name   string
	ta     *taylor.Integrator
	start  *taylor.Integrator
	frame  float64
	target float64

	xIdx, yIdx int

	running  bool
	backward bool
	outcome  taylor.Outcome
	stopped  bool
	err      error
	showHelp bool

	energy0   float64
	hasEnergy bool

	trailX, trailY []float64
	drift          []float64
	steps          []float64
	nsteps         int

	params        map[string]float64
	initialParams map[string]float64
	paramKeys     []string
	selected      int
}

// NewModel shows ta, plotting state components xIdx and yIdx. A finite
// target is used for the progress bar.
func NewModel(name string, ta *taylor.Integrator, frame, target float64, xIdx, yIdx int) Model {
	m := Model{
		name:          name,
		ta:            ta,
		start:         ta.Copy(),
		frame:         frame,
		target:        target,
		xIdx:          xIdx,
		yIdx:          yIdx,
		running:       true,
		params:        make(map[string]float64),
		initialParams: make(map[string]float64),
	}
	if c, ok := ta.System().(dynamo.Configurable); ok {
		for k, v := range c.GetParams() {
			m.params[k] = v
			m.initialParams[k] = v
			m.paramKeys = append(m.paramKeys, k)
		}
	}
	sort.Strings(m.paramKeys)
	m.resetEnergy()
	m.record(ta.State())
	return m
}

func (m *Model) resetEnergy() {
	h, ok := m.ta.System().(dynamo.Hamiltonian)
	m.hasEnergy = ok
	if ok {
		m.energy0 = h.Energy(m.ta.State())
	}
}

func (m Model) Init() tea.Cmd { return tick() }

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "q", "ctrl+c":
			return m, tea.Quit
		case " ":
			m.running = !m.running
		case "b":
			m.backward = !m.backward
			m.stopped = false
		case "r":
			m.reset()
		case "tab":
			if len(m.paramKeys) > 0 {
				m.selected = (m.selected + 1) % len(m.paramKeys)
			}
		case "up", "k":
			m.adjustParam(1.05)
		case "down", "j":
			m.adjustParam(0.95)
		case "?":
			m.showHelp = !m.showHelp
		}
	case TickMsg:
		if m.running && !m.stopped {
			m.advance()
		}
		return m, tick()
	}
	return m, nil
}

// advance propagates one frame.
func (m *Model) advance() {
	delta := m.frame
	if m.backward {
		delta = -delta
	}
	res, err := m.ta.PropagateFor(delta, taylor.PropagateOptions{
		Callback: func(ta *taylor.Integrator) bool {
			m.record(ta.State())
			m.steps = appendCapped(m.steps, math.Abs(ta.LastH()))
			return true
		},
	})
	if err != nil {
		m.err, m.stopped = err, true
		return
	}
	m.nsteps += res.Steps
	m.outcome = res.Outcome
	if res.Outcome != taylor.TimeLimit {
		// the stopping step skips the callback
		m.record(m.ta.State())
		m.stopped = true
	}
}

func (m *Model) record(x dynamo.State) {
	if m.xIdx < len(x) && m.yIdx < len(x) {
		m.trailX = appendCapped(m.trailX, x[m.xIdx])
		m.trailY = appendCapped(m.trailY, x[m.yIdx])
	}
	if m.hasEnergy {
		e := m.ta.System().(dynamo.Hamiltonian).Energy(x)
		d := math.Abs(e - m.energy0)
		if m.energy0 != 0 {
			d /= math.Abs(m.energy0)
		}
		m.drift = appendCapped(m.drift, d)
	}
}

func appendCapped(s []float64, v float64) []float64 {
	s = append(s, v)
	if len(s) > historyCapacity {
		s = s[len(s)-historyCapacity:]
	}
	return s
}

func (m *Model) adjustParam(factor float64) {
	if len(m.paramKeys) == 0 {
		return
	}
	key := m.paramKeys[m.selected]
	c := m.ta.System().(dynamo.Configurable)
	if err := c.SetParam(key, m.params[key]*factor); err != nil {
		m.err = err
		return
	}
	m.params[key] *= factor
	// energy is only conserved for fixed parameters
	m.resetEnergy()
	m.drift = m.drift[:0]
}

// reset restores the initial state, time and parameters.
func (m *Model) reset() {
	if c, ok := m.ta.System().(dynamo.Configurable); ok {
		for k, v := range m.initialParams {
			c.SetParam(k, v)
			m.params[k] = v
		}
	}
	m.ta.SetState(m.start.State())
	m.ta.SetTime(m.start.Time())
	m.ta.ResetCooldowns()

	m.trailX, m.trailY = m.trailX[:0], m.trailY[:0]
	m.drift, m.steps = m.drift[:0], m.steps[:0]
	m.nsteps, m.stopped, m.err, m.backward = 0, false, nil, false
	m.outcome = taylor.Success
	m.resetEnergy()
	m.record(m.ta.State())
}

func (m Model) status() string {
	switch {
	case m.err != nil:
		return statusStopped.Render("ERROR " + m.err.Error())
	case m.stopped:
		return statusStopped.Render("STOPPED " + m.outcome.String())
	case !m.running:
		return statusPaused.Render("PAUSED")
	case m.backward:
		return statusRunning.Render("RUNNING ◀")
	}
	return statusRunning.Render("RUNNING ▶")
}

func (m Model) View() string {
	canvas := NewCanvas(canvasWidth, canvasHeight)
	canvas.Polyline(Fit(m.trailX, m.trailY), m.trailX, m.trailY)
	left := panelStyle.Render(
		titleStyle.Render(fmt.Sprintf("%s  x%d / x%d", strings.ToUpper(m.name), m.xIdx, m.yIdx)) + "\n" +
			canvas.String(),
	)

	var s strings.Builder
	s.WriteString(m.status() + "\n\n")
	row := func(label, value string) {
		s.WriteString(labelStyle.Render(label) + valueStyle.Render(value) + "\n")
	}
	row("Time", fmt.Sprintf("%.6f", m.ta.Time()))
	row("Order", fmt.Sprintf("%d", m.ta.Order()))
	row("Steps", fmt.Sprintf("%d", m.nsteps))
	row("Last h", fmt.Sprintf("%.3e", m.ta.LastH()))
	if m.hasEnergy && len(m.drift) > 0 {
		row("Drift", fmt.Sprintf("%.3e", m.drift[len(m.drift)-1]))
	}
	if !math.IsInf(m.target, 0) && m.target != 0 {
		s.WriteString(ProgressBar(m.ta.Time()/m.target, 24) + "\n")
	}

	if len(m.paramKeys) > 0 {
		s.WriteString("\n")
		for i, k := range m.paramKeys {
			label := labelStyle.Render(k)
			if i == m.selected {
				label = activeStyle.Render("▸ " + k)
			}
			s.WriteString(label + " " + valueStyle.Render(fmt.Sprintf("%.4g", m.params[k])) + "\n")
		}
	}

	s.WriteString("\n" + hintStyle.Render("step sizes") + "\n" + Sparkline(m.steps, 30) + "\n")
	if len(m.drift) > 1 {
		chart := asciigraph.Plot(m.drift, asciigraph.Height(5), asciigraph.Width(30), asciigraph.Caption("energy drift"))
		s.WriteString("\n" + chart + "\n")
	}

	if m.showHelp {
		s.WriteString("\n" + hintStyle.Render("space pause · b reverse · r reset · tab/↑/↓ params · q quit"))
	} else {
		s.WriteString("\n" + hintStyle.Render("? help"))
	}

	return lipgloss.JoinHorizontal(lipgloss.Top, left, panelStyle.Render(s.String()))
}

// Run starts the live view on the terminal.
func Run(m Model) error {
	_, err := tea.NewProgram(m, tea.WithAltScreen()).Run()
	return err
}
