package metrics

import (
	"math"

	"github.com/san-kum/taylorsim/internal/dynamo"
)

// MeanStep is the mean step magnitude. Samples with h == 0 are ignored.
type MeanStep struct {
	steps int
	total float64
	min   float64
	max   float64
}

func NewMeanStep() *MeanStep { return &MeanStep{min: math.Inf(1)} }

func (m *MeanStep) Name() string { return "mean_step" }

func (m *MeanStep) Observe(_ dynamo.State, _, h float64) {
	if h == 0 {
		return
	}
	a := math.Abs(h)
	m.steps++
	m.total += a
	m.min = math.Min(m.min, a)
	m.max = math.Max(m.max, a)
}

func (m *MeanStep) Value() float64 {
	if m.steps == 0 {
		return 0
	}
	return m.total / float64(m.steps)
}

func (m *MeanStep) Steps() int   { return m.steps }
func (m *MeanStep) Min() float64 { return m.min }
func (m *MeanStep) Max() float64 { return m.max }

func (m *MeanStep) Reset() {
	*m = MeanStep{min: math.Inf(1)}
}

// EventCounter counts event triggers reported through Record.
type EventCounter struct {
	name  string
	times []float64
}

func NewEventCounter(name string) *EventCounter {
	return &EventCounter{name: name}
}

func (c *EventCounter) Name() string { return "events_" + c.name }

// Label is the event name without the metric prefix.
func (c *EventCounter) Label() string { return c.name }

func (c *EventCounter) Record(t float64) { c.times = append(c.times, t) }

func (c *EventCounter) Observe(dynamo.State, float64, float64) {}

func (c *EventCounter) Value() float64 { return float64(len(c.times)) }

// Times returns the recorded trigger times in order.
func (c *EventCounter) Times() []float64 { return c.times }

func (c *EventCounter) Reset() {
	c.times = c.times[:0]
}
