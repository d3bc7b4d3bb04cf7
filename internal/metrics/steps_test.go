package metrics

import (
	"math"
	"testing"

	"github.com/san-kum/taylorsim/internal/dynamo"
)

func TestMeanStep(t *testing.T) {
	m := NewMeanStep()
	m.Observe(nil, 0, 0)
	for _, h := range []float64{0.1, -0.3, 0.2} {
		m.Observe(nil, 0, h)
	}

	if m.Steps() != 3 {
		t.Errorf("expected 3 steps, got %d", m.Steps())
	}
	if v := m.Value(); v < 0.2-1e-15 || v > 0.2+1e-15 {
		t.Errorf("expected mean 0.2, got %v", v)
	}
	if m.Min() != 0.1 || m.Max() != 0.3 {
		t.Errorf("min/max = %v/%v", m.Min(), m.Max())
	}

	m.Reset()
	if m.Value() != 0 || m.Steps() != 0 {
		t.Error("expected empty metric after reset")
	}
}

func TestStability(t *testing.T) {
	s := NewStability(1)
	s.Observe(dynamo.State{0.5, 0.5}, 0, 0)
	s.Observe(dynamo.State{2, 0}, 0, 0)
	if s.Value() != 0.5 {
		t.Errorf("expected 0.5, got %v", s.Value())
	}

	s.Observe(dynamo.State{math.NaN(), 0}, 0, 0)
	s.Observe(dynamo.State{0, math.Inf(-1)}, 0, 0)
	if s.Value() != 0.25 {
		t.Errorf("non-finite states should count as unbounded, got %v", s.Value())
	}

	s.Reset()
	if s.Value() != 1 {
		t.Errorf("expected 1 after reset, got %v", s.Value())
	}
}

func TestEventCounter(t *testing.T) {
	c := NewEventCounter("y")
	c.Record(1)
	c.Record(2)

	got := Collect([]Metric{c, NewStability(1)})
	if got["events_y"] != 2 {
		t.Errorf("expected 2 events, got %v", got)
	}
	if c.Times()[0] != 1 || c.Times()[1] != 2 {
		t.Errorf("unexpected record: %v", c.Times())
	}
	if got["stability"] != 1 {
		t.Errorf("expected stability 1 with no samples, got %v", got["stability"])
	}
}
