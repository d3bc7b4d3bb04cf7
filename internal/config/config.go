package config

import (
	"fmt"
	"math"
	"os"

	"gonum.org/v1/gonum/floats"
	"gopkg.in/yaml.v3"

	"github.com/san-kum/taylorsim/internal/dynamo"
)

const (
	DefaultTolerance  = 2.220446049250313e-16
	DefaultDuration   = 10.0
	DefaultGridPoints = 101
)

// Propagation modes.
const (
	ModeUntil = "until"
	ModeFor   = "for"
	ModeGrid  = "grid"
)

type Config struct {
	System    string             `yaml:"system"`
	Params    map[string]float64 `yaml:"params,omitempty"`
	Pars      []float64          `yaml:"pars,omitempty"`
	InitState []float64          `yaml:"init_state,omitempty"`
	T0        float64            `yaml:"t0"`
	Tolerance float64            `yaml:"tolerance"`
	Order     int                `yaml:"order,omitempty"`
	Mode      string             `yaml:"mode"`
	Target    float64            `yaml:"target,omitempty"`
	Duration  float64            `yaml:"duration,omitempty"`
	Grid      GridConfig         `yaml:"grid,omitempty"`
	MaxDeltaT float64            `yaml:"max_delta_t,omitempty"`
	MaxSteps  int                `yaml:"max_steps,omitempty"`
	Events    []EventConfig      `yaml:"events,omitempty"`
}

// GridConfig is an evenly spaced output grid from Start to Stop inclusive.
type GridConfig struct {
	Start  float64 `yaml:"start"`
	Stop   float64 `yaml:"stop"`
	Points int     `yaml:"points"`
}

// EventConfig describes the event x[Component] = Value.
type EventConfig struct {
	Name      string  `yaml:"name"`
	Terminal  bool    `yaml:"terminal,omitempty"`
	Component int     `yaml:"component"`
	Value     float64 `yaml:"value,omitempty"`
	Direction string  `yaml:"direction,omitempty"`
	Cooldown  float64 `yaml:"cooldown,omitempty"`
}

func DefaultConfig() *Config {
	return &Config{
		System:    "pendulum",
		Tolerance: DefaultTolerance,
		Mode:      ModeFor,
		Duration:  DefaultDuration,
		Grid: GridConfig{
			Stop:   DefaultDuration,
			Points: DefaultGridPoints,
		},
	}
}

func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	cfg := DefaultConfig()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func Save(path string, cfg *Config) error {
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0644)
}

// Validate checks the fields that do not depend on the chosen system.
func (c *Config) Validate() error {
	if c.System == "" {
		return fmt.Errorf("config: system is required")
	}
	if !(c.Tolerance > 0) || math.IsInf(c.Tolerance, 0) {
		return fmt.Errorf("config: %w: %v", dynamo.ErrInvalidTolerance, c.Tolerance)
	}
	if c.Order != 0 && c.Order < 2 {
		return fmt.Errorf("config: %w: %d", dynamo.ErrInvalidOrder, c.Order)
	}
	if !finite(c.T0) {
		return fmt.Errorf("config: %w: t0 = %v", dynamo.ErrInvalidTime, c.T0)
	}
	switch c.Mode {
	case ModeUntil:
		if !finite(c.Target) {
			return fmt.Errorf("config: %w: target = %v", dynamo.ErrInvalidTime, c.Target)
		}
	case ModeFor:
		if !finite(c.Duration) {
			return fmt.Errorf("config: %w: duration = %v", dynamo.ErrInvalidTime, c.Duration)
		}
	case ModeGrid:
		g := c.Grid
		if g.Points < 1 || !finite(g.Start) || !finite(g.Stop) || (g.Points > 1 && g.Start == g.Stop) {
			return fmt.Errorf("config: %w: %+v", dynamo.ErrInvalidGrid, g)
		}
	default:
		return fmt.Errorf("config: unknown mode %q", c.Mode)
	}
	if math.IsNaN(c.MaxDeltaT) || c.MaxDeltaT < 0 || c.MaxSteps < 0 {
		return fmt.Errorf("config: %w: max_delta_t = %v, max_steps = %d", dynamo.ErrInvalidStep, c.MaxDeltaT, c.MaxSteps)
	}
	for i, ev := range c.Events {
		if ev.Component < 0 {
			return fmt.Errorf("config: event %d: negative component", i)
		}
		switch ev.Direction {
		case "", "any", "positive", "negative":
		default:
			return fmt.Errorf("config: event %d: unknown direction %q", i, ev.Direction)
		}
		if math.IsNaN(ev.Cooldown) || ev.Cooldown < 0 {
			return fmt.Errorf("config: event %d: %w: cooldown %v", i, dynamo.ErrInvalidStep, ev.Cooldown)
		}
	}
	return nil
}

// GridTimes expands Grid into its time points.
func (c *Config) GridTimes() []float64 {
	if c.Grid.Points == 1 {
		return []float64{c.Grid.Start}
	}
	return floats.Span(make([]float64, c.Grid.Points), c.Grid.Start, c.Grid.Stop)
}

// End is the time the run is expected to finish at, starting from T0.
func (c *Config) End() float64 {
	switch c.Mode {
	case ModeUntil:
		return c.Target
	case ModeGrid:
		return c.Grid.Stop
	}
	return c.T0 + c.Duration
}

func finite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}
