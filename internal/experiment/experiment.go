package experiment

import (
	"context"
	"fmt"
	"math"
	"time"

	kitlog "github.com/go-kit/kit/log"
	"github.com/go-kit/kit/log/level"

	"github.com/san-kum/taylorsim/internal/config"
	"github.com/san-kum/taylorsim/internal/dynamo"
	"github.com/san-kum/taylorsim/internal/jet"
	"github.com/san-kum/taylorsim/internal/metrics"
	"github.com/san-kum/taylorsim/internal/systems"
	"github.com/san-kum/taylorsim/internal/taylor"
)

// Observer sees every committed step of a run.
type Observer interface {
	OnStep(x dynamo.State, t, h float64)
}

// ObserverFunc adapts a function to Observer.
type ObserverFunc func(x dynamo.State, t, h float64)

func (f ObserverFunc) OnStep(x dynamo.State, t, h float64) { f(x, t, h) }

type Result struct {
	// States and Times hold the trajectory: one sample per step for until
	// and for runs, one per grid point for grid runs.
	States  []dynamo.State
	Times   []float64
	Outcome taylor.Outcome
	MinH    float64
	MaxH    float64
	Steps   int
	Events  map[string][]float64
	Metrics map[string]float64
	Elapsed time.Duration

	// Final is the integrator as the run left it, for resuming later.
	Final taylor.Snapshot
}

type Experiment struct {
	cfg       *config.Config
	sys       systems.Model
	x0        dynamo.State
	ta        *taylor.Integrator
	metrics   []metrics.Metric
	observers []Observer
	counters  []*metrics.EventCounter
	logger    kitlog.Logger

	// opts rebuilds the integrator without events.
	opts []taylor.Option
}

// New builds the system, events and integrator described by cfg.
func New(cfg *config.Config, logger kitlog.Logger) (*Experiment, error) {
	if logger == nil {
		logger = kitlog.NewNopLogger()
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	sys, err := systems.Get(cfg.System)
	if err != nil {
		return nil, err
	}
	if err := systems.Configure(sys, cfg.Params); err != nil {
		return nil, err
	}

	x0 := sys.DefaultState()
	if len(cfg.InitState) > 0 {
		x0 = dynamo.State(cfg.InitState).Clone()
	}

	e := &Experiment{cfg: cfg, sys: sys, x0: x0, logger: logger}

	opts := []taylor.Option{
		taylor.WithTime(cfg.T0),
		taylor.WithTolerance(cfg.Tolerance),
		taylor.WithPars(cfg.Pars...),
		taylor.WithLogger(logger),
	}
	if cfg.Order > 0 {
		opts = append(opts, taylor.WithOrder(cfg.Order))
	}
	e.opts = opts
	evOpts, err := e.buildEvents(sys.Dim())
	if err != nil {
		return nil, err
	}

	e.ta, err = taylor.New(sys, x0, append(opts[:len(opts):len(opts)], evOpts...)...)
	if err != nil {
		return nil, err
	}

	e.metrics = []metrics.Metric{
		metrics.NewEnergyDrift(sys),
		metrics.NewMeanStep(),
		metrics.NewStability(1e6),
	}
	if h, ok := sys.(dynamo.Hamiltonian); ok {
		e.metrics = append(e.metrics, metrics.NewEnergy(h))
	}
	for _, c := range e.counters {
		e.metrics = append(e.metrics, c)
	}
	return e, nil
}

// levelCrossing is the event x[i] - value = 0.
func levelCrossing(i int, value float64) jet.Func {
	return func(x []jet.Series, _ []float64, _ jet.Series) jet.Series {
		return jet.Shift(x[i], -value)
	}
}

func direction(s string) taylor.Direction {
	switch s {
	case "positive":
		return taylor.Positive
	case "negative":
		return taylor.Negative
	}
	return taylor.Any
}

func (e *Experiment) buildEvents(dim int) ([]taylor.Option, error) {
	var ntes []taylor.NonTerminalEvent
	var tes []taylor.TerminalEvent
	for i, ev := range e.cfg.Events {
		if ev.Component >= dim {
			return nil, fmt.Errorf("event %d: %w: component %d, system has %d", i, dynamo.ErrDimensionMismatch, ev.Component, dim)
		}
		name := ev.Name
		if name == "" {
			name = fmt.Sprintf("x%d=%g", ev.Component, ev.Value)
		}
		counter := metrics.NewEventCounter(name)
		e.counters = append(e.counters, counter)

		if ev.Terminal {
			tes = append(tes, taylor.TerminalEvent{
				Eq:        levelCrossing(ev.Component, ev.Value),
				Direction: direction(ev.Direction),
				Cooldown:  ev.Cooldown,
				Callback: func(ta *taylor.Integrator, _ bool, _ int) bool {
					counter.Record(ta.Time())
					return false
				},
			})
			continue
		}
		ntes = append(ntes, taylor.NonTerminalEvent{
			Eq:        levelCrossing(ev.Component, ev.Value),
			Direction: direction(ev.Direction),
			Callback: func(_ *taylor.Integrator, t float64, _ int) {
				counter.Record(t)
			},
		})
	}
	return []taylor.Option{taylor.WithNonTerminalEvents(ntes...), taylor.WithTerminalEvents(tes...)}, nil
}

func (e *Experiment) AddObserver(o Observer) { e.observers = append(e.observers, o) }

// Integrator returns the underlying integrator for direct stepping.
func (e *Experiment) Integrator() *taylor.Integrator { return e.ta }
func (e *Experiment) System() systems.Model          { return e.sys }
func (e *Experiment) Config() *config.Config         { return e.cfg }

// Resume restores a snapshot of an earlier run of the same system, so the
// next Run continues from there.
func (e *Experiment) Resume(s taylor.Snapshot) error {
	return e.ta.Restore(s)
}

// InitialState is the state the integrator was built with.
func (e *Experiment) InitialState() dynamo.State { return e.x0.Clone() }

// Run performs the propagation requested by the config. Cancelling ctx
// stops the run at the next step; the partial result is returned along with
// ctx.Err().
func (e *Experiment) Run(ctx context.Context) (*Result, error) {
	for _, m := range e.metrics {
		m.Reset()
	}
	ta := e.ta
	result := &Result{
		Events:  make(map[string][]float64),
		Metrics: make(map[string]float64),
	}
	grid := e.cfg.Mode == config.ModeGrid

	e.observe(ta.State(), ta.Time(), 0)
	if !grid {
		result.States = append(result.States, ta.State().Clone())
		result.Times = append(result.Times, ta.Time())
	}

	opts := taylor.PropagateOptions{
		MaxDeltaT: e.cfg.MaxDeltaT,
		MaxSteps:  e.cfg.MaxSteps,
		Callback: func(ta *taylor.Integrator) bool {
			e.observe(ta.State(), ta.Time(), ta.LastH())
			if !grid {
				result.States = append(result.States, ta.State().Clone())
				result.Times = append(result.Times, ta.Time())
			}
			return ctx.Err() == nil
		},
	}

	start := time.Now()
	var (
		res taylor.Result
		err error
	)
	switch e.cfg.Mode {
	case config.ModeUntil:
		res, err = ta.PropagateUntil(e.cfg.Target, opts)
	case config.ModeFor:
		res, err = ta.PropagateFor(e.cfg.Duration, opts)
	case config.ModeGrid:
		times := e.cfg.GridTimes()
		var gr taylor.GridResult
		gr, err = ta.PropagateGrid(times, opts)
		res = gr.Result
		if err == nil {
			for i, t := range times {
				row := gr.States.RawRowView(i)
				if math.IsNaN(row[0]) {
					break
				}
				result.States = append(result.States, dynamo.State(row).Clone())
				result.Times = append(result.Times, t)
			}
		}
	}
	result.Elapsed = time.Since(start)
	if err != nil {
		return nil, err
	}
	// A stopping event ends the loop before the step callback runs.
	if !grid && ta.Time() != result.Times[len(result.Times)-1] {
		e.observe(ta.State(), ta.Time(), ta.LastH())
		result.States = append(result.States, ta.State().Clone())
		result.Times = append(result.Times, ta.Time())
	}

	result.Outcome = res.Outcome
	result.MinH, result.MaxH, result.Steps = res.MinH, res.MaxH, res.Steps
	for _, c := range e.counters {
		result.Events[c.Label()] = append([]float64(nil), c.Times()...)
	}
	result.Metrics = metrics.Collect(e.metrics)
	result.Final = ta.Snapshot()

	level.Info(e.logger).Log(
		"msg", "run finished",
		"system", e.cfg.System,
		"mode", e.cfg.Mode,
		"outcome", res.Outcome,
		"steps", res.Steps,
		"t", ta.Time(),
		"elapsed", result.Elapsed,
	)

	if res.Outcome == taylor.CbStop && ctx.Err() != nil {
		return result, ctx.Err()
	}
	return result, nil
}

func (e *Experiment) observe(x dynamo.State, t, h float64) {
	for _, m := range e.metrics {
		m.Observe(x, t, h)
	}
	for _, o := range e.observers {
		o.OnStep(x, t, h)
	}
}
