package experiment

import (
	"fmt"
	"math"
	"sort"

	"github.com/san-kum/taylorsim/internal/config"
	"github.com/san-kum/taylorsim/internal/dynamo"
	"github.com/san-kum/taylorsim/internal/integrators"
	"github.com/san-kum/taylorsim/internal/jet"
	"github.com/san-kum/taylorsim/internal/taylor"
)

// Method integrates sys from (t0, x0) to t1 and returns the final state and
// the number of accepted steps.
type Method func(sys jet.System, x0 dynamo.State, cfg *config.Config, t1 float64) (dynamo.State, int, error)

// DefaultFixedStep is the RK4 step used when the config sets no
// max_delta_t.
const DefaultFixedStep = 0.01

type Registry struct {
	methods map[string]Method
}

func NewRegistry() *Registry {
	r := &Registry{methods: make(map[string]Method)}
	r.Register("taylor", taylorMethod)
	r.Register("rk4", rk4Method)
	r.Register("rk45", rk45Method)
	return r
}

func taylorMethod(sys jet.System, x0 dynamo.State, cfg *config.Config, t1 float64) (dynamo.State, int, error) {
	opts := []taylor.Option{taylor.WithTime(cfg.T0), taylor.WithTolerance(cfg.Tolerance), taylor.WithPars(cfg.Pars...)}
	if cfg.Order > 0 {
		opts = append(opts, taylor.WithOrder(cfg.Order))
	}
	ta, err := taylor.New(sys, x0, opts...)
	if err != nil {
		return nil, 0, err
	}
	res, err := ta.PropagateUntil(t1, taylor.PropagateOptions{MaxDeltaT: cfg.MaxDeltaT})
	if err != nil {
		return nil, 0, err
	}
	if res.Outcome != taylor.TimeLimit {
		return ta.State().Clone(), res.Steps, fmt.Errorf("taylor: stopped with %v at t = %v", res.Outcome, ta.Time())
	}
	return ta.State().Clone(), res.Steps, nil
}

func rk4Method(sys jet.System, x0 dynamo.State, cfg *config.Config, t1 float64) (dynamo.State, int, error) {
	dt := cfg.MaxDeltaT
	if dt == 0 {
		dt = DefaultFixedStep
	}
	return integrators.NewRK4().Integrate(sys, x0, cfg.Pars, cfg.T0, t1, dt)
}

func rk45Method(sys jet.System, x0 dynamo.State, cfg *config.Config, t1 float64) (dynamo.State, int, error) {
	// Dormand-Prince cannot get near machine precision.
	tol := math.Max(cfg.Tolerance, 1e-12)
	x, stats, err := integrators.NewRK45().Integrate(sys, x0, cfg.Pars, cfg.T0, t1, tol)
	return x, stats.Accepted, err
}

func (r *Registry) Register(name string, m Method) {
	r.methods[name] = m
}

func (r *Registry) GetMethod(name string) (Method, error) {
	m, ok := r.methods[name]
	if !ok {
		return nil, fmt.Errorf("unknown method: %s", name)
	}
	return m, nil
}

func (r *Registry) ListMethods() []string {
	names := make([]string, 0, len(r.methods))
	for name := range r.methods {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
