package experiment

import (
	"context"
	"math"
	"time"

	"github.com/san-kum/taylorsim/internal/config"
	"github.com/san-kum/taylorsim/internal/dynamo"
	"github.com/san-kum/taylorsim/internal/systems"
)

type Comparison struct {
	Method string
	Final  dynamo.State
	Steps  int
	// Deviation is the max-norm distance of Final from the first method's
	// final state.
	Deviation   float64
	EnergyDrift float64
	Elapsed     time.Duration
	Err         error
}

// Compare integrates cfg's system to cfg.End() with each method in turn.
// The first method is the reference for Deviation.
func (r *Registry) Compare(ctx context.Context, cfg *config.Config, methods []string) ([]Comparison, error) {
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
	h, hasEnergy := sys.(dynamo.Hamiltonian)

	out := make([]Comparison, 0, len(methods))
	for _, name := range methods {
		if err := ctx.Err(); err != nil {
			return out, err
		}
		m, err := r.GetMethod(name)
		if err != nil {
			return out, err
		}

		start := time.Now()
		x, steps, err := m(sys, x0, cfg, cfg.End())
		c := Comparison{Method: name, Final: x, Steps: steps, Elapsed: time.Since(start), Err: err}
		if x != nil {
			if len(out) > 0 && out[0].Final != nil {
				c.Deviation = x.Sub(out[0].Final).MaxAbs()
			}
			if hasEnergy {
				e0 := h.Energy(x0)
				c.EnergyDrift = math.Abs(h.Energy(x) - e0)
				if e0 != 0 {
					c.EnergyDrift /= math.Abs(e0)
				}
			}
		}
		out = append(out, c)
	}
	return out, nil
}
