package analysis

import (
	"math"

	"github.com/san-kum/taylorsim/internal/dynamo"
	"github.com/san-kum/taylorsim/internal/jet"
	"github.com/san-kum/taylorsim/internal/taylor"
)

// LyapunovExponent estimates the largest Lyapunov exponent using the
// trajectory separation method. A positive value indicates chaos.
//
// Algorithm:
// 1. Run two trajectories d0 apart
// 2. Every interval, measure their separation d and add ln(d/d0)
// 3. Pull the perturbed one back to distance d0 along the separation
// 4. λ ≈ sum / (intervals * interval)
func LyapunovExponent(
	sys jet.System,
	x0 dynamo.State,
	d0, interval float64,
	intervals int,
	opts ...taylor.Option,
) (float64, error) {
	ta, err := taylor.New(sys, x0, opts...)
	if err != nil {
		return 0, err
	}
	tp := ta.Copy()
	tp.State()[0] += d0

	sumLog := 0.0
	for i := 0; i < intervals; i++ {
		for _, it := range []*taylor.Integrator{ta, tp} {
			res, err := it.PropagateFor(interval, taylor.PropagateOptions{})
			if err != nil {
				return 0, err
			}
			if res.Outcome != taylor.TimeLimit {
				return 0, dynamo.Usagef("lyapunov", dynamo.ErrInvalidState, "propagation stopped with %v", res.Outcome)
			}
		}

		x, xp := ta.State(), tp.State()
		sep := xp.Sub(x).Norm()
		if sep == 0 {
			continue
		}
		sumLog += math.Log(sep / d0)

		scale := d0 / sep
		for j := range xp {
			xp[j] = x[j] + (xp[j]-x[j])*scale
		}
	}

	if intervals <= 0 {
		return 0, nil
	}
	return sumLog / (float64(intervals) * interval), nil
}
