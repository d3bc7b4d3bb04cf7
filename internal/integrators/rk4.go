package integrators

import (
	"math"

	"github.com/san-kum/taylorsim/internal/dynamo"
	"github.com/san-kum/taylorsim/internal/jet"
)

type RK4 struct {
	scratch dynamo.State
}

func NewRK4() *RK4 {
	return &RK4{}
}

func (r *RK4) Name() string { return "rk4" }

func (r *RK4) Step(sys jet.System, x dynamo.State, pars []float64, t, dt float64) dynamo.State {
	n := len(x)
	if len(r.scratch) != n {
		r.scratch = make(dynamo.State, n)
	}

	k1 := jet.Evaluate(sys, x, pars, t)

	for i := 0; i < n; i++ {
		r.scratch[i] = x[i] + dt*0.5*k1[i]
	}
	k2 := jet.Evaluate(sys, r.scratch, pars, t+dt*0.5)

	for i := 0; i < n; i++ {
		r.scratch[i] = x[i] + dt*0.5*k2[i]
	}
	k3 := jet.Evaluate(sys, r.scratch, pars, t+dt*0.5)

	for i := 0; i < n; i++ {
		r.scratch[i] = x[i] + dt*k3[i]
	}
	k4 := jet.Evaluate(sys, r.scratch, pars, t+dt)

	result := make(dynamo.State, n)
	dt6 := dt / 6.0
	for i := 0; i < n; i++ {
		result[i] = x[i] + dt6*(k1[i]+2*k2[i]+2*k3[i]+k4[i])
	}
	return result
}

// Integrate takes fixed steps of at most dt from t0 to t1; the last step is
// shortened to land on t1. It returns the final state and the step count.
func (r *RK4) Integrate(sys jet.System, x0 dynamo.State, pars []float64, t0, t1, dt float64) (dynamo.State, int, error) {
	if !(dt > 0) || math.IsInf(dt, 0) {
		return nil, 0, dynamo.Usagef("rk4", dynamo.ErrInvalidStep, "dt %v", dt)
	}
	dir := math.Copysign(1, t1-t0)
	x := x0.Clone()
	t := t0
	steps := 0
	for dir*(t1-t) > 0 {
		h := dir * math.Min(dt, math.Abs(t1-t))
		x = r.Step(sys, x, pars, t, h)
		steps++
		if math.Abs(t1-t-h) < 1e-14*math.Max(1, math.Abs(t1)) {
			t = t1
		} else {
			t += h
		}
	}
	return x, steps, nil
}
