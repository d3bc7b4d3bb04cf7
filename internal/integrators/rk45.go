package integrators

import (
	"math"

	"github.com/san-kum/taylorsim/internal/dynamo"
	"github.com/san-kum/taylorsim/internal/jet"
)

// Dormand-Prince coefficients (RK45)
var (
	a2 = 1.0 / 5.0
	a3 = 3.0 / 10.0
	a4 = 4.0 / 5.0
	a5 = 8.0 / 9.0

	b21 = 1.0 / 5.0
	b31 = 3.0 / 40.0
	b32 = 9.0 / 40.0
	b41 = 44.0 / 45.0
	b42 = -56.0 / 15.0
	b43 = 32.0 / 9.0
	b51 = 19372.0 / 6561.0
	b52 = -25360.0 / 2187.0
	b53 = 64448.0 / 6561.0
	b54 = -212.0 / 729.0
	b61 = 9017.0 / 3168.0
	b62 = -355.0 / 33.0
	b63 = 46732.0 / 5247.0
	b64 = 49.0 / 176.0
	b65 = -5103.0 / 18656.0

	c1 = 35.0 / 384.0
	c3 = 500.0 / 1113.0
	c4 = 125.0 / 192.0
	c5 = -2187.0 / 6784.0
	c6 = 11.0 / 84.0

	dc1 = c1 - 5179.0/57600.0
	dc3 = c3 - 7571.0/16695.0
	dc4 = c4 - 393.0/640.0
	dc5 = c5 - -92097.0/339200.0
	dc6 = c6 - 187.0/2100.0
	dc7 = -1.0 / 40.0
)

type RK45 struct {
	safety   float64
	minScale float64
	maxScale float64
}

func NewRK45() *RK45 {
	return &RK45{
		safety:   0.9,
		minScale: 0.2,
		maxScale: 10.0,
	}
}

func (r *RK45) Name() string { return "rk45" }

// Stats counts the work done by Integrate.
type Stats struct {
	Accepted int
	Rejected int
	MinH     float64
	MaxH     float64
}

// StepAdaptive takes one Dormand-Prince step of size dt and returns the new
// state, the error ratio against tol (accept when <= 1) and the proposed
// next step size.
func (r *RK45) StepAdaptive(sys jet.System, x dynamo.State, pars []float64, t, dt, tol float64) (dynamo.State, float64, float64) {
	n := len(x)
	f := func(y dynamo.State, tt float64) []float64 { return jet.Evaluate(sys, y, pars, tt) }
	// stage returns x + dt * sum(b[j] * ks[j]).
	stage := func(b []float64, ks ...[]float64) dynamo.State {
		out := x.Clone()
		for i := 0; i < n; i++ {
			acc := 0.0
			for j, k := range ks {
				acc += b[j] * k[i]
			}
			out[i] += dt * acc
		}
		return out
	}

	k1 := f(x, t)
	k2 := f(stage([]float64{b21}, k1), t+a2*dt)
	k3 := f(stage([]float64{b31, b32}, k1, k2), t+a3*dt)
	k4 := f(stage([]float64{b41, b42, b43}, k1, k2, k3), t+a4*dt)
	k5 := f(stage([]float64{b51, b52, b53, b54}, k1, k2, k3, k4), t+a5*dt)
	k6 := f(stage([]float64{b61, b62, b63, b64, b65}, k1, k2, k3, k4, k5), t+dt)
	xNew := stage([]float64{c1, c3, c4, c5, c6}, k1, k3, k4, k5, k6)
	k7 := f(xNew, t+dt)

	errMax := 0.0
	for i := 0; i < n; i++ {
		errEst := dt * (dc1*k1[i] + dc3*k3[i] + dc4*k4[i] + dc5*k5[i] + dc6*k6[i] + dc7*k7[i])
		scale := math.Abs(x[i]) + math.Abs(dt*k1[i]) + 1e-10
		errMax = math.Max(errMax, math.Abs(errEst)/scale)
	}
	errRatio := errMax / tol

	var dtNew float64
	switch {
	case errRatio > 1:
		dtNew = dt * math.Max(r.minScale, r.safety*math.Pow(errRatio, -0.25))
	case errRatio > 0:
		dtNew = dt * math.Min(r.maxScale, r.safety*math.Pow(errRatio, -0.2))
	default:
		dtNew = dt * r.maxScale
	}
	return xNew, errRatio, dtNew
}

// Integrate runs adaptive steps from t0 to t1 with relative tolerance tol,
// rejecting and retrying steps whose error ratio exceeds one.
func (r *RK45) Integrate(sys jet.System, x0 dynamo.State, pars []float64, t0, t1, tol float64) (dynamo.State, Stats, error) {
	stats := Stats{MinH: math.Inf(1)}
	if !(tol > 0) || math.IsInf(tol, 0) {
		return nil, stats, dynamo.Usagef("rk45", dynamo.ErrInvalidTolerance, "tol %v", tol)
	}
	dir := math.Copysign(1, t1-t0)
	x := x0.Clone()
	t := t0
	dt := dir * math.Min(0.01, math.Abs(t1-t0))

	for dir*(t1-t) > 0 {
		if dir*(t+dt-t1) > 0 {
			dt = t1 - t
		}
		xNew, ratio, next := r.StepAdaptive(sys, x, pars, t, dt, tol)
		if math.IsNaN(ratio) || !xNew.IsValid() {
			return x, stats, dynamo.ErrInvalidState
		}
		if ratio > 1 {
			stats.Rejected++
			dt = next
			if math.Abs(dt) < 1e-14*math.Max(1, math.Abs(t)) {
				return x, stats, dynamo.Usagef("rk45", dynamo.ErrInvalidStep, "step size underflow at t = %v", t)
			}
			continue
		}
		stats.Accepted++
		stats.MinH = math.Min(stats.MinH, math.Abs(dt))
		stats.MaxH = math.Max(stats.MaxH, math.Abs(dt))
		x = xNew
		if dir*(t+dt-t1) >= 0 {
			t = t1
		} else {
			t += dt
		}
		dt = next
	}
	return x, stats, nil
}
