package taylor

import (
	"math"

	"github.com/go-kit/kit/log/level"
	"gonum.org/v1/gonum/mat"

	"github.com/san-kum/taylorsim/internal/dynamo"
)

// Result summarises a propagation call. MinH and MaxH are step magnitudes;
// with no steps taken they are +Inf and 0.
type Result struct {
	Outcome Outcome
	MinH    float64
	MaxH    float64
	Steps   int
}

// GridResult adds one row of States per grid point. Rows the propagation
// never reached are NaN.
type GridResult struct {
	Result
	States *mat.Dense
}

func newResult() Result {
	return Result{Outcome: TimeLimit, MinH: math.Inf(1)}
}

func (r *Result) record(h float64) {
	r.Steps++
	a := math.Abs(h)
	r.MinH = math.Min(r.MinH, a)
	r.MaxH = math.Max(r.MaxH, a)
}

func (r *Result) merge(o Result) {
	r.Outcome = o.Outcome
	r.Steps += o.Steps
	r.MinH = math.Min(r.MinH, o.MinH)
	r.MaxH = math.Max(r.MaxH, o.MaxH)
}

// PropagateFor propagates by delta, forward or backward by its sign.
// The target is computed in double-length arithmetic, so propagating by d
// and then by -d restores the starting time exactly.
func (ta *Integrator) PropagateFor(delta float64, opts PropagateOptions) (Result, error) {
	const op = "propagate_for"
	if !finite(delta) {
		return Result{}, dynamo.Usagef(op, dynamo.ErrInvalidTime, "duration %v", delta)
	}
	return ta.propagate(op, ta.time.add(delta), opts, nil)
}

// PropagateUntil propagates until the time equals t. On TimeLimit the
// stored time is exactly t.
func (ta *Integrator) PropagateUntil(t float64, opts PropagateOptions) (Result, error) {
	const op = "propagate_until"
	if !finite(t) {
		return Result{}, dynamo.Usagef(op, dynamo.ErrInvalidTime, "target %v", t)
	}
	return ta.propagate(op, dtimeOf(t), opts, nil)
}

// PropagateGrid reports the state at every point of a strictly monotonic
// grid. If the integrator is not at grid[0] it first propagates there with
// the same options; those steps count towards the result. Each adaptive
// step fills every grid point it spans through dense output.
func (ta *Integrator) PropagateGrid(grid []float64, opts PropagateOptions) (GridResult, error) {
	const op = "propagate_grid"
	if len(grid) == 0 {
		return GridResult{}, dynamo.Usagef(op, dynamo.ErrInvalidGrid, "empty grid")
	}
	for i, g := range grid {
		if !finite(g) {
			return GridResult{}, dynamo.Usagef(op, dynamo.ErrInvalidGrid, "grid[%d] = %v", i, g)
		}
	}
	dir := 1.0
	if len(grid) > 1 && grid[1] < grid[0] {
		dir = -1
	}
	for i := 1; i < len(grid); i++ {
		if !(dir*(grid[i]-grid[i-1]) > 0) {
			return GridResult{}, dynamo.Usagef(op, dynamo.ErrInvalidGrid, "grid not strictly monotonic at index %d", i)
		}
	}
	if err := checkOptions(op, opts); err != nil {
		return GridResult{}, err
	}

	states := mat.NewDense(len(grid), ta.Dim(), nil)
	for i := 0; i < len(grid); i++ {
		for j := 0; j < ta.Dim(); j++ {
			states.Set(i, j, math.NaN())
		}
	}

	res := newResult()
	start := dtimeOf(grid[0])
	if ta.time.sub(start) != 0 {
		pre, err := ta.propagate(op, start, opts, nil)
		if err != nil {
			return GridResult{}, err
		}
		res = pre
		if pre.Outcome != TimeLimit {
			return GridResult{Result: res, States: states}, nil
		}
	}
	states.SetRow(0, ta.state)
	if len(grid) == 1 {
		return GridResult{Result: res, States: states}, nil
	}

	rest := opts
	if opts.MaxSteps > 0 {
		rest.MaxSteps = opts.MaxSteps - res.Steps
		if rest.MaxSteps <= 0 {
			res.Outcome = StepLimit
			return GridResult{Result: res, States: states}, nil
		}
	}

	next := 1
	row := make([]float64, ta.Dim())
	observe := func(t0 dtime, h float64) {
		for next < len(grid) {
			tau := dtimeOf(grid[next]).sub(t0)
			if dir*tau > dir*h {
				return
			}
			evalTC(ta.tc, tau, row)
			states.SetRow(next, row)
			next++
		}
	}
	post, err := ta.propagate(op, dtimeOf(grid[len(grid)-1]), rest, observe)
	if err != nil {
		return GridResult{}, err
	}
	res.merge(post)
	return GridResult{Result: res, States: states}, nil
}

func checkOptions(op string, opts PropagateOptions) error {
	if math.IsNaN(opts.MaxDeltaT) || opts.MaxDeltaT < 0 {
		return dynamo.Usagef(op, dynamo.ErrInvalidStep, "max_delta_t %v", opts.MaxDeltaT)
	}
	if opts.MaxSteps < 0 {
		return dynamo.Usagef(op, dynamo.ErrInvalidStep, "max_steps %d", opts.MaxSteps)
	}
	return nil
}

// propagate steps towards target. observe, if set, sees every committed
// step with its start time before the user callback runs.
func (ta *Integrator) propagate(op string, target dtime, opts PropagateOptions, observe func(t0 dtime, h float64)) (Result, error) {
	if err := checkOptions(op, opts); err != nil {
		return Result{}, err
	}

	res := newResult()
	for ta.time.sub(target) != 0 {
		if opts.MaxSteps > 0 && res.Steps >= opts.MaxSteps {
			res.Outcome = StepLimit
			break
		}

		rem := target.sub(ta.time)
		limit, land := rem, &target
		if opts.MaxDeltaT > 0 && math.Abs(rem) > opts.MaxDeltaT {
			limit, land = math.Copysign(opts.MaxDeltaT, rem), nil
		}

		t0 := ta.time
		out, h := ta.step(limit, land)
		if out == ErrNFState {
			res.Outcome = out
			break
		}
		res.record(h)
		if observe != nil {
			observe(t0, h)
		}
		if out.isStop() {
			res.Outcome = out
			break
		}
		if opts.Callback != nil && !opts.Callback(ta) {
			res.Outcome = CbStop
			break
		}
		res.Outcome = TimeLimit
	}

	level.Debug(ta.logger).Log(
		"op", op,
		"outcome", res.Outcome,
		"steps", res.Steps,
		"min_h", res.MinH,
		"max_h", res.MaxH,
		"t", ta.Time(),
	)
	return res, nil
}
