package taylor

import (
	"context"
	"runtime"

	"golang.org/x/sync/errgroup"
	"gonum.org/v1/gonum/mat"

	"github.com/san-kum/taylorsim/internal/dynamo"
)

// EnsembleResult is the outcome of one member of an ensemble run.
type EnsembleResult struct {
	Integrator *Integrator
	Result     Result
	// States is set by EnsemblePropagateGrid only.
	States *mat.Dense
	Err    error
}

// Generator customises the i-th copy of the base integrator before it is
// propagated, typically by changing its state or parameters.
type Generator func(ta *Integrator, i int) *Integrator

// EnsemblePropagateUntil propagates n copies of base until t, up to
// GOMAXPROCS at a time. The base integrator is only read. Cancelling ctx
// stops members at their next step with CbStop.
func EnsemblePropagateUntil(ctx context.Context, base *Integrator, t float64, n int, gen Generator, opts PropagateOptions) ([]EnsembleResult, error) {
	return ensemble(ctx, "ensemble_propagate_until", base, n, gen, opts, func(ta *Integrator, o PropagateOptions) (GridResult, error) {
		r, err := ta.PropagateUntil(t, o)
		return GridResult{Result: r}, err
	})
}

// EnsemblePropagateFor propagates n copies of base by delta each.
func EnsemblePropagateFor(ctx context.Context, base *Integrator, delta float64, n int, gen Generator, opts PropagateOptions) ([]EnsembleResult, error) {
	return ensemble(ctx, "ensemble_propagate_for", base, n, gen, opts, func(ta *Integrator, o PropagateOptions) (GridResult, error) {
		r, err := ta.PropagateFor(delta, o)
		return GridResult{Result: r}, err
	})
}

// EnsemblePropagateGrid runs PropagateGrid on n copies of base.
func EnsemblePropagateGrid(ctx context.Context, base *Integrator, grid []float64, n int, gen Generator, opts PropagateOptions) ([]EnsembleResult, error) {
	return ensemble(ctx, "ensemble_propagate_grid", base, n, gen, opts, func(ta *Integrator, o PropagateOptions) (GridResult, error) {
		return ta.PropagateGrid(grid, o)
	})
}

func ensemble(ctx context.Context, op string, base *Integrator, n int, gen Generator, opts PropagateOptions,
	run func(*Integrator, PropagateOptions) (GridResult, error)) ([]EnsembleResult, error) {
	if base == nil || n <= 0 {
		return nil, dynamo.Usagef(op, dynamo.ErrDimensionMismatch, "need a base integrator and n > 0, got n = %d", n)
	}

	results := make([]EnsembleResult, n)
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(runtime.GOMAXPROCS(0))

	for i := 0; i < n; i++ {
		i := i
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			ta := base.Copy()
			if gen != nil {
				ta = gen(ta, i)
			}
			if ta == nil {
				results[i].Err = dynamo.Usagef(op, dynamo.ErrInvalidState, "generator returned nil for member %d", i)
				return nil
			}

			o := opts
			user := opts.Callback
			o.Callback = func(ta *Integrator) bool {
				if gctx.Err() != nil {
					return false
				}
				return user == nil || user(ta)
			}

			gr, err := run(ta, o)
			results[i] = EnsembleResult{Integrator: ta, Result: gr.Result, States: gr.States, Err: err}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return results, err
	}
	return results, ctx.Err()
}
