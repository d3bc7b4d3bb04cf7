// Package optim searches run settings for the best value of a metric.
package optim

import (
	"context"
	"fmt"
	"math"

	kitlog "github.com/go-kit/kit/log"
	"github.com/go-kit/kit/log/level"

	"github.com/san-kum/taylorsim/internal/config"
	"github.com/san-kum/taylorsim/internal/experiment"
	"github.com/san-kum/taylorsim/internal/taylor"
)

// Names accepted besides system parameters.
const (
	ParamTolerance = "tolerance"
	ParamOrder     = "order"

	// MetricSteps minimises the step count rather than a collected metric.
	MetricSteps = "steps"
)

type GridSearch struct {
	paramNames []string
	ranges     [][]float64
	logger     kitlog.Logger
}

// Evaluation is one point of the search.
type Evaluation struct {
	Params  map[string]float64
	Value   float64
	Outcome taylor.Outcome
	Err     error
}

func NewGridSearch(params []string, ranges [][]float64, logger kitlog.Logger) (*GridSearch, error) {
	if len(params) != len(ranges) {
		return nil, fmt.Errorf("grid search: %d names for %d ranges", len(params), len(ranges))
	}
	if logger == nil {
		logger = kitlog.NewNopLogger()
	}
	return &GridSearch{paramNames: params, ranges: ranges, logger: logger}, nil
}

// Search runs base once per combination of values and returns the
// evaluation with the smallest finite metric along with all evaluations.
// A failed point is recorded, not fatal.
func (g *GridSearch) Search(ctx context.Context, base *config.Config, metric string) (Evaluation, []Evaluation, error) {
	var all []Evaluation
	err := g.searchRecursive(ctx, 0, map[string]float64{}, base, metric, &all)

	best := Evaluation{Value: math.Inf(1)}
	found := false
	for _, ev := range all {
		if ev.Err == nil && !math.IsNaN(ev.Value) && ev.Value < best.Value {
			best, found = ev, true
		}
	}
	if err == nil && !found {
		err = fmt.Errorf("grid search: no point produced %s", metric)
	}
	return best, all, err
}

func (g *GridSearch) searchRecursive(
	ctx context.Context,
	depth int,
	current map[string]float64,
	base *config.Config,
	metric string,
	all *[]Evaluation,
) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if depth == len(g.paramNames) {
		ev := g.evaluate(ctx, current, base, metric)
		level.Debug(g.logger).Log("msg", "grid point", "params", fmt.Sprint(ev.Params), "value", ev.Value, "err", ev.Err)
		*all = append(*all, ev)
		return nil
	}

	name := g.paramNames[depth]
	for _, val := range g.ranges[depth] {
		next := make(map[string]float64, len(current)+1)
		for k, v := range current {
			next[k] = v
		}
		next[name] = val
		if err := g.searchRecursive(ctx, depth+1, next, base, metric, all); err != nil {
			return err
		}
	}
	return nil
}

func (g *GridSearch) evaluate(ctx context.Context, point map[string]float64, base *config.Config, metric string) Evaluation {
	ev := Evaluation{Params: point, Value: math.NaN()}

	cfg := *base
	cfg.Params = make(map[string]float64, len(base.Params))
	for k, v := range base.Params {
		cfg.Params[k] = v
	}
	for k, v := range point {
		switch k {
		case ParamTolerance:
			cfg.Tolerance = v
		case ParamOrder:
			cfg.Order = int(v)
		default:
			cfg.Params[k] = v
		}
	}

	exp, err := experiment.New(&cfg, g.logger)
	if err != nil {
		ev.Err = err
		return ev
	}
	result, err := exp.Run(ctx)
	if err != nil {
		ev.Err = err
		return ev
	}
	ev.Outcome = result.Outcome
	if metric == MetricSteps {
		ev.Value = float64(result.Steps)
		return ev
	}
	v, ok := result.Metrics[metric]
	if !ok {
		ev.Err = fmt.Errorf("unknown metric %q", metric)
		return ev
	}
	ev.Value = v
	return ev
}
