package metrics

import "github.com/san-kum/taylorsim/internal/dynamo"

// Metric accumulates a scalar over the committed steps of a run. h is the
// signed size of the step that ended at (x, t); it is 0 for the initial
// sample.
type Metric interface {
	Name() string
	Observe(x dynamo.State, t, h float64)
	Value() float64
	Reset()
}

// Collect returns the current value of every metric keyed by name.
func Collect(ms []Metric) map[string]float64 {
	out := make(map[string]float64, len(ms))
	for _, m := range ms {
		out[m.Name()] = m.Value()
	}
	return out
}
