package jet

import "math"

// System is the right-hand side of x' = f(x, pars, t) written in series form.
//
// Derive receives one series per state component, all of the same length,
// plus the time as a series, and must return Dim() series of that length.
// Returning an input series unchanged is allowed.
type System interface {
	Dim() int
	Derive(x []Series, pars []float64, t Series) []Series
}

// Func is the equation of an event, g(x, pars, t), in series form.
type Func func(x []Series, pars []float64, t Series) Series

// MinOrder is the smallest order the step-size estimate can work with.
const MinOrder = 2

// OrderFromTolerance maps an error tolerance to a Taylor order,
// ceil(-ln(tol)/2 + 1), never below MinOrder.
func OrderFromTolerance(tol float64) int {
	order := int(math.Ceil(-math.Log(tol)/2 + 1))
	if order < MinOrder {
		order = MinOrder
	}
	return order
}

// TimeSeries returns t0 + h truncated to length n.
func TimeSeries(t0 float64, n int) Series {
	s := Const(t0, n)
	if n > 1 {
		s[1] = 1
	}
	return s
}

// Expand computes the Taylor coefficients of the solution through (t0, x0).
// tc[i][k] is the k-th normalised derivative of component i, k = 0..order.
func Expand(sys System, x0 []float64, pars []float64, t0 float64, order int) [][]float64 {
	n := len(x0)
	tc := make([][]float64, n)
	for i := range tc {
		tc[i] = make([]float64, order+1)
		tc[i][0] = x0[i]
	}
	ExpandInto(tc, sys, pars, t0)
	return tc
}

// ExpandInto fills tc[i][1:] from tc[i][0], reusing the caller's buffers.
func ExpandInto(tc [][]float64, sys System, pars []float64, t0 float64) {
	if len(tc) == 0 {
		return
	}
	order := len(tc[0]) - 1
	xs := make([]Series, len(tc))
	for k := 0; k < order; k++ {
		for i := range tc {
			xs[i] = Series(tc[i][:k+1])
		}
		d := sys.Derive(xs, pars, TimeSeries(t0, k+1))
		for i := range tc {
			tc[i][k+1] = d[i][k] / float64(k+1)
		}
	}
}

// Evaluate returns f(x, pars, t) as plain values.
func Evaluate(sys System, x []float64, pars []float64, t float64) []float64 {
	xs := make([]Series, len(x))
	for i, v := range x {
		xs[i] = Series{v}
	}
	d := sys.Derive(xs, pars, Series{t})
	out := make([]float64, len(d))
	for i := range d {
		out[i] = d[i][0]
	}
	return out
}

// Compose evaluates g on the full solution expansion tc around t0, giving
// the Taylor coefficients of g(x(t0+h), pars, t0+h) in h.
func Compose(g Func, tc [][]float64, pars []float64, t0 float64) Series {
	if len(tc) == 0 {
		return g(nil, pars, TimeSeries(t0, 1))
	}
	xs := make([]Series, len(tc))
	for i := range tc {
		xs[i] = Series(tc[i])
	}
	return g(xs, pars, TimeSeries(t0, len(tc[0])))
}

// SystemFunc adapts a plain function to System.
type SystemFunc struct {
	N int
	F func(x []Series, pars []float64, t Series) []Series
}

func (s SystemFunc) Dim() int { return s.N }

func (s SystemFunc) Derive(x []Series, pars []float64, t Series) []Series {
	return s.F(x, pars, t)
}
