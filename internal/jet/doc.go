// Package jet computes Taylor coefficients of ODE solutions by automatic
// differentiation on truncated power series.
//
// A right-hand side is written once against [Series] arithmetic:
//
//	func (p *Pendulum) Derive(x []jet.Series, pars []float64, t jet.Series) []jet.Series {
//	    return []jet.Series{x[1], jet.Scale(jet.Sin(x[0]), -p.G)}
//	}
//
// [Expand] then produces the normalised derivatives x_i^{[k]} = x_i^{(k)}/k!
// of the solution through (t0, x0) up to a requested order. The same
// function evaluated on length-1 series is the plain derivative
// ([Evaluate]), which lets classic Runge-Kutta steppers share systems with
// the Taylor integrator.
//
// All binary operations require operands of equal length; the result has
// the same length. Operations never modify their inputs.
package jet
