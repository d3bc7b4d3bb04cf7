package taylor

import "math"

// StepPolicy chooses the natural step magnitude from the Taylor
// coefficients of the current step. tc[i][k] is the k-th normalised
// derivative of component i. The result must be positive; +Inf means the
// expansion is exact at every step size.
type StepPolicy interface {
	StepSize(tc [][]float64) float64
}

// JorbaZou estimates the radius of convergence from the two highest-order
// coefficients and scales it by exp(-0.7/(p-1))/e². The error control is
// absolute while max|x| < 1 and relative otherwise; the tolerance acts
// through the order.
type JorbaZou struct{}

func (JorbaZou) StepSize(tc [][]float64) float64 {
	p := len(tc[0]) - 1
	maxState := colMaxAbs(tc, 0)
	maxPm1 := colMaxAbs(tc, p-1)
	maxP := colMaxAbs(tc, p)

	num := 1.0
	if maxState >= 1 {
		num = maxState
	}
	rhoPm1 := math.Pow(num/maxPm1, 1/float64(p-1))
	rhoP := math.Pow(num/maxP, 1/float64(p))
	rho := math.Min(rhoPm1, rhoP)

	return rho * math.Exp(-0.7/float64(p-1)) / (math.E * math.E)
}

// FixedStep always proposes the same magnitude. It is mostly useful for
// comparisons against fixed-step methods.
type FixedStep float64

func (f FixedStep) StepSize([][]float64) float64 {
	return math.Abs(float64(f))
}

func colMaxAbs(tc [][]float64, k int) float64 {
	m := 0.0
	for i := range tc {
		v := math.Abs(tc[i][k])
		if v > m || math.IsNaN(v) {
			m = v
		}
	}
	return m
}
