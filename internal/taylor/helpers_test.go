package taylor_test

import (
	"math"

	. "github.com/onsi/gomega"

	"github.com/san-kum/taylorsim/internal/dynamo"
	"github.com/san-kum/taylorsim/internal/jet"
	"github.com/san-kum/taylorsim/internal/systems"
	"github.com/san-kum/taylorsim/internal/taylor"
)

func newPendulum(opts ...taylor.Option) *taylor.Integrator {
	ta, err := taylor.New(systems.NewPendulum(), dynamo.State{0.05, 0.025}, opts...)
	Expect(err).NotTo(HaveOccurred())
	return ta
}

// newOrbit starts a circular Kepler orbit at polar angle -0.5, so that
// y(t) = sin(t - 0.5).
func newOrbit(opts ...taylor.Option) *taylor.Integrator {
	x0 := dynamo.State{math.Cos(0.5), -math.Sin(0.5), math.Sin(0.5), math.Cos(0.5)}
	ta, err := taylor.New(systems.NewKepler(), x0, opts...)
	Expect(err).NotTo(HaveOccurred())
	return ta
}

// constantDrift is x' = 1, whose solution is a polynomial.
var constantDrift = jet.SystemFunc{
	N: 1,
	F: func(x []jet.Series, _ []float64, _ jet.Series) []jet.Series {
		return []jet.Series{jet.ConstLike(1, x[0])}
	},
}

// poisonedDrift is x' = 1 until t = 1 and NaN afterwards.
var poisonedDrift = jet.SystemFunc{
	N: 1,
	F: func(x []jet.Series, _ []float64, t jet.Series) []jet.Series {
		if t[0] > 1 {
			return []jet.Series{jet.ConstLike(math.NaN(), x[0])}
		}
		return []jet.Series{jet.ConstLike(1, x[0])}
	},
}

func coord(i int) jet.Func {
	return func(x []jet.Series, _ []float64, _ jet.Series) jet.Series {
		return x[i]
	}
}
