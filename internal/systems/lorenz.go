package systems

import (
	"github.com/san-kum/taylorsim/internal/dynamo"
	"github.com/san-kum/taylorsim/internal/jet"
)

type Lorenz struct{ Sigma, Rho, Beta float64 }

func NewLorenz() *Lorenz   { return &Lorenz{10.0, 28.0, 8.0 / 3.0} }
func (l *Lorenz) Dim() int { return 3 }

// Derive calculates the Lorenz attractor derivatives.
func (l *Lorenz) Derive(s []jet.Series, _ []float64, _ jet.Series) []jet.Series {
	x, y, z := s[0], s[1], s[2]
	return []jet.Series{
		jet.Scale(jet.Sub(y, x), l.Sigma),
		jet.Sub(jet.Mul(x, jet.Sub(jet.ConstLike(l.Rho, z), z)), y),
		jet.Sub(jet.Mul(x, y), jet.Scale(z, l.Beta)),
	}
}
func (l *Lorenz) DefaultState() dynamo.State { return dynamo.State{1.0, 1.0, 1.0} }
func (l *Lorenz) GetParams() map[string]float64 {
	return map[string]float64{"sigma": l.Sigma, "rho": l.Rho, "beta": l.Beta}
}
func (l *Lorenz) SetParam(n string, v float64) error {
	switch n {
	case "sigma":
		l.Sigma = v
	case "rho":
		l.Rho = v
	case "beta":
		l.Beta = v
	default:
		return unknownParam(n)
	}
	return nil
}
