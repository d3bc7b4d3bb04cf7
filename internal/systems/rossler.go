package systems

import (
	"github.com/san-kum/taylorsim/internal/dynamo"
	"github.com/san-kum/taylorsim/internal/jet"
)

type Rossler struct{ A, B, C float64 }

func NewRossler() *Rossler  { return &Rossler{0.2, 0.2, 5.7} }
func (r *Rossler) Dim() int { return 3 }

func (r *Rossler) Derive(s []jet.Series, _ []float64, _ jet.Series) []jet.Series {
	x, y, z := s[0], s[1], s[2]
	return []jet.Series{
		jet.Neg(jet.Add(y, z)),
		jet.Add(x, jet.Scale(y, r.A)),
		jet.Shift(jet.Mul(z, jet.Shift(x, -r.C)), r.B),
	}
}

func (r *Rossler) DefaultState() dynamo.State { return dynamo.State{1.0, 1.0, 1.0} }

func (r *Rossler) GetParams() map[string]float64 {
	return map[string]float64{"a": r.A, "b": r.B, "c": r.C}
}

func (r *Rossler) SetParam(n string, v float64) error {
	switch n {
	case "a":
		r.A = v
	case "b":
		r.B = v
	case "c":
		r.C = v
	default:
		return unknownParam(n)
	}
	return nil
}
