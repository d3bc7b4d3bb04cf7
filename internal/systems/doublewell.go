package systems

import (
	"fmt"
	"math"

	"github.com/san-kum/taylorsim/internal/dynamo"
	"github.com/san-kum/taylorsim/internal/jet"
)

// DoubleWell models a particle in the bistable potential A(x²-B)².
type DoubleWell struct {
	A, B, Mass, Damping float64
}

func NewDoubleWell() *DoubleWell {
	return &DoubleWell{1.0, 1.0, 1.0, 0.1}
}

func (d *DoubleWell) Dim() int { return 2 }

func (d *DoubleWell) Derive(s []jet.Series, _ []float64, _ jet.Series) []jet.Series {
	x, v := s[0], s[1]
	force := jet.Scale(jet.Mul(x, jet.Shift(jet.Square(x), -d.B)), -4*d.A)
	return []jet.Series{v, jet.Scale(jet.Sub(force, jet.Scale(v, d.Damping)), 1/d.Mass)}
}

func (d *DoubleWell) DefaultState() dynamo.State { return dynamo.State{math.Sqrt(d.B) + 0.1, 0} }

func (d *DoubleWell) Energy(s dynamo.State) float64 {
	x, v := s[0], s[1]
	return 0.5*d.Mass*v*v + d.A*(x*x-d.B)*(x*x-d.B)
}

func (d *DoubleWell) GetParams() map[string]float64 {
	return map[string]float64{"A": d.A, "B": d.B, "mass": d.Mass, "damping": d.Damping}
}

func (d *DoubleWell) SetParam(n string, v float64) error {
	switch n {
	case "A":
		d.A = v
	case "B":
		d.B = v
	case "mass":
		if v <= 0 {
			return fmt.Errorf("%w: mass must be positive, got %v", dynamo.ErrParameterBounds, v)
		}
		d.Mass = v
	case "damping":
		d.Damping = v
	default:
		return unknownParam(n)
	}
	return nil
}
