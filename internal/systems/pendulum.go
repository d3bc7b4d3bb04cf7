package systems

import (
	"math"

	"github.com/san-kum/taylorsim/internal/dynamo"
	"github.com/san-kum/taylorsim/internal/jet"
)

// Pendulum is a point mass on a rigid massless rod.
// State: [theta, omega].
type Pendulum struct {
	Length  float64
	Damping float64
	Gravity float64
}

func NewPendulum() *Pendulum {
	return &Pendulum{
		Length:  1.0,
		Damping: 0.0,
		Gravity: 9.8,
	}
}

func (p *Pendulum) Dim() int { return 2 }

func (p *Pendulum) Derive(x []jet.Series, _ []float64, _ jet.Series) []jet.Series {
	theta, omega := x[0], x[1]
	alpha := jet.Scale(jet.Sin(theta), -p.Gravity/p.Length)
	if p.Damping != 0 {
		alpha = jet.Sub(alpha, jet.Scale(omega, p.Damping))
	}
	return []jet.Series{omega, alpha}
}

func (p *Pendulum) DefaultState() dynamo.State { return dynamo.State{0.05, 0.025} }

// Energy per unit mass: KE = 0.5 (L omega)^2, PE = g L (1 - cos theta).
func (p *Pendulum) Energy(x dynamo.State) float64 {
	v := p.Length * x[1]
	return 0.5*v*v + p.Gravity*p.Length*(1.0-math.Cos(x[0]))
}

func (p *Pendulum) GetParams() map[string]float64 {
	return map[string]float64{
		"length":  p.Length,
		"damping": p.Damping,
		"gravity": p.Gravity,
	}
}

func (p *Pendulum) SetParam(name string, value float64) error {
	switch name {
	case "length":
		if value <= 0 {
			return dynamo.ErrParameterBounds
		}
		p.Length = value
	case "damping":
		p.Damping = value
	case "gravity":
		p.Gravity = value
	default:
		return unknownParam(name)
	}
	return nil
}
