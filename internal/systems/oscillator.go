package systems

import (
	"github.com/san-kum/taylorsim/internal/dynamo"
	"github.com/san-kum/taylorsim/internal/jet"
)

// Oscillator is x'' = -omega^2 x. State: [x, v].
type Oscillator struct {
	Omega float64
}

func NewOscillator() *Oscillator { return &Oscillator{Omega: 1.0} }

func (o *Oscillator) Dim() int { return 2 }

func (o *Oscillator) Derive(x []jet.Series, _ []float64, _ jet.Series) []jet.Series {
	return []jet.Series{x[1], jet.Scale(x[0], -o.Omega*o.Omega)}
}

func (o *Oscillator) DefaultState() dynamo.State { return dynamo.State{1.0, 0.0} }

func (o *Oscillator) Energy(x dynamo.State) float64 {
	return 0.5*x[1]*x[1] + 0.5*o.Omega*o.Omega*x[0]*x[0]
}

func (o *Oscillator) GetParams() map[string]float64 {
	return map[string]float64{"omega": o.Omega}
}

func (o *Oscillator) SetParam(name string, value float64) error {
	if name != "omega" {
		return unknownParam(name)
	}
	o.Omega = value
	return nil
}
