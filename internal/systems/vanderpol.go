package systems

import (
	"github.com/san-kum/taylorsim/internal/dynamo"
	"github.com/san-kum/taylorsim/internal/jet"
)

// VanDerPol implements the Van der Pol oscillator.
// State: [x, y] where y = dx/dt
// Equations:
//
//	dx/dt = y
//	dy/dt = μ(1 - x²)y - x
type VanDerPol struct {
	Mu float64 // Nonlinearity parameter
}

func NewVanDerPol() *VanDerPol {
	return &VanDerPol{Mu: 1.0}
}

func (v *VanDerPol) Dim() int { return 2 }

func (v *VanDerPol) Derive(state []jet.Series, _ []float64, _ jet.Series) []jet.Series {
	x, y := state[0], state[1]
	damp := jet.Scale(jet.Sub(jet.ConstLike(1, x), jet.Square(x)), v.Mu)
	return []jet.Series{y, jet.Sub(jet.Mul(damp, y), x)}
}

func (v *VanDerPol) DefaultState() dynamo.State {
	return dynamo.State{2.0, 0.0}
}

// GetParams implements dynamo.Configurable
func (v *VanDerPol) GetParams() map[string]float64 {
	return map[string]float64{"mu": v.Mu}
}

// SetParam implements dynamo.Configurable
func (v *VanDerPol) SetParam(name string, value float64) error {
	if name != "mu" {
		return unknownParam(name)
	}
	v.Mu = value
	return nil
}
