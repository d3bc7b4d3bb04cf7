package systems

import (
	"github.com/san-kum/taylorsim/internal/dynamo"
	"github.com/san-kum/taylorsim/internal/jet"
)

// Duffing is the forced oscillator
// x'' + delta x' + alpha x + beta x^3 = gamma cos(omega t).
// State: [x, v]. The forcing reads the time series, so the system is
// non-autonomous.
type Duffing struct {
	Alpha, Beta, Delta, Gamma, Omega float64
}

func NewDuffing() *Duffing {
	return &Duffing{-1.0, 1.0, 0.3, 0.5, 1.2}
}

func (d *Duffing) Dim() int { return 2 }

func (d *Duffing) Derive(s []jet.Series, _ []float64, t jet.Series) []jet.Series {
	x, v := s[0], s[1]
	acc := jet.Add(jet.Scale(v, -d.Delta), jet.Scale(x, -d.Alpha))
	acc = jet.Sub(acc, jet.Scale(jet.Mul(jet.Square(x), x), d.Beta))
	acc = jet.Add(acc, jet.Scale(jet.Cos(jet.Scale(t, d.Omega)), d.Gamma))
	return []jet.Series{v, acc}
}

func (d *Duffing) DefaultState() dynamo.State { return dynamo.State{1.0, 0.0} }

// Energy of the unforced, undamped part.
func (d *Duffing) Energy(s dynamo.State) float64 {
	x, v := s[0], s[1]
	return 0.5*v*v + 0.5*d.Alpha*x*x + 0.25*d.Beta*x*x*x*x
}

func (d *Duffing) GetParams() map[string]float64 {
	return map[string]float64{
		"alpha": d.Alpha,
		"beta":  d.Beta,
		"delta": d.Delta,
		"gamma": d.Gamma,
		"omega": d.Omega,
	}
}

func (d *Duffing) SetParam(name string, value float64) error {
	switch name {
	case "alpha":
		d.Alpha = value
	case "beta":
		d.Beta = value
	case "delta":
		d.Delta = value
	case "gamma":
		d.Gamma = value
	case "omega":
		d.Omega = value
	default:
		return unknownParam(name)
	}
	return nil
}
