package systems

import (
	"math"

	"github.com/san-kum/taylorsim/internal/dynamo"
	"github.com/san-kum/taylorsim/internal/jet"
)

// Kepler is the planar two-body problem in relative coordinates.
// State: [x, y, vx, vy]; the acceleration is -mu r / |r|^3.
type Kepler struct {
	Mu float64
}

func NewKepler() *Kepler { return &Kepler{Mu: 1.0} }

func (k *Kepler) Dim() int { return 4 }

func (k *Kepler) Derive(x []jet.Series, _ []float64, _ jet.Series) []jet.Series {
	px, py, vx, vy := x[0], x[1], x[2], x[3]
	r2 := jet.Add(jet.Square(px), jet.Square(py))
	f := jet.Scale(jet.Pow(r2, -1.5), -k.Mu)
	return []jet.Series{vx, vy, jet.Mul(f, px), jet.Mul(f, py)}
}

// DefaultState is a circular orbit of radius 1.
func (k *Kepler) DefaultState() dynamo.State {
	return dynamo.State{1.0, 0.0, 0.0, math.Sqrt(k.Mu)}
}

// Energy is the specific orbital energy v^2/2 - mu/r.
func (k *Kepler) Energy(x dynamo.State) float64 {
	r := math.Hypot(x[0], x[1])
	return 0.5*(x[2]*x[2]+x[3]*x[3]) - k.Mu/r
}

func (k *Kepler) GetParams() map[string]float64 {
	return map[string]float64{"mu": k.Mu}
}

func (k *Kepler) SetParam(name string, value float64) error {
	if name != "mu" {
		return unknownParam(name)
	}
	if value <= 0 {
		return dynamo.ErrParameterBounds
	}
	k.Mu = value
	return nil
}
