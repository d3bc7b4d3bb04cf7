package systems

import (
	"math"

	"github.com/san-kum/taylorsim/internal/dynamo"
	"github.com/san-kum/taylorsim/internal/jet"
)

// ThreeBody implements the planar gravitational three-body problem.
// State: [x1, y1, vx1, vy1, x2, y2, vx2, vy2, x3, y3, vx3, vy3]
type ThreeBody struct {
	M1, M2, M3 float64 // Masses
	G          float64 // Gravitational constant
}

func NewThreeBody() *ThreeBody {
	return &ThreeBody{M1: 1.0, M2: 1.0, M3: 1.0, G: 1.0}
}

func (b *ThreeBody) Dim() int { return 12 }

func (b *ThreeBody) Derive(s []jet.Series, _ []float64, _ jet.Series) []jet.Series {
	m := [3]float64{b.M1, b.M2, b.M3}
	out := make([]jet.Series, 12)
	for i := 0; i < 3; i++ {
		out[4*i] = s[4*i+2]
		out[4*i+1] = s[4*i+3]
		out[4*i+2] = jet.ConstLike(0, s[0])
		out[4*i+3] = jet.ConstLike(0, s[0])
	}
	for i := 0; i < 3; i++ {
		for j := i + 1; j < 3; j++ {
			dx := jet.Sub(s[4*j], s[4*i])
			dy := jet.Sub(s[4*j+1], s[4*i+1])
			// 1/r^3 between bodies i and j
			inv := jet.Pow(jet.Add(jet.Square(dx), jet.Square(dy)), -1.5)
			fx := jet.Mul(inv, dx)
			fy := jet.Mul(inv, dy)

			out[4*i+2] = jet.Add(out[4*i+2], jet.Scale(fx, b.G*m[j]))
			out[4*i+3] = jet.Add(out[4*i+3], jet.Scale(fy, b.G*m[j]))
			out[4*j+2] = jet.Sub(out[4*j+2], jet.Scale(fx, b.G*m[i]))
			out[4*j+3] = jet.Sub(out[4*j+3], jet.Scale(fy, b.G*m[i]))
		}
	}
	return out
}

// DefaultState is the figure-eight choreography (Chenciner-Montgomery).
func (b *ThreeBody) DefaultState() dynamo.State {
	return dynamo.State{
		-0.97000436, 0.24308753, 0.46620368, 0.43236573, // Body 1
		0.97000436, -0.24308753, 0.46620368, 0.43236573, // Body 2
		0.0, 0.0, -0.93240737, -0.86473146, // Body 3
	}
}

func (b *ThreeBody) Energy(s dynamo.State) float64 {
	m := [3]float64{b.M1, b.M2, b.M3}
	e := 0.0
	for i := 0; i < 3; i++ {
		vx, vy := s[4*i+2], s[4*i+3]
		e += 0.5 * m[i] * (vx*vx + vy*vy)
		for j := i + 1; j < 3; j++ {
			r := math.Hypot(s[4*j]-s[4*i], s[4*j+1]-s[4*i+1])
			e -= b.G * m[i] * m[j] / r
		}
	}
	return e
}

// GetParams implements dynamo.Configurable
func (b *ThreeBody) GetParams() map[string]float64 {
	return map[string]float64{"m1": b.M1, "m2": b.M2, "m3": b.M3, "g": b.G}
}

func (b *ThreeBody) SetParam(name string, value float64) error {
	if value <= 0 {
		return dynamo.ErrParameterBounds
	}
	switch name {
	case "m1":
		b.M1 = value
	case "m2":
		b.M2 = value
	case "m3":
		b.M3 = value
	case "g":
		b.G = value
	default:
		return unknownParam(name)
	}
	return nil
}
