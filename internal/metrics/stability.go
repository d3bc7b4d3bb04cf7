package metrics

import "github.com/san-kum/taylorsim/internal/dynamo"

// Stability is the share of observed states that stayed bounded: all
// components finite and none above bound in magnitude. It is 1 before the
// first sample.
type Stability struct {
	bound   float64
	bounded int
	total   int
}

func NewStability(bound float64) *Stability {
	return &Stability{bound: bound}
}

func (*Stability) Name() string { return "stability" }

func (s *Stability) Observe(x dynamo.State, _, _ float64) {
	s.total++
	if x.IsValid() && x.MaxAbs() <= s.bound {
		s.bounded++
	}
}

func (s *Stability) Value() float64 {
	if s.total == 0 {
		return 1
	}
	return float64(s.bounded) / float64(s.total)
}

func (s *Stability) Reset() { s.bounded, s.total = 0, 0 }
