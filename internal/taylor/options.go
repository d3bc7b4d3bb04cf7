package taylor

import (
	kitlog "github.com/go-kit/kit/log"
)

type settings struct {
	time     float64
	tol      float64
	order    int
	pars     []float64
	ntes     []NonTerminalEvent
	tes      []TerminalEvent
	policy   StepPolicy
	logger   kitlog.Logger
	hasTol   bool
	hasOrder bool
}

// Option configures an Integrator at construction.
type Option func(*settings)

// WithTime sets the initial time (default 0).
func WithTime(t float64) Option {
	return func(s *settings) { s.time = t }
}

// WithTolerance sets the error tolerance (default 2^-52). The Taylor order
// is derived from it unless WithOrder is also given.
func WithTolerance(tol float64) Option {
	return func(s *settings) {
		s.tol = tol
		s.hasTol = true
	}
}

// WithOrder overrides the tolerance-derived Taylor order.
func WithOrder(order int) Option {
	return func(s *settings) {
		s.order = order
		s.hasOrder = true
	}
}

// WithPars sets the runtime parameters passed to the system and events.
func WithPars(pars ...float64) Option {
	return func(s *settings) { s.pars = append([]float64(nil), pars...) }
}

func WithNonTerminalEvents(evs ...NonTerminalEvent) Option {
	return func(s *settings) { s.ntes = append(s.ntes, evs...) }
}

func WithTerminalEvents(evs ...TerminalEvent) Option {
	return func(s *settings) { s.tes = append(s.tes, evs...) }
}

// WithStepPolicy replaces the JorbaZou step-size estimate.
func WithStepPolicy(p StepPolicy) Option {
	return func(s *settings) { s.policy = p }
}

// WithLogger sets a go-kit logger for propagation summaries.
func WithLogger(l kitlog.Logger) Option {
	return func(s *settings) { s.logger = l }
}

// PropagateOptions bound a propagation call. Zero values mean unset.
type PropagateOptions struct {
	// MaxDeltaT caps the magnitude of every step.
	MaxDeltaT float64
	// MaxSteps stops the loop with StepLimit after that many steps.
	MaxSteps int
	// Callback runs after every completed step; returning false stops the
	// loop with CbStop.
	Callback func(ta *Integrator) bool
}
