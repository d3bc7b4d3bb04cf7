package taylor

import (
	"fmt"
	"math"
	"strings"

	kitlog "github.com/go-kit/kit/log"

	"github.com/san-kum/taylorsim/internal/dynamo"
	"github.com/san-kum/taylorsim/internal/jet"
)

// DefaultTolerance is the machine epsilon of float64.
const DefaultTolerance = 0x1p-52

// Integrator advances the solution of x' = f(x, pars, t) with adaptive
// Taylor steps.
type Integrator struct {
	sys    jet.System
	state  dynamo.State
	time   dtime
	pars   []float64
	order  int
	tol    float64
	policy StepPolicy
	logger kitlog.Logger

	ntes    []NonTerminalEvent
	tes     []TerminalEvent
	nteCool []cooldown
	teCool  []cooldown

	// tc holds the expansion of the last committed step, which started at
	// tcTime; scratch is filled by the step in progress.
	tc      [][]float64
	scratch [][]float64
	tcTime  dtime
	hasTC   bool
	lastH   float64
	next    dynamo.State
	dense   dynamo.State
}

// New builds an integrator for sys starting from x0. The state is copied.
func New(sys jet.System, x0 dynamo.State, opts ...Option) (*Integrator, error) {
	const op = "new"
	s := settings{
		tol:    DefaultTolerance,
		policy: JorbaZou{},
		logger: kitlog.NewNopLogger(),
	}
	for _, o := range opts {
		o(&s)
	}

	if sys == nil {
		return nil, dynamo.Usagef(op, dynamo.ErrDimensionMismatch, "nil system")
	}
	n := sys.Dim()
	if n <= 0 {
		return nil, dynamo.Usagef(op, dynamo.ErrDimensionMismatch, "system dimension %d", n)
	}
	if len(x0) != n {
		return nil, dynamo.Usagef(op, dynamo.ErrDimensionMismatch, "state has %d components, system has %d", len(x0), n)
	}
	if !x0.IsValid() {
		return nil, dynamo.Usagef(op, dynamo.ErrInvalidState, "initial state %v", []float64(x0))
	}
	if !finite(s.time) {
		return nil, dynamo.Usagef(op, dynamo.ErrInvalidTime, "initial time %v", s.time)
	}
	if !(s.tol > 0) || math.IsInf(s.tol, 0) {
		return nil, dynamo.Usagef(op, dynamo.ErrInvalidTolerance, "tolerance %v", s.tol)
	}
	if !s.hasOrder {
		s.order = jet.OrderFromTolerance(s.tol)
	}
	if s.order < jet.MinOrder {
		return nil, dynamo.Usagef(op, dynamo.ErrInvalidOrder, "order %d, need at least %d", s.order, jet.MinOrder)
	}
	for i, p := range s.pars {
		if !finite(p) {
			return nil, dynamo.Usagef(op, dynamo.ErrParameterBounds, "pars[%d] = %v", i, p)
		}
	}
	if s.policy == nil {
		s.policy = JorbaZou{}
	}
	if s.logger == nil {
		s.logger = kitlog.NewNopLogger()
	}
	for i, ev := range s.ntes {
		if ev.Eq == nil || !ev.Direction.valid() {
			return nil, dynamo.Usagef(op, dynamo.ErrInvalidState, "non-terminal event %d: missing equation or bad direction", i)
		}
	}
	for i, ev := range s.tes {
		if ev.Eq == nil || !ev.Direction.valid() {
			return nil, dynamo.Usagef(op, dynamo.ErrInvalidState, "terminal event %d: missing equation or bad direction", i)
		}
		if math.IsNaN(ev.Cooldown) || math.IsInf(ev.Cooldown, 0) {
			return nil, dynamo.Usagef(op, dynamo.ErrInvalidStep, "terminal event %d: cooldown %v", i, ev.Cooldown)
		}
	}

	ta := &Integrator{
		sys:     sys,
		state:   x0.Clone(),
		time:    dtimeOf(s.time),
		pars:    s.pars,
		order:   s.order,
		tol:     s.tol,
		policy:  s.policy,
		logger:  s.logger,
		ntes:    s.ntes,
		tes:     s.tes,
		nteCool: make([]cooldown, len(s.ntes)),
		teCool:  make([]cooldown, len(s.tes)),
		tc:      newTC(n, s.order),
		scratch: newTC(n, s.order),
		next:    make(dynamo.State, n),
		dense:   make(dynamo.State, n),
	}
	return ta, nil
}

func newTC(n, order int) [][]float64 {
	buf := make([]float64, n*(order+1))
	tc := make([][]float64, n)
	for i := range tc {
		tc[i] = buf[i*(order+1) : (i+1)*(order+1) : (i+1)*(order+1)]
	}
	return tc
}

func finite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}

// Time returns the current time rounded to a float64.
func (ta *Integrator) Time() float64 { return ta.time.float() }

// DTime returns the two parts of the double-length current time.
func (ta *Integrator) DTime() (hi, lo float64) { return ta.time.hi, ta.time.lo }

// SetTime moves the integrator to t without touching the state.
func (ta *Integrator) SetTime(t float64) error {
	if !finite(t) {
		return dynamo.Usagef("set_time", dynamo.ErrInvalidTime, "time %v", t)
	}
	ta.time = dtimeOf(t)
	return nil
}

// State returns the state vector. The slice aliases the integrator's
// storage: element writes take effect on the next step.
func (ta *Integrator) State() dynamo.State { return ta.state }

// SetState replaces the whole state vector.
func (ta *Integrator) SetState(x dynamo.State) error {
	if len(x) != len(ta.state) {
		return dynamo.Usagef("set_state", dynamo.ErrDimensionMismatch, "got %d components, want %d", len(x), len(ta.state))
	}
	if !x.IsValid() {
		return dynamo.Usagef("set_state", dynamo.ErrInvalidState, "state %v", []float64(x))
	}
	copy(ta.state, x)
	return nil
}

// Pars returns the runtime parameters. The slice aliases internal storage.
func (ta *Integrator) Pars() []float64 { return ta.pars }

func (ta *Integrator) SetPars(pars ...float64) error {
	for i, p := range pars {
		if !finite(p) {
			return dynamo.Usagef("set_pars", dynamo.ErrParameterBounds, "pars[%d] = %v", i, p)
		}
	}
	ta.pars = append(ta.pars[:0], pars...)
	return nil
}

func (ta *Integrator) Order() int            { return ta.order }
func (ta *Integrator) Tol() float64          { return ta.tol }
func (ta *Integrator) Dim() int              { return len(ta.state) }
func (ta *Integrator) System() jet.System    { return ta.sys }
func (ta *Integrator) Logger() kitlog.Logger { return ta.logger }

// LastH is the signed size of the last committed step, 0 before the first.
func (ta *Integrator) LastH() float64 { return ta.lastH }

// TC returns a copy of the Taylor coefficients of the last committed step,
// or nil before the first one.
func (ta *Integrator) TC() [][]float64 {
	if !ta.hasTC {
		return nil
	}
	out := newTC(len(ta.tc), ta.order)
	for i := range ta.tc {
		copy(out[i], ta.tc[i])
	}
	return out
}

// ResetCooldowns forgets every event trigger seen so far.
func (ta *Integrator) ResetCooldowns() {
	for i := range ta.teCool {
		ta.teCool[i] = cooldown{}
	}
	for i := range ta.nteCool {
		ta.nteCool[i] = cooldown{}
	}
}

// Copy returns an independent integrator with the same time, state,
// parameters and step history. Systems, events and their callbacks are
// shared.
func (ta *Integrator) Copy() *Integrator {
	c := *ta
	c.state = ta.state.Clone()
	c.pars = append([]float64(nil), ta.pars...)
	c.nteCool = append([]cooldown(nil), ta.nteCool...)
	c.teCool = append([]cooldown(nil), ta.teCool...)
	c.tc = newTC(len(ta.state), ta.order)
	for i := range ta.tc {
		copy(c.tc[i], ta.tc[i])
	}
	c.scratch = newTC(len(ta.state), ta.order)
	c.next = make(dynamo.State, len(ta.state))
	c.dense = ta.dense.Clone()
	return &c
}

func (ta *Integrator) String() string {
	var b strings.Builder
	fmt.Fprintf(&b, "Tolerance        : %g\n", ta.tol)
	fmt.Fprintf(&b, "Taylor order     : %d\n", ta.order)
	fmt.Fprintf(&b, "Dimension        : %d\n", len(ta.state))
	fmt.Fprintf(&b, "Time             : %.17g\n", ta.Time())
	fmt.Fprintf(&b, "State            : %v\n", []float64(ta.state))
	if len(ta.pars) > 0 {
		fmt.Fprintf(&b, "Parameters       : %v\n", ta.pars)
	}
	if len(ta.tes) > 0 {
		fmt.Fprintf(&b, "N of terminal events    : %d\n", len(ta.tes))
	}
	if len(ta.ntes) > 0 {
		fmt.Fprintf(&b, "N of non-terminal events: %d\n", len(ta.ntes))
	}
	return b.String()
}
