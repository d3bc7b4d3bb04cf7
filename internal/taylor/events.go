package taylor

import (
	"math"
	"sort"

	"github.com/san-kum/taylorsim/internal/jet"
)

// Direction restricts an event to crossings of one sign.
type Direction int

const (
	Any Direction = iota
	// Positive triggers only where the event equation is increasing.
	Positive
	// Negative triggers only where the event equation is decreasing.
	Negative
)

func (d Direction) String() string {
	switch d {
	case Any:
		return "any"
	case Positive:
		return "positive"
	case Negative:
		return "negative"
	}
	return "unknown"
}

func (d Direction) valid() bool {
	return d == Any || d == Positive || d == Negative
}

func (d Direction) accepts(dsign int) bool {
	switch d {
	case Positive:
		return dsign > 0
	case Negative:
		return dsign < 0
	}
	return true
}

// NonTerminalEvent reports zero crossings of Eq without interrupting the
// step. Callback receives the trigger time and the sign of the equation's
// time derivative there; it runs after the step has been committed.
type NonTerminalEvent struct {
	Eq        jet.Func
	Callback  func(ta *Integrator, t float64, dsign int)
	Direction Direction
}

// TerminalEvent truncates the step at the first zero crossing of Eq.
//
// Without a Callback the crossing stops propagation with EventStop. With
// one, returning true continues (EventContinue) and false stops. mr is true
// when the derivative of Eq vanishes at the root.
//
// After a trigger the event is ignored for Cooldown time units around the
// trigger time so the same root is not found again from the new step
// start. A zero Cooldown is estimated from the equation's derivative.
type TerminalEvent struct {
	Eq        jet.Func
	Callback  func(ta *Integrator, mr bool, dsign int) bool
	Direction Direction
	Cooldown  float64
}

type cooldown struct {
	set bool
	at  dtime
	dur float64
}

// active reports whether a root at t falls inside the cooldown window.
func (c cooldown) active(t dtime) bool {
	return c.set && math.Abs(t.sub(c.at)) < c.dur
}

type root struct {
	tau   float64
	dsign int
	cd    float64
}

type trigger struct {
	idx int
	root
}

// findRoots returns the zeros of p in (0, h], nearest first.
//
// The interval is cut into 4*len(p) pieces; every sign change is refined by
// bisection and the root is reported at the bracket end further from zero,
// so the state at the root has already crossed. When the Descartes bound
// for (0, h) exceeds the crossings found by two or more, pieces with equal
// signs at both ends are split further to isolate pairs of close roots.
func findRoots(p jet.Series, h float64) []root {
	m := 4 * len(p)
	vals := make([]float64, m+1)
	taus := make([]float64, m+1)
	for j := 0; j <= m; j++ {
		taus[j] = h * float64(j) / float64(m)
		vals[j] = p.Eval(taus[j])
	}
	taus[m] = h
	vals[m] = p.Eval(h)

	var (
		roots []root
		quiet []int
	)
	for j := 1; j <= m; j++ {
		a, b := vals[j-1], vals[j]
		var tau float64
		switch {
		case (a < 0 && b > 0) || (a > 0 && b < 0):
			tau = bisect(p, taus[j-1], a, taus[j])
		case b == 0 && a != 0:
			// Exact zero on a sample; a touch without a sign change is
			// not a crossing.
			if j < m && math.Signbit(a) == math.Signbit(vals[j+1]) && vals[j+1] != 0 {
				continue
			}
			tau = taus[j]
		case a != 0 && b != 0:
			quiet = append(quiet, j)
			continue
		default:
			continue
		}
		roots = append(roots, newRoot(p, tau, h))
	}

	if len(quiet) == 0 || descartesBound(p, 0, h)-len(roots) < 2 {
		return roots
	}
	found := len(roots)
	for _, j := range quiet {
		for _, tau := range crossingsWithin(p, taus[j-1], vals[j-1], taus[j], maxSplitDepth) {
			roots = append(roots, newRoot(p, tau, h))
		}
	}
	if len(roots) > found {
		sort.Slice(roots, func(a, b int) bool {
			return math.Abs(roots[a].tau) < math.Abs(roots[b].tau)
		})
	}
	return roots
}

func newRoot(p jet.Series, tau, h float64) root {
	return root{tau: tau, dsign: sign(p.Deriv().Eval(tau)), cd: autoCooldown(p, tau, h)}
}

// maxSplitDepth caps the halving of a piece, so a tangency (a double root,
// which never changes sign) costs at most a few dozen bound evaluations.
const maxSplitDepth = 12

// crossingsWithin finds sign changes strictly between a and b, where p has
// the same nonzero sign va at both ends.
func crossingsWithin(p jet.Series, a, va, b float64, depth int) []float64 {
	if depth == 0 || descartesBound(p, a, b) < 2 {
		return nil
	}
	mid := a + (b-a)/2
	if mid == a || mid == b {
		return nil
	}
	vm := p.Eval(mid)
	switch {
	case vm == 0:
		return nil
	case math.Signbit(vm) != math.Signbit(va):
		return []float64{bisect(p, a, va, mid), bisect(p, mid, vm, b)}
	}
	left := crossingsWithin(p, a, va, mid, depth-1)
	return append(left, crossingsWithin(p, mid, vm, b, depth-1)...)
}

// descartesBound is an upper bound, of the right parity, on the number of
// roots of p strictly between a and b. p is mapped onto (0, 1) and then onto
// (0, inf) by x -> 1/(1+x); the sign variations of the result bound its
// positive roots.
func descartesBound(p jet.Series, a, b float64) int {
	q := append([]float64(nil), p...)
	taylorShift(q, a)
	w, pw := b-a, 1.0
	for k := range q {
		q[k] *= pw
		pw *= w
	}
	for i, j := 0, len(q)-1; i < j; i, j = i+1, j-1 {
		q[i], q[j] = q[j], q[i]
	}
	taylorShift(q, 1)

	changes, last := 0, 0
	for _, c := range q {
		s := sign(c)
		if s == 0 {
			continue
		}
		if last != 0 && s != last {
			changes++
		}
		last = s
	}
	return changes
}

// taylorShift rewrites the coefficients of q(x) as those of q(x + c).
func taylorShift(q []float64, c float64) {
	n := len(q)
	for i := 0; i < n-1; i++ {
		for j := n - 2; j >= i; j-- {
			q[j] += c * q[j+1]
		}
	}
}

func bisect(p jet.Series, a, va, b float64) float64 {
	for i := 0; i < 200; i++ {
		mid := a + (b-a)/2
		if mid == a || mid == b {
			break
		}
		vm := p.Eval(mid)
		if vm == 0 {
			return mid
		}
		if math.Signbit(vm) == math.Signbit(va) {
			a, va = mid, vm
		} else {
			b = mid
		}
	}
	return b
}

// autoCooldown bounds how far round-off in g can move the root:
// 10 eps times the magnitude of the polynomial terms, over |g'|.
func autoCooldown(p jet.Series, tau, h float64) float64 {
	g, pw := 0.0, 1.0
	for _, c := range p {
		g += math.Abs(c * pw)
		pw *= tau
	}
	d := math.Abs(p.Deriv().Eval(tau))
	cd := 10 * 0x1p-52 * g / d
	if math.IsNaN(cd) || math.IsInf(cd, 0) || cd == 0 {
		cd = 1e-10 * math.Abs(h)
	}
	return cd
}

func sign(v float64) int {
	switch {
	case v > 0:
		return 1
	case v < 0:
		return -1
	}
	return 0
}

// detectEvents locates the crossings inside the step of size h starting at
// ta.tcTime, using the coefficients in tc. It returns the earliest terminal
// trigger, if any, and the non-terminal triggers that precede it in
// chronological order.
func (ta *Integrator) detectEvents(tc [][]float64, t0 dtime, h float64) (*trigger, []trigger) {
	if len(ta.tes) == 0 && len(ta.ntes) == 0 {
		return nil, nil
	}
	// Windows opened by earlier triggers close once a step starts outside.
	for i := range ta.teCool {
		if ta.teCool[i].set && !ta.teCool[i].active(t0) {
			ta.teCool[i].set = false
		}
	}
	for i := range ta.nteCool {
		if ta.nteCool[i].set && !ta.nteCool[i].active(t0) {
			ta.nteCool[i].set = false
		}
	}

	var term *trigger
	for i, ev := range ta.tes {
		p := jet.Compose(ev.Eq, tc, ta.pars, t0.float())
		for _, r := range findRoots(p, h) {
			if ta.teCool[i].active(t0.add(r.tau)) || !ev.Direction.accepts(r.dsign) {
				continue
			}
			if term == nil || math.Abs(r.tau) < math.Abs(term.tau) {
				if ev.Cooldown > 0 {
					r.cd = ev.Cooldown
				}
				term = &trigger{idx: i, root: r}
			}
			break
		}
	}

	var nts []trigger
	for i, ev := range ta.ntes {
		p := jet.Compose(ev.Eq, tc, ta.pars, t0.float())
		for _, r := range findRoots(p, h) {
			if ta.nteCool[i].active(t0.add(r.tau)) || !ev.Direction.accepts(r.dsign) {
				continue
			}
			if term != nil && math.Abs(r.tau) > math.Abs(term.tau) {
				break
			}
			nts = append(nts, trigger{idx: i, root: r})
		}
	}
	sort.SliceStable(nts, func(a, b int) bool {
		return math.Abs(nts[a].tau) < math.Abs(nts[b].tau)
	})
	return term, nts
}
