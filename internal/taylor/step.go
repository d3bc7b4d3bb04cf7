package taylor

import (
	"math"

	"github.com/san-kum/taylorsim/internal/dynamo"
	"github.com/san-kum/taylorsim/internal/jet"
)

// Step takes one natural step forward in time.
//
// If the solution is a polynomial of degree below the order, the natural
// step is infinite; the state is left alone and the outcome is ErrNFState.
// Use StepLimited in that regime.
func (ta *Integrator) Step() (Outcome, float64) {
	return ta.step(math.Inf(1), nil)
}

// StepBackward takes one natural step backward in time.
func (ta *Integrator) StepBackward() (Outcome, float64) {
	return ta.step(math.Inf(-1), nil)
}

// StepLimited takes one step in the direction of maxDeltaT whose magnitude
// is at most |maxDeltaT|. A clamped step reports TimeLimit and h equals
// maxDeltaT exactly.
func (ta *Integrator) StepLimited(maxDeltaT float64) (Outcome, float64, error) {
	if math.IsNaN(maxDeltaT) || maxDeltaT == 0 {
		return Success, 0, dynamo.Usagef("step", dynamo.ErrInvalidStep, "max_delta_t %v", maxDeltaT)
	}
	out, h := ta.step(maxDeltaT, nil)
	return out, h, nil
}

// step advances by at most |limit| in the direction of limit. When the step
// is clamped to limit and landOn is set, the new time is *landOn instead of
// time+limit.
func (ta *Integrator) step(limit float64, landOn *dtime) (Outcome, float64) {
	t0 := ta.time
	tc := ta.scratch
	for i, v := range ta.state {
		tc[i][0] = v
	}
	jet.ExpandInto(tc, ta.sys, ta.pars, t0.float())

	dir := math.Copysign(1, limit)
	hNat := ta.policy.StepSize(tc)
	h := dir * hNat
	if !(hNat > 0) {
		return ErrNFState, h
	}

	out := Success
	clamped := false
	if !math.IsInf(limit, 0) && math.Abs(limit) <= hNat {
		h, clamped, out = limit, true, TimeLimit
	}
	if math.IsInf(h, 0) {
		return ErrNFState, h
	}

	term, nts := ta.detectEvents(tc, t0, h)
	if term != nil {
		h = term.tau
	}

	evalTC(tc, h, ta.next)
	if !ta.next.IsValid() {
		return ErrNFState, h
	}

	copy(ta.state, ta.next)
	if term == nil && clamped && landOn != nil {
		ta.time = *landOn
	} else {
		ta.time = t0.add(h)
	}
	ta.tc, ta.scratch = tc, ta.tc
	ta.tcTime = t0
	ta.hasTC = true
	ta.lastH = h

	for _, tr := range nts {
		ta.nteCool[tr.idx] = cooldown{set: true, at: t0.add(tr.tau), dur: tr.cd}
	}
	if term != nil {
		ta.teCool[term.idx] = cooldown{set: true, at: t0.add(term.tau), dur: term.cd}
	}

	for _, tr := range nts {
		if cb := ta.ntes[tr.idx].Callback; cb != nil {
			cb(ta, t0.add(tr.tau).float(), tr.dsign)
		}
	}
	if term != nil {
		out = EventStop(term.idx)
		if cb := ta.tes[term.idx].Callback; cb != nil && cb(ta, term.dsign == 0, term.dsign) {
			out = EventContinue(term.idx)
		}
	}
	return out, h
}

// evalTC writes the expansion tc evaluated at h into out.
func evalTC(tc [][]float64, h float64, out []float64) {
	for i := range tc {
		out[i] = jet.Series(tc[i]).Eval(h)
	}
}

// UpdateDenseOutput evaluates the last step's expansion at t, or at
// t time units after the step start when relTime is set. The returned
// state is reused by the next call.
func (ta *Integrator) UpdateDenseOutput(t float64, relTime bool) (dynamo.State, error) {
	const op = "dense_output"
	if !ta.hasTC {
		return nil, dynamo.Usagef(op, dynamo.ErrInvalidTime, "no step taken yet")
	}
	if !finite(t) {
		return nil, dynamo.Usagef(op, dynamo.ErrInvalidTime, "time %v", t)
	}
	tau := t
	if !relTime {
		tau = dtimeOf(t).sub(ta.tcTime)
	}
	evalTC(ta.tc, tau, ta.dense)
	return ta.dense, nil
}

// DenseOutput returns the result of the last UpdateDenseOutput call.
func (ta *Integrator) DenseOutput() dynamo.State { return ta.dense }
