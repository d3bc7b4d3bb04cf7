package taylor

import "github.com/san-kum/taylorsim/internal/dynamo"

// Snapshot is the mutable part of an integrator: time, state, runtime
// parameters and event cooldowns. Restoring it into an integrator built
// with the same system and events resumes the propagation where it left
// off. The system, events and callbacks themselves are not captured.
type Snapshot struct {
	TimeHi float64   `json:"time_hi"`
	TimeLo float64   `json:"time_lo"`
	State  []float64 `json:"state"`
	Pars   []float64 `json:"pars,omitempty"`

	TerminalCooldowns    []CooldownSnapshot `json:"terminal_cooldowns,omitempty"`
	NonTerminalCooldowns []CooldownSnapshot `json:"non_terminal_cooldowns,omitempty"`
}

// CooldownSnapshot is an event's last trigger time and cooldown length.
type CooldownSnapshot struct {
	AtHi     float64 `json:"at_hi"`
	AtLo     float64 `json:"at_lo"`
	Duration float64 `json:"duration"`
}

// Time is the snapshot time rounded to a float64.
func (s Snapshot) Time() float64 { return s.TimeHi + s.TimeLo }

func (ta *Integrator) Snapshot() Snapshot {
	return Snapshot{
		TimeHi:               ta.time.hi,
		TimeLo:               ta.time.lo,
		State:                ta.state.Clone(),
		Pars:                 append([]float64(nil), ta.pars...),
		TerminalCooldowns:    saveCooldowns(ta.teCool),
		NonTerminalCooldowns: saveCooldowns(ta.nteCool),
	}
}

// Restore loads s into the integrator. The Taylor coefficients of the last
// step are dropped, so dense output is unavailable until the next step.
// Cooldown lists must be empty or match the integrator's events.
func (ta *Integrator) Restore(s Snapshot) error {
	const op = "restore"
	if len(s.State) != len(ta.state) {
		return dynamo.Usagef(op, dynamo.ErrDimensionMismatch, "snapshot has %d components, integrator has %d", len(s.State), len(ta.state))
	}
	if !dynamo.State(s.State).IsValid() {
		return dynamo.Usagef(op, dynamo.ErrInvalidState, "state %v", s.State)
	}
	if !finite(s.TimeHi) || !finite(s.TimeLo) {
		return dynamo.Usagef(op, dynamo.ErrInvalidTime, "time %v + %v", s.TimeHi, s.TimeLo)
	}
	for i, p := range s.Pars {
		if !finite(p) {
			return dynamo.Usagef(op, dynamo.ErrParameterBounds, "pars[%d] = %v", i, p)
		}
	}
	te, err := loadCooldowns(op, s.TerminalCooldowns, len(ta.tes))
	if err != nil {
		return err
	}
	nte, err := loadCooldowns(op, s.NonTerminalCooldowns, len(ta.ntes))
	if err != nil {
		return err
	}

	ta.time = dtime{hi: s.TimeHi, lo: s.TimeLo}
	copy(ta.state, s.State)
	ta.pars = append(ta.pars[:0], s.Pars...)
	ta.teCool, ta.nteCool = te, nte
	ta.hasTC = false
	ta.lastH = 0
	return nil
}

// saveCooldowns returns nil while no event has triggered. Inactive
// entries have a zero duration.
func saveCooldowns(cs []cooldown) []CooldownSnapshot {
	out := make([]CooldownSnapshot, len(cs))
	active := false
	for i, c := range cs {
		if c.set {
			out[i] = CooldownSnapshot{AtHi: c.at.hi, AtLo: c.at.lo, Duration: c.dur}
			active = true
		}
	}
	if !active {
		return nil
	}
	return out
}

func loadCooldowns(op string, saved []CooldownSnapshot, n int) ([]cooldown, error) {
	out := make([]cooldown, n)
	if len(saved) == 0 {
		return out, nil
	}
	if len(saved) != n {
		return nil, dynamo.Usagef(op, dynamo.ErrDimensionMismatch, "%d cooldowns for %d events", len(saved), n)
	}
	for i, c := range saved {
		if c.Duration > 0 {
			out[i] = cooldown{set: true, at: dtime{hi: c.AtHi, lo: c.AtLo}, dur: c.Duration}
		}
	}
	return out, nil
}
