package taylor

import (
	"fmt"
	"math"
)

// Outcome is the result code of a step or propagation.
//
// Non-negative values i mean terminal event i fired and its callback asked
// to continue; values in [-N, -1] mean terminal event -v-1 stopped the
// integration. The named codes sit at the bottom of the int64 range.
type Outcome int64

const (
	Success Outcome = math.MinInt64 + iota
	StepLimit
	TimeLimit
	ErrNFState
	CbStop
)

// EventStop is the outcome of terminal event idx halting integration.
func EventStop(idx int) Outcome {
	return Outcome(-int64(idx) - 1)
}

// EventContinue is the outcome of terminal event idx firing with a callback
// that asked to go on.
func EventContinue(idx int) Outcome {
	return Outcome(idx)
}

// Event reports the terminal event index behind o, if any.
func (o Outcome) Event() (idx int, stopped bool, ok bool) {
	switch {
	case o >= 0:
		return int(o), false, true
	case o > CbStop:
		return int(-o - 1), true, true
	default:
		return 0, false, false
	}
}

func (o Outcome) isStop() bool {
	_, stopped, ok := o.Event()
	return ok && stopped
}

func (o Outcome) String() string {
	switch o {
	case Success:
		return "success"
	case StepLimit:
		return "step_limit"
	case TimeLimit:
		return "time_limit"
	case ErrNFState:
		return "err_nf_state"
	case CbStop:
		return "cb_stop"
	}
	idx, stopped, _ := o.Event()
	if stopped {
		return fmt.Sprintf("event_stop(%d)", idx)
	}
	return fmt.Sprintf("event(%d)", idx)
}
