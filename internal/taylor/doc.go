// Package taylor implements an adaptive high-order Taylor integrator and
// its stepping protocol.
//
// An [Integrator] owns a time and a state vector and advances them in place:
//
//   - [Integrator.Step], [Integrator.StepBackward], [Integrator.StepLimited]
//     take a single adaptive step
//   - [Integrator.PropagateFor] and [Integrator.PropagateUntil] step until a
//     target time is reached exactly
//   - [Integrator.PropagateGrid] reports the state on a monotonic time grid
//     using dense output, one adaptive step answering many grid points
//
// Every call reports an [Outcome]. Non-finite states, callback stops and
// events are outcomes, not errors; errors are reserved for malformed
// requests and wrap the dynamo sentinels.
//
// # Example
//
//	ta, err := taylor.New(systems.NewPendulum(), dynamo.State{0.05, 0.025})
//	if err != nil {
//	    return err
//	}
//	res, err := ta.PropagateUntil(20, taylor.PropagateOptions{})
//	// res.Outcome == taylor.TimeLimit && ta.Time() == 20
//
// # Events
//
// Event equations are written in jet form and checked inside every step.
// Non-terminal events report each zero crossing to a callback; terminal
// events stop propagation at the crossing (see [TerminalEvent]).
//
// # Thread Safety
//
// An Integrator is NOT thread-safe. Callbacks run synchronously on the
// caller's goroutine between steps and may mutate time and state. Use
// [EnsemblePropagateUntil] to run independent copies concurrently.
package taylor
