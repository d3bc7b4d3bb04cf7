// Package dynamo provides the shared primitives used across taylorsim.
//
// The package defines the small vocabulary every other package speaks:
//
//   - [State]: vector representing the state of an ODE system
//   - [Hamiltonian]: systems with a conserved energy
//   - [Configurable]: systems with named runtime parameters
//   - sentinel errors such as [ErrDimensionMismatch], wrapped by [UsageError]
//
// # Errors
//
// Usage errors (bad dimensions, non-finite inputs, malformed grids) are
// reported as *[UsageError] values wrapping one of the sentinels, so callers
// can match them with errors.Is:
//
//	if _, err := ta.PropagateGrid(grid, opts); errors.Is(err, dynamo.ErrInvalidGrid) {
//	    // fix the grid
//	}
//
// Numerical degradation is never an error; see the taylor package outcomes.
package dynamo
