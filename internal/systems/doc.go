// Package systems provides ODE right-hand sides in jet form.
//
// Each model implements [jet.System] and [Model], so it can be handed to
// taylor.New directly:
//
//   - [Pendulum]: simple pendulum with optional damping
//   - [Oscillator]: linear harmonic oscillator
//   - [Kepler]: planar two-body problem in relative coordinates
//   - [Lorenz]: butterfly attractor
//   - [VanDerPol]: relaxation oscillator
//   - [Duffing]: forced nonlinear oscillator (non-autonomous)
//   - [ThreeBody]: planar gravitational three-body problem
//
// Most models also implement [dynamo.Configurable] for parameter changes
// and [dynamo.Hamiltonian] for energy monitoring.
package systems
