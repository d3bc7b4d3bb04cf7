// Package integrators holds classic Runge-Kutta steppers over jet systems.
//
// They evaluate the right-hand side at order zero only and serve as a
// baseline for the Taylor integrator in comparisons.
package integrators
