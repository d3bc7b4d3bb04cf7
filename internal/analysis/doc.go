// Package analysis provides dynamics analysis tools built on the Taylor
// integrator.
//
//   - [PowerSpectrum], [DominantFrequency]: spectra of sampled signals
//   - [LyapunovExponent]: largest Lyapunov exponent via trajectory separation
//   - [GeneratePhasePortrait]: 2D phase space curves from dense output
//   - [GeneratePoincareSection]: section points located by event detection
//
// # Chaos Detection
//
// A positive largest Lyapunov exponent indicates chaotic dynamics:
//
//	lambda, err := analysis.LyapunovExponent(systems.NewLorenz(), x0, 1e-8, 1, 200)
//	if err == nil && lambda > 0 {
//	    // System is chaotic
//	}
package analysis
