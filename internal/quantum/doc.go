// Package quantum implements a split-step Fourier solver for the 1D
// time-dependent Schrödinger equation in natural units.
//
// The package exposes the whole numerical core:
//
//   - [Params]: grid, time step, packet and barrier configuration
//   - [BuildPotential]: rectangular barrier plus absorbing edge ramp
//   - [Initialize]: normalized Gaussian wave packet on the grid
//   - [Evolver]: symmetric (V/2, T, V/2) split-step propagator
//   - [ProbabilityDensity], [TotalProbability]: read-only observables
//
// # Example
//
//	p := quantum.DefaultParams()
//	state, err := quantum.Initialize(p)
//	if err != nil {
//	    return err
//	}
//	evo, err := quantum.NewEvolver(p)
//	if err != nil {
//	    return err
//	}
//	for i := 0; i < 1000; i++ {
//	    evo.Step(state)
//	}
//	norm := quantum.TotalProbability(state, p.DX)
//
// # Thread Safety
//
// A [State] is owned by its caller and must not be stepped concurrently.
// An [Evolver] only holds immutable tables and can drive several states
// from different goroutines.
package quantum
