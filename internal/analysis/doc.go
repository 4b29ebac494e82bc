// Package analysis provides post-processing for wave packet runs.
//
// The package includes:
//
//   - [MomentumDensity]: |phi(k)|^2 on a centred wavenumber axis
//   - [PlaneWaveTransmission]: analytic transmission through a rectangular barrier
//   - [PacketTransmission]: the same coefficient averaged over a Gaussian packet
//   - [Spectrum] and [DominantFrequency]: power spectra of observable time series
//   - [ExpectationPortrait]: the (<x>, <p>) trajectory of a packet
//   - [SweepToASCII]: transmission and reflection curves from a parameter sweep
//
// # Checking a run
//
// The simulated transmitted fraction of a well separated packet should be
// close to the packet-averaged analytic value:
//
//	want, _ := analysis.PacketTransmission(p, width)
//	got := quantum.Transmitted(res.Final, p)
package analysis
