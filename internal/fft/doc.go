// Package fft provides an in-place radix-2 Fast Fourier Transform over
// split real/imaginary float64 arrays.
//
// The transform works on lengths that are a power of two:
//
//   - [NewPlan]: precomputes the bit-reversal permutation and twiddle table
//   - [Plan.Forward]: forward DFT with kernel e^{-2πik/n}
//   - [Plan.Inverse]: inverse DFT, conjugated kernel, scaled by 1/n
//
// # Example
//
//	plan, err := fft.NewPlan(len(re))
//	if err != nil {
//	    return err
//	}
//	plan.Forward(re, im)
//	// ... operate in frequency space ...
//	plan.Inverse(re, im)
//
// A [Plan] is immutable after construction and may be shared between
// goroutines, as long as each goroutine transforms its own arrays.
package fft
