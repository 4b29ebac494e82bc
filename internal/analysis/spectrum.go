package analysis

import (
	"math/cmplx"

	dspfft "github.com/mjibson/go-dsp/fft"
)

// Spectrum returns the one-sided power spectrum of a uniformly sampled
// series: frequencies i/(N dt) for i = 0..N/2 and |X_i|^2 / N.
func Spectrum(series []float64, dt float64) (freqs, power []float64) {
	n := len(series)
	if n == 0 || dt <= 0 {
		return nil, nil
	}

	x := dspfft.FFTReal(series)
	half := n/2 + 1
	freqs = make([]float64, half)
	power = make([]float64, half)
	for i := 0; i < half; i++ {
		freqs[i] = float64(i) / (float64(n) * dt)
		a := cmplx.Abs(x[i])
		power[i] = a * a / float64(n)
	}
	return freqs, power
}

// DominantFrequency returns the strongest non-zero frequency of the series
// after removing its mean, or 0 when there is none.
func DominantFrequency(series []float64, dt float64) float64 {
	if len(series) < 2 {
		return 0
	}

	mean := 0.0
	for _, v := range series {
		mean += v
	}
	mean /= float64(len(series))

	centred := make([]float64, len(series))
	for i, v := range series {
		centred[i] = v - mean
	}

	freqs, power := Spectrum(centred, dt)
	best, bestPower := 0, 0.0
	for i := 1; i < len(power); i++ {
		if power[i] > bestPower {
			best, bestPower = i, power[i]
		}
	}
	if best == 0 {
		return 0
	}
	return freqs[best]
}
