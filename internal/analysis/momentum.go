package analysis

import (
	"math"

	"github.com/san-kum/qtunnel/internal/fft"
	"github.com/san-kum/qtunnel/internal/quantum"
)

// MomentumDensity returns the wavenumber axis and |phi(k)|^2, both ordered
// from the most negative k to the most positive. The density integrates
// (sum * dk) to the same total as the position density.
func MomentumDensity(s *quantum.State, p quantum.Params) (k, density []float64, err error) {
	plan, err := fft.NewPlan(p.NX)
	if err != nil {
		return nil, nil, err
	}

	re := append([]float64(nil), s.Real...)
	im := append([]float64(nil), s.Imag...)
	if err := plan.Forward(re, im); err != nil {
		return nil, nil, err
	}

	n := p.NX
	kBins := quantum.Wavenumbers(p)
	scale := p.DX * p.DX / (2 * math.Pi)

	k = make([]float64, n)
	density = make([]float64, n)
	for i := 0; i < n; i++ {
		j := (i + n/2) % n
		k[i] = kBins[j]
		density[i] = (re[j]*re[j] + im[j]*im[j]) * scale
	}
	return k, density, nil
}

// MeanMomentum returns <p> = hbar <k>, or 0 for an empty state.
func MeanMomentum(s *quantum.State, p quantum.Params) (float64, error) {
	k, density, err := MomentumDensity(s, p)
	if err != nil {
		return 0, err
	}

	var sum, total float64
	for i := range k {
		sum += k[i] * density[i]
		total += density[i]
	}
	if total == 0 {
		return 0, nil
	}
	return p.Hbar * sum / total, nil
}
