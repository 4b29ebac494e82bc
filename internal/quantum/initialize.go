package quantum

import (
	"fmt"
	"math"
)

// Initialize builds a normalized Gaussian packet
//
//	psi(x) = exp(-(x-x0)^2 / (2 sigma^2)) * e^{i k0 x}
//
// with the potential and absorber for p, and time zero.
func Initialize(p Params) (*State, error) {
	if err := p.Validate(); err != nil {
		return nil, err
	}
	if !(p.Sigma > 0) {
		return nil, fmt.Errorf("%w: sigma must be positive, got %g", ErrDegenerateState, p.Sigma)
	}

	v, err := BuildPotential(p)
	if err != nil {
		return nil, err
	}
	a, err := BuildAbsorber(p)
	if err != nil {
		return nil, err
	}

	s := &State{
		Real:       make([]float64, p.NX),
		Imag:       make([]float64, p.NX),
		Potential:  v,
		Absorption: a,
	}

	twoSigmaSq := 2 * p.Sigma * p.Sigma
	sumSq := 0.0
	for i := range s.Real {
		x := p.Position(i)
		d := x - p.X0
		g := math.Exp(-d * d / twoSigmaSq)
		sin, cos := math.Sincos(p.K0 * x)
		s.Real[i] = g * cos
		s.Imag[i] = g * sin
		sumSq += s.Real[i]*s.Real[i] + s.Imag[i]*s.Imag[i]
	}

	if sumSq == 0 || math.IsNaN(sumSq) || math.IsInf(sumSq, 0) {
		return nil, fmt.Errorf("%w: sum of squares is %g", ErrDegenerateState, sumSq)
	}

	norm := math.Sqrt(sumSq * p.DX)
	for i := range s.Real {
		s.Real[i] /= norm
		s.Imag[i] /= norm
	}

	return s, nil
}
