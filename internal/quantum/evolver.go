package quantum

import (
	"math"

	"github.com/san-kum/qtunnel/internal/fft"
)

// Evolver advances states by one DT with the Strang splitting
// e^{-iV dt/2} e^{-iT dt} e^{-iV dt/2}. It caches the FFT plan and the
// kinetic phase table, both fixed by the grid and time step.
type Evolver struct {
	plan  *fft.Plan
	n     int
	dt    float64
	hbar  float64
	kinRe []float64
	kinIm []float64
}

// NewEvolver validates p and precomputes the kinetic propagator.
func NewEvolver(p Params) (*Evolver, error) {
	if err := p.Validate(); err != nil {
		return nil, err
	}
	plan, err := fft.NewPlan(p.NX)
	if err != nil {
		return nil, err
	}

	e := &Evolver{
		plan:  plan,
		n:     p.NX,
		dt:    p.DT,
		hbar:  p.Hbar,
		kinRe: make([]float64, p.NX),
		kinIm: make([]float64, p.NX),
	}

	for i, k := range Wavenumbers(p) {
		phase := -p.Hbar * k * k * p.DT / (2 * p.Mass)
		e.kinIm[i], e.kinRe[i] = math.Sincos(phase)
	}
	return e, nil
}

// Wavenumbers returns k for each FFT bin: positive frequencies in the first
// half, negative in the second.
func Wavenumbers(p Params) []float64 {
	n := p.NX
	scale := 2 * math.Pi / p.Length()
	k := make([]float64, n)
	for i := range k {
		if i < n/2 {
			k[i] = scale * float64(i)
		} else {
			k[i] = scale * float64(i-n)
		}
	}
	return k
}

// Len returns the grid size the evolver was built for.
func (e *Evolver) Len() int { return e.n }

// Step advances s by exactly one time step.
func (e *Evolver) Step(s *State) error {
	if err := s.check(e.n); err != nil {
		return err
	}

	e.potentialHalfStep(s)

	if err := e.plan.Forward(s.Real, s.Imag); err != nil {
		return err
	}
	for i := range s.Real {
		re, im := s.Real[i], s.Imag[i]
		c, sn := e.kinRe[i], e.kinIm[i]
		s.Real[i] = re*c - im*sn
		s.Imag[i] = re*sn + im*c
	}
	if err := e.plan.Inverse(s.Real, s.Imag); err != nil {
		return err
	}

	e.potentialHalfStep(s)

	s.Time += e.dt
	return nil
}

// StepN applies Step n times.
func (e *Evolver) StepN(s *State, n int) error {
	for i := 0; i < n; i++ {
		if err := e.Step(s); err != nil {
			return err
		}
	}
	return nil
}

// potentialHalfStep rotates each point by -V dt/(2 hbar) and applies the
// absorber decay for half a step.
func (e *Evolver) potentialHalfStep(s *State) {
	f := -e.dt / (2 * e.hbar)
	for i := range s.Real {
		sn, c := math.Sincos(f * s.Potential[i])
		if s.Absorption != nil && s.Absorption[i] != 0 {
			damp := math.Exp(f * s.Absorption[i])
			c *= damp
			sn *= damp
		}
		re, im := s.Real[i], s.Imag[i]
		s.Real[i] = re*c - im*sn
		s.Imag[i] = re*sn + im*c
	}
}

// Step advances s by one time step of p with a one-off evolver. Prefer
// NewEvolver when stepping repeatedly.
func Step(s *State, p Params) error {
	e, err := NewEvolver(p)
	if err != nil {
		return err
	}
	return e.Step(s)
}
