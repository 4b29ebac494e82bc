package quantum

import (
	"fmt"
	"math"

	"github.com/san-kum/qtunnel/internal/fft"
)

// Params is a snapshot of the simulation configuration. The solver reads it
// and never modifies it.
type Params struct {
	NX     int     // grid points, power of two
	DX     float64 // spatial step
	DT     float64 // time step
	Hbar   float64
	Mass   float64
	XStart float64 // position of grid index 0

	K0    float64 // carrier wave number
	X0    float64 // initial packet centre
	Sigma float64 // Gaussian width

	BarrierHeight float64
	BarrierWidth  float64
	BarrierPos    float64

	AbsorbWidth    int     // absorber margin in grid points, 0 disables it
	AbsorbStrength float64 // quadratic ramp coefficient (eta)

	Roughness float64 // relative noise amplitude on the barrier plateau
	Seed      int64
}

// DefaultParams returns a tunneling setup on a 1024 point grid spanning
// [-25, 25).
func DefaultParams() Params {
	const nx, dx = 1024, 50.0 / 1024
	return Params{
		NX:             nx,
		DX:             dx,
		DT:             0.0005,
		Hbar:           1,
		Mass:           1,
		XStart:         -nx * dx / 2,
		K0:             5,
		X0:             -10,
		Sigma:          1.5,
		BarrierHeight:  15,
		BarrierWidth:   0.5,
		BarrierPos:     0,
		AbsorbWidth:    64,
		AbsorbStrength: 0.005,
	}
}

// Validate fails fast on configurations the solver cannot run.
func (p Params) Validate() error {
	if !fft.IsPowerOfTwo(p.NX) {
		return fmt.Errorf("quantum: grid size: %w", &fft.LengthError{Real: p.NX, Imag: p.NX})
	}
	if p.NX < 2 {
		return fmt.Errorf("quantum: grid needs at least 2 points, got %d: %w", p.NX, ErrInvalidLength)
	}

	positive := []struct {
		name  string
		value float64
	}{
		{"dx", p.DX},
		{"dt", p.DT},
		{"hbar", p.Hbar},
		{"mass", p.Mass},
	}
	for _, f := range positive {
		if !(f.value > 0) || math.IsInf(f.value, 0) {
			return fmt.Errorf("%w: %s must be positive and finite, got %g", ErrParameterBounds, f.name, f.value)
		}
	}

	if p.BarrierWidth < 0 {
		return fmt.Errorf("%w: barrier width must be non-negative, got %g", ErrParameterBounds, p.BarrierWidth)
	}
	if p.AbsorbWidth < 0 || p.AbsorbWidth > p.NX/2 {
		return fmt.Errorf("%w: absorber width %d outside [0, %d]", ErrParameterBounds, p.AbsorbWidth, p.NX/2)
	}
	if p.AbsorbStrength < 0 {
		return fmt.Errorf("%w: absorber strength must be non-negative, got %g", ErrParameterBounds, p.AbsorbStrength)
	}
	return nil
}

// Position returns the physical coordinate of grid index i.
func (p Params) Position(i int) float64 {
	return p.XStart + float64(i)*p.DX
}

// Length returns the domain length NX*DX.
func (p Params) Length() float64 {
	return float64(p.NX) * p.DX
}

// Stability returns hbar*dt/(m*dx^2). Values well above 1 tend to blow up;
// checking it is the caller's job.
func (p Params) Stability() float64 {
	return p.Hbar * p.DT / (p.Mass * p.DX * p.DX)
}

// BarrierEdges returns the open interval occupied by the barrier.
func (p Params) BarrierEdges() (lo, hi float64) {
	return p.BarrierPos - p.BarrierWidth/2, p.BarrierPos + p.BarrierWidth/2
}

// Positions returns the grid coordinates.
func Positions(p Params) []float64 {
	x := make([]float64, p.NX)
	for i := range x {
		x[i] = p.Position(i)
	}
	return x
}
