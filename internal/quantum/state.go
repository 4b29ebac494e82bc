package quantum

import (
	"fmt"
	"math"
)

// State is the wavefunction on the grid together with the potential it
// evolves in. Callers own it; the solver mutates it only inside Step.
type State struct {
	Real      []float64
	Imag      []float64
	Potential []float64
	// Absorption is the edge damping profile; nil means no absorber.
	Absorption []float64
	Time       float64
}

// NewState allocates a zero state on n grid points.
func NewState(n int) *State {
	return &State{
		Real:       make([]float64, n),
		Imag:       make([]float64, n),
		Potential:  make([]float64, n),
		Absorption: make([]float64, n),
	}
}

// Len returns the number of grid points.
func (s *State) Len() int { return len(s.Real) }

// Clone returns a deep copy.
func (s *State) Clone() *State {
	c := &State{
		Real:      append([]float64(nil), s.Real...),
		Imag:      append([]float64(nil), s.Imag...),
		Potential: append([]float64(nil), s.Potential...),
		Time:      s.Time,
	}
	if s.Absorption != nil {
		c.Absorption = append([]float64(nil), s.Absorption...)
	}
	return c
}

// SetPotential replaces the potential in place, leaving the wavefunction,
// absorber and time untouched. Used for barrier-only updates.
func (s *State) SetPotential(v []float64) error {
	if len(v) != len(s.Potential) {
		return fmt.Errorf("quantum: potential has %d points, state has %d: %w", len(v), len(s.Potential), ErrInvalidLength)
	}
	copy(s.Potential, v)
	return nil
}

// IsValid reports whether the wavefunction is free of NaN and Inf.
func (s *State) IsValid() bool {
	for i := range s.Real {
		if math.IsNaN(s.Real[i]) || math.IsInf(s.Real[i], 0) ||
			math.IsNaN(s.Imag[i]) || math.IsInf(s.Imag[i], 0) {
			return false
		}
	}
	return true
}

func (s *State) check(n int) error {
	if len(s.Real) != n || len(s.Imag) != n || len(s.Potential) != n {
		return fmt.Errorf("quantum: state arrays (%d, %d, %d) do not match grid %d: %w",
			len(s.Real), len(s.Imag), len(s.Potential), n, ErrInvalidLength)
	}
	if s.Absorption != nil && len(s.Absorption) != n {
		return fmt.Errorf("quantum: absorber has %d points, grid %d: %w", len(s.Absorption), n, ErrInvalidLength)
	}
	return nil
}
