package quantum

import (
	"math"

	"gonum.org/v1/gonum/floats"
)

// ProbabilityDensity returns |psi_i|^2.
func ProbabilityDensity(s *State) []float64 {
	prob := make([]float64, len(s.Real))
	for i := range prob {
		prob[i] = s.Real[i]*s.Real[i] + s.Imag[i]*s.Imag[i]
	}
	return prob
}

// TotalProbability integrates the density over the grid.
func TotalProbability(s *State, dx float64) float64 {
	return floats.Sum(ProbabilityDensity(s)) * dx
}

// PeakDensity returns the largest density value.
func PeakDensity(s *State) float64 {
	if s.Len() == 0 {
		return 0
	}
	return floats.Max(ProbabilityDensity(s))
}

// MeanPosition returns <x> normalized by the remaining probability, or 0 for
// an empty state.
func MeanPosition(s *State, p Params) float64 {
	prob := ProbabilityDensity(s)
	total := floats.Sum(prob)
	if total == 0 {
		return 0
	}
	return floats.Dot(prob, Positions(p)) / total
}

// RegionProbability integrates the density over lo <= x < hi.
func RegionProbability(s *State, p Params, lo, hi float64) float64 {
	sum := 0.0
	for i := range s.Real {
		x := p.Position(i)
		if x >= lo && x < hi {
			sum += s.Real[i]*s.Real[i] + s.Imag[i]*s.Imag[i]
		}
	}
	return sum * p.DX
}

// Transmitted returns the probability to the right of the barrier.
func Transmitted(s *State, p Params) float64 {
	_, hi := p.BarrierEdges()
	return RegionProbability(s, p, hi, math.Inf(1))
}

// Reflected returns the probability to the left of the barrier.
func Reflected(s *State, p Params) float64 {
	lo, _ := p.BarrierEdges()
	return RegionProbability(s, p, math.Inf(-1), lo)
}
