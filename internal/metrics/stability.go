package metrics

import (
	"math"

	"github.com/san-kum/qtunnel/internal/quantum"
)

// Stability is the fraction of observed states whose norm stayed finite and
// below 1+threshold. A split-step run can only lose probability, so any gain
// beyond round-off means the time step is too coarse.
type Stability struct {
	name       string
	threshold  float64
	violations int
	samples    int
}

func NewStability(threshold float64) *Stability {
	return &Stability{
		name:      "stability",
		threshold: threshold,
	}
}

func (s *Stability) Name() string {
	return s.name
}

func (s *Stability) Observe(st *quantum.State, p quantum.Params) {
	s.samples++
	norm := quantum.TotalProbability(st, p.DX)
	if math.IsNaN(norm) || math.IsInf(norm, 0) || norm > 1+s.threshold {
		s.violations++
	}
}

func (s *Stability) Value() float64 {
	if s.samples == 0 {
		return 1.0
	}
	return 1.0 - float64(s.violations)/float64(s.samples)
}

func (s *Stability) Reset() {
	s.violations = 0
	s.samples = 0
}
