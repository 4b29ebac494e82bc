package metrics

import (
	"math"

	"github.com/san-kum/qtunnel/internal/quantum"
)

// MeanPosition is the time average of <x>.
type MeanPosition struct {
	name    string
	sum     float64
	samples int
}

func NewMeanPosition() *MeanPosition {
	return &MeanPosition{name: "mean_position"}
}

func (m *MeanPosition) Name() string { return m.name }

func (m *MeanPosition) Observe(s *quantum.State, p quantum.Params) {
	m.sum += quantum.MeanPosition(s, p)
	m.samples++
}

func (m *MeanPosition) Value() float64 {
	if m.samples == 0 {
		return 0
	}
	return m.sum / float64(m.samples)
}

func (m *MeanPosition) Reset() {
	m.sum = 0
	m.samples = 0
}

// PeakDensity is the largest |psi|^2 seen over the run.
type PeakDensity struct {
	name string
	max  float64
}

func NewPeakDensity() *PeakDensity {
	return &PeakDensity{name: "peak_density"}
}

func (d *PeakDensity) Name() string { return d.name }

func (d *PeakDensity) Observe(s *quantum.State, p quantum.Params) {
	d.max = math.Max(d.max, quantum.PeakDensity(s))
}

func (d *PeakDensity) Value() float64 { return d.max }

func (d *PeakDensity) Reset() { d.max = 0 }
