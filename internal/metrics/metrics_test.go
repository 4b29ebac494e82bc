package metrics

import (
	"math"
	"testing"

	"github.com/san-kum/qtunnel/internal/quantum"
	"github.com/san-kum/qtunnel/internal/sim"
)

func uniformState(n int, amp float64) *quantum.State {
	s := quantum.NewState(n)
	for i := range s.Real {
		s.Real[i] = amp
	}
	return s
}

// x = -4..3, barrier on (-1, 1)
var gridParams = quantum.Params{NX: 8, DX: 1, XStart: -4, BarrierWidth: 2}

func TestNormLoss(t *testing.T) {
	m := NewNormLoss()
	if m.Value() != 0 {
		t.Errorf("empty NormLoss = %f, want 0", m.Value())
	}

	m.Observe(uniformState(8, 0.5), gridParams)  // norm 2
	m.Observe(uniformState(8, 0.25), gridParams) // norm 0.5

	if got := m.Value(); math.Abs(got-0.75) > 1e-12 {
		t.Errorf("NormLoss = %f, want 0.75", got)
	}

	m.Reset()
	if m.Value() != 0 {
		t.Error("expected zero after reset")
	}
}

func TestFluxMetrics(t *testing.T) {
	s := quantum.NewState(8)
	s.Real[0] = 1 // x=-4, reflected side
	s.Real[6] = 2 // x=2, transmitted side

	tr := NewTransmission()
	rf := NewReflection()
	tr.Observe(s, gridParams)
	rf.Observe(s, gridParams)

	if tr.Value() != 4 {
		t.Errorf("Transmission = %f, want 4", tr.Value())
	}
	if rf.Value() != 1 {
		t.Errorf("Reflection = %f, want 1", rf.Value())
	}
}

func TestMeanPositionAveragesOverTime(t *testing.T) {
	m := NewMeanPosition()

	a := quantum.NewState(8)
	a.Real[0] = 1 // x=-4
	b := quantum.NewState(8)
	b.Real[7] = 1 // x=3

	m.Observe(a, gridParams)
	m.Observe(b, gridParams)

	if got := m.Value(); math.Abs(got+0.5) > 1e-12 {
		t.Errorf("MeanPosition = %f, want -0.5", got)
	}
}

func TestPeakDensityKeepsMaximum(t *testing.T) {
	m := NewPeakDensity()
	m.Observe(uniformState(8, 2), gridParams)
	m.Observe(uniformState(8, 1), gridParams)

	if m.Value() != 4 {
		t.Errorf("PeakDensity = %f, want 4", m.Value())
	}
}

func TestStability(t *testing.T) {
	tests := []struct {
		name  string
		amps  []float64
		value float64
	}{
		{"conserved", []float64{0.35, 0.35}, 1},
		{"gain", []float64{0.35, 0.5}, 0.5},
		{"blow up", []float64{math.Inf(1)}, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m := NewStability(1e-6)
			for _, a := range tt.amps {
				m.Observe(uniformState(8, a), gridParams)
			}
			if got := m.Value(); got != tt.value {
				t.Errorf("Stability = %f, want %f", got, tt.value)
			}
		})
	}
}

func TestStandardMetricsDuringRun(t *testing.T) {
	p := quantum.Params{
		NX: 256, DX: 0.1, DT: 0.005, Hbar: 1, Mass: 1, XStart: -12.8,
		K0: 5, X0: -5, Sigma: 1, BarrierHeight: 8, BarrierWidth: 0.5,
		AbsorbWidth: 24, AbsorbStrength: 0.01,
	}

	s := sim.New(p)
	for _, m := range Standard() {
		s.AddMetric(m)
	}

	res, err := s.Run(t.Context(), sim.Config{Steps: 600, SampleEvery: 100})
	if err != nil {
		t.Fatalf("run failed: %v", err)
	}

	for _, name := range []string{"norm", "norm_loss", "transmission", "reflection", "mean_position", "peak_density", "stability"} {
		if _, ok := res.Metrics[name]; !ok {
			t.Errorf("missing metric %q", name)
		}
	}

	norm := res.Metrics["norm"]
	if math.Abs(res.Metrics["norm_loss"]-(1-norm)) > 1e-9 {
		t.Errorf("norm_loss %f inconsistent with norm %f", res.Metrics["norm_loss"], norm)
	}
	if res.Metrics["transmission"]+res.Metrics["reflection"] > norm+1e-9 {
		t.Error("transmitted + reflected exceeds the norm")
	}
	if res.Metrics["stability"] != 1 {
		t.Errorf("stability = %f, want 1", res.Metrics["stability"])
	}
	if res.Metrics["transmission"] <= 0 {
		t.Error("expected some transmission")
	}
}
