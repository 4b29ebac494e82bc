package metrics

import "github.com/san-kum/qtunnel/internal/sim"

// Standard returns the metric set recorded for every stored run.
func Standard() []sim.Metric {
	return []sim.Metric{
		NewNorm(),
		NewNormLoss(),
		NewTransmission(),
		NewReflection(),
		NewMeanPosition(),
		NewPeakDensity(),
		NewStability(1e-6),
	}
}
