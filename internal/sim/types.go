package sim

import (
	"fmt"

	"github.com/san-kum/qtunnel/internal/quantum"
)

// Metric accumulates a scalar over a run. Observe is called with the initial
// state and after every step.
type Metric interface {
	Name() string
	Observe(s *quantum.State, p quantum.Params)
	Value() float64
	Reset()
}

// Observer is notified after every step. The state must not be retained.
type Observer interface {
	OnStep(s *quantum.State, step int)
}

// ObserverFunc adapts a function to Observer.
type ObserverFunc func(s *quantum.State, step int)

func (f ObserverFunc) OnStep(s *quantum.State, step int) { f(s, step) }

type Config struct {
	Steps         int
	SampleEvery   int  // density/norm sampling interval in steps
	ValidateState bool // stop on a non-finite norm
}

func DefaultConfig() Config {
	return Config{
		Steps:         4000,
		SampleEvery:   50,
		ValidateState: true,
	}
}

type Result struct {
	Times      []float64
	Norms      []float64
	Densities  [][]float64
	Metrics    map[string]float64
	StepsTaken int
	Final      *quantum.State
	Errors     []error
}

// Duration returns the simulated time covered by the result.
func (r *Result) Duration() float64 {
	if r.Final == nil {
		return 0
	}
	return r.Final.Time
}

type SimError struct {
	Time    float64
	Step    int
	Message string
}

func (e SimError) Error() string {
	return fmt.Sprintf("step %d (t=%.4f): %s", e.Step, e.Time, e.Message)
}
