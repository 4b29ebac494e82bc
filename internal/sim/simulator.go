package sim

import (
	"context"
	"fmt"
	"log/slog"
	"math"

	"github.com/san-kum/qtunnel/internal/quantum"
)

type Simulator struct {
	params    quantum.Params
	metrics   []Metric
	observers []Observer
	log       *slog.Logger
}

type Option func(*Simulator)

// WithLogger sets the logger used for run diagnostics.
func WithLogger(l *slog.Logger) Option {
	return func(s *Simulator) { s.log = l }
}

func New(p quantum.Params, opts ...Option) *Simulator {
	s := &Simulator{
		params:    p,
		metrics:   make([]Metric, 0),
		observers: make([]Observer, 0),
		log:       slog.Default(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *Simulator) Params() quantum.Params { return s.params }

func (s *Simulator) AddMetric(m Metric)     { s.metrics = append(s.metrics, m) }
func (s *Simulator) AddObserver(o Observer) { s.observers = append(s.observers, o) }

// Run evolves a freshly initialized packet for cfg.Steps steps. On context
// cancellation the partial result is returned with ctx.Err().
func (s *Simulator) Run(ctx context.Context, cfg Config) (*Result, error) {
	if err := validateConfig(cfg); err != nil {
		return nil, err
	}

	state, evo, err := s.prepare()
	if err != nil {
		return nil, err
	}

	samples := cfg.Steps/cfg.SampleEvery + 2
	result := &Result{
		Times:     make([]float64, 0, samples),
		Norms:     make([]float64, 0, samples),
		Densities: make([][]float64, 0, samples),
		Metrics:   make(map[string]float64),
		Errors:    make([]error, 0),
		Final:     state,
	}

	for _, m := range s.metrics {
		m.Reset()
		m.Observe(state, s.params)
	}
	s.sample(result, state)

	s.log.Debug("run started",
		"nx", s.params.NX, "dt", s.params.DT, "steps", cfg.Steps,
		"stability", s.params.Stability())

	sampled := true
	for i := 0; i < cfg.Steps; i++ {
		select {
		case <-ctx.Done():
			s.finish(result)
			return result, ctx.Err()
		default:
		}

		if err := evo.Step(state); err != nil {
			return result, fmt.Errorf("step %d: %w", i, err)
		}
		result.StepsTaken++

		for _, m := range s.metrics {
			m.Observe(state, s.params)
		}
		for _, obs := range s.observers {
			obs.OnStep(state, i+1)
		}

		if cfg.ValidateState {
			norm := quantum.TotalProbability(state, s.params.DX)
			if math.IsNaN(norm) || math.IsInf(norm, 0) {
				err := SimError{Time: state.Time, Step: i + 1, Message: "non-finite norm"}
				s.log.Warn("run diverged", "step", i+1, "time", state.Time)
				result.Errors = append(result.Errors, err)
				sampled = false
				break
			}
		}

		sampled = (i+1)%cfg.SampleEvery == 0
		if sampled {
			s.sample(result, state)
		}
	}

	if !sampled {
		s.sample(result, state)
	}
	s.finish(result)

	s.log.Debug("run complete",
		"steps", result.StepsTaken, "time", state.Time,
		"norm", result.Norms[len(result.Norms)-1])
	return result, nil
}

// RunWithCallback steps a fresh packet and hands each state to callback,
// starting with the initial one. It stops after cfg.Steps steps or when
// callback returns false.
func (s *Simulator) RunWithCallback(ctx context.Context, cfg Config, callback func(*quantum.State, int) bool) error {
	if err := validateConfig(cfg); err != nil {
		return err
	}

	state, evo, err := s.prepare()
	if err != nil {
		return err
	}

	for i := 0; ; i++ {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}

		if !callback(state, i) || i == cfg.Steps {
			return nil
		}

		if err := evo.Step(state); err != nil {
			return err
		}

		if cfg.ValidateState && !state.IsValid() {
			return SimError{Time: state.Time, Step: i + 1, Message: "invalid state (NaN/Inf)"}
		}
	}
}

func (s *Simulator) prepare() (*quantum.State, *quantum.Evolver, error) {
	state, err := quantum.Initialize(s.params)
	if err != nil {
		return nil, nil, err
	}
	evo, err := quantum.NewEvolver(s.params)
	if err != nil {
		return nil, nil, err
	}
	return state, evo, nil
}

func (s *Simulator) sample(r *Result, state *quantum.State) {
	r.Times = append(r.Times, state.Time)
	r.Norms = append(r.Norms, quantum.TotalProbability(state, s.params.DX))
	r.Densities = append(r.Densities, quantum.ProbabilityDensity(state))
}

func (s *Simulator) finish(r *Result) {
	for _, m := range s.metrics {
		r.Metrics[m.Name()] = m.Value()
	}
}

func validateConfig(cfg Config) error {
	if cfg.Steps < 0 {
		return fmt.Errorf("steps must be non-negative, got %d", cfg.Steps)
	}
	if cfg.SampleEvery <= 0 {
		return fmt.Errorf("sample interval must be positive, got %d", cfg.SampleEvery)
	}
	return nil
}
