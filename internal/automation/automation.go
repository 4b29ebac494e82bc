package automation

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/san-kum/qtunnel/internal/config"
	"github.com/san-kum/qtunnel/internal/metrics"
	"github.com/san-kum/qtunnel/internal/quantum"
	"github.com/san-kum/qtunnel/internal/sim"
	"github.com/san-kum/qtunnel/internal/storage"
)

var ErrUnknownPreset = errors.New("automation: unknown preset")

// Scenario defines a scripted simulation sequence
type Scenario struct {
	Name        string         `yaml:"name"`
	Description string         `yaml:"description"`
	Steps       []ScenarioStep `yaml:"steps"`
}

// ScenarioStep is a single run: a preset, field overrides and how long to
// evolve. Zero Steps or SampleEvery keep the preset's values.
type ScenarioStep struct {
	Preset      string             `yaml:"preset"`
	Overrides   map[string]float64 `yaml:"overrides"`
	Steps       int                `yaml:"steps"`
	SampleEvery int                `yaml:"sample_every"`
	SaveAs      string             `yaml:"save_as"`
}

// StepResult is the outcome of one scenario step.
type StepResult struct {
	Label  string
	Params quantum.Params
	Result *sim.Result
	Run    *storage.RunMetadata // nil unless the step was saved
}

// LoadScenario loads a scenario from a YAML file
func LoadScenario(path string) (*Scenario, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	var scenario Scenario
	if err := yaml.Unmarshal(data, &scenario); err != nil {
		return nil, fmt.Errorf("automation: parse %s: %w", path, err)
	}
	if len(scenario.Steps) == 0 {
		return nil, fmt.Errorf("automation: scenario %q has no steps", scenario.Name)
	}

	return &scenario, nil
}

// Runner executes scenarios. Store and Index may be nil, in which case
// save_as is ignored or runs go unindexed.
type Runner struct {
	Store *storage.Store
	Index *storage.Index
	Log   *slog.Logger
}

func (r *Runner) logger() *slog.Logger {
	if r.Log == nil {
		return slog.Default()
	}
	return r.Log
}

// Resolve builds the parameters and run configuration for a step.
func (st ScenarioStep) Resolve() (quantum.Params, sim.Config, error) {
	cfg := config.DefaultConfig()
	if st.Preset != "" {
		if cfg = config.GetPreset(st.Preset); cfg == nil {
			return quantum.Params{}, sim.Config{}, fmt.Errorf("%w: %q", ErrUnknownPreset, st.Preset)
		}
	}
	if st.Steps > 0 {
		cfg.Time.Steps = st.Steps
	}
	if st.SampleEvery > 0 {
		cfg.Time.SampleEvery = st.SampleEvery
	}

	p := cfg.Params()
	for field, v := range st.Overrides {
		if err := sim.SetField(&p, field, v); err != nil {
			return quantum.Params{}, sim.Config{}, err
		}
	}
	if err := p.Validate(); err != nil {
		return quantum.Params{}, sim.Config{}, err
	}
	return p, cfg.SimConfig(), nil
}

// RunScenario executes all steps in a scenario
func (r *Runner) RunScenario(ctx context.Context, scenario *Scenario) ([]StepResult, error) {
	log := r.logger().With("scenario", scenario.Name)
	results := make([]StepResult, 0, len(scenario.Steps))

	for i, step := range scenario.Steps {
		label := step.SaveAs
		if label == "" {
			label = fmt.Sprintf("%s-%d", scenario.Name, i+1)
		}
		log.Info("running step", "step", i+1, "of", len(scenario.Steps), "preset", step.Preset)

		p, cfg, err := step.Resolve()
		if err != nil {
			return results, fmt.Errorf("step %d: %w", i+1, err)
		}

		s := sim.New(p, sim.WithLogger(log))
		for _, m := range metrics.Standard() {
			s.AddMetric(m)
		}
		res, err := s.Run(ctx, cfg)
		if err != nil {
			return results, fmt.Errorf("step %d run: %w", i+1, err)
		}

		out := StepResult{Label: label, Params: p, Result: res}
		if step.SaveAs != "" && r.Store != nil {
			meta, err := r.Store.Save(step.SaveAs, p, cfg, res)
			if err != nil {
				return results, fmt.Errorf("step %d save: %w", i+1, err)
			}
			if r.Index != nil {
				if err := r.Index.Record(meta); err != nil {
					return results, fmt.Errorf("step %d index: %w", i+1, err)
				}
			}
			out.Run = meta
			log.Info("saved step", "step", i+1, "run", meta.ID)
		}

		results = append(results, out)
	}

	return results, nil
}

// ParameterSweep runs a preset across evenly spaced values of one field.
type ParameterSweep struct {
	Preset string
	Field  string
	Min    float64
	Max    float64
	Points int
	Steps  int // zero keeps the preset's step count
}

// Values returns the sweep's sample points, Min and Max included.
func (ps *ParameterSweep) Values() []float64 {
	if ps.Points <= 1 {
		return []float64{ps.Min}
	}
	vals := make([]float64, ps.Points)
	step := (ps.Max - ps.Min) / float64(ps.Points-1)
	for i := range vals {
		vals[i] = ps.Min + float64(i)*step
	}
	vals[len(vals)-1] = ps.Max
	return vals
}

// RunSweep executes a parameter sweep
func (r *Runner) RunSweep(ctx context.Context, sweep *ParameterSweep) ([]sim.SweepPoint, error) {
	p, cfg, err := ScenarioStep{Preset: sweep.Preset, Steps: sweep.Steps}.Resolve()
	if err != nil {
		return nil, err
	}
	vals := sweep.Values()
	r.logger().Info("sweep", "field", sweep.Field, "points", len(vals), "min", sweep.Min, "max", sweep.Max)
	return sim.Sweep(ctx, p, sweep.Field, vals, cfg, sim.WithLogger(r.logger()))
}
