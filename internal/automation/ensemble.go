package automation

import (
	"context"
	"fmt"
	"math/rand"
	"runtime"

	"golang.org/x/sync/errgroup"
	"gonum.org/v1/gonum/stat"

	"github.com/san-kum/qtunnel/internal/quantum"
	"github.com/san-kum/qtunnel/internal/sim"
)

// EnsembleConfig describes repeated runs over randomly seeded rough
// barriers with jittered packet momentum.
type EnsembleConfig struct {
	Preset    string
	Trials    int
	Roughness float64 // applied when the preset has none
	K0Jitter  float64 // uniform half-width added to k0
	Steps     int
	Seed      int64
}

type Trial struct {
	ID          int
	Seed        int64
	K0          float64
	Transmitted float64
	Reflected   float64
	Stable      bool
}

// EnsembleStats summarizes an ensemble.
type EnsembleStats struct {
	MeanT, StdT float64
	MeanR, StdR float64
	Unstable    int
}

// RunEnsemble executes the trials in parallel. Trial parameters are drawn
// up front from cfg.Seed so results do not depend on scheduling.
func (r *Runner) RunEnsemble(ctx context.Context, cfg EnsembleConfig) ([]Trial, error) {
	if cfg.Trials <= 0 {
		return nil, fmt.Errorf("%w: trials must be positive, got %d", quantum.ErrParameterBounds, cfg.Trials)
	}
	base, simCfg, err := ScenarioStep{Preset: cfg.Preset, Steps: cfg.Steps}.Resolve()
	if err != nil {
		return nil, err
	}
	if base.Roughness == 0 {
		base.Roughness = cfg.Roughness
	}

	rng := rand.New(rand.NewSource(cfg.Seed))
	trials := make([]Trial, cfg.Trials)
	for i := range trials {
		trials[i] = Trial{
			ID:   i,
			Seed: rng.Int63(),
			K0:   base.K0 + (rng.Float64()*2-1)*cfg.K0Jitter,
		}
	}

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(runtime.GOMAXPROCS(0))
	for i := range trials {
		g.Go(func() error {
			p := base
			p.Seed = trials[i].Seed
			p.K0 = trials[i].K0

			res, err := sim.New(p, sim.WithLogger(r.logger())).Run(ctx, simCfg)
			if err != nil {
				return fmt.Errorf("trial %d: %w", i, err)
			}
			trials[i].Stable = len(res.Errors) == 0 && res.Final != nil && res.Final.IsValid()
			if trials[i].Stable {
				trials[i].Transmitted = quantum.Transmitted(res.Final, p)
				trials[i].Reflected = quantum.Reflected(res.Final, p)
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	r.logger().Info("ensemble complete", "preset", cfg.Preset, "trials", cfg.Trials)
	return trials, nil
}

// Summarize computes mean and spread over the stable trials.
func Summarize(trials []Trial) EnsembleStats {
	var ts, rs []float64
	var out EnsembleStats
	for _, t := range trials {
		if !t.Stable {
			out.Unstable++
			continue
		}
		ts = append(ts, t.Transmitted)
		rs = append(rs, t.Reflected)
	}
	if len(ts) == 0 {
		return out
	}
	if len(ts) == 1 {
		out.MeanT, out.MeanR = ts[0], rs[0]
		return out
	}
	out.MeanT, out.StdT = stat.MeanStdDev(ts, nil)
	out.MeanR, out.StdR = stat.MeanStdDev(rs, nil)
	return out
}
