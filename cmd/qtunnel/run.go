package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"maps"
	"os"
	"os/signal"
	"slices"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"github.com/san-kum/qtunnel/internal/analysis"
	"github.com/san-kum/qtunnel/internal/automation"
	"github.com/san-kum/qtunnel/internal/config"
	"github.com/san-kum/qtunnel/internal/metrics"
	"github.com/san-kum/qtunnel/internal/quantum"
	"github.com/san-kum/qtunnel/internal/sim"
	"github.com/san-kum/qtunnel/internal/viz"
)

func interruptible() (context.Context, context.CancelFunc) {
	return signal.NotifyContext(context.Background(), os.Interrupt)
}

func runSimulation(cmd *cobra.Command, args []string) error {
	cfg, err := resolveConfig(cmd)
	if err != nil {
		return err
	}
	p := cfg.Params()
	simCfg := cfg.SimConfig()

	name := label
	if name == "" {
		name = preset
	}
	if name == "" {
		name = "custom"
	}

	ctx, stop := interruptible()
	defer stop()

	s := sim.New(p, sim.WithLogger(slog.Default()))
	for _, m := range metrics.Standard() {
		s.AddMetric(m)
	}

	fmt.Printf("running %s: %d steps on %d points...\n", name, simCfg.Steps, p.NX)
	start := time.Now()

	result, err := s.Run(ctx, simCfg)
	if err != nil {
		if result == nil || !errors.Is(err, context.Canceled) {
			return err
		}
		fmt.Printf("interrupted after %d steps, saving partial run\n", result.StepsTaken)
	}
	elapsed := time.Since(start)

	st, err := openStore()
	if err != nil {
		return err
	}
	meta, err := st.Save(name, p, simCfg, result)
	if err != nil {
		return err
	}
	if idx, err := openIndex(); err != nil {
		slog.Warn("run index unavailable", "err", err)
	} else {
		if err := idx.Record(meta); err != nil {
			slog.Warn("index run", "run", meta.ID, "err", err)
		}
		idx.Close()
	}

	fmt.Printf("completed in %v\n", elapsed)
	fmt.Printf("run id: %s\n", meta.ID)
	fmt.Printf("steps: %d (t=%.4f)\n", result.StepsTaken, result.Final.Time)
	for _, e := range result.Errors {
		fmt.Printf("warning: %v\n", e)
	}

	fmt.Println("\nmetrics:")
	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	for _, k := range slices.Sorted(maps.Keys(result.Metrics)) {
		fmt.Fprintf(w, "  %s\t%.6f\n", k, result.Metrics[k])
	}
	if p.BarrierHeight > 0 && p.Roughness == 0 {
		if t, err := analysis.PacketTransmission(p, analysis.ResolvedBarrierWidth(p)); err == nil {
			fmt.Fprintf(w, "  analytic T\t%.6f\n", t)
		}
	}
	return w.Flush()
}

func runLive(cmd *cobra.Command, args []string) error {
	cfg, err := resolveConfig(cmd)
	if err != nil {
		return err
	}
	if cfg.Display.Theme != "" {
		viz.SetTheme(cfg.Display.Theme)
	}

	name := preset
	if name == "" {
		name = "custom"
	}
	m, err := viz.NewModel(cfg.Params(), name, cfg.Display.Speed)
	if err != nil {
		return err
	}
	return viz.Run(m)
}

func runSweep(cmd *cobra.Command, args []string) error {
	f := cmd.Flags()
	base, _ := f.GetString("preset")
	lo, _ := f.GetFloat64("min")
	hi, _ := f.GetFloat64("max")
	n, _ := f.GetInt("points")
	nsteps, _ := f.GetInt("steps")

	ctx, stop := interruptible()
	defer stop()

	r := &automation.Runner{Log: slog.Default()}
	sweep := &automation.ParameterSweep{Preset: base, Field: args[0], Min: lo, Max: hi, Points: n, Steps: nsteps}

	start := time.Now()
	points, err := r.RunSweep(ctx, sweep)
	if err != nil {
		return err
	}

	fmt.Printf("%s sweep on %s (%d runs in %v)\n\n", args[0], base, len(points), time.Since(start).Round(time.Millisecond))
	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "VALUE\tTRANSMITTED\tREFLECTED\tABSORBED")
	for _, pt := range points {
		fmt.Fprintf(w, "%.4f\t%.4f\t%.4f\t%.4f\n", pt.Value, pt.Transmitted, pt.Reflected, pt.Absorbed)
	}
	if err := w.Flush(); err != nil {
		return err
	}

	fmt.Println()
	fmt.Println(analysis.SweepToASCII(points, 60, 12))
	return nil
}

func runEnsemble(cmd *cobra.Command, args []string) error {
	f := cmd.Flags()
	base, _ := f.GetString("preset")
	trials, _ := f.GetInt("trials")
	rough, _ := f.GetFloat64("roughness")
	jitter, _ := f.GetFloat64("k0-jitter")
	nsteps, _ := f.GetInt("steps")
	rseed, _ := f.GetInt64("seed")

	ctx, stop := interruptible()
	defer stop()

	r := &automation.Runner{Log: slog.Default()}
	results, err := r.RunEnsemble(ctx, automation.EnsembleConfig{
		Preset:    base,
		Trials:    trials,
		Roughness: rough,
		K0Jitter:  jitter,
		Steps:     nsteps,
		Seed:      rseed,
	})
	if err != nil {
		return err
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "TRIAL\tSEED\tK0\tTRANSMITTED\tREFLECTED\tSTABLE")
	for _, t := range results {
		fmt.Fprintf(w, "%d\t%d\t%.3f\t%.4f\t%.4f\t%v\n", t.ID, t.Seed, t.K0, t.Transmitted, t.Reflected, t.Stable)
	}
	if err := w.Flush(); err != nil {
		return err
	}

	stats := automation.Summarize(results)
	fmt.Printf("\nT = %.4f ± %.4f\n", stats.MeanT, stats.StdT)
	fmt.Printf("R = %.4f ± %.4f\n", stats.MeanR, stats.StdR)
	if stats.Unstable > 0 {
		fmt.Printf("unstable trials: %d\n", stats.Unstable)
	}
	return nil
}

func runScenario(cmd *cobra.Command, args []string) error {
	sc, err := automation.LoadScenario(args[0])
	if err != nil {
		return err
	}

	st, err := openStore()
	if err != nil {
		return err
	}
	idx, err := openIndex()
	if err != nil {
		return err
	}
	defer idx.Close()

	ctx, stop := interruptible()
	defer stop()

	fmt.Printf("scenario %s: %d steps\n", sc.Name, len(sc.Steps))
	if sc.Description != "" {
		fmt.Println(sc.Description)
	}

	r := &automation.Runner{Store: st, Index: idx, Log: slog.Default()}
	results, err := r.RunScenario(ctx, sc)

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "\nLABEL\tRUN\tSTEPS\tNORM\tTRANSMITTED\tREFLECTED")
	for _, res := range results {
		id := "-"
		if res.Run != nil {
			id = res.Run.ID
		}
		m := res.Result.Metrics
		fmt.Fprintf(w, "%s\t%s\t%d\t%.4f\t%.4f\t%.4f\n",
			res.Label, id, res.Result.StepsTaken, m["norm"], m["transmission"], m["reflection"])
	}
	if ferr := w.Flush(); ferr != nil && err == nil {
		err = ferr
	}
	return err
}

func phasePlot(cmd *cobra.Command, args []string) error {
	cfg, err := resolveConfig(cmd)
	if err != nil {
		return err
	}

	portrait, err := analysis.ExpectationPortrait(cfg.Params(), cfg.Time.Steps, cfg.Time.SampleEvery)
	if err != nil {
		return err
	}

	fmt.Printf("<x> vs <p>, %d samples\n\n", len(portrait.Points))
	fmt.Println(analysis.PhasePortraitToASCII(portrait, 72, 24))
	return nil
}

func listPresets(cmd *cobra.Command, args []string) error {
	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "NAME\tHEIGHT\tWIDTH\tK0\tENERGY\tROUGHNESS")
	for _, name := range config.ListPresets() {
		p := config.Presets[name].Params()
		fmt.Fprintf(w, "%s\t%.2f\t%.3f\t%.2f\t%.2f\t%.2f\n",
			name, p.BarrierHeight, p.BarrierWidth, p.K0, analysis.PacketEnergy(p), p.Roughness)
	}
	return w.Flush()
}

func benchSolver(cmd *cobra.Command, args []string) error {
	nsteps, _ := cmd.Flags().GetInt("steps")
	if nsteps <= 0 {
		return fmt.Errorf("steps must be positive, got %d", nsteps)
	}

	fmt.Printf("benchmarking %d steps per grid size...\n\n", nsteps)
	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "POINTS\tTIME\tSTEPS/S\tNS/STEP\tNORM DRIFT")

	for _, n := range []int{256, 512, 1024, 2048, 4096} {
		p := quantum.DefaultParams()
		p.NX = n
		p.DX = config.DefaultLength / float64(n)
		p.XStart = -config.DefaultLength / 2
		p.AbsorbStrength = 0

		s, err := quantum.Initialize(p)
		if err != nil {
			return err
		}
		evo, err := quantum.NewEvolver(p)
		if err != nil {
			return err
		}

		start := time.Now()
		if err := evo.StepN(s, nsteps); err != nil {
			return err
		}
		elapsed := time.Since(start)

		drift := quantum.TotalProbability(s, p.DX) - 1
		fmt.Fprintf(w, "%d\t%v\t%.0f\t%d\t%.2e\n",
			n,
			elapsed.Round(time.Microsecond),
			float64(nsteps)/elapsed.Seconds(),
			elapsed.Nanoseconds()/int64(nsteps),
			drift,
		)
	}
	return w.Flush()
}
