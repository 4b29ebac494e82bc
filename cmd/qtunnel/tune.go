package main

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/san-kum/qtunnel/internal/automation"
	"github.com/san-kum/qtunnel/internal/optim"
)

// parseGrid reads "field=min:max:points".
func parseGrid(arg string) (string, []float64, error) {
	field, rng, ok := strings.Cut(arg, "=")
	if !ok {
		return "", nil, fmt.Errorf("grid %q: want field=min:max:points", arg)
	}
	parts := strings.Split(rng, ":")
	if len(parts) != 3 {
		return "", nil, fmt.Errorf("grid %q: want field=min:max:points", arg)
	}
	lo, err := strconv.ParseFloat(parts[0], 64)
	if err != nil {
		return "", nil, fmt.Errorf("grid %q: %w", arg, err)
	}
	hi, err := strconv.ParseFloat(parts[1], 64)
	if err != nil {
		return "", nil, fmt.Errorf("grid %q: %w", arg, err)
	}
	n, err := strconv.Atoi(parts[2])
	if err != nil || n < 1 {
		return "", nil, fmt.Errorf("grid %q: points must be a positive integer", arg)
	}
	return field, (&automation.ParameterSweep{Min: lo, Max: hi, Points: n}).Values(), nil
}

func runTune(cmd *cobra.Command, args []string) error {
	f := cmd.Flags()
	base, _ := f.GetString("preset")
	target, _ := f.GetFloat64("target")
	grids, _ := f.GetStringArray("grid")
	nsteps, _ := f.GetInt("steps")
	if len(grids) == 0 {
		return fmt.Errorf("at least one --grid is required")
	}

	names := make([]string, 0, len(grids))
	ranges := make([][]float64, 0, len(grids))
	for _, g := range grids {
		name, vals, err := parseGrid(g)
		if err != nil {
			return err
		}
		names = append(names, name)
		ranges = append(ranges, vals)
	}

	search, err := optim.NewGridSearch(names, ranges)
	if err != nil {
		return err
	}
	p, cfg, err := automation.ScenarioStep{Preset: base, Steps: nsteps}.Resolve()
	if err != nil {
		return err
	}

	ctx, stop := interruptible()
	defer stop()

	fmt.Printf("searching %d combinations for T=%.3f...\n", search.Size(), target)
	start := time.Now()
	best, score, err := search.Search(ctx, p, cfg, optim.TargetTransmission(target))
	if err != nil {
		return err
	}

	fmt.Printf("done in %v\n\n", time.Since(start).Round(time.Millisecond))
	for _, name := range names {
		fmt.Printf("  %s = %.4f\n", name, best[name])
	}
	fmt.Printf("  |T - target| = %.4f\n", score)
	return nil
}
