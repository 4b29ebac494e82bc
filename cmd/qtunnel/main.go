package main

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/san-kum/qtunnel/internal/config"
	"github.com/san-kum/qtunnel/internal/quantum"
	"github.com/san-kum/qtunnel/internal/sim"
	"github.com/san-kum/qtunnel/internal/storage"
	"github.com/san-kum/qtunnel/internal/viz"
)

var (
	dataDir  string
	logLevel string
	// Config file
	configFile string
	// Preset name
	preset string
	label  string
	// Overrides, applied only when set on the command line
	points        int
	dt            float64
	steps         int
	sampleEvery   int
	k0            float64
	x0            float64
	sigma         float64
	barrierHeight float64
	barrierWidth  float64
	barrierPos    float64
	roughness     float64
	seed          int64
	absorbWidth   int
	absorbEta     float64
	speed         int
	theme         string
	// Output file for export commands; empty means stdout
	outPath string
)

// main registers the qtunnel commands and starts the preset picker when no
// subcommand is given.
func main() {
	rootCmd := &cobra.Command{
		Use:   "qtunnel",
		Short: "1d quantum tunneling simulator",
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return setupLogging(logLevel)
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			return viz.RunPresetPicker(presetParams(), config.DefaultSpeed)
		},
		SilenceUsage: true,
	}

	rootCmd.PersistentFlags().StringVar(&dataDir, "data", ".qtunnel", "data directory")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "warn", "log level (debug, info, warn, error)")

	runCmd := &cobra.Command{
		Use:   "run",
		Short: "run a simulation and save it",
		Args:  cobra.NoArgs,
		RunE:  runSimulation,
	}
	addParamFlags(runCmd)
	runCmd.Flags().StringVar(&label, "label", "", "run label (defaults to the preset name)")

	liveCmd := &cobra.Command{
		Use:   "live",
		Short: "run simulation with live visualization",
		Args:  cobra.NoArgs,
		RunE:  runLive,
	}
	addParamFlags(liveCmd)
	liveCmd.Flags().IntVar(&speed, "speed", config.DefaultSpeed, "solver steps per frame")
	liveCmd.Flags().StringVar(&theme, "theme", "", "color theme ("+strings.Join(viz.ThemeNames(), ", ")+")")

	listCmd := &cobra.Command{
		Use:   "list",
		Short: "list runs",
		Args:  cobra.NoArgs,
		RunE:  listRuns,
	}
	listCmd.Flags().StringVar(&label, "label", "", "only runs with this label")

	plotCmd := &cobra.Command{
		Use:   "plot [run_id]",
		Short: "plot run results",
		Args:  cobra.ExactArgs(1),
		RunE:  plotRun,
	}

	analyzeCmd := &cobra.Command{
		Use:   "analyze [run_id]",
		Short: "momentum and transmission analysis of a run",
		Args:  cobra.ExactArgs(1),
		RunE:  analyzeRun,
	}

	exportCSVCmd := &cobra.Command{
		Use:   "export-csv [run_id]",
		Short: "export run data to CSV",
		Args:  cobra.ExactArgs(1),
		RunE:  exportCSV,
	}
	exportJSONCmd := &cobra.Command{
		Use:   "export-json [run_id]",
		Short: "export run data to JSON",
		Args:  cobra.ExactArgs(1),
		RunE:  exportJSON,
	}
	exportPNGCmd := &cobra.Command{
		Use:   "export-png [run_id]",
		Short: "render the final density to PNG",
		Args:  cobra.ExactArgs(1),
		RunE:  exportPNG,
	}
	exportSVGCmd := &cobra.Command{
		Use:   "export-svg [run_id]",
		Short: "render the final density to SVG",
		Args:  cobra.ExactArgs(1),
		RunE:  exportSVG,
	}
	for _, c := range []*cobra.Command{exportCSVCmd, exportJSONCmd, exportPNGCmd, exportSVGCmd} {
		c.Flags().StringVarP(&outPath, "out", "o", "", "output file (default stdout)")
	}
	exportPNGCmd.Flags().Bool("norm", false, "plot the norm history instead of the final density")

	sweepCmd := &cobra.Command{
		Use:   "sweep [field]",
		Short: "sweep one parameter and report transmission",
		Long:  "sweep one parameter and report transmission. fields: " + strings.Join(sim.SweepFields(), ", "),
		Args:  cobra.ExactArgs(1),
		RunE:  runSweep,
	}
	sweepCmd.Flags().String("preset", "tunneling", "base preset")
	sweepCmd.Flags().Float64("min", 0, "first value")
	sweepCmd.Flags().Float64("max", 30, "last value")
	sweepCmd.Flags().Int("points", 16, "number of values")
	sweepCmd.Flags().Int("steps", 0, "steps per run (default: preset)")

	ensembleCmd := &cobra.Command{
		Use:   "ensemble",
		Short: "transmission statistics over random rough barriers",
		Args:  cobra.NoArgs,
		RunE:  runEnsemble,
	}
	ensembleCmd.Flags().String("preset", "rough", "base preset")
	ensembleCmd.Flags().Int("trials", 16, "number of trials")
	ensembleCmd.Flags().Float64("roughness", 0.2, "roughness when the preset has none")
	ensembleCmd.Flags().Float64("k0-jitter", 0, "uniform spread of k0")
	ensembleCmd.Flags().Int("steps", 0, "steps per run (default: preset)")
	ensembleCmd.Flags().Int64("seed", 1, "random seed")

	scenarioCmd := &cobra.Command{
		Use:   "scenario [file]",
		Short: "run a YAML scenario",
		Args:  cobra.ExactArgs(1),
		RunE:  runScenario,
	}

	phaseCmd := &cobra.Command{
		Use:   "phase",
		Short: "<x> against <p> trajectory",
		Args:  cobra.NoArgs,
		RunE:  phasePlot,
	}
	addParamFlags(phaseCmd)

	presetsCmd := &cobra.Command{
		Use:   "presets",
		Short: "list available presets",
		Args:  cobra.NoArgs,
		RunE:  listPresets,
	}

	benchCmd := &cobra.Command{
		Use:   "bench",
		Short: "benchmark the split-step solver across grid sizes",
		Args:  cobra.NoArgs,
		RunE:  benchSolver,
	}
	benchCmd.Flags().Int("steps", 2000, "steps per grid size")

	tuneCmd := &cobra.Command{
		Use:     "tune",
		Short:   "grid search for parameters that hit a target transmission",
		Example: "  qtunnel tune --target 0.5 --grid barrier_height=5:20:7 --grid barrier_width=0.25:1:4",
		Args:    cobra.NoArgs,
		RunE:    runTune,
	}
	tuneCmd.Flags().String("preset", "tunneling", "base preset")
	tuneCmd.Flags().Float64("target", 0.5, "wanted transmitted probability")
	tuneCmd.Flags().StringArray("grid", nil, "field=min:max:points, repeatable")
	tuneCmd.Flags().Int("steps", 0, "steps per run (default: preset)")

	rootCmd.AddCommand(runCmd, liveCmd, listCmd, plotCmd, analyzeCmd,
		exportCSVCmd, exportJSONCmd, exportPNGCmd, exportSVGCmd,
		sweepCmd, ensembleCmd, scenarioCmd, tuneCmd, phaseCmd, presetsCmd, benchCmd)

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func setupLogging(level string) error {
	var l slog.Level
	if err := l.UnmarshalText([]byte(level)); err != nil {
		return fmt.Errorf("invalid log level %q: %w", level, err)
	}
	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: l})))
	return nil
}

func addParamFlags(cmd *cobra.Command) {
	f := cmd.Flags()
	f.StringVar(&configFile, "config", "", "config file path (yaml)")
	f.StringVar(&preset, "preset", "", "use preset configuration")
	f.IntVar(&points, "points", config.DefaultPoints, "grid points (power of two)")
	f.Float64Var(&dt, "dt", config.DefaultDt, "timestep")
	f.IntVar(&steps, "steps", config.DefaultSteps, "number of steps")
	f.IntVar(&sampleEvery, "sample-every", config.DefaultSampleEvery, "steps between samples")
	f.Float64Var(&k0, "k0", 0, "packet wavenumber")
	f.Float64Var(&x0, "x0", 0, "packet centre")
	f.Float64Var(&sigma, "sigma", 0, "packet width")
	f.Float64Var(&barrierHeight, "height", 0, "barrier height")
	f.Float64Var(&barrierWidth, "width", 0, "barrier width")
	f.Float64Var(&barrierPos, "pos", 0, "barrier centre")
	f.Float64Var(&roughness, "roughness", 0, "relative barrier roughness")
	f.Int64Var(&seed, "seed", 0, "roughness seed")
	f.IntVar(&absorbWidth, "absorb-width", 0, "absorber width in grid points")
	f.Float64Var(&absorbEta, "absorb-strength", 0, "absorber strength")
}

// resolveConfig layers preset, config file and changed flags, in that order.
func resolveConfig(cmd *cobra.Command) (*config.Config, error) {
	cfg := config.DefaultConfig()
	if preset != "" {
		if cfg = config.GetPreset(preset); cfg == nil {
			return nil, fmt.Errorf("unknown preset: %s (available: %v)", preset, config.ListPresets())
		}
	}
	if configFile != "" {
		loaded, err := config.Load(configFile)
		if err != nil {
			return nil, fmt.Errorf("failed to load config: %w", err)
		}
		cfg = loaded
	}

	f := cmd.Flags()
	if f.Changed("points") {
		length := cfg.Grid.Spacing * float64(cfg.Grid.Points)
		cfg.Grid.Points = points
		cfg.Grid.Spacing = length / float64(points)
	}
	if f.Changed("dt") {
		cfg.Time.Dt = dt
	}
	if f.Changed("steps") {
		cfg.Time.Steps = steps
	}
	if f.Changed("sample-every") {
		cfg.Time.SampleEvery = sampleEvery
	}
	if f.Changed("k0") {
		cfg.Packet.K0 = k0
	}
	if f.Changed("x0") {
		cfg.Packet.X0 = x0
	}
	if f.Changed("sigma") {
		cfg.Packet.Sigma = sigma
	}
	if f.Changed("height") {
		cfg.Barrier.Height = barrierHeight
	}
	if f.Changed("width") {
		cfg.Barrier.Width = barrierWidth
	}
	if f.Changed("pos") {
		cfg.Barrier.Position = barrierPos
	}
	if f.Changed("roughness") {
		cfg.Barrier.Roughness = roughness
	}
	if f.Changed("seed") {
		cfg.Barrier.Seed = seed
	}
	if f.Changed("absorb-width") {
		cfg.Absorber.Width = absorbWidth
	}
	if f.Changed("absorb-strength") {
		cfg.Absorber.Strength = absorbEta
	}
	if f.Lookup("speed") != nil && f.Changed("speed") {
		cfg.Display.Speed = speed
	}
	if f.Lookup("theme") != nil && f.Changed("theme") {
		cfg.Display.Theme = theme
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func presetParams() map[string]quantum.Params {
	out := make(map[string]quantum.Params, len(config.Presets))
	for name, cfg := range config.Presets {
		out[name] = cfg.Params()
	}
	return out
}

func openStore() (*storage.Store, error) {
	st := storage.New(dataDir).WithLogger(slog.Default())
	if err := st.Init(); err != nil {
		return nil, err
	}
	return st, nil
}

// openIndex opens the run catalogue next to the file store.
func openIndex() (*storage.Index, error) {
	if err := os.MkdirAll(dataDir, 0755); err != nil {
		return nil, err
	}
	return storage.OpenIndex(filepath.Join(dataDir, "index.db"))
}

// output returns the export destination and a close func.
func output() (*os.File, func() error, error) {
	if outPath == "" {
		return os.Stdout, func() error { return nil }, nil
	}
	f, err := os.Create(outPath)
	if err != nil {
		return nil, nil, err
	}
	return f, f.Close, nil
}
