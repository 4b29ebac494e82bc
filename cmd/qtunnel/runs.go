package main

import (
	"fmt"
	"log/slog"
	"math"
	"os"
	"text/tabwriter"

	"github.com/dustin/go-humanize"
	"github.com/guptarohit/asciigraph"
	"github.com/spf13/cobra"

	"github.com/san-kum/qtunnel/internal/analysis"
	"github.com/san-kum/qtunnel/internal/export"
	"github.com/san-kum/qtunnel/internal/quantum"
	"github.com/san-kum/qtunnel/internal/storage"
)

func listRuns(cmd *cobra.Command, args []string) error {
	idx, err := openIndex()
	if err != nil {
		slog.Warn("run index unavailable, scanning data directory", "err", err)
		return listStoredRuns()
	}
	defer idx.Close()

	var entries []storage.IndexEntry
	if label != "" {
		entries, err = idx.ByLabel(label)
	} else {
		entries, err = idx.Recent(50)
	}
	if err != nil {
		return err
	}
	if len(entries) == 0 {
		return listStoredRuns()
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tLABEL\tCREATED\tPOINTS\tSTEPS\tHEIGHT\tNORM\tT\tR")
	for _, e := range entries {
		fmt.Fprintf(w, "%s\t%s\t%s\t%d\t%d\t%.2f\t%.4f\t%.4f\t%.4f\n",
			e.ID, e.Label, humanize.Time(e.Created()), e.NX, e.Steps,
			e.BarrierHeight, e.Norm, e.Transmitted, e.Reflected)
	}
	return w.Flush()
}

func listStoredRuns() error {
	runs, err := storage.New(dataDir).List()
	if err != nil {
		return err
	}
	if len(runs) == 0 {
		fmt.Println("no runs found")
		return nil
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tLABEL\tCREATED\tPOINTS\tSTEPS\tHEIGHT\tNORM\tT\tR")
	for _, run := range runs {
		if label != "" && run.Label != label {
			continue
		}
		fmt.Fprintf(w, "%s\t%s\t%s\t%d\t%d\t%.2f\t%.4f\t%.4f\t%.4f\n",
			run.ID, run.Label, humanize.Time(run.Timestamp), run.Params.NX, run.Steps,
			run.Params.BarrierHeight, run.Metrics["norm"], run.Metrics["transmission"], run.Metrics["reflection"])
	}
	return w.Flush()
}

func loadRun(runID string) (*storage.RunMetadata, *storage.Series, error) {
	st := storage.New(dataDir)
	meta, err := st.Load(runID)
	if err != nil {
		return nil, nil, err
	}
	series, err := st.LoadSeries(runID)
	if err != nil {
		return nil, nil, err
	}
	if len(series.Times) == 0 {
		return nil, nil, fmt.Errorf("no data to plot")
	}
	return meta, series, nil
}

// transmittedSeries integrates each density sample past the barrier.
func transmittedSeries(p quantum.Params, series *storage.Series) []float64 {
	_, hi := p.BarrierEdges()
	out := make([]float64, len(series.Densities))
	for i, row := range series.Densities {
		for j, d := range row {
			if p.Position(j) > hi {
				out[i] += d * p.DX
			}
		}
	}
	return out
}

// meanPositionSeries is <x>/norm of each density sample.
func meanPositionSeries(p quantum.Params, series *storage.Series) []float64 {
	out := make([]float64, len(series.Densities))
	for i, row := range series.Densities {
		var num, den float64
		for j, d := range row {
			num += p.Position(j) * d
			den += d
		}
		if den > 0 {
			out[i] = num / den
		}
	}
	return out
}

func plotRun(cmd *cobra.Command, args []string) error {
	meta, series, err := loadRun(args[0])
	if err != nil {
		return err
	}

	fmt.Printf("run: %s\n", meta.ID)
	fmt.Printf("label: %s\n", meta.Label)
	fmt.Printf("samples: %d\n\n", len(series.Times))

	if len(series.Norms) > 1 {
		fmt.Println(asciigraph.Plot(series.Norms,
			asciigraph.Height(10),
			asciigraph.Width(80),
			asciigraph.Caption("norm vs time"),
		))
		fmt.Println()

		fmt.Println(asciigraph.Plot(transmittedSeries(meta.Params, series),
			asciigraph.Height(10),
			asciigraph.Width(80),
			asciigraph.Caption("transmitted probability vs time"),
		))
		fmt.Println()
	}

	last := series.Densities[len(series.Densities)-1]
	fmt.Println(asciigraph.Plot(last,
		asciigraph.Height(12),
		asciigraph.Width(80),
		asciigraph.Caption(fmt.Sprintf("|psi|^2 at t=%.3f", series.Times[len(series.Times)-1])),
	))
	return nil
}

func analyzeRun(cmd *cobra.Command, args []string) error {
	meta, series, err := loadRun(args[0])
	if err != nil {
		return err
	}
	final, p, err := storage.New(dataDir).LoadFinal(args[0])
	if err != nil {
		return err
	}

	e := analysis.PacketEnergy(p)
	fmt.Printf("run: %s (%s)\n\n", meta.ID, meta.Label)

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintf(w, "packet energy\t%.4f\n", e)
	fmt.Fprintf(w, "barrier height\t%.4f\n", p.BarrierHeight)
	if p.BarrierHeight > 0 {
		fmt.Fprintf(w, "E/V0\t%.4f\n", e/p.BarrierHeight)
	}
	fmt.Fprintf(w, "transmitted\t%.6f\n", quantum.Transmitted(final, p))
	fmt.Fprintf(w, "reflected\t%.6f\n", quantum.Reflected(final, p))
	fmt.Fprintf(w, "norm\t%.6f\n", quantum.TotalProbability(final, p.DX))
	if p.BarrierHeight > 0 && p.Roughness == 0 {
		width := analysis.ResolvedBarrierWidth(p)
		if t, err := analysis.PacketTransmission(p, width); err == nil {
			fmt.Fprintf(w, "analytic T (packet)\t%.6f\n", t)
		}
		fmt.Fprintf(w, "analytic T (k0)\t%.6f\n", analysis.PlaneWaveTransmission(e, p.BarrierHeight, width, p.Mass, p.Hbar))
	}
	mk, err := analysis.MeanMomentum(final, p)
	if err == nil {
		fmt.Fprintf(w, "<k> final\t%.4f (k0=%.4f)\n", mk, p.K0)
	}

	xs := meanPositionSeries(p, series)
	if len(series.Times) > 2 {
		dts := series.Times[1] - series.Times[0]
		if f := analysis.DominantFrequency(xs, dts); f > 0 {
			fmt.Fprintf(w, "<x> dominant freq\t%.4f\n", f)
		}
	}
	if err := w.Flush(); err != nil {
		return err
	}

	k, dens, err := analysis.MomentumDensity(final, p)
	if err != nil {
		return err
	}
	lo, hi := momentumWindow(dens)
	fmt.Println()
	fmt.Println(asciigraph.Plot(dens[lo:hi],
		asciigraph.Height(10),
		asciigraph.Width(80),
		asciigraph.Caption(fmt.Sprintf("|phi(k)|^2, k in [%.2f, %.2f]", k[lo], k[hi-1])),
	))
	return nil
}

// momentumWindow trims the momentum density to the bins above 0.1% of
// its peak.
func momentumWindow(dens []float64) (lo, hi int) {
	peak := 0.0
	for _, d := range dens {
		peak = math.Max(peak, d)
	}
	lo, hi = 0, len(dens)
	for lo < hi-1 && dens[lo] < peak*1e-3 {
		lo++
	}
	for hi > lo+1 && dens[hi-1] < peak*1e-3 {
		hi--
	}
	return lo, hi
}

func exportCSV(cmd *cobra.Command, args []string) error {
	meta, series, err := loadRun(args[0])
	if err != nil {
		return err
	}
	f, closeFn, err := output()
	if err != nil {
		return err
	}
	defer closeFn()
	return storage.ExportCSV(f, meta, series)
}

func exportJSON(cmd *cobra.Command, args []string) error {
	meta, series, err := loadRun(args[0])
	if err != nil {
		return err
	}
	f, closeFn, err := output()
	if err != nil {
		return err
	}
	defer closeFn()
	return storage.ExportJSON(f, meta, series)
}

func exportPNG(cmd *cobra.Command, args []string) error {
	if outPath == "" {
		return fmt.Errorf("export-png needs --out")
	}
	normOnly, _ := cmd.Flags().GetBool("norm")

	meta, series, err := loadRun(args[0])
	if err != nil {
		return err
	}
	f, closeFn, err := output()
	if err != nil {
		return err
	}
	defer closeFn()

	title := fmt.Sprintf("%s (%s)", meta.Label, meta.ID[:8])
	if normOnly {
		return export.WriteNormPNG(f, series.Times, series.Norms, title)
	}

	final, p, err := storage.New(dataDir).LoadFinal(args[0])
	if err != nil {
		return err
	}
	return export.WritePNG(f, quantum.Positions(p), quantum.ProbabilityDensity(final), final.Potential, title)
}

func exportSVG(cmd *cobra.Command, args []string) error {
	final, p, err := storage.New(dataDir).LoadFinal(args[0])
	if err != nil {
		return err
	}
	f, closeFn, err := output()
	if err != nil {
		return err
	}
	defer closeFn()

	_, err = fmt.Fprint(f, export.DensitySVG(quantum.Positions(p), quantum.ProbabilityDensity(final), final.Potential, 800, 300))
	return err
}
