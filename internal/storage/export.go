package storage

import (
	"encoding/csv"
	"encoding/json"
	"io"

	"github.com/san-kum/qtunnel/internal/quantum"
)

type ExportData struct {
	ID        string             `json:"id"`
	Label     string             `json:"label"`
	Params    quantum.Params     `json:"params"`
	Steps     int                `json:"steps"`
	Positions []float64          `json:"positions"`
	Times     []float64          `json:"times"`
	Norms     []float64          `json:"norms"`
	Densities [][]float64        `json:"densities"`
	Metrics   map[string]float64 `json:"metrics"`
}

func ExportJSON(w io.Writer, meta *RunMetadata, series *Series) error {
	data := ExportData{
		ID:        meta.ID,
		Label:     meta.Label,
		Params:    meta.Params,
		Steps:     meta.Steps,
		Positions: quantum.Positions(meta.Params),
		Times:     series.Times,
		Norms:     series.Norms,
		Densities: series.Densities,
		Metrics:   meta.Metrics,
	}

	encoder := json.NewEncoder(w)
	encoder.SetIndent("", "  ")
	return encoder.Encode(data)
}

// ExportCSV writes the sampled density in long form: one row per
// (time, x) pair.
func ExportCSV(w io.Writer, meta *RunMetadata, series *Series) error {
	cw := csv.NewWriter(w)
	if err := cw.Write([]string{"time", "x", "density"}); err != nil {
		return err
	}

	x := quantum.Positions(meta.Params)
	for i, t := range series.Times {
		for j, d := range series.Densities[i] {
			if j >= len(x) {
				break
			}
			row := []string{formatFloat(t), formatFloat(x[j]), formatFloat(d)}
			if err := cw.Write(row); err != nil {
				return err
			}
		}
	}

	cw.Flush()
	return cw.Error()
}
