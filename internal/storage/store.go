package storage

import (
	"encoding/csv"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"time"

	"github.com/google/uuid"

	"github.com/san-kum/qtunnel/internal/quantum"
	"github.com/san-kum/qtunnel/internal/sim"
)

const (
	metadataFile = "metadata.json"
	seriesFile   = "series.csv"
	finalFile    = "final.csv"
)

var ErrRunNotFound = errors.New("storage: run not found")

type Store struct {
	baseDir string
	log     *slog.Logger
}

func New(baseDir string) *Store {
	return &Store{baseDir: baseDir, log: slog.Default()}
}

// WithLogger replaces the store's logger.
func (s *Store) WithLogger(l *slog.Logger) *Store {
	s.log = l
	return s
}

func (s *Store) Init() error {
	return os.MkdirAll(s.baseDir, 0755)
}

func (s *Store) Dir(runID string) string {
	return filepath.Join(s.baseDir, runID)
}

type RunMetadata struct {
	ID          string             `json:"id"`
	Label       string             `json:"label"`
	Timestamp   time.Time          `json:"timestamp"`
	Params      quantum.Params     `json:"params"`
	Steps       int                `json:"steps"`
	SampleEvery int                `json:"sample_every"`
	Duration    float64            `json:"duration"`
	Metrics     map[string]float64 `json:"metrics"`
}

// Series is the sampled history of a run.
type Series struct {
	Times     []float64
	Norms     []float64
	Densities [][]float64
}

// Save writes metadata.json, series.csv (time, norm, density per grid
// point) and final.csv (x, real, imag, potential) under a fresh run ID.
func (s *Store) Save(label string, p quantum.Params, cfg sim.Config, result *sim.Result) (*RunMetadata, error) {
	runID := uuid.NewString()
	runDir := s.Dir(runID)

	if err := os.MkdirAll(runDir, 0755); err != nil {
		return nil, err
	}

	meta := &RunMetadata{
		ID:          runID,
		Label:       label,
		Timestamp:   time.Now().UTC(),
		Params:      p,
		Steps:       result.StepsTaken,
		SampleEvery: cfg.SampleEvery,
		Duration:    result.Duration(),
		Metrics:     result.Metrics,
	}

	if err := writeJSON(filepath.Join(runDir, metadataFile), meta); err != nil {
		return nil, err
	}
	if err := writeSeries(filepath.Join(runDir, seriesFile), result); err != nil {
		return nil, err
	}
	if result.Final != nil {
		if err := writeFinal(filepath.Join(runDir, finalFile), p, result.Final); err != nil {
			return nil, err
		}
	}

	s.log.Info("run saved", "id", runID, "label", label, "samples", len(result.Times))
	return meta, nil
}

func writeJSON(path string, v any) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()

	enc := json.NewEncoder(f)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func writeSeries(path string, result *sim.Result) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()

	w := csv.NewWriter(f)

	if len(result.Times) > 0 {
		header := []string{"time", "norm"}
		for i := range result.Densities[0] {
			header = append(header, fmt.Sprintf("d%d", i))
		}
		if err := w.Write(header); err != nil {
			return err
		}
	}

	for i := range result.Times {
		row := make([]string, 0, len(result.Densities[i])+2)
		row = append(row, formatFloat(result.Times[i]), formatFloat(result.Norms[i]))
		for _, d := range result.Densities[i] {
			row = append(row, formatFloat(d))
		}
		if err := w.Write(row); err != nil {
			return err
		}
	}

	w.Flush()
	return w.Error()
}

func writeFinal(path string, p quantum.Params, st *quantum.State) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()

	w := csv.NewWriter(f)
	if err := w.Write([]string{"x", "real", "imag", "potential"}); err != nil {
		return err
	}
	for i := range st.Real {
		row := []string{
			formatFloat(p.Position(i)),
			formatFloat(st.Real[i]),
			formatFloat(st.Imag[i]),
			formatFloat(st.Potential[i]),
		}
		if err := w.Write(row); err != nil {
			return err
		}
	}

	w.Flush()
	return w.Error()
}

func formatFloat(v float64) string {
	return strconv.FormatFloat(v, 'g', -1, 64)
}

// List returns all readable runs, newest first.
func (s *Store) List() ([]RunMetadata, error) {
	entries, err := os.ReadDir(s.baseDir)
	if err != nil {
		if os.IsNotExist(err) {
			return []RunMetadata{}, nil
		}
		return nil, err
	}

	runs := make([]RunMetadata, 0)
	for _, entry := range entries {
		if !entry.IsDir() {
			continue
		}

		meta, err := s.Load(entry.Name())
		if err != nil {
			s.log.Debug("skipping run directory", "dir", entry.Name(), "err", err)
			continue
		}

		runs = append(runs, *meta)
	}

	sort.Slice(runs, func(i, j int) bool {
		return runs[i].Timestamp.After(runs[j].Timestamp)
	})
	return runs, nil
}

func (s *Store) Load(runID string) (*RunMetadata, error) {
	data, err := os.ReadFile(filepath.Join(s.Dir(runID), metadataFile))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("%w: %s", ErrRunNotFound, runID)
		}
		return nil, err
	}

	var meta RunMetadata
	if err := json.Unmarshal(data, &meta); err != nil {
		return nil, fmt.Errorf("storage: decode %s: %w", runID, err)
	}

	return &meta, nil
}

func (s *Store) LoadSeries(runID string) (*Series, error) {
	records, err := readCSV(filepath.Join(s.Dir(runID), seriesFile), runID)
	if err != nil {
		return nil, err
	}

	series := &Series{}
	for i := 1; i < len(records); i++ {
		vals, err := parseRow(records[i])
		if err != nil {
			return nil, fmt.Errorf("storage: %s row %d: %w", seriesFile, i, err)
		}
		if len(vals) < 2 {
			continue
		}
		series.Times = append(series.Times, vals[0])
		series.Norms = append(series.Norms, vals[1])
		series.Densities = append(series.Densities, vals[2:])
	}

	return series, nil
}

// LoadFinal rebuilds the last state of a run. The absorber profile is
// recomputed from the stored parameters.
func (s *Store) LoadFinal(runID string) (*quantum.State, quantum.Params, error) {
	meta, err := s.Load(runID)
	if err != nil {
		return nil, quantum.Params{}, err
	}
	p := meta.Params

	records, err := readCSV(filepath.Join(s.Dir(runID), finalFile), runID)
	if err != nil {
		return nil, p, err
	}
	if len(records)-1 != p.NX {
		return nil, p, fmt.Errorf("storage: %s has %d rows, grid %d: %w", finalFile, len(records)-1, p.NX, quantum.ErrInvalidLength)
	}

	st := quantum.NewState(p.NX)
	for i := 0; i < p.NX; i++ {
		vals, err := parseRow(records[i+1])
		if err != nil || len(vals) != 4 {
			return nil, p, fmt.Errorf("storage: %s row %d: malformed", finalFile, i+1)
		}
		st.Real[i], st.Imag[i], st.Potential[i] = vals[1], vals[2], vals[3]
	}

	if st.Absorption, err = quantum.BuildAbsorber(p); err != nil {
		return nil, p, err
	}
	st.Time = meta.Duration
	return st, p, nil
}

func readCSV(path, runID string) ([][]string, error) {
	file, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("%w: %s", ErrRunNotFound, runID)
		}
		return nil, err
	}
	defer file.Close()

	r := csv.NewReader(file)
	r.FieldsPerRecord = -1
	return r.ReadAll()
}

func parseRow(record []string) ([]float64, error) {
	vals := make([]float64, len(record))
	for j, field := range record {
		v, err := strconv.ParseFloat(field, 64)
		if err != nil {
			return nil, err
		}
		vals[j] = v
	}
	return vals, nil
}
