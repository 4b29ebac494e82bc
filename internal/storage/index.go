package storage

import (
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"
	_ "modernc.org/sqlite"
)

// Index is a SQLite catalogue of saved runs, kept next to the run
// directories so listing and filtering does not have to read every
// metadata file.
type Index struct {
	conn *sqlx.DB
}

// IndexEntry is one row of the catalogue.
type IndexEntry struct {
	ID            string  `db:"id"`
	Label         string  `db:"label"`
	CreatedUnix   int64   `db:"created_unix"`
	NX            int     `db:"nx"`
	Dt            float64 `db:"dt"`
	Steps         int     `db:"steps"`
	K0            float64 `db:"k0"`
	BarrierHeight float64 `db:"barrier_height"`
	BarrierWidth  float64 `db:"barrier_width"`
	Norm          float64 `db:"norm"`
	Transmitted   float64 `db:"transmitted"`
	Reflected     float64 `db:"reflected"`
}

func (e IndexEntry) Created() time.Time {
	return time.Unix(0, e.CreatedUnix).UTC()
}

// OpenIndex opens or creates the catalogue database at path.
func OpenIndex(path string) (*Index, error) {
	conn, err := sqlx.Open("sqlite", path+"?_pragma=busy_timeout(5000)&_pragma=journal_mode(WAL)")
	if err != nil {
		return nil, fmt.Errorf("open index: %w", err)
	}

	idx := &Index{conn: conn}
	if err := idx.migrate(); err != nil {
		conn.Close()
		return nil, fmt.Errorf("migrate index: %w", err)
	}
	return idx, nil
}

func (idx *Index) Close() error {
	return idx.conn.Close()
}

func (idx *Index) migrate() error {
	schema := `
	CREATE TABLE IF NOT EXISTS runs (
		id TEXT PRIMARY KEY,
		label TEXT NOT NULL,
		created_unix INTEGER NOT NULL,
		nx INTEGER NOT NULL,
		dt REAL NOT NULL,
		steps INTEGER NOT NULL,
		k0 REAL NOT NULL,
		barrier_height REAL NOT NULL,
		barrier_width REAL NOT NULL,
		norm REAL NOT NULL,
		transmitted REAL NOT NULL,
		reflected REAL NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_runs_created ON runs(created_unix);
	CREATE INDEX IF NOT EXISTS idx_runs_label ON runs(label);
	`
	_, err := idx.conn.Exec(schema)
	return err
}

// Record inserts or replaces the catalogue row for a run.
func (idx *Index) Record(meta *RunMetadata) error {
	entry := IndexEntry{
		ID:            meta.ID,
		Label:         meta.Label,
		CreatedUnix:   meta.Timestamp.UnixNano(),
		NX:            meta.Params.NX,
		Dt:            meta.Params.DT,
		Steps:         meta.Steps,
		K0:            meta.Params.K0,
		BarrierHeight: meta.Params.BarrierHeight,
		BarrierWidth:  meta.Params.BarrierWidth,
		Norm:          meta.Metrics["norm"],
		Transmitted:   meta.Metrics["transmission"],
		Reflected:     meta.Metrics["reflection"],
	}

	_, err := idx.conn.NamedExec(`INSERT OR REPLACE INTO runs
		(id, label, created_unix, nx, dt, steps, k0, barrier_height, barrier_width, norm, transmitted, reflected)
		VALUES (:id, :label, :created_unix, :nx, :dt, :steps, :k0, :barrier_height, :barrier_width, :norm, :transmitted, :reflected)`,
		entry)
	if err != nil {
		return fmt.Errorf("record run %s: %w", meta.ID, err)
	}
	return nil
}

// Recent returns up to limit runs, newest first.
func (idx *Index) Recent(limit int) ([]IndexEntry, error) {
	var entries []IndexEntry
	err := idx.conn.Select(&entries,
		"SELECT * FROM runs ORDER BY created_unix DESC LIMIT ?", limit)
	if err != nil {
		return nil, fmt.Errorf("query recent runs: %w", err)
	}
	return entries, nil
}

// ByLabel returns every run with the given label, newest first.
func (idx *Index) ByLabel(label string) ([]IndexEntry, error) {
	var entries []IndexEntry
	err := idx.conn.Select(&entries,
		"SELECT * FROM runs WHERE label = ? ORDER BY created_unix DESC", label)
	if err != nil {
		return nil, fmt.Errorf("query runs for %s: %w", label, err)
	}
	return entries, nil
}

// Get returns the catalogue row for a run.
func (idx *Index) Get(id string) (*IndexEntry, error) {
	var entry IndexEntry
	if err := idx.conn.Get(&entry, "SELECT * FROM runs WHERE id = ?", id); err != nil {
		return nil, fmt.Errorf("%w: %s", ErrRunNotFound, id)
	}
	return &entry, nil
}

// Forget removes a run from the catalogue.
func (idx *Index) Forget(id string) error {
	_, err := idx.conn.Exec("DELETE FROM runs WHERE id = ?", id)
	return err
}
