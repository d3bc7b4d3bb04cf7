package storage

import (
	"context"
	"database/sql"
	_ "embed"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	_ "github.com/mattn/go-sqlite3"

	"github.com/san-kum/taylorsim/internal/config"
	"github.com/san-kum/taylorsim/internal/experiment"
	"github.com/san-kum/taylorsim/internal/taylor"
)

//go:embed schema.sql
var schemaSQL string

const (
	catalogFile  = "catalog.db"
	snapshotFile = "integrator.json"

	// fixed width so created_at sorts as text
	timeLayout = "2006-01-02T15:04:05.000000000Z07:00"
)

var ErrRunNotFound = errors.New("storage: run not found")

type Store struct {
	baseDir string
	db      *sql.DB
}

type RunMetadata struct {
	ID        string               `json:"id"`
	System    string               `json:"system"`
	Mode      string               `json:"mode"`
	Timestamp time.Time            `json:"timestamp"`
	T0        float64              `json:"t0"`
	TEnd      float64              `json:"t_end"`
	Tolerance float64              `json:"tolerance"`
	Order     int                  `json:"order,omitempty"`
	Params    map[string]float64   `json:"params,omitempty"`
	Outcome   string               `json:"outcome"`
	Steps     int                  `json:"steps"`
	MinH      float64              `json:"min_h"`
	MaxH      float64              `json:"max_h"`
	Metrics   map[string]float64   `json:"metrics"`
	Events    map[string][]float64 `json:"events,omitempty"`
}

// Open creates baseDir if needed and opens its catalog.
func Open(baseDir string) (*Store, error) {
	if err := os.MkdirAll(baseDir, 0755); err != nil {
		return nil, err
	}
	db, err := sql.Open("sqlite3", filepath.Join(baseDir, catalogFile))
	if err != nil {
		return nil, fmt.Errorf("failed to open catalog: %w", err)
	}
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to connect to catalog: %w", err)
	}
	// sqlite allows one writer
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)

	for _, pragma := range []string{
		"PRAGMA journal_mode = WAL",
		"PRAGMA synchronous = NORMAL",
		"PRAGMA busy_timeout = 5000",
		"PRAGMA foreign_keys = ON",
	} {
		if _, err := db.Exec(pragma); err != nil {
			db.Close()
			return nil, fmt.Errorf("failed to execute %q: %w", pragma, err)
		}
	}
	if _, err := db.Exec(schemaSQL); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to apply schema: %w", err)
	}
	return &Store{baseDir: baseDir, db: db}, nil
}

func (s *Store) Close() error {
	if s.db == nil {
		return nil
	}
	return s.db.Close()
}

func (s *Store) Dir() string { return s.baseDir }

// NewMetadata describes result as produced by a run of cfg.
func NewMetadata(cfg *config.Config, result *experiment.Result) RunMetadata {
	meta := RunMetadata{
		System:    cfg.System,
		Mode:      cfg.Mode,
		Timestamp: time.Now().UTC(),
		T0:        cfg.T0,
		Tolerance: cfg.Tolerance,
		Order:     cfg.Order,
		Params:    cfg.Params,
		Outcome:   result.Outcome.String(),
		Steps:     result.Steps,
		MinH:      finiteOrZero(result.MinH),
		MaxH:      finiteOrZero(result.MaxH),
		Metrics:   make(map[string]float64, len(result.Metrics)),
		Events:    result.Events,
	}
	if n := len(result.Times); n > 0 {
		meta.TEnd = result.Times[n-1]
	}
	// encoding/json rejects NaN and Inf
	for k, v := range result.Metrics {
		if !math.IsNaN(v) && !math.IsInf(v, 0) {
			meta.Metrics[k] = v
		}
	}
	return meta
}

func finiteOrZero(v float64) float64 {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return 0
	}
	return v
}

// Save writes a new run and returns its id.
func (s *Store) Save(ctx context.Context, cfg *config.Config, result *experiment.Result) (string, error) {
	meta := NewMetadata(cfg, result)
	meta.ID = uuid.Must(uuid.NewV7()).String()

	runDir := filepath.Join(s.baseDir, meta.ID)
	if err := os.MkdirAll(runDir, 0755); err != nil {
		return "", err
	}
	if err := writeFile(filepath.Join(runDir, "metadata.json"), func(f *os.File) error {
		return WriteMetadata(f, meta)
	}); err != nil {
		return "", err
	}
	if err := writeFile(filepath.Join(runDir, "states.csv"), func(f *os.File) error {
		return WriteCSV(f, result.Times, result.States)
	}); err != nil {
		return "", err
	}
	if result.Final.State != nil {
		if err := writeFile(filepath.Join(runDir, snapshotFile), func(f *os.File) error {
			return writeIndented(f, result.Final)
		}); err != nil {
			return "", err
		}
	}
	if err := s.index(ctx, meta); err != nil {
		return "", err
	}
	return meta.ID, nil
}

func writeFile(path string, write func(*os.File) error) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	if err := write(f); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}

func (s *Store) index(ctx context.Context, meta RunMetadata) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	_, err = tx.ExecContext(ctx, `
		INSERT INTO runs (id, system, mode, created_at, t0, t_end, tolerance, outcome, steps, min_h, max_h)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		meta.ID, meta.System, meta.Mode, meta.Timestamp.Format(timeLayout),
		meta.T0, meta.TEnd, meta.Tolerance, meta.Outcome, meta.Steps, meta.MinH, meta.MaxH,
	)
	if err != nil {
		return fmt.Errorf("failed to insert run: %w", err)
	}
	for name, v := range meta.Metrics {
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO run_metrics (run_id, name, value) VALUES (?, ?, ?)`,
			meta.ID, name, v,
		); err != nil {
			return fmt.Errorf("failed to insert metric %s: %w", name, err)
		}
	}
	return tx.Commit()
}

// RunSummary is a catalog row.
type RunSummary struct {
	ID        string
	System    string
	Mode      string
	CreatedAt time.Time
	TEnd      float64
	Outcome   string
	Steps     int
}

// List returns catalogued runs, newest first. An empty system matches all.
func (s *Store) List(ctx context.Context, system string) ([]RunSummary, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, system, mode, created_at, t_end, outcome, steps
		FROM runs
		WHERE ? = '' OR system = ?
		ORDER BY created_at DESC, id DESC`, system, system)
	if err != nil {
		return nil, fmt.Errorf("failed to list runs: %w", err)
	}
	defer rows.Close()

	var runs []RunSummary
	for rows.Next() {
		var r RunSummary
		var created string
		if err := rows.Scan(&r.ID, &r.System, &r.Mode, &created, &r.TEnd, &r.Outcome, &r.Steps); err != nil {
			return nil, fmt.Errorf("failed to scan run: %w", err)
		}
		r.CreatedAt, _ = time.Parse(timeLayout, created)
		runs = append(runs, r)
	}
	return runs, rows.Err()
}

// Metric reads one catalogued metric of a run.
func (s *Store) Metric(ctx context.Context, id, name string) (float64, error) {
	var v float64
	err := s.db.QueryRowContext(ctx,
		`SELECT value FROM run_metrics WHERE run_id = ? AND name = ?`, id, name,
	).Scan(&v)
	if errors.Is(err, sql.ErrNoRows) {
		return 0, fmt.Errorf("%w: metric %s of %s", ErrRunNotFound, name, id)
	}
	return v, err
}

// Delete removes a run from the catalog and disk.
func (s *Store) Delete(ctx context.Context, id string) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM runs WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("failed to delete run: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("%w: %s", ErrRunNotFound, id)
	}
	return os.RemoveAll(filepath.Join(s.baseDir, id))
}

func (s *Store) Load(id string) (*RunMetadata, error) {
	data, err := os.ReadFile(filepath.Join(s.baseDir, id, "metadata.json"))
	if errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("%w: %s", ErrRunNotFound, id)
	}
	if err != nil {
		return nil, err
	}
	var meta RunMetadata
	if err := json.Unmarshal(data, &meta); err != nil {
		return nil, err
	}
	return &meta, nil
}

func (s *Store) LoadStates(id string) (times []float64, states [][]float64, err error) {
	f, err := os.Open(filepath.Join(s.baseDir, id, "states.csv"))
	if errors.Is(err, os.ErrNotExist) {
		return nil, nil, fmt.Errorf("%w: %s", ErrRunNotFound, id)
	}
	if err != nil {
		return nil, nil, err
	}
	defer f.Close()
	return ReadCSV(f)
}

// LoadSnapshot returns the final integrator snapshot of a run.
func (s *Store) LoadSnapshot(id string) (taylor.Snapshot, error) {
	var snap taylor.Snapshot
	data, err := os.ReadFile(filepath.Join(s.baseDir, id, snapshotFile))
	if errors.Is(err, os.ErrNotExist) {
		return snap, fmt.Errorf("%w: no snapshot for %s", ErrRunNotFound, id)
	}
	if err != nil {
		return snap, err
	}
	err = json.Unmarshal(data, &snap)
	return snap, err
}
