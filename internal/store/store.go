// Package store persists finished experiments in SQLite: one row per
// repetition and one summary row per algorithm and station count.
package store

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite"

	"assemblyLine/internal/bench"
)

const schemaVersion = 1

type Store struct {
	db     *sql.DB
	dbPath string
}

type Experiment struct {
	ID         string
	CreatedAt  time.Time
	Instance   string
	Tasks      int
	TimeBudget time.Duration
	Runs       int
	Note       string
}

// New opens (and if needed creates) the database at dbPath.
// ":memory:" gives a throwaway database.
func New(dbPath string) (*Store, error) {
	if dbPath != ":memory:" {
		if err := os.MkdirAll(filepath.Dir(dbPath), 0o755); err != nil {
			return nil, fmt.Errorf("failed to create database directory: %w", err)
		}
	}

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	// A single connection keeps ":memory:" databases alive and serializes writers.
	db.SetMaxOpenConns(1)

	pragmas := []string{
		"PRAGMA foreign_keys = ON",
		"PRAGMA journal_mode = WAL",
		"PRAGMA busy_timeout = 5000",
	}
	for _, pragma := range pragmas {
		if _, err := db.Exec(pragma); err != nil {
			db.Close()
			return nil, fmt.Errorf("failed to set pragma %s: %w", pragma, err)
		}
	}

	s := &Store{db: db, dbPath: dbPath}
	if err := s.initSchema(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to initialize schema: %w", err)
	}
	return s, nil
}

func (s *Store) Path() string { return s.dbPath }

func (s *Store) Close() error { return s.db.Close() }

func (s *Store) initSchema() error {
	var version int
	err := s.db.QueryRow("SELECT version FROM schema_version LIMIT 1").Scan(&version)
	if err == nil && version >= schemaVersion {
		return nil
	}

	schema := `
	CREATE TABLE IF NOT EXISTS schema_version (
		version INTEGER PRIMARY KEY
	);
	INSERT OR IGNORE INTO schema_version (version) VALUES (1);

	CREATE TABLE IF NOT EXISTS experiments (
		id TEXT PRIMARY KEY,
		created_at TEXT NOT NULL,
		instance TEXT NOT NULL,
		tasks INTEGER NOT NULL,
		time_budget_ms INTEGER NOT NULL,
		runs INTEGER NOT NULL,
		note TEXT NOT NULL DEFAULT ''
	);

	CREATE TABLE IF NOT EXISTS runs (
		id TEXT PRIMARY KEY,
		experiment_id TEXT NOT NULL REFERENCES experiments(id) ON DELETE CASCADE,
		algo TEXT NOT NULL,
		stations INTEGER NOT NULL,
		run_index INTEGER NOT NULL,
		seed INTEGER NOT NULL,
		cycle_time INTEGER NOT NULL,
		time_to_best_ms REAL NOT NULL,
		duration_ms REAL NOT NULL,
		iterations INTEGER NOT NULL,
		solution TEXT NOT NULL
	);
	CREATE INDEX IF NOT EXISTS idx_runs_experiment ON runs(experiment_id, algo, stations);

	CREATE TABLE IF NOT EXISTS summaries (
		experiment_id TEXT NOT NULL REFERENCES experiments(id) ON DELETE CASCADE,
		algo TEXT NOT NULL,
		stations INTEGER NOT NULL,
		runs INTEGER NOT NULL,
		cycle_best INTEGER NOT NULL,
		cycle_mean REAL NOT NULL,
		deviation_pct REAL NOT NULL,
		time_to_best_min_ms REAL NOT NULL,
		time_mean_ms REAL NOT NULL,
		PRIMARY KEY (experiment_id, algo, stations)
	);
	`
	if _, err := s.db.Exec(schema); err != nil {
		return err
	}
	return nil
}

// CreateExperiment stores e and returns its id. An empty ID gets a new UUID.
func (s *Store) CreateExperiment(ctx context.Context, e Experiment) (string, error) {
	if e.ID == "" {
		e.ID = uuid.NewString()
	}
	if e.CreatedAt.IsZero() {
		e.CreatedAt = time.Now()
	}
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO experiments (id, created_at, instance, tasks, time_budget_ms, runs, note)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`,
		e.ID, e.CreatedAt.UTC().Format(time.RFC3339Nano), e.Instance, e.Tasks,
		e.TimeBudget.Milliseconds(), e.Runs, e.Note)
	if err != nil {
		return "", fmt.Errorf("failed to insert experiment: %w", err)
	}
	return e.ID, nil
}

func (s *Store) SaveRun(ctx context.Context, experimentID, algo string, stations int, run bench.Run) error {
	res := run.Result
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO runs (id, experiment_id, algo, stations, run_index, seed, cycle_time,
		                   time_to_best_ms, duration_ms, iterations, solution)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		uuid.NewString(), experimentID, algo, stations, run.Index, run.Seed, res.CycleTime,
		msOf(res.TimeToBest), msOf(res.Duration), res.Iterations, res.Stations.Key())
	if err != nil {
		return fmt.Errorf("failed to insert run: %w", err)
	}
	return nil
}

func (s *Store) SaveRecord(ctx context.Context, experimentID string, rec bench.Record) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT OR REPLACE INTO summaries (experiment_id, algo, stations, runs, cycle_best, cycle_mean,
		                                   deviation_pct, time_to_best_min_ms, time_mean_ms)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		experimentID, rec.Algo, rec.Stations, rec.Runs, rec.CycleBest, rec.CycleMean,
		rec.DeviationPct, rec.TimeToBestMinMs, rec.TimeMeanMs)
	if err != nil {
		return fmt.Errorf("failed to insert summary: %w", err)
	}
	return nil
}

// ListExperiments returns the newest experiments first.
func (s *Store) ListExperiments(ctx context.Context, limit int) ([]Experiment, error) {
	if limit <= 0 {
		limit = 20
	}
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, created_at, instance, tasks, time_budget_ms, runs, note
		 FROM experiments ORDER BY created_at DESC LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list experiments: %w", err)
	}
	defer rows.Close()

	out := []Experiment{}
	for rows.Next() {
		var (
			e        Experiment
			created  string
			budgetMs int64
		)
		if err := rows.Scan(&e.ID, &created, &e.Instance, &e.Tasks, &budgetMs, &e.Runs, &e.Note); err != nil {
			return nil, err
		}
		e.CreatedAt, _ = time.Parse(time.RFC3339Nano, created)
		e.TimeBudget = time.Duration(budgetMs) * time.Millisecond
		out = append(out, e)
	}
	return out, rows.Err()
}

// Summaries returns the stored records of one experiment without their runs.
func (s *Store) Summaries(ctx context.Context, experimentID string) ([]bench.Record, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT s.algo, e.instance, e.tasks, s.stations, s.runs, s.cycle_best, s.cycle_mean,
		        s.deviation_pct, s.time_to_best_min_ms, s.time_mean_ms
		 FROM summaries s JOIN experiments e ON e.id = s.experiment_id
		 WHERE s.experiment_id = ? ORDER BY s.algo, s.stations`, experimentID)
	if err != nil {
		return nil, fmt.Errorf("failed to list summaries: %w", err)
	}
	defer rows.Close()

	out := []bench.Record{}
	for rows.Next() {
		var r bench.Record
		if err := rows.Scan(&r.Algo, &r.Instance, &r.Tasks, &r.Stations, &r.Runs, &r.CycleBest,
			&r.CycleMean, &r.DeviationPct, &r.TimeToBestMinMs, &r.TimeMeanMs); err != nil {
			return nil, err
		}
		out = append(out, r)
	}
	return out, rows.Err()
}

// CountRuns returns how many repetitions are stored for an experiment.
func (s *Store) CountRuns(ctx context.Context, experimentID string) (int, error) {
	var n int
	err := s.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM runs WHERE experiment_id = ?", experimentID).Scan(&n)
	return n, err
}

func msOf(d time.Duration) float64 {
	return float64(d.Microseconds()) / 1000.0
}
