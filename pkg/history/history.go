// Package history stores the periodic evaluation results of training runs
// in a SQLite database inside the experiment directory.
package history

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"path/filepath"
	"sync"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite"
)

// FileName is the evaluation database written into every experiment directory
const FileName = "evaluations.db"

// Record is the result of one evaluation pass
type Record struct {
	RunID      string
	Step       int
	MeanReturn float64
	StdReturn  float64
	MeanBias   float64
	Rates      []float64 // per-group benefit rates averaged over the episodes
	CreatedAt  time.Time
}

// Store persists evaluation records
type Store struct {
	path string

	mu sync.RWMutex
	db *sql.DB
}

// Path returns the database location of the experiment directory dir
func Path(dir string) string {
	return filepath.Join(dir, FileName)
}

// NewRunID returns a fresh run identifier
func NewRunID() string {
	return uuid.New().String()
}

// Open opens (creating if needed) the store at path
func Open(ctx context.Context, path string) (*Store, error) {
	if path == "" {
		return nil, errors.New("history path is required")
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", path, err)
	}
	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ping %s: %w", path, err)
	}
	if err := createTables(ctx, db); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("create tables in %s: %w", path, err)
	}
	return &Store{path: path, db: db}, nil
}

// Append stores one evaluation record
func (s *Store) Append(ctx context.Context, r Record) error {
	db, err := s.getDB()
	if err != nil {
		return err
	}
	if _, err := uuid.Parse(r.RunID); err != nil {
		return fmt.Errorf("invalid run id %q: %w", r.RunID, err)
	}

	rates, err := json.Marshal(r.Rates)
	if err != nil {
		return fmt.Errorf("encode rates: %w", err)
	}
	created := r.CreatedAt
	if created.IsZero() {
		created = time.Now()
	}

	_, err = db.ExecContext(ctx, `
		INSERT INTO evaluations (run_id, step, mean_return, std_return, mean_bias, rates_json, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)
	`, r.RunID, r.Step, r.MeanReturn, r.StdReturn, r.MeanBias, string(rates), created.UTC().Format(time.RFC3339Nano))
	return err
}

// List returns the records of runID ordered by step. An empty runID lists
// every run.
func (s *Store) List(ctx context.Context, runID string) ([]Record, error) {
	db, err := s.getDB()
	if err != nil {
		return nil, err
	}

	query := `SELECT run_id, step, mean_return, std_return, mean_bias, rates_json, created_at FROM evaluations`
	var args []any
	if runID != "" {
		query += ` WHERE run_id = ?`
		args = append(args, runID)
	}
	query += ` ORDER BY step, id`

	rows, err := db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var records []Record
	for rows.Next() {
		var (
			r       Record
			rates   string
			created string
		)
		if err := rows.Scan(&r.RunID, &r.Step, &r.MeanReturn, &r.StdReturn, &r.MeanBias, &rates, &created); err != nil {
			return nil, err
		}
		if err := json.Unmarshal([]byte(rates), &r.Rates); err != nil {
			return nil, fmt.Errorf("decode rates at step %d: %w", r.Step, err)
		}
		if r.CreatedAt, err = time.Parse(time.RFC3339Nano, created); err != nil {
			return nil, fmt.Errorf("decode timestamp at step %d: %w", r.Step, err)
		}
		records = append(records, r)
	}
	return records, rows.Err()
}

// Runs returns the distinct run identifiers in insertion order
func (s *Store) Runs(ctx context.Context) ([]string, error) {
	db, err := s.getDB()
	if err != nil {
		return nil, err
	}

	rows, err := db.QueryContext(ctx, `SELECT run_id FROM evaluations GROUP BY run_id ORDER BY MIN(id)`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var runs []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		runs = append(runs, id)
	}
	return runs, rows.Err()
}

func (s *Store) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.db == nil {
		return nil
	}
	err := s.db.Close()
	s.db = nil
	return err
}

func (s *Store) getDB() (*sql.DB, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.db == nil {
		return nil, errors.New("history store is closed")
	}
	return s.db, nil
}

func createTables(ctx context.Context, db *sql.DB) error {
	_, err := db.ExecContext(ctx, `
		CREATE TABLE IF NOT EXISTS evaluations (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			run_id TEXT NOT NULL,
			step INTEGER NOT NULL,
			mean_return REAL NOT NULL,
			std_return REAL NOT NULL,
			mean_bias REAL NOT NULL,
			rates_json TEXT NOT NULL,
			created_at TEXT NOT NULL
		);
		CREATE INDEX IF NOT EXISTS evaluations_run_step ON evaluations (run_id, step);
	`)
	return err
}
