package report

import (
	"context"
	"database/sql"
	_ "embed"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	_ "modernc.org/sqlite"
)

//go:embed schema.sql
var schema string

// ErrRunNotFound is returned by LoadRun for an unknown run id.
var ErrRunNotFound = errors.New("report: run not found")

// RunSummary is one row of ListRuns.
type RunSummary struct {
	RunID        string
	CreatedAt    time.Time
	Crashed      bool
	FaultySensor string
	Runtime      int
	Landmarks    int
}

// SQLiteStore keeps run outputs in a SQLite database.
type SQLiteStore struct {
	db  *sql.DB
	now func() time.Time
}

// Open opens (or creates) the store at dsn, for example "file:runs.db" or
// ":memory:".
func Open(dsn string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("report: open: %w", err)
	}

	// one connection keeps ":memory:" databases alive across calls
	db.SetMaxOpenConns(1)

	if _, err := db.Exec(schema); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("report: create schema: %w", err)
	}

	return &SQLiteStore{db: db, now: time.Now}, nil
}

// SaveRun stores out under runID, replacing an earlier run with the same id.
func (s *SQLiteStore) SaveRun(ctx context.Context, runID string, out Output) error {
	raw, err := json.Marshal(out)
	if err != nil {
		return fmt.Errorf("report: marshal run %s: %w", runID, err)
	}

	_, err = s.db.ExecContext(ctx,
		`INSERT OR REPLACE INTO runs (run_id, created_at, crashed, faulty_sensor, runtime, landmarks, output)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`,
		runID,
		s.now().UTC().Format(time.RFC3339Nano),
		out.Crashed(),
		out.FaultySensor,
		out.SystemRuntime,
		out.NumLandmarks,
		string(raw),
	)
	if err != nil {
		return fmt.Errorf("report: save run %s: %w", runID, err)
	}

	return nil
}

// LoadRun returns the output stored under runID.
func (s *SQLiteStore) LoadRun(ctx context.Context, runID string) (Output, error) {
	var raw string

	err := s.db.QueryRowContext(ctx, `SELECT output FROM runs WHERE run_id = ?`, runID).Scan(&raw)
	if errors.Is(err, sql.ErrNoRows) {
		return Output{}, fmt.Errorf("%w: %s", ErrRunNotFound, runID)
	}

	if err != nil {
		return Output{}, fmt.Errorf("report: load run %s: %w", runID, err)
	}

	var out Output
	if err := json.Unmarshal([]byte(raw), &out); err != nil {
		return Output{}, fmt.Errorf("report: decode run %s: %w", runID, err)
	}

	return out, nil
}

// ListRuns returns the stored runs, newest first.
func (s *SQLiteStore) ListRuns(ctx context.Context) ([]RunSummary, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT run_id, created_at, crashed, faulty_sensor, runtime, landmarks
		   FROM runs ORDER BY created_at DESC, run_id ASC`)
	if err != nil {
		return nil, fmt.Errorf("report: list runs: %w", err)
	}
	defer rows.Close()

	var runs []RunSummary

	for rows.Next() {
		var (
			r       RunSummary
			created string
		)

		if err := rows.Scan(&r.RunID, &created, &r.Crashed, &r.FaultySensor, &r.Runtime, &r.Landmarks); err != nil {
			return nil, fmt.Errorf("report: scan run: %w", err)
		}

		r.CreatedAt, err = time.Parse(time.RFC3339Nano, created)
		if err != nil {
			return nil, fmt.Errorf("report: parse time of run %s: %w", r.RunID, err)
		}

		runs = append(runs, r)
	}

	return runs, rows.Err()
}

// Close closes the database.
func (s *SQLiteStore) Close() error { return s.db.Close() }
