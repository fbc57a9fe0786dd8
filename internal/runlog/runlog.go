// Package runlog provides durable run history: one SQLite row per settled
// run, recorded by the CLI and the scheduler. The engine itself never
// touches storage; recording happens at the call sites so the engine's
// capability boundary stays narrow.
package runlog

import (
	"context"
	"database/sql"
	_ "embed"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	_ "github.com/mattn/go-sqlite3"
)

//go:embed schema.sql
var schemaSQL string

// Run statuses.
const (
	StatusOK    = "ok"
	StatusError = "error"
)

// Run is one recorded execution.
type Run struct {
	ID         string
	Script     string
	StartedAt  time.Time
	FinishedAt time.Time
	Status     string
	Output     string // JSON-encoded output document, empty on failure
	Error      string // error message, empty on success
}

// Store is a SQLite-backed run log. Safe for concurrent use; writes are
// serialized on a single connection.
type Store struct {
	db *sql.DB
}

// Open creates or opens the run log database at the given path. WAL mode
// allows concurrent reads during writes; the schema is applied idempotently.
func Open(path string) (*Store, error) {
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("connect: %w", err)
	}

	// SQLite supports one writer at a time; a single connection avoids
	// SQLITE_BUSY churn.
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)

	pragmas := []string{
		"PRAGMA journal_mode = WAL",
		"PRAGMA synchronous = NORMAL",
		"PRAGMA busy_timeout = 5000",
	}
	for _, pragma := range pragmas {
		if _, err := db.Exec(pragma); err != nil {
			db.Close()
			return nil, fmt.Errorf("execute %q: %w", pragma, err)
		}
	}
	if _, err := db.Exec(schemaSQL); err != nil {
		db.Close()
		return nil, fmt.Errorf("apply schema: %w", err)
	}
	return &Store{db: db}, nil
}

// Close closes the database.
func (s *Store) Close() error {
	if s.db == nil {
		return nil
	}
	return s.db.Close()
}

// Record inserts one settled run.
func (s *Store) Record(ctx context.Context, run Run) error {
	if run.ID == "" {
		run.ID = uuid.NewString()
	}
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO runs (id, script, started_at, finished_at, status, output, error)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`,
		run.ID, run.Script,
		run.StartedAt.UTC().Format(time.RFC3339Nano),
		run.FinishedAt.UTC().Format(time.RFC3339Nano),
		run.Status, run.Output, run.Error,
	)
	if err != nil {
		return fmt.Errorf("record run %s: %w", run.ID, err)
	}
	return nil
}

// RecordResult is a convenience wrapper that encodes an engine result (or
// error) into a Run and records it.
func (s *Store) RecordResult(ctx context.Context, scriptName string, started time.Time, output any, runErr error) error {
	run := Run{
		ID:         uuid.NewString(),
		Script:     scriptName,
		StartedAt:  started,
		FinishedAt: time.Now(),
	}
	if runErr != nil {
		run.Status = StatusError
		run.Error = runErr.Error()
	} else {
		run.Status = StatusOK
		if b, err := json.Marshal(output); err == nil {
			run.Output = string(b)
		}
	}
	return s.Record(ctx, run)
}

// List returns runs newest-first, optionally filtered by script name.
// limit <= 0 means a default of 50.
func (s *Store) List(ctx context.Context, scriptName string, limit int) ([]Run, error) {
	if limit <= 0 {
		limit = 50
	}
	query := `SELECT id, script, started_at, finished_at, status, output, error
	          FROM runs`
	args := []any{}
	if scriptName != "" {
		query += ` WHERE script = ?`
		args = append(args, scriptName)
	}
	query += ` ORDER BY started_at DESC LIMIT ?`
	args = append(args, limit)

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list runs: %w", err)
	}
	defer rows.Close()

	var out []Run
	for rows.Next() {
		run, err := scanRun(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, run)
	}
	return out, rows.Err()
}

// Get returns one run by ID, or sql.ErrNoRows if absent.
func (s *Store) Get(ctx context.Context, id string) (*Run, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT id, script, started_at, finished_at, status, output, error
		 FROM runs WHERE id = ?`, id)
	run, err := scanRun(row)
	if err != nil {
		return nil, err
	}
	return &run, nil
}

type scanner interface {
	Scan(dest ...any) error
}

func scanRun(row scanner) (Run, error) {
	var run Run
	var started, finished string
	if err := row.Scan(&run.ID, &run.Script, &started, &finished, &run.Status, &run.Output, &run.Error); err != nil {
		return run, err
	}
	var err error
	if run.StartedAt, err = time.Parse(time.RFC3339Nano, started); err != nil {
		return run, fmt.Errorf("parse started_at %q: %w", started, err)
	}
	if run.FinishedAt, err = time.Parse(time.RFC3339Nano, finished); err != nil {
		return run, fmt.Errorf("parse finished_at %q: %w", finished, err)
	}
	return run, nil
}
