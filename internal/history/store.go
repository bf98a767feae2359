// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package history keeps a SQLite log of conversion runs. It stores run
// summaries only; comment text never reaches the database.
package history

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
	_ "github.com/mattn/go-sqlite3"

	"github.com/pdiddy/dmc/pkg/types"
)

const (
	defaultLimit = 20
	// timeLayout is fixed width so stored times sort as text.
	timeLayout = "2006-01-02T15:04:05.000000000Z"
)

// Store manages the history database.
type Store struct {
	db  *sql.DB
	now func() time.Time
}

// NewStore opens or creates the history database at path, creating its
// directory and schema when they do not exist.
func NewStore(path string) (*Store, error) {
	if path == "" {
		return nil, fmt.Errorf("history path is empty")
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("creating history directory: %w", err)
	}

	db, err := sql.Open("sqlite3", path+"?_journal_mode=WAL&_busy_timeout=5000")
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}

	s := &Store{db: db, now: time.Now}
	if err := s.createSchema(); err != nil {
		db.Close()
		return nil, fmt.Errorf("creating schema: %w", err)
	}
	return s, nil
}

// Close releases the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

func (s *Store) createSchema() error {
	statements := []string{
		`CREATE TABLE IF NOT EXISTS runs (
			rowid INTEGER PRIMARY KEY AUTOINCREMENT,
			id TEXT NOT NULL UNIQUE,
			operation TEXT NOT NULL,
			source TEXT NOT NULL,
			dest TEXT,
			format TEXT,
			comments INTEGER NOT NULL DEFAULT 0,
			changes INTEGER NOT NULL DEFAULT 0,
			status TEXT NOT NULL,
			error TEXT,
			started_at TEXT NOT NULL,
			duration_ms INTEGER NOT NULL DEFAULT 0
		)`,
		`CREATE INDEX IF NOT EXISTS idx_runs_started_at ON runs(started_at)`,
		`CREATE INDEX IF NOT EXISTS idx_runs_source ON runs(source)`,
	}
	for _, stmt := range statements {
		if _, err := s.db.Exec(stmt); err != nil {
			return fmt.Errorf("executing schema statement: %w", err)
		}
	}
	return nil
}

// Record stores run. A missing ID is filled with a random UUID and a zero
// start time with the current time.
func (s *Store) Record(ctx context.Context, run types.Run) error {
	if run.ID == "" {
		run.ID = uuid.NewString()
	}
	if run.StartedAt.IsZero() {
		run.StartedAt = s.now()
	}
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO runs (id, operation, source, dest, format, comments, changes, status, error, started_at, duration_ms)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		run.ID, string(run.Operation), run.Source, run.Dest, run.Format,
		run.Comments, run.Changes, string(run.Status), run.Error,
		run.StartedAt.UTC().Format(timeLayout), run.Duration.Milliseconds(),
	)
	if err != nil {
		return fmt.Errorf("inserting run %s: %w", run.ID, err)
	}
	return nil
}

// QueryOptions filters List.
type QueryOptions struct {
	// Limit caps the number of runs; zero means 20.
	Limit     int
	Operation types.Operation
	Status    types.RunStatus
	// Source matches runs whose source path contains it.
	Source string
}

// List returns recorded runs, newest first.
func (s *Store) List(ctx context.Context, opts QueryOptions) ([]types.Run, error) {
	var (
		where []string
		args  []any
	)
	if opts.Operation != "" {
		where = append(where, "operation = ?")
		args = append(args, string(opts.Operation))
	}
	if opts.Status != "" {
		where = append(where, "status = ?")
		args = append(args, string(opts.Status))
	}
	if opts.Source != "" {
		where = append(where, "source LIKE ?")
		args = append(args, "%"+opts.Source+"%")
	}

	query := `SELECT id, operation, source, dest, format, comments, changes, status, error, started_at, duration_ms FROM runs`
	if len(where) > 0 {
		query += " WHERE " + strings.Join(where, " AND ")
	}
	limit := opts.Limit
	if limit <= 0 {
		limit = defaultLimit
	}
	query += " ORDER BY started_at DESC, rowid DESC LIMIT ?"
	args = append(args, limit)

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("querying runs: %w", err)
	}
	defer rows.Close()

	var runs []types.Run
	for rows.Next() {
		var (
			run               types.Run
			op, status        string
			dest, format, msg sql.NullString
			started           string
			durationMS        int64
		)
		if err := rows.Scan(&run.ID, &op, &run.Source, &dest, &format,
			&run.Comments, &run.Changes, &status, &msg, &started, &durationMS); err != nil {
			return nil, fmt.Errorf("scanning run: %w", err)
		}
		run.Operation = types.Operation(op)
		run.Status = types.RunStatus(status)
		run.Dest = dest.String
		run.Format = format.String
		run.Error = msg.String
		run.Duration = time.Duration(durationMS) * time.Millisecond
		if run.StartedAt, err = time.Parse(timeLayout, started); err != nil {
			return nil, fmt.Errorf("parsing start time of run %s: %w", run.ID, err)
		}
		runs = append(runs, run)
	}
	return runs, rows.Err()
}

// Prune deletes runs that started before cutoff and returns how many were
// removed.
func (s *Store) Prune(ctx context.Context, cutoff time.Time) (int64, error) {
	res, err := s.db.ExecContext(ctx, `DELETE FROM runs WHERE started_at < ?`,
		cutoff.UTC().Format(timeLayout))
	if err != nil {
		return 0, fmt.Errorf("pruning runs: %w", err)
	}
	return res.RowsAffected()
}
