// Package audit persists a per-run record of what the pipeline did: run
// totals, per-thread errors, and the diagnostic notes that were discarded
// with notes-only threads. Discarding those notes is a deliberate data-loss
// policy; this store is what makes the loss auditable after the fact.
package audit

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"

	_ "modernc.org/sqlite"
)

type Store struct {
	db *sql.DB
}

// Run is one recorded pipeline run.
type Run struct {
	ID               string
	StartedAt        time.Time
	FinishedAt       sql.NullTime
	ThreadsSeen      int
	ReceiptsPlaced   int
	ErrorCount       int
	DiscardedThreads int
}

// Open opens (creating if needed) the audit database and applies pending
// migrations.
func Open(dbPath string) (*Store, error) {
	if dir := filepath.Dir(dbPath); dir != "." && dir != "" {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, fmt.Errorf("create db directory: %w", err)
		}
	}

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open sqlite database: %w", err)
	}
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}
	if err := runMigrations(dbPath); err != nil {
		db.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}

	return &Store{db: db}, nil
}

func (s *Store) Close() error {
	if s.db != nil {
		return s.db.Close()
	}
	return nil
}

// BeginRun records the start of a pipeline run and returns its id.
func (s *Store) BeginRun(ctx context.Context) (string, error) {
	id := uuid.NewString()
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO runs (id, started_at) VALUES (?, ?)`,
		id, time.Now().UTC())
	if err != nil {
		return "", fmt.Errorf("insert run: %w", err)
	}
	return id, nil
}

// FinishRun closes out a run with its totals.
func (s *Store) FinishRun(ctx context.Context, runID string, threadsSeen, receiptsPlaced, errorCount, discardedThreads int) error {
	_, err := s.db.ExecContext(ctx,
		`UPDATE runs
		 SET finished_at = ?, threads_seen = ?, receipts_placed = ?, error_count = ?, discarded_threads = ?
		 WHERE id = ?`,
		time.Now().UTC(), threadsSeen, receiptsPlaced, errorCount, discardedThreads, runID)
	if err != nil {
		return fmt.Errorf("finish run %s: %w", runID, err)
	}
	return nil
}

// RecordError stores one thread-scoped processing error.
func (s *Store) RecordError(ctx context.Context, runID, threadID, detail string) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO run_errors (run_id, thread_id, detail) VALUES (?, ?, ?)`,
		runID, threadID, detail)
	if err != nil {
		return fmt.Errorf("record error for thread %s: %w", threadID, err)
	}
	return nil
}

// RecordDiscardedNote stores a note that was dropped with a notes-only
// thread result.
func (s *Store) RecordDiscardedNote(ctx context.Context, runID, threadID, note string) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO discarded_notes (run_id, thread_id, note) VALUES (?, ?, ?)`,
		runID, threadID, note)
	if err != nil {
		return fmt.Errorf("record discarded note for thread %s: %w", threadID, err)
	}
	return nil
}

// RecentRuns lists the newest runs first.
func (s *Store) RecentRuns(ctx context.Context, limit int) ([]Run, error) {
	if limit <= 0 {
		limit = 20
	}
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, started_at, finished_at, threads_seen, receipts_placed, error_count, discarded_threads
		 FROM runs ORDER BY started_at DESC LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("query runs: %w", err)
	}
	defer rows.Close()

	var out []Run
	for rows.Next() {
		var r Run
		if err := rows.Scan(&r.ID, &r.StartedAt, &r.FinishedAt,
			&r.ThreadsSeen, &r.ReceiptsPlaced, &r.ErrorCount, &r.DiscardedThreads); err != nil {
			return nil, fmt.Errorf("scan run: %w", err)
		}
		out = append(out, r)
	}
	return out, rows.Err()
}

// DiscardedNotes lists the notes dropped during one run.
func (s *Store) DiscardedNotes(ctx context.Context, runID string) ([]string, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT note FROM discarded_notes WHERE run_id = ? ORDER BY id`, runID)
	if err != nil {
		return nil, fmt.Errorf("query discarded notes: %w", err)
	}
	defer rows.Close()

	var out []string
	for rows.Next() {
		var note string
		if err := rows.Scan(&note); err != nil {
			return nil, fmt.Errorf("scan note: %w", err)
		}
		out = append(out, note)
	}
	return out, rows.Err()
}
