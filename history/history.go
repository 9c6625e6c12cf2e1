// Package history persists one row per completed run in a local SQLite
// database, so consecutive invocations can be compared after the fact.
package history

import (
	"database/sql"
	"fmt"
	"time"

	_ "modernc.org/sqlite"
)

const schema = `
CREATE TABLE IF NOT EXISTS runs (
    run_id TEXT PRIMARY KEY,
    started_at TEXT NOT NULL,
    finished_at TEXT NOT NULL,
    platforms INTEGER NOT NULL DEFAULT 0,
    total INTEGER NOT NULL DEFAULT 0,
    failed INTEGER NOT NULL DEFAULT 0,
    skipped INTEGER NOT NULL DEFAULT 0,
    fatal_error INTEGER NOT NULL DEFAULT 0,
    coverage_files INTEGER NOT NULL DEFAULT 0,
    duration_ms INTEGER NOT NULL DEFAULT 0
);
`

// Run is one recorded run summary.
type Run struct {
	RunID         string
	StartedAt     time.Time
	FinishedAt    time.Time
	Platforms     int
	Total         int
	Failed        int
	Skipped       int
	FatalError    bool
	CoverageFiles int
	Duration      time.Duration
}

// Store provides run-history database operations.
type Store struct {
	db *sql.DB
}

// Open opens (creating if needed) the history database at path.
func Open(path string) (*Store, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open history db %s: %w", path, err)
	}
	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to initialize history schema: %w", err)
	}
	return &Store{db: db}, nil
}

// RecordRun inserts the run summary. Re-recording the same run id
// overwrites the previous row.
func (s *Store) RecordRun(run Run) error {
	_, err := s.db.Exec(`
		INSERT OR REPLACE INTO runs
		    (run_id, started_at, finished_at, platforms, total, failed,
		     skipped, fatal_error, coverage_files, duration_ms)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`,
		run.RunID,
		run.StartedAt.UTC().Format(time.RFC3339Nano),
		run.FinishedAt.UTC().Format(time.RFC3339Nano),
		run.Platforms,
		run.Total,
		run.Failed,
		run.Skipped,
		boolToInt(run.FatalError),
		run.CoverageFiles,
		run.Duration.Milliseconds(),
	)
	if err != nil {
		return fmt.Errorf("failed to record run %s: %w", run.RunID, err)
	}
	return nil
}

// RecentRuns returns up to limit runs, most recent first.
func (s *Store) RecentRuns(limit int) ([]Run, error) {
	rows, err := s.db.Query(`
		SELECT run_id, started_at, finished_at, platforms, total, failed,
		       skipped, fatal_error, coverage_files, duration_ms
		FROM runs
		ORDER BY started_at DESC
		LIMIT ?
	`, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var runs []Run
	for rows.Next() {
		var r Run
		var started, finished string
		var fatal int
		var durationMs int64

		if err := rows.Scan(&r.RunID, &started, &finished, &r.Platforms, &r.Total,
			&r.Failed, &r.Skipped, &fatal, &r.CoverageFiles, &durationMs); err != nil {
			return nil, err
		}

		r.StartedAt, _ = time.Parse(time.RFC3339Nano, started)
		r.FinishedAt, _ = time.Parse(time.RFC3339Nano, finished)
		r.FatalError = fatal != 0
		r.Duration = time.Duration(durationMs) * time.Millisecond

		runs = append(runs, r)
	}

	return runs, rows.Err()
}

// Close closes the underlying database.
func (s *Store) Close() error {
	return s.db.Close()
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
