package store

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite"

	"sragwatch/internal/pipeline"
)

const schema = `
CREATE TABLE IF NOT EXISTS runs (
	id           TEXT PRIMARY KEY,
	status       TEXT NOT NULL,
	failed_stage TEXT,
	reason       TEXT,
	anchor       TEXT,
	started_at   TEXT NOT NULL,
	finished_at  TEXT
);
CREATE TABLE IF NOT EXISTS stage_results (
	run_id      TEXT NOT NULL REFERENCES runs(id),
	stage       TEXT NOT NULL,
	status      TEXT NOT NULL,
	output_dir  TEXT,
	error       TEXT,
	duration_ms INTEGER NOT NULL,
	PRIMARY KEY (run_id, stage)
);
`

// SqlStore implements Store with SQLite.
type SqlStore struct {
	db *sql.DB
}

// Open opens or creates the run-history DB at path and applies the schema.
// Creates the parent directory if it does not exist.
func Open(path string) (*SqlStore, error) {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("create store dir: %w", err)
	}
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open store: %w", err)
	}
	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("apply store schema: %w", err)
	}
	return &SqlStore{db: db}, nil
}

// Close releases the DB handle.
func (s *SqlStore) Close() error { return s.db.Close() }

// CreateRun inserts the run row at start time.
func (s *SqlStore) CreateRun(run *Run) error {
	_, err := s.db.Exec(
		`INSERT INTO runs (id, status, started_at) VALUES (?, ?, ?)`,
		run.ID, string(run.Status), run.StartedAt.UTC().Format(time.RFC3339),
	)
	if err != nil {
		return fmt.Errorf("insert run: %w", err)
	}
	return nil
}

// FinishRun stamps the terminal status on an existing run.
func (s *SqlStore) FinishRun(id string, status pipeline.Status, failedStage, reason, anchor string, finishedAt time.Time) error {
	res, err := s.db.Exec(
		`UPDATE runs SET status = ?, failed_stage = ?, reason = ?, anchor = ?, finished_at = ? WHERE id = ?`,
		string(status), nullable(failedStage), nullable(reason), nullable(anchor),
		finishedAt.UTC().Format(time.RFC3339), id,
	)
	if err != nil {
		return fmt.Errorf("finish run: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("finish run: no run with id %s", id)
	}
	return nil
}

// SaveStage upserts one stage result.
func (s *SqlStore) SaveStage(row *StageRow) error {
	_, err := s.db.Exec(
		`INSERT INTO stage_results (run_id, stage, status, output_dir, error, duration_ms)
		 VALUES (?, ?, ?, ?, ?, ?)
		 ON CONFLICT (run_id, stage) DO UPDATE SET
		   status = excluded.status, output_dir = excluded.output_dir,
		   error = excluded.error, duration_ms = excluded.duration_ms`,
		row.RunID, row.Stage, string(row.Status), nullable(row.OutputDir), nullable(row.Error), row.DurationMS,
	)
	if err != nil {
		return fmt.Errorf("save stage result: %w", err)
	}
	return nil
}

// ListRuns returns the most recent runs, newest first.
func (s *SqlStore) ListRuns(limit int) ([]*Run, error) {
	if limit <= 0 {
		limit = 20
	}
	rows, err := s.db.Query(
		`SELECT id, status, failed_stage, reason, anchor, started_at, finished_at
		 FROM runs ORDER BY started_at DESC LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("list runs: %w", err)
	}
	defer rows.Close()

	var runs []*Run
	for rows.Next() {
		var r Run
		var status string
		var failedStage, reason, anchor, startedAt, finishedAt sql.NullString
		if err := rows.Scan(&r.ID, &status, &failedStage, &reason, &anchor, &startedAt, &finishedAt); err != nil {
			return nil, fmt.Errorf("scan run: %w", err)
		}
		r.Status = pipeline.Status(status)
		r.FailedStage = nullStr(failedStage)
		r.Reason = nullStr(reason)
		r.Anchor = nullStr(anchor)
		r.StartedAt = parseTime(nullStr(startedAt))
		r.FinishedAt = parseTime(nullStr(finishedAt))
		runs = append(runs, &r)
	}
	return runs, rows.Err()
}

// ListStages returns a run's stage results in execution order (insert order).
func (s *SqlStore) ListStages(runID string) ([]*StageRow, error) {
	rows, err := s.db.Query(
		`SELECT run_id, stage, status, output_dir, error, duration_ms
		 FROM stage_results WHERE run_id = ? ORDER BY rowid`, runID)
	if err != nil {
		return nil, fmt.Errorf("list stage results: %w", err)
	}
	defer rows.Close()

	var out []*StageRow
	for rows.Next() {
		var row StageRow
		var status string
		var outputDir, errMsg sql.NullString
		if err := rows.Scan(&row.RunID, &row.Stage, &status, &outputDir, &errMsg, &row.DurationMS); err != nil {
			return nil, fmt.Errorf("scan stage result: %w", err)
		}
		row.Status = pipeline.StageStatus(status)
		row.OutputDir = nullStr(outputDir)
		row.Error = nullStr(errMsg)
		out = append(out, &row)
	}
	return out, rows.Err()
}

// nullable converts "" to NULL so empty columns stay NULL in the DB.
func nullable(s string) any {
	if s == "" {
		return nil
	}
	return s
}

// nullStr converts a sql.NullString to a plain string (empty if null).
func nullStr(ns sql.NullString) string {
	if ns.Valid {
		return ns.String
	}
	return ""
}

// parseTime parses an RFC 3339 column; zero time on empty or malformed.
func parseTime(s string) time.Time {
	if s == "" {
		return time.Time{}
	}
	t, err := time.Parse(time.RFC3339, s)
	if err != nil {
		return time.Time{}
	}
	return t
}
