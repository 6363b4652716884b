package main

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

// History records every pipeline run and the slideshows it wrote
type History struct {
	db *sql.DB
}

// RunRecord is one row of the runs table with its slideshows
type RunRecord struct {
	ID         string
	StartedAt  time.Time
	FinishedAt *time.Time
	Indexed    int
	Skipped    int
	Slideshows []SlideshowRecord
}

// SlideshowRecord is one written video
type SlideshowRecord struct {
	YearOffset int
	OutputPath string
	Photos     int
	Duration   time.Duration
	CreatedAt  time.Time
}

// stateDir holds the history database and log file for an output folder
func stateDir(outputFolder string) string {
	return filepath.Join(outputFolder, ".memories")
}

// historyPath is where the database lives for a given output folder
func historyPath(outputFolder string) string {
	return filepath.Join(stateDir(outputFolder), "history.db")
}

// OpenHistory opens or creates the history database under outputFolder
func OpenHistory(outputFolder string) (*History, error) {
	dbPath := historyPath(outputFolder)
	if err := os.MkdirAll(filepath.Dir(dbPath), 0755); err != nil {
		return nil, fmt.Errorf("create history dir: %w", err)
	}

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open history db: %w", err)
	}

	// WAL lets the daemon and a manual run share the file
	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		db.Close()
		return nil, fmt.Errorf("enable WAL mode: %w", err)
	}
	if _, err := db.Exec("PRAGMA busy_timeout=5000"); err != nil {
		db.Close()
		return nil, fmt.Errorf("set busy timeout: %w", err)
	}

	schema := `
	CREATE TABLE IF NOT EXISTS runs (
		id TEXT PRIMARY KEY,
		started_at INTEGER NOT NULL,
		finished_at INTEGER,
		indexed INTEGER NOT NULL DEFAULT 0,
		skipped INTEGER NOT NULL DEFAULT 0
	);
	CREATE TABLE IF NOT EXISTS slideshows (
		run_id TEXT NOT NULL REFERENCES runs(id),
		year_offset INTEGER NOT NULL,
		output_path TEXT NOT NULL,
		photos INTEGER NOT NULL,
		duration_ms INTEGER NOT NULL,
		created_at INTEGER NOT NULL
	);
	CREATE INDEX IF NOT EXISTS idx_runs_started ON runs(started_at);
	CREATE INDEX IF NOT EXISTS idx_slideshows_run ON slideshows(run_id);
	`
	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("create schema: %w", err)
	}

	return &History{db: db}, nil
}

// Close closes the database
func (h *History) Close() error {
	if h == nil || h.db == nil {
		return nil
	}
	return h.db.Close()
}

// BeginRun inserts a new run and returns its id
func (h *History) BeginRun(ctx context.Context, startedAt time.Time) (string, error) {
	id := uuid.NewString()
	_, err := h.db.ExecContext(ctx,
		"INSERT INTO runs (id, started_at) VALUES (?, ?)",
		id, startedAt.UnixMilli())
	if err != nil {
		return "", fmt.Errorf("begin run: %w", err)
	}
	return id, nil
}

// FinishRun stamps a run with its end time and index counts
func (h *History) FinishRun(ctx context.Context, runID string, finishedAt time.Time, indexed, skipped int) error {
	_, err := h.db.ExecContext(ctx,
		"UPDATE runs SET finished_at = ?, indexed = ?, skipped = ? WHERE id = ?",
		finishedAt.UnixMilli(), indexed, skipped, runID)
	if err != nil {
		return fmt.Errorf("finish run %s: %w", runID, err)
	}
	return nil
}

// RecordSlideshow adds a written video to a run
func (h *History) RecordSlideshow(ctx context.Context, runID string, rec SlideshowRecord) error {
	_, err := h.db.ExecContext(ctx, `
		INSERT INTO slideshows (run_id, year_offset, output_path, photos, duration_ms, created_at)
		VALUES (?, ?, ?, ?, ?, ?)
	`, runID, rec.YearOffset, rec.OutputPath, rec.Photos, rec.Duration.Milliseconds(), rec.CreatedAt.UnixMilli())
	if err != nil {
		return fmt.Errorf("record slideshow: %w", err)
	}
	return nil
}

// Recent returns the latest runs, newest first, with their slideshows
func (h *History) Recent(ctx context.Context, limit int) ([]RunRecord, error) {
	if limit <= 0 {
		limit = 10
	}

	rows, err := h.db.QueryContext(ctx, `
		SELECT id, started_at, finished_at, indexed, skipped
		FROM runs
		ORDER BY started_at DESC
		LIMIT ?
	`, limit)
	if err != nil {
		return nil, fmt.Errorf("query runs: %w", err)
	}

	var runs []RunRecord
	for rows.Next() {
		var r RunRecord
		var started int64
		var finished sql.NullInt64
		if err := rows.Scan(&r.ID, &started, &finished, &r.Indexed, &r.Skipped); err != nil {
			rows.Close()
			return nil, err
		}
		r.StartedAt = time.UnixMilli(started)
		if finished.Valid {
			t := time.UnixMilli(finished.Int64)
			r.FinishedAt = &t
		}
		runs = append(runs, r)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return nil, err
	}

	for i := range runs {
		shows, err := h.slideshows(ctx, runs[i].ID)
		if err != nil {
			return nil, err
		}
		runs[i].Slideshows = shows
	}
	return runs, nil
}

func (h *History) slideshows(ctx context.Context, runID string) ([]SlideshowRecord, error) {
	rows, err := h.db.QueryContext(ctx, `
		SELECT year_offset, output_path, photos, duration_ms, created_at
		FROM slideshows
		WHERE run_id = ?
		ORDER BY rowid
	`, runID)
	if err != nil {
		return nil, fmt.Errorf("query slideshows: %w", err)
	}
	defer rows.Close()

	var out []SlideshowRecord
	for rows.Next() {
		var s SlideshowRecord
		var durMS, created int64
		if err := rows.Scan(&s.YearOffset, &s.OutputPath, &s.Photos, &durMS, &created); err != nil {
			return nil, err
		}
		s.Duration = time.Duration(durMS) * time.Millisecond
		s.CreatedAt = time.UnixMilli(created)
		out = append(out, s)
	}
	return out, rows.Err()
}
