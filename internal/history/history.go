// Package history keeps a local SQLite record of watched builds. The TUI
// records a build once it reaches a terminal status; `bw recent` lists
// the records, and `bw watch` with no arguments resumes the most recent
// repository.
package history

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	_ "modernc.org/sqlite"

	"github.com/bmuenzenmeyer/buildwatch/internal/build"
)

// Record is one watched build.
type Record struct {
	ID        int64
	Repo      string // owner/name slug
	Number    int
	Status    build.Status // status when last seen
	Branch    string
	Message   string
	Duration  time.Duration
	WatchedAt time.Time
}

// History stores watched-build records in SQLite.
type History struct {
	db *sql.DB
}

// New opens, creating if needed, the history database at path.
func New(path string) (*History, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open history database: %w", err)
	}

	// SQLite allows a single writer.
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)

	h := &History{db: db}
	if err := h.initSchema(); err != nil {
		db.Close()
		return nil, fmt.Errorf("initialize history schema: %w", err)
	}
	return h, nil
}

// Close closes the database connection.
func (h *History) Close() error {
	return h.db.Close()
}

func (h *History) initSchema() error {
	_, err := h.db.Exec(`
		CREATE TABLE IF NOT EXISTS watched_builds (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			repo TEXT NOT NULL,
			number INTEGER NOT NULL,
			status TEXT NOT NULL,
			branch TEXT NOT NULL,
			message TEXT NOT NULL,
			duration_seconds INTEGER NOT NULL,
			watched_at TEXT NOT NULL,
			UNIQUE(repo, number)
		)
	`)
	if err != nil {
		return fmt.Errorf("create table: %w", err)
	}

	_, err = h.db.Exec(`
		CREATE INDEX IF NOT EXISTS idx_watched_at
		ON watched_builds(watched_at DESC)
	`)
	if err != nil {
		return fmt.Errorf("create index: %w", err)
	}
	return nil
}

// Record upserts a watched build. Watching a build again refreshes its
// status and timestamp instead of duplicating the row.
func (h *History) Record(ctx context.Context, rec *Record) error {
	watchedAt := rec.WatchedAt
	if watchedAt.IsZero() {
		watchedAt = time.Now()
	}

	_, err := h.db.ExecContext(ctx, `
		INSERT INTO watched_builds
		(repo, number, status, branch, message, duration_seconds, watched_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(repo, number) DO UPDATE SET
			status = excluded.status,
			branch = excluded.branch,
			message = excluded.message,
			duration_seconds = excluded.duration_seconds,
			watched_at = excluded.watched_at
	`,
		rec.Repo,
		rec.Number,
		string(rec.Status),
		rec.Branch,
		rec.Message,
		int64(rec.Duration/time.Second),
		watchedAt.UTC().Format(time.RFC3339),
	)
	if err != nil {
		return fmt.Errorf("record watched build %s#%d: %w", rec.Repo, rec.Number, err)
	}
	return nil
}

// Recent returns the most recently watched builds, newest first.
func (h *History) Recent(ctx context.Context, limit int) ([]Record, error) {
	rows, err := h.db.QueryContext(ctx, `
		SELECT id, repo, number, status, branch, message, duration_seconds, watched_at
		FROM watched_builds
		ORDER BY watched_at DESC, id DESC
		LIMIT ?
	`, limit)
	if err != nil {
		return nil, fmt.Errorf("query recent builds: %w", err)
	}
	defer rows.Close()

	var records []Record
	for rows.Next() {
		rec, err := scanRecord(rows)
		if err != nil {
			return nil, fmt.Errorf("scan watched build: %w", err)
		}
		records = append(records, *rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate recent builds: %w", err)
	}
	return records, nil
}

// scanner is satisfied by both *sql.Row and *sql.Rows.
type scanner interface {
	Scan(dest ...any) error
}

func scanRecord(s scanner) (*Record, error) {
	var (
		rec        Record
		status     string
		durationS  int64
		watchedStr string
	)
	err := s.Scan(
		&rec.ID,
		&rec.Repo,
		&rec.Number,
		&status,
		&rec.Branch,
		&rec.Message,
		&durationS,
		&watchedStr,
	)
	if err != nil {
		return nil, err
	}

	rec.Status = build.Status(status)
	rec.Duration = time.Duration(durationS) * time.Second

	watchedAt, err := time.Parse(time.RFC3339, watchedStr)
	if err != nil {
		return nil, fmt.Errorf("parse watched_at timestamp: %w", err)
	}
	rec.WatchedAt = watchedAt

	return &rec, nil
}
