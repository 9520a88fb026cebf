// Package submit posts answers to a DRES-style evaluation server and keeps a
// local log of every attempt.
package submit

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "github.com/mattn/go-sqlite3"
)

// Submission statuses recorded in the log.
const (
	StatusLogged   = "logged"   // no endpoint configured; recorded locally only
	StatusAccepted = "accepted" // evaluation server returned 2xx
	StatusRejected = "rejected" // evaluation server returned non-2xx
	StatusFailed   = "failed"   // request could not be delivered
)

// Submission is one answer attempt.
type Submission struct {
	ID        string    `json:"id"`
	VideoID   string    `json:"video_id"`
	Timestamp float64   `json:"timestamp"`
	Query     string    `json:"query,omitempty"`
	Status    string    `json:"status"`
	Response  string    `json:"response,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}

// Log stores submissions in SQLite so attempts survive restarts and can be
// reviewed after a session.
type Log struct {
	db *sql.DB
}

// NewLog opens or creates the submission database at dbPath and initializes
// the schema. Parent directories are created if they do not exist.
func NewLog(dbPath string) (*Log, error) {
	if dir := filepath.Dir(dbPath); dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, fmt.Errorf("failed to create database directory: %w", err)
		}
	}
	db, err := sql.Open("sqlite3", dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to enable WAL: %w", err)
	}

	if err := initSchema(db); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to initialize schema: %w", err)
	}

	return &Log{db: db}, nil
}

func initSchema(db *sql.DB) error {
	schema := `
	CREATE TABLE IF NOT EXISTS submissions (
		id TEXT PRIMARY KEY,
		video_id TEXT NOT NULL,
		timestamp REAL NOT NULL,
		query TEXT,
		status TEXT NOT NULL,
		response TEXT,
		created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
	);

	CREATE INDEX IF NOT EXISTS idx_submissions_created_at ON submissions(created_at);
	CREATE INDEX IF NOT EXISTS idx_submissions_video_id ON submissions(video_id);
	`
	_, err := db.Exec(schema)
	return err
}

// Record inserts a submission.
func (l *Log) Record(ctx context.Context, sub *Submission) error {
	if sub.CreatedAt.IsZero() {
		sub.CreatedAt = time.Now()
	}
	_, err := l.db.ExecContext(ctx,
		`INSERT INTO submissions (id, video_id, timestamp, query, status, response, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`,
		sub.ID, sub.VideoID, sub.Timestamp, sub.Query, sub.Status, sub.Response, sub.CreatedAt,
	)
	return err
}

// List returns submissions newest first, with offset and limit.
func (l *Log) List(ctx context.Context, offset, limit int) ([]*Submission, error) {
	rows, err := l.db.QueryContext(ctx,
		`SELECT id, video_id, timestamp, query, status, response, created_at
		 FROM submissions ORDER BY created_at DESC, id LIMIT ? OFFSET ?`,
		limit, offset,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var subs []*Submission
	for rows.Next() {
		var sub Submission
		if err := rows.Scan(&sub.ID, &sub.VideoID, &sub.Timestamp, &sub.Query, &sub.Status, &sub.Response, &sub.CreatedAt); err != nil {
			return nil, err
		}
		subs = append(subs, &sub)
	}
	return subs, rows.Err()
}

// Count returns the total number of logged submissions.
func (l *Log) Count(ctx context.Context) (int64, error) {
	var count int64
	err := l.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM submissions`).Scan(&count)
	return count, err
}

// Close closes the database connection.
func (l *Log) Close() error {
	return l.db.Close()
}
