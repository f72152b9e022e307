package uploader

import (
	"database/sql"
	"errors"
	"fmt"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite"
)

// Queue item statuses
const (
	StatusPending   = "pending"
	StatusUploading = "uploading"
	StatusPaused    = "paused"
	StatusFailed    = "failed"
	StatusCompleted = "completed"
)

// Retry backoff bounds
const (
	retryBase = 30 * time.Second
	retryCap  = 30 * time.Minute
)

// ErrEmpty is returned when no item is ready to upload
var ErrEmpty = errors.New("queue is empty")

// Item is one queued file
type Item struct {
	ID          int64
	Path        string
	Status      string
	Attempts    int
	LastError   string
	NextRetryAt time.Time
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// Queue is a durable upload queue backed by a local SQLite file, so queued
// files survive restarts and flaky connectivity
type Queue struct {
	db *sql.DB
}

// Open opens or creates the queue database
func Open(path string) (*Queue, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open queue database: %w", err)
	}

	// The queue is single-writer; one connection avoids SQLITE_BUSY
	db.SetMaxOpenConns(1)

	_, err = db.Exec(`
		CREATE TABLE IF NOT EXISTS queue (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			path TEXT NOT NULL UNIQUE,
			status TEXT NOT NULL DEFAULT 'pending',
			attempts INTEGER NOT NULL DEFAULT 0,
			last_error TEXT NOT NULL DEFAULT '',
			next_retry_at INTEGER NOT NULL DEFAULT 0,
			created_at INTEGER NOT NULL,
			updated_at INTEGER NOT NULL
		);
		CREATE INDEX IF NOT EXISTS idx_queue_status ON queue(status, next_retry_at);
	`)
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to create queue schema: %w", err)
	}

	q := &Queue{db: db}
	if err := q.recoverInterrupted(); err != nil {
		db.Close()
		return nil, err
	}
	return q, nil
}

// recoverInterrupted requeues items that were mid-upload when the process
// died
func (q *Queue) recoverInterrupted() error {
	_, err := q.db.Exec(
		`UPDATE queue SET status = ?, updated_at = ? WHERE status = ?`,
		StatusPending, time.Now().Unix(), StatusUploading)
	if err != nil {
		return fmt.Errorf("failed to recover interrupted uploads: %w", err)
	}
	return nil
}

// Enqueue adds a file. Re-enqueueing a completed or failed path resets it.
func (q *Queue) Enqueue(path string) (*Item, error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve path: %w", err)
	}

	now := time.Now().Unix()
	_, err = q.db.Exec(`
		INSERT INTO queue (path, status, created_at, updated_at)
		VALUES (?, ?, ?, ?)
		ON CONFLICT(path) DO UPDATE SET
			status = excluded.status,
			attempts = 0,
			last_error = '',
			next_retry_at = 0,
			updated_at = excluded.updated_at
	`, abs, StatusPending, now, now)
	if err != nil {
		return nil, fmt.Errorf("failed to enqueue %s: %w", abs, err)
	}

	return q.byPath(abs)
}

// Next claims the oldest item ready for upload and marks it uploading
func (q *Queue) Next(now time.Time) (*Item, error) {
	tx, err := q.db.Begin()
	if err != nil {
		return nil, fmt.Errorf("failed to begin claim: %w", err)
	}
	defer tx.Rollback()

	row := tx.QueryRow(`
		SELECT id, path, status, attempts, last_error, next_retry_at, created_at, updated_at
		FROM queue
		WHERE (status = ? OR (status = ? AND next_retry_at <= ?))
		ORDER BY created_at ASC
		LIMIT 1
	`, StatusPending, StatusFailed, now.Unix())

	item, err := scanItem(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrEmpty
	}
	if err != nil {
		return nil, err
	}

	_, err = tx.Exec(
		`UPDATE queue SET status = ?, updated_at = ? WHERE id = ?`,
		StatusUploading, now.Unix(), item.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to claim item %d: %w", item.ID, err)
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit claim: %w", err)
	}

	item.Status = StatusUploading
	return item, nil
}

// MarkCompleted finishes an item
func (q *Queue) MarkCompleted(id int64) error {
	return q.setStatus(id, StatusCompleted, "", 0)
}

// MarkFailed records a failed attempt and schedules the retry with
// exponential backoff
func (q *Queue) MarkFailed(id int64, cause error) error {
	var attempts int
	if err := q.db.QueryRow(`SELECT attempts FROM queue WHERE id = ?`, id).Scan(&attempts); err != nil {
		return fmt.Errorf("failed to read attempts for item %d: %w", id, err)
	}

	attempts++
	retryAt := time.Now().Add(Backoff(attempts))

	msg := ""
	if cause != nil {
		msg = cause.Error()
	}

	_, err := q.db.Exec(`
		UPDATE queue SET status = ?, attempts = ?, last_error = ?, next_retry_at = ?, updated_at = ?
		WHERE id = ?
	`, StatusFailed, attempts, msg, retryAt.Unix(), time.Now().Unix(), id)
	if err != nil {
		return fmt.Errorf("failed to mark item %d failed: %w", id, err)
	}
	return nil
}

// Pause holds an item out of the upload loop
func (q *Queue) Pause(id int64) error {
	return q.setStatus(id, StatusPaused, "", 0)
}

// Resume puts a paused item back in the pending state
func (q *Queue) Resume(id int64) error {
	return q.setStatus(id, StatusPending, "", 0)
}

// List returns all items, oldest first
func (q *Queue) List() ([]Item, error) {
	rows, err := q.db.Query(`
		SELECT id, path, status, attempts, last_error, next_retry_at, created_at, updated_at
		FROM queue ORDER BY created_at ASC
	`)
	if err != nil {
		return nil, fmt.Errorf("failed to list queue: %w", err)
	}
	defer rows.Close()

	items := []Item{}
	for rows.Next() {
		item, err := scanItem(rows)
		if err != nil {
			return nil, err
		}
		items = append(items, *item)
	}
	return items, rows.Err()
}

// Stats returns item counts by status
func (q *Queue) Stats() (map[string]int, error) {
	rows, err := q.db.Query(`SELECT status, COUNT(*) FROM queue GROUP BY status`)
	if err != nil {
		return nil, fmt.Errorf("failed to read queue stats: %w", err)
	}
	defer rows.Close()

	stats := map[string]int{}
	for rows.Next() {
		var status string
		var count int
		if err := rows.Scan(&status, &count); err != nil {
			return nil, err
		}
		stats[status] = count
	}
	return stats, rows.Err()
}

// Prune removes completed items
func (q *Queue) Prune() (int64, error) {
	result, err := q.db.Exec(`DELETE FROM queue WHERE status = ?`, StatusCompleted)
	if err != nil {
		return 0, fmt.Errorf("failed to prune queue: %w", err)
	}
	return result.RowsAffected()
}

// Close closes the queue database
func (q *Queue) Close() error {
	return q.db.Close()
}

// Backoff returns the retry delay after the given attempt count,
// doubling from retryBase up to retryCap
func Backoff(attempts int) time.Duration {
	d := retryBase
	for i := 1; i < attempts; i++ {
		d *= 2
		if d >= retryCap {
			return retryCap
		}
	}
	if d > retryCap {
		d = retryCap
	}
	return d
}

func (q *Queue) setStatus(id int64, status, lastError string, nextRetry int64) error {
	result, err := q.db.Exec(`
		UPDATE queue SET status = ?, last_error = ?, next_retry_at = ?, updated_at = ?
		WHERE id = ?
	`, status, lastError, nextRetry, time.Now().Unix(), id)
	if err != nil {
		return fmt.Errorf("failed to set status on item %d: %w", id, err)
	}
	n, _ := result.RowsAffected()
	if n == 0 {
		return fmt.Errorf("queue item %d not found", id)
	}
	return nil
}

func (q *Queue) byPath(path string) (*Item, error) {
	row := q.db.QueryRow(`
		SELECT id, path, status, attempts, last_error, next_retry_at, created_at, updated_at
		FROM queue WHERE path = ?
	`, path)
	item, err := scanItem(row)
	if err != nil {
		return nil, fmt.Errorf("failed to load item %s: %w", path, err)
	}
	return item, nil
}

func scanItem(row interface{ Scan(...interface{}) error }) (*Item, error) {
	var item Item
	var nextRetry, createdAt, updatedAt int64
	err := row.Scan(&item.ID, &item.Path, &item.Status, &item.Attempts,
		&item.LastError, &nextRetry, &createdAt, &updatedAt)
	if err != nil {
		return nil, err
	}
	item.NextRetryAt = time.Unix(nextRetry, 0)
	item.CreatedAt = time.Unix(createdAt, 0)
	item.UpdatedAt = time.Unix(updatedAt, 0)
	return &item, nil
}
