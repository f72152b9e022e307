package uploader

import (
	"errors"
	"path/filepath"
	"testing"
	"time"
)

func openTestQueue(t *testing.T) *Queue {
	t.Helper()
	q, err := Open(filepath.Join(t.TempDir(), "queue.db"))
	if err != nil {
		t.Fatalf("Open() error = %v", err)
	}
	t.Cleanup(func() { q.Close() })
	return q
}

func TestEnqueueAndClaim(t *testing.T) {
	q := openTestQueue(t)

	item, err := q.Enqueue("/photos/a.jpg")
	if err != nil {
		t.Fatalf("Enqueue() error = %v", err)
	}
	if item.Status != StatusPending {
		t.Errorf("status = %q, want %q", item.Status, StatusPending)
	}

	claimed, err := q.Next(time.Now())
	if err != nil {
		t.Fatalf("Next() error = %v", err)
	}
	if claimed.ID != item.ID {
		t.Errorf("claimed ID = %d, want %d", claimed.ID, item.ID)
	}
	if claimed.Status != StatusUploading {
		t.Errorf("claimed status = %q, want %q", claimed.Status, StatusUploading)
	}

	// The claimed item should not be handed out again
	if _, err := q.Next(time.Now()); !errors.Is(err, ErrEmpty) {
		t.Errorf("second Next() error = %v, want ErrEmpty", err)
	}
}

func TestCompleteRemovesFromRotation(t *testing.T) {
	q := openTestQueue(t)

	q.Enqueue("/photos/a.jpg")
	claimed, _ := q.Next(time.Now())
	if err := q.MarkCompleted(claimed.ID); err != nil {
		t.Fatalf("MarkCompleted() error = %v", err)
	}

	if _, err := q.Next(time.Now()); !errors.Is(err, ErrEmpty) {
		t.Errorf("Next() after completion error = %v, want ErrEmpty", err)
	}

	stats, err := q.Stats()
	if err != nil {
		t.Fatalf("Stats() error = %v", err)
	}
	if stats[StatusCompleted] != 1 {
		t.Errorf("completed count = %d, want 1", stats[StatusCompleted])
	}
}

func TestFailedItemRetriesAfterBackoff(t *testing.T) {
	q := openTestQueue(t)

	q.Enqueue("/photos/a.jpg")
	claimed, _ := q.Next(time.Now())

	if err := q.MarkFailed(claimed.ID, errors.New("connection refused")); err != nil {
		t.Fatalf("MarkFailed() error = %v", err)
	}

	// Not ready yet
	if _, err := q.Next(time.Now()); !errors.Is(err, ErrEmpty) {
		t.Errorf("Next() before backoff elapsed error = %v, want ErrEmpty", err)
	}

	// Ready once the backoff window has passed
	future := time.Now().Add(Backoff(1) + time.Second)
	retried, err := q.Next(future)
	if err != nil {
		t.Fatalf("Next() after backoff error = %v", err)
	}
	if retried.Attempts != 1 {
		t.Errorf("attempts = %d, want 1", retried.Attempts)
	}
	if retried.LastError != "connection refused" {
		t.Errorf("last error = %q, want %q", retried.LastError, "connection refused")
	}
}

func TestPausedItemIsSkipped(t *testing.T) {
	q := openTestQueue(t)

	item, _ := q.Enqueue("/photos/a.jpg")
	if err := q.Pause(item.ID); err != nil {
		t.Fatalf("Pause() error = %v", err)
	}

	if _, err := q.Next(time.Now()); !errors.Is(err, ErrEmpty) {
		t.Errorf("Next() with paused item error = %v, want ErrEmpty", err)
	}

	if err := q.Resume(item.ID); err != nil {
		t.Fatalf("Resume() error = %v", err)
	}
	if _, err := q.Next(time.Now()); err != nil {
		t.Errorf("Next() after resume error = %v", err)
	}
}

func TestReEnqueueResetsFailedItem(t *testing.T) {
	q := openTestQueue(t)

	q.Enqueue("/photos/a.jpg")
	claimed, _ := q.Next(time.Now())
	q.MarkFailed(claimed.ID, errors.New("boom"))

	item, err := q.Enqueue("/photos/a.jpg")
	if err != nil {
		t.Fatalf("re-Enqueue() error = %v", err)
	}
	if item.Status != StatusPending {
		t.Errorf("status = %q, want %q", item.Status, StatusPending)
	}
	if item.Attempts != 0 {
		t.Errorf("attempts = %d, want 0", item.Attempts)
	}
}

func TestInterruptedUploadsRecoverOnOpen(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "queue.db")

	q, err := Open(path)
	if err != nil {
		t.Fatalf("Open() error = %v", err)
	}
	q.Enqueue("/photos/a.jpg")
	if _, err := q.Next(time.Now()); err != nil {
		t.Fatalf("Next() error = %v", err)
	}
	q.Close()

	reopened, err := Open(path)
	if err != nil {
		t.Fatalf("reopen error = %v", err)
	}
	defer reopened.Close()

	item, err := reopened.Next(time.Now())
	if err != nil {
		t.Fatalf("Next() after reopen error = %v", err)
	}
	if item.Path != "/photos/a.jpg" {
		t.Errorf("path = %q, want %q", item.Path, "/photos/a.jpg")
	}
}

func TestBackoffDoublesAndCaps(t *testing.T) {
	if Backoff(1) != retryBase {
		t.Errorf("Backoff(1) = %v, want %v", Backoff(1), retryBase)
	}
	if Backoff(2) != 2*retryBase {
		t.Errorf("Backoff(2) = %v, want %v", Backoff(2), 2*retryBase)
	}
	if Backoff(100) != retryCap {
		t.Errorf("Backoff(100) = %v, want %v", Backoff(100), retryCap)
	}
}
