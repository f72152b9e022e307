package uploader

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"os"
	"path/filepath"
	"time"

	"github.com/sirupsen/logrus"
)

// maxAttempts drops an item after repeated failures so one broken file
// cannot wedge the queue forever
const maxAttempts = 8

// Worker drains the queue against the server's upload endpoint
type Worker struct {
	queue     *Queue
	client    *http.Client
	serverURL string
	token     string
	interval  time.Duration
	log       *logrus.Logger
}

// NewWorker creates a new upload worker
func NewWorker(queue *Queue, serverURL, token string, interval time.Duration, log *logrus.Logger) *Worker {
	if interval <= 0 {
		interval = 5 * time.Second
	}
	if log == nil {
		log = logrus.New()
	}
	return &Worker{
		queue:     queue,
		client:    &http.Client{Timeout: 2 * time.Minute},
		serverURL: serverURL,
		token:     token,
		interval:  interval,
		log:       log,
	}
}

// Run drains the queue until the context is cancelled
func (w *Worker) Run(ctx context.Context) error {
	w.log.WithField("server", w.serverURL).Info("upload worker started")

	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	for {
		w.drain(ctx)

		select {
		case <-ctx.Done():
			w.log.Info("upload worker stopping")
			return ctx.Err()
		case <-ticker.C:
		}
	}
}

// drain uploads every ready item, stopping on cancellation
func (w *Worker) drain(ctx context.Context) {
	for {
		if ctx.Err() != nil {
			return
		}

		item, err := w.queue.Next(time.Now())
		if errors.Is(err, ErrEmpty) {
			return
		}
		if err != nil {
			w.log.WithError(err).Error("failed to claim queue item")
			return
		}

		w.process(ctx, item)
	}
}

func (w *Worker) process(ctx context.Context, item *Item) {
	entry := w.log.WithFields(logrus.Fields{
		"id":      item.ID,
		"path":    item.Path,
		"attempt": item.Attempts + 1,
	})

	if err := w.upload(ctx, item.Path); err != nil {
		if item.Attempts+1 >= maxAttempts {
			entry.WithError(err).Error("upload failed permanently, pausing item")
			if pauseErr := w.queue.Pause(item.ID); pauseErr != nil {
				entry.WithError(pauseErr).Error("failed to pause item")
			}
			return
		}

		entry.WithError(err).Warn("upload failed, will retry")
		if failErr := w.queue.MarkFailed(item.ID, err); failErr != nil {
			entry.WithError(failErr).Error("failed to record failure")
		}
		return
	}

	if err := w.queue.MarkCompleted(item.ID); err != nil {
		entry.WithError(err).Error("failed to mark item completed")
		return
	}
	entry.Info("uploaded")
}

// upload posts one file as multipart form data
func (w *Worker) upload(ctx context.Context, path string) error {
	file, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("failed to open file: %w", err)
	}
	defer file.Close()

	var body bytes.Buffer
	writer := multipart.NewWriter(&body)

	part, err := writer.CreateFormFile("file", filepath.Base(path))
	if err != nil {
		return fmt.Errorf("failed to create form file: %w", err)
	}
	if _, err := io.Copy(part, file); err != nil {
		return fmt.Errorf("failed to read file: %w", err)
	}
	if err := writer.WriteField("source", "mobile"); err != nil {
		return fmt.Errorf("failed to write source field: %w", err)
	}
	if err := writer.Close(); err != nil {
		return fmt.Errorf("failed to finish multipart body: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, w.serverURL+"/api/uploads", &body)
	if err != nil {
		return fmt.Errorf("failed to build request: %w", err)
	}
	req.Header.Set("Content-Type", writer.FormDataContentType())
	req.Header.Set("Authorization", "Bearer "+w.token)

	resp, err := w.client.Do(req)
	if err != nil {
		return fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusCreated {
		var apiErr struct {
			Error string `json:"error"`
		}
		raw, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		if json.Unmarshal(raw, &apiErr) == nil && apiErr.Error != "" {
			return fmt.Errorf("server rejected upload (%d): %s", resp.StatusCode, apiErr.Error)
		}
		return fmt.Errorf("server rejected upload: status %d", resp.StatusCode)
	}
	return nil
}
