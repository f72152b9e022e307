package services

import (
	"context"

	"focusnotebook/internal/models"
)

// ChangePublisher receives document changes for fan-out to connected clients.
// Implemented by SyncService; services publish after every successful write.
type ChangePublisher interface {
	PublishChange(ctx context.Context, userID string, event models.ChangeEvent)
}

// nopPublisher drops all events. Used when sync is not wired, e.g. in tests.
type nopPublisher struct{}

func (nopPublisher) PublishChange(ctx context.Context, userID string, event models.ChangeEvent) {}
