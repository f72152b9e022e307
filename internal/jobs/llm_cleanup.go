package jobs

import (
	"context"
	"fmt"
	"log"
	"time"

	"focusnotebook/internal/database"
	"focusnotebook/internal/models"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
)

const (
	// stuckRequestAge marks requests abandoned mid-flight, for example
	// after a crash between insert and completion
	stuckRequestAge = 10 * time.Minute

	// requestRetention is the backstop for environments where the TTL
	// index was dropped or never built
	requestRetention = 7 * 24 * time.Hour
)

// LLMCleanupJob fails stuck AI requests and prunes expired ones
type LLMCleanupJob struct {
	requests *mongo.Collection
}

// NewLLMCleanupJob creates a new LLM cleanup job
func NewLLMCleanupJob(db *database.MongoDB) *LLMCleanupJob {
	return &LLMCleanupJob{requests: db.Collection(database.CollectionLLMRequests)}
}

// Run executes both cleanup passes
func (j *LLMCleanupJob) Run(ctx context.Context) error {
	now := time.Now()

	result, err := j.requests.UpdateMany(ctx,
		bson.M{
			"status":    bson.M{"$in": []string{models.LLMStatusPending, models.LLMStatusProcessing}},
			"createdAt": bson.M{"$lt": now.Add(-stuckRequestAge)},
		},
		bson.M{"$set": bson.M{
			"status": models.LLMStatusFailed,
			"error":  "abandoned: request never completed",
		}})
	if err != nil {
		return fmt.Errorf("failed to fail stuck requests: %w", err)
	}
	if result.ModifiedCount > 0 {
		log.Printf("🧹 [LLM-CLEANUP] Marked %d stuck requests as failed", result.ModifiedCount)
	}

	deleted, err := j.requests.DeleteMany(ctx,
		bson.M{"createdAt": bson.M{"$lt": now.Add(-requestRetention)}})
	if err != nil {
		return fmt.Errorf("failed to prune old requests: %w", err)
	}
	if deleted.DeletedCount > 0 {
		log.Printf("🧹 [LLM-CLEANUP] Pruned %d expired requests", deleted.DeletedCount)
	}

	return nil
}
