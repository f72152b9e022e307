package jobs

import (
	"context"
	"fmt"
	"log"
	"os"
	"time"

	"focusnotebook/internal/database"
	"focusnotebook/internal/models"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// failedUploadAge is how long failed upload records stick around for
// debugging before the sweep removes them
const failedUploadAge = 24 * time.Hour

// UploadSweepJob removes failed upload records and their leftover files
type UploadSweepJob struct {
	uploads *mongo.Collection
}

// NewUploadSweepJob creates a new upload sweep job
func NewUploadSweepJob(db *database.MongoDB) *UploadSweepJob {
	return &UploadSweepJob{uploads: db.Collection(database.CollectionUploads)}
}

// Run deletes stale failed uploads
func (j *UploadSweepJob) Run(ctx context.Context) error {
	cutoff := time.Now().Add(-failedUploadAge)

	cursor, err := j.uploads.Find(ctx,
		bson.M{
			"status":    models.UploadStatusFailed,
			"createdAt": bson.M{"$lt": cutoff},
		},
		options.Find().SetProjection(bson.M{"_id": 1, "storedPath": 1}))
	if err != nil {
		return fmt.Errorf("failed to find stale uploads: %w", err)
	}
	defer cursor.Close(ctx)

	var stale []models.Upload
	if err := cursor.All(ctx, &stale); err != nil {
		return fmt.Errorf("failed to decode stale uploads: %w", err)
	}
	if len(stale) == 0 {
		return nil
	}

	removed := 0
	for _, upload := range stale {
		if upload.StoredPath != "" {
			if err := os.Remove(upload.StoredPath); err != nil && !os.IsNotExist(err) {
				log.Printf("⚠️  [UPLOAD-SWEEP] Failed to remove %s: %v", upload.StoredPath, err)
				continue
			}
		}
		if _, err := j.uploads.DeleteOne(ctx, bson.M{"_id": upload.ID}); err != nil {
			log.Printf("⚠️  [UPLOAD-SWEEP] Failed to delete record %s: %v", upload.ID.Hex(), err)
			continue
		}
		removed++
	}

	log.Printf("🧹 [UPLOAD-SWEEP] Removed %d/%d stale failed uploads", removed, len(stale))
	return nil
}
