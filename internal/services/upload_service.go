package services

import (
	"context"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"os"
	"path/filepath"
	"strings"
	"time"

	"focusnotebook/internal/database"
	"focusnotebook/internal/models"

	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// MaxUploadSize caps a single uploaded file at 25MB
const MaxUploadSize = 25 << 20

// UploadService stores files received from clients and tracks them in the
// uploads collection
type UploadService struct {
	collection *mongo.Collection
	baseDir    string
	metrics    *Metrics
}

// NewUploadService creates an upload service rooted at baseDir
func NewUploadService(db *database.MongoDB, baseDir string, metrics *Metrics) *UploadService {
	if baseDir == "" {
		baseDir = "./uploads"
	}
	return &UploadService{
		collection: db.Collection(database.CollectionUploads),
		baseDir:    baseDir,
		metrics:    metrics,
	}
}

// Save writes an uploaded file under the user's directory and records it.
// The stored name is randomized; the original filename survives only in
// the tracking record.
func (s *UploadService) Save(ctx context.Context, userID, source string, header *multipart.FileHeader) (*models.Upload, error) {
	if header.Size > MaxUploadSize {
		return nil, fmt.Errorf("file exceeds %dMB limit", MaxUploadSize>>20)
	}

	src, err := header.Open()
	if err != nil {
		return nil, fmt.Errorf("failed to open uploaded file: %w", err)
	}
	defer src.Close()

	userDir := filepath.Join(s.baseDir, sanitizePathComponent(userID))
	if err := os.MkdirAll(userDir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create upload directory: %w", err)
	}

	ext := strings.ToLower(filepath.Ext(header.Filename))
	storedPath := filepath.Join(userDir, uuid.NewString()+ext)

	dst, err := os.Create(storedPath)
	if err != nil {
		return nil, fmt.Errorf("failed to create file: %w", err)
	}
	defer dst.Close()

	written, err := io.Copy(dst, io.LimitReader(src, MaxUploadSize+1))
	if err != nil {
		os.Remove(storedPath)
		return nil, fmt.Errorf("failed to write file: %w", err)
	}
	if written > MaxUploadSize {
		os.Remove(storedPath)
		return nil, fmt.Errorf("file exceeds %dMB limit", MaxUploadSize>>20)
	}

	upload := &models.Upload{
		ID:          primitive.NewObjectID(),
		UserID:      userID,
		Filename:    filepath.Base(header.Filename),
		StoredPath:  storedPath,
		ContentType: header.Header.Get("Content-Type"),
		SizeBytes:   written,
		Status:      models.UploadStatusStored,
		Source:      source,
		CreatedAt:   time.Now(),
	}

	if _, err := s.collection.InsertOne(ctx, upload); err != nil {
		os.Remove(storedPath)
		return nil, fmt.Errorf("failed to record upload: %w", err)
	}

	if s.metrics != nil {
		s.metrics.RecordUpload(written)
	}
	return upload, nil
}

// List returns a user's uploads, newest first
func (s *UploadService) List(ctx context.Context, userID string) ([]models.Upload, error) {
	cursor, err := s.collection.Find(ctx,
		bson.M{"userId": userID},
		options.Find().SetSort(bson.D{{Key: "createdAt", Value: -1}}))
	if err != nil {
		return nil, fmt.Errorf("failed to list uploads: %w", err)
	}
	defer cursor.Close(ctx)

	uploads := []models.Upload{}
	if err := cursor.All(ctx, &uploads); err != nil {
		return nil, fmt.Errorf("failed to decode uploads: %w", err)
	}
	return uploads, nil
}

// Delete removes an upload record and its file
func (s *UploadService) Delete(ctx context.Context, userID, uploadID string) error {
	oid, err := primitive.ObjectIDFromHex(uploadID)
	if err != nil {
		return ErrNotFound
	}

	var upload models.Upload
	err = s.collection.FindOneAndDelete(ctx, bson.M{"_id": oid, "userId": userID}).Decode(&upload)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return ErrNotFound
	}
	if err != nil {
		return fmt.Errorf("failed to delete upload: %w", err)
	}

	if upload.StoredPath != "" {
		if err := os.Remove(upload.StoredPath); err != nil && !os.IsNotExist(err) {
			return fmt.Errorf("failed to remove stored file: %w", err)
		}
	}
	return nil
}

// sanitizePathComponent keeps user-derived path segments flat
func sanitizePathComponent(s string) string {
	s = strings.ReplaceAll(s, "..", "")
	s = strings.ReplaceAll(s, "/", "")
	s = strings.ReplaceAll(s, "\\", "")
	if s == "" {
		s = "unknown"
	}
	return s
}
