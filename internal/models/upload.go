package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Upload status constants
const (
	UploadStatusStored = "stored"
	UploadStatusFailed = "failed"
)

// Upload records one file received from a client
type Upload struct {
	ID          primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	UserID      string             `bson:"userId" json:"user_id"`
	Filename    string             `bson:"filename" json:"filename"`
	StoredPath  string             `bson:"storedPath" json:"-"`
	ContentType string             `bson:"contentType,omitempty" json:"content_type,omitempty"`
	SizeBytes   int64              `bson:"sizeBytes" json:"size_bytes"`
	Status      string             `bson:"status" json:"status"`
	Source      string             `bson:"source,omitempty" json:"source,omitempty"` // "mobile" or "web"
	CreatedAt   time.Time          `bson:"createdAt" json:"created_at"`
}
