package models

import (
	"encoding/json"
	"strings"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// CBTAnalysis is the structured result of AI-assisted thought processing
type CBTAnalysis struct {
	Distortions []string `bson:"distortions,omitempty" json:"distortions,omitempty"`
	Reframe     string   `bson:"reframe,omitempty" json:"reframe,omitempty"`
	Intensity   int      `bson:"intensity,omitempty" json:"intensity,omitempty"` // 1-10
}

// Thought is a free-text entry the user captured, optionally enriched by the
// AI pipeline. SourceThoughtID and ProcessedBy are dedicated fields; older
// records smuggled the same data as JSON inside Notes (see ExtractNoteMetadata).
type Thought struct {
	ID              primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	UserID          string             `bson:"userId" json:"user_id"`
	Text            string             `bson:"text" json:"text"`
	Type            string             `bson:"type,omitempty" json:"type,omitempty"` // e.g. "worry", "idea", "gratitude"
	Tags            []string           `bson:"tags,omitempty" json:"tags,omitempty"`
	Notes           string             `bson:"notes,omitempty" json:"notes,omitempty"`
	Analysis        *CBTAnalysis       `bson:"analysis,omitempty" json:"analysis,omitempty"`
	SourceThoughtID string             `bson:"sourceThoughtId,omitempty" json:"source_thought_id,omitempty"`
	ProcessedBy     string             `bson:"processedBy,omitempty" json:"processed_by,omitempty"`
	CreatedAt       time.Time          `bson:"createdAt" json:"created_at"`
	UpdatedAt       int64              `bson:"updatedAt" json:"updated_at"` // unix millis, sync merge key
}

// NoteMetadata is the structured payload legacy records embedded in Notes
type NoteMetadata struct {
	SourceThoughtID string `json:"sourceThoughtId,omitempty"`
	ProcessedBy     string `json:"processedBy,omitempty"`
}

// ExtractNoteMetadata detects and parses legacy metadata smuggled as JSON in a
// free-text notes field. Returns false when the notes hold no such payload.
// New writes must use the dedicated fields; this exists only for the one-time
// backfill migration.
func ExtractNoteMetadata(notes string) (*NoteMetadata, bool) {
	trimmed := strings.TrimSpace(notes)
	if !strings.HasPrefix(trimmed, "{") {
		return nil, false
	}

	var meta NoteMetadata
	if err := json.Unmarshal([]byte(trimmed), &meta); err != nil {
		return nil, false
	}
	if meta.SourceThoughtID == "" && meta.ProcessedBy == "" {
		return nil, false
	}
	return &meta, true
}

// CreateThoughtRequest is the request body for capturing a thought
type CreateThoughtRequest struct {
	Text string   `json:"text"`
	Type string   `json:"type,omitempty"`
	Tags []string `json:"tags,omitempty"`
}

// UpdateThoughtRequest is the request body for a partial thought update
type UpdateThoughtRequest struct {
	Text  *string   `json:"text,omitempty"`
	Type  *string   `json:"type,omitempty"`
	Tags  *[]string `json:"tags,omitempty"`
	Notes *string   `json:"notes,omitempty"`
}
