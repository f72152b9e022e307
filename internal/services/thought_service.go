package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"time"

	"focusnotebook/internal/database"
	"focusnotebook/internal/models"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// ThoughtService manages captured thoughts and their AI enrichment fields
type ThoughtService struct {
	collection *mongo.Collection
	publisher  ChangePublisher
}

// NewThoughtService creates a new thought service
func NewThoughtService(db *database.MongoDB, publisher ChangePublisher) *ThoughtService {
	if publisher == nil {
		publisher = nopPublisher{}
	}
	return &ThoughtService{
		collection: db.Collection(database.CollectionThoughts),
		publisher:  publisher,
	}
}

// Create inserts a new thought
func (s *ThoughtService) Create(ctx context.Context, userID string, req *models.CreateThoughtRequest) (*models.Thought, error) {
	if req.Text == "" {
		return nil, errors.New("text is required")
	}

	now := time.Now()
	thought := &models.Thought{
		ID:        primitive.NewObjectID(),
		UserID:    userID,
		Text:      req.Text,
		Type:      req.Type,
		Tags:      req.Tags,
		CreatedAt: now,
		UpdatedAt: now.UnixMilli(),
	}

	if _, err := s.collection.InsertOne(ctx, thought); err != nil {
		return nil, fmt.Errorf("failed to insert thought: %w", err)
	}

	s.publishThought(ctx, thought)
	return thought, nil
}

// List returns all thoughts for a user, newest first
func (s *ThoughtService) List(ctx context.Context, userID string) ([]models.Thought, error) {
	cursor, err := s.collection.Find(ctx,
		bson.M{"userId": userID},
		options.Find().SetSort(bson.D{{Key: "createdAt", Value: -1}}))
	if err != nil {
		return nil, fmt.Errorf("failed to list thoughts: %w", err)
	}
	defer cursor.Close(ctx)

	thoughts := []models.Thought{}
	if err := cursor.All(ctx, &thoughts); err != nil {
		return nil, fmt.Errorf("failed to decode thoughts: %w", err)
	}
	return thoughts, nil
}

// Get returns a single thought owned by the user
func (s *ThoughtService) Get(ctx context.Context, userID, thoughtID string) (*models.Thought, error) {
	oid, err := primitive.ObjectIDFromHex(thoughtID)
	if err != nil {
		return nil, ErrNotFound
	}

	var thought models.Thought
	err = s.collection.FindOne(ctx, bson.M{"_id": oid, "userId": userID}).Decode(&thought)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get thought: %w", err)
	}
	return &thought, nil
}

// Update applies a partial update to a thought
func (s *ThoughtService) Update(ctx context.Context, userID, thoughtID string, req *models.UpdateThoughtRequest) (*models.Thought, error) {
	oid, err := primitive.ObjectIDFromHex(thoughtID)
	if err != nil {
		return nil, ErrNotFound
	}

	set := bson.M{"updatedAt": time.Now().UnixMilli()}
	if req.Text != nil {
		set["text"] = *req.Text
	}
	if req.Type != nil {
		set["type"] = *req.Type
	}
	if req.Tags != nil {
		set["tags"] = *req.Tags
	}
	if req.Notes != nil {
		set["notes"] = *req.Notes
	}

	result := s.collection.FindOneAndUpdate(ctx,
		bson.M{"_id": oid, "userId": userID},
		bson.M{"$set": set},
		options.FindOneAndUpdate().SetReturnDocument(options.After))

	var thought models.Thought
	if err := result.Decode(&thought); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to update thought: %w", err)
	}

	s.publishThought(ctx, &thought)
	return &thought, nil
}

// AddTags appends tags to a thought without duplicating existing ones
func (s *ThoughtService) AddTags(ctx context.Context, userID, thoughtID string, tags []string) (*models.Thought, error) {
	oid, err := primitive.ObjectIDFromHex(thoughtID)
	if err != nil {
		return nil, ErrNotFound
	}

	result := s.collection.FindOneAndUpdate(ctx,
		bson.M{"_id": oid, "userId": userID},
		bson.M{
			"$addToSet": bson.M{"tags": bson.M{"$each": tags}},
			"$set":      bson.M{"updatedAt": time.Now().UnixMilli()},
		},
		options.FindOneAndUpdate().SetReturnDocument(options.After))

	var thought models.Thought
	if err := result.Decode(&thought); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to add tags: %w", err)
	}

	s.publishThought(ctx, &thought)
	return &thought, nil
}

// SetAnalysis attaches a CBT analysis and processing provenance to a thought
func (s *ThoughtService) SetAnalysis(ctx context.Context, userID, thoughtID string, analysis *models.CBTAnalysis, processedBy string) (*models.Thought, error) {
	oid, err := primitive.ObjectIDFromHex(thoughtID)
	if err != nil {
		return nil, ErrNotFound
	}

	result := s.collection.FindOneAndUpdate(ctx,
		bson.M{"_id": oid, "userId": userID},
		bson.M{"$set": bson.M{
			"analysis":    analysis,
			"processedBy": processedBy,
			"updatedAt":   time.Now().UnixMilli(),
		}},
		options.FindOneAndUpdate().SetReturnDocument(options.After))

	var thought models.Thought
	if err := result.Decode(&thought); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to set analysis: %w", err)
	}

	s.publishThought(ctx, &thought)
	return &thought, nil
}

// Delete removes a thought
func (s *ThoughtService) Delete(ctx context.Context, userID, thoughtID string) error {
	oid, err := primitive.ObjectIDFromHex(thoughtID)
	if err != nil {
		return ErrNotFound
	}

	result, err := s.collection.DeleteOne(ctx, bson.M{"_id": oid, "userId": userID})
	if err != nil {
		return fmt.Errorf("failed to delete thought: %w", err)
	}
	if result.DeletedCount == 0 {
		return ErrNotFound
	}

	s.publisher.PublishChange(ctx, userID, models.ChangeEvent{
		Collection: database.CollectionThoughts,
		DocID:      thoughtID,
		UpdatedAt:  time.Now().UnixMilli(),
		Deleted:    true,
	})
	return nil
}

// MigrateLegacyMetadata backfills dedicated provenance fields from the old
// scheme where records embedded a JSON object in the notes field. Safe to run
// repeatedly: already-migrated documents are skipped by the filter.
func (s *ThoughtService) MigrateLegacyMetadata(ctx context.Context) (int, error) {
	cursor, err := s.collection.Find(ctx, bson.M{
		"notes":           bson.M{"$regex": `^\s*\{`},
		"sourceThoughtId": bson.M{"$exists": false},
	})
	if err != nil {
		return 0, fmt.Errorf("failed to scan for legacy metadata: %w", err)
	}
	defer cursor.Close(ctx)

	migrated := 0
	for cursor.Next(ctx) {
		var thought models.Thought
		if err := cursor.Decode(&thought); err != nil {
			continue
		}

		meta, ok := models.ExtractNoteMetadata(thought.Notes)
		if !ok {
			continue
		}

		set := bson.M{}
		if meta.SourceThoughtID != "" {
			set["sourceThoughtId"] = meta.SourceThoughtID
		}
		if meta.ProcessedBy != "" {
			set["processedBy"] = meta.ProcessedBy
		}

		_, err := s.collection.UpdateByID(ctx, thought.ID, bson.M{
			"$set":   set,
			"$unset": bson.M{"notes": ""},
		})
		if err != nil {
			log.Printf("⚠️  Failed to migrate thought %s: %v", thought.ID.Hex(), err)
			continue
		}
		migrated++
	}

	if migrated > 0 {
		log.Printf("✅ Migrated legacy note metadata on %d thoughts", migrated)
	}
	return migrated, cursor.Err()
}

func (s *ThoughtService) publishThought(ctx context.Context, thought *models.Thought) {
	data, err := json.Marshal(thought)
	if err != nil {
		return
	}
	s.publisher.PublishChange(ctx, thought.UserID, models.ChangeEvent{
		Collection: database.CollectionThoughts,
		DocID:      thought.ID.Hex(),
		UpdatedAt:  thought.UpdatedAt,
		Data:       data,
	})
}
