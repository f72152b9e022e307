package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"focusnotebook/internal/database"
	"focusnotebook/internal/models"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// GoalService manages goals and weekly progress stats
type GoalService struct {
	collection *mongo.Collection
	publisher  ChangePublisher
}

// NewGoalService creates a new goal service
func NewGoalService(db *database.MongoDB, publisher ChangePublisher) *GoalService {
	if publisher == nil {
		publisher = nopPublisher{}
	}
	return &GoalService{
		collection: db.Collection(database.CollectionGoals),
		publisher:  publisher,
	}
}

// Create inserts a new goal
func (s *GoalService) Create(ctx context.Context, userID string, req *models.CreateGoalRequest) (*models.Goal, error) {
	if req.Title == "" {
		return nil, errors.New("title is required")
	}

	now := time.Now()
	goal := &models.Goal{
		ID:        primitive.NewObjectID(),
		UserID:    userID,
		Title:     req.Title,
		Notes:     req.Notes,
		Status:    models.GoalStatusActive,
		CreatedAt: now,
		UpdatedAt: now.UnixMilli(),
	}

	if _, err := s.collection.InsertOne(ctx, goal); err != nil {
		return nil, fmt.Errorf("failed to insert goal: %w", err)
	}

	s.publishGoal(ctx, goal)
	return goal, nil
}

// List returns all goals for a user
func (s *GoalService) List(ctx context.Context, userID string) ([]models.Goal, error) {
	cursor, err := s.collection.Find(ctx,
		bson.M{"userId": userID},
		options.Find().SetSort(bson.D{{Key: "updatedAt", Value: -1}}))
	if err != nil {
		return nil, fmt.Errorf("failed to list goals: %w", err)
	}
	defer cursor.Close(ctx)

	goals := []models.Goal{}
	if err := cursor.All(ctx, &goals); err != nil {
		return nil, fmt.Errorf("failed to decode goals: %w", err)
	}
	return goals, nil
}

// SetStatus transitions a goal between active, completed and archived
func (s *GoalService) SetStatus(ctx context.Context, userID, goalID, status string) (*models.Goal, error) {
	switch status {
	case models.GoalStatusActive, models.GoalStatusCompleted, models.GoalStatusArchived:
	default:
		return nil, fmt.Errorf("invalid goal status: %q", status)
	}

	oid, err := primitive.ObjectIDFromHex(goalID)
	if err != nil {
		return nil, ErrNotFound
	}

	set := bson.M{
		"status":    status,
		"updatedAt": time.Now().UnixMilli(),
	}
	if status == models.GoalStatusCompleted {
		set["completedAt"] = time.Now()
	}

	result := s.collection.FindOneAndUpdate(ctx,
		bson.M{"_id": oid, "userId": userID},
		bson.M{"$set": set},
		options.FindOneAndUpdate().SetReturnDocument(options.After))

	var goal models.Goal
	if err := result.Decode(&goal); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to update goal: %w", err)
	}

	s.publishGoal(ctx, &goal)
	return &goal, nil
}

// Delete removes a goal
func (s *GoalService) Delete(ctx context.Context, userID, goalID string) error {
	oid, err := primitive.ObjectIDFromHex(goalID)
	if err != nil {
		return ErrNotFound
	}

	result, err := s.collection.DeleteOne(ctx, bson.M{"_id": oid, "userId": userID})
	if err != nil {
		return fmt.Errorf("failed to delete goal: %w", err)
	}
	if result.DeletedCount == 0 {
		return ErrNotFound
	}

	s.publisher.PublishChange(ctx, userID, models.ChangeEvent{
		Collection: database.CollectionGoals,
		DocID:      goalID,
		UpdatedAt:  time.Now().UnixMilli(),
		Deleted:    true,
	})
	return nil
}

// WeeklyStats returns goal progress for the week containing ref
func (s *GoalService) WeeklyStats(ctx context.Context, userID string, ref time.Time) (*models.WeeklyGoalStats, error) {
	goals, err := s.List(ctx, userID)
	if err != nil {
		return nil, err
	}

	stats := &models.WeeklyGoalStats{
		WeekStart: models.MondayOfWeek(ref),
	}
	for _, g := range goals {
		switch {
		case g.CompletedInWeekOf(ref):
			stats.CompletedCount++
		case g.Status == models.GoalStatusActive:
			stats.ActiveCount++
		}
	}
	return stats, nil
}

func (s *GoalService) publishGoal(ctx context.Context, goal *models.Goal) {
	data, err := json.Marshal(goal)
	if err != nil {
		return
	}
	s.publisher.PublishChange(ctx, goal.UserID, models.ChangeEvent{
		Collection: database.CollectionGoals,
		DocID:      goal.ID.Hex(),
		UpdatedAt:  goal.UpdatedAt,
		Data:       data,
	})
}
