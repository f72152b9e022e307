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

// ErrNotFound is returned when a document does not exist or belongs to
// another user
var ErrNotFound = errors.New("not found")

// TaskService manages tasks and their recurrence bookkeeping
type TaskService struct {
	collection *mongo.Collection
	publisher  ChangePublisher
}

// NewTaskService creates a new task service
func NewTaskService(db *database.MongoDB, publisher ChangePublisher) *TaskService {
	if publisher == nil {
		publisher = nopPublisher{}
	}
	return &TaskService{
		collection: db.Collection(database.CollectionTasks),
		publisher:  publisher,
	}
}

// Create inserts a new task
func (s *TaskService) Create(ctx context.Context, userID string, req *models.CreateTaskRequest) (*models.Task, error) {
	if req.Title == "" {
		return nil, errors.New("title is required")
	}

	switch req.Recurrence {
	case models.RecurrenceNone, models.RecurrenceDaily, models.RecurrenceWorkweek, models.RecurrenceWeekly:
	default:
		return nil, fmt.Errorf("invalid recurrence: %q", req.Recurrence)
	}

	now := time.Now()
	task := &models.Task{
		ID:              primitive.NewObjectID(),
		UserID:          userID,
		Title:           req.Title,
		Notes:           req.Notes,
		DueDate:         req.DueDate,
		Recurrence:      req.Recurrence,
		SourceThoughtID: req.SourceThoughtID,
		CreatedAt:       now,
		UpdatedAt:       now.UnixMilli(),
	}

	if _, err := s.collection.InsertOne(ctx, task); err != nil {
		return nil, fmt.Errorf("failed to insert task: %w", err)
	}

	s.publishTask(ctx, task, false)
	return task, nil
}

// List returns all tasks for a user, most recently changed first
func (s *TaskService) List(ctx context.Context, userID string) ([]models.Task, error) {
	cursor, err := s.collection.Find(ctx,
		bson.M{"userId": userID},
		options.Find().SetSort(bson.D{{Key: "updatedAt", Value: -1}}))
	if err != nil {
		return nil, fmt.Errorf("failed to list tasks: %w", err)
	}
	defer cursor.Close(ctx)

	tasks := []models.Task{}
	if err := cursor.All(ctx, &tasks); err != nil {
		return nil, fmt.Errorf("failed to decode tasks: %w", err)
	}
	return tasks, nil
}

// Today returns the tasks relevant for the given reference date
func (s *TaskService) Today(ctx context.Context, userID string, ref time.Time) ([]models.Task, error) {
	tasks, err := s.List(ctx, userID)
	if err != nil {
		return nil, err
	}

	relevant := []models.Task{}
	for _, t := range tasks {
		if t.IsRelevantForToday(ref) {
			relevant = append(relevant, t)
		}
	}
	return relevant, nil
}

// Get returns a single task owned by the user
func (s *TaskService) Get(ctx context.Context, userID, taskID string) (*models.Task, error) {
	oid, err := primitive.ObjectIDFromHex(taskID)
	if err != nil {
		return nil, ErrNotFound
	}

	var task models.Task
	err = s.collection.FindOne(ctx, bson.M{"_id": oid, "userId": userID}).Decode(&task)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get task: %w", err)
	}
	return &task, nil
}

// Update applies a partial update to a task
func (s *TaskService) Update(ctx context.Context, userID, taskID string, req *models.UpdateTaskRequest) (*models.Task, error) {
	oid, err := primitive.ObjectIDFromHex(taskID)
	if err != nil {
		return nil, ErrNotFound
	}

	set := bson.M{"updatedAt": time.Now().UnixMilli()}
	if req.Title != nil {
		set["title"] = *req.Title
	}
	if req.Notes != nil {
		set["notes"] = *req.Notes
	}
	if req.DueDate != nil {
		set["dueDate"] = *req.DueDate
	}
	if req.Recurrence != nil {
		set["recurrence"] = *req.Recurrence
	}
	if req.Done != nil {
		set["done"] = *req.Done
		if *req.Done {
			set["completedAt"] = time.Now()
		}
	}

	result := s.collection.FindOneAndUpdate(ctx,
		bson.M{"_id": oid, "userId": userID},
		bson.M{"$set": set},
		options.FindOneAndUpdate().SetReturnDocument(options.After))

	var task models.Task
	if err := result.Decode(&task); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to update task: %w", err)
	}

	s.publishTask(ctx, &task, false)
	return &task, nil
}

// Complete marks a task done for the given day. Recurring tasks get a
// completion history entry; non-recurring tasks flip the done flag.
func (s *TaskService) Complete(ctx context.Context, userID, taskID string, day time.Time) (*models.Task, error) {
	task, err := s.Get(ctx, userID, taskID)
	if err != nil {
		return nil, err
	}

	now := time.Now()
	update := bson.M{
		"$set": bson.M{
			"updatedAt": now.UnixMilli(),
		},
	}

	if task.IsRecurring() {
		completion := models.TaskCompletion{
			Date:        models.DayUTC(day).Format("2006-01-02"),
			CompletedAt: now,
		}
		update["$push"] = bson.M{"completions": completion}
	} else {
		update["$set"].(bson.M)["done"] = true
		update["$set"].(bson.M)["completedAt"] = now
	}

	result := s.collection.FindOneAndUpdate(ctx,
		bson.M{"_id": task.ID, "userId": userID},
		update,
		options.FindOneAndUpdate().SetReturnDocument(options.After))

	var updated models.Task
	if err := result.Decode(&updated); err != nil {
		return nil, fmt.Errorf("failed to complete task: %w", err)
	}

	s.publishTask(ctx, &updated, false)
	return &updated, nil
}

// Delete removes a task
func (s *TaskService) Delete(ctx context.Context, userID, taskID string) error {
	oid, err := primitive.ObjectIDFromHex(taskID)
	if err != nil {
		return ErrNotFound
	}

	result, err := s.collection.DeleteOne(ctx, bson.M{"_id": oid, "userId": userID})
	if err != nil {
		return fmt.Errorf("failed to delete task: %w", err)
	}
	if result.DeletedCount == 0 {
		return ErrNotFound
	}

	s.publisher.PublishChange(ctx, userID, models.ChangeEvent{
		Collection: database.CollectionTasks,
		DocID:      taskID,
		UpdatedAt:  time.Now().UnixMilli(),
		Deleted:    true,
	})
	return nil
}

func (s *TaskService) publishTask(ctx context.Context, task *models.Task, deleted bool) {
	data, err := json.Marshal(task)
	if err != nil {
		return
	}
	s.publisher.PublishChange(ctx, task.UserID, models.ChangeEvent{
		Collection: database.CollectionTasks,
		DocID:      task.ID.Hex(),
		UpdatedAt:  task.UpdatedAt,
		Deleted:    deleted,
		Data:       data,
	})
}
