package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Goal status constants
const (
	GoalStatusActive    = "active"
	GoalStatusCompleted = "completed"
	GoalStatusArchived  = "archived"
)

// Goal is a longer-horizon objective shown on the dashboard
type Goal struct {
	ID          primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	UserID      string             `bson:"userId" json:"user_id"`
	Title       string             `bson:"title" json:"title"`
	Notes       string             `bson:"notes,omitempty" json:"notes,omitempty"`
	Status      string             `bson:"status" json:"status"`
	CompletedAt *time.Time         `bson:"completedAt,omitempty" json:"completed_at,omitempty"`
	CreatedAt   time.Time          `bson:"createdAt" json:"created_at"`
	UpdatedAt   int64              `bson:"updatedAt" json:"updated_at"` // unix millis, sync merge key
}

// CompletedInWeekOf reports whether the goal was completed in the same
// Monday-start week as the reference date.
func (g *Goal) CompletedInWeekOf(ref time.Time) bool {
	if g.Status != GoalStatusCompleted || g.CompletedAt == nil {
		return false
	}
	return SameWeek(*g.CompletedAt, ref)
}

// CreateGoalRequest is the request body for creating a goal
type CreateGoalRequest struct {
	Title string `json:"title"`
	Notes string `json:"notes,omitempty"`
}

// WeeklyGoalStats is the dashboard analytics payload
type WeeklyGoalStats struct {
	WeekStart      time.Time `json:"week_start"`
	CompletedCount int       `json:"completed_count"`
	ActiveCount    int       `json:"active_count"`
}
