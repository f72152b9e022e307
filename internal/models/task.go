package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Task recurrence constants
const (
	RecurrenceNone     = ""
	RecurrenceDaily    = "daily"
	RecurrenceWorkweek = "workweek"
	RecurrenceWeekly   = "weekly"
)

// TaskCompletion records one completion of a recurring task
type TaskCompletion struct {
	Date        string    `bson:"date" json:"date"` // YYYY-MM-DD, UTC
	CompletedAt time.Time `bson:"completedAt" json:"completed_at"`
}

// Task represents a single task in the user's notebook
type Task struct {
	ID              primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	UserID          string             `bson:"userId" json:"user_id"`
	Title           string             `bson:"title" json:"title"`
	Notes           string             `bson:"notes,omitempty" json:"notes,omitempty"`
	DueDate         string             `bson:"dueDate,omitempty" json:"due_date,omitempty"` // YYYY-MM-DD or RFC3339
	Recurrence      string             `bson:"recurrence,omitempty" json:"recurrence,omitempty"`
	Done            bool               `bson:"done" json:"done"`
	CompletedAt     *time.Time         `bson:"completedAt,omitempty" json:"completed_at,omitempty"`
	Completions     []TaskCompletion   `bson:"completions,omitempty" json:"completions,omitempty"`
	SourceThoughtID string             `bson:"sourceThoughtId,omitempty" json:"source_thought_id,omitempty"`
	CreatedAt       time.Time          `bson:"createdAt" json:"created_at"`
	UpdatedAt       int64              `bson:"updatedAt" json:"updated_at"` // unix millis, sync merge key
}

// IsRecurring reports whether the task repeats
func (t *Task) IsRecurring() bool {
	switch t.Recurrence {
	case RecurrenceDaily, RecurrenceWorkweek, RecurrenceWeekly:
		return true
	default:
		return false
	}
}

// IsRelevantForToday decides whether the task belongs in the "today" view for
// the given reference date. Comparison happens at UTC midnight granularity.
// Malformed dates fail open: a task is never hidden because of a parse error.
func (t *Task) IsRelevantForToday(ref time.Time) bool {
	refDay := DayUTC(ref)

	switch t.Recurrence {
	case RecurrenceDaily, RecurrenceWorkweek:
		return !t.completedOn(refDay)
	case RecurrenceWeekly:
		last, ok := t.lastCompletion()
		if !ok {
			return true
		}
		return !SameWeek(last, refDay)
	}

	// Non-recurring: a finished task never resurfaces, and no due date
	// means always relevant.
	if t.Done {
		return false
	}
	if t.DueDate == "" {
		return true
	}
	due, ok := ParseDayUTC(t.DueDate)
	if !ok {
		return true
	}
	return !due.After(refDay)
}

// completedOn reports whether any completion record lands on the given UTC day,
// either by normalized date string or by completion timestamp.
func (t *Task) completedOn(day time.Time) bool {
	for _, c := range t.Completions {
		if d, ok := ParseDayUTC(c.Date); ok && d.Equal(day) {
			return true
		}
		if !c.CompletedAt.IsZero() && DayUTC(c.CompletedAt).Equal(day) {
			return true
		}
	}
	if t.Done && t.CompletedAt != nil && DayUTC(*t.CompletedAt).Equal(day) {
		return true
	}
	return false
}

// lastCompletion returns the most recent completion day, preferring the
// completion history and falling back to the single completion timestamp.
func (t *Task) lastCompletion() (time.Time, bool) {
	var last time.Time
	var found bool
	for _, c := range t.Completions {
		day, ok := ParseDayUTC(c.Date)
		if !ok && !c.CompletedAt.IsZero() {
			day, ok = DayUTC(c.CompletedAt), true
		}
		if ok && day.After(last) {
			last, found = day, true
		}
	}
	if found {
		return last, true
	}
	if t.CompletedAt != nil && !t.CompletedAt.IsZero() {
		return DayUTC(*t.CompletedAt), true
	}
	return time.Time{}, false
}

// CreateTaskRequest is the request body for creating a task
type CreateTaskRequest struct {
	Title           string `json:"title"`
	Notes           string `json:"notes,omitempty"`
	DueDate         string `json:"due_date,omitempty"`
	Recurrence      string `json:"recurrence,omitempty"`
	SourceThoughtID string `json:"source_thought_id,omitempty"`
}

// UpdateTaskRequest is the request body for a partial task update
type UpdateTaskRequest struct {
	Title      *string `json:"title,omitempty"`
	Notes      *string `json:"notes,omitempty"`
	DueDate    *string `json:"due_date,omitempty"`
	Recurrence *string `json:"recurrence,omitempty"`
	Done       *bool   `json:"done,omitempty"`
}
