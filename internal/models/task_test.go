package models

import (
	"testing"
	"time"
)

func day(s string) time.Time {
	t, ok := ParseDayUTC(s)
	if !ok {
		panic("bad test date: " + s)
	}
	return t
}

func TestTaskIsRelevantForToday_NonRecurring(t *testing.T) {
	ref := day("2026-03-10")

	tests := []struct {
		name string
		task Task
		want bool
	}{
		{
			name: "no due date is always relevant",
			task: Task{Recurrence: RecurrenceNone},
			want: true,
		},
		{
			name: "due today is relevant",
			task: Task{Recurrence: RecurrenceNone, DueDate: "2026-03-10"},
			want: true,
		},
		{
			name: "overdue is relevant",
			task: Task{Recurrence: RecurrenceNone, DueDate: "2026-03-01"},
			want: true,
		},
		{
			name: "due in the future is not relevant",
			task: Task{Recurrence: RecurrenceNone, DueDate: "2026-03-11"},
			want: false,
		},
		{
			name: "malformed due date fails open",
			task: Task{Recurrence: RecurrenceNone, DueDate: "next tuesday"},
			want: true,
		},
		{
			name: "completed non-recurring is not relevant",
			task: Task{Recurrence: RecurrenceNone, DueDate: "2026-03-01", Done: true},
			want: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.task.IsRelevantForToday(ref); got != tt.want {
				t.Errorf("IsRelevantForToday() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestTaskIsRelevantForToday_Daily(t *testing.T) {
	ref := day("2026-03-10")
	today := time.Date(2026, 3, 10, 9, 30, 0, 0, time.UTC)
	yesterday := today.AddDate(0, 0, -1)

	tests := []struct {
		name string
		task Task
		want bool
	}{
		{
			name: "never completed is relevant",
			task: Task{Recurrence: RecurrenceDaily},
			want: true,
		},
		{
			name: "completed today via history is not relevant",
			task: Task{
				Recurrence:  RecurrenceDaily,
				Completions: []TaskCompletion{{Date: "2026-03-10", CompletedAt: today}},
			},
			want: false,
		},
		{
			name: "completed yesterday is relevant again",
			task: Task{
				Recurrence:  RecurrenceDaily,
				Completions: []TaskCompletion{{Date: "2026-03-09", CompletedAt: yesterday}},
			},
			want: true,
		},
		{
			name: "legacy done flag with timestamp today is not relevant",
			task: Task{
				Recurrence:  RecurrenceDaily,
				Done:        true,
				CompletedAt: &today,
			},
			want: false,
		},
		{
			name: "legacy done flag with stale timestamp is relevant",
			task: Task{
				Recurrence:  RecurrenceDaily,
				Done:        true,
				CompletedAt: &yesterday,
			},
			want: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.task.IsRelevantForToday(ref); got != tt.want {
				t.Errorf("IsRelevantForToday() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestTaskIsRelevantForToday_Workweek(t *testing.T) {
	// Tuesday
	ref := day("2026-03-10")
	today := time.Date(2026, 3, 10, 9, 30, 0, 0, time.UTC)

	completedToday := Task{
		Recurrence:  RecurrenceWorkweek,
		Completions: []TaskCompletion{{Date: "2026-03-10", CompletedAt: today}},
	}
	if completedToday.IsRelevantForToday(ref) {
		t.Error("workweek task completed today should not be relevant")
	}

	// Workweek relevance ignores the day of week itself: a Saturday
	// reference date still surfaces the task if it was not completed
	// on that date.
	saturday := day("2026-03-14")
	fresh := Task{Recurrence: RecurrenceWorkweek}
	if !fresh.IsRelevantForToday(saturday) {
		t.Error("workweek task with no completion should be relevant on any reference day")
	}
}

func TestTaskIsRelevantForToday_Weekly(t *testing.T) {
	// 2026-03-09 is a Monday, so 2026-03-10 (Tue) through 2026-03-15 (Sun)
	// share a week with it.
	ref := day("2026-03-12")

	tests := []struct {
		name          string
		completedDate string
		want          bool
	}{
		{"completed monday of this week", "2026-03-09", false},
		{"completed earlier this week", "2026-03-10", false},
		{"completed sunday of last week", "2026-03-08", true},
		{"completed weeks ago", "2026-02-20", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			completed := day(tt.completedDate)
			task := Task{
				Recurrence:  RecurrenceWeekly,
				Completions: []TaskCompletion{{Date: tt.completedDate, CompletedAt: completed}},
			}
			if got := task.IsRelevantForToday(ref); got != tt.want {
				t.Errorf("IsRelevantForToday() = %v, want %v", got, tt.want)
			}
		})
	}

	t.Run("never completed weekly is relevant", func(t *testing.T) {
		task := Task{Recurrence: RecurrenceWeekly}
		if !task.IsRelevantForToday(ref) {
			t.Error("weekly task with no completion should be relevant")
		}
	})

	t.Run("malformed completion date fails open", func(t *testing.T) {
		task := Task{
			Recurrence:  RecurrenceWeekly,
			Completions: []TaskCompletion{{Date: "not-a-date"}},
		}
		if !task.IsRelevantForToday(ref) {
			t.Error("weekly task with unparseable completion should stay relevant")
		}
	})
}

func TestMondayOfWeek(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{"monday maps to itself", "2026-03-09", "2026-03-09"},
		{"wednesday maps back", "2026-03-11", "2026-03-09"},
		{"sunday maps to prior monday", "2026-03-15", "2026-03-09"},
		{"next monday starts a new week", "2026-03-16", "2026-03-16"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := MondayOfWeek(day(tt.in))
			if got.Format("2006-01-02") != tt.want {
				t.Errorf("MondayOfWeek(%s) = %s, want %s", tt.in, got.Format("2006-01-02"), tt.want)
			}
		})
	}
}

func TestSameWeek(t *testing.T) {
	if !SameWeek(day("2026-03-09"), day("2026-03-15")) {
		t.Error("monday and following sunday should share a week")
	}
	if SameWeek(day("2026-03-08"), day("2026-03-09")) {
		t.Error("sunday and following monday must not share a week")
	}
}
