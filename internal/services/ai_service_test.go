package services

import (
	"strings"
	"testing"

	"focusnotebook/internal/models"
)

func TestUnwrapCodeFence(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{
			name: "plain json passes through",
			in:   `{"actions":[]}`,
			want: `{"actions":[]}`,
		},
		{
			name: "fence with language tag",
			in:   "```json\n{\"actions\":[]}\n```",
			want: `{"actions":[]}`,
		},
		{
			name: "fence without language tag",
			in:   "```\n{\"actions\":[]}\n```",
			want: `{"actions":[]}`,
		},
		{
			name: "surrounding whitespace",
			in:   "  \n```json\n{\"a\":1}\n```\n  ",
			want: `{"a":1}`,
		},
		{
			name: "single line fence",
			in:   "```{\"a\":1}```",
			want: `{"a":1}`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := UnwrapCodeFence(tt.in); got != tt.want {
				t.Errorf("UnwrapCodeFence() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestParseActions(t *testing.T) {
	raw := "```json\n" + `{
		"actions": [
			{"type": "create_task", "title": "Book dentist", "due_date": "2026-04-01"},
			{"type": "add_tags", "tags": ["health"]},
			{"type": "set_analysis", "analysis": {"distortions": ["catastrophizing"], "reframe": "One missed call is not a crisis.", "intensity": 4}}
		]
	}` + "\n```"

	actions, err := ParseActions(raw)
	if err != nil {
		t.Fatalf("ParseActions() error = %v", err)
	}
	if len(actions) != 3 {
		t.Fatalf("got %d actions, want 3", len(actions))
	}

	if actions[0].Type != models.ActionCreateTask || actions[0].Title != "Book dentist" || actions[0].DueDate != "2026-04-01" {
		t.Errorf("unexpected create_task action: %+v", actions[0])
	}
	if actions[1].Type != models.ActionAddTags || len(actions[1].Tags) != 1 {
		t.Errorf("unexpected add_tags action: %+v", actions[1])
	}
	if actions[2].Analysis == nil || actions[2].Analysis.Intensity != 4 {
		t.Errorf("unexpected set_analysis action: %+v", actions[2])
	}
}

func TestParseActionsRejectsProse(t *testing.T) {
	if _, err := ParseActions("Sure! Here are some suggestions..."); err == nil {
		t.Error("expected error for non-JSON response")
	}
}

func TestParseActionsEmpty(t *testing.T) {
	actions, err := ParseActions(`{"actions":[]}`)
	if err != nil {
		t.Fatalf("ParseActions() error = %v", err)
	}
	if len(actions) != 0 {
		t.Errorf("got %d actions, want 0", len(actions))
	}
}

func TestRenderAnalysisHTML(t *testing.T) {
	analysis := &models.CBTAnalysis{
		Distortions: []string{"mind reading", "catastrophizing"},
		Reframe:     "The meeting went **fine**.",
		Intensity:   6,
	}

	html, err := RenderAnalysisHTML(analysis)
	if err != nil {
		t.Fatalf("RenderAnalysisHTML() error = %v", err)
	}

	for _, want := range []string{"<h2", "mind reading", "<strong>fine</strong>", "6/10"} {
		if !strings.Contains(html, want) {
			t.Errorf("rendered HTML missing %q:\n%s", want, html)
		}
	}
}

func TestRenderAnalysisHTMLNil(t *testing.T) {
	if _, err := RenderAnalysisHTML(nil); err == nil {
		t.Error("expected error for nil analysis")
	}
}
