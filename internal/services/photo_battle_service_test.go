package services

import (
	"context"
	"testing"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

type memVoteMarkers struct {
	seen   map[string]bool
	marked []string
}

func (m *memVoteMarkers) Seen(ctx context.Context, sessionID string) bool {
	return m.seen[sessionID]
}

func (m *memVoteMarkers) Mark(ctx context.Context, sessionID string) {
	m.seen[sessionID] = true
	m.marked = append(m.marked, sessionID)
}

func TestVoteStatsSkipRecordedSession(t *testing.T) {
	markers := &memVoteMarkers{seen: map[string]bool{"sess-1": true}}

	// Collections stay nil: a recorded session must return before any
	// counter update is attempted
	s := &PhotoBattleService{markers: markers}
	s.applyVoteStats(context.Background(), "lib-1", "sess-1", primitive.NewObjectID(), primitive.NewObjectID())

	if len(markers.marked) != 0 {
		t.Errorf("marked sessions = %v, want none", markers.marked)
	}
}

func TestVoteMarkersWithoutRedis(t *testing.T) {
	m := redisVoteMarkers{}

	if m.Seen(context.Background(), "sess-1") {
		t.Error("Seen() without Redis = true, want false")
	}

	// Mark without Redis is a no-op and must not panic
	m.Mark(context.Background(), "sess-1")
}
