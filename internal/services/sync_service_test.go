package services

import (
	"testing"

	"focusnotebook/internal/models"
)

func int64p(v int64) *int64 { return &v }

func TestShouldApply(t *testing.T) {
	tests := []struct {
		name     string
		existing *int64
		incoming int64
		want     bool
	}{
		{"absent document always applies", nil, 1000, true},
		{"strictly newer applies", int64p(1000), 1001, true},
		{"equal timestamp keeps stored version", int64p(1000), 1000, false},
		{"older is rejected", int64p(1000), 999, false},
		{"zero against missing field applies nothing", int64p(0), 0, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := ShouldApply(tt.existing, tt.incoming); got != tt.want {
				t.Errorf("ShouldApply() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestIsSyncedCollection(t *testing.T) {
	for _, name := range models.SyncedCollections {
		if !isSyncedCollection(name) {
			t.Errorf("%q should be synced", name)
		}
	}

	for _, name := range []string{"users", "photo_votes", "llm_requests", ""} {
		if isSyncedCollection(name) {
			t.Errorf("%q should not be synced", name)
		}
	}
}

func TestSessionListenerDedup(t *testing.T) {
	sess := &SyncSession{
		listeners: make(map[string]bool),
		send:      make(chan models.SyncFrame, 4),
		done:      make(chan struct{}),
	}

	if sess.listensTo("tasks") {
		t.Error("fresh session should have no listeners")
	}

	sess.mu.Lock()
	sess.listeners["tasks"] = true
	sess.mu.Unlock()

	if !sess.listensTo("tasks") {
		t.Error("registered listener not found")
	}
	if sess.listensTo("goals") {
		t.Error("unregistered collection reported as listened")
	}
}

func TestSessionDeliverNonBlocking(t *testing.T) {
	sess := &SyncSession{
		listeners: make(map[string]bool),
		send:      make(chan models.SyncFrame, 1),
		done:      make(chan struct{}),
	}

	frame := models.SyncFrame{Type: "change"}
	sess.deliver(frame)
	// Buffer full: this must drop rather than block
	sess.deliver(frame)

	if len(sess.send) != 1 {
		t.Errorf("send buffer length = %d, want 1", len(sess.send))
	}
}

func TestCloseSessionIdempotent(t *testing.T) {
	svc := NewSyncService(nil, nil, nil)
	sess := svc.OpenSession("user-1")

	svc.CloseSession(sess.ID)
	// Second teardown must be a no-op, not a double close panic
	svc.CloseSession(sess.ID)

	select {
	case <-sess.Done():
	default:
		t.Error("session done channel should be closed")
	}
}

func TestDocIDValue(t *testing.T) {
	if _, ok := docIDValue("5f2a6c9e8b1d4c3a2e1f0a9b").(string); ok {
		t.Error("valid hex ObjectID should convert to ObjectID, not stay a string")
	}
	if _, ok := docIDValue("client-generated-id").(string); !ok {
		t.Error("non-hex ID should stay a string")
	}
}
