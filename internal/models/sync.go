package models

import "encoding/json"

// Synced collection names (the ones mirrored to clients)
var SyncedCollections = []string{"tasks", "goals", "thoughts", "subscriptions", "packing_lists"}

// ChangeEvent is one document change published on a user's sync channel
type ChangeEvent struct {
	Collection string          `json:"collection"`
	DocID      string          `json:"doc_id"`
	UpdatedAt  int64           `json:"updated_at"` // unix millis, last-write-wins key
	Deleted    bool            `json:"deleted,omitempty"`
	Data       json.RawMessage `json:"data,omitempty"`
}

// SnapshotMeta carries store-provided delivery flags on each sync frame
type SnapshotMeta struct {
	FromCache        bool `json:"from_cache"`
	HasPendingWrites bool `json:"has_pending_writes"`
}

// SyncFrame is one message delivered over the /ws/sync feed
type SyncFrame struct {
	Type     string        `json:"type"` // "change" or "snapshot"
	Meta     SnapshotMeta  `json:"meta"`
	Events   []ChangeEvent `json:"events"`
	SentAtMs int64         `json:"sent_at_ms"`
}
