package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"sync"
	"time"

	"focusnotebook/internal/database"
	"focusnotebook/internal/models"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
)

// syncChannelPrefix namespaces per-user Redis channels
const syncChannelPrefix = "sync:user:"

// SyncSession is one client's live mirror connection
type SyncSession struct {
	ID     string
	UserID string

	mu        sync.Mutex
	listeners map[string]bool
	send      chan models.SyncFrame
	done      chan struct{}
	closeOnce sync.Once
}

// Frames returns the channel the transport drains to the client
func (sess *SyncSession) Frames() <-chan models.SyncFrame {
	return sess.send
}

// Done is closed when the session is torn down
func (sess *SyncSession) Done() <-chan struct{} {
	return sess.done
}

// listensTo reports whether the session registered a listener for the
// collection
func (sess *SyncSession) listensTo(collection string) bool {
	sess.mu.Lock()
	defer sess.mu.Unlock()
	return sess.listeners[collection]
}

// deliver queues a frame without blocking the publisher. A client that
// cannot keep up loses frames and will resnapshot on reconnect.
func (sess *SyncSession) deliver(frame models.SyncFrame) {
	select {
	case <-sess.done:
	case sess.send <- frame:
	default:
	}
}

// syncEnvelope is the cross-instance pub/sub wire format
type syncEnvelope struct {
	InstanceID string             `json:"instanceId"`
	UserID     string             `json:"userId"`
	Event      models.ChangeEvent `json:"event"`
}

// SyncService mirrors per-user collections to connected clients and merges
// their offline edits with last-write-wins semantics
type SyncService struct {
	db         *database.MongoDB
	redis      *RedisService
	metrics    *Metrics
	instanceID string

	mu       sync.RWMutex
	sessions map[string]*SyncSession

	ctx    context.Context
	cancel context.CancelFunc
	pubsub *redis.PubSub
}

// NewSyncService creates a new sync service
func NewSyncService(db *database.MongoDB, redisService *RedisService, metrics *Metrics) *SyncService {
	ctx, cancel := context.WithCancel(context.Background())
	return &SyncService{
		db:         db,
		redis:      redisService,
		metrics:    metrics,
		instanceID: uuid.NewString(),
		sessions:   make(map[string]*SyncSession),
		ctx:        ctx,
		cancel:     cancel,
	}
}

// Start begins listening for cross-instance change events
func (s *SyncService) Start() error {
	if s.redis == nil {
		log.Println("⚠️  [SYNC] Redis unavailable, running single-instance only")
		return nil
	}

	s.pubsub = s.redis.PSubscribe(s.ctx, syncChannelPrefix+"*")
	if _, err := s.pubsub.Receive(s.ctx); err != nil {
		return fmt.Errorf("failed to subscribe to sync channels: %w", err)
	}

	go s.processMessages()

	log.Printf("✅ [SYNC] Listening for change events (instance: %s)", s.instanceID)
	return nil
}

// Stop tears down all sessions and the pub/sub listener
func (s *SyncService) Stop() {
	s.cancel()
	if s.pubsub != nil {
		s.pubsub.Close()
	}

	s.mu.Lock()
	sessions := make([]*SyncSession, 0, len(s.sessions))
	for _, sess := range s.sessions {
		sessions = append(sessions, sess)
	}
	s.mu.Unlock()

	for _, sess := range sessions {
		s.CloseSession(sess.ID)
	}
}

func (s *SyncService) processMessages() {
	ch := s.pubsub.Channel()
	for {
		select {
		case <-s.ctx.Done():
			return
		case msg, ok := <-ch:
			if !ok {
				return
			}

			var envelope syncEnvelope
			if err := json.Unmarshal([]byte(msg.Payload), &envelope); err != nil {
				log.Printf("⚠️  [SYNC] Failed to unmarshal change event: %v", err)
				continue
			}

			// Events from this instance were already dispatched locally
			if envelope.InstanceID == s.instanceID {
				continue
			}

			s.dispatch(envelope.UserID, envelope.Event)
		}
	}
}

// OpenSession registers a new client connection
func (s *SyncService) OpenSession(userID string) *SyncSession {
	sess := &SyncSession{
		ID:        uuid.NewString(),
		UserID:    userID,
		listeners: make(map[string]bool),
		send:      make(chan models.SyncFrame, 64),
		done:      make(chan struct{}),
	}

	s.mu.Lock()
	s.sessions[sess.ID] = sess
	s.mu.Unlock()

	if s.metrics != nil {
		s.metrics.RecordSyncConnect()
	}
	return sess
}

// CloseSession tears down a session. Safe to call more than once; repeat
// calls are no-ops.
func (s *SyncService) CloseSession(sessionID string) {
	s.mu.Lock()
	sess, ok := s.sessions[sessionID]
	delete(s.sessions, sessionID)
	s.mu.Unlock()

	if !ok {
		return
	}

	sess.closeOnce.Do(func() {
		close(sess.done)
		if s.metrics != nil {
			s.metrics.RecordSyncDisconnect()
		}
	})
}

// Listen registers a collection listener on a session. Registering the same
// collection twice is a no-op; the initial snapshot is sent exactly once.
func (s *SyncService) Listen(ctx context.Context, sess *SyncSession, collection string) error {
	if !isSyncedCollection(collection) {
		return fmt.Errorf("collection %q is not synced", collection)
	}

	sess.mu.Lock()
	already := sess.listeners[collection]
	sess.listeners[collection] = true
	sess.mu.Unlock()

	if already {
		return nil
	}

	frame, err := s.Snapshot(ctx, sess.UserID, collection)
	if err != nil {
		return err
	}
	sess.deliver(*frame)
	return nil
}

func isSyncedCollection(name string) bool {
	for _, c := range models.SyncedCollections {
		if c == name {
			return true
		}
	}
	return false
}

// Snapshot builds the initial full-collection frame for a listener
func (s *SyncService) Snapshot(ctx context.Context, userID, collection string) (*models.SyncFrame, error) {
	cursor, err := s.db.Collection(collection).Find(ctx, bson.M{"userId": userID})
	if err != nil {
		return nil, fmt.Errorf("failed to snapshot %s: %w", collection, err)
	}
	defer cursor.Close(ctx)

	events := []models.ChangeEvent{}
	for cursor.Next(ctx) {
		var doc bson.M
		if err := cursor.Decode(&doc); err != nil {
			continue
		}

		event, err := eventFromDoc(collection, doc)
		if err != nil {
			continue
		}
		events = append(events, *event)
	}
	if err := cursor.Err(); err != nil {
		return nil, fmt.Errorf("snapshot cursor failed: %w", err)
	}

	return &models.SyncFrame{
		Type:     "snapshot",
		Meta:     models.SnapshotMeta{FromCache: false, HasPendingWrites: false},
		Events:   events,
		SentAtMs: time.Now().UnixMilli(),
	}, nil
}

func eventFromDoc(collection string, doc bson.M) (*models.ChangeEvent, error) {
	var docID string
	switch id := doc["_id"].(type) {
	case primitive.ObjectID:
		docID = id.Hex()
	case string:
		docID = id
	default:
		return nil, errors.New("unsupported _id type")
	}

	var updatedAt int64
	switch v := doc["updatedAt"].(type) {
	case int64:
		updatedAt = v
	case int32:
		updatedAt = int64(v)
	case float64:
		updatedAt = int64(v)
	}

	data, err := json.Marshal(doc)
	if err != nil {
		return nil, err
	}

	return &models.ChangeEvent{
		Collection: collection,
		DocID:      docID,
		UpdatedAt:  updatedAt,
		Data:       data,
	}, nil
}

// ShouldApply is the last-write-wins merge decision: an incoming change
// applies when the document is absent or the incoming timestamp is strictly
// newer. Equal timestamps keep the stored version.
func ShouldApply(existing *int64, incoming int64) bool {
	return existing == nil || incoming > *existing
}

// MergeChange applies one client-submitted change with last-write-wins
// semantics. Returns whether the change was applied.
func (s *SyncService) MergeChange(ctx context.Context, userID string, event models.ChangeEvent) (bool, error) {
	if !isSyncedCollection(event.Collection) {
		return false, fmt.Errorf("collection %q is not synced", event.Collection)
	}
	if event.DocID == "" {
		return false, errors.New("doc_id is required")
	}

	collection := s.db.Collection(event.Collection)
	idFilter := docIDFilter(event.DocID)
	idFilter["userId"] = userID

	existing := existingUpdatedAt(ctx, collection, idFilter)
	if !ShouldApply(existing, event.UpdatedAt) {
		return false, nil
	}

	if s.metrics != nil {
		s.metrics.RecordSyncEvent(event.Collection, "inbound")
	}

	if event.Deleted {
		if _, err := collection.DeleteOne(ctx, idFilter); err != nil {
			return false, fmt.Errorf("failed to apply delete: %w", err)
		}
		s.PublishChange(ctx, userID, event)
		return true, nil
	}

	var doc bson.M
	if err := json.Unmarshal(event.Data, &doc); err != nil {
		return false, fmt.Errorf("change data is not a document: %w", err)
	}

	// Server-side fields win over whatever the client serialized
	delete(doc, "_id")
	doc["userId"] = userID
	doc["updatedAt"] = event.UpdatedAt

	if existing == nil {
		doc["_id"] = docIDValue(event.DocID)
		if _, err := collection.InsertOne(ctx, doc); err != nil {
			if mongo.IsDuplicateKeyError(err) {
				// Lost a race with a concurrent merge; the other write wins
				return false, nil
			}
			return false, fmt.Errorf("failed to insert merged document: %w", err)
		}
	} else {
		// Guard repeats the timestamp check so concurrent merges cannot
		// apply out of order.
		filter := bson.M{
			"userId":    userID,
			"updatedAt": bson.M{"$lt": event.UpdatedAt},
		}
		for k, v := range docIDFilter(event.DocID) {
			filter[k] = v
		}
		result, err := collection.ReplaceOne(ctx, filter, doc)
		if err != nil {
			return false, fmt.Errorf("failed to replace merged document: %w", err)
		}
		if result.MatchedCount == 0 {
			return false, nil
		}
	}

	s.PublishChange(ctx, userID, event)
	return true, nil
}

func docIDFilter(docID string) bson.M {
	return bson.M{"_id": docIDValue(docID)}
}

// docIDValue maps a wire document ID onto its stored form. Server-created
// documents use ObjectIDs; client-generated ones may be plain strings.
func docIDValue(docID string) interface{} {
	if oid, err := primitive.ObjectIDFromHex(docID); err == nil {
		return oid
	}
	return docID
}

func existingUpdatedAt(ctx context.Context, collection *mongo.Collection, filter bson.M) *int64 {
	var doc struct {
		UpdatedAt *int64 `bson:"updatedAt"`
	}
	err := collection.FindOne(ctx, filter).Decode(&doc)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil
	}
	if err != nil {
		return nil
	}
	if doc.UpdatedAt == nil {
		zero := int64(0)
		return &zero
	}
	return doc.UpdatedAt
}

// PublishChange fans a change out to local sessions and other instances
func (s *SyncService) PublishChange(ctx context.Context, userID string, event models.ChangeEvent) {
	s.dispatch(userID, event)

	if s.redis == nil {
		return
	}

	payload, err := json.Marshal(syncEnvelope{
		InstanceID: s.instanceID,
		UserID:     userID,
		Event:      event,
	})
	if err != nil {
		return
	}
	if err := s.redis.Publish(ctx, syncChannelPrefix+userID, payload); err != nil {
		log.Printf("⚠️  [SYNC] Failed to publish change event: %v", err)
	}
}

// dispatch delivers a change to this instance's sessions for the user
func (s *SyncService) dispatch(userID string, event models.ChangeEvent) {
	frame := models.SyncFrame{
		Type:     "change",
		Meta:     models.SnapshotMeta{FromCache: false, HasPendingWrites: false},
		Events:   []models.ChangeEvent{event},
		SentAtMs: time.Now().UnixMilli(),
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	for _, sess := range s.sessions {
		if sess.UserID != userID || !sess.listensTo(event.Collection) {
			continue
		}
		sess.deliver(frame)
		if s.metrics != nil {
			s.metrics.RecordSyncEvent(event.Collection, "outbound")
		}
	}
}
