package handlers

import (
	"context"
	"encoding/json"
	"log"
	"time"

	"focusnotebook/internal/models"
	"focusnotebook/internal/services"

	"github.com/gofiber/contrib/websocket"
	"github.com/gofiber/fiber/v2"
)

// SyncHandler exposes the live mirror over a websocket
type SyncHandler struct {
	syncService *services.SyncService
}

// NewSyncHandler creates a new sync handler
func NewSyncHandler(syncService *services.SyncService) *SyncHandler {
	return &SyncHandler{syncService: syncService}
}

// clientMessage is one inbound websocket frame. "listen" subscribes to a
// collection; "change" pushes an offline edit for merging.
type clientMessage struct {
	Type       string          `json:"type"`
	Collection string          `json:"collection"`
	DocID      string          `json:"doc_id,omitempty"`
	UpdatedAt  int64           `json:"updated_at,omitempty"`
	Deleted    bool            `json:"deleted,omitempty"`
	Data       json.RawMessage `json:"data,omitempty"`
}

// ackMessage confirms whether a pushed change was applied or lost to a
// newer server-side write
type ackMessage struct {
	Type    string `json:"type"`
	DocID   string `json:"doc_id"`
	Applied bool   `json:"applied"`
	Error   string `json:"error,omitempty"`
}

// jsonWriter is the outbound side of a websocket connection
type jsonWriter interface {
	WriteJSON(v interface{}) error
}

// Upgrade gates the websocket upgrade
// GET /ws/sync (middleware)
func (h *SyncHandler) Upgrade(c *fiber.Ctx) error {
	if websocket.IsWebSocketUpgrade(c) {
		return c.Next()
	}
	return fiber.ErrUpgradeRequired
}

// Handle runs one sync connection. The read loop processes listen and
// change messages; every outbound message goes through the writer
// goroutine, which is the connection's only writer.
// GET /ws/sync
func (h *SyncHandler) Handle() fiber.Handler {
	return websocket.New(func(conn *websocket.Conn) {
		userID, _ := conn.Locals("user_id").(string)
		if userID == "" {
			conn.WriteJSON(fiber.Map{"type": "error", "error": "unauthorized"})
			conn.Close()
			return
		}

		sess := h.syncService.OpenSession(userID)
		defer h.syncService.CloseSession(sess.ID)

		ctx, cancel := context.WithCancel(context.Background())
		defer cancel()

		out := make(chan interface{}, 16)
		go h.writeLoop(conn, sess, out)

		for {
			_, raw, err := conn.ReadMessage()
			if err != nil {
				return
			}

			var msg clientMessage
			if err := json.Unmarshal(raw, &msg); err != nil {
				h.enqueue(sess, out, fiber.Map{"type": "error", "error": "invalid message"})
				continue
			}

			switch msg.Type {
			case "listen":
				if err := h.syncService.Listen(ctx, sess, msg.Collection); err != nil {
					h.enqueue(sess, out, fiber.Map{"type": "error", "error": err.Error()})
				}
			case "change":
				h.handleChange(ctx, sess, out, userID, msg)
			case "ping":
				h.enqueue(sess, out, fiber.Map{"type": "pong", "sent_at_ms": time.Now().UnixMilli()})
			default:
				h.enqueue(sess, out, fiber.Map{"type": "error", "error": "unknown message type"})
			}
		}
	})
}

// enqueue hands a message to the writer goroutine. A full buffer drops the
// message rather than blocking the read loop; the connection is stalled and
// about to die anyway.
func (h *SyncHandler) enqueue(sess *services.SyncSession, out chan<- interface{}, msg interface{}) {
	select {
	case <-sess.Done():
	case out <- msg:
	default:
	}
}

// handleChange merges one client edit and acks the outcome
func (h *SyncHandler) handleChange(ctx context.Context, sess *services.SyncSession, out chan<- interface{}, userID string, msg clientMessage) {
	event := models.ChangeEvent{
		Collection: msg.Collection,
		DocID:      msg.DocID,
		UpdatedAt:  msg.UpdatedAt,
		Deleted:    msg.Deleted,
		Data:       msg.Data,
	}

	applied, err := h.syncService.MergeChange(ctx, userID, event)
	ack := ackMessage{Type: "ack", DocID: msg.DocID, Applied: applied}
	if err != nil {
		ack.Error = err.Error()
		log.Printf("⚠️  [SYNC] Merge failed for %s/%s: %v", msg.Collection, msg.DocID, err)
	}
	h.enqueue(sess, out, ack)
}

// writeLoop is the sole writer on the connection. It drains both the
// session's change frames and the read loop's replies until the session or
// socket closes.
func (h *SyncHandler) writeLoop(conn jsonWriter, sess *services.SyncSession, out <-chan interface{}) {
	for {
		select {
		case <-sess.Done():
			return
		case msg := <-out:
			if err := conn.WriteJSON(msg); err != nil {
				h.closeConn(conn)
				return
			}
		case frame, ok := <-sess.Frames():
			if !ok {
				return
			}
			if err := conn.WriteJSON(frame); err != nil {
				h.closeConn(conn)
				return
			}
		}
	}
}

func (h *SyncHandler) closeConn(conn jsonWriter) {
	if c, ok := conn.(*websocket.Conn); ok {
		c.Close()
	}
}
