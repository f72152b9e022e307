package handlers

import (
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"focusnotebook/internal/services"
)

// serialWriter records every write and flags any overlapping WriteJSON
// calls, which the websocket library forbids.
type serialWriter struct {
	mu       sync.Mutex
	inFlight int32
	overlap  int32
	wrote    []interface{}
}

func (w *serialWriter) WriteJSON(v interface{}) error {
	if atomic.AddInt32(&w.inFlight, 1) > 1 {
		atomic.StoreInt32(&w.overlap, 1)
	}
	time.Sleep(time.Millisecond)
	w.mu.Lock()
	w.wrote = append(w.wrote, v)
	w.mu.Unlock()
	atomic.AddInt32(&w.inFlight, -1)
	return nil
}

func (w *serialWriter) count() int {
	w.mu.Lock()
	defer w.mu.Unlock()
	return len(w.wrote)
}

func TestWriteLoopIsSoleWriter(t *testing.T) {
	svc := services.NewSyncService(nil, nil, nil)
	sess := svc.OpenSession("user-1")
	defer svc.CloseSession(sess.ID)

	h := NewSyncHandler(svc)
	writer := &serialWriter{}
	out := make(chan interface{}, 32)

	stopped := make(chan struct{})
	go func() {
		h.writeLoop(writer, sess, out)
		close(stopped)
	}()

	// Replies race in from several goroutines, the way acks, pongs and
	// errors do from the read loop under load
	const messages = 10
	var wg sync.WaitGroup
	for i := 0; i < messages; i++ {
		wg.Add(1)
		go func(n int) {
			defer wg.Done()
			h.enqueue(sess, out, ackMessage{Type: "ack", DocID: "doc", Applied: n%2 == 0})
		}(i)
	}
	wg.Wait()

	deadline := time.Now().Add(2 * time.Second)
	for writer.count() < messages {
		if time.Now().After(deadline) {
			t.Fatalf("wrote %d messages, want %d", writer.count(), messages)
		}
		time.Sleep(5 * time.Millisecond)
	}

	if atomic.LoadInt32(&writer.overlap) != 0 {
		t.Error("observed concurrent WriteJSON calls")
	}

	svc.CloseSession(sess.ID)
	select {
	case <-stopped:
	case <-time.After(2 * time.Second):
		t.Error("writeLoop did not exit after session close")
	}
}

func TestEnqueueDropsAfterSessionClose(t *testing.T) {
	svc := services.NewSyncService(nil, nil, nil)
	sess := svc.OpenSession("user-1")
	svc.CloseSession(sess.ID)

	h := NewSyncHandler(svc)
	out := make(chan interface{})

	done := make(chan struct{})
	go func() {
		// Unbuffered channel with no writer: must not block once the
		// session is closed
		h.enqueue(sess, out, ackMessage{Type: "ack", DocID: "doc"})
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("enqueue blocked on a closed session")
	}
}
