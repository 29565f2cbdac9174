package websocket

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"go.uber.org/zap"
)

type fakeConn struct {
	mu     sync.Mutex
	frames []Event
	fail   bool
	closed bool
}

func (f *fakeConn) WriteJSON(v interface{}) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.fail {
		return errors.New("broken pipe")
	}
	f.frames = append(f.frames, v.(Event))
	return nil
}

func (f *fakeConn) Close() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.closed = true
	return nil
}

func (f *fakeConn) received() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.frames)
}

func TestHubBroadcastsAndDropsBrokenClients(t *testing.T) {
	hub := NewHub(zap.NewNop())
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go hub.Run(ctx)

	good, bad := &fakeConn{}, &fakeConn{fail: true}
	hub.Register(good)
	hub.Register(bad)

	hub.Publish("new_order", map[string]string{"bookingId": "SDR1"})

	deadline := time.Now().Add(time.Second)
	for good.received() == 0 || hub.Clients() != 1 {
		if time.Now().After(deadline) {
			t.Fatalf("broadcast not delivered: good=%d clients=%d", good.received(), hub.Clients())
		}
		time.Sleep(5 * time.Millisecond)
	}
	good.mu.Lock()
	first := good.frames[0]
	good.mu.Unlock()
	if first.Type != "new_order" {
		t.Fatalf("unexpected frame %+v", first)
	}
	bad.mu.Lock()
	defer bad.mu.Unlock()
	if !bad.closed {
		t.Fatalf("failing client should be closed")
	}
}
