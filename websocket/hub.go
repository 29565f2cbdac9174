package websocket

import (
	"context"
	"sync"

	"github.com/gofiber/contrib/websocket"
	"go.uber.org/zap"
)

// Event is the frame pushed to connected admin dashboards.
type Event struct {
	Type string      `json:"type"`
	Data interface{} `json:"data"`
}

// Conn is the part of a websocket connection the hub writes to.
type Conn interface {
	WriteJSON(v interface{}) error
	Close() error
}

var _ Conn = (*websocket.Conn)(nil)

type Hub struct {
	register   chan Conn
	unregister chan Conn
	broadcast  chan Event
	done       chan struct{}

	mu      sync.RWMutex
	clients map[Conn]struct{}
	log     *zap.Logger
}

func NewHub(log *zap.Logger) *Hub {
	return &Hub{
		register:   make(chan Conn),
		unregister: make(chan Conn),
		broadcast:  make(chan Event, 64),
		done:       make(chan struct{}),
		clients:    make(map[Conn]struct{}),
		log:        log,
	}
}

func (h *Hub) Register(c Conn) {
	select {
	case h.register <- c:
	case <-h.done:
		c.Close()
	}
}

func (h *Hub) Unregister(c Conn) {
	select {
	case h.unregister <- c:
	case <-h.done:
	}
}

// Publish never blocks the caller; events are dropped while the buffer is full.
func (h *Hub) Publish(eventType string, data interface{}) {
	select {
	case h.broadcast <- Event{Type: eventType, Data: data}:
	default:
		h.log.Warn("Admin hub buffer full, dropping event", zap.String("type", eventType))
	}
}

func (h *Hub) Clients() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

func (h *Hub) Run(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			close(h.done)
			h.mu.Lock()
			for c := range h.clients {
				c.Close()
				delete(h.clients, c)
			}
			h.mu.Unlock()
			return
		case c := <-h.register:
			h.mu.Lock()
			h.clients[c] = struct{}{}
			h.mu.Unlock()
			h.log.Debug("Admin client registered", zap.Int("clients", h.Clients()))
		case c := <-h.unregister:
			h.mu.Lock()
			if _, ok := h.clients[c]; ok {
				delete(h.clients, c)
				c.Close()
			}
			h.mu.Unlock()
		case event := <-h.broadcast:
			h.mu.Lock()
			for c := range h.clients {
				if err := c.WriteJSON(event); err != nil {
					h.log.Warn("Dropping admin client after write failure", zap.Error(err))
					c.Close()
					delete(h.clients, c)
				}
			}
			h.mu.Unlock()
		}
	}
}
