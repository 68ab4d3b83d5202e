package sse

import (
	"context"
	"path/filepath"
	"sync"
	"sync/atomic"

	"github.com/kbukum/framegraph/logger"
)

// clientBuffer bounds the events queued for one client.
const clientBuffer = 64

// Client is one connected subscriber.
type Client struct {
	id      string
	pattern string
	events  chan Event
	dropped atomic.Uint64
}

// NewClient creates a client receiving events whose type matches pattern.
// An empty pattern matches everything.
func NewClient(id, pattern string) *Client {
	if pattern == "" {
		pattern = "*"
	}
	return &Client{id: id, pattern: pattern, events: make(chan Event, clientBuffer)}
}

// ID returns the client's identifier.
func (c *Client) ID() string { return c.id }

// Pattern returns the event type pattern the client subscribed with.
func (c *Client) Pattern() string { return c.pattern }

// Events returns the channel the client reads from.
func (c *Client) Events() <-chan Event { return c.events }

// Dropped counts events lost because the client fell behind.
func (c *Client) Dropped() uint64 { return c.dropped.Load() }

// Wants reports whether the client subscribed to eventType.
func (c *Client) Wants(eventType string) bool {
	ok, err := filepath.Match(c.pattern, eventType)
	return err == nil && ok
}

// ValidPattern reports whether pattern is well-formed glob syntax.
func ValidPattern(pattern string) bool {
	_, err := filepath.Match(pattern, "")
	return err == nil
}

// Send queues e without blocking. It returns false when the queue is full.
func (c *Client) Send(e Event) bool {
	select {
	case c.events <- e:
		return true
	default:
		c.dropped.Add(1)
		return false
	}
}

func (c *Client) close() { close(c.events) }

// Hub owns the client set. Register, Unregister and Publish are safe from
// any goroutine; delivery happens on the goroutine running Run.
type Hub struct {
	log        *logger.Logger
	clients    map[string]*Client
	register   chan *Client
	unregister chan *Client
	broadcast  chan Event
	done       chan struct{}
	stopOnce   sync.Once

	mu      sync.RWMutex
	dropped atomic.Uint64
}

var _ Publisher = (*Hub)(nil)

// NewHub creates a hub. Nothing is delivered until Run is called.
func NewHub(log *logger.Logger) *Hub {
	if log == nil {
		log = logger.NewNop()
	}
	return &Hub{
		log:        log.WithComponent("sse"),
		clients:    make(map[string]*Client),
		register:   make(chan *Client),
		unregister: make(chan *Client),
		broadcast:  make(chan Event, 256),
		done:       make(chan struct{}),
	}
}

// Run delivers events until ctx is cancelled or Stop is called, then
// closes every client.
func (h *Hub) Run(ctx context.Context) {
	defer h.closeAll()
	for {
		select {
		case <-ctx.Done():
			return
		case <-h.done:
			return

		case c := <-h.register:
			h.mu.Lock()
			h.clients[c.id] = c
			n := len(h.clients)
			h.mu.Unlock()
			h.log.Debug("client registered", logger.Fields("client", c.id, "pattern", c.pattern, "clients", n))

		case c := <-h.unregister:
			h.mu.Lock()
			if cur, ok := h.clients[c.id]; ok && cur == c {
				delete(h.clients, c.id)
				c.close()
			}
			n := len(h.clients)
			h.mu.Unlock()
			h.log.Debug("client unregistered", logger.Fields("client", c.id, "clients", n))

		case e := <-h.broadcast:
			h.deliver(e)
		}
	}
}

// Stop ends Run. Safe to call more than once.
func (h *Hub) Stop() {
	h.stopOnce.Do(func() { close(h.done) })
}

// Register adds a client. It returns false if the hub stopped or ctx ended
// first.
func (h *Hub) Register(ctx context.Context, c *Client) bool {
	select {
	case h.register <- c:
		return true
	case <-h.done:
		return false
	case <-ctx.Done():
		return false
	}
}

// Unregister removes a client and closes its channel.
func (h *Hub) Unregister(c *Client) {
	select {
	case h.unregister <- c:
	case <-h.done:
	}
}

// Publish queues e for delivery without blocking. It returns false and
// counts a drop when the hub queue is full.
func (h *Hub) Publish(e Event) bool {
	select {
	case h.broadcast <- e:
		return true
	default:
		h.dropped.Add(1)
		return false
	}
}

// Dropped counts events the hub could not queue.
func (h *Hub) Dropped() uint64 { return h.dropped.Load() }

// ClientCount returns the number of connected clients.
func (h *Hub) ClientCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

func (h *Hub) deliver(e Event) {
	h.mu.RLock()
	defer h.mu.RUnlock()
	for _, c := range h.clients {
		if !c.Wants(e.Type) {
			continue
		}
		if !c.Send(e) {
			h.log.Warn("client queue full, dropping event", logger.Fields("client", c.id, "type", e.Type))
		}
	}
}

func (h *Hub) closeAll() {
	h.Stop()
	h.mu.Lock()
	defer h.mu.Unlock()
	for id, c := range h.clients {
		c.close()
		delete(h.clients, id)
	}
}
