package hub

import (
	"context"
	"encoding/json"
	"log/slog"
	"sync"
	"sync/atomic"

	"github.com/teslashibe/go-arview/internal/log"
)

// clientBuffer is the per-client queue length. A client that falls this far
// behind is dropped.
const clientBuffer = 256

// Hub tracks connected clients and broadcasts to them from a single goroutine.
type Hub struct {
	logger *slog.Logger

	clients map[*Client]struct{}
	history *backlog
	seq     uint64

	broadcast  chan []byte
	register   chan *Client
	unregister chan *Client
	done       chan struct{}

	// Guards clients and history for readers outside Run.
	mu sync.RWMutex

	running atomic.Bool
	dropped atomic.Uint64
}

// New creates a hub that replays up to replay recent messages to each new
// client. Zero disables replay.
func New(name string, replay int) *Hub {
	return &Hub{
		logger:     log.Component("hub").With("hub", name),
		clients:    make(map[*Client]struct{}),
		history:    newBacklog(min(replay, clientBuffer)),
		broadcast:  make(chan []byte, clientBuffer),
		register:   make(chan *Client),
		unregister: make(chan *Client),
		done:       make(chan struct{}),
	}
}

// Run is the hub's main loop. It returns when ctx is cancelled, after
// closing every client.
func (h *Hub) Run(ctx context.Context) {
	h.running.Store(true)
	defer func() {
		h.running.Store(false)
		close(h.done)
	}()

	for {
		select {
		case <-ctx.Done():
			h.mu.Lock()
			for c := range h.clients {
				h.remove(c)
			}
			h.mu.Unlock()
			return

		case c := <-h.register:
			h.mu.Lock()
			h.clients[c] = struct{}{}
			for _, m := range h.history.messages() {
				c.send <- m
			}
			count := len(h.clients)
			h.mu.Unlock()
			h.logger.Debug("client connected", "clients", count)

		case c := <-h.unregister:
			h.mu.Lock()
			if _, ok := h.clients[c]; ok {
				h.remove(c)
			}
			count := len(h.clients)
			h.mu.Unlock()
			h.logger.Debug("client disconnected", "clients", count)

		case data := <-h.broadcast:
			h.seq++
			m := Message{Seq: h.seq, Data: data}

			h.mu.Lock()
			h.history.add(m)
			for c := range h.clients {
				select {
				case c.send <- m:
				default:
					h.remove(c)
					h.dropped.Add(1)
					h.logger.Warn("dropped slow client", "seq", m.Seq)
				}
			}
			h.mu.Unlock()
		}
	}
}

// remove closes and forgets c. Callers hold mu.
func (h *Hub) remove(c *Client) {
	delete(h.clients, c)
	close(c.send)
}

// Broadcast queues pre-encoded JSON for all clients. It never blocks; when
// the queue is full the message is discarded.
func (h *Hub) Broadcast(data []byte) {
	select {
	case h.broadcast <- data:
	default:
		h.logger.Debug("broadcast queue full, dropping message")
	}
}

// BroadcastJSON encodes v and broadcasts it.
func (h *Hub) BroadcastJSON(v any) error {
	data, err := json.Marshal(v)
	if err != nil {
		return err
	}
	h.Broadcast(data)
	return nil
}

// ClientCount returns the number of connected clients.
func (h *Hub) ClientCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

// Dropped returns how many slow clients have been disconnected.
func (h *Hub) Dropped() uint64 {
	return h.dropped.Load()
}

// IsRunning reports whether Run is active.
func (h *Hub) IsRunning() bool {
	return h.running.Load()
}
