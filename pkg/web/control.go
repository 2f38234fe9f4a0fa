package web

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"sort"
	"sync"
	"sync/atomic"
	"time"

	"github.com/gofiber/contrib/websocket"
	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"

	"github.com/teslashibe/go-arview/internal/log"
	"github.com/teslashibe/go-arview/pkg/session"
)

// Control message types
const (
	TypeControls = "controls"
	TypeKey      = "key"
	TypePing     = "ping"
	TypePong     = "pong"
	TypeError    = "error"
)

// ControlMessage is exchanged with remote controllers on /ws/control.
//
//	→ {"type":"controls","data":{"scale":80}}
//	→ {"type":"key","key":"]"}
//	← {"type":"controls","data":{...current controls...}}
type ControlMessage struct {
	Type  string          `json:"type"`
	Key   string          `json:"key,omitempty"`
	Data  json.RawMessage `json:"data,omitempty"`
	Error string          `json:"error,omitempty"`
}

var namedKeys = map[string]int{
	"esc":   session.KeyEsc,
	"left":  session.KeyLeft,
	"right": session.KeyRight,
	"up":    session.KeyUp,
	"down":  session.KeyDown,
}

// ParseKey converts a key name or single character to a key code.
func ParseKey(name string) (int, error) {
	if code, ok := namedKeys[name]; ok {
		return code, nil
	}
	r := []rune(name)
	if len(r) != 1 {
		return 0, fmt.Errorf("unknown key %q", name)
	}
	return int(r[0]), nil
}

// Controller is a connected remote control client.
type Controller struct {
	ID        string    `json:"id"`
	Connected time.Time `json:"connected"`
	LastSeen  time.Time `json:"last_seen"`

	conn *websocket.Conn
	mu   sync.Mutex
}

func (r *Controller) send(msg ControlMessage) error {
	data, err := json.Marshal(msg)
	if err != nil {
		return err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.conn.WriteMessage(websocket.TextMessage, data)
}

// ControlStats summarizes controller traffic.
type ControlStats struct {
	Controllers      int    `json:"controllers"`
	MessagesReceived uint64 `json:"messages_received"`
	MessagesSent     uint64 `json:"messages_sent"`
}

// ControlHub accepts remote controllers that drive the session over websocket.
type ControlHub struct {
	session *session.Session
	logger  *slog.Logger

	mu          sync.RWMutex
	controllers map[string]*Controller
	onAction    func(session.Action)

	messagesReceived atomic.Uint64
	messagesSent     atomic.Uint64
}

// NewControlHub creates a hub driving sess.
func NewControlHub(sess *session.Session) *ControlHub {
	return &ControlHub{
		session:     sess,
		logger:      log.Component("control"),
		controllers: make(map[string]*Controller),
	}
}

// OnAction sets the callback for key actions the session does not handle
// itself (quit, draw mode, help).
func (h *ControlHub) OnAction(callback func(session.Action)) {
	h.mu.Lock()
	h.onAction = callback
	h.mu.Unlock()
}

// RegisterRoutes registers the controller endpoint.
func (h *ControlHub) RegisterRoutes(app fiber.Router) {
	app.Get("/ws/control", websocket.New(h.handleController))
	app.Get("/ws/control/:id", websocket.New(h.handleController))
}

// Count returns the number of connected controllers.
func (h *ControlHub) Count() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.controllers)
}

// Stats returns traffic counters.
func (h *ControlHub) Stats() ControlStats {
	return ControlStats{
		Controllers:      h.Count(),
		MessagesReceived: h.messagesReceived.Load(),
		MessagesSent:     h.messagesSent.Load(),
	}
}

func (h *ControlHub) handleList(c *fiber.Ctx) error {
	h.mu.RLock()
	list := make([]Controller, 0, len(h.controllers))
	for _, r := range h.controllers {
		r.mu.Lock()
		list = append(list, Controller{ID: r.ID, Connected: r.Connected, LastSeen: r.LastSeen})
		r.mu.Unlock()
	}
	h.mu.RUnlock()

	sort.Slice(list, func(i, j int) bool { return list[i].ID < list[j].ID })
	return c.JSON(fiber.Map{
		"controllers": list,
		"stats":       h.Stats(),
	})
}

func (h *ControlHub) handleController(c *websocket.Conn) {
	id := c.Params("id")
	if id == "" {
		id = uuid.NewString()[:8]
	}

	ctl := &Controller{
		ID:        id,
		Connected: time.Now(),
		LastSeen:  time.Now(),
		conn:      c,
	}

	h.mu.Lock()
	h.controllers[id] = ctl
	count := len(h.controllers)
	h.mu.Unlock()
	h.logger.Info("controller connected", "id", id, "controllers", count)

	defer func() {
		h.mu.Lock()
		if h.controllers[id] == ctl {
			delete(h.controllers, id)
		}
		count := len(h.controllers)
		h.mu.Unlock()
		h.logger.Info("controller disconnected", "id", id, "controllers", count)
	}()

	for {
		_, data, err := c.ReadMessage()
		if err != nil {
			return
		}

		ctl.mu.Lock()
		ctl.LastSeen = time.Now()
		ctl.mu.Unlock()
		h.messagesReceived.Add(1)

		reply := h.handleMessage(data)
		if err := ctl.send(reply); err != nil {
			h.logger.Warn("controller write failed", "id", id, "error", err)
			return
		}
		h.messagesSent.Add(1)
	}
}

// handleMessage applies one controller message and returns the reply.
func (h *ControlHub) handleMessage(data []byte) ControlMessage {
	var msg ControlMessage
	if err := json.Unmarshal(data, &msg); err != nil {
		return errorMessage(fmt.Errorf("invalid message: %w", err))
	}

	switch msg.Type {
	case TypePing:
		return ControlMessage{Type: TypePong}

	case TypeControls:
		var u session.ControlsUpdate
		if len(msg.Data) > 0 {
			if err := json.Unmarshal(msg.Data, &u); err != nil {
				return errorMessage(fmt.Errorf("invalid controls: %w", err))
			}
		}
		return controlsMessage(h.session.Apply(u))

	case TypeKey:
		key, err := ParseKey(msg.Key)
		if err != nil {
			return errorMessage(err)
		}
		if action := h.session.HandleKey(key); action != session.ActionNone {
			h.mu.RLock()
			cb := h.onAction
			h.mu.RUnlock()
			if cb != nil {
				cb(action)
			}
		}
		return controlsMessage(h.session.Controls())

	default:
		return errorMessage(fmt.Errorf("unknown message type %q", msg.Type))
	}
}

func controlsMessage(c session.Controls) ControlMessage {
	data, _ := json.Marshal(c)
	return ControlMessage{Type: TypeControls, Data: data}
}

func errorMessage(err error) ControlMessage {
	return ControlMessage{Type: TypeError, Error: err.Error()}
}
