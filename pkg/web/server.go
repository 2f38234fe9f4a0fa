// Package web provides the HTTP control and status API for the viewer.
package web

import (
	"context"
	"fmt"
	"log/slog"
	"net"
	"sync"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/websocket/v2"

	"github.com/teslashibe/go-arview/internal/log"
	"github.com/teslashibe/go-arview/pkg/camera"
	"github.com/teslashibe/go-arview/pkg/hub"
	"github.com/teslashibe/go-arview/pkg/session"
)

// LogEntry represents an event line for the dashboard
type LogEntry struct {
	Time    string `json:"time"`
	Type    string `json:"type"` // info, track, control, error
	Message string `json:"message"`
}

const (
	maxLogs   = 500
	logReplay = 50 // events replayed to a new /ws/logs client
)

// Server is the web API server
type Server struct {
	app     *fiber.App
	port    string
	started time.Time
	logger  *slog.Logger

	session  *session.Session
	camera   *camera.Manager
	controls *ControlHub

	snapshot   *Snapshot
	snapshotMu sync.RWMutex

	logs   []LogEntry
	logsMu sync.RWMutex

	// Hubs for websocket broadcast
	sceneHub *hub.Hub
	logHub   *hub.Hub

	// CaptureSize reports the actual camera frame size.
	CaptureSize func() (width, height int)

	// Metrics collects the frame-loop instruments for /api/metrics.
	Metrics func(ctx context.Context) (map[string]float64, error)
}

// NewServer creates the server. cam may be nil when the capture device is
// not runtime-configurable.
func NewServer(port string, sess *session.Session, cam *camera.Manager) *Server {
	s := &Server{
		port:     port,
		started:  time.Now(),
		logger:   log.Component("web"),
		session:  sess,
		camera:   cam,
		controls: NewControlHub(sess),
		logs:     make([]LogEntry, 0, maxLogs),
		sceneHub: hub.New("scene", 1),
		logHub:   hub.New("logs", logReplay),
	}

	app := fiber.New(fiber.Config{
		AppName:               "AR Viewer",
		DisableStartupMessage: true,
	})

	// CORS for local development
	app.Use(cors.New())

	// Static files
	app.Static("/", "./web")

	// API routes
	api := app.Group("/api")
	api.Get("/status", s.handleStatus)
	api.Get("/objects", s.handleObjects)
	api.Get("/scene", s.handleScene)
	api.Get("/controls", s.handleGetControls)
	api.Put("/controls", s.handlePutControls)
	api.Get("/camera", s.handleGetCamera)
	api.Put("/camera", s.handlePutCamera)
	api.Get("/logs", s.handleGetLogs)
	api.Get("/metrics", s.handleMetrics)
	api.Get("/controllers", s.controls.handleList)

	// WebSocket upgrade middleware
	app.Use("/ws", func(c *fiber.Ctx) error {
		if websocket.IsWebSocketUpgrade(c) {
			return c.Next()
		}
		return fiber.ErrUpgradeRequired
	})

	// WebSocket routes
	app.Get("/ws/scene", websocket.New(s.handleHubWS(s.sceneHub)))
	app.Get("/ws/logs", websocket.New(s.handleHubWS(s.logHub)))
	s.controls.RegisterRoutes(app)

	s.app = app
	return s
}

// App returns the underlying fiber app.
func (s *Server) App() *fiber.App {
	return s.app
}

// Controls returns the remote controller hub.
func (s *Server) Controls() *ControlHub {
	return s.controls
}

// Start runs the hubs and serves on the configured port until Shutdown.
func (s *Server) Start(ctx context.Context) error {
	ln, err := net.Listen("tcp", ":"+s.port)
	if err != nil {
		return fmt.Errorf("listen on port %s: %w", s.port, err)
	}
	return s.Serve(ctx, ln)
}

// Serve is Start with a caller-provided listener.
func (s *Server) Serve(ctx context.Context, ln net.Listener) error {
	fmt.Printf("🌐 Web API: http://%s\n", ln.Addr())

	go s.sceneHub.Run(ctx)
	go s.logHub.Run(ctx)

	return s.app.Listener(ln)
}

// StartAsync starts the web server in a goroutine
func (s *Server) StartAsync(ctx context.Context) {
	go func() {
		if err := s.Start(ctx); err != nil {
			s.logger.Error("web server stopped", "error", err)
		}
	}()
}

// Publish stores the latest snapshot and broadcasts it to scene clients.
func (s *Server) Publish(snap *Snapshot) {
	s.snapshotMu.Lock()
	s.snapshot = snap
	s.snapshotMu.Unlock()

	if err := s.sceneHub.BroadcastJSON(snap); err != nil {
		s.logger.Warn("encode snapshot", "error", err)
	}
}

// Snapshot returns the latest published snapshot, or nil.
func (s *Server) Snapshot() *Snapshot {
	s.snapshotMu.RLock()
	defer s.snapshotMu.RUnlock()
	return s.snapshot
}

// AddLog adds a log entry and broadcasts to clients
func (s *Server) AddLog(logType, message string) {
	entry := LogEntry{
		Time:    time.Now().Format("15:04:05"),
		Type:    logType,
		Message: message,
	}

	s.logsMu.Lock()
	s.logs = append(s.logs, entry)
	if len(s.logs) > maxLogs {
		s.logs = s.logs[1:]
	}
	s.logsMu.Unlock()

	s.logHub.BroadcastJSON(entry)
}

// Shutdown gracefully stops the web server
func (s *Server) Shutdown() error {
	return s.app.Shutdown()
}
