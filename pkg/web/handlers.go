package web

import (
	"fmt"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/websocket/v2"

	"github.com/teslashibe/go-arview/pkg/camera"
	"github.com/teslashibe/go-arview/pkg/hub"
	"github.com/teslashibe/go-arview/pkg/session"
)

// Status is the response of GET /api/status.
type Status struct {
	SessionID   string  `json:"session_id"`
	Uptime      string  `json:"uptime"`
	Frame       uint64  `json:"frame"`
	FPS         float64 `json:"fps"`
	Objects     int     `json:"objects"`
	Visible     int     `json:"visible"`
	DrawMode    string  `json:"draw_mode,omitempty"`
	Width       int     `json:"width,omitempty"`
	Height      int     `json:"height,omitempty"`
	Viewers     int     `json:"viewers"`
	Dropped     uint64  `json:"dropped_viewers"`
	Controllers int     `json:"controllers"`
}

// handleStatus returns the viewer's current state
func (s *Server) handleStatus(c *fiber.Ctx) error {
	st := Status{
		SessionID:   s.session.ID(),
		Uptime:      time.Since(s.started).Round(time.Second).String(),
		Viewers:     s.sceneHub.ClientCount(),
		Dropped:     s.sceneHub.Dropped() + s.logHub.Dropped(),
		Controllers: s.controls.Count(),
	}
	if snap := s.Snapshot(); snap != nil {
		st.Frame = snap.Frame
		st.FPS = snap.FPS
		st.Objects = len(snap.Objects)
		st.Visible = snap.Visible()
		st.DrawMode = snap.DrawMode
	}
	if s.CaptureSize != nil {
		st.Width, st.Height = s.CaptureSize()
	}
	return c.JSON(st)
}

// handleObjects returns the tracked objects as of the last frame
func (s *Server) handleObjects(c *fiber.Ctx) error {
	snap := s.Snapshot()
	if snap == nil {
		return c.JSON([]ObjectState{})
	}
	return c.JSON(snap.Objects)
}

// handleScene returns the full latest snapshot
func (s *Server) handleScene(c *fiber.Ctx) error {
	snap := s.Snapshot()
	if snap == nil {
		return c.Status(fiber.StatusServiceUnavailable).JSON(fiber.Map{
			"error": "no frame processed yet",
		})
	}
	return c.JSON(snap)
}

func (s *Server) handleGetControls(c *fiber.Ctx) error {
	return c.JSON(s.session.Controls())
}

// handlePutControls applies a partial update; out-of-range values are clamped.
func (s *Server) handlePutControls(c *fiber.Ctx) error {
	var u session.ControlsUpdate
	if err := c.BodyParser(&u); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "invalid controls: " + err.Error(),
		})
	}
	controls := s.session.Apply(u)
	s.AddLog("control", "controls updated via API")
	return c.JSON(controls)
}

func (s *Server) handleGetCamera(c *fiber.Ctx) error {
	if s.camera == nil {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
			"error": "camera not configurable",
		})
	}
	resp := fiber.Map{
		"config":  s.camera.Config(),
		"presets": camera.Presets(),
	}
	if s.CaptureSize != nil {
		w, h := s.CaptureSize()
		resp["actual"] = fiber.Map{"width": w, "height": h}
	}
	return c.JSON(resp)
}

// handlePutCamera accepts {"preset": ..., "width": ..., "height": ..., "framerate": ...}.
func (s *Server) handlePutCamera(c *fiber.Ctx) error {
	if s.camera == nil {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
			"error": "camera not configurable",
		})
	}

	var u camera.Update
	if err := c.BodyParser(&u); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "invalid body: " + err.Error(),
		})
	}
	cfg, err := s.camera.Apply(u)
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": err.Error(),
		})
	}

	s.AddLog("control", fmt.Sprintf("camera set to %dx%d@%d", cfg.Width, cfg.Height, cfg.Framerate))
	return c.JSON(cfg)
}

func (s *Server) handleMetrics(c *fiber.Ctx) error {
	if s.Metrics == nil {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
			"error": "metrics not available",
		})
	}
	values, err := s.Metrics(c.UserContext())
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": err.Error(),
		})
	}
	return c.JSON(values)
}

// handleGetLogs returns recent log entries
func (s *Server) handleGetLogs(c *fiber.Ctx) error {
	s.logsMu.RLock()
	defer s.logsMu.RUnlock()
	return c.JSON(s.logs)
}

// handleHubWS attaches a websocket connection to a broadcast hub.
func (s *Server) handleHubWS(h *hub.Hub) func(*websocket.Conn) {
	return func(c *websocket.Conn) {
		hub.NewClient(h, c).Run()
	}
}
