// Package app wires capture, detection, association and presentation into the
// viewer's frame loop.
package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"gocv.io/x/gocv"

	"github.com/teslashibe/go-arview/internal/config"
	"github.com/teslashibe/go-arview/internal/log"
	"github.com/teslashibe/go-arview/pkg/camera"
	"github.com/teslashibe/go-arview/pkg/debug"
	"github.com/teslashibe/go-arview/pkg/marker"
	"github.com/teslashibe/go-arview/pkg/marker/aruco"
	"github.com/teslashibe/go-arview/pkg/objects"
	"github.com/teslashibe/go-arview/pkg/pose"
	"github.com/teslashibe/go-arview/pkg/render"
	"github.com/teslashibe/go-arview/pkg/session"
	"github.com/teslashibe/go-arview/pkg/tracking"
	"github.com/teslashibe/go-arview/pkg/web"
)

// ErrDetector is returned by Run and Step when marker detection fails.
var ErrDetector = errors.New("marker detection failed")

// WindowTitle is the title of the overlay window.
const WindowTitle = "arview"

// FrameSource delivers camera frames without blocking.
type FrameSource interface {
	Start()
	TryGetFrame() (gocv.Mat, bool)
	Size() (width, height int)
	Close() error
}

// Detector finds markers in a frame.
type Detector interface {
	Detect(img gocv.Mat, threshold int) ([]marker.Marker, error)
	Close() error
}

// Presenter draws the scene and reads keyboard input.
type Presenter interface {
	Prime()
	Present(frame gocv.Mat, items []render.Item) error
	PollKey(delayMs int) int
	CycleDrawMode() render.DrawMode
	Mode() render.DrawMode
	Close() error
}

// Publisher receives a snapshot after each processed frame.
type Publisher interface {
	Publish(snap *web.Snapshot)
	AddLog(logType, message string)
}

// Option overrides a component that Init would otherwise create.
type Option func(*App)

// WithSource uses src instead of opening the configured camera.
func WithSource(src FrameSource) Option {
	return func(a *App) { a.source = src }
}

// WithDetector uses d instead of an ArUco detector.
func WithDetector(d Detector) Option {
	return func(a *App) { a.detector = d }
}

// WithPresenter uses p instead of the gocv overlay.
func WithPresenter(p Presenter) Option {
	return func(a *App) { a.presenter = p }
}

// WithPublisher sends snapshots to p instead of the web server.
func WithPublisher(p Publisher) Option {
	return func(a *App) { a.publisher = p }
}

// App is the viewer. Create with New, then Init, Run and Shutdown.
type App struct {
	cfg    config.Config
	logger *slog.Logger

	session   *session.Session
	source    FrameSource
	cameraMgr *camera.Manager
	detector  Detector
	presenter Presenter
	publisher Publisher
	webServer *web.Server

	intrinsics pose.Intrinsics // as loaded, before scaling to the capture size
	estimator  *pose.PlanarEstimator
	engine     *tracking.Engine
	projector  *render.Projector
	models     *render.Models
	objects    []tracking.TrackedObject

	metrics *metrics
	fps     *FPSCounter
	frame   uint64
	actions chan session.Action
}

// New creates the application. Components passed as options are used as-is
// and not created by Init.
func New(cfg config.Config, opts ...Option) (*App, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	a := &App{
		cfg:     cfg,
		logger:  log.Component("app"),
		session: session.New(cfg.Session.Threshold, cfg.Session.Scale),
		fps:     NewFPSCounter(),
		actions: make(chan session.Action, 8),
	}
	for _, opt := range opts {
		opt(a)
	}
	return a, nil
}

// Session returns the interactive control state.
func (a *App) Session() *session.Session {
	return a.session
}

// Objects returns the tracked objects. Only safe to read while Run is not
// executing.
func (a *App) Objects() []tracking.TrackedObject {
	return a.objects
}

// Init opens the camera, loads intrinsics and objects, and creates the
// detector, overlay and web server.
func (a *App) Init() error {
	fmt.Println("🎯 arview - Marker-based AR viewer")
	fmt.Println("==================================")
	if debug.Enabled() {
		fmt.Println("🐛 Debug mode enabled")
	}

	if err := a.initCamera(); err != nil {
		return fmt.Errorf("camera: %w", err)
	}
	width, height := a.captureSize()
	fmt.Printf("📹 Camera image size (x,y) = (%d,%d)\n", width, height)

	if err := a.initPose(width, height); err != nil {
		return err
	}

	a.models = render.NewModels()
	objs, err := objects.Load(a.cfg.Objects, a.models)
	if err != nil {
		return fmt.Errorf("objects: %w", err)
	}
	a.objects = objs
	fmt.Printf("📦 Objectfile num = %d\n", len(a.objects))

	if a.detector == nil {
		det, err := aruco.New(a.cfg.Detector.Dictionary)
		if err != nil {
			return fmt.Errorf("detector: %w", err)
		}
		a.detector = det
	}

	a.projector = render.NewProjector(a.estimator.Camera, a.cfg.Render.ViewScale, a.cfg.Render.Near, a.cfg.Render.Far)
	if a.presenter == nil {
		a.presenter = render.NewOverlay(WindowTitle, a.cfg.Render.Window, a.projector, a.models)
	}
	a.presenter.Prime()

	if a.publisher == nil && a.cfg.Web.Enabled {
		a.webServer = web.NewServer(a.cfg.Web.Port, a.session, a.cameraMgr)
		a.webServer.CaptureSize = a.source.Size
		a.webServer.Controls().OnAction(a.queueAction)
		a.publisher = a.webServer
	}

	m, err := newMetrics()
	if err != nil {
		return fmt.Errorf("metrics: %w", err)
	}
	a.metrics = m
	if a.webServer != nil {
		a.webServer.Metrics = a.Metrics
	}

	return nil
}

// Metrics reports the current value of every frame-loop instrument.
func (a *App) Metrics(ctx context.Context) (map[string]float64, error) {
	if a.metrics == nil {
		return nil, errors.New("metrics not initialized")
	}
	return a.metrics.snapshot(ctx)
}

func (a *App) initCamera() error {
	if a.source != nil {
		return nil
	}

	preset, err := camera.LookupPreset(a.cfg.Camera.Preset)
	if err != nil {
		return err
	}
	camCfg := preset.Apply(camera.DefaultConfig())
	camCfg.Device = a.cfg.Camera.Device
	if a.cfg.Camera.Width > 0 {
		camCfg.Width = a.cfg.Camera.Width
	}
	if a.cfg.Camera.Height > 0 {
		camCfg.Height = a.cfg.Camera.Height
	}
	if a.cfg.Camera.Framerate > 0 {
		camCfg.Framerate = a.cfg.Camera.Framerate
	}
	if a.cfg.Camera.FOVDegrees > 0 {
		camCfg.FOVDegrees = a.cfg.Camera.FOVDegrees
	}
	if errs := camCfg.Validate(); len(errs) > 0 {
		return fmt.Errorf("invalid camera config: %v", errs)
	}

	src, err := camera.Open(camCfg)
	if err != nil {
		return err
	}
	a.source = src
	a.cameraMgr = camera.NewManager(camCfg)
	a.cameraMgr.OnConfigChange = src.Reconfigure
	return nil
}

// captureSize falls back to the configured size for devices that do not
// report one.
func (a *App) captureSize() (int, int) {
	w, h := a.source.Size()
	if w > 0 && h > 0 {
		return w, h
	}
	if a.cfg.Camera.Width > 0 && a.cfg.Camera.Height > 0 {
		return a.cfg.Camera.Width, a.cfg.Camera.Height
	}
	def := camera.DefaultConfig()
	return def.Width, def.Height
}

func (a *App) initPose(width, height int) error {
	if a.cfg.Intrinsics != "" {
		in, err := pose.LoadIntrinsics(a.cfg.Intrinsics)
		if err != nil {
			return fmt.Errorf("intrinsics: %w", err)
		}
		a.intrinsics = in
	} else {
		fov := a.cfg.Camera.FOVDegrees
		if fov <= 0 {
			fov = camera.DefaultConfig().FOVDegrees
		}
		a.intrinsics = pose.IntrinsicsFromFOV(width, height, fov)
	}
	scaled := a.intrinsics.Scaled(width, height)
	fmt.Printf("📐 Camera parameters: fx=%.1f fy=%.1f cx=%.1f cy=%.1f\n", scaled.Fx, scaled.Fy, scaled.Cx, scaled.Cy)

	tcfg, err := tracking.ConfigByName(a.cfg.Tracking.Preset)
	if err != nil {
		return fmt.Errorf("tracking: %w", err)
	}
	if a.cfg.Tracking.PoseSmoothing > 0 {
		tcfg.PoseSmoothing = a.cfg.Tracking.PoseSmoothing
	}
	if err := tcfg.Validate(); err != nil {
		return fmt.Errorf("tracking: %w", err)
	}

	a.estimator = pose.NewPlanarEstimator(scaled, tcfg.PoseSmoothing)
	a.engine = tracking.NewEngine(a.estimator)
	return nil
}

// Run drives the frame loop until ctx is cancelled, a quit key arrives or
// detection fails.
func (a *App) Run(ctx context.Context) error {
	a.source.Start()
	if a.webServer != nil {
		a.webServer.StartAsync(ctx)
		a.webServer.AddLog("info", "arview started")
	}

	fmt.Println("\n🎬 Running. Press ? in the window for help, q to quit.")
	fmt.Println("   (Ctrl+C to exit)")

	interval := max(a.cfg.Loop.MinInterval, time.Millisecond)
	var last time.Time
	for {
		select {
		case <-ctx.Done():
			return nil
		case act := <-a.actions:
			if a.doAction(act) {
				return nil
			}
			continue
		default:
		}

		if a.doAction(a.session.HandleKey(a.presenter.PollKey(1))) {
			return nil
		}

		// The throttle clock advances whether or not a frame arrives.
		if wait := interval - time.Since(last); wait > 0 {
			select {
			case <-ctx.Done():
				return nil
			case <-time.After(wait):
			}
			continue
		}
		last = time.Now()

		if _, err := a.Step(ctx); err != nil {
			return err
		}
	}
}

// Step processes at most one frame. It reports false when no new frame was
// available, in which case nothing changes.
func (a *App) Step(ctx context.Context) (bool, error) {
	frame, ok := a.source.TryGetFrame()
	if !ok {
		a.metrics.frameSkipped(ctx)
		return false, nil
	}
	defer frame.Close()

	a.follow(frame.Cols(), frame.Rows())

	controls := a.session.Controls()
	debug.SetDetection(controls.Debug)

	start := time.Now()
	markers, err := a.detector.Detect(frame, controls.Threshold)
	if err != nil {
		return false, fmt.Errorf("%w: %w", ErrDetector, err)
	}
	a.metrics.detected(ctx, a.cfg.Detector.Dictionary, len(markers), time.Since(start))

	transitions := a.engine.UpdateFrame(a.objects, markers)
	acquired := a.report(transitions)

	items := a.projector.Scene(a.objects, controls)
	if err := a.presenter.Present(frame, items); err != nil {
		a.logger.Warn("present frame", "error", err)
	}

	a.frame++
	a.fps.Tick()
	a.metrics.frameProcessed(ctx, acquired, tracking.CountVisible(a.objects))
	a.publish(controls, items)
	return true, nil
}

// follow rescales the intrinsics when the capture size changes at runtime.
func (a *App) follow(width, height int) {
	cur := a.estimator.Camera
	if width <= 0 || height <= 0 || (width == cur.Width && height == cur.Height) {
		return
	}
	in := a.intrinsics.Scaled(width, height)
	a.estimator.Camera = in
	a.projector.SetCamera(in)
	a.logger.Info("capture size changed", "width", width, "height", height)
}

// report forwards state changes to the event log and returns the number of
// acquisitions.
func (a *App) report(transitions []tracking.Transition) int {
	acquired := 0
	for i, t := range transitions {
		obj := &a.objects[i]
		var msg string
		switch t {
		case tracking.Acquire:
			acquired++
			msg = fmt.Sprintf("%s acquired (marker %d)", obj.Name, obj.ID)
		case tracking.Lose:
			msg = fmt.Sprintf("%s lost (marker %d)", obj.Name, obj.ID)
		default:
			continue
		}
		a.logger.Debug(msg)
		if a.publisher != nil {
			a.publisher.AddLog("track", msg)
		}
	}
	return acquired
}

func (a *App) publish(controls session.Controls, items []render.Item) {
	if a.publisher == nil {
		return
	}
	a.publisher.Publish(&web.Snapshot{
		SessionID: a.session.ID(),
		Frame:     a.frame,
		Time:      time.Now(),
		FPS:       a.fps.Rate(),
		DrawMode:  a.presenter.Mode().String(),
		Objects:   web.ObjectStates(a.objects),
		Items:     items,
		Controls:  controls,
	})
}

// queueAction hands a remote key action to the frame loop.
func (a *App) queueAction(act session.Action) {
	debug.Log("🎮 remote action %d\n", act)
	select {
	case a.actions <- act:
	default:
		a.logger.Warn("action dropped", "action", act)
	}
}

// doAction runs a loop-level action and reports whether to quit.
func (a *App) doAction(act session.Action) bool {
	switch act {
	case session.ActionQuit:
		return true
	case session.ActionCycleDrawMode:
		fmt.Printf("📷 Camera - %.1f (frame/sec)\n", a.fps.Rate())
		a.fps.Reset()
		fmt.Printf("🎨 Draw mode: %s\n", a.presenter.CycleDrawMode())
	case session.ActionHelp:
		fmt.Print(session.Help)
	}
	return false
}

// Shutdown releases the camera, detector, window and web server.
func (a *App) Shutdown() {
	fmt.Println("\n👋 Goodbye!")

	if a.webServer != nil {
		if err := a.webServer.Shutdown(); err != nil {
			a.logger.Warn("web shutdown", "error", err)
		}
	}
	if a.source != nil {
		a.source.Close()
	}
	if a.detector != nil {
		a.detector.Close()
	}
	if a.presenter != nil {
		a.presenter.Close()
	}
	if a.metrics != nil {
		if err := a.metrics.shutdown(context.Background()); err != nil {
			a.logger.Warn("metrics shutdown", "error", err)
		}
	}
}
