package render

import (
	"errors"
	"image"
	"image/color"
	"log/slog"

	"gocv.io/x/gocv"

	"github.com/golang/geo/r2"
	"github.com/golang/geo/r3"

	"github.com/teslashibe/go-arview/internal/log"
)

var axisColors = [3]color.RGBA{
	{R: 255, A: 255},
	{G: 255, A: 255},
	{B: 255, A: 255},
}

// Overlay draws scene items over camera frames and shows them in a window.
// With no window it still draws, which keeps Present usable headless.
type Overlay struct {
	window *gocv.Window
	proj   *Projector
	models *Models
	mode   DrawMode
	logger *slog.Logger
}

// NewOverlay creates an overlay. When showWindow is false nothing is displayed
// and PollKey always returns -1.
func NewOverlay(title string, showWindow bool, proj *Projector, models *Models) *Overlay {
	o := &Overlay{
		proj:   proj,
		models: models,
		mode:   DrawWireframe,
		logger: log.Component("render"),
	}
	if showWindow {
		o.window = gocv.NewWindow(title)
	}
	return o
}

// Prime draws every resolved model once onto a blank canvas.
func (o *Overlay) Prime() {
	n := o.models.Len()
	if n == 0 {
		return
	}
	o.logger.Info("Pre-rendering models", "count", n)

	canvas := gocv.NewMatWithSize(o.proj.Camera.Height, o.proj.Camera.Width, gocv.MatTypeCV8UC3)
	defer canvas.Close()

	// A model one metre in front of the camera.
	view := CameraView(frontal(1000), o.proj.ViewScale)
	for h := 0; h < n; h++ {
		o.drawItem(&canvas, Item{Handle: h, Size: 80 * o.proj.ViewScale, ModelView: view})
	}
}

// Present draws items onto frame and shows it.
func (o *Overlay) Present(frame gocv.Mat, items []Item) error {
	if frame.Empty() {
		return errors.New("empty frame")
	}
	for _, it := range items {
		o.drawItem(&frame, it)
	}
	if o.window != nil {
		o.window.IMShow(frame)
	}
	return nil
}

// PollKey waits up to delayMs for a key press; -1 means none.
func (o *Overlay) PollKey(delayMs int) int {
	if o.window == nil {
		return -1
	}
	return o.window.WaitKey(delayMs)
}

// CycleDrawMode advances to the next draw mode and returns it.
func (o *Overlay) CycleDrawMode() DrawMode {
	o.mode = o.mode.Next()
	return o.mode
}

// Mode returns the current draw mode.
func (o *Overlay) Mode() DrawMode {
	return o.mode
}

// Close destroys the window.
func (o *Overlay) Close() error {
	if o.window == nil {
		return nil
	}
	o.window.Close()
	o.window = nil
	return nil
}

func (o *Overlay) drawItem(img *gocv.Mat, it Item) {
	model, ok := o.models.Get(it.Handle)
	if !ok {
		return
	}

	if o.mode.wireframe() || model.Shape == ShapeAxes {
		c := model.RGBA()
		for _, s := range glyph(model, it.Size) {
			o.line(img, it, s, c, 2)
		}
	}
	if o.mode.axes() || model.Shape == ShapeAxes {
		for i, s := range axes(it.Size) {
			o.line(img, it, s, axisColors[i], 2)
		}
	}

	if it.Name != "" {
		if p, ok := o.proj.Project(it.ModelView, r3.Vector{}); ok {
			gocv.PutText(img, it.Name, pt(p).Add(image.Pt(6, -6)), gocv.FontHersheySimplex, 0.5, model.RGBA(), 1)
		}
	}
}

func (o *Overlay) line(img *gocv.Mat, it Item, s Segment, c color.RGBA, thickness int) {
	a, okA := o.proj.Project(it.ModelView, s.A)
	b, okB := o.proj.Project(it.ModelView, s.B)
	if !okA || !okB {
		return
	}
	gocv.Line(img, pt(a), pt(b), c, thickness)
}

func pt(p r2.Point) image.Point {
	return image.Pt(int(p.X+0.5), int(p.Y+0.5))
}
