// Package tracking associates per-frame marker detections with known objects
// and maintains each object's pose across frames.
//
// Every object runs the same two-state machine:
//
//	Lost     --match-->    Acquired  (cold-start estimate)
//	Acquired --match-->    Acquired  (estimate seeded by previous pose)
//	Acquired --no match--> Lost      (pose kept, not refreshed)
//	Lost     --no match--> Lost
package tracking

import (
	"log/slog"

	"github.com/golang/geo/r2"

	"github.com/teslashibe/go-arview/internal/log"
	"github.com/teslashibe/go-arview/pkg/debug"
	"github.com/teslashibe/go-arview/pkg/marker"
	"github.com/teslashibe/go-arview/pkg/pose"
)

// PoseEstimator computes a marker pose from its image corners.
type PoseEstimator interface {
	// Estimate uses the detection alone.
	Estimate(corners [4]r2.Point, center r2.Point, size float64) (pose.Pose, float64)
	// EstimateCont is seeded by the previous frame's pose.
	EstimateCont(corners [4]r2.Point, prev pose.Pose, center r2.Point, size float64) (pose.Pose, float64)
}

// Transition is what happened to one object during a frame update.
type Transition uint8

const (
	StayLost Transition = iota
	Acquire
	Track
	Lose
)

func (t Transition) String() string {
	switch t {
	case StayLost:
		return "stay-lost"
	case Acquire:
		return "acquire"
	case Track:
		return "track"
	case Lose:
		return "lose"
	default:
		return "unknown"
	}
}

// Engine runs the association step. It holds no per-object state of its own;
// all state lives in the TrackedObject slice passed to UpdateFrame.
type Engine struct {
	estimator PoseEstimator
	logger    *slog.Logger
}

// NewEngine creates an engine using the given estimator.
func NewEngine(estimator PoseEstimator) *Engine {
	return &Engine{
		estimator: estimator,
		logger:    log.Component("tracking"),
	}
}

// UpdateFrame processes one frame's detections. For each object it selects
// the highest-confidence marker with the same ID (first one wins on ties),
// updates the pose when matched and sets the visibility state. Unmatched
// objects keep their previous pose untouched.
//
// The returned slice has one transition per object, in object order.
func (e *Engine) UpdateFrame(objects []TrackedObject, markers []marker.Marker) []Transition {
	transitions := make([]Transition, len(objects))

	for i := range objects {
		obj := &objects[i]
		k := marker.SelectBest(markers, obj.ID)

		if k < 0 {
			if obj.State == Acquired {
				transitions[i] = Lose
				e.logger.Debug("object lost", "name", obj.Name, "marker_id", obj.ID)
			} else {
				transitions[i] = StayLost
			}
			obj.State = Lost
			continue
		}

		m := &markers[k]
		if obj.State == Lost {
			obj.Pose, obj.Residual = e.estimator.Estimate(m.Corners, obj.ReferenceCenter, obj.ReferenceSize)
			transitions[i] = Acquire
			e.logger.Debug("object acquired", "name", obj.Name, "marker_id", obj.ID,
				"confidence", m.Confidence, "residual", obj.Residual)
		} else {
			obj.Pose, obj.Residual = e.estimator.EstimateCont(m.Corners, obj.Pose, obj.ReferenceCenter, obj.ReferenceSize)
			transitions[i] = Track
		}
		obj.State = Acquired

		t := obj.Pose.Translation()
		debug.DetectLog("🎯 %s id=%d cf=%.2f t=(%.1f, %.1f, %.1f) err=%.2fpx\n",
			obj.Name, obj.ID, m.Confidence, t.X, t.Y, t.Z, obj.Residual)
	}

	return transitions
}
