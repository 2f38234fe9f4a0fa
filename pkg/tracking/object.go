package tracking

import (
	"github.com/golang/geo/r2"

	"github.com/teslashibe/go-arview/pkg/pose"
)

// State is the visibility state of a tracked object.
type State uint8

const (
	// Lost means no detection matched in the last processed frame.
	// The pose is stale or was never set.
	Lost State = iota
	// Acquired means the object matched in the last processed frame and its
	// pose was updated from that detection.
	Acquired
)

func (s State) String() string {
	switch s {
	case Lost:
		return "lost"
	case Acquired:
		return "acquired"
	default:
		return "unknown"
	}
}

// TrackedObject is a physical object identified by a marker.
// ID, Name, ReferenceSize, ReferenceCenter and RenderHandle are fixed at load.
type TrackedObject struct {
	ID              int
	Name            string
	ReferenceSize   float64
	ReferenceCenter r2.Point
	RenderHandle    int // < 0 when no model is available

	Pose     pose.Pose
	State    State
	Residual float64 // reprojection error of the last estimate, pixels
}

// Visible reports whether the object matched in the last processed frame.
func (o *TrackedObject) Visible() bool {
	return o.State == Acquired
}

// CountVisible returns how many objects are currently acquired.
func CountVisible(objects []TrackedObject) int {
	n := 0
	for i := range objects {
		if objects[i].Visible() {
			n++
		}
	}
	return n
}
