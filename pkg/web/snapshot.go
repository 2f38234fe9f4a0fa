package web

import (
	"time"

	"github.com/teslashibe/go-arview/pkg/pose"
	"github.com/teslashibe/go-arview/pkg/render"
	"github.com/teslashibe/go-arview/pkg/session"
	"github.com/teslashibe/go-arview/pkg/tracking"
)

// ObjectState is the public view of a tracked object.
type ObjectState struct {
	Name     string     `json:"name"`
	MarkerID int        `json:"marker_id"`
	Size     float64    `json:"size"`
	State    string     `json:"state"`
	Visible  bool       `json:"visible"`
	HasModel bool       `json:"has_model"`
	Residual float64    `json:"residual,omitempty"`
	Pose     *pose.Pose `json:"pose,omitempty"` // only while visible
}

// Snapshot is what the frame loop publishes after each processed frame.
// It is immutable once published.
type Snapshot struct {
	SessionID string           `json:"session_id"`
	Frame     uint64           `json:"frame"`
	Time      time.Time        `json:"time"`
	FPS       float64          `json:"fps"`
	DrawMode  string           `json:"draw_mode"`
	Objects   []ObjectState    `json:"objects"`
	Items     []render.Item    `json:"items"`
	Controls  session.Controls `json:"controls"`
}

// ObjectStates copies the objects into their public form.
func ObjectStates(objects []tracking.TrackedObject) []ObjectState {
	out := make([]ObjectState, len(objects))
	for i := range objects {
		o := &objects[i]
		out[i] = ObjectState{
			Name:     o.Name,
			MarkerID: o.ID,
			Size:     o.ReferenceSize,
			State:    o.State.String(),
			Visible:  o.Visible(),
			HasModel: o.RenderHandle >= 0,
		}
		if o.Visible() {
			p := o.Pose
			out[i].Pose = &p
			out[i].Residual = o.Residual
		}
	}
	return out
}

// Visible counts the visible objects in the snapshot.
func (s *Snapshot) Visible() int {
	n := 0
	for _, o := range s.Objects {
		if o.Visible {
			n++
		}
	}
	return n
}
