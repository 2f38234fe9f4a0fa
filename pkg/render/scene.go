package render

import (
	"github.com/teslashibe/go-arview/pkg/pose"
	"github.com/teslashibe/go-arview/pkg/session"
	"github.com/teslashibe/go-arview/pkg/tracking"
)

// Item is one model to draw this frame.
type Item struct {
	Name      string    `json:"name"`
	MarkerID  int       `json:"marker_id"`
	Handle    int       `json:"handle"`
	Size      float64   `json:"size"` // marker width in model units
	ModelView pose.Mat4 `json:"model_view"`
}

// Scene builds the draw list in object order. Objects that are not visible
// or have no model are skipped.
func (p *Projector) Scene(objects []tracking.TrackedObject, c session.Controls) []Item {
	items := make([]Item, 0, len(objects))
	for i := range objects {
		obj := &objects[i]
		if !obj.Visible() || obj.RenderHandle < 0 {
			continue
		}
		items = append(items, Item{
			Name:      obj.Name,
			MarkerID:  obj.ID,
			Handle:    obj.RenderHandle,
			Size:      obj.ReferenceSize * p.ViewScale,
			ModelView: ModelView(obj.Pose, p.ViewScale, c),
		})
	}
	return items
}
