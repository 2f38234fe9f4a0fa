package render

// DrawMode selects what is drawn for each item.
type DrawMode uint8

const (
	DrawWireframe DrawMode = iota
	DrawAxes
	DrawBoth
	drawModeCount
)

func (d DrawMode) String() string {
	switch d {
	case DrawWireframe:
		return "wireframe"
	case DrawAxes:
		return "axes"
	case DrawBoth:
		return "wireframe+axes"
	default:
		return "unknown"
	}
}

// Next returns the following mode, wrapping around.
func (d DrawMode) Next() DrawMode {
	return (d + 1) % drawModeCount
}

func (d DrawMode) wireframe() bool { return d == DrawWireframe || d == DrawBoth }
func (d DrawMode) axes() bool      { return d == DrawAxes || d == DrawBoth }
