package session

import "github.com/teslashibe/go-arview/internal/log"

// Action tells the frame loop what to do after a key press.
type Action uint8

const (
	ActionNone Action = iota
	ActionQuit
	ActionCycleDrawMode
	ActionHelp
)

// Key codes as returned by gocv's WaitKey on the GTK backend.
const (
	KeyEsc   = 27
	KeyLeft  = 65361
	KeyUp    = 65362
	KeyRight = 65363
	KeyDown  = 65364
)

const (
	translateStep = 2.0
	rotateStep    = 1.0
)

// Help is the key reference printed on '?'.
const Help = `Keys:
 q or [esc]    Quit
 [ ]           Threshold -1 / +1
 - + (=)       Scale -1 / +1
 a d           Move model left / right
 s w           Move model down / up
 , (<) . (>)   Rotate about Z
 arrows        Rotate about X / Y
 p             Toggle detector debug output
 c             Report frame rate and change draw mode
 ?             Show this help
`

// HandleKey applies the effect of key to the session. Keys the session does not
// own are returned as an Action. WaitKey's -1 (no key) is ActionNone.
func (s *Session) HandleKey(key int) Action {
	switch key {
	case 'q', 'Q', KeyEsc:
		return ActionQuit
	case '?', '/':
		return ActionHelp
	case 'c', 'C':
		return ActionCycleDrawMode
	case 'p', 'P':
		on := s.ToggleDebug()
		log.Info("detector debug", "enabled", on)
	case '[':
		log.Info("threshold", "value", s.AdjustThreshold(-1))
	case ']':
		log.Info("threshold", "value", s.AdjustThreshold(1))
	case '-':
		log.Info("scale", "value", s.AdjustScale(-1))
	case '+', '=':
		log.Info("scale", "value", s.AdjustScale(1))
	case 'a', 'A':
		s.Translate(-translateStep, 0)
	case 'd', 'D':
		s.Translate(translateStep, 0)
	case 's', 'S':
		s.Translate(0, -translateStep)
	case 'w', 'W':
		s.Translate(0, translateStep)
	case ',', '<':
		s.Rotate(0, 0, -rotateStep)
	case '.', '>':
		s.Rotate(0, 0, rotateStep)
	case KeyLeft:
		s.Rotate(0, -rotateStep, 0)
	case KeyRight:
		s.Rotate(0, rotateStep, 0)
	case KeyUp:
		s.Rotate(-rotateStep, 0, 0)
	case KeyDown:
		s.Rotate(rotateStep, 0, 0)
	}
	return ActionNone
}
