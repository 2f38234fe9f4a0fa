package camera

import (
	"fmt"
	"log/slog"
	"strconv"
	"sync"
	"time"

	"gocv.io/x/gocv"

	"github.com/teslashibe/go-arview/internal/log"
)

// Source captures frames on a background goroutine into a single-slot buffer.
// TryGetFrame never blocks and never returns the same frame twice.
type Source struct {
	cfg    Config
	vc     *gocv.VideoCapture
	logger *slog.Logger

	mu            sync.Mutex
	slot          gocv.Mat
	seq           uint64 // frames stored
	served        uint64 // seq of the last frame handed out
	width, height int

	reconf    chan Config
	stop      chan struct{}
	done      chan struct{}
	started   bool
	closeOnce sync.Once
}

// Open opens the capture device and applies the requested size.
func Open(cfg Config) (*Source, error) {
	var device interface{} = cfg.Device
	if idx, err := strconv.Atoi(cfg.Device); err == nil {
		device = idx
	}

	vc, err := gocv.OpenVideoCapture(device)
	if err != nil {
		return nil, fmt.Errorf("open video device %s: %w", cfg.Device, err)
	}
	if !vc.IsOpened() {
		vc.Close()
		return nil, fmt.Errorf("open video device %s: not available", cfg.Device)
	}

	s := &Source{
		cfg:    cfg,
		vc:     vc,
		logger: log.Component("camera"),
		slot:   gocv.NewMat(),
		reconf: make(chan Config, 1),
		stop:   make(chan struct{}),
		done:   make(chan struct{}),
	}
	s.apply(cfg)
	return s, nil
}

// Size returns the actual capture size reported by the device.
func (s *Source) Size() (width, height int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.width, s.height
}

// Start begins capturing.
func (s *Source) Start() {
	s.mu.Lock()
	if s.started {
		s.mu.Unlock()
		return
	}
	s.started = true
	s.mu.Unlock()

	go s.run()
}

// Reconfigure queues a new size/framerate; it is applied between reads.
// Use as a Manager.OnConfigChange callback.
func (s *Source) Reconfigure(cfg Config) error {
	select {
	case <-s.stop:
		return fmt.Errorf("camera closed")
	default:
	}
	// Replace any pending update.
	select {
	case <-s.reconf:
	default:
	}
	s.reconf <- cfg
	return nil
}

// TryGetFrame returns a copy of the newest frame if one has arrived since the
// last call. The caller owns the returned Mat.
func (s *Source) TryGetFrame() (gocv.Mat, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.seq == s.served || s.slot.Empty() {
		return gocv.Mat{}, false
	}
	s.served = s.seq
	return s.slot.Clone(), true
}

// Close stops capture and releases the device.
func (s *Source) Close() error {
	s.closeOnce.Do(func() {
		close(s.stop)

		s.mu.Lock()
		started := s.started
		s.mu.Unlock()
		if started {
			<-s.done
		}

		s.vc.Close()
		s.mu.Lock()
		s.slot.Close()
		s.mu.Unlock()
		s.logger.Info("camera closed", "frames", s.seq)
	})
	return nil
}

func (s *Source) run() {
	defer close(s.done)

	buf := gocv.NewMat()
	defer buf.Close()

	interval := s.playbackInterval()
	eofLogged := false

	for {
		select {
		case <-s.stop:
			return
		case cfg := <-s.reconf:
			s.apply(cfg)
			interval = s.playbackInterval()
		default:
		}

		if ok := s.vc.Read(&buf); !ok || buf.Empty() {
			if s.cfg.IsFile() && !eofLogged {
				s.logger.Info("end of video file", "path", s.cfg.Device)
				eofLogged = true
			}
			time.Sleep(5 * time.Millisecond)
			continue
		}

		s.store(buf)

		if interval > 0 {
			time.Sleep(interval)
		}
	}
}

// record stores the requested mode and the size the device settled on.
func (s *Source) record(cfg Config, w, h int) {
	s.mu.Lock()
	s.cfg.Width, s.cfg.Height, s.cfg.Framerate = cfg.Width, cfg.Height, cfg.Framerate
	s.width, s.height = w, h
	s.mu.Unlock()
}

// playbackInterval paces video files at their configured framerate.
// Cameras block in Read and need no pacing.
func (s *Source) playbackInterval() time.Duration {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.cfg.IsFile() || s.cfg.Framerate <= 0 {
		return 0
	}
	return time.Second / time.Duration(s.cfg.Framerate)
}

// store copies m into the slot, replacing any frame not yet taken.
func (s *Source) store(m gocv.Mat) {
	s.mu.Lock()
	defer s.mu.Unlock()
	m.CopyTo(&s.slot)
	s.seq++
}

func (s *Source) apply(cfg Config) {
	if cfg.Width > 0 {
		s.vc.Set(gocv.VideoCaptureFrameWidth, float64(cfg.Width))
	}
	if cfg.Height > 0 {
		s.vc.Set(gocv.VideoCaptureFrameHeight, float64(cfg.Height))
	}
	if cfg.Framerate > 0 {
		s.vc.Set(gocv.VideoCaptureFPS, float64(cfg.Framerate))
	}

	w := int(s.vc.Get(gocv.VideoCaptureFrameWidth))
	h := int(s.vc.Get(gocv.VideoCaptureFrameHeight))

	s.record(cfg, w, h)

	s.logger.Info("camera configured",
		"device", cfg.Device, "requested", fmt.Sprintf("%dx%d@%d", cfg.Width, cfg.Height, cfg.Framerate),
		"actual", fmt.Sprintf("%dx%d", w, h))
}
