// Package aruco detects square fiducial markers with OpenCV's ArUco module.
package aruco

import (
	"errors"
	"fmt"
	"sort"
	"sync"

	"github.com/golang/geo/r2"
	"gocv.io/x/gocv"

	"github.com/teslashibe/go-arview/pkg/debug"
	"github.com/teslashibe/go-arview/pkg/marker"
)

// ErrEmptyImage is returned when Detect is given no pixels.
var ErrEmptyImage = errors.New("empty image")

// ErrClosed is returned when Detect is called after Close.
var ErrClosed = errors.New("detector closed")

var dictionaries = map[string]gocv.ArucoDictionaryCode{
	"4x4_50":     gocv.ArucoDict4x4_50,
	"4x4_100":    gocv.ArucoDict4x4_100,
	"4x4_250":    gocv.ArucoDict4x4_250,
	"5x5_50":     gocv.ArucoDict5x5_50,
	"5x5_100":    gocv.ArucoDict5x5_100,
	"6x6_50":     gocv.ArucoDict6x6_50,
	"6x6_250":    gocv.ArucoDict6x6_250,
	"original":   gocv.ArucoDictArucoOriginal,
	"april16h5":  gocv.ArucoDictAprilTag_16h5,
	"april36h11": gocv.ArucoDictAprilTag_36h11,
}

// Dictionaries returns the supported dictionary names, sorted.
func Dictionaries() []string {
	names := make([]string, 0, len(dictionaries))
	for name := range dictionaries {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Detector finds ArUco markers in BGR frames.
type Detector struct {
	detector gocv.ArucoDetector
	dict     string
	closed   bool
	mu       sync.Mutex // Protects detection
}

// New creates a detector for the named dictionary.
func New(dictionary string) (*Detector, error) {
	code, ok := dictionaries[dictionary]
	if !ok {
		return nil, fmt.Errorf("unknown ArUco dictionary %q", dictionary)
	}

	det := gocv.NewArucoDetectorWithParams(
		gocv.GetPredefinedDictionary(code),
		gocv.NewArucoDetectorParameters(),
	)

	return &Detector{detector: det, dict: dictionary}, nil
}

// Dictionary returns the configured dictionary name.
func (d *Detector) Dictionary() string {
	return d.dict
}

// Detect binarizes img at threshold (0-255) and returns the markers found,
// in detector order. Corners are clockwise from the marker's top-left.
func (d *Detector) Detect(img gocv.Mat, threshold int) ([]marker.Marker, error) {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.closed {
		return nil, ErrClosed
	}
	if img.Empty() {
		return nil, ErrEmptyImage
	}

	gray := gocv.NewMat()
	defer gray.Close()
	if img.Channels() == 1 {
		img.CopyTo(&gray)
	} else {
		gocv.CvtColor(img, &gray, gocv.ColorBGRToGray)
	}

	bin := gocv.NewMat()
	defer bin.Close()
	gocv.Threshold(gray, &bin, float32(threshold), 255, gocv.ThresholdBinary)

	corners, ids, _ := d.detector.DetectMarkers(bin)

	markers := make([]marker.Marker, 0, len(ids))
	for i, id := range ids {
		if len(corners[i]) != 4 {
			continue
		}
		m := marker.Marker{ID: id}
		for k, p := range corners[i] {
			m.Corners[k] = r2.Point{X: float64(p.X), Y: float64(p.Y)}
		}
		m.Confidence = marker.Squareness(m.Corners)
		if m.Confidence <= 0 {
			continue
		}
		markers = append(markers, m)

		debug.DetectLog("🔲 marker id=%d cf=%.2f center=(%.0f, %.0f)\n",
			m.ID, m.Confidence, m.Center().X, m.Center().Y)
	}

	return markers, nil
}

// Close releases resources
func (d *Detector) Close() error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if !d.closed {
		d.detector.Close()
		d.closed = true
	}
	return nil
}
