// Package detection provides face detection backends that turn a JPEG frame
// into normalized face rectangles.
package detection

import (
	"sort"

	"github.com/teslashibe/go-facecam/pkg/mask"
)

// Detection represents a detected face in sensor space
type Detection struct {
	X, Y       float64 // Top-left corner (0-1 normalized)
	W, H       float64 // Width and height (0-1 normalized)
	Confidence float64 // Detection confidence (0-1)
}

// Rect returns the normalized bounding box
func (d Detection) Rect() mask.Rect {
	return mask.Rect{X: d.X, Y: d.Y, W: d.W, H: d.H}
}

// Area returns the area of the bounding box
func (d Detection) Area() float64 {
	return d.W * d.H
}

// Detector is the interface for face detection backends
type Detector interface {
	// Detect finds faces in the image and returns their positions
	Detect(jpeg []byte) ([]Detection, error)

	// Close releases resources
	Close() error
}

// Config holds detector configuration
type Config struct {
	ModelPath        string  // Path to ONNX model
	ConfidenceThresh float64 // Minimum confidence (default 0.6)
	NMSThresh        float64 // Non-maximum suppression IoU threshold
	InputWidth       int     // Model input width
	InputHeight      int     // Model input height
}

// DefaultConfig returns production defaults for YuNet
func DefaultConfig() Config {
	return Config{
		ModelPath:        "models/face_detection_yunet_2023mar.onnx",
		ConfidenceThresh: 0.6,
		NMSThresh:        0.3,
		InputWidth:       320,
		InputHeight:      320,
	}
}

// ByConfidence returns detections at or above minConfidence, most confident
// first.
func ByConfidence(dets []Detection, minConfidence float64) []Detection {
	out := make([]Detection, 0, len(dets))
	for _, d := range dets {
		if d.Confidence >= minConfidence {
			out = append(out, d)
		}
	}
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].Confidence > out[j].Confidence
	})
	return out
}
