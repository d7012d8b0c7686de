package capture

import (
	"github.com/teslashibe/go-facecam/pkg/mask"
	"github.com/teslashibe/go-facecam/pkg/photo"
)

// Detection is the per-frame verdict on the face set.
type Detection int

const (
	NoFaceDetected Detection = iota
	FaceDetected
)

func (d Detection) String() string {
	if d == FaceDetected {
		return "face_detected"
	}
	return "no_face_detected"
}

// Event is a caller-visible notification. All events of a component are
// sent from its Run goroutine, in order.
type Event interface {
	isEvent()
}

// ReadyEvent is sent once, when permission and configuration both succeed.
type ReadyEvent struct {
	Mask mask.Rect // Zero until the view has bounds
}

// ErrorEvent carries one failure. State is the component state after it.
type ErrorEvent struct {
	Err   error
	State State
}

// DetectionEvent is sent exactly once per metadata frame while live
// preview runs. Repeated identical verdicts are not suppressed.
type DetectionEvent struct {
	Detection Detection
	Faces     int // Faces in the frame
	Inside    int // Faces contained in the mask
}

// PhotoEvent delivers a finished capture.
type PhotoEvent struct {
	Photo *photo.Photo
	Mask  *mask.Rect // Mask active at capture time, nil if none
}

func (ReadyEvent) isEvent()     {}
func (ErrorEvent) isEvent()     {}
func (DetectionEvent) isEvent() {}
func (PhotoEvent) isEvent()     {}

// CapturedPhoto is a raw still and the mask active when it was taken.
// It is consumed once by Process.
type CapturedPhoto struct {
	Raw  []byte
	Mask *mask.Rect
}

// Process produces the final photo using the capture layer's mapping.
func (c CapturedPhoto) Process(m photo.CoordinateMapping) (*photo.Photo, error) {
	return photo.Process(c.Raw, c.Mask, m)
}
