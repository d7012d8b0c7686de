package capture

import (
	"context"

	"github.com/teslashibe/go-facecam/pkg/camera"
	"github.com/teslashibe/go-facecam/pkg/mask"
	"github.com/teslashibe/go-facecam/pkg/photo"
)

// Authorizer asks the platform for camera access.
type Authorizer interface {
	RequestAccess(ctx context.Context) (granted bool, err error)
}

// Device attaches a physical camera to the session. Failures should wrap
// ErrUnsupportedDevice when the camera cannot be used at all.
type Device interface {
	Configure(ctx context.Context, pos camera.Position) error
}

// Session is the long-lived capture session.
type Session interface {
	StartSession() error
	StopSession() error
	Running() bool

	// RuntimeErrors reports failures of a running session.
	RuntimeErrors() <-chan error
}

// Layout reports the current preview bounds in view coordinates.
type Layout interface {
	Bounds() mask.Rect
}

// StillCapturer takes one encoded still image.
type StillCapturer interface {
	CaptureStill(ctx context.Context) ([]byte, error)
}

// MetadataSource streams face rectangles, in view coordinates, one slice
// per metadata frame. The stream ends when ctx is done and cannot be
// restarted; call Faces again for a new one.
type MetadataSource interface {
	Faces(ctx context.Context) (<-chan []mask.Rect, error)
}

// Platform is everything the component needs from the camera stack.
type Platform interface {
	Authorizer
	Device
	Session
	Layout
	StillCapturer
	MetadataSource
	photo.CoordinateMapping
}
