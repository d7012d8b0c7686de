package capture

import (
	"errors"
	"fmt"
)

// Errors surfaced through ErrorEvent. All are terminal for the operation
// that produced them and are never retried by the component.
var (
	// ErrUnsupportedDevice is returned when the requested camera cannot be
	// attached to the session.
	ErrUnsupportedDevice = errors.New("capture: unsupported device")

	// ErrVideoNotConfigured is returned when the session cannot start
	// streaming video.
	ErrVideoNotConfigured = errors.New("capture: video not configured")

	// ErrUndefined covers any other configuration or runtime failure.
	ErrUndefined = errors.New("capture: undefined error")

	// ErrPermissionDenied is returned when camera access is refused.
	// Callers usually point the user at system settings.
	ErrPermissionDenied = errors.New("capture: permission denied")
)

// Errors returned directly by TakePhoto and Run.
var (
	// ErrSessionNotRunning is returned by TakePhoto when no session is live.
	// Nothing is emitted on the event channel.
	ErrSessionNotRunning = errors.New("capture: session not running")

	// ErrCaptureInFlight is returned by TakePhoto while a previous capture
	// has not completed.
	ErrCaptureInFlight = errors.New("capture: capture already in flight")

	// ErrAlreadyRunning is returned by a second call to Run.
	ErrAlreadyRunning = errors.New("capture: already running")
)

// IsDenied reports whether err means the user refused camera access.
func IsDenied(err error) bool {
	return errors.Is(err, ErrPermissionDenied)
}

// classify maps a platform configuration error onto the taxonomy.
func classify(err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, ErrUnsupportedDevice),
		errors.Is(err, ErrVideoNotConfigured),
		errors.Is(err, ErrPermissionDenied),
		errors.Is(err, ErrUndefined):
		return err
	default:
		return fmt.Errorf("%w: %v", ErrUndefined, err)
	}
}
