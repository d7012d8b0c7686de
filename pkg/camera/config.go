// Package camera provides runtime-configurable capture device settings and
// the orientation math between the sensor and the portrait preview.
package camera

import "fmt"

// Position identifies which physical camera a session uses.
type Position string

const (
	PositionFront Position = "front"
	PositionBack  Position = "back"
)

// Config holds all capture device parameters.
// These can be modified via the dashboard API at runtime.
type Config struct {
	// === Device ===
	Device   int      `json:"device"`   // OpenCV device index
	Position Position `json:"position"` // Front or back camera

	// === Resolution ===
	Width     int `json:"width"`     // Sensor frame width in pixels
	Height    int `json:"height"`    // Sensor frame height in pixels
	Framerate int `json:"framerate"` // Target FPS
	Quality   int `json:"quality"`   // JPEG quality 1-100

	// === Preview ===
	// Mirror flips the preview horizontally, like a selfie camera.
	Mirror bool `json:"mirror"`

	// PreviewWidth caps the width of frames streamed to the dashboard.
	// Set to 0 to stream at view resolution.
	PreviewWidth int `json:"preview_width"`

	// === Face metadata ===
	// DetectionFPS is how many metadata frames per second the face
	// detector produces while live preview is running.
	DetectionFPS int `json:"detection_fps"`
}

// Sensor limits accepted by Validate.
const (
	MaxWidth        = 4096
	MaxHeight       = 2160
	MaxFramerate    = 120
	MaxDetectionFPS = 30
)

// DefaultConfig returns the recommended front-camera configuration.
func DefaultConfig() Config {
	return Config{
		Device:   0,
		Position: PositionFront,

		Width:     1280,
		Height:    720,
		Framerate: 30,
		Quality:   90,

		Mirror:       true,
		PreviewWidth: 480,

		DetectionFPS: 10,
	}
}

// Validate checks if the config values are within valid ranges.
// Returns a list of validation errors, or nil if valid.
func (c *Config) Validate() []string {
	var errors []string

	if c.Device < 0 {
		errors = append(errors, "device must not be negative")
	}
	if c.Position != PositionFront && c.Position != PositionBack {
		errors = append(errors, "position must be front or back")
	}

	if c.Width < 160 || c.Width > MaxWidth {
		errors = append(errors, fmt.Sprintf("width must be between 160 and %d", MaxWidth))
	}
	if c.Height < 120 || c.Height > MaxHeight {
		errors = append(errors, fmt.Sprintf("height must be between 120 and %d", MaxHeight))
	}
	if c.Framerate < 1 || c.Framerate > MaxFramerate {
		errors = append(errors, fmt.Sprintf("framerate must be between 1 and %d", MaxFramerate))
	}
	if c.Quality < 1 || c.Quality > 100 {
		errors = append(errors, "quality must be between 1 and 100")
	}

	if c.PreviewWidth < 0 {
		errors = append(errors, "preview_width must be 0 (native) or positive")
	}

	if c.DetectionFPS < 1 || c.DetectionFPS > MaxDetectionFPS {
		errors = append(errors, fmt.Sprintf("detection_fps must be between 1 and %d", MaxDetectionFPS))
	}

	return errors
}
