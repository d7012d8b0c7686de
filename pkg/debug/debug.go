// Package debug provides global verbose logging flags
package debug

import "github.com/teslashibe/go-facecam/internal/log"

// Enabled controls whether debug logging is active
var Enabled bool

// Frames controls whether per-frame detection logs are shown.
// Use --debug-frames to enable these very verbose logs
var Frames bool

// Log writes a record only if debug mode is enabled
func Log(msg string, args ...any) {
	if Enabled {
		log.Info(msg, args...)
	}
}

// FrameLog writes a record only if frame debug mode is enabled
func FrameLog(msg string, args ...any) {
	if Frames {
		log.Info(msg, args...)
	}
}
