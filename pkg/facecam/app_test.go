package facecam

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/teslashibe/go-facecam/internal/config"
	"github.com/teslashibe/go-facecam/internal/countdown"
	"github.com/teslashibe/go-facecam/pkg/camera"
	"github.com/teslashibe/go-facecam/pkg/capture"
	"github.com/teslashibe/go-facecam/pkg/mask"
	"github.com/teslashibe/go-facecam/pkg/web"
)

func TestFromEnv(t *testing.T) {
	env := config.Config{
		Port:       "9000",
		Device:     2,
		CameraType: "card",
		ModelPath:  "m.onnx",
		Countdown:  3,
		PhotoDir:   "/tmp/photos",
	}

	cfg, err := FromEnv(env)
	require.NoError(t, err)
	assert.Equal(t, "9000", cfg.Port)
	assert.Equal(t, 2, cfg.Camera.Device)
	assert.Equal(t, mask.Card, cfg.CameraType)
	assert.Equal(t, 3, cfg.Countdown)
	assert.Equal(t, "/tmp/photos", cfg.PhotoDir)
}

func TestFromEnvBadType(t *testing.T) {
	_, err := FromEnv(config.Config{CameraType: "passport"})
	assert.Error(t, err)
}

func TestApplyPreset(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Camera.Device = 3

	require.NoError(t, cfg.ApplyPreset("legacy"))
	assert.Equal(t, 640, cfg.Camera.Width)
	assert.Equal(t, 3, cfg.Camera.Device, "device survives preset")

	assert.Error(t, cfg.ApplyPreset("nope"))
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		modify func(*Config)
		field  string
	}{
		{"valid", func(*Config) {}, ""},
		{"empty port", func(c *Config) { c.Port = "" }, "Port"},
		{"zero countdown", func(c *Config) { c.Countdown = 0 }, "Countdown"},
		{"profile without model", func(c *Config) { c.ModelPath = "" }, "ModelPath"},
		{"card without model", func(c *Config) { c.ModelPath = ""; c.CameraType = mask.Card }, ""},
		{"bad camera", func(c *Config) { c.Camera.Width = 1 }, "Camera"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tt.modify(&cfg)
			err := cfg.Validate()
			if tt.field == "" {
				assert.NoError(t, err)
				return
			}
			var ce *ConfigError
			require.True(t, errors.As(err, &ce), "got %v", err)
			assert.Equal(t, tt.field, ce.Field)
		})
	}
}

func TestNewRejectsInvalid(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Port = ""
	_, err := New(cfg)
	assert.Error(t, err)
}

// newEventApp builds an App with only the pieces handleEvent touches.
func newEventApp(t *testing.T) *App {
	t.Helper()
	a, err := New(DefaultConfig())
	require.NoError(t, err)

	a.capture = capture.New(nil)
	a.webServer = web.NewServer(a.capture, camera.NewManager(camera.DefaultConfig()), web.Options{})
	a.countdown = countdown.New(10, func() {}, countdown.WithInterval(time.Hour))
	return a
}

func TestDetectionDrivesCountdown(t *testing.T) {
	a := newEventApp(t)

	a.handleEvent(capture.DetectionEvent{Detection: capture.FaceDetected, Faces: 1, Inside: 1})
	assert.True(t, a.countdown.Running())

	// Repeated verdicts keep the same countdown
	a.handleEvent(capture.DetectionEvent{Detection: capture.FaceDetected, Faces: 1, Inside: 1})
	assert.True(t, a.countdown.Running())

	a.handleEvent(capture.DetectionEvent{Detection: capture.NoFaceDetected})
	assert.False(t, a.countdown.Running())
}

func TestErrorStopsCountdown(t *testing.T) {
	a := newEventApp(t)

	a.handleEvent(capture.DetectionEvent{Detection: capture.FaceDetected, Faces: 1, Inside: 1})
	require.True(t, a.countdown.Running())

	a.handleEvent(capture.ErrorEvent{Err: capture.ErrUndefined, State: capture.StateError})
	assert.False(t, a.countdown.Running())
}
