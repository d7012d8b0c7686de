package facecam

import (
	"fmt"
	"strings"

	"github.com/teslashibe/go-facecam/internal/config"
	"github.com/teslashibe/go-facecam/pkg/camera"
	"github.com/teslashibe/go-facecam/pkg/mask"
)

// Config holds facecam application configuration.
type Config struct {
	Port        string
	CameraType  mask.CameraType
	Camera      camera.Config
	ModelPath   string
	Countdown   int // Seconds a face must stay in the mask before capture
	PhotoDir    string
	PhotoLimit  int
	StaticDir   string
	Debug       bool
	DebugFrames bool
}

// DefaultConfig returns the default application configuration.
func DefaultConfig() Config {
	return Config{
		Port:       config.DefaultPort,
		CameraType: mask.Profile,
		Camera:     camera.DefaultConfig(),
		ModelPath:  config.DefaultModelPath,
		Countdown:  config.DefaultCountdown,
	}
}

// FromEnv builds a Config from the process environment.
func FromEnv(env config.Config) (Config, error) {
	cfg := DefaultConfig()

	t, err := mask.ParseCameraType(env.CameraType)
	if err != nil {
		return cfg, err
	}
	cfg.CameraType = t
	cfg.Port = env.Port
	cfg.Camera.Device = env.Device
	cfg.ModelPath = env.ModelPath
	cfg.Countdown = env.Countdown
	cfg.PhotoDir = env.PhotoDir
	return cfg, nil
}

// ApplyPreset replaces the camera config with a named preset, keeping the
// selected device.
func (c *Config) ApplyPreset(name string) error {
	p := camera.GetPreset(name)
	if p == nil {
		return fmt.Errorf("unknown camera preset %q (available: %s)", name,
			strings.Join(camera.PresetNames(), ", "))
	}
	device := c.Camera.Device
	c.Camera = *p
	c.Camera.Device = device
	return nil
}

// Validate checks the configuration.
func (c *Config) Validate() error {
	if c.Port == "" {
		return &ConfigError{Field: "Port", Message: "must not be empty"}
	}
	if c.Countdown <= 0 {
		return &ConfigError{Field: "Countdown", Message: "must be positive"}
	}
	if c.CameraType == mask.Profile && c.ModelPath == "" {
		return &ConfigError{Field: "ModelPath", Message: "required for profile camera"}
	}
	if errs := c.Camera.Validate(); len(errs) > 0 {
		return &ConfigError{Field: "Camera", Message: strings.Join(errs, "; ")}
	}
	return nil
}

// ConfigError represents a configuration validation error.
type ConfigError struct {
	Field   string
	Message string
}

func (e *ConfigError) Error() string {
	return e.Field + ": " + e.Message
}
