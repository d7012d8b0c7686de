// Package config provides configuration helpers for facecam commands.
package config

import (
	"os"
	"strconv"

	"github.com/joho/godotenv"
)

// Defaults
const (
	DefaultPort       = "8080"
	DefaultCameraType = "profile"
	DefaultModelPath  = "models/face_detection_yunet_2023mar.onnx"
	DefaultLogLevel   = "info"
	DefaultCountdown  = 4
)

// Config is the process configuration assembled from the environment.
type Config struct {
	Port       string
	Device     int
	CameraType string
	ModelPath  string
	LogLevel   string
	LogFile    string
	Countdown  int // Seconds before auto-capture
	PhotoDir   string
}

// Load reads a .env file if present, then the environment.
func Load(envFiles ...string) Config {
	if len(envFiles) == 0 {
		envFiles = []string{".env"}
	}
	for _, f := range envFiles {
		if _, err := os.Stat(f); err == nil {
			// Existing environment wins over the file
			_ = godotenv.Load(f)
		}
	}

	return Config{
		Port:       getenv("FACECAM_PORT", DefaultPort),
		Device:     getenvInt("CAMERA_DEVICE", 0),
		CameraType: getenv("CAMERA_TYPE", DefaultCameraType),
		ModelPath:  getenv("YUNET_MODEL", DefaultModelPath),
		LogLevel:   getenv("LOG_LEVEL", DefaultLogLevel),
		LogFile:    os.Getenv("LOG_FILE"),
		Countdown:  getenvInt("COUNTDOWN_SECONDS", DefaultCountdown),
		PhotoDir:   os.Getenv("PHOTO_DIR"),
	}
}

func getenv(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func getenvInt(key string, def int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return def
}
