// facecam - hands-free face-fit photo booth on a local webcam
// Shows a masked live preview, detects when every face sits inside the
// mask, and takes a cropped photo after a short countdown.
package main

import (
	"context"
	"flag"
	"os"
	"os/signal"
	"syscall"

	"github.com/teslashibe/go-facecam/internal/config"
	"github.com/teslashibe/go-facecam/internal/log"
	"github.com/teslashibe/go-facecam/pkg/facecam"
	"github.com/teslashibe/go-facecam/pkg/mask"
)

func main() {
	env := config.Load()
	log.InitWith(log.Options{Level: env.LogLevel, File: env.LogFile})

	cfg, err := parseFlags(env)
	if err != nil {
		log.Error("invalid configuration", "error", err)
		os.Exit(2)
	}

	app, err := facecam.New(cfg)
	if err != nil {
		log.Error("invalid configuration", "error", err)
		os.Exit(2)
	}

	if err := app.Init(); err != nil {
		log.Error("initialization failed", "error", err)
		os.Exit(1)
	}
	defer app.Shutdown()

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	if err := app.Run(ctx); err != nil {
		log.Error("runtime error", "error", err)
	}
}

// parseFlags applies command line flags over the environment.
func parseFlags(env config.Config) (facecam.Config, error) {
	cfg, err := facecam.FromEnv(env)
	if err != nil {
		return cfg, err
	}

	port := flag.String("port", cfg.Port, "Dashboard HTTP port")
	device := flag.Int("device", cfg.Camera.Device, "Video device index")
	camType := flag.String("type", cfg.CameraType.String(), "Mask shape: profile or card")
	preset := flag.String("preset", "", "Camera preset (default, legacy, 1080p, back, lowcpu)")
	model := flag.String("model", cfg.ModelPath, "YuNet ONNX model path")
	countdownSecs := flag.Int("countdown", cfg.Countdown, "Seconds a face must stay in the mask before capture")
	photoDir := flag.String("photo-dir", cfg.PhotoDir, "Directory to also save photos in")
	staticDir := flag.String("static", "", "Directory of dashboard files served at /")
	debug := flag.Bool("debug", false, "Enable verbose debug logging")
	debugFrames := flag.Bool("debug-frames", false, "Log every face metadata frame")
	flag.Parse()

	if *preset != "" {
		if err := cfg.ApplyPreset(*preset); err != nil {
			return cfg, err
		}
	}

	t, err := mask.ParseCameraType(*camType)
	if err != nil {
		return cfg, err
	}

	cfg.Port = *port
	cfg.Camera.Device = *device
	cfg.CameraType = t
	cfg.ModelPath = *model
	cfg.Countdown = *countdownSecs
	cfg.PhotoDir = *photoDir
	cfg.StaticDir = *staticDir
	cfg.Debug, cfg.DebugFrames = *debug, *debugFrames
	return cfg, nil
}
