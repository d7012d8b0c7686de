// Package facecam wires a local webcam, the face-fit capture pipeline,
// the hands-free countdown and the dashboard into one application.
package facecam

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/teslashibe/go-facecam/internal/countdown"
	"github.com/teslashibe/go-facecam/internal/log"
	"github.com/teslashibe/go-facecam/pkg/camera"
	"github.com/teslashibe/go-facecam/pkg/capture"
	"github.com/teslashibe/go-facecam/pkg/debug"
	"github.com/teslashibe/go-facecam/pkg/detection"
	"github.com/teslashibe/go-facecam/pkg/mask"
	"github.com/teslashibe/go-facecam/pkg/web"
	"github.com/teslashibe/go-facecam/pkg/webcam"
)

// App is the facecam application orchestrator.
type App struct {
	config Config
	logger *slog.Logger

	detector  detection.Detector
	webcam    *webcam.Camera
	cameras   *camera.Manager
	capture   *capture.Component
	countdown *countdown.Countdown
	webServer *web.Server

	runCtx context.Context
}

// New creates an application with the given configuration.
func New(cfg Config) (*App, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	debug.Enabled = cfg.Debug
	debug.Frames = cfg.DebugFrames

	return &App{
		config: cfg,
		logger: log.With("component", "app"),
		runCtx: context.Background(),
	}, nil
}

// Init builds all components. Call it after New and before Run.
func (a *App) Init() error {
	a.logger.Info("starting facecam",
		"type", a.config.CameraType,
		"device", webcam.DevicePath(a.config.Camera.Device),
		"resolution", fmt.Sprintf("%dx%d", a.config.Camera.Width, a.config.Camera.Height))
	debug.Log("debug logging enabled")

	// Card sessions never read face metadata
	if a.config.CameraType == mask.Profile {
		detCfg := detection.DefaultConfig()
		detCfg.ModelPath = a.config.ModelPath
		det, err := detection.NewYuNet(detCfg)
		if err != nil {
			return fmt.Errorf("face detector: %w", err)
		}
		a.detector = det
	}

	a.webcam = webcam.New(a.config.Camera, a.detector)
	a.cameras = camera.NewManager(a.config.Camera)
	a.cameras.OnConfigChange = a.webcam.Apply

	a.capture = capture.New(a.webcam,
		capture.WithCameraType(a.config.CameraType),
		capture.WithPosition(a.config.Camera.Position))

	a.webServer = web.NewServer(a.capture, a.cameras, web.Options{
		Port:       a.config.Port,
		StaticDir:  a.config.StaticDir,
		PhotoLimit: a.config.PhotoLimit,
		PhotoDir:   a.config.PhotoDir,
	})
	a.webcam.OnFrame = a.webServer.SendPreviewFrame

	if a.config.CameraType == mask.Profile {
		a.countdown = countdown.New(a.config.Countdown, a.shutter,
			countdown.WithTick(a.webServer.PublishCountdown))
		a.webServer.OnCountdownReset = a.countdown.Reset
	}

	return nil
}

// Run starts the pipeline and the dashboard, then forwards events until
// ctx is cancelled.
func (a *App) Run(ctx context.Context) error {
	a.runCtx = ctx
	a.webServer.StartAsync()

	errc := make(chan error, 1)
	go func() { errc <- a.capture.Run(ctx) }()

	// Deferred by the pipeline until it is ready
	a.capture.StartLivePreview()

	for ev := range a.capture.Events() {
		a.handleEvent(ev)
	}
	return <-errc
}

// Shutdown releases all components.
func (a *App) Shutdown() {
	if a.countdown != nil {
		a.countdown.Stop()
	}
	if a.webcam != nil {
		a.webcam.Close()
	}
	if a.detector != nil {
		a.detector.Close()
	}
	if a.webServer != nil {
		a.webServer.Shutdown()
	}
	a.logger.Info("facecam stopped")
}

func (a *App) handleEvent(ev capture.Event) {
	a.webServer.PublishEvent(ev)

	switch e := ev.(type) {
	case capture.ReadyEvent:
		a.logger.Info("camera ready", "mask", e.Mask)

	case capture.ErrorEvent:
		a.stopCountdown()
		if capture.IsDenied(e.Err) {
			a.logger.Error("camera access denied, grant access to the device and restart",
				"device", webcam.DevicePath(a.config.Camera.Device))
			return
		}
		a.logger.Error("capture error", "error", e.Err, "state", e.State)

	case capture.DetectionEvent:
		if a.countdown == nil {
			return
		}
		if e.Detection == capture.FaceDetected {
			a.countdown.Start()
		} else {
			a.countdown.Stop()
		}

	case capture.PhotoEvent:
		a.logger.Info("photo taken", "crop", e.Photo.Crop)
	}
}

// shutter fires when the countdown completes.
func (a *App) shutter() {
	if err := a.capture.TakePhoto(a.runCtx); err != nil {
		a.logger.Warn("countdown capture failed", "error", err)
	}
}

func (a *App) stopCountdown() {
	if a.countdown != nil {
		a.countdown.Stop()
	}
}
