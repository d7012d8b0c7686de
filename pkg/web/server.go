// Package web serves the facecam dashboard API: pipeline status and
// control, camera settings, captured photos, and websocket streams for
// events and the masked preview.
package web

import (
	"context"
	"log/slog"
	"sync"
	"sync/atomic"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/websocket/v2"

	"github.com/teslashibe/go-facecam/internal/log"
	"github.com/teslashibe/go-facecam/pkg/camera"
	"github.com/teslashibe/go-facecam/pkg/capture"
	"github.com/teslashibe/go-facecam/pkg/hub"
	"github.com/teslashibe/go-facecam/pkg/mask"
	"github.com/teslashibe/go-facecam/pkg/photo"
)

// Controller is the capture pipeline as seen by the dashboard.
// *capture.Component satisfies it.
type Controller interface {
	State() capture.State
	MaskRect() (mask.Rect, bool)
	Previewing() bool
	CameraType() mask.CameraType
	StartLivePreview()
	StopLivePreview()
	TakePhoto(ctx context.Context) error
}

// Options configures the server.
type Options struct {
	Port       string
	StaticDir  string // Served at / when set
	PhotoLimit int
	PhotoDir   string // Photos are also written here when set
}

// Status is the dashboard view of the pipeline.
type Status struct {
	State          string    `json:"state"`
	CameraType     string    `json:"camera_type"`
	Previewing     bool      `json:"previewing"`
	Mask           *RectJSON `json:"mask,omitempty"`
	Photos         int       `json:"photos"`
	PreviewClients int       `json:"preview_clients"`
}

// Server is the dashboard server.
type Server struct {
	app    *fiber.App
	port   string
	logger *slog.Logger

	ctrl   Controller
	cams   *camera.Manager
	photos *PhotoStore

	eventHub  *hub.Hub
	statusHub *hub.Hub
	cameraHub *hub.Hub
	cancel    context.CancelFunc

	rendering atomic.Bool

	storePhoto func(*photo.Photo) (PhotoInfo, error)
	storing    sync.WaitGroup

	// OnCountdownReset re-arms the hands-free shutter
	OnCountdownReset func()
}

// NewServer creates the dashboard server.
func NewServer(ctrl Controller, cams *camera.Manager, opts Options) *Server {
	if opts.Port == "" {
		opts.Port = "8080"
	}

	s := &Server{
		port:      opts.Port,
		logger:    log.With("component", "web"),
		ctrl:      ctrl,
		cams:      cams,
		photos:    NewPhotoStore(opts.PhotoLimit, opts.PhotoDir, cams.GetConfig().Quality),
		eventHub:  hub.New("events"),
		statusHub: hub.New("status", hub.WithReplay()),
		cameraHub: hub.New("camera"),
	}

	app := fiber.New(fiber.Config{
		AppName:               "facecam",
		DisableStartupMessage: true,
	})
	app.Use(cors.New())

	if opts.StaticDir != "" {
		app.Static("/", opts.StaticDir)
	}

	api := app.Group("/api")
	api.Get("/status", s.handleStatus)
	api.Post("/preview/start", s.handlePreviewStart)
	api.Post("/preview/stop", s.handlePreviewStop)
	api.Post("/photo", s.handleTakePhoto)
	api.Post("/countdown/reset", s.handleCountdownReset)
	api.Get("/photos", s.handleListPhotos)
	api.Get("/photos/:id", s.handleGetPhoto)
	api.Get("/camera", s.handleGetCamera)
	api.Put("/camera", s.handleUpdateCamera)
	api.Get("/camera/presets", s.handleCameraPresets)

	app.Use("/ws", func(c *fiber.Ctx) error {
		if websocket.IsWebSocketUpgrade(c) {
			return c.Next()
		}
		return fiber.ErrUpgradeRequired
	})
	app.Get("/ws/events", websocket.New(s.serveHub(s.eventHub)))
	app.Get("/ws/status", websocket.New(s.serveHub(s.statusHub)))
	app.Get("/ws/camera", websocket.New(s.serveHub(s.cameraHub)))

	s.storePhoto = s.photos.Add
	s.app = app
	return s
}

// App returns the fiber app.
func (s *Server) App() *fiber.App {
	return s.app
}

// Photos returns the photo store.
func (s *Server) Photos() *PhotoStore {
	return s.photos
}

// Start runs the hubs and serves until Shutdown.
func (s *Server) Start() error {
	ctx, cancel := context.WithCancel(context.Background())
	s.cancel = cancel

	go s.eventHub.Run(ctx)
	go s.statusHub.Run(ctx)
	go s.cameraHub.Run(ctx)

	s.logger.Info("dashboard listening", "url", "http://localhost:"+s.port)
	return s.app.Listen(":" + s.port)
}

// StartAsync runs Start in a goroutine.
func (s *Server) StartAsync() {
	go func() {
		if err := s.Start(); err != nil {
			s.logger.Error("web server stopped", "error", err)
		}
	}()
}

// Shutdown waits for pending photo writes, then stops the hubs and the
// HTTP server.
func (s *Server) Shutdown() error {
	s.storing.Wait()
	if s.cancel != nil {
		s.cancel()
	}
	return s.app.Shutdown()
}

// PublishEvent forwards a capture event to websocket clients. Photo
// events are encoded and stored in the background and broadcast once
// clients can fetch the image, so the caller never waits on disk.
func (s *Server) PublishEvent(ev capture.Event) {
	if pe, ok := ev.(capture.PhotoEvent); ok && pe.Photo != nil {
		s.storing.Add(1)
		go func() {
			defer s.storing.Done()
			s.publish(ev, s.store(pe.Photo))
		}()
		return
	}
	s.publish(ev, nil)
}

func (s *Server) store(p *photo.Photo) *PhotoInfo {
	info, err := s.storePhoto(p)
	if err != nil {
		s.logger.Error("store photo", "error", err)
		return nil
	}
	s.logger.Info("photo stored", "id", info.ID, "width", info.Width, "height", info.Height)
	return &info
}

func (s *Server) publish(ev capture.Event, stored *PhotoInfo) {
	msg := newEventMessage(ev)
	msg.Photo = stored

	if err := s.eventHub.BroadcastJSON(msg); err != nil {
		s.logger.Warn("broadcast event", "error", err)
	}

	// Detection events arrive per frame and do not change status
	if _, ok := ev.(capture.DetectionEvent); !ok {
		s.PublishStatus()
	}
}

// PublishCountdown broadcasts the seconds left before the shutter fires.
func (s *Server) PublishCountdown(remaining int) {
	s.eventHub.BroadcastJSON(countdownMessage(remaining))
}

// PublishStatus broadcasts the current status.
func (s *Server) PublishStatus() {
	s.statusHub.BroadcastJSON(s.status())
}

// SendPreviewFrame renders a sensor frame for preview clients. Frames
// arriving while the previous one renders are dropped.
func (s *Server) SendPreviewFrame(frame []byte) {
	if s.cameraHub.ClientCount() == 0 {
		return
	}
	if !s.rendering.CompareAndSwap(false, true) {
		return
	}

	cfg := s.cams.GetConfig()
	opts := PreviewOptions{
		Mirror:   cfg.Mirror,
		MaxWidth: cfg.PreviewWidth,
		Quality:  previewQuality,
		Type:     s.ctrl.CameraType(),
	}
	if r, ok := s.ctrl.MaskRect(); ok {
		opts.Mask = r
	}

	go func() {
		defer s.rendering.Store(false)
		data, err := RenderPreview(frame, opts)
		if err != nil {
			s.logger.Debug("render preview", "error", err)
			return
		}
		s.cameraHub.BroadcastBinary(data)
	}()
}

const previewQuality = 75

func (s *Server) status() Status {
	st := Status{
		State:          s.ctrl.State().String(),
		CameraType:     s.ctrl.CameraType().String(),
		Previewing:     s.ctrl.Previewing(),
		Photos:         s.photos.Len(),
		PreviewClients: s.cameraHub.ClientCount(),
	}
	if r, ok := s.ctrl.MaskRect(); ok {
		st.Mask = rectJSON(r)
	}
	return st
}

func (s *Server) serveHub(h *hub.Hub) func(*websocket.Conn) {
	return func(conn *websocket.Conn) {
		hub.NewClient(h, conn).Run()
	}
}
