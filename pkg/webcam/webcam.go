// Package webcam implements the capture platform on a local video device
// through OpenCV. Sensor frames are landscape; the view is the frame
// rotated 90° clockwise, optionally mirrored.
package webcam

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"sync"
	"time"

	"gocv.io/x/gocv"

	"github.com/teslashibe/go-facecam/internal/log"
	"github.com/teslashibe/go-facecam/pkg/camera"
	"github.com/teslashibe/go-facecam/pkg/capture"
	"github.com/teslashibe/go-facecam/pkg/debug"
	"github.com/teslashibe/go-facecam/pkg/detection"
	"github.com/teslashibe/go-facecam/pkg/mask"
)

// maxMisses is how many consecutive failed reads end a running session.
const maxMisses = 30

var (
	errNotConfigured = errors.New("webcam: device not configured")
	errNoFrame       = errors.New("webcam: no frame available")
)

// Camera drives one OpenCV video device.
type Camera struct {
	detector detection.Detector
	logger   *slog.Logger

	mu      sync.RWMutex
	cfg     camera.Config
	vc      *gocv.VideoCapture
	frameW  int
	frameH  int
	running bool
	stop    chan struct{}
	wg      sync.WaitGroup

	frameMu     sync.RWMutex
	latest      []byte
	frameReady  chan struct{}
	runtimeErrs chan error

	// OnFrame receives every sensor frame as JPEG while the session runs.
	OnFrame func(jpeg []byte)
}

// New creates a camera. detector may be nil for card sessions.
func New(cfg camera.Config, detector detection.Detector) *Camera {
	return &Camera{
		cfg:         cfg,
		detector:    detector,
		logger:      log.With("component", "webcam", "device", cfg.Device),
		frameReady:  make(chan struct{}, 1),
		runtimeErrs: make(chan error, 1),
	}
}

// DevicePath returns the V4L2 node for a device index.
func DevicePath(device int) string {
	return fmt.Sprintf("/dev/video%d", device)
}

// Config returns the active configuration.
func (c *Camera) Config() camera.Config {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.cfg
}

// RequestAccess checks that the process may open the device node.
// Platforms without V4L2 nodes are treated as granted.
func (c *Camera) RequestAccess(ctx context.Context) (bool, error) {
	f, err := os.Open(DevicePath(c.Config().Device))
	switch {
	case err == nil:
		f.Close()
		return true, nil
	case errors.Is(err, fs.ErrPermission):
		c.logger.Warn("camera access denied", "path", DevicePath(c.Config().Device))
		return false, nil
	case errors.Is(err, fs.ErrNotExist):
		return true, nil
	default:
		return false, err
	}
}

// Configure opens the device and reads one frame for its real size.
func (c *Camera) Configure(ctx context.Context, pos camera.Position) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if pos != c.cfg.Position {
		c.logger.Warn("requested position differs from configured device",
			"requested", pos, "configured", c.cfg.Position)
	}
	return c.openLocked()
}

func (c *Camera) openLocked() error {
	vc, err := gocv.OpenVideoCapture(c.cfg.Device)
	if err != nil {
		return fmt.Errorf("%w: open device %d: %v", capture.ErrUnsupportedDevice, c.cfg.Device, err)
	}
	if !vc.IsOpened() {
		vc.Close()
		return fmt.Errorf("%w: device %d not opened", capture.ErrUnsupportedDevice, c.cfg.Device)
	}

	vc.Set(gocv.VideoCaptureFrameWidth, float64(c.cfg.Width))
	vc.Set(gocv.VideoCaptureFrameHeight, float64(c.cfg.Height))
	vc.Set(gocv.VideoCaptureFPS, float64(c.cfg.Framerate))

	first := gocv.NewMat()
	defer first.Close()
	if ok := vc.Read(&first); !ok || first.Empty() {
		vc.Close()
		return fmt.Errorf("%w: device %d produced no frame", capture.ErrUnsupportedDevice, c.cfg.Device)
	}

	c.vc = vc
	c.frameW = first.Cols()
	c.frameH = first.Rows()
	c.logger.Info("device configured", "width", c.frameW, "height", c.frameH, "fps", c.cfg.Framerate)
	return nil
}

// Apply swaps the configuration, reopening the device if it was open and
// resuming a running session. Suitable for camera.Manager.OnConfigChange.
// A session that cannot be resumed is reported on RuntimeErrors.
func (c *Camera) Apply(cfg camera.Config) error {
	wasRunning := c.Running()
	if wasRunning {
		c.StopSession()
	}

	c.mu.Lock()
	c.cfg = cfg
	var err error
	if c.vc != nil || wasRunning {
		if c.vc != nil {
			c.vc.Close()
			c.vc = nil
		}
		err = c.openLocked()
	}
	c.mu.Unlock()

	if err == nil && wasRunning {
		err = c.StartSession()
	}
	if err != nil && wasRunning {
		c.fail(fmt.Errorf("apply config: %w", err))
	}
	return err
}

// StartSession starts the grab loop. Starting a running session is a no-op.
func (c *Camera) StartSession() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.running {
		return nil
	}
	if c.vc == nil {
		return errNotConfigured
	}

	c.resetFrames()
	c.running = true
	c.stop = make(chan struct{})
	c.wg.Add(1)
	go c.grabLoop(c.vc, c.stop, c.cfg)
	return nil
}

// StopSession stops the grab loop and drops the last frame. Stopping a
// stopped session is a no-op.
func (c *Camera) StopSession() error {
	c.mu.Lock()
	if !c.running {
		c.mu.Unlock()
		c.resetFrames()
		return nil
	}
	c.running = false
	close(c.stop)
	c.mu.Unlock()

	c.wg.Wait()
	c.resetFrames()
	return nil
}

// resetFrames forgets the cached frame so stills and detection only see
// frames from the current session.
func (c *Camera) resetFrames() {
	c.frameMu.Lock()
	c.latest = nil
	c.frameMu.Unlock()

	select {
	case <-c.frameReady:
	default:
	}
}

// Running reports whether the grab loop is active.
func (c *Camera) Running() bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.running
}

// RuntimeErrors reports a session that died while running.
func (c *Camera) RuntimeErrors() <-chan error {
	return c.runtimeErrs
}

func (c *Camera) grabLoop(vc *gocv.VideoCapture, stop <-chan struct{}, cfg camera.Config) {
	defer c.wg.Done()

	img := gocv.NewMat()
	defer img.Close()

	ticker := time.NewTicker(time.Second / time.Duration(cfg.Framerate))
	defer ticker.Stop()

	misses := 0
	for {
		select {
		case <-stop:
			return
		case <-ticker.C:
		}

		if ok := vc.Read(&img); !ok || img.Empty() {
			misses++
			if misses >= maxMisses {
				c.fail(fmt.Errorf("device %d: %d consecutive empty reads", cfg.Device, misses))
				return
			}
			continue
		}
		misses = 0

		buf, err := gocv.IMEncodeWithParams(gocv.JPEGFileExt, img, []int{int(gocv.IMWriteJpegQuality), cfg.Quality})
		if err != nil {
			c.logger.Warn("encode frame", "error", err)
			continue
		}
		frame := bytes.Clone(buf.GetBytes())
		buf.Close()

		c.frameMu.Lock()
		c.latest = frame
		c.frameMu.Unlock()
		select {
		case c.frameReady <- struct{}{}:
		default:
		}

		if c.OnFrame != nil {
			c.OnFrame(frame)
		}
	}
}

// fail marks the session dead and reports once.
func (c *Camera) fail(err error) {
	c.mu.Lock()
	c.running = false
	c.mu.Unlock()
	c.resetFrames()

	select {
	case c.runtimeErrs <- err:
	default:
	}
}

// Bounds returns the portrait view bounds; zero until configured.
func (c *Camera) Bounds() mask.Rect {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return camera.ViewBounds(c.frameW, c.frameH)
}

// OutputRect maps a view rectangle to normalized sensor coordinates.
func (c *Camera) OutputRect(r mask.Rect) mask.Rect {
	c.mu.RLock()
	m := camera.SensorMapping{View: camera.ViewBounds(c.frameW, c.frameH), Mirror: c.cfg.Mirror}
	c.mu.RUnlock()
	return m.OutputRect(r)
}

// LatestFrame returns the newest sensor JPEG, or nil.
func (c *Camera) LatestFrame() []byte {
	c.frameMu.RLock()
	defer c.frameMu.RUnlock()
	return c.latest
}

// CaptureStill returns the next available sensor frame.
func (c *Camera) CaptureStill(ctx context.Context) ([]byte, error) {
	if !c.Running() {
		return nil, errNotConfigured
	}
	if frame := c.LatestFrame(); frame != nil {
		return bytes.Clone(frame), nil
	}
	select {
	case <-c.frameReady:
		if frame := c.LatestFrame(); frame != nil {
			return bytes.Clone(frame), nil
		}
		return nil, errNoFrame
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

// Faces runs the detector on the latest frame DetectionFPS times a second
// and streams face rectangles in view coordinates until ctx is done.
func (c *Camera) Faces(ctx context.Context) (<-chan []mask.Rect, error) {
	if c.detector == nil {
		return nil, errors.New("webcam: no face detector")
	}

	out := make(chan []mask.Rect)

	go func() {
		defer close(out)

		fps := c.Config().DetectionFPS
		ticker := time.NewTicker(detectionInterval(fps))
		defer ticker.Stop()

		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
			}

			// Follow rate and mirror changes made through Apply
			cfg := c.Config()
			if cfg.DetectionFPS != fps {
				fps = cfg.DetectionFPS
				ticker.Reset(detectionInterval(fps))
			}

			frame := c.LatestFrame()
			if frame == nil {
				continue
			}

			dets, err := c.detector.Detect(frame)
			if err != nil {
				debug.FrameLog("detect failed", "error", err)
				continue
			}

			faces := ViewFaces(dets, c.Bounds(), cfg.Mirror)
			select {
			case out <- faces:
			case <-ctx.Done():
				return
			}
		}
	}()

	return out, nil
}

func detectionInterval(fps int) time.Duration {
	if fps <= 0 {
		fps = camera.DefaultConfig().DetectionFPS
	}
	return time.Second / time.Duration(fps)
}

// ViewFaces converts sensor detections to view rectangles.
func ViewFaces(dets []detection.Detection, view mask.Rect, mirror bool) []mask.Rect {
	faces := make([]mask.Rect, 0, len(dets))
	for _, d := range dets {
		faces = append(faces, camera.SensorToView(d.Rect(), view, mirror))
	}
	return faces
}

// Close stops the session and releases the device.
func (c *Camera) Close() error {
	c.StopSession()

	c.mu.Lock()
	defer c.mu.Unlock()
	if c.vc != nil {
		err := c.vc.Close()
		c.vc = nil
		return err
	}
	return nil
}
