// Package capture drives a camera platform through permission, device
// configuration and live preview, turns face metadata into detection events
// against the mask, and delivers cropped photos.
package capture

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/teslashibe/go-facecam/internal/log"
	"github.com/teslashibe/go-facecam/pkg/camera"
	"github.com/teslashibe/go-facecam/pkg/debug"
	"github.com/teslashibe/go-facecam/pkg/mask"
	"github.com/teslashibe/go-facecam/pkg/match"
)

// Option configures a Component.
type Option func(*Component)

// WithCameraType sets the mask shape. Profile sessions attach the face
// metadata stream; card sessions do not.
func WithCameraType(t mask.CameraType) Option {
	return func(c *Component) { c.camType = t }
}

// WithPosition selects the physical camera.
func WithPosition(p camera.Position) Option {
	return func(c *Component) { c.position = p }
}

// WithLogger replaces the component logger.
func WithLogger(l *slog.Logger) Option {
	return func(c *Component) { c.logger = l }
}

// WithLayoutInterval sets how often the view bounds are checked for a
// change while the pipeline is ready.
func WithLayoutInterval(d time.Duration) Option {
	return func(c *Component) { c.layoutInterval = d }
}

// WithEventBuffer sets the event channel capacity.
func WithEventBuffer(n int) Option {
	return func(c *Component) { c.eventBuffer = n }
}

type photoRequest struct {
	reply chan error
}

type captureResult struct {
	event Event
}

// Component owns one capture pipeline. All state lives in the Run
// goroutine; public methods post to it.
type Component struct {
	platform       Platform
	camType        mask.CameraType
	position       camera.Position
	logger         *slog.Logger
	eventBuffer    int
	layoutInterval time.Duration

	inputs   chan Input
	requests chan photoRequest
	captured chan captureResult
	events   chan Event
	done     chan struct{}
	started  atomic.Bool

	// Loop-owned
	machine    Machine
	frames     <-chan []mask.Rect
	stopFrames context.CancelFunc
	inFlight   bool
	lastBounds mask.Rect
	region     mask.Rect

	// Snapshots for observers
	mu       sync.RWMutex
	state    State
	snapMask mask.Rect
	preview  bool
}

// New creates a component. Call Run to start it.
func New(p Platform, opts ...Option) *Component {
	c := &Component{
		platform:       p,
		camType:        mask.Profile,
		position:       camera.PositionFront,
		eventBuffer:    64,
		layoutInterval: 250 * time.Millisecond,
		inputs:         make(chan Input, 16),
		requests:       make(chan photoRequest),
		captured:       make(chan captureResult, 1),
		done:           make(chan struct{}),
	}
	for _, opt := range opts {
		opt(c)
	}
	if c.logger == nil {
		c.logger = log.With("component", "capture", "type", c.camType.String())
	}
	if c.layoutInterval <= 0 {
		c.layoutInterval = 250 * time.Millisecond
	}
	c.events = make(chan Event, c.eventBuffer)
	return c
}

// Events returns the component's notification channel. It is closed when
// Run returns. A consumer that stops reading stalls the pipeline.
func (c *Component) Events() <-chan Event {
	return c.events
}

// CameraType returns the mask shape in use.
func (c *Component) CameraType() mask.CameraType {
	return c.camType
}

// State returns the current pipeline state.
func (c *Component) State() State {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.state
}

// MaskRect returns the current mask, false until the view has bounds.
func (c *Component) MaskRect() (mask.Rect, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.snapMask, !c.snapMask.Empty()
}

// Previewing reports whether live preview is running.
func (c *Component) Previewing() bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.preview
}

// StartLivePreview starts the session, or defers it until the pipeline is
// ready. Calling it while already previewing has no effect.
func (c *Component) StartLivePreview() {
	c.post(Input{Kind: StartRequested})
}

// StopLivePreview stops the session. Calling it while stopped has no effect.
func (c *Component) StopLivePreview() {
	c.post(Input{Kind: StopRequested})
}

// TakePhoto requests one still capture. It returns once the request is
// accepted or rejected; the photo arrives later as a PhotoEvent.
// It fails with ErrSessionNotRunning, without emitting anything, when the
// session is not running.
func (c *Component) TakePhoto(ctx context.Context) error {
	if !c.started.Load() {
		return ErrSessionNotRunning
	}
	req := photoRequest{reply: make(chan error, 1)}
	select {
	case c.requests <- req:
	case <-c.done:
		return ErrSessionNotRunning
	case <-ctx.Done():
		return ctx.Err()
	}
	select {
	case err := <-req.reply:
		return err
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (c *Component) post(in Input) {
	select {
	case c.inputs <- in:
	case <-c.done:
	}
}

// Run requests camera access, configures the device and processes inputs
// until ctx is cancelled. The session is stopped on return.
func (c *Component) Run(ctx context.Context) error {
	if !c.started.CompareAndSwap(false, true) {
		return ErrAlreadyRunning
	}
	defer close(c.events)
	defer close(c.done)

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	go c.prepare(ctx)

	runtimeErrs := c.platform.RuntimeErrors()

	layout := time.NewTicker(c.layoutInterval)
	defer layout.Stop()

	for {
		select {
		case <-ctx.Done():
			c.stopPreview()
			return nil

		case <-layout.C:
			// Card sessions have no metadata frames to trigger this
			if c.machine.State == StateReady {
				c.currentMask()
			}

		case in := <-c.inputs:
			c.apply(ctx, in)

		case err, ok := <-runtimeErrs:
			if !ok {
				runtimeErrs = nil
				continue
			}
			c.logger.Warn("session runtime error", "error", err)
			c.apply(ctx, Input{Kind: RuntimeFailed, Err: fmt.Errorf("%w: %v", ErrUndefined, err)})

		case faces, ok := <-c.frames:
			if !ok {
				c.frames = nil
				continue
			}
			c.handleFrame(ctx, faces)

		case req := <-c.requests:
			req.reply <- c.beginCapture(ctx)

		case res := <-c.captured:
			c.inFlight = false
			c.emit(ctx, res.event)
		}
	}
}

// prepare asks for access, then configures the device. Configuration is
// skipped when access is refused so only one error is reported.
func (c *Component) prepare(ctx context.Context) {
	granted, err := c.platform.RequestAccess(ctx)
	switch {
	case err != nil:
		c.post(Input{Kind: ConfigureFailed, Err: classify(err)})
		return
	case !granted:
		c.post(Input{Kind: PermissionDenied})
		return
	}
	c.post(Input{Kind: PermissionGranted})

	if err := c.platform.Configure(ctx, c.position); err != nil {
		c.post(Input{Kind: ConfigureFailed, Err: classify(err)})
		return
	}
	c.post(Input{Kind: DeviceConfigured})
}

func (c *Component) apply(ctx context.Context, in Input) {
	prev := c.machine.State
	next, effects := c.machine.Next(in)
	c.machine = next

	if next.State != prev {
		c.logger.Info("state changed", "from", prev, "to", next.State, "input", in.Kind)
	}
	c.snapshot()

	for _, eff := range effects {
		switch eff.Kind {
		case NotifyReady:
			region, _ := c.currentMask()
			c.emit(ctx, ReadyEvent{Mask: region})

		case NotifyError:
			c.logger.Error("capture failed", "error", eff.Err, "state", c.machine.State)
			c.emit(ctx, ErrorEvent{Err: eff.Err, State: c.machine.State})

		case StartPreview:
			if err := c.startPreview(ctx); err != nil {
				// The failure transition stops the session and reports once
				c.apply(ctx, Input{Kind: PreviewFailed, Err: err})
				return
			}

		case StopPreview:
			c.stopPreview()
		}
	}
}

func (c *Component) startPreview(ctx context.Context) error {
	if err := c.platform.StartSession(); err != nil {
		return fmt.Errorf("%w: %v", ErrVideoNotConfigured, err)
	}

	if c.camType == mask.Profile && c.frames == nil {
		fctx, stop := context.WithCancel(ctx)
		frames, err := c.platform.Faces(fctx)
		if err != nil {
			stop()
			return fmt.Errorf("%w: face metadata unavailable: %v", ErrUndefined, err)
		}
		c.frames = frames
		c.stopFrames = stop
	}

	c.logger.Info("live preview started")
	return nil
}

func (c *Component) stopPreview() {
	if c.stopFrames != nil {
		c.stopFrames()
		c.stopFrames = nil
	}
	c.frames = nil

	if !c.platform.Running() {
		return
	}
	if err := c.platform.StopSession(); err != nil {
		c.logger.Warn("stop session", "error", err)
		return
	}
	c.logger.Info("live preview stopped")
}

// currentMask recomputes the mask when the view bounds changed.
func (c *Component) currentMask() (mask.Rect, bool) {
	bounds := c.platform.Bounds()
	if bounds != c.lastBounds {
		c.lastBounds = bounds
		c.region = mask.Compute(bounds, c.camType)
		c.logger.Debug("mask recomputed", "bounds", bounds, "mask", c.region)
		c.snapshot()
	}
	return c.region, !c.region.Empty()
}

func (c *Component) handleFrame(ctx context.Context, faces []mask.Rect) {
	ev := DetectionEvent{Detection: NoFaceDetected, Faces: len(faces)}

	// Without a mask the verdict is always "no face"
	if region, ok := c.currentMask(); ok {
		ev.Inside = match.CountInside(faces, region)
		if match.AllInside(faces, region) {
			ev.Detection = FaceDetected
		}
	}

	debug.FrameLog("metadata frame", "faces", ev.Faces, "inside", ev.Inside, "detection", ev.Detection)
	c.emit(ctx, ev)
}

func (c *Component) beginCapture(ctx context.Context) error {
	if !c.platform.Running() {
		c.logger.Warn("cannot take photo, capture session is not running")
		return ErrSessionNotRunning
	}
	if c.inFlight {
		return ErrCaptureInFlight
	}
	c.inFlight = true

	shot := CapturedPhoto{}
	if region, ok := c.currentMask(); ok {
		shot.Mask = &region
	}

	go func() {
		res := captureResult{event: c.capture(ctx, shot)}
		select {
		case c.captured <- res:
		case <-ctx.Done():
		}
	}()

	return nil
}

// capture runs off the loop goroutine.
func (c *Component) capture(ctx context.Context, shot CapturedPhoto) Event {
	raw, err := c.platform.CaptureStill(ctx)
	if err != nil {
		return ErrorEvent{Err: fmt.Errorf("%w: capture still: %v", ErrUndefined, err), State: c.State()}
	}
	shot.Raw = raw

	p, err := shot.Process(c.platform)
	if err != nil {
		return ErrorEvent{Err: err, State: c.State()}
	}

	c.logger.Info("photo captured", "bytes", len(raw), "crop", p.Crop)
	return PhotoEvent{Photo: p, Mask: shot.Mask}
}

func (c *Component) emit(ctx context.Context, ev Event) {
	select {
	case c.events <- ev:
	case <-ctx.Done():
	}
}

func (c *Component) snapshot() {
	c.mu.Lock()
	c.state = c.machine.State
	c.snapMask = c.region
	c.preview = c.machine.Previewing
	c.mu.Unlock()
}
