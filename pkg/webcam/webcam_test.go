package webcam

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/teslashibe/go-facecam/pkg/camera"
	"github.com/teslashibe/go-facecam/pkg/capture"
	"github.com/teslashibe/go-facecam/pkg/detection"
	"github.com/teslashibe/go-facecam/pkg/mask"
)

func TestDevicePath(t *testing.T) {
	if got := DevicePath(2); got != "/dev/video2" {
		t.Errorf("DevicePath(2) = %q", got)
	}
}

func TestViewFaces(t *testing.T) {
	view := mask.Rect{W: 720, H: 1280}
	dets := []detection.Detection{
		{X: 0, Y: 0, W: 0.5, H: 0.5, Confidence: 0.9},
		{X: 0.25, Y: 0.25, W: 0.5, H: 0.5, Confidence: 0.8},
	}

	tests := []struct {
		name   string
		mirror bool
		want   []mask.Rect
	}{
		{
			name: "unmirrored",
			want: []mask.Rect{
				{X: 360, Y: 0, W: 360, H: 640},
				{X: 180, Y: 320, W: 360, H: 640},
			},
		},
		{
			name:   "mirrored",
			mirror: true,
			want: []mask.Rect{
				{X: 0, Y: 0, W: 360, H: 640},
				{X: 180, Y: 320, W: 360, H: 640},
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := ViewFaces(dets, view, tt.mirror)
			if len(got) != len(tt.want) {
				t.Fatalf("got %d faces, want %d", len(got), len(tt.want))
			}
			for i := range got {
				if got[i] != tt.want[i] {
					t.Errorf("face %d = %v, want %v", i, got[i], tt.want[i])
				}
			}
		})
	}
}

func TestViewFacesEmpty(t *testing.T) {
	got := ViewFaces(nil, mask.Rect{W: 720, H: 1280}, false)
	if got == nil || len(got) != 0 {
		t.Errorf("ViewFaces(nil) = %v, want empty non-nil slice", got)
	}
}

func TestUnconfiguredCamera(t *testing.T) {
	cfg := camera.DefaultConfig()
	cfg.Device = 99
	c := New(cfg, nil)

	if !c.Bounds().Empty() {
		t.Errorf("Bounds() = %v before configure, want empty", c.Bounds())
	}
	if c.Running() {
		t.Error("Running() = true before start")
	}
	if err := c.StartSession(); err == nil {
		t.Error("StartSession() succeeded without a device")
	}
	if _, err := c.CaptureStill(context.Background()); err == nil {
		t.Error("CaptureStill() succeeded without a session")
	}
	if _, err := c.Faces(context.Background()); err == nil {
		t.Error("Faces() succeeded without a detector")
	}
	if err := c.StopSession(); err != nil {
		t.Errorf("StopSession() = %v, want nil", err)
	}
	if err := c.Close(); err != nil {
		t.Errorf("Close() = %v, want nil", err)
	}
}

func TestRequestAccessMissingNode(t *testing.T) {
	cfg := camera.DefaultConfig()
	cfg.Device = 99
	c := New(cfg, nil)

	granted, err := c.RequestAccess(context.Background())
	if err != nil {
		t.Fatalf("RequestAccess() error = %v", err)
	}
	if !granted {
		t.Error("missing node should defer to Configure")
	}
}

func TestStopSessionDropsCachedFrame(t *testing.T) {
	cfg := camera.DefaultConfig()
	cfg.Device = 99
	c := New(cfg, nil)

	// A frame left over from an earlier session
	c.latest = []byte{0xFF, 0xD8}
	c.frameReady <- struct{}{}

	if err := c.StopSession(); err != nil {
		t.Fatalf("StopSession() = %v", err)
	}
	if c.LatestFrame() != nil {
		t.Error("cached frame survived StopSession")
	}
	if len(c.frameReady) != 0 {
		t.Error("frame-ready token survived StopSession")
	}
}

func TestApplyFailureReportsRuntimeError(t *testing.T) {
	cfg := camera.DefaultConfig()
	cfg.Device = 99
	c := New(cfg, nil)

	// Session live as far as the pipeline knows
	c.running = true
	c.stop = make(chan struct{})
	c.latest = []byte{0xFF, 0xD8}

	next := cfg
	next.Width, next.Height = 640, 480
	err := c.Apply(next)
	if !errors.Is(err, capture.ErrUnsupportedDevice) {
		t.Fatalf("Apply() = %v, want ErrUnsupportedDevice", err)
	}
	if c.Running() {
		t.Error("session still marked running after failed reopen")
	}
	if c.Config().Width != 640 {
		t.Errorf("config not applied: width %d", c.Config().Width)
	}
	if c.LatestFrame() != nil {
		t.Error("stale frame kept after failed reopen")
	}

	select {
	case rerr := <-c.RuntimeErrors():
		if !errors.Is(rerr, capture.ErrUnsupportedDevice) {
			t.Errorf("runtime error = %v", rerr)
		}
	case <-time.After(time.Second):
		t.Fatal("failed reopen was not reported on RuntimeErrors")
	}
}

func TestApplyWhileStoppedOnlyStoresConfig(t *testing.T) {
	cfg := camera.DefaultConfig()
	c := New(cfg, nil)

	next := cfg
	next.DetectionFPS = 5
	if err := c.Apply(next); err != nil {
		t.Fatalf("Apply() = %v", err)
	}
	if c.Config().DetectionFPS != 5 {
		t.Errorf("DetectionFPS = %d, want 5", c.Config().DetectionFPS)
	}
	select {
	case err := <-c.RuntimeErrors():
		t.Errorf("unexpected runtime error %v", err)
	default:
	}
}

func TestDetectionInterval(t *testing.T) {
	tests := []struct {
		fps  int
		want time.Duration
	}{
		{10, 100 * time.Millisecond},
		{5, 200 * time.Millisecond},
		{0, 100 * time.Millisecond},
	}
	for _, tt := range tests {
		if got := detectionInterval(tt.fps); got != tt.want {
			t.Errorf("detectionInterval(%d) = %v, want %v", tt.fps, got, tt.want)
		}
	}
}
