package detection

import (
	"errors"
	"image"
	"math"
	"path/filepath"
	"testing"

	"github.com/teslashibe/go-facecam/pkg/mask"
)

func TestDetection_Rect(t *testing.T) {
	d := Detection{X: 0.1, Y: 0.2, W: 0.3, H: 0.4, Confidence: 0.9}
	want := mask.Rect{X: 0.1, Y: 0.2, W: 0.3, H: 0.4}
	if got := d.Rect(); got != want {
		t.Errorf("Rect: got %v, want %v", got, want)
	}
}

func TestDetection_Area(t *testing.T) {
	tests := []struct {
		name   string
		det    Detection
		expect float64
	}{
		{"quarter of image", Detection{W: 0.5, H: 0.5}, 0.25},
		{"small face", Detection{W: 0.1, H: 0.2}, 0.02},
		{"full image", Detection{W: 1.0, H: 1.0}, 1.0},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			diff := tc.det.Area() - tc.expect
			if diff < -0.0001 || diff > 0.0001 {
				t.Errorf("Area: got %.4f, want %.4f", tc.det.Area(), tc.expect)
			}
		})
	}
}

func TestByConfidence(t *testing.T) {
	dets := []Detection{
		{X: 0.1, Confidence: 0.55},
		{X: 0.2, Confidence: 0.95},
		{X: 0.3, Confidence: 0.70},
		{X: 0.4, Confidence: 0.20},
	}

	got := ByConfidence(dets, 0.5)
	if len(got) != 3 {
		t.Fatalf("ByConfidence: got %d detections, want 3", len(got))
	}
	for i, wantX := range []float64{0.2, 0.3, 0.1} {
		if got[i].X != wantX {
			t.Errorf("ByConfidence[%d]: got X=%v, want %v", i, got[i].X, wantX)
		}
	}

	if got := ByConfidence(nil, 0.5); len(got) != 0 {
		t.Errorf("ByConfidence(nil): got %v", got)
	}
}

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()

	if cfg.ModelPath == "" {
		t.Error("DefaultConfig: ModelPath should not be empty")
	}
	if cfg.ConfidenceThresh <= 0 || cfg.ConfidenceThresh > 1 {
		t.Errorf("DefaultConfig: ConfidenceThresh should be 0-1, got %f", cfg.ConfidenceThresh)
	}
	if cfg.InputWidth <= 0 || cfg.InputHeight <= 0 {
		t.Errorf("DefaultConfig: input size should be positive, got %dx%d", cfg.InputWidth, cfg.InputHeight)
	}
}

func TestFaceFromRow(t *testing.T) {
	frame := image.Pt(640, 480)

	tests := []struct {
		name string
		box  [4]float32
		want Detection
		ok   bool
	}{
		{
			name: "inside frame",
			box:  [4]float32{160, 120, 320, 240},
			want: Detection{X: 0.25, Y: 0.25, W: 0.5, H: 0.5, Confidence: 0.75},
			ok:   true,
		},
		{
			name: "clipped at origin",
			box:  [4]float32{-64, -48, 128, 96},
			want: Detection{X: 0, Y: 0, W: 0.1, H: 0.1, Confidence: 0.75},
			ok:   true,
		},
		{
			name: "clipped at far edge",
			box:  [4]float32{576, 432, 128, 96},
			want: Detection{X: 0.9, Y: 0.9, W: 0.1, H: 0.1, Confidence: 0.75},
			ok:   true,
		},
		{
			name: "entirely outside",
			box:  [4]float32{700, 10, 50, 50},
		},
		{
			name: "zero width",
			box:  [4]float32{100, 100, 0, 50},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := faceFromRow(tt.box[0], tt.box[1], tt.box[2], tt.box[3], 0.75, frame)
			if ok != tt.ok {
				t.Fatalf("ok = %v, want %v", ok, tt.ok)
			}
			if !ok {
				return
			}
			if !near(got.X, tt.want.X) || !near(got.Y, tt.want.Y) ||
				!near(got.W, tt.want.W) || !near(got.H, tt.want.H) ||
				!near(got.Confidence, tt.want.Confidence) {
				t.Errorf("got %+v, want %+v", got, tt.want)
			}
		})
	}
}

func TestFaceFromRowEmptyFrame(t *testing.T) {
	if _, ok := faceFromRow(0, 0, 10, 10, 0.9, image.Point{}); ok {
		t.Error("expected no detection for an empty frame")
	}
}

func TestYuNetMissingModel(t *testing.T) {
	cfg := DefaultConfig()
	cfg.ModelPath = filepath.Join(t.TempDir(), "missing.onnx")

	if _, err := NewYuNet(cfg); !errors.Is(err, ErrModelNotFound) {
		t.Errorf("NewYuNet() = %v, want ErrModelNotFound", err)
	}
}

func near(a, b float64) bool {
	return math.Abs(a-b) < 1e-6
}
