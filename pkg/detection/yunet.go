package detection

import (
	"errors"
	"fmt"
	"image"
	"io/fs"
	"os"
	"sync"

	"gocv.io/x/gocv"

	"github.com/teslashibe/go-facecam/pkg/debug"
)

// yunetTopK caps candidates kept before non-maximum suppression.
const yunetTopK = 5000

// YuNet output columns: box (x, y, w, h) in pixels, ten landmark
// coordinates, then the score.
const (
	colX     = 0
	colY     = 1
	colW     = 2
	colH     = 3
	colScore = 14
)

// ErrModelNotFound is returned when the ONNX model file is missing.
var ErrModelNotFound = errors.New("detection: model not found")

// YuNetDetector finds faces with OpenCV's FaceDetectorYN. Inference is
// serialized; the network input is resized only when the frame size changes.
type YuNetDetector struct {
	cfg Config

	mu    sync.Mutex
	net   gocv.FaceDetectorYN
	input image.Point
}

// NewYuNet loads the model at cfg.ModelPath.
func NewYuNet(cfg Config) (*YuNetDetector, error) {
	if _, err := os.Stat(cfg.ModelPath); errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("%w: %s", ErrModelNotFound, cfg.ModelPath)
	}

	input := image.Pt(cfg.InputWidth, cfg.InputHeight)
	net := gocv.NewFaceDetectorYNWithParams(
		cfg.ModelPath, "",
		input,
		float32(cfg.ConfidenceThresh),
		float32(cfg.NMSThresh),
		yunetTopK,
		int(gocv.NetBackendDefault),
		int(gocv.NetTargetCPU),
	)
	return &YuNetDetector{cfg: cfg, net: net, input: input}, nil
}

// Detect decodes a sensor JPEG and returns the faces in it, most
// confident first.
func (d *YuNetDetector) Detect(jpeg []byte) ([]Detection, error) {
	if len(jpeg) == 0 {
		return nil, errors.New("detection: empty frame")
	}
	img, err := gocv.IMDecode(jpeg, gocv.IMReadColor)
	if err != nil {
		return nil, fmt.Errorf("decode frame: %w", err)
	}
	defer img.Close()
	return d.DetectMat(img)
}

// DetectMat runs the network on an already decoded BGR frame.
func (d *YuNetDetector) DetectMat(img gocv.Mat) ([]Detection, error) {
	if img.Empty() {
		return nil, errors.New("detection: empty frame")
	}
	size := image.Pt(img.Cols(), img.Rows())

	d.mu.Lock()
	defer d.mu.Unlock()

	if size != d.input {
		d.net.SetInputSize(size)
		d.input = size
	}

	out := gocv.NewMat()
	defer out.Close()
	d.net.Detect(img, &out)

	dets := make([]Detection, 0, out.Rows())
	for r := 0; r < out.Rows(); r++ {
		det, ok := faceFromRow(
			out.GetFloatAt(r, colX), out.GetFloatAt(r, colY),
			out.GetFloatAt(r, colW), out.GetFloatAt(r, colH),
			out.GetFloatAt(r, colScore),
			size,
		)
		if ok {
			dets = append(dets, det)
		}
	}
	if len(dets) > 0 {
		debug.FrameLog("yunet faces", "count", len(dets), "width", size.X, "height", size.Y)
	}
	return ByConfidence(dets, d.cfg.ConfidenceThresh), nil
}

// faceFromRow normalizes one pixel-space box against the frame size. Boxes
// that spill past the frame edge are clipped; boxes left with no area are
// dropped.
func faceFromRow(x, y, w, h, score float32, frame image.Point) (Detection, bool) {
	if frame.X <= 0 || frame.Y <= 0 {
		return Detection{}, false
	}
	fw, fh := float64(frame.X), float64(frame.Y)

	x0 := clamp01(float64(x) / fw)
	y0 := clamp01(float64(y) / fh)
	x1 := clamp01(float64(x+w) / fw)
	y1 := clamp01(float64(y+h) / fh)
	if x1 <= x0 || y1 <= y0 {
		return Detection{}, false
	}
	return Detection{
		X:          x0,
		Y:          y0,
		W:          x1 - x0,
		H:          y1 - y0,
		Confidence: float64(score),
	}, true
}

func clamp01(v float64) float64 {
	switch {
	case v < 0:
		return 0
	case v > 1:
		return 1
	}
	return v
}

// Close releases the network.
func (d *YuNetDetector) Close() error {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.net.Close()
	return nil
}
