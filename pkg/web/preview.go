package web

import (
	"bytes"
	"image"
	"math"

	"github.com/disintegration/imaging"
	xdraw "golang.org/x/image/draw"

	"github.com/teslashibe/go-facecam/pkg/mask"
	"github.com/teslashibe/go-facecam/pkg/photo"
)

// PreviewOptions controls how a sensor frame is rendered for the dashboard.
type PreviewOptions struct {
	Mirror   bool
	MaxWidth int // 0 keeps view resolution
	Quality  int
	Mask     mask.Rect // Empty draws no shade
	Type     mask.CameraType
}

// RenderPreview turns a sensor JPEG into a portrait dashboard frame with
// the mask shade drawn over it.
func RenderPreview(frame []byte, opts PreviewOptions) ([]byte, error) {
	img, err := imaging.Decode(bytes.NewReader(frame))
	if err != nil {
		return nil, err
	}

	view := photo.Reorient(img)
	if opts.Mirror {
		view = imaging.FlipH(view)
	}

	out, scale := downscale(view, opts.MaxWidth)
	if !opts.Mask.Empty() {
		out = mask.Overlay(out, opts.Mask.Scale(scale, scale), opts.Type)
	}

	return photo.EncodeBytes(out, opts.Quality)
}

// downscale shrinks img to maxWidth keeping its aspect ratio.
func downscale(img *image.NRGBA, maxWidth int) (*image.NRGBA, float64) {
	b := img.Bounds()
	if maxWidth <= 0 || b.Dx() <= maxWidth {
		return img, 1
	}

	scale := float64(maxWidth) / float64(b.Dx())
	h := int(math.Round(float64(b.Dy()) * scale))
	dst := image.NewNRGBA(image.Rect(0, 0, maxWidth, h))
	xdraw.ApproxBiLinear.Scale(dst, dst.Bounds(), img, b, xdraw.Src, nil)
	return dst, scale
}
