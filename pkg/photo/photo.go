// Package photo turns a raw still capture into the final cropped,
// reoriented photo.
package photo

import (
	"bytes"
	"fmt"
	"image"
	"io"
	"time"

	"github.com/disintegration/imaging"
	"github.com/rwcarlsen/goexif/exif"

	"github.com/teslashibe/go-facecam/pkg/mask"
)

// CoordinateMapping converts a rectangle in preview (view) coordinates into
// a normalized (0-1) rectangle in captured image space. It is supplied by
// the capture layer.
type CoordinateMapping interface {
	OutputRect(r mask.Rect) mask.Rect
}

// Photo is the final output of a capture.
type Photo struct {
	Image image.Image

	// Crop is the pixel rectangle taken from the decoded capture,
	// before reorientation. Equals the full image bounds when uncropped.
	Crop image.Rectangle

	// Metadata from the capture's EXIF block, zero when absent.
	TakenAt time.Time
	Model   string
}

// Process decodes raw, crops it to the mapped mask rectangle when one is
// active, and applies the fixed sensor-to-display reorientation.
func Process(raw []byte, active *mask.Rect, m CoordinateMapping) (*Photo, error) {
	// Orientation is a fixed policy; EXIF rotation must not be applied twice.
	img, err := imaging.Decode(bytes.NewReader(raw), imaging.AutoOrientation(false))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrDecodeFailure, err)
	}

	bounds := img.Bounds()
	crop := bounds

	if active != nil && m != nil {
		norm := m.OutputRect(*active)
		px := norm.Scale(float64(bounds.Dx()), float64(bounds.Dy())).Image().Add(bounds.Min)
		crop = px.Intersect(bounds)
		if crop.Empty() {
			return nil, fmt.Errorf("%w: %v not in %v", ErrEmptyCrop, px, bounds)
		}
		img = imaging.Crop(img, crop)
	}

	p := &Photo{
		Image: Reorient(img),
		Crop:  crop,
	}
	readMetadata(bytes.NewReader(raw), p)

	return p, nil
}

// Reorient rotates a sensor-oriented image 90° clockwise for display.
func Reorient(img image.Image) *image.NRGBA {
	return imaging.Rotate270(img)
}

// readMetadata fills EXIF-derived fields. Missing or malformed EXIF is not
// an error; most webcam JPEGs carry none.
func readMetadata(r io.Reader, p *Photo) {
	x, err := exif.Decode(r)
	if err != nil {
		return
	}
	if t, err := x.DateTime(); err == nil {
		p.TakenAt = t
	}
	if tag, err := x.Get(exif.Model); err == nil {
		if s, err := tag.StringVal(); err == nil {
			p.Model = s
		}
	}
}

// Encode writes img as JPEG at the given quality (1-100).
func Encode(w io.Writer, img image.Image, quality int) error {
	return imaging.Encode(w, img, imaging.JPEG, imaging.JPEGQuality(quality))
}

// EncodeBytes is Encode into a new byte slice.
func EncodeBytes(img image.Image, quality int) ([]byte, error) {
	var buf bytes.Buffer
	if err := Encode(&buf, img, quality); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
