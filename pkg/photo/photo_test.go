package photo

import (
	"bytes"
	"image"
	"image/color"
	"image/png"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/teslashibe/go-facecam/pkg/mask"
)

var (
	red   = color.NRGBA{R: 255, A: 255}
	green = color.NRGBA{G: 255, A: 255}
	blue  = color.NRGBA{B: 255, A: 255}
	white = color.NRGBA{R: 255, G: 255, B: 255, A: 255}
)

// quadrants builds a w x h PNG with red, green, blue, white quadrants
// (top-left, top-right, bottom-left, bottom-right).
func quadrants(t *testing.T, w, h int) []byte {
	t.Helper()
	img := image.NewNRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			c := white
			switch {
			case x < w/2 && y < h/2:
				c = red
			case x >= w/2 && y < h/2:
				c = green
			case x < w/2:
				c = blue
			}
			img.SetNRGBA(x, y, c)
		}
	}
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, img))
	return buf.Bytes()
}

// pixelMapping normalizes view rects against a fixed image size, with no
// rotation between the two spaces.
type pixelMapping struct{ w, h float64 }

func (m pixelMapping) OutputRect(r mask.Rect) mask.Rect {
	return mask.Rect{X: r.X / m.w, Y: r.Y / m.h, W: r.W / m.w, H: r.H / m.h}
}

func nrgbaAt(img image.Image, x, y int) color.NRGBA {
	return color.NRGBAModel.Convert(img.At(x, y)).(color.NRGBA)
}

func TestProcess_NoMaskReturnsRotatedOriginal(t *testing.T) {
	raw := quadrants(t, 40, 20)

	p, err := Process(raw, nil, pixelMapping{40, 20})
	require.NoError(t, err)

	b := p.Image.Bounds()
	assert.Equal(t, 20, b.Dx(), "width becomes source height")
	assert.Equal(t, 40, b.Dy(), "height becomes source width")
	assert.Equal(t, image.Rect(0, 0, 40, 20), p.Crop)

	// 90° clockwise: source top-left lands top-right, bottom-left lands top-left
	assert.Equal(t, red, nrgbaAt(p.Image, 19, 0))
	assert.Equal(t, blue, nrgbaAt(p.Image, 0, 0))
	assert.Equal(t, green, nrgbaAt(p.Image, 19, 39))
	assert.Equal(t, white, nrgbaAt(p.Image, 0, 39))
}

func TestProcess_CropsToMappedMask(t *testing.T) {
	raw := quadrants(t, 40, 20)
	rect := mask.Rect{X: 20, Y: 10, W: 20, H: 10} // bottom-right quadrant

	p, err := Process(raw, &rect, pixelMapping{40, 20})
	require.NoError(t, err)

	assert.Equal(t, image.Rect(20, 10, 40, 20), p.Crop)
	b := p.Image.Bounds()
	assert.Equal(t, 10, b.Dx())
	assert.Equal(t, 20, b.Dy())

	for _, pt := range []image.Point{{0, 0}, {9, 19}, {5, 10}} {
		assert.Equal(t, white, nrgbaAt(p.Image, pt.X, pt.Y), "pixel %v", pt)
	}
}

func TestProcess_ClampsCropToImage(t *testing.T) {
	raw := quadrants(t, 40, 20)
	rect := mask.Rect{X: 30, Y: -5, W: 20, H: 10}

	p, err := Process(raw, &rect, pixelMapping{40, 20})
	require.NoError(t, err)
	assert.Equal(t, image.Rect(30, 0, 40, 5), p.Crop)
}

func TestProcess_EmptyCrop(t *testing.T) {
	raw := quadrants(t, 40, 20)
	rect := mask.Rect{X: 100, Y: 100, W: 10, H: 10}

	p, err := Process(raw, &rect, pixelMapping{40, 20})
	assert.ErrorIs(t, err, ErrEmptyCrop)
	assert.Nil(t, p)
}

func TestProcess_DecodeFailure(t *testing.T) {
	tests := []struct {
		name string
		raw  []byte
	}{
		{"nil", nil},
		{"garbage", []byte("definitely not a jpeg")},
		{"truncated png", quadrants(t, 8, 8)[:20]},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			rect := mask.Rect{W: 1, H: 1}
			p, err := Process(tc.raw, &rect, pixelMapping{1, 1})
			assert.ErrorIs(t, err, ErrDecodeFailure)
			assert.Nil(t, p)
		})
	}
}

func TestProcess_NoExifLeavesMetadataZero(t *testing.T) {
	p, err := Process(quadrants(t, 4, 4), nil, nil)
	require.NoError(t, err)
	assert.True(t, p.TakenAt.IsZero())
	assert.Empty(t, p.Model)
}

func TestEncodeBytes(t *testing.T) {
	img := image.NewNRGBA(image.Rect(0, 0, 16, 8))
	data, err := EncodeBytes(img, 80)
	require.NoError(t, err)

	cfg, format, err := image.DecodeConfig(bytes.NewReader(data))
	require.NoError(t, err)
	assert.Equal(t, "jpeg", format)
	assert.Equal(t, 16, cfg.Width)
	assert.Equal(t, 8, cfg.Height)
}
