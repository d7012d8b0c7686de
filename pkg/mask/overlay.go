package mask

import (
	"image"
	"image/color"

	"github.com/disintegration/imaging"
)

// Overlay appearance
const (
	OverlayOpacity = 0.75
)

// OverlayColor is the fill used outside the cutout.
var OverlayColor = color.NRGBA{A: 255}

// Overlay returns a copy of img shaded everywhere except the mask cutout.
// Profile masks cut out the circle inscribed in rect; card masks cut out
// rect itself.
func Overlay(img image.Image, rect Rect, t CameraType) *image.NRGBA {
	b := img.Bounds()
	shade := image.NewNRGBA(image.Rect(0, 0, b.Dx(), b.Dy()))

	cx, cy := rect.X+rect.W/2, rect.Y+rect.H/2
	rad := rect.W / 2

	for y := 0; y < b.Dy(); y++ {
		for x := 0; x < b.Dx(); x++ {
			px, py := float64(x)+0.5, float64(y)+0.5
			var inside bool
			if t == Card {
				inside = px >= rect.X && px < rect.MaxX() && py >= rect.Y && py < rect.MaxY()
			} else {
				dx, dy := px-cx, py-cy
				inside = dx*dx+dy*dy <= rad*rad
			}
			if !inside {
				shade.SetNRGBA(x, y, OverlayColor)
			}
		}
	}

	return imaging.Overlay(img, shade, b.Min, OverlayOpacity)
}
