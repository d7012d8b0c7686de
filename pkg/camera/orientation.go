package camera

import "github.com/teslashibe/go-facecam/pkg/mask"

// The sensor delivers landscape frames; the preview shows them rotated 90°
// clockwise so the view is portrait. A sensor pixel (xs, ys) lands at view
// (Hs-ys, xs).

// ViewBounds returns the portrait view bounds for a sensor frame size.
func ViewBounds(sensorW, sensorH int) mask.Rect {
	return mask.Rect{W: float64(sensorH), H: float64(sensorW)}
}

// SensorToView converts a normalized sensor rectangle (0-1) into view
// coordinates. mirror flips the result horizontally.
func SensorToView(r mask.Rect, view mask.Rect, mirror bool) mask.Rect {
	n := mask.Rect{X: 1 - r.Y - r.H, Y: r.X, W: r.H, H: r.W}
	if mirror {
		n.X = 1 - n.X - n.W
	}
	return mask.Rect{
		X: view.X + n.X*view.W,
		Y: view.Y + n.Y*view.H,
		W: n.W * view.W,
		H: n.H * view.H,
	}
}

// SensorMapping converts view rectangles into normalized sensor
// rectangles, the inverse of SensorToView.
type SensorMapping struct {
	View   mask.Rect
	Mirror bool
}

// OutputRect maps a view rectangle to normalized sensor coordinates.
func (m SensorMapping) OutputRect(r mask.Rect) mask.Rect {
	if m.View.Empty() {
		return mask.Rect{}
	}
	n := mask.Rect{
		X: (r.X - m.View.X) / m.View.W,
		Y: (r.Y - m.View.Y) / m.View.H,
		W: r.W / m.View.W,
		H: r.H / m.View.H,
	}
	if m.Mirror {
		n.X = 1 - n.X - n.W
	}
	return mask.Rect{X: n.Y, Y: 1 - n.X - n.W, W: n.H, H: n.W}
}
