// Package mask computes the region of interest a user is asked to frame
// their face (or a card) inside, and draws the guide overlay around it.
package mask

import "fmt"

// CameraType selects the mask shape and hence the crop geometry.
type CameraType int

const (
	// Profile is a circular face guide (bounding square for containment).
	Profile CameraType = iota
	// Card is a 5:4 landscape rectangle for ID cards.
	Card
)

// String returns the type name.
func (t CameraType) String() string {
	switch t {
	case Profile:
		return "profile"
	case Card:
		return "card"
	default:
		return fmt.Sprintf("CameraType(%d)", int(t))
	}
}

// ParseCameraType parses "profile" or "card".
func ParseCameraType(s string) (CameraType, error) {
	switch s {
	case "profile", "":
		return Profile, nil
	case "card":
		return Card, nil
	}
	return Profile, fmt.Errorf("unknown camera type: %q", s)
}

// Shape ratios
const (
	cardWidthRatio   = 0.7
	cardAspect       = 4.0 / 5.0 // height / width
	profileSideRatio = 0.8
)

// Compute returns the mask rectangle for the given view bounds.
// The result is always contained in bounds; degenerate bounds yield the
// zero Rect.
func Compute(bounds Rect, t CameraType) Rect {
	if bounds.Empty() {
		return Rect{}
	}

	var w, h float64
	switch t {
	case Card:
		w = bounds.W * cardWidthRatio
		h = w * cardAspect
	default:
		w = bounds.W * profileSideRatio
		h = w
	}

	// Landscape bounds: shrink uniformly so the shape still fits vertically
	if h > bounds.H {
		scale := bounds.H / h
		w *= scale
		h = bounds.H
	}

	return Rect{
		X: bounds.X + (bounds.W-w)/2,
		Y: bounds.Y + (bounds.H-h)/2,
		W: w,
		H: h,
	}
}
