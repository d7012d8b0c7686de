// Package match decides whether detected faces sit inside the mask region.
package match

import "github.com/teslashibe/go-facecam/pkg/mask"

// AllInside reports whether every face is contained in region, edges
// included. An empty face set or a degenerate region is never a match.
// Every face is evaluated; there is no early exit.
func AllInside(faces []mask.Rect, region mask.Rect) bool {
	if region.Empty() {
		return false
	}

	inside := len(faces) > 0
	for _, f := range faces {
		inside = region.Contains(f) && inside
	}
	return inside
}

// CountInside returns how many faces are contained in region.
func CountInside(faces []mask.Rect, region mask.Rect) int {
	if region.Empty() {
		return 0
	}
	n := 0
	for _, f := range faces {
		if region.Contains(f) {
			n++
		}
	}
	return n
}
