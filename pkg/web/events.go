package web

import (
	"time"

	"github.com/teslashibe/go-facecam/pkg/capture"
	"github.com/teslashibe/go-facecam/pkg/mask"
)

// RectJSON is a mask rectangle in view pixels.
type RectJSON struct {
	X      float64 `json:"x"`
	Y      float64 `json:"y"`
	Width  float64 `json:"width"`
	Height float64 `json:"height"`
}

func rectJSON(r mask.Rect) *RectJSON {
	if r.Empty() {
		return nil
	}
	return &RectJSON{X: r.X, Y: r.Y, Width: r.W, Height: r.H}
}

// EventMessage is the JSON form of a capture event on /ws/events.
type EventMessage struct {
	Type      string     `json:"type"` // ready, error, detection, photo, countdown
	Time      time.Time  `json:"time"`
	State     string     `json:"state,omitempty"`
	Error     string     `json:"error,omitempty"`
	Denied    bool       `json:"denied,omitempty"`
	Detection string     `json:"detection,omitempty"`
	Faces     int        `json:"faces,omitempty"`
	Inside    int        `json:"inside,omitempty"`
	Mask      *RectJSON  `json:"mask,omitempty"`
	Photo     *PhotoInfo `json:"photo,omitempty"`
	Remaining *int       `json:"remaining,omitempty"`
}

// newEventMessage converts a capture event. Photo events get their
// stored info attached by the caller.
func newEventMessage(ev capture.Event) EventMessage {
	msg := EventMessage{Time: time.Now()}
	switch e := ev.(type) {
	case capture.ReadyEvent:
		msg.Type = "ready"
		msg.Mask = rectJSON(e.Mask)
	case capture.ErrorEvent:
		msg.Type = "error"
		msg.State = e.State.String()
		msg.Denied = capture.IsDenied(e.Err)
		if e.Err != nil {
			msg.Error = e.Err.Error()
		}
	case capture.DetectionEvent:
		msg.Type = "detection"
		msg.Detection = e.Detection.String()
		msg.Faces = e.Faces
		msg.Inside = e.Inside
	case capture.PhotoEvent:
		msg.Type = "photo"
		if e.Mask != nil {
			msg.Mask = rectJSON(*e.Mask)
		}
	}
	return msg
}

func countdownMessage(remaining int) EventMessage {
	return EventMessage{Type: "countdown", Time: time.Now(), Remaining: &remaining}
}
