package photo

import "errors"

var (
	// ErrDecodeFailure is returned when the captured bytes are not a
	// decodable image. No partial image is returned alongside it.
	ErrDecodeFailure = errors.New("photo: decode failure")

	// ErrEmptyCrop is returned when the mapped mask misses the image.
	ErrEmptyCrop = errors.New("photo: crop outside image")
)
