package geoloc

import "errors"

var (
	// ErrInvalidGrid is returned when the geolocation grid variables are
	// inconsistent or not strictly increasing along their axes.
	ErrInvalidGrid = errors.New("invalid geolocation grid")

	// ErrLengthMismatch is returned by pointwise conversions when the
	// coordinate slices differ in length.
	ErrLengthMismatch = errors.New("coordinate slices differ in length")
)
