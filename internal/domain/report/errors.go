package report

import "errors"

var (
	// ErrInvalidInput indicates an invalid report request.
	ErrInvalidInput = errors.New("invalid report input")
	// ErrInvalidTimeZone indicates an unknown client time zone.
	ErrInvalidTimeZone = errors.New("invalid time zone")
)
