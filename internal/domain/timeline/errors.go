package timeline

import "errors"

var (
	// ErrScheduleNotFound indicates no schedule has been published for the study.
	ErrScheduleNotFound = errors.New("schedule not found")
)
