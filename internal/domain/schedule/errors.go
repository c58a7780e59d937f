package schedule

import (
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrInvalidSchedule indicates a malformed schedule definition.
	ErrInvalidSchedule = errors.New("invalid schedule")
)

// ValidationError identifies the schedule element that failed validation.
type ValidationError struct {
	SessionGuid string `json:"session_guid,omitempty"`
	WindowGuid  string `json:"window_guid,omitempty"`
	BurstID     string `json:"burst_id,omitempty"`
	Field       string `json:"field"`
	Reason      string `json:"reason"`
}

func (e *ValidationError) Error() string {
	var where []string
	if e.SessionGuid != "" {
		where = append(where, "session "+e.SessionGuid)
	}
	if e.WindowGuid != "" {
		where = append(where, "window "+e.WindowGuid)
	}
	if e.BurstID != "" {
		where = append(where, "study burst "+e.BurstID)
	}
	if len(where) == 0 {
		return fmt.Sprintf("%s: %s %s", ErrInvalidSchedule, e.Field, e.Reason)
	}
	return fmt.Sprintf("%s: %s: %s %s", ErrInvalidSchedule, strings.Join(where, ", "), e.Field, e.Reason)
}

func (e *ValidationError) Unwrap() error {
	return ErrInvalidSchedule
}

// ValidationErrors extracts every *ValidationError joined into err.
func ValidationErrors(err error) []*ValidationError {
	var out []*ValidationError
	var walk func(error)
	walk = func(e error) {
		if e == nil {
			return
		}
		if ve, ok := e.(*ValidationError); ok {
			out = append(out, ve)
			return
		}
		if joined, ok := e.(interface{ Unwrap() []error }); ok {
			for _, inner := range joined.Unwrap() {
				walk(inner)
			}
			return
		}
		walk(errors.Unwrap(e))
	}
	walk(err)
	return out
}
