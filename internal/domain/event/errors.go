package event

import (
	"errors"
	"fmt"
)

var (
	// ErrInvalidEventID indicates an event ID that cannot be decoded.
	ErrInvalidEventID = errors.New("invalid event id")
	// ErrInvalidInput indicates invalid event input.
	ErrInvalidInput = errors.New("invalid event input")
	// ErrEventNotFound indicates the participant has no such event.
	ErrEventNotFound = errors.New("event not found")
	// ErrUpdateRejected indicates the event's update policy forbids the write.
	ErrUpdateRejected = errors.New("event update rejected")
	// ErrConcurrentUpdate indicates the write kept losing to other writers.
	ErrConcurrentUpdate = errors.New("event modified concurrently")
)

// RejectedError reports a write refused by an update policy.
type RejectedError struct {
	EventID string
	Policy  Policy
	Reason  string
}

func (e *RejectedError) Error() string {
	return fmt.Sprintf("%s %s: %s", ErrUpdateRejected, e.EventID, e.Reason)
}

func (e *RejectedError) Unwrap() error {
	return ErrUpdateRejected
}
