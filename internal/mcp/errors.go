package mcp

import (
	"errors"
	"fmt"

	"github.com/rpggio/cadence/internal/domain/adherence"
	"github.com/rpggio/cadence/internal/domain/event"
	"github.com/rpggio/cadence/internal/domain/report"
	"github.com/rpggio/cadence/internal/domain/schedule"
	"github.com/rpggio/cadence/internal/domain/timeline"
)

var (
	// ErrInvalidParams is returned when tool arguments cannot be decoded.
	ErrInvalidParams = errors.New("invalid params")
	// ErrUnknownTool is returned for a method the handler does not serve.
	ErrUnknownTool = errors.New("unknown tool")
)

// APIError represents an MCP error response.
type APIError struct {
	Code         string `json:"code"`
	Message      string `json:"message"`
	Details      any    `json:"details,omitempty"`
	RecoveryHint string `json:"recovery_hint,omitempty"`
}

func (e *APIError) Error() string {
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func (e *APIError) CodeValue() string {
	return e.Code
}

func (e *APIError) MessageValue() string {
	return e.Message
}

func (e *APIError) DetailsValue() any {
	return e.Details
}

func (e *APIError) RecoveryHintValue() string {
	return e.RecoveryHint
}

// MapError maps domain errors to MCP error codes.
func MapError(err error) *APIError {
	if err == nil {
		return nil
	}

	var rejected *event.RejectedError
	if errors.As(err, &rejected) {
		return &APIError{
			Code:    "UPDATE_REJECTED",
			Message: rejected.Error(),
			Details: map[string]any{
				"event_id":    rejected.EventID,
				"update_type": rejected.Policy,
				"reason":      rejected.Reason,
			},
			RecoveryHint: "The event's update policy does not allow this change",
		}
	}

	switch {
	case errors.Is(err, ErrInvalidParams):
		return &APIError{Code: "INVALID_PARAMS", Message: err.Error(), RecoveryHint: "Check argument names and types"}
	case errors.Is(err, ErrUnknownTool):
		return &APIError{Code: "UNKNOWN_TOOL", Message: err.Error()}
	case errors.Is(err, event.ErrInvalidEventID):
		return &APIError{Code: "INVALID_EVENT_ID", Message: err.Error(), RecoveryHint: "Use enrollment, a system event, or custom:<name>"}
	case errors.Is(err, event.ErrInvalidInput):
		return &APIError{Code: "INVALID_INPUT", Message: err.Error()}
	case errors.Is(err, event.ErrEventNotFound):
		return &APIError{Code: "EVENT_NOT_FOUND", Message: err.Error(), RecoveryHint: "List the participant's events"}
	case errors.Is(err, event.ErrConcurrentUpdate):
		return &APIError{Code: "CONFLICT", Message: "event modified concurrently", RecoveryHint: "Retry the write"}
	case errors.Is(err, schedule.ErrInvalidSchedule):
		return &APIError{Code: "INVALID_SCHEDULE", Message: err.Error(), Details: validationDetails(err), RecoveryHint: "Fix the listed fields and publish again"}
	case errors.Is(err, timeline.ErrScheduleNotFound):
		return &APIError{Code: "SCHEDULE_NOT_FOUND", Message: "no schedule published", RecoveryHint: "Call publish_schedule first"}
	case errors.Is(err, adherence.ErrInvalidRecord):
		return &APIError{Code: "INVALID_RECORD", Message: err.Error()}
	case errors.Is(err, report.ErrInvalidTimeZone):
		return &APIError{Code: "INVALID_TIME_ZONE", Message: err.Error(), RecoveryHint: "Use an IANA zone name such as America/Los_Angeles"}
	case errors.Is(err, report.ErrInvalidInput):
		return &APIError{Code: "INVALID_INPUT", Message: err.Error()}
	default:
		return nil
	}
}

func validationDetails(err error) any {
	problems := schedule.ValidationErrors(err)
	if len(problems) == 0 {
		return nil
	}
	return problems
}
