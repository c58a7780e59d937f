package event

import (
	"context"
	"time"
)

// HistoryAction is what happened to an event.
type HistoryAction string

const (
	HistoryRecorded HistoryAction = "recorded"
	HistoryDeleted  HistoryAction = "deleted"
)

// HistoryEntry is one accepted change to a participant's event.
type HistoryEntry struct {
	ID             int64         `json:"id"`
	UserID         string        `json:"user_id"`
	EventID        string        `json:"event_id"`
	Action         HistoryAction `json:"action"`
	Timestamp      time.Time     `json:"timestamp"`
	Policy         Policy        `json:"update_type"`
	ClientTimeZone string        `json:"client_time_zone,omitempty"`
	CreatedAt      time.Time     `json:"created_at"`
}

// HistoryOptions filters a history listing.
type HistoryOptions struct {
	EventID string
	Limit   int
	Offset  int
}

// HistoryRepository stores the event change log, newest first on List.
type HistoryRepository interface {
	Append(ctx context.Context, tenantID string, entry *HistoryEntry) error
	List(ctx context.Context, tenantID, userID string, opts HistoryOptions) ([]HistoryEntry, error)
}
