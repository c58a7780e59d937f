package event

import "time"

// ActivityEvent is the single timestamp a participant has for one event ID.
type ActivityEvent struct {
	UserID         string    `json:"user_id"`
	EventID        string    `json:"event_id"`
	Timestamp      time.Time `json:"timestamp"`
	Policy         Policy    `json:"update_type"`
	ClientTimeZone string    `json:"client_time_zone,omitempty"`
	CreatedOn      time.Time `json:"created_on"`
}

// IsSet reports whether the event carries a usable timestamp.
func (e ActivityEvent) IsSet() bool {
	return !e.Timestamp.IsZero()
}

// Timestamps indexes events by ID, skipping events without a usable timestamp.
func Timestamps(events []ActivityEvent) map[string]time.Time {
	out := make(map[string]time.Time, len(events))
	for _, ev := range events {
		if ev.EventID == "" || !ev.IsSet() {
			continue
		}
		out[ev.EventID] = ev.Timestamp
	}
	return out
}
