package timeline

import (
	"github.com/rpggio/cadence/internal/chrono"
)

// Metadata is one schedulable session instance in one time window. Rows are
// denormalized so evaluation never needs the schedule definition.
type Metadata struct {
	SessionInstanceGuid string           `json:"session_instance_guid"`
	ScheduleGuid        string           `json:"schedule_guid"`
	SessionGuid         string           `json:"session_guid"`
	SessionName         string           `json:"session_name"`
	SessionSymbol       string           `json:"session_symbol,omitempty"`
	TimeWindowGuid      string           `json:"time_window_guid"`
	StartEventID        string           `json:"start_event_id"`
	StudyBurstID        string           `json:"study_burst_id,omitempty"`
	StudyBurstNum       int              `json:"study_burst_num,omitempty"`
	OriginEventID       string           `json:"origin_event_id,omitempty"`
	Occurrence          int              `json:"occurrence"`
	RelativeStartDay    int              `json:"relative_start_day"`
	RelativeEndDay      *int             `json:"relative_end_day,omitempty"`
	WindowStartTime     chrono.TimeOfDay `json:"window_start_time"`
	WindowExpiration    chrono.Period    `json:"window_expiration,omitempty"`
	WindowPersistent    bool             `json:"window_persistent"`
}

// IsBurst reports whether the row is triggered by a study burst event.
func (m Metadata) IsBurst() bool {
	return m.StudyBurstID != ""
}

// Timeline is the flattened output of a schedule.
type Timeline struct {
	ScheduleGuid        string     `json:"schedule_guid"`
	Metadata            []Metadata `json:"metadata"`
	StreamStartEventIDs []string   `json:"stream_start_event_ids"`
}

// IsEmpty reports whether the timeline schedules nothing.
func (t *Timeline) IsEmpty() bool {
	return t == nil || len(t.Metadata) == 0
}

// SessionNames returns the distinct session names in row order.
func (t *Timeline) SessionNames() []string {
	if t == nil {
		return nil
	}
	seen := make(map[string]bool)
	var names []string
	for _, m := range t.Metadata {
		if seen[m.SessionGuid] {
			continue
		}
		seen[m.SessionGuid] = true
		names = append(names, m.SessionName)
	}
	return names
}
