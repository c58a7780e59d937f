package adherence

import (
	"time"

	"cloud.google.com/go/civil"
	"github.com/rpggio/cadence/internal/domain/event"
	"github.com/rpggio/cadence/internal/domain/timeline"
)

// State is the completion state of one session instance window.
type State string

const (
	StateNotYetAvailable State = "not_yet_available"
	StateUnstarted       State = "unstarted"
	StateStarted         State = "started"
	StateCompleted       State = "completed"
	StateAbandoned       State = "abandoned"
	StateExpired         State = "expired"
	StateDeclined        State = "declined"
	StateNotApplicable   State = "not_applicable"
)

// Compliant reports whether the state counts toward adherence.
func (s State) Compliant() bool {
	return s == StateCompleted || s == StateDeclined
}

// Record is a participant's progress on one session instance.
type Record struct {
	UserID         string     `json:"user_id"`
	InstanceGuid   string     `json:"instance_guid"`
	StartedOn      *time.Time `json:"started_on,omitempty"`
	FinishedOn     *time.Time `json:"finished_on,omitempty"`
	Declined       bool       `json:"declined"`
	ClientTimeZone string     `json:"client_time_zone,omitempty"`
	UpdatedAt      time.Time  `json:"updated_at"`
}

// Input bundles everything evaluation needs for one participant.
type Input struct {
	Metadata []timeline.Metadata
	Events   []event.ActivityEvent
	Records  []Record
	Now      time.Time
	// Location places windows on the calendar. When nil each row uses the
	// offset its start event was recorded with.
	Location *time.Location
}

// Evaluation is the state of one timeline row as of Input.Now.
type Evaluation struct {
	Row   timeline.Metadata
	State State
	// Selected is false for rows whose session was activated by a different,
	// earlier start event.
	Selected       bool
	EventTimestamp *time.Time
	Start          *time.Time
	End            *time.Time
	StartDate      *civil.Date
	EndDate        *civil.Date
	Record         *Record
}

// Fired reports whether the row's start event has a timestamp.
func (e Evaluation) Fired() bool {
	return e.EventTimestamp != nil
}
