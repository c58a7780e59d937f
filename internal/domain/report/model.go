package report

import (
	"time"

	"cloud.google.com/go/civil"
	"github.com/rpggio/cadence/internal/chrono"
	"github.com/rpggio/cadence/internal/domain/adherence"
	"github.com/rpggio/cadence/internal/domain/event"
	"github.com/rpggio/cadence/internal/domain/timeline"
)

// Progression classifies how far a participant is through the study.
type Progression string

const (
	ProgressionNoSchedule Progression = "no_schedule"
	ProgressionInProgress Progression = "in_progress"
	ProgressionDone       Progression = "done"
)

// AdherenceState is everything a study report is computed from.
type AdherenceState struct {
	Timeline *timeline.Timeline
	Events   []event.ActivityEvent
	Records  []adherence.Record
	Now      time.Time
	// Location is the participant's zone. When nil the zone of the study
	// start event is used.
	Location *time.Location
	// StudyStartEventID names the event week 0 starts from. When empty or
	// unfired the earliest fired event is used.
	StudyStartEventID string
}

// DateRange is an inclusive calendar range.
type DateRange struct {
	Start civil.Date `json:"start_date"`
	End   civil.Date `json:"end_date"`
}

// WeekRow is one session line in a week, used for list displays.
type WeekRow struct {
	Label           string `json:"label"`
	SearchableLabel string `json:"searchable_label"`
	SessionGuid     string `json:"session_guid"`
	SessionName     string `json:"session_name"`
	SessionSymbol   string `json:"session_symbol,omitempty"`
	StartEventID    string `json:"start_event_id"`
	StudyBurstID    string `json:"study_burst_id,omitempty"`
	StudyBurstNum   int    `json:"study_burst_num,omitempty"`
	WeekInStudy     int    `json:"week_in_study"`
}

// Week is the participant's Nth week of study participation.
type Week struct {
	WeekInStudy      int                                `json:"week_in_study"`
	StartDate        civil.Date                         `json:"start_date"`
	AdherencePercent int                                `json:"adherence_percent"`
	ByDayEntries     map[int][]adherence.EventStreamDay `json:"by_day_entries"`
	Rows             []WeekRow                          `json:"rows"`
	SearchableLabels []string                           `json:"searchable_labels"`
}

// NextActivity is the earliest window that has not opened yet.
type NextActivity struct {
	SessionGuid   string           `json:"session_guid"`
	SessionName   string           `json:"session_name"`
	SessionSymbol string           `json:"session_symbol,omitempty"`
	StartEventID  string           `json:"start_event_id"`
	StudyBurstID  string           `json:"study_burst_id,omitempty"`
	StudyBurstNum int              `json:"study_burst_num,omitempty"`
	WeekInStudy   int              `json:"week_in_study"`
	StartDate     civil.Date       `json:"start_date"`
	StartTime     chrono.TimeOfDay `json:"start_time"`
}

// StudyReport is a participant's whole study, bucketed by week.
type StudyReport struct {
	Timestamp           time.Time            `json:"timestamp"`
	ClientTimeZone      string               `json:"client_time_zone,omitempty"`
	StudyStartEventID   string               `json:"study_start_event_id,omitempty"`
	Progression         Progression          `json:"progression"`
	AdherencePercent    int                  `json:"adherence_percent"`
	DateRange           *DateRange           `json:"date_range,omitempty"`
	Weeks               []Week               `json:"weeks"`
	CurrentWeek         *Week                `json:"current_week,omitempty"`
	NextActivity        *NextActivity        `json:"next_activity,omitempty"`
	UnsetEventIDs       []string             `json:"unset_event_ids"`
	UnscheduledSessions []string             `json:"unscheduled_session_names"`
	EventTimestamps     map[string]time.Time `json:"event_timestamps"`
}
