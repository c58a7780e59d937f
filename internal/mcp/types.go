package mcp

import (
	"time"

	"github.com/rpggio/cadence/internal/domain/adherence"
	"github.com/rpggio/cadence/internal/domain/event"
	"github.com/rpggio/cadence/internal/domain/schedule"
	"github.com/rpggio/cadence/internal/domain/timeline"
)

type RecordEventParams struct {
	UserID         string    `json:"user_id"`
	EventID        string    `json:"event_id"`
	Timestamp      time.Time `json:"timestamp"`
	ClientTimeZone string    `json:"client_time_zone,omitempty"`
}

type DeleteEventParams struct {
	UserID  string `json:"user_id"`
	EventID string `json:"event_id"`
}

type ListEventsParams struct {
	UserID string `json:"user_id"`
}

type GetEventHistoryParams struct {
	UserID  string `json:"user_id"`
	EventID string `json:"event_id,omitempty"`
	Limit   int    `json:"limit,omitempty"`
	Offset  int    `json:"offset,omitempty"`
}

type PublishScheduleParams struct {
	// Definition is the schedule written as YAML or JSON.
	Definition string `json:"definition"`
}

type GetTimelineParams struct {
	IncludeSchedule bool `json:"include_schedule,omitempty"`
}

type AdherenceRecordParams struct {
	InstanceGuid   string     `json:"instance_guid"`
	StartedOn      *time.Time `json:"started_on,omitempty"`
	FinishedOn     *time.Time `json:"finished_on,omitempty"`
	Declined       bool       `json:"declined,omitempty"`
	ClientTimeZone string     `json:"client_time_zone,omitempty"`
}

type UpdateAdherenceRecordsParams struct {
	UserID  string                  `json:"user_id"`
	Records []AdherenceRecordParams `json:"records"`
}

type ListAdherenceRecordsParams struct {
	UserID string `json:"user_id"`
}

type AdherenceReportParams struct {
	UserID            string     `json:"user_id"`
	Now               *time.Time `json:"now,omitempty"`
	ClientTimeZone    string     `json:"client_time_zone,omitempty"`
	ShowActive        bool       `json:"show_active,omitempty"`
	StudyStartEventID string     `json:"study_start_event_id,omitempty"`
}

type DeleteEventResult struct {
	UserID  string `json:"user_id"`
	EventID string `json:"event_id"`
	Deleted bool   `json:"deleted"`
}

type EventListResult struct {
	Events []event.ActivityEvent `json:"events"`
}

type EventHistoryResult struct {
	Entries []event.HistoryEntry `json:"entries"`
}

type PublishScheduleResult struct {
	Schedule *schedule.Schedule `json:"schedule"`
	Timeline *timeline.Timeline `json:"timeline"`
}

type TimelineResult struct {
	Timeline *timeline.Timeline `json:"timeline"`
	Schedule *schedule.Schedule `json:"schedule,omitempty"`
}

type AdherenceRecordsResult struct {
	Records []adherence.Record `json:"records"`
}
