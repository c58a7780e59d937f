package schedule

import (
	"github.com/rpggio/cadence/internal/chrono"
	"github.com/rpggio/cadence/internal/domain/event"
)

// PerformanceOrder controls how a session's assessments are presented.
type PerformanceOrder string

const (
	OrderSequential PerformanceOrder = "sequential"
	OrderRandomized PerformanceOrder = "randomized"
)

// Schedule is one published version of a study's schedule definition.
type Schedule struct {
	Guid        string        `json:"guid" yaml:"guid"`
	Name        string        `json:"name" yaml:"name"`
	Duration    chrono.Period `json:"duration,omitempty" yaml:"duration,omitempty"`
	Sessions    []Session     `json:"sessions" yaml:"sessions"`
	StudyBursts []StudyBurst  `json:"study_bursts,omitempty" yaml:"study_bursts,omitempty"`
}

// Session is a set of assessments offered in one or more time windows,
// repeating relative to its start events or study bursts.
type Session struct {
	Guid             string           `json:"guid" yaml:"guid"`
	Name             string           `json:"name" yaml:"name"`
	Symbol           string           `json:"symbol,omitempty" yaml:"symbol,omitempty"`
	StartEventIDs    []string         `json:"start_event_ids,omitempty" yaml:"start_event_ids,omitempty"`
	StudyBurstIDs    []string         `json:"study_burst_ids,omitempty" yaml:"study_burst_ids,omitempty"`
	Delay            chrono.Period    `json:"delay,omitempty" yaml:"delay,omitempty"`
	Interval         chrono.Period    `json:"interval,omitempty" yaml:"interval,omitempty"`
	Occurrences      int              `json:"occurrences,omitempty" yaml:"occurrences,omitempty"`
	PerformanceOrder PerformanceOrder `json:"performance_order,omitempty" yaml:"performance_order,omitempty"`
	TimeWindows      []TimeWindow     `json:"time_windows" yaml:"time_windows"`
}

// TimeWindow is the daily interval in which a session instance can be done.
type TimeWindow struct {
	Guid       string           `json:"guid" yaml:"guid"`
	StartTime  chrono.TimeOfDay `json:"start_time" yaml:"start_time"`
	Expiration chrono.Period    `json:"expiration,omitempty" yaml:"expiration,omitempty"`
	Persistent bool             `json:"persistent,omitempty" yaml:"persistent,omitempty"`
}

// StudyBurst fires a fixed number of synthetic events after its origin event.
type StudyBurst struct {
	Identifier    string        `json:"identifier" yaml:"identifier"`
	OriginEventID string        `json:"origin_event_id" yaml:"origin_event_id"`
	Delay         chrono.Period `json:"delay,omitempty" yaml:"delay,omitempty"`
	Interval      chrono.Period `json:"interval" yaml:"interval"`
	Occurrences   int           `json:"occurrences" yaml:"occurrences"`
	UpdateType    event.Policy  `json:"update_type,omitempty" yaml:"update_type,omitempty"`
}

// Burst returns the burst with the given identifier.
func (s Schedule) Burst(id string) (StudyBurst, bool) {
	for _, b := range s.StudyBursts {
		if b.Identifier == id {
			return b, true
		}
	}
	return StudyBurst{}, false
}

// BurstConfigs converts the schedule's bursts for the event model. Origin
// event ids are put in canonical form so they compare equal to stored events.
func (s Schedule) BurstConfigs() []event.BurstConfig {
	configs := make([]event.BurstConfig, 0, len(s.StudyBursts))
	for _, b := range s.StudyBursts {
		origin := b.OriginEventID
		if id, err := event.Parse(origin); err == nil {
			origin = id.String()
		}
		policy := b.UpdateType
		if policy == "" {
			policy = event.PolicyImmutable
		}
		configs = append(configs, event.BurstConfig{
			ID:            b.Identifier,
			OriginEventID: origin,
			Delay:         b.Delay,
			Interval:      b.Interval,
			Occurrences:   b.Occurrences,
			Policy:        policy,
		})
	}
	return configs
}
