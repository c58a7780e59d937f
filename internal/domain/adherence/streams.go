package adherence

import (
	"sort"
	"time"

	"cloud.google.com/go/civil"
	"github.com/rpggio/cadence/internal/chrono"
)

// EventStreamWindow is one evaluated time window on a day.
type EventStreamWindow struct {
	SessionInstanceGuid string            `json:"session_instance_guid"`
	TimeWindowGuid      string            `json:"time_window_guid"`
	State               State             `json:"state"`
	StartDate           *civil.Date       `json:"start_date,omitempty"`
	StartTime           chrono.TimeOfDay  `json:"start_time"`
	EndDate             *civil.Date       `json:"end_date,omitempty"`
	EndTime             *chrono.TimeOfDay `json:"end_time,omitempty"`
	Persistent          bool              `json:"persistent"`
}

// EventStreamDay holds one session's windows on one day of a stream.
type EventStreamDay struct {
	SessionGuid   string              `json:"session_guid"`
	SessionName   string              `json:"session_name"`
	SessionSymbol string              `json:"session_symbol,omitempty"`
	StartEventID  string              `json:"start_event_id"`
	Week          int                 `json:"week"`
	StudyBurstID  string              `json:"study_burst_id,omitempty"`
	StudyBurstNum int                 `json:"study_burst_num,omitempty"`
	StartDay      int                 `json:"start_day"`
	StartDate     *civil.Date         `json:"start_date,omitempty"`
	TimeWindows   []EventStreamWindow `json:"time_windows"`
}

// EventStream is every day scheduled from one start event.
type EventStream struct {
	StartEventID            string                   `json:"start_event_id"`
	EventTimestamp          *time.Time               `json:"event_timestamp,omitempty"`
	DaysSinceEventTimestamp *int                     `json:"days_since_event_timestamp,omitempty"`
	StudyBurstID            string                   `json:"study_burst_id,omitempty"`
	StudyBurstNum           int                      `json:"study_burst_num,omitempty"`
	AdherencePercent        int                      `json:"adherence_percent"`
	ByDayEntries            map[int][]EventStreamDay `json:"by_day_entries"`
}

// DayRange is an inclusive range of relative days.
type DayRange struct {
	Min int `json:"min"`
	Max int `json:"max"`
}

// EventStreamReport is a participant's adherence grouped by start event.
type EventStreamReport struct {
	Timestamp            time.Time     `json:"timestamp"`
	ClientTimeZone       string        `json:"client_time_zone,omitempty"`
	AdherencePercent     int           `json:"adherence_percent"`
	ActiveOnly           bool          `json:"active_only"`
	DayRangeOfAllStreams *DayRange     `json:"day_range_of_all_streams,omitempty"`
	Streams              []EventStream `json:"streams"`
}

// EvaluateEventStreams evaluates in and groups the result by start event.
// With showActive only windows that are open or past are shown and scored.
func EvaluateEventStreams(in Input, showActive bool) *EventStreamReport {
	evals := Evaluate(in)

	report := &EventStreamReport{
		Timestamp:        in.Now,
		AdherencePercent: CalculatePercent(evals, showActive),
		ActiveOnly:       showActive,
		Streams:          []EventStream{},
	}
	if in.Location != nil {
		report.ClientTimeZone = in.Location.String()
	}

	var order []string
	byStream := make(map[string][]Evaluation)
	for _, ev := range evals {
		if !visible(ev, showActive) {
			continue
		}
		key := ev.Row.StartEventID
		if _, ok := byStream[key]; !ok {
			order = append(order, key)
		}
		byStream[key] = append(byStream[key], ev)
	}

	for _, key := range order {
		rows := byStream[key]
		first := rows[0]
		stream := EventStream{
			StartEventID:     key,
			EventTimestamp:   first.EventTimestamp,
			StudyBurstID:     first.Row.StudyBurstID,
			StudyBurstNum:    first.Row.StudyBurstNum,
			AdherencePercent: CalculatePercent(rows, showActive),
			ByDayEntries: GroupDays(rows, func(ev Evaluation) []DayKey {
				first := ev.Row.RelativeStartDay
				last := first + RecurringDays(ev, in.Now, in.Location)
				keys := make([]DayKey, 0, last-first+1)
				for d := first; d <= last; d++ {
					keys = append(keys, DayKey{Day: d, Week: chrono.FloorDiv(d, 7)})
				}
				return keys
			}),
		}
		if first.EventTimestamp != nil {
			loc := in.Location
			if loc == nil {
				loc = first.EventTimestamp.Location()
			}
			days := chrono.DateOf(in.Now, loc).DaysSince(chrono.DateOf(*first.EventTimestamp, loc))
			stream.DaysSinceEventTimestamp = &days
		}
		for day := range stream.ByDayEntries {
			if report.DayRangeOfAllStreams == nil {
				report.DayRangeOfAllStreams = &DayRange{Min: day, Max: day}
				continue
			}
			report.DayRangeOfAllStreams.Min = min(report.DayRangeOfAllStreams.Min, day)
			report.DayRangeOfAllStreams.Max = max(report.DayRangeOfAllStreams.Max, day)
		}
		report.Streams = append(report.Streams, stream)
	}
	return report
}

func visible(ev Evaluation, showActive bool) bool {
	if !ev.Selected {
		return false
	}
	if showActive {
		return ev.State != StateNotYetAvailable && ev.State != StateNotApplicable
	}
	return true
}

// CalculatePercent is the share of applicable windows completed or declined,
// rounded down. Not-selected and unfired rows never count; with activeOnly,
// windows that have not opened yet do not count either. No applicable
// windows means 100.
func CalculatePercent(evals []Evaluation, activeOnly bool) int {
	var compliant, total int
	for _, ev := range evals {
		if !ev.Selected || ev.State == StateNotApplicable {
			continue
		}
		if activeOnly && ev.State == StateNotYetAvailable {
			continue
		}
		total++
		if ev.State.Compliant() {
			compliant++
		}
	}
	if total == 0 {
		return 100
	}
	return compliant * 100 / total
}

// DayKey is a report day an evaluation is listed under.
type DayKey struct {
	Day  int
	Week int
}

// RecurringDays is how many days after its start date ev is listed again. A
// persistent window that has opened recurs on every calendar day up to and
// including the day of now; every other window is listed once. loc is the
// zone the window was placed in, nil meaning the start event's zone.
func RecurringDays(ev Evaluation, now time.Time, loc *time.Location) int {
	if !ev.Selected || !ev.Row.WindowPersistent || ev.Start == nil || now.Before(*ev.Start) {
		return 0
	}
	if loc == nil {
		loc = ev.EventTimestamp.Location()
	}
	return max(chrono.DateOf(now, loc).DaysSince(*ev.StartDate), 0)
}

// GroupDays buckets evaluations by the day keys returned from at. Rows of the
// same session, burst occurrence and start day share one entry per day;
// windows in an entry are sorted by start and end, unknown dates last.
func GroupDays(evals []Evaluation, at func(Evaluation) []DayKey) map[int][]EventStreamDay {
	type entryKey struct {
		day      int
		session  string
		burstID  string
		burstNum int
		startDay int
	}
	out := make(map[int][]EventStreamDay)
	index := make(map[entryKey]int)

	for _, ev := range evals {
		for _, dk := range at(ev) {
			key := entryKey{dk.Day, ev.Row.SessionGuid, ev.Row.StudyBurstID, ev.Row.StudyBurstNum, ev.Row.RelativeStartDay}
			i, ok := index[key]
			if !ok {
				i = len(out[dk.Day])
				index[key] = i
				out[dk.Day] = append(out[dk.Day], EventStreamDay{
					SessionGuid:   ev.Row.SessionGuid,
					SessionName:   ev.Row.SessionName,
					SessionSymbol: ev.Row.SessionSymbol,
					StartEventID:  ev.Row.StartEventID,
					Week:          dk.Week,
					StudyBurstID:  ev.Row.StudyBurstID,
					StudyBurstNum: ev.Row.StudyBurstNum,
					StartDay:      ev.Row.RelativeStartDay,
					StartDate:     ev.StartDate,
				})
			}
			out[dk.Day][i].TimeWindows = append(out[dk.Day][i].TimeWindows, windowOf(ev))
		}
	}

	for _, entries := range out {
		for i := range entries {
			sortWindows(entries[i].TimeWindows)
		}
	}
	return out
}

func windowOf(ev Evaluation) EventStreamWindow {
	w := EventStreamWindow{
		SessionInstanceGuid: ev.Row.SessionInstanceGuid,
		TimeWindowGuid:      ev.Row.TimeWindowGuid,
		State:               ev.State,
		StartDate:           ev.StartDate,
		StartTime:           ev.Row.WindowStartTime,
		EndDate:             ev.EndDate,
		Persistent:          ev.Row.WindowPersistent,
	}
	if ev.End != nil {
		endTime := chrono.TimeOfDayOf(*ev.End)
		w.EndTime = &endTime
	}
	return w
}

func sortWindows(windows []EventStreamWindow) {
	sort.SliceStable(windows, func(i, j int) bool {
		a, b := windows[i], windows[j]
		if c := compareDates(a.StartDate, b.StartDate); c != 0 {
			return c < 0
		}
		if c := a.StartTime.Compare(b.StartTime); c != 0 {
			return c < 0
		}
		if c := compareDates(a.EndDate, b.EndDate); c != 0 {
			return c < 0
		}
		if c := compareTimes(a.EndTime, b.EndTime); c != 0 {
			return c < 0
		}
		return a.TimeWindowGuid < b.TimeWindowGuid
	})
}

// compareDates orders nil after every date.
func compareDates(a, b *civil.Date) int {
	switch {
	case a == nil && b == nil:
		return 0
	case a == nil:
		return 1
	case b == nil:
		return -1
	case a.Before(*b):
		return -1
	case a.After(*b):
		return 1
	}
	return 0
}

func compareTimes(a, b *chrono.TimeOfDay) int {
	switch {
	case a == nil && b == nil:
		return 0
	case a == nil:
		return 1
	case b == nil:
		return -1
	}
	return a.Compare(*b)
}
