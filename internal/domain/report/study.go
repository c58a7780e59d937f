package report

import (
	"fmt"
	"sort"
	"strconv"
	"time"

	"cloud.google.com/go/civil"
	"github.com/rpggio/cadence/internal/chrono"
	"github.com/rpggio/cadence/internal/domain/adherence"
	"github.com/rpggio/cadence/internal/domain/event"
)

const daysPerWeek = 7

// BuildStudyReport evaluates the participant's timeline and arranges it into
// study weeks. Weeks without any scheduled window are left out.
func BuildStudyReport(st AdherenceState) *StudyReport {
	report := &StudyReport{
		Timestamp:           st.Now,
		Progression:         ProgressionNoSchedule,
		AdherencePercent:    100,
		Weeks:               []Week{},
		UnsetEventIDs:       []string{},
		UnscheduledSessions: []string{},
		EventTimestamps:     map[string]time.Time{},
	}
	if st.Location != nil {
		report.ClientTimeZone = st.Location.String()
	}
	if st.Timeline.IsEmpty() {
		return report
	}

	timestamps := event.Timestamps(st.Events)
	startID, startTs, hasStart := studyStart(st.StudyStartEventID, timestamps)
	loc := st.Location
	if loc == nil {
		loc = time.UTC
		if hasStart {
			loc = startTs.Location()
		}
	}
	report.StudyStartEventID = startID

	evals := adherence.Evaluate(adherence.Input{
		Metadata: st.Timeline.Metadata,
		Events:   st.Events,
		Records:  st.Records,
		Now:      st.Now,
		Location: loc,
	})

	report.AdherencePercent = adherence.CalculatePercent(evals, true)
	report.Progression = progression(evals, st.Now)
	report.EventTimestamps = referencedTimestamps(st, timestamps)
	for _, id := range st.Timeline.StreamStartEventIDs {
		if _, ok := timestamps[id]; !ok {
			report.UnsetEventIDs = append(report.UnsetEventIDs, id)
		}
	}
	report.UnscheduledSessions = unscheduledSessions(evals)

	if !hasStart {
		return report
	}
	startDate := chrono.DateOf(startTs, loc)

	var placed []adherence.Evaluation
	for _, ev := range evals {
		if ev.Selected && ev.Fired() {
			placed = append(placed, ev)
		}
	}
	sort.SliceStable(placed, func(i, j int) bool {
		return placed[i].Start.Before(*placed[j].Start)
	})

	recur := func(ev adherence.Evaluation) int {
		return adherence.RecurringDays(ev, st.Now, loc)
	}
	report.Weeks = weeks(placed, startDate, recur)
	report.DateRange = dateRange(placed)
	report.NextActivity = nextActivity(placed, startDate)

	today := chrono.FloorDiv(chrono.DateOf(st.Now, loc).DaysSince(startDate), daysPerWeek)
	for i := range report.Weeks {
		if report.Weeks[i].WeekInStudy == today {
			current := report.Weeks[i]
			report.CurrentWeek = &current
			break
		}
	}
	return report
}

// studyStart resolves the event week 0 is counted from.
func studyStart(explicit string, timestamps map[string]time.Time) (string, time.Time, bool) {
	if explicit != "" {
		if id, err := event.ParseClientKey(explicit); err == nil {
			if ts, ok := timestamps[id.String()]; ok {
				return id.String(), ts, true
			}
		}
	}
	var (
		earliestID string
		earliest   time.Time
	)
	for id, ts := range timestamps {
		if earliestID == "" || ts.Before(earliest) || (ts.Equal(earliest) && id < earliestID) {
			earliestID, earliest = id, ts
		}
	}
	return earliestID, earliest, earliestID != ""
}

// progression is done once every window that has opened for the participant
// has closed. Rows whose start event never fired have no window and are
// skipped; persistent windows keep the study in progress. A participant with
// no fired rows at all has not started.
func progression(evals []adherence.Evaluation, now time.Time) Progression {
	fired := false
	for _, ev := range evals {
		if !ev.Selected || !ev.Fired() {
			continue
		}
		fired = true
		if ev.End == nil || now.Before(*ev.End) {
			return ProgressionInProgress
		}
	}
	if !fired {
		return ProgressionInProgress
	}
	return ProgressionDone
}

func referencedTimestamps(st AdherenceState, timestamps map[string]time.Time) map[string]time.Time {
	out := make(map[string]time.Time)
	add := func(id string) {
		if ts, ok := timestamps[id]; ok {
			out[id] = ts
		}
	}
	for _, id := range st.Timeline.StreamStartEventIDs {
		add(id)
	}
	for _, row := range st.Timeline.Metadata {
		if row.OriginEventID != "" {
			add(row.OriginEventID)
		}
	}
	return out
}

func unscheduledSessions(evals []adherence.Evaluation) []string {
	var order []string
	names := make(map[string]string)
	scheduled := make(map[string]bool)
	for _, ev := range evals {
		guid := ev.Row.SessionGuid
		if _, ok := names[guid]; !ok {
			order = append(order, guid)
			names[guid] = ev.Row.SessionName
		}
		if ev.State != adherence.StateNotApplicable {
			scheduled[guid] = true
		}
	}
	out := []string{}
	for _, guid := range order {
		if !scheduled[guid] {
			out = append(out, names[guid])
		}
	}
	return out
}

// weeks buckets placed evaluations into study weeks. An opened persistent
// window is listed on every day it recurs on, but counts toward the
// adherence percent of its first week only.
func weeks(placed []adherence.Evaluation, startDate civil.Date, recur func(adherence.Evaluation) int) []Week {
	byWeek := make(map[int][]adherence.Evaluation)
	scored := make(map[int][]adherence.Evaluation)
	for _, ev := range placed {
		first := ev.StartDate.DaysSince(startDate)
		fw := chrono.FloorDiv(first, daysPerWeek)
		lw := chrono.FloorDiv(first+recur(ev), daysPerWeek)
		scored[fw] = append(scored[fw], ev)
		for w := fw; w <= lw; w++ {
			byWeek[w] = append(byWeek[w], ev)
		}
	}

	numbers := make([]int, 0, len(byWeek))
	for w := range byWeek {
		numbers = append(numbers, w)
	}
	sort.Ints(numbers)

	out := make([]Week, 0, len(numbers))
	for _, w := range numbers {
		evs := byWeek[w]
		week := Week{
			WeekInStudy:      w,
			StartDate:        startDate.AddDays(w * daysPerWeek),
			AdherencePercent: adherence.CalculatePercent(scored[w], true),
			ByDayEntries: adherence.GroupDays(evs, func(ev adherence.Evaluation) []adherence.DayKey {
				first := ev.StartDate.DaysSince(startDate)
				var keys []adherence.DayKey
				for d := first; d <= first+recur(ev); d++ {
					if chrono.FloorDiv(d, daysPerWeek) == w {
						keys = append(keys, adherence.DayKey{Day: chrono.FloorMod(d, daysPerWeek), Week: w})
					}
				}
				return keys
			}),
			Rows:             []WeekRow{},
			SearchableLabels: []string{},
		}
		for d := 0; d < daysPerWeek; d++ {
			if _, ok := week.ByDayEntries[d]; !ok {
				week.ByDayEntries[d] = []adherence.EventStreamDay{}
			}
		}

		seen := make(map[string]bool)
		for _, ev := range evs {
			row := weekRow(ev, w)
			if seen[row.SearchableLabel] {
				continue
			}
			seen[row.SearchableLabel] = true
			week.Rows = append(week.Rows, row)
			week.SearchableLabels = append(week.SearchableLabels, row.SearchableLabel)
		}
		out = append(out, week)
	}
	return out
}

func weekRow(ev adherence.Evaluation, week int) WeekRow {
	r := ev.Row
	label := fmt.Sprintf("Week %d : %s", week+1, r.SessionName)
	searchable := ":" + r.SessionGuid + ":week" + strconv.Itoa(week+1) + ":"
	if r.IsBurst() {
		label = fmt.Sprintf("%s %d : %s", r.StudyBurstID, r.StudyBurstNum, label)
		searchable = ":" + r.StudyBurstID + ":" + strconv.Itoa(r.StudyBurstNum) + searchable
	}
	return WeekRow{
		Label:           label,
		SearchableLabel: searchable,
		SessionGuid:     r.SessionGuid,
		SessionName:     r.SessionName,
		SessionSymbol:   r.SessionSymbol,
		StartEventID:    r.StartEventID,
		StudyBurstID:    r.StudyBurstID,
		StudyBurstNum:   r.StudyBurstNum,
		WeekInStudy:     week,
	}
}

func dateRange(placed []adherence.Evaluation) *DateRange {
	var dr *DateRange
	for _, ev := range placed {
		end := *ev.StartDate
		if ev.EndDate != nil {
			end = *ev.EndDate
		}
		if dr == nil {
			dr = &DateRange{Start: *ev.StartDate, End: end}
			continue
		}
		if ev.StartDate.Before(dr.Start) {
			dr.Start = *ev.StartDate
		}
		if end.After(dr.End) {
			dr.End = end
		}
	}
	return dr
}

// nextActivity picks the earliest window that has not opened yet. placed is
// already ordered by window start.
func nextActivity(placed []adherence.Evaluation, startDate civil.Date) *NextActivity {
	for _, ev := range placed {
		if ev.State != adherence.StateNotYetAvailable {
			continue
		}
		r := ev.Row
		return &NextActivity{
			SessionGuid:   r.SessionGuid,
			SessionName:   r.SessionName,
			SessionSymbol: r.SessionSymbol,
			StartEventID:  r.StartEventID,
			StudyBurstID:  r.StudyBurstID,
			StudyBurstNum: r.StudyBurstNum,
			WeekInStudy:   chrono.FloorDiv(ev.StartDate.DaysSince(startDate), daysPerWeek),
			StartDate:     *ev.StartDate,
			StartTime:     r.WindowStartTime,
		}
	}
	return nil
}
