package adherence_test

import (
	"testing"
	"time"

	"github.com/rpggio/cadence/internal/chrono"
	"github.com/rpggio/cadence/internal/domain/adherence"
	"github.com/rpggio/cadence/internal/domain/event"
	"github.com/rpggio/cadence/internal/domain/schedule"
	"github.com/stretchr/testify/require"
)

func repeatingSession() schedule.Session {
	return schedule.Session{
		Guid:          "daily",
		Name:          "Daily",
		Symbol:        "D",
		StartEventIDs: []string{"enrollment"},
		Interval:      chrono.MustPeriod("P1D"),
		Occurrences:   4,
		TimeWindows: []schedule.TimeWindow{
			{Guid: "pm", StartTime: chrono.NewTimeOfDay(18, 0), Expiration: chrono.MustPeriod("PT4H")},
			{Guid: "am", StartTime: chrono.NewTimeOfDay(8, 0), Expiration: chrono.MustPeriod("PT4H")},
		},
	}
}

func TestCalculatePercent(t *testing.T) {
	evals := []adherence.Evaluation{
		{Selected: true, State: adherence.StateCompleted},
		{Selected: true, State: adherence.StateDeclined},
		{Selected: true, State: adherence.StateExpired},
		{Selected: true, State: adherence.StateNotYetAvailable},
		{Selected: true, State: adherence.StateNotApplicable},
		{Selected: false, State: adherence.StateNotApplicable},
	}
	require.Equal(t, 50, adherence.CalculatePercent(evals, false))
	require.Equal(t, 66, adherence.CalculatePercent(evals, true))
	require.Equal(t, 100, adherence.CalculatePercent(nil, true))
}

func TestEvaluateEventStreams(t *testing.T) {
	rows := build(t, repeatingSession(), dailySession("visit", "custom:clinic_visit"))

	// Day 0 am completed, day 0 pm expired, day 1 am open.
	var records []adherence.Record
	for _, row := range rows {
		if row.TimeWindowGuid == "am" && row.RelativeStartDay == 0 {
			records = append(records, adherence.Record{InstanceGuid: row.SessionInstanceGuid, FinishedOn: ptr(enrolledAt)})
		}
	}
	now := time.Date(2022, 3, 2, 9, 0, 0, 0, pst)

	report := adherence.EvaluateEventStreams(adherence.Input{
		Metadata: rows,
		Events:   enrollment(enrolledAt),
		Records:  records,
		Now:      now,
	}, false)

	require.Len(t, report.Streams, 2)
	enrolled := report.Streams[0]
	require.Equal(t, "enrollment", enrolled.StartEventID)
	require.Equal(t, 1, *enrolled.DaysSinceEventTimestamp)
	require.Len(t, enrolled.ByDayEntries, 4)

	day0 := enrolled.ByDayEntries[0]
	require.Len(t, day0, 1)
	require.Equal(t, "D", day0[0].SessionSymbol)
	require.Len(t, day0[0].TimeWindows, 2)
	// Windows sort by start time regardless of definition order.
	require.Equal(t, "am", day0[0].TimeWindows[0].TimeWindowGuid)
	require.Equal(t, adherence.StateCompleted, day0[0].TimeWindows[0].State)
	require.Equal(t, adherence.StateExpired, day0[0].TimeWindows[1].State)
	require.Equal(t, "12:00", day0[0].TimeWindows[0].EndTime.String())

	require.Equal(t, adherence.StateUnstarted, enrolled.ByDayEntries[1][0].TimeWindows[0].State)

	visit := report.Streams[1]
	require.Equal(t, "custom:clinic_visit", visit.StartEventID)
	require.Nil(t, visit.EventTimestamp)
	require.Nil(t, visit.DaysSinceEventTimestamp)
	require.Equal(t, adherence.StateNotApplicable, visit.ByDayEntries[1][0].TimeWindows[0].State)

	// 1 compliant of 8 scheduled windows; not-applicable rows never count.
	require.Equal(t, 12, report.AdherencePercent)
	require.Equal(t, &adherence.DayRange{Min: 0, Max: 3}, report.DayRangeOfAllStreams)
}

func TestEvaluateEventStreams_ShowActive(t *testing.T) {
	rows := build(t, repeatingSession(), dailySession("visit", "custom:clinic_visit"))
	now := time.Date(2022, 3, 2, 9, 0, 0, 0, pst)

	var records []adherence.Record
	for _, row := range rows {
		if row.TimeWindowGuid == "am" && row.RelativeStartDay == 0 {
			records = append(records, adherence.Record{InstanceGuid: row.SessionInstanceGuid, FinishedOn: ptr(enrolledAt)})
		}
	}

	report := adherence.EvaluateEventStreams(adherence.Input{
		Metadata: rows,
		Events:   enrollment(enrolledAt),
		Records:  records,
		Now:      now,
	}, true)

	require.True(t, report.ActiveOnly)
	require.Len(t, report.Streams, 1)
	require.Len(t, report.Streams[0].ByDayEntries, 2)
	// Completed, expired and open windows only.
	require.Equal(t, 33, report.AdherencePercent)
	require.Equal(t, &adherence.DayRange{Min: 0, Max: 1}, report.DayRangeOfAllStreams)
}

func TestEvaluateEventStreams_HidesNotSelectedDuplicates(t *testing.T) {
	rows := build(t, dailySession("s1", "enrollment", "custom:clinic_visit"))
	events := append(enrollment(enrolledAt), event.ActivityEvent{
		UserID: "u1", EventID: "custom:clinic_visit", Timestamp: enrolledAt.Add(time.Hour),
	})

	report := adherence.EvaluateEventStreams(adherence.Input{Metadata: rows, Events: events, Now: enrolledAt}, false)
	require.Len(t, report.Streams, 1)
	require.Equal(t, "enrollment", report.Streams[0].StartEventID)
}

func TestEvaluateEventStreams_Empty(t *testing.T) {
	report := adherence.EvaluateEventStreams(adherence.Input{Now: enrolledAt}, false)
	require.Empty(t, report.Streams)
	require.Nil(t, report.DayRangeOfAllStreams)
	require.Equal(t, 100, report.AdherencePercent)
}

func TestEvaluateEventStreams_PersistentRecursDaily(t *testing.T) {
	rows := build(t, persistentSession("log"))
	now := time.Date(2022, 3, 3, 9, 0, 0, 0, pst)

	report := adherence.EvaluateEventStreams(adherence.Input{
		Metadata: rows,
		Events:   enrollment(enrolledAt),
		Now:      now,
	}, false)

	require.Len(t, report.Streams, 1)
	byDay := report.Streams[0].ByDayEntries
	require.Len(t, byDay, 3)
	for day := 0; day < 3; day++ {
		require.Len(t, byDay[day], 1, "day %d", day)
		require.Equal(t, 0, byDay[day][0].StartDay)
		require.Equal(t, adherence.StateUnstarted, byDay[day][0].TimeWindows[0].State)
	}
	// The window is scored once however many days it is listed on.
	require.Equal(t, 0, report.AdherencePercent)
	require.Equal(t, &adherence.DayRange{Min: 0, Max: 2}, report.DayRangeOfAllStreams)
}

func TestRecurringDays(t *testing.T) {
	rows := build(t, persistentSession("log"), dailySession("s1", "enrollment"))
	now := time.Date(2022, 3, 5, 9, 0, 0, 0, pst)
	evals := adherence.Evaluate(adherence.Input{Metadata: rows, Events: enrollment(enrolledAt), Now: now})

	require.Equal(t, 4, adherence.RecurringDays(evals[0], now, nil))
	require.Equal(t, 0, adherence.RecurringDays(evals[1], now, nil))
	// Not open yet.
	require.Equal(t, 0, adherence.RecurringDays(evals[0], enrolledAt.AddDate(0, 0, -1), nil))
}
