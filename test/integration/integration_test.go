package integration_test

import (
	"context"
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/rpggio/cadence/internal/domain/adherence"
	"github.com/rpggio/cadence/internal/domain/event"
	"github.com/rpggio/cadence/internal/domain/report"
	"github.com/rpggio/cadence/internal/domain/timeline"
	"github.com/rpggio/cadence/internal/sqlite"
	"github.com/stretchr/testify/require"
)

type testEnv struct {
	db           *sqlite.DB
	timelineRepo *sqlite.TimelineRepository

	timelineSvc *timeline.Service
	eventSvc    *event.Service
	recordSvc   *adherence.Service
	reportSvc   *report.Service
}

func newTestEnv(t *testing.T, resolver event.PolicyResolver) *testEnv {
	t.Helper()
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", strings.ReplaceAll(t.Name(), "/", "_"))
	db, err := sqlite.New(dsn)
	require.NoError(t, err)
	require.NoError(t, db.RunMigrations())
	t.Cleanup(func() { _ = db.Close() })

	timelineRepo := sqlite.NewTimelineRepository(db)
	eventRepo := sqlite.NewEventRepository(db)
	recordRepo := sqlite.NewRecordRepository(db)

	timelineSvc := timeline.NewService(timelineRepo, nil)
	return &testEnv{
		db:           db,
		timelineRepo: timelineRepo,
		timelineSvc:  timelineSvc,
		eventSvc:     event.NewService(eventRepo, timelineSvc, resolver, nil).WithHistory(sqlite.NewHistoryRepository(db)),
		recordSvc:    adherence.NewService(recordRepo, nil),
		reportSvc:    report.NewService(timelineRepo, eventRepo, recordRepo, nil),
	}
}

var pst = time.FixedZone("PST", -8*60*60)

const burstSchedule = `
guid: sched-burst
name: Burst study
study_bursts:
  - identifier: weekly
    origin_event_id: timeline_retrieved
    interval: P7D
    occurrences: 2
sessions:
  - guid: check-in
    name: Check-in
    symbol: C
    study_burst_ids: [weekly]
    time_windows:
      - guid: all-day
        start_time: "00:00"
        expiration: P1D
`

func TestIntegration_StudyBurstWorkflow(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t, event.PolicyResolver{})
	tenantID := "study1"
	retrieved := time.Date(2022, 3, 1, 10, 0, 0, 0, pst)

	_, tl, err := env.timelineSvc.PublishDefinition(ctx, tenantID, []byte(burstSchedule))
	require.NoError(t, err)
	require.Len(t, tl.Metadata, 2)
	require.Equal(t, "study_burst:weekly:01", tl.Metadata[0].StartEventID)
	require.Equal(t, "study_burst:weekly:02", tl.Metadata[1].StartEventID)

	res, err := env.eventSvc.Record(ctx, tenantID, event.RecordRequest{
		UserID:    "u1",
		EventKey:  "timeline_retrieved",
		Timestamp: retrieved,
	})
	require.NoError(t, err)
	require.Len(t, res.BurstEvents, 2)
	require.True(t, res.BurstEvents[0].Timestamp.Equal(retrieved))
	require.True(t, res.BurstEvents[1].Timestamp.Equal(retrieved.AddDate(0, 0, 7)))

	_, err = env.eventSvc.Record(ctx, tenantID, event.RecordRequest{
		UserID:    "u1",
		EventKey:  "timeline_retrieved",
		Timestamp: retrieved.Add(time.Hour),
	})
	require.ErrorIs(t, err, event.ErrUpdateRejected)

	now := retrieved.Add(time.Hour)
	rep, err := env.reportSvc.Study(ctx, tenantID, report.Request{UserID: "u1", Now: now})
	require.NoError(t, err)
	require.Equal(t, report.ProgressionInProgress, rep.Progression)
	require.Len(t, rep.Weeks, 2)
	require.Equal(t, "weekly 1 : Week 1 : Check-in", rep.Weeks[0].Rows[0].Label)
	require.Equal(t, "weekly 2 : Week 2 : Check-in", rep.Weeks[1].Rows[0].Label)
	require.Equal(t, adherence.StateUnstarted, rep.Weeks[0].ByDayEntries[0][0].TimeWindows[0].State)
	require.Equal(t, 0, rep.AdherencePercent)
	require.NotNil(t, rep.NextActivity)
	require.Equal(t, 2, rep.NextActivity.StudyBurstNum)

	finished := now.Add(10 * time.Minute)
	_, err = env.recordSvc.UpdateRecords(ctx, tenantID, "u1", []adherence.Record{{
		InstanceGuid: tl.Metadata[0].SessionInstanceGuid,
		StartedOn:    &now,
		FinishedOn:   &finished,
	}})
	require.NoError(t, err)

	rep, err = env.reportSvc.Study(ctx, tenantID, report.Request{UserID: "u1", Now: finished})
	require.NoError(t, err)
	require.Equal(t, adherence.StateCompleted, rep.Weeks[0].ByDayEntries[0][0].TimeWindows[0].State)
	require.Equal(t, 100, rep.AdherencePercent)

	rep, err = env.reportSvc.Study(ctx, tenantID, report.Request{UserID: "u1", Now: retrieved.AddDate(0, 1, 0)})
	require.NoError(t, err)
	require.Equal(t, report.ProgressionDone, rep.Progression)
	require.Equal(t, 50, rep.AdherencePercent)
}

func TestIntegration_BurstOriginInAnyCase(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t, event.PolicyResolver{})
	tenantID := "study1"
	enrolled := time.Date(2022, 3, 1, 10, 0, 0, 0, pst)

	def := strings.Replace(burstSchedule, "origin_event_id: timeline_retrieved", "origin_event_id: Enrollment", 1)
	_, _, err := env.timelineSvc.PublishDefinition(ctx, tenantID, []byte(def))
	require.NoError(t, err)

	res, err := env.eventSvc.Record(ctx, tenantID, event.RecordRequest{UserID: "u1", EventKey: "enrollment", Timestamp: enrolled})
	require.NoError(t, err)
	require.Len(t, res.BurstEvents, 2)
	require.Equal(t, "study_burst:weekly:01", res.BurstEvents[0].EventID)

	rep, err := env.reportSvc.Study(ctx, tenantID, report.Request{UserID: "u1", Now: enrolled})
	require.NoError(t, err)
	require.Empty(t, rep.UnsetEventIDs)
	require.Empty(t, rep.UnscheduledSessions)
	require.Len(t, rep.Weeks, 2)
}

const diarySchedule = `
guid: sched-diary
name: Diary
sessions:
  - guid: diary
    name: Diary
    start_event_ids: [enrollment]
    interval: P1D
    occurrences: 2
    time_windows:
      - guid: evening
        start_time: "18:00"
        expiration: PT6H
`

func TestIntegration_RepublishKeepsInstanceGuids(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t, event.PolicyResolver{})
	tenantID := "study1"
	enrolled := time.Date(2022, 3, 1, 9, 0, 0, 0, pst)

	_, first, err := env.timelineSvc.PublishDefinition(ctx, tenantID, []byte(diarySchedule))
	require.NoError(t, err)

	_, err = env.eventSvc.Record(ctx, tenantID, event.RecordRequest{UserID: "u1", EventKey: "enrollment", Timestamp: enrolled})
	require.NoError(t, err)

	finished := time.Date(2022, 3, 1, 19, 0, 0, 0, pst)
	_, err = env.recordSvc.UpdateRecords(ctx, tenantID, "u1", []adherence.Record{{
		InstanceGuid: first.Metadata[0].SessionInstanceGuid,
		FinishedOn:   &finished,
	}})
	require.NoError(t, err)

	_, second, err := env.timelineSvc.PublishDefinition(ctx, tenantID, []byte(diarySchedule))
	require.NoError(t, err)
	require.Equal(t, first.Metadata[0].SessionInstanceGuid, second.Metadata[0].SessionInstanceGuid)

	streams, err := env.reportSvc.EventStreams(ctx, tenantID, report.Request{
		UserID: "u1",
		Now:    time.Date(2022, 3, 3, 12, 0, 0, 0, pst),
	})
	require.NoError(t, err)
	require.Len(t, streams.Streams, 1)
	require.Equal(t, 50, streams.AdherencePercent)
	require.Equal(t, adherence.StateCompleted, streams.Streams[0].ByDayEntries[0][0].TimeWindows[0].State)
	require.Equal(t, adherence.StateExpired, streams.Streams[0].ByDayEntries[1][0].TimeWindows[0].State)
}

func TestIntegration_MutableCustomEvent(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t, event.PolicyResolver{Custom: map[string]event.Policy{"clinic_visit": event.PolicyMutable}})
	tenantID := "study1"
	visit := time.Date(2022, 3, 10, 14, 0, 0, 0, pst)

	_, err := env.eventSvc.Record(ctx, tenantID, event.RecordRequest{UserID: "u1", EventKey: "custom:clinic_visit", Timestamp: visit})
	require.NoError(t, err)
	res, err := env.eventSvc.Record(ctx, tenantID, event.RecordRequest{UserID: "u1", EventKey: "custom:clinic_visit", Timestamp: visit.Add(48 * time.Hour)})
	require.NoError(t, err)
	require.Equal(t, event.PolicyMutable, res.Event.Policy)

	events, err := env.eventSvc.List(ctx, tenantID, "u1")
	require.NoError(t, err)
	require.Len(t, events, 1)
	require.True(t, events[0].Timestamp.Equal(visit.Add(48*time.Hour)))

	require.NoError(t, env.eventSvc.Delete(ctx, tenantID, "u1", "custom:clinic_visit"))
	events, err = env.eventSvc.List(ctx, tenantID, "u1")
	require.NoError(t, err)
	require.Empty(t, events)

	history, err := env.eventSvc.History(ctx, tenantID, "u1", event.HistoryOptions{EventID: "custom:clinic_visit"})
	require.NoError(t, err)
	require.Len(t, history, 3)
	require.Equal(t, event.HistoryDeleted, history[0].Action)
	require.Equal(t, event.HistoryRecorded, history[2].Action)
}

func TestIntegration_TenantIsolation(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t, event.PolicyResolver{})
	enrolled := time.Date(2022, 3, 1, 9, 0, 0, 0, pst)

	_, _, err := env.timelineSvc.PublishDefinition(ctx, "study1", []byte(diarySchedule))
	require.NoError(t, err)
	_, err = env.eventSvc.Record(ctx, "study1", event.RecordRequest{UserID: "u1", EventKey: "enrollment", Timestamp: enrolled})
	require.NoError(t, err)

	_, err = env.timelineSvc.Get(ctx, "study2")
	require.ErrorIs(t, err, timeline.ErrScheduleNotFound)

	events, err := env.eventSvc.List(ctx, "study2", "u1")
	require.NoError(t, err)
	require.Empty(t, events)

	rep, err := env.reportSvc.Study(ctx, "study2", report.Request{UserID: "u1", Now: enrolled})
	require.NoError(t, err)
	require.Equal(t, report.ProgressionNoSchedule, rep.Progression)
}
