package event_test

import (
	"context"
	"testing"
	"time"

	"github.com/rpggio/cadence/internal/chrono"
	"github.com/rpggio/cadence/internal/domain/event"
	"github.com/rpggio/cadence/internal/repository"
	"github.com/rpggio/cadence/internal/repository/mocks"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func TestEventService_Record_New(t *testing.T) {
	ctx := context.Background()
	tenantID := "study1"

	repo := &mocks.EventRepository{}
	repo.On("Get", ctx, tenantID, "u1", "custom:visit").Return((*event.ActivityEvent)(nil), repository.ErrNotFound)
	repo.On("Put", ctx, tenantID, mock.MatchedBy(func(ev *event.ActivityEvent) bool {
		return ev.EventID == "custom:visit" && ev.Policy == event.PolicyMutable && ev.Timestamp.Equal(t1)
	}), (*time.Time)(nil)).Return(nil)

	resolver := event.PolicyResolver{Custom: map[string]event.Policy{"visit": event.PolicyMutable}}
	svc := event.NewService(repo, nil, resolver, nil)
	result, err := svc.Record(ctx, tenantID, event.RecordRequest{UserID: "u1", EventKey: "visit", Timestamp: t1})
	require.NoError(t, err)
	require.Equal(t, "custom:visit", result.Event.EventID)
	require.Empty(t, result.BurstEvents)
	repo.AssertExpectations(t)
}

func TestEventService_Record_ImmutableRejected(t *testing.T) {
	ctx := context.Background()
	tenantID := "study1"

	repo := &mocks.EventRepository{}
	repo.On("Get", ctx, tenantID, "u1", "enrollment").Return(&event.ActivityEvent{
		UserID:    "u1",
		EventID:   "enrollment",
		Timestamp: t1,
		Policy:    event.PolicyImmutable,
	}, nil)

	svc := event.NewService(repo, nil, event.PolicyResolver{}, nil)
	_, err := svc.Record(ctx, tenantID, event.RecordRequest{UserID: "u1", EventKey: "enrollment", Timestamp: t1.Add(48 * time.Hour)})
	require.ErrorIs(t, err, event.ErrUpdateRejected)

	var rejected *event.RejectedError
	require.ErrorAs(t, err, &rejected)
	require.Equal(t, event.PolicyImmutable, rejected.Policy)
	repo.AssertNotCalled(t, "Put", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func TestEventService_Record_KeepsOriginalPolicy(t *testing.T) {
	ctx := context.Background()
	tenantID := "study1"

	repo := &mocks.EventRepository{}
	repo.On("Get", ctx, tenantID, "u1", "custom:visit").Return(&event.ActivityEvent{
		UserID:    "u1",
		EventID:   "custom:visit",
		Timestamp: t1,
		Policy:    event.PolicyFutureOnly,
	}, nil)
	repo.On("Put", ctx, tenantID, mock.MatchedBy(func(ev *event.ActivityEvent) bool {
		return ev.Policy == event.PolicyFutureOnly
	}), mock.MatchedBy(func(expected *time.Time) bool {
		return expected != nil && expected.Equal(t1)
	})).Return(nil)

	// The configuration now says MUTABLE, but the stored event keeps FUTURE_ONLY.
	resolver := event.PolicyResolver{Custom: map[string]event.Policy{"visit": event.PolicyMutable}}
	svc := event.NewService(repo, nil, resolver, nil)
	result, err := svc.Record(ctx, tenantID, event.RecordRequest{UserID: "u1", EventKey: "custom:visit", Timestamp: t1.Add(time.Hour)})
	require.NoError(t, err)
	require.Equal(t, event.PolicyFutureOnly, result.Event.Policy)
}

func TestEventService_Record_RetriesOnConflict(t *testing.T) {
	ctx := context.Background()
	tenantID := "study1"

	repo := &mocks.EventRepository{}
	repo.On("Get", ctx, tenantID, "u1", "custom:visit").Return((*event.ActivityEvent)(nil), repository.ErrNotFound)
	repo.On("Put", ctx, tenantID, mock.Anything, (*time.Time)(nil)).Return(repository.ErrConflict).Once()
	repo.On("Put", ctx, tenantID, mock.Anything, (*time.Time)(nil)).Return(nil).Once()

	svc := event.NewService(repo, nil, event.PolicyResolver{}, nil)
	_, err := svc.Record(ctx, tenantID, event.RecordRequest{UserID: "u1", EventKey: "visit", Timestamp: t1})
	require.NoError(t, err)
	repo.AssertNumberOfCalls(t, "Put", 2)
}

func TestEventService_Record_GivesUpAfterRepeatedConflicts(t *testing.T) {
	ctx := context.Background()
	tenantID := "study1"

	repo := &mocks.EventRepository{}
	repo.On("Get", ctx, tenantID, "u1", "custom:visit").Return((*event.ActivityEvent)(nil), repository.ErrNotFound)
	repo.On("Put", ctx, tenantID, mock.Anything, (*time.Time)(nil)).Return(repository.ErrConflict)

	svc := event.NewService(repo, nil, event.PolicyResolver{}, nil)
	_, err := svc.Record(ctx, tenantID, event.RecordRequest{UserID: "u1", EventKey: "visit", Timestamp: t1})
	require.ErrorIs(t, err, event.ErrConcurrentUpdate)
}

func TestEventService_Record_SynthesizesBurstEvents(t *testing.T) {
	ctx := context.Background()
	tenantID := "study1"
	origin := time.Date(2022, 3, 1, 9, 0, 0, 0, time.UTC)

	bursts := &mocks.BurstSource{}
	bursts.On("StudyBursts", ctx, tenantID).Return([]event.BurstConfig{{
		ID:            "X",
		OriginEventID: "enrollment",
		Delay:         chrono.MustPeriod("P1W"),
		Interval:      chrono.MustPeriod("P1W"),
		Occurrences:   3,
		Policy:        event.PolicyImmutable,
	}}, nil)

	repo := &mocks.EventRepository{}
	repo.On("Get", ctx, tenantID, "u1", "enrollment").Return((*event.ActivityEvent)(nil), repository.ErrNotFound)
	repo.On("Get", ctx, tenantID, "u1", "study_burst:X:01").Return((*event.ActivityEvent)(nil), repository.ErrNotFound)
	// Occurrence two already exists and is immutable, so it is skipped silently.
	repo.On("Get", ctx, tenantID, "u1", "study_burst:X:02").Return(&event.ActivityEvent{
		UserID:    "u1",
		EventID:   "study_burst:X:02",
		Timestamp: origin,
		Policy:    event.PolicyImmutable,
	}, nil)
	repo.On("Get", ctx, tenantID, "u1", "study_burst:X:03").Return((*event.ActivityEvent)(nil), repository.ErrNotFound)
	repo.On("Put", ctx, tenantID, mock.Anything, (*time.Time)(nil)).Return(nil)

	svc := event.NewService(repo, bursts, event.PolicyResolver{}, nil)
	result, err := svc.Record(ctx, tenantID, event.RecordRequest{UserID: "u1", EventKey: "enrollment", Timestamp: origin})
	require.NoError(t, err)
	require.Len(t, result.BurstEvents, 2)
	require.Equal(t, "study_burst:X:01", result.BurstEvents[0].EventID)
	require.Equal(t, "2022-03-08", result.BurstEvents[0].Timestamp.Format("2006-01-02"))
	require.Equal(t, "study_burst:X:03", result.BurstEvents[1].EventID)
	require.Equal(t, "2022-03-22", result.BurstEvents[1].Timestamp.Format("2006-01-02"))
	repo.AssertNumberOfCalls(t, "Put", 3)
}

func TestEventService_Record_Validation(t *testing.T) {
	svc := event.NewService(&mocks.EventRepository{}, nil, event.PolicyResolver{}, nil)

	_, err := svc.Record(context.Background(), "study1", event.RecordRequest{EventKey: "visit", Timestamp: t1})
	require.ErrorIs(t, err, event.ErrInvalidInput)

	_, err = svc.Record(context.Background(), "study1", event.RecordRequest{UserID: "u1", EventKey: "visit"})
	require.ErrorIs(t, err, event.ErrInvalidInput)

	_, err = svc.Record(context.Background(), "study1", event.RecordRequest{UserID: "u1", EventKey: "bad:key:x", Timestamp: t1})
	require.ErrorIs(t, err, event.ErrInvalidEventID)
}

func TestEventService_Delete(t *testing.T) {
	ctx := context.Background()
	tenantID := "study1"

	repo := &mocks.EventRepository{}
	repo.On("Get", ctx, tenantID, "u1", "custom:visit").Return(&event.ActivityEvent{
		UserID: "u1", EventID: "custom:visit", Timestamp: t1, Policy: event.PolicyMutable,
	}, nil)
	repo.On("Get", ctx, tenantID, "u1", "enrollment").Return(&event.ActivityEvent{
		UserID: "u1", EventID: "enrollment", Timestamp: t1, Policy: event.PolicyImmutable,
	}, nil)
	repo.On("Get", ctx, tenantID, "u1", "custom:missing").Return((*event.ActivityEvent)(nil), repository.ErrNotFound)
	repo.On("Delete", ctx, tenantID, "u1", "custom:visit", t1).Return(nil)

	svc := event.NewService(repo, nil, event.PolicyResolver{}, nil)
	require.NoError(t, svc.Delete(ctx, tenantID, "u1", "visit"))
	require.ErrorIs(t, svc.Delete(ctx, tenantID, "u1", "enrollment"), event.ErrUpdateRejected)
	require.ErrorIs(t, svc.Delete(ctx, tenantID, "u1", "missing"), event.ErrEventNotFound)
}

func TestEventService_HistoryOnAcceptedChanges(t *testing.T) {
	ctx := context.Background()
	tenantID := "study1"

	repo := &mocks.EventRepository{}
	repo.On("Get", ctx, tenantID, "u1", "custom:visit").Return((*event.ActivityEvent)(nil), repository.ErrNotFound).Once()
	repo.On("Put", ctx, tenantID, mock.Anything, (*time.Time)(nil)).Return(nil)
	repo.On("Get", ctx, tenantID, "u1", "custom:visit").Return(&event.ActivityEvent{
		UserID: "u1", EventID: "custom:visit", Timestamp: t1, Policy: event.PolicyMutable,
	}, nil)
	repo.On("Delete", ctx, tenantID, "u1", "custom:visit", t1).Return(nil)

	history := &mocks.HistoryRepository{}
	history.On("Append", ctx, tenantID, mock.MatchedBy(func(e *event.HistoryEntry) bool {
		return e.Action == event.HistoryRecorded && e.EventID == "custom:visit"
	})).Return(nil).Once()
	history.On("Append", ctx, tenantID, mock.MatchedBy(func(e *event.HistoryEntry) bool {
		return e.Action == event.HistoryDeleted && e.Timestamp.Equal(t1)
	})).Return(nil).Once()
	history.On("List", ctx, tenantID, "u1", event.HistoryOptions{EventID: "custom:visit"}).Return([]event.HistoryEntry{
		{EventID: "custom:visit", Action: event.HistoryDeleted},
		{EventID: "custom:visit", Action: event.HistoryRecorded},
	}, nil)

	resolver := event.PolicyResolver{Custom: map[string]event.Policy{"visit": event.PolicyMutable}}
	svc := event.NewService(repo, nil, resolver, nil).WithHistory(history)

	_, err := svc.Record(ctx, tenantID, event.RecordRequest{UserID: "u1", EventKey: "visit", Timestamp: t1})
	require.NoError(t, err)
	require.NoError(t, svc.Delete(ctx, tenantID, "u1", "visit"))

	entries, err := svc.History(ctx, tenantID, "u1", event.HistoryOptions{EventID: "visit"})
	require.NoError(t, err)
	require.Len(t, entries, 2)
	history.AssertExpectations(t)
}

func TestEventService_HistoryWithoutRepository(t *testing.T) {
	svc := event.NewService(&mocks.EventRepository{}, nil, event.PolicyResolver{}, nil)
	entries, err := svc.History(context.Background(), "study1", "u1", event.HistoryOptions{})
	require.NoError(t, err)
	require.Empty(t, entries)
}
