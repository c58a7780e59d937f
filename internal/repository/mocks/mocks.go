package mocks

import (
	"context"
	"time"

	"github.com/rpggio/cadence/internal/domain/adherence"
	"github.com/rpggio/cadence/internal/domain/event"
	"github.com/rpggio/cadence/internal/domain/schedule"
	"github.com/rpggio/cadence/internal/domain/timeline"
	"github.com/stretchr/testify/mock"
)

// EventRepository is a mock for event.Repository.
type EventRepository struct {
	mock.Mock
}

func (m *EventRepository) Get(ctx context.Context, tenantID, userID, eventID string) (*event.ActivityEvent, error) {
	args := m.Called(ctx, tenantID, userID, eventID)
	if ev, ok := args.Get(0).(*event.ActivityEvent); ok {
		return ev, args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *EventRepository) List(ctx context.Context, tenantID, userID string) ([]event.ActivityEvent, error) {
	args := m.Called(ctx, tenantID, userID)
	if list, ok := args.Get(0).([]event.ActivityEvent); ok {
		return list, args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *EventRepository) Put(ctx context.Context, tenantID string, ev *event.ActivityEvent, expected *time.Time) error {
	args := m.Called(ctx, tenantID, ev, expected)
	return args.Error(0)
}

func (m *EventRepository) Delete(ctx context.Context, tenantID, userID, eventID string, expected time.Time) error {
	args := m.Called(ctx, tenantID, userID, eventID, expected)
	return args.Error(0)
}

// BurstSource is a mock for event.BurstSource.
type BurstSource struct {
	mock.Mock
}

func (m *BurstSource) StudyBursts(ctx context.Context, tenantID string) ([]event.BurstConfig, error) {
	args := m.Called(ctx, tenantID)
	if list, ok := args.Get(0).([]event.BurstConfig); ok {
		return list, args.Error(1)
	}
	return nil, args.Error(1)
}

// TimelineRepository is a mock for timeline.Repository.
type TimelineRepository struct {
	mock.Mock
}

func (m *TimelineRepository) Save(ctx context.Context, tenantID string, def schedule.Schedule, tl *timeline.Timeline) error {
	args := m.Called(ctx, tenantID, def, tl)
	return args.Error(0)
}

func (m *TimelineRepository) GetSchedule(ctx context.Context, tenantID string) (*schedule.Schedule, error) {
	args := m.Called(ctx, tenantID)
	if def, ok := args.Get(0).(*schedule.Schedule); ok {
		return def, args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *TimelineRepository) GetTimeline(ctx context.Context, tenantID string) (*timeline.Timeline, error) {
	args := m.Called(ctx, tenantID)
	if tl, ok := args.Get(0).(*timeline.Timeline); ok {
		return tl, args.Error(1)
	}
	return nil, args.Error(1)
}

// RecordRepository is a mock for adherence.Repository.
type RecordRepository struct {
	mock.Mock
}

func (m *RecordRepository) Upsert(ctx context.Context, tenantID string, records []adherence.Record) error {
	args := m.Called(ctx, tenantID, records)
	return args.Error(0)
}

func (m *RecordRepository) List(ctx context.Context, tenantID, userID string) ([]adherence.Record, error) {
	args := m.Called(ctx, tenantID, userID)
	if list, ok := args.Get(0).([]adherence.Record); ok {
		return list, args.Error(1)
	}
	return nil, args.Error(1)
}

// HistoryRepository is a mock for event.HistoryRepository.
type HistoryRepository struct {
	mock.Mock
}

func (m *HistoryRepository) Append(ctx context.Context, tenantID string, entry *event.HistoryEntry) error {
	args := m.Called(ctx, tenantID, entry)
	return args.Error(0)
}

func (m *HistoryRepository) List(ctx context.Context, tenantID, userID string, opts event.HistoryOptions) ([]event.HistoryEntry, error) {
	args := m.Called(ctx, tenantID, userID, opts)
	if list, ok := args.Get(0).([]event.HistoryEntry); ok {
		return list, args.Error(1)
	}
	return nil, args.Error(1)
}
