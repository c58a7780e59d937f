package report

import (
	"context"

	"github.com/rpggio/cadence/internal/domain/adherence"
	"github.com/rpggio/cadence/internal/domain/event"
	"github.com/rpggio/cadence/internal/domain/timeline"
)

// TimelineSource provides the study's published timeline.
type TimelineSource interface {
	GetTimeline(ctx context.Context, tenantID string) (*timeline.Timeline, error)
}

// EventSource provides a participant's activity events.
type EventSource interface {
	List(ctx context.Context, tenantID, userID string) ([]event.ActivityEvent, error)
}

// RecordSource provides a participant's adherence records.
type RecordSource interface {
	List(ctx context.Context, tenantID, userID string) ([]adherence.Record, error)
}
