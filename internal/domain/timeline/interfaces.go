package timeline

import (
	"context"

	"github.com/rpggio/cadence/internal/domain/schedule"
)

// Repository persists the published schedule and its timeline. Save replaces
// both wholesale.
type Repository interface {
	Save(ctx context.Context, tenantID string, def schedule.Schedule, tl *Timeline) error
	GetSchedule(ctx context.Context, tenantID string) (*schedule.Schedule, error)
	GetTimeline(ctx context.Context, tenantID string) (*Timeline, error)
}
