package event

import (
	"context"
	"time"
)

// Repository provides persistence for activity events. Writes are conditional:
// Put succeeds only if the stored timestamp still equals expected (or, when
// expected is nil, if no event exists yet) and returns repository.ErrConflict
// otherwise.
type Repository interface {
	Get(ctx context.Context, tenantID, userID, eventID string) (*ActivityEvent, error)
	List(ctx context.Context, tenantID, userID string) ([]ActivityEvent, error)
	Put(ctx context.Context, tenantID string, ev *ActivityEvent, expected *time.Time) error
	Delete(ctx context.Context, tenantID, userID, eventID string, expected time.Time) error
}

// BurstSource supplies the study bursts configured for a tenant.
type BurstSource interface {
	StudyBursts(ctx context.Context, tenantID string) ([]BurstConfig, error)
}
