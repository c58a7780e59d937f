package adherence

import "context"

// Repository persists adherence records, one per participant and instance.
type Repository interface {
	Upsert(ctx context.Context, tenantID string, records []Record) error
	List(ctx context.Context, tenantID, userID string) ([]Record, error)
}
