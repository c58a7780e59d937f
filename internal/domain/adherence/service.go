package adherence

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"
)

// Service records participant progress on session instances.
type Service struct {
	repo   Repository
	logger *slog.Logger
	now    func() time.Time
}

// NewService creates a new adherence record service.
func NewService(repo Repository, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Service{repo: repo, logger: logger, now: time.Now}
}

// UpdateRecords overwrites the participant's records for the given
// instances. Records naming instances the timeline does not know are kept;
// evaluation ignores them.
func (s *Service) UpdateRecords(ctx context.Context, tenantID, userID string, records []Record) ([]Record, error) {
	if strings.TrimSpace(userID) == "" {
		return nil, fmt.Errorf("%w: user_id is required", ErrInvalidRecord)
	}
	if len(records) == 0 {
		return []Record{}, nil
	}

	now := s.now()
	out := make([]Record, 0, len(records))
	for _, rec := range records {
		if strings.TrimSpace(rec.InstanceGuid) == "" {
			return nil, fmt.Errorf("%w: instance_guid is required", ErrInvalidRecord)
		}
		if rec.StartedOn != nil && rec.FinishedOn != nil && rec.FinishedOn.Before(*rec.StartedOn) {
			return nil, fmt.Errorf("%w: %s finished before it started", ErrInvalidRecord, rec.InstanceGuid)
		}
		rec.UserID = userID
		rec.UpdatedAt = now
		out = append(out, rec)
	}

	if err := s.repo.Upsert(ctx, tenantID, out); err != nil {
		return nil, fmt.Errorf("saving adherence records: %w", err)
	}
	s.logger.Debug("adherence records updated", "tenant_id", tenantID, "user_id", userID, "count", len(out))
	return out, nil
}

// ListRecords returns every record the participant has.
func (s *Service) ListRecords(ctx context.Context, tenantID, userID string) ([]Record, error) {
	records, err := s.repo.List(ctx, tenantID, userID)
	if err != nil {
		return nil, fmt.Errorf("listing adherence records: %w", err)
	}
	return records, nil
}
