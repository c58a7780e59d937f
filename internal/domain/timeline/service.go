package timeline

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/google/uuid"
	"github.com/rpggio/cadence/internal/domain/event"
	"github.com/rpggio/cadence/internal/domain/schedule"
	"github.com/rpggio/cadence/internal/repository"
)

// Service publishes schedules and serves their timelines.
type Service struct {
	repo   Repository
	logger *slog.Logger
}

// NewService creates a new timeline service.
func NewService(repo Repository, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Service{repo: repo, logger: logger}
}

// Publish assigns missing guids, builds the timeline and stores both,
// replacing whatever the study had before.
func (s *Service) Publish(ctx context.Context, tenantID string, def schedule.Schedule) (*schedule.Schedule, *Timeline, error) {
	def = schedule.WithGuids(def, uuid.NewString)

	tl, err := Build(def)
	if err != nil {
		return nil, nil, fmt.Errorf("building timeline: %w", err)
	}
	if err := s.repo.Save(ctx, tenantID, def, tl); err != nil {
		return nil, nil, fmt.Errorf("saving schedule: %w", err)
	}

	s.logger.Info("schedule published",
		"tenant_id", tenantID,
		"schedule_guid", def.Guid,
		"sessions", len(def.Sessions),
		"rows", len(tl.Metadata))
	return &def, tl, nil
}

// PublishDefinition decodes a YAML or JSON schedule definition and publishes it.
func (s *Service) PublishDefinition(ctx context.Context, tenantID string, data []byte) (*schedule.Schedule, *Timeline, error) {
	def, err := schedule.Decode(data)
	if err != nil {
		return nil, nil, err
	}
	return s.Publish(ctx, tenantID, def)
}

// Get returns the study's published timeline.
func (s *Service) Get(ctx context.Context, tenantID string) (*Timeline, error) {
	tl, err := s.repo.GetTimeline(ctx, tenantID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrScheduleNotFound
		}
		return nil, fmt.Errorf("getting timeline: %w", err)
	}
	return tl, nil
}

// Schedule returns the study's published schedule definition.
func (s *Service) Schedule(ctx context.Context, tenantID string) (*schedule.Schedule, error) {
	def, err := s.repo.GetSchedule(ctx, tenantID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrScheduleNotFound
		}
		return nil, fmt.Errorf("getting schedule: %w", err)
	}
	return def, nil
}

// StudyBursts returns the bursts of the published schedule, or none when the
// study has no schedule yet.
func (s *Service) StudyBursts(ctx context.Context, tenantID string) ([]event.BurstConfig, error) {
	def, err := s.Schedule(ctx, tenantID)
	if err != nil {
		if errors.Is(err, ErrScheduleNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return def.BurstConfigs(), nil
}
