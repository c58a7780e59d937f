package event

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/rpggio/cadence/internal/repository"
)

// maxWriteAttempts bounds compare-and-set retries when writers race on one event.
const maxWriteAttempts = 3

// Service handles activity event writes under their update policies.
type Service struct {
	repo     Repository
	bursts   BurstSource
	resolver PolicyResolver
	history  HistoryRepository
	logger   *slog.Logger
	now      func() time.Time
}

// NewService creates a new event service. bursts may be nil when no schedule
// defines study bursts.
func NewService(repo Repository, bursts BurstSource, resolver PolicyResolver, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Service{
		repo:     repo,
		bursts:   bursts,
		resolver: resolver,
		logger:   logger,
		now:      time.Now,
	}
}

// WithHistory makes the service log every accepted change to h.
func (s *Service) WithHistory(h HistoryRepository) *Service {
	s.history = h
	return s
}

// RecordRequest describes an event write.
type RecordRequest struct {
	UserID         string
	EventKey       string
	Timestamp      time.Time
	ClientTimeZone string
}

// RecordResult holds the written event and any study-burst events it fired.
type RecordResult struct {
	Event       ActivityEvent   `json:"event"`
	BurstEvents []ActivityEvent `json:"burst_events,omitempty"`
}

// Record writes an event if its policy allows it. A refused write returns a
// *RejectedError. When the event is the origin of a study burst, the burst's
// synthetic events are written too; those the policy refuses are skipped.
func (s *Service) Record(ctx context.Context, tenantID string, req RecordRequest) (*RecordResult, error) {
	if strings.TrimSpace(req.UserID) == "" || req.Timestamp.IsZero() {
		return nil, ErrInvalidInput
	}
	id, err := ParseClientKey(req.EventKey)
	if err != nil {
		return nil, err
	}

	bursts, err := s.studyBursts(ctx, tenantID)
	if err != nil {
		return nil, err
	}
	resolver := s.resolver.WithBursts(bursts)
	now := s.now()

	written, err := s.write(ctx, tenantID, ActivityEvent{
		UserID:         req.UserID,
		EventID:        id.String(),
		Timestamp:      req.Timestamp,
		Policy:         resolver.Resolve(id),
		ClientTimeZone: req.ClientTimeZone,
		CreatedOn:      now,
	})
	if err != nil {
		return nil, err
	}
	result := &RecordResult{Event: *written}

	for _, burst := range bursts {
		if burst.OriginEventID != written.EventID {
			continue
		}
		for _, synthetic := range BurstEvents(req.UserID, written.Timestamp, burst) {
			synthetic.ClientTimeZone = req.ClientTimeZone
			synthetic.CreatedOn = now
			ev, err := s.write(ctx, tenantID, synthetic)
			if errors.Is(err, ErrUpdateRejected) || errors.Is(err, ErrConcurrentUpdate) {
				s.logger.Debug("skipping study burst event", "event_id", synthetic.EventID, "user_id", req.UserID, "reason", err)
				continue
			}
			if err != nil {
				return nil, fmt.Errorf("writing study burst event %s: %w", synthetic.EventID, err)
			}
			result.BurstEvents = append(result.BurstEvents, *ev)
		}
	}

	s.logger.Info("event recorded", "tenant_id", tenantID, "user_id", req.UserID, "event_id", written.EventID, "burst_events", len(result.BurstEvents))
	return result, nil
}

// Delete removes a mutable event.
func (s *Service) Delete(ctx context.Context, tenantID, userID, eventKey string) error {
	if strings.TrimSpace(userID) == "" {
		return ErrInvalidInput
	}
	id, err := ParseClientKey(eventKey)
	if err != nil {
		return err
	}

	for attempt := 0; attempt < maxWriteAttempts; attempt++ {
		existing, err := s.load(ctx, tenantID, userID, id.String())
		if err != nil {
			return err
		}
		if existing == nil {
			return ErrEventNotFound
		}
		if !CanDelete(existing) {
			return &RejectedError{EventID: existing.EventID, Policy: existing.Policy, Reason: "only mutable events can be deleted"}
		}

		err = s.repo.Delete(ctx, tenantID, userID, existing.EventID, existing.Timestamp)
		switch {
		case err == nil:
			s.logger.Info("event deleted", "tenant_id", tenantID, "user_id", userID, "event_id", existing.EventID)
			s.appendHistory(ctx, tenantID, *existing, HistoryDeleted)
			return nil
		case errors.Is(err, repository.ErrNotFound):
			return ErrEventNotFound
		case !errors.Is(err, repository.ErrConflict):
			return fmt.Errorf("deleting event: %w", err)
		}
	}
	return ErrConcurrentUpdate
}

// List returns all events for a participant.
func (s *Service) List(ctx context.Context, tenantID, userID string) ([]ActivityEvent, error) {
	if strings.TrimSpace(userID) == "" {
		return nil, ErrInvalidInput
	}
	events, err := s.repo.List(ctx, tenantID, userID)
	if err != nil {
		return nil, fmt.Errorf("listing events: %w", err)
	}
	return events, nil
}

// History lists accepted changes to a participant's events, newest first.
func (s *Service) History(ctx context.Context, tenantID, userID string, opts HistoryOptions) ([]HistoryEntry, error) {
	if strings.TrimSpace(userID) == "" {
		return nil, ErrInvalidInput
	}
	if s.history == nil {
		return []HistoryEntry{}, nil
	}
	if opts.EventID != "" {
		id, err := ParseClientKey(opts.EventID)
		if err != nil {
			return nil, err
		}
		opts.EventID = id.String()
	}
	entries, err := s.history.List(ctx, tenantID, userID, opts)
	if err != nil {
		return nil, fmt.Errorf("listing event history: %w", err)
	}
	return entries, nil
}

// appendHistory logs a change. Failures are logged, not returned.
func (s *Service) appendHistory(ctx context.Context, tenantID string, ev ActivityEvent, action HistoryAction) {
	if s.history == nil {
		return
	}
	entry := &HistoryEntry{
		UserID:         ev.UserID,
		EventID:        ev.EventID,
		Action:         action,
		Timestamp:      ev.Timestamp,
		Policy:         ev.Policy,
		ClientTimeZone: ev.ClientTimeZone,
		CreatedAt:      s.now(),
	}
	if err := s.history.Append(ctx, tenantID, entry); err != nil {
		s.logger.Warn("failed to append event history", "tenant_id", tenantID, "event_id", ev.EventID, "error", err)
	}
}

// write applies candidate with compare-and-set against the value it was decided on.
func (s *Service) write(ctx context.Context, tenantID string, candidate ActivityEvent) (*ActivityEvent, error) {
	for attempt := 0; attempt < maxWriteAttempts; attempt++ {
		existing, err := s.load(ctx, tenantID, candidate.UserID, candidate.EventID)
		if err != nil {
			return nil, err
		}

		decision := ResolveUpdate(existing, candidate)
		if !decision.Accepted {
			return nil, &RejectedError{EventID: candidate.EventID, Policy: existing.Policy, Reason: decision.RejectedReason}
		}

		next := candidate
		var expected *time.Time
		if existing != nil {
			// The policy is fixed when the event is first created.
			next.Policy = existing.Policy
			next.CreatedOn = existing.CreatedOn
			prev := existing.Timestamp
			expected = &prev
		}

		err = s.repo.Put(ctx, tenantID, &next, expected)
		if err == nil {
			s.appendHistory(ctx, tenantID, next, HistoryRecorded)
			return &next, nil
		}
		if !errors.Is(err, repository.ErrConflict) {
			return nil, fmt.Errorf("writing event: %w", err)
		}
		s.logger.Debug("event write conflict", "event_id", candidate.EventID, "user_id", candidate.UserID, "attempt", attempt+1)
	}
	return nil, ErrConcurrentUpdate
}

func (s *Service) load(ctx context.Context, tenantID, userID, eventID string) (*ActivityEvent, error) {
	existing, err := s.repo.Get(ctx, tenantID, userID, eventID)
	if errors.Is(err, repository.ErrNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("loading event: %w", err)
	}
	return existing, nil
}

func (s *Service) studyBursts(ctx context.Context, tenantID string) ([]BurstConfig, error) {
	if s.bursts == nil {
		return nil, nil
	}
	bursts, err := s.bursts.StudyBursts(ctx, tenantID)
	if err != nil {
		return nil, fmt.Errorf("loading study bursts: %w", err)
	}
	return bursts, nil
}
