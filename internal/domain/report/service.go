package report

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/rpggio/cadence/internal/chrono"
	"github.com/rpggio/cadence/internal/domain/adherence"
	"github.com/rpggio/cadence/internal/domain/event"
	"github.com/rpggio/cadence/internal/domain/timeline"
	"github.com/rpggio/cadence/internal/repository"
)

// Service loads a participant's inputs and computes adherence reports.
type Service struct {
	timelines TimelineSource
	events    EventSource
	records   RecordSource
	logger    *slog.Logger
	now       func() time.Time
}

// NewService creates a new report service.
func NewService(timelines TimelineSource, events EventSource, records RecordSource, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Service{
		timelines: timelines,
		events:    events,
		records:   records,
		logger:    logger,
		now:       time.Now,
	}
}

// Request selects the participant and the point in time to report on.
type Request struct {
	UserID string
	// Now defaults to the current time.
	Now               time.Time
	ClientTimeZone    string
	ShowActive        bool
	StudyStartEventID string
}

type inputs struct {
	timeline *timeline.Timeline
	events   []event.ActivityEvent
	records  []adherence.Record
	now      time.Time
	loc      *time.Location
}

// EventStreams reports adherence grouped by start event.
func (s *Service) EventStreams(ctx context.Context, tenantID string, req Request) (*adherence.EventStreamReport, error) {
	in, err := s.load(ctx, tenantID, req)
	if err != nil {
		return nil, err
	}
	return adherence.EvaluateEventStreams(adherence.Input{
		Metadata: in.timeline.Metadata,
		Events:   in.events,
		Records:  in.records,
		Now:      in.now,
		Location: in.loc,
	}, req.ShowActive), nil
}

// Study reports adherence over the whole study, week by week.
func (s *Service) Study(ctx context.Context, tenantID string, req Request) (*StudyReport, error) {
	in, err := s.load(ctx, tenantID, req)
	if err != nil {
		return nil, err
	}
	report := BuildStudyReport(AdherenceState{
		Timeline:          in.timeline,
		Events:            in.events,
		Records:           in.records,
		Now:               in.now,
		Location:          in.loc,
		StudyStartEventID: req.StudyStartEventID,
	})
	s.logger.Debug("study report built",
		"tenant_id", tenantID,
		"user_id", req.UserID,
		"progression", report.Progression,
		"weeks", len(report.Weeks))
	return report, nil
}

func (s *Service) load(ctx context.Context, tenantID string, req Request) (*inputs, error) {
	if strings.TrimSpace(req.UserID) == "" {
		return nil, fmt.Errorf("%w: user_id is required", ErrInvalidInput)
	}
	loc, err := chrono.LoadLocation(req.ClientTimeZone)
	if err != nil {
		return nil, fmt.Errorf("%w: %q", ErrInvalidTimeZone, req.ClientTimeZone)
	}
	now := req.Now
	if now.IsZero() {
		now = s.now()
	}

	tl, err := s.timelines.GetTimeline(ctx, tenantID)
	if err != nil {
		if !errors.Is(err, repository.ErrNotFound) {
			return nil, fmt.Errorf("getting timeline: %w", err)
		}
		tl = &timeline.Timeline{}
	}
	events, err := s.events.List(ctx, tenantID, req.UserID)
	if err != nil {
		return nil, fmt.Errorf("listing events: %w", err)
	}
	records, err := s.records.List(ctx, tenantID, req.UserID)
	if err != nil {
		return nil, fmt.Errorf("listing adherence records: %w", err)
	}
	return &inputs{timeline: tl, events: events, records: records, now: now, loc: loc}, nil
}
