package mcp

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/rpggio/cadence/internal/domain/adherence"
	"github.com/rpggio/cadence/internal/domain/event"
	"github.com/rpggio/cadence/internal/domain/report"
	"github.com/rpggio/cadence/internal/domain/schedule"
	"github.com/rpggio/cadence/internal/domain/timeline"
)

// EventService defines event operations needed by MCP.
type EventService interface {
	Record(ctx context.Context, tenantID string, req event.RecordRequest) (*event.RecordResult, error)
	Delete(ctx context.Context, tenantID, userID, eventKey string) error
	List(ctx context.Context, tenantID, userID string) ([]event.ActivityEvent, error)
	History(ctx context.Context, tenantID, userID string, opts event.HistoryOptions) ([]event.HistoryEntry, error)
}

// ScheduleService defines schedule and timeline operations needed by MCP.
type ScheduleService interface {
	PublishDefinition(ctx context.Context, tenantID string, data []byte) (*schedule.Schedule, *timeline.Timeline, error)
	Get(ctx context.Context, tenantID string) (*timeline.Timeline, error)
	Schedule(ctx context.Context, tenantID string) (*schedule.Schedule, error)
}

// RecordService defines adherence record operations needed by MCP.
type RecordService interface {
	UpdateRecords(ctx context.Context, tenantID, userID string, records []adherence.Record) ([]adherence.Record, error)
	ListRecords(ctx context.Context, tenantID, userID string) ([]adherence.Record, error)
}

// ReportService defines adherence report operations needed by MCP.
type ReportService interface {
	EventStreams(ctx context.Context, tenantID string, req report.Request) (*adherence.EventStreamReport, error)
	Study(ctx context.Context, tenantID string, req report.Request) (*report.StudyReport, error)
}

// Services contains all domain services needed by MCP.
type Services struct {
	Events    EventService
	Schedules ScheduleService
	Records   RecordService
	Reports   ReportService
}

// Handler dispatches MCP commands.
type Handler struct {
	services Services
	logger   *slog.Logger
}

// NewHandler creates a new MCP handler.
func NewHandler(services Services, logger *slog.Logger) *Handler {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Handler{services: services, logger: logger}
}

// Handle dispatches MCP requests to domain services.
func (h *Handler) Handle(ctx context.Context, tenantID, sessionID, method string, params json.RawMessage) (any, error) {
	h.logger.Debug("tool call", "tenant_id", tenantID, "session_id", sessionID, "tool", method)

	switch method {
	case "record_event":
		var req RecordEventParams
		if err := decodeParams(params, &req); err != nil {
			return nil, mapError(err)
		}
		result, err := h.services.Events.Record(ctx, tenantID, event.RecordRequest{
			UserID:         req.UserID,
			EventKey:       req.EventID,
			Timestamp:      req.Timestamp,
			ClientTimeZone: req.ClientTimeZone,
		})
		if err != nil {
			return nil, mapError(err)
		}
		return result, nil
	case "delete_event":
		var req DeleteEventParams
		if err := decodeParams(params, &req); err != nil {
			return nil, mapError(err)
		}
		if err := h.services.Events.Delete(ctx, tenantID, req.UserID, req.EventID); err != nil {
			return nil, mapError(err)
		}
		return DeleteEventResult{UserID: req.UserID, EventID: req.EventID, Deleted: true}, nil
	case "list_events":
		var req ListEventsParams
		if err := decodeParams(params, &req); err != nil {
			return nil, mapError(err)
		}
		events, err := h.services.Events.List(ctx, tenantID, req.UserID)
		if err != nil {
			return nil, mapError(err)
		}
		return EventListResult{Events: events}, nil
	case "get_event_history":
		var req GetEventHistoryParams
		if err := decodeParams(params, &req); err != nil {
			return nil, mapError(err)
		}
		entries, err := h.services.Events.History(ctx, tenantID, req.UserID, event.HistoryOptions{
			EventID: req.EventID,
			Limit:   req.Limit,
			Offset:  req.Offset,
		})
		if err != nil {
			return nil, mapError(err)
		}
		return EventHistoryResult{Entries: entries}, nil
	case "publish_schedule":
		var req PublishScheduleParams
		if err := decodeParams(params, &req); err != nil {
			return nil, mapError(err)
		}
		def, tl, err := h.services.Schedules.PublishDefinition(ctx, tenantID, []byte(req.Definition))
		if err != nil {
			return nil, mapError(err)
		}
		return PublishScheduleResult{Schedule: def, Timeline: tl}, nil
	case "get_timeline":
		var req GetTimelineParams
		if err := decodeParams(params, &req); err != nil {
			return nil, mapError(err)
		}
		tl, err := h.services.Schedules.Get(ctx, tenantID)
		if err != nil {
			return nil, mapError(err)
		}
		result := TimelineResult{Timeline: tl}
		if req.IncludeSchedule {
			if result.Schedule, err = h.services.Schedules.Schedule(ctx, tenantID); err != nil {
				return nil, mapError(err)
			}
		}
		return result, nil
	case "update_adherence_records":
		var req UpdateAdherenceRecordsParams
		if err := decodeParams(params, &req); err != nil {
			return nil, mapError(err)
		}
		records := make([]adherence.Record, 0, len(req.Records))
		for _, r := range req.Records {
			records = append(records, adherence.Record{
				InstanceGuid:   r.InstanceGuid,
				StartedOn:      r.StartedOn,
				FinishedOn:     r.FinishedOn,
				Declined:       r.Declined,
				ClientTimeZone: r.ClientTimeZone,
			})
		}
		saved, err := h.services.Records.UpdateRecords(ctx, tenantID, req.UserID, records)
		if err != nil {
			return nil, mapError(err)
		}
		return AdherenceRecordsResult{Records: saved}, nil
	case "list_adherence_records":
		var req ListAdherenceRecordsParams
		if err := decodeParams(params, &req); err != nil {
			return nil, mapError(err)
		}
		records, err := h.services.Records.ListRecords(ctx, tenantID, req.UserID)
		if err != nil {
			return nil, mapError(err)
		}
		return AdherenceRecordsResult{Records: records}, nil
	case "get_event_stream_adherence":
		var req AdherenceReportParams
		if err := decodeParams(params, &req); err != nil {
			return nil, mapError(err)
		}
		rep, err := h.services.Reports.EventStreams(ctx, tenantID, reportRequest(req))
		if err != nil {
			return nil, mapError(err)
		}
		return rep, nil
	case "get_study_adherence":
		var req AdherenceReportParams
		if err := decodeParams(params, &req); err != nil {
			return nil, mapError(err)
		}
		rep, err := h.services.Reports.Study(ctx, tenantID, reportRequest(req))
		if err != nil {
			return nil, mapError(err)
		}
		return rep, nil
	default:
		return nil, mapError(fmt.Errorf("%w: %s", ErrUnknownTool, method))
	}
}

func reportRequest(p AdherenceReportParams) report.Request {
	req := report.Request{
		UserID:            p.UserID,
		ClientTimeZone:    p.ClientTimeZone,
		ShowActive:        p.ShowActive,
		StudyStartEventID: p.StudyStartEventID,
	}
	if p.Now != nil {
		req.Now = *p.Now
	}
	return req
}

func decodeParams(params json.RawMessage, out any) error {
	if len(bytes.TrimSpace(params)) == 0 || bytes.Equal(bytes.TrimSpace(params), []byte("null")) {
		return nil
	}
	dec := json.NewDecoder(bytes.NewReader(params))
	dec.DisallowUnknownFields()
	if err := dec.Decode(out); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidParams, err)
	}
	return nil
}

func mapError(err error) error {
	if apiErr := MapError(err); apiErr != nil {
		return apiErr
	}
	return err
}
