package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/rpggio/cadence/internal/domain/schedule"
	"github.com/rpggio/cadence/internal/domain/timeline"
	"github.com/rpggio/cadence/internal/repository"
)

// TimelineRepository implements timeline.Repository for SQLite. Each tenant
// has one published schedule; publishing replaces it with its timeline.
type TimelineRepository struct {
	db  *DB
	now func() time.Time
}

// NewTimelineRepository creates a new TimelineRepository
func NewTimelineRepository(db *DB) *TimelineRepository {
	return &TimelineRepository{db: db, now: time.Now}
}

// Save stores the definition and replaces the tenant's timeline rows
func (r *TimelineRepository) Save(ctx context.Context, tenantID string, def schedule.Schedule, tl *timeline.Timeline) error {
	definition, err := json.Marshal(def)
	if err != nil {
		return fmt.Errorf("failed to encode schedule: %w", err)
	}
	streams, err := json.Marshal(tl.StreamStartEventIDs)
	if err != nil {
		return fmt.Errorf("failed to encode stream events: %w", err)
	}

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	_, err = tx.ExecContext(ctx, `
		INSERT INTO schedules (tenant_id, guid, definition, stream_start_event_ids, published_at)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT(tenant_id) DO UPDATE SET
			guid = excluded.guid,
			definition = excluded.definition,
			stream_start_event_ids = excluded.stream_start_event_ids,
			published_at = excluded.published_at
	`, tenantID, def.Guid, string(definition), string(streams), formatTime(r.now()))
	if err != nil {
		return fmt.Errorf("failed to save schedule: %w", err)
	}

	if _, err := tx.ExecContext(ctx, `DELETE FROM timeline_metadata WHERE tenant_id = ?`, tenantID); err != nil {
		return fmt.Errorf("failed to clear timeline: %w", err)
	}

	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO timeline_metadata (tenant_id, position, instance_guid, session_guid, start_event_id, data)
		VALUES (?, ?, ?, ?, ?, ?)
	`)
	if err != nil {
		return fmt.Errorf("failed to prepare timeline insert: %w", err)
	}
	defer stmt.Close()

	for i, row := range tl.Metadata {
		data, err := json.Marshal(row)
		if err != nil {
			return fmt.Errorf("failed to encode timeline row: %w", err)
		}
		if _, err := stmt.ExecContext(ctx, tenantID, i, row.SessionInstanceGuid, row.SessionGuid, row.StartEventID, string(data)); err != nil {
			return fmt.Errorf("failed to insert timeline row: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit timeline: %w", err)
	}
	return nil
}

// GetSchedule returns the tenant's published schedule
func (r *TimelineRepository) GetSchedule(ctx context.Context, tenantID string) (*schedule.Schedule, error) {
	var definition string
	err := r.db.QueryRowContext(ctx, `SELECT definition FROM schedules WHERE tenant_id = ?`, tenantID).Scan(&definition)
	if err == sql.ErrNoRows {
		return nil, repository.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get schedule: %w", err)
	}

	var def schedule.Schedule
	if err := json.Unmarshal([]byte(definition), &def); err != nil {
		return nil, fmt.Errorf("failed to decode schedule: %w", err)
	}
	return &def, nil
}

// GetTimeline returns the tenant's timeline rows in generation order
func (r *TimelineRepository) GetTimeline(ctx context.Context, tenantID string) (*timeline.Timeline, error) {
	var guid, streams string
	err := r.db.QueryRowContext(ctx,
		`SELECT guid, stream_start_event_ids FROM schedules WHERE tenant_id = ?`, tenantID,
	).Scan(&guid, &streams)
	if err == sql.ErrNoRows {
		return nil, repository.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get timeline: %w", err)
	}

	tl := &timeline.Timeline{ScheduleGuid: guid, Metadata: []timeline.Metadata{}, StreamStartEventIDs: []string{}}
	if err := json.Unmarshal([]byte(streams), &tl.StreamStartEventIDs); err != nil {
		return nil, fmt.Errorf("failed to decode stream events: %w", err)
	}

	rows, err := r.db.QueryContext(ctx,
		`SELECT data FROM timeline_metadata WHERE tenant_id = ? ORDER BY position`, tenantID)
	if err != nil {
		return nil, fmt.Errorf("failed to list timeline rows: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var data string
		if err := rows.Scan(&data); err != nil {
			return nil, fmt.Errorf("failed to scan timeline row: %w", err)
		}
		var row timeline.Metadata
		if err := json.Unmarshal([]byte(data), &row); err != nil {
			return nil, fmt.Errorf("failed to decode timeline row: %w", err)
		}
		tl.Metadata = append(tl.Metadata, row)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating timeline rows: %w", err)
	}
	return tl, nil
}
