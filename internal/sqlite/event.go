package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/rpggio/cadence/internal/domain/event"
	"github.com/rpggio/cadence/internal/repository"
)

// EventRepository implements event.Repository for SQLite
type EventRepository struct {
	db *DB
}

// NewEventRepository creates a new EventRepository
func NewEventRepository(db *DB) *EventRepository {
	return &EventRepository{db: db}
}

const eventColumns = `user_id, event_id, timestamp, update_type, client_time_zone, created_on`

// Get retrieves one event of a participant
func (r *EventRepository) Get(ctx context.Context, tenantID, userID, eventID string) (*event.ActivityEvent, error) {
	query := `SELECT ` + eventColumns + `
		FROM activity_events
		WHERE tenant_id = ? AND user_id = ? AND event_id = ?
	`

	ev, err := scanEvent(r.db.QueryRowContext(ctx, query, tenantID, userID, eventID))
	if err == sql.ErrNoRows {
		return nil, repository.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get event: %w", err)
	}
	return ev, nil
}

// List returns every event of a participant ordered by event id
func (r *EventRepository) List(ctx context.Context, tenantID, userID string) ([]event.ActivityEvent, error) {
	query := `SELECT ` + eventColumns + `
		FROM activity_events
		WHERE tenant_id = ? AND user_id = ?
		ORDER BY event_id
	`

	rows, err := r.db.QueryContext(ctx, query, tenantID, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to list events: %w", err)
	}
	defer rows.Close()

	events := []event.ActivityEvent{}
	for rows.Next() {
		ev, err := scanEvent(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan event: %w", err)
		}
		events = append(events, *ev)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating event rows: %w", err)
	}
	return events, nil
}

// Put writes ev if the stored timestamp still equals expected. A nil
// expected means the event must not exist yet.
func (r *EventRepository) Put(ctx context.Context, tenantID string, ev *event.ActivityEvent, expected *time.Time) error {
	if expected == nil {
		query := `
			INSERT INTO activity_events (tenant_id, ` + eventColumns + `)
			VALUES (?, ?, ?, ?, ?, ?, ?)
		`
		_, err := r.db.ExecContext(ctx, query,
			tenantID,
			ev.UserID,
			ev.EventID,
			formatTime(ev.Timestamp),
			ev.Policy,
			nullString(ev.ClientTimeZone),
			formatTime(ev.CreatedOn),
		)
		if isUniqueViolation(err) {
			return repository.ErrConflict
		}
		if err != nil {
			return fmt.Errorf("failed to insert event: %w", err)
		}
		return nil
	}

	query := `
		UPDATE activity_events
		SET timestamp = ?, update_type = ?, client_time_zone = ?, created_on = ?
		WHERE tenant_id = ? AND user_id = ? AND event_id = ? AND timestamp = ?
	`
	result, err := r.db.ExecContext(ctx, query,
		formatTime(ev.Timestamp),
		ev.Policy,
		nullString(ev.ClientTimeZone),
		formatTime(ev.CreatedOn),
		tenantID,
		ev.UserID,
		ev.EventID,
		formatTime(*expected),
	)
	if err != nil {
		return fmt.Errorf("failed to update event: %w", err)
	}
	return r.checkAffected(ctx, result, tenantID, ev.UserID, ev.EventID)
}

// Delete removes the event if its timestamp still equals expected
func (r *EventRepository) Delete(ctx context.Context, tenantID, userID, eventID string, expected time.Time) error {
	query := `
		DELETE FROM activity_events
		WHERE tenant_id = ? AND user_id = ? AND event_id = ? AND timestamp = ?
	`
	result, err := r.db.ExecContext(ctx, query, tenantID, userID, eventID, formatTime(expected))
	if err != nil {
		return fmt.Errorf("failed to delete event: %w", err)
	}
	return r.checkAffected(ctx, result, tenantID, userID, eventID)
}

func (r *EventRepository) checkAffected(ctx context.Context, result sql.Result, tenantID, userID, eventID string) error {
	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rowsAffected > 0 {
		return nil
	}

	var exists bool
	checkQuery := `SELECT EXISTS(SELECT 1 FROM activity_events WHERE tenant_id = ? AND user_id = ? AND event_id = ?)`
	if err := r.db.QueryRowContext(ctx, checkQuery, tenantID, userID, eventID).Scan(&exists); err != nil {
		return fmt.Errorf("failed to check event existence: %w", err)
	}
	if !exists {
		return repository.ErrNotFound
	}

	// Event exists but its timestamp moved - conflict
	return repository.ErrConflict
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanEvent(row rowScanner) (*event.ActivityEvent, error) {
	var (
		ev        event.ActivityEvent
		timestamp string
		createdOn string
		zone      sql.NullString
	)
	if err := row.Scan(&ev.UserID, &ev.EventID, &timestamp, &ev.Policy, &zone, &createdOn); err != nil {
		return nil, err
	}

	var err error
	if ev.Timestamp, err = parseTime(timestamp); err != nil {
		return nil, err
	}
	if ev.CreatedOn, err = parseTime(createdOn); err != nil {
		return nil, err
	}
	ev.ClientTimeZone = zone.String
	return &ev, nil
}

func nullString(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}
