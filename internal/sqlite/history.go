package sqlite

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/rpggio/cadence/internal/domain/event"
)

// HistoryRepository implements event.HistoryRepository for SQLite
type HistoryRepository struct {
	db *DB
}

// NewHistoryRepository creates a new HistoryRepository
func NewHistoryRepository(db *DB) *HistoryRepository {
	return &HistoryRepository{db: db}
}

// Append inserts a new history entry
func (r *HistoryRepository) Append(ctx context.Context, tenantID string, entry *event.HistoryEntry) error {
	query := `
		INSERT INTO event_history (
			tenant_id, user_id, event_id, change_type,
			timestamp, update_type, client_time_zone, created_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?)
	`

	result, err := r.db.ExecContext(ctx, query,
		tenantID,
		entry.UserID,
		entry.EventID,
		entry.Action,
		formatTime(entry.Timestamp),
		entry.Policy,
		nullString(entry.ClientTimeZone),
		formatTime(entry.CreatedAt),
	)
	if err != nil {
		return fmt.Errorf("failed to append event history: %w", err)
	}

	id, err := result.LastInsertId()
	if err == nil {
		entry.ID = id
	}
	return nil
}

// List returns a participant's history entries matching the given filters
func (r *HistoryRepository) List(ctx context.Context, tenantID, userID string, opts event.HistoryOptions) ([]event.HistoryEntry, error) {
	query := `
		SELECT
			id, user_id, event_id, change_type,
			timestamp, update_type, client_time_zone, created_at
		FROM event_history
		WHERE tenant_id = ? AND user_id = ?
	`

	args := []interface{}{tenantID, userID}
	conditions := []string{}

	if opts.EventID != "" {
		conditions = append(conditions, "event_id = ?")
		args = append(args, opts.EventID)
	}

	if len(conditions) > 0 {
		query += " AND " + joinConditions(conditions)
	}

	query += " ORDER BY id DESC"

	if opts.Limit > 0 {
		query += " LIMIT ?"
		args = append(args, opts.Limit)
	}
	if opts.Offset > 0 {
		if opts.Limit <= 0 {
			query += " LIMIT -1"
		}
		query += " OFFSET ?"
		args = append(args, opts.Offset)
	}

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list event history: %w", err)
	}
	defer rows.Close()

	entries := []event.HistoryEntry{}
	for rows.Next() {
		var (
			entry     event.HistoryEntry
			timestamp string
			createdAt string
			zone      sql.NullString
		)
		if err := rows.Scan(
			&entry.ID,
			&entry.UserID,
			&entry.EventID,
			&entry.Action,
			&timestamp,
			&entry.Policy,
			&zone,
			&createdAt,
		); err != nil {
			return nil, fmt.Errorf("failed to scan history entry: %w", err)
		}
		if entry.Timestamp, err = parseTime(timestamp); err != nil {
			return nil, err
		}
		if entry.CreatedAt, err = parseTime(createdAt); err != nil {
			return nil, err
		}
		entry.ClientTimeZone = zone.String
		entries = append(entries, entry)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating history rows: %w", err)
	}

	return entries, nil
}

func joinConditions(conditions []string) string {
	if len(conditions) == 0 {
		return ""
	}
	joined := conditions[0]
	for i := 1; i < len(conditions); i++ {
		joined += " AND " + conditions[i]
	}
	return joined
}
