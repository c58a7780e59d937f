package sqlite

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/rpggio/cadence/internal/domain/adherence"
)

// RecordRepository implements adherence.Repository for SQLite
type RecordRepository struct {
	db *DB
}

// NewRecordRepository creates a new RecordRepository
func NewRecordRepository(db *DB) *RecordRepository {
	return &RecordRepository{db: db}
}

// Upsert writes all records in one transaction, replacing any stored record
// for the same session instance.
func (r *RecordRepository) Upsert(ctx context.Context, tenantID string, records []adherence.Record) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	query := `
		INSERT INTO adherence_records (
			tenant_id, user_id, instance_guid,
			started_on, finished_on, declined, client_time_zone, updated_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(tenant_id, user_id, instance_guid) DO UPDATE SET
			started_on = excluded.started_on,
			finished_on = excluded.finished_on,
			declined = excluded.declined,
			client_time_zone = excluded.client_time_zone,
			updated_at = excluded.updated_at
	`
	stmt, err := tx.PrepareContext(ctx, query)
	if err != nil {
		return fmt.Errorf("failed to prepare record upsert: %w", err)
	}
	defer stmt.Close()

	for _, rec := range records {
		if _, err := stmt.ExecContext(ctx,
			tenantID,
			rec.UserID,
			rec.InstanceGuid,
			formatNullTime(rec.StartedOn),
			formatNullTime(rec.FinishedOn),
			rec.Declined,
			nullString(rec.ClientTimeZone),
			formatTime(rec.UpdatedAt),
		); err != nil {
			return fmt.Errorf("failed to upsert record %s: %w", rec.InstanceGuid, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit records: %w", err)
	}
	return nil
}

// List returns every record of a participant
func (r *RecordRepository) List(ctx context.Context, tenantID, userID string) ([]adherence.Record, error) {
	query := `
		SELECT user_id, instance_guid, started_on, finished_on, declined, client_time_zone, updated_at
		FROM adherence_records
		WHERE tenant_id = ? AND user_id = ?
		ORDER BY instance_guid
	`

	rows, err := r.db.QueryContext(ctx, query, tenantID, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to list records: %w", err)
	}
	defer rows.Close()

	records := []adherence.Record{}
	for rows.Next() {
		var (
			rec        adherence.Record
			startedOn  sql.NullString
			finishedOn sql.NullString
			zone       sql.NullString
			updatedAt  string
		)
		if err := rows.Scan(
			&rec.UserID,
			&rec.InstanceGuid,
			&startedOn,
			&finishedOn,
			&rec.Declined,
			&zone,
			&updatedAt,
		); err != nil {
			return nil, fmt.Errorf("failed to scan record: %w", err)
		}
		if rec.StartedOn, err = parseNullTime(startedOn); err != nil {
			return nil, err
		}
		if rec.FinishedOn, err = parseNullTime(finishedOn); err != nil {
			return nil, err
		}
		if rec.UpdatedAt, err = parseTime(updatedAt); err != nil {
			return nil, err
		}
		rec.ClientTimeZone = zone.String
		records = append(records, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating record rows: %w", err)
	}
	return records, nil
}
