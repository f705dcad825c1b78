package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/conslogger/conslogger/internal/models"
	"github.com/conslogger/conslogger/internal/server/storage"
)

// PutLog creates or replaces a halt log in the owner's collection
func (s *Storage) PutLog(ctx context.Context, ownerID string, log *models.HaltLog) error {
	query := `
		INSERT OR REPLACE INTO halt_logs (
			owner_id, id, date, arrival, departure, duration_sec,
			status, category, sub_category, site_id, shift_id, shift_name,
			created_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`

	_, err := s.db.ExecContext(ctx, query,
		ownerID,
		log.ID,
		log.Date,
		log.Arrival,
		log.Departure,
		log.DurationSec,
		string(log.Status),
		log.Category,
		log.SubCategory,
		log.SiteID,
		log.ShiftID,
		log.ShiftName,
		log.CreatedAt,
	)

	if err != nil {
		return fmt.Errorf("failed to put log: %w", err)
	}

	return nil
}

// GetLog retrieves a single log by id
func (s *Storage) GetLog(ctx context.Context, ownerID, logID string) (*models.HaltLog, error) {
	query := `
		SELECT id, date, arrival, departure, duration_sec,
		       status, category, sub_category, site_id, shift_id, shift_name,
		       created_at
		FROM halt_logs
		WHERE owner_id = ? AND id = ?
	`

	log := &models.HaltLog{}
	var status string

	err := s.db.QueryRowContext(ctx, query, ownerID, logID).Scan(
		&log.ID,
		&log.Date,
		&log.Arrival,
		&log.Departure,
		&log.DurationSec,
		&status,
		&log.Category,
		&log.SubCategory,
		&log.SiteID,
		&log.ShiftID,
		&log.ShiftName,
		&log.CreatedAt,
	)

	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, storage.ErrLogNotFound
		}
		return nil, fmt.Errorf("failed to get log: %w", err)
	}

	log.Status = models.LogStatus(status)

	return log, nil
}

// GetLogsByDate retrieves all owner's logs for a date bucket, newest arrival first
func (s *Storage) GetLogsByDate(ctx context.Context, ownerID, date string) ([]*models.HaltLog, error) {
	query := `
		SELECT id, date, arrival, departure, duration_sec,
		       status, category, sub_category, site_id, shift_id, shift_name,
		       created_at
		FROM halt_logs
		WHERE owner_id = ? AND date = ?
		ORDER BY arrival DESC
	`

	rows, err := s.db.QueryContext(ctx, query, ownerID, date)
	if err != nil {
		return nil, fmt.Errorf("failed to query logs: %w", err)
	}
	defer func() {
		_ = rows.Close()
	}()

	return scanLogs(rows)
}

// DeleteLog removes a log from the owner's collection
func (s *Storage) DeleteLog(ctx context.Context, ownerID, logID string) error {
	query := `DELETE FROM halt_logs WHERE owner_id = ? AND id = ?`

	result, err := s.db.ExecContext(ctx, query, ownerID, logID)
	if err != nil {
		return fmt.Errorf("failed to delete log: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}

	if rows == 0 {
		return storage.ErrLogNotFound
	}

	return nil
}

// BulkDeleteLogs removes several logs in a single transaction
func (s *Storage) BulkDeleteLogs(ctx context.Context, ownerID string, logIDs []string) (int, error) {
	if len(logIDs) == 0 {
		return 0, nil
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() {
		_ = tx.Rollback()
	}()

	deleted := 0
	for _, id := range logIDs {
		result, err := tx.ExecContext(ctx,
			`DELETE FROM halt_logs WHERE owner_id = ? AND id = ?`, ownerID, id)
		if err != nil {
			return 0, fmt.Errorf("failed to delete log %s: %w", id, err)
		}
		rows, err := result.RowsAffected()
		if err != nil {
			return 0, fmt.Errorf("failed to get rows affected: %w", err)
		}
		deleted += int(rows)
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("failed to commit bulk delete: %w", err)
	}

	return deleted, nil
}

func scanLogs(rows *sql.Rows) ([]*models.HaltLog, error) {
	var logs []*models.HaltLog

	for rows.Next() {
		log := &models.HaltLog{}
		var status string

		err := rows.Scan(
			&log.ID,
			&log.Date,
			&log.Arrival,
			&log.Departure,
			&log.DurationSec,
			&status,
			&log.Category,
			&log.SubCategory,
			&log.SiteID,
			&log.ShiftID,
			&log.ShiftName,
			&log.CreatedAt,
		)

		if err != nil {
			return nil, fmt.Errorf("failed to scan log: %w", err)
		}

		log.Status = models.LogStatus(status)
		logs = append(logs, log)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows iteration error: %w", err)
	}

	return logs, nil
}
