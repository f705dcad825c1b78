package sqlite

import (
	"context"
	"fmt"

	"github.com/conslogger/conslogger/internal/models"
	"github.com/conslogger/conslogger/internal/server/storage"
)

// PutSite creates or replaces a site in the owner's collection
func (s *Storage) PutSite(ctx context.Context, ownerID string, site *models.Site) error {
	query := `
		INSERT OR REPLACE INTO sites (owner_id, id, name, location, created_at, is_default)
		VALUES (?, ?, ?, ?, ?, ?)
	`

	isDefault := 0
	if site.IsDefault {
		isDefault = 1
	}

	_, err := s.db.ExecContext(ctx, query,
		ownerID,
		site.ID,
		site.Name,
		site.Location,
		site.CreatedAt,
		isDefault,
	)

	if err != nil {
		return fmt.Errorf("failed to put site: %w", err)
	}

	return nil
}

// GetSites retrieves all owner's sites ordered by creation time
func (s *Storage) GetSites(ctx context.Context, ownerID string) ([]*models.Site, error) {
	query := `
		SELECT id, name, location, created_at, is_default
		FROM sites
		WHERE owner_id = ?
		ORDER BY created_at ASC
	`

	rows, err := s.db.QueryContext(ctx, query, ownerID)
	if err != nil {
		return nil, fmt.Errorf("failed to query sites: %w", err)
	}
	defer func() {
		_ = rows.Close()
	}()

	var sites []*models.Site

	for rows.Next() {
		site := &models.Site{}
		var isDefault int

		if err := rows.Scan(
			&site.ID,
			&site.Name,
			&site.Location,
			&site.CreatedAt,
			&isDefault,
		); err != nil {
			return nil, fmt.Errorf("failed to scan site: %w", err)
		}

		site.IsDefault = isDefault != 0
		sites = append(sites, site)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows iteration error: %w", err)
	}

	return sites, nil
}

// DeleteSite removes a site from the owner's collection
func (s *Storage) DeleteSite(ctx context.Context, ownerID, siteID string) error {
	query := `DELETE FROM sites WHERE owner_id = ? AND id = ?`

	result, err := s.db.ExecContext(ctx, query, ownerID, siteID)
	if err != nil {
		return fmt.Errorf("failed to delete site: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}

	if rows == 0 {
		return storage.ErrSiteNotFound
	}

	return nil
}

// PutShift creates or replaces a shift in the owner's collection
func (s *Storage) PutShift(ctx context.Context, ownerID string, shift *models.Shift) error {
	query := `
		INSERT OR REPLACE INTO shifts (owner_id, id, site_id, name, start_time, end_time)
		VALUES (?, ?, ?, ?, ?, ?)
	`

	_, err := s.db.ExecContext(ctx, query,
		ownerID,
		shift.ID,
		shift.SiteID,
		shift.Name,
		shift.StartTime,
		shift.EndTime,
	)

	if err != nil {
		return fmt.Errorf("failed to put shift: %w", err)
	}

	return nil
}

// GetShiftsBySite retrieves shifts configured for a site
func (s *Storage) GetShiftsBySite(ctx context.Context, ownerID, siteID string) ([]*models.Shift, error) {
	query := `
		SELECT id, site_id, name, start_time, end_time
		FROM shifts
		WHERE owner_id = ? AND site_id = ?
		ORDER BY start_time ASC
	`

	rows, err := s.db.QueryContext(ctx, query, ownerID, siteID)
	if err != nil {
		return nil, fmt.Errorf("failed to query shifts: %w", err)
	}
	defer func() {
		_ = rows.Close()
	}()

	var shifts []*models.Shift

	for rows.Next() {
		shift := &models.Shift{}
		if err := rows.Scan(
			&shift.ID,
			&shift.SiteID,
			&shift.Name,
			&shift.StartTime,
			&shift.EndTime,
		); err != nil {
			return nil, fmt.Errorf("failed to scan shift: %w", err)
		}
		shifts = append(shifts, shift)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows iteration error: %w", err)
	}

	return shifts, nil
}

// DeleteShift removes a shift
func (s *Storage) DeleteShift(ctx context.Context, ownerID, shiftID string) error {
	query := `DELETE FROM shifts WHERE owner_id = ? AND id = ?`

	result, err := s.db.ExecContext(ctx, query, ownerID, shiftID)
	if err != nil {
		return fmt.Errorf("failed to delete shift: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}

	if rows == 0 {
		return storage.ErrShiftNotFound
	}

	return nil
}
