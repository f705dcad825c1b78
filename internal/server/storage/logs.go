package storage

import (
	"context"

	"github.com/conslogger/conslogger/internal/models"
)

// LogStorage defines interface for per-owner halt log persistence.
// Логи лежат в дереве владельца; идентификатор уникален в его пределах.
type LogStorage interface {
	// PutLog creates or replaces a log in the owner's collection
	PutLog(ctx context.Context, ownerID string, log *models.HaltLog) error

	// GetLog retrieves a single log by id
	// Returns ErrLogNotFound if log doesn't exist
	GetLog(ctx context.Context, ownerID, logID string) (*models.HaltLog, error)

	// GetLogsByDate retrieves all owner's logs for a date bucket (YYYY-MM-DD)
	// Returns empty slice if no logs found
	GetLogsByDate(ctx context.Context, ownerID, date string) ([]*models.HaltLog, error)

	// DeleteLog removes a log from the owner's collection
	// Returns ErrLogNotFound if log doesn't exist
	DeleteLog(ctx context.Context, ownerID, logID string) error

	// BulkDeleteLogs removes several logs in one transaction.
	// All-or-nothing в пределах дерева одного владельца.
	// Returns number of deleted logs
	BulkDeleteLogs(ctx context.Context, ownerID string, logIDs []string) (int, error)
}

// SiteStorage defines interface for per-owner site persistence
type SiteStorage interface {
	// PutSite creates or replaces a site in the owner's collection
	PutSite(ctx context.Context, ownerID string, site *models.Site) error

	// GetSites retrieves all owner's sites ordered by creation time
	GetSites(ctx context.Context, ownerID string) ([]*models.Site, error)

	// DeleteSite removes a site from the owner's collection
	// Returns ErrSiteNotFound if site doesn't exist
	DeleteSite(ctx context.Context, ownerID, siteID string) error
}

// ShiftStorage defines interface for per-owner shift persistence
type ShiftStorage interface {
	// PutShift creates or replaces a shift in the owner's collection
	PutShift(ctx context.Context, ownerID string, shift *models.Shift) error

	// GetShiftsBySite retrieves shifts configured for a site
	GetShiftsBySite(ctx context.Context, ownerID, siteID string) ([]*models.Shift, error)

	// DeleteShift removes a shift
	// Returns ErrShiftNotFound if shift doesn't exist
	DeleteShift(ctx context.Context, ownerID, shiftID string) error
}
