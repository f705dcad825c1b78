package storage

import (
	"context"

	"github.com/conslogger/conslogger/internal/models"
)

// LogStore определяет интерфейс хранилища логов простоя со стороны клиента.
// Две реализации: локальный boltdb (гостевой/offline режим) и удаленная
// коллекция пользователя через API. Сервисы работают с интерфейсом и не
// знают, куда именно пишут.
//
// Date передается явно: локальное хранилище раскладывает логи по дневным
// корзинам и использует дату как префикс ключа.
type LogStore interface {
	// SaveLog создает или перезаписывает лог
	SaveLog(ctx context.Context, log *models.HaltLog) error

	// GetLog возвращает лог по дате и id
	// Возвращает ErrLogNotFound, если лог не существует
	GetLog(ctx context.Context, date, id string) (*models.HaltLog, error)

	// GetLogsByDate возвращает все логи дневной корзины (YYYY-MM-DD),
	// отсортированные по arrival по убыванию
	GetLogsByDate(ctx context.Context, date string) ([]*models.HaltLog, error)

	// DeleteLog удаляет лог
	// Возвращает ErrLogNotFound, если лог не существует
	DeleteLog(ctx context.Context, date, id string) error

	// BulkDeleteLogs удаляет несколько логов одной корзины за один коммит.
	// Возвращает число реально удаленных логов
	BulkDeleteLogs(ctx context.Context, date string, ids []string) (int, error)
}

// SiteStore определяет интерфейс хранилища площадок со стороны клиента
type SiteStore interface {
	// SaveSite создает или перезаписывает площадку
	SaveSite(ctx context.Context, site *models.Site) error

	// GetSites возвращает все площадки, отсортированные по времени создания
	GetSites(ctx context.Context) ([]*models.Site, error)

	// DeleteSite удаляет площадку
	// Возвращает ErrSiteNotFound, если площадка не существует
	DeleteSite(ctx context.Context, id string) error
}

// ShiftStore определяет интерфейс хранилища смен со стороны клиента
type ShiftStore interface {
	// SaveShift создает или перезаписывает смену
	SaveShift(ctx context.Context, shift *models.Shift) error

	// GetShiftsBySite возвращает смены, настроенные для площадки
	GetShiftsBySite(ctx context.Context, siteID string) ([]*models.Shift, error)

	// DeleteShift удаляет смену
	// Возвращает ErrShiftNotFound, если смена не существует
	DeleteShift(ctx context.Context, id string) error
}
