package api

import (
	"context"

	"github.com/conslogger/conslogger/internal/client/storage"
	"github.com/conslogger/conslogger/internal/models"
	"github.com/conslogger/conslogger/pkg/api"
)

// RemoteStore адаптирует API клиент под интерфейсы локального хранилища.
// Привязан к дереву одного владельца; для аутентифицированного
// пользователя это его собственное дерево. Сервисы за счет этого
// не различают гостевой и удаленный режимы.
type RemoteStore struct {
	client  *Client
	ownerID string
}

// NewRemoteStore создает адаптер над деревом владельца ownerID
func NewRemoteStore(client *Client, ownerID string) *RemoteStore {
	return &RemoteStore{
		client:  client,
		ownerID: ownerID,
	}
}

// SaveLog создает или перезаписывает лог
func (r *RemoteStore) SaveLog(ctx context.Context, log *models.HaltLog) error {
	return r.client.PutLog(ctx, r.ownerID, ToWireLog(log))
}

// GetLog возвращает лог по дате и id.
// Отдельного endpoint нет: корзина выбирается целиком и фильтруется
func (r *RemoteStore) GetLog(ctx context.Context, date, id string) (*models.HaltLog, error) {
	logs, err := r.client.GetLogs(ctx, r.ownerID, date)
	if err != nil {
		return nil, err
	}
	for i := range logs {
		if logs[i].ID == id {
			return FromWireLog(&logs[i]), nil
		}
	}
	return nil, storage.ErrLogNotFound
}

// GetLogsByDate возвращает все логи дневной корзины
func (r *RemoteStore) GetLogsByDate(ctx context.Context, date string) ([]*models.HaltLog, error) {
	wireLogs, err := r.client.GetLogs(ctx, r.ownerID, date)
	if err != nil {
		return nil, err
	}
	logs := make([]*models.HaltLog, 0, len(wireLogs))
	for i := range wireLogs {
		logs = append(logs, FromWireLog(&wireLogs[i]))
	}
	return logs, nil
}

// DeleteLog удаляет лог
func (r *RemoteStore) DeleteLog(ctx context.Context, date, id string) error {
	err := r.client.DeleteLog(ctx, r.ownerID, id)
	if IsStatus(err, 404) {
		return storage.ErrLogNotFound
	}
	return err
}

// BulkDeleteLogs удаляет несколько логов одним коммитом
func (r *RemoteStore) BulkDeleteLogs(ctx context.Context, date string, ids []string) (int, error) {
	if len(ids) == 0 {
		return 0, nil
	}
	return r.client.BulkDeleteLogs(ctx, r.ownerID, ids)
}

// SaveSite создает или перезаписывает площадку
func (r *RemoteStore) SaveSite(ctx context.Context, site *models.Site) error {
	return r.client.PutSite(ctx, r.ownerID, api.Site{
		ID:        site.ID,
		Name:      site.Name,
		Location:  site.Location,
		CreatedAt: site.CreatedAt,
		IsDefault: site.IsDefault,
	})
}

// GetSites возвращает все площадки владельца
func (r *RemoteStore) GetSites(ctx context.Context) ([]*models.Site, error) {
	wireSites, err := r.client.GetSites(ctx, r.ownerID)
	if err != nil {
		return nil, err
	}
	sites := make([]*models.Site, 0, len(wireSites))
	for _, ws := range wireSites {
		sites = append(sites, &models.Site{
			ID:        ws.ID,
			Name:      ws.Name,
			Location:  ws.Location,
			CreatedAt: ws.CreatedAt,
			IsDefault: ws.IsDefault,
		})
	}
	return sites, nil
}

// DeleteSite удаляет площадку
func (r *RemoteStore) DeleteSite(ctx context.Context, id string) error {
	err := r.client.DeleteSite(ctx, r.ownerID, id)
	if IsStatus(err, 404) {
		return storage.ErrSiteNotFound
	}
	return err
}

// SaveShift создает или перезаписывает смену
func (r *RemoteStore) SaveShift(ctx context.Context, shift *models.Shift) error {
	return r.client.PutShift(ctx, r.ownerID, api.Shift{
		ID:        shift.ID,
		SiteID:    shift.SiteID,
		Name:      shift.Name,
		StartTime: shift.StartTime,
		EndTime:   shift.EndTime,
	})
}

// GetShiftsBySite возвращает смены площадки
func (r *RemoteStore) GetShiftsBySite(ctx context.Context, siteID string) ([]*models.Shift, error) {
	wireShifts, err := r.client.GetShifts(ctx, r.ownerID, siteID)
	if err != nil {
		return nil, err
	}
	shifts := make([]*models.Shift, 0, len(wireShifts))
	for _, ws := range wireShifts {
		shifts = append(shifts, &models.Shift{
			ID:        ws.ID,
			SiteID:    ws.SiteID,
			Name:      ws.Name,
			StartTime: ws.StartTime,
			EndTime:   ws.EndTime,
		})
	}
	return shifts, nil
}

// DeleteShift удаляет смену
func (r *RemoteStore) DeleteShift(ctx context.Context, id string) error {
	err := r.client.DeleteShift(ctx, r.ownerID, id)
	if IsStatus(err, 404) {
		return storage.ErrShiftNotFound
	}
	return err
}

// ToWireLog конвертирует доменный лог в формат провода
func ToWireLog(log *models.HaltLog) api.HaltLog {
	return api.HaltLog{
		ID:          log.ID,
		Date:        log.Date,
		Arrival:     log.Arrival,
		Departure:   log.Departure,
		DurationSec: log.DurationSec,
		Status:      string(log.Status),
		Category:    log.Category,
		SubCategory: log.SubCategory,
		SiteID:      log.SiteID,
		ShiftID:     log.ShiftID,
		ShiftName:   log.ShiftName,
		CreatedAt:   log.CreatedAt,
	}
}

// FromWireLog конвертирует лог с провода в доменный
func FromWireLog(w *api.HaltLog) *models.HaltLog {
	return &models.HaltLog{
		ID:          w.ID,
		Date:        w.Date,
		Arrival:     w.Arrival,
		Departure:   w.Departure,
		DurationSec: w.DurationSec,
		Status:      models.LogStatus(w.Status),
		Category:    w.Category,
		SubCategory: w.SubCategory,
		SiteID:      w.SiteID,
		ShiftID:     w.ShiftID,
		ShiftName:   w.ShiftName,
		CreatedAt:   w.CreatedAt,
	}
}
