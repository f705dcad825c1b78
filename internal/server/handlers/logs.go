package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/conslogger/conslogger/internal/models"
	"github.com/conslogger/conslogger/internal/server/storage"
	"github.com/conslogger/conslogger/pkg/api"
)

// LogStore определяет интерфейс хранилища логов, нужный handler'у
type LogStore interface {
	PutLog(ctx context.Context, ownerID string, log *models.HaltLog) error
	GetLogsByDate(ctx context.Context, ownerID, date string) ([]*models.HaltLog, error)
	DeleteLog(ctx context.Context, ownerID, logID string) error
	BulkDeleteLogs(ctx context.Context, ownerID string, logIDs []string) (int, error)
}

// SiteStore определяет интерфейс хранилища площадок, нужный handler'у
type SiteStore interface {
	PutSite(ctx context.Context, ownerID string, site *models.Site) error
	GetSites(ctx context.Context, ownerID string) ([]*models.Site, error)
	DeleteSite(ctx context.Context, ownerID, siteID string) error
	PutShift(ctx context.Context, ownerID string, shift *models.Shift) error
	GetShiftsBySite(ctx context.Context, ownerID, siteID string) ([]*models.Shift, error)
	DeleteShift(ctx context.Context, ownerID, shiftID string) error
}

// ConnectionReader проверяет наличие ребра в дереве владельца
type ConnectionReader interface {
	GetConnections(ctx context.Context, ownerID string) ([]*models.Connection, error)
}

// LogsHandler обрабатывает запросы к деревьям логов и площадок.
// Чтение чужого дерева разрешено только подключенному партнёру,
// запись - только владельцу.
type LogsHandler struct {
	logger *slog.Logger
	logs   LogStore
	sites  SiteStore
	conns  ConnectionReader
}

// NewLogsHandler создает новый handler для логов и площадок
func NewLogsHandler(logger *slog.Logger, logs LogStore, sites SiteStore, conns ConnectionReader) *LogsHandler {
	return &LogsHandler{
		logger: logger,
		logs:   logs,
		sites:  sites,
		conns:  conns,
	}
}

// canRead возвращает true, если caller читает свое дерево либо
// в дереве владельца есть ребро на caller.
func (h *LogsHandler) canRead(ctx context.Context, ownerID, callerID string) (bool, error) {
	if ownerID == callerID {
		return true, nil
	}

	conns, err := h.conns.GetConnections(ctx, ownerID)
	if err != nil {
		return false, err
	}
	for _, c := range conns {
		if c.PartnerID == callerID {
			return true, nil
		}
	}
	return false, nil
}

// GetLogs обрабатывает GET /api/v1/users/{uid}/logs?date=YYYY-MM-DD
func (h *LogsHandler) GetLogs(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	callerID, ok := GetUserID(ctx)
	if !ok {
		sendError(h.logger, w, api.ErrCodeUnauthorized, "unauthorized", http.StatusUnauthorized)
		return
	}

	ownerID := chi.URLParam(r, "uid")

	allowed, err := h.canRead(ctx, ownerID, callerID)
	if err != nil {
		h.logger.ErrorContext(ctx, "failed to check read permission", slog.Any("error", err))
		sendError(h.logger, w, api.ErrCodeInternal, "internal server error", http.StatusInternalServerError)
		return
	}
	if !allowed {
		h.logger.WarnContext(ctx, "foreign tree read denied",
			slog.String("owner_id", ownerID),
			slog.String("caller_id", callerID))
		sendError(h.logger, w, api.ErrCodeForbidden, "not connected to this user", http.StatusForbidden)
		return
	}

	date := r.URL.Query().Get("date")
	if date == "" {
		date = time.Now().Format(models.DateBucket)
	}
	if _, err := time.Parse(models.DateBucket, date); err != nil {
		sendError(h.logger, w, api.ErrCodeValidation, "invalid date format, expected YYYY-MM-DD", http.StatusBadRequest)
		return
	}

	logs, err := h.logs.GetLogsByDate(ctx, ownerID, date)
	if err != nil {
		h.logger.ErrorContext(ctx, "failed to get logs", slog.Any("error", err))
		sendError(h.logger, w, api.ErrCodeInternal, "internal server error", http.StatusInternalServerError)
		return
	}

	resp := api.LogsResponse{Logs: make([]api.HaltLog, 0, len(logs))}
	for _, l := range logs {
		resp.Logs = append(resp.Logs, toAPILog(l))
	}

	sendJSON(h.logger, w, resp, http.StatusOK)
}

// PutLog обрабатывает PUT /api/v1/users/{uid}/logs/{id}
// Запись только в собственное дерево
func (h *LogsHandler) PutLog(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	callerID, ok := GetUserID(ctx)
	if !ok {
		sendError(h.logger, w, api.ErrCodeUnauthorized, "unauthorized", http.StatusUnauthorized)
		return
	}

	ownerID := chi.URLParam(r, "uid")
	if ownerID != callerID {
		sendError(h.logger, w, api.ErrCodeForbidden, "cannot write to another user's logs", http.StatusForbidden)
		return
	}

	var req api.HaltLog
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		sendError(h.logger, w, api.ErrCodeValidation, "invalid request body", http.StatusBadRequest)
		return
	}

	logID := chi.URLParam(r, "id")
	if req.ID == "" {
		req.ID = logID
	}
	if req.ID != logID {
		sendError(h.logger, w, api.ErrCodeValidation, "log id mismatch", http.StatusBadRequest)
		return
	}
	if req.Date == "" || req.Arrival == 0 {
		sendError(h.logger, w, api.ErrCodeValidation, "date and arrival_timestamp are required", http.StatusBadRequest)
		return
	}

	if err := h.logs.PutLog(ctx, ownerID, fromAPILog(&req)); err != nil {
		h.logger.ErrorContext(ctx, "failed to put log", slog.Any("error", err))
		sendError(h.logger, w, api.ErrCodeInternal, "internal server error", http.StatusInternalServerError)
		return
	}

	sendJSON(h.logger, w, req, http.StatusOK)
}

// DeleteLog обрабатывает DELETE /api/v1/users/{uid}/logs/{id}
func (h *LogsHandler) DeleteLog(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	callerID, ok := GetUserID(ctx)
	if !ok {
		sendError(h.logger, w, api.ErrCodeUnauthorized, "unauthorized", http.StatusUnauthorized)
		return
	}

	ownerID := chi.URLParam(r, "uid")
	if ownerID != callerID {
		sendError(h.logger, w, api.ErrCodeForbidden, "cannot delete another user's logs", http.StatusForbidden)
		return
	}

	if err := h.logs.DeleteLog(ctx, ownerID, chi.URLParam(r, "id")); err != nil {
		if errors.Is(err, storage.ErrLogNotFound) {
			sendError(h.logger, w, api.ErrCodeNotFound, "log not found", http.StatusNotFound)
			return
		}
		h.logger.ErrorContext(ctx, "failed to delete log", slog.Any("error", err))
		sendError(h.logger, w, api.ErrCodeInternal, "internal server error", http.StatusInternalServerError)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// BulkDeleteLogs обрабатывает POST /api/v1/users/{uid}/logs/bulk-delete
// Удаление нескольких логов одной транзакцией
func (h *LogsHandler) BulkDeleteLogs(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	callerID, ok := GetUserID(ctx)
	if !ok {
		sendError(h.logger, w, api.ErrCodeUnauthorized, "unauthorized", http.StatusUnauthorized)
		return
	}

	ownerID := chi.URLParam(r, "uid")
	if ownerID != callerID {
		sendError(h.logger, w, api.ErrCodeForbidden, "cannot delete another user's logs", http.StatusForbidden)
		return
	}

	var req api.BulkDeleteRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		sendError(h.logger, w, api.ErrCodeValidation, "invalid request body", http.StatusBadRequest)
		return
	}
	if len(req.IDs) == 0 {
		sendError(h.logger, w, api.ErrCodeValidation, "ids is required", http.StatusBadRequest)
		return
	}

	deleted, err := h.logs.BulkDeleteLogs(ctx, ownerID, req.IDs)
	if err != nil {
		h.logger.ErrorContext(ctx, "failed to bulk delete logs", slog.Any("error", err))
		sendError(h.logger, w, api.ErrCodeInternal, "internal server error", http.StatusInternalServerError)
		return
	}

	h.logger.InfoContext(ctx, "logs bulk deleted",
		slog.String("user_id", ownerID),
		slog.Int("deleted", deleted))

	sendJSON(h.logger, w, api.BulkDeleteResponse{Deleted: deleted}, http.StatusOK)
}

// GetSites обрабатывает GET /api/v1/users/{uid}/sites
// Партнёрам разрешено чтение для показа имён площадок
func (h *LogsHandler) GetSites(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	callerID, ok := GetUserID(ctx)
	if !ok {
		sendError(h.logger, w, api.ErrCodeUnauthorized, "unauthorized", http.StatusUnauthorized)
		return
	}

	ownerID := chi.URLParam(r, "uid")

	allowed, err := h.canRead(ctx, ownerID, callerID)
	if err != nil {
		h.logger.ErrorContext(ctx, "failed to check read permission", slog.Any("error", err))
		sendError(h.logger, w, api.ErrCodeInternal, "internal server error", http.StatusInternalServerError)
		return
	}
	if !allowed {
		sendError(h.logger, w, api.ErrCodeForbidden, "not connected to this user", http.StatusForbidden)
		return
	}

	sites, err := h.sites.GetSites(ctx, ownerID)
	if err != nil {
		h.logger.ErrorContext(ctx, "failed to get sites", slog.Any("error", err))
		sendError(h.logger, w, api.ErrCodeInternal, "internal server error", http.StatusInternalServerError)
		return
	}

	resp := api.SitesResponse{Sites: make([]api.Site, 0, len(sites))}
	for _, s := range sites {
		resp.Sites = append(resp.Sites, api.Site{
			ID:        s.ID,
			Name:      s.Name,
			Location:  s.Location,
			CreatedAt: s.CreatedAt,
			IsDefault: s.IsDefault,
		})
	}

	sendJSON(h.logger, w, resp, http.StatusOK)
}

// PutSite обрабатывает PUT /api/v1/users/{uid}/sites/{id}
func (h *LogsHandler) PutSite(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	callerID, ok := GetUserID(ctx)
	if !ok {
		sendError(h.logger, w, api.ErrCodeUnauthorized, "unauthorized", http.StatusUnauthorized)
		return
	}

	ownerID := chi.URLParam(r, "uid")
	if ownerID != callerID {
		sendError(h.logger, w, api.ErrCodeForbidden, "cannot write to another user's sites", http.StatusForbidden)
		return
	}

	var req api.Site
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		sendError(h.logger, w, api.ErrCodeValidation, "invalid request body", http.StatusBadRequest)
		return
	}

	siteID := chi.URLParam(r, "id")
	if req.ID == "" {
		req.ID = siteID
	}
	if req.ID != siteID || req.Name == "" {
		sendError(h.logger, w, api.ErrCodeValidation, "site id and name are required", http.StatusBadRequest)
		return
	}

	site := &models.Site{
		ID:        req.ID,
		Name:      req.Name,
		Location:  req.Location,
		CreatedAt: req.CreatedAt,
		IsDefault: req.IsDefault,
	}
	if site.CreatedAt == 0 {
		site.CreatedAt = time.Now().UnixMilli()
	}

	if err := h.sites.PutSite(ctx, ownerID, site); err != nil {
		h.logger.ErrorContext(ctx, "failed to put site", slog.Any("error", err))
		sendError(h.logger, w, api.ErrCodeInternal, "internal server error", http.StatusInternalServerError)
		return
	}

	sendJSON(h.logger, w, req, http.StatusOK)
}

// DeleteSite обрабатывает DELETE /api/v1/users/{uid}/sites/{id}
func (h *LogsHandler) DeleteSite(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	callerID, ok := GetUserID(ctx)
	if !ok {
		sendError(h.logger, w, api.ErrCodeUnauthorized, "unauthorized", http.StatusUnauthorized)
		return
	}

	ownerID := chi.URLParam(r, "uid")
	if ownerID != callerID {
		sendError(h.logger, w, api.ErrCodeForbidden, "cannot delete another user's sites", http.StatusForbidden)
		return
	}

	siteID := chi.URLParam(r, "id")
	if siteID == models.DefaultSiteID {
		sendError(h.logger, w, api.ErrCodeValidation, "default site cannot be deleted", http.StatusBadRequest)
		return
	}

	if err := h.sites.DeleteSite(ctx, ownerID, siteID); err != nil {
		if errors.Is(err, storage.ErrSiteNotFound) {
			sendError(h.logger, w, api.ErrCodeNotFound, "site not found", http.StatusNotFound)
			return
		}
		h.logger.ErrorContext(ctx, "failed to delete site", slog.Any("error", err))
		sendError(h.logger, w, api.ErrCodeInternal, "internal server error", http.StatusInternalServerError)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// GetShifts обрабатывает GET /api/v1/users/{uid}/sites/{id}/shifts
func (h *LogsHandler) GetShifts(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	callerID, ok := GetUserID(ctx)
	if !ok {
		sendError(h.logger, w, api.ErrCodeUnauthorized, "unauthorized", http.StatusUnauthorized)
		return
	}

	ownerID := chi.URLParam(r, "uid")

	allowed, err := h.canRead(ctx, ownerID, callerID)
	if err != nil {
		h.logger.ErrorContext(ctx, "failed to check read permission", slog.Any("error", err))
		sendError(h.logger, w, api.ErrCodeInternal, "internal server error", http.StatusInternalServerError)
		return
	}
	if !allowed {
		sendError(h.logger, w, api.ErrCodeForbidden, "not connected to this user", http.StatusForbidden)
		return
	}

	shifts, err := h.sites.GetShiftsBySite(ctx, ownerID, chi.URLParam(r, "id"))
	if err != nil {
		h.logger.ErrorContext(ctx, "failed to get shifts", slog.Any("error", err))
		sendError(h.logger, w, api.ErrCodeInternal, "internal server error", http.StatusInternalServerError)
		return
	}

	resp := api.ShiftsResponse{Shifts: make([]api.Shift, 0, len(shifts))}
	for _, sh := range shifts {
		resp.Shifts = append(resp.Shifts, api.Shift{
			ID:        sh.ID,
			SiteID:    sh.SiteID,
			Name:      sh.Name,
			StartTime: sh.StartTime,
			EndTime:   sh.EndTime,
		})
	}

	sendJSON(h.logger, w, resp, http.StatusOK)
}

// PutShift обрабатывает PUT /api/v1/users/{uid}/shifts/{id}
func (h *LogsHandler) PutShift(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	callerID, ok := GetUserID(ctx)
	if !ok {
		sendError(h.logger, w, api.ErrCodeUnauthorized, "unauthorized", http.StatusUnauthorized)
		return
	}

	ownerID := chi.URLParam(r, "uid")
	if ownerID != callerID {
		sendError(h.logger, w, api.ErrCodeForbidden, "cannot write to another user's shifts", http.StatusForbidden)
		return
	}

	var req api.Shift
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		sendError(h.logger, w, api.ErrCodeValidation, "invalid request body", http.StatusBadRequest)
		return
	}

	shiftID := chi.URLParam(r, "id")
	if req.ID == "" {
		req.ID = shiftID
	}
	if req.ID != shiftID || req.SiteID == "" || req.Name == "" {
		sendError(h.logger, w, api.ErrCodeValidation, "shift id, site_id and name are required", http.StatusBadRequest)
		return
	}

	shift := &models.Shift{
		ID:        req.ID,
		SiteID:    req.SiteID,
		Name:      req.Name,
		StartTime: req.StartTime,
		EndTime:   req.EndTime,
	}

	if err := h.sites.PutShift(ctx, ownerID, shift); err != nil {
		h.logger.ErrorContext(ctx, "failed to put shift", slog.Any("error", err))
		sendError(h.logger, w, api.ErrCodeInternal, "internal server error", http.StatusInternalServerError)
		return
	}

	sendJSON(h.logger, w, req, http.StatusOK)
}

// DeleteShift обрабатывает DELETE /api/v1/users/{uid}/shifts/{id}
func (h *LogsHandler) DeleteShift(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	callerID, ok := GetUserID(ctx)
	if !ok {
		sendError(h.logger, w, api.ErrCodeUnauthorized, "unauthorized", http.StatusUnauthorized)
		return
	}

	ownerID := chi.URLParam(r, "uid")
	if ownerID != callerID {
		sendError(h.logger, w, api.ErrCodeForbidden, "cannot delete another user's shifts", http.StatusForbidden)
		return
	}

	if err := h.sites.DeleteShift(ctx, ownerID, chi.URLParam(r, "id")); err != nil {
		if errors.Is(err, storage.ErrShiftNotFound) {
			sendError(h.logger, w, api.ErrCodeNotFound, "shift not found", http.StatusNotFound)
			return
		}
		h.logger.ErrorContext(ctx, "failed to delete shift", slog.Any("error", err))
		sendError(h.logger, w, api.ErrCodeInternal, "internal server error", http.StatusInternalServerError)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

func toAPILog(l *models.HaltLog) api.HaltLog {
	return api.HaltLog{
		ID:          l.ID,
		Date:        l.Date,
		Arrival:     l.Arrival,
		Departure:   l.Departure,
		DurationSec: l.DurationSec,
		Status:      string(l.Status),
		Category:    l.Category,
		SubCategory: l.SubCategory,
		SiteID:      l.SiteID,
		ShiftID:     l.ShiftID,
		ShiftName:   l.ShiftName,
		CreatedAt:   l.CreatedAt,
	}
}

func fromAPILog(l *api.HaltLog) *models.HaltLog {
	return &models.HaltLog{
		ID:          l.ID,
		Date:        l.Date,
		Arrival:     l.Arrival,
		Departure:   l.Departure,
		DurationSec: l.DurationSec,
		Status:      models.LogStatus(l.Status),
		Category:    l.Category,
		SubCategory: l.SubCategory,
		SiteID:      l.SiteID,
		ShiftID:     l.ShiftID,
		ShiftName:   l.ShiftName,
		CreatedAt:   l.CreatedAt,
	}
}
