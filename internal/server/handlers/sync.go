package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/conslogger/conslogger/internal/models"
	"github.com/conslogger/conslogger/internal/server/storage"
	"github.com/conslogger/conslogger/pkg/api"
)

// SyncStore определяет интерфейс хранилища графа синхронизации
type SyncStore interface {
	PutConnection(ctx context.Context, ownerID string, conn *models.Connection) error
	GetConnections(ctx context.Context, ownerID string) ([]*models.Connection, error)
	DeleteConnection(ctx context.Context, ownerID, partnerID string) error
	PutRequest(ctx context.Context, ownerID string, req *models.SyncRequest) error
	GetRequests(ctx context.Context, ownerID string) ([]*models.SyncRequest, error)
	GetRequest(ctx context.Context, ownerID, requestID string) (*models.SyncRequest, error)
	UpdateRequestStatus(ctx context.Context, ownerID, requestID, status string) error
	GetChanges(ctx context.Context, ownerID string, since int64) ([]*models.Change, int64, error)
}

// UserReader отдает публичный профиль по id
type UserReader interface {
	GetUserByID(ctx context.Context, userID string) (*models.User, error)
}

// SyncHandler обрабатывает граф синхронизации: рёбра, приглашения и
// change feed. Правило записи в чужое дерево одно - зеркальное ребро:
// caller может писать {uid}/connections/{pid} только когда pid == caller.
type SyncHandler struct {
	logger *slog.Logger
	store  SyncStore
	users  UserReader
}

// NewSyncHandler создает новый handler для графа синхронизации
func NewSyncHandler(logger *slog.Logger, store SyncStore, users UserReader) *SyncHandler {
	return &SyncHandler{
		logger: logger,
		store:  store,
		users:  users,
	}
}

// GetConnections обрабатывает GET /api/v1/users/{uid}/connections
func (h *SyncHandler) GetConnections(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	callerID, ok := GetUserID(ctx)
	if !ok {
		sendError(h.logger, w, api.ErrCodeUnauthorized, "unauthorized", http.StatusUnauthorized)
		return
	}

	ownerID := chi.URLParam(r, "uid")
	if ownerID != callerID {
		sendError(h.logger, w, api.ErrCodeForbidden, "cannot read another user's connections", http.StatusForbidden)
		return
	}

	conns, err := h.store.GetConnections(ctx, ownerID)
	if err != nil {
		h.logger.ErrorContext(ctx, "failed to get connections", slog.Any("error", err))
		sendError(h.logger, w, api.ErrCodeInternal, "internal server error", http.StatusInternalServerError)
		return
	}

	resp := api.ConnectionsResponse{Connections: make([]api.Connection, 0, len(conns))}
	for _, c := range conns {
		resp.Connections = append(resp.Connections, toAPIConnection(c))
	}

	sendJSON(h.logger, w, resp, http.StatusOK)
}

// PutConnection обрабатывает PUT /api/v1/users/{uid}/connections/{pid}
// Владелец пишет свое ребро; партнёр может записать только зеркальное
// ребро, указывающее на него самого.
func (h *SyncHandler) PutConnection(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	callerID, ok := GetUserID(ctx)
	if !ok {
		sendError(h.logger, w, api.ErrCodeUnauthorized, "unauthorized", http.StatusUnauthorized)
		return
	}

	ownerID := chi.URLParam(r, "uid")
	partnerID := chi.URLParam(r, "pid")

	if ownerID != callerID && partnerID != callerID {
		h.logger.WarnContext(ctx, "mirror edge write denied",
			slog.String("owner_id", ownerID),
			slog.String("partner_id", partnerID),
			slog.String("caller_id", callerID))
		sendError(h.logger, w, api.ErrCodeForbidden, "can only write own or mirror connection", http.StatusForbidden)
		return
	}

	if ownerID == partnerID {
		sendError(h.logger, w, api.ErrCodeValidation, "cannot connect user to themselves", http.StatusBadRequest)
		return
	}

	var req api.Connection
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		sendError(h.logger, w, api.ErrCodeValidation, "invalid request body", http.StatusBadRequest)
		return
	}

	// Идентичность партнёра берем из БД, а не из тела
	partner, err := h.users.GetUserByID(ctx, partnerID)
	if err != nil {
		if errors.Is(err, storage.ErrUserNotFound) {
			sendError(h.logger, w, api.ErrCodeNotFound, "partner not found", http.StatusNotFound)
			return
		}
		h.logger.ErrorContext(ctx, "failed to get partner", slog.Any("error", err))
		sendError(h.logger, w, api.ErrCodeInternal, "internal server error", http.StatusInternalServerError)
		return
	}

	conn := &models.Connection{
		PartnerID:      partnerID,
		PartnerHandle:  partner.Handle,
		PartnerDisplay: partner.DisplayName,
		ConnectedAt:    req.ConnectedAt,
		SyncedSiteID:   req.SyncedSiteID,
		SyncedSiteName: req.SyncedSiteName,
	}
	if conn.ConnectedAt == 0 {
		conn.ConnectedAt = time.Now().UnixMilli()
	}
	if conn.SyncedSiteID == "" {
		conn.SyncedSiteID = models.ScopeAllID
		conn.SyncedSiteName = models.ScopeAllName
	}

	if err := h.store.PutConnection(ctx, ownerID, conn); err != nil {
		h.logger.ErrorContext(ctx, "failed to put connection", slog.Any("error", err))
		sendError(h.logger, w, api.ErrCodeInternal, "internal server error", http.StatusInternalServerError)
		return
	}

	h.logger.InfoContext(ctx, "connection written",
		slog.String("owner_id", ownerID),
		slog.String("partner_id", partnerID),
		slog.String("scope", conn.SyncedSiteID))

	sendJSON(h.logger, w, toAPIConnection(conn), http.StatusOK)
}

// DeleteConnection обрабатывает DELETE /api/v1/users/{uid}/connections/{pid}
// То же правило зеркального ребра, что и у PutConnection
func (h *SyncHandler) DeleteConnection(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	callerID, ok := GetUserID(ctx)
	if !ok {
		sendError(h.logger, w, api.ErrCodeUnauthorized, "unauthorized", http.StatusUnauthorized)
		return
	}

	ownerID := chi.URLParam(r, "uid")
	partnerID := chi.URLParam(r, "pid")

	if ownerID != callerID && partnerID != callerID {
		sendError(h.logger, w, api.ErrCodeForbidden, "can only delete own or mirror connection", http.StatusForbidden)
		return
	}

	if err := h.store.DeleteConnection(ctx, ownerID, partnerID); err != nil {
		if errors.Is(err, storage.ErrConnectionNotFound) {
			sendError(h.logger, w, api.ErrCodeNotFound, "connection not found", http.StatusNotFound)
			return
		}
		h.logger.ErrorContext(ctx, "failed to delete connection", slog.Any("error", err))
		sendError(h.logger, w, api.ErrCodeInternal, "internal server error", http.StatusInternalServerError)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// CreateRequest обрабатывает POST /api/v1/users/{uid}/requests
// Кладет приглашение во входящие получателя uid. Поля отправителя
// сервер заполняет из токена.
func (h *SyncHandler) CreateRequest(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	callerID, ok := GetUserID(ctx)
	if !ok {
		sendError(h.logger, w, api.ErrCodeUnauthorized, "unauthorized", http.StatusUnauthorized)
		return
	}

	recipientID := chi.URLParam(r, "uid")
	if recipientID == callerID {
		sendError(h.logger, w, api.ErrCodeValidation, "cannot send request to yourself", http.StatusBadRequest)
		return
	}

	var req api.CreateSyncRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		sendError(h.logger, w, api.ErrCodeValidation, "invalid request body", http.StatusBadRequest)
		return
	}

	if _, err := h.users.GetUserByID(ctx, recipientID); err != nil {
		if errors.Is(err, storage.ErrUserNotFound) {
			sendError(h.logger, w, api.ErrCodeNotFound, "recipient not found", http.StatusNotFound)
			return
		}
		h.logger.ErrorContext(ctx, "failed to get recipient", slog.Any("error", err))
		sendError(h.logger, w, api.ErrCodeInternal, "internal server error", http.StatusInternalServerError)
		return
	}

	sender, err := h.users.GetUserByID(ctx, callerID)
	if err != nil {
		h.logger.ErrorContext(ctx, "failed to get sender", slog.Any("error", err))
		sendError(h.logger, w, api.ErrCodeInternal, "internal server error", http.StatusInternalServerError)
		return
	}

	syncReq := &models.SyncRequest{
		ID:           uuid.New().String(),
		FromID:       sender.ID,
		FromHandle:   sender.Handle,
		FromDisplay:  sender.DisplayName,
		Status:       models.RequestPending,
		Timestamp:    time.Now().UnixMilli(),
		ProposedSite: req.ProposedSite,
		ProposedName: req.ProposedName,
	}

	if err := h.store.PutRequest(ctx, recipientID, syncReq); err != nil {
		h.logger.ErrorContext(ctx, "failed to put request", slog.Any("error", err))
		sendError(h.logger, w, api.ErrCodeInternal, "internal server error", http.StatusInternalServerError)
		return
	}

	h.logger.InfoContext(ctx, "sync request created",
		slog.String("from", sender.ID),
		slog.String("to", recipientID))

	sendJSON(h.logger, w, toAPIRequest(syncReq), http.StatusCreated)
}

// GetRequests обрабатывает GET /api/v1/users/{uid}/requests
func (h *SyncHandler) GetRequests(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	callerID, ok := GetUserID(ctx)
	if !ok {
		sendError(h.logger, w, api.ErrCodeUnauthorized, "unauthorized", http.StatusUnauthorized)
		return
	}

	ownerID := chi.URLParam(r, "uid")
	if ownerID != callerID {
		sendError(h.logger, w, api.ErrCodeForbidden, "cannot read another user's requests", http.StatusForbidden)
		return
	}

	reqs, err := h.store.GetRequests(ctx, ownerID)
	if err != nil {
		h.logger.ErrorContext(ctx, "failed to get requests", slog.Any("error", err))
		sendError(h.logger, w, api.ErrCodeInternal, "internal server error", http.StatusInternalServerError)
		return
	}

	resp := api.SyncRequestsResponse{Requests: make([]api.SyncRequest, 0, len(reqs))}
	for _, q := range reqs {
		resp.Requests = append(resp.Requests, toAPIRequest(q))
	}

	sendJSON(h.logger, w, resp, http.StatusOK)
}

// UpdateRequest обрабатывает PATCH /api/v1/users/{uid}/requests/{id}
// Смена статуса приглашения во входящих владельца
func (h *SyncHandler) UpdateRequest(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	callerID, ok := GetUserID(ctx)
	if !ok {
		sendError(h.logger, w, api.ErrCodeUnauthorized, "unauthorized", http.StatusUnauthorized)
		return
	}

	ownerID := chi.URLParam(r, "uid")
	if ownerID != callerID {
		sendError(h.logger, w, api.ErrCodeForbidden, "cannot modify another user's requests", http.StatusForbidden)
		return
	}

	var req api.UpdateRequestStatusRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		sendError(h.logger, w, api.ErrCodeValidation, "invalid request body", http.StatusBadRequest)
		return
	}

	status := models.RequestStatus(req.Status)
	if status != models.RequestAccepted && status != models.RequestRejected {
		sendError(h.logger, w, api.ErrCodeValidation, "status must be accepted or rejected", http.StatusBadRequest)
		return
	}

	requestID := chi.URLParam(r, "id")
	if err := h.store.UpdateRequestStatus(ctx, ownerID, requestID, string(status)); err != nil {
		if errors.Is(err, storage.ErrRequestNotFound) {
			sendError(h.logger, w, api.ErrCodeNotFound, "request not found", http.StatusNotFound)
			return
		}
		h.logger.ErrorContext(ctx, "failed to update request", slog.Any("error", err))
		sendError(h.logger, w, api.ErrCodeInternal, "internal server error", http.StatusInternalServerError)
		return
	}

	updated, err := h.store.GetRequest(ctx, ownerID, requestID)
	if err != nil {
		h.logger.ErrorContext(ctx, "failed to get updated request", slog.Any("error", err))
		sendError(h.logger, w, api.ErrCodeInternal, "internal server error", http.StatusInternalServerError)
		return
	}

	sendJSON(h.logger, w, toAPIRequest(updated), http.StatusOK)
}

// GetChanges обрабатывает GET /api/v1/users/{uid}/changes?since=N
// Лента изменений дерева владельца для клиентского watcher'а
func (h *SyncHandler) GetChanges(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	callerID, ok := GetUserID(ctx)
	if !ok {
		sendError(h.logger, w, api.ErrCodeUnauthorized, "unauthorized", http.StatusUnauthorized)
		return
	}

	ownerID := chi.URLParam(r, "uid")
	if ownerID != callerID {
		sendError(h.logger, w, api.ErrCodeForbidden, "cannot read another user's changes", http.StatusForbidden)
		return
	}

	since := int64(0)
	if raw := r.URL.Query().Get("since"); raw != "" {
		parsed, err := strconv.ParseInt(raw, 10, 64)
		if err != nil || parsed < 0 {
			sendError(h.logger, w, api.ErrCodeValidation, "since must be a non-negative integer", http.StatusBadRequest)
			return
		}
		since = parsed
	}

	changes, lastSeq, err := h.store.GetChanges(ctx, ownerID, since)
	if err != nil {
		h.logger.ErrorContext(ctx, "failed to get changes", slog.Any("error", err))
		sendError(h.logger, w, api.ErrCodeInternal, "internal server error", http.StatusInternalServerError)
		return
	}

	resp := api.ChangesResponse{
		Changes: make([]api.Change, 0, len(changes)),
		LastSeq: lastSeq,
	}
	for _, c := range changes {
		ac := api.Change{
			Seq:   c.Seq,
			Doc:   string(c.Doc),
			Kind:  string(c.Kind),
			DocID: c.DocID,
		}
		if c.Connection != nil {
			conn := toAPIConnection(c.Connection)
			ac.Connection = &conn
		}
		if c.Request != nil {
			req := toAPIRequest(c.Request)
			ac.Request = &req
		}
		resp.Changes = append(resp.Changes, ac)
	}

	sendJSON(h.logger, w, resp, http.StatusOK)
}

func toAPIConnection(c *models.Connection) api.Connection {
	return api.Connection{
		PartnerID:      c.PartnerID,
		PartnerHandle:  c.PartnerHandle,
		PartnerDisplay: c.PartnerDisplay,
		ConnectedAt:    c.ConnectedAt,
		SyncedSiteID:   c.SyncedSiteID,
		SyncedSiteName: c.SyncedSiteName,
	}
}

func toAPIRequest(q *models.SyncRequest) api.SyncRequest {
	return api.SyncRequest{
		ID:           q.ID,
		FromID:       q.FromID,
		FromHandle:   q.FromHandle,
		FromDisplay:  q.FromDisplay,
		Status:       string(q.Status),
		Timestamp:    q.Timestamp,
		ProposedSite: q.ProposedSite,
		ProposedName: q.ProposedName,
	}
}
