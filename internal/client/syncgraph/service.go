package syncgraph

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	clientapi "github.com/conslogger/conslogger/internal/client/api"
	"github.com/conslogger/conslogger/internal/models"
	"github.com/conslogger/conslogger/pkg/api"
)

// API срез клиента сервера, который нужен графу синхронизации
type API interface {
	Lookup(ctx context.Context, handle string) (*api.Profile, error)
	GetConnections(ctx context.Context, ownerID string) ([]api.Connection, error)
	PutConnection(ctx context.Context, ownerID string, conn api.Connection) error
	DeleteConnection(ctx context.Context, ownerID, partnerID string) error
	CreateRequest(ctx context.Context, recipientID string, req api.CreateSyncRequest) (*api.SyncRequest, error)
	GetRequests(ctx context.Context, ownerID string) ([]api.SyncRequest, error)
	UpdateRequest(ctx context.Context, ownerID, requestID, status string) (*api.SyncRequest, error)
	GetChanges(ctx context.Context, ownerID string, since int64) (*api.ChangesResponse, error)
}

// SendOutcome результат SendRequest: приглашение либо re-scope
type SendOutcome int

const (
	// OutcomeRequested создан новый pending запрос во входящих партнёра
	OutcomeRequested SendOutcome = iota
	// OutcomeRescoped существующая связь переведена на новый scope,
	// запрос не создавался
	OutcomeRescoped
)

// Service поддерживает двунаправленные рёбра графа синхронизации
// и handshake приглашений. Каждая мутация держит оба направления
// согласованными; рёбра коммитятся по отдельности, поэтому партнёрская
// половина может упасть независимо (ErrPartialPropagation).
type Service struct {
	logger *slog.Logger
	api    API
	selfID string
}

// NewService создает сервис графа синхронизации для пользователя selfID
func NewService(logger *slog.Logger, client API, selfID string) *Service {
	return &Service{
		logger: logger,
		api:    client,
		selfID: selfID,
	}
}

// SendRequest приглашает пользователя targetHandle к синхронизации.
// Двойное поведение из UI: без scope повтор для уже подключенного
// партнёра это ошибка ErrAlreadyConnected, со scope тот же вызов
// превращается в обновление scope обоих существующих рёбер
func (s *Service) SendRequest(ctx context.Context, targetHandle string, scope *models.Scope) (SendOutcome, error) {
	profile, err := s.api.Lookup(ctx, targetHandle)
	if err != nil {
		if clientapi.IsStatus(err, http.StatusNotFound) {
			return 0, fmt.Errorf("%w: handle %q", ErrNotFound, targetHandle)
		}
		return 0, fmt.Errorf("handle lookup failed: %w", err)
	}
	if profile.ID == s.selfID {
		return 0, ErrSelfReference
	}

	conns, err := s.api.GetConnections(ctx, s.selfID)
	if err != nil {
		return 0, fmt.Errorf("failed to load connections: %w", err)
	}
	for i := range conns {
		if conns[i].PartnerID != profile.ID {
			continue
		}
		if scope == nil {
			return 0, fmt.Errorf("%w: %s", ErrAlreadyConnected, targetHandle)
		}
		// Связь уже есть и scope задан: re-scope вместо приглашения
		if err := s.rescopeEdges(ctx, &conns[i], *scope); err != nil {
			return 0, err
		}
		return OutcomeRescoped, nil
	}

	req := api.CreateSyncRequest{}
	if scope != nil && !scope.IsAll() {
		req.ProposedSite = scope.SiteID()
		req.ProposedName = scope.DisplayName()
	}
	if _, err := s.api.CreateRequest(ctx, profile.ID, req); err != nil {
		return 0, fmt.Errorf("failed to send sync request: %w", err)
	}

	s.logger.InfoContext(ctx, "sync request sent",
		slog.String("to", profile.ID),
		slog.String("handle", targetHandle),
	)
	return OutcomeRequested, nil
}

// AcceptRequest принимает входящий запрос и создает оба ребра.
// Scope выбирается по приоритету: явный override, затем scope из
// запроса, затем "все площадки". Запрос после принятия закрывается
func (s *Service) AcceptRequest(ctx context.Context, requestID string, override *models.Scope) (*models.Connection, error) {
	req, err := s.pendingRequest(ctx, requestID)
	if err != nil {
		return nil, err
	}

	scope := models.AllSites()
	switch {
	case override != nil:
		scope = *override
	case req.ProposedSite != "":
		scope = models.SiteScope(req.ProposedSite, req.ProposedName)
	}

	now := time.Now().UnixMilli()
	edge := api.Connection{
		PartnerID:      req.FromID,
		PartnerHandle:  req.FromHandle,
		PartnerDisplay: req.FromDisplay,
		ConnectedAt:    now,
		SyncedSiteID:   scope.SiteID(),
		SyncedSiteName: scope.DisplayName(),
	}

	if err := s.api.PutConnection(ctx, s.selfID, edge); err != nil {
		return nil, fmt.Errorf("failed to create connection: %w", err)
	}

	mirror := api.Connection{
		PartnerID:      s.selfID,
		ConnectedAt:    now,
		SyncedSiteID:   scope.SiteID(),
		SyncedSiteName: scope.DisplayName(),
	}
	if err := s.api.PutConnection(ctx, req.FromID, mirror); err != nil {
		return nil, fmt.Errorf("%w: %s", ErrPartialPropagation, err)
	}

	if _, err := s.api.UpdateRequest(ctx, s.selfID, requestID, "accepted"); err != nil {
		// Связь уже стоит; незакрытый запрос всплывет повторно
		s.logger.WarnContext(ctx, "failed to close accepted request",
			slog.String("request_id", requestID),
			slog.Any("error", err),
		)
	}

	s.logger.InfoContext(ctx, "sync request accepted",
		slog.String("partner", req.FromID),
		slog.String("scope", scope.SiteID()),
	)
	return fromWireConnection(&edge), nil
}

// RejectRequest отклоняет входящий запрос. Рёбра не создаются
func (s *Service) RejectRequest(ctx context.Context, requestID string) error {
	if _, err := s.pendingRequest(ctx, requestID); err != nil {
		return err
	}
	if _, err := s.api.UpdateRequest(ctx, s.selfID, requestID, "rejected"); err != nil {
		return fmt.Errorf("failed to reject request: %w", err)
	}
	return nil
}

// Disconnect разрывает связь: удаляет оба направленных ребра.
// Своя сторона удаляется первой; упавшая партнёрская сторона
// оставляет висячее ребро и возвращает ErrPartialPropagation
func (s *Service) Disconnect(ctx context.Context, partnerID string) error {
	if err := s.api.DeleteConnection(ctx, s.selfID, partnerID); err != nil {
		if clientapi.IsStatus(err, http.StatusNotFound) {
			return fmt.Errorf("%w: connection %s", ErrNotFound, partnerID)
		}
		return fmt.Errorf("failed to delete connection: %w", err)
	}

	if err := s.api.DeleteConnection(ctx, partnerID, s.selfID); err != nil {
		if !clientapi.IsStatus(err, http.StatusNotFound) {
			return fmt.Errorf("%w: %s", ErrPartialPropagation, err)
		}
	}

	s.logger.InfoContext(ctx, "disconnected", slog.String("partner", partnerID))
	return nil
}

// BroadcastScope переводит рёбра всех текущих партнёров на новый scope,
// оба направления для каждого. Связи не добавляются и не удаляются.
// Частичные отказы не останавливают обход остальных партнёров
func (s *Service) BroadcastScope(ctx context.Context, scope models.Scope) error {
	conns, err := s.api.GetConnections(ctx, s.selfID)
	if err != nil {
		return fmt.Errorf("failed to load connections: %w", err)
	}

	var failed int
	for i := range conns {
		if err := s.rescopeEdges(ctx, &conns[i], scope); err != nil {
			failed++
			s.logger.ErrorContext(ctx, "scope broadcast failed for partner",
				slog.String("partner", conns[i].PartnerID),
				slog.Any("error", err),
			)
		}
	}

	if failed > 0 {
		return fmt.Errorf("%w: %d of %d partners not updated",
			ErrPartialPropagation, failed, len(conns))
	}
	return nil
}

// Connections возвращает рёбра текущего пользователя
func (s *Service) Connections(ctx context.Context) ([]*models.Connection, error) {
	wire, err := s.api.GetConnections(ctx, s.selfID)
	if err != nil {
		return nil, fmt.Errorf("failed to load connections: %w", err)
	}
	conns := make([]*models.Connection, 0, len(wire))
	for i := range wire {
		conns = append(conns, fromWireConnection(&wire[i]))
	}
	return conns, nil
}

// PendingRequests возвращает необработанные входящие приглашения
func (s *Service) PendingRequests(ctx context.Context) ([]*models.SyncRequest, error) {
	wire, err := s.api.GetRequests(ctx, s.selfID)
	if err != nil {
		return nil, fmt.Errorf("failed to load requests: %w", err)
	}
	reqs := make([]*models.SyncRequest, 0, len(wire))
	for i := range wire {
		if wire[i].Status != string(models.RequestPending) {
			continue
		}
		reqs = append(reqs, fromWireRequest(&wire[i]))
	}
	return reqs, nil
}

// rescopeEdges обновляет scope обоих рёбер существующей связи in-place
func (s *Service) rescopeEdges(ctx context.Context, conn *api.Connection, scope models.Scope) error {
	edge := *conn
	edge.SyncedSiteID = scope.SiteID()
	edge.SyncedSiteName = scope.DisplayName()
	if err := s.api.PutConnection(ctx, s.selfID, edge); err != nil {
		return fmt.Errorf("failed to update own edge: %w", err)
	}

	mirror := api.Connection{
		PartnerID:      s.selfID,
		ConnectedAt:    conn.ConnectedAt,
		SyncedSiteID:   scope.SiteID(),
		SyncedSiteName: scope.DisplayName(),
	}
	if err := s.api.PutConnection(ctx, conn.PartnerID, mirror); err != nil {
		return fmt.Errorf("%w: %s", ErrPartialPropagation, err)
	}
	return nil
}

// pendingRequest находит pending запрос по id.
// Исчезнувший или уже обработанный запрос дает ErrRequestNotFound
func (s *Service) pendingRequest(ctx context.Context, requestID string) (*api.SyncRequest, error) {
	reqs, err := s.api.GetRequests(ctx, s.selfID)
	if err != nil {
		return nil, fmt.Errorf("failed to load requests: %w", err)
	}
	for i := range reqs {
		if reqs[i].ID == requestID && reqs[i].Status == string(models.RequestPending) {
			return &reqs[i], nil
		}
	}
	return nil, fmt.Errorf("%w: %s", ErrRequestNotFound, requestID)
}

func fromWireConnection(w *api.Connection) *models.Connection {
	return &models.Connection{
		PartnerID:      w.PartnerID,
		PartnerHandle:  w.PartnerHandle,
		PartnerDisplay: w.PartnerDisplay,
		ConnectedAt:    w.ConnectedAt,
		SyncedSiteID:   w.SyncedSiteID,
		SyncedSiteName: w.SyncedSiteName,
	}
}

func fromWireRequest(w *api.SyncRequest) *models.SyncRequest {
	return &models.SyncRequest{
		ID:           w.ID,
		FromID:       w.FromID,
		FromHandle:   w.FromHandle,
		FromDisplay:  w.FromDisplay,
		Status:       models.RequestStatus(w.Status),
		Timestamp:    w.Timestamp,
		ProposedSite: w.ProposedSite,
		ProposedName: w.ProposedName,
	}
}
