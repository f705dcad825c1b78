package aggregator

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	clientapi "github.com/conslogger/conslogger/internal/client/api"
	"github.com/conslogger/conslogger/internal/models"
	"github.com/conslogger/conslogger/pkg/api"
)

// RefreshInterval период фонового обновления представлений партнёров.
// Страховка от пропущенных событий change feed
const RefreshInterval = 5 * time.Minute

// PartnerAPI срез клиента сервера, который нужен агрегатору:
// чтение чужих логов и метаданных площадок (открыто партнёрам)
type PartnerAPI interface {
	GetLogs(ctx context.Context, ownerID, date string) ([]api.HaltLog, error)
	GetSites(ctx context.Context, ownerID string) ([]api.Site, error)
}

// Service собирает дневные представления логов партнёров,
// отфильтрованные по scope соответствующего ребра.
//
// Обновления по одному партнёру заменяют его представление атомарно:
// читатель никогда не видит наполовину обновленный список. Триггеры
// (watcher, периодический тикер, ручной запрос) могут гоняться между
// собой; потерянные обновления исключены монотонным номером выборки
// на партнёра — устаревший результат отбрасывается
type Service struct {
	logger *slog.Logger
	api    PartnerAPI

	mu      sync.RWMutex
	views   map[string]*models.PartnerView
	issued  map[string]int64 // последний выданный номер выборки
	applied map[string]int64 // номер выборки текущего представления

	// переопределяется в тестах
	now func() time.Time
}

// NewService создает агрегатор логов партнёров
func NewService(logger *slog.Logger, client PartnerAPI) *Service {
	return &Service{
		logger:  logger,
		api:     client,
		views:   make(map[string]*models.PartnerView),
		issued:  make(map[string]int64),
		applied: make(map[string]int64),
		now:     time.Now,
	}
}

// RefreshPartner перечитывает дневные логи партнёра и замещает его
// представление. Ошибка выборки сохраняет последнее удачное
// представление вместо очистки
func (s *Service) RefreshPartner(ctx context.Context, partnerID, handle, display string, scope models.Scope) error {
	s.mu.Lock()
	s.issued[partnerID]++
	seq := s.issued[partnerID]
	s.mu.Unlock()

	date := s.now().Format(models.DateBucket)

	wireLogs, err := s.api.GetLogs(ctx, partnerID, date)
	if err != nil {
		s.logger.WarnContext(ctx, "partner logs fetch failed, keeping last view",
			slog.String("partner", partnerID),
			slog.Any("error", err),
		)
		return fmt.Errorf("failed to fetch partner logs: %w", err)
	}

	logs := make([]*models.HaltLog, 0, len(wireLogs))
	for i := range wireLogs {
		log := clientapi.FromWireLog(&wireLogs[i])
		if scope.Matches(log) {
			logs = append(logs, log)
		}
	}
	models.SortLogsByArrivalDesc(logs)

	view := &models.PartnerView{
		PartnerID:      partnerID,
		PartnerHandle:  handle,
		PartnerDisplay: display,
		LastSynced:     s.now().UnixMilli(),
		Logs:           logs,
		SiteNames:      s.resolveSiteNames(ctx, partnerID, logs),
		Scope:          scope,
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if seq < s.applied[partnerID] {
		// Гонка с более поздней выборкой: результат устарел
		s.logger.InfoContext(ctx, "stale partner refresh discarded",
			slog.String("partner", partnerID))
		return nil
	}
	s.applied[partnerID] = seq
	s.views[partnerID] = view
	return nil
}

// resolveSiteNames собирает имена площадок, на которые ссылаются логи.
// Отсутствующая в реестре площадка по умолчанию синтезируется,
// прочие недостающие показываются по id
func (s *Service) resolveSiteNames(ctx context.Context, partnerID string, logs []*models.HaltLog) map[string]string {
	referenced := make(map[string]string)
	for _, log := range logs {
		id := log.SiteID
		if id == "" {
			id = models.DefaultSiteID
		}
		referenced[id] = id
	}
	if len(referenced) == 0 {
		return referenced
	}

	sites, err := s.api.GetSites(ctx, partnerID)
	if err != nil {
		s.logger.WarnContext(ctx, "partner sites fetch failed",
			slog.String("partner", partnerID),
			slog.Any("error", err),
		)
		sites = nil
	}

	for id := range referenced {
		if id == models.DefaultSiteID {
			referenced[id] = models.DefaultSiteName
		}
	}
	for _, site := range sites {
		if _, ok := referenced[site.ID]; ok {
			referenced[site.ID] = site.Name
		}
	}
	return referenced
}

// RemovePartner выбрасывает представление исчезнувшего ребра
func (s *Service) RemovePartner(partnerID string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.views, partnerID)
	delete(s.issued, partnerID)
	delete(s.applied, partnerID)
}

// View возвращает копию представления партнёра, если оно есть
func (s *Service) View(partnerID string) (*models.PartnerView, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	view, ok := s.views[partnerID]
	if !ok {
		return nil, false
	}
	return view.Clone(), true
}

// Views возвращает копии всех текущих представлений
func (s *Service) Views() []*models.PartnerView {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]*models.PartnerView, 0, len(s.views))
	for _, view := range s.views {
		out = append(out, view.Clone())
	}
	return out
}

// RefreshAll перечитывает всех известных партнёров, используя scope,
// который каждое представление несёт с собой. Ошибки отдельных
// партнёров изолированы и не прерывают обход
func (s *Service) RefreshAll(ctx context.Context) {
	for _, view := range s.Views() {
		if err := s.RefreshPartner(ctx, view.PartnerID, view.PartnerHandle, view.PartnerDisplay, view.Scope); err != nil {
			continue
		}
	}
}

// Run крутит периодическое обновление до отмены контекста или Stop
// через переданный канал. Обычно запускается в отдельной горутине
func (s *Service) Run(ctx context.Context, stopC <-chan struct{}) {
	ticker := time.NewTicker(RefreshInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-stopC:
			return
		case <-ticker.C:
			s.RefreshAll(ctx)
		}
	}
}

// OnConnectionChange хук для watcher: дельта ребра запускает
// обновление либо снос представления партнёра
func (s *Service) OnConnectionChange(ctx context.Context, kind models.ChangeKind, partnerID string, conn *models.Connection) {
	if kind == models.ChangeRemoved || conn == nil {
		s.RemovePartner(partnerID)
		return
	}
	_ = s.RefreshPartner(ctx, conn.PartnerID, conn.PartnerHandle, conn.PartnerDisplay, conn.Scope())
}
