package syncgraph

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/conslogger/conslogger/internal/client/storage"
	"github.com/conslogger/conslogger/internal/models"
	"github.com/conslogger/conslogger/pkg/api"
)

// DefaultPollInterval период опроса change feed
const DefaultPollInterval = 10 * time.Second

// Hooks реакции наблюдателя на дельты change feed.
// nil-поля просто пропускаются
type Hooks struct {
	// OnConnection вызывается на каждую дельту ребра.
	// При kind=removed conn равен nil, partnerID заполнен
	OnConnection func(ctx context.Context, kind models.ChangeKind, partnerID string, conn *models.Connection)

	// OnRequest вызывается не больше одного раза на каждый pending
	// запрос за время жизни наблюдателя
	OnRequest func(ctx context.Context, req *models.SyncRequest)
}

// Watcher опрашивает change feed пользователя и раздает дельты хукам.
// Это замена real-time подписки: явный объект с контрактом Start/Stop
// вместо ambient-состояния. Последний обработанный seq персистится,
// чтобы перезапуск не перечитывал историю.
//
// Набор уже показанных запросов живет только в памяти: после
// перезапуска pending запрос может всплыть повторно, это допустимо
type Watcher struct {
	logger   *slog.Logger
	api      API
	selfID   string
	prefs    storage.PrefsStorage
	interval time.Duration
	hooks    Hooks

	mu        sync.Mutex
	processed map[string]struct{}
	stopC     chan struct{}
	wg        sync.WaitGroup
	running   bool
}

// NewWatcher создает наблюдатель change feed для пользователя selfID
func NewWatcher(logger *slog.Logger, client API, selfID string, prefs storage.PrefsStorage, hooks Hooks) *Watcher {
	return &Watcher{
		logger:    logger,
		api:       client,
		selfID:    selfID,
		prefs:     prefs,
		interval:  DefaultPollInterval,
		hooks:     hooks,
		processed: make(map[string]struct{}),
	}
}

// Start запускает цикл опроса. Повторный Start без Stop это no-op
func (w *Watcher) Start(ctx context.Context) {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.running {
		return
	}
	w.running = true
	w.stopC = make(chan struct{})

	w.wg.Add(1)
	go w.loop(ctx, w.stopC)
}

// Stop останавливает цикл и дожидается его завершения.
// После Stop хуки больше не вызываются
func (w *Watcher) Stop() {
	w.mu.Lock()
	if !w.running {
		w.mu.Unlock()
		return
	}
	w.running = false
	close(w.stopC)
	w.mu.Unlock()

	w.wg.Wait()
}

func (w *Watcher) loop(ctx context.Context, stopC <-chan struct{}) {
	defer w.wg.Done()

	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	w.poll(ctx)
	for {
		select {
		case <-stopC:
			return
		case <-ctx.Done():
			return
		case <-ticker.C:
			w.poll(ctx)
		}
	}
}

// poll выбирает дельты после последнего обработанного seq.
// Ошибка опроса не фатальна: следующий тик попробует снова
func (w *Watcher) poll(ctx context.Context) {
	since, err := w.prefs.GetLastSeenSeq(ctx)
	if err != nil {
		w.logger.ErrorContext(ctx, "failed to read last seen seq", slog.Any("error", err))
		return
	}

	resp, err := w.api.GetChanges(ctx, w.selfID, since)
	if err != nil {
		w.logger.WarnContext(ctx, "change feed poll failed", slog.Any("error", err))
		return
	}

	for i := range resp.Changes {
		w.dispatch(ctx, &resp.Changes[i])
	}

	if resp.LastSeq > since {
		if err := w.prefs.SaveLastSeenSeq(ctx, resp.LastSeq); err != nil {
			w.logger.ErrorContext(ctx, "failed to save last seen seq", slog.Any("error", err))
		}
	}
}

func (w *Watcher) dispatch(ctx context.Context, change *api.Change) {
	switch models.ChangeDoc(change.Doc) {
	case models.DocConnection:
		if w.hooks.OnConnection == nil {
			return
		}
		kind := models.ChangeKind(change.Kind)
		if change.Connection != nil {
			w.hooks.OnConnection(ctx, kind, change.Connection.PartnerID, fromWireConnection(change.Connection))
			return
		}
		w.hooks.OnConnection(ctx, kind, change.DocID, nil)

	case models.DocRequest:
		if w.hooks.OnRequest == nil || change.Request == nil {
			return
		}
		if models.RequestStatus(change.Request.Status) != models.RequestPending {
			return
		}
		// Не больше одного интерактивного prompt на запрос
		w.mu.Lock()
		_, seen := w.processed[change.Request.ID]
		if !seen {
			w.processed[change.Request.ID] = struct{}{}
		}
		w.mu.Unlock()
		if seen {
			return
		}
		w.hooks.OnRequest(ctx, fromWireRequest(change.Request))
	}
}
