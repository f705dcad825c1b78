package reconciler

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"github.com/conslogger/conslogger/internal/client/syncgraph"
	"github.com/conslogger/conslogger/internal/models"
)

// ErrInvalidTransition возвращается на операцию, недопустимую
// в текущем состоянии попытки переключения
var ErrInvalidTransition = errors.New("invalid reconciler transition")

// State состояние попытки переключения площадки
type State string

const (
	// StateIdle попытка не начата
	StateIdle State = "idle"
	// StateAwaitingChoice есть активные партнёры, ждем выбор пользователя
	StateAwaitingChoice State = "awaiting-choice"
	// StateAwaitingInput выбран add-new, ждем handle нового партнёра
	StateAwaitingInput State = "awaiting-input"
	// StateApplied попытка завершена; следующий Begin начинает новую
	StateApplied State = "applied"
)

// Option выбор пользователя при активных партнёрах
type Option string

const (
	// OptionLimitCurrent перевести все текущие связи на новую площадку
	OptionLimitCurrent Option = "limit-current"
	// OptionAddNew пригласить нового партнёра со scope новой площадки,
	// существующие связи не трогать
	OptionAddNew Option = "add-new"
	// OptionSolo только сменить выбор площадки, граф не трогать
	OptionSolo Option = "solo"
	// OptionCancel отменить переключение
	OptionCancel Option = "cancel"
)

// Graph срез графа синхронизации, нужный согласователю
type Graph interface {
	Connections(ctx context.Context) ([]*models.Connection, error)
	BroadcastScope(ctx context.Context, scope models.Scope) error
	SendRequest(ctx context.Context, targetHandle string, scope *models.Scope) (syncgraph.SendOutcome, error)
}

// SiteSelector смена текущей площадки в реестре
type SiteSelector interface {
	Select(ctx context.Context, id string) (*models.Site, error)
}

// Reconciler согласует смену активной площадки с живыми связями.
// Переключение при активных партнёрах молча ломает или дублирует
// состояние синхронизации, поэтому пользователь обязан явно выбрать
// один из трех вариантов (или отменить)
type Reconciler struct {
	logger *slog.Logger
	graph  Graph
	sites  SiteSelector

	mu      sync.Mutex
	state   State
	pending *models.Site
}

// New создает согласователь переключения площадок
func New(logger *slog.Logger, graph Graph, sites SiteSelector) *Reconciler {
	return &Reconciler{
		logger: logger,
		graph:  graph,
		sites:  sites,
		state:  StateIdle,
	}
}

// State возвращает текущее состояние попытки
func (r *Reconciler) State() State {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.state
}

// Pending возвращает площадку, на которую идет переключение
func (r *Reconciler) Pending() *models.Site {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.pending
}

// Begin начинает попытку переключения на площадку site.
// Без активных партнёров выбор просто применяется; иначе попытка
// останавливается в AwaitingChoice до решения пользователя
func (r *Reconciler) Begin(ctx context.Context, site *models.Site) (State, error) {
	r.mu.Lock()
	if r.state == StateAwaitingChoice || r.state == StateAwaitingInput {
		r.mu.Unlock()
		return "", fmt.Errorf("%w: switch attempt already in progress", ErrInvalidTransition)
	}
	r.mu.Unlock()

	conns, err := r.graph.Connections(ctx)
	if err != nil {
		return "", fmt.Errorf("failed to inspect connections: %w", err)
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if len(conns) == 0 {
		if _, err := r.sites.Select(ctx, site.ID); err != nil {
			return "", fmt.Errorf("failed to select site: %w", err)
		}
		r.state = StateApplied
		r.pending = nil
		return r.state, nil
	}

	r.pending = site
	r.state = StateAwaitingChoice
	return r.state, nil
}

// Choose применяет выбор пользователя в состоянии AwaitingChoice
func (r *Reconciler) Choose(ctx context.Context, option Option) (State, error) {
	r.mu.Lock()
	if r.state != StateAwaitingChoice {
		r.mu.Unlock()
		return "", fmt.Errorf("%w: choose in state %s", ErrInvalidTransition, r.state)
	}
	pending := r.pending
	r.mu.Unlock()

	switch option {
	case OptionLimitCurrent:
		// Все текущие партнёры переводятся на новую площадку,
		// оба направления каждого ребра
		scope := models.SiteScope(pending.ID, pending.Name)
		broadcastErr := r.graph.BroadcastScope(ctx, scope)
		if broadcastErr != nil && !errors.Is(broadcastErr, syncgraph.ErrPartialPropagation) {
			return "", broadcastErr
		}

		if _, err := r.sites.Select(ctx, pending.ID); err != nil {
			return "", fmt.Errorf("failed to select site: %w", err)
		}
		r.setApplied()
		if broadcastErr != nil {
			// Локально успешная сторона авторитетна; частичный отказ
			// доносится предупреждением, а не откатом
			return StateApplied, broadcastErr
		}
		return StateApplied, nil

	case OptionAddNew:
		r.mu.Lock()
		r.state = StateAwaitingInput
		r.mu.Unlock()
		return StateAwaitingInput, nil

	case OptionSolo:
		// Связи сохраняют старый scope и исчезнут из агрегированного
		// вида новой площадки
		if _, err := r.sites.Select(ctx, pending.ID); err != nil {
			return "", fmt.Errorf("failed to select site: %w", err)
		}
		r.setApplied()
		return StateApplied, nil

	case OptionCancel:
		r.mu.Lock()
		r.state = StateIdle
		r.pending = nil
		r.mu.Unlock()
		return StateIdle, nil
	}

	return "", fmt.Errorf("%w: unknown option %q", ErrInvalidTransition, option)
}

// SubmitPartner завершает вариант add-new: шлет приглашение
// со scope новой площадки и применяет выбор.
// Существующие связи не трогаются
func (r *Reconciler) SubmitPartner(ctx context.Context, targetHandle string) (State, error) {
	r.mu.Lock()
	if r.state != StateAwaitingInput {
		r.mu.Unlock()
		return "", fmt.Errorf("%w: submit in state %s", ErrInvalidTransition, r.state)
	}
	pending := r.pending
	r.mu.Unlock()

	scope := models.SiteScope(pending.ID, pending.Name)
	if _, err := r.graph.SendRequest(ctx, targetHandle, &scope); err != nil {
		// Остаемся в AwaitingInput: пользователь может поправить handle
		return StateAwaitingInput, err
	}

	if _, err := r.sites.Select(ctx, pending.ID); err != nil {
		return "", fmt.Errorf("failed to select site: %w", err)
	}
	r.setApplied()

	r.logger.InfoContext(ctx, "site switch applied with new partner invite",
		slog.String("site_id", pending.ID),
		slog.String("handle", targetHandle),
	)
	return StateApplied, nil
}

func (r *Reconciler) setApplied() {
	r.mu.Lock()
	r.state = StateApplied
	r.pending = nil
	r.mu.Unlock()
}
