package halt

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/conslogger/conslogger/internal/client/storage"
	"github.com/conslogger/conslogger/internal/models"
	"github.com/conslogger/conslogger/internal/shifts"
)

var (
	// ErrAlreadyRunning возвращается при попытке начать простой,
	// когда в той же области уже идет незавершенный
	ErrAlreadyRunning = errors.New("a halt is already running")

	// ErrNotRunning возвращается при попытке остановить завершенный простой
	ErrNotRunning = errors.New("halt is not running")

	// ErrInvalidRange возвращается, когда departure раньше arrival
	ErrInvalidRange = errors.New("departure is before arrival")

	// ErrRunningEdit возвращается при попытке задать departure
	// незавершенному простою через update
	ErrRunningEdit = errors.New("cannot edit departure of a running halt")
)

// Service управляет жизненным циклом записей простоя.
// Работает поверх storage.LogStore и не знает, локальное под ним
// хранилище или удаленное дерево пользователя.
type Service struct {
	logger *slog.Logger
	logs   storage.LogStore

	// переопределяется в тестах
	now func() time.Time
}

// NewService создает сервис простоев
func NewService(logger *slog.Logger, logs storage.LogStore) *Service {
	return &Service{
		logger: logger,
		logs:   logs,
		now:    time.Now,
	}
}

// StartParams параметры начала простоя
type StartParams struct {
	Category    string          // причина простоя, обязательна
	SubCategory string          // уточнение/заметка
	SiteID      string          // площадка текущего выбора
	Shifts      []*models.Shift // настроенные смены площадки для штампа
}

// Start создает новый RUNNING лог.
// Инвариант: не больше одного RUNNING лога на область owner+site.
// Смена штампуется на момент начала и дальше не пересчитывается
func (s *Service) Start(ctx context.Context, params StartParams) (*models.HaltLog, error) {
	if params.Category == "" {
		return nil, fmt.Errorf("category is required")
	}

	now := s.now()
	date := now.Format(models.DateBucket)

	existing, err := s.logs.GetLogsByDate(ctx, date)
	if err != nil {
		return nil, fmt.Errorf("failed to check running halts: %w", err)
	}
	for _, log := range existing {
		if log.IsRunning() && log.SiteID == params.SiteID {
			return nil, fmt.Errorf("%w: log %s", ErrAlreadyRunning, log.ID)
		}
	}

	shiftID, shiftName := shifts.Resolve(params.Shifts, now)

	log := &models.HaltLog{
		ID:          uuid.New().String(),
		Date:        date,
		Arrival:     now.UnixMilli(),
		Status:      models.StatusRunning,
		Category:    params.Category,
		SubCategory: params.SubCategory,
		SiteID:      params.SiteID,
		ShiftID:     shiftID,
		ShiftName:   shiftName,
		CreatedAt:   now.UnixMilli(),
	}

	if err := s.logs.SaveLog(ctx, log); err != nil {
		return nil, fmt.Errorf("failed to save halt: %w", err)
	}

	s.logger.InfoContext(ctx, "halt started",
		slog.String("log_id", log.ID),
		slog.String("category", log.Category),
		slog.String("site_id", log.SiteID),
	)
	return log, nil
}

// Running возвращает идущий простой области site за сегодня, если он есть
func (s *Service) Running(ctx context.Context, siteID string) (*models.HaltLog, error) {
	date := s.now().Format(models.DateBucket)
	logs, err := s.logs.GetLogsByDate(ctx, date)
	if err != nil {
		return nil, err
	}
	for _, log := range logs {
		if log.IsRunning() && log.SiteID == siteID {
			return log, nil
		}
	}
	return nil, storage.ErrLogNotFound
}

// Stop завершает простой: фиксирует departure и считает длительность
func (s *Service) Stop(ctx context.Context, log *models.HaltLog) (*models.HaltLog, error) {
	if !log.IsRunning() {
		return nil, ErrNotRunning
	}

	stopped := log.Clone()
	stopped.Departure = s.now().UnixMilli()
	stopped.Status = models.StatusCompleted
	if err := stopped.ComputeDuration(); err != nil {
		return nil, fmt.Errorf("%w: %s", ErrInvalidRange, err)
	}

	if err := s.logs.SaveLog(ctx, stopped); err != nil {
		return nil, fmt.Errorf("failed to save halt: %w", err)
	}

	s.logger.InfoContext(ctx, "halt stopped",
		slog.String("log_id", stopped.ID),
		slog.Int64("duration_seconds", stopped.DurationSec),
	)
	return stopped, nil
}

// Update сохраняет ручную правку лога.
// У незавершенного лога departure задавать нельзя; при правке обоих
// timestamps длительность пересчитывается
func (s *Service) Update(ctx context.Context, log *models.HaltLog) (*models.HaltLog, error) {
	updated := log.Clone()

	if updated.IsRunning() {
		if updated.Departure != 0 {
			return nil, ErrRunningEdit
		}
		updated.DurationSec = 0
	} else {
		if updated.Departure < updated.Arrival {
			return nil, fmt.Errorf("%w: departure %d, arrival %d",
				ErrInvalidRange, updated.Departure, updated.Arrival)
		}
		if err := updated.ComputeDuration(); err != nil {
			return nil, fmt.Errorf("%w: %s", ErrInvalidRange, err)
		}
	}

	if err := s.logs.SaveLog(ctx, updated); err != nil {
		return nil, fmt.Errorf("failed to save halt: %w", err)
	}
	return updated, nil
}

// ListByDate возвращает логи за дневную корзину, свежие первыми
func (s *Service) ListByDate(ctx context.Context, date string) ([]*models.HaltLog, error) {
	if date == "" {
		date = s.now().Format(models.DateBucket)
	}
	return s.logs.GetLogsByDate(ctx, date)
}

// Delete удаляет один лог
func (s *Service) Delete(ctx context.Context, date, id string) error {
	return s.logs.DeleteLog(ctx, date, id)
}

// BulkDelete удаляет несколько логов одной корзины одним коммитом
func (s *Service) BulkDelete(ctx context.Context, date string, ids []string) (int, error) {
	deleted, err := s.logs.BulkDeleteLogs(ctx, date, ids)
	if err != nil {
		return 0, fmt.Errorf("bulk delete failed: %w", err)
	}
	s.logger.InfoContext(ctx, "halts deleted",
		slog.String("date", date),
		slog.Int("count", deleted),
	)
	return deleted, nil
}
