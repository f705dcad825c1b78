package storage

import (
	"context"

	"github.com/conslogger/conslogger/internal/models"
)

//go:generate moq -out prefs_mock.go . PrefsStorage

// PrefsStorage определяет интерфейс для локальных настроек приложения.
// Настройки живут только на клиенте и не синхронизируются.
type PrefsStorage interface {
	// SaveSelectedSite кеширует выбранную площадку целиком.
	// Blob нужен, чтобы показать имя площадки до загрузки реестра.
	SaveSelectedSite(ctx context.Context, site *models.Site) error

	// GetSelectedSite возвращает закешированную выбранную площадку
	// Возвращает ErrSelectionNotFound, если выбор еще не сделан
	GetSelectedSite(ctx context.Context) (*models.Site, error)

	// ClearSelectedSite сбрасывает выбор площадки
	ClearSelectedSite(ctx context.Context) error

	// SetOnboarded фиксирует, что пользователь прошел onboarding
	SetOnboarded(ctx context.Context, done bool) error

	// IsOnboarded сообщает, проходил ли пользователь onboarding.
	// Возвращает false, если флаг еще не записан
	IsOnboarded(ctx context.Context) (bool, error)

	// SaveLastSeenSeq сохраняет последний обработанный seq change feed
	SaveLastSeenSeq(ctx context.Context, seq int64) error

	// GetLastSeenSeq возвращает последний обработанный seq change feed.
	// Возвращает 0, если ни одна дельта еще не обработана
	GetLastSeenSeq(ctx context.Context) (int64, error)

	// EnsureAppVersion сверяет маркер версии приложения с переданным.
	// При несовпадении локальные логи и настройки зачищаются один раз
	// (данные аутентификации переживают зачистку), после чего маркер
	// обновляется. Возвращает true, если зачистка произошла
	EnsureAppVersion(ctx context.Context, version string) (bool, error)
}
