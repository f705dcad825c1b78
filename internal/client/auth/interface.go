package auth

import (
	"context"

	"github.com/conslogger/conslogger/internal/client/storage"
)

//go:generate moq -out service_mock.go . Service

// Service defines the main interface for authentication operations.
// Сервис управляет и вызовами identity provider, и локальной сессией.
type Service interface {
	// Register регистрирует нового пользователя и сразу выполняет login
	Register(ctx context.Context, handle, displayName, password string) (*storage.AuthData, error)

	// Login выполняет аутентификацию и сохраняет сессию локально
	Login(ctx context.Context, handle, password string) (*storage.AuthData, error)

	// Logout отзывает токены на сервере и удаляет локальную сессию
	Logout(ctx context.Context) error

	// UpdateProfile меняет отображаемое имя пользователя
	UpdateProfile(ctx context.Context, displayName string) (*storage.AuthData, error)

	// CurrentUser возвращает сохраненную сессию
	// Возвращает ErrNotAuthenticated, если сессии нет
	CurrentUser(ctx context.Context) (*storage.AuthData, error)

	// IsAuthenticated проверяет наличие сессии (токен может быть истекшим:
	// его обновит первый же авторизованный запрос)
	IsAuthenticated(ctx context.Context) (bool, error)

	// AccessToken возвращает действующий access token, при необходимости
	// выполняя silent refresh. Реализует api.TokenSource
	AccessToken(ctx context.Context) (string, error)
}
