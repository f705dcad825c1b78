package storage

import (
	"context"
	"time"
)

//go:generate moq -out auth_mock.go . AuthStorage

// AuthStorage определяет интерфейс для хранения данных аутентификации
type AuthStorage interface {
	// SaveAuth сохраняет данные аутентификации после успешного login
	SaveAuth(ctx context.Context, auth *AuthData) error

	// GetAuth возвращает сохраненные данные аутентификации
	// Возвращает ErrAuthNotFound, если пользователь не аутентифицирован
	GetAuth(ctx context.Context) (*AuthData, error)

	// DeleteAuth удаляет данные аутентификации (logout)
	DeleteAuth(ctx context.Context) error

	// IsAuthenticated проверяет наличие валидной аутентификации
	IsAuthenticated(ctx context.Context) (bool, error)
}

// AuthData представляет сессию пользователя в локальном хранилище.
// Access token живет недолго; по истечении ExpiresAt клиент
// обновляет пару токенов через refresh token.
type AuthData struct {
	UserID       string    `json:"user_id"`       // UUID пользователя на сервере
	Handle       string    `json:"handle"`        // уникальный handle
	DisplayName  string    `json:"display_name"`  // отображаемое имя
	AccessToken  string    `json:"access_token"`  // JWT access token
	RefreshToken string    `json:"refresh_token"` // opaque refresh token
	ExpiresAt    time.Time `json:"expires_at"`    // момент истечения access token
}
