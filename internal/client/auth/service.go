package auth

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/conslogger/conslogger/internal/client/api"
	"github.com/conslogger/conslogger/internal/client/storage"
	"github.com/conslogger/conslogger/internal/validation"
	pkgapi "github.com/conslogger/conslogger/pkg/api"
)

// ErrNotAuthenticated возвращается, когда локальной сессии нет
var ErrNotAuthenticated = errors.New("not authenticated")

// refreshSkew запас до истечения access token, после которого
// токен обновляется заранее
const refreshSkew = 30 * time.Second

// Session предоставляет функции авторизации и хранит сессию локально.
// Реализует api.TokenSource: авторизованные запросы получают токен
// отсюда, silent refresh происходит прозрачно для вызывающего кода.
type Session struct {
	apiClient *api.Client
	authStore storage.AuthStorage

	// защищает refresh от параллельного выполнения
	refreshMu sync.Mutex
}

// NewService создает новый сервис авторизации и подключает его
// к API клиенту как источник токенов
func NewService(apiClient *api.Client, authStore storage.AuthStorage) *Session {
	s := &Session{
		apiClient: apiClient,
		authStore: authStore,
	}
	apiClient.SetTokenSource(s)
	return s
}

// Register регистрирует нового пользователя и сразу выполняет login
func (s *Session) Register(ctx context.Context, handle, displayName, password string) (*storage.AuthData, error) {
	if err := validation.ValidateHandle(handle); err != nil {
		return nil, fmt.Errorf("invalid handle: %w", err)
	}
	if err := validation.ValidatePassword(password); err != nil {
		return nil, fmt.Errorf("invalid password: %w", err)
	}

	_, err := s.apiClient.Register(ctx, pkgapi.RegisterRequest{
		Handle:      handle,
		DisplayName: displayName,
		Password:    password,
	})
	if err != nil {
		return nil, fmt.Errorf("registration failed: %w", err)
	}

	return s.Login(ctx, handle, password)
}

// Login выполняет аутентификацию и сохраняет сессию локально
func (s *Session) Login(ctx context.Context, handle, password string) (*storage.AuthData, error) {
	resp, err := s.apiClient.Login(ctx, pkgapi.LoginRequest{
		Handle:   handle,
		Password: password,
	})
	if err != nil {
		return nil, fmt.Errorf("login failed: %w", err)
	}

	auth := &storage.AuthData{
		UserID:       resp.UserID,
		Handle:       handle,
		AccessToken:  resp.AccessToken,
		RefreshToken: resp.RefreshToken,
		ExpiresAt:    time.Now().Add(time.Duration(resp.ExpiresIn) * time.Second),
	}
	if err := s.authStore.SaveAuth(ctx, auth); err != nil {
		return nil, fmt.Errorf("failed to save session: %w", err)
	}

	// Display name известен только серверу; подтягиваем профиль
	// уже авторизованным запросом
	profile, err := s.apiClient.Me(ctx)
	if err == nil {
		auth.DisplayName = profile.DisplayName
		if err := s.authStore.SaveAuth(ctx, auth); err != nil {
			return nil, fmt.Errorf("failed to save session: %w", err)
		}
	}

	return auth, nil
}

// Logout отзывает токены на сервере и удаляет локальную сессию.
// Локальная сессия удаляется даже если сервер недоступен
func (s *Session) Logout(ctx context.Context) error {
	serverErr := s.apiClient.Logout(ctx)

	if err := s.authStore.DeleteAuth(ctx); err != nil {
		if errors.Is(err, storage.ErrAuthNotFound) {
			return ErrNotAuthenticated
		}
		return fmt.Errorf("failed to delete session: %w", err)
	}

	if serverErr != nil {
		return fmt.Errorf("session deleted locally, server logout failed: %w", serverErr)
	}
	return nil
}

// UpdateProfile меняет отображаемое имя на сервере и в локальной сессии
func (s *Session) UpdateProfile(ctx context.Context, displayName string) (*storage.AuthData, error) {
	auth, err := s.CurrentUser(ctx)
	if err != nil {
		return nil, err
	}

	profile, err := s.apiClient.UpdateMe(ctx, pkgapi.UpdateProfileRequest{DisplayName: displayName})
	if err != nil {
		return nil, fmt.Errorf("failed to update profile: %w", err)
	}

	auth.DisplayName = profile.DisplayName
	if err := s.authStore.SaveAuth(ctx, auth); err != nil {
		return nil, fmt.Errorf("failed to save session: %w", err)
	}
	return auth, nil
}

// CurrentUser возвращает сохраненную сессию
func (s *Session) CurrentUser(ctx context.Context) (*storage.AuthData, error) {
	auth, err := s.authStore.GetAuth(ctx)
	if err != nil {
		if errors.Is(err, storage.ErrAuthNotFound) {
			return nil, ErrNotAuthenticated
		}
		return nil, err
	}
	return auth, nil
}

// IsAuthenticated проверяет наличие сессии.
// Истекший access token сессию не обесценивает: его обновит
// первый же авторизованный запрос
func (s *Session) IsAuthenticated(ctx context.Context) (bool, error) {
	_, err := s.authStore.GetAuth(ctx)
	if err != nil {
		if errors.Is(err, storage.ErrAuthNotFound) {
			return false, nil
		}
		return false, err
	}
	return true, nil
}

// AccessToken возвращает действующий access token.
// Если до истечения осталось меньше refreshSkew, пара токенов
// обновляется через refresh token и сессия перезаписывается
func (s *Session) AccessToken(ctx context.Context) (string, error) {
	auth, err := s.CurrentUser(ctx)
	if err != nil {
		return "", err
	}

	if time.Until(auth.ExpiresAt) > refreshSkew {
		return auth.AccessToken, nil
	}

	s.refreshMu.Lock()
	defer s.refreshMu.Unlock()

	// Параллельный вызов мог уже обновить пару токенов
	auth, err = s.CurrentUser(ctx)
	if err != nil {
		return "", err
	}
	if time.Until(auth.ExpiresAt) > refreshSkew {
		return auth.AccessToken, nil
	}

	resp, err := s.apiClient.Refresh(ctx, auth.RefreshToken)
	if err != nil {
		return "", fmt.Errorf("token refresh failed: %w", err)
	}

	auth.AccessToken = resp.AccessToken
	auth.RefreshToken = resp.RefreshToken
	auth.ExpiresAt = time.Now().Add(time.Duration(resp.ExpiresIn) * time.Second)
	if err := s.authStore.SaveAuth(ctx, auth); err != nil {
		return "", fmt.Errorf("failed to save refreshed session: %w", err)
	}

	return auth.AccessToken, nil
}
