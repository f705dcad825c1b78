package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/conslogger/conslogger/internal/models"
	"github.com/conslogger/conslogger/internal/server/storage"
	"github.com/conslogger/conslogger/pkg/api"
)

// mockUserStorage is a mock implementation of UserStorage for testing
type mockUserStorage struct {
	users       map[string]*models.User // handle -> User
	createError error
}

func (m *mockUserStorage) CreateUser(ctx context.Context, user *models.User) error {
	if m.createError != nil {
		return m.createError
	}
	if _, exists := m.users[user.Handle]; exists {
		return storage.ErrUserAlreadyExists
	}
	m.users[user.Handle] = user
	return nil
}

func (m *mockUserStorage) GetUserByHandle(ctx context.Context, handle string) (*models.User, error) {
	user, ok := m.users[handle]
	if !ok {
		return nil, storage.ErrUserNotFound
	}
	return user, nil
}

func (m *mockUserStorage) GetUserByID(ctx context.Context, id string) (*models.User, error) {
	for _, user := range m.users {
		if user.ID == id {
			return user, nil
		}
	}
	return nil, storage.ErrUserNotFound
}

func (m *mockUserStorage) UpdateProfile(ctx context.Context, userID, displayName string) error {
	for _, user := range m.users {
		if user.ID == userID {
			user.DisplayName = displayName
			return nil
		}
	}
	return storage.ErrUserNotFound
}

// mockTokenStorage is a mock implementation of TokenStorage for testing
type mockTokenStorage struct {
	tokens map[string]*models.RefreshToken // token hash -> RefreshToken
}

func (m *mockTokenStorage) SaveRefreshToken(ctx context.Context, token *models.RefreshToken) error {
	m.tokens[token.TokenHash] = token
	return nil
}

func (m *mockTokenStorage) GetRefreshToken(ctx context.Context, tokenHash string) (*models.RefreshToken, error) {
	rt, ok := m.tokens[tokenHash]
	if !ok {
		return nil, storage.ErrTokenNotFound
	}
	return rt, nil
}

func (m *mockTokenStorage) DeleteRefreshToken(ctx context.Context, tokenHash string) error {
	if _, ok := m.tokens[tokenHash]; !ok {
		return storage.ErrTokenNotFound
	}
	delete(m.tokens, tokenHash)
	return nil
}

func (m *mockTokenStorage) DeleteUserTokens(ctx context.Context, userID string) (int, error) {
	deleted := 0
	for hash, token := range m.tokens {
		if token.UserID == userID {
			delete(m.tokens, hash)
			deleted++
		}
	}
	return deleted, nil
}

func (m *mockTokenStorage) DeleteExpiredTokens(ctx context.Context) (int, error) {
	return 0, nil
}

func testJWTConfig() JWTConfig {
	return JWTConfig{
		Secret:          []byte("test-secret"),
		AccessTokenTTL:  15 * time.Minute,
		RefreshTokenTTL: 24 * time.Hour,
	}
}

func newTestAuthHandler() (*AuthHandler, *mockUserStorage, *mockTokenStorage) {
	users := &mockUserStorage{users: make(map[string]*models.User)}
	tokens := &mockTokenStorage{tokens: make(map[string]*models.RefreshToken)}
	h := NewAuthHandler(setupTestLogger(), users, tokens, testJWTConfig())
	return h, users, tokens
}

func TestAuthHandler_Register(t *testing.T) {
	tests := []struct {
		name       string
		body       api.RegisterRequest
		existing   string
		wantStatus int
	}{
		{
			name:       "successful registration",
			body:       api.RegisterRequest{Handle: "worker1", DisplayName: "Worker One", Password: "password123"},
			wantStatus: http.StatusCreated,
		},
		{
			name:       "handle defaults display name",
			body:       api.RegisterRequest{Handle: "worker2", Password: "password123"},
			wantStatus: http.StatusCreated,
		},
		{
			name:       "invalid handle",
			body:       api.RegisterRequest{Handle: "x", Password: "password123"},
			wantStatus: http.StatusBadRequest,
		},
		{
			name:       "short password",
			body:       api.RegisterRequest{Handle: "worker3", Password: "short"},
			wantStatus: http.StatusBadRequest,
		},
		{
			name:       "duplicate handle",
			body:       api.RegisterRequest{Handle: "taken", Password: "password123"},
			existing:   "taken",
			wantStatus: http.StatusConflict,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h, users, _ := newTestAuthHandler()
			if tt.existing != "" {
				users.users[tt.existing] = &models.User{ID: "existing", Handle: tt.existing}
			}

			body, err := json.Marshal(tt.body)
			require.NoError(t, err)

			req := httptest.NewRequest(http.MethodPost, "/api/v1/auth/register", bytes.NewReader(body))
			w := httptest.NewRecorder()

			h.Register(w, req)

			assert.Equal(t, tt.wantStatus, w.Code)

			if tt.wantStatus == http.StatusCreated {
				var resp api.RegisterResponse
				require.NoError(t, json.NewDecoder(w.Body).Decode(&resp))
				assert.NotEmpty(t, resp.UserID)

				created := users.users[tt.body.Handle]
				require.NotNil(t, created)
				// Пароль хранится только как bcrypt-хеш
				assert.NotEqual(t, tt.body.Password, created.PasswordHash)
				assert.NoError(t, bcrypt.CompareHashAndPassword([]byte(created.PasswordHash), []byte(tt.body.Password)))
				if tt.body.DisplayName == "" {
					assert.Equal(t, tt.body.Handle, created.DisplayName)
				}
			}
		})
	}
}

func registerTestUser(t *testing.T, users *mockUserStorage, handle, password string) *models.User {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.MinCost)
	require.NoError(t, err)
	user := &models.User{
		ID:           "uid-" + handle,
		Handle:       handle,
		DisplayName:  handle,
		PasswordHash: string(hash),
		CreatedAt:    time.Now(),
		UpdatedAt:    time.Now(),
	}
	users.users[handle] = user
	return user
}

func TestAuthHandler_Login(t *testing.T) {
	h, users, tokens := newTestAuthHandler()
	user := registerTestUser(t, users, "worker1", "password123")

	tests := []struct {
		name       string
		body       api.LoginRequest
		wantStatus int
	}{
		{
			name:       "successful login",
			body:       api.LoginRequest{Handle: "worker1", Password: "password123"},
			wantStatus: http.StatusOK,
		},
		{
			name:       "wrong password",
			body:       api.LoginRequest{Handle: "worker1", Password: "wrongpass1"},
			wantStatus: http.StatusUnauthorized,
		},
		{
			name:       "unknown handle",
			body:       api.LoginRequest{Handle: "ghost", Password: "password123"},
			wantStatus: http.StatusUnauthorized,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			body, err := json.Marshal(tt.body)
			require.NoError(t, err)

			req := httptest.NewRequest(http.MethodPost, "/api/v1/auth/login", bytes.NewReader(body))
			w := httptest.NewRecorder()

			h.Login(w, req)

			assert.Equal(t, tt.wantStatus, w.Code)

			if tt.wantStatus == http.StatusOK {
				var resp api.TokenResponse
				require.NoError(t, json.NewDecoder(w.Body).Decode(&resp))
				assert.Equal(t, user.ID, resp.UserID)
				assert.NotEmpty(t, resp.AccessToken)
				assert.NotEmpty(t, resp.RefreshToken)

				// Сервер хранит хеш, а не сам токен
				_, stored := tokens.tokens[resp.RefreshToken]
				assert.False(t, stored)
				_, hashed := tokens.tokens[HashRefreshToken(resp.RefreshToken)]
				assert.True(t, hashed)

				claims, err := ValidateAccessToken(testJWTConfig(), resp.AccessToken)
				require.NoError(t, err)
				assert.Equal(t, user.ID, claims.UserID)
				assert.Equal(t, "worker1", claims.Handle)
			}
		})
	}
}

func TestAuthHandler_Refresh_RotatesToken(t *testing.T) {
	h, users, tokens := newTestAuthHandler()
	registerTestUser(t, users, "worker1", "password123")

	// Логинимся чтобы получить refresh token
	body, _ := json.Marshal(api.LoginRequest{Handle: "worker1", Password: "password123"})
	w := httptest.NewRecorder()
	h.Login(w, httptest.NewRequest(http.MethodPost, "/api/v1/auth/login", bytes.NewReader(body)))
	require.Equal(t, http.StatusOK, w.Code)

	var loginResp api.TokenResponse
	require.NoError(t, json.NewDecoder(w.Body).Decode(&loginResp))

	// Обновляем пару токенов
	body, _ = json.Marshal(api.RefreshRequest{RefreshToken: loginResp.RefreshToken})
	w = httptest.NewRecorder()
	h.Refresh(w, httptest.NewRequest(http.MethodPost, "/api/v1/auth/refresh", bytes.NewReader(body)))
	require.Equal(t, http.StatusOK, w.Code)

	var refreshResp api.TokenResponse
	require.NoError(t, json.NewDecoder(w.Body).Decode(&refreshResp))
	assert.NotEqual(t, loginResp.RefreshToken, refreshResp.RefreshToken)

	// Старый токен погашен
	_, oldAlive := tokens.tokens[HashRefreshToken(loginResp.RefreshToken)]
	assert.False(t, oldAlive)

	// Повторное использование старого токена отклоняется
	body, _ = json.Marshal(api.RefreshRequest{RefreshToken: loginResp.RefreshToken})
	w = httptest.NewRecorder()
	h.Refresh(w, httptest.NewRequest(http.MethodPost, "/api/v1/auth/refresh", bytes.NewReader(body)))
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestAuthHandler_Refresh_Expired(t *testing.T) {
	h, users, tokens := newTestAuthHandler()
	user := registerTestUser(t, users, "worker1", "password123")

	tokens.tokens[HashRefreshToken("stale")] = &models.RefreshToken{
		ID:        "tok1",
		UserID:    user.ID,
		TokenHash: HashRefreshToken("stale"),
		ExpiresAt: time.Now().Add(-time.Hour),
		CreatedAt: time.Now().Add(-25 * time.Hour),
	}

	body, _ := json.Marshal(api.RefreshRequest{RefreshToken: "stale"})
	w := httptest.NewRecorder()
	h.Refresh(w, httptest.NewRequest(http.MethodPost, "/api/v1/auth/refresh", bytes.NewReader(body)))
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestAuthHandler_Logout(t *testing.T) {
	h, users, tokens := newTestAuthHandler()
	user := registerTestUser(t, users, "worker1", "password123")

	tokens.tokens["h1"] = &models.RefreshToken{ID: "t1", UserID: user.ID, TokenHash: "h1"}
	tokens.tokens["h2"] = &models.RefreshToken{ID: "t2", UserID: user.ID, TokenHash: "h2"}

	req := httptest.NewRequest(http.MethodPost, "/api/v1/auth/logout", nil)
	req = req.WithContext(context.WithValue(req.Context(), UserIDKey, user.ID))
	w := httptest.NewRecorder()

	h.Logout(w, req)

	assert.Equal(t, http.StatusNoContent, w.Code)
	assert.Empty(t, tokens.tokens)
}

func TestAuthHandler_UpdateMe(t *testing.T) {
	h, users, _ := newTestAuthHandler()
	user := registerTestUser(t, users, "worker1", "password123")

	body, _ := json.Marshal(api.UpdateProfileRequest{DisplayName: "Site Foreman"})
	req := httptest.NewRequest(http.MethodPut, "/api/v1/users/me", bytes.NewReader(body))
	req = req.WithContext(context.WithValue(req.Context(), UserIDKey, user.ID))
	w := httptest.NewRecorder()

	h.UpdateMe(w, req)

	require.Equal(t, http.StatusOK, w.Code)

	var resp api.Profile
	require.NoError(t, json.NewDecoder(w.Body).Decode(&resp))
	assert.Equal(t, "Site Foreman", resp.DisplayName)
	assert.Equal(t, "Site Foreman", users.users["worker1"].DisplayName)
}
