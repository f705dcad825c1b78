package sqlite

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/conslogger/conslogger/internal/models"
	"github.com/conslogger/conslogger/internal/server/storage"
)

func setupTestStorage(t *testing.T) (*Storage, func()) {
	ctx := context.Background()

	// Используем in-memory database для тестов
	storage, err := New(ctx, ":memory:")
	require.NoError(t, err)

	cleanup := func() {
		_ = storage.Close()
	}

	return storage, cleanup
}

func createTestUser(t *testing.T, ctx context.Context, s *Storage, handle string) string {
	userID := uuid.New().String()
	err := s.CreateUser(ctx, &models.User{
		ID:           userID,
		Handle:       handle,
		DisplayName:  "Test Worker",
		PasswordHash: "hash123",
		CreatedAt:    time.Now(),
		UpdatedAt:    time.Now(),
	})
	require.NoError(t, err)
	return userID
}

func TestUserStorage_CreateUser(t *testing.T) {
	ctx := context.Background()
	s, cleanup := setupTestStorage(t)
	defer cleanup()

	user := &models.User{
		ID:           uuid.New().String(),
		Handle:       "worker1",
		DisplayName:  "Worker One",
		PasswordHash: "hash123",
		CreatedAt:    time.Now(),
		UpdatedAt:    time.Now(),
	}

	err := s.CreateUser(ctx, user)
	require.NoError(t, err)

	retrieved, err := s.GetUserByID(ctx, user.ID)
	require.NoError(t, err)
	assert.Equal(t, user.ID, retrieved.ID)
	assert.Equal(t, user.Handle, retrieved.Handle)
	assert.Equal(t, user.DisplayName, retrieved.DisplayName)
	assert.Equal(t, user.PasswordHash, retrieved.PasswordHash)
}

func TestUserStorage_CreateUser_DuplicateHandle(t *testing.T) {
	ctx := context.Background()
	s, cleanup := setupTestStorage(t)
	defer cleanup()

	createTestUser(t, ctx, s, "duplicate")

	err := s.CreateUser(ctx, &models.User{
		ID:           uuid.New().String(),
		Handle:       "duplicate",
		DisplayName:  "Another",
		PasswordHash: "hash2",
		CreatedAt:    time.Now(),
		UpdatedAt:    time.Now(),
	})
	assert.ErrorIs(t, err, storage.ErrUserAlreadyExists)
}

func TestUserStorage_GetUserByHandle(t *testing.T) {
	ctx := context.Background()
	s, cleanup := setupTestStorage(t)
	defer cleanup()

	userID := createTestUser(t, ctx, s, "findme")

	tests := []struct {
		wantError error
		name      string
		handle    string
	}{
		{
			name:      "get existing user",
			handle:    "findme",
			wantError: nil,
		},
		{
			name:      "get non-existent user",
			handle:    "notfound",
			wantError: storage.ErrUserNotFound,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			retrieved, err := s.GetUserByHandle(ctx, tt.handle)
			if tt.wantError != nil {
				assert.ErrorIs(t, err, tt.wantError)
				assert.Nil(t, retrieved)
			} else {
				require.NoError(t, err)
				assert.Equal(t, userID, retrieved.ID)
				assert.Equal(t, "findme", retrieved.Handle)
			}
		})
	}
}

func TestUserStorage_UpdateProfile(t *testing.T) {
	ctx := context.Background()
	s, cleanup := setupTestStorage(t)
	defer cleanup()

	userID := createTestUser(t, ctx, s, "renameme")

	tests := []struct {
		wantError   error
		name        string
		userID      string
		displayName string
	}{
		{
			name:        "update existing user",
			userID:      userID,
			displayName: "New Name",
			wantError:   nil,
		},
		{
			name:        "update non-existent user",
			userID:      "nonexistent",
			displayName: "Whatever",
			wantError:   storage.ErrUserNotFound,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := s.UpdateProfile(ctx, tt.userID, tt.displayName)
			if tt.wantError != nil {
				assert.ErrorIs(t, err, tt.wantError)
			} else {
				require.NoError(t, err)

				retrieved, err := s.GetUserByID(ctx, tt.userID)
				require.NoError(t, err)
				assert.Equal(t, tt.displayName, retrieved.DisplayName)
			}
		})
	}
}

func TestTokenStorage_SaveAndGet(t *testing.T) {
	ctx := context.Background()
	s, cleanup := setupTestStorage(t)
	defer cleanup()

	userID := createTestUser(t, ctx, s, "tokenuser")

	token := &models.RefreshToken{
		ID:        uuid.New().String(),
		UserID:    userID,
		TokenHash: "abc123hash",
		ExpiresAt: time.Now().Add(24 * time.Hour),
		CreatedAt: time.Now(),
	}

	err := s.SaveRefreshToken(ctx, token)
	require.NoError(t, err)

	retrieved, err := s.GetRefreshToken(ctx, "abc123hash")
	require.NoError(t, err)
	assert.Equal(t, token.ID, retrieved.ID)
	assert.Equal(t, userID, retrieved.UserID)
	assert.WithinDuration(t, token.ExpiresAt, retrieved.ExpiresAt, time.Second)

	_, err = s.GetRefreshToken(ctx, "unknown")
	assert.ErrorIs(t, err, storage.ErrTokenNotFound)
}

func TestTokenStorage_DeleteRefreshToken(t *testing.T) {
	ctx := context.Background()
	s, cleanup := setupTestStorage(t)
	defer cleanup()

	userID := createTestUser(t, ctx, s, "tokendelete")

	err := s.SaveRefreshToken(ctx, &models.RefreshToken{
		ID:        uuid.New().String(),
		UserID:    userID,
		TokenHash: "todelete",
		ExpiresAt: time.Now().Add(time.Hour),
		CreatedAt: time.Now(),
	})
	require.NoError(t, err)

	err = s.DeleteRefreshToken(ctx, "todelete")
	require.NoError(t, err)

	_, err = s.GetRefreshToken(ctx, "todelete")
	assert.ErrorIs(t, err, storage.ErrTokenNotFound)

	err = s.DeleteRefreshToken(ctx, "todelete")
	assert.ErrorIs(t, err, storage.ErrTokenNotFound)
}

func TestTokenStorage_DeleteUserTokens(t *testing.T) {
	ctx := context.Background()
	s, cleanup := setupTestStorage(t)
	defer cleanup()

	userID := createTestUser(t, ctx, s, "multitoken")

	for i := 0; i < 3; i++ {
		err := s.SaveRefreshToken(ctx, &models.RefreshToken{
			ID:        uuid.New().String(),
			UserID:    userID,
			TokenHash: uuid.New().String(),
			ExpiresAt: time.Now().Add(time.Hour),
			CreatedAt: time.Now(),
		})
		require.NoError(t, err)
	}

	deleted, err := s.DeleteUserTokens(ctx, userID)
	require.NoError(t, err)
	assert.Equal(t, 3, deleted)
}

func TestTokenStorage_DeleteExpiredTokens(t *testing.T) {
	ctx := context.Background()
	s, cleanup := setupTestStorage(t)
	defer cleanup()

	userID := createTestUser(t, ctx, s, "expiretest")

	// Один истекший и один живой токен
	err := s.SaveRefreshToken(ctx, &models.RefreshToken{
		ID:        uuid.New().String(),
		UserID:    userID,
		TokenHash: "expired",
		ExpiresAt: time.Now().Add(-time.Hour),
		CreatedAt: time.Now().Add(-2 * time.Hour),
	})
	require.NoError(t, err)

	err = s.SaveRefreshToken(ctx, &models.RefreshToken{
		ID:        uuid.New().String(),
		UserID:    userID,
		TokenHash: "alive",
		ExpiresAt: time.Now().Add(time.Hour),
		CreatedAt: time.Now(),
	})
	require.NoError(t, err)

	deleted, err := s.DeleteExpiredTokens(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, deleted)

	_, err = s.GetRefreshToken(ctx, "alive")
	assert.NoError(t, err)
}
