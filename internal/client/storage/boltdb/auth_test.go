package boltdb

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/conslogger/conslogger/internal/client/storage"
)

func TestStorage_SaveGetDeleteAuth(t *testing.T) {
	ctx := context.Background()
	store, cleanup := setupTestStorage(t)
	defer cleanup()

	auth := &storage.AuthData{
		UserID:       "user-id-123",
		Handle:       "foreman",
		DisplayName:  "Site Foreman",
		AccessToken:  "access-token",
		RefreshToken: "refresh-token",
		ExpiresAt:    time.Now().Add(time.Hour).Truncate(time.Second),
	}

	// До сохранения GetAuth выдает ErrAuthNotFound
	_, err := store.GetAuth(ctx)
	assert.ErrorIs(t, err, storage.ErrAuthNotFound)

	require.NoError(t, store.SaveAuth(ctx, auth))

	got, err := store.GetAuth(ctx)
	require.NoError(t, err)
	assert.Equal(t, auth.UserID, got.UserID)
	assert.Equal(t, auth.Handle, got.Handle)
	assert.Equal(t, auth.AccessToken, got.AccessToken)
	assert.Equal(t, auth.RefreshToken, got.RefreshToken)
	assert.True(t, auth.ExpiresAt.Equal(got.ExpiresAt))

	require.NoError(t, store.DeleteAuth(ctx))

	_, err = store.GetAuth(ctx)
	assert.ErrorIs(t, err, storage.ErrAuthNotFound)

	// Повторный logout выдает ошибку
	err = store.DeleteAuth(ctx)
	assert.ErrorIs(t, err, storage.ErrAuthNotFound)
}

func TestStorage_IsAuthenticated(t *testing.T) {
	ctx := context.Background()
	store, cleanup := setupTestStorage(t)
	defer cleanup()

	// Без сохраненной сессии
	ok, err := store.IsAuthenticated(ctx)
	require.NoError(t, err)
	assert.False(t, ok)

	// Валидная сессия
	require.NoError(t, store.SaveAuth(ctx, &storage.AuthData{
		UserID:      "user-id-123",
		AccessToken: "token",
		ExpiresAt:   time.Now().Add(time.Hour),
	}))
	ok, err = store.IsAuthenticated(ctx)
	require.NoError(t, err)
	assert.True(t, ok)

	// Истекший access token не считается валидным
	require.NoError(t, store.SaveAuth(ctx, &storage.AuthData{
		UserID:      "user-id-123",
		AccessToken: "token",
		ExpiresAt:   time.Now().Add(-time.Minute),
	}))
	ok, err = store.IsAuthenticated(ctx)
	require.NoError(t, err)
	assert.False(t, ok)
}

// Сессия переживает зачистку по смене версии приложения
func TestStorage_AuthSurvivesVersionWipe(t *testing.T) {
	ctx := context.Background()
	store, cleanup := setupTestStorage(t)
	defer cleanup()

	_, err := store.EnsureAppVersion(ctx, "1.0.0")
	require.NoError(t, err)

	require.NoError(t, store.SaveAuth(ctx, &storage.AuthData{
		UserID:      "user-id-123",
		AccessToken: "token",
		ExpiresAt:   time.Now().Add(time.Hour),
	}))

	wiped, err := store.EnsureAppVersion(ctx, "2.0.0")
	require.NoError(t, err)
	require.True(t, wiped)

	got, err := store.GetAuth(ctx)
	require.NoError(t, err)
	assert.Equal(t, "user-id-123", got.UserID)
}
