package boltdb

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.etcd.io/bbolt"

	"github.com/conslogger/conslogger/internal/models"
)

// создаём тестовое BoltDB хранилище во временной директории
func setupTestStorage(t *testing.T) (*Storage, func()) {
	t.Helper()
	tmpDir := t.TempDir()
	dbPath := filepath.Join(tmpDir, "test.db")

	ctx := context.Background()
	store, err := New(ctx, dbPath)
	require.NoError(t, err)
	require.NotNil(t, store)

	cleanup := func() {
		require.NoError(t, store.Close())
	}

	return store, cleanup
}

func TestNew_Success(t *testing.T) {
	tmpDir := t.TempDir()
	dbPath := filepath.Join(tmpDir, "test.db")

	ctx := context.Background()
	store, err := New(ctx, dbPath)
	require.NoError(t, err)
	require.NotNil(t, store)
	defer func() {
		require.NoError(t, store.Close())
	}()

	// Проверяем что файл БД действительно создан
	info, err := os.Stat(dbPath)
	require.NoError(t, err)
	assert.False(t, info.IsDir())

	// Проверяем, что бакеты существуют
	err = store.db.View(func(tx *bbolt.Tx) error {
		for _, b := range [][]byte{bucketAuth, bucketLogs, bucketSites, bucketShifts, bucketPrefs} {
			if tx.Bucket(b) == nil {
				return os.ErrNotExist
			}
		}
		return nil
	})
	require.NoError(t, err)
}

func TestNew_InvalidPath(t *testing.T) {
	ctx := context.Background()
	invalidPath := string([]byte{0})
	store, err := New(ctx, invalidPath)
	assert.Error(t, err)
	assert.Nil(t, store)
}

func TestClose_Idempotent(t *testing.T) {
	tmpDir := t.TempDir()
	dbPath := filepath.Join(tmpDir, "test.db")

	ctx := context.Background()
	store, err := New(ctx, dbPath)
	require.NoError(t, err)

	require.NoError(t, store.Close())
	assert.Nil(t, store.db)

	// Второй вызов Close не должен падать
	assert.NoError(t, store.Close())
}

func TestEnsureAppVersion_FirstRunNoWipe(t *testing.T) {
	ctx := context.Background()
	store, cleanup := setupTestStorage(t)
	defer cleanup()

	// Первый запуск только записывает маркер
	wiped, err := store.EnsureAppVersion(ctx, "1.0.0")
	require.NoError(t, err)
	assert.False(t, wiped)

	// Повторный запуск той же версии ничего не делает
	wiped, err = store.EnsureAppVersion(ctx, "1.0.0")
	require.NoError(t, err)
	assert.False(t, wiped)
}

func TestEnsureAppVersion_WipesOnChange(t *testing.T) {
	ctx := context.Background()
	store, cleanup := setupTestStorage(t)
	defer cleanup()

	_, err := store.EnsureAppVersion(ctx, "1.0.0")
	require.NoError(t, err)

	// Наполняем хранилище локальными данными
	require.NoError(t, store.SaveLog(ctx, &models.HaltLog{
		ID:      "log-1",
		Date:    "2026-03-01",
		Arrival: 1000,
		Status:  models.StatusRunning,
	}))
	require.NoError(t, store.SaveSite(ctx, &models.Site{ID: "site-1", Name: "North"}))
	require.NoError(t, store.SaveSelectedSite(ctx, &models.Site{ID: "site-1", Name: "North"}))
	require.NoError(t, store.SetOnboarded(ctx, true))
	require.NoError(t, store.SaveLastSeenSeq(ctx, 42))

	// Смена версии зачищает логи, площадки и настройки
	wiped, err := store.EnsureAppVersion(ctx, "2.0.0")
	require.NoError(t, err)
	assert.True(t, wiped)

	logs, err := store.GetLogsByDate(ctx, "2026-03-01")
	require.NoError(t, err)
	assert.Empty(t, logs)

	sites, err := store.GetSites(ctx)
	require.NoError(t, err)
	assert.Empty(t, sites)

	_, err = store.GetSelectedSite(ctx)
	assert.Error(t, err)

	onboarded, err := store.IsOnboarded(ctx)
	require.NoError(t, err)
	assert.False(t, onboarded)

	seq, err := store.GetLastSeenSeq(ctx)
	require.NoError(t, err)
	assert.Zero(t, seq)

	// Повторная проверка новой версии уже не зачищает
	wiped, err = store.EnsureAppVersion(ctx, "2.0.0")
	require.NoError(t, err)
	assert.False(t, wiped)
}
