package boltdb

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/conslogger/conslogger/internal/client/storage"
	"github.com/conslogger/conslogger/internal/models"
)

func newTestLog(id, date string, arrival int64) *models.HaltLog {
	return &models.HaltLog{
		ID:        id,
		Date:      date,
		Arrival:   arrival,
		Status:    models.StatusRunning,
		Category:  "Weather",
		CreatedAt: arrival,
	}
}

func TestStorage_SaveGetLog(t *testing.T) {
	ctx := context.Background()
	store, cleanup := setupTestStorage(t)
	defer cleanup()

	log := newTestLog("log-1", "2026-03-01", 1000)
	log.Departure = 61000
	log.Status = models.StatusCompleted
	log.DurationSec = 60

	require.NoError(t, store.SaveLog(ctx, log))

	got, err := store.GetLog(ctx, "2026-03-01", "log-1")
	require.NoError(t, err)
	assert.Equal(t, log, got)

	// Лог ищется только в своей дневной корзине
	_, err = store.GetLog(ctx, "2026-03-02", "log-1")
	assert.ErrorIs(t, err, storage.ErrLogNotFound)
}

func TestStorage_GetLogsByDate(t *testing.T) {
	ctx := context.Background()
	store, cleanup := setupTestStorage(t)
	defer cleanup()

	require.NoError(t, store.SaveLog(ctx, newTestLog("log-1", "2026-03-01", 1000)))
	require.NoError(t, store.SaveLog(ctx, newTestLog("log-2", "2026-03-01", 3000)))
	require.NoError(t, store.SaveLog(ctx, newTestLog("log-3", "2026-03-02", 2000)))

	logs, err := store.GetLogsByDate(ctx, "2026-03-01")
	require.NoError(t, err)
	require.Len(t, logs, 2)

	// Свежие первыми
	assert.Equal(t, "log-2", logs[0].ID)
	assert.Equal(t, "log-1", logs[1].ID)

	// Пустая корзина возвращает пустой slice
	logs, err = store.GetLogsByDate(ctx, "2026-03-03")
	require.NoError(t, err)
	assert.Empty(t, logs)
}

func TestStorage_DeleteLog(t *testing.T) {
	ctx := context.Background()
	store, cleanup := setupTestStorage(t)
	defer cleanup()

	require.NoError(t, store.SaveLog(ctx, newTestLog("log-1", "2026-03-01", 1000)))

	require.NoError(t, store.DeleteLog(ctx, "2026-03-01", "log-1"))

	_, err := store.GetLog(ctx, "2026-03-01", "log-1")
	assert.ErrorIs(t, err, storage.ErrLogNotFound)

	// Повторное удаление выдает ошибку
	err = store.DeleteLog(ctx, "2026-03-01", "log-1")
	assert.ErrorIs(t, err, storage.ErrLogNotFound)
}

func TestStorage_BulkDeleteLogs(t *testing.T) {
	ctx := context.Background()
	store, cleanup := setupTestStorage(t)
	defer cleanup()

	for i, id := range []string{"log-1", "log-2", "log-3"} {
		require.NoError(t, store.SaveLog(ctx, newTestLog(id, "2026-03-01", int64(1000*(i+1)))))
	}

	// Отсутствующий id пропускается, остальные удаляются
	deleted, err := store.BulkDeleteLogs(ctx, "2026-03-01", []string{"log-1", "log-3", "missing"})
	require.NoError(t, err)
	assert.Equal(t, 2, deleted)

	logs, err := store.GetLogsByDate(ctx, "2026-03-01")
	require.NoError(t, err)
	require.Len(t, logs, 1)
	assert.Equal(t, "log-2", logs[0].ID)

	// Пустой список это no-op
	deleted, err = store.BulkDeleteLogs(ctx, "2026-03-01", nil)
	require.NoError(t, err)
	assert.Zero(t, deleted)
}

// Гостевые логи переживают перезапуск приложения
func TestStorage_LogsSurviveReopen(t *testing.T) {
	ctx := context.Background()
	tmpDir := t.TempDir()
	dbPath := filepath.Join(tmpDir, "guest.db")

	store, err := New(ctx, dbPath)
	require.NoError(t, err)

	require.NoError(t, store.SaveLog(ctx, newTestLog("log-1", "2026-03-01", 1000)))
	require.NoError(t, store.Close())

	reopened, err := New(ctx, dbPath)
	require.NoError(t, err)
	defer func() {
		require.NoError(t, reopened.Close())
	}()

	logs, err := reopened.GetLogsByDate(ctx, "2026-03-01")
	require.NoError(t, err)
	require.Len(t, logs, 1)
	assert.Equal(t, "log-1", logs[0].ID)
}
