package server_test

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/conslogger/conslogger/internal/models"
	"github.com/conslogger/conslogger/internal/server"
	"github.com/conslogger/conslogger/internal/server/handlers"
	"github.com/conslogger/conslogger/internal/server/storage/sqlite"
	"github.com/conslogger/conslogger/pkg/api"
)

type testEnv struct {
	srv *httptest.Server
	t   *testing.T
}

type testUser struct {
	id    string
	token string
}

func setupTestServer(t *testing.T) *testEnv {
	store, err := sqlite.New(context.Background(), ":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })

	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelError}))

	router := server.NewRouter(server.Deps{
		Logger:  logger,
		Storage: store,
		JWTConfig: handlers.JWTConfig{
			Secret:          []byte("test-secret"),
			AccessTokenTTL:  15 * time.Minute,
			RefreshTokenTTL: 24 * time.Hour,
		},
		Version: "test",
	})

	srv := httptest.NewServer(router)
	t.Cleanup(srv.Close)

	return &testEnv{srv: srv, t: t}
}

// do выполняет запрос с опциональным токеном и JSON телом
func (e *testEnv) do(method, path, token string, body any) (*http.Response, []byte) {
	e.t.Helper()

	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		require.NoError(e.t, err)
		reader = bytes.NewReader(data)
	}

	req, err := http.NewRequest(method, e.srv.URL+path, reader)
	require.NoError(e.t, err)
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := http.DefaultClient.Do(req)
	require.NoError(e.t, err)
	defer func() { _ = resp.Body.Close() }()

	data, err := io.ReadAll(resp.Body)
	require.NoError(e.t, err)

	return resp, data
}

func (e *testEnv) signup(handle string) testUser {
	e.t.Helper()

	resp, _ := e.do(http.MethodPost, "/api/v1/auth/register", "", api.RegisterRequest{
		Handle:   handle,
		Password: "password123",
	})
	require.Equal(e.t, http.StatusCreated, resp.StatusCode)

	resp, data := e.do(http.MethodPost, "/api/v1/auth/login", "", api.LoginRequest{
		Handle:   handle,
		Password: "password123",
	})
	require.Equal(e.t, http.StatusOK, resp.StatusCode)

	var tok api.TokenResponse
	require.NoError(e.t, json.Unmarshal(data, &tok))

	return testUser{id: tok.UserID, token: tok.AccessToken}
}

func TestRouter_Unauthorized(t *testing.T) {
	e := setupTestServer(t)

	resp, _ := e.do(http.MethodGet, "/api/v1/users/me", "", nil)
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)

	resp, _ = e.do(http.MethodGet, "/api/v1/users/someone/logs", "garbage-token", nil)
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
}

func TestRouter_LogsOwnership(t *testing.T) {
	e := setupTestServer(t)
	alice := e.signup("alice")
	bob := e.signup("bob")

	log := api.HaltLog{
		ID:        "log1",
		Date:      "2026-09-01",
		Arrival:   1000,
		Status:    string(models.StatusRunning),
		SiteID:    models.DefaultSiteID,
		CreatedAt: 1000,
	}

	// Владелец пишет в свое дерево
	resp, _ := e.do(http.MethodPut, fmt.Sprintf("/api/v1/users/%s/logs/log1", alice.id), alice.token, log)
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	// Чужое дерево недоступно ни на запись, ни на чтение
	resp, _ = e.do(http.MethodPut, fmt.Sprintf("/api/v1/users/%s/logs/log2", alice.id), bob.token, log)
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)

	resp, _ = e.do(http.MethodGet, fmt.Sprintf("/api/v1/users/%s/logs?date=2026-09-01", alice.id), bob.token, nil)
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)

	// Свое дерево читается
	resp, data := e.do(http.MethodGet, fmt.Sprintf("/api/v1/users/%s/logs?date=2026-09-01", alice.id), alice.token, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var logs api.LogsResponse
	require.NoError(t, json.Unmarshal(data, &logs))
	require.Len(t, logs.Logs, 1)
	assert.Equal(t, "log1", logs.Logs[0].ID)
}

func TestRouter_ConnectionFlow(t *testing.T) {
	e := setupTestServer(t)
	alice := e.signup("alice")
	bob := e.signup("bob")
	carol := e.signup("carol")

	// Bob находит Alice по handle
	resp, data := e.do(http.MethodGet, "/api/v1/users/lookup/alice", bob.token, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var profile api.Profile
	require.NoError(t, json.Unmarshal(data, &profile))
	assert.Equal(t, alice.id, profile.ID)

	// Bob кладет приглашение во входящие Alice
	resp, data = e.do(http.MethodPost, fmt.Sprintf("/api/v1/users/%s/requests", alice.id), bob.token, api.CreateSyncRequest{
		ProposedSite: models.DefaultSiteID,
		ProposedName: models.DefaultSiteName,
	})
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	var created api.SyncRequest
	require.NoError(t, json.Unmarshal(data, &created))
	assert.Equal(t, bob.id, created.FromID)
	assert.Equal(t, "pending", created.Status)

	// Самому себе приглашение не отправить
	resp, _ = e.do(http.MethodPost, fmt.Sprintf("/api/v1/users/%s/requests", bob.id), bob.token, api.CreateSyncRequest{})
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	// Чужие входящие не читаются
	resp, _ = e.do(http.MethodGet, fmt.Sprintf("/api/v1/users/%s/requests", alice.id), bob.token, nil)
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)

	// Alice видит приглашение и принимает его
	resp, data = e.do(http.MethodGet, fmt.Sprintf("/api/v1/users/%s/requests", alice.id), alice.token, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var inbox api.SyncRequestsResponse
	require.NoError(t, json.Unmarshal(data, &inbox))
	require.Len(t, inbox.Requests, 1)

	resp, _ = e.do(http.MethodPatch,
		fmt.Sprintf("/api/v1/users/%s/requests/%s", alice.id, created.ID),
		alice.token, api.UpdateRequestStatusRequest{Status: "accepted"})
	require.Equal(t, http.StatusOK, resp.StatusCode)

	edge := api.Connection{SyncedSiteID: models.DefaultSiteID, SyncedSiteName: models.DefaultSiteName}

	// Alice пишет свое ребро и зеркальное ребро в дереве Bob
	resp, _ = e.do(http.MethodPut, fmt.Sprintf("/api/v1/users/%s/connections/%s", alice.id, bob.id), alice.token, edge)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	resp, _ = e.do(http.MethodPut, fmt.Sprintf("/api/v1/users/%s/connections/%s", bob.id, alice.id), alice.token, edge)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	// Третий пользователь не может записать чужое ребро
	resp, _ = e.do(http.MethodPut, fmt.Sprintf("/api/v1/users/%s/connections/%s", alice.id, bob.id), carol.token, edge)
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)

	// После установления связи Bob читает логи Alice
	resp, _ = e.do(http.MethodGet, fmt.Sprintf("/api/v1/users/%s/logs?date=2026-09-01", alice.id), bob.token, nil)
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	// Ребро подставляет идентичность партнёра из БД
	resp, data = e.do(http.MethodGet, fmt.Sprintf("/api/v1/users/%s/connections", bob.id), bob.token, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var conns api.ConnectionsResponse
	require.NoError(t, json.Unmarshal(data, &conns))
	require.Len(t, conns.Connections, 1)
	assert.Equal(t, alice.id, conns.Connections[0].PartnerID)
	assert.Equal(t, "alice", conns.Connections[0].PartnerHandle)

	// Разрыв: Bob удаляет оба ребра (свое и зеркальное)
	resp, _ = e.do(http.MethodDelete, fmt.Sprintf("/api/v1/users/%s/connections/%s", bob.id, alice.id), bob.token, nil)
	assert.Equal(t, http.StatusNoContent, resp.StatusCode)
	resp, _ = e.do(http.MethodDelete, fmt.Sprintf("/api/v1/users/%s/connections/%s", alice.id, bob.id), bob.token, nil)
	assert.Equal(t, http.StatusNoContent, resp.StatusCode)

	// Доступ к логам закрылся вместе с ребром
	resp, _ = e.do(http.MethodGet, fmt.Sprintf("/api/v1/users/%s/logs?date=2026-09-01", alice.id), bob.token, nil)
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)
}

func TestRouter_ChangeFeed(t *testing.T) {
	e := setupTestServer(t)
	alice := e.signup("alice")
	bob := e.signup("bob")

	// Лента пуста
	resp, data := e.do(http.MethodGet, fmt.Sprintf("/api/v1/users/%s/changes?since=0", alice.id), alice.token, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var feed api.ChangesResponse
	require.NoError(t, json.Unmarshal(data, &feed))
	assert.Empty(t, feed.Changes)
	assert.Equal(t, int64(0), feed.LastSeq)

	// Чужая лента недоступна
	resp, _ = e.do(http.MethodGet, fmt.Sprintf("/api/v1/users/%s/changes", alice.id), bob.token, nil)
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)

	// Приглашение от Bob появляется в ленте Alice
	resp, _ = e.do(http.MethodPost, fmt.Sprintf("/api/v1/users/%s/requests", alice.id), bob.token, api.CreateSyncRequest{})
	require.Equal(t, http.StatusCreated, resp.StatusCode)

	resp, data = e.do(http.MethodGet, fmt.Sprintf("/api/v1/users/%s/changes?since=0", alice.id), alice.token, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	require.NoError(t, json.Unmarshal(data, &feed))
	require.Len(t, feed.Changes, 1)
	assert.Equal(t, "request", feed.Changes[0].Doc)
	assert.Equal(t, "added", feed.Changes[0].Kind)
	require.NotNil(t, feed.Changes[0].Request)
	assert.Equal(t, bob.id, feed.Changes[0].Request.FromID)

	// Повторный опрос с since=LastSeq ничего не возвращает
	resp, data = e.do(http.MethodGet, fmt.Sprintf("/api/v1/users/%s/changes?since=%d", alice.id, feed.LastSeq), alice.token, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	require.NoError(t, json.Unmarshal(data, &feed))
	assert.Empty(t, feed.Changes)
}

func TestRouter_BulkDelete(t *testing.T) {
	e := setupTestServer(t)
	alice := e.signup("alice")

	for i := 1; i <= 3; i++ {
		log := api.HaltLog{
			ID:        fmt.Sprintf("log%d", i),
			Date:      "2026-09-01",
			Arrival:   int64(i * 1000),
			Status:    string(models.StatusCompleted),
			CreatedAt: int64(i * 1000),
		}
		resp, _ := e.do(http.MethodPut, fmt.Sprintf("/api/v1/users/%s/logs/log%d", alice.id, i), alice.token, log)
		require.Equal(t, http.StatusOK, resp.StatusCode)
	}

	resp, data := e.do(http.MethodPost, fmt.Sprintf("/api/v1/users/%s/logs/bulk-delete", alice.id), alice.token,
		api.BulkDeleteRequest{IDs: []string{"log1", "log3"}})
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var deleted api.BulkDeleteResponse
	require.NoError(t, json.Unmarshal(data, &deleted))
	assert.Equal(t, 2, deleted.Deleted)

	resp, data = e.do(http.MethodGet, fmt.Sprintf("/api/v1/users/%s/logs?date=2026-09-01", alice.id), alice.token, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var logs api.LogsResponse
	require.NoError(t, json.Unmarshal(data, &logs))
	require.Len(t, logs.Logs, 1)
	assert.Equal(t, "log2", logs.Logs[0].ID)
}
