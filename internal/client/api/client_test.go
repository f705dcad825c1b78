package api

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/conslogger/conslogger/internal/client/storage"
	"github.com/conslogger/conslogger/pkg/api"
)

// staticTokenSource отдает фиксированный токен
type staticTokenSource struct {
	token string
	err   error
}

func (s *staticTokenSource) AccessToken(ctx context.Context) (string, error) {
	return s.token, s.err
}

func TestClient_Register(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/api/v1/auth/register", r.URL.Path)
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))

		var req api.RegisterRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Equal(t, "foreman", req.Handle)

		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusCreated)
		_ = json.NewEncoder(w).Encode(api.RegisterResponse{UserID: "user-1", Message: "created"})
	}))
	defer server.Close()

	client := NewClient(server.URL)
	resp, err := client.Register(context.Background(), api.RegisterRequest{
		Handle:      "foreman",
		DisplayName: "Site Foreman",
		Password:    "password123",
	})
	require.NoError(t, err)
	assert.Equal(t, "user-1", resp.UserID)
}

func TestClient_Login_ServerError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusUnauthorized)
		_ = json.NewEncoder(w).Encode(api.ErrorResponse{
			Error:   api.ErrCodeUnauthorized,
			Message: "invalid credentials",
		})
	}))
	defer server.Close()

	client := NewClient(server.URL)
	_, err := client.Login(context.Background(), api.LoginRequest{Handle: "foreman", Password: "wrong"})
	require.Error(t, err)

	// Машинный код сервера доступен через errors.As
	assert.True(t, IsStatus(err, http.StatusUnauthorized))
	assert.False(t, IsStatus(err, http.StatusNotFound))
}

func TestClient_AuthorizedRequest_SendsBearer(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "Bearer test-token", r.Header.Get("Authorization"))
		assert.Equal(t, "/api/v1/users/user-1/logs", r.URL.Path)
		assert.Equal(t, "2026-03-01", r.URL.Query().Get("date"))

		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(api.LogsResponse{Logs: []api.HaltLog{{ID: "log-1", Date: "2026-03-01"}}})
	}))
	defer server.Close()

	client := NewClient(server.URL)
	client.SetTokenSource(&staticTokenSource{token: "test-token"})

	logs, err := client.GetLogs(context.Background(), "user-1", "2026-03-01")
	require.NoError(t, err)
	require.Len(t, logs, 1)
	assert.Equal(t, "log-1", logs[0].ID)
}

func TestClient_AuthorizedRequest_NoTokenSource(t *testing.T) {
	client := NewClient("http://localhost:0")

	_, err := client.GetLogs(context.Background(), "user-1", "2026-03-01")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "not authenticated")
}

func TestClient_GetChanges(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/v1/users/user-1/changes", r.URL.Path)
		assert.Equal(t, "42", r.URL.Query().Get("since"))

		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(api.ChangesResponse{
			Changes: []api.Change{{Seq: 43, Doc: api.DocRequest, Kind: api.ChangeAdded}},
			LastSeq: 43,
		})
	}))
	defer server.Close()

	client := NewClient(server.URL)
	client.SetTokenSource(&staticTokenSource{token: "test-token"})

	resp, err := client.GetChanges(context.Background(), "user-1", 42)
	require.NoError(t, err)
	assert.Equal(t, int64(43), resp.LastSeq)
	require.Len(t, resp.Changes, 1)
	assert.Equal(t, api.DocRequest, resp.Changes[0].Doc)
}

func TestRemoteStore_GetLog(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(api.LogsResponse{Logs: []api.HaltLog{
			{ID: "log-1", Date: "2026-03-01", Arrival: 1000, Status: "COMPLETED"},
			{ID: "log-2", Date: "2026-03-01", Arrival: 2000, Status: "RUNNING"},
		}})
	}))
	defer server.Close()

	client := NewClient(server.URL)
	client.SetTokenSource(&staticTokenSource{token: "test-token"})
	store := NewRemoteStore(client, "user-1")

	log, err := store.GetLog(context.Background(), "2026-03-01", "log-2")
	require.NoError(t, err)
	assert.Equal(t, "log-2", log.ID)

	_, err = store.GetLog(context.Background(), "2026-03-01", "missing")
	assert.ErrorIs(t, err, storage.ErrLogNotFound)
}

func TestRemoteStore_DeleteSite_NotFound(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusNotFound)
		_ = json.NewEncoder(w).Encode(api.ErrorResponse{Error: api.ErrCodeNotFound, Message: "site not found"})
	}))
	defer server.Close()

	client := NewClient(server.URL)
	client.SetTokenSource(&staticTokenSource{token: "test-token"})
	store := NewRemoteStore(client, "user-1")

	err := store.DeleteSite(context.Background(), "missing")
	assert.ErrorIs(t, err, storage.ErrSiteNotFound)
}
