package api

import (
	"context"
	"fmt"

	"github.com/conslogger/conslogger/pkg/api"
)

// GetConnections возвращает рёбра графа синхронизации владельца.
// Доступно только самому владельцу
func (c *Client) GetConnections(ctx context.Context, ownerID string) ([]api.Connection, error) {
	var resp api.ConnectionsResponse
	path := fmt.Sprintf("/api/v1/users/%s/connections", ownerID)
	if err := c.doAuthRequest(ctx, "GET", path, nil, &resp); err != nil {
		return nil, fmt.Errorf("get connections request failed: %w", err)
	}
	return resp.Connections, nil
}

// PutConnection создает или перезаписывает ребро в дереве владельца.
// В чужом дереве сервер разрешает писать только зеркальное ребро
// {owner}/connections/{caller}
func (c *Client) PutConnection(ctx context.Context, ownerID string, conn api.Connection) error {
	path := fmt.Sprintf("/api/v1/users/%s/connections/%s", ownerID, conn.PartnerID)
	if err := c.doAuthRequest(ctx, "PUT", path, conn, nil); err != nil {
		return fmt.Errorf("put connection request failed: %w", err)
	}
	return nil
}

// DeleteConnection удаляет ребро из дерева владельца
func (c *Client) DeleteConnection(ctx context.Context, ownerID, partnerID string) error {
	path := fmt.Sprintf("/api/v1/users/%s/connections/%s", ownerID, partnerID)
	if err := c.doAuthRequest(ctx, "DELETE", path, nil, nil); err != nil {
		return fmt.Errorf("delete connection request failed: %w", err)
	}
	return nil
}

// CreateRequest кладет приглашение во входящие получателя.
// Поля отправителя сервер заполняет из токена
func (c *Client) CreateRequest(ctx context.Context, recipientID string, req api.CreateSyncRequest) (*api.SyncRequest, error) {
	var resp api.SyncRequest
	path := fmt.Sprintf("/api/v1/users/%s/requests", recipientID)
	if err := c.doAuthRequest(ctx, "POST", path, req, &resp); err != nil {
		return nil, fmt.Errorf("create sync request failed: %w", err)
	}
	return &resp, nil
}

// GetRequests возвращает входящие приглашения владельца
func (c *Client) GetRequests(ctx context.Context, ownerID string) ([]api.SyncRequest, error) {
	var resp api.SyncRequestsResponse
	path := fmt.Sprintf("/api/v1/users/%s/requests", ownerID)
	if err := c.doAuthRequest(ctx, "GET", path, nil, &resp); err != nil {
		return nil, fmt.Errorf("get sync requests failed: %w", err)
	}
	return resp.Requests, nil
}

// UpdateRequest меняет статус приглашения (accepted | rejected)
func (c *Client) UpdateRequest(ctx context.Context, ownerID, requestID, status string) (*api.SyncRequest, error) {
	var resp api.SyncRequest
	path := fmt.Sprintf("/api/v1/users/%s/requests/%s", ownerID, requestID)
	if err := c.doAuthRequest(ctx, "PATCH", path, api.UpdateRequestStatusRequest{Status: status}, &resp); err != nil {
		return nil, fmt.Errorf("update sync request failed: %w", err)
	}
	return &resp, nil
}

// GetChanges возвращает дельты change feed владельца после seq
func (c *Client) GetChanges(ctx context.Context, ownerID string, since int64) (*api.ChangesResponse, error) {
	var resp api.ChangesResponse
	path := fmt.Sprintf("/api/v1/users/%s/changes?since=%d", ownerID, since)
	if err := c.doAuthRequest(ctx, "GET", path, nil, &resp); err != nil {
		return nil, fmt.Errorf("get changes request failed: %w", err)
	}
	return &resp, nil
}
