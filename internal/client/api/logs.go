package api

import (
	"context"
	"fmt"
	"net/url"

	"github.com/conslogger/conslogger/pkg/api"
)

// GetLogs возвращает логи владельца за дневную корзину.
// Чужое дерево читается, только если владелец держит соединение с нами
func (c *Client) GetLogs(ctx context.Context, ownerID, date string) ([]api.HaltLog, error) {
	var resp api.LogsResponse
	path := fmt.Sprintf("/api/v1/users/%s/logs?date=%s", ownerID, url.QueryEscape(date))
	if err := c.doAuthRequest(ctx, "GET", path, nil, &resp); err != nil {
		return nil, fmt.Errorf("get logs request failed: %w", err)
	}
	return resp.Logs, nil
}

// PutLog создает или перезаписывает лог в дереве владельца
func (c *Client) PutLog(ctx context.Context, ownerID string, log api.HaltLog) error {
	path := fmt.Sprintf("/api/v1/users/%s/logs/%s", ownerID, log.ID)
	if err := c.doAuthRequest(ctx, "PUT", path, log, nil); err != nil {
		return fmt.Errorf("put log request failed: %w", err)
	}
	return nil
}

// DeleteLog удаляет лог из дерева владельца
func (c *Client) DeleteLog(ctx context.Context, ownerID, logID string) error {
	path := fmt.Sprintf("/api/v1/users/%s/logs/%s", ownerID, logID)
	if err := c.doAuthRequest(ctx, "DELETE", path, nil, nil); err != nil {
		return fmt.Errorf("delete log request failed: %w", err)
	}
	return nil
}

// BulkDeleteLogs удаляет несколько логов одним атомарным коммитом
func (c *Client) BulkDeleteLogs(ctx context.Context, ownerID string, ids []string) (int, error) {
	var resp api.BulkDeleteResponse
	path := fmt.Sprintf("/api/v1/users/%s/logs/bulk-delete", ownerID)
	if err := c.doAuthRequest(ctx, "POST", path, api.BulkDeleteRequest{IDs: ids}, &resp); err != nil {
		return 0, fmt.Errorf("bulk delete request failed: %w", err)
	}
	return resp.Deleted, nil
}

// GetSites возвращает площадки владельца
func (c *Client) GetSites(ctx context.Context, ownerID string) ([]api.Site, error) {
	var resp api.SitesResponse
	path := fmt.Sprintf("/api/v1/users/%s/sites", ownerID)
	if err := c.doAuthRequest(ctx, "GET", path, nil, &resp); err != nil {
		return nil, fmt.Errorf("get sites request failed: %w", err)
	}
	return resp.Sites, nil
}

// PutSite создает или перезаписывает площадку
func (c *Client) PutSite(ctx context.Context, ownerID string, site api.Site) error {
	path := fmt.Sprintf("/api/v1/users/%s/sites/%s", ownerID, site.ID)
	if err := c.doAuthRequest(ctx, "PUT", path, site, nil); err != nil {
		return fmt.Errorf("put site request failed: %w", err)
	}
	return nil
}

// DeleteSite удаляет площадку
func (c *Client) DeleteSite(ctx context.Context, ownerID, siteID string) error {
	path := fmt.Sprintf("/api/v1/users/%s/sites/%s", ownerID, siteID)
	if err := c.doAuthRequest(ctx, "DELETE", path, nil, nil); err != nil {
		return fmt.Errorf("delete site request failed: %w", err)
	}
	return nil
}

// GetShifts возвращает смены площадки
func (c *Client) GetShifts(ctx context.Context, ownerID, siteID string) ([]api.Shift, error) {
	var resp api.ShiftsResponse
	path := fmt.Sprintf("/api/v1/users/%s/sites/%s/shifts", ownerID, siteID)
	if err := c.doAuthRequest(ctx, "GET", path, nil, &resp); err != nil {
		return nil, fmt.Errorf("get shifts request failed: %w", err)
	}
	return resp.Shifts, nil
}

// PutShift создает или перезаписывает смену
func (c *Client) PutShift(ctx context.Context, ownerID string, shift api.Shift) error {
	path := fmt.Sprintf("/api/v1/users/%s/shifts/%s", ownerID, shift.ID)
	if err := c.doAuthRequest(ctx, "PUT", path, shift, nil); err != nil {
		return fmt.Errorf("put shift request failed: %w", err)
	}
	return nil
}

// DeleteShift удаляет смену
func (c *Client) DeleteShift(ctx context.Context, ownerID, shiftID string) error {
	path := fmt.Sprintf("/api/v1/users/%s/shifts/%s", ownerID, shiftID)
	if err := c.doAuthRequest(ctx, "DELETE", path, nil, nil); err != nil {
		return fmt.Errorf("delete shift request failed: %w", err)
	}
	return nil
}
