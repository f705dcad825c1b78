package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/conslogger/conslogger/pkg/api"
)

// TokenSource выдает действующий access token для авторизованных запросов.
// Реализация отвечает за silent refresh истекшей пары токенов.
type TokenSource interface {
	AccessToken(ctx context.Context) (string, error)
}

// APIError ошибка уровня API: статус и машинный код с сервера.
// Сервисы различают коды через errors.As
type APIError struct {
	StatusCode int
	Code       string
	Message    string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("server error (%d, %s): %s", e.StatusCode, e.Code, e.Message)
}

// IsStatus сообщает, является ли err ошибкой API с данным HTTP статусом
func IsStatus(err error, statusCode int) bool {
	var apiErr *APIError
	return errors.As(err, &apiErr) && apiErr.StatusCode == statusCode
}

// Client представляет HTTP клиент для взаимодействия с сервером
type Client struct {
	httpClient  *http.Client
	baseURL     string
	tokenSource TokenSource
}

// NewClient создает новый API клиент
func NewClient(baseURL string) *Client {
	return &Client{
		baseURL: baseURL,
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
			// Настройка обработки редиректов
			CheckRedirect: func(req *http.Request, via []*http.Request) error {
				// Ограничиваем количество редиректов
				if len(via) >= 10 {
					return fmt.Errorf("stopped after 10 redirects")
				}
				// Копируем заголовки Authorization при редиректе
				if len(via) > 0 && via[0].Header.Get("Authorization") != "" {
					req.Header.Set("Authorization", via[0].Header.Get("Authorization"))
				}
				return nil
			},
		},
	}
}

// SetTokenSource подключает источник токенов для авторизованных запросов.
// До вызова авторизованные методы возвращают ошибку
func (c *Client) SetTokenSource(ts TokenSource) {
	c.tokenSource = ts
}

// doRequest выполняет запрос без авторизации
func (c *Client) doRequest(ctx context.Context, method, path string, body, result any) error {
	return c.do(ctx, method, path, body, result, false)
}

// doAuthRequest выполняет запрос с Bearer-токеном из TokenSource
func (c *Client) doAuthRequest(ctx context.Context, method, path string, body, result any) error {
	return c.do(ctx, method, path, body, result, true)
}

func (c *Client) do(ctx context.Context, method, path string, body, result any, authed bool) error {
	url := c.baseURL + path

	var bodyReader io.Reader
	if body != nil {
		jsonData, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("failed to marshal request body: %w", err)
		}
		bodyReader = bytes.NewReader(jsonData)
	}

	req, err := http.NewRequestWithContext(ctx, method, url, bodyReader)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}

	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	if authed {
		if c.tokenSource == nil {
			return fmt.Errorf("not authenticated: token source is not configured")
		}
		token, err := c.tokenSource.AccessToken(ctx)
		if err != nil {
			return fmt.Errorf("failed to obtain access token: %w", err)
		}
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("request failed: %w", err)
	}
	defer func() {
		_ = resp.Body.Close()
	}()

	// Читаем тело ответа
	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("failed to read response body: %w", err)
	}

	// Проверяем статус код
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		apiErr := &APIError{StatusCode: resp.StatusCode}
		var errResp api.ErrorResponse
		if err := json.Unmarshal(respBody, &errResp); err == nil && errResp.Error != "" {
			apiErr.Code = errResp.Error
			apiErr.Message = errResp.Message
		} else {
			apiErr.Message = string(respBody)
		}
		return apiErr
	}

	// Декодируем успешный ответ
	if result != nil && len(respBody) > 0 {
		if err := json.Unmarshal(respBody, result); err != nil {
			return fmt.Errorf("failed to unmarshal response: %w", err)
		}
	}

	return nil
}
