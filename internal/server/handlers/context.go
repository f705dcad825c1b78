package handlers

import "context"

// contextKey тип для ключей контекста
type contextKey string

const (
	// UserIDKey ключ для хранения user_id в контексте
	UserIDKey contextKey = "user_id"
	// HandleKey ключ для хранения handle в контексте
	HandleKey contextKey = "handle"
)

// GetUserID извлекает user_id из контекста запроса
func GetUserID(ctx context.Context) (string, bool) {
	userID, ok := ctx.Value(UserIDKey).(string)
	return userID, ok
}

// GetHandle извлекает handle из контекста запроса
func GetHandle(ctx context.Context) (string, bool) {
	handle, ok := ctx.Value(HandleKey).(string)
	return handle, ok
}
