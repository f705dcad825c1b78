package server

import (
	"log/slog"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/conslogger/conslogger/internal/server/handlers"
	"github.com/conslogger/conslogger/internal/server/middleware"
	"github.com/conslogger/conslogger/internal/server/storage"
)

// Storage объединяет все хранилища, которые нужны роутеру.
// *sqlite.Storage реализует весь набор.
type Storage interface {
	storage.UserStorage
	storage.TokenStorage
	storage.LogStorage
	storage.SiteStorage
	storage.ShiftStorage
	storage.SyncStorage
}

// Deps зависимости роутера
type Deps struct {
	Logger    *slog.Logger
	Storage   Storage
	JWTConfig handlers.JWTConfig
	Version   string
}

// NewRouter собирает HTTP API сервера.
// Открытые маршруты: register/login/refresh/health.
// Остальное за AuthMiddleware.
func NewRouter(deps Deps) chi.Router {
	authHandler := handlers.NewAuthHandler(deps.Logger, deps.Storage, deps.Storage, deps.JWTConfig)
	logsHandler := handlers.NewLogsHandler(deps.Logger, deps.Storage, deps.Storage, deps.Storage)
	syncHandler := handlers.NewSyncHandler(deps.Logger, deps.Storage, deps.Storage)
	healthHandler := handlers.NewHealthHandler(deps.Logger, deps.Version)

	r := chi.NewRouter()
	r.Use(middleware.RecoveryMiddleware(deps.Logger))
	r.Use(middleware.LoggingWithSkip(deps.Logger, []string{"/api/v1/health"}))

	r.Get("/api/v1/health", healthHandler.Health)

	r.Group(func(r chi.Router) {
		r.Use(middleware.RateLimitMiddleware(10, time.Minute, deps.Logger))
		r.Post("/api/v1/auth/register", authHandler.Register)
		r.Post("/api/v1/auth/login", authHandler.Login)
		r.Post("/api/v1/auth/refresh", authHandler.Refresh)
	})

	r.Group(func(r chi.Router) {
		r.Use(middleware.AuthMiddleware(deps.Logger, deps.JWTConfig))

		r.Post("/api/v1/auth/logout", authHandler.Logout)
		r.Get("/api/v1/users/me", authHandler.Me)
		r.Put("/api/v1/users/me", authHandler.UpdateMe)
		r.Get("/api/v1/users/lookup/{handle}", authHandler.Lookup)

		r.Route("/api/v1/users/{uid}", func(r chi.Router) {
			r.Get("/logs", logsHandler.GetLogs)
			r.Put("/logs/{id}", logsHandler.PutLog)
			r.Delete("/logs/{id}", logsHandler.DeleteLog)
			r.Post("/logs/bulk-delete", logsHandler.BulkDeleteLogs)

			r.Get("/sites", logsHandler.GetSites)
			r.Put("/sites/{id}", logsHandler.PutSite)
			r.Delete("/sites/{id}", logsHandler.DeleteSite)
			r.Get("/sites/{id}/shifts", logsHandler.GetShifts)
			r.Put("/shifts/{id}", logsHandler.PutShift)
			r.Delete("/shifts/{id}", logsHandler.DeleteShift)

			r.Get("/connections", syncHandler.GetConnections)
			r.Put("/connections/{pid}", syncHandler.PutConnection)
			r.Delete("/connections/{pid}", syncHandler.DeleteConnection)

			r.Post("/requests", syncHandler.CreateRequest)
			r.Get("/requests", syncHandler.GetRequests)
			r.Patch("/requests/{id}", syncHandler.UpdateRequest)

			r.Get("/changes", syncHandler.GetChanges)
		})
	})

	return r
}
