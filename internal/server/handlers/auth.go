package handlers

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"github.com/conslogger/conslogger/internal/models"
	"github.com/conslogger/conslogger/internal/server/storage"
	"github.com/conslogger/conslogger/internal/validation"
	"github.com/conslogger/conslogger/pkg/api"
)

// AuthHandler обрабатывает запросы авторизации и профилей
type AuthHandler struct {
	logger       *slog.Logger
	userStorage  storage.UserStorage
	tokenStorage storage.TokenStorage
	jwtConfig    JWTConfig
}

// NewAuthHandler создает новый handler для авторизации
func NewAuthHandler(logger *slog.Logger, userStorage storage.UserStorage, tokenStorage storage.TokenStorage, jwtConfig JWTConfig) *AuthHandler {
	return &AuthHandler{
		logger:       logger,
		userStorage:  userStorage,
		tokenStorage: tokenStorage,
		jwtConfig:    jwtConfig,
	}
}

// Register обрабатывает POST /api/v1/auth/register
// Регистрация нового пользователя
func (h *AuthHandler) Register(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var req api.RegisterRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.logger.ErrorContext(ctx, "failed to decode register request", slog.Any("error", err))
		sendError(h.logger, w, api.ErrCodeValidation, "invalid request body", http.StatusBadRequest)
		return
	}

	if err := validation.ValidateHandle(req.Handle); err != nil {
		h.logger.WarnContext(ctx, "invalid handle", slog.String("handle", req.Handle), slog.Any("error", err))
		sendError(h.logger, w, api.ErrCodeValidation, err.Error(), http.StatusBadRequest)
		return
	}

	if err := validation.ValidatePassword(req.Password); err != nil {
		sendError(h.logger, w, api.ErrCodeValidation, err.Error(), http.StatusBadRequest)
		return
	}

	displayName := strings.TrimSpace(req.DisplayName)
	if displayName == "" {
		displayName = req.Handle
	}

	passwordHash, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		h.logger.ErrorContext(ctx, "failed to hash password", slog.Any("error", err))
		sendError(h.logger, w, api.ErrCodeInternal, "internal server error", http.StatusInternalServerError)
		return
	}

	now := time.Now()
	user := &models.User{
		ID:           uuid.New().String(),
		Handle:       req.Handle,
		DisplayName:  displayName,
		PasswordHash: string(passwordHash),
		CreatedAt:    now,
		UpdatedAt:    now,
	}

	if err := h.userStorage.CreateUser(ctx, user); err != nil {
		if errors.Is(err, storage.ErrUserAlreadyExists) {
			h.logger.WarnContext(ctx, "user already exists", slog.String("handle", req.Handle))
			sendError(h.logger, w, api.ErrCodeConflict, "handle already taken", http.StatusConflict)
			return
		}
		h.logger.ErrorContext(ctx, "failed to create user", slog.Any("error", err))
		sendError(h.logger, w, api.ErrCodeInternal, "internal server error", http.StatusInternalServerError)
		return
	}

	h.logger.InfoContext(ctx, "user registered successfully",
		slog.String("handle", req.Handle),
		slog.String("user_id", user.ID))

	resp := api.RegisterResponse{
		UserID:  user.ID,
		Message: "User registered successfully",
	}

	sendJSON(h.logger, w, resp, http.StatusCreated)
}

// Login обрабатывает POST /api/v1/auth/login
// Аутентификация пользователя
func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var req api.LoginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.logger.ErrorContext(ctx, "failed to decode login request", slog.Any("error", err))
		sendError(h.logger, w, api.ErrCodeValidation, "invalid request body", http.StatusBadRequest)
		return
	}

	user, err := h.userStorage.GetUserByHandle(ctx, req.Handle)
	if err != nil {
		if errors.Is(err, storage.ErrUserNotFound) {
			h.logger.WarnContext(ctx, "login failed: user not found", slog.String("handle", req.Handle))
			sendError(h.logger, w, api.ErrCodeUnauthorized, "invalid credentials", http.StatusUnauthorized)
			return
		}
		h.logger.ErrorContext(ctx, "failed to get user", slog.Any("error", err))
		sendError(h.logger, w, api.ErrCodeInternal, "internal server error", http.StatusInternalServerError)
		return
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(req.Password)); err != nil {
		h.logger.WarnContext(ctx, "login failed: invalid password", slog.String("handle", req.Handle))
		sendError(h.logger, w, api.ErrCodeUnauthorized, "invalid credentials", http.StatusUnauthorized)
		return
	}

	resp, err := h.issueTokens(r, user)
	if err != nil {
		h.logger.ErrorContext(ctx, "failed to issue tokens", slog.Any("error", err))
		sendError(h.logger, w, api.ErrCodeInternal, "internal server error", http.StatusInternalServerError)
		return
	}

	h.logger.InfoContext(ctx, "user logged in successfully",
		slog.String("handle", req.Handle),
		slog.String("user_id", user.ID))

	sendJSON(h.logger, w, resp, http.StatusOK)
}

// Refresh обрабатывает POST /api/v1/auth/refresh
// Обновление пары токенов по refresh token
func (h *AuthHandler) Refresh(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var req api.RefreshRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		sendError(h.logger, w, api.ErrCodeValidation, "invalid request body", http.StatusBadRequest)
		return
	}
	if req.RefreshToken == "" {
		sendError(h.logger, w, api.ErrCodeUnauthorized, "refresh token is required", http.StatusUnauthorized)
		return
	}

	tokenHash := HashRefreshToken(req.RefreshToken)

	storedToken, err := h.tokenStorage.GetRefreshToken(ctx, tokenHash)
	if err != nil {
		if errors.Is(err, storage.ErrTokenNotFound) {
			h.logger.WarnContext(ctx, "refresh token not found")
			sendError(h.logger, w, api.ErrCodeUnauthorized, "invalid refresh token", http.StatusUnauthorized)
			return
		}
		h.logger.ErrorContext(ctx, "failed to get refresh token", slog.Any("error", err))
		sendError(h.logger, w, api.ErrCodeInternal, "internal server error", http.StatusInternalServerError)
		return
	}

	if time.Now().After(storedToken.ExpiresAt) {
		h.logger.WarnContext(ctx, "refresh token expired", slog.String("user_id", storedToken.UserID))
		sendError(h.logger, w, api.ErrCodeUnauthorized, "refresh token expired", http.StatusUnauthorized)
		return
	}

	user, err := h.userStorage.GetUserByID(ctx, storedToken.UserID)
	if err != nil {
		h.logger.ErrorContext(ctx, "failed to get user", slog.Any("error", err))
		sendError(h.logger, w, api.ErrCodeInternal, "internal server error", http.StatusInternalServerError)
		return
	}

	// Ротация: старый refresh token гасится до выдачи нового
	if err := h.tokenStorage.DeleteRefreshToken(ctx, tokenHash); err != nil {
		h.logger.WarnContext(ctx, "failed to delete old refresh token", slog.Any("error", err))
	}

	resp, err := h.issueTokens(r, user)
	if err != nil {
		h.logger.ErrorContext(ctx, "failed to issue tokens", slog.Any("error", err))
		sendError(h.logger, w, api.ErrCodeInternal, "internal server error", http.StatusInternalServerError)
		return
	}

	h.logger.InfoContext(ctx, "tokens refreshed successfully", slog.String("user_id", user.ID))

	sendJSON(h.logger, w, resp, http.StatusOK)
}

// Logout обрабатывает POST /api/v1/auth/logout
// Выход пользователя: гасит все refresh tokens
func (h *AuthHandler) Logout(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	userID, ok := GetUserID(ctx)
	if !ok {
		sendError(h.logger, w, api.ErrCodeUnauthorized, "unauthorized", http.StatusUnauthorized)
		return
	}

	deletedCount, err := h.tokenStorage.DeleteUserTokens(ctx, userID)
	if err != nil {
		h.logger.ErrorContext(ctx, "failed to delete user tokens", slog.Any("error", err))
		sendError(h.logger, w, api.ErrCodeInternal, "internal server error", http.StatusInternalServerError)
		return
	}

	h.logger.InfoContext(ctx, "user logged out successfully",
		slog.String("user_id", userID),
		slog.Int("tokens_deleted", deletedCount))

	w.WriteHeader(http.StatusNoContent)
}

// Me обрабатывает GET /api/v1/users/me
func (h *AuthHandler) Me(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	userID, ok := GetUserID(ctx)
	if !ok {
		sendError(h.logger, w, api.ErrCodeUnauthorized, "unauthorized", http.StatusUnauthorized)
		return
	}

	user, err := h.userStorage.GetUserByID(ctx, userID)
	if err != nil {
		h.logger.ErrorContext(ctx, "failed to get user", slog.Any("error", err))
		sendError(h.logger, w, api.ErrCodeInternal, "internal server error", http.StatusInternalServerError)
		return
	}

	sendJSON(h.logger, w, profileResponse(user), http.StatusOK)
}

// UpdateMe обрабатывает PUT /api/v1/users/me
// Изменение отображаемого имени
func (h *AuthHandler) UpdateMe(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	userID, ok := GetUserID(ctx)
	if !ok {
		sendError(h.logger, w, api.ErrCodeUnauthorized, "unauthorized", http.StatusUnauthorized)
		return
	}

	var req api.UpdateProfileRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		sendError(h.logger, w, api.ErrCodeValidation, "invalid request body", http.StatusBadRequest)
		return
	}

	displayName := strings.TrimSpace(req.DisplayName)
	if displayName == "" {
		sendError(h.logger, w, api.ErrCodeValidation, "display_name is required", http.StatusBadRequest)
		return
	}

	if err := h.userStorage.UpdateProfile(ctx, userID, displayName); err != nil {
		if errors.Is(err, storage.ErrUserNotFound) {
			sendError(h.logger, w, api.ErrCodeNotFound, "user not found", http.StatusNotFound)
			return
		}
		h.logger.ErrorContext(ctx, "failed to update profile", slog.Any("error", err))
		sendError(h.logger, w, api.ErrCodeInternal, "internal server error", http.StatusInternalServerError)
		return
	}

	user, err := h.userStorage.GetUserByID(ctx, userID)
	if err != nil {
		h.logger.ErrorContext(ctx, "failed to get user", slog.Any("error", err))
		sendError(h.logger, w, api.ErrCodeInternal, "internal server error", http.StatusInternalServerError)
		return
	}

	h.logger.InfoContext(ctx, "profile updated", slog.String("user_id", userID))

	sendJSON(h.logger, w, profileResponse(user), http.StatusOK)
}

// Lookup обрабатывает GET /api/v1/users/lookup/{handle}
// Поиск пользователя по handle перед отправкой приглашения
func (h *AuthHandler) Lookup(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	handle := chi.URLParam(r, "handle")
	if err := validation.ValidateHandle(handle); err != nil {
		sendError(h.logger, w, api.ErrCodeValidation, err.Error(), http.StatusBadRequest)
		return
	}

	user, err := h.userStorage.GetUserByHandle(ctx, handle)
	if err != nil {
		if errors.Is(err, storage.ErrUserNotFound) {
			sendError(h.logger, w, api.ErrCodeNotFound, "user not found", http.StatusNotFound)
			return
		}
		h.logger.ErrorContext(ctx, "failed to get user", slog.Any("error", err))
		sendError(h.logger, w, api.ErrCodeInternal, "internal server error", http.StatusInternalServerError)
		return
	}

	sendJSON(h.logger, w, profileResponse(user), http.StatusOK)
}

// issueTokens выдает пару access/refresh и сохраняет хеш refresh токена
func (h *AuthHandler) issueTokens(r *http.Request, user *models.User) (api.TokenResponse, error) {
	accessToken, expiresIn, err := GenerateAccessToken(h.jwtConfig, user.ID, user.Handle)
	if err != nil {
		return api.TokenResponse{}, err
	}

	refreshToken, expiresAt, err := GenerateRefreshToken(h.jwtConfig)
	if err != nil {
		return api.TokenResponse{}, err
	}

	token := &models.RefreshToken{
		ID:        uuid.New().String(),
		UserID:    user.ID,
		TokenHash: HashRefreshToken(refreshToken),
		ExpiresAt: expiresAt,
		CreatedAt: time.Now(),
	}

	if err := h.tokenStorage.SaveRefreshToken(r.Context(), token); err != nil {
		return api.TokenResponse{}, err
	}

	return api.TokenResponse{
		UserID:       user.ID,
		AccessToken:  accessToken,
		RefreshToken: refreshToken,
		ExpiresIn:    expiresIn,
	}, nil
}

func profileResponse(user *models.User) api.Profile {
	return api.Profile{
		ID:          user.ID,
		Handle:      user.Handle,
		DisplayName: user.DisplayName,
	}
}
