package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/conslogger/conslogger/internal/models"
	"github.com/conslogger/conslogger/internal/server/storage"
)

// CreateUser creates a new user in the storage
func (s *Storage) CreateUser(ctx context.Context, user *models.User) error {
	query := `
		INSERT INTO users (id, handle, display_name, password_hash, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?)
	`

	_, err := s.db.ExecContext(ctx, query,
		user.ID,
		user.Handle,
		user.DisplayName,
		user.PasswordHash,
		user.CreatedAt.Unix(),
		user.UpdatedAt.Unix(),
	)

	if err != nil {
		// Проверяем на duplicate handle
		if err.Error() == "UNIQUE constraint failed: users.handle" {
			return storage.ErrUserAlreadyExists
		}
		return fmt.Errorf("failed to insert user: %w", err)
	}

	return nil
}

// GetUserByHandle retrieves user by handle
func (s *Storage) GetUserByHandle(ctx context.Context, handle string) (*models.User, error) {
	return s.getUser(ctx, `
		SELECT id, handle, display_name, password_hash, created_at, updated_at
		FROM users
		WHERE handle = ?
	`, handle)
}

// GetUserByID retrieves user by ID
func (s *Storage) GetUserByID(ctx context.Context, userID string) (*models.User, error) {
	return s.getUser(ctx, `
		SELECT id, handle, display_name, password_hash, created_at, updated_at
		FROM users
		WHERE id = ?
	`, userID)
}

func (s *Storage) getUser(ctx context.Context, query, arg string) (*models.User, error) {
	user := &models.User{}
	var createdAt, updatedAt int64

	err := s.db.QueryRowContext(ctx, query, arg).Scan(
		&user.ID,
		&user.Handle,
		&user.DisplayName,
		&user.PasswordHash,
		&createdAt,
		&updatedAt,
	)

	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, storage.ErrUserNotFound
		}
		return nil, fmt.Errorf("failed to get user: %w", err)
	}

	user.CreatedAt = time.Unix(createdAt, 0)
	user.UpdatedAt = time.Unix(updatedAt, 0)

	return user, nil
}

// UpdateProfile updates the user's display name
func (s *Storage) UpdateProfile(ctx context.Context, userID, displayName string) error {
	query := `UPDATE users SET display_name = ?, updated_at = ? WHERE id = ?`

	result, err := s.db.ExecContext(ctx, query, displayName, time.Now().Unix(), userID)
	if err != nil {
		return fmt.Errorf("failed to update profile: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}

	if rows == 0 {
		return storage.ErrUserNotFound
	}

	return nil
}
