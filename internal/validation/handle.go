package validation

import (
	"fmt"
	"regexp"
)

// HandlePattern определяет допустимый формат handle
// Латинские буквы (a-z, A-Z), цифры (0-9), точка и нижнее подчеркивание
// Длина: 3-32 символа
var HandlePattern = regexp.MustCompile(`^[a-zA-Z0-9._]{3,32}$`)

const (
	// MinHandleLen минимальная длина handle
	MinHandleLen = 3
	// MaxHandleLen максимальная длина handle
	MaxHandleLen = 32
)

// ValidateHandle проверяет, что handle соответствует требованиям
func ValidateHandle(handle string) error {
	if handle == "" {
		return fmt.Errorf("handle cannot be empty")
	}

	if len(handle) < MinHandleLen {
		return fmt.Errorf("handle must be at least %d characters long", MinHandleLen)
	}

	if len(handle) > MaxHandleLen {
		return fmt.Errorf("handle must not exceed %d characters", MaxHandleLen)
	}

	if !HandlePattern.MatchString(handle) {
		return fmt.Errorf("handle can only contain letters (a-z, A-Z), numbers (0-9), dots (.) and underscores (_)")
	}

	return nil
}

// ValidatePassword проверяет минимальные требования к паролю
// Минимум 8 символов
func ValidatePassword(password string) error {
	const minPasswordLen = 8

	if password == "" {
		return fmt.Errorf("password cannot be empty")
	}

	if len(password) < minPasswordLen {
		return fmt.Errorf("password must be at least %d characters long", minPasswordLen)
	}

	return nil
}
