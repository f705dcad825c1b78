package storage

import "errors"

// Common storage errors
var (
	// ErrUserNotFound indicates that user was not found in storage
	ErrUserNotFound = errors.New("user not found")

	// ErrUserAlreadyExists indicates that user with this handle already exists
	ErrUserAlreadyExists = errors.New("user already exists")

	// ErrTokenNotFound indicates that refresh token was not found
	ErrTokenNotFound = errors.New("refresh token not found")

	// ErrLogNotFound indicates that halt log was not found
	ErrLogNotFound = errors.New("halt log not found")

	// ErrSiteNotFound indicates that site was not found
	ErrSiteNotFound = errors.New("site not found")

	// ErrShiftNotFound indicates that shift was not found
	ErrShiftNotFound = errors.New("shift not found")

	// ErrConnectionNotFound indicates that connection edge was not found
	ErrConnectionNotFound = errors.New("connection not found")

	// ErrRequestNotFound indicates that sync request was not found
	ErrRequestNotFound = errors.New("sync request not found")
)
