package storage

import "errors"

var (
	// ErrAuthNotFound возвращается, когда нет сохраненных данных аутентификации
	ErrAuthNotFound = errors.New("auth data not found")

	// ErrLogNotFound возвращается, когда лог не найден в локальном хранилище
	ErrLogNotFound = errors.New("log not found")

	// ErrSiteNotFound возвращается, когда площадка не найдена
	ErrSiteNotFound = errors.New("site not found")

	// ErrShiftNotFound возвращается, когда смена не найдена
	ErrShiftNotFound = errors.New("shift not found")

	// ErrSelectionNotFound возвращается, когда выбранная площадка не сохранена
	ErrSelectionNotFound = errors.New("site selection not found")

	// ErrStorageClosed возвращается при попытке использовать закрытое хранилище
	ErrStorageClosed = errors.New("storage is closed")
)
