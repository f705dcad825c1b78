package boltdb

import (
	"context"
	"fmt"
	"time"

	"go.etcd.io/bbolt"
)

// Имена buckets в BoltDB
var (
	bucketAuth   = []byte("auth")   // данные аутентификации
	bucketLogs   = []byte("logs")   // логи простоя по дневным корзинам
	bucketSites  = []byte("sites")  // площадки
	bucketShifts = []byte("shifts") // смены площадок
	bucketPrefs  = []byte("prefs")  // локальные настройки
)

// Storage реализует локальное хранилище клиента на BoltDB.
// Используется в гостевом режиме и для состояния, которое живет
// только на устройстве (сессия, настройки, маркер версии).
type Storage struct {
	db *bbolt.DB
}

// New создает новое хранилище BoltDB
func New(ctx context.Context, dbPath string) (*Storage, error) {
	// Открываем базу данных с таймаутом
	db, err := bbolt.Open(dbPath, 0600, &bbolt.Options{
		Timeout: 1 * time.Second,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to open bolt database: %w", err)
	}

	storage := &Storage{db: db}

	// Инициализируем buckets
	if err := storage.initBuckets(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to initialize buckets: %w", err)
	}

	return storage, nil
}

// initBuckets создает необходимые buckets, если их нет
func (s *Storage) initBuckets() error {
	return s.db.Update(func(tx *bbolt.Tx) error {
		buckets := [][]byte{bucketAuth, bucketLogs, bucketSites, bucketShifts, bucketPrefs}
		for _, name := range buckets {
			if _, err := tx.CreateBucketIfNotExists(name); err != nil {
				return fmt.Errorf("failed to create bucket %s: %w", name, err)
			}
		}
		return nil
	})
}

// Close закрывает хранилище. Повторный вызов безопасен
func (s *Storage) Close() error {
	if s.db == nil {
		return nil
	}
	if err := s.db.Close(); err != nil {
		return fmt.Errorf("failed to close bolt database: %w", err)
	}
	s.db = nil
	return nil
}
