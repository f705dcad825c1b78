package boltdb

import (
	"context"
	"encoding/binary"
	"encoding/json"
	"fmt"

	"go.etcd.io/bbolt"

	"github.com/conslogger/conslogger/internal/client/storage"
	"github.com/conslogger/conslogger/internal/models"
)

// Ключи в bucket настроек
const (
	keySelectedSite = "selected_site"
	keyOnboarded    = "onboarded"
	keyLastSeenSeq  = "last_seen_seq"
	keyAppVersion   = "app_version"
)

// SaveSelectedSite кеширует выбранную площадку целиком
func (s *Storage) SaveSelectedSite(ctx context.Context, site *models.Site) error {
	return s.db.Update(func(tx *bbolt.Tx) error {
		bucket := tx.Bucket(bucketPrefs)
		if bucket == nil {
			return fmt.Errorf("prefs bucket not found")
		}

		data, err := json.Marshal(site)
		if err != nil {
			return fmt.Errorf("failed to marshal selected site: %w", err)
		}

		if err := bucket.Put([]byte(keySelectedSite), data); err != nil {
			return fmt.Errorf("failed to save selected site: %w", err)
		}

		return nil
	})
}

// GetSelectedSite возвращает закешированную выбранную площадку
func (s *Storage) GetSelectedSite(ctx context.Context) (*models.Site, error) {
	var site *models.Site

	err := s.db.View(func(tx *bbolt.Tx) error {
		bucket := tx.Bucket(bucketPrefs)
		if bucket == nil {
			return fmt.Errorf("prefs bucket not found")
		}

		data := bucket.Get([]byte(keySelectedSite))
		if data == nil {
			return storage.ErrSelectionNotFound
		}

		site = &models.Site{}
		if err := json.Unmarshal(data, site); err != nil {
			return fmt.Errorf("failed to unmarshal selected site: %w", err)
		}

		return nil
	})

	if err != nil {
		return nil, err
	}

	return site, nil
}

// ClearSelectedSite сбрасывает выбор площадки
func (s *Storage) ClearSelectedSite(ctx context.Context) error {
	return s.db.Update(func(tx *bbolt.Tx) error {
		bucket := tx.Bucket(bucketPrefs)
		if bucket == nil {
			return fmt.Errorf("prefs bucket not found")
		}
		return bucket.Delete([]byte(keySelectedSite))
	})
}

// SetOnboarded фиксирует, что пользователь прошел onboarding
func (s *Storage) SetOnboarded(ctx context.Context, done bool) error {
	return s.db.Update(func(tx *bbolt.Tx) error {
		bucket := tx.Bucket(bucketPrefs)
		if bucket == nil {
			return fmt.Errorf("prefs bucket not found")
		}

		value := []byte{0}
		if done {
			value = []byte{1}
		}
		return bucket.Put([]byte(keyOnboarded), value)
	})
}

// IsOnboarded сообщает, проходил ли пользователь onboarding
func (s *Storage) IsOnboarded(ctx context.Context) (bool, error) {
	var done bool

	err := s.db.View(func(tx *bbolt.Tx) error {
		bucket := tx.Bucket(bucketPrefs)
		if bucket == nil {
			return fmt.Errorf("prefs bucket not found")
		}

		data := bucket.Get([]byte(keyOnboarded))
		done = len(data) == 1 && data[0] == 1
		return nil
	})

	if err != nil {
		return false, err
	}

	return done, nil
}

// SaveLastSeenSeq сохраняет последний обработанный seq change feed
func (s *Storage) SaveLastSeenSeq(ctx context.Context, seq int64) error {
	return s.db.Update(func(tx *bbolt.Tx) error {
		bucket := tx.Bucket(bucketPrefs)
		if bucket == nil {
			return fmt.Errorf("prefs bucket not found")
		}

		seqBytes := make([]byte, 8)
		binary.BigEndian.PutUint64(seqBytes, uint64(seq))

		if err := bucket.Put([]byte(keyLastSeenSeq), seqBytes); err != nil {
			return fmt.Errorf("failed to save last seen seq: %w", err)
		}

		return nil
	})
}

// GetLastSeenSeq возвращает последний обработанный seq change feed.
// Возвращает 0, если ни одна дельта еще не обработана
func (s *Storage) GetLastSeenSeq(ctx context.Context) (int64, error) {
	var seq int64

	err := s.db.View(func(tx *bbolt.Tx) error {
		bucket := tx.Bucket(bucketPrefs)
		if bucket == nil {
			return fmt.Errorf("prefs bucket not found")
		}

		seqBytes := bucket.Get([]byte(keyLastSeenSeq))
		if seqBytes == nil {
			seq = 0
			return nil
		}

		seq = int64(binary.BigEndian.Uint64(seqBytes))
		return nil
	})

	if err != nil {
		return 0, fmt.Errorf("failed to get last seen seq: %w", err)
	}

	return seq, nil
}

// EnsureAppVersion сверяет маркер версии приложения с текущей.
// Смена версии один раз зачищает локальные данные: логи, площадки,
// смены и настройки. Данные аутентификации переживают зачистку.
// Первый запуск (маркера еще нет) зачистку не вызывает
func (s *Storage) EnsureAppVersion(ctx context.Context, version string) (bool, error) {
	wiped := false

	err := s.db.Update(func(tx *bbolt.Tx) error {
		prefs := tx.Bucket(bucketPrefs)
		if prefs == nil {
			return fmt.Errorf("prefs bucket not found")
		}

		stored := prefs.Get([]byte(keyAppVersion))
		if stored != nil && string(stored) == version {
			return nil
		}

		if stored != nil {
			// Версия сменилась: пересоздаем buckets с данными
			for _, name := range [][]byte{bucketLogs, bucketSites, bucketShifts} {
				if err := tx.DeleteBucket(name); err != nil {
					return fmt.Errorf("failed to drop bucket %s: %w", name, err)
				}
				if _, err := tx.CreateBucket(name); err != nil {
					return fmt.Errorf("failed to recreate bucket %s: %w", name, err)
				}
			}
			for _, key := range []string{keySelectedSite, keyOnboarded, keyLastSeenSeq} {
				if err := prefs.Delete([]byte(key)); err != nil {
					return fmt.Errorf("failed to clear pref %s: %w", key, err)
				}
			}
			wiped = true
		}

		if err := prefs.Put([]byte(keyAppVersion), []byte(version)); err != nil {
			return fmt.Errorf("failed to save app version: %w", err)
		}

		return nil
	})

	if err != nil {
		return false, err
	}

	return wiped, nil
}
