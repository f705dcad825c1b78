package boltdb

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"

	"go.etcd.io/bbolt"

	"github.com/conslogger/conslogger/internal/client/storage"
	"github.com/conslogger/conslogger/internal/models"
)

// logKey собирает ключ лога: дневная корзина как префикс, id как хвост.
// Такой ключ позволяет выбирать корзину целиком prefix-сканом курсора.
func logKey(date, id string) []byte {
	return []byte(date + "/" + id)
}

// SaveLog создает или перезаписывает лог
func (s *Storage) SaveLog(ctx context.Context, log *models.HaltLog) error {
	return s.db.Update(func(tx *bbolt.Tx) error {
		bucket := tx.Bucket(bucketLogs)
		if bucket == nil {
			return fmt.Errorf("logs bucket not found")
		}

		data, err := json.Marshal(log)
		if err != nil {
			return fmt.Errorf("failed to marshal log: %w", err)
		}

		if err := bucket.Put(logKey(log.Date, log.ID), data); err != nil {
			return fmt.Errorf("failed to save log: %w", err)
		}

		return nil
	})
}

// GetLog возвращает лог по дате и id
func (s *Storage) GetLog(ctx context.Context, date, id string) (*models.HaltLog, error) {
	var log *models.HaltLog

	err := s.db.View(func(tx *bbolt.Tx) error {
		bucket := tx.Bucket(bucketLogs)
		if bucket == nil {
			return fmt.Errorf("logs bucket not found")
		}

		data := bucket.Get(logKey(date, id))
		if data == nil {
			return storage.ErrLogNotFound
		}

		log = &models.HaltLog{}
		if err := json.Unmarshal(data, log); err != nil {
			return fmt.Errorf("failed to unmarshal log: %w", err)
		}

		return nil
	})

	if err != nil {
		return nil, err
	}

	return log, nil
}

// GetLogsByDate возвращает все логи дневной корзины,
// отсортированные по arrival по убыванию
func (s *Storage) GetLogsByDate(ctx context.Context, date string) ([]*models.HaltLog, error) {
	logs := make([]*models.HaltLog, 0)

	err := s.db.View(func(tx *bbolt.Tx) error {
		bucket := tx.Bucket(bucketLogs)
		if bucket == nil {
			return fmt.Errorf("logs bucket not found")
		}

		prefix := []byte(date + "/")
		c := bucket.Cursor()
		for k, v := c.Seek(prefix); k != nil && bytes.HasPrefix(k, prefix); k, v = c.Next() {
			log := &models.HaltLog{}
			if err := json.Unmarshal(v, log); err != nil {
				return fmt.Errorf("failed to unmarshal log %s: %w", k, err)
			}
			logs = append(logs, log)
		}

		return nil
	})

	if err != nil {
		return nil, err
	}

	models.SortLogsByArrivalDesc(logs)
	return logs, nil
}

// DeleteLog удаляет лог
func (s *Storage) DeleteLog(ctx context.Context, date, id string) error {
	return s.db.Update(func(tx *bbolt.Tx) error {
		bucket := tx.Bucket(bucketLogs)
		if bucket == nil {
			return fmt.Errorf("logs bucket not found")
		}

		key := logKey(date, id)
		if bucket.Get(key) == nil {
			return storage.ErrLogNotFound
		}

		if err := bucket.Delete(key); err != nil {
			return fmt.Errorf("failed to delete log: %w", err)
		}

		return nil
	})
}

// BulkDeleteLogs удаляет несколько логов одной корзины за один коммит.
// Отсутствующие id пропускаются; возвращается число реально удаленных
func (s *Storage) BulkDeleteLogs(ctx context.Context, date string, ids []string) (int, error) {
	if len(ids) == 0 {
		return 0, nil
	}

	deleted := 0
	err := s.db.Update(func(tx *bbolt.Tx) error {
		bucket := tx.Bucket(bucketLogs)
		if bucket == nil {
			return fmt.Errorf("logs bucket not found")
		}

		for _, id := range ids {
			key := logKey(date, id)
			if bucket.Get(key) == nil {
				continue
			}
			if err := bucket.Delete(key); err != nil {
				return fmt.Errorf("failed to delete log %s: %w", id, err)
			}
			deleted++
		}

		return nil
	})

	if err != nil {
		return 0, err
	}

	return deleted, nil
}
