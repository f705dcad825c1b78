package boltdb

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"

	"go.etcd.io/bbolt"

	"github.com/conslogger/conslogger/internal/client/storage"
	"github.com/conslogger/conslogger/internal/models"
)

// SaveSite создает или перезаписывает площадку
func (s *Storage) SaveSite(ctx context.Context, site *models.Site) error {
	return s.db.Update(func(tx *bbolt.Tx) error {
		bucket := tx.Bucket(bucketSites)
		if bucket == nil {
			return fmt.Errorf("sites bucket not found")
		}

		data, err := json.Marshal(site)
		if err != nil {
			return fmt.Errorf("failed to marshal site: %w", err)
		}

		if err := bucket.Put([]byte(site.ID), data); err != nil {
			return fmt.Errorf("failed to save site: %w", err)
		}

		return nil
	})
}

// GetSites возвращает все площадки, отсортированные по времени создания
func (s *Storage) GetSites(ctx context.Context) ([]*models.Site, error) {
	sites := make([]*models.Site, 0)

	err := s.db.View(func(tx *bbolt.Tx) error {
		bucket := tx.Bucket(bucketSites)
		if bucket == nil {
			return fmt.Errorf("sites bucket not found")
		}

		return bucket.ForEach(func(k, v []byte) error {
			site := &models.Site{}
			if err := json.Unmarshal(v, site); err != nil {
				return fmt.Errorf("failed to unmarshal site %s: %w", k, err)
			}
			sites = append(sites, site)
			return nil
		})
	})

	if err != nil {
		return nil, err
	}

	sort.SliceStable(sites, func(i, j int) bool {
		return sites[i].CreatedAt < sites[j].CreatedAt
	})
	return sites, nil
}

// DeleteSite удаляет площадку
func (s *Storage) DeleteSite(ctx context.Context, id string) error {
	return s.db.Update(func(tx *bbolt.Tx) error {
		bucket := tx.Bucket(bucketSites)
		if bucket == nil {
			return fmt.Errorf("sites bucket not found")
		}

		if bucket.Get([]byte(id)) == nil {
			return storage.ErrSiteNotFound
		}

		if err := bucket.Delete([]byte(id)); err != nil {
			return fmt.Errorf("failed to delete site: %w", err)
		}

		return nil
	})
}

// SaveShift создает или перезаписывает смену
func (s *Storage) SaveShift(ctx context.Context, shift *models.Shift) error {
	return s.db.Update(func(tx *bbolt.Tx) error {
		bucket := tx.Bucket(bucketShifts)
		if bucket == nil {
			return fmt.Errorf("shifts bucket not found")
		}

		data, err := json.Marshal(shift)
		if err != nil {
			return fmt.Errorf("failed to marshal shift: %w", err)
		}

		if err := bucket.Put([]byte(shift.ID), data); err != nil {
			return fmt.Errorf("failed to save shift: %w", err)
		}

		return nil
	})
}

// GetShiftsBySite возвращает смены площадки, отсортированные по началу
func (s *Storage) GetShiftsBySite(ctx context.Context, siteID string) ([]*models.Shift, error) {
	shifts := make([]*models.Shift, 0)

	err := s.db.View(func(tx *bbolt.Tx) error {
		bucket := tx.Bucket(bucketShifts)
		if bucket == nil {
			return fmt.Errorf("shifts bucket not found")
		}

		return bucket.ForEach(func(k, v []byte) error {
			shift := &models.Shift{}
			if err := json.Unmarshal(v, shift); err != nil {
				return fmt.Errorf("failed to unmarshal shift %s: %w", k, err)
			}
			if shift.SiteID == siteID {
				shifts = append(shifts, shift)
			}
			return nil
		})
	})

	if err != nil {
		return nil, err
	}

	sort.SliceStable(shifts, func(i, j int) bool {
		return shifts[i].StartTime < shifts[j].StartTime
	})
	return shifts, nil
}

// DeleteShift удаляет смену
func (s *Storage) DeleteShift(ctx context.Context, id string) error {
	return s.db.Update(func(tx *bbolt.Tx) error {
		bucket := tx.Bucket(bucketShifts)
		if bucket == nil {
			return fmt.Errorf("shifts bucket not found")
		}

		if bucket.Get([]byte(id)) == nil {
			return storage.ErrShiftNotFound
		}

		if err := bucket.Delete([]byte(id)); err != nil {
			return fmt.Errorf("failed to delete shift: %w", err)
		}

		return nil
	})
}
