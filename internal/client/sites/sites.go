package sites

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/conslogger/conslogger/internal/client/storage"
	"github.com/conslogger/conslogger/internal/models"
)

// ErrSiteNotFound возвращается, когда площадка не найдена в реестре
var ErrSiteNotFound = errors.New("site not found")

// Service реестр площадок пользователя.
// Держит два инварианта: ровно одна площадка с флагом default и
// валидность закешированного выбора (выбор всегда указывает на
// существующую площадку либо отсутствует).
type Service struct {
	logger *slog.Logger
	store  storage.SiteStore
	prefs  storage.PrefsStorage
}

// NewService создает реестр площадок
func NewService(logger *slog.Logger, store storage.SiteStore, prefs storage.PrefsStorage) *Service {
	return &Service{
		logger: logger,
		store:  store,
		prefs:  prefs,
	}
}

// EnsureDefault гарантирует существование площадки по умолчанию.
// При нуле площадок создается sentinel default-site / "Main Site".
// Возвращает актуальный список площадок
func (s *Service) EnsureDefault(ctx context.Context) ([]*models.Site, error) {
	sites, err := s.store.GetSites(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to load sites: %w", err)
	}

	if len(sites) == 0 {
		def := &models.Site{
			ID:        models.DefaultSiteID,
			Name:      models.DefaultSiteName,
			CreatedAt: time.Now().UnixMilli(),
			IsDefault: true,
		}
		if err := s.store.SaveSite(ctx, def); err != nil {
			return nil, fmt.Errorf("failed to bootstrap default site: %w", err)
		}
		s.logger.InfoContext(ctx, "default site created", slog.String("site_id", def.ID))
		sites = []*models.Site{def}
	}

	return sites, nil
}

// List возвращает все площадки пользователя
func (s *Service) List(ctx context.Context) ([]*models.Site, error) {
	return s.store.GetSites(ctx)
}

// Get возвращает площадку по id
func (s *Service) Get(ctx context.Context, id string) (*models.Site, error) {
	sites, err := s.store.GetSites(ctx)
	if err != nil {
		return nil, err
	}
	for _, site := range sites {
		if site.ID == id {
			return site, nil
		}
	}
	return nil, ErrSiteNotFound
}

// Create добавляет новую площадку
func (s *Service) Create(ctx context.Context, name, location string) (*models.Site, error) {
	if name == "" {
		return nil, fmt.Errorf("site name is required")
	}

	site := &models.Site{
		ID:        uuid.New().String(),
		Name:      name,
		Location:  location,
		CreatedAt: time.Now().UnixMilli(),
	}
	if err := s.store.SaveSite(ctx, site); err != nil {
		return nil, fmt.Errorf("failed to save site: %w", err)
	}
	return site, nil
}

// Delete удаляет площадку и чинит оба инварианта:
// при удалении default-флаг переходит к старейшей из оставшихся,
// выбор откатывается на любую оставшуюся площадку либо сбрасывается
func (s *Service) Delete(ctx context.Context, id string) error {
	site, err := s.Get(ctx, id)
	if err != nil {
		return err
	}

	if err := s.store.DeleteSite(ctx, id); err != nil {
		return fmt.Errorf("failed to delete site: %w", err)
	}

	remaining, err := s.store.GetSites(ctx)
	if err != nil {
		return fmt.Errorf("failed to reload sites: %w", err)
	}

	if site.IsDefault && len(remaining) > 0 {
		promoted := remaining[0]
		promoted.IsDefault = true
		if err := s.store.SaveSite(ctx, promoted); err != nil {
			return fmt.Errorf("failed to promote default site: %w", err)
		}
		s.logger.InfoContext(ctx, "default flag moved",
			slog.String("from", id),
			slog.String("to", promoted.ID),
		)
	}

	selected, err := s.prefs.GetSelectedSite(ctx)
	if err != nil {
		if errors.Is(err, storage.ErrSelectionNotFound) {
			return nil
		}
		return fmt.Errorf("failed to read selection: %w", err)
	}

	if selected.ID != id {
		return nil
	}

	// Выбранная площадка удалена: откатываемся на оставшуюся
	if len(remaining) > 0 {
		if err := s.prefs.SaveSelectedSite(ctx, remaining[0]); err != nil {
			return fmt.Errorf("failed to move selection: %w", err)
		}
		s.logger.InfoContext(ctx, "selection moved after site deletion",
			slog.String("site_id", remaining[0].ID))
		return nil
	}

	if err := s.prefs.ClearSelectedSite(ctx); err != nil {
		return fmt.Errorf("failed to clear selection: %w", err)
	}
	return nil
}

// Select делает площадку текущей
func (s *Service) Select(ctx context.Context, id string) (*models.Site, error) {
	site, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := s.prefs.SaveSelectedSite(ctx, site); err != nil {
		return nil, fmt.Errorf("failed to save selection: %w", err)
	}
	return site, nil
}

// Selected возвращает текущую площадку.
// Если выбор не сделан или указывает на исчезнувшую площадку,
// выбирается площадка по умолчанию (или старейшая)
func (s *Service) Selected(ctx context.Context) (*models.Site, error) {
	cached, err := s.prefs.GetSelectedSite(ctx)
	if err != nil && !errors.Is(err, storage.ErrSelectionNotFound) {
		return nil, fmt.Errorf("failed to read selection: %w", err)
	}

	sites, err := s.EnsureDefault(ctx)
	if err != nil {
		return nil, err
	}

	if cached != nil {
		for _, site := range sites {
			if site.ID == cached.ID {
				return site, nil
			}
		}
		s.logger.WarnContext(ctx, "cached selection points to missing site",
			slog.String("site_id", cached.ID))
	}

	// Выбора нет: берем default
	fallback := sites[0]
	for _, site := range sites {
		if site.IsDefault {
			fallback = site
			break
		}
	}
	if err := s.prefs.SaveSelectedSite(ctx, fallback); err != nil {
		return nil, fmt.Errorf("failed to save selection: %w", err)
	}
	return fallback, nil
}
