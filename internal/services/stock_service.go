package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"stockdesk/internal/caching"
	"stockdesk/internal/metrics"
	"stockdesk/internal/models"
	"stockdesk/internal/movement"
	"stockdesk/internal/repositories"
)

// ErrSameLocation is returned for a transfer to the item's current location.
var ErrSameLocation = errors.New("destination equals current location")

// StockService is the authoritative side of item movements. It implements
// movement.Submitter and batch.Invalidator; LatestItems backs batch.ItemSource.
type StockService interface {
	SubmitEntry(ctx context.Context, target movement.EntryTarget, req movement.EntryRequest) (*models.Item, error)
	SubmitExit(ctx context.Context, itemID string, req movement.ExitRequest) error
	SubmitTransfer(ctx context.Context, itemID string, req movement.TransferRequest) error

	// Items returns every item of a variant, exited ones included, in list order.
	Items(ctx context.Context, variantID string) ([]*models.Item, error)
	// LatestItems is Items read straight from the database, for checks that
	// must not see a cached list.
	LatestItems(ctx context.Context, variantID string) ([]*models.Item, error)
	ListItems(ctx context.Context, filter models.ItemFilter) ([]*models.Item, error)
	GetItem(ctx context.Context, id string) (*models.Item, error)
	ListMovements(ctx context.Context, itemID string, limit, offset int) ([]models.Movement, error)
	VariantIDs(ctx context.Context) ([]string, error)

	Stats(ctx context.Context, variantID string) (*models.VariantStats, error)
	RefreshStats(ctx context.Context, variantID string) (*models.VariantStats, error)
	Invalidate(ctx context.Context, variantID string) error
}

type StockServiceConfig struct {
	ItemsTTL time.Duration
	StatsTTL time.Duration
}

type stockService struct {
	itemRepo     repositories.ItemRepository
	movementRepo repositories.MovementRepository
	cacheService caching.CacheService
	metrics      *metrics.Metrics
	cfg          StockServiceConfig
	logger       *zap.Logger
	now          func() time.Time
}

func NewStockService(itemRepo repositories.ItemRepository, movementRepo repositories.MovementRepository, cacheService caching.CacheService, m *metrics.Metrics, cfg StockServiceConfig, logger *zap.Logger) StockService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if cfg.ItemsTTL <= 0 {
		cfg.ItemsTTL = 5 * time.Minute
	}
	if cfg.StatsTTL <= 0 {
		cfg.StatsTTL = 15 * time.Minute
	}
	return &stockService{
		itemRepo:     itemRepo,
		movementRepo: movementRepo,
		cacheService: cacheService,
		metrics:      m,
		cfg:          cfg,
		logger:       logger,
		now:          time.Now,
	}
}

func (s *stockService) SubmitEntry(ctx context.Context, target movement.EntryTarget, req movement.EntryRequest) (*models.Item, error) {
	item, mv, err := movement.PlanEntry(target, req, s.now())
	if err != nil {
		return nil, err
	}
	err = s.itemRepo.CreateWithMovement(ctx, item, mv)
	s.observe(mv.MovementType, err)
	if err != nil {
		return nil, err
	}
	s.invalidateQuietly(ctx, item.VariantID)
	return item, nil
}

func (s *stockService) SubmitExit(ctx context.Context, itemID string, req movement.ExitRequest) error {
	item, mv, err := s.itemRepo.ApplyMovement(ctx, itemID, func(it *models.Item, now time.Time) (models.Movement, error) {
		mv, err := movement.PlanExit(it, req, now)
		if err != nil {
			return models.Movement{}, err
		}
		movement.ApplyExit(it, mv, now)
		return mv, nil
	})
	s.observe(req.ExitType.MovementType(), err)
	if err != nil {
		return err
	}
	s.logger.Info("item exited",
		zap.String("item_id", item.ID),
		zap.String("variant_id", item.VariantID),
		zap.String("reason_code", mv.ReasonCode),
		zap.String("quantity", mv.Quantity.String()),
	)
	s.invalidateQuietly(ctx, item.VariantID)
	return nil
}

func (s *stockService) SubmitTransfer(ctx context.Context, itemID string, req movement.TransferRequest) error {
	item, _, err := s.itemRepo.ApplyMovement(ctx, itemID, func(it *models.Item, now time.Time) (models.Movement, error) {
		if it.Location() == strings.TrimSpace(req.Destination) {
			return models.Movement{}, ErrSameLocation
		}
		mv, err := movement.PlanTransfer(it, req, now)
		if err != nil {
			return models.Movement{}, err
		}
		movement.ApplyTransfer(it, mv, now)
		return mv, nil
	})
	s.observe(models.MovementTransfer, err)
	if err != nil {
		return err
	}
	s.invalidateQuietly(ctx, item.VariantID)
	return nil
}

func (s *stockService) Items(ctx context.Context, variantID string) ([]*models.Item, error) {
	cached, err := s.cacheService.GetVariantItems(ctx, variantID)
	switch {
	case err != nil:
		s.cacheResult("items", "error")
		s.logger.Warn("failed to read cached items", zap.String("variant_id", variantID), zap.Error(err))
	case cached != nil:
		s.cacheResult("items", "hit")
		return cached, nil
	default:
		s.cacheResult("items", "miss")
	}

	items, err := s.itemRepo.List(ctx, models.ItemFilter{VariantID: variantID, IncludeExited: true})
	if err != nil {
		return nil, fmt.Errorf("list items for variant %s: %w", variantID, err)
	}
	if cacheErr := s.cacheService.SetVariantItems(ctx, variantID, items, s.cfg.ItemsTTL); cacheErr != nil {
		s.logger.Warn("failed to cache items", zap.String("variant_id", variantID), zap.Error(cacheErr))
	}
	return items, nil
}

func (s *stockService) LatestItems(ctx context.Context, variantID string) ([]*models.Item, error) {
	items, err := s.itemRepo.List(ctx, models.ItemFilter{VariantID: variantID, IncludeExited: true})
	if err != nil {
		return nil, fmt.Errorf("list items for variant %s: %w", variantID, err)
	}
	return items, nil
}

func (s *stockService) ListItems(ctx context.Context, filter models.ItemFilter) ([]*models.Item, error) {
	return s.itemRepo.List(ctx, filter)
}

func (s *stockService) GetItem(ctx context.Context, id string) (*models.Item, error) {
	return s.itemRepo.GetByID(ctx, id)
}

func (s *stockService) ListMovements(ctx context.Context, itemID string, limit, offset int) ([]models.Movement, error) {
	if _, err := s.itemRepo.GetByID(ctx, itemID); err != nil {
		return nil, err
	}
	return s.movementRepo.ListByItem(ctx, itemID, limit, offset)
}

func (s *stockService) VariantIDs(ctx context.Context) ([]string, error) {
	return s.itemRepo.ListVariantIDs(ctx)
}

func (s *stockService) Stats(ctx context.Context, variantID string) (*models.VariantStats, error) {
	cached, err := s.cacheService.GetVariantStats(ctx, variantID)
	if err != nil {
		s.cacheResult("stats", "error")
		s.logger.Warn("failed to read cached stats", zap.String("variant_id", variantID), zap.Error(err))
	} else if cached != nil {
		s.cacheResult("stats", "hit")
		return cached, nil
	} else {
		s.cacheResult("stats", "miss")
	}
	return s.RefreshStats(ctx, variantID)
}

// RefreshStats recomputes a variant's stats from the database and caches them.
func (s *stockService) RefreshStats(ctx context.Context, variantID string) (*models.VariantStats, error) {
	items, err := s.itemRepo.List(ctx, models.ItemFilter{VariantID: variantID, IncludeExited: true})
	if err != nil {
		return nil, fmt.Errorf("list items for variant %s: %w", variantID, err)
	}
	stats := models.ComputeVariantStats(variantID, items, s.now())
	if cacheErr := s.cacheService.SetVariantStats(ctx, stats, s.cfg.StatsTTL); cacheErr != nil {
		s.logger.Warn("failed to cache stats", zap.String("variant_id", variantID), zap.Error(cacheErr))
	}
	return stats, nil
}

// Invalidate drops everything cached for a variant.
func (s *stockService) Invalidate(ctx context.Context, variantID string) error {
	return s.cacheService.InvalidateVariant(ctx, variantID)
}

func (s *stockService) invalidateQuietly(ctx context.Context, variantID string) {
	if err := s.Invalidate(ctx, variantID); err != nil {
		s.logger.Warn("failed to invalidate cache", zap.String("variant_id", variantID), zap.Error(err))
	}
}

func (s *stockService) observe(t models.MovementType, err error) {
	if s.metrics != nil {
		s.metrics.ObserveMovement(t, err)
	}
}

func (s *stockService) cacheResult(cache, result string) {
	if s.metrics != nil {
		s.metrics.ObserveCache(cache, result)
	}
}
