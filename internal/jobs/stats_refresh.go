package jobs

import (
	"context"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"stockdesk/internal/models"
)

// StatsSource is the part of the stock service the refresh needs.
type StatsSource interface {
	VariantIDs(ctx context.Context) ([]string, error)
	RefreshStats(ctx context.Context, variantID string) (*models.VariantStats, error)
}

type StatsRefreshResult struct {
	VariantsProcessed int
	VariantsFailed    int
	LastRefreshAt     time.Time
}

type StatsRefreshService struct {
	source      StatsSource
	concurrency int
	logger      *zap.Logger
}

func NewStatsRefreshService(source StatsSource, concurrency int, logger *zap.Logger) *StatsRefreshService {
	if concurrency <= 0 {
		concurrency = 5
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &StatsRefreshService{source: source, concurrency: concurrency, logger: logger}
}

// RefreshAll recomputes and caches stats for every variant that has items.
// A failing variant is logged and counted; the others still refresh.
func (s *StatsRefreshService) RefreshAll(ctx context.Context) (*StatsRefreshResult, error) {
	ids, err := s.source.VariantIDs(ctx)
	if err != nil {
		s.logger.Error("failed to list variants for stats refresh", zap.Error(err))
		return nil, err
	}

	failed := make([]bool, len(ids))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(s.concurrency)
	for i, id := range ids {
		g.Go(func() error {
			if _, err := s.source.RefreshStats(gctx, id); err != nil {
				s.logger.Warn("failed to refresh variant stats", zap.String("variant_id", id), zap.Error(err))
				failed[i] = true
			}
			return nil
		})
	}
	_ = g.Wait()

	result := &StatsRefreshResult{LastRefreshAt: time.Now()}
	for _, f := range failed {
		if f {
			result.VariantsFailed++
		} else {
			result.VariantsProcessed++
		}
	}
	return result, nil
}

// ScheduledRefresh is the task body run by the scheduler.
func (s *StatsRefreshService) ScheduledRefresh(ctx context.Context) error {
	start := time.Now()
	result, err := s.RefreshAll(ctx)
	if err != nil {
		return err
	}
	s.logger.Info("variant stats refreshed",
		zap.Int("processed", result.VariantsProcessed),
		zap.Int("failed", result.VariantsFailed),
		zap.Duration("elapsed", time.Since(start)),
	)
	return nil
}
