package jobs

import (
	"context"
	"time"

	"go.uber.org/zap"
)

const (
	CacheFlushJobName  = "cache-flush"
	CacheFlushInterval = 24 * time.Hour
)

// Flusher drops every cached entry the service owns.
type Flusher interface {
	InvalidateAll(ctx context.Context) error
}

// CacheFlushService empties the item and stats caches. It runs daily and on
// demand through the jobs endpoint, after data was changed outside the API.
type CacheFlushService struct {
	cache  Flusher
	logger *zap.Logger
}

func NewCacheFlushService(cache Flusher, logger *zap.Logger) *CacheFlushService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &CacheFlushService{cache: cache, logger: logger}
}

// ScheduledFlush is the task body run by the scheduler.
func (s *CacheFlushService) ScheduledFlush(ctx context.Context) error {
	start := time.Now()
	if err := s.cache.InvalidateAll(ctx); err != nil {
		s.logger.Error("failed to flush cache", zap.Error(err))
		return err
	}
	s.logger.Info("cache flushed", zap.Duration("elapsed", time.Since(start)))
	return nil
}
