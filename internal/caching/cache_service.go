package caching

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"stockdesk/internal/models"
)

const keyPrefix = "stockdesk"

type CacheService interface {
	// Variant item lists, exited items included
	GetVariantItems(ctx context.Context, variantID string) ([]*models.Item, error)
	SetVariantItems(ctx context.Context, variantID string, items []*models.Item, ttl time.Duration) error

	// Variant stats
	GetVariantStats(ctx context.Context, variantID string) (*models.VariantStats, error)
	SetVariantStats(ctx context.Context, stats *models.VariantStats, ttl time.Duration) error

	// Cache invalidation
	InvalidateVariant(ctx context.Context, variantID string) error
	InvalidateAll(ctx context.Context) error

	Ping(ctx context.Context) error
}

// ItemsKey is the key of a variant's cached item list.
func ItemsKey(variantID string) string {
	return fmt.Sprintf("%s:variant:%s:items", keyPrefix, variantID)
}

// StatsKey is the key of a variant's cached stats.
func StatsKey(variantID string) string {
	return fmt.Sprintf("%s:variant:%s:stats", keyPrefix, variantID)
}

type redisCacheService struct {
	client redis.UniversalClient
	logger *zap.Logger
}

// ParseAddr strips a redis:// or rediss:// scheme from addr.
func ParseAddr(addr string) string {
	for _, scheme := range []string{"redis://", "rediss://"} {
		if strings.HasPrefix(addr, scheme) {
			return strings.TrimPrefix(addr, scheme)
		}
	}
	return addr
}

func NewRedisCacheService(addr, password string, db int, logger *zap.Logger) CacheService {
	if logger == nil {
		logger = zap.NewNop()
	}
	parsedAddr := ParseAddr(addr)
	client := redis.NewClient(&redis.Options{
		Addr:     parsedAddr,
		Password: password,
		DB:       db,
	})

	if pingErr := client.Ping(context.Background()).Err(); pingErr != nil {
		logger.Warn("redis ping failed on initialization", zap.String("addr", parsedAddr), zap.Error(pingErr))
	} else {
		logger.Debug("redis connection established", zap.String("addr", parsedAddr))
	}
	return NewCacheServiceWithClient(client, logger)
}

func NewCacheServiceWithClient(client redis.UniversalClient, logger *zap.Logger) CacheService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &redisCacheService{client: client, logger: logger}
}

func (r *redisCacheService) getJSON(ctx context.Context, key string, dst any) (bool, error) {
	data, err := r.client.Get(ctx, key).Bytes()
	if err != nil {
		if err == redis.Nil {
			return false, nil // cache miss
		}
		return false, err
	}
	if err := json.Unmarshal(data, dst); err != nil {
		return false, err
	}
	return true, nil
}

func (r *redisCacheService) setJSON(ctx context.Context, key string, v any, ttl time.Duration) error {
	data, err := json.Marshal(v)
	if err != nil {
		return err
	}
	return r.client.Set(ctx, key, data, ttl).Err()
}

func (r *redisCacheService) GetVariantItems(ctx context.Context, variantID string) ([]*models.Item, error) {
	var items []*models.Item
	hit, err := r.getJSON(ctx, ItemsKey(variantID), &items)
	if err != nil || !hit {
		return nil, err
	}
	if items == nil {
		items = []*models.Item{}
	}
	return items, nil
}

func (r *redisCacheService) SetVariantItems(ctx context.Context, variantID string, items []*models.Item, ttl time.Duration) error {
	if items == nil {
		items = []*models.Item{}
	}
	return r.setJSON(ctx, ItemsKey(variantID), items, ttl)
}

func (r *redisCacheService) GetVariantStats(ctx context.Context, variantID string) (*models.VariantStats, error) {
	var stats models.VariantStats
	hit, err := r.getJSON(ctx, StatsKey(variantID), &stats)
	if err != nil || !hit {
		return nil, err
	}
	return &stats, nil
}

func (r *redisCacheService) SetVariantStats(ctx context.Context, stats *models.VariantStats, ttl time.Duration) error {
	return r.setJSON(ctx, StatsKey(stats.VariantID), stats, ttl)
}

func (r *redisCacheService) InvalidateVariant(ctx context.Context, variantID string) error {
	return r.client.Del(ctx, ItemsKey(variantID), StatsKey(variantID)).Err()
}

func (r *redisCacheService) InvalidateAll(ctx context.Context) error {
	iter := r.client.Scan(ctx, 0, keyPrefix+":*", 100).Iterator()
	var keys []string
	for iter.Next(ctx) {
		keys = append(keys, iter.Val())
	}
	if err := iter.Err(); err != nil {
		return err
	}
	if len(keys) > 0 {
		return r.client.Del(ctx, keys...).Err()
	}
	return nil
}

func (r *redisCacheService) Ping(ctx context.Context) error {
	return r.client.Ping(ctx).Err()
}
