// Package cache wraps Redis in a short-TTL read-through cache for the
// public catalog. Seat locks, sessions, and booking state are never cached
// here; the database is their sole source of truth.
package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"elitetransport-backend/internal/models"
	"elitetransport-backend/pkg/redis"
)

const catalogCacheKey = "catalog:route_groups"

// CatalogCacheService caches the assembled public catalog response.
type CatalogCacheService struct {
	redisClient *redis.Client
	ttl         time.Duration
}

func NewCatalogCacheService(redisClient *redis.Client, ttl time.Duration) *CatalogCacheService {
	return &CatalogCacheService{redisClient: redisClient, ttl: ttl}
}

// GetCachedGroups returns the cached catalog, or (nil, nil) on a cache miss.
func (s *CatalogCacheService) GetCachedGroups(ctx context.Context) ([]models.CatalogGroup, error) {
	cached, err := s.redisClient.Get(ctx, catalogCacheKey)
	if err != nil {
		if err == redis.ErrNil {
			return nil, nil
		}
		return nil, err
	}

	var groups []models.CatalogGroup
	if err := json.Unmarshal([]byte(cached), &groups); err != nil {
		return nil, fmt.Errorf("failed to unmarshal cached catalog: %w", err)
	}
	return groups, nil
}

// SetCachedGroups stores the assembled catalog for ttl.
func (s *CatalogCacheService) SetCachedGroups(ctx context.Context, groups []models.CatalogGroup) error {
	data, err := json.Marshal(groups)
	if err != nil {
		return fmt.Errorf("failed to marshal catalog for cache: %w", err)
	}
	return s.redisClient.SetJSON(ctx, catalogCacheKey, string(data), s.ttl)
}

// Invalidate drops the cached catalog, used after admin fleet mutations
// (create bus, create/end trip) so the next read rebuilds it.
func (s *CatalogCacheService) Invalidate(ctx context.Context) error {
	return s.redisClient.Delete(ctx, catalogCacheKey)
}
