package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"time"

	"stocksignals/models"

	"github.com/redis/go-redis/v9"
)

// SnapshotCache holds the last known snapshot of each shop.
type SnapshotCache interface {
	// Get returns nil, nil when the shop has no cached snapshot.
	Get(ctx context.Context, shopID string) (*models.Snapshot, error)
	Put(ctx context.Context, snapshot models.Snapshot) error
}

type RedisSnapshotCache struct {
	client *redis.Client
	ttl    time.Duration
}

func NewRedisSnapshotCache(client *redis.Client, ttl time.Duration) *RedisSnapshotCache {
	return &RedisSnapshotCache{client: client, ttl: ttl}
}

func latestSnapshotKey(shopID string) string {
	return fmt.Sprintf("snapshot:latest:%s", shopID)
}

func (c *RedisSnapshotCache) Get(ctx context.Context, shopID string) (*models.Snapshot, error) {
	data, err := c.client.Get(ctx, latestSnapshotKey(shopID)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get cached snapshot: %w", err)
	}

	var snap models.Snapshot
	if err := json.Unmarshal(data, &snap); err != nil {
		return nil, fmt.Errorf("failed to unmarshal cached snapshot: %w", err)
	}
	return &snap, nil
}

func (c *RedisSnapshotCache) Put(ctx context.Context, snapshot models.Snapshot) error {
	data, err := json.Marshal(snapshot)
	if err != nil {
		return fmt.Errorf("failed to marshal snapshot: %w", err)
	}
	if err := c.client.Set(ctx, latestSnapshotKey(snapshot.ShopID), data, c.ttl).Err(); err != nil {
		return fmt.Errorf("failed to cache snapshot: %w", err)
	}
	return nil
}

// CachedSnapshotStore reads history from the backing store and falls back to
// the last cached snapshot when the store cannot be read. A fallback result
// is marked FromCache and holds at most one snapshot.
type CachedSnapshotStore struct {
	backing SnapshotStore
	cache   SnapshotCache
}

func NewCachedSnapshotStore(backing SnapshotStore, cache SnapshotCache) *CachedSnapshotStore {
	return &CachedSnapshotStore{backing: backing, cache: cache}
}

func (s *CachedSnapshotStore) History(ctx context.Context, shopID string, limit int) ([]models.Snapshot, error) {
	history, err := s.backing.History(ctx, shopID, limit)
	if err == nil {
		if len(history) > 0 {
			if cacheErr := s.cache.Put(ctx, history[0]); cacheErr != nil {
				log.Printf("[SNAPSHOT CACHE] refresh failed for shop %s: %v", shopID, cacheErr)
			}
		}
		return history, nil
	}

	cached, cacheErr := s.cache.Get(ctx, shopID)
	if cacheErr != nil {
		log.Printf("[SNAPSHOT CACHE] fallback read failed for shop %s: %v", shopID, cacheErr)
		return nil, err
	}
	if cached == nil || limit < 1 {
		return nil, err
	}
	log.Printf("[SNAPSHOT CACHE] serving cached snapshot %s for shop %s: %v", cached.ID, shopID, err)
	cached.FromCache = true
	return []models.Snapshot{*cached}, nil
}

func (s *CachedSnapshotStore) Append(ctx context.Context, snapshot models.Snapshot) error {
	if err := s.backing.Append(ctx, snapshot); err != nil {
		return err
	}
	if err := s.cache.Put(ctx, snapshot); err != nil {
		log.Printf("[SNAPSHOT CACHE] write failed for shop %s: %v", snapshot.ShopID, err)
	}
	return nil
}
