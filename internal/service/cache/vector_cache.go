// Package cache holds the hot read path for the latest sealed vector per
// asset: a small in-process TTL layer in front of an optional Redis layer.
package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/MetaStark/vision-IoS-sub013/internal/domain/models"
)

const keyPrefix = "vision:latest:"

// VectorCache caches the most recent sealed StateVector per asset. Entries
// are written on publish and read by the current-state endpoint; the store
// remains the source of truth on a miss.
type VectorCache struct {
	ttl time.Duration
	rdb *redis.Client // nil disables the redis layer

	mu  sync.RWMutex
	mem map[string]memEntry
}

type memEntry struct {
	v   *models.StateVector
	exp time.Time
}

func NewVectorCache(ttl time.Duration, rdb *redis.Client) *VectorCache {
	if ttl <= 0 {
		ttl = 15 * time.Second
	}
	return &VectorCache{ttl: ttl, rdb: rdb, mem: make(map[string]memEntry)}
}

// SetLatest stores the vector in both layers. The vector is immutable, so
// the memory layer keeps the pointer as-is.
func (c *VectorCache) SetLatest(ctx context.Context, v *models.StateVector) error {
	c.mu.Lock()
	c.mem[v.AssetID] = memEntry{v: v, exp: time.Now().Add(c.ttl)}
	c.mu.Unlock()

	if c.rdb == nil {
		return nil
	}
	raw, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("marshal vector: %w", err)
	}
	if err := c.rdb.Set(ctx, keyPrefix+v.AssetID, raw, c.ttl).Err(); err != nil {
		return fmt.Errorf("redis set: %w", err)
	}
	return nil
}

// GetLatest returns the cached vector for the asset, checking memory first.
func (c *VectorCache) GetLatest(ctx context.Context, assetID string) (*models.StateVector, bool, error) {
	c.mu.RLock()
	e, ok := c.mem[assetID]
	c.mu.RUnlock()
	if ok && time.Now().Before(e.exp) {
		return e.v, true, nil
	}

	if c.rdb == nil {
		return nil, false, nil
	}
	raw, err := c.rdb.Get(ctx, keyPrefix+assetID).Bytes()
	if err != nil {
		if err == redis.Nil {
			return nil, false, nil
		}
		return nil, false, fmt.Errorf("redis get: %w", err)
	}
	var v models.StateVector
	if err := json.Unmarshal(raw, &v); err != nil {
		return nil, false, fmt.Errorf("decode cached vector: %w", err)
	}
	c.mu.Lock()
	c.mem[assetID] = memEntry{v: &v, exp: time.Now().Add(c.ttl)}
	c.mu.Unlock()
	return &v, true, nil
}
