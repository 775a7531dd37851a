// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

// recommendations.go provides a Valkey-backed cache for per-code
// recommendation lists. The public recommendations endpoint is read-heavy
// and its data changes only through admin actions, so cached lists are
// served until an admin write invalidates them or the TTL expires.
package cache

import (
	"context"
	"encoding/json"
	"log/slog"
	"time"

	"github.com/redis/go-redis/v9"

	"cmfstudio/internal/models"
)

const (
	// recKeyPrefix is the Valkey key prefix for cached recommendation lists.
	recKeyPrefix = "rec:"

	// DefaultRecommendationTTL is how long a cached list stays valid.
	DefaultRecommendationTTL = 5 * time.Minute
)

// RecommendationCache manages cached recommendation lists in Valkey.
type RecommendationCache struct {
	client *redis.Client
	ttl    time.Duration
}

// NewRecommendationCache creates a recommendation cache backed by the
// given Valkey client.
func NewRecommendationCache(client *redis.Client, ttl time.Duration) *RecommendationCache {
	if ttl == 0 {
		ttl = DefaultRecommendationTTL
	}
	return &RecommendationCache{client: client, ttl: ttl}
}

// Get retrieves the cached list for an access code. Cache problems are
// logged and reported as a miss; the caller falls through to the store.
func (rc *RecommendationCache) Get(ctx context.Context, code string) ([]models.RecommendedDesign, bool) {
	val, err := rc.client.Get(ctx, recKeyPrefix+code).Bytes()
	if err == redis.Nil {
		return nil, false
	}
	if err != nil {
		slog.Warn("recommendation cache get error", "code", code, "error", err)
		return nil, false
	}

	var items []models.RecommendedDesign
	if err := json.Unmarshal(val, &items); err != nil {
		slog.Warn("recommendation cache decode error", "code", code, "error", err)
		return nil, false
	}
	return items, true
}

// Set stores the list for an access code with the configured TTL.
func (rc *RecommendationCache) Set(ctx context.Context, code string, items []models.RecommendedDesign) {
	payload, err := json.Marshal(items)
	if err != nil {
		slog.Warn("recommendation cache encode error", "code", code, "error", err)
		return
	}
	if err := rc.client.Set(ctx, recKeyPrefix+code, payload, rc.ttl).Err(); err != nil {
		slog.Warn("recommendation cache set error", "code", code, "error", err)
	}
}

// Invalidate removes the cached list for one access code. Called after an
// admin creates or deletes a recommendation under that code.
func (rc *RecommendationCache) Invalidate(ctx context.Context, code string) {
	if err := rc.client.Del(ctx, recKeyPrefix+code).Err(); err != nil {
		slog.Warn("recommendation cache invalidate error", "code", code, "error", err)
	}
}

// InvalidateAll removes every cached list by scanning for the prefix.
// Used when an access code is deleted, since the cascade may touch
// recommendations the handler never saw.
func (rc *RecommendationCache) InvalidateAll(ctx context.Context) {
	var cursor uint64
	var deleted int
	for {
		keys, nextCursor, err := rc.client.Scan(ctx, cursor, recKeyPrefix+"*", 100).Result()
		if err != nil {
			slog.Warn("recommendation cache scan error", "error", err)
			return
		}
		if len(keys) > 0 {
			if err := rc.client.Del(ctx, keys...).Err(); err != nil {
				slog.Warn("recommendation cache bulk delete error", "error", err)
			}
			deleted += len(keys)
		}
		cursor = nextCursor
		if cursor == 0 {
			break
		}
	}
	if deleted > 0 {
		slog.Debug("recommendation cache cleared", "deleted", deleted)
	}
}
