// Package cache keeps product average ratings in Redis in front of the
// feedback store.
package cache

import (
	"context"
	"fmt"
	"log/slog"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"
)

const keyPrefix = "feedback:avg:"

// DefaultTTL bounds how long an average may be served after the feedback it
// summarizes changed without an invalidation reaching the cache.
const DefaultTTL = 5 * time.Minute

// AverageSource computes product averages when they are not cached.
type AverageSource interface {
	AverageRatingsByProduct(ctx context.Context, productIDs []string) (map[string]float64, error)
}

// ProductAverages serves product average ratings from Redis, loading misses
// from the source in one batch. Redis failures degrade to the source.
type ProductAverages struct {
	client *redis.Client
	source AverageSource
	ttl    time.Duration
	logger *slog.Logger
}

// NewProductAverages creates a Redis-backed average cache.
func NewProductAverages(client *redis.Client, source AverageSource, ttl time.Duration, logger *slog.Logger) *ProductAverages {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &ProductAverages{
		client: client,
		source: source,
		ttl:    ttl,
		logger: logger,
	}
}

// AverageRatingsByProduct returns the average rating of each product. Products
// without feedback average 0.
func (c *ProductAverages) AverageRatingsByProduct(ctx context.Context, productIDs []string) (map[string]float64, error) {
	ids := dedupe(productIDs)
	averages := make(map[string]float64, len(ids))
	if len(ids) == 0 {
		return averages, nil
	}

	misses, err := c.lookup(ctx, ids, averages)
	if err != nil {
		c.logger.WarnContext(ctx, "product average cache unavailable, reading from store",
			slog.String("error", err.Error()),
		)
		misses = ids
	}
	if len(misses) == 0 {
		return averages, nil
	}

	loaded, err := c.source.AverageRatingsByProduct(ctx, misses)
	if err != nil {
		return nil, err
	}
	for _, id := range misses {
		averages[id] = loaded[id]
	}

	if err := c.store(ctx, misses, averages); err != nil {
		c.logger.WarnContext(ctx, "failed to cache product averages",
			slog.Int("count", len(misses)),
			slog.String("error", err.Error()),
		)
	}
	return averages, nil
}

// Invalidate drops the cached average of productID.
func (c *ProductAverages) Invalidate(ctx context.Context, productID string) error {
	if productID == "" {
		return nil
	}
	if err := c.client.Del(ctx, keyPrefix+productID).Err(); err != nil {
		return fmt.Errorf("redis del product average: %w", err)
	}
	return nil
}

func (c *ProductAverages) lookup(ctx context.Context, ids []string, into map[string]float64) ([]string, error) {
	keys := make([]string, len(ids))
	for i, id := range ids {
		keys[i] = keyPrefix + id
	}

	values, err := c.client.MGet(ctx, keys...).Result()
	if err != nil {
		return nil, fmt.Errorf("redis mget product averages: %w", err)
	}

	var misses []string
	for i, v := range values {
		s, ok := v.(string)
		if !ok {
			misses = append(misses, ids[i])
			continue
		}
		avg, err := strconv.ParseFloat(s, 64)
		if err != nil {
			misses = append(misses, ids[i])
			continue
		}
		into[ids[i]] = avg
	}
	return misses, nil
}

func (c *ProductAverages) store(ctx context.Context, ids []string, averages map[string]float64) error {
	_, err := c.client.Pipelined(ctx, func(pipe redis.Pipeliner) error {
		for _, id := range ids {
			pipe.Set(ctx, keyPrefix+id, strconv.FormatFloat(averages[id], 'f', -1, 64), c.ttl)
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("redis set product averages: %w", err)
	}
	return nil
}

func dedupe(ids []string) []string {
	seen := make(map[string]struct{}, len(ids))
	out := make([]string, 0, len(ids))
	for _, id := range ids {
		if id == "" {
			continue
		}
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	return out
}
