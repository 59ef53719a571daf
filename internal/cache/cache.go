package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/greenhaus/plant-tracker/internal/plant"
)

const defaultTTL = time.Hour

// Series is a cached health computation for one plant and date window.
type Series struct {
	Rows     []plant.Health `json:"rows"`
	Fallback bool           `json:"fallback"`
}

// Cache wraps a Redis client and provides typed get/set/invalidate for
// computed health series. Entries expire after an hour; all of a plant's
// entries are dropped together when the plant changes.
type Cache struct {
	client *redis.Client
	ttl    time.Duration
}

// NewCache constructs a Cache with a 1-hour TTL.
func NewCache(client *redis.Client) *Cache {
	return &Cache{client: client, ttl: defaultTTL}
}

// seriesKey identifies one plant's series for one date window.
func seriesKey(plantID string, start, end plant.Date) string {
	return "health:" + plantID + ":" + start.String() + ":" + end.String()
}

// indexKey names the set of series keys cached for a plant, so
// Invalidate can drop them without scanning.
func indexKey(plantID string) string {
	return "health:" + plantID + ":index"
}

// Get retrieves a cached series. Returns nil, nil on a cache miss.
func (c *Cache) Get(ctx context.Context, plantID string, start, end plant.Date) (*Series, error) {
	val, err := c.client.Get(ctx, seriesKey(plantID, start, end)).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, nil
		}
		return nil, fmt.Errorf("cache get for plant %s: %w", plantID, err)
	}

	var s Series
	if err := json.Unmarshal([]byte(val), &s); err != nil {
		return nil, fmt.Errorf("unmarshaling cached series for plant %s: %w", plantID, err)
	}

	return &s, nil
}

// Set stores a computed series with the configured TTL and registers its
// key in the plant's index set.
func (c *Cache) Set(ctx context.Context, plantID string, start, end plant.Date, s *Series) error {
	if s == nil {
		return nil
	}

	b, err := json.Marshal(s)
	if err != nil {
		return fmt.Errorf("marshaling series for plant %s: %w", plantID, err)
	}

	key := seriesKey(plantID, start, end)
	if err := c.client.Set(ctx, key, b, c.ttl).Err(); err != nil {
		return fmt.Errorf("cache set for plant %s: %w", plantID, err)
	}

	idx := indexKey(plantID)
	if err := c.client.SAdd(ctx, idx, key).Err(); err != nil {
		return fmt.Errorf("indexing cache key for plant %s: %w", plantID, err)
	}
	if err := c.client.Expire(ctx, idx, c.ttl).Err(); err != nil {
		return fmt.Errorf("setting index TTL for plant %s: %w", plantID, err)
	}

	return nil
}

// Invalidate removes every cached series for the plant. Called when the
// plant's care expectations change or the plant is deleted.
func (c *Cache) Invalidate(ctx context.Context, plantID string) error {
	idx := indexKey(plantID)

	keys, err := c.client.SMembers(ctx, idx).Result()
	if err != nil {
		return fmt.Errorf("listing cache keys for plant %s: %w", plantID, err)
	}

	keys = append(keys, idx)
	if err := c.client.Del(ctx, keys...).Err(); err != nil {
		return fmt.Errorf("cache invalidate for plant %s: %w", plantID, err)
	}
	return nil
}
