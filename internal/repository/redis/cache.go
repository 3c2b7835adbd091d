package redisrepo

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"golang.org/x/sync/singleflight"
)

// versionTTL outlives any cached availability entry, so a version that
// expires and restarts at zero cannot meet a stale entry.
const versionTTL = 24 * time.Hour

// Cache holds read projections of cinemas (the cinema record and its seat
// counts). It is never consulted when selling a seat. A Redis failure on
// read degrades to a miss, so reads keep working against Postgres alone.
type Cache struct {
	rdb *redis.Client
	sf  singleflight.Group
}

func New(client *redis.Client) *Cache {
	return &Cache{rdb: client}
}

func (c *Cache) Del(ctx context.Context, keys ...string) error {
	if len(keys) == 0 {
		return nil
	}

	return c.rdb.Del(ctx, keys...).Err()
}

// lookup decodes the entry at key into out. Undecodable entries are
// dropped and reported as a miss.
func (c *Cache) lookup(ctx context.Context, key string, out any) bool {
	b, err := c.rdb.Get(ctx, key).Bytes()
	if err != nil {
		return false
	}

	if err := json.Unmarshal(b, out); err != nil {
		_ = c.rdb.Del(ctx, key).Err()
		return false
	}

	return true
}

func (c *Cache) store(ctx context.Context, key string, val any, ttl time.Duration) error {
	b, err := json.Marshal(val)
	if err != nil {
		return err
	}

	return c.rdb.Set(ctx, key, b, ttl).Err()
}

// GetOrSetJSON returns the cached value for key or loads, stores and returns
// it. Concurrent misses for the same key share a single loader call. A nil
// cache always calls the loader. Loader errors are returned and never cached.
func GetOrSetJSON[T any](
	ctx context.Context,
	c *Cache,
	key string,
	ttl time.Duration,
	loader func(ctx context.Context) (T, error),
) (T, error) {
	if c == nil {
		return loader(ctx)
	}

	var cached T
	if c.lookup(ctx, key, &cached) {
		return cached, nil
	}

	v, err, _ := c.sf.Do(key, func() (any, error) {
		var again T
		if c.lookup(ctx, key, &again) {
			return again, nil
		}

		loaded, err := loader(ctx)
		if err != nil {
			return nil, err
		}

		// a failed write only costs the next reader a reload
		_ = c.store(ctx, key, loaded, ttl)

		return loaded, nil
	})
	if err != nil {
		var zero T
		return zero, err
	}

	out, ok := v.(T)
	if !ok {
		var zero T
		return zero, fmt.Errorf("redisrepo.GetOrSetJSON: unexpected %T for %q", v, key)
	}

	return out, nil
}

// AvailabilityKey returns the cache key for the current availability version
// of a cinema. Read the key before loading counts: a load that started before
// a sale then lands under a version nobody reads anymore. ok is false when
// the version is unknown and the cache should be bypassed.
func (c *Cache) AvailabilityKey(ctx context.Context, externalID string) (key string, ok bool) {
	if c == nil {
		return "", false
	}

	v, err := c.rdb.Get(ctx, KeyCinemaAvailabilityVersion(externalID)).Int64()
	switch {
	case errors.Is(err, redis.Nil):
		v = 0
	case err != nil:
		return "", false
	}

	return KeyCinemaAvailability(externalID, v), true
}

// InvalidateCinema drops every cached projection of a cinema. Call it after
// any committed change to the cinema's seats.
func (c *Cache) InvalidateCinema(ctx context.Context, externalID string) error {
	if c == nil {
		return nil
	}

	verKey := KeyCinemaAvailabilityVersion(externalID)

	_, err := c.rdb.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.Incr(ctx, verKey)
		pipe.Expire(ctx, verKey, versionTTL)
		pipe.Del(ctx, KeyCinema(externalID))
		return nil
	})

	return err
}
