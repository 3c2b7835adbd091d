package redisrepo

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"
)

const (
	idemLockValue    = "LOCK"
	idemResultPrefix = "RES:"
)

// IdemState is the outcome of claiming an idempotency key.
type IdemState int

const (
	// IdemAcquired means the caller owns the key and must either save a
	// result or release it.
	IdemAcquired IdemState = iota
	// IdemReplay means a result was already stored for the key.
	IdemReplay
	// IdemInProgress means another request holds the key.
	IdemInProgress
)

type IdempotencyStore struct {
	rdb     *redis.Client
	ttl     time.Duration
	lockTTL time.Duration
}

func NewIdempotencyStore(rdb *redis.Client, ttl, lockTTL time.Duration) *IdempotencyStore {
	return &IdempotencyStore{rdb: rdb, ttl: ttl, lockTTL: lockTTL}
}

// Claim looks up a stored result for key and otherwise tries to lock it.
// The stored payload is returned with IdemReplay.
func (s *IdempotencyStore) Claim(ctx context.Context, key string) (IdemState, string, error) {
	if payload, ok, err := s.GetResult(ctx, key); err != nil {
		return IdemInProgress, "", err
	} else if ok {
		return IdemReplay, payload, nil
	}

	locked, err := s.rdb.SetNX(ctx, key, idemLockValue, s.lockTTL).Result()
	if err != nil {
		return IdemInProgress, "", err
	}
	if locked {
		return IdemAcquired, "", nil
	}

	// the holder may have finished between GET and SETNX
	if payload, ok, err := s.GetResult(ctx, key); err == nil && ok {
		return IdemReplay, payload, nil
	}

	return IdemInProgress, "", nil
}

func (s *IdempotencyStore) SaveResult(ctx context.Context, key string, jsonPayload string) error {
	return s.rdb.Set(ctx, key, idemResultPrefix+jsonPayload, s.ttl).Err()
}

func (s *IdempotencyStore) GetResult(ctx context.Context, key string) (string, bool, error) {
	v, err := s.rdb.Get(ctx, key).Result()
	if errors.Is(err, redis.Nil) {
		return "", false, nil
	}
	if err != nil {
		return "", false, err
	}
	if strings.HasPrefix(v, idemResultPrefix) {
		return strings.TrimPrefix(v, idemResultPrefix), true, nil
	}

	return "", false, nil
}

// Release drops the lock so the key can be retried. Stored results are kept.
func (s *IdempotencyStore) Release(ctx context.Context, key string) error {
	v, err := s.rdb.Get(ctx, key).Result()
	if errors.Is(err, redis.Nil) {
		return nil
	}
	if err != nil {
		return err
	}
	if v != idemLockValue {
		return nil
	}

	return s.rdb.Del(ctx, key).Err()
}
