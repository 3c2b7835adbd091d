package redisrepo

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

// luaAdmit keeps one sorted-set member per admitted attempt, scored by its
// time in ms. Rejected attempts are not recorded, so a client that keeps
// retrying is admitted again as soon as its oldest attempt ages out.
//
// KEYS[1] bucket; ARGV: now_ms, window_ms, limit, member.
// Returns {admitted 0|1, attempts in window, retry_after_ms}.
const luaAdmit = `
local bucket = KEYS[1]
local now = tonumber(ARGV[1])
local window = tonumber(ARGV[2])
local limit = tonumber(ARGV[3])

redis.call('ZREMRANGEBYSCORE', bucket, '-inf', now - window)

local attempts = redis.call('ZCARD', bucket)
if attempts >= limit then
  local oldest = redis.call('ZRANGE', bucket, 0, 0, 'WITHSCORES')
  local retry = window
  if oldest[2] then
    retry = tonumber(oldest[2]) + window - now
  end
  if retry < 1 then retry = 1 end
  return {0, attempts, retry}
end

redis.call('ZADD', bucket, now, ARGV[4])
redis.call('PEXPIRE', bucket, window)
return {1, attempts + 1, 0}
`

// SlidingWindowLimiter caps purchase attempts per client within a rolling
// window. Its state lives in Redis so the limit holds across instances.
// A limit <= 0 admits everything.
type SlidingWindowLimiter struct {
	rdb    *redis.Client
	scope  string
	limit  int
	window time.Duration
	script *redis.Script
}

func NewSlidingWindowLimiter(
	rdb *redis.Client,
	scope string,
	limit int,
	window time.Duration,
) *SlidingWindowLimiter {
	return &SlidingWindowLimiter{
		rdb:    rdb,
		scope:  scope,
		limit:  limit,
		window: window,
		script: redis.NewScript(luaAdmit),
	}
}

// Allow admits one attempt for client and reports whether it fits the
// limit. When it does not, retryAfter tells when the oldest admitted
// attempt leaves the window.
func (l *SlidingWindowLimiter) Allow(ctx context.Context, client string) (allowed bool, current int64, retryAfter time.Duration, err error) {
	const op = "redisrepo.SlidingWindowLimiter.Allow"

	if l.limit <= 0 || l.window <= 0 {
		return true, 0, 0, nil
	}

	res, err := l.script.Run(ctx, l.rdb,
		[]string{KeyRateLimit(l.scope, client)},
		time.Now().UnixMilli(), l.window.Milliseconds(), l.limit, uuid.NewString(),
	).Int64Slice()
	if err != nil {
		return false, 0, 0, fmt.Errorf("%s: %w", op, err)
	}
	if len(res) != 3 {
		return false, 0, 0, fmt.Errorf("%s: unexpected script reply %v", op, res)
	}

	return res[0] == 1, res[1], time.Duration(res[2]) * time.Millisecond, nil
}
