package purchase

import (
	"errors"
	"fmt"
	"time"
)

var (
	ErrSeatUnavailable = errors.New("seat not available or already sold")
	ErrNoAdjacentSeats = errors.New("no two consecutive seats available")
	ErrRateLimited     = errors.New("rate limited")
)

// RateLimitedError carries how long the caller should wait before retrying.
type RateLimitedError struct {
	RetryAfter time.Duration
}

func (e RateLimitedError) Error() string {
	return fmt.Sprintf("rate limited, retry in %s", e.RetryAfter)
}

func (e RateLimitedError) Is(target error) bool {
	return target == ErrRateLimited
}
