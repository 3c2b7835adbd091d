package httpgin

import (
	"context"

	"github.com/kirinyoku/cineseat/internal/domain"
	redisrepo "github.com/kirinyoku/cineseat/internal/repository/redis"
	"github.com/kirinyoku/cineseat/internal/service/cinema"
)

type CinemaService interface {
	Create(ctx context.Context, in cinema.CreateInput) (*domain.Cinema, error)
	Get(ctx context.Context, externalID string) (*domain.Cinema, error)
	ListSeats(ctx context.Context, externalID string, onlyAvailable bool) ([]domain.Seat, error)
	Availability(ctx context.Context, externalID string) (*domain.SeatCounts, error)
}

type PurchaseService interface {
	PurchaseSeat(ctx context.Context, externalID string, seatNumber int, rlKey string) (int64, error)
	PurchasePair(ctx context.Context, externalID string, rlKey string) ([2]domain.Seat, error)
}

type IdempotencyStore interface {
	Claim(ctx context.Context, key string) (redisrepo.IdemState, string, error)
	SaveResult(ctx context.Context, key string, jsonPayload string) error
	Release(ctx context.Context, key string) error
}
