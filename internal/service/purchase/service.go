package purchase

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/kirinyoku/cineseat/internal/domain"
	"github.com/kirinyoku/cineseat/internal/metrics"
	"github.com/kirinyoku/cineseat/internal/repository"
	postgresrepo "github.com/kirinyoku/cineseat/internal/repository/postgres"
	redisrepo "github.com/kirinyoku/cineseat/internal/repository/redis"
	"github.com/kirinyoku/cineseat/internal/uow"
)

// Purchases run at READ COMMITTED: a buyer queued on a seat lock re-reads the
// row once the holder commits and finds it sold, instead of failing with a
// serialization error.
var purchaseTxOpts = &pgx.TxOptions{
	IsoLevel:   pgx.ReadCommitted,
	AccessMode: pgx.ReadWrite,
}

// Publisher is notified after seats have been sold and committed.
type Publisher interface {
	PublishSeatsSold(ctx context.Context, ev domain.SeatsSold) error
}

type Config struct {
	// Timeout bounds a purchase transaction including lock wait.
	Timeout time.Duration
	Logger  *slog.Logger
}

type Service struct {
	store      *postgresrepo.Store
	cache      *redisrepo.Cache
	limiter    *redisrepo.SlidingWindowLimiter
	metrics    *metrics.Metrics
	publishers []Publisher
	uow        *uow.UoW
	cfg        Config
}

func New(
	store *postgresrepo.Store,
	cache *redisrepo.Cache,
	limiter *redisrepo.SlidingWindowLimiter,
	m *metrics.Metrics,
	cfg Config,
	publishers ...Publisher,
) *Service {
	if cfg.Timeout <= 0 {
		cfg.Timeout = 5 * time.Second
	}

	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}

	return &Service{
		store:      store,
		cache:      cache,
		limiter:    limiter,
		metrics:    m,
		publishers: publishers,
		uow:        uow.NewUoW(store),
		cfg:        cfg,
	}
}

// PurchaseSeat sells one seat of a cinema.
//
// The seat row is locked for the duration of the transaction, so concurrent
// buyers of the same seat serialize and exactly one of them succeeds. Buyers
// of other seats are not blocked.
//
// Parameters:
//   - ctx: request-scoped context.
//   - externalID: caller-supplied cinema id.
//   - seatNumber: seat number within the cinema.
//   - rlKey: rate-limit bucket of the caller; empty disables limiting.
//
// Returns:
//   - int64: internal ID of the sold seat.
//   - error: purchase.ErrSeatUnavailable if the seat does not exist, belongs
//     to another cinema or is already sold.
//   - error: purchase.ErrRateLimited if the caller exceeded its budget.
func (s *Service) PurchaseSeat(
	ctx context.Context,
	externalID string,
	seatNumber int,
	rlKey string,
) (int64, error) {
	const op = "service.purchase.PurchaseSeat"

	start := time.Now()

	if err := s.allow(ctx, rlKey); err != nil {
		s.observe(metrics.KindSingle, start, err, 0)
		return 0, fmt.Errorf("%s: %w", op, err)
	}

	if seatNumber <= 0 {
		s.observe(metrics.KindSingle, start, ErrSeatUnavailable, 0)
		return 0, fmt.Errorf("%s: %w", op, ErrSeatUnavailable)
	}

	ctx, cancel := context.WithTimeout(ctx, s.cfg.Timeout)
	defer cancel()

	var sold domain.Seat

	err := s.uow.DoWithOpts(ctx, purchaseTxOpts, func(
		ctx context.Context,
		tx postgresrepo.DB,
		after func(uow.AfterCommit),
	) error {
		seats := s.store.Seats().With(tx)

		seat, err := seats.LockAvailableSeat(ctx, externalID, seatNumber)
		if err != nil {
			return err
		}

		n, err := seats.MarkSold(ctx, []int64{seat.ID})
		if err != nil {
			return err
		}
		if n != 1 {
			return ErrSeatUnavailable
		}

		seat.Sold = true
		sold = seat

		after(func(ctx context.Context) {
			s.notify(ctx, externalID, sold)
		})

		return nil
	})
	if err != nil {
		err = unavailable(err, ErrSeatUnavailable)
		s.observe(metrics.KindSingle, start, err, 0)
		return 0, fmt.Errorf("%s: %w", op, err)
	}

	s.observe(metrics.KindSingle, start, nil, 1)

	return sold.ID, nil
}

// PurchasePair sells two unsold seats that sit next to each other in the
// same row. When several pairs qualify, the one in the lowest row with the
// lowest seat number is taken.
//
// Returns:
//   - [2]domain.Seat: the two sold seats, lower seat number first.
//   - error: purchase.ErrNoAdjacentSeats if no adjacent unsold pair exists;
//     nothing is sold in that case.
//   - error: purchase.ErrRateLimited if the caller exceeded its budget.
func (s *Service) PurchasePair(ctx context.Context, externalID string, rlKey string) ([2]domain.Seat, error) {
	const op = "service.purchase.PurchasePair"

	start := time.Now()

	if err := s.allow(ctx, rlKey); err != nil {
		s.observe(metrics.KindPair, start, err, 0)
		return [2]domain.Seat{}, fmt.Errorf("%s: %w", op, err)
	}

	ctx, cancel := context.WithTimeout(ctx, s.cfg.Timeout)
	defer cancel()

	var sold [2]domain.Seat

	err := s.uow.DoWithOpts(ctx, purchaseTxOpts, func(
		ctx context.Context,
		tx postgresrepo.DB,
		after func(uow.AfterCommit),
	) error {
		seats := s.store.Seats().With(tx)

		pair, err := seats.LockAdjacentPair(ctx, externalID)
		if err != nil {
			return err
		}

		n, err := seats.MarkSold(ctx, []int64{pair[0].ID, pair[1].ID})
		if err != nil {
			return err
		}
		if n != 2 {
			return ErrNoAdjacentSeats
		}

		pair[0].Sold, pair[1].Sold = true, true
		sold = pair

		after(func(ctx context.Context) {
			s.notify(ctx, externalID, sold[:]...)
		})

		return nil
	})
	if err != nil {
		err = unavailable(err, ErrNoAdjacentSeats)
		s.observe(metrics.KindPair, start, err, 0)
		return [2]domain.Seat{}, fmt.Errorf("%s: %w", op, err)
	}

	s.observe(metrics.KindPair, start, nil, 2)

	return sold, nil
}

func (s *Service) allow(ctx context.Context, rlKey string) error {
	if s.limiter == nil || rlKey == "" {
		return nil
	}

	ok, _, retry, err := s.limiter.Allow(ctx, rlKey)
	if err != nil {
		return err
	}
	if !ok {
		return RateLimitedError{RetryAfter: retry}
	}

	return nil
}

// notify drops cached availability and announces the sale. Failures are
// logged; the sale itself is already committed.
func (s *Service) notify(ctx context.Context, externalID string, seats ...domain.Seat) {
	if err := s.cache.InvalidateCinema(ctx, externalID); err != nil {
		s.cfg.Logger.Warn("failed to invalidate cinema cache",
			"cinema_id", externalID, "error", err)
	}

	if len(s.publishers) == 0 || len(seats) == 0 {
		return
	}

	ev := domain.SeatsSold{
		CinemaID:   seats[0].CinemaID,
		ExternalID: externalID,
		SoldAt:     time.Now().UTC(),
	}
	for _, seat := range seats {
		ev.SeatIDs = append(ev.SeatIDs, seat.ID)
		ev.SeatNumbers = append(ev.SeatNumbers, seat.Number)
	}

	for _, p := range s.publishers {
		if err := p.PublishSeatsSold(ctx, ev); err != nil {
			s.cfg.Logger.Warn("failed to publish seats sold",
				"cinema_id", externalID, "seat_ids", ev.SeatIDs, "error", err)
		}
	}
}

func (s *Service) observe(kind string, start time.Time, err error, seats int) {
	outcome := metrics.OutcomeSold
	switch {
	case err == nil:
	case errors.Is(err, ErrSeatUnavailable), errors.Is(err, ErrNoAdjacentSeats):
		outcome = metrics.OutcomeUnavailable
	case errors.Is(err, ErrRateLimited):
		outcome = metrics.OutcomeRateLimited
	default:
		outcome = metrics.OutcomeError
	}

	s.metrics.ObservePurchase(kind, outcome, time.Since(start).Seconds(), seats)
}

// unavailable maps "no matching row" and lost lock races to the operation's
// business error. Those are final outcomes, not faults to retry.
func unavailable(err, target error) error {
	if errors.Is(err, repository.ErrNotFound) || errors.Is(err, repository.ErrLockConflict) {
		return target
	}
	return err
}
