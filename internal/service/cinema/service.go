package cinema

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/kirinyoku/cineseat/internal/domain"
	"github.com/kirinyoku/cineseat/internal/repository"
	postgresrepo "github.com/kirinyoku/cineseat/internal/repository/postgres"
	redisrepo "github.com/kirinyoku/cineseat/internal/repository/redis"
	"github.com/kirinyoku/cineseat/internal/uow"
)

// A racing insert of the same cinema id must surface as a unique violation.
// At SERIALIZABLE it may be reported as a serialization failure instead.
var createTxOpts = &pgx.TxOptions{
	IsoLevel:   pgx.ReadCommitted,
	AccessMode: pgx.ReadWrite,
}

type Config struct {
	CinemaTTL       time.Duration
	AvailabilityTTL time.Duration
}

type CreateInput struct {
	Name        string
	ExternalID  string
	Address     string
	TotalSeats  int
	RowCapacity int
}

type Service struct {
	store *postgresrepo.Store
	cache *redisrepo.Cache
	uow   *uow.UoW
	cfg   Config
}

func New(store *postgresrepo.Store, cache *redisrepo.Cache, cfg Config) *Service {
	if cfg.CinemaTTL <= 0 {
		cfg.CinemaTTL = 10 * time.Minute
	}

	if cfg.AvailabilityTTL <= 0 {
		cfg.AvailabilityTTL = 15 * time.Second
	}

	return &Service{
		store: store,
		cache: cache,
		uow:   uow.NewUoW(store),
		cfg:   cfg,
	}
}

// Create registers a cinema together with its full seat map in one
// transaction. Either the cinema and all of its seats exist afterwards, or
// nothing was written.
//
// Parameters:
//   - ctx: request-scoped context.
//   - in: cinema attributes; every field is required.
//
// Returns:
//   - *domain.Cinema: the created cinema with its internal ID.
//   - error: cinema.ErrInvalidArgument if a field is missing.
//   - error: cinema.ErrDuplicateCinema if the external ID is taken.
//   - error: cinema.ErrIntegrity if the insert produced no identity.
func (s *Service) Create(ctx context.Context, in CreateInput) (*domain.Cinema, error) {
	const op = "service.cinema.Create"

	if err := in.validate(); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	layout, err := domain.GenerateSeatMap(in.TotalSeats, in.RowCapacity)
	if err != nil {
		return nil, fmt.Errorf("%s: %w: %w", op, ErrInvalidArgument, err)
	}

	c := domain.Cinema{
		ExternalID:  in.ExternalID,
		Name:        in.Name,
		Address:     in.Address,
		TotalSeats:  in.TotalSeats,
		RowCapacity: in.RowCapacity,
	}

	err = s.uow.DoWithOpts(ctx, createTxOpts, func(ctx context.Context, tx postgresrepo.DB, after func(uow.AfterCommit)) error {
		cinemas := s.store.Cinemas().With(tx)

		id, err := cinemas.Create(ctx, c)
		if err != nil {
			switch {
			case errors.Is(err, repository.ErrConflict):
				return ErrDuplicateCinema
			case errors.Is(err, repository.ErrNoIdentity):
				return ErrIntegrity
			}
			return err
		}

		c.ID = id

		if _, err := cinemas.CreateSeats(ctx, id, layout); err != nil {
			return err
		}

		after(func(ctx context.Context) {
			_ = s.cache.InvalidateCinema(ctx, c.ExternalID)
		})

		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	return &c, nil
}

// Get returns a cinema by its external ID. Cinemas never change after
// creation, so the record is cached.
func (s *Service) Get(ctx context.Context, externalID string) (*domain.Cinema, error) {
	const op = "service.cinema.Get"

	c, err := redisrepo.GetOrSetJSON(
		ctx,
		s.cache,
		redisrepo.KeyCinema(externalID),
		s.cfg.CinemaTTL,
		func(ctx context.Context) (domain.Cinema, error) {
			return s.lookup(ctx, externalID)
		},
	)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	return &c, nil
}

// ListSeats returns the seat map of a cinema ordered by row and seat number.
// With onlyAvailable set, sold seats are left out.
func (s *Service) ListSeats(ctx context.Context, externalID string, onlyAvailable bool) ([]domain.Seat, error) {
	const op = "service.cinema.ListSeats"

	c, err := s.Get(ctx, externalID)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	seats, err := s.store.Seats().ListByCinema(ctx, c.ID, onlyAvailable)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	return seats, nil
}

// Availability returns sold and unsold seat counts. The counts are cached
// briefly under a version that every committed purchase bumps.
func (s *Service) Availability(ctx context.Context, externalID string) (*domain.SeatCounts, error) {
	const op = "service.cinema.Availability"

	load := func(ctx context.Context) (domain.SeatCounts, error) {
		c, err := s.lookup(ctx, externalID)
		if err != nil {
			return domain.SeatCounts{}, err
		}

		sc, err := s.store.Seats().CountsByStatus(ctx, c.ID)
		if err != nil {
			return domain.SeatCounts{}, err
		}

		return *sc, nil
	}

	var (
		counts domain.SeatCounts
		err    error
	)
	if key, ok := s.cache.AvailabilityKey(ctx, externalID); ok {
		counts, err = redisrepo.GetOrSetJSON(ctx, s.cache, key, s.cfg.AvailabilityTTL, load)
	} else {
		counts, err = load(ctx)
	}
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	return &counts, nil
}

func (s *Service) lookup(ctx context.Context, externalID string) (domain.Cinema, error) {
	c, err := s.store.Cinemas().GetByExternalID(ctx, externalID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return domain.Cinema{}, ErrCinemaNotFound
		}
		return domain.Cinema{}, err
	}

	return *c, nil
}

func (in CreateInput) validate() error {
	var missing []string

	if strings.TrimSpace(in.Name) == "" {
		missing = append(missing, "cinemaName")
	}
	if strings.TrimSpace(in.ExternalID) == "" {
		missing = append(missing, "cinemaId")
	}
	if strings.TrimSpace(in.Address) == "" {
		missing = append(missing, "address")
	}
	if in.TotalSeats <= 0 {
		missing = append(missing, "totalSeats")
	}
	if in.RowCapacity <= 0 {
		missing = append(missing, "eachRowCapacity")
	}

	if len(missing) > 0 {
		return fmt.Errorf("%w: %s", ErrInvalidArgument, strings.Join(missing, ", "))
	}

	return nil
}
