package postgresrepo

import (
	"context"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/kirinyoku/cineseat/internal/domain"
	"github.com/kirinyoku/cineseat/internal/repository"
)

type CinemaRepo struct {
	pool *pgxpool.Pool
	db   DB
}

func (r *CinemaRepo) With(db DB) *CinemaRepo {
	cp := *r
	cp.db = db
	return &cp
}

func (r *CinemaRepo) handle() DB {
	if r.db != nil {
		return r.db
	}
	return r.pool
}

// Create inserts a cinema and returns the store-assigned identity.
//
// Returns:
//   - error: repository.ErrConflict if the external cinema id is taken.
//   - error: repository.ErrNoIdentity if the insert returned no usable id.
func (r *CinemaRepo) Create(ctx context.Context, c domain.Cinema) (int64, error) {
	const op = "postgresrepo.CinemaRepo.Create"

	db := r.handle()

	var id int64
	if err := db.QueryRow(ctx,
		`INSERT INTO cinemas(cinema_id, cinema_name, address, total_seats, each_row_capacity)
		 VALUES ($1, $2, $3, $4, $5)
		 RETURNING id`,
		c.ExternalID, c.Name, c.Address, c.TotalSeats, c.RowCapacity,
	).Scan(&id); err != nil {
		return 0, wrapDBErr(op, err)
	}

	if id <= 0 {
		return 0, wrapDBErr(op, repository.ErrNoIdentity)
	}

	return id, nil
}

// CreateSeats bulk-loads the seat map of a cinema, all unsold.
func (r *CinemaRepo) CreateSeats(
	ctx context.Context,
	cinemaID int64,
	seats []domain.SeatPosition,
) (int64, error) {
	const op = "postgresrepo.CinemaRepo.CreateSeats"

	db := r.handle()

	n, err := db.CopyFrom(ctx,
		pgx.Identifier{"seats"},
		[]string{"cinema_id", "row_num", "seat_number", "is_sold"},
		pgx.CopyFromSlice(len(seats), func(i int) ([]any, error) {
			return []any{cinemaID, seats[i].Row, seats[i].Number, false}, nil
		}),
	)
	if err != nil {
		return 0, wrapDBErr(op, err)
	}

	return n, nil
}

// GetByExternalID retrieves a cinema by its caller-supplied id.
//
// Returns:
//   - error: repository.ErrNotFound if no cinema has that id.
func (r *CinemaRepo) GetByExternalID(ctx context.Context, externalID string) (*domain.Cinema, error) {
	const op = "postgresrepo.CinemaRepo.GetByExternalID"

	db := r.handle()

	var c domain.Cinema
	err := db.QueryRow(ctx,
		`SELECT id, cinema_id, cinema_name, address, total_seats, each_row_capacity, created_at
		 FROM cinemas WHERE cinema_id = $1`,
		externalID,
	).Scan(&c.ID, &c.ExternalID, &c.Name, &c.Address, &c.TotalSeats, &c.RowCapacity, &c.CreatedAt)
	if err != nil {
		return nil, wrapDBErr(op, err)
	}

	return &c, nil
}
