package postgresrepo

import (
	"context"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/kirinyoku/cineseat/internal/domain"
)

type SeatRepo struct {
	pool *pgxpool.Pool
	db   DB
}

func (r *SeatRepo) With(db DB) *SeatRepo {
	cp := *r
	cp.db = db
	return &cp
}

func (r *SeatRepo) handle() DB {
	if r.db != nil {
		return r.db
	}
	return r.pool
}

// LockAvailableSeat selects an unsold seat of a cinema by seat number and
// holds an exclusive lock on it until the surrounding transaction ends.
// Only the seat row is locked, so purchases of other seats proceed.
//
// Parameters:
//   - ctx: request-scoped context for cancellation and timeouts.
//   - externalID: caller-supplied cinema id.
//   - seatNumber: seat number within the cinema.
//
// Returns:
//   - domain.Seat: the locked seat.
//   - error: repository.ErrNotFound if the seat does not exist, belongs to
//     another cinema, or is already sold.
func (r *SeatRepo) LockAvailableSeat(
	ctx context.Context,
	externalID string,
	seatNumber int,
) (domain.Seat, error) {
	const op = "postgresrepo.SeatRepo.LockAvailableSeat"

	db := r.handle()

	var s domain.Seat
	err := db.QueryRow(ctx,
		`SELECT s.id, s.cinema_id, s.row_num, s.seat_number, s.is_sold
		 FROM seats s
		 JOIN cinemas c ON c.id = s.cinema_id
		 WHERE c.cinema_id = $1
		   AND s.seat_number = $2
		   AND NOT s.is_sold
		 LIMIT 1
		 FOR UPDATE OF s`,
		externalID, seatNumber,
	).Scan(&s.ID, &s.CinemaID, &s.Row, &s.Number, &s.Sold)
	if err != nil {
		return domain.Seat{}, wrapDBErr(op, err)
	}

	return s, nil
}

// LockAdjacentPair finds two unsold seats in the same row whose numbers
// differ by one and locks both rows. Pairs are considered by lowest row,
// then lowest seat number.
//
// Returns:
//   - [2]domain.Seat: the lower and the higher seat of the pair.
//   - error: repository.ErrNotFound if the cinema has no such pair.
func (r *SeatRepo) LockAdjacentPair(ctx context.Context, externalID string) ([2]domain.Seat, error) {
	const op = "postgresrepo.SeatRepo.LockAdjacentPair"

	db := r.handle()

	var pair [2]domain.Seat
	err := db.QueryRow(ctx,
		`SELECT s1.id, s1.cinema_id, s1.row_num, s1.seat_number, s1.is_sold,
		        s2.id, s2.cinema_id, s2.row_num, s2.seat_number, s2.is_sold
		 FROM seats s1
		 JOIN seats s2
		   ON s2.cinema_id = s1.cinema_id
		  AND s2.row_num = s1.row_num
		  AND s2.seat_number = s1.seat_number + 1
		 JOIN cinemas c ON c.id = s1.cinema_id
		 WHERE c.cinema_id = $1
		   AND NOT s1.is_sold
		   AND NOT s2.is_sold
		 ORDER BY s1.row_num, s1.seat_number
		 LIMIT 1
		 FOR UPDATE OF s1, s2`,
		externalID,
	).Scan(
		&pair[0].ID, &pair[0].CinemaID, &pair[0].Row, &pair[0].Number, &pair[0].Sold,
		&pair[1].ID, &pair[1].CinemaID, &pair[1].Row, &pair[1].Number, &pair[1].Sold,
	)
	if err != nil {
		return [2]domain.Seat{}, wrapDBErr(op, err)
	}

	return pair, nil
}

// MarkSold flips the given seats to sold and returns how many changed.
// Seats that are already sold are left untouched and not counted.
func (r *SeatRepo) MarkSold(ctx context.Context, seatIDs []int64) (int64, error) {
	const op = "postgresrepo.SeatRepo.MarkSold"

	db := r.handle()

	tag, err := db.Exec(ctx,
		`UPDATE seats SET is_sold = true
		 WHERE id = ANY($1) AND NOT is_sold`,
		seatIDs,
	)
	if err != nil {
		return 0, wrapDBErr(op, err)
	}

	return tag.RowsAffected(), nil
}

// ListByCinema lists seats of a cinema ordered by row and seat number.
func (r *SeatRepo) ListByCinema(
	ctx context.Context,
	cinemaID int64,
	onlyAvailable bool,
) ([]domain.Seat, error) {
	const op = "postgresrepo.SeatRepo.ListByCinema"

	db := r.handle()

	var rows pgx.Rows
	var err error

	if onlyAvailable {
		rows, err = db.Query(ctx,
			`SELECT id, cinema_id, row_num, seat_number, is_sold
			 FROM seats
			 WHERE cinema_id = $1 AND NOT is_sold
			 ORDER BY row_num, seat_number`,
			cinemaID,
		)
	} else {
		rows, err = db.Query(ctx,
			`SELECT id, cinema_id, row_num, seat_number, is_sold
			 FROM seats
			 WHERE cinema_id = $1
			 ORDER BY row_num, seat_number`,
			cinemaID,
		)
	}
	if err != nil {
		return nil, wrapDBErr(op, err)
	}

	defer rows.Close()

	out := make([]domain.Seat, 0)
	for rows.Next() {
		var s domain.Seat
		if err := rows.Scan(&s.ID, &s.CinemaID, &s.Row, &s.Number, &s.Sold); err != nil {
			return nil, wrapDBErr(op, err)
		}
		out = append(out, s)
	}
	if err := rows.Err(); err != nil {
		return nil, wrapDBErr(op, err)
	}

	return out, nil
}

// CountsByStatus counts sold and unsold seats of a cinema.
func (r *SeatRepo) CountsByStatus(ctx context.Context, cinemaID int64) (*domain.SeatCounts, error) {
	const op = "postgresrepo.SeatRepo.CountsByStatus"

	db := r.handle()

	var sc domain.SeatCounts
	err := db.QueryRow(ctx,
		`SELECT
		 	COALESCE(SUM(CASE WHEN is_sold THEN 0 ELSE 1 END), 0),
		 	COALESCE(SUM(CASE WHEN is_sold THEN 1 ELSE 0 END), 0)
		 FROM seats
		 WHERE cinema_id = $1`,
		cinemaID,
	).Scan(&sc.Available, &sc.Sold)
	if err != nil {
		return nil, wrapDBErr(op, err)
	}

	sc.Total = sc.Available + sc.Sold

	return &sc, nil
}
