package domain

import (
	"errors"
)

var ErrInvalidLayout = errors.New("total seats and row capacity must be positive")

// GenerateSeatMap lays out totalSeats seats in rows of rowCapacity.
//
// Seat numbers run from 1 to totalSeats across rows and are not reset per row.
// When totalSeats is not a multiple of rowCapacity the leftover seats form a
// short first row, followed by full rows. Existing cinemas were generated this
// way, so the order must not change.
func GenerateSeatMap(totalSeats, rowCapacity int) ([]SeatPosition, error) {
	if totalSeats <= 0 || rowCapacity <= 0 {
		return nil, ErrInvalidLayout
	}

	seats := make([]SeatPosition, 0, totalSeats)

	row := 1
	number := 1

	if remainder := totalSeats % rowCapacity; remainder > 0 {
		for ; number <= remainder; number++ {
			seats = append(seats, SeatPosition{Row: row, Number: number})
		}
		row++
	}

	for number <= totalSeats {
		for i := 0; i < rowCapacity; i++ {
			seats = append(seats, SeatPosition{Row: row, Number: number})
			number++
		}
		row++
	}

	return seats, nil
}
