package domain

import (
	"time"
)

type Cinema struct {
	ID          int64     `json:"id"`
	ExternalID  string    `json:"cinemaId"`
	Name        string    `json:"cinemaName"`
	Address     string    `json:"address"`
	TotalSeats  int       `json:"totalSeats"`
	RowCapacity int       `json:"eachRowCapacity"`
	CreatedAt   time.Time `json:"createdAt,omitzero"`
}

type Seat struct {
	ID       int64 `json:"id"`
	CinemaID int64 `json:"cinemaRef"`
	Row      int   `json:"rowNumber"`
	Number   int   `json:"seatNumber"`
	Sold     bool  `json:"sold"`
}

// SeatPosition is one entry of a generated seat map.
type SeatPosition struct {
	Row    int
	Number int
}

type SeatCounts struct {
	Available int64 `json:"available"`
	Sold      int64 `json:"sold"`
	Total     int64 `json:"total"`
}

// SeatsSold is emitted after a purchase transaction commits.
type SeatsSold struct {
	CinemaID    int64     `json:"cinema_id"`
	ExternalID  string    `json:"cinema_external_id"`
	SeatIDs     []int64   `json:"seat_ids"`
	SeatNumbers []int     `json:"seat_numbers"`
	SoldAt      time.Time `json:"sold_at"`
}
