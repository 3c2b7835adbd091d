package httpgin

import (
	"github.com/kirinyoku/cineseat/internal/domain"
)

const (
	statusSuccess = "success"
	statusError   = "error"
)

type CreateCinemaRequest struct {
	CinemaName      string `json:"cinemaName" binding:"required"`
	CinemaID        string `json:"cinemaId" binding:"required"`
	Address         string `json:"address" binding:"required"`
	TotalSeats      int    `json:"totalSeats" binding:"required,gt=0"`
	EachRowCapacity int    `json:"eachRowCapacity" binding:"required,gt=0"`
}

type ErrorResponse struct {
	Status  string `json:"status"`
	Message string `json:"message"`
	Error   string `json:"error,omitempty"`
}

type CinemaRef struct {
	ID         int64  `json:"id"`
	CinemaName string `json:"cinemaName"`
}

type CreateCinemaResponse struct {
	Status  string    `json:"status"`
	Message string    `json:"message"`
	Cinema  CinemaRef `json:"cinema"`
}

type PurchaseSeatResponse struct {
	Status  string `json:"status"`
	Message string `json:"message"`
	SeatID  int64  `json:"seatId"`
}

type PurchasePairResponse struct {
	Status  string        `json:"status"`
	Message string        `json:"message"`
	Seats   []domain.Seat `json:"seats"`
}

type CinemaResponse struct {
	Status string         `json:"status"`
	Cinema *domain.Cinema `json:"cinema"`
}

type SeatsResponse struct {
	Status string        `json:"status"`
	Seats  []domain.Seat `json:"seats"`
}

type AvailabilityResponse struct {
	Status       string             `json:"status"`
	Availability *domain.SeatCounts `json:"availability"`
}

func errorBody(msg string) ErrorResponse {
	return ErrorResponse{Status: statusError, Message: msg}
}
