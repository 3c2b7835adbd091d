package cinema

import (
	"errors"
)

var (
	ErrInvalidArgument = errors.New("all fields are required")
	ErrDuplicateCinema = errors.New("cinema id already exists")
	ErrIntegrity       = errors.New("failed to insert cinema")
	ErrCinemaNotFound  = errors.New("cinema not found")
)
