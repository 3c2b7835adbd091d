package repository

import "errors"

var (
	ErrNotFound     = errors.New("not found")
	ErrConflict     = errors.New("conflict")
	ErrLockConflict = errors.New("lock conflict")
	ErrNoIdentity   = errors.New("insert produced no identity")
)
