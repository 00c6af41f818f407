package models

import "errors"

// Domain specific errors, mapped to HTTP statuses at the handler edge.
var (
	ErrNotFound        = errors.New("requested item not found")
	ErrConflict        = errors.New("item already exists or conflict")
	ErrUnauthenticated = errors.New("authentication required or invalid credentials")
	ErrForbidden       = errors.New("action forbidden")
	ErrBadRequest      = errors.New("bad request")
	ErrValidation      = errors.New("validation failed")
)
