// Package pkg holds small utilities shared by every layer.
//
// This file declares the domain errors. Services return them (usually
// wrapped with extra detail) and the handler layer maps them to HTTP status
// codes:
//
//	return fmt.Errorf("%w: review not found", pkg.ErrNotFound)
//
//	if errors.Is(err, pkg.ErrNotFound) { ... }
package pkg

import "errors"

var (
	ErrNotFound        = errors.New("not found")
	ErrUnauthorized    = errors.New("unauthorized")
	ErrForbidden       = errors.New("forbidden")
	ErrAlreadyExists   = errors.New("already exists")
	ErrConflict        = errors.New("conflict")
	ErrBadRequest      = errors.New("bad request")
	ErrInternal        = errors.New("internal error")
	ErrTooManyRequests = errors.New("too many requests")
	ErrPayloadTooLarge = errors.New("payload too large")
)
