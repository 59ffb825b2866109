package utils

import "errors"

// Service-layer sentinels. The gateway maps these onto HTTP status codes;
// anything unwrapped surfaces as a 500 with its message.
var (
	ErrNotFound     = errors.New("not found")
	ErrInvalid      = errors.New("invalid request")
	ErrConflict     = errors.New("conflict")
	ErrUnauthorized = errors.New("unauthorized")
)
