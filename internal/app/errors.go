package service

import "errors"

// Sentinel kinds for service errors.
var (
	ErrNotStarted     = errors.New("service not started")
	ErrStorage        = errors.New("storage unavailable")
	ErrInvalidRequest = errors.New("invalid request")
	ErrRosterTooLarge = errors.New("roster too large")
	ErrNoData         = errors.New("no season data")
)
