package port

import "errors"

// Sentinel errors used across ports.
var (
	ErrEmptyQuery         = errors.New("query cannot be empty")
	ErrProductNotFound    = errors.New("product not found")
	ErrBackendUnavailable = errors.New("backend unavailable")
)
