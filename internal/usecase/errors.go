package usecase

import "errors"

// Sentinel errors shared by all use cases. Handlers map them to HTTP
// statuses; services wrap them with fmt.Errorf("%w: ...") for detail.
var (
	ErrInvalidInput          = errors.New("invalid input")
	ErrNotFound              = errors.New("resource not found")
	ErrUnauthorized          = errors.New("unauthorized")
	ErrDependencyUnavailable = errors.New("dependency unavailable")
)
