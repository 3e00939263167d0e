package core

import "errors"

// Errors returned by the services. Handlers map them to HTTP statuses.
var (
	// ErrUnauthenticated means no credential accompanied a request that needs one.
	ErrUnauthenticated = errors.New("unauthorized access")
	// ErrInvalidToken covers malformed, wrongly signed and expired credentials.
	ErrInvalidToken = errors.New("invalid or expired token")
	// ErrForbidden is the single outcome of every authorization denial.
	ErrForbidden = errors.New("forbidden access")
	// ErrInvalidInput flags a request missing a field the operation needs.
	ErrInvalidInput = errors.New("invalid request")
)
