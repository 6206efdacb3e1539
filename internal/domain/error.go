package domain

import "errors"

var (
	// Common domain errors
	ErrNotFound             = errors.New("entity not found")
	ErrAlreadyExists        = errors.New("entity already exists")
	ErrInvalidArgument      = errors.New("invalid argument")
	ErrInvalidState         = errors.New("operation not valid for current state")
	ErrNoActiveSubscription = errors.New("no active subscription")
	ErrExternalService      = errors.New("external service unavailable")
	ErrVerifyInProgress     = errors.New("slip verification already in progress")
	ErrRateLimited          = errors.New("too many attempts")
	ErrUnauthorized         = errors.New("unauthorized")

	// Storage-layer errors
	ErrOperationFailed    = errors.New("operation failed")
	ErrInvalidExecContext = errors.New("invalid database execution context")
	ErrReadDatabaseRow    = errors.New("failed to read database row")
)
