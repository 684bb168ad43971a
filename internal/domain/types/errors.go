package types

import (
	"errors"
	"fmt"
)

// Error kinds. Every error returned by the journey engine wraps exactly one of them.
var (
	ErrConflict    = errors.New("conflict")
	ErrNotFound    = errors.New("not found")
	ErrValidation  = errors.New("validation failed")
	ErrPersistence = errors.New("persistence failure")

	// ErrUnavailable marks a transient failure of an outside service.
	ErrUnavailable = errors.New("dependency unavailable")
)

var (
	ErrJourneyAlreadyOpen = fmt.Errorf("%w: worker already has an open journey", ErrConflict)
	ErrStaleJourney       = fmt.Errorf("%w: journey was modified concurrently", ErrConflict)
	ErrNoOpenJourney      = fmt.Errorf("%w: worker has no open journey", ErrNotFound)
	ErrUserNotFound       = fmt.Errorf("%w: user not found", ErrNotFound)
	ErrEmailTaken         = fmt.Errorf("%w: a user with that email already exists", ErrConflict)

	ErrNegativeSpeed   = fmt.Errorf("%w: speed must not be negative", ErrValidation)
	ErrMissingPosition = fmt.Errorf("%w: position is required", ErrValidation)
	ErrInvalidPosition = fmt.Errorf("%w: position is out of range", ErrValidation)
	ErrMissingSpeed    = fmt.Errorf("%w: speed is required", ErrValidation)
	ErrInvalidMonth    = fmt.Errorf("%w: month must be formatted as YYYY-MM", ErrValidation)
	ErrInvalidDate     = fmt.Errorf("%w: date must be formatted as YYYY-MM-DD", ErrValidation)
	ErrInvalidRegion   = fmt.Errorf("%w: unknown region", ErrValidation)

	ErrInvalidPushToken = fmt.Errorf("%w: push token must be an Expo push token", ErrValidation)

	ErrInvalidCredentials = errors.New("invalid email or password")
	ErrInvalidToken       = errors.New("invalid token")
	ErrExpiredToken       = errors.New("token expired")
)
