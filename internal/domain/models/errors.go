package models

import "errors"

var (
	ErrMatchNotFound   = errors.New("match not found")
	ErrStatsNotFound   = errors.New("statistics not found")
	ErrInvalidOdds     = errors.New("invalid odds: decimal odds must be greater than 1")
	ErrUnknownAuxData  = errors.New("unknown auxiliary data type")
	ErrVersionNotEmpty = errors.New("ratings already exist for version")
	ErrLockNotAcquired = errors.New("lock not acquired")
	ErrAlreadyApplied  = errors.New("match already applied to ratings")
)
