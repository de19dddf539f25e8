package model

import "errors"

var (
	// ErrDataUnavailable means a provider returned nothing or timed out.
	ErrDataUnavailable = errors.New("data unavailable")
	// ErrInsufficientHistory means there were too few bars or closes to compute a value.
	ErrInsufficientHistory = errors.New("insufficient history")
	// ErrInvalidSample means a price was non-positive or non-finite.
	ErrInvalidSample = errors.New("invalid price sample")
	// ErrNotificationFailed means no sink delivered an alert.
	ErrNotificationFailed = errors.New("notification failed")
)
