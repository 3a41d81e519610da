package model

import "github.com/pkg/errors"

var (
	// ErrMissingData marks a coin whose identifying input is absent.
	ErrMissingData = errors.New("missing data")
	// ErrInvalidData marks a coin whose series is malformed.
	ErrInvalidData = errors.New("invalid data")
	// ErrInsufficientHistory marks an indicator whose window is not met.
	ErrInsufficientHistory = errors.New("insufficient history")
	// ErrConfiguration marks weights, bands or windows that fail validation.
	ErrConfiguration = errors.New("invalid configuration")
	// ErrEmptyPortfolio is returned when no coin can be aggregated.
	ErrEmptyPortfolio = errors.New("empty portfolio")
)
