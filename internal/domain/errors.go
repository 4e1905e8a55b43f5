package domain

import "errors"

var (
	// Transform errors
	ErrMalformedRecord = errors.New("malformed source record")
	ErrUnparsableDate  = errors.New("unparsable record date")

	// Validation errors
	ErrInvalidCurrency    = errors.New("invalid currency code")
	ErrInvalidAccountName = errors.New("invalid account name")
)
