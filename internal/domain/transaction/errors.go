package transaction

import "errors"

var (
	// ErrMissingEntityID is returned when a record has no entity (account/user) id
	ErrMissingEntityID = errors.New("transaction entity id is required")

	// ErrMissingTimestamp is returned when a record carries no timestamp
	ErrMissingTimestamp = errors.New("transaction timestamp is required")

	// ErrInvalidTimestamp is returned when the timestamp cannot be parsed
	ErrInvalidTimestamp = errors.New("invalid transaction timestamp")

	// ErrNegativeAmount is returned when transaction amount is negative
	ErrNegativeAmount = errors.New("transaction amount cannot be negative")

	// ErrInvalidAmount is returned when the amount format is invalid
	ErrInvalidAmount = errors.New("invalid transaction amount")

	// ErrMissingLocation is returned when the location field is absent
	ErrMissingLocation = errors.New("transaction location is required")

	// ErrMissingCategory is returned when the category field is absent
	ErrMissingCategory = errors.New("transaction category is required")

	// ErrHistoryUnavailable is returned by history sources that cannot serve a lookup
	ErrHistoryUnavailable = errors.New("transaction history unavailable")
)
