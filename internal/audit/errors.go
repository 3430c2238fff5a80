package audit

import "errors"

var (
	// ErrInvalidEntry is returned when an entry is missing its op or outcome.
	ErrInvalidEntry = errors.New("audit: invalid entry")
)
