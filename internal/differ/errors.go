package differ

import "errors"

var (
	// ErrNilSnapshot is returned when Diff is given no tree.
	ErrNilSnapshot = errors.New("snapshot tree is nil")

	// ErrInvalidBaseURL is returned when the live base URL is not an
	// absolute http or https URL.
	ErrInvalidBaseURL = errors.New("base URL must be an absolute http or https URL")
)
