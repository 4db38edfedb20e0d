package crawler

import "errors"

// ErrInvalidSeedURL is returned when the crawl seed is not an absolute
// http or https URL.
var ErrInvalidSeedURL = errors.New("seed URL must be an absolute http or https URL")
