package canvas

import (
	"errors"
	"fmt"
)

// ErrTokenExpired indicates the Canvas API token is invalid or expired.
// Canvas signals this as a 401 carrying a WWW-Authenticate header, distinct
// from other 401s.
var ErrTokenExpired = errors.New("invalid or expired Canvas API token")

// ErrNotFound indicates the requested Canvas resource does not exist.
var ErrNotFound = errors.New("canvas resource not found")

// APIError represents any other non-2xx response from the Canvas API.
type APIError struct {
	StatusCode int
	Body       string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("canvas API error: HTTP %d: %s", e.StatusCode, e.Body)
}

// PaginationError indicates a 2xx list response whose Link header could not
// be parsed, so the next-page signal is unusable.
type PaginationError struct {
	Header string
	Reason string
}

func (e *PaginationError) Error() string {
	return fmt.Sprintf("canvas pagination error: %s in Link header %q", e.Reason, e.Header)
}
