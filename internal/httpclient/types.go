package httpclient

import (
	"errors"
	"fmt"
	"net/http"
)

// HTTPError is returned by Client for any plugin backend response other than
// 200 OK. The QueryCache treats it as "no result", while sources inspect the
// status through StatusCode, e.g. Spigot falls back to GitHub on 503.
type HTTPError struct {
	StatusCode int
	Message    string
	URL        string
}

// Error returns the error message
func (e *HTTPError) Error() string {
	return fmt.Sprintf("HTTP %d for URL %s: %s", e.StatusCode, e.URL, e.Message)
}

// NewHTTPError creates a new HTTP error
func NewHTTPError(statusCode int, url, message string) error {
	return &HTTPError{
		StatusCode: statusCode,
		URL:        url,
		Message:    message,
	}
}

// StatusCode returns the HTTP status carried by err, or 0 when err is not an HTTPError.
func StatusCode(err error) int {
	var httpErr *HTTPError
	if errors.As(err, &httpErr) {
		return httpErr.StatusCode
	}
	return 0
}

// IsBlocked reports whether err is a 503 answer, which download mirrors such
// as Spiget return when an anti-bot check refuses the request
func IsBlocked(err error) bool {
	return StatusCode(err) == http.StatusServiceUnavailable
}
