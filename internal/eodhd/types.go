// Package eodhd provides a client for the EODHD (End of Day Historical Data) fundamentals API
// and its adaptation to the screener's provider-agnostic snapshot.
package eodhd

import (
	"errors"
	"fmt"
	"net/http"
)

// APIError represents an error from the EODHD API.
type APIError struct {
	StatusCode int
	Message    string
	Endpoint   string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("EODHD API error: %s (status: %d, endpoint: %s)", e.Message, e.StatusCode, e.Endpoint)
}

// IsNotFound reports whether err is an EODHD 404 for an unknown symbol.
func IsNotFound(err error) bool {
	var apiErr *APIError
	return errors.As(err, &apiErr) && apiErr.StatusCode == http.StatusNotFound
}
