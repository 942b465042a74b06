package handlers

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
)

// maxBodyBytes bounds JSON request bodies.
const maxBodyBytes = 1 << 20

// Error codes returned in the "error" field.
const (
	ErrCodeNotFound     = "not_found"
	ErrCodeNoTickers    = "no_tickers"
	ErrCodeInvalidInput = "invalid_request"
	ErrCodeInternal     = "internal_error"
	ErrCodeMethod       = "method_not_allowed"
)

// RequireMethod reports whether r uses method, writing a 405 when it does not.
func RequireMethod(w http.ResponseWriter, r *http.Request, method string) bool {
	if r.Method != method {
		WriteMethodNotAllowed(w, method)
		return false
	}
	return true
}

// WriteMethodNotAllowed writes a 405 listing the allowed methods in the Allow header.
func WriteMethodNotAllowed(w http.ResponseWriter, allowed ...string) error {
	w.Header().Set("Allow", strings.Join(allowed, ", "))
	return WriteError(w, http.StatusMethodNotAllowed, ErrCodeMethod)
}

// WriteJSON writes a JSON response with the specified status code and data.
func WriteJSON(w http.ResponseWriter, statusCode int, data interface{}) error {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	return json.NewEncoder(w).Encode(data)
}

// WriteError writes a standard error JSON response.
func WriteError(w http.ResponseWriter, statusCode int, code string) error {
	return WriteJSON(w, statusCode, map[string]string{
		"status": "error",
		"error":  code,
	})
}

// WriteValidationError writes a 400 with the validation detail.
func WriteValidationError(w http.ResponseWriter, err error) error {
	return WriteJSON(w, http.StatusBadRequest, map[string]string{
		"status":  "error",
		"error":   ErrCodeInvalidInput,
		"message": err.Error(),
	})
}

// DecodeJSON reads a bounded JSON body into v. An empty body leaves v untouched.
func DecodeJSON(w http.ResponseWriter, r *http.Request, v interface{}) error {
	if r.Body == nil || r.ContentLength == 0 {
		return nil
	}
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	if err := dec.Decode(v); err != nil {
		if errors.Is(err, io.EOF) {
			return nil
		}
		return fmt.Errorf("invalid JSON body: %w", err)
	}
	return nil
}

// PathSegments returns the path segments after prefix, e.g. "/api/environments/abc/run"
// with prefix "/api/environments/" yields ["abc", "run"].
func PathSegments(path, prefix string) []string {
	rest := strings.Trim(strings.TrimPrefix(path, prefix), "/")
	if rest == "" {
		return nil
	}
	return strings.Split(rest, "/")
}
