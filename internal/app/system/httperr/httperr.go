// Package httperr defines the error taxonomy for API handlers and maps it
// onto HTTP responses.
//
// Taxonomy:
//   - Unauthenticated: no caller identity at all → 401
//   - Forbidden: authenticated but role/tenant mismatch or quota exceeded →
//     403 with a generic body (no hint about cross-tenant existence)
//   - NotFound: entity absent or belongs to another tenant → 404
//     (indistinguishable by design, to avoid tenant enumeration)
//   - InvalidInput: malformed payload → 400, rejected before storage
//   - Conflict: duplicate enrollment / already-exists → 409
//   - ProviderFailure: billing or identity provider call failed → 502,
//     retryable, no partial state committed
package httperr

import (
	"encoding/json"
	"errors"
	"net/http"
)

var (
	ErrUnauthenticated = errors.New("unauthenticated")
	ErrForbidden       = errors.New("forbidden")
	ErrNotFound        = errors.New("not found")
	ErrInvalidInput    = errors.New("invalid input")
	ErrConflict        = errors.New("conflict")
	ErrProviderFailure = errors.New("external provider failure")
)

// statusFor maps a taxonomy error to its HTTP status code.
func statusFor(err error) int {
	switch {
	case errors.Is(err, ErrUnauthenticated):
		return http.StatusUnauthorized
	case errors.Is(err, ErrForbidden):
		return http.StatusForbidden
	case errors.Is(err, ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, ErrInvalidInput):
		return http.StatusBadRequest
	case errors.Is(err, ErrConflict):
		return http.StatusConflict
	case errors.Is(err, ErrProviderFailure):
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

// messageFor returns the response body for a taxonomy error. Forbidden and
// NotFound deliberately carry no detail beyond the category.
func messageFor(err error) string {
	switch {
	case errors.Is(err, ErrUnauthenticated):
		return "unauthenticated"
	case errors.Is(err, ErrForbidden):
		return "not allowed"
	case errors.Is(err, ErrNotFound):
		return "not found"
	case errors.Is(err, ErrInvalidInput):
		return "invalid input"
	case errors.Is(err, ErrConflict):
		return "already exists"
	case errors.Is(err, ErrProviderFailure):
		return "provider unavailable, retry later"
	default:
		return "internal error"
	}
}

// Write sends the JSON error response for err. Wrapped taxonomy errors are
// unwrapped via errors.Is; anything outside the taxonomy becomes a 500.
func Write(w http.ResponseWriter, err error) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusFor(err))
	_ = json.NewEncoder(w).Encode(map[string]string{"error": messageFor(err)})
}

// WriteJSON sends a JSON success response with the given status code.
func WriteJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
