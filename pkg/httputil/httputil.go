package httputil

import (
	"encoding/json"
	"errors"
	"net/http"

	"provenant/pkg/sentinel"
)

// WriteJSON writes v as a JSON response with the given status code.
func WriteJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// WriteError translates sentinel errors into consistent JSON error envelopes.
// Unknown errors map to 500 without leaking internals to the dashboard.
func WriteError(w http.ResponseWriter, err error) {
	status := http.StatusInternalServerError
	code := "internal"
	switch {
	case errors.Is(err, sentinel.ErrNotFound):
		status, code = http.StatusNotFound, "not_found"
	case errors.Is(err, sentinel.ErrConflict):
		status, code = http.StatusConflict, "conflict"
	case errors.Is(err, sentinel.ErrInvalidState):
		status, code = http.StatusUnprocessableEntity, "invalid_state"
	case errors.Is(err, sentinel.ErrUnavailable):
		status, code = http.StatusServiceUnavailable, "unavailable"
	}
	WriteJSON(w, status, map[string]string{"error": code})
}

// Decode decodes a JSON request body into T, rejecting unknown fields.
func Decode[T any](r *http.Request) (T, error) {
	var v T
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(&v); err != nil {
		return v, err
	}
	return v, nil
}
