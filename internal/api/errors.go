package api

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/nerrad567/gray-logic-systembus/internal/bus"
)

// Error represents a structured error response.
type Error struct {
	Status  int    `json:"status"`
	Code    string `json:"code"`
	Message string `json:"message"`
}

// Common error codes. Bus failures use the bus.Outcome value as code.
const (
	ErrCodeBadRequest  = "bad_request"
	ErrCodeNotFound    = "not_found"
	ErrCodeInternal    = "internal_error"
	ErrCodeUnavailable = "unavailable"
)

// writeJSON writes a JSON response with the given status code and payload.
func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if v != nil {
		//nolint:errcheck // Best-effort write to response; connection may be closed
		json.NewEncoder(w).Encode(v)
	}
}

// writeError writes a structured error response.
func writeError(w http.ResponseWriter, status int, code, message string) {
	writeJSON(w, status, Error{
		Status:  status,
		Code:    code,
		Message: message,
	})
}

// writeBadRequest writes a 400 error response.
func writeBadRequest(w http.ResponseWriter, message string) {
	writeError(w, http.StatusBadRequest, ErrCodeBadRequest, message)
}

// writeInternalError writes a 500 error response.
func writeInternalError(w http.ResponseWriter, message string) {
	writeError(w, http.StatusInternalServerError, ErrCodeInternal, message)
}

// writeBusError maps a bus operation error to a response.
func writeBusError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, bus.ErrCapacityExceeded):
		writeError(w, http.StatusConflict, string(bus.OutcomeCapacityExceeded), err.Error())
	case errors.Is(err, bus.ErrDataAlreadyClear):
		writeError(w, http.StatusConflict, string(bus.OutcomeAlreadyClear), err.Error())
	case errors.Is(err, bus.ErrAddressMismatch):
		writeError(w, http.StatusNotFound, string(bus.OutcomeAddressMismatch), err.Error())
	case errors.Is(err, bus.ErrDeviceNotFound):
		writeError(w, http.StatusNotFound, string(bus.OutcomeNotFound), err.Error())
	default:
		writeInternalError(w, "bus operation failed")
	}
}
