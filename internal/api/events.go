package api

import (
	"net/http"
	"strconv"

	"github.com/nerrad567/gray-logic-systembus/internal/audit"
	"github.com/nerrad567/gray-logic-systembus/internal/bus"
)

// handleListEvents returns paginated audit entries with optional filters.
//
// Query parameters:
//   - device_id: filter by device
//   - op: filter by operation (add, write, read, remove, reset)
//   - outcome: filter by outcome (ok, not_found, ...)
//   - limit: max results (default 50, max 200)
//   - offset: pagination offset
func (s *Server) handleListEvents(w http.ResponseWriter, r *http.Request) {
	if s.audit == nil {
		writeError(w, http.StatusServiceUnavailable, ErrCodeUnavailable, "audit log is disabled")
		return
	}

	q := r.URL.Query()
	filter := audit.Filter{
		Op:      bus.Op(q.Get("op")),
		Outcome: bus.Outcome(q.Get("outcome")),
	}

	if v := q.Get("device_id"); v != "" {
		id, err := parseNumber(v)
		if err != nil {
			writeBadRequest(w, "invalid device_id")
			return
		}
		filter.DeviceID = audit.Device(id)
	}
	if v := q.Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			writeBadRequest(w, "invalid limit")
			return
		}
		filter.Limit = n
	}
	if v := q.Get("offset"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			writeBadRequest(w, "invalid offset")
			return
		}
		filter.Offset = n
	}

	result, err := s.audit.List(r.Context(), filter)
	if err != nil {
		s.logger.Error("listing audit entries failed", "error", err)
		writeInternalError(w, "failed to list events")
		return
	}
	writeJSON(w, http.StatusOK, result)
}
