package api

import (
	"net/http"
	"strconv"

	"github.com/nerrad567/gray-logic-display/internal/journal"
)

// handleListEvents returns recent lifecycle events from the journal.
//
// Query parameters:
//   - node: filter by node path (e.g. "/dev/ft800")
//   - event: filter by event name (e.g. "unlink")
//   - limit: page size (default 50, max 200)
//   - offset: pagination offset
func (s *Server) handleListEvents(w http.ResponseWriter, r *http.Request) {
	if s.journal == nil {
		writeError(w, http.StatusServiceUnavailable, ErrCodeInternal, "event journal not configured")
		return
	}

	filter := journal.Filter{
		Node:  r.URL.Query().Get("node"),
		Event: r.URL.Query().Get("event"),
	}

	if v := r.URL.Query().Get("limit"); v != "" {
		limit, err := strconv.Atoi(v)
		if err != nil {
			writeBadRequest(w, "limit must be an integer")
			return
		}
		filter.Limit = limit
	}
	if v := r.URL.Query().Get("offset"); v != "" {
		offset, err := strconv.Atoi(v)
		if err != nil {
			writeBadRequest(w, "offset must be an integer")
			return
		}
		filter.Offset = offset
	}

	result, err := s.journal.Recent(r.Context(), filter)
	if err != nil {
		s.logger.Error("failed to query event journal", "error", err)
		writeInternalError(w, "failed to query events")
		return
	}

	writeJSON(w, http.StatusOK, result)
}
