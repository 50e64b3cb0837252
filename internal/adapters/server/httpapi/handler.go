// Package httpapi provides the read-only REST HTTP adapter for the committed board.
package httpapi

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/hylla/labgantt/internal/adapters/server/common"
)

// Handler serves the versioned API subrouter mounted under `/api/v1`.
type Handler struct {
	queries common.BoardQueries
}

// APIError represents one structured API failure response.
type APIError struct {
	Code    string         `json:"code"`
	Message string         `json:"message"`
	Hint    string         `json:"hint,omitempty"`
	Context map[string]any `json:"context,omitempty"`
}

// ErrorEnvelope wraps one structured API error.
type ErrorEnvelope struct {
	Error APIError `json:"error"`
}

// NewHandler constructs one HTTP API adapter over board queries.
func NewHandler(queries common.BoardQueries) *Handler {
	return &Handler{queries: queries}
}

// ServeHTTP routes one versioned API request to the matching handler.
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeMethodNotAllowed(w, http.MethodGet)
		return
	}
	if h.queries == nil {
		writeJSONError(w, http.StatusServiceUnavailable, APIError{
			Code:    "service_unavailable",
			Message: "board queries are not configured",
		})
		return
	}

	path := normalizePath(r.URL.Path)
	switch path {
	case "board":
		h.handleBoard(w, r)
		return
	case "lanes":
		h.handleListLanes(w, r)
		return
	case "items":
		h.handleListItems(w, r)
		return
	}
	laneID, ok := resolveLaneLayoutID(path)
	if !ok {
		writeJSONError(w, http.StatusNotFound, APIError{
			Code:    "not_found",
			Message: "endpoint not found",
		})
		return
	}
	h.handleLaneLayout(w, r, laneID)
}

// handleBoard serves GET `/board`.
func (h *Handler) handleBoard(w http.ResponseWriter, r *http.Request) {
	board, err := h.queries.Board(r.Context())
	if err != nil {
		writeErrorFrom(w, err)
		return
	}
	writeJSON(w, http.StatusOK, board)
}

// handleListLanes serves GET `/lanes`.
func (h *Handler) handleListLanes(w http.ResponseWriter, r *http.Request) {
	lanes, err := h.queries.ListLanes(r.Context())
	if err != nil {
		writeErrorFrom(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"lanes": lanes,
	})
}

// handleListItems serves GET `/items?lane=&kind=`.
func (h *Handler) handleListItems(w http.ResponseWriter, r *http.Request) {
	items, err := h.queries.ListItems(r.Context(), common.ListItemsRequest{
		LaneID: r.URL.Query().Get("lane"),
		Kind:   r.URL.Query().Get("kind"),
	})
	if err != nil {
		writeErrorFrom(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"items": items,
	})
}

// handleLaneLayout serves GET `/lanes/{id}/layout`.
func (h *Handler) handleLaneLayout(w http.ResponseWriter, r *http.Request, laneID string) {
	out, err := h.queries.LaneLayout(r.Context(), laneID)
	if err != nil {
		writeErrorFrom(w, err)
		return
	}
	writeJSON(w, http.StatusOK, out)
}

// resolveLaneLayoutID parses `lanes/{id}/layout` and returns `{id}`.
func resolveLaneLayoutID(path string) (string, bool) {
	const (
		prefix = "lanes/"
		suffix = "/layout"
	)
	if !strings.HasPrefix(path, prefix) || !strings.HasSuffix(path, suffix) {
		return "", false
	}
	id := strings.TrimSpace(strings.TrimSuffix(strings.TrimPrefix(path, prefix), suffix))
	if id == "" || strings.Contains(id, "/") {
		return "", false
	}
	return id, true
}

// normalizePath canonicalizes one request path for route matching.
func normalizePath(path string) string {
	path = strings.TrimSpace(path)
	path = strings.Trim(path, "/")
	return path
}

// writeErrorFrom maps adapter errors into structured HTTP responses.
func writeErrorFrom(w http.ResponseWriter, err error) {
	switch {
	case err == nil:
		writeJSONError(w, http.StatusInternalServerError, APIError{
			Code:    "internal_error",
			Message: "unknown error",
		})
	case errors.Is(err, common.ErrNotFound):
		writeJSONError(w, http.StatusNotFound, APIError{
			Code:    "not_found",
			Message: err.Error(),
		})
	case errors.Is(err, common.ErrInvalidRequest):
		writeJSONError(w, http.StatusBadRequest, APIError{
			Code:    "invalid_request",
			Message: err.Error(),
		})
	case errors.Is(err, common.ErrBoardUnavailable):
		writeJSONError(w, http.StatusServiceUnavailable, APIError{
			Code:    "board_unavailable",
			Message: err.Error(),
			Hint:    "Check that the board database exists and is readable.",
		})
	default:
		writeJSONError(w, http.StatusInternalServerError, APIError{
			Code:    "internal_error",
			Message: err.Error(),
		})
	}
}

// writeMethodNotAllowed writes a structured 405 response with `Allow` headers.
func writeMethodNotAllowed(w http.ResponseWriter, methods ...string) {
	if len(methods) > 0 {
		w.Header().Set("Allow", strings.Join(methods, ", "))
	}
	writeJSONError(w, http.StatusMethodNotAllowed, APIError{
		Code:    "method_not_allowed",
		Message: "method not allowed",
		Hint:    "The board API is read-only.",
	})
}

// writeJSONError writes one structured error envelope.
func writeJSONError(w http.ResponseWriter, statusCode int, apiErr APIError) {
	writeJSON(w, statusCode, ErrorEnvelope{Error: apiErr})
}

// writeJSON writes one JSON response envelope.
func writeJSON(w http.ResponseWriter, statusCode int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		http.Error(w, fmt.Sprintf(`{"error":{"code":"encode_error","message":"%s"}}`, err.Error()), http.StatusInternalServerError)
	}
}
