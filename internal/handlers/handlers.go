// Package handlers wires HTTP routes for the read-only event query API.
package handlers

import (
	"log/slog"
	"net/http"
	"strconv"

	"github.com/telhawk-systems/telhawk-fim/common/httputil"
	"github.com/telhawk-systems/telhawk-fim/internal/chainlog"
	"github.com/telhawk-systems/telhawk-fim/internal/models"
)

const (
	defaultLimit = 100
	maxLimit     = 500
)

// Handler serves persisted events straight from the agent's JSONL log.
// It holds no state beyond the log path; every request re-reads the file.
type Handler struct {
	logPath string
	log     *slog.Logger
}

// New creates a Handler reading from the given log path.
func New(logPath string, log *slog.Logger) *Handler {
	if log == nil {
		log = slog.Default()
	}
	return &Handler{logPath: logPath, log: log}
}

// eventsResponse is the GET /events body.
type eventsResponse struct {
	Events []models.FIMEvent `json:"events"`
}

// Events handles GET /events?limit=N. Events are returned ascending by
// timestamp, truncated to the most recent N.
func (h *Handler) Events(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		httputil.WriteError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}

	limit := parseLimit(r.URL.Query().Get("limit"))
	events, err := chainlog.ReadEvents(h.logPath, limit)
	if err != nil {
		h.log.Error("failed to read event log", "path", h.logPath, "error", err)
		httputil.WriteError(w, http.StatusInternalServerError, "event log unavailable")
		return
	}

	httputil.WriteJSON(w, http.StatusOK, eventsResponse{Events: events})
}

// Health handles GET /healthz.
func (h *Handler) Health(w http.ResponseWriter, r *http.Request) {
	httputil.WriteJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// NotFound answers every unregistered path with a JSON 404 body.
func (h *Handler) NotFound(w http.ResponseWriter, r *http.Request) {
	httputil.WriteError(w, http.StatusNotFound, "not found")
}

// parseLimit applies the default on absent or malformed values and clamps
// the result to [1, maxLimit].
func parseLimit(raw string) int {
	limit := defaultLimit
	if raw != "" {
		if n, err := strconv.Atoi(raw); err == nil {
			limit = n
		}
	}
	if limit < 1 {
		limit = 1
	}
	if limit > maxLimit {
		limit = maxLimit
	}
	return limit
}
