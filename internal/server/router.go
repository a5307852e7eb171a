package server

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/telhawk-systems/telhawk-fim/internal/handlers"
)

// NewRouter constructs a ServeMux with the query API routes registered.
// Unknown paths fall through to a JSON 404.
func NewRouter(h *handlers.Handler) http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/events", h.Events)
	mux.HandleFunc("/healthz", h.Health)
	mux.Handle("/metrics", promhttp.Handler())
	mux.HandleFunc("/", h.NotFound)
	return mux
}
