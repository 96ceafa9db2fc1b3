// Package api contains the HTTP handlers, routes and middleware for the
// readyapp application.
package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"github.com/khulnasoft/readyapp-docker/internal/logging"
	"github.com/khulnasoft/readyapp-docker/internal/version"
)

// ServiceName identifies the application in health responses and telemetry.
const ServiceName = "readyapp"

// HTTPError carries an explicit status code and a client-safe detail message.
// Handlers return it when they want a specific error surfaced to the caller;
// any other error collapses to a generic 500.
type HTTPError struct {
	Code   int
	Detail string
}

func (e *HTTPError) Error() string {
	return fmt.Sprintf("HTTP %d: %s", e.Code, e.Detail)
}

// errorBody is the JSON shape of every error response.
type errorBody struct {
	Error      string `json:"error"`
	StatusCode int    `json:"status_code"`
}

// Handlers contains the HTTP handlers for the application.
type Handlers struct {
	service string
}

// NewHandlers creates a new handlers instance.
func NewHandlers() *Handlers {
	return &Handlers{service: ServiceName}
}

// Root handles GET / with a greeting and basic runtime information.
func (h *Handlers) Root(w http.ResponseWriter, r *http.Request) error {
	message := fmt.Sprintf(
		"Hello world! From readyapp running on net/http with gorilla/mux. Using Go %s",
		version.Short(),
	)
	logging.Get().Info().Str("path", r.URL.Path).Msg("root endpoint accessed")
	writeJSON(w, http.StatusOK, map[string]any{
		"message":    message,
		"go_version": version.Short(),
		"status":     "healthy",
	})
	return nil
}

// Health handles GET /health for container health checks and monitoring.
func (h *Handlers) Health(w http.ResponseWriter, r *http.Request) error {
	writeJSON(w, http.StatusOK, map[string]string{
		"status":  "healthy",
		"service": h.service,
	})
	return nil
}

// Info handles GET /info with static descriptive fields.
func (h *Handlers) Info(w http.ResponseWriter, r *http.Request) error {
	writeJSON(w, http.StatusOK, map[string]any{
		"go_version": version.Short(),
		"framework":  "gorilla/mux",
		"server":     "net/http",
		"docs_url":   "/docs",
		"redoc_url":  "/redoc",
	})
	return nil
}

// wrap adapts an error-returning handler into an http.HandlerFunc, mapping
// *HTTPError to its declared status and any other error to a generic 500.
// Internal error detail is logged but never sent to the caller.
func wrap(fn func(http.ResponseWriter, *http.Request) error) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		err := fn(w, r)
		if err == nil {
			return
		}
		var httpErr *HTTPError
		if errors.As(err, &httpErr) {
			logging.Get().Warn().
				Int("status_code", httpErr.Code).
				Str("path", r.URL.Path).
				Msg(httpErr.Detail)
			writeError(w, httpErr.Code, httpErr.Detail)
			return
		}
		logging.Get().Error().Err(err).Str("path", r.URL.Path).Msg("unexpected error")
		writeError(w, http.StatusInternalServerError, "Internal server error")
	}
}

func writeJSON(w http.ResponseWriter, statusCode int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		// Headers are already written; nothing left to do but log.
		logging.Get().Error().Err(err).Msg("error encoding JSON response")
	}
}

func writeError(w http.ResponseWriter, statusCode int, detail string) {
	writeJSON(w, statusCode, errorBody{Error: detail, StatusCode: statusCode})
}
