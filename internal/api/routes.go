package api

import (
	"net/http"

	"github.com/gorilla/mux"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gorilla/mux/otelmux"

	"github.com/khulnasoft/readyapp-docker/internal/config"
)

// RouteOption configures optional route behavior.
type RouteOption func(*mux.Router)

// WithOTelMiddleware adds OpenTelemetry HTTP instrumentation middleware,
// skipping health and documentation endpoints.
func WithOTelMiddleware(serviceName string) RouteOption {
	return func(r *mux.Router) {
		r.Use(otelmux.Middleware(serviceName,
			otelmux.WithFilter(func(r *http.Request) bool {
				return r.URL.Path != "/health" &&
					r.URL.Path != "/docs" &&
					r.URL.Path != "/redoc" &&
					r.URL.Path != "/openapi.yaml"
			}),
		))
	}
}

// SetupRoutes configures the HTTP routes for the application.
func SetupRoutes(handlers *Handlers, cfg *config.Config, opts ...RouteOption) *mux.Router {
	router := mux.NewRouter()

	for _, opt := range opts {
		opt(router)
	}

	router.Use(
		RecoverMiddleware(),
		LoggingMiddleware(),
		TrustedHostMiddleware(cfg.AllowedHosts),
		CORSMiddleware(cfg.CORSOrigins),
	)

	router.HandleFunc("/", wrap(handlers.Root)).Methods("GET")
	router.HandleFunc("/health", wrap(handlers.Health)).Methods("GET")
	router.HandleFunc("/info", wrap(handlers.Info)).Methods("GET")

	router.HandleFunc("/openapi.yaml", handlers.ServeOpenAPISpec).Methods("GET")
	router.HandleFunc("/docs", handlers.ServeSwaggerUI).Methods("GET")
	router.HandleFunc("/redoc", handlers.ServeReDoc).Methods("GET")

	router.NotFoundHandler = notFoundHandler()
	router.MethodNotAllowedHandler = methodNotAllowedHandler()

	return router
}

func notFoundHandler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		writeError(w, http.StatusNotFound, "Not found")
	})
}

func methodNotAllowedHandler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		writeError(w, http.StatusMethodNotAllowed, "Method not allowed")
	})
}
