// Command readyapp serves the HTTP application packaged in the container
// image: three JSON endpoints, interactive API docs, and optional metrics
// and tracing.
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/khulnasoft/readyapp-docker/internal/api"
	"github.com/khulnasoft/readyapp-docker/internal/config"
	"github.com/khulnasoft/readyapp-docker/internal/logging"
	"github.com/khulnasoft/readyapp-docker/internal/metrics"
	"github.com/khulnasoft/readyapp-docker/internal/observability"
)

const appVersion = "1.0.0"

func main() {
	cfgFile := flag.String("config", "", "Path to config file")
	listen := flag.String("listen", "", "Listen address (overrides config)")
	flag.Parse()

	cfg := config.DefaultConfig()
	if *cfgFile != "" {
		c, err := config.LoadConfigFromFile(*cfgFile)
		if err != nil {
			log.Fatalf("failed loading config: %v", err)
		}
		cfg = c
	}
	if err := config.ApplyEnvOverrides(cfg); err != nil {
		log.Fatalf("invalid environment configuration: %v", err)
	}
	if *listen != "" {
		cfg.ListenAddr = *listen
	}

	cleanup := initLogging()
	defer cleanup()

	for _, w := range cfg.Validate() {
		logging.Get().Warn().Msg(w)
	}

	provider, err := observability.Setup(api.ServiceName, appVersion, cfg.TracingEnabled)
	if err != nil {
		logging.Get().Fatal().Err(err).Msg("failed to set up tracing")
	}

	if cfg.MetricsEnabled {
		go serveMetrics(cfg.MetricsPort)
	}

	var opts []api.RouteOption
	if cfg.TracingEnabled {
		opts = append(opts, api.WithOTelMiddleware(api.ServiceName))
	}
	router := api.SetupRoutes(api.NewHandlers(), cfg, opts...)

	srv := &http.Server{
		Addr:              cfg.ListenAddr,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		logging.Get().Info().Str("addr", cfg.ListenAddr).Msg("starting readyapp")
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logging.Get().Fatal().Err(err).Msg("server failed")
		}
	}()

	sig := make(chan os.Signal, 1)
	signal.Notify(sig, syscall.SIGINT, syscall.SIGTERM)
	<-sig

	logging.Get().Info().Msg("shutdown signal received")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logging.Get().Warn().Err(err).Msg("graceful shutdown failed")
	}
	if err := provider.Shutdown(shutdownCtx); err != nil {
		logging.Get().Warn().Err(err).Msg("tracing shutdown failed")
	}
}

// initLogging initializes the log subsystem from env and returns a cleanup func.
func initLogging() func() {
	logLevel := os.Getenv("READYAPP_LOG_LEVEL")
	logFile := os.Getenv("READYAPP_LOG_FILE")
	cleanup, err := logging.Init(api.ServiceName, logFile, logLevel)
	if err != nil {
		log.Fatalf("failed to initialize logger: %v", err)
	}
	return cleanup
}

// serveMetrics exposes Prometheus metrics and the JSON status snapshot on a
// dedicated port.
func serveMetrics(port int) {
	mux := http.NewServeMux()
	mux.Handle("/metrics", metrics.PromHandler())
	mux.Handle("/status", metrics.JSONHandler())
	addr := fmt.Sprintf(":%d", port)
	logging.Get().Info().Str("addr", addr).Msg("starting metrics server")
	_ = http.ListenAndServe(addr, mux)
}
