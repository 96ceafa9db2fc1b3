// Command smoke runs the container security and health checks against a
// built image. It exits non-zero when any check fails. The NAME environment
// variable selects the image variant under test.
package main

import (
	"context"
	"encoding/json"
	"flag"
	"log"
	"os"
	"time"

	"github.com/khulnasoft/readyapp-docker/internal/config"
	"github.com/khulnasoft/readyapp-docker/internal/docker"
	"github.com/khulnasoft/readyapp-docker/internal/logging"
	"github.com/khulnasoft/readyapp-docker/internal/metrics"
	"github.com/khulnasoft/readyapp-docker/internal/probe"
)

func main() {
	cfgFile := flag.String("config", "", "Path to config file")
	image := flag.String("image", "", "Image repository under test (overrides config)")
	variant := flag.String("variant", "", "Image variant tag under test (overrides config and NAME)")
	timeout := flag.Duration("timeout", 5*time.Minute, "Overall run timeout")
	jsonOut := flag.Bool("json", false, "Print the metrics snapshot as JSON after the run")
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
	if *image != "" {
		cfg.ImageRepository = *image
	}
	if *variant != "" {
		cfg.ImageVariant = *variant
	}

	cleanup := initLogging()
	defer cleanup()

	for _, w := range cfg.Validate() {
		logging.Get().Warn().Msg(w)
	}

	cli, err := docker.NewClient()
	if err != nil {
		logging.Get().Fatal().Err(err).Msg("failed to create docker client")
	}
	suite, err := probe.New(cli, cfg)
	if err != nil {
		logging.Get().Fatal().Err(err).Msg("failed to create probe suite")
	}

	ctx, cancel := context.WithTimeout(context.Background(), *timeout)
	defer cancel()

	logging.Get().Info().Str("image", cfg.Image()).Msg("running smoke checks")
	results := suite.Run(ctx)

	if *jsonOut {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		_ = enc.Encode(metrics.GetSnapshot())
	}

	failed := probe.Failed(results)
	if len(failed) > 0 {
		logging.Get().Error().
			Int("failed", len(failed)).
			Int("total", len(results)).
			Msg("smoke checks failed")
		os.Exit(1)
	}
	logging.Get().Info().Int("total", len(results)).Msg("all smoke checks passed")
}

// initLogging initializes the log subsystem from env and returns a cleanup func.
func initLogging() func() {
	logLevel := os.Getenv("READYAPP_LOG_LEVEL")
	logFile := os.Getenv("READYAPP_LOG_FILE")
	cleanup, err := logging.Init("smoke", logFile, logLevel)
	if err != nil {
		log.Fatalf("failed to initialize logger: %v", err)
	}
	return cleanup
}
