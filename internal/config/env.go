package config

import (
	"fmt"
	"os"
	"strconv"
	"time"
)

// ApplyEnvOverrides reads configuration values from environment variables and
// overrides fields in the provided Config. Returns an error if parsing fails.
//
// Environment variables supported:
// - NAME (string, image variant tag, e.g. "go1.22")
// - READYAPP_IMAGE (string, image repository, e.g. "khulnasoft/readyapp")
// - READYAPP_LISTEN_ADDR (string, e.g. ":80")
// - READYAPP_METRICS_ENABLED (bool, "true"/"false")
// - READYAPP_METRICS_PORT (int, e.g. 9090)
// - READYAPP_TRACING_ENABLED (bool)
// - READYAPP_CONTAINER_NAME (string)
// - READYAPP_UNIQUE_NAMES (bool)
// - READYAPP_HOST_IP / READYAPP_HOST_PORT (string)
// - READYAPP_SETTLE_DELAY / READYAPP_HTTP_TIMEOUT / READYAPP_EXEC_TIMEOUT (duration)
// - READYAPP_VENDOR / READYAPP_MINIMUM_VARIANT / READYAPP_EXPECTED_USER (string)
func ApplyEnvOverrides(cfg *Config) error {
	// NAME selects the image variant under test, matching the harness
	// convention of the image repository this module packages.
	if v := os.Getenv("NAME"); v != "" {
		cfg.ImageVariant = v
	}

	strs := []struct {
		key string
		dst *string
	}{
		{"READYAPP_IMAGE", &cfg.ImageRepository},
		{"READYAPP_LISTEN_ADDR", &cfg.ListenAddr},
		{"READYAPP_CONTAINER_NAME", &cfg.ContainerName},
		{"READYAPP_HOST_IP", &cfg.HostIP},
		{"READYAPP_HOST_PORT", &cfg.HostPort},
		{"READYAPP_VENDOR", &cfg.Vendor},
		{"READYAPP_MINIMUM_VARIANT", &cfg.MinimumVariant},
		{"READYAPP_EXPECTED_USER", &cfg.ExpectedUser},
	}
	for _, s := range strs {
		if v := os.Getenv(s.key); v != "" {
			*s.dst = v
		}
	}

	bools := []struct {
		key string
		dst *bool
	}{
		{"READYAPP_METRICS_ENABLED", &cfg.MetricsEnabled},
		{"READYAPP_TRACING_ENABLED", &cfg.TracingEnabled},
		{"READYAPP_UNIQUE_NAMES", &cfg.UniqueNames},
	}
	for _, b := range bools {
		if v := os.Getenv(b.key); v != "" {
			parsed, err := strconv.ParseBool(v)
			if err != nil {
				return fmt.Errorf("invalid %s: %w", b.key, err)
			}
			*b.dst = parsed
		}
	}

	if v := os.Getenv("READYAPP_METRICS_PORT"); v != "" {
		p, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("invalid READYAPP_METRICS_PORT: %w", err)
		}
		cfg.MetricsPort = p
	}

	durs := []struct {
		key string
		dst *time.Duration
	}{
		{"READYAPP_SETTLE_DELAY", &cfg.SettleDelay},
		{"READYAPP_HEALTH_SETTLE_DELAY", &cfg.HealthSettleDelay},
		{"READYAPP_HTTP_TIMEOUT", &cfg.HTTPTimeout},
		{"READYAPP_EXEC_TIMEOUT", &cfg.ExecTimeout},
	}
	for _, d := range durs {
		if v := os.Getenv(d.key); v != "" {
			parsed, err := time.ParseDuration(v)
			if err != nil {
				return fmt.Errorf("invalid %s: %w", d.key, err)
			}
			*d.dst = parsed
		}
	}

	return nil
}
