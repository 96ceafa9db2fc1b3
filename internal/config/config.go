// Package config holds runtime configuration for the readyapp HTTP
// application and the container smoke harness.
package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// Config holds runtime configuration for both the application binary and the
// smoke harness. Fields are loaded from defaults, then an optional YAML file,
// then environment variable overrides, in that order.
type Config struct {
	// Application server
	ListenAddr   string   `json:"listen_addr" yaml:"listen_addr"`
	AllowedHosts []string `json:"allowed_hosts" yaml:"allowed_hosts"`
	CORSOrigins  []string `json:"cors_origins" yaml:"cors_origins"`

	// Metrics
	MetricsEnabled bool `json:"metrics_enabled" yaml:"metrics_enabled"`
	MetricsPort    int  `json:"metrics_port" yaml:"metrics_port"`

	// Tracing (stdout exporter)
	TracingEnabled bool `json:"tracing_enabled" yaml:"tracing_enabled"`

	// Image under test
	ImageRepository string `json:"image_repository" yaml:"image_repository"`
	ImageVariant    string `json:"image_variant" yaml:"image_variant"`
	// MinimumVariant rejects image variants older than this toolchain version.
	MinimumVariant string `json:"minimum_variant" yaml:"minimum_variant"`
	Vendor         string `json:"vendor" yaml:"vendor"`

	// Smoke container lifecycle
	ContainerName string `json:"container_name" yaml:"container_name"`
	// UniqueNames appends a random suffix to the container name so that
	// concurrent or aborted runs cannot collide on a fixed name.
	UniqueNames   bool   `json:"unique_names" yaml:"unique_names"`
	ContainerPort string `json:"container_port" yaml:"container_port"`
	HostIP        string `json:"host_ip" yaml:"host_ip"`
	HostPort      string `json:"host_port" yaml:"host_port"`

	// Probe timing
	SettleDelay       time.Duration `json:"settle_delay" yaml:"settle_delay"`
	HealthSettleDelay time.Duration `json:"health_settle_delay" yaml:"health_settle_delay"`
	HTTPTimeout       time.Duration `json:"http_timeout" yaml:"http_timeout"`
	ExecTimeout       time.Duration `json:"exec_timeout" yaml:"exec_timeout"`

	// Paths probed inside the container
	AppDir  string `json:"app_dir" yaml:"app_dir"`
	AppFile string `json:"app_file" yaml:"app_file"`

	// ExpectedUser is the username the container process must run as.
	ExpectedUser string `json:"expected_user" yaml:"expected_user"`
}

// Image returns the full image reference under test, e.g.
// "khulnasoft/readyapp:go1.22".
func (c *Config) Image() string {
	return fmt.Sprintf("%s:%s", c.ImageRepository, c.ImageVariant)
}

// DefaultConfig returns a sane default configuration.
func DefaultConfig() *Config {
	return &Config{
		ListenAddr:   ":80",
		AllowedHosts: []string{"*"},
		CORSOrigins:  []string{"*"},

		MetricsEnabled: false,
		MetricsPort:    9090,

		TracingEnabled: false,

		ImageRepository: "khulnasoft/readyapp",
		ImageVariant:    "go1.22",
		MinimumVariant:  "1.21",
		Vendor:          "KhulnaSoft",

		ContainerName: "readyapp-smoke",
		UniqueNames:   true,
		ContainerPort: "80",
		HostIP:        "127.0.0.1",
		HostPort:      "8000",

		SettleDelay:       3 * time.Second,
		HealthSettleDelay: 5 * time.Second,
		HTTPTimeout:       10 * time.Second,
		ExecTimeout:       30 * time.Second,

		AppDir:       "/app",
		AppFile:      "/app/readyapp",
		ExpectedUser: "appuser",
	}
}

// Validate returns a list of non-fatal configuration warnings.
func (c *Config) Validate() []string {
	var warnings []string
	checks := []struct {
		cond bool
		msg  string
	}{
		{c.ImageRepository == "", "image repository is empty"},
		{c.ImageVariant == "", "image variant is empty (set NAME or image_variant)"},
		{c.Vendor == "", "vendor is empty; the label check will fail"},
		{c.ContainerName == "", "container name is empty"},
		{c.SettleDelay <= 0, "settle delay must be positive"},
		{c.HTTPTimeout <= 0, "http timeout must be positive"},
	}
	for _, ch := range checks {
		if ch.cond {
			warnings = append(warnings, ch.msg)
		}
	}
	return warnings
}

// LoadConfigFromFile loads config from a YAML file on top of the defaults.
func LoadConfigFromFile(path string) (*Config, error) {
	cfg := DefaultConfig()
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	if err := yaml.Unmarshal(b, cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}
