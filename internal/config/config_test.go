package config_test

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/khulnasoft/readyapp-docker/internal/config"
)

func TestDefaultConfig(t *testing.T) {
	c := config.DefaultConfig()
	if c.Image() != "khulnasoft/readyapp:go1.22" {
		t.Fatalf("unexpected default image: %s", c.Image())
	}
	if c.SettleDelay <= 0 || c.HTTPTimeout <= 0 {
		t.Fatal("expected positive probe timings")
	}
	if c.ExpectedUser != "appuser" {
		t.Fatalf("expected default user appuser, got %q", c.ExpectedUser)
	}
	if c.HostPort != "8000" || c.ContainerPort != "80" {
		t.Fatalf("unexpected default port mapping: %s -> %s", c.ContainerPort, c.HostPort)
	}
	if w := c.Validate(); len(w) != 0 {
		t.Fatalf("default config should validate cleanly, got %v", w)
	}
}

func TestValidateWarnings(t *testing.T) {
	cfg := config.DefaultConfig()
	cfg.Vendor = ""
	cfg.SettleDelay = 0
	w := cfg.Validate()
	if len(w) != 2 {
		t.Fatalf("expected 2 warnings, got %v", w)
	}
}

func TestLoadConfigFromFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "smoke.yaml")
	data := []byte("image_repository: example/app\nimage_variant: go1.23\nsettle_delay: 1s\nhost_port: \"9000\"\n")
	if err := os.WriteFile(path, data, 0o600); err != nil {
		t.Fatal(err)
	}

	cfg, err := config.LoadConfigFromFile(path)
	if err != nil {
		t.Fatalf("LoadConfigFromFile: %v", err)
	}
	if cfg.Image() != "example/app:go1.23" {
		t.Fatalf("unexpected image: %s", cfg.Image())
	}
	if cfg.SettleDelay != time.Second {
		t.Fatalf("unexpected settle delay: %v", cfg.SettleDelay)
	}
	if cfg.HostPort != "9000" {
		t.Fatalf("unexpected host port: %s", cfg.HostPort)
	}
	// untouched fields keep defaults
	if cfg.ExpectedUser != "appuser" {
		t.Fatalf("expected default user to survive file load, got %q", cfg.ExpectedUser)
	}
}

func TestLoadConfigFromFileMissing(t *testing.T) {
	if _, err := config.LoadConfigFromFile(filepath.Join(t.TempDir(), "absent.yaml")); err == nil {
		t.Fatal("expected error for missing file")
	}
}
