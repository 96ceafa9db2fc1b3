package probe

import (
	"context"
	"fmt"
	"net/http"
	"strings"

	ocispec "github.com/opencontainers/image-spec/specs-go/v1"

	"github.com/khulnasoft/readyapp-docker/internal/version"
)

// Health statuses the daemon may report shortly after start.
const (
	healthHealthy  = "healthy"
	healthStarting = "starting"
)

// CheckVariant verifies the image variant tag carries a toolchain version at
// or above the configured minimum. Runs without a container.
func (s *Suite) CheckVariant(ctx context.Context) error {
	ok, err := version.AtLeast(s.cfg.ImageVariant, s.cfg.MinimumVariant)
	if err != nil {
		return err
	}
	if !ok {
		return fmt.Errorf("variant %q is below the minimum supported version %s",
			s.cfg.ImageVariant, s.cfg.MinimumVariant)
	}
	return nil
}

// CheckNonRootUser verifies the container process runs as a non-root user
// with the expected username.
func (s *Suite) CheckNonRootUser(ctx context.Context) error {
	return s.withContainer(ctx, s.cfg.SettleDelay, func(id string) error {
		res, err := s.cli.Exec(ctx, id, []string{"id", "-u"}, s.cfg.ExecTimeout)
		if err != nil {
			return err
		}
		uid := strings.TrimSpace(res.Output)
		if uid == "0" {
			return fmt.Errorf("container should not run as root, got user ID: %s", uid)
		}

		res, err = s.cli.Exec(ctx, id, []string{"whoami"}, s.cfg.ExecTimeout)
		if err != nil {
			return err
		}
		if username := strings.TrimSpace(res.Output); username != s.cfg.ExpectedUser {
			return fmt.Errorf("expected user %q, got %q", s.cfg.ExpectedUser, username)
		}
		return nil
	})
}

// CheckHealth verifies the daemon-reported health status (when the image
// defines a healthcheck) and that the root endpoint answers HTTP 200 on the
// mapped host port.
func (s *Suite) CheckHealth(ctx context.Context) error {
	return s.withContainer(ctx, s.cfg.HealthSettleDelay, func(id string) error {
		info, err := s.cli.Inspect(ctx, id)
		if err != nil {
			return err
		}
		if info.HealthStatus != "" &&
			info.HealthStatus != healthHealthy &&
			info.HealthStatus != healthStarting {
			return fmt.Errorf("unhealthy container status: %s", info.HealthStatus)
		}

		url := fmt.Sprintf("http://%s:%s/", s.cfg.HostIP, s.cfg.HostPort)
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
		if err != nil {
			return err
		}
		resp, err := s.httpClient.Do(req)
		if err != nil {
			return fmt.Errorf("probe %s: %w", url, err)
		}
		defer resp.Body.Close()
		if resp.StatusCode != http.StatusOK {
			return fmt.Errorf("probe %s: expected 200, got %d", url, resp.StatusCode)
		}
		return nil
	})
}

// CheckFilePermissions verifies nothing under the application directory is
// world-writable and the main application file is readable.
func (s *Suite) CheckFilePermissions(ctx context.Context) error {
	return s.withContainer(ctx, s.cfg.SettleDelay, func(id string) error {
		res, err := s.cli.Exec(ctx, id, []string{"ls", "-la", s.cfg.AppDir}, s.cfg.ExecTimeout)
		if err != nil {
			return err
		}
		if strings.Contains(res.Output, "rwxrwxrwx") {
			return fmt.Errorf("%s contains world-writable entries", s.cfg.AppDir)
		}

		res, err = s.cli.Exec(ctx, id,
			[]string{"sh", "-c", fmt.Sprintf("test -r %s", s.cfg.AppFile)}, s.cfg.ExecTimeout)
		if err != nil {
			return err
		}
		if res.ExitCode != 0 {
			return fmt.Errorf("main application file %s should be readable (exit %d)",
				s.cfg.AppFile, res.ExitCode)
		}
		return nil
	})
}

// CheckLabels verifies the container carries the standard OCI image labels
// with a non-empty title and description and the expected vendor.
func (s *Suite) CheckLabels(ctx context.Context) error {
	return s.withContainer(ctx, s.cfg.SettleDelay, func(id string) error {
		info, err := s.cli.Inspect(ctx, id)
		if err != nil {
			return err
		}
		for _, key := range []string{ocispec.AnnotationTitle, ocispec.AnnotationDescription} {
			if info.Labels[key] == "" {
				return fmt.Errorf("missing or empty label %s", key)
			}
		}
		if vendor := info.Labels[ocispec.AnnotationVendor]; vendor != s.cfg.Vendor {
			return fmt.Errorf("expected vendor label %q, got %q", s.cfg.Vendor, vendor)
		}
		return nil
	})
}
