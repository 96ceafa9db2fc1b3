// Package probe implements the container smoke checks: it starts one
// container per check from the image under test, waits for it to settle,
// asserts on runtime properties, and guarantees stop+remove cleanup on every
// exit path.
package probe

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/google/go-containerregistry/pkg/name"
	"github.com/google/uuid"

	"github.com/khulnasoft/readyapp-docker/internal/config"
	"github.com/khulnasoft/readyapp-docker/internal/docker"
	"github.com/khulnasoft/readyapp-docker/internal/logging"
	"github.com/khulnasoft/readyapp-docker/internal/metrics"
)

// Suite runs the smoke checks against a single image.
type Suite struct {
	cli        docker.Client
	cfg        *config.Config
	httpClient *http.Client

	// sleep is replaceable so tests don't pay for real settle delays.
	sleep func(time.Duration)
}

// Result is the outcome of a single check.
type Result struct {
	Check    string
	Duration time.Duration
	Err      error
}

// Check is a named smoke check.
type Check struct {
	Name string
	Run  func(ctx context.Context) error
}

// New creates a Suite for the configured image. The image reference is
// validated up front so a malformed repository or tag fails fast instead of
// surfacing as a confusing daemon error.
func New(cli docker.Client, cfg *config.Config) (*Suite, error) {
	if _, err := name.ParseReference(cfg.Image()); err != nil {
		return nil, fmt.Errorf("invalid image reference %q: %w", cfg.Image(), err)
	}
	return &Suite{
		cli:        cli,
		cfg:        cfg,
		httpClient: &http.Client{Timeout: cfg.HTTPTimeout},
		sleep:      time.Sleep,
	}, nil
}

// Checks returns the smoke checks in execution order.
func (s *Suite) Checks() []Check {
	return []Check{
		{Name: "image_variant", Run: s.CheckVariant},
		{Name: "non_root_user", Run: s.CheckNonRootUser},
		{Name: "health_check", Run: s.CheckHealth},
		{Name: "file_permissions", Run: s.CheckFilePermissions},
		{Name: "container_labels", Run: s.CheckLabels},
	}
}

// Run executes every check sequentially, one container per check, and
// returns all results. A failed check does not stop the remaining ones.
func (s *Suite) Run(ctx context.Context) []Result {
	results := make([]Result, 0, len(s.Checks()))
	for _, c := range s.Checks() {
		start := time.Now()
		err := c.Run(ctx)
		d := time.Since(start)

		metrics.IncProbeRun()
		metrics.ObserveProbeDuration(d.Seconds())
		if err != nil {
			metrics.IncProbeFailure(c.Name)
			logging.Get().Error().Err(err).Str("check", c.Name).Dur("duration", d).Msg("check failed")
		} else {
			logging.Get().Info().Str("check", c.Name).Dur("duration", d).Msg("check passed")
		}
		results = append(results, Result{Check: c.Name, Duration: d, Err: err})
	}
	metrics.SetLastProbeRun(time.Now())
	return results
}

// Failed returns the results that carry an error.
func Failed(results []Result) []Result {
	var failed []Result
	for _, r := range results {
		if r.Err != nil {
			failed = append(failed, r)
		}
	}
	return failed
}

// containerName returns the configured container name, uniquified with a
// random suffix when enabled so aborted runs cannot collide.
func (s *Suite) containerName() string {
	if !s.cfg.UniqueNames {
		return s.cfg.ContainerName
	}
	return fmt.Sprintf("%s-%.8s", s.cfg.ContainerName, uuid.NewString())
}

// withContainer removes any leftover container with the configured name,
// starts a fresh one, sleeps for the settle delay, runs fn, and always stops
// and removes the container afterwards, including when fn fails.
func (s *Suite) withContainer(ctx context.Context, settle time.Duration, fn func(containerID string) error) error {
	if err := s.cli.RemoveMatching(ctx, s.cfg.ContainerName); err != nil {
		return fmt.Errorf("remove previous container: %w", err)
	}

	id, err := s.cli.RunDetached(ctx, s.cfg.Image(), s.containerName(), docker.PortBinding{
		ContainerPort: s.cfg.ContainerPort,
		HostIP:        s.cfg.HostIP,
		HostPort:      s.cfg.HostPort,
	})
	if err != nil {
		return fmt.Errorf("start container: %w", err)
	}
	defer func() {
		if cerr := s.cli.StopAndRemove(ctx, id); cerr != nil {
			logging.Get().Warn().Err(cerr).Str("container", id).Msg("cleanup failed")
		}
	}()

	s.sleep(settle)
	return fn(id)
}
