// Package docker wraps the official Docker SDK with the small set of
// container operations the smoke harness needs: run a detached container
// with a port binding, exec commands inside it, inspect it, and guarantee
// stop+remove cleanup.
package docker

import (
	"context"
	"fmt"
	"io"
	"regexp"
	"strings"
	"time"
	"unicode"

	"github.com/docker/docker/api/types"
	containertypes "github.com/docker/docker/api/types/container"
	imageapi "github.com/docker/docker/api/types/image"
	"github.com/docker/docker/api/types/network"
	"github.com/docker/docker/client"
	"github.com/docker/go-connections/nat"
	ocispec "github.com/opencontainers/image-spec/specs-go/v1"

	"github.com/khulnasoft/readyapp-docker/internal/logging"
)

const (
	maxNameLen       = 64
	execPollInterval = 500 * time.Millisecond
	stopTimeoutSecs  = 10
)

// Client is the interface used by the probe suite for Docker operations.
type Client interface {
	// RemoveMatching force-removes any existing container with the given
	// name, so a fresh run never collides with leftovers of a previous one.
	RemoveMatching(ctx context.Context, name string) error
	// RunDetached pulls the image if absent, creates a detached container
	// with the given name and port binding, starts it and returns its ID.
	RunDetached(ctx context.Context, image, name string, port PortBinding) (string, error)
	// Exec runs a command inside the container and returns its exit code
	// and combined output.
	Exec(ctx context.Context, containerID string, cmd []string, timeout time.Duration) (ExecResult, error)
	// Inspect returns the state the smoke checks assert on.
	Inspect(ctx context.Context, containerID string) (ContainerInfo, error)
	// StopAndRemove stops the container and removes it. Used in cleanup
	// paths, so it keeps going past the stop error and reports the first
	// failure encountered.
	StopAndRemove(ctx context.Context, containerID string) error
	// ImageLabels returns the labels baked into the image config.
	ImageLabels(ctx context.Context, image string) (map[string]string, error)
}

// dockerAPI is the subset of the Docker SDK client used by sdkClient.
// Narrowed so tests can substitute a fake.
type dockerAPI interface {
	ImagePull(ctx context.Context, refStr string, options imageapi.PullOptions) (io.ReadCloser, error)
	ImageInspectWithRaw(ctx context.Context, image string) (types.ImageInspect, []byte, error)
	ContainerCreate(ctx context.Context, config *containertypes.Config, hostConfig *containertypes.HostConfig, networkingConfig *network.NetworkingConfig, platform *ocispec.Platform, containerName string) (containertypes.CreateResponse, error)
	ContainerStart(ctx context.Context, containerID string, options containertypes.StartOptions) error
	ContainerStop(ctx context.Context, containerID string, options containertypes.StopOptions) error
	ContainerRemove(ctx context.Context, containerID string, options containertypes.RemoveOptions) error
	ContainerInspect(ctx context.Context, containerID string) (types.ContainerJSON, error)
	ContainerList(ctx context.Context, options containertypes.ListOptions) ([]types.Container, error)
	ContainerExecCreate(ctx context.Context, container string, config containertypes.ExecOptions) (containertypes.ExecCreateResponse, error)
	ContainerExecAttach(ctx context.Context, execID string, config containertypes.ExecStartOptions) (types.HijackedResponse, error)
	ContainerExecInspect(ctx context.Context, execID string) (containertypes.ExecInspect, error)
}

// sdkClient is the production implementation using the official Docker SDK.
type sdkClient struct {
	cli           dockerAPI
	sanitizeNames bool
}

// NewClient creates a Client backed by the Docker daemon configured in the
// environment (DOCKER_HOST et al.), with API version negotiation.
func NewClient() (Client, error) {
	cli, err := client.NewClientWithOpts(client.FromEnv, client.WithAPIVersionNegotiation())
	if err != nil {
		return nil, fmt.Errorf("failed to create docker client: %w", err)
	}
	return &sdkClient{cli: cli, sanitizeNames: true}, nil
}

// sanitizeName returns a Docker-safe container name by removing disallowed
// characters, normalizing to lowercase, and ensuring the name starts with an
// alphanumeric character. It enforces a maximum length of maxNameLen.
// If the resulting name would be empty, it falls back to "container".
func (s *sdkClient) sanitizeName(name string) string {
	if s.sanitizeNames {
		name = strings.ToLower(name)
	}
	re := regexp.MustCompile(`[^a-zA-Z0-9_.-]`)
	clean := re.ReplaceAllString(name, "")
	if clean == "" {
		return "container"
	}
	if len(clean) > maxNameLen {
		clean = clean[:maxNameLen]
	}
	r := rune(clean[0])
	if !unicode.IsLetter(r) && !unicode.IsDigit(r) {
		clean = "c" + clean
		if len(clean) > maxNameLen {
			clean = clean[:maxNameLen]
		}
	}
	return clean
}

// RemoveMatching force-removes any container (running or stopped) whose name
// matches. Missing containers are not an error.
func (s *sdkClient) RemoveMatching(ctx context.Context, name string) error {
	name = s.sanitizeName(name)
	containers, err := s.cli.ContainerList(ctx, containertypes.ListOptions{All: true})
	if err != nil {
		return fmt.Errorf("list containers: %w", err)
	}
	for _, c := range containers {
		for _, n := range c.Names {
			if strings.TrimPrefix(n, "/") != name {
				continue
			}
			logging.Get().Info().Str("container", c.ID).Str("name", name).Msg("removing previous container")
			if err := s.cli.ContainerRemove(ctx, c.ID, containertypes.RemoveOptions{Force: true}); err != nil {
				return fmt.Errorf("remove previous container %s: %w", c.ID, err)
			}
		}
	}
	return nil
}

// RunDetached pulls the image when it is not present locally, then creates
// and starts a detached container publishing the given port binding.
func (s *sdkClient) RunDetached(ctx context.Context, image, name string, port PortBinding) (string, error) {
	if err := s.ensureImage(ctx, image); err != nil {
		return "", err
	}

	containerPort, err := nat.NewPort("tcp", port.ContainerPort)
	if err != nil {
		return "", fmt.Errorf("invalid container port %q: %w", port.ContainerPort, err)
	}

	cfg := &containertypes.Config{
		Image:        image,
		ExposedPorts: nat.PortSet{containerPort: struct{}{}},
	}
	hostCfg := &containertypes.HostConfig{
		PortBindings: nat.PortMap{
			containerPort: []nat.PortBinding{{HostIP: port.HostIP, HostPort: port.HostPort}},
		},
	}

	resp, err := s.cli.ContainerCreate(ctx, cfg, hostCfg, nil, nil, s.sanitizeName(name))
	if err != nil {
		return "", fmt.Errorf("create container: %w", err)
	}
	if err := s.cli.ContainerStart(ctx, resp.ID, containertypes.StartOptions{}); err != nil {
		// don't leave the created container behind
		_ = s.cli.ContainerRemove(ctx, resp.ID, containertypes.RemoveOptions{Force: true})
		return "", fmt.Errorf("start container: %w", err)
	}
	logging.Get().Info().Str("container", resp.ID).Str("image", image).Msg("container started")
	return resp.ID, nil
}

// ensureImage pulls the image if it is not already present locally.
func (s *sdkClient) ensureImage(ctx context.Context, image string) error {
	if _, _, err := s.cli.ImageInspectWithRaw(ctx, image); err == nil {
		return nil
	}
	logging.Get().Info().Str("image", image).Msg("pulling image")
	rc, err := s.cli.ImagePull(ctx, image, imageapi.PullOptions{})
	if err != nil {
		return fmt.Errorf("pull image %s: %w", image, err)
	}
	defer rc.Close()
	// the pull only completes once the progress stream is drained
	if _, err := io.Copy(io.Discard, rc); err != nil {
		return fmt.Errorf("pull image %s: %w", image, err)
	}
	return nil
}

// Inspect returns the container state the checks assert on.
func (s *sdkClient) Inspect(ctx context.Context, containerID string) (ContainerInfo, error) {
	insp, err := s.cli.ContainerInspect(ctx, containerID)
	if err != nil {
		return ContainerInfo{}, fmt.Errorf("inspect container %s: %w", containerID, err)
	}
	info := ContainerInfo{ID: insp.ID}
	if insp.ContainerJSONBase != nil {
		info.Name = strings.TrimPrefix(insp.Name, "/")
		info.Image = insp.Image
		if insp.State != nil {
			info.Running = insp.State.Running
			if insp.State.Health != nil {
				info.HealthStatus = insp.State.Health.Status
			}
		}
	}
	if insp.Config != nil {
		info.User = insp.Config.User
		info.Labels = insp.Config.Labels
	}
	return info, nil
}

// StopAndRemove stops and removes the container. It always attempts the
// remove, even when the stop fails, and returns the first error seen.
func (s *sdkClient) StopAndRemove(ctx context.Context, containerID string) error {
	timeout := stopTimeoutSecs
	var firstErr error
	if err := s.cli.ContainerStop(ctx, containerID, containertypes.StopOptions{Timeout: &timeout}); err != nil {
		logging.Get().Warn().Err(err).Str("container", containerID).Msg("failed stopping container")
		firstErr = fmt.Errorf("stop container %s: %w", containerID, err)
	}
	if err := s.cli.ContainerRemove(ctx, containerID, containertypes.RemoveOptions{Force: true}); err != nil {
		logging.Get().Warn().Err(err).Str("container", containerID).Msg("failed removing container")
		if firstErr == nil {
			firstErr = fmt.Errorf("remove container %s: %w", containerID, err)
		}
	}
	return firstErr
}

// ImageLabels returns the labels baked into the image config.
func (s *sdkClient) ImageLabels(ctx context.Context, image string) (map[string]string, error) {
	insp, _, err := s.cli.ImageInspectWithRaw(ctx, image)
	if err != nil {
		return nil, fmt.Errorf("inspect image %s: %w", image, err)
	}
	if insp.Config == nil {
		return nil, nil
	}
	return insp.Config.Labels, nil
}
