package probe

import (
	"context"
	"fmt"
	"net"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	ocispec "github.com/opencontainers/image-spec/specs-go/v1"

	"github.com/khulnasoft/readyapp-docker/internal/config"
	"github.com/khulnasoft/readyapp-docker/internal/docker"
)

// fakeClient implements docker.Client with scripted responses.
type fakeClient struct {
	execResults  map[string]docker.ExecResult
	info         docker.ContainerInfo
	runErr       error
	started      []string
	stopRemoved  []string
	removedNames []string
}

func (f *fakeClient) RemoveMatching(ctx context.Context, name string) error {
	f.removedNames = append(f.removedNames, name)
	return nil
}

func (f *fakeClient) RunDetached(ctx context.Context, image, name string, port docker.PortBinding) (string, error) {
	if f.runErr != nil {
		return "", f.runErr
	}
	f.started = append(f.started, name)
	return "cid", nil
}

func (f *fakeClient) Exec(ctx context.Context, containerID string, cmd []string, timeout time.Duration) (docker.ExecResult, error) {
	key := strings.Join(cmd, " ")
	if res, ok := f.execResults[key]; ok {
		return res, nil
	}
	return docker.ExecResult{}, fmt.Errorf("unexpected exec: %s", key)
}

func (f *fakeClient) Inspect(ctx context.Context, containerID string) (docker.ContainerInfo, error) {
	return f.info, nil
}

func (f *fakeClient) StopAndRemove(ctx context.Context, containerID string) error {
	f.stopRemoved = append(f.stopRemoved, containerID)
	return nil
}

func (f *fakeClient) ImageLabels(ctx context.Context, image string) (map[string]string, error) {
	return f.info.Labels, nil
}

func goodLabels(vendor string) map[string]string {
	return map[string]string{
		ocispec.AnnotationTitle:       "readyapp",
		ocispec.AnnotationDescription: "Go HTTP application in a hardened container",
		ocispec.AnnotationVendor:      vendor,
	}
}

func goodFake(cfg *config.Config) *fakeClient {
	return &fakeClient{
		execResults: map[string]docker.ExecResult{
			"id -u":  {ExitCode: 0, Output: "1000\n"},
			"whoami": {ExitCode: 0, Output: cfg.ExpectedUser + "\n"},
			"ls -la " + cfg.AppDir: {ExitCode: 0,
				Output: "drwxr-xr-x 2 appuser appuser 4096 . \n-rwxr-xr-x 1 appuser appuser 123 readyapp\n"},
			"sh -c test -r " + cfg.AppFile: {ExitCode: 0},
		},
		info: docker.ContainerInfo{
			ID:           "cid",
			Running:      true,
			HealthStatus: "healthy",
			User:         cfg.ExpectedUser,
			Labels:       goodLabels(cfg.Vendor),
		},
	}
}

// newTestSuite wires a suite against the fake client and an httptest server
// standing in for the containerized application.
func newTestSuite(t *testing.T, cli *fakeClient, cfg *config.Config) *Suite {
	t.Helper()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))
	t.Cleanup(srv.Close)

	host, port, err := net.SplitHostPort(strings.TrimPrefix(srv.URL, "http://"))
	if err != nil {
		t.Fatalf("split host port: %v", err)
	}
	cfg.HostIP = host
	cfg.HostPort = port

	s, err := New(cli, cfg)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	s.sleep = func(time.Duration) {}
	return s
}

func TestNewRejectsInvalidImageReference(t *testing.T) {
	cfg := config.DefaultConfig()
	cfg.ImageRepository = "UPPER CASE/invalid"
	if _, err := New(&fakeClient{}, cfg); err == nil {
		t.Fatal("expected error for invalid image reference")
	}
}

func TestRunAllChecksPass(t *testing.T) {
	cfg := config.DefaultConfig()
	cli := goodFake(cfg)
	s := newTestSuite(t, cli, cfg)

	results := s.Run(context.Background())
	if len(results) != len(s.Checks()) {
		t.Fatalf("expected %d results, got %d", len(s.Checks()), len(results))
	}
	if failed := Failed(results); len(failed) != 0 {
		t.Fatalf("expected no failures, got %+v", failed)
	}
	// four container-backed checks, each cleaned up
	if len(cli.stopRemoved) != 4 {
		t.Fatalf("expected 4 cleanups, got %d", len(cli.stopRemoved))
	}
}

func TestCheckNonRootUserRejectsRoot(t *testing.T) {
	cfg := config.DefaultConfig()
	cli := goodFake(cfg)
	cli.execResults["id -u"] = docker.ExecResult{ExitCode: 0, Output: "0\n"}
	s := newTestSuite(t, cli, cfg)

	err := s.CheckNonRootUser(context.Background())
	if err == nil || !strings.Contains(err.Error(), "root") {
		t.Fatalf("expected root rejection, got %v", err)
	}
	// cleanup still ran on the failure path
	if len(cli.stopRemoved) != 1 {
		t.Fatalf("expected cleanup after failed check, got %d", len(cli.stopRemoved))
	}
}

func TestCheckNonRootUserRejectsWrongUsername(t *testing.T) {
	cfg := config.DefaultConfig()
	cli := goodFake(cfg)
	cli.execResults["whoami"] = docker.ExecResult{ExitCode: 0, Output: "root\n"}
	s := newTestSuite(t, cli, cfg)

	if err := s.CheckNonRootUser(context.Background()); err == nil {
		t.Fatal("expected username mismatch error")
	}
}

func TestCheckHealthAcceptsStarting(t *testing.T) {
	cfg := config.DefaultConfig()
	cli := goodFake(cfg)
	cli.info.HealthStatus = "starting"
	s := newTestSuite(t, cli, cfg)

	if err := s.CheckHealth(context.Background()); err != nil {
		t.Fatalf("starting should be accepted: %v", err)
	}
}

func TestCheckHealthAcceptsNoHealthcheck(t *testing.T) {
	cfg := config.DefaultConfig()
	cli := goodFake(cfg)
	cli.info.HealthStatus = ""
	s := newTestSuite(t, cli, cfg)

	if err := s.CheckHealth(context.Background()); err != nil {
		t.Fatalf("missing healthcheck should be accepted: %v", err)
	}
}

func TestCheckHealthRejectsUnhealthy(t *testing.T) {
	cfg := config.DefaultConfig()
	cli := goodFake(cfg)
	cli.info.HealthStatus = "unhealthy"
	s := newTestSuite(t, cli, cfg)

	if err := s.CheckHealth(context.Background()); err == nil {
		t.Fatal("expected unhealthy status to fail")
	}
}

func TestCheckHealthFailsOnNon200(t *testing.T) {
	cfg := config.DefaultConfig()
	cli := goodFake(cfg)

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer srv.Close()
	host, port, _ := net.SplitHostPort(strings.TrimPrefix(srv.URL, "http://"))
	cfg.HostIP = host
	cfg.HostPort = port

	s, err := New(cli, cfg)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	s.sleep = func(time.Duration) {}

	if err := s.CheckHealth(context.Background()); err == nil {
		t.Fatal("expected HTTP probe failure")
	}
}

func TestCheckFilePermissionsRejectsWorldWritable(t *testing.T) {
	cfg := config.DefaultConfig()
	cli := goodFake(cfg)
	cli.execResults["ls -la "+cfg.AppDir] = docker.ExecResult{
		ExitCode: 0,
		Output:   "-rwxrwxrwx 1 appuser appuser 123 readyapp\n",
	}
	s := newTestSuite(t, cli, cfg)

	if err := s.CheckFilePermissions(context.Background()); err == nil {
		t.Fatal("expected world-writable rejection")
	}
}

func TestCheckFilePermissionsRequiresReadableAppFile(t *testing.T) {
	cfg := config.DefaultConfig()
	cli := goodFake(cfg)
	cli.execResults["sh -c test -r "+cfg.AppFile] = docker.ExecResult{ExitCode: 1}
	s := newTestSuite(t, cli, cfg)

	if err := s.CheckFilePermissions(context.Background()); err == nil {
		t.Fatal("expected unreadable app file rejection")
	}
}

func TestCheckLabels(t *testing.T) {
	cfg := config.DefaultConfig()

	t.Run("missing title", func(t *testing.T) {
		cli := goodFake(cfg)
		delete(cli.info.Labels, ocispec.AnnotationTitle)
		s := newTestSuite(t, cli, cfg)
		if err := s.CheckLabels(context.Background()); err == nil {
			t.Fatal("expected missing title rejection")
		}
	})

	t.Run("wrong vendor", func(t *testing.T) {
		cli := goodFake(cfg)
		cli.info.Labels[ocispec.AnnotationVendor] = "SomeoneElse"
		s := newTestSuite(t, cli, cfg)
		if err := s.CheckLabels(context.Background()); err == nil {
			t.Fatal("expected vendor mismatch rejection")
		}
	})
}

func TestCheckVariant(t *testing.T) {
	cfg := config.DefaultConfig()
	cfg.ImageVariant = "go1.20"
	cfg.MinimumVariant = "1.21"
	cli := goodFake(cfg)
	s := newTestSuite(t, cli, cfg)

	if err := s.CheckVariant(context.Background()); err == nil {
		t.Fatal("expected variant below minimum to fail")
	}
}

func TestContainerNames(t *testing.T) {
	cfg := config.DefaultConfig()
	cfg.UniqueNames = false
	cli := goodFake(cfg)
	s := newTestSuite(t, cli, cfg)
	if got := s.containerName(); got != cfg.ContainerName {
		t.Fatalf("expected fixed name %q, got %q", cfg.ContainerName, got)
	}

	cfg.UniqueNames = true
	a, b := s.containerName(), s.containerName()
	if a == b {
		t.Fatalf("expected unique names, got %q twice", a)
	}
	if !strings.HasPrefix(a, cfg.ContainerName+"-") {
		t.Fatalf("unique name %q should keep the configured prefix", a)
	}
}

func TestPreviousContainerRemovedBeforeRun(t *testing.T) {
	cfg := config.DefaultConfig()
	cli := goodFake(cfg)
	s := newTestSuite(t, cli, cfg)

	if err := s.CheckNonRootUser(context.Background()); err != nil {
		t.Fatalf("check failed: %v", err)
	}
	if len(cli.removedNames) != 1 || cli.removedNames[0] != cfg.ContainerName {
		t.Fatalf("expected previous container by fixed name removed, got %v", cli.removedNames)
	}
}
