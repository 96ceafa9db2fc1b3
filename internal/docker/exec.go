package docker

import (
	"bytes"
	"context"
	"fmt"
	"time"

	containertypes "github.com/docker/docker/api/types/container"
	"github.com/docker/docker/pkg/stdcopy"

	"github.com/khulnasoft/readyapp-docker/internal/logging"
)

// Exec runs a command inside the container, waits for it to finish and
// returns its exit code together with the combined stdout/stderr output.
func (s *sdkClient) Exec(ctx context.Context, containerID string, cmd []string, timeout time.Duration) (ExecResult, error) {
	execResp, err := s.cli.ContainerExecCreate(ctx, containerID, containertypes.ExecOptions{
		Cmd:          cmd,
		AttachStdout: true,
		AttachStderr: true,
	})
	if err != nil {
		return ExecResult{}, fmt.Errorf("exec create: %w", err)
	}

	attach, err := s.cli.ContainerExecAttach(ctx, execResp.ID, containertypes.ExecStartOptions{})
	if err != nil {
		return ExecResult{}, fmt.Errorf("exec attach: %w", err)
	}
	defer attach.Close()

	// Exec output is multiplexed; demux stdout and stderr into one buffer.
	var out bytes.Buffer
	if _, err := stdcopy.StdCopy(&out, &out, attach.Reader); err != nil {
		return ExecResult{}, fmt.Errorf("exec read output: %w", err)
	}

	code, err := s.waitForExecExit(ctx, execResp.ID, timeout)
	if err != nil {
		return ExecResult{}, err
	}
	logging.Get().Debug().
		Str("container", containerID).
		Strs("cmd", cmd).
		Int("exit_code", code).
		Msg("exec finished")
	return ExecResult{ExitCode: code, Output: out.String()}, nil
}

// waitForExecExit polls exec inspect until the command has exited or the
// timeout elapses. The output stream is already drained at this point, so in
// practice the first inspect usually reports the final state.
func (s *sdkClient) waitForExecExit(ctx context.Context, execID string, timeout time.Duration) (int, error) {
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	deadline := time.Now().Add(timeout)
	for time.Now().Before(deadline) {
		if ctx.Err() != nil {
			return 0, fmt.Errorf("exec canceled: %w", ctx.Err())
		}
		insp, err := s.cli.ContainerExecInspect(ctx, execID)
		if err != nil {
			return 0, fmt.Errorf("exec inspect: %w", err)
		}
		if !insp.Running {
			return insp.ExitCode, nil
		}
		select {
		case <-ctx.Done():
			return 0, fmt.Errorf("exec canceled: %w", ctx.Err())
		case <-time.After(execPollInterval):
		}
	}
	return 0, fmt.Errorf("exec %s timed out after %s", execID, timeout)
}
