// SPDX-License-Identifier: MPL-2.0

package engine

import (
	"bytes"
	"context"
	"errors"
	"os/exec"
	"time"

	"github.com/xrunhq/xrun/pkg/types"
)

// waitDelay bounds how long Wait blocks on output pipes after the process is
// killed (grandchildren may keep them open).
const waitDelay = 2 * time.Second

type (
	// ExecCommandFunc creates an exec.Cmd. Tests replace it with a
	// TestHelperProcess-backed mock.
	ExecCommandFunc func(ctx context.Context, name string, arg ...string) *exec.Cmd

	// BaseCLIEngine runs one external CLI (docker, kubectl) and captures its output.
	// DockerEngine and KubernetesEngine embed it.
	BaseCLIEngine struct {
		binary      string
		execCommand ExecCommandFunc
	}

	// BaseCLIEngineOption configures a BaseCLIEngine.
	BaseCLIEngineOption func(*BaseCLIEngine)
)

// WithExecCommand sets the exec.Cmd factory.
func WithExecCommand(fn ExecCommandFunc) BaseCLIEngineOption {
	return func(e *BaseCLIEngine) {
		e.execCommand = fn
	}
}

// WithBinary overrides the CLI binary (for example a full path to docker).
func WithBinary(path string) BaseCLIEngineOption {
	return func(e *BaseCLIEngine) {
		if path != "" {
			e.binary = path
		}
	}
}

// NewBaseCLIEngine creates a BaseCLIEngine for binary.
func NewBaseCLIEngine(binary string, opts ...BaseCLIEngineOption) *BaseCLIEngine {
	e := &BaseCLIEngine{
		binary:      binary,
		execCommand: exec.CommandContext,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Binary returns the CLI binary name or path.
func (e *BaseCLIEngine) Binary() string { return e.binary }

// RunCLI runs the binary with args, capturing stdout and stderr into a Result
// for command. Exit-code semantics follow the Engine contract.
func (e *BaseCLIEngine) RunCLI(ctx context.Context, command string, args []string) (*Result, error) {
	cmd := e.execCommand(ctx, e.binary, args...)
	return runCaptured(ctx, cmd, command, e.binary)
}

// runCaptured runs cmd, capturing output, and maps the outcome to the Engine contract.
func runCaptured(ctx context.Context, cmd *exec.Cmd, command, program string) (*Result, error) {
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr
	cmd.WaitDelay = waitDelay

	err := cmd.Run()
	if err == nil {
		return newResult(command, 0, stdout.String(), stderr.String()), nil
	}

	// A process killed because its context ended is reported by the Handle.
	if ctx.Err() != nil {
		return nil, ctx.Err()
	}

	var exitErr *exec.ExitError
	if errors.As(err, &exitErr) {
		res := newResult(command, types.NormalizeExitCode(exitErr.ExitCode()), stdout.String(), stderr.String())
		return finish(res)
	}
	return nil, &StartError{Program: program, Err: err}
}
