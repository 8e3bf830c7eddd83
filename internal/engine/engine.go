// SPDX-License-Identifier: MPL-2.0

package engine

import (
	"context"
	"errors"
	"maps"
	"time"

	"github.com/xrunhq/xrun/internal/adapter"
	"github.com/xrunhq/xrun/internal/app/execute"
	"github.com/xrunhq/xrun/pkg/types"
)

type (
	// Invocation is one attempt: the command text plus the settings applied to the handle.
	Invocation struct {
		Command string
		// Env holds overrides on top of the backend's environment; nil means none.
		Env     map[string]string
		Cwd     string
		Shell   execute.ShellMode
		Timeout time.Duration
	}

	// Result is the captured outcome of one command.
	Result struct {
		Command  string         `json:"command" yaml:"command"`
		ExitCode types.ExitCode `json:"exitCode" yaml:"exitCode"`
		Stdout   string         `json:"stdout" yaml:"stdout"`
		Stderr   string         `json:"stderr" yaml:"stderr"`
	}

	// Engine runs an Invocation against one backend. Implementations return
	// (*Result, nil) on exit code 0, (*Result, *ExitError) on a non-zero exit,
	// and a *StartError or *ConnectError when the command could not be started.
	// The timeout is enforced by the Handle through ctx.
	Engine interface {
		Name() adapter.Name
		Run(ctx context.Context, inv Invocation) (*Result, error)
	}

	// Handle binds an Engine to the settings of one command execution.
	// A Handle is not safe for concurrent use; create one per attempt.
	Handle struct {
		engine Engine
		inv    Invocation
	}
)

// NewHandle wraps an Engine.
func NewHandle(e Engine) *Handle {
	return &Handle{engine: e}
}

// Engine returns the wrapped engine.
func (h *Handle) Engine() Engine { return h.engine }

// WithEnv sets environment overrides. The map is copied.
func (h *Handle) WithEnv(env map[string]string) *Handle {
	h.inv.Env = maps.Clone(env)
	return h
}

// WithCwd sets the working directory.
func (h *Handle) WithCwd(cwd string) *Handle {
	h.inv.Cwd = cwd
	return h
}

// WithTimeout bounds Execute; zero means no limit.
func (h *Handle) WithTimeout(d time.Duration) *Handle {
	h.inv.Timeout = d
	return h
}

// WithShell sets the shell mode.
func (h *Handle) WithShell(mode execute.ShellMode) *Handle {
	h.inv.Shell = mode
	return h
}

// Invocation returns the settings that Execute will use for command.
func (h *Handle) Invocation(command string) Invocation {
	inv := h.inv
	inv.Command = command
	return inv
}

// Execute runs command. An expired timeout is reported as *TimeoutError; a
// cancelled parent context is returned as ctx.Err().
func (h *Handle) Execute(ctx context.Context, command string) (*Result, error) {
	inv := h.Invocation(command)

	runCtx := ctx
	if inv.Timeout > 0 {
		var cancel context.CancelFunc
		runCtx, cancel = context.WithTimeout(ctx, inv.Timeout)
		defer cancel()
	}

	res, err := h.engine.Run(runCtx, inv)
	if err == nil {
		return res, nil
	}

	if ctx.Err() != nil {
		return nil, ctx.Err()
	}
	if inv.Timeout > 0 && errors.Is(runCtx.Err(), context.DeadlineExceeded) {
		return nil, &TimeoutError{Command: command, Timeout: inv.Timeout}
	}
	return res, err
}

func newResult(command string, code types.ExitCode, stdout, stderr string) *Result {
	return &Result{Command: command, ExitCode: code, Stdout: stdout, Stderr: stderr}
}

// finish turns a captured result into the Engine contract: non-zero exits
// become *ExitError.
func finish(res *Result) (*Result, error) {
	if res.ExitCode.IsSuccess() {
		return res, nil
	}
	return res, &ExitError{Command: res.Command, Code: res.ExitCode, Stderr: res.Stderr}
}
