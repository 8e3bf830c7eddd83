// SPDX-License-Identifier: MPL-2.0

package runner

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/xrunhq/xrun/internal/app/execute"
	"github.com/xrunhq/xrun/internal/engine"

	"github.com/cenkalti/backoff/v4"
)

type (
	// Options are the per-command settings shared by Executor and BatchRunner.
	Options struct {
		// Retry is the number of attempts after the first; 0 means exactly one attempt.
		Retry int
		// DryRun describes the command instead of running it.
		DryRun bool
		// Quiet suppresses result reporting. BatchRunner forces it in parallel mode.
		Quiet bool
		// Verbose asks the reporter for stderr and failure details.
		Verbose bool
	}

	// Executor runs a single command under the retry policy.
	// It holds no per-run state and is safe for concurrent use.
	Executor struct {
		factory  engine.Factory
		dryRun   io.Writer
		newTimer func() backoff.Timer
		step     time.Duration
	}

	// ExecutorOption configures an Executor.
	ExecutorOption func(*Executor)
)

// WithDryRunOutput sets where dry-run descriptions are written. Defaults to os.Stdout.
func WithDryRunOutput(w io.Writer) ExecutorOption {
	return func(e *Executor) {
		e.dryRun = w
	}
}

// WithTimer sets the timer factory used to wait between attempts.
// A nil factory (the default) uses real timers.
func WithTimer(fn func() backoff.Timer) ExecutorOption {
	return func(e *Executor) {
		e.newTimer = fn
	}
}

// WithBackoffStep sets the linear backoff unit.
func WithBackoffStep(d time.Duration) ExecutorOption {
	return func(e *Executor) {
		if d > 0 {
			e.step = d
		}
	}
}

// NewExecutor creates an Executor that asks factory for a fresh handle on every attempt.
func NewExecutor(factory engine.Factory, opts ...ExecutorOption) *Executor {
	e := &Executor{
		factory: factory,
		dryRun:  os.Stdout,
		step:    DefaultBackoffStep,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Run executes command with up to opts.Retry+1 attempts. The error of the final
// attempt is returned as is. A dry run writes a description and returns (nil, nil)
// without creating any engine.
func (e *Executor) Run(ctx context.Context, command string, execCtx *execute.ExecutionContext, opts Options) (*engine.Result, error) {
	if execCtx == nil {
		return nil, errors.New("run: execution context is required")
	}
	if opts.DryRun {
		return nil, e.describe(command, execCtx)
	}

	var (
		result  *engine.Result
		attempt int
	)
	operation := func() error {
		if err := ctx.Err(); err != nil {
			return backoff.Permanent(err)
		}
		attempt++

		handle, err := e.factory.New(execCtx.Adapter())
		if err != nil {
			return backoff.Permanent(err)
		}
		applyContext(handle, execCtx)

		res, err := handle.Execute(ctx, command)
		if err != nil {
			return err
		}
		result = res
		return nil
	}

	notify := func(err error, wait time.Duration) {
		slog.Debug("command attempt failed, retrying",
			"run", execCtx.RunID(),
			"command", command,
			"attempt", attempt,
			"max_attempts", opts.Retry+1,
			"wait", wait,
			"error", err)
	}

	var timer backoff.Timer
	if e.newTimer != nil {
		timer = e.newTimer()
	}

	if err := backoff.RetryNotifyWithTimer(operation, retryPolicy(ctx, e.step, opts.Retry), notify, timer); err != nil {
		return nil, err
	}
	return result, nil
}

// applyContext copies only the settings present in execCtx onto handle.
func applyContext(h *engine.Handle, execCtx *execute.ExecutionContext) {
	if env := execCtx.Env(); env != nil {
		h.WithEnv(env)
	}
	if cwd := execCtx.Cwd(); cwd != "" {
		h.WithCwd(cwd)
	}
	if timeout := execCtx.Timeout(); timeout > 0 {
		h.WithTimeout(timeout)
	}
	if shell := execCtx.Shell(); shell.IsSet() {
		h.WithShell(shell)
	}
}

func (e *Executor) describe(command string, execCtx *execute.ExecutionContext) error {
	var sb strings.Builder
	fmt.Fprintf(&sb, "[dry-run] would execute: %s\n", command)
	fmt.Fprintf(&sb, "  adapter: %s\n", execCtx.Adapter().Describe())
	if cwd := execCtx.Cwd(); cwd != "" {
		fmt.Fprintf(&sb, "  cwd: %s\n", cwd)
	}
	if keys := execCtx.EnvKeys(); len(keys) > 0 {
		env := execCtx.Env()
		pairs := make([]string, 0, len(keys))
		for _, k := range keys {
			pairs = append(pairs, k+"="+env[k])
		}
		fmt.Fprintf(&sb, "  env: %s\n", strings.Join(pairs, " "))
	}
	if timeout := execCtx.Timeout(); timeout > 0 {
		fmt.Fprintf(&sb, "  timeout: %s\n", timeout)
	}
	if shell := execCtx.Shell(); shell.IsSet() {
		fmt.Fprintf(&sb, "  shell: %s\n", shell)
	}

	if _, err := io.WriteString(e.dryRun, sb.String()); err != nil {
		return fmt.Errorf("write dry run: %w", err)
	}
	return nil
}
