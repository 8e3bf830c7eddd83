// SPDX-License-Identifier: MPL-2.0

package runner

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/xrunhq/xrun/internal/app/execute"
	"github.com/xrunhq/xrun/internal/engine"

	"golang.org/x/sync/errgroup"
)

type (
	// Failure is one command that did not succeed in a parallel batch.
	Failure struct {
		Command string
		Err     error
	}

	// Summary is the outcome of a parallel batch. It is built once all chunks settle.
	Summary struct {
		Total     int
		Succeeded int
		Failures  []Failure
	}

	// ResultFunc receives each completed result with the options it ran under.
	ResultFunc func(res *engine.Result, opts Options) error

	// ProgressFunc is called after each chunk with the number of settled commands.
	ProgressFunc func(completed, total int)

	// BatchRunner drives a command list through an Executor.
	BatchRunner struct {
		executor   *Executor
		onResult   ResultFunc
		onProgress ProgressFunc
	}

	// BatchOption configures a BatchRunner.
	BatchOption func(*BatchRunner)

	// outcome is the settled state of one command inside a chunk.
	outcome struct {
		command string
		err     error
	}
)

// WithResultFunc sets the callback that reports each successful result.
func WithResultFunc(fn ResultFunc) BatchOption {
	return func(b *BatchRunner) {
		b.onResult = fn
	}
}

// WithProgress sets the per-chunk progress callback.
func WithProgress(fn ProgressFunc) BatchOption {
	return func(b *BatchRunner) {
		b.onProgress = fn
	}
}

// NewBatchRunner creates a BatchRunner on top of executor.
func NewBatchRunner(executor *Executor, opts ...BatchOption) *BatchRunner {
	b := &BatchRunner{executor: executor}
	for _, opt := range opts {
		opt(b)
	}
	return b
}

// Failed reports whether any command failed.
func (s Summary) Failed() bool { return len(s.Failures) > 0 }

// RunAll executes commands. With concurrency <= 1 it runs them in order and stops
// at the first error, which is returned. Otherwise commands run in consecutive
// chunks of size concurrency, every command of a chunk concurrently and quietly;
// failures are collected into the Summary and the returned error is nil.
func (b *BatchRunner) RunAll(ctx context.Context, commands []string, execCtx *execute.ExecutionContext, opts Options, concurrency int) (Summary, error) {
	if concurrency <= 1 {
		return b.runSequential(ctx, commands, execCtx, opts)
	}
	return b.runChunked(ctx, commands, execCtx, opts, concurrency), nil
}

func (b *BatchRunner) runSequential(ctx context.Context, commands []string, execCtx *execute.ExecutionContext, opts Options) (Summary, error) {
	summary := Summary{Total: len(commands)}
	for i, command := range commands {
		if err := b.runOne(ctx, command, execCtx, opts); err != nil {
			slog.Debug("sequential batch stopped", "run", execCtx.RunID(), "position", i+1, "total", len(commands))
			return summary, err
		}
		summary.Succeeded++
		b.progress(i+1, len(commands))
	}
	return summary, nil
}

func (b *BatchRunner) runChunked(ctx context.Context, commands []string, execCtx *execute.ExecutionContext, opts Options, concurrency int) Summary {
	opts.Quiet = true

	chunks := make([][]outcome, 0, (len(commands)+concurrency-1)/concurrency)
	completed := 0
	for start := 0; start < len(commands); start += concurrency {
		chunk := commands[start:min(start+concurrency, len(commands))]
		slog.Debug("running chunk", "run", execCtx.RunID(), "offset", start, "size", len(chunk))

		outcomes := make([]outcome, len(chunk))
		// Plain Group: no derived context, so a failure never cancels a sibling.
		var g errgroup.Group
		for i, command := range chunk {
			g.Go(func() error {
				outcomes[i] = outcome{command: command, err: b.runOne(ctx, command, execCtx, opts)}
				return nil
			})
		}
		_ = g.Wait()

		chunks = append(chunks, outcomes)
		completed += len(chunk)
		b.progress(completed, len(commands))
	}
	return summarize(len(commands), chunks)
}

// summarize folds settled chunks into a Summary, keeping dispatch order.
func summarize(total int, chunks [][]outcome) Summary {
	s := Summary{Total: total}
	for _, chunk := range chunks {
		for _, o := range chunk {
			if o.err != nil {
				s.Failures = append(s.Failures, Failure{Command: o.command, Err: o.err})
				continue
			}
			s.Succeeded++
		}
	}
	return s
}

func (b *BatchRunner) runOne(ctx context.Context, command string, execCtx *execute.ExecutionContext, opts Options) error {
	res, err := b.executor.Run(ctx, command, execCtx, opts)
	if err != nil {
		return err
	}
	if res == nil || b.onResult == nil {
		return nil
	}
	if err := b.onResult(res, opts); err != nil {
		return fmt.Errorf("report result: %w", err)
	}
	return nil
}

func (b *BatchRunner) progress(completed, total int) {
	if b.onProgress != nil {
		b.onProgress(completed, total)
	}
}
