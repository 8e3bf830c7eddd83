// SPDX-License-Identifier: MPL-2.0

package runner

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/xrunhq/xrun/internal/adapter"
	"github.com/xrunhq/xrun/internal/app/execute"
	"github.com/xrunhq/xrun/internal/engine"
)

type (
	// scriptedEngine answers each Run with the outcome chosen by behave.
	scriptedEngine struct {
		factory *fakeFactory
	}

	// fakeFactory hands out scripted engines and records every invocation.
	fakeFactory struct {
		mu          sync.Mutex
		handles     int
		invocations []engine.Invocation
		events      []string
		err         error

		// behave decides the outcome of the n-th attempt (1-based, across all commands).
		behave func(inv engine.Invocation, n int) (*engine.Result, error)
	}
)

func (e *scriptedEngine) Name() adapter.Name { return adapter.NameLocal }

func (e *scriptedEngine) Run(ctx context.Context, inv engine.Invocation) (*engine.Result, error) {
	f := e.factory
	f.mu.Lock()
	f.invocations = append(f.invocations, inv)
	f.events = append(f.events, "start "+inv.Command)
	n := len(f.invocations)
	behave := f.behave
	f.mu.Unlock()

	var (
		res *engine.Result
		err error
	)
	if behave != nil {
		res, err = behave(inv, n)
	} else {
		res = &engine.Result{Command: inv.Command, Stdout: inv.Command + "\n"}
	}

	f.mu.Lock()
	f.events = append(f.events, "end "+inv.Command)
	f.mu.Unlock()
	return res, err
}

func (f *fakeFactory) New(adapter.Kind) (*engine.Handle, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return nil, f.err
	}
	f.handles++
	return engine.NewHandle(&scriptedEngine{factory: f}), nil
}

func (f *fakeFactory) attempts() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.invocations)
}

func (f *fakeFactory) commands() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]string, 0, len(f.invocations))
	for _, inv := range f.invocations {
		out = append(out, inv.Command)
	}
	return out
}

func (f *fakeFactory) eventLog() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.events...)
}

func exitFailure(inv engine.Invocation) (*engine.Result, error) {
	res := &engine.Result{Command: inv.Command, ExitCode: 1, Stderr: "boom"}
	return res, &engine.ExitError{Command: inv.Command, Code: res.ExitCode, Stderr: res.Stderr}
}

func buildContext(t *testing.T, opts execute.BuildOptions) *execute.ExecutionContext {
	t.Helper()
	opts.Resolver = adapter.NewResolver(nil)
	execCtx, err := execute.BuildExecutionContext(opts)
	if err != nil {
		t.Fatalf("BuildExecutionContext() error = %v", err)
	}
	return execCtx
}

func localContext(t *testing.T) *execute.ExecutionContext {
	t.Helper()
	return buildContext(t, execute.BuildOptions{Adapter: "local"})
}

var errFactory = errors.New("engine unavailable")
