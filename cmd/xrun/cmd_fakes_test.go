// SPDX-License-Identifier: MPL-2.0

package cmd

import (
	"bytes"
	"context"
	"sync"
	"testing"

	"github.com/xrunhq/xrun/internal/adapter"
	"github.com/xrunhq/xrun/internal/config"
	"github.com/xrunhq/xrun/internal/engine"
	"github.com/xrunhq/xrun/internal/testutil"
	"github.com/xrunhq/xrun/pkg/types"

	"github.com/cenkalti/backoff/v4"
)

type (
	// stubFactory records the adapter kinds and invocations it sees and answers
	// every attempt through respond.
	stubFactory struct {
		mu      sync.Mutex
		kinds   []adapter.Kind
		calls   []engine.Invocation
		respond func(inv engine.Invocation) (*engine.Result, error)
	}

	stubEngine struct {
		factory *stubFactory
	}

	// staticProvider answers Load with a fixed store or error.
	staticProvider struct {
		store *config.Store
		err   error
	}

	cliResult struct {
		stdout string
		stderr string
		err    error
	}
)

func (f *stubFactory) New(kind adapter.Kind) (*engine.Handle, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.kinds = append(f.kinds, kind)
	return engine.NewHandle(&stubEngine{factory: f}), nil
}

func (f *stubFactory) invocations() []engine.Invocation {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]engine.Invocation(nil), f.calls...)
}

func (e *stubEngine) Name() adapter.Name { return adapter.NameLocal }

func (e *stubEngine) Run(_ context.Context, inv engine.Invocation) (*engine.Result, error) {
	f := e.factory
	f.mu.Lock()
	f.calls = append(f.calls, inv)
	respond := f.respond
	f.mu.Unlock()

	if respond != nil {
		return respond(inv)
	}
	return &engine.Result{Command: inv.Command, Stdout: "ran: " + inv.Command + "\n"}, nil
}

func (p staticProvider) Load(context.Context, config.LoadOptions) (*config.Store, error) {
	if p.err != nil {
		return nil, p.err
	}
	if p.store == nil {
		return config.NewStore(nil), nil
	}
	return p.store, nil
}

// storeWith returns a store built from the default config after mutate.
func storeWith(mutate func(cfg *config.Config)) *config.Store {
	cfg := config.DefaultConfig()
	if mutate != nil {
		mutate(cfg)
	}
	return config.NewStore(cfg)
}

// runCLI executes the root command with args against fake dependencies.
// Retry waits never sleep.
func runCLI(t *testing.T, provider config.Provider, factory engine.Factory, args ...string) cliResult {
	t.Helper()

	var stdout, stderr bytes.Buffer
	app := NewApp(Dependencies{
		Config:  provider,
		Factory: factory,
		Timer:   func() backoff.Timer { return testutil.NewRecordingTimer() },
		Stdout:  &stdout,
		Stderr:  &stderr,
	})
	rootCmd, _ := newRootCommand(app)
	rootCmd.SilenceUsage = true
	rootCmd.SilenceErrors = true
	rootCmd.SetArgs(args)

	err := rootCmd.ExecuteContext(t.Context())
	return cliResult{stdout: stdout.String(), stderr: stderr.String(), err: err}
}

func exitWith(code types.ExitCode) func(inv engine.Invocation) (*engine.Result, error) {
	return func(inv engine.Invocation) (*engine.Result, error) {
		res := &engine.Result{Command: inv.Command, ExitCode: code, Stderr: "failed"}
		return res, &engine.ExitError{Command: inv.Command, Code: res.ExitCode, Stderr: res.Stderr}
	}
}
