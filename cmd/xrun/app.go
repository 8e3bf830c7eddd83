// SPDX-License-Identifier: MPL-2.0

package cmd

import (
	"io"
	"os"

	"github.com/xrunhq/xrun/internal/config"
	"github.com/xrunhq/xrun/internal/engine"

	"github.com/cenkalti/backoff/v4"
)

type (
	// App wires CLI services and shared dependencies. It is the composition root for
	// the CLI layer: every Cobra handler receives an App and delegates through it.
	App struct {
		Config  config.Provider
		Factory engine.Factory
		// Timer creates the retry backoff timer; nil uses real timers.
		Timer  func() backoff.Timer
		stdout io.Writer
		stderr io.Writer
	}

	// Dependencies defines the injection points for building an App. Nil fields are
	// replaced with production defaults by NewApp.
	Dependencies struct {
		Config  config.Provider
		Factory engine.Factory
		Timer   func() backoff.Timer
		Stdout  io.Writer
		Stderr  io.Writer
	}
)

// NewApp creates an App with defaults for omitted dependencies.
func NewApp(deps Dependencies) *App {
	if deps.Stdout == nil {
		deps.Stdout = os.Stdout
	}
	if deps.Stderr == nil {
		deps.Stderr = os.Stderr
	}
	if deps.Config == nil {
		deps.Config = config.NewProvider()
	}
	if deps.Factory == nil {
		deps.Factory = engine.NewFactory()
	}

	return &App{
		Config:  deps.Config,
		Factory: deps.Factory,
		Timer:   deps.Timer,
		stdout:  deps.Stdout,
		stderr:  deps.Stderr,
	}
}
