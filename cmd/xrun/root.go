// SPDX-License-Identifier: MPL-2.0

// Package cmd contains all CLI commands for xrun.
package cmd

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/xrunhq/xrun/internal/config"

	"github.com/charmbracelet/fang"
	"github.com/spf13/cobra"
)

var (
	// Version is the semantic version (set via -ldflags).
	Version = "dev"
	// Commit is the git commit hash (set via -ldflags).
	Commit = "unknown"
	// BuildDate is the build timestamp (set via -ldflags).
	BuildDate = "unknown"
)

// rootOptions holds the persistent flags and the configuration loaded for this invocation.
type rootOptions struct {
	verbose    bool
	configPath string
	logLevel   string

	store *config.Store
}

// getVersionString returns a formatted version string for display.
func getVersionString() string {
	if Version == "dev" {
		return "dev (built from source)"
	}
	return fmt.Sprintf("%s (commit: %s, built: %s)", Version, Commit, BuildDate)
}

// newRootCommand builds the command tree around app.
func newRootCommand(app *App) (*cobra.Command, *rootOptions) {
	opts := &rootOptions{}

	rootCmd := &cobra.Command{
		Use:   "xrun",
		Short: "Run commands locally, over SSH, or inside containers and pods",
		Long: TitleStyle.Render("xrun") + SubtitleStyle.Render(" - command execution orchestrator") + `

xrun runs a command (given inline, read from a file, or rendered from a
template) against a local shell, an SSH host, a Docker container, a
Kubernetes pod, or a Docker container behind an SSH host, with timeouts,
retries, and bounded parallelism.

` + SubtitleStyle.Render("Examples:") + `
  xrun run -- uname -a
  xrun run --adapter ssh --host web1 --retry 2 "systemctl status nginx"
  xrun run --adapter docker --container api --env MODE=debug "env"
  xrun run --file deploy.txt --parallel 4
  xrun run --template "echo Hello {{name}}" --data '{"name":"World"}'`,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			return setupLogging(app.stderr, opts.logLevel, opts.verbose)
		},
	}
	rootCmd.SetOut(app.stdout)
	rootCmd.SetErr(app.stderr)

	rootCmd.PersistentFlags().BoolVarP(&opts.verbose, "verbose", "v", false, "enable verbose output")
	rootCmd.PersistentFlags().StringVar(&opts.configPath, "config", "", "config file (default is $XDG_CONFIG_HOME/xrun/config.cue)")
	rootCmd.PersistentFlags().StringVar(&opts.logLevel, "log-level", "", "log level: debug, info, warn, error (default warn, debug with --verbose)")

	rootCmd.AddCommand(newRunCommand(app, opts))
	rootCmd.AddCommand(newConfigCommand(app, opts))
	rootCmd.AddCommand(newHostsCommand(app, opts))

	return rootCmd, opts
}

// loadStore loads the configuration once per invocation.
func (o *rootOptions) loadStore(ctx context.Context, app *App) (*config.Store, error) {
	if o.store != nil {
		return o.store, nil
	}
	store, err := app.Config.Load(ctx, config.LoadOptions{ConfigFilePath: o.configPath})
	if err != nil {
		return nil, err
	}
	o.store = store
	return store, nil
}

// errorHandler prints actionable errors with their suggestions and, when verbose,
// the matching issue help.
func errorHandler(opts *rootOptions) fang.ErrorHandler {
	return func(w io.Writer, styles fang.Styles, err error) {
		display := err
		if msg := formatErrorForDisplay(err, opts.verbose); msg != err.Error() {
			display = errors.New(msg)
		}
		fang.DefaultErrorHandler(w, styles, display)
		if opts.verbose {
			renderIssueHelp(w, err)
		}
	}
}

// Execute runs the CLI. This is called by main.main().
func Execute() {
	app := NewApp(Dependencies{})
	rootCmd, opts := newRootCommand(app)

	// fang overrides rootCmd.Version, so the version goes through fang.WithVersion.
	if err := fang.Execute(
		context.Background(),
		rootCmd,
		fang.WithVersion(getVersionString()),
		fang.WithCommit(Commit),
		fang.WithErrorHandler(errorHandler(opts)),
		fang.WithNotifySignal(os.Interrupt),
	); err != nil {
		var exitErr *ExitError
		if errors.As(err, &exitErr) {
			os.Exit(int(exitErr.Code))
		}
		os.Exit(1)
	}
}
