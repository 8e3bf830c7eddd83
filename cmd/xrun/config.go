// SPDX-License-Identifier: MPL-2.0

package cmd

import (
	"context"
	"fmt"

	"github.com/xrunhq/xrun/internal/config"

	"github.com/spf13/cobra"
)

// newConfigCommand creates the `xrun config` command tree.
func newConfigCommand(app *App, root *rootOptions) *cobra.Command {
	cfgCmd := &cobra.Command{
		Use:   "config",
		Short: "Manage xrun configuration",
		Long: `Manage xrun configuration.

Configuration is stored in:
  - Linux: ~/.config/xrun/config.cue
  - macOS: ~/Library/Application Support/xrun/config.cue
  - Windows: %APPDATA%\xrun\config.cue

XRUN_DEFAULTS_* environment variables override file values.`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return cmd.Help()
		},
	}

	cfgCmd.AddCommand(&cobra.Command{
		Use:   "show",
		Short: "Show the effective configuration as CUE",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return app.showConfig(cmd.Context(), root)
		},
	})

	cfgCmd.AddCommand(&cobra.Command{
		Use:   "path",
		Short: "Show the configuration file path",
		Args:  cobra.NoArgs,
		RunE: func(_ *cobra.Command, _ []string) error {
			return app.showConfigPath(root)
		},
	})

	cfgCmd.AddCommand(&cobra.Command{
		Use:   "init",
		Short: "Create a default configuration file",
		Args:  cobra.NoArgs,
		RunE: func(_ *cobra.Command, _ []string) error {
			return app.initConfig(root)
		},
	})

	return cfgCmd
}

func (a *App) showConfig(ctx context.Context, root *rootOptions) error {
	store, err := root.loadStore(ctx, a)
	if err != nil {
		return err
	}

	source := SubtitleStyle.Render("(using defaults)")
	if store.Path() != "" {
		source = store.Path()
	}
	fmt.Fprintf(a.stdout, "%s %s\n\n", CmdStyle.Render("// source:"), source)
	fmt.Fprint(a.stdout, config.GenerateCUE(store.Config()))
	return nil
}

func (a *App) showConfigPath(root *rootOptions) error {
	path, err := configFilePath(root)
	if err != nil {
		return err
	}
	fmt.Fprintln(a.stdout, path)
	return nil
}

func (a *App) initConfig(root *rootOptions) error {
	path, err := configFilePath(root)
	if err != nil {
		return err
	}
	created, err := config.WriteDefaultConfig(path)
	if err != nil {
		return err
	}
	if !created {
		fmt.Fprintf(a.stdout, "%s %s\n", WarningStyle.Render("Configuration already exists:"), path)
		return nil
	}
	fmt.Fprintf(a.stdout, "%s %s\n", SuccessStyle.Render("Created configuration:"), path)
	return nil
}

// configFilePath is --config when given, else the platform default.
func configFilePath(root *rootOptions) (string, error) {
	if root.configPath != "" {
		return root.configPath, nil
	}
	return config.DefaultConfigPath()
}
