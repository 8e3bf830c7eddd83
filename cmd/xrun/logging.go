// SPDX-License-Identifier: MPL-2.0

package cmd

import (
	"fmt"
	"io"
	"log/slog"

	"github.com/charmbracelet/log"
)

// setupLogging installs a charm logger on w as the slog default. An empty level
// means warn, or debug when verbose is set. Library code logs through slog only,
// so stdout stays reserved for command output.
func setupLogging(w io.Writer, level string, verbose bool) error {
	if level == "" {
		level = "warn"
		if verbose {
			level = "debug"
		}
	}

	lvl, err := log.ParseLevel(level)
	if err != nil {
		return fmt.Errorf("invalid --log-level: %w", err)
	}

	logger := log.NewWithOptions(w, log.Options{
		Level:  lvl,
		Prefix: "xrun",
	})
	slog.SetDefault(slog.New(logger))
	return nil
}
