// SPDX-License-Identifier: MPL-2.0

package execute

import (
	"maps"
	"slices"
	"time"

	"github.com/xrunhq/xrun/internal/adapter"
)

type (
	// ShellMode controls how a command line is handed to the backend.
	// The zero value is "unset": the backend decides.
	ShellMode struct {
		set     bool
		enabled bool
		path    string
	}

	// ExecutionContext is built once per invocation and never mutated.
	// Fields are unexported; a single *ExecutionContext is shared read-only
	// by all concurrently running commands.
	ExecutionContext struct {
		adapter adapter.Kind
		env     map[string]string
		cwd     string
		shell   ShellMode
		timeout time.Duration
		runID   string
	}
)

// ShellDefault runs the command through the backend's default shell.
func ShellDefault() ShellMode { return ShellMode{set: true, enabled: true} }

// ShellDisabled runs the command without a shell; the command line is split into argv.
func ShellDisabled() ShellMode { return ShellMode{set: true} }

// ShellPath runs the command through the given shell binary.
func ShellPath(path string) ShellMode { return ShellMode{set: true, enabled: true, path: path} }

// ParseShellMode interprets a --shell value: "" is unset, "true" enables the
// default shell, "false" disables the shell, anything else is a shell path.
func ParseShellMode(value string) ShellMode {
	switch value {
	case "":
		return ShellMode{}
	case "true":
		return ShellDefault()
	case "false":
		return ShellDisabled()
	default:
		return ShellPath(value)
	}
}

// IsSet reports whether a shell mode was given at all.
func (m ShellMode) IsSet() bool { return m.set }

// Enabled reports whether a shell wraps the command. Unset modes report true
// because every backend defaults to a shell.
func (m ShellMode) Enabled() bool { return !m.set || m.enabled }

// Path returns the explicit shell binary, or "" for the default shell.
func (m ShellMode) Path() string { return m.path }

// String renders the mode the way --shell accepts it.
func (m ShellMode) String() string {
	switch {
	case !m.set:
		return ""
	case !m.enabled:
		return "false"
	case m.path != "":
		return m.path
	default:
		return "true"
	}
}

// Adapter returns the resolved execution target.
func (c *ExecutionContext) Adapter() adapter.Kind { return c.adapter }

// Env returns a copy of the environment overrides, or nil when none were given.
func (c *ExecutionContext) Env() map[string]string {
	if c.env == nil {
		return nil
	}
	return maps.Clone(c.env)
}

// EnvKeys returns the environment variable names in sorted order.
func (c *ExecutionContext) EnvKeys() []string {
	return slices.Sorted(maps.Keys(c.env))
}

// Cwd returns the working directory, or "" when unset.
func (c *ExecutionContext) Cwd() string { return c.cwd }

// Shell returns the shell mode.
func (c *ExecutionContext) Shell() ShellMode { return c.shell }

// Timeout returns the per-attempt timeout; zero means no limit.
func (c *ExecutionContext) Timeout() time.Duration { return c.timeout }

// RunID identifies this invocation in logs.
func (c *ExecutionContext) RunID() string { return c.runID }
