// SPDX-License-Identifier: MPL-2.0

package execute

import (
	"fmt"
	"log/slog"
	"strings"

	"github.com/xrunhq/xrun/internal/adapter"

	"github.com/google/uuid"
)

// DefaultAdapterKey is the configuration key consulted when --adapter is absent.
const DefaultAdapterKey = "defaults.adapter"

type (
	// ValueStore is the read side of the configuration store. *config.Store implements it.
	ValueStore interface {
		GetValue(key string) (any, bool)
	}

	// BuildOptions is the parsed CLI input for context construction.
	// Only Resolver is required.
	BuildOptions struct {
		// Adapter is the explicit --adapter value; empty falls back to configuration.
		Adapter string
		// Options are the raw adapter flags.
		Options adapter.RawOptions
		// EnvTokens are the repeated --env key=value tokens.
		EnvTokens []string
		// Cwd is passed through unvalidated.
		Cwd string
		// Shell is passed through unvalidated.
		Shell ShellMode
		// Timeout is the --timeout text; empty leaves the timeout unset.
		Timeout string

		Store    ValueStore
		Resolver *adapter.Resolver
	}
)

// BuildExecutionContext resolves the adapter and merges every per-invocation
// setting into an immutable ExecutionContext. Errors are configuration errors
// and are never retried.
func BuildExecutionContext(opts BuildOptions) (*ExecutionContext, error) {
	if opts.Resolver == nil {
		return nil, fmt.Errorf("build execution context: resolver is required")
	}

	name, err := adapter.ParseName(resolveAdapterName(opts.Adapter, opts.Store))
	if err != nil {
		return nil, err
	}

	kind, err := opts.Resolver.Resolve(name, opts.Options)
	if err != nil {
		return nil, err
	}

	timeout, err := ParseTimeout(opts.Timeout)
	if err != nil {
		return nil, err
	}

	ctx := &ExecutionContext{
		adapter: kind,
		env:     ParseEnvTokens(opts.EnvTokens),
		cwd:     opts.Cwd,
		shell:   opts.Shell,
		timeout: timeout,
		runID:   uuid.NewString(),
	}

	slog.Debug("execution context built",
		"run_id", ctx.runID,
		"adapter", kind.Describe(),
		"env_keys", ctx.EnvKeys(),
		"cwd", ctx.cwd,
		"shell", ctx.shell.String(),
		"timeout", ctx.timeout,
	)

	return ctx, nil
}

// resolveAdapterName applies the order: explicit flag, configured default, local.
func resolveAdapterName(explicit string, store ValueStore) string {
	if strings.TrimSpace(explicit) != "" {
		return explicit
	}
	if store != nil {
		if v, ok := store.GetValue(DefaultAdapterKey); ok {
			if s, ok := v.(string); ok && s != "" {
				return s
			}
		}
	}
	return string(adapter.NameLocal)
}

// ParseEnvTokens splits each KEY=VALUE token on the first '='. Tokens without
// '=' are dropped silently; "FOO=" yields FOO with an empty value. Later tokens
// win for repeated keys. Returns nil when no token survives.
func ParseEnvTokens(tokens []string) map[string]string {
	var env map[string]string
	for _, tok := range tokens {
		key, value, ok := strings.Cut(tok, "=")
		if !ok || key == "" {
			continue
		}
		if env == nil {
			env = make(map[string]string, len(tokens))
		}
		env[key] = value
	}
	return env
}
