// SPDX-License-Identifier: MPL-2.0

package engine

import (
	"errors"
	"fmt"
	"log/slog"
	"maps"
	"slices"
	"strings"

	"mvdan.cc/sh/v3/shell"
	"mvdan.cc/sh/v3/syntax"
)

// defaultRemoteShell runs commands inside containers and pods, where the
// image may not ship bash.
const defaultRemoteShell = "sh"

var errEmptyCommand = errors.New("empty command")

// splitCommand splits a command line into argv without running a shell.
// Quotes are honored; $VAR is resolved through lookup; command substitution
// is rejected.
func splitCommand(command string, lookup func(string) string) ([]string, error) {
	if lookup == nil {
		lookup = func(string) string { return "" }
	}
	fields, err := shell.Fields(command, lookup)
	if err != nil {
		return nil, fmt.Errorf("split command: %w", err)
	}
	if len(fields) == 0 {
		return nil, errEmptyCommand
	}
	return fields, nil
}

// envLookup resolves variables from the invocation's overrides only.
func envLookup(env map[string]string) func(string) string {
	return func(name string) string { return env[name] }
}

// commandArgv returns argv for backends that take argv directly
// (docker exec, kubectl exec).
func commandArgv(inv Invocation) ([]string, error) {
	if !inv.Shell.Enabled() {
		return splitCommand(inv.Command, envLookup(inv.Env))
	}
	sh := inv.Shell.Path()
	if sh == "" {
		sh = defaultRemoteShell
	}
	return []string{sh, "-c", inv.Command}, nil
}

// quote quotes s for a POSIX shell. Strings syntax.Quote cannot express in
// POSIX (newlines, tabs) are wrapped in single quotes; NUL bytes are an error.
func quote(s string) (string, error) {
	q, err := syntax.Quote(s, syntax.LangPOSIX)
	if err == nil {
		return q, nil
	}
	if strings.ContainsRune(s, 0) {
		return "", fmt.Errorf("quote %q: %w", s, err)
	}
	return "'" + strings.ReplaceAll(s, "'", `'\''`) + "'", nil
}

// quoteArgv quotes and joins argv into one shell command line.
func quoteArgv(argv []string) (string, error) {
	quoted := make([]string, len(argv))
	for i, arg := range argv {
		q, err := quote(arg)
		if err != nil {
			return "", err
		}
		quoted[i] = q
	}
	return strings.Join(quoted, " "), nil
}

// remoteScript composes the single command string sent to a remote shell
// (an SSH session or `sh -c` in a pod):
//
//	cd '<cwd>' && export K='v' && eval '<command>'
//
// Without cwd or env the command is sent as-is. Env names that are not
// valid shell identifiers are skipped.
func remoteScript(inv Invocation) (string, error) {
	var prefix []string

	if inv.Cwd != "" {
		q, err := quote(inv.Cwd)
		if err != nil {
			return "", err
		}
		prefix = append(prefix, "cd "+q)
	}

	for _, k := range slices.Sorted(maps.Keys(inv.Env)) {
		if !validEnvName(k) {
			slog.Warn("skipping environment variable with invalid name", "name", k)
			continue
		}
		q, err := quote(inv.Env[k])
		if err != nil {
			return "", err
		}
		prefix = append(prefix, "export "+k+"="+q)
	}

	body, err := remoteBody(inv)
	if err != nil {
		return "", err
	}
	if len(prefix) == 0 {
		return body, nil
	}

	// eval keeps `a; b` and `a || b` inside the guarded part.
	if inv.Shell.Enabled() && inv.Shell.Path() == "" {
		q, err := quote(body)
		if err != nil {
			return "", err
		}
		body = "eval " + q
	}
	return strings.Join(prefix, " && ") + " && " + body, nil
}

func remoteBody(inv Invocation) (string, error) {
	switch {
	case !inv.Shell.Enabled():
		argv, err := splitCommand(inv.Command, envLookup(inv.Env))
		if err != nil {
			return "", err
		}
		return quoteArgv(argv)
	case inv.Shell.Path() != "":
		return quoteArgv([]string{inv.Shell.Path(), "-c", inv.Command})
	default:
		if strings.TrimSpace(inv.Command) == "" {
			return "", errEmptyCommand
		}
		return inv.Command, nil
	}
}

func validEnvName(name string) bool {
	if name == "" {
		return false
	}
	for i, c := range name {
		switch {
		case c == '_', c >= 'A' && c <= 'Z', c >= 'a' && c <= 'z':
		case i > 0 && c >= '0' && c <= '9':
		default:
			return false
		}
	}
	return true
}
