// SPDX-License-Identifier: MPL-2.0

package engine

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"maps"
	"os"
	"os/exec"
	"path/filepath"
	"runtime"
	"slices"
	"strings"

	"github.com/xrunhq/xrun/internal/adapter"
	"github.com/xrunhq/xrun/pkg/types"

	"mvdan.cc/sh/v3/expand"
	"mvdan.cc/sh/v3/interp"
	"mvdan.cc/sh/v3/syntax"
)

// BuiltinShell selects the in-process POSIX interpreter (--shell=builtin).
const BuiltinShell = "builtin"

// LocalEngine runs commands as child processes of xrun.
type LocalEngine struct {
	execCommand ExecCommandFunc
	getenv      func(string) string
	lookPath    func(string) (string, error)
}

// NewLocalEngine creates a LocalEngine. A nil execCommand uses exec.CommandContext.
func NewLocalEngine(execCommand ExecCommandFunc) *LocalEngine {
	if execCommand == nil {
		execCommand = exec.CommandContext
	}
	return &LocalEngine{
		execCommand: execCommand,
		getenv:      os.Getenv,
		lookPath:    exec.LookPath,
	}
}

// Name implements Engine.
func (e *LocalEngine) Name() adapter.Name { return adapter.NameLocal }

// Run implements Engine.
func (e *LocalEngine) Run(ctx context.Context, inv Invocation) (*Result, error) {
	if inv.Shell.Path() == BuiltinShell {
		return e.runBuiltin(ctx, inv)
	}

	env := mergeEnv(os.Environ(), inv.Env)

	argv, err := e.argv(inv, env)
	if err != nil {
		return nil, &StartError{Program: "command", Err: err}
	}

	cmd := e.execCommand(ctx, argv[0], argv[1:]...)
	cmd.Env = env
	cmd.Dir = inv.Cwd
	return runCaptured(ctx, cmd, inv.Command, argv[0])
}

func (e *LocalEngine) argv(inv Invocation, env []string) ([]string, error) {
	if !inv.Shell.Enabled() {
		return splitCommand(inv.Command, envListLookup(env))
	}

	sh := inv.Shell.Path()
	if sh == "" {
		var err error
		if sh, err = e.defaultShell(); err != nil {
			return nil, err
		}
	}
	return append([]string{sh}, append(shellArgs(sh), inv.Command)...), nil
}

// defaultShell picks $SHELL, then bash, then sh; on Windows pwsh, powershell, then cmd.
func (e *LocalEngine) defaultShell() (string, error) {
	candidates := []string{"bash", "sh"}
	if runtime.GOOS == "windows" {
		candidates = []string{"pwsh", "powershell", "cmd"}
	} else if sh := e.getenv("SHELL"); sh != "" {
		return sh, nil
	}

	for _, c := range candidates {
		if p, err := e.lookPath(c); err == nil {
			return p, nil
		}
	}
	return "", fmt.Errorf("no shell found (tried %s)", strings.Join(candidates, ", "))
}

// shellArgs returns the flags that make shell run its next argument as a script.
func shellArgs(shell string) []string {
	base := strings.TrimSuffix(filepath.Base(shell), ".exe")
	switch base {
	case "cmd":
		return []string{"/C"}
	case "powershell", "pwsh":
		return []string{"-NoProfile", "-Command"}
	default:
		return []string{"-c"}
	}
}

// runBuiltin interprets the command with mvdan.cc/sh, without spawning a shell.
func (e *LocalEngine) runBuiltin(ctx context.Context, inv Invocation) (*Result, error) {
	file, err := syntax.NewParser().Parse(strings.NewReader(inv.Command), "")
	if err != nil {
		return nil, &StartError{Program: BuiltinShell, Err: err}
	}

	var stdout, stderr bytes.Buffer
	runner, err := interp.New(
		interp.Dir(inv.Cwd),
		interp.Env(expand.ListEnviron(mergeEnv(os.Environ(), inv.Env)...)),
		interp.StdIO(nil, &stdout, &stderr),
	)
	if err != nil {
		return nil, &StartError{Program: BuiltinShell, Err: err}
	}

	err = runner.Run(ctx, file)
	if err == nil {
		return newResult(inv.Command, 0, stdout.String(), stderr.String()), nil
	}

	var status interp.ExitStatus
	if errors.As(err, &status) {
		return finish(newResult(inv.Command, types.ExitCode(status), stdout.String(), stderr.String()))
	}
	if ctx.Err() != nil {
		return nil, ctx.Err()
	}
	return nil, &StartError{Program: BuiltinShell, Err: err}
}

// mergeEnv appends overrides to base in sorted key order; later entries win.
func mergeEnv(base []string, overrides map[string]string) []string {
	if len(overrides) == 0 {
		return base
	}
	env := slices.Clip(base)
	for _, k := range slices.Sorted(maps.Keys(overrides)) {
		env = append(env, k+"="+overrides[k])
	}
	return env
}

// envListLookup resolves a variable from a KEY=VALUE list, last entry winning.
func envListLookup(env []string) func(string) string {
	return func(name string) string {
		prefix := name + "="
		for i := len(env) - 1; i >= 0; i-- {
			if v, ok := strings.CutPrefix(env[i], prefix); ok {
				return v
			}
		}
		return ""
	}
}
