// SPDX-License-Identifier: MPL-2.0

package engine

import (
	"context"
	"maps"
	"slices"

	"github.com/xrunhq/xrun/internal/adapter"
)

const dockerBinary = "docker"

// DockerEngine runs commands in a running container with `docker exec`.
type DockerEngine struct {
	*BaseCLIEngine
	container string
}

// NewDockerEngine creates an engine for the given container.
func NewDockerEngine(target adapter.Docker, opts ...BaseCLIEngineOption) *DockerEngine {
	return &DockerEngine{
		BaseCLIEngine: NewBaseCLIEngine(dockerBinary, opts...),
		container:     target.Container,
	}
}

// Name implements Engine.
func (e *DockerEngine) Name() adapter.Name { return adapter.NameDocker }

// Run implements Engine.
func (e *DockerEngine) Run(ctx context.Context, inv Invocation) (*Result, error) {
	args, err := dockerExecArgs(e.container, inv)
	if err != nil {
		return nil, &StartError{Program: e.Binary(), Err: err}
	}
	return e.RunCLI(ctx, inv.Command, args)
}

// dockerExecArgs builds `exec [-w cwd] [-e K=V]... container argv...`.
// Docker applies cwd and env itself, so the command needs no wrapping.
func dockerExecArgs(container string, inv Invocation) ([]string, error) {
	argv, err := commandArgv(inv)
	if err != nil {
		return nil, err
	}

	args := []string{"exec"}
	if inv.Cwd != "" {
		args = append(args, "-w", inv.Cwd)
	}
	for _, k := range slices.Sorted(maps.Keys(inv.Env)) {
		args = append(args, "-e", k+"="+inv.Env[k])
	}
	args = append(args, container)
	return append(args, argv...), nil
}
