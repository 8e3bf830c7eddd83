// SPDX-License-Identifier: MPL-2.0

package engine

import (
	"context"

	"github.com/xrunhq/xrun/internal/adapter"
)

// RemoteDockerEngine runs `docker exec` on an SSH host.
type RemoteDockerEngine struct {
	ssh       *SSHEngine
	container string
}

// NewRemoteDockerEngine creates an engine for a container behind target.SSH.
func NewRemoteDockerEngine(target adapter.RemoteDocker, dialer *SSHDialer) *RemoteDockerEngine {
	return &RemoteDockerEngine{
		ssh:       NewSSHEngine(target.SSH, dialer),
		container: target.Container,
	}
}

// Name implements Engine.
func (e *RemoteDockerEngine) Name() adapter.Name { return adapter.NameRemoteDocker }

// Run implements Engine.
func (e *RemoteDockerEngine) Run(ctx context.Context, inv Invocation) (*Result, error) {
	script, err := remoteDockerScript(e.container, inv)
	if err != nil {
		return nil, &StartError{Program: dockerBinary, Err: err}
	}
	return e.ssh.runScript(ctx, inv, script)
}

// remoteDockerScript quotes the docker exec argv for the remote login shell.
func remoteDockerScript(container string, inv Invocation) (string, error) {
	args, err := dockerExecArgs(container, inv)
	if err != nil {
		return "", err
	}
	return quoteArgv(append([]string{dockerBinary}, args...))
}
