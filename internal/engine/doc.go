// SPDX-License-Identifier: MPL-2.0

// Package engine runs one command against one execution backend.
//
// A Factory turns a resolved adapter.Kind into a Handle. The Handle carries the
// per-command settings (environment, working directory, timeout, shell mode) and
// delegates to an Engine:
//
//   - LocalEngine: a child process (or the built-in mvdan/sh interpreter).
//   - SSHEngine: one session over golang.org/x/crypto/ssh.
//   - DockerEngine: `docker exec` against a running container.
//   - KubernetesEngine: `kubectl exec` against a pod.
//   - RemoteDockerEngine: `docker exec` issued over an SSH session.
//
// Output is always captured; streaming and interactive sessions are not supported.
package engine
