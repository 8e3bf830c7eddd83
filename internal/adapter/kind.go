// SPDX-License-Identifier: MPL-2.0

package adapter

import (
	"fmt"
	"strconv"
	"strings"
)

const (
	// NameLocal runs commands as local processes.
	NameLocal Name = "local"
	// NameSSH runs commands on a remote host over SSH.
	NameSSH Name = "ssh"
	// NameDocker runs commands in a running container via `docker exec`.
	NameDocker Name = "docker"
	// NameKubernetes runs commands in a pod via `kubectl exec`.
	NameKubernetes Name = "kubernetes"
	// NameRemoteDocker runs `docker exec` on an SSH host.
	NameRemoteDocker Name = "remote-docker"

	// DefaultNamespace is used for Kubernetes when --namespace is not given.
	DefaultNamespace = "default"
	// DefaultSSHPort is used when neither the flag nor the host config sets a port.
	DefaultSSHPort = 22
)

type (
	// Name identifies an adapter on the command line and in configuration.
	Name string

	// Kind is the resolved execution target. The set of implementations is
	// closed; switch over the concrete types to handle every backend.
	Kind interface {
		Name() Name
		// Describe returns a one-line human description for dry runs and logs.
		Describe() string
		kind()
	}

	// Local runs commands on this machine.
	Local struct{}

	// SSH runs commands on a remote host.
	SSH struct {
		// Host is the host argument as given (an alias or an address).
		Host string
		// HostName is the address from a matching host config entry; empty when
		// Host is used directly.
		HostName   string
		Username   string
		Port       int
		PrivateKey string
		Password   string
		Passphrase string
	}

	// Docker runs commands in a local container.
	Docker struct {
		Container string
	}

	// Kubernetes runs commands in a pod.
	Kubernetes struct {
		Pod       string
		Namespace string
		// Container selects a container in a multi-container pod; empty means the default.
		Container string
	}

	// RemoteDocker runs commands in a container on an SSH host.
	RemoteDocker struct {
		SSH       SSH
		Container string
	}
)

// Names returns every adapter name in display order.
func Names() []Name {
	return []Name{NameLocal, NameSSH, NameDocker, NameKubernetes, NameRemoteDocker}
}

// ParseName converts a flag or config value to a Name. An empty value selects local.
func ParseName(s string) (Name, error) {
	n := Name(strings.ToLower(strings.TrimSpace(s)))
	if n == "" {
		return NameLocal, nil
	}
	for _, known := range Names() {
		if n == known {
			return n, nil
		}
	}
	return "", &UnknownAdapterError{Value: s}
}

// String returns the string representation of the Name.
func (n Name) String() string { return string(n) }

func (Local) Name() Name        { return NameLocal }
func (SSH) Name() Name          { return NameSSH }
func (Docker) Name() Name       { return NameDocker }
func (Kubernetes) Name() Name   { return NameKubernetes }
func (RemoteDocker) Name() Name { return NameRemoteDocker }

func (Local) kind()        {}
func (SSH) kind()          {}
func (Docker) kind()       {}
func (Kubernetes) kind()   {}
func (RemoteDocker) kind() {}

// Describe implements Kind.
func (Local) Describe() string { return "local" }

// Address returns the host:port to dial.
func (s SSH) Address() string {
	host := s.HostName
	if host == "" {
		host = s.Host
	}
	port := s.Port
	if port == 0 {
		port = DefaultSSHPort
	}
	return host + ":" + strconv.Itoa(port)
}

// Describe implements Kind.
func (s SSH) Describe() string {
	return fmt.Sprintf("ssh %s@%s", s.Username, s.Address())
}

// Describe implements Kind.
func (d Docker) Describe() string { return "docker container " + d.Container }

// Describe implements Kind.
func (k Kubernetes) Describe() string {
	desc := fmt.Sprintf("kubernetes pod %s/%s", k.Namespace, k.Pod)
	if k.Container != "" {
		desc += " (container " + k.Container + ")"
	}
	return desc
}

// Describe implements Kind.
func (r RemoteDocker) Describe() string {
	return fmt.Sprintf("docker container %s via %s", r.Container, r.SSH.Describe())
}
