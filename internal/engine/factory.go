// SPDX-License-Identifier: MPL-2.0

package engine

import (
	"fmt"

	"github.com/xrunhq/xrun/internal/adapter"
)

type (
	// Factory creates a fresh Handle for an adapter kind. The executor asks for a
	// new handle on every attempt.
	Factory interface {
		New(kind adapter.Kind) (*Handle, error)
	}

	// DefaultFactory builds the engines shipped with xrun.
	DefaultFactory struct {
		execCommand   ExecCommandFunc
		dockerBinary  string
		kubectlBinary string
		dialer        *SSHDialer
	}

	// FactoryOption configures a DefaultFactory.
	FactoryOption func(*DefaultFactory)
)

// WithFactoryExecCommand sets the exec.Cmd factory used by local, docker and kubernetes engines.
func WithFactoryExecCommand(fn ExecCommandFunc) FactoryOption {
	return func(f *DefaultFactory) {
		f.execCommand = fn
	}
}

// WithDockerBinary overrides the docker CLI path.
func WithDockerBinary(path string) FactoryOption {
	return func(f *DefaultFactory) {
		f.dockerBinary = path
	}
}

// WithKubectlBinary overrides the kubectl CLI path.
func WithKubectlBinary(path string) FactoryOption {
	return func(f *DefaultFactory) {
		f.kubectlBinary = path
	}
}

// WithSSHDialer sets the dialer shared by ssh and remote-docker engines.
func WithSSHDialer(d *SSHDialer) FactoryOption {
	return func(f *DefaultFactory) {
		f.dialer = d
	}
}

// NewFactory creates a DefaultFactory.
func NewFactory(opts ...FactoryOption) *DefaultFactory {
	f := &DefaultFactory{}
	for _, opt := range opts {
		opt(f)
	}
	if f.dialer == nil {
		f.dialer = NewSSHDialer()
	}
	return f
}

// New implements Factory.
func (f *DefaultFactory) New(kind adapter.Kind) (*Handle, error) {
	var cliOpts []BaseCLIEngineOption
	if f.execCommand != nil {
		cliOpts = append(cliOpts, WithExecCommand(f.execCommand))
	}

	switch k := kind.(type) {
	case adapter.Local:
		return NewHandle(NewLocalEngine(f.execCommand)), nil
	case adapter.SSH:
		return NewHandle(NewSSHEngine(k, f.dialer)), nil
	case adapter.Docker:
		return NewHandle(NewDockerEngine(k, append(cliOpts, WithBinary(f.dockerBinary))...)), nil
	case adapter.Kubernetes:
		return NewHandle(NewKubernetesEngine(k, append(cliOpts, WithBinary(f.kubectlBinary))...)), nil
	case adapter.RemoteDocker:
		return NewHandle(NewRemoteDockerEngine(k, f.dialer)), nil
	default:
		return nil, fmt.Errorf("no engine for adapter %T", kind)
	}
}
