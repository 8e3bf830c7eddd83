// SPDX-License-Identifier: MPL-2.0

package adapter

import (
	"errors"
	"fmt"
	"os/user"
	"reflect"
	"strings"

	"github.com/xrunhq/xrun/internal/config"

	"github.com/go-playground/validator/v10"
)

const fallbackUsername = "root"

type (
	// RawOptions are the adapter flags exactly as the CLI received them.
	RawOptions struct {
		Host         string
		Container    string
		Pod          string
		Namespace    string
		K8sContainer string
	}

	// HostLookup finds a named SSH host in configuration. *config.Store implements it.
	HostLookup interface {
		GetHostConfig(name string) (config.HostConfig, bool)
	}

	// Resolver turns an adapter name plus raw options into a validated Kind.
	// It holds no mutable state and is safe for concurrent use.
	Resolver struct {
		hosts       HostLookup
		currentUser func() string
		validate    *validator.Validate
	}

	// ResolverOption configures a Resolver.
	ResolverOption func(*Resolver)

	// Required-option shapes per adapter. The option tag is the user-facing name
	// reported in MissingRequiredOptionError; field order is the order checked.
	sshOptions struct {
		Host string `option:"host" validate:"required"`
	}
	dockerOptions struct {
		Container string `option:"container" validate:"required"`
	}
	kubernetesOptions struct {
		Pod string `option:"pod" validate:"required"`
	}
	remoteDockerOptions struct {
		Host      string `option:"host" validate:"required"`
		Container string `option:"container" validate:"required"`
	}
)

// WithUserLookup overrides how the current OS user is determined.
// The function returns "" when the user is unknown.
func WithUserLookup(fn func() string) ResolverOption {
	return func(r *Resolver) {
		r.currentUser = fn
	}
}

// NewResolver creates a Resolver. hosts may be nil when no configuration is loaded.
func NewResolver(hosts HostLookup, opts ...ResolverOption) *Resolver {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		return fld.Tag.Get("option")
	})

	r := &Resolver{
		hosts:       hosts,
		currentUser: osUsername,
		validate:    v,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Resolve validates raw against the requirements of name and builds the variant.
// It reads configuration but performs no I/O beyond that.
func (r *Resolver) Resolve(name Name, raw RawOptions) (Kind, error) {
	raw = trimOptions(raw)

	switch name {
	case NameLocal, "":
		return Local{}, nil

	case NameSSH:
		if err := r.check(name, sshOptions{Host: raw.Host}); err != nil {
			return nil, err
		}
		return r.resolveSSH(raw.Host), nil

	case NameDocker:
		if err := r.check(name, dockerOptions{Container: raw.Container}); err != nil {
			return nil, err
		}
		return Docker{Container: raw.Container}, nil

	case NameKubernetes:
		if err := r.check(name, kubernetesOptions{Pod: raw.Pod}); err != nil {
			return nil, err
		}
		ns := raw.Namespace
		if ns == "" {
			ns = DefaultNamespace
		}
		return Kubernetes{Pod: raw.Pod, Namespace: ns, Container: raw.K8sContainer}, nil

	case NameRemoteDocker:
		if err := r.check(name, remoteDockerOptions{Host: raw.Host, Container: raw.Container}); err != nil {
			return nil, err
		}
		return RemoteDocker{SSH: r.resolveSSH(raw.Host), Container: raw.Container}, nil

	default:
		return nil, &UnknownAdapterError{Value: string(name)}
	}
}

// check runs the validator and reports the first missing field by option name.
func (r *Resolver) check(name Name, opts any) error {
	err := r.validate.Struct(opts)
	if err == nil {
		return nil
	}

	var verrs validator.ValidationErrors
	if errors.As(err, &verrs) && len(verrs) > 0 {
		return &MissingRequiredOptionError{Adapter: name, Option: verrs[0].Field()}
	}
	return fmt.Errorf("validate %s options: %w", name, err)
}

// resolveSSH merges a configured host entry (when host names one) under the
// explicit host argument. Username falls back to the OS user, then "root".
func (r *Resolver) resolveSSH(host string) SSH {
	s := SSH{Host: host}

	if r.hosts != nil {
		if hc, ok := r.hosts.GetHostConfig(host); ok {
			s.HostName = hc.Host
			s.Username = hc.Username
			s.Port = hc.Port
			s.PrivateKey = hc.PrivateKey
			s.Password = hc.Password
			s.Passphrase = hc.Passphrase
		}
	}

	if s.Username == "" {
		s.Username = r.currentUser()
	}
	if s.Username == "" {
		s.Username = fallbackUsername
	}
	if s.Port == 0 {
		s.Port = DefaultSSHPort
	}
	return s
}

func trimOptions(raw RawOptions) RawOptions {
	return RawOptions{
		Host:         strings.TrimSpace(raw.Host),
		Container:    strings.TrimSpace(raw.Container),
		Pod:          strings.TrimSpace(raw.Pod),
		Namespace:    strings.TrimSpace(raw.Namespace),
		K8sContainer: strings.TrimSpace(raw.K8sContainer),
	}
}

func osUsername() string {
	u, err := user.Current()
	if err != nil {
		return ""
	}
	// Windows reports DOMAIN\user.
	if _, name, ok := strings.Cut(u.Username, `\`); ok {
		return name
	}
	return u.Username
}
