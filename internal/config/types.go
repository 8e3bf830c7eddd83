// SPDX-License-Identifier: MPL-2.0

package config

import (
	"errors"
	"fmt"
	"strings"
)

const (
	// AdapterLocal runs commands as local processes.
	// Adapter names are defined locally to avoid coupling config to internal/adapter;
	// the context builder converts to adapter.Name at the boundary.
	AdapterLocal AdapterName = "local"
	// AdapterSSH runs commands on a remote host over SSH.
	AdapterSSH AdapterName = "ssh"
	// AdapterDocker runs commands inside a running Docker container.
	AdapterDocker AdapterName = "docker"
	// AdapterKubernetes runs commands inside a Kubernetes pod.
	AdapterKubernetes AdapterName = "kubernetes"
	// AdapterRemoteDocker runs commands inside a Docker container on an SSH host.
	AdapterRemoteDocker AdapterName = "remote-docker"

	// OutputText prints trimmed stdout.
	OutputText OutputFormat = "text"
	// OutputJSON prints the result as indented JSON.
	OutputJSON OutputFormat = "json"
	// OutputYAML prints the result as YAML.
	OutputYAML OutputFormat = "yaml"
)

var (
	// ErrInvalidAdapterName is returned when an AdapterName value is not recognized.
	ErrInvalidAdapterName = errors.New("invalid adapter name")
	// ErrInvalidOutputFormat is returned when an OutputFormat value is not recognized.
	ErrInvalidOutputFormat = errors.New("invalid output format")
	// ErrInvalidHostConfig is the sentinel error wrapped by InvalidHostConfigError.
	ErrInvalidHostConfig = errors.New("invalid host config")
	// ErrInvalidDefaults is the sentinel error wrapped by InvalidDefaultsError.
	ErrInvalidDefaults = errors.New("invalid defaults")
	// ErrInvalidConfig is the sentinel error wrapped by InvalidConfigError.
	ErrInvalidConfig = errors.New("invalid config")
)

type (
	// AdapterName names an execution adapter in configuration.
	AdapterName string

	// InvalidAdapterNameError is returned when an AdapterName value is not recognized.
	// It wraps ErrInvalidAdapterName for errors.Is() compatibility.
	InvalidAdapterNameError struct {
		Value AdapterName
	}

	// OutputFormat selects how a command result is rendered.
	OutputFormat string

	// InvalidOutputFormatError is returned when an OutputFormat value is not recognized.
	InvalidOutputFormatError struct {
		Value OutputFormat
	}

	// InvalidHostConfigError is returned when a HostConfig has invalid fields.
	InvalidHostConfigError struct {
		Name        string
		FieldErrors []error
	}

	// InvalidDefaultsError is returned when a Defaults block has invalid fields.
	InvalidDefaultsError struct {
		FieldErrors []error
	}

	// InvalidConfigError is returned when a Config has invalid fields.
	// It wraps ErrInvalidConfig for errors.Is() compatibility and collects
	// field-level validation errors from all sub-components.
	InvalidConfigError struct {
		FieldErrors []error
	}

	// Defaults holds values used when the matching CLI flag is not given.
	Defaults struct {
		// Adapter is the adapter used when --adapter is absent.
		Adapter AdapterName `json:"adapter" mapstructure:"adapter"`
		// Timeout is a duration string ("30s", "5m").
		Timeout string `json:"timeout" mapstructure:"timeout"`
		// Retry is the number of retries after the first attempt.
		Retry int `json:"retry" mapstructure:"retry"`
		// Parallel is the batch concurrency for file sources.
		Parallel int `json:"parallel" mapstructure:"parallel"`
		// Output is the default result format.
		Output OutputFormat `json:"output" mapstructure:"output"`
	}

	// HostConfig describes a named SSH host. Every field is optional; present fields
	// become defaults when the host name is passed to --host.
	HostConfig struct {
		Host       string `json:"host,omitempty" mapstructure:"host"`
		Port       int    `json:"port,omitempty" mapstructure:"port"`
		Username   string `json:"username,omitempty" mapstructure:"username"`
		PrivateKey string `json:"private_key,omitempty" mapstructure:"private_key"`
		Password   string `json:"password,omitempty" mapstructure:"password"`
		Passphrase string `json:"passphrase,omitempty" mapstructure:"passphrase"`
	}

	// Config holds the application configuration.
	Config struct {
		// Defaults configures fallbacks for CLI flags.
		Defaults Defaults `json:"defaults" mapstructure:"defaults"`
		// Hosts maps host aliases to SSH connection settings.
		// Viper lower-cases keys, so aliases are case-insensitive.
		Hosts map[string]HostConfig `json:"hosts" mapstructure:"hosts"`
	}
)

// DefaultConfig returns the configuration used when no file is present.
func DefaultConfig() *Config {
	return &Config{
		Defaults: Defaults{
			Adapter:  AdapterLocal,
			Timeout:  "30s",
			Retry:    0,
			Parallel: 1,
			Output:   OutputText,
		},
		Hosts: map[string]HostConfig{},
	}
}

// AdapterNames returns every recognized adapter name in display order.
func AdapterNames() []AdapterName {
	return []AdapterName{AdapterLocal, AdapterSSH, AdapterDocker, AdapterKubernetes, AdapterRemoteDocker}
}

// String returns the string representation of the AdapterName.
func (n AdapterName) String() string { return string(n) }

// IsValid returns whether the AdapterName is one of the defined adapters.
func (n AdapterName) IsValid() (bool, []error) {
	switch n {
	case AdapterLocal, AdapterSSH, AdapterDocker, AdapterKubernetes, AdapterRemoteDocker:
		return true, nil
	default:
		return false, []error{&InvalidAdapterNameError{Value: n}}
	}
}

// Error implements the error interface.
func (e *InvalidAdapterNameError) Error() string {
	return fmt.Sprintf("invalid adapter %q (valid: local, ssh, docker, kubernetes, remote-docker)", e.Value)
}

// Unwrap returns ErrInvalidAdapterName for errors.Is() compatibility.
func (e *InvalidAdapterNameError) Unwrap() error { return ErrInvalidAdapterName }

// String returns the string representation of the OutputFormat.
func (f OutputFormat) String() string { return string(f) }

// IsValid returns whether the OutputFormat is one of the defined formats.
func (f OutputFormat) IsValid() (bool, []error) {
	switch f {
	case OutputText, OutputJSON, OutputYAML:
		return true, nil
	default:
		return false, []error{&InvalidOutputFormatError{Value: f}}
	}
}

// Error implements the error interface.
func (e *InvalidOutputFormatError) Error() string {
	return fmt.Sprintf("invalid output format %q (valid: text, json, yaml)", e.Value)
}

// Unwrap returns ErrInvalidOutputFormat for errors.Is() compatibility.
func (e *InvalidOutputFormatError) Unwrap() error { return ErrInvalidOutputFormat }

// IsValid returns whether the Defaults block has valid fields.
func (d Defaults) IsValid() (bool, []error) {
	var errs []error
	if valid, fieldErrs := d.Adapter.IsValid(); !valid {
		errs = append(errs, fieldErrs...)
	}
	if valid, fieldErrs := d.Output.IsValid(); !valid {
		errs = append(errs, fieldErrs...)
	}
	if d.Retry < 0 {
		errs = append(errs, fmt.Errorf("retry must be >= 0, got %d", d.Retry))
	}
	if d.Parallel < 1 {
		errs = append(errs, fmt.Errorf("parallel must be >= 1, got %d", d.Parallel))
	}
	if len(errs) > 0 {
		return false, []error{&InvalidDefaultsError{FieldErrors: errs}}
	}
	return true, nil
}

// Error implements the error interface for InvalidDefaultsError.
func (e *InvalidDefaultsError) Error() string {
	return fmt.Sprintf("invalid defaults: %d field error(s)", len(e.FieldErrors))
}

// Unwrap returns ErrInvalidDefaults for errors.Is() compatibility.
func (e *InvalidDefaultsError) Unwrap() error { return ErrInvalidDefaults }

// IsValid returns whether the HostConfig has valid fields.
// Only set fields are checked; the zero HostConfig is valid.
func (h HostConfig) IsValid() (bool, []error) {
	var errs []error
	if h.Host != "" && strings.TrimSpace(h.Host) == "" {
		errs = append(errs, fmt.Errorf("host must not be whitespace-only"))
	}
	if h.Port < 0 || h.Port > 65535 {
		errs = append(errs, fmt.Errorf("port %d out of range", h.Port))
	}
	if len(errs) > 0 {
		return false, []error{&InvalidHostConfigError{FieldErrors: errs}}
	}
	return true, nil
}

// Error implements the error interface for InvalidHostConfigError.
func (e *InvalidHostConfigError) Error() string {
	if e.Name != "" {
		return fmt.Sprintf("invalid host config %q: %d field error(s)", e.Name, len(e.FieldErrors))
	}
	return fmt.Sprintf("invalid host config: %d field error(s)", len(e.FieldErrors))
}

// Unwrap returns ErrInvalidHostConfig for errors.Is() compatibility.
func (e *InvalidHostConfigError) Unwrap() error { return ErrInvalidHostConfig }

// IsValid returns whether the Config has valid fields.
// It delegates to Defaults.IsValid() and each host's IsValid().
func (c Config) IsValid() (bool, []error) {
	var errs []error
	if valid, fieldErrs := c.Defaults.IsValid(); !valid {
		errs = append(errs, fieldErrs...)
	}
	for name, host := range c.Hosts {
		if valid, fieldErrs := host.IsValid(); !valid {
			for _, fe := range fieldErrs {
				var hostErr *InvalidHostConfigError
				if errors.As(fe, &hostErr) {
					hostErr.Name = name
				}
				errs = append(errs, fe)
			}
		}
	}
	if len(errs) > 0 {
		return false, []error{&InvalidConfigError{FieldErrors: errs}}
	}
	return true, nil
}

// Error implements the error interface for InvalidConfigError.
func (e *InvalidConfigError) Error() string {
	return fmt.Sprintf("invalid config: %d field error(s)", len(e.FieldErrors))
}

// Unwrap returns ErrInvalidConfig for errors.Is() compatibility.
func (e *InvalidConfigError) Unwrap() error { return ErrInvalidConfig }
