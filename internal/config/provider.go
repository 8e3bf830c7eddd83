// SPDX-License-Identifier: MPL-2.0

package config

import "context"

type (
	// LoadOptions selects where configuration is read from. Zero values mean
	// the platform config directory, then ./config.cue, then built-in defaults.
	LoadOptions struct {
		// ConfigFilePath is the --config flag; when set, only this file is read
		// and it must exist.
		ConfigFilePath string
		// ConfigDirPath replaces the platform config directory.
		ConfigDirPath string
	}

	// Provider produces the read-only Store for one invocation. The CLI takes a
	// Provider so tests can inject a fixed Store.
	Provider interface {
		Load(ctx context.Context, opts LoadOptions) (*Store, error)
	}

	cueProvider struct{}
)

// NewProvider returns the Provider that reads CUE files from disk.
func NewProvider() Provider {
	return cueProvider{}
}

// Load reads, validates and decodes the configuration.
func (cueProvider) Load(ctx context.Context, opts LoadOptions) (*Store, error) {
	return loadWithOptions(ctx, opts)
}
