// SPDX-License-Identifier: MPL-2.0

package config

import (
	"slices"
	"strings"

	"github.com/spf13/viper"
)

// Store is the read-only configuration snapshot for one invocation.
// It is safe for concurrent reads once returned by a Provider.
type Store struct {
	v    *viper.Viper
	cfg  *Config
	path string
}

// NewStore wraps an already-built Config. Values not present in cfg
// are answered from the built-in defaults.
func NewStore(cfg *Config) *Store {
	v := newViper()
	if cfg == nil {
		cfg = DefaultConfig()
	}
	v.Set("defaults.adapter", string(cfg.Defaults.Adapter))
	v.Set("defaults.timeout", cfg.Defaults.Timeout)
	v.Set("defaults.retry", cfg.Defaults.Retry)
	v.Set("defaults.parallel", cfg.Defaults.Parallel)
	v.Set("defaults.output", string(cfg.Defaults.Output))

	hosts := make(map[string]HostConfig, len(cfg.Hosts))
	for name, h := range cfg.Hosts {
		hosts[strings.ToLower(name)] = h
	}
	snapshot := *cfg
	snapshot.Hosts = hosts

	return &Store{v: v, cfg: &snapshot}
}

// Config returns the decoded configuration.
func (s *Store) Config() *Config { return s.cfg }

// Path returns the config file that was loaded, or "" when only defaults apply.
func (s *Store) Path() string { return s.path }

// GetValue looks up a dotted configuration key ("defaults.adapter").
// The boolean reports whether the key is known at all (file, env, or default).
func (s *Store) GetValue(key string) (any, bool) {
	if !s.v.IsSet(key) {
		return nil, false
	}
	return s.v.Get(key), true
}

// GetString is GetValue for string keys; it returns "" for unknown keys.
func (s *Store) GetString(key string) string {
	if !s.v.IsSet(key) {
		return ""
	}
	return s.v.GetString(key)
}

// GetHostConfig returns the named SSH host entry. Lookup is case-insensitive.
func (s *Store) GetHostConfig(name string) (HostConfig, bool) {
	if name == "" {
		return HostConfig{}, false
	}
	h, ok := s.cfg.Hosts[strings.ToLower(name)]
	return h, ok
}

// HostNames returns the configured host aliases in sorted order.
func (s *Store) HostNames() []string {
	names := make([]string, 0, len(s.cfg.Hosts))
	for name := range s.cfg.Hosts {
		names = append(names, name)
	}
	slices.Sort(names)
	return names
}
