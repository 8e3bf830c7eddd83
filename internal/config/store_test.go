// SPDX-License-Identifier: MPL-2.0

package config

import (
	"slices"
	"testing"
)

func TestNewStore(t *testing.T) {
	t.Parallel()

	cfg := DefaultConfig()
	cfg.Defaults.Adapter = AdapterKubernetes
	cfg.Hosts["Bastion"] = HostConfig{Host: "10.1.1.1", Username: "ops"}
	cfg.Hosts["db"] = HostConfig{Port: 2200}

	store := NewStore(cfg)

	if v, ok := store.GetValue("defaults.adapter"); !ok || v != "kubernetes" {
		t.Errorf("GetValue(defaults.adapter) = %v, %v", v, ok)
	}
	if got := store.GetString("defaults.timeout"); got != "30s" {
		t.Errorf("GetString(defaults.timeout) = %q", got)
	}
	if _, ok := store.GetValue("defaults.nope"); ok {
		t.Error("unknown key should not be reported as set")
	}
	if got := store.GetString("defaults.nope"); got != "" {
		t.Errorf("GetString(unknown) = %q, want empty", got)
	}

	h, ok := store.GetHostConfig("BASTION")
	if !ok || h.Username != "ops" {
		t.Errorf("GetHostConfig is case-insensitive, got %+v, %v", h, ok)
	}
	if _, ok := store.GetHostConfig(""); ok {
		t.Error("empty host name should not match")
	}
	if _, ok := store.GetHostConfig("missing"); ok {
		t.Error("unknown host should not match")
	}

	if got := store.HostNames(); !slices.Equal(got, []string{"bastion", "db"}) {
		t.Errorf("HostNames() = %v", got)
	}
	if store.Path() != "" {
		t.Errorf("Path() = %q, want empty", store.Path())
	}

	// The caller's config is not aliased.
	cfg.Hosts["late"] = HostConfig{}
	if _, ok := store.GetHostConfig("late"); ok {
		t.Error("store should not observe later mutations of the input config")
	}
}

func TestNewStore_Nil(t *testing.T) {
	t.Parallel()

	store := NewStore(nil)
	if store.Config().Defaults.Adapter != AdapterLocal {
		t.Errorf("adapter = %s, want local", store.Config().Defaults.Adapter)
	}
	if len(store.HostNames()) != 0 {
		t.Errorf("HostNames() = %v, want empty", store.HostNames())
	}
}
