// SPDX-License-Identifier: MPL-2.0

package config

// configDirOverride replaces the platform config directory when non-empty.
// os.UserHomeDir ignores HOME on some platforms, so tests pin the directory here.
var configDirOverride string

// OverrideConfigDir makes ConfigDir return dir until the returned restore
// function is called. It is meant for tests and is not safe for concurrent use.
func OverrideConfigDir(dir string) (restore func()) {
	prev := configDirOverride
	configDirOverride = dir
	return func() { configDirOverride = prev }
}
