// SPDX-License-Identifier: MPL-2.0

// Package config handles xrun configuration using Viper with CUE as the file format.
//
// Configuration is loaded from ~/.config/xrun/config.cue (or the XDG equivalent on Linux,
// ~/Library/Application Support/xrun/config.cue on macOS, %APPDATA%\xrun\config.cue
// on Windows). The file is validated against an embedded CUE schema (config_schema.cue)
// and merged into Viper on top of the built-in defaults; XRUN_* environment variables
// override file values (e.g. XRUN_DEFAULTS_ADAPTER=ssh).
//
// The loaded configuration is exposed through Store, the read-only configuration store
// consumed by the adapter resolver and the context builder: GetValue for dotted keys
// and GetHostConfig for named SSH hosts.
package config
