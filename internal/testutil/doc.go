// SPDX-License-Identifier: MPL-2.0

// Package testutil provides test helpers shared across packages: environment
// and home directory overrides (MustSetenv, SetHomeDir) and a backoff timer that
// records retry delays without sleeping (RecordingTimer).
package testutil
