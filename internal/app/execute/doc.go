// SPDX-License-Identifier: MPL-2.0

// Package execute builds the immutable ExecutionContext shared by every
// command of one xrun invocation: the resolved adapter, environment
// variables, working directory, shell mode and per-attempt timeout.
package execute
