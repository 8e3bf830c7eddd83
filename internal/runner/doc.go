// SPDX-License-Identifier: MPL-2.0

// Package runner executes commands against an ExecutionContext.
//
// Executor runs one command with linear retry backoff: attempt n is followed by a
// wait of n steps before attempt n+1, and the last attempt's error is returned
// unchanged. BatchRunner drives a list of commands either sequentially (fail-fast)
// or in chunks of bounded concurrency where one failure never cancels another.
package runner
