// SPDX-License-Identifier: MPL-2.0

package engine

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/xrunhq/xrun/pkg/types"
)

const maxStderrInError = 200

// ErrExecution is the sentinel for every backend failure. Execution errors are
// retried by the runner; configuration errors never reach this package.
var ErrExecution = errors.New("execution failed")

type (
	// ExitError is returned when the command ran and exited non-zero.
	ExitError struct {
		Command string
		Code    types.ExitCode
		Stderr  string
	}

	// TimeoutError is returned when an attempt exceeded its timeout.
	TimeoutError struct {
		Command string
		Timeout time.Duration
	}

	// ConnectError is returned when the backend channel could not be opened
	// (SSH dial, handshake, or authentication).
	ConnectError struct {
		Target string
		Err    error
	}

	// StartError is returned when the command could not be started
	// (binary missing, session refused).
	StartError struct {
		Program string
		Err     error
	}
)

// Error implements the error interface.
func (e *ExitError) Error() string {
	msg := fmt.Sprintf("command exited with code %d", e.Code)
	if s := strings.TrimSpace(e.Stderr); s != "" {
		if len(s) > maxStderrInError {
			s = s[:maxStderrInError] + "..."
		}
		msg += ": " + s
	}
	return msg
}

// Unwrap returns ErrExecution for errors.Is() compatibility.
func (e *ExitError) Unwrap() error { return ErrExecution }

// Error implements the error interface.
func (e *TimeoutError) Error() string {
	return fmt.Sprintf("command timed out after %s", e.Timeout)
}

// Unwrap returns ErrExecution and context.DeadlineExceeded.
func (e *TimeoutError) Unwrap() []error { return []error{ErrExecution, context.DeadlineExceeded} }

// Error implements the error interface.
func (e *ConnectError) Error() string {
	return fmt.Sprintf("connect to %s: %v", e.Target, e.Err)
}

// Unwrap returns ErrExecution and the underlying error.
func (e *ConnectError) Unwrap() []error { return []error{ErrExecution, e.Err} }

// Error implements the error interface.
func (e *StartError) Error() string {
	return fmt.Sprintf("start %s: %v", e.Program, e.Err)
}

// Unwrap returns ErrExecution and the underlying error.
func (e *StartError) Unwrap() []error { return []error{ErrExecution, e.Err} }
