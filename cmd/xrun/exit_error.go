// SPDX-License-Identifier: MPL-2.0

package cmd

import (
	"fmt"

	"github.com/xrunhq/xrun/pkg/types"
)

// ExitError carries the process exit code out of a RunE handler; Execute is the
// only place that calls os.Exit.
type ExitError struct {
	Code types.ExitCode
	Err  error
}

// Error returns the wrapped message, or a generic one when there is none.
func (e *ExitError) Error() string {
	if e.Err == nil {
		return fmt.Sprintf("exited with code %d", e.Code)
	}
	return e.Err.Error()
}

// Unwrap exposes the wrapped error to errors.Is and errors.As.
func (e *ExitError) Unwrap() error { return e.Err }
