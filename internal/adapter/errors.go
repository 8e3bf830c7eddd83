// SPDX-License-Identifier: MPL-2.0

package adapter

import (
	"errors"
	"fmt"
	"strings"
)

// ErrConfiguration is the sentinel for every adapter option error.
// It is never retried.
var ErrConfiguration = errors.New("adapter configuration error")

type (
	// MissingRequiredOptionError is returned when an adapter's required option is absent.
	MissingRequiredOptionError struct {
		Adapter Name
		// Option is the option name as the user spells it ("host", "container", "pod").
		Option string
	}

	// UnknownAdapterError is returned for adapter names outside the known set.
	UnknownAdapterError struct {
		Value string
	}
)

// Error implements the error interface.
func (e *MissingRequiredOptionError) Error() string {
	return fmt.Sprintf("missing required option %q for adapter %s", e.Option, e.Adapter)
}

// Unwrap returns ErrConfiguration for errors.Is() compatibility.
func (e *MissingRequiredOptionError) Unwrap() error { return ErrConfiguration }

// Error implements the error interface.
func (e *UnknownAdapterError) Error() string {
	names := make([]string, 0, len(Names()))
	for _, n := range Names() {
		names = append(names, string(n))
	}
	return fmt.Sprintf("unknown adapter %q (valid: %s)", e.Value, strings.Join(names, ", "))
}

// Unwrap returns ErrConfiguration for errors.Is() compatibility.
func (e *UnknownAdapterError) Unwrap() error { return ErrConfiguration }
