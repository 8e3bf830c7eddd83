// SPDX-License-Identifier: MPL-2.0

// Package types holds small value types shared by the engines and the CLI.
package types

import "strconv"

// ExitCode is a command's exit status as reported to the user, always in 0-255.
// The zero value means success.
type ExitCode int

// NormalizeExitCode maps a raw status reported by a backend into the POSIX range.
// Negative values (process killed by a signal, status unknown) become 1;
// values above 255 keep their low byte, as a shell would report them.
func NormalizeExitCode(raw int) ExitCode {
	switch {
	case raw < 0:
		return 1
	case raw > 255:
		return ExitCode(raw & 0xff)
	default:
		return ExitCode(raw)
	}
}

// IsSuccess reports whether the command succeeded.
func (c ExitCode) IsSuccess() bool { return c == 0 }

// String returns the decimal form, as printed in "exited with code N".
func (c ExitCode) String() string { return strconv.Itoa(int(c)) }
