// SPDX-License-Identifier: MPL-2.0

// Package issue turns failures into something a user can act on.
//
// ActionableError records what was attempted, on which resource, and what to try
// next. The catalog maps each failure class (unknown adapter, missing option,
// timeout, connection failure, ...) to a Markdown help page that the CLI renders
// with glamour under --verbose.
package issue
