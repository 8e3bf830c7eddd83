// SPDX-License-Identifier: MPL-2.0

// Package source produces command text for an invocation. Exactly one source is
// active: a command file (one command per line), a Handlebars template rendered
// against JSON data, or the positional arguments joined with spaces.
package source
