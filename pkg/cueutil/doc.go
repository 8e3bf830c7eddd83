// SPDX-License-Identifier: MPL-2.0

// Package cueutil holds helpers shared by code that loads CUE files:
// size limits applied before compilation and conversion of CUE errors into
// path-annotated validation errors.
package cueutil
