// SPDX-License-Identifier: MPL-2.0

package cueutil

import (
	"errors"
	"fmt"
	"strings"

	cueerrors "cuelang.org/go/cue/errors"
)

var (
	// ErrValidation is the sentinel wrapped by every *ValidationError.
	ErrValidation = errors.New("cue validation failed")
	// ErrFileTooLarge is returned by CheckFileSize.
	ErrFileTooLarge = errors.New("file too large")
)

type (
	// FieldError is one CUE error attached to a value path.
	FieldError struct {
		// Path is the value path in JSON-path notation ("hosts.web.port"); empty for syntax errors.
		Path    string
		Message string
	}

	// ValidationError collects the CUE errors reported for one file.
	ValidationError struct {
		FilePath string
		Fields   []FieldError
	}
)

// Error renders "<file>: <path>: <message>" for a single field, or an indented
// list when several fields failed.
func (e *ValidationError) Error() string {
	lines := make([]string, 0, len(e.Fields))
	for _, f := range e.Fields {
		if f.Path != "" {
			lines = append(lines, f.Path+": "+f.Message)
		} else {
			lines = append(lines, f.Message)
		}
	}

	switch len(lines) {
	case 0:
		return e.FilePath + ": validation failed"
	case 1:
		return e.FilePath + ": " + lines[0]
	default:
		return fmt.Sprintf("%s: validation failed:\n  %s", e.FilePath, strings.Join(lines, "\n  "))
	}
}

// Unwrap returns ErrValidation for errors.Is() compatibility.
func (e *ValidationError) Unwrap() error { return ErrValidation }

// FormatError converts a CUE error into a *ValidationError whose entries carry
// JSON-path prefixes ("config.cue: defaults.retry: invalid value -1").
// Non-CUE errors are wrapped with the file path and returned as-is.
func FormatError(err error, filePath string) error {
	if err == nil {
		return nil
	}

	cueErrs := cueerrors.Errors(err)
	if len(cueErrs) == 0 {
		return fmt.Errorf("%s: %w", filePath, err)
	}

	verr := &ValidationError{FilePath: filePath}
	for _, e := range cueErrs {
		pathStr := formatPath(cueerrors.Path(e))
		msg := e.Error()

		// CUE sometimes repeats the path at the start of the message.
		if pathStr != "" && strings.HasPrefix(msg, pathStr) {
			msg = strings.TrimSpace(strings.TrimPrefix(strings.TrimPrefix(msg, pathStr), ":"))
		}

		verr.Fields = append(verr.Fields, FieldError{Path: pathStr, Message: msg})
	}

	return verr
}

// formatPath converts a CUE error path (["hosts", "web", "port"] or
// ["items", "0"]) to JSON-path notation ("hosts.web.port", "items[0]").
func formatPath(path []string) string {
	var result strings.Builder
	for i, part := range path {
		if i > 0 && isIndex(part) {
			result.WriteString("[" + part + "]")
			continue
		}
		if i > 0 {
			result.WriteString(".")
		}
		result.WriteString(part)
	}
	return result.String()
}

func isIndex(s string) bool {
	if s == "" {
		return false
	}
	for _, c := range s {
		if c < '0' || c > '9' {
			return false
		}
	}
	return true
}

// CheckFileSize rejects data larger than maxSize bytes before it is handed to CUE.
func CheckFileSize(data []byte, maxSize int64, filename string) error {
	if int64(len(data)) > maxSize {
		return fmt.Errorf("%s: %d bytes exceeds maximum %d bytes: %w",
			filename, len(data), maxSize, ErrFileTooLarge)
	}
	return nil
}
