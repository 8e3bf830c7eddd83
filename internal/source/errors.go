// SPDX-License-Identifier: MPL-2.0

package source

import (
	"errors"
	"fmt"
)

var (
	// ErrFileNotFound is the sentinel wrapped by FileNotFoundError.
	ErrFileNotFound = errors.New("file not found")
	// ErrInvalidTemplateData is the sentinel wrapped by InvalidTemplateDataError.
	ErrInvalidTemplateData = errors.New("invalid template data")
	// ErrTemplateRender is the sentinel wrapped by TemplateRenderError.
	ErrTemplateRender = errors.New("template render failed")
	// ErrNoCommandSpecified is returned when no source yields a command.
	ErrNoCommandSpecified = errors.New("no command specified")
)

type (
	// FileNotFoundError is returned when a --file or --data-file path does not exist.
	FileNotFoundError struct {
		Path string
	}

	// InvalidTemplateDataError carries the JSON decoder's message for malformed --data.
	InvalidTemplateDataError struct {
		Err error
	}

	// TemplateRenderError is returned when a template fails to parse or execute.
	TemplateRenderError struct {
		Template string
		Err      error
	}
)

// Error implements the error interface.
func (e *FileNotFoundError) Error() string {
	return fmt.Sprintf("file not found: %s", e.Path)
}

// Unwrap returns ErrFileNotFound for errors.Is() compatibility.
func (e *FileNotFoundError) Unwrap() error { return ErrFileNotFound }

// Error implements the error interface.
func (e *InvalidTemplateDataError) Error() string {
	return fmt.Sprintf("invalid template data: %v", e.Err)
}

// Unwrap returns ErrInvalidTemplateData and the decoder error.
func (e *InvalidTemplateDataError) Unwrap() []error { return []error{ErrInvalidTemplateData, e.Err} }

// Error implements the error interface.
func (e *TemplateRenderError) Error() string {
	return fmt.Sprintf("template render failed: %v", e.Err)
}

// Unwrap returns ErrTemplateRender and the underlying error.
func (e *TemplateRenderError) Unwrap() []error { return []error{ErrTemplateRender, e.Err} }
