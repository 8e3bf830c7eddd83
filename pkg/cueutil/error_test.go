// SPDX-License-Identifier: MPL-2.0

package cueutil

import (
	"errors"
	"strings"
	"testing"

	"cuelang.org/go/cue"
	"cuelang.org/go/cue/cuecontext"
)

func TestFormatError(t *testing.T) {
	t.Parallel()

	t.Run("nil error returns nil", func(t *testing.T) {
		t.Parallel()

		if err := FormatError(nil, "test.cue"); err != nil {
			t.Errorf("expected nil, got %v", err)
		}
	})

	t.Run("non-CUE error is wrapped with filepath", func(t *testing.T) {
		t.Parallel()

		original := errors.New("some error")
		err := FormatError(original, "test.cue")
		if !errors.Is(err, original) {
			t.Errorf("expected wrapped original, got %v", err)
		}
		if !strings.HasPrefix(err.Error(), "test.cue: ") {
			t.Errorf("error should start with filepath, got: %v", err)
		}
	})

	t.Run("CUE validation error carries the value path", func(t *testing.T) {
		t.Parallel()

		ctx := cuecontext.New()
		schema := ctx.CompileString(`#C: {defaults?: {retry?: int & >=0}}`).LookupPath(cue.ParsePath("#C"))
		data := ctx.CompileString(`defaults: retry: -1`)
		verr := schema.Unify(data).Validate(cue.Concrete(true))
		if verr == nil {
			t.Fatal("expected CUE validation error")
		}

		err := FormatError(verr, "config.cue")
		if !errors.Is(err, ErrValidation) {
			t.Fatalf("expected ErrValidation, got %v", err)
		}
		var ve *ValidationError
		if !errors.As(err, &ve) {
			t.Fatalf("expected *ValidationError, got %T", err)
		}
		if len(ve.Fields) == 0 || ve.Fields[0].Path != "defaults.retry" {
			t.Errorf("Fields = %+v, want path defaults.retry", ve.Fields)
		}
		if !strings.HasPrefix(err.Error(), "config.cue: defaults.retry: ") {
			t.Errorf("Error() = %q", err.Error())
		}
	})
}

func TestFormatPath(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name     string
		path     []string
		expected string
	}{
		{"empty path", nil, ""},
		{"single element", []string{"defaults"}, "defaults"},
		{"map key", []string{"hosts", "web", "port"}, "hosts.web.port"},
		{"list index", []string{"items", "0", "name"}, "items[0].name"},
		{"leading numeric label", []string{"0", "x"}, "0.x"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			if got := formatPath(tt.path); got != tt.expected {
				t.Errorf("formatPath(%v) = %q, want %q", tt.path, got, tt.expected)
			}
		})
	}
}

func TestCheckFileSize(t *testing.T) {
	t.Parallel()

	if err := CheckFileSize(make([]byte, 100), 100, "test.cue"); err != nil {
		t.Errorf("data at exact limit: expected nil, got %v", err)
	}
	if err := CheckFileSize(nil, 100, "test.cue"); err != nil {
		t.Errorf("empty data: expected nil, got %v", err)
	}

	err := CheckFileSize(make([]byte, 101), 100, "test.cue")
	if !errors.Is(err, ErrFileTooLarge) {
		t.Fatalf("expected ErrFileTooLarge, got %v", err)
	}
	for _, want := range []string{"test.cue", "101", "100"} {
		if !strings.Contains(err.Error(), want) {
			t.Errorf("error %q should contain %q", err.Error(), want)
		}
	}
}

func TestValidationError_Error(t *testing.T) {
	t.Parallel()

	single := &ValidationError{FilePath: "config.cue", Fields: []FieldError{{Path: "defaults.output", Message: "bad"}}}
	if got := single.Error(); got != "config.cue: defaults.output: bad" {
		t.Errorf("single = %q", got)
	}

	noPath := &ValidationError{FilePath: "config.cue", Fields: []FieldError{{Message: "syntax error"}}}
	if got := noPath.Error(); got != "config.cue: syntax error" {
		t.Errorf("noPath = %q", got)
	}

	multi := &ValidationError{FilePath: "config.cue", Fields: []FieldError{{Path: "a", Message: "x"}, {Path: "b", Message: "y"}}}
	if got := multi.Error(); got != "config.cue: validation failed:\n  a: x\n  b: y" {
		t.Errorf("multi = %q", got)
	}
}
