// SPDX-License-Identifier: MPL-2.0

package types

import "testing"

func TestNormalizeExitCode(t *testing.T) {
	t.Parallel()

	tests := []struct {
		raw  int
		want ExitCode
	}{
		{raw: 0, want: 0},
		{raw: 7, want: 7},
		{raw: 255, want: 255},
		{raw: 256, want: 0},
		{raw: 258, want: 2},
		{raw: -1, want: 1},
		{raw: -9, want: 1},
	}

	for _, tt := range tests {
		if got := NormalizeExitCode(tt.raw); got != tt.want {
			t.Errorf("NormalizeExitCode(%d) = %d, want %d", tt.raw, got, tt.want)
		}
	}
}

func TestExitCode_IsSuccessAndString(t *testing.T) {
	t.Parallel()

	if !ExitCode(0).IsSuccess() {
		t.Error("0 should be success")
	}
	if ExitCode(1).IsSuccess() {
		t.Error("1 should not be success")
	}
	if got := ExitCode(42).String(); got != "42" {
		t.Errorf("String() = %q, want 42", got)
	}
}
