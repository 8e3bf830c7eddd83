// SPDX-License-Identifier: MPL-2.0

package execute

import (
	"errors"
	"testing"
	"time"

	"github.com/xrunhq/xrun/internal/adapter"
)

func TestParseShellMode(t *testing.T) {
	t.Parallel()

	tests := []struct {
		in          string
		wantSet     bool
		wantEnabled bool
		wantPath    string
	}{
		{"", false, true, ""},
		{"true", true, true, ""},
		{"false", true, false, ""},
		{"/bin/bash", true, true, "/bin/bash"},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			t.Parallel()

			m := ParseShellMode(tt.in)
			if m.IsSet() != tt.wantSet || m.Enabled() != tt.wantEnabled || m.Path() != tt.wantPath {
				t.Errorf("ParseShellMode(%q) = set:%v enabled:%v path:%q", tt.in, m.IsSet(), m.Enabled(), m.Path())
			}
			if m.String() != tt.in {
				t.Errorf("String() = %q, want %q", m.String(), tt.in)
			}
		})
	}
}

func TestParseTimeout(t *testing.T) {
	t.Parallel()

	tests := []struct {
		in      string
		want    time.Duration
		wantErr bool
	}{
		{"", 0, false},
		{"  ", 0, false},
		{"30s", 30 * time.Second, false},
		{"5m", 5 * time.Minute, false},
		{"1h30m", 90 * time.Minute, false},
		{"1500", 1500 * time.Millisecond, false},
		{"0", 0, false},
		{"bogus", 0, true},
		{"-5s", 0, true},
		{"-10", 0, true},
		{"9223372036854", 9223372036854 * time.Millisecond, false},
		{"9223372036855", 0, true},
		{"99999999999999999", 0, true},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			t.Parallel()

			got, err := ParseTimeout(tt.in)
			if (err != nil) != tt.wantErr {
				t.Fatalf("ParseTimeout(%q) error = %v, wantErr %v", tt.in, err, tt.wantErr)
			}
			if got != tt.want {
				t.Errorf("ParseTimeout(%q) = %v, want %v", tt.in, got, tt.want)
			}
			if tt.wantErr {
				var te *InvalidTimeoutError
				if !errors.As(err, &te) || te.Value != tt.in {
					t.Errorf("expected *InvalidTimeoutError for %q, got %v", tt.in, err)
				}
				if !errors.Is(err, adapter.ErrConfiguration) {
					t.Error("invalid timeout should be a configuration error")
				}
			}
		})
	}
}
