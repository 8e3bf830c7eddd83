// SPDX-License-Identifier: MPL-2.0

package report

import (
	"bytes"
	"errors"
	"strings"
	"testing"

	"github.com/xrunhq/xrun/internal/config"
	"github.com/xrunhq/xrun/internal/engine"
	"github.com/xrunhq/xrun/internal/runner"

	"gopkg.in/yaml.v3"
)

func sampleResult() *engine.Result {
	return &engine.Result{
		Command:  "echo hi && ls",
		ExitCode: 0,
		Stdout:   "\n hi\n",
		Stderr:   "warning: slow disk\n",
	}
}

func TestParseFormat(t *testing.T) {
	t.Parallel()

	tests := []struct {
		in      string
		want    Format
		wantErr bool
	}{
		{in: "", want: FormatText},
		{in: "text", want: FormatText},
		{in: "JSON", want: FormatJSON},
		{in: " yaml ", want: FormatYAML},
		{in: "xml", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			t.Parallel()

			got, err := ParseFormat(tt.in)
			if tt.wantErr {
				if !errors.Is(err, config.ErrInvalidOutputFormat) {
					t.Errorf("ParseFormat(%q) error = %v, want ErrInvalidOutputFormat", tt.in, err)
				}
				return
			}
			if err != nil || got != tt.want {
				t.Errorf("ParseFormat(%q) = (%q, %v), want %q", tt.in, got, err, tt.want)
			}
		})
	}
}

func TestReport_Text(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name       string
		verbose    bool
		wantStdout string
		wantStderr string
	}{
		{name: "plain", wantStdout: "hi\n"},
		{name: "verbose adds stderr", verbose: true, wantStdout: "hi\n", wantStderr: "warning: slow disk\n"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			var stdout, stderr bytes.Buffer
			if err := New(&stdout, &stderr).Report(sampleResult(), Options{Format: FormatText, Verbose: tt.verbose}); err != nil {
				t.Fatalf("Report() error = %v", err)
			}
			if stdout.String() != tt.wantStdout {
				t.Errorf("stdout = %q, want %q", stdout.String(), tt.wantStdout)
			}
			if stderr.String() != tt.wantStderr {
				t.Errorf("stderr = %q, want %q", stderr.String(), tt.wantStderr)
			}
		})
	}
}

func TestReport_TextEmptyOutput(t *testing.T) {
	t.Parallel()

	var stdout bytes.Buffer
	if err := New(&stdout, &stdout).Report(&engine.Result{Command: "true", Stdout: "  \n"}, Options{}); err != nil {
		t.Fatalf("Report() error = %v", err)
	}
	if stdout.Len() != 0 {
		t.Errorf("stdout = %q, want nothing for blank output", stdout.String())
	}
}

func TestReport_JSON(t *testing.T) {
	t.Parallel()

	var stdout bytes.Buffer
	if err := New(&stdout, nil).Report(sampleResult(), Options{Format: FormatJSON}); err != nil {
		t.Fatalf("Report() error = %v", err)
	}

	want := `{
  "command": "echo hi && ls",
  "exitCode": 0,
  "stdout": "\n hi\n",
  "stderr": "warning: slow disk\n"
}
`
	if stdout.String() != want {
		t.Errorf("json output =\n%s\nwant\n%s", stdout.String(), want)
	}
}

func TestReport_YAML(t *testing.T) {
	t.Parallel()

	var stdout bytes.Buffer
	res := &engine.Result{Command: "uname -a", ExitCode: 3, Stdout: "Linux\n", Stderr: ""}
	if err := New(&stdout, nil).Report(res, Options{Format: FormatYAML}); err != nil {
		t.Fatalf("Report() error = %v", err)
	}

	var got map[string]any
	if err := yaml.Unmarshal(stdout.Bytes(), &got); err != nil {
		t.Fatalf("output is not yaml: %v\n%s", err, stdout.String())
	}
	if got["command"] != "uname -a" || got["exitCode"] != 3 || got["stdout"] != "Linux\n" || got["stderr"] != "" {
		t.Errorf("yaml fields = %v", got)
	}
	if !strings.HasPrefix(stdout.String(), "command: uname -a\n") {
		t.Errorf("yaml output should start with the command field:\n%s", stdout.String())
	}
}

func TestReport_QuietWritesNothing(t *testing.T) {
	t.Parallel()

	for _, format := range []Format{FormatText, FormatJSON, FormatYAML} {
		var stdout, stderr bytes.Buffer
		if err := New(&stdout, &stderr).Report(sampleResult(), Options{Format: format, Quiet: true, Verbose: true}); err != nil {
			t.Fatalf("Report(%s) error = %v", format, err)
		}
		if stdout.Len() != 0 || stderr.Len() != 0 {
			t.Errorf("%s: quiet wrote stdout=%q stderr=%q", format, stdout.String(), stderr.String())
		}
	}
}

func TestReport_UnknownFormat(t *testing.T) {
	t.Parallel()

	if err := New(&bytes.Buffer{}, nil).Report(sampleResult(), Options{Format: "xml"}); err == nil {
		t.Error("Report() with unknown format should fail")
	}
}

func TestReportSummary(t *testing.T) {
	t.Parallel()

	summary := runner.Summary{
		Total:     5,
		Succeeded: 4,
		Failures:  []runner.Failure{{Command: "cmd3", Err: errors.New("command exited with code 1: boom")}},
	}

	tests := []struct {
		name    string
		verbose bool
		want    string
	}{
		{
			name: "terse",
			want: "4/5 commands succeeded, 1 failed\n  ✗ cmd3\nRun with --verbose for error details.\n",
		},
		{
			name:    "verbose",
			verbose: true,
			want:    "4/5 commands succeeded, 1 failed\n  ✗ cmd3\n      command exited with code 1: boom\n",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			var stdout bytes.Buffer
			if err := New(&stdout, nil).ReportSummary(summary, tt.verbose); err != nil {
				t.Fatalf("ReportSummary() error = %v", err)
			}
			if stdout.String() != tt.want {
				t.Errorf("ReportSummary() =\n%q\nwant\n%q", stdout.String(), tt.want)
			}
		})
	}
}

func TestReportSummary_AllSucceeded(t *testing.T) {
	t.Parallel()

	var stdout bytes.Buffer
	r := New(&stdout, nil, WithHeaderStyle(func(s string) string { return "[" + s + "]" }))
	if err := r.ReportSummary(runner.Summary{Total: 3, Succeeded: 3}, false); err != nil {
		t.Fatalf("ReportSummary() error = %v", err)
	}
	if want := "[3/3 commands succeeded]\n"; stdout.String() != want {
		t.Errorf("ReportSummary() = %q, want %q", stdout.String(), want)
	}
}
