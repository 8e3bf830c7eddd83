// SPDX-License-Identifier: MPL-2.0

package report

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/xrunhq/xrun/internal/config"
	"github.com/xrunhq/xrun/internal/engine"
	"github.com/xrunhq/xrun/internal/runner"

	"gopkg.in/yaml.v3"
)

const (
	// FormatText prints trimmed stdout.
	FormatText = Format(config.OutputText)
	// FormatJSON prints the whole result as indented JSON.
	FormatJSON = Format(config.OutputJSON)
	// FormatYAML prints the whole result as YAML.
	FormatYAML = Format(config.OutputYAML)
)

type (
	// Format selects how a result is rendered.
	Format config.OutputFormat

	// Options control one Report call.
	Options struct {
		Format  Format
		Quiet   bool
		Verbose bool
	}

	// Reporter writes results to an output and an error stream.
	Reporter struct {
		stdout io.Writer
		stderr io.Writer
		header func(string) string
	}

	// ReporterOption configures a Reporter.
	ReporterOption func(*Reporter)
)

// ParseFormat validates s. The empty string selects text.
func ParseFormat(s string) (Format, error) {
	if s == "" {
		return FormatText, nil
	}
	f := config.OutputFormat(strings.ToLower(strings.TrimSpace(s)))
	if valid, errs := f.IsValid(); !valid {
		return "", errs[0]
	}
	return Format(f), nil
}

// String returns the format name.
func (f Format) String() string { return string(f) }

// WithHeaderStyle decorates the summary header line, e.g. with terminal colours.
func WithHeaderStyle(fn func(string) string) ReporterOption {
	return func(r *Reporter) {
		r.header = fn
	}
}

// New creates a Reporter.
func New(stdout, stderr io.Writer, opts ...ReporterOption) *Reporter {
	r := &Reporter{stdout: stdout, stderr: stderr}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Report renders res. Quiet writes nothing in any format.
func (r *Reporter) Report(res *engine.Result, opts Options) error {
	if opts.Quiet || res == nil {
		return nil
	}

	switch opts.Format {
	case FormatJSON:
		enc := json.NewEncoder(r.stdout)
		enc.SetEscapeHTML(false)
		enc.SetIndent("", "  ")
		if err := enc.Encode(res); err != nil {
			return fmt.Errorf("encode result as json: %w", err)
		}
		return nil
	case FormatYAML:
		enc := yaml.NewEncoder(r.stdout)
		enc.SetIndent(2)
		if err := enc.Encode(res); err != nil {
			return fmt.Errorf("encode result as yaml: %w", err)
		}
		return enc.Close()
	case FormatText, "":
		return r.text(res, opts.Verbose)
	default:
		return fmt.Errorf("report: unknown format %q", opts.Format)
	}
}

func (r *Reporter) text(res *engine.Result, verbose bool) error {
	if out := strings.TrimSpace(res.Stdout); out != "" {
		if _, err := fmt.Fprintln(r.stdout, out); err != nil {
			return err
		}
	}
	if !verbose {
		return nil
	}
	if errOut := strings.TrimSpace(res.Stderr); errOut != "" {
		if _, err := fmt.Fprintln(r.stderr, errOut); err != nil {
			return err
		}
	}
	return nil
}

// ReportSummary renders the outcome of a parallel batch. Error details for each
// failure are only printed when verbose.
func (r *Reporter) ReportSummary(s runner.Summary, verbose bool) error {
	var sb strings.Builder

	header := fmt.Sprintf("%d/%d commands succeeded", s.Succeeded, s.Total)
	if s.Failed() {
		header += fmt.Sprintf(", %d failed", len(s.Failures))
	}
	if r.header != nil {
		header = r.header(header)
	}
	sb.WriteString(header)
	sb.WriteByte('\n')

	for _, f := range s.Failures {
		fmt.Fprintf(&sb, "  ✗ %s\n", f.Command)
		if verbose && f.Err != nil {
			for line := range strings.SplitSeq(f.Err.Error(), "\n") {
				fmt.Fprintf(&sb, "      %s\n", line)
			}
		}
	}
	if s.Failed() && !verbose {
		sb.WriteString("Run with --verbose for error details.\n")
	}

	_, err := io.WriteString(r.stdout, sb.String())
	return err
}
