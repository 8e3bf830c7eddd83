// SPDX-License-Identifier: MPL-2.0

package cmd

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os/exec"

	"github.com/xrunhq/xrun/internal/adapter"
	"github.com/xrunhq/xrun/internal/app/execute"
	"github.com/xrunhq/xrun/internal/engine"
	"github.com/xrunhq/xrun/internal/issue"
	"github.com/xrunhq/xrun/internal/source"
)

// commandError turns a terminal execution failure into the error returned from
// RunE. A non-zero exit keeps the command's exit code; everything else exits 1.
func commandError(err error) error {
	if err == nil {
		return nil
	}
	var exitErr *engine.ExitError
	if errors.As(err, &exitErr) {
		return &ExitError{Code: exitErr.Code, Err: err}
	}
	return err
}

// issueFor picks the catalog entry that explains err.
func issueFor(err error) (issue.Id, bool) {
	if found, ok := issue.IssueOf(err); ok {
		return found.Id(), true
	}

	var (
		unknownAdapter *adapter.UnknownAdapterError
		startErr       *engine.StartError
		timeoutErr     *engine.TimeoutError
	)
	switch {
	case errors.As(err, &unknownAdapter):
		return issue.UnknownAdapterId, true
	case errors.Is(err, execute.ErrInvalidTimeout):
		return issue.InvalidTimeoutId, true
	case errors.Is(err, adapter.ErrConfiguration):
		return issue.MissingAdapterOptionId, true
	case errors.Is(err, source.ErrFileNotFound):
		return issue.CommandFileNotFoundId, true
	case errors.Is(err, source.ErrInvalidTemplateData):
		return issue.InvalidTemplateDataId, true
	case errors.Is(err, source.ErrTemplateRender):
		return issue.TemplateRenderFailedId, true
	case errors.Is(err, source.ErrNoCommandSpecified):
		return issue.NoCommandSpecifiedId, true
	case errors.As(err, &timeoutErr):
		return issue.CommandTimedOutId, true
	case errors.As(err, &startErr) && errors.Is(startErr.Err, exec.ErrNotFound):
		return issue.BackendToolNotFoundId, true
	case errors.Is(err, engine.ErrExecution) && isConnectError(err):
		return issue.ConnectFailedId, true
	case errors.Is(err, engine.ErrExecution):
		return issue.CommandFailedId, true
	default:
		return 0, false
	}
}

func isConnectError(err error) bool {
	var connErr *engine.ConnectError
	return errors.As(err, &connErr)
}

// formatErrorForDisplay formats an error for user display.
// ActionableErrors list their suggestions and, when verbose, the error chain.
func formatErrorForDisplay(err error, verbose bool) string {
	var ae *issue.ActionableError
	if errors.As(err, &ae) {
		return ae.Format(verbose)
	}
	return err.Error()
}

// renderIssueHelp writes the catalog entry for err, if any.
func renderIssueHelp(w io.Writer, err error) {
	id, ok := issueFor(err)
	if !ok {
		return
	}
	entry := issue.Get(id)
	if entry == nil {
		return
	}
	rendered, renderErr := entry.Render("dark")
	if renderErr != nil {
		slog.Warn("failed to render issue catalog entry", "issueID", id, "error", renderErr)
		return
	}
	fmt.Fprint(w, rendered)
}
