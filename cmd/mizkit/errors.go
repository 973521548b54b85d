// SPDX-License-Identifier: MPL-2.0

package main

import (
	"errors"
	"fmt"
	"io"
	"io/fs"
	"log/slog"

	"github.com/mizkit/mizkit/internal/config"
	"github.com/mizkit/mizkit/internal/issue"
	"github.com/mizkit/mizkit/pkg/lua"
	"github.com/mizkit/mizkit/pkg/miz"
	"github.com/mizkit/mizkit/pkg/reorder"
)

// archiveError attaches the failed operation, the archive, suggestions and
// the matching catalog entry to err. Errors that are already actionable are
// returned unchanged.
func archiveError(err error, operation, archive string) error {
	if err == nil {
		return nil
	}
	var ae *issue.ActionableError
	if errors.As(err, &ae) {
		return err
	}

	ec := issue.NewErrorContext().
		WithOperation(operation).
		WithResource(archive).
		Wrap(err)

	switch {
	case errors.Is(err, miz.ErrNotFound):
		ec.WithIssue(issue.MizNotFoundId).
			WithSuggestion("Check the path; mission archives usually live in Saved Games/DCS/Missions")
	case errors.Is(err, miz.ErrStructure):
		ec.WithIssue(issue.MizStructureId).
			WithSuggestion("Open and re-save the mission in the DCS mission editor")
	case errors.Is(err, miz.ErrFormat):
		ec.WithIssue(issue.MizFormatId).
			WithSuggestion("Make sure the file is a .miz archive saved by DCS")
	case errors.Is(err, lua.ErrParse):
		ec.WithIssue(issue.LuaParseId).
			WithSuggestion("Inspect the reported line in the extracted member")
	case errors.Is(err, miz.ErrCharset):
		ec.WithIssue(issue.CharsetId).
			WithSuggestion("Try 'mizkit config set charset utf-8' if the archive was written as UTF-8")
	case errors.Is(err, reorder.ErrCorruption):
		ec.WithIssue(issue.MirrorCorruptionId).
			WithSuggestion("Check free space and the health of the target drive, then run again")
	case errors.Is(err, fs.ErrPermission):
		ec.WithIssue(issue.PermissionDeniedId).
			WithSuggestion("Close DCS or any program holding the files open, and check folder permissions")
	}

	var mizErr *miz.Error
	if errors.As(err, &mizErr) && mizErr.ScratchDir != "" {
		ec.WithSuggestion(fmt.Sprintf("Extracted files were kept in %s", mizErr.ScratchDir))
	}
	return ec.BuildError()
}

// renderError prints err with its suggestions. Verbose output appends the
// error chain and the rendered catalog entry.
func renderError(w io.Writer, err error, verbose bool, scheme config.ColorScheme) {
	var ae *issue.ActionableError
	if !errors.As(err, &ae) {
		fmt.Fprintf(w, "%s %s\n", ErrorStyle.Render("✗"), err.Error())
		return
	}
	fmt.Fprintf(w, "%s %s\n", ErrorStyle.Render("✗"), ae.Format(verbose))
	if !verbose {
		return
	}
	entry := ae.Issue()
	if entry == nil {
		return
	}
	rendered, renderErr := entry.Render(string(scheme))
	if renderErr != nil {
		slog.Warn("failed to render issue catalog entry", "issueID", ae.IssueID, "error", renderErr)
		return
	}
	fmt.Fprint(w, rendered)
}
