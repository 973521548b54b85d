// SPDX-License-Identifier: MPL-2.0

package main

import (
	"errors"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/mizkit/mizkit/internal/issue"
	"github.com/mizkit/mizkit/internal/journal"
)

// errJournalDisabled is returned by history when the journal is turned off.
var errJournalDisabled = errors.New("the run journal is disabled")

func newHistoryCommand(app *App, rootFlags *rootFlagValues) *cobra.Command {
	var limit int
	cmd := &cobra.Command{
		Use:   "history",
		Short: "List recent reorder and format runs",
		Args:  cobra.NoArgs,
		RunE: runE(app, func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			cfg, err := app.loadConfig(ctx, rootFlags)
			if err != nil {
				return err
			}
			j, err := app.openJournal(cfg)
			if err != nil {
				return err
			}
			if j == nil {
				return issue.NewErrorContext().
					WithOperation("list runs").
					WithSuggestion("Enable it with 'mizkit config set journal.enabled true'").
					Wrap(errJournalDisabled).
					BuildError()
			}
			defer j.Close()

			runs, err := j.Recent(ctx, limit)
			if err != nil {
				return err
			}
			if len(runs) == 0 {
				app.printf("%s\n", SubtitleStyle.Render("No runs recorded yet."))
				return nil
			}
			for i := range runs {
				app.printf("%s\n", formatRun(&runs[i]))
			}
			return nil
		}),
	}
	cmd.Flags().IntVarP(&limit, "limit", "n", 20, "number of runs to show (0 for all)")
	return cmd
}

// formatRun renders one journal row on a single line.
func formatRun(r *journal.Run) string {
	status := string(r.Status)
	switch r.Status {
	case journal.StatusOK:
		status = SuccessStyle.Render(fmt.Sprintf("%-7s", status))
	case journal.StatusFailed:
		status = ErrorStyle.Render(fmt.Sprintf("%-7s", status))
	default:
		status = WarningStyle.Render(fmt.Sprintf("%-7s", status))
	}

	line := fmt.Sprintf("%s  %s  %-7s  %s → %s",
		SubtitleStyle.Render(r.StartedAt.Local().Format(time.DateTime)),
		status, r.Mode, r.Source, PathStyle.Render(r.Target))
	switch r.Status {
	case journal.StatusOK:
		line += fmt.Sprintf("  +%d ~%d =%d  %s", r.Added, r.Updated, r.Unchanged, r.Duration.Round(time.Millisecond))
	case journal.StatusFailed:
		line += "  " + r.Error
	}
	return line
}
