// SPDX-License-Identifier: MPL-2.0

package main

import (
	"errors"

	"github.com/spf13/cobra"

	"github.com/mizkit/mizkit/pkg/miz"
)

func newCheckCommand(app *App, rootFlags *rootFlagValues) *cobra.Command {
	return &cobra.Command{
		Use:   "check <in.miz>...",
		Short: "Validate mission archives",
		Long: `Open each archive, verify that the required members are present and decode
every Lua member. Nothing is written.`,
		Args: cobra.MinimumNArgs(1),
		RunE: runE(app, func(cmd *cobra.Command, args []string) error {
			cfg, err := app.loadConfig(cmd.Context(), rootFlags)
			if err != nil {
				return err
			}
			cs, err := cfg.CharsetValue()
			if err != nil {
				return err
			}

			failed := 0
			for _, path := range args {
				if err := app.checkArchive(path, cs); err != nil {
					failed++
					app.reportError(archiveError(err, "check mission", path))
					continue
				}
				app.printf("%s %s\n", SuccessStyle.Render("✓"), path)
			}
			if failed > 0 {
				return &ExitError{Code: 1}
			}
			return nil
		}),
	}
}

// checkArchive decodes every Lua member of path. The scratch directory is
// always removed.
func (a *App) checkArchive(path string, cs miz.Charset) (err error) {
	c, err := miz.Open(path, miz.WithCharset(cs), miz.WithLogger(a.logger))
	if err != nil {
		return err
	}
	defer func() {
		err = errors.Join(err, c.Close(false))
	}()

	if err := c.Unzip(); err != nil {
		return err
	}
	if err := c.Decode(); err != nil {
		return err
	}
	for _, name := range []string{miz.MemberOptions, miz.MemberWarehouses} {
		if _, err := c.DecodeMember(name); err != nil {
			return err
		}
	}
	return nil
}
