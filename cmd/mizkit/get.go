// SPDX-License-Identifier: MPL-2.0

package main

import (
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/mizkit/mizkit/internal/issue"
	"github.com/mizkit/mizkit/pkg/lua"
)

// ErrKeyNotFound is returned when a dotted path does not resolve.
var ErrKeyNotFound = errors.New("key not found")

func newGetCommand(app *App, rootFlags *rootFlagValues) *cobra.Command {
	var member string
	cmd := &cobra.Command{
		Use:   "get <in.miz> <path>",
		Short: "Print one value from a mission archive",
		Long: `Look up a dotted path in a decoded member and print the value as a Lua
literal. Numeric segments also select array elements and integer keys.`,
		Example: `  mizkit get op.miz date.Year
  mizkit get op.miz coalition.blue.name
  mizkit get op.miz coalition.blue.country.1.name`,
		Args: cobra.ExactArgs(2),
		RunE: runE(app, func(cmd *cobra.Command, args []string) error {
			cfg, err := app.loadConfig(cmd.Context(), rootFlags)
			if err != nil {
				return err
			}
			cs, err := cfg.CharsetValue()
			if err != nil {
				return err
			}
			doc, err := app.readMember(args[0], member, cs)
			if err != nil {
				return archiveError(err, "read mission", args[0])
			}

			v, ok := doc.Value.Lookup(splitPath(args[1])...)
			if !ok {
				return issue.NewErrorContext().
					WithOperation("look up "+args[1]).
					WithResource(args[0]).
					WithSuggestion(fmt.Sprintf("Use 'mizkit dump %s --member %s' to browse the available keys", args[0], member)).
					Wrap(ErrKeyNotFound).
					BuildError()
			}
			text, err := lua.EncodeValue(v)
			if err != nil {
				return err
			}
			app.printf("%s\n", text)
			return nil
		}),
	}
	cmd.Flags().StringVarP(&member, "member", "m", "mission", "member to search")
	return cmd
}

// splitPath splits a dotted path, ignoring empty segments.
func splitPath(path string) []string {
	var segs []string
	for _, s := range strings.Split(path, ".") {
		if s != "" {
			segs = append(segs, s)
		}
	}
	return segs
}
