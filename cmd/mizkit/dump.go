// SPDX-License-Identifier: MPL-2.0

package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/pelletier/go-toml/v2"
	"github.com/spf13/cobra"

	"github.com/mizkit/mizkit/pkg/lua"
	"github.com/mizkit/mizkit/pkg/miz"
)

const (
	formatLua  = "lua"
	formatJSON = "json"
	formatTOML = "toml"
)

var (
	// ErrUnknownMember is returned for --member values that do not name a
	// Lua member of a mission archive.
	ErrUnknownMember = errors.New("unknown member")
	// ErrUnknownFormat is returned for unsupported --format values.
	ErrUnknownFormat = errors.New("unknown output format")
)

// memberNames maps the short names accepted by --member to archive members.
var memberNames = map[string]string{
	"mission":     miz.MemberMission,
	"options":     miz.MemberOptions,
	"warehouses":  miz.MemberWarehouses,
	"dictionary":  miz.MemberDictionary,
	"mapResource": miz.MemberMapResource,
}

type dumpFlags struct {
	member string
	format string
}

func newDumpCommand(app *App, rootFlags *rootFlagValues) *cobra.Command {
	flags := &dumpFlags{}
	cmd := &cobra.Command{
		Use:   "dump <in.miz>",
		Short: "Print a Lua member of a mission archive",
		Long: `Decode one Lua member and print it in canonical Lua form, or converted to
JSON or TOML for use with other tools.

Members: mission, options, warehouses, dictionary, mapResource.`,
		Example: `  mizkit dump op.miz
  mizkit dump op.miz --member warehouses --format json`,
		Args: cobra.ExactArgs(1),
		RunE: runE(app, func(cmd *cobra.Command, args []string) error {
			cfg, err := app.loadConfig(cmd.Context(), rootFlags)
			if err != nil {
				return err
			}
			cs, err := cfg.CharsetValue()
			if err != nil {
				return err
			}
			doc, err := app.readMember(args[0], flags.member, cs)
			if err != nil {
				return archiveError(err, "dump mission", args[0])
			}
			return writeDocument(app.stdout, doc, flags.format)
		}),
	}
	cmd.Flags().StringVarP(&flags.member, "member", "m", "mission", "member to print")
	cmd.Flags().StringVar(&flags.format, "format", formatLua, "output format: lua, json or toml")
	_ = cmd.RegisterFlagCompletionFunc("member", func(*cobra.Command, []string, string) ([]string, cobra.ShellCompDirective) {
		return []string{"mission", "options", "warehouses", "dictionary", "mapResource"}, cobra.ShellCompDirectiveNoFileComp
	})
	_ = cmd.RegisterFlagCompletionFunc("format", func(*cobra.Command, []string, string) ([]string, cobra.ShellCompDirective) {
		return []string{formatLua, formatJSON, formatTOML}, cobra.ShellCompDirectiveNoFileComp
	})
	return cmd
}

// readMember extracts path and decodes one member. The scratch directory is
// always removed.
func (a *App) readMember(path, member string, cs miz.Charset) (doc *miz.Document, err error) {
	name, ok := memberNames[member]
	if !ok {
		return nil, fmt.Errorf("%w %q (valid: mission, options, warehouses, dictionary, mapResource)", ErrUnknownMember, member)
	}
	c, err := miz.Open(path, miz.WithCharset(cs), miz.WithLogger(a.logger))
	if err != nil {
		return nil, err
	}
	defer func() {
		err = errors.Join(err, c.Close(false))
	}()
	if err := c.Unzip(); err != nil {
		return nil, err
	}
	return c.DecodeMember(name)
}

// writeDocument renders doc to w in the requested format.
func writeDocument(w io.Writer, doc *miz.Document, format string) error {
	switch strings.ToLower(format) {
	case formatLua:
		text, err := lua.Encode(doc.Value, doc.Qualifier)
		if err != nil {
			return err
		}
		_, err = io.WriteString(w, text)
		return err
	case formatJSON:
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(lua.ToNative(doc.Value))
	case formatTOML:
		native := lua.ToNative(doc.Value)
		// TOML documents are tables; wrap sequences under the member name.
		if _, ok := native.(map[string]any); !ok {
			native = map[string]any{doc.Qualifier.Name: native}
		}
		enc := toml.NewEncoder(w)
		enc.SetIndentTables(true)
		enc.SetMarshalJsonNumbers(true)
		return enc.Encode(native)
	default:
		return fmt.Errorf("%w %q (valid: lua, json, toml)", ErrUnknownFormat, format)
	}
}
