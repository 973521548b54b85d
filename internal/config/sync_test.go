// SPDX-License-Identifier: MPL-2.0

package config

import (
	"reflect"
	"strings"
	"testing"

	"cuelang.org/go/cue"
	"cuelang.org/go/cue/cuecontext"
)

// These tests keep the Go struct JSON tags and the CUE schema field names in
// step, so a renamed key cannot be silently ignored when loading.

func cueFields(t *testing.T, def string) map[string]bool {
	t.Helper()

	schema := cuecontext.New().CompileString(configSchema)
	if schema.Err() != nil {
		t.Fatalf("failed to compile CUE schema: %v", schema.Err())
	}
	val := schema.LookupPath(cue.ParsePath(def))
	if val.Err() != nil {
		t.Fatalf("failed to lookup CUE definition %s: %v", def, val.Err())
	}

	iter, err := val.Fields(cue.Definitions(false), cue.Optional(true))
	if err != nil {
		t.Fatalf("failed to iterate CUE fields: %v", err)
	}
	fields := make(map[string]bool)
	for iter.Next() {
		sel := iter.Selector()
		if sel.IsDefinition() || sel.LabelType().IsHidden() {
			continue
		}
		fields[strings.TrimSuffix(sel.String(), "?")] = true
	}
	return fields
}

func goFields(typ reflect.Type) map[string]bool {
	fields := make(map[string]bool)
	for i := 0; i < typ.NumField(); i++ {
		name, _, _ := strings.Cut(typ.Field(i).Tag.Get("json"), ",")
		if name != "" && name != "-" {
			fields[name] = true
		}
	}
	return fields
}

func TestSchemaSync(t *testing.T) {
	t.Parallel()

	tests := []struct {
		def string
		typ reflect.Type
	}{
		{"#Config", reflect.TypeOf(Config{})},
		{"#FoldersConfig", reflect.TypeOf(FoldersConfig{})},
		{"#JournalConfig", reflect.TypeOf(JournalConfig{})},
		{"#UIConfig", reflect.TypeOf(UIConfig{})},
	}
	for _, tt := range tests {
		t.Run(tt.def, func(t *testing.T) {
			t.Parallel()
			cue := cueFields(t, tt.def)
			goTags := goFields(tt.typ)
			for f := range cue {
				if !goTags[f] {
					t.Errorf("CUE field %q not found in Go struct %s", f, tt.typ.Name())
				}
			}
			for f := range goTags {
				if !cue[f] {
					t.Errorf("Go JSON tag %q not found in CUE definition %s", f, tt.def)
				}
			}
		})
	}
}

func TestKeysCoverSchema(t *testing.T) {
	t.Parallel()

	want := 0
	for f := range cueFields(t, "#Config") {
		switch f {
		case "folders", "journal", "ui":
			continue
		}
		want++
	}
	for _, def := range []string{"#FoldersConfig", "#JournalConfig", "#UIConfig"} {
		want += len(cueFields(t, def))
	}
	if got := len(Keys()); got != want {
		t.Errorf("len(Keys()) = %d, schema defines %d leaf keys", got, want)
	}
}
