// SPDX-License-Identifier: MPL-2.0

package config

import (
	"errors"
	"testing"
)

func TestConfig_SetGet(t *testing.T) {
	t.Parallel()

	tests := []struct {
		key   string
		value string
		want  string
	}{
		{"skip_options_file", "true", "true"},
		{"charset", "UTF8", "utf-8"},
		{"charset", "latin-9", "iso-8859-15"},
		{"jobs", "16", "16"},
		{"folders.last_source", "/missions", "/missions"},
		{"folders.last_target", "/repo", "/repo"},
		{"journal.enabled", "false", "false"},
		{"journal.path", "/tmp/j.db", "/tmp/j.db"},
		{"ui.verbose", "1", "true"},
		{"ui.color_scheme", "light", "light"},
	}
	for _, tt := range tests {
		t.Run(tt.key+"="+tt.value, func(t *testing.T) {
			t.Parallel()
			cfg := DefaultConfig()
			if err := cfg.Set(tt.key, tt.value); err != nil {
				t.Fatalf("Set() error = %v", err)
			}
			got, err := cfg.Get(tt.key)
			if err != nil {
				t.Fatalf("Get() error = %v", err)
			}
			if got != tt.want {
				t.Errorf("Get(%s) = %q, want %q", tt.key, got, tt.want)
			}
		})
	}
}

func TestConfig_SetRejectsInvalid(t *testing.T) {
	t.Parallel()

	tests := []struct {
		key     string
		value   string
		wantErr error
	}{
		{"jobs", "0", ErrInvalidJobs},
		{"jobs", "65", ErrInvalidJobs},
		{"ui.color_scheme", "Dark", ErrInvalidColorScheme},
		{"no.such.key", "x", ErrUnknownKey},
	}
	for _, tt := range tests {
		t.Run(tt.key+"="+tt.value, func(t *testing.T) {
			t.Parallel()
			cfg := DefaultConfig()
			err := cfg.Set(tt.key, tt.value)
			if !errors.Is(err, tt.wantErr) {
				t.Errorf("Set() error = %v, want %v", err, tt.wantErr)
			}
			if *cfg != *DefaultConfig() {
				t.Errorf("failed Set() modified the config: %+v", cfg)
			}
		})
	}

	cfg := DefaultConfig()
	for _, tc := range [][2]string{{"jobs", "many"}, {"journal.enabled", "maybe"}, {"charset", "cp1252"}} {
		if err := cfg.Set(tc[0], tc[1]); err == nil {
			t.Errorf("Set(%s, %s) error = nil", tc[0], tc[1])
		}
	}
}

func TestKeys(t *testing.T) {
	t.Parallel()

	cfg := DefaultConfig()
	for _, key := range Keys() {
		if _, err := cfg.Get(key); err != nil {
			t.Errorf("Get(%q) error = %v", key, err)
		}
	}
	k := Keys()
	k[0] = "changed"
	if Keys()[0] == "changed" {
		t.Error("Keys() returned the internal slice")
	}
}
