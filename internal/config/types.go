// SPDX-License-Identifier: MPL-2.0

package config

import (
	"errors"
	"fmt"

	"github.com/mizkit/mizkit/pkg/miz"
)

const (
	// ColorSchemeAuto detects the terminal color scheme automatically.
	ColorSchemeAuto ColorScheme = "auto"
	// ColorSchemeDark forces dark color scheme.
	ColorSchemeDark ColorScheme = "dark"
	// ColorSchemeLight forces light color scheme.
	ColorSchemeLight ColorScheme = "light"

	// MinJobs and MaxJobs bound the jobs setting.
	MinJobs = 1
	MaxJobs = 64

	// DefaultJobs is the number of archives processed concurrently.
	DefaultJobs = 2
)

var (
	// ErrInvalidColorScheme is returned when a ColorScheme value is not recognized.
	ErrInvalidColorScheme = errors.New("invalid color scheme")
	// ErrInvalidJobs is returned when jobs is outside MinJobs..MaxJobs.
	ErrInvalidJobs = errors.New("invalid jobs")
	// ErrInvalidConfig is the sentinel error wrapped by InvalidConfigError.
	ErrInvalidConfig = errors.New("invalid config")
)

type (
	// ColorScheme specifies the terminal color scheme preference.
	ColorScheme string

	// InvalidColorSchemeError is returned when a ColorScheme value is not recognized.
	InvalidColorSchemeError struct {
		Value ColorScheme
	}

	// InvalidJobsError is returned when jobs is out of range.
	InvalidJobsError struct {
		Value int
	}

	// InvalidConfigError collects the field errors of a Config.
	InvalidConfigError struct {
		FieldErrors []error
	}

	// Config holds the application configuration.
	Config struct {
		// SkipOptionsFile leaves the options member out of reorder output.
		SkipOptionsFile bool `json:"skip_options_file" mapstructure:"skip_options_file"`
		// Charset of the Lua members inside mission archives.
		Charset string `json:"charset" mapstructure:"charset"`
		// Jobs is the number of archives processed concurrently.
		Jobs    int           `json:"jobs" mapstructure:"jobs"`
		Folders FoldersConfig `json:"folders" mapstructure:"folders"`
		Journal JournalConfig `json:"journal" mapstructure:"journal"`
		UI      UIConfig      `json:"ui" mapstructure:"ui"`
	}

	// FoldersConfig remembers the directories of the last reorder.
	FoldersConfig struct {
		LastSource string `json:"last_source" mapstructure:"last_source"`
		LastTarget string `json:"last_target" mapstructure:"last_target"`
	}

	// JournalConfig configures the run journal.
	JournalConfig struct {
		Enabled bool `json:"enabled" mapstructure:"enabled"`
		// Path of the database file. Empty means journal.db in the config directory.
		Path string `json:"path" mapstructure:"path"`
	}

	// UIConfig configures the user interface.
	UIConfig struct {
		Verbose     bool        `json:"verbose" mapstructure:"verbose"`
		ColorScheme ColorScheme `json:"color_scheme" mapstructure:"color_scheme"`
	}
)

// DefaultConfig returns the default configuration.
func DefaultConfig() *Config {
	return &Config{
		SkipOptionsFile: false,
		Charset:         string(miz.CharsetLatin9),
		Jobs:            DefaultJobs,
		Journal:         JournalConfig{Enabled: true},
		UI:              UIConfig{ColorScheme: ColorSchemeAuto},
	}
}

// CharsetValue returns the configured charset, resolving aliases.
func (c *Config) CharsetValue() (miz.Charset, error) {
	return miz.ParseCharset(c.Charset)
}

// IsValid returns whether the Config has valid fields.
func (c *Config) IsValid() (bool, []error) {
	var errs []error
	if _, err := c.CharsetValue(); err != nil {
		errs = append(errs, err)
	}
	if c.Jobs < MinJobs || c.Jobs > MaxJobs {
		errs = append(errs, &InvalidJobsError{Value: c.Jobs})
	}
	if valid, fieldErrs := c.UI.ColorScheme.IsValid(); !valid {
		errs = append(errs, fieldErrs...)
	}
	if len(errs) > 0 {
		return false, []error{&InvalidConfigError{FieldErrors: errs}}
	}
	return true, nil
}

// Error implements the error interface for InvalidConfigError.
func (e *InvalidConfigError) Error() string {
	if len(e.FieldErrors) == 1 {
		return fmt.Sprintf("invalid config: %v", e.FieldErrors[0])
	}
	return fmt.Sprintf("invalid config: %d field error(s): %v", len(e.FieldErrors), errors.Join(e.FieldErrors...))
}

// Unwrap returns ErrInvalidConfig followed by the field errors, so errors.Is
// matches both the sentinel and each field's own sentinel.
func (e *InvalidConfigError) Unwrap() []error {
	return append([]error{ErrInvalidConfig}, e.FieldErrors...)
}

// Error implements the error interface for InvalidJobsError.
func (e *InvalidJobsError) Error() string {
	return fmt.Sprintf("invalid jobs %d (valid: %d..%d)", e.Value, MinJobs, MaxJobs)
}

// Unwrap returns ErrInvalidJobs for errors.Is() compatibility.
func (e *InvalidJobsError) Unwrap() error { return ErrInvalidJobs }

// Error implements the error interface for InvalidColorSchemeError.
func (e *InvalidColorSchemeError) Error() string {
	return fmt.Sprintf("invalid color scheme %q (valid: auto, dark, light)", e.Value)
}

// Unwrap returns the sentinel error for errors.Is() compatibility.
func (e *InvalidColorSchemeError) Unwrap() error {
	return ErrInvalidColorScheme
}

// String returns the string representation of the ColorScheme.
func (cs ColorScheme) String() string { return string(cs) }

// IsValid returns whether the ColorScheme is one of the defined color schemes,
// and a list of validation errors if it is not.
func (cs ColorScheme) IsValid() (bool, []error) {
	switch cs {
	case ColorSchemeAuto, ColorSchemeDark, ColorSchemeLight:
		return true, nil
	default:
		return false, []error{&InvalidColorSchemeError{Value: cs}}
	}
}
