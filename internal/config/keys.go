// SPDX-License-Identifier: MPL-2.0

package config

import (
	"errors"
	"fmt"
	"strconv"
)

// ErrUnknownKey is returned by Get and Set for keys the schema does not define.
var ErrUnknownKey = errors.New("unknown config key")

// keys lists the settable keys in the order they are displayed.
var keys = []string{
	"skip_options_file",
	"charset",
	"jobs",
	"folders.last_source",
	"folders.last_target",
	"journal.enabled",
	"journal.path",
	"ui.verbose",
	"ui.color_scheme",
}

// Keys returns every config key in display order.
func Keys() []string {
	return append([]string(nil), keys...)
}

// Get returns the value of key formatted as it would be passed to Set.
func (c *Config) Get(key string) (string, error) {
	switch key {
	case "skip_options_file":
		return strconv.FormatBool(c.SkipOptionsFile), nil
	case "charset":
		return c.Charset, nil
	case "jobs":
		return strconv.Itoa(c.Jobs), nil
	case "folders.last_source":
		return c.Folders.LastSource, nil
	case "folders.last_target":
		return c.Folders.LastTarget, nil
	case "journal.enabled":
		return strconv.FormatBool(c.Journal.Enabled), nil
	case "journal.path":
		return c.Journal.Path, nil
	case "ui.verbose":
		return strconv.FormatBool(c.UI.Verbose), nil
	case "ui.color_scheme":
		return c.UI.ColorScheme.String(), nil
	default:
		return "", fmt.Errorf("%w: %q", ErrUnknownKey, key)
	}
}

// Set parses value for key and stores it. The config is left unchanged when
// value is invalid for the key.
func (c *Config) Set(key, value string) error {
	next := *c
	var err error
	switch key {
	case "skip_options_file":
		next.SkipOptionsFile, err = strconv.ParseBool(value)
	case "charset":
		next.Charset = value
	case "jobs":
		next.Jobs, err = strconv.Atoi(value)
	case "folders.last_source":
		next.Folders.LastSource = value
	case "folders.last_target":
		next.Folders.LastTarget = value
	case "journal.enabled":
		next.Journal.Enabled, err = strconv.ParseBool(value)
	case "journal.path":
		next.Journal.Path = value
	case "ui.verbose":
		next.UI.Verbose, err = strconv.ParseBool(value)
	case "ui.color_scheme":
		next.UI.ColorScheme = ColorScheme(value)
	default:
		return fmt.Errorf("%w: %q", ErrUnknownKey, key)
	}
	if err != nil {
		return fmt.Errorf("invalid value %q for %s: %w", value, key, err)
	}
	if valid, errs := next.IsValid(); !valid {
		return errors.Join(errs...)
	}
	cs, _ := next.CharsetValue()
	next.Charset = string(cs)
	*c = next
	return nil
}
