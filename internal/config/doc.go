// SPDX-License-Identifier: MPL-2.0

// Package config loads mizkit settings from a CUE file merged into Viper.
//
// The file lives at config.cue in the platform configuration directory
// ($XDG_CONFIG_HOME/mizkit on Linux, ~/Library/Application Support/mizkit on
// macOS, %APPDATA%\mizkit on Windows) and is validated against the embedded
// config_schema.cue. Every key can also be set through a MIZKIT_ environment
// variable, for example MIZKIT_JOBS=4 or MIZKIT_FOLDERS_LAST_TARGET=/repo.
package config
