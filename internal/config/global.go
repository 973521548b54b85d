// SPDX-License-Identifier: MPL-2.0

package config

// configDirOverride replaces the platform lookup in ConfigDir when set.
var configDirOverride string

// SetConfigDirOverride points ConfigDir at dir; an empty dir restores the
// platform lookup. os.UserConfigDir ignores HOME on macOS and Windows, so
// tests that need an isolated config directory set it here.
func SetConfigDirOverride(dir string) {
	configDirOverride = dir
}

// Reset restores the platform config directory lookup.
func Reset() {
	SetConfigDirOverride("")
}
