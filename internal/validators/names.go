// Package validators provides validation functions for the names used in the
// plugin updater configuration.
package validators

import (
	"fmt"
	"regexp"
	"strings"

	"golang.org/x/text/cases"
)

const (
	maxPluginNameLength = 128
	maxSourceNameLength = 64
)

var (
	// Plugin names become file names: must start with an alphanumeric character,
	// may contain spaces, dots, underscores, plus signs and hyphens after it
	pluginNamePattern = regexp.MustCompile(`^[a-zA-Z0-9][a-zA-Z0-9 ._+-]*$`)

	// Source name pattern: must start with a letter, can contain digits, dots, underscores and hyphens
	sourceNamePattern = regexp.MustCompile(`^[a-zA-Z][a-zA-Z0-9._-]*$`)
)

// ValidatePluginName validates a plugin name. The name is used for the stable
// link "<name>.jar" and usually for the versioned file, so it must be a plain
// file name.
//
// Examples of valid names:
//   - LuckPerms
//   - Multiverse-Core
//   - floodgate_spigot
//
// Examples of invalid names:
//   - ../Foo (path separator)
//   - .hidden (starts with a dot)
//   - "Foo " (trailing space)
func ValidatePluginName(name string) error {
	if name == "" {
		return fmt.Errorf("plugin name cannot be empty")
	}
	if strings.ContainsAny(name, `/\`) {
		return fmt.Errorf("plugin name '%s' must not contain path separators", name)
	}
	if len(name) > maxPluginNameLength {
		return fmt.Errorf("plugin name exceeds maximum length of %d characters", maxPluginNameLength)
	}
	if strings.TrimSpace(name) != name {
		return fmt.Errorf("plugin name '%s' must not start or end with whitespace", name)
	}
	if !pluginNamePattern.MatchString(name) {
		return fmt.Errorf(
			"plugin name '%s' is invalid. Name must start with an alphanumeric character, "+
				"and may contain spaces, dots, underscores, plus signs and hyphens",
			name,
		)
	}
	return nil
}

// ValidateSourceName validates the name of a configured source
func ValidateSourceName(name string) error {
	if name == "" {
		return fmt.Errorf("source name cannot be empty")
	}
	if len(name) > maxSourceNameLength {
		return fmt.Errorf("source name exceeds maximum length of %d characters", maxSourceNameLength)
	}
	if !sourceNamePattern.MatchString(name) {
		return fmt.Errorf(
			"source name '%s' is invalid. Name must start with a letter, "+
				"and may contain digits, dots, underscores, and hyphens",
			name,
		)
	}
	return nil
}

// IsValidPluginName checks if a plugin name is valid.
// This is a convenience wrapper around ValidatePluginName for boolean checks.
func IsValidPluginName(name string) bool {
	return ValidatePluginName(name) == nil
}

// NameKey returns the case-folded form of name used wherever plugin and
// source names are compared or stored. A Caser is not safe for concurrent
// use, so a new one is created per call.
func NameKey(name string) string {
	return cases.Fold().String(name)
}
