// Package status persists the versions installed in a target folder.
package status

import "context"

//go:generate mockgen -destination=mocks/mock_version_record.go -package=mocks -source=types.go VersionRecord

// VersionsFileName is the name of the record file inside the target folder
const VersionsFileName = "versions.yaml"

// VersionRecord tracks the last installed version of every plugin. Keys are
// plugin names and are matched case-insensitively.
type VersionRecord interface {
	// Get returns the installed version of plugin
	Get(plugin string) (string, bool)

	// Set records version as installed for plugin
	Set(plugin, version string)

	// Changed reports whether Set modified the record since it was loaded or flushed
	Changed() bool

	// Flush writes the record to persistent storage
	Flush(ctx context.Context) error
}

// versionsDocument is the on-disk layout of the record file
type versionsDocument struct {
	Plugins map[string]string `yaml:"plugins"`
}
