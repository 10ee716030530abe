package status

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"maps"
	"os"
	"path/filepath"
	"sync"

	"github.com/go-logr/logr"
	"gopkg.in/yaml.v3"

	"github.com/stacklok/plugin-updater/internal/validators"
)

// FileVersionRecord is a VersionRecord backed by a YAML file. It is safe for
// concurrent use.
type FileVersionRecord struct {
	path string

	mu       sync.Mutex
	versions map[string]string
	changed  bool
}

var _ VersionRecord = (*FileVersionRecord)(nil)

// LoadFileVersionRecord reads the record stored at path. A missing file
// yields an empty record.
func LoadFileVersionRecord(path string) (*FileVersionRecord, error) {
	r := &FileVersionRecord{
		path:     path,
		versions: make(map[string]string),
	}

	// #nosec G304 -- path is the record file inside the configured target folder
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return r, nil
		}
		return nil, fmt.Errorf("failed to read versions file %s: %w", path, err)
	}

	var doc versionsDocument
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("failed to parse versions file %s: %w", path, err)
	}
	for name, version := range doc.Plugins {
		r.versions[validators.NameKey(name)] = version
	}
	return r, nil
}

// Path returns the record file path
func (r *FileVersionRecord) Path() string {
	return r.path
}

// Get returns the installed version of plugin
func (r *FileVersionRecord) Get(plugin string) (string, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	v, ok := r.versions[validators.NameKey(plugin)]
	return v, ok
}

// Set records version as installed for plugin
func (r *FileVersionRecord) Set(plugin, version string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	key := validators.NameKey(plugin)
	if old, ok := r.versions[key]; ok && old == version {
		return
	}
	r.versions[key] = version
	r.changed = true
}

// Changed reports whether the record differs from the file
func (r *FileVersionRecord) Changed() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.changed
}

// Snapshot returns a copy of the recorded versions
func (r *FileVersionRecord) Snapshot() map[string]string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return maps.Clone(r.versions)
}

// Flush writes the record atomically through a temporary file
func (r *FileVersionRecord) Flush(ctx context.Context) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	data, err := yaml.Marshal(&versionsDocument{Plugins: r.versions})
	if err != nil {
		return fmt.Errorf("failed to marshal versions: %w", err)
	}

	if err := os.MkdirAll(filepath.Dir(r.path), 0750); err != nil {
		return fmt.Errorf("failed to create directory for %s: %w", r.path, err)
	}

	tempPath := r.path + ".tmp"
	if err := os.WriteFile(tempPath, data, 0600); err != nil {
		return fmt.Errorf("failed to write temporary versions file: %w", err)
	}

	if err := os.Rename(tempPath, r.path); err != nil {
		_ = os.Remove(tempPath)
		return fmt.Errorf("failed to rename versions file: %w", err)
	}

	r.changed = false
	logr.FromContextOrDiscard(ctx).V(1).Info("Saved installed versions", "path", r.path, "plugins", len(r.versions))
	return nil
}
