// Package discover inspects plugin jars in the target folder that are not
// managed yet and suggests configuration for the project pages they link to.
// Nothing is written; suggestions are only reported.
package discover

import (
	"archive/zip"
	"bufio"
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/go-logr/logr"
	"gopkg.in/yaml.v3"

	"github.com/stacklok/plugin-updater/internal/config"
	"github.com/stacklok/plugin-updater/internal/sources"
)

// descriptorFiles are read in order, the first one present is used
var descriptorFiles = []string{"plugin.yml", "bungee.yml"}

// maxLineSize bounds a single descriptor line
const maxLineSize = 1 << 20

// Suggestion is a plugin configuration derived from a link in an installed jar
type Suggestion struct {
	// File is the jar the link was found in
	File string

	// Plugin is the suggested configuration entry
	Plugin config.PluginConfig
}

// Snippet renders the suggestion as a plugins entry of the YAML configuration
func (s Suggestion) Snippet() (string, error) {
	doc := struct {
		Plugins []config.PluginConfig `yaml:"plugins"`
	}{Plugins: []config.PluginConfig{s.Plugin}}

	out, err := yaml.Marshal(doc)
	if err != nil {
		return "", fmt.Errorf("failed to render suggestion for %s: %w", s.Plugin.Name, err)
	}
	return string(out), nil
}

// Scan looks at every *.jar in dir whose plugin name is not managed and
// returns the suggestions found in its descriptor. Unreadable jars are
// logged and skipped.
func Scan(ctx context.Context, dir string, managed func(name string) bool) ([]Suggestion, error) {
	logger := logr.FromContextOrDiscard(ctx)

	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("failed to list %s: %w", dir, err)
	}

	var suggestions []Suggestion
	for _, entry := range entries {
		fileName := entry.Name()
		if !strings.HasSuffix(strings.ToLower(fileName), ".jar") || entry.IsDir() {
			continue
		}
		name := fileName[:len(fileName)-len(".jar")]
		if managed != nil && managed(name) {
			continue
		}

		found, err := scanJar(filepath.Join(dir, fileName), name)
		if err != nil {
			logger.Error(err, "Failed to check the content of installed jar", "file", fileName)
			continue
		}
		suggestions = append(suggestions, found...)
	}
	return suggestions, nil
}

// Report logs every suggestion with its configuration snippet
func Report(ctx context.Context, suggestions []Suggestion) {
	logger := logr.FromContextOrDiscard(ctx)
	for _, s := range suggestions {
		snippet, err := s.Snippet()
		if err != nil {
			logger.Error(err, "Failed to render suggestion", "file", s.File)
			continue
		}
		logger.Info("Found a project link in an unmanaged jar, add this to the configuration to update it",
			"file", s.File, "source", s.Plugin.Source, "config", snippet)
	}
}

func scanJar(path, name string) ([]Suggestion, error) {
	r, err := zip.OpenReader(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open %s: %w", path, err)
	}
	defer func() {
		_ = r.Close()
	}()

	for _, descriptor := range descriptorFiles {
		f, err := r.Open(descriptor)
		if err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				continue
			}
			return nil, fmt.Errorf("failed to open %s in %s: %w", descriptor, path, err)
		}
		defer func() {
			_ = f.Close()
		}()

		var suggestions []Suggestion
		seen := make(map[string]bool)
		scanner := bufio.NewScanner(f)
		scanner.Buffer(make([]byte, 0, 64*1024), maxLineSize)
		for scanner.Scan() {
			for _, plugin := range matchLine(name, scanner.Text()) {
				key := plugin.Source + fmt.Sprint(plugin.Parameters)
				if seen[key] {
					continue
				}
				seen[key] = true
				suggestions = append(suggestions, Suggestion{File: filepath.Base(path), Plugin: plugin})
			}
		}
		if err := scanner.Err(); err != nil {
			return nil, fmt.Errorf("failed to read %s in %s: %w", descriptor, path, err)
		}
		return suggestions, nil
	}
	return nil, nil
}

// matchLine returns a plugin entry for every project link on line
func matchLine(name, line string) []config.PluginConfig {
	var plugins []config.PluginConfig
	if author := sources.NamedGroup(sources.HangarLinkPattern, line, "author"); author != "" {
		plugins = append(plugins, config.PluginConfig{
			Name:   name,
			Source: config.SourceTypeHangar,
			Parameters: config.Parameters{
				{Key: "user", Value: author},
				{Key: "project", Value: sources.NamedGroup(sources.HangarLinkPattern, line, "project")},
			},
		})
	}
	if id := sources.NamedGroup(sources.SpigotLinkPattern, line, "id"); id != "" {
		plugins = append(plugins, config.PluginConfig{
			Name:       name,
			Source:     config.SourceTypeSpigot,
			Parameters: config.Parameters{{Key: "resourceid", Value: id}},
		})
	}
	if user := sources.NamedGroup(sources.GitHubLinkPattern, line, "user"); user != "" {
		plugins = append(plugins, config.PluginConfig{
			Name:   name,
			Source: config.SourceTypeGitHub,
			Parameters: config.Parameters{
				{Key: "user", Value: user},
				{Key: "repository", Value: sources.NamedGroup(sources.GitHubLinkPattern, line, "repo")},
			},
		})
	}
	return plugins
}
