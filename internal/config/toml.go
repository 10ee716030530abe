package config

import (
	"fmt"
	"sort"

	"github.com/pelletier/go-toml/v2"
)

// tomlDocument mirrors Config for TOML input. TOML tables decode into maps,
// so plugin parameters are ordered by key.
type tomlDocument struct {
	UserAgent *UserAgentConfig `toml:"userAgent"`
	Workers   int              `toml:"workers"`
	Timeout   string           `toml:"timeout"`
	Sources   []SourceConfig   `toml:"sources"`
	Plugins   []tomlPlugin     `toml:"plugins"`
}

type tomlPlugin struct {
	Name           string         `toml:"name"`
	Source         string         `toml:"source"`
	FileNameFormat string         `toml:"fileNameFormat"`
	Parameters     map[string]any `toml:"parameters"`
}

func parseTOML(data []byte) (*Config, error) {
	var doc tomlDocument
	if err := toml.Unmarshal(data, &doc); err != nil {
		return nil, err
	}

	cfg := &Config{
		UserAgent: doc.UserAgent,
		Workers:   doc.Workers,
		Timeout:   doc.Timeout,
		Sources:   doc.Sources,
		Plugins:   make([]PluginConfig, 0, len(doc.Plugins)),
	}

	for _, plugin := range doc.Plugins {
		params, err := tomlParameters(plugin.Parameters)
		if err != nil {
			return nil, fmt.Errorf("plugin %s: %w", plugin.Name, err)
		}
		cfg.Plugins = append(cfg.Plugins, PluginConfig{
			Name:           plugin.Name,
			Source:         plugin.Source,
			FileNameFormat: plugin.FileNameFormat,
			Parameters:     params,
		})
	}

	return cfg, nil
}

func tomlParameters(values map[string]any) (Parameters, error) {
	if len(values) == 0 {
		return nil, nil
	}

	keys := make([]string, 0, len(values))
	for key := range values {
		keys = append(keys, key)
	}
	sort.Strings(keys)

	params := make(Parameters, 0, len(keys))
	for _, key := range keys {
		switch v := values[key].(type) {
		case map[string]any, []any:
			return nil, fmt.Errorf("parameter %q must be a scalar value", key)
		default:
			params = append(params, Parameter{Key: key, Value: fmt.Sprint(v)})
		}
	}
	return params, nil
}
