package sources

import (
	"fmt"

	"github.com/stacklok/plugin-updater/internal/config"
)

// Builtins returns the sources that exist without configuration. The Spigot
// source shares the GitHub instance for its download fallback.
func Builtins(env *Environment) []Source {
	github := NewGitHubSource(env)
	return []Source{
		NewBukkitSource(env),
		github,
		NewGitLabSource(env),
		NewHangarSource(env),
		NewModrinthSource(env),
		NewSpigotSource(env, github),
	}
}

// NewFromConfig creates a configured source. cfg must have been validated.
func NewFromConfig(cfg *config.SourceConfig, env *Environment) (Source, error) {
	required := cfg.GetRequiredParameters()
	switch cfg.GetType() {
	case config.SourceTypeFile:
		return NewFileSource(cfg.Name, cfg.File, required, env), nil
	case config.SourceTypeDirect:
		return NewDirectSource(cfg.Name, cfg.Direct, required, env), nil
	case config.SourceTypeTeamCity:
		return NewTeamCitySource(cfg.Name, cfg.TeamCity, env), nil
	default:
		return nil, fmt.Errorf("unsupported source type for %s: %q", cfg.Name, cfg.GetType())
	}
}
