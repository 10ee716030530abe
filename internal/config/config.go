// Package config provides configuration loading for the plugin updater: the
// configured update sources and the plugins managed in the target folder.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/stacklok/plugin-updater/internal/validators"
)

const (
	// SourceTypeFile resolves versions and artifacts from the local filesystem
	SourceTypeFile = "file"

	// SourceTypeDirect queries a configured URL for the latest version
	SourceTypeDirect = "direct"

	// SourceTypeTeamCity queries the REST API of a TeamCity server
	SourceTypeTeamCity = "teamcity"

	// SourceTypeGitHub queries the GitHub releases API
	SourceTypeGitHub = "github"

	// SourceTypeGitLab queries the GitLab releases API
	SourceTypeGitLab = "gitlab"

	// SourceTypeHangar queries the Hangar versions API
	SourceTypeHangar = "hangar"

	// SourceTypeModrinth queries the Modrinth versions API
	SourceTypeModrinth = "modrinth"

	// SourceTypeSpigot queries the Spiget resource API
	SourceTypeSpigot = "spigot"

	// SourceTypeBukkit queries the legacy CurseForge servermods API
	SourceTypeBukkit = "bukkit"
)

const (
	// EnvPrefix is the prefix of environment variables overriding command line flags
	EnvPrefix = "PLUGIN_UPDATER"

	// DefaultFileNameFormat is the versioned file name used when a plugin does not configure one
	DefaultFileNameFormat = "%name%.jar-%version%"

	// DefaultWorkers processes plugins one after another
	DefaultWorkers = 1
)

// Option defines the interface for configuration options
type Option func(*loaderConfig) error

// loaderConfig defines the configuration for loading a configuration
type loaderConfig struct {
	path string
}

// WithConfigPath loads configuration from a YAML or TOML file
func WithConfigPath(path string) Option {
	return func(cfg *loaderConfig) error {
		if path == "" {
			return fmt.Errorf("path is required")
		}

		// Resolve symlinks to prevent symlink attacks.
		// Note that this calls filepath.Clean internally.
		realPath, err := filepath.EvalSymlinks(path)
		if err != nil {
			return fmt.Errorf("failed to evaluate symlinks: %w", err)
		}

		// Validate the path to prevent path traversal attacks
		if !filepath.IsAbs(realPath) {
			if !filepath.IsLocal(realPath) {
				return fmt.Errorf("path is not local or contains invalid traversal: %s", path)
			}
		}

		cfg.path = realPath
		return nil
	}
}

// Config represents the root configuration structure
type Config struct {
	// UserAgent overrides the User-Agent sent with every outbound request
	UserAgent *UserAgentConfig `yaml:"userAgent,omitempty" toml:"userAgent,omitempty"`

	// Workers is the number of plugins processed concurrently
	Workers int `yaml:"workers,omitempty" toml:"workers,omitempty"`

	// Timeout bounds connecting to and waiting on remote endpoints (e.g. "30s")
	Timeout string `yaml:"timeout,omitempty" toml:"timeout,omitempty"`

	Sources []SourceConfig `yaml:"sources,omitempty" toml:"sources,omitempty"`
	Plugins []PluginConfig `yaml:"plugins" toml:"plugins"`
}

// UserAgentConfig defines the User-Agent product name and version
type UserAgentConfig struct {
	Name    string `yaml:"name,omitempty" toml:"name,omitempty"`
	Version string `yaml:"version,omitempty" toml:"version,omitempty"`
}

// SourceConfig defines a single user-configured update source
type SourceConfig struct {
	// Name is the identifier plugins use to reference this source
	Name string `yaml:"name" toml:"name"`

	// RequiredParameters lists the parameters every plugin using this source must set
	RequiredParameters []string `yaml:"requiredParameters,omitempty" toml:"requiredParameters,omitempty"`

	// RequiredPlaceholders is the former name of RequiredParameters
	RequiredPlaceholders []string `yaml:"requiredPlaceholders,omitempty" toml:"requiredPlaceholders,omitempty"`

	// Type-specific configurations (only one should be set)
	File     *FileConfig     `yaml:"file,omitempty" toml:"file,omitempty"`
	Direct   *DirectConfig   `yaml:"direct,omitempty" toml:"direct,omitempty"`
	TeamCity *TeamCityConfig `yaml:"teamcity,omitempty" toml:"teamcity,omitempty"`
}

// FileConfig defines a source backed by the local filesystem
type FileConfig struct {
	// LatestVersion is the path of a file holding the version on its first
	// line, or of a symlink to a directory named after the version
	LatestVersion string `yaml:"latestVersion" toml:"latestVersion"`

	// Download is the path of the artifact to install
	Download string `yaml:"download" toml:"download"`
}

// DirectConfig defines a source that queries plain URLs
type DirectConfig struct {
	// LatestVersion is the URL returning the latest version
	LatestVersion string `yaml:"latestVersion" toml:"latestVersion"`

	// Download is the artifact URL, or the URL returning it when a json path
	// or regex pattern is configured for it
	Download string `yaml:"download" toml:"download"`

	VersionJSONPath      string `yaml:"versionJsonPath,omitempty" toml:"versionJsonPath,omitempty"`
	VersionRegexPattern  string `yaml:"versionRegexPattern,omitempty" toml:"versionRegexPattern,omitempty"`
	DownloadJSONPath     string `yaml:"downloadJsonPath,omitempty" toml:"downloadJsonPath,omitempty"`
	DownloadRegexPattern string `yaml:"downloadRegexPattern,omitempty" toml:"downloadRegexPattern,omitempty"`
}

// TeamCityConfig defines a TeamCity server
type TeamCityConfig struct {
	// URL is the server base URL, without a trailing slash
	URL string `yaml:"url" toml:"url"`

	// Token is an optional access token; without it guest access is used
	Token string `yaml:"token,omitempty" toml:"token,omitempty"`
}

// PluginConfig defines a managed plugin
type PluginConfig struct {
	// Name is the plugin name; the stable link is "<name>.jar"
	Name string `yaml:"name" toml:"name"`

	// Source is the name of the source to update from
	Source string `yaml:"source" toml:"source"`

	// FileNameFormat is the versioned file name template (see DefaultFileNameFormat)
	FileNameFormat string `yaml:"fileNameFormat,omitempty" toml:"fileNameFormat,omitempty"`

	// Parameters are the source parameters, in configuration order
	Parameters Parameters `yaml:"parameters,omitempty" toml:"-"`
}

// LoadConfig loads and parses configuration from a YAML or TOML file
func LoadConfig(opts ...Option) (*Config, error) {
	loaderCfg := &loaderConfig{}
	for _, opt := range opts {
		if err := opt(loaderCfg); err != nil {
			return nil, err
		}
	}

	if loaderCfg.path == "" {
		return nil, fmt.Errorf("path is required")
	}

	data, err := os.ReadFile(loaderCfg.path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	var config *Config
	switch strings.ToLower(filepath.Ext(loaderCfg.path)) {
	case ".toml":
		config, err = parseTOML(data)
		if err != nil {
			return nil, fmt.Errorf("failed to parse TOML config: %w", err)
		}
	default:
		config = &Config{}
		if err := yaml.Unmarshal(data, config); err != nil {
			return nil, fmt.Errorf("failed to parse YAML config: %w", err)
		}
	}

	if err := config.validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return config, nil
}

// GetWorkers returns the configured worker count, at least DefaultWorkers
func (c *Config) GetWorkers() int {
	if c.Workers < DefaultWorkers {
		return DefaultWorkers
	}
	return c.Workers
}

// GetTimeout returns the configured timeout, or zero when unset
func (c *Config) GetTimeout() time.Duration {
	if c.Timeout == "" {
		return 0
	}
	d, err := time.ParseDuration(c.Timeout)
	if err != nil {
		return 0
	}
	return d
}

// validate checks the settings that make the whole configuration unusable.
// Problems in individual sources or plugins are reported by Validate on the entry.
func (c *Config) validate() error {
	if c == nil {
		return fmt.Errorf("config cannot be nil")
	}

	if c.Workers < 0 {
		return fmt.Errorf("workers must not be negative, got %d", c.Workers)
	}

	if c.Timeout != "" {
		d, err := time.ParseDuration(c.Timeout)
		if err != nil {
			return fmt.Errorf("timeout must be a valid duration (e.g., '30s', '1m'): %w", err)
		}
		if d <= 0 {
			return fmt.Errorf("timeout must be positive, got %s", c.Timeout)
		}
	}

	sourceNames := make(map[string]int)
	for i, src := range c.Sources {
		key := validators.NameKey(src.Name)
		if key == "" {
			continue
		}
		if first, ok := sourceNames[key]; ok {
			return fmt.Errorf("sources[%d]: duplicate source name '%s' (first defined at sources[%d])", i, src.Name, first)
		}
		sourceNames[key] = i
	}

	return nil
}

// Validate validates a single source configuration
func (s *SourceConfig) Validate(index int) error {
	if s.Name == "" {
		return fmt.Errorf("sources[%d]: name is required", index)
	}
	prefix := fmt.Sprintf("sources[%d] (%s)", index, s.Name)

	if err := validators.ValidateSourceName(s.Name); err != nil {
		return fmt.Errorf("%s: %w", prefix, err)
	}

	if err := validateSourceTypeCount(s, prefix); err != nil {
		return err
	}

	switch {
	case s.File != nil:
		return validateFileConfig(s.File, prefix)
	case s.Direct != nil:
		return validateDirectConfig(s.Direct, prefix)
	case s.TeamCity != nil:
		return validateTeamCityConfig(s.TeamCity, prefix)
	}
	return nil
}

// GetType returns the inferred type of the source config based on which field is present
func (s *SourceConfig) GetType() string {
	if s.File != nil {
		return SourceTypeFile
	}
	if s.Direct != nil {
		return SourceTypeDirect
	}
	if s.TeamCity != nil {
		return SourceTypeTeamCity
	}
	return ""
}

// GetRequiredParameters returns RequiredParameters, falling back to RequiredPlaceholders
func (s *SourceConfig) GetRequiredParameters() []string {
	if len(s.RequiredParameters) > 0 {
		return s.RequiredParameters
	}
	return s.RequiredPlaceholders
}

// Validate validates a single plugin configuration
func (p *PluginConfig) Validate(index int) error {
	if p.Name == "" {
		return fmt.Errorf("plugins[%d]: name is required", index)
	}
	if err := validators.ValidatePluginName(p.Name); err != nil {
		return fmt.Errorf("plugins[%d]: %w", index, err)
	}
	if p.Source == "" {
		return fmt.Errorf("plugins[%d] (%s): source is required", index, p.Name)
	}
	return nil
}

// GetFileNameFormat returns the file name format, using DefaultFileNameFormat if not specified
func (p *PluginConfig) GetFileNameFormat() string {
	if p.FileNameFormat == "" {
		return DefaultFileNameFormat
	}
	return p.FileNameFormat
}

// validateSourceTypeCount ensures exactly one source type is configured
func validateSourceTypeCount(s *SourceConfig, prefix string) error {
	configCount := 0
	if s.File != nil {
		configCount++
	}
	if s.Direct != nil {
		configCount++
	}
	if s.TeamCity != nil {
		configCount++
	}

	if configCount == 0 {
		return fmt.Errorf("%s: one of file, direct, or teamcity configuration must be specified", prefix)
	}
	if configCount > 1 {
		return fmt.Errorf("%s: only one of file, direct, or teamcity configuration may be specified", prefix)
	}

	return nil
}

func validateFileConfig(file *FileConfig, prefix string) error {
	if file.LatestVersion == "" {
		return fmt.Errorf("%s: file.latestVersion is required", prefix)
	}
	if file.Download == "" {
		return fmt.Errorf("%s: file.download is required", prefix)
	}
	return nil
}

func validateDirectConfig(direct *DirectConfig, prefix string) error {
	if direct.LatestVersion == "" {
		return fmt.Errorf("%s: direct.latestVersion is required", prefix)
	}
	if direct.Download == "" {
		return fmt.Errorf("%s: direct.download is required", prefix)
	}
	return nil
}

func validateTeamCityConfig(teamcity *TeamCityConfig, prefix string) error {
	if teamcity.URL == "" {
		return fmt.Errorf("%s: teamcity.url is required", prefix)
	}
	return nil
}
