package registry

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/go-logr/logr"

	"github.com/stacklok/plugin-updater/internal/config"
	"github.com/stacklok/plugin-updater/internal/sources"
	"github.com/stacklok/plugin-updater/internal/validators"
)

var (
	// ErrDuplicateSource is returned when a source name is registered twice
	ErrDuplicateSource = errors.New("duplicate source name")

	// ErrDuplicatePlugin is reported when a plugin name is configured twice
	ErrDuplicatePlugin = errors.New("duplicate plugin name")

	// ErrUnknownSource is reported when a plugin references a source that does not exist
	ErrUnknownSource = errors.New("unknown source")

	// ErrMissingParameters is reported when a plugin lacks parameters its source requires
	ErrMissingParameters = errors.New("missing required parameters")
)

// ConfigurationError describes a plugin that was excluded from the active set
type ConfigurationError struct {
	Plugin  string
	Source  string
	Missing []string
	Err     error
}

// Error returns the error message
func (e *ConfigurationError) Error() string {
	switch {
	case len(e.Missing) > 0:
		return fmt.Sprintf("plugin %s: %v for source %s: %s",
			e.Plugin, e.Err, e.Source, strings.Join(e.Missing, ", "))
	case e.Source != "":
		return fmt.Sprintf("plugin %s: %v %s", e.Plugin, e.Err, e.Source)
	default:
		return fmt.Sprintf("plugin %s: %v", e.Plugin, e.Err)
	}
}

// Unwrap returns the underlying error
func (e *ConfigurationError) Unwrap() error {
	return e.Err
}

// Registry maps names to sources and plugins. It is not safe for concurrent
// registration; lookups are safe once construction is done.
type Registry struct {
	sources     map[string]sources.Source
	sourceOrder []sources.Source
	plugins     map[string]*sources.Plugin
	pluginOrder []*sources.Plugin
	rejected    []*ConfigurationError
}

// NewEmpty creates a registry without any source
func NewEmpty() *Registry {
	return &Registry{
		sources: make(map[string]sources.Source),
		plugins: make(map[string]*sources.Plugin),
	}
}

// New creates a registry from cfg. The built-in sources are registered first,
// then the configured ones. Invalid source entries are logged and skipped, a
// duplicate source name is fatal. Plugins that cannot be registered are
// logged and listed by Rejected.
func New(ctx context.Context, cfg *config.Config, env *sources.Environment) (*Registry, error) {
	logger := logr.FromContextOrDiscard(ctx)
	r := NewEmpty()

	for _, src := range sources.Builtins(env) {
		if err := r.RegisterSource(src); err != nil {
			return nil, err
		}
	}

	for i := range cfg.Sources {
		sourceCfg := &cfg.Sources[i]
		if err := sourceCfg.Validate(i); err != nil {
			logger.Error(err, "Skipping invalid source", "source", sourceCfg.Name)
			continue
		}
		src, err := sources.NewFromConfig(sourceCfg, env)
		if err != nil {
			logger.Error(err, "Skipping invalid source", "source", sourceCfg.Name)
			continue
		}
		if err := r.RegisterSource(src); err != nil {
			return nil, fmt.Errorf("sources[%d]: %w", i, err)
		}
		logger.V(1).Info("Registered source", "source", src.Name(), "type", src.Type())
	}

	usesSpigot := false
	for i := range cfg.Plugins {
		pluginCfg := &cfg.Plugins[i]
		if err := pluginCfg.Validate(i); err != nil {
			r.reject(ctx, &ConfigurationError{Plugin: pluginCfg.Name, Source: pluginCfg.Source, Err: err})
			continue
		}

		params := make([]string, 0, 2*len(pluginCfg.Parameters))
		for _, p := range pluginCfg.Parameters {
			params = append(params, p.Key, p.Value)
		}

		plugin, err := r.RegisterPlugin(pluginCfg.Name, pluginCfg.Source, pluginCfg.FileNameFormat,
			sources.NewParameters(params...))
		if err != nil {
			var cfgErr *ConfigurationError
			if !errors.As(err, &cfgErr) {
				cfgErr = &ConfigurationError{Plugin: pluginCfg.Name, Source: pluginCfg.Source, Err: err}
			}
			r.reject(ctx, cfgErr)
			continue
		}
		if plugin.Source().Type() == sources.TypeSpigot {
			usesSpigot = true
		}
	}

	if usesSpigot {
		logger.Info("Spigot downloads are often blocked by Cloudflare; "+
			"prefer another source where the plugin is published there", "severity", "warning")
	}

	logger.Info("Registry built", "sources", len(r.sourceOrder), "plugins", len(r.pluginOrder),
		"rejected", len(r.rejected))
	return r, nil
}

// RegisterSource adds src. Registering a name twice returns ErrDuplicateSource.
func (r *Registry) RegisterSource(src sources.Source) error {
	k := key(src.Name())
	if _, ok := r.sources[k]; ok {
		return fmt.Errorf("%w: %s", ErrDuplicateSource, src.Name())
	}
	r.sources[k] = src
	r.sourceOrder = append(r.sourceOrder, src)
	return nil
}

// RegisterPlugin creates and adds a plugin updated from the source named
// sourceName. A *ConfigurationError is returned when the source is unknown,
// the plugin name is taken or required parameters are missing.
func (r *Registry) RegisterPlugin(
	name, sourceName, fileNameFormat string, params sources.Parameters,
) (*sources.Plugin, error) {
	src, ok := r.Source(sourceName)
	if !ok {
		return nil, &ConfigurationError{Plugin: name, Source: sourceName, Err: ErrUnknownSource}
	}

	k := key(name)
	if _, ok := r.plugins[k]; ok {
		return nil, &ConfigurationError{Plugin: name, Source: sourceName, Err: ErrDuplicatePlugin}
	}

	plugin := sources.NewPlugin(name, src, fileNameFormat, params)
	if missing := plugin.Parameters().Missing(src.RequiredParameters()); len(missing) > 0 {
		return nil, &ConfigurationError{Plugin: name, Source: src.Name(), Missing: missing, Err: ErrMissingParameters}
	}

	r.plugins[k] = plugin
	r.pluginOrder = append(r.pluginOrder, plugin)
	return plugin, nil
}

// Source returns the source registered as name
func (r *Registry) Source(name string) (sources.Source, bool) {
	src, ok := r.sources[key(name)]
	return src, ok
}

// Sources returns all sources in registration order
func (r *Registry) Sources() []sources.Source {
	return append([]sources.Source(nil), r.sourceOrder...)
}

// Plugin returns the plugin registered as name
func (r *Registry) Plugin(name string) (*sources.Plugin, bool) {
	plugin, ok := r.plugins[key(name)]
	return plugin, ok
}

// Plugins returns the active plugins in configuration order
func (r *Registry) Plugins() []*sources.Plugin {
	return append([]*sources.Plugin(nil), r.pluginOrder...)
}

// Rejected returns the plugins that were excluded while building the registry
func (r *Registry) Rejected() []*ConfigurationError {
	return append([]*ConfigurationError(nil), r.rejected...)
}

func (r *Registry) reject(ctx context.Context, err *ConfigurationError) {
	logr.FromContextOrDiscard(ctx).Error(err, "Plugin is not updated because of a configuration error",
		"plugin", err.Plugin, "source", err.Source)
	r.rejected = append(r.rejected, err)
}

// key folds name for case-insensitive lookups
func key(name string) string {
	return validators.NameKey(name)
}
