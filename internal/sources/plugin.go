package sources

import (
	"github.com/stacklok/plugin-updater/internal/config"
	"github.com/stacklok/plugin-updater/internal/placeholder"
	"github.com/stacklok/plugin-updater/internal/versions"
)

// Plugin describes one managed plugin. It is immutable after construction.
type Plugin struct {
	name           string
	source         Source
	fileNameFormat string
	params         Parameters
}

// NewPlugin creates a plugin descriptor. The "name" parameter defaults to the
// plugin name and an empty format defaults to config.DefaultFileNameFormat.
func NewPlugin(name string, source Source, fileNameFormat string, params Parameters) *Plugin {
	if fileNameFormat == "" {
		fileNameFormat = config.DefaultFileNameFormat
	}
	return &Plugin{
		name:           name,
		source:         source,
		fileNameFormat: fileNameFormat,
		params:         params.WithDefault("name", name),
	}
}

// Name returns the plugin name
func (p *Plugin) Name() string {
	return p.name
}

// Source returns the source the plugin is updated from
func (p *Plugin) Source() Source {
	return p.source
}

// FileNameFormat returns the versioned file name template
func (p *Plugin) FileNameFormat() string {
	return p.fileNameFormat
}

// Parameters returns the plugin parameters
func (p *Plugin) Parameters() Parameters {
	return p.params
}

// Parameter returns a single parameter value
func (p *Plugin) Parameter(key string) (string, bool) {
	return p.params.Get(key)
}

// ParametersWithFallback returns the parameters with key defaulting to the plugin name
func (p *Plugin) ParametersWithFallback(key string) Parameters {
	return p.params.WithDefault(key, p.name)
}

// FileName returns the versioned file name for version. The format may use
// %name%, %version% (sanitized) and %rawversion%.
func (p *Plugin) FileName(version string) string {
	return placeholder.New(
		"name", p.name,
		"version", versions.Sanitize(version),
		"rawversion", version,
	).Replace(p.fileNameFormat)
}

// WithParameters returns a derived descriptor with the given key/value pairs
// added. The receiver is not modified.
func (p *Plugin) WithParameters(pairs ...string) *Plugin {
	params := p.params
	for i := 0; i+1 < len(pairs); i += 2 {
		params = params.With(pairs[i], pairs[i+1])
	}
	return &Plugin{
		name:           p.name,
		source:         p.source,
		fileNameFormat: p.fileNameFormat,
		params:         params,
	}
}
