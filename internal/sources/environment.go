package sources

import (
	"context"
	"fmt"
	"net/http"
	"os"

	"github.com/stacklok/plugin-updater/internal/httpclient"
)

// Endpoints holds the URL templates of the public backends
type Endpoints struct {
	GitHubReleases   string
	GitLabAPI        string
	HangarVersions   string
	ModrinthVersions string
	SpigotLatest     string
	SpigotDownload   string
	SpigotDetails    string
	BukkitFiles      string
}

// DefaultEndpoints returns the production backend URLs
func DefaultEndpoints() Endpoints {
	return Endpoints{
		GitHubReleases:   "https://api.github.com/repos/%user%/%repository%/releases",
		GitLabAPI:        "https://gitlab.com/api/v4/",
		HangarVersions:   "https://hangar.papermc.io/api/v1/projects/%user%/%project%/versions",
		ModrinthVersions: "https://api.modrinth.com/v2/project/%project%/version",
		SpigotLatest:     "https://api.spiget.org/v2/resources/%resourceid%/versions/latest",
		SpigotDownload:   "https://api.spiget.org/v2/resources/%resourceid%/versions/%versionid%/download",
		SpigotDetails:    "https://api.spiget.org/v2/resources/%resourceid%",
		BukkitFiles:      "https://api.curseforge.com/servermods/files?projectIds=%pluginid%",
	}
}

// Environment bundles the collaborators shared by all sources
type Environment struct {
	cache     *httpclient.QueryCache
	temp      TempStorage
	endpoints Endpoints
}

// EnvironmentOption configures an Environment
type EnvironmentOption func(*Environment)

// WithEndpoints overrides the backend URL templates
func WithEndpoints(endpoints Endpoints) EnvironmentOption {
	return func(e *Environment) {
		e.endpoints = endpoints
	}
}

// NewEnvironment creates an Environment. Queries go through cache and
// downloads through the cache's client.
func NewEnvironment(cache *httpclient.QueryCache, temp TempStorage, opts ...EnvironmentOption) *Environment {
	e := &Environment{
		cache:     cache,
		temp:      temp,
		endpoints: DefaultEndpoints(),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Endpoints returns the backend URL templates in use
func (e *Environment) Endpoints() Endpoints {
	return e.endpoints
}

// query returns the body of url. Failures were already logged by the cache and
// are reported as ErrNotFound.
func (e *Environment) query(ctx context.Context, url string, headers http.Header) (string, error) {
	body, ok := e.cache.Query(ctx, url, headers)
	if !ok {
		return "", notFound("query of %s returned nothing", url)
	}
	return body, nil
}

// tempDir returns the temporary directory, creating it if needed
func (e *Environment) tempDir() (string, error) {
	dir := e.temp.TempDir()
	if err := os.MkdirAll(dir, 0750); err != nil {
		return "", fmt.Errorf("failed to create temporary directory %s: %w", dir, err)
	}
	return dir, nil
}

func headers(pairs ...string) http.Header {
	h := make(http.Header, len(pairs)/2)
	for i := 0; i+1 < len(pairs); i += 2 {
		h.Add(pairs[i], pairs[i+1])
	}
	return h
}
