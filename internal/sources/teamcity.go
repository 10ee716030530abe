package sources

import (
	"context"
	"net/http"
	"strings"

	"github.com/stacklok/plugin-updater/internal/config"
)

const (
	teamCityBuildPath     = "%apiurl%/app/rest/builds/project:%project%,status:SUCCESS,branch:%branch%,buildType:%buildtype%"
	teamCityArtifactsPath = "%apiurl%/app/rest/builds/id:%buildid%/artifacts"
	teamCityContentPath   = "%apiurl%/app/rest/builds/id:%buildid%/artifacts/content/%filename%"
)

// TeamCitySource resolves plugins from the latest successful build of a
// TeamCity build configuration. Each configured server is its own source.
//
// Parameters: buildtype (required), project (defaults to the plugin name),
// branch (defaults to master) and apiurl (defaults to the server URL).
// Requests use guest access unless a token is configured.
type TeamCitySource struct {
	name  string
	url   string
	token string
	env   *Environment
}

var _ Source = (*TeamCitySource)(nil)

// NewTeamCitySource creates a TeamCity source named name
func NewTeamCitySource(name string, cfg *config.TeamCityConfig, env *Environment) *TeamCitySource {
	s := &TeamCitySource{name: name, env: env}
	if cfg != nil {
		s.url = strings.TrimSuffix(cfg.URL, "/")
		s.token = cfg.Token
	}
	return s
}

// Name returns the configured source name
func (s *TeamCitySource) Name() string { return s.name }

// Type returns TypeTeamCity
func (*TeamCitySource) Type() Type { return TypeTeamCity }

// RequiredParameters returns the parameters every TeamCity plugin needs
func (*TeamCitySource) RequiredParameters() []string { return []string{"buildtype"} }

// LatestVersion returns the number of the latest successful build
func (s *TeamCitySource) LatestVersion(ctx context.Context, plugin *Plugin) (string, error) {
	version, _, err := s.latestBuild(ctx, s.params(plugin))
	return version, err
}

// DownloadLocation returns the content URL of the first jar artifact
func (s *TeamCitySource) DownloadLocation(ctx context.Context, plugin *Plugin) (string, error) {
	rel, err := s.release(ctx, plugin)
	if err != nil {
		return "", err
	}
	return rel.DownloadURL, nil
}

// Download fetches the first jar artifact of the latest successful build
func (s *TeamCitySource) Download(ctx context.Context, plugin *Plugin) (string, error) {
	rel, err := s.release(ctx, plugin)
	if err != nil {
		return "", err
	}
	return s.env.download(ctx, rel)
}

func (s *TeamCitySource) params(plugin *Plugin) Parameters {
	return plugin.ParametersWithFallback("project").
		WithDefault("apiurl", s.url).
		WithDefault("branch", "master")
}

func (s *TeamCitySource) latestBuild(ctx context.Context, params Parameters) (string, string, error) {
	url := s.withAuth(params.Replacer().Replace(teamCityBuildPath))
	body, err := s.env.query(ctx, url, s.headers())
	if err != nil {
		return "", "", err
	}
	json, err := parseJSON(url, body)
	if err != nil {
		return "", "", err
	}
	number, id := json.Get("number"), json.Get("id")
	if !number.Exists() || !id.Exists() {
		return "", "", notFound("no successful build in %s", url)
	}
	return number.String(), id.String(), nil
}

func (s *TeamCitySource) release(ctx context.Context, plugin *Plugin) (*ReleaseInfo, error) {
	params := s.params(plugin)
	version, buildID, err := s.latestBuild(ctx, params)
	if err != nil {
		return nil, err
	}
	params = params.With("buildid", buildID)

	url := s.withAuth(params.Replacer().Replace(teamCityArtifactsPath))
	body, err := s.env.query(ctx, url, s.headers())
	if err != nil {
		return nil, err
	}
	json, err := parseJSON(url, body)
	if err != nil {
		return nil, err
	}

	for _, file := range json.Get("file").Array() {
		name := file.Get("name").String()
		if !strings.HasSuffix(name, ".jar") {
			continue
		}
		return &ReleaseInfo{
			Version:     version,
			DownloadURL: s.withAuth(params.With("filename", name).Replacer().Replace(teamCityContentPath)),
			FileName:    plugin.Name() + "-" + name,
			Headers:     s.headers(),
		}, nil
	}
	return nil, notFound("build %s has no jar artifact", version)
}

func (s *TeamCitySource) headers() http.Header {
	h := headers("Accept", "application/json")
	if s.token != "" {
		h.Set("Authorization", "Bearer "+s.token)
	}
	return h
}

// withAuth switches url to guest access when no token is configured
func (s *TeamCitySource) withAuth(url string) string {
	if s.token != "" || strings.Contains(url, "guest=1") {
		return url
	}
	if strings.Contains(url, "?") {
		return url + "&guest=1"
	}
	return url + "?guest=1"
}
