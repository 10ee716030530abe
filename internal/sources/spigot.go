package sources

import (
	"context"
	"fmt"
	"strings"

	"github.com/go-logr/logr"
	"github.com/tidwall/gjson"

	"github.com/stacklok/plugin-updater/internal/httpclient"
)

// SpigotSource resolves SpigotMC resources through the Spiget API.
//
// Parameters: resourceid (required). When the download is blocked with a 503
// the resource links are searched for a GitHub repository whose latest
// release has the same version, and the download is taken from there.
type SpigotSource struct {
	env    *Environment
	github *GitHubSource
}

var _ Source = (*SpigotSource)(nil)

// NewSpigotSource creates the Spigot source, falling back to github
func NewSpigotSource(env *Environment, github *GitHubSource) *SpigotSource {
	return &SpigotSource{env: env, github: github}
}

// Name returns "spigot"
func (*SpigotSource) Name() string { return string(TypeSpigot) }

// Type returns TypeSpigot
func (*SpigotSource) Type() Type { return TypeSpigot }

// RequiredParameters returns the parameters every Spigot plugin needs
func (*SpigotSource) RequiredParameters() []string { return []string{"resourceid"} }

// LatestVersion returns the name of the latest resource version
func (s *SpigotSource) LatestVersion(ctx context.Context, plugin *Plugin) (string, error) {
	rel, err := s.release(ctx, plugin)
	if err != nil {
		return "", err
	}
	return rel.Version, nil
}

// DownloadLocation returns the Spiget download URL of the latest version
func (s *SpigotSource) DownloadLocation(ctx context.Context, plugin *Plugin) (string, error) {
	rel, err := s.release(ctx, plugin)
	if err != nil {
		return "", err
	}
	return rel.DownloadURL, nil
}

// Download fetches the latest version, falling back to a linked GitHub
// repository when Spiget refuses with 503
func (s *SpigotSource) Download(ctx context.Context, plugin *Plugin) (string, error) {
	rel, err := s.release(ctx, plugin)
	if err != nil {
		return "", err
	}

	path, err := s.env.download(ctx, rel)
	if err == nil {
		return path, nil
	}
	if !httpclient.IsBlocked(err) {
		return "", err
	}

	logr.FromContextOrDiscard(ctx).Info("Spigot download is unavailable, looking for a linked GitHub repository",
		"severity", "warning", "version", rel.Version, "error", err.Error())
	return s.downloadFromGitHub(ctx, plugin, rel)
}

func (s *SpigotSource) release(ctx context.Context, plugin *Plugin) (*ReleaseInfo, error) {
	params := plugin.Parameters()
	url := params.Replacer().Replace(s.env.endpoints.SpigotLatest)

	body, err := s.env.query(ctx, url, nil)
	if err != nil {
		return nil, err
	}
	json, err := parseJSON(url, body)
	if err != nil {
		return nil, err
	}
	if !json.IsObject() || !json.Get("name").Exists() || !json.Get("id").Exists() {
		return nil, notFound("no latest version in %s", url)
	}

	version := json.Get("name").String()
	return &ReleaseInfo{
		Version:     version,
		DownloadURL: params.With("versionid", json.Get("id").String()).Replacer().Replace(s.env.endpoints.SpigotDownload),
		FileName:    plugin.Name() + "-" + version + ".jar",
	}, nil
}

func (s *SpigotSource) downloadFromGitHub(ctx context.Context, plugin *Plugin, rel *ReleaseInfo) (string, error) {
	logger := logr.FromContextOrDiscard(ctx)

	url := plugin.Parameters().Replacer().Replace(s.env.endpoints.SpigotDetails)
	body, err := s.env.query(ctx, url, nil)
	if err != nil {
		return "", err
	}
	json, err := parseJSON(url, body)
	if err != nil {
		return "", err
	}

	var user, repository string
	json.Get("links").ForEach(func(_, link gjson.Result) bool {
		if link.Type != gjson.String || !strings.Contains(link.String(), "github.com/") {
			return true
		}
		user = NamedGroup(GitHubLinkPattern, link.String(), "user")
		repository = NamedGroup(GitHubLinkPattern, link.String(), "repo")
		return user == ""
	})
	if user == "" {
		return "", notFound("resource links no GitHub repository; download manually from %s", rel.DownloadURL)
	}

	logger.Info("Found GitHub repository, checking its releases", "user", user, "repository", repository)
	derived := plugin.WithParameters("user", user, "repository", repository)

	ghVersion, err := s.github.LatestVersion(ctx, derived)
	if err != nil {
		logger.Info("Unable to find a release on GitHub, download it manually from Spigot",
			"severity", "warning", "url", rel.DownloadURL)
		return "", fmt.Errorf("no GitHub release for %s/%s: %w", user, repository, err)
	}
	if !strings.EqualFold(ghVersion, rel.Version) {
		logger.Info("GitHub release does not match the Spigot version; configure the github source to update from there",
			"severity", "warning", "githubVersion", ghVersion, "spigotVersion", rel.Version)
		return "", notFound("GitHub release %s does not match Spigot version %s", ghVersion, rel.Version)
	}

	logger.Info("Found matching release on GitHub, downloading it", "version", ghVersion)
	return s.github.Download(ctx, derived)
}
