package sources

import (
	"context"
	"encoding/base64"
	"net/http"
	"strings"

	"github.com/go-logr/logr"
	"github.com/tidwall/gjson"
)

const githubAPIHeader = "application/vnd.github.v3+json"

// GitHubSource resolves plugins from GitHub release assets.
//
// Parameters: user (required), repository (defaults to the plugin name),
// token or username/password, channel (release or prerelease), draft,
// author and file-pattern.
type GitHubSource struct {
	env *Environment
}

var _ Source = (*GitHubSource)(nil)

// NewGitHubSource creates the GitHub source
func NewGitHubSource(env *Environment) *GitHubSource {
	return &GitHubSource{env: env}
}

// Name returns "github"
func (*GitHubSource) Name() string { return string(TypeGitHub) }

// Type returns TypeGitHub
func (*GitHubSource) Type() Type { return TypeGitHub }

// RequiredParameters returns the parameters every GitHub plugin needs
func (*GitHubSource) RequiredParameters() []string { return []string{"user"} }

// LatestVersion returns the tag of the newest release with a usable asset
func (s *GitHubSource) LatestVersion(ctx context.Context, plugin *Plugin) (string, error) {
	rel, err := s.release(ctx, plugin)
	if err != nil {
		return "", err
	}
	return rel.Version, nil
}

// DownloadLocation returns the browser download URL of the selected asset
func (s *GitHubSource) DownloadLocation(ctx context.Context, plugin *Plugin) (string, error) {
	rel, err := s.release(ctx, plugin)
	if err != nil {
		return "", err
	}
	return rel.DownloadURL, nil
}

// Download fetches the selected asset into temporary storage
func (s *GitHubSource) Download(ctx context.Context, plugin *Plugin) (string, error) {
	rel, err := s.release(ctx, plugin)
	if err != nil {
		return "", err
	}
	return s.env.download(ctx, rel)
}

func (s *GitHubSource) release(ctx context.Context, plugin *Plugin) (*ReleaseInfo, error) {
	params := plugin.ParametersWithFallback("repository")

	channel, hasChannel := params.Get("channel")
	if hasChannel && channel != "release" && channel != "prerelease" {
		return nil, notFound("invalid channel %q, must be 'release' or 'prerelease'", channel)
	}

	var filePattern func(string) bool
	if pattern, ok := params.Get("file-pattern"); ok {
		re, err := CompileFullMatch(pattern)
		if err != nil {
			return nil, err
		}
		filePattern = re.MatchString
	}

	auth := githubAuthorization(params)
	url := params.Replacer().Replace(s.env.endpoints.GitHubReleases)
	body, err := s.env.query(ctx, url, withAuthorization(headers("Accept", githubAPIHeader), auth))
	if err != nil {
		return nil, err
	}
	json, err := parseJSON(url, body)
	if err != nil {
		return nil, err
	}

	includeDrafts := strings.EqualFold(params.Value("draft"), "true")
	author := params.Value("author")

	for _, release := range json.Array() {
		if !release.IsObject() || !release.Get("tag_name").Exists() || !release.Get("assets").IsArray() {
			continue
		}
		if release.Get("draft").Bool() && !includeDrafts {
			continue
		}
		prerelease := release.Get("prerelease").Bool()
		if hasChannel && (channel == "release") == prerelease {
			continue
		}
		if author != "" && release.Get("author").Exists() &&
			!strings.EqualFold(author, release.Get("author.login").String()) {
			continue
		}

		for _, asset := range release.Get("assets").Array() {
			if !githubAssetMatches(asset, filePattern) {
				continue
			}
			version := release.Get("tag_name").String()
			name := asset.Get("name").String()
			return &ReleaseInfo{
				Version:     version,
				DownloadURL: asset.Get("browser_download_url").String(),
				FileName:    plugin.Name() + "-" + version + "-" + name,
				Headers: withAuthorization(
					headers("Accept", githubAPIHeader, "Accept", "application/octet-stream"), auth),
			}, nil
		}
	}

	logr.FromContextOrDiscard(ctx).V(1).Info("No release with a matching asset", "url", url)
	return nil, notFound("no release with a jar or zip asset in %s", url)
}

func githubAssetMatches(asset gjson.Result, filePattern func(string) bool) bool {
	if !asset.IsObject() ||
		!asset.Get("browser_download_url").Exists() ||
		!asset.Get("content_type").Exists() ||
		!asset.Get("name").Exists() {
		return false
	}
	switch ContentTypeOf(asset.Get("content_type").String()) {
	case ContentJAR, ContentZIP:
	default:
		return false
	}
	return filePattern == nil || filePattern(asset.Get("name").String())
}

// githubAuthorization builds the Authorization header value from a token or
// from username and password
func githubAuthorization(params Parameters) string {
	if token, ok := params.Get("token"); ok {
		return "token " + token
	}
	username, hasUser := params.Get("username")
	password, hasPassword := params.Get("password")
	if hasUser && hasPassword {
		return "Basic " + base64.StdEncoding.EncodeToString([]byte(username+":"+password))
	}
	return ""
}

func withAuthorization(h http.Header, value string) http.Header {
	if value != "" {
		h.Set("Authorization", value)
	}
	return h
}
