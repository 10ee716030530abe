package sources

import (
	"context"
	"net/http"
	"strings"
)

// GitLabSource resolves plugins from links attached to GitLab releases.
//
// Parameters: user (required), repository (defaults to the plugin name),
// token and apiurl.
type GitLabSource struct {
	env *Environment
}

var _ Source = (*GitLabSource)(nil)

// NewGitLabSource creates the GitLab source
func NewGitLabSource(env *Environment) *GitLabSource {
	return &GitLabSource{env: env}
}

// Name returns "gitlab"
func (*GitLabSource) Name() string { return string(TypeGitLab) }

// Type returns TypeGitLab
func (*GitLabSource) Type() Type { return TypeGitLab }

// RequiredParameters returns the parameters every GitLab plugin needs
func (*GitLabSource) RequiredParameters() []string { return []string{"user"} }

// LatestVersion returns the tag of the newest release linking a jar
func (s *GitLabSource) LatestVersion(ctx context.Context, plugin *Plugin) (string, error) {
	rel, err := s.release(ctx, plugin)
	if err != nil {
		return "", err
	}
	return rel.Version, nil
}

// DownloadLocation returns the URL of the linked jar
func (s *GitLabSource) DownloadLocation(ctx context.Context, plugin *Plugin) (string, error) {
	rel, err := s.release(ctx, plugin)
	if err != nil {
		return "", err
	}
	return rel.DownloadURL, nil
}

// Download fetches the linked jar into temporary storage
func (s *GitLabSource) Download(ctx context.Context, plugin *Plugin) (string, error) {
	rel, err := s.release(ctx, plugin)
	if err != nil {
		return "", err
	}
	return s.env.download(ctx, rel)
}

func (s *GitLabSource) release(ctx context.Context, plugin *Plugin) (*ReleaseInfo, error) {
	params := plugin.ParametersWithFallback("repository").WithDefault("apiurl", s.env.endpoints.GitLabAPI)
	url := params.Replacer().Replace("%apiurl%projects/%user%%2F%repository%/releases")

	h := http.Header{}
	if token, ok := params.Get("token"); ok {
		h.Set("Private-Token", token)
	}

	body, err := s.env.query(ctx, url, h)
	if err != nil {
		return nil, err
	}
	json, err := parseJSON(url, body)
	if err != nil {
		return nil, err
	}

	for _, release := range json.Array() {
		if !release.IsObject() || !release.Get("tag_name").Exists() || !release.Get("assets").IsObject() {
			continue
		}
		for _, link := range release.Get("assets.links").Array() {
			if !link.IsObject() {
				continue
			}
			name, linkURL := link.Get("name").String(), link.Get("url").String()
			if !strings.HasSuffix(name, ".jar") && !strings.HasSuffix(linkURL, ".jar") {
				continue
			}
			if name == "" {
				name = urlFileName(linkURL)
			}
			return &ReleaseInfo{
				Version:     release.Get("tag_name").String(),
				DownloadURL: linkURL,
				FileName:    plugin.Name() + "-" + name,
				Headers:     h.Clone(),
			}, nil
		}
	}

	return nil, notFound("no release linking a jar in %s", url)
}
