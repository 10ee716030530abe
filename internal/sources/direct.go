package sources

import (
	"context"
	"fmt"

	"github.com/tidwall/gjson"

	"github.com/stacklok/plugin-updater/internal/config"
	"github.com/stacklok/plugin-updater/internal/placeholder"
)

// DirectSource queries configured URLs. The version response, and optionally
// the download response, can be narrowed with a JSON path and/or a regex.
type DirectSource struct {
	name     string
	cfg      config.DirectConfig
	required []string
	env      *Environment
}

var _ Source = (*DirectSource)(nil)

// NewDirectSource creates a direct source from its configuration
func NewDirectSource(name string, cfg *config.DirectConfig, required []string, env *Environment) *DirectSource {
	return &DirectSource{
		name:     name,
		cfg:      *cfg,
		required: required,
		env:      env,
	}
}

// Name returns the configured source name
func (s *DirectSource) Name() string { return s.name }

// Type returns TypeDirect
func (*DirectSource) Type() Type { return TypeDirect }

// RequiredParameters returns the configured required parameters
func (s *DirectSource) RequiredParameters() []string { return s.required }

// LatestVersion queries the latest version URL and extracts the version
func (s *DirectSource) LatestVersion(ctx context.Context, plugin *Plugin) (string, error) {
	replacer := plugin.Parameters().Replacer()
	url := replacer.Replace(s.cfg.LatestVersion)

	body, err := s.env.query(ctx, url, nil)
	if err != nil {
		return "", err
	}
	if body == "" {
		return "", notFound("empty version response from %s", url)
	}

	return extractValue(url, body, s.cfg.VersionJSONPath, s.cfg.VersionRegexPattern, replacer)
}

// DownloadLocation returns the download URL. Without a download JSON path or
// regex the download template itself is the URL; otherwise it is queried and
// the URL extracted from the response.
func (s *DirectSource) DownloadLocation(ctx context.Context, plugin *Plugin) (string, error) {
	version, err := s.LatestVersion(ctx, plugin)
	if err != nil {
		return "", err
	}
	return s.downloadURL(ctx, plugin, version)
}

// Download fetches the artifact into temporary storage
func (s *DirectSource) Download(ctx context.Context, plugin *Plugin) (string, error) {
	version, err := s.LatestVersion(ctx, plugin)
	if err != nil {
		return "", err
	}

	url, err := s.downloadURL(ctx, plugin, version)
	if err != nil {
		return "", fmt.Errorf("no download URL found: %w", err)
	}

	return s.env.download(ctx, &ReleaseInfo{
		Version:     version,
		DownloadURL: url,
		FileName:    plugin.Name() + "-" + urlFileName(url),
	})
}

func (s *DirectSource) downloadURL(ctx context.Context, plugin *Plugin, version string) (string, error) {
	replacer := plugin.Parameters().Replacer().With("version", version)
	url := replacer.Replace(s.cfg.Download)

	if s.cfg.DownloadJSONPath == "" && s.cfg.DownloadRegexPattern == "" {
		return url, nil
	}

	body, err := s.env.query(ctx, url, nil)
	if err != nil {
		return "", err
	}
	if body == "" {
		return "", notFound("empty download response from %s", url)
	}

	return extractValue(url, body, s.cfg.DownloadJSONPath, s.cfg.DownloadRegexPattern, replacer)
}

// extractValue narrows a response. A JSON response needs a JSON path or a
// regex; the regex, when set, must match the whole (narrowed) value and its
// first group wins over the full match.
func extractValue(url, value, jsonPath, regex string, replacer *placeholder.Replacer) (string, error) {
	if isJSON(value) {
		switch {
		case jsonPath != "":
			path := gjsonPath(replacer.Replace(jsonPath))
			if !gjson.Valid(value) {
				return "", invalidResponse(url, "malformed JSON")
			}
			result := gjson.Get(value, path)
			if !result.Exists() || result.Type == gjson.Null {
				return "", notFound("no value for JSON path %q in response of %s", jsonPath, url)
			}
			value = result.String()
		case regex == "":
			return "", fmt.Errorf("%w from %s: JSON response but neither JSON path nor regex pattern configured",
				ErrInvalidResponse, url)
		}
	}

	if regex == "" {
		return value, nil
	}

	re, err := CompileFullMatch(replacer.Replace(regex))
	if err != nil {
		return "", err
	}
	m := re.FindStringSubmatch(value)
	if m == nil {
		return "", notFound("value %q does not match regex pattern %q", value, regex)
	}
	if len(m) > 1 {
		return m[1], nil
	}
	return m[0], nil
}
