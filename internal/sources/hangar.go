package sources

import (
	"context"
	"net/url"
	"strings"

	"github.com/tidwall/gjson"
)

// HangarSource resolves plugins from the Hangar versions API.
//
// Parameters: user (required), project (defaults to the plugin name),
// channel, platform and versiontag.
type HangarSource struct {
	env *Environment
}

var _ Source = (*HangarSource)(nil)

// NewHangarSource creates the Hangar source
func NewHangarSource(env *Environment) *HangarSource {
	return &HangarSource{env: env}
}

// Name returns "hangar"
func (*HangarSource) Name() string { return string(TypeHangar) }

// Type returns TypeHangar
func (*HangarSource) Type() Type { return TypeHangar }

// RequiredParameters returns the parameters every Hangar plugin needs
func (*HangarSource) RequiredParameters() []string { return []string{"user"} }

// LatestVersion returns the name of the newest matching version
func (s *HangarSource) LatestVersion(ctx context.Context, plugin *Plugin) (string, error) {
	rel, err := s.release(ctx, plugin)
	if err != nil {
		return "", err
	}
	return rel.Version, nil
}

// DownloadLocation returns the download URL for the configured platform
func (s *HangarSource) DownloadLocation(ctx context.Context, plugin *Plugin) (string, error) {
	rel, err := s.release(ctx, plugin)
	if err != nil {
		return "", err
	}
	if rel.DownloadURL == "" {
		return "", notFound("version %s has no download for this platform", rel.Version)
	}
	return rel.DownloadURL, nil
}

// Download fetches the artifact and verifies its MD5 hash when published
func (s *HangarSource) Download(ctx context.Context, plugin *Plugin) (string, error) {
	rel, err := s.release(ctx, plugin)
	if err != nil {
		return "", err
	}
	return s.env.download(ctx, rel)
}

func (s *HangarSource) release(ctx context.Context, plugin *Plugin) (*ReleaseInfo, error) {
	params := plugin.ParametersWithFallback("project")

	query := url.Values{}
	query.Set("limit", "1")
	query.Set("offset", "0")
	for param, key := range map[string]string{"channel": "channel", "platform": "platform", "versiontag": "vTag"} {
		if v, ok := params.Get(param); ok {
			query.Set(key, v)
		}
	}
	endpoint := params.Replacer().Replace(s.env.endpoints.HangarVersions) + "?" + query.Encode()

	body, err := s.env.query(ctx, endpoint, headers("Accept", "application/json"))
	if err != nil {
		return nil, err
	}
	json, err := parseJSON(endpoint, body)
	if err != nil {
		return nil, err
	}

	version := json.Get("result.0")
	if !version.IsObject() {
		return nil, notFound("no version in %s", endpoint)
	}
	name := version.Get("name")
	if name.Type != gjson.String {
		return nil, invalidResponse(endpoint, "version without name")
	}

	rel := &ReleaseInfo{
		Version:  name.String(),
		FileName: plugin.Name() + "-" + name.String() + ".jar",
	}

	download := hangarPlatformDownload(version.Get("downloads"), params)
	if download.IsObject() {
		fileInfo := download.Get("fileInfo")
		switch {
		case fileInfo.IsObject() && download.Get("downloadUrl").Exists():
			rel.DownloadURL = download.Get("downloadUrl").String()
			if md5 := fileInfo.Get("md5Hash"); md5.Type == gjson.String && md5.String() != "" {
				rel.Checksum = &Checksum{Algorithm: AlgorithmMD5, Value: md5.String()}
			}
		case download.Get("externalUrl").Exists():
			rel.DownloadURL = download.Get("externalUrl").String()
		}
	}

	return rel, nil
}

// hangarPlatformDownload picks the download entry of the configured platform,
// or the first entry when no platform is configured
func hangarPlatformDownload(downloads gjson.Result, params Parameters) gjson.Result {
	if !downloads.IsObject() {
		return gjson.Result{}
	}
	if platform, ok := params.Get("platform"); ok {
		return downloads.Get(escapeGJSON(strings.ToUpper(platform)))
	}

	var first gjson.Result
	downloads.ForEach(func(_, value gjson.Result) bool {
		first = value
		return false
	})
	return first
}
