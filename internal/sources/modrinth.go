package sources

import (
	"context"
	"net/url"
	"strconv"

	"github.com/tidwall/gjson"
)

// ModrinthSource resolves plugins from the Modrinth versions API.
//
// Parameters: project (defaults to the plugin name), featured (defaults to
// true), platform (loader) and platform-version (game version).
type ModrinthSource struct {
	env *Environment
}

var _ Source = (*ModrinthSource)(nil)

// NewModrinthSource creates the Modrinth source
func NewModrinthSource(env *Environment) *ModrinthSource {
	return &ModrinthSource{env: env}
}

// Name returns "modrinth"
func (*ModrinthSource) Name() string { return string(TypeModrinth) }

// Type returns TypeModrinth
func (*ModrinthSource) Type() Type { return TypeModrinth }

// RequiredParameters returns nothing; the project defaults to the plugin name
func (*ModrinthSource) RequiredParameters() []string { return nil }

// LatestVersion returns the version number of the newest matching version
func (s *ModrinthSource) LatestVersion(ctx context.Context, plugin *Plugin) (string, error) {
	rel, err := s.release(ctx, plugin)
	if err != nil {
		return "", err
	}
	return rel.Version, nil
}

// DownloadLocation returns the URL of the primary file
func (s *ModrinthSource) DownloadLocation(ctx context.Context, plugin *Plugin) (string, error) {
	rel, err := s.release(ctx, plugin)
	if err != nil {
		return "", err
	}
	return rel.DownloadURL, nil
}

// Download fetches the primary file and verifies its SHA1 hash when published
func (s *ModrinthSource) Download(ctx context.Context, plugin *Plugin) (string, error) {
	rel, err := s.release(ctx, plugin)
	if err != nil {
		return "", err
	}
	return s.env.download(ctx, rel)
}

func (s *ModrinthSource) release(ctx context.Context, plugin *Plugin) (*ReleaseInfo, error) {
	params := plugin.ParametersWithFallback("project").WithDefault("featured", "true")

	query := url.Values{}
	query.Set("featured", params.Value("featured"))
	if platform, ok := params.Get("platform"); ok {
		query.Set("loaders", `[`+strconv.Quote(platform)+`]`)
	}
	if gameVersion, ok := params.Get("platform-version"); ok {
		query.Set("game_versions", `[`+strconv.Quote(gameVersion)+`]`)
	}
	endpoint := params.Replacer().Replace(s.env.endpoints.ModrinthVersions) + "?" + query.Encode()

	body, err := s.env.query(ctx, endpoint, headers("Accept", "application/json"))
	if err != nil {
		return nil, err
	}
	json, err := parseJSON(endpoint, body)
	if err != nil {
		return nil, err
	}

	version := json.Get("0")
	if !json.IsArray() || !version.IsObject() {
		return nil, notFound("no version in %s", endpoint)
	}
	number := version.Get("version_number")
	if !number.Exists() || !version.Get("files").IsArray() {
		return nil, invalidResponse(endpoint, "version without number or files")
	}

	file, ok := modrinthFile(version.Get("files"))
	if !ok {
		return nil, notFound("version %s has no downloadable file", number.String())
	}

	rel := &ReleaseInfo{
		Version:     number.String(),
		DownloadURL: file.Get("url").String(),
		FileName:    plugin.Name() + "-" + number.String() + ".jar",
	}
	if sha1 := file.Get("hashes.sha1"); sha1.Type == gjson.String && sha1.String() != "" {
		rel.Checksum = &Checksum{Algorithm: AlgorithmSHA1, Value: sha1.String()}
	}
	return rel, nil
}

// modrinthFile returns the file marked primary, or else the first file with a URL
func modrinthFile(files gjson.Result) (gjson.Result, bool) {
	var fallback gjson.Result
	for _, file := range files.Array() {
		if !file.IsObject() || file.Get("url").Type != gjson.String {
			continue
		}
		if file.Get("primary").Bool() {
			return file, true
		}
		if !fallback.Exists() {
			fallback = file
		}
	}
	return fallback, fallback.Exists()
}
