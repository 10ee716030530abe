package sources

import (
	"context"
	"net/http"
)

// BukkitSource resolves plugins from the CurseForge servermods API.
//
// Parameters: pluginid (required) and apikey.
type BukkitSource struct {
	env *Environment
}

var _ Source = (*BukkitSource)(nil)

// NewBukkitSource creates the Bukkit source
func NewBukkitSource(env *Environment) *BukkitSource {
	return &BukkitSource{env: env}
}

// Name returns "bukkit"
func (*BukkitSource) Name() string { return string(TypeBukkit) }

// Type returns TypeBukkit
func (*BukkitSource) Type() Type { return TypeBukkit }

// RequiredParameters returns the parameters every Bukkit plugin needs
func (*BukkitSource) RequiredParameters() []string { return []string{"pluginid"} }

// LatestVersion returns the name of the newest file
func (s *BukkitSource) LatestVersion(ctx context.Context, plugin *Plugin) (string, error) {
	rel, err := s.release(ctx, plugin)
	if err != nil {
		return "", err
	}
	return rel.Version, nil
}

// DownloadLocation returns the URL of the newest file
func (s *BukkitSource) DownloadLocation(ctx context.Context, plugin *Plugin) (string, error) {
	rel, err := s.release(ctx, plugin)
	if err != nil {
		return "", err
	}
	return rel.DownloadURL, nil
}

// Download fetches the newest file and verifies its MD5 hash
func (s *BukkitSource) Download(ctx context.Context, plugin *Plugin) (string, error) {
	rel, err := s.release(ctx, plugin)
	if err != nil {
		return "", err
	}
	return s.env.download(ctx, rel)
}

func (s *BukkitSource) release(ctx context.Context, plugin *Plugin) (*ReleaseInfo, error) {
	params := plugin.Parameters()
	var h http.Header
	if key, ok := params.Get("apikey"); ok {
		h = headers("X-API-Key", key)
	}

	url := params.Replacer().Replace(s.env.endpoints.BukkitFiles)
	body, err := s.env.query(ctx, url, h)
	if err != nil {
		return nil, err
	}
	json, err := parseJSON(url, body)
	if err != nil {
		return nil, err
	}

	files := json.Array()
	if len(files) == 0 {
		return nil, notFound("no files in %s", url)
	}
	// the API lists files oldest first
	latest := files[len(files)-1]
	if !latest.Get("name").Exists() || !latest.Get("fileUrl").Exists() {
		return nil, invalidResponse(url, "latest file has no name or fileUrl")
	}

	rel := &ReleaseInfo{
		Version:     latest.Get("name").String(),
		DownloadURL: latest.Get("fileUrl").String(),
		FileName:    plugin.Name() + "-" + latest.Get("fileName").String(),
		Headers:     h,
	}
	if md5 := latest.Get("md5").String(); md5 != "" {
		rel.Checksum = &Checksum{Algorithm: AlgorithmMD5, Value: md5}
	}
	return rel, nil
}
