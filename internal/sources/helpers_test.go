package sources

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stacklok/plugin-updater/internal/httpclient"
)

// routes serves fixed handlers keyed by escaped request path
type routes map[string]http.HandlerFunc

func (r routes) ServeHTTP(w http.ResponseWriter, req *http.Request) {
	if h, ok := r[req.URL.EscapedPath()]; ok {
		h(w, req)
		return
	}
	http.NotFound(w, req)
}

func jsonBody(body string) http.HandlerFunc {
	return func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(body))
	}
}

func rawBody(body string) http.HandlerFunc {
	return func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(body))
	}
}

func statusOnly(code int) http.HandlerFunc {
	return func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(code)
	}
}

func newTestServer(t *testing.T, handler http.Handler) *httptest.Server {
	t.Helper()
	srv := httptest.NewUnstartedServer(handler)
	srv.Config.SetKeepAlivesEnabled(false)
	srv.Start()
	t.Cleanup(srv.Close)
	return srv
}

func testEndpoints(base string) Endpoints {
	return Endpoints{
		GitHubReleases:   base + "/github/%user%/%repository%/releases",
		GitLabAPI:        base + "/gitlab/",
		HangarVersions:   base + "/hangar/%user%/%project%/versions",
		ModrinthVersions: base + "/modrinth/%project%/version",
		SpigotLatest:     base + "/spigot/%resourceid%/latest",
		SpigotDownload:   base + "/spigot/%resourceid%/%versionid%/download",
		SpigotDetails:    base + "/spigot/%resourceid%",
		BukkitFiles:      base + "/bukkit/files?projectIds=%pluginid%",
	}
}

// newTestEnvironment returns an environment talking to srv and its temp directory
func newTestEnvironment(t *testing.T, srv *httptest.Server) (*Environment, string) {
	t.Helper()
	dir := t.TempDir()
	cache := httpclient.NewQueryCache(httpclient.NewDefaultClient(5*time.Second, "plugin-updater-test"))
	base := "http://invalid.localhost"
	if srv != nil {
		base = srv.URL
	}
	return NewEnvironment(cache, TempDir(dir), WithEndpoints(testEndpoints(base))), dir
}

func testPlugin(name string, source Source, pairs ...string) *Plugin {
	return NewPlugin(name, source, "", NewParameters(pairs...))
}
