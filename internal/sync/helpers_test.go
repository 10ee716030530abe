package sync

import (
	"archive/zip"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"

	"github.com/stacklok/plugin-updater/internal/sources"
	"github.com/stacklok/plugin-updater/internal/sources/mocks"
	"github.com/stacklok/plugin-updater/internal/status"
)

type zipEntry struct {
	name    string
	content []byte
}

func writeZip(t *testing.T, path string, entries ...zipEntry) {
	t.Helper()
	f, err := os.Create(path)
	require.NoError(t, err)
	w := zip.NewWriter(f)
	for _, e := range entries {
		ew, err := w.Create(e.name)
		require.NoError(t, err)
		_, err = ew.Write(e.content)
		require.NoError(t, err)
	}
	require.NoError(t, w.Close())
	require.NoError(t, f.Close())
}

type fixture struct {
	target string
	temp   string
	record *status.FileVersionRecord
	source *mocks.MockSource
	mgr    Manager
}

func newFixture(t *testing.T, installed map[string]string) *fixture {
	t.Helper()
	ctrl := gomock.NewController(t)

	f := &fixture{
		target: t.TempDir(),
		temp:   t.TempDir(),
		source: mocks.NewMockSource(ctrl),
	}
	f.source.EXPECT().Name().Return("mock").AnyTimes()

	// the record lives outside target so tests can assert on target contents
	path := filepath.Join(t.TempDir(), status.VersionsFileName)
	if len(installed) > 0 {
		var doc strings.Builder
		doc.WriteString("plugins:\n")
		for name, version := range installed {
			fmt.Fprintf(&doc, "  %q: %q\n", name, version)
		}
		require.NoError(t, os.WriteFile(path, []byte(doc.String()), 0600))
	}

	record, err := status.LoadFileVersionRecord(path)
	require.NoError(t, err)
	require.False(t, record.Changed(), "a freshly loaded record is unchanged")
	f.record = record
	f.mgr = NewManager(f.target, record, sources.TempDir(f.temp))
	return f
}

func (f *fixture) plugin(pairs ...string) *sources.Plugin {
	return sources.NewPlugin("Foo", f.source, "", sources.NewParameters(pairs...))
}

// download makes the mock source deliver a file named name with content
func (f *fixture) download(t *testing.T, name string, write func(path string)) {
	t.Helper()
	path := filepath.Join(f.temp, name)
	f.source.EXPECT().Download(gomock.Any(), gomock.Any()).DoAndReturn(
		func(_ any, _ *sources.Plugin) (string, error) {
			write(path)
			return path, nil
		})
}

func writeText(t *testing.T, content string) func(string) {
	t.Helper()
	return func(path string) {
		require.NoError(t, os.WriteFile(path, []byte(content), 0600))
	}
}
