package sync

import (
	"bytes"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"

	"github.com/stacklok/plugin-updater/internal/sources"
)

func readLink(t *testing.T, path string) string {
	t.Helper()
	target, err := os.Readlink(path)
	require.NoError(t, err)
	return target
}

func readFile(t *testing.T, path string) string {
	t.Helper()
	data, err := os.ReadFile(path)
	require.NoError(t, err)
	return string(data)
}

func TestProcess_InstallsAndLinks(t *testing.T) {
	t.Parallel()

	f := newFixture(t, map[string]string{"foo": "3"})
	f.source.EXPECT().LatestVersion(gomock.Any(), gomock.Any()).Return("7", nil)
	f.download(t, "Foo-7.jar", writeText(t, "jar-v7"))

	result, cycleErr := f.mgr.Process(t.Context(), f.plugin(), Options{})
	require.Nil(t, cycleErr)

	assert.Equal(t, OutcomeSuccess, result.Outcome)
	assert.Equal(t, ReasonUpdated, result.Reason)
	assert.True(t, result.Changed())
	assert.Equal(t, "3", result.InstalledVersion)
	assert.Equal(t, "7", result.LatestVersion)
	assert.Equal(t, filepath.Join(f.target, "Foo.jar-7"), result.Path)
	assert.Equal(t, filepath.Join(f.target, "Foo.jar"), result.Link)

	assert.Equal(t, "jar-v7", readFile(t, result.Path))
	assert.Equal(t, "Foo.jar-7", readLink(t, result.Link))
	assert.Equal(t, "jar-v7", readFile(t, result.Link))

	v, _ := f.record.Get("Foo")
	assert.Equal(t, "7", v)

	_, err := os.Stat(filepath.Join(f.temp, "Foo-7.jar"))
	assert.True(t, os.IsNotExist(err), "download must be moved, not copied")
}

func TestProcess_ReplacesExistingLink(t *testing.T) {
	t.Parallel()

	f := newFixture(t, map[string]string{"foo": "1.0"})
	require.NoError(t, os.WriteFile(filepath.Join(f.target, "Foo.jar-1.0"), []byte("old"), 0600))
	require.NoError(t, os.Symlink("Foo.jar-1.0", filepath.Join(f.target, "Foo.jar")))

	f.source.EXPECT().LatestVersion(gomock.Any(), gomock.Any()).Return("1.1", nil)
	f.download(t, "Foo.jar", writeText(t, "new"))

	result, cycleErr := f.mgr.Process(t.Context(), f.plugin(), Options{})
	require.Nil(t, cycleErr)

	assert.Equal(t, "Foo.jar-1.1", readLink(t, result.Link))
	assert.Equal(t, "new", readFile(t, result.Link))
	assert.Equal(t, "old", readFile(t, filepath.Join(f.target, "Foo.jar-1.0")), "previous version is kept")
}

func TestProcess_NoUpdate(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name       string
		installed  string
		latest     string
		latestErr  error
		wantReason string
	}{
		{name: "source has nothing", installed: "3", latestErr: sources.ErrNotFound, wantReason: ReasonNoVersion},
		{name: "source failed", installed: "3", latestErr: errors.New("boom"), wantReason: ReasonNoVersion},
		{name: "empty version", installed: "3", latest: "", wantReason: ReasonNoVersion},
		{name: "same build", installed: "7", latest: "7", wantReason: ReasonUpToDate},
		{name: "older build", installed: "12", latest: "4", wantReason: ReasonUpToDate},
		{name: "same tag", installed: "v2.0", latest: "v2.0", wantReason: ReasonUpToDate},
		{name: "same sanitized version", installed: "1.2.0", latest: "1.2.0-SNAPSHOT", wantReason: ReasonUpToDate},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			f := newFixture(t, map[string]string{"foo": tt.installed})
			f.source.EXPECT().LatestVersion(gomock.Any(), gomock.Any()).Return(tt.latest, tt.latestErr)
			f.source.EXPECT().Download(gomock.Any(), gomock.Any()).Times(0)

			result, cycleErr := f.mgr.Process(t.Context(), f.plugin(), Options{})
			require.Nil(t, cycleErr)
			assert.Equal(t, OutcomeNoUpdate, result.Outcome)
			assert.Equal(t, tt.wantReason, result.Reason)
			assert.False(t, result.Changed())

			entries, err := os.ReadDir(f.target)
			require.NoError(t, err)
			assert.Empty(t, entries)
		})
	}
}

func TestProcess_CheckOnly(t *testing.T) {
	t.Parallel()

	f := newFixture(t, map[string]string{"foo": "3"})
	f.source.EXPECT().LatestVersion(gomock.Any(), gomock.Any()).Return("7", nil)
	f.source.EXPECT().DownloadLocation(gomock.Any(), gomock.Any()).Return("https://example.com/Foo-7.jar", nil)
	f.source.EXPECT().Download(gomock.Any(), gomock.Any()).Times(0)

	result, cycleErr := f.mgr.Process(t.Context(), f.plugin(), Options{CheckOnly: true})
	require.Nil(t, cycleErr)
	assert.Equal(t, OutcomeAvailable, result.Outcome)
	assert.Equal(t, "https://example.com/Foo-7.jar", result.DownloadLocation)
	assert.False(t, result.Changed())
	assert.False(t, f.record.Changed())
}

func TestProcess_FirstInstall(t *testing.T) {
	t.Parallel()

	f := newFixture(t, nil)
	f.source.EXPECT().LatestVersion(gomock.Any(), gomock.Any()).Return("build-5", nil)
	f.download(t, "Foo.jar", writeText(t, "jar"))

	result, cycleErr := f.mgr.Process(t.Context(), f.plugin(), Options{})
	require.Nil(t, cycleErr)
	assert.Equal(t, "", result.InstalledVersion)
	assert.Equal(t, filepath.Join(f.target, "Foo.jar-build"), result.Path)

	v, ok := f.record.Get("foo")
	assert.True(t, ok)
	assert.Equal(t, "build-5", v)
}

func TestProcess_DontLink(t *testing.T) {
	t.Parallel()

	f := newFixture(t, map[string]string{"foo": "3"})
	f.source.EXPECT().LatestVersion(gomock.Any(), gomock.Any()).Return("4", nil)
	f.download(t, "Foo.jar", writeText(t, "jar"))

	result, cycleErr := f.mgr.Process(t.Context(), f.plugin(), Options{DontLink: true})
	require.Nil(t, cycleErr)
	assert.Equal(t, OutcomeSuccess, result.Outcome)
	assert.Equal(t, ReasonStoredNotLinked, result.Reason)
	assert.Empty(t, result.Link)

	_, err := os.Lstat(filepath.Join(f.target, "Foo.jar"))
	assert.True(t, os.IsNotExist(err))

	v, _ := f.record.Get("foo")
	assert.Equal(t, "4", v)
}

func TestProcess_VersionedNameEqualsLinkName(t *testing.T) {
	t.Parallel()

	f := newFixture(t, nil)
	f.source.EXPECT().LatestVersion(gomock.Any(), gomock.Any()).Return("2", nil)
	f.download(t, "download.jar", writeText(t, "jar"))

	plugin := sources.NewPlugin("Foo", f.source, "%name%.jar", sources.NewParameters())
	result, cycleErr := f.mgr.Process(t.Context(), plugin, Options{})
	require.Nil(t, cycleErr)
	assert.Empty(t, result.Link)
	assert.Equal(t, "jar", readFile(t, filepath.Join(f.target, "Foo.jar")))
}

func TestProcess_FetchFailure(t *testing.T) {
	t.Parallel()

	downloadErr := errors.New("connection reset")
	f := newFixture(t, map[string]string{"foo": "3"})
	f.source.EXPECT().LatestVersion(gomock.Any(), gomock.Any()).Return("7", nil)
	f.source.EXPECT().Download(gomock.Any(), gomock.Any()).Return("", downloadErr)

	result, cycleErr := f.mgr.Process(t.Context(), f.plugin(), Options{})
	assert.Nil(t, result)
	require.NotNil(t, cycleErr)
	assert.Equal(t, StageFetch, cycleErr.Stage)
	assert.ErrorIs(t, cycleErr, downloadErr)
	assert.False(t, f.record.Changed())
}

func TestProcess_ZipSelectsLargestJar(t *testing.T) {
	t.Parallel()

	twoMB := 2 << 20
	f := newFixture(t, nil)
	f.source.EXPECT().LatestVersion(gomock.Any(), gomock.Any()).Return("1.0", nil)
	f.download(t, "Foo-1.0.zip", func(path string) {
		writeZip(t, path,
			zipEntry{name: "plugin-1.0-sources.jar", content: bytes.Repeat([]byte("s"), twoMB)},
			zipEntry{name: "build/libs/plugin-1.0.jar", content: bytes.Repeat([]byte("p"), twoMB)},
			zipEntry{name: "other.txt", content: bytes.Repeat([]byte("o"), 3*twoMB)},
		)
	})

	result, cycleErr := f.mgr.Process(t.Context(), f.plugin(), Options{})
	require.Nil(t, cycleErr)

	data, err := os.ReadFile(result.Path)
	require.NoError(t, err)
	assert.Len(t, data, twoMB)
	assert.Equal(t, byte('p'), data[0])

	entries, err := os.ReadDir(f.temp)
	require.NoError(t, err)
	assert.Empty(t, entries, "archive and extracted file are cleaned up")
}

func TestProcess_ZipEntryPattern(t *testing.T) {
	t.Parallel()

	f := newFixture(t, nil)
	f.source.EXPECT().LatestVersion(gomock.Any(), gomock.Any()).Return("1.0", nil)
	f.download(t, "bundle.zip", func(path string) {
		writeZip(t, path,
			zipEntry{name: "Foo-Bukkit.jar", content: []byte("bukkit-build-is-larger")},
			zipEntry{name: "Foo-Velocity.jar", content: []byte("velocity")},
		)
	})

	result, cycleErr := f.mgr.Process(t.Context(), f.plugin("zip-entry-pattern", `.*-Velocity\.jar`), Options{})
	require.Nil(t, cycleErr)
	assert.Equal(t, "velocity", readFile(t, result.Path))
}

func TestProcess_ZipWithoutJarFails(t *testing.T) {
	t.Parallel()

	f := newFixture(t, map[string]string{"foo": "0.9"})
	f.source.EXPECT().LatestVersion(gomock.Any(), gomock.Any()).Return("1.0", nil)
	f.download(t, "Foo.zip", func(path string) {
		writeZip(t, path,
			zipEntry{name: "README.md", content: []byte("readme")},
			zipEntry{name: "Foo-1.0-javadoc.jar", content: []byte("docs")},
		)
	})

	result, cycleErr := f.mgr.Process(t.Context(), f.plugin(), Options{})
	assert.Nil(t, result)
	require.NotNil(t, cycleErr)
	assert.Equal(t, StageInspect, cycleErr.Stage)
	assert.Equal(t, reasonNoMatchingEntry, cycleErr.Reason)
	assert.ErrorIs(t, cycleErr, errNoMatchingEntry)

	entries, err := os.ReadDir(f.target)
	require.NoError(t, err)
	assert.Empty(t, entries, "the archive itself is never installed")
	assert.False(t, f.record.Changed())
}

// Content that cannot be classified is installed anyway. This permissive
// behavior is intentional.
func TestProcess_UnknownContentTypeIsInstalledOptimistically(t *testing.T) {
	t.Parallel()

	f := newFixture(t, nil)
	f.source.EXPECT().LatestVersion(gomock.Any(), gomock.Any()).Return("5", nil)
	f.download(t, "Foo-5.bin", writeText(t, "#!/bin/sh\necho not a jar\n"))

	result, cycleErr := f.mgr.Process(t.Context(), f.plugin(), Options{})
	require.Nil(t, cycleErr)
	assert.Equal(t, OutcomeSuccess, result.Outcome)
	assert.Equal(t, "Foo.jar-5", readLink(t, result.Link))
}

func TestProcess_StoreFailure(t *testing.T) {
	t.Parallel()

	f := newFixture(t, nil)
	f.source.EXPECT().LatestVersion(gomock.Any(), gomock.Any()).Return("5", nil)
	f.source.EXPECT().Download(gomock.Any(), gomock.Any()).Return(filepath.Join(f.temp, "vanished.jar"), nil)

	_, cycleErr := f.mgr.Process(t.Context(), f.plugin(), Options{})
	require.NotNil(t, cycleErr)
	assert.Equal(t, StageStore, cycleErr.Stage)
	assert.False(t, f.record.Changed())
}

func TestProcess_VersionOutsideTargetIsRejected(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name   string
		latest string
		format string
	}{
		{name: "parent traversal", latest: "/../../escaped"},
		{name: "nested path", latest: "1.0/evil"},
		{name: "whole name is parent", latest: "..", format: "%version%"},
		{name: "backslash", latest: `..\escaped`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			f := newFixture(t, map[string]string{"foo": "0"})
			f.source.EXPECT().LatestVersion(gomock.Any(), gomock.Any()).Return(tt.latest, nil)
			f.download(t, "Foo.jar", writeText(t, "jar"))

			plugin := sources.NewPlugin("Foo", f.source, tt.format, sources.NewParameters())
			result, cycleErr := f.mgr.Process(t.Context(), plugin, Options{})
			assert.Nil(t, result)
			require.NotNil(t, cycleErr)
			assert.Equal(t, StageStore, cycleErr.Stage)
			assert.Equal(t, reasonInvalidFileName, cycleErr.Reason)
			assert.ErrorIs(t, cycleErr, errUnsafeFileName)
			assert.False(t, f.record.Changed())

			entries, err := os.ReadDir(f.target)
			require.NoError(t, err)
			assert.Empty(t, entries)

			entries, err = os.ReadDir(filepath.Dir(f.target))
			require.NoError(t, err)
			for _, e := range entries {
				assert.NotEqual(t, "escaped", e.Name())
			}

			entries, err = os.ReadDir(f.temp)
			require.NoError(t, err)
			assert.Empty(t, entries, "the download is cleaned up")
		})
	}
}
