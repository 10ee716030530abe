package sync

import (
	"archive/zip"
	"bytes"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	gosync "sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/stacklok/plugin-updater/internal/sources"
)

func TestDetectContentType(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	jarWithoutExt := filepath.Join(dir, "download")
	writeZip(t, jarWithoutExt,
		zipEntry{name: "META-INF/MANIFEST.MF", content: []byte("Manifest-Version: 1.0\n")},
		zipEntry{name: "com/acme/Foo.class", content: []byte{0xca, 0xfe, 0xba, 0xbe}},
	)
	pluginYml := filepath.Join(dir, "bundle-with-descriptor")
	writeZip(t, pluginYml, zipEntry{name: "plugin.yml", content: []byte("name: Foo\n")})
	zipWithoutExt := filepath.Join(dir, "bundle")
	writeZip(t, zipWithoutExt, zipEntry{name: "Foo.jar", content: []byte("jar")})
	text := filepath.Join(dir, "notes")
	require.NoError(t, os.WriteFile(text, []byte("<html>rate limited</html>"), 0600))
	empty := filepath.Join(dir, "empty")
	require.NoError(t, os.WriteFile(empty, nil, 0600))

	tests := []struct {
		name string
		path string
		want sources.ContentType
	}{
		{name: "jar extension", path: filepath.Join(dir, "missing.JAR"), want: sources.ContentJAR},
		{name: "zip extension", path: filepath.Join(dir, "missing.zip"), want: sources.ContentZIP},
		{name: "sniffed jar", path: jarWithoutExt, want: sources.ContentJAR},
		{name: "sniffed plugin descriptor", path: pluginYml, want: sources.ContentJAR},
		{name: "sniffed zip", path: zipWithoutExt, want: sources.ContentZIP},
		{name: "html", path: text, want: sources.ContentUnknown},
		{name: "empty", path: empty, want: sources.ContentUnknown},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			got, err := detectContentType(tt.path)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestDetectContentType_MissingFile(t *testing.T) {
	t.Parallel()

	_, err := detectContentType(filepath.Join(t.TempDir(), "missing"))
	assert.Error(t, err)
}

func TestSelectEntry(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	w := zip.NewWriter(&buf)
	for _, e := range []zipEntry{
		{name: "libs/", content: nil},
		{name: "libs/Foo-1.0.jar", content: bytes.Repeat([]byte("a"), 100)},
		{name: "libs/Foo-1.0-all.jar", content: bytes.Repeat([]byte("b"), 300)},
		{name: "libs/Foo-1.0-sources.jar", content: bytes.Repeat([]byte("c"), 900)},
		{name: "libs/Foo-1.0-javadoc.JAR", content: bytes.Repeat([]byte("d"), 900)},
		{name: "README.txt", content: bytes.Repeat([]byte("e"), 1000)},
	} {
		ew, err := w.Create(e.name)
		require.NoError(t, err)
		_, err = ew.Write(e.content)
		require.NoError(t, err)
	}
	require.NoError(t, w.Close())

	r, err := zip.NewReader(bytes.NewReader(buf.Bytes()), int64(buf.Len()))
	require.NoError(t, err)

	tests := []struct {
		name    string
		pattern *regexp.Regexp
		want    string
	}{
		{name: "largest jar", want: "libs/Foo-1.0-all.jar"},
		{name: "pattern", pattern: regexp.MustCompile(`^libs/Foo-1\.0\.jar$`), want: "libs/Foo-1.0.jar"},
		{name: "pattern may select non jar", pattern: regexp.MustCompile(`^.*\.txt$`), want: "README.txt"},
		{name: "pattern never selects sources", pattern: regexp.MustCompile(`^.*-sources\.jar$`)},
		{name: "no match", pattern: regexp.MustCompile(`^nothing$`)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			got := selectEntry(r.File, tt.pattern)
			if tt.want == "" {
				assert.Nil(t, got)
				return
			}
			require.NotNil(t, got)
			assert.Equal(t, tt.want, got.Name)
		})
	}
}

func TestExtractJar(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	archive := filepath.Join(dir, "bundle.zip")
	writeZip(t, archive,
		zipEntry{name: "build/libs/Foo.jar", content: []byte("payload")},
	)

	extracted, err := extractJar(archive, dir, nil)
	require.NoError(t, err)
	assert.Equal(t, dir, filepath.Dir(extracted))
	assert.True(t, strings.HasPrefix(filepath.Base(extracted), "extracted-"))
	assert.True(t, strings.HasSuffix(extracted, "-Foo.jar"))

	data, err := os.ReadFile(extracted)
	require.NoError(t, err)
	assert.Equal(t, "payload", string(data))
}

func TestExtractJar_SameEntryNameDoesNotCollide(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	alpha := filepath.Join(dir, "alpha.zip")
	beta := filepath.Join(dir, "beta.zip")
	writeZip(t, alpha, zipEntry{name: "plugin.jar", content: []byte("ALPHA")})
	writeZip(t, beta, zipEntry{name: "plugin.jar", content: []byte("BETA")})

	var wg gosync.WaitGroup
	paths := make([]string, 2)
	errs := make([]error, 2)
	for i, archive := range []string{alpha, beta} {
		wg.Add(1)
		go func() {
			defer wg.Done()
			paths[i], errs[i] = extractJar(archive, dir, nil)
		}()
	}
	wg.Wait()

	require.NoError(t, errs[0])
	require.NoError(t, errs[1])
	assert.NotEqual(t, paths[0], paths[1])

	for i, want := range []string{"ALPHA", "BETA"} {
		data, err := os.ReadFile(paths[i])
		require.NoError(t, err)
		assert.Equal(t, want, string(data))
	}
}

func TestExtractJar_NotAnArchive(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	archive := filepath.Join(dir, "broken.zip")
	require.NoError(t, os.WriteFile(archive, []byte("not a zip"), 0600))

	_, err := extractJar(archive, dir, nil)
	require.Error(t, err)
	assert.NotErrorIs(t, err, errNoMatchingEntry)
}
