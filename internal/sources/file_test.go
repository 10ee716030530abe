package sources

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/stacklok/plugin-updater/internal/config"
)

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0750))
	require.NoError(t, os.WriteFile(path, []byte(content), 0600))
}

func newFileSourceFixture(t *testing.T) (*FileSource, string, string) {
	t.Helper()
	env, tempDir := newTestEnvironment(t, nil)
	root := t.TempDir()
	src := NewFileSource("local", &config.FileConfig{
		LatestVersion: filepath.Join(root, "%name%", "version.txt"),
		Download:      filepath.Join(root, "%name%", "%name%.jar"),
	}, []string{"name"}, env)
	return src, root, tempDir
}

func TestFileSource_LatestVersion(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		setup   func(t *testing.T, root string)
		want    string
		wantErr error
	}{
		{
			name: "first line",
			setup: func(t *testing.T, root string) {
				t.Helper()
				writeFile(t, filepath.Join(root, "Foo", "version.txt"), "7\nignored\n")
			},
			want: "7",
		},
		{
			name: "crlf line",
			setup: func(t *testing.T, root string) {
				t.Helper()
				writeFile(t, filepath.Join(root, "Foo", "version.txt"), "1.2.3\r\n")
			},
			want: "1.2.3",
		},
		{
			name: "symlink to directory",
			setup: func(t *testing.T, root string) {
				t.Helper()
				require.NoError(t, os.MkdirAll(filepath.Join(root, "Foo", "builds", "4.5"), 0750))
				require.NoError(t, os.Symlink(filepath.Join("builds", "4.5"), filepath.Join(root, "Foo", "version.txt")))
			},
			want: "4.5",
		},
		{
			name:    "missing file",
			setup:   func(*testing.T, string) {},
			wantErr: ErrNotFound,
		},
		{
			name: "empty file",
			setup: func(t *testing.T, root string) {
				t.Helper()
				writeFile(t, filepath.Join(root, "Foo", "version.txt"), "")
			},
			wantErr: ErrNotFound,
		},
		{
			name: "empty first line",
			setup: func(t *testing.T, root string) {
				t.Helper()
				writeFile(t, filepath.Join(root, "Foo", "version.txt"), "\n7\n")
			},
			wantErr: ErrNotFound,
		},
		{
			name: "directory",
			setup: func(t *testing.T, root string) {
				t.Helper()
				require.NoError(t, os.MkdirAll(filepath.Join(root, "Foo", "version.txt"), 0750))
			},
			wantErr: ErrNotFound,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			src, root, _ := newFileSourceFixture(t)
			tt.setup(t, root)

			got, err := src.LatestVersion(t.Context(), testPlugin("Foo", src))
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestFileSource_Download(t *testing.T) {
	t.Parallel()

	src, root, tempDir := newFileSourceFixture(t)
	writeFile(t, filepath.Join(root, "Foo", "version.txt"), "7\n")
	writeFile(t, filepath.Join(root, "Foo", "Foo.jar"), "jar-v7")
	plugin := testPlugin("Foo", src)

	location, err := src.DownloadLocation(t.Context(), plugin)
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(root, "Foo", "Foo.jar"), location)

	path, err := src.Download(t.Context(), plugin)
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(tempDir, "Foo.jar-7-Foo.jar"), path)

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "jar-v7", string(data))
}

func TestFileSource_DownloadMissingArtifact(t *testing.T) {
	t.Parallel()

	src, root, _ := newFileSourceFixture(t)
	writeFile(t, filepath.Join(root, "Foo", "version.txt"), "7\n")
	plugin := testPlugin("Foo", src)

	_, err := src.DownloadLocation(t.Context(), plugin)
	assert.ErrorIs(t, err, ErrNotFound)

	_, err = src.Download(t.Context(), plugin)
	assert.Error(t, err)
}

func TestFileSource_VersionedArtifactPath(t *testing.T) {
	t.Parallel()

	env, _ := newTestEnvironment(t, nil)
	root := t.TempDir()
	src := NewFileSource("builds", &config.FileConfig{
		LatestVersion: filepath.Join(root, "latest"),
		Download:      filepath.Join(root, "%version%", "%name%.jar"),
	}, nil, env)
	writeFile(t, filepath.Join(root, "latest"), "12\n")
	writeFile(t, filepath.Join(root, "12", "Foo.jar"), "jar")

	location, err := src.DownloadLocation(t.Context(), testPlugin("Foo", src))
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(root, "12", "Foo.jar"), location)
}
