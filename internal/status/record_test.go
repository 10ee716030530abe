package status

import (
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFileVersionRecord_SaveAndLoad(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), VersionsFileName)

	record, err := LoadFileVersionRecord(path)
	require.NoError(t, err)
	assert.False(t, record.Changed())

	_, ok := record.Get("Foo")
	assert.False(t, ok)

	record.Set("Foo", "3")
	record.Set("Bar", "1.2.0")
	assert.True(t, record.Changed())

	require.NoError(t, record.Flush(t.Context()))
	assert.False(t, record.Changed())

	_, err = os.Stat(path + ".tmp")
	assert.True(t, os.IsNotExist(err), "temporary file must be renamed")

	loaded, err := LoadFileVersionRecord(path)
	require.NoError(t, err)
	assert.Equal(t, map[string]string{"foo": "3", "bar": "1.2.0"}, loaded.Snapshot())

	v, ok := loaded.Get("FOO")
	assert.True(t, ok)
	assert.Equal(t, "3", v)
}

func TestFileVersionRecord_SetSameVersion(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), VersionsFileName)
	require.NoError(t, os.WriteFile(path, []byte("plugins:\n  foo: \"7\"\n"), 0600))

	record, err := LoadFileVersionRecord(path)
	require.NoError(t, err)

	record.Set("Foo", "7")
	assert.False(t, record.Changed())

	record.Set("Foo", "8")
	assert.True(t, record.Changed())
}

func TestLoadFileVersionRecord(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		content string
		want    map[string]string
		wantErr bool
	}{
		{name: "empty file", content: "", want: map[string]string{}},
		{name: "numeric versions", content: "plugins:\n  Foo: 12\n  bar: 1.5\n", want: map[string]string{"foo": "12", "bar": "1.5"}},
		{name: "keys case-folded", content: "plugins:\n  MyPlugin: v2\n", want: map[string]string{"myplugin": "v2"}},
		{name: "malformed", content: "plugins: [", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			path := filepath.Join(t.TempDir(), VersionsFileName)
			require.NoError(t, os.WriteFile(path, []byte(tt.content), 0600))

			record, err := LoadFileVersionRecord(path)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, record.Snapshot())
		})
	}
}

func TestFileVersionRecord_FoldsKeys(t *testing.T) {
	t.Parallel()

	record, err := LoadFileVersionRecord(filepath.Join(t.TempDir(), VersionsFileName))
	require.NoError(t, err)

	// strings.ToLower keeps these apart, case folding does not
	record.Set("Aς", "1")
	v, ok := record.Get("AΣ")
	assert.True(t, ok)
	assert.Equal(t, "1", v)
	assert.Len(t, record.Snapshot(), 1)
}

func TestFileVersionRecord_ConcurrentSet(t *testing.T) {
	t.Parallel()

	record, err := LoadFileVersionRecord(filepath.Join(t.TempDir(), VersionsFileName))
	require.NoError(t, err)

	var wg sync.WaitGroup
	for i := range 20 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			record.Set(fmt.Sprintf("plugin-%d", i), "1")
		}()
	}
	wg.Wait()

	assert.Len(t, record.Snapshot(), 20)
	require.NoError(t, record.Flush(t.Context()))
}
