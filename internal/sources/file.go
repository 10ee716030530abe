package sources

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/stacklok/plugin-updater/internal/config"
)

// FileSource resolves plugins from the local filesystem
type FileSource struct {
	name          string
	latestVersion string
	download      string
	required      []string
	env           *Environment
}

var _ Source = (*FileSource)(nil)

// NewFileSource creates a file source from its configuration
func NewFileSource(name string, cfg *config.FileConfig, required []string, env *Environment) *FileSource {
	return &FileSource{
		name:          name,
		latestVersion: cfg.LatestVersion,
		download:      cfg.Download,
		required:      required,
		env:           env,
	}
}

// Name returns the configured source name
func (s *FileSource) Name() string { return s.name }

// Type returns TypeFile
func (*FileSource) Type() Type { return TypeFile }

// RequiredParameters returns the configured required parameters
func (s *FileSource) RequiredParameters() []string { return s.required }

// LatestVersion reads the version from the configured path. A symlink to a
// directory yields the directory name, a regular file its first line.
func (s *FileSource) LatestVersion(_ context.Context, plugin *Plugin) (string, error) {
	path := plugin.Parameters().Replacer().Replace(s.latestVersion)

	info, err := os.Lstat(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return "", notFound("version file %s does not exist", path)
		}
		return "", fmt.Errorf("failed to stat %s: %w", path, err)
	}

	if info.Mode()&os.ModeSymlink != 0 {
		target, err := os.Readlink(path)
		if err != nil {
			return "", fmt.Errorf("failed to read link %s: %w", path, err)
		}
		if !filepath.IsAbs(target) {
			target = filepath.Join(filepath.Dir(path), target)
		}
		if targetInfo, err := os.Stat(target); err == nil && targetInfo.IsDir() {
			return filepath.Base(target), nil
		}
	}

	if st, err := os.Stat(path); err != nil || !st.Mode().IsRegular() {
		return "", notFound("%s is not a version file", path)
	}
	return readFirstLine(path)
}

// DownloadLocation returns the artifact path if it exists
func (s *FileSource) DownloadLocation(ctx context.Context, plugin *Plugin) (string, error) {
	path := s.artifactPath(ctx, plugin)
	if _, err := os.Stat(path); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return "", notFound("artifact %s does not exist", path)
		}
		return "", fmt.Errorf("failed to stat %s: %w", path, err)
	}
	return path, nil
}

// Download copies the artifact into temporary storage
func (s *FileSource) Download(ctx context.Context, plugin *Plugin) (string, error) {
	version, err := s.LatestVersion(ctx, plugin)
	if err != nil {
		return "", err
	}

	path := s.artifactPath(ctx, plugin)
	return s.env.copyLocal(path, plugin.FileName(version)+"-"+filepath.Base(path))
}

func (s *FileSource) artifactPath(ctx context.Context, plugin *Plugin) string {
	params := plugin.Parameters()
	if strings.Contains(s.download, "%version%") {
		if version, err := s.LatestVersion(ctx, plugin); err == nil {
			params = params.WithDefault("version", version)
		}
	}
	return params.Replacer().Replace(s.download)
}

func readFirstLine(path string) (string, error) {
	//nolint:gosec // path comes from the source configuration
	f, err := os.Open(path)
	if err != nil {
		return "", fmt.Errorf("failed to open %s: %w", path, err)
	}
	defer func() {
		_ = f.Close()
	}()

	scanner := bufio.NewScanner(f)
	if !scanner.Scan() {
		if err := scanner.Err(); err != nil {
			return "", fmt.Errorf("failed to read %s: %w", path, err)
		}
		return "", notFound("version file %s is empty", path)
	}
	line := strings.TrimSuffix(scanner.Text(), "\r")
	if line == "" {
		return "", notFound("version file %s starts with an empty line", path)
	}
	return line, nil
}
