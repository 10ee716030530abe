package sync

import (
	"archive/zip"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"path"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/stacklok/plugin-updater/internal/sources"
)

// maxEntrySize bounds the size of an archive entry that is extracted
const maxEntrySize = 512 << 20

// errNoMatchingEntry is returned when an archive holds no installable jar
var errNoMatchingEntry = errors.New("no matching jar in archive")

// pluginDescriptors mark a zip file as a plugin jar
var pluginDescriptors = []string{
	"META-INF/MANIFEST.MF",
	"plugin.yml",
	"paper-plugin.yml",
	"bungee.yml",
	"velocity-plugin.json",
}

// detectContentType classifies the file at p. The extension decides for .jar
// and .zip files, other files are sniffed: a zip archive holding a manifest
// or plugin descriptor is a jar.
func detectContentType(p string) (sources.ContentType, error) {
	switch strings.ToLower(filepath.Ext(p)) {
	case ".jar":
		return sources.ContentJAR, nil
	case ".zip":
		return sources.ContentZIP, nil
	}

	// #nosec G304 -- p is a downloaded file inside the temporary directory
	f, err := os.Open(p)
	if err != nil {
		return sources.ContentUnknown, fmt.Errorf("failed to open %s: %w", p, err)
	}
	defer func() {
		_ = f.Close()
	}()

	head := make([]byte, 512)
	n, err := io.ReadFull(f, head)
	if err != nil && !errors.Is(err, io.ErrUnexpectedEOF) && !errors.Is(err, io.EOF) {
		return sources.ContentUnknown, fmt.Errorf("failed to read %s: %w", p, err)
	}

	contentType := sources.ContentTypeOf(http.DetectContentType(head[:n]))
	if contentType != sources.ContentZIP {
		// octet-stream is what DetectContentType reports for anything binary
		return sources.ContentUnknown, nil
	}

	r, err := zip.OpenReader(p)
	if err != nil {
		return sources.ContentUnknown, nil
	}
	defer func() {
		_ = r.Close()
	}()
	for _, descriptor := range pluginDescriptors {
		if _, err := r.Open(descriptor); err == nil {
			return sources.ContentJAR, nil
		}
	}
	return sources.ContentZIP, nil
}

// selectEntry picks the largest file entry that matches pattern, or a jar
// name without a pattern. Sources and javadoc jars are never selected.
func selectEntry(files []*zip.File, pattern *regexp.Regexp) *zip.File {
	var selected *zip.File
	for _, f := range files {
		if f.FileInfo().IsDir() || !entryMatches(f.Name, pattern) {
			continue
		}
		if selected == nil || f.UncompressedSize64 > selected.UncompressedSize64 {
			selected = f
		}
	}
	return selected
}

func entryMatches(name string, pattern *regexp.Regexp) bool {
	lower := strings.ToLower(name)
	if strings.HasSuffix(lower, "-sources.jar") || strings.HasSuffix(lower, "-javadoc.jar") {
		return false
	}
	if pattern != nil {
		return pattern.MatchString(name)
	}
	return strings.HasSuffix(lower, ".jar")
}

// extractJar extracts the selected entry of the archive at archivePath into
// dir and returns the extracted file path
func extractJar(archivePath, dir string, pattern *regexp.Regexp) (string, error) {
	r, err := zip.OpenReader(archivePath)
	if err != nil {
		return "", fmt.Errorf("failed to open archive %s: %w", archivePath, err)
	}
	defer func() {
		_ = r.Close()
	}()

	entry := selectEntry(r.File, pattern)
	if entry == nil {
		return "", fmt.Errorf("%w %s", errNoMatchingEntry, archivePath)
	}
	if entry.UncompressedSize64 > maxEntrySize {
		return "", fmt.Errorf("archive entry %s exceeds %d bytes", entry.Name, maxEntrySize)
	}

	src, err := entry.Open()
	if err != nil {
		return "", fmt.Errorf("failed to open archive entry %s: %w", entry.Name, err)
	}
	defer func() {
		_ = src.Close()
	}()

	// only the base name is used so entries cannot escape dir. The random
	// infix keeps concurrent extractions of equally named entries apart.
	base := strings.ReplaceAll(path.Base(entry.Name), "*", "_")
	dst, err := os.CreateTemp(dir, "extracted-*-"+base)
	if err != nil {
		return "", fmt.Errorf("failed to create extraction file in %s: %w", dir, err)
	}
	target := dst.Name()

	_, copyErr := io.Copy(dst, io.LimitReader(src, maxEntrySize))
	closeErr := dst.Close()
	if err := errors.Join(copyErr, closeErr); err != nil {
		_ = os.Remove(target)
		return "", fmt.Errorf("failed to extract %s: %w", entry.Name, err)
	}
	return target, nil
}
