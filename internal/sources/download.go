package sources

import (
	"context"
	"crypto/md5"  //nolint:gosec // backends publish md5 digests
	"crypto/sha1" //nolint:gosec // backends publish sha1 digests
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"hash"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/go-logr/logr"
)

// Checksum algorithms
const (
	AlgorithmMD5    = "md5"
	AlgorithmSHA1   = "sha1"
	AlgorithmSHA256 = "sha256"
)

// download fetches the artifact of rel into temporary storage
func (e *Environment) download(ctx context.Context, rel *ReleaseInfo) (string, error) {
	if rel.DownloadURL == "" {
		return "", notFound("release %s has no download URL", rel.Version)
	}

	logr.FromContextOrDiscard(ctx).V(1).Info("Downloading update file",
		"version", rel.Version, "url", rel.DownloadURL)

	return e.writeTemp(rel.FileName, rel.Checksum, rel.DownloadURL, func(w io.Writer) (int64, error) {
		return e.cache.Client().Download(ctx, rel.DownloadURL, rel.Headers, w)
	})
}

// copyLocal copies a local artifact into temporary storage
func (e *Environment) copyLocal(path, fileName string) (string, error) {
	//nolint:gosec // path comes from the source configuration
	src, err := os.Open(path)
	if err != nil {
		return "", fmt.Errorf("failed to open %s: %w", path, err)
	}
	defer func() {
		_ = src.Close()
	}()

	return e.writeTemp(fileName, nil, path, func(w io.Writer) (int64, error) {
		return io.Copy(w, src)
	})
}

// writeTemp creates fileName in temporary storage, fills it through fill and
// verifies it against checksum. The file is removed on any failure.
func (e *Environment) writeTemp(
	fileName string, checksum *Checksum, origin string, fill func(io.Writer) (int64, error),
) (string, error) {
	dir, err := e.tempDir()
	if err != nil {
		return "", err
	}

	var digest hash.Hash
	if checksum != nil {
		digest, err = newDigest(checksum.Algorithm)
		if err != nil {
			return "", err
		}
	}

	target := filepath.Join(dir, safeFileName(fileName))
	//nolint:gosec // target is inside the temporary directory
	f, err := os.Create(target)
	if err != nil {
		return "", fmt.Errorf("failed to create %s: %w", target, err)
	}

	var w io.Writer = f
	if digest != nil {
		w = io.MultiWriter(f, digest)
	}

	n, err := fill(w)
	closeErr := f.Close()

	fail := func(err error) (string, error) {
		_ = os.Remove(target)
		return "", err
	}

	switch {
	case err != nil:
		return fail(fmt.Errorf("failed to download %s: %w", origin, err))
	case closeErr != nil:
		return fail(fmt.Errorf("failed to write %s: %w", target, closeErr))
	case n == 0:
		return fail(fmt.Errorf("download of %s is empty", origin))
	}

	if digest != nil {
		actual := hex.EncodeToString(digest.Sum(nil))
		if !strings.EqualFold(actual, strings.TrimSpace(checksum.Value)) {
			return fail(&IntegrityError{
				Algorithm: checksum.Algorithm,
				Expected:  checksum.Value,
				Actual:    actual,
				URL:       origin,
			})
		}
	}

	return target, nil
}

func newDigest(algorithm string) (hash.Hash, error) {
	switch strings.ToLower(algorithm) {
	case AlgorithmMD5:
		return md5.New(), nil //nolint:gosec // integrity check only
	case AlgorithmSHA1:
		return sha1.New(), nil //nolint:gosec // integrity check only
	case AlgorithmSHA256:
		return sha256.New(), nil
	default:
		return nil, fmt.Errorf("unsupported checksum algorithm %q", algorithm)
	}
}

// safeFileName reduces name to a single path element
func safeFileName(name string) string {
	name = filepath.Base(strings.ReplaceAll(name, "\\", "/"))
	if name == "." || name == "/" || name == ".." || name == "" {
		return "download"
	}
	return name
}

// urlFileName returns the last path element of a URL, without query or fragment
func urlFileName(rawURL string) string {
	if i := strings.IndexAny(rawURL, "?#"); i >= 0 {
		rawURL = rawURL[:i]
	}
	if i := strings.LastIndexByte(rawURL, '/'); i >= 0 {
		rawURL = rawURL[i+1:]
	}
	return rawURL
}
