package sync

import (
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
)

// errUnsafeFileName is returned for a versioned file name that would not
// stay inside the target folder
var errUnsafeFileName = errors.New("file name is not a plain file name")

// checkFileName rejects names that are empty, contain a path separator or
// are a relative path element. Versions come from remote backends and end
// up in the versioned file name.
func checkFileName(name string) error {
	if name == "" || name == "." || name == ".." ||
		strings.ContainsAny(name, `/\`) || filepath.Base(name) != name {
		return fmt.Errorf("%w: %q", errUnsafeFileName, name)
	}
	return nil
}

// moveFile moves src to dst, replacing dst. When a rename is impossible, for
// example across filesystems, the file is copied and src removed.
func moveFile(src, dst string) error {
	if err := os.Rename(src, dst); err == nil {
		return nil
	}

	if err := copyFile(src, dst); err != nil {
		return err
	}
	if err := os.Remove(src); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("failed to remove %s after copying it: %w", src, err)
	}
	return nil
}

func copyFile(src, dst string) error {
	// #nosec G304 -- src is a file in the temporary directory
	in, err := os.Open(src)
	if err != nil {
		return fmt.Errorf("failed to open %s: %w", src, err)
	}
	defer func() {
		_ = in.Close()
	}()

	tmp := dst + ".part"
	// #nosec G304 -- tmp is next to the versioned file in the target folder
	out, err := os.OpenFile(tmp, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, 0644)
	if err != nil {
		return fmt.Errorf("failed to create %s: %w", tmp, err)
	}

	_, copyErr := io.Copy(out, in)
	closeErr := out.Close()
	if err := errors.Join(copyErr, closeErr); err != nil {
		_ = os.Remove(tmp)
		return fmt.Errorf("failed to copy %s to %s: %w", src, dst, err)
	}

	if err := os.Rename(tmp, dst); err != nil {
		_ = os.Remove(tmp)
		return fmt.Errorf("failed to rename %s to %s: %w", tmp, dst, err)
	}
	return nil
}

// linkKind tells how the stable link was created
type linkKind string

const (
	linkSymbolic linkKind = "symlink"
	linkHard     linkKind = "hardlink"
)

// pointLink replaces linkPath with a link to target. target must be in the
// same directory; the symbolic link is relative. A hard link is created when
// symbolic links are not supported.
func pointLink(linkPath, target string) (linkKind, error) {
	if _, err := os.Lstat(linkPath); err == nil {
		if err := os.Remove(linkPath); err != nil {
			return "", fmt.Errorf("failed to remove existing link %s: %w", linkPath, err)
		}
	} else if !errors.Is(err, fs.ErrNotExist) {
		return "", fmt.Errorf("failed to stat %s: %w", linkPath, err)
	}

	symErr := os.Symlink(filepath.Base(target), linkPath)
	if symErr == nil {
		return linkSymbolic, nil
	}

	if err := os.Link(target, linkPath); err != nil {
		return "", fmt.Errorf("failed to link %s to %s: %w", linkPath, target, errors.Join(symErr, err))
	}
	return linkHard, nil
}
