package sources

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"github.com/stacklok/plugin-updater/internal/config"
)

// Type identifies the kind of a source
type Type string

// Source types
const (
	TypeFile     Type = config.SourceTypeFile
	TypeDirect   Type = config.SourceTypeDirect
	TypeGitHub   Type = config.SourceTypeGitHub
	TypeGitLab   Type = config.SourceTypeGitLab
	TypeHangar   Type = config.SourceTypeHangar
	TypeModrinth Type = config.SourceTypeModrinth
	TypeSpigot   Type = config.SourceTypeSpigot
	TypeTeamCity Type = config.SourceTypeTeamCity
	TypeBukkit   Type = config.SourceTypeBukkit
)

var (
	// ErrNotFound is returned when a source has no release or artifact for a plugin
	ErrNotFound = errors.New("not found")

	// ErrInvalidResponse is returned when a backend answers with data that cannot be used
	ErrInvalidResponse = errors.New("invalid response")
)

//go:generate mockgen -destination=mocks/mock_source.go -package=mocks -source=types.go Source

// Source resolves and downloads plugin updates from one backend
type Source interface {
	// Name returns the unique name of the source
	Name() string

	// Type returns the kind of the source
	Type() Type

	// RequiredParameters returns the parameters a plugin must define to use this source
	RequiredParameters() []string

	// LatestVersion returns the latest version of the plugin
	LatestVersion(ctx context.Context, plugin *Plugin) (string, error)

	// DownloadLocation returns the URL or path of the latest artifact
	DownloadLocation(ctx context.Context, plugin *Plugin) (string, error)

	// Download fetches the latest artifact into temporary storage and returns its path
	Download(ctx context.Context, plugin *Plugin) (string, error)
}

// TempStorage provides the directory intermediate files are written to
type TempStorage interface {
	TempDir() string
}

// TempDir is a fixed TempStorage directory
type TempDir string

// TempDir returns the directory
func (d TempDir) TempDir() string {
	return string(d)
}

// Checksum is a digest published by a backend for an artifact
type Checksum struct {
	// Algorithm is one of "md5", "sha1" or "sha256"
	Algorithm string
	// Value is the hex encoded digest
	Value string
}

// ReleaseInfo describes a resolved release
type ReleaseInfo struct {
	// Version is the version as reported by the backend
	Version string

	// DownloadURL is where the artifact can be downloaded; empty if unknown
	DownloadURL string

	// FileName is the name used for the downloaded file in temporary storage
	FileName string

	// Checksum is the optional digest the download is verified against
	Checksum *Checksum

	// Headers are sent along with the download request
	Headers http.Header
}

// IntegrityError is returned when a download does not match the published checksum
type IntegrityError struct {
	Algorithm string
	Expected  string
	Actual    string
	URL       string
}

// Error returns the error message
func (e *IntegrityError) Error() string {
	return fmt.Sprintf("%s checksum of %s (%s) does not match provided one (%s)",
		e.Algorithm, e.URL, e.Actual, e.Expected)
}

func notFound(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrNotFound, fmt.Sprintf(format, args...))
}

func invalidResponse(url string, format string, args ...any) error {
	return fmt.Errorf("%w from %s: %s", ErrInvalidResponse, url, fmt.Sprintf(format, args...))
}
