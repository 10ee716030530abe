package sync

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"regexp"

	"github.com/go-logr/logr"

	"github.com/stacklok/plugin-updater/internal/sources"
	"github.com/stacklok/plugin-updater/internal/status"
	"github.com/stacklok/plugin-updater/internal/versions"
)

// defaultManager is the default implementation of Manager
type defaultManager struct {
	targetDir string
	record    status.VersionRecord
	temp      sources.TempStorage
}

// NewManager creates a Manager installing into targetDir. Installed versions
// are read from and written to record; intermediate files go to temp.
func NewManager(targetDir string, record status.VersionRecord, temp sources.TempStorage) Manager {
	return &defaultManager{
		targetDir: targetDir,
		record:    record,
		temp:      temp,
	}
}

// Process runs the update cycle of plugin
func (m *defaultManager) Process(ctx context.Context, plugin *sources.Plugin, opts Options) (*Result, *Error) {
	src := plugin.Source()
	logger := logr.FromContextOrDiscard(ctx).WithValues("plugin", plugin.Name(), "source", src.Name())
	ctx = logr.NewContext(ctx, logger)

	installed, _ := m.record.Get(plugin.Name())
	result := &Result{Plugin: plugin.Name(), InstalledVersion: installed}

	// Resolve
	latest, err := src.LatestVersion(ctx, plugin)
	if err != nil || latest == "" {
		if err != nil && !errors.Is(err, sources.ErrNotFound) {
			logger.Info("Source has no version", "severity", "warning", "error", err.Error())
		} else {
			logger.Info("Source has no version")
		}
		result.Outcome = OutcomeNoUpdate
		result.Reason = ReasonNoVersion
		return result, nil
	}
	result.LatestVersion = latest

	// Gate. An identical version string is never an update, even when the
	// novelty rules cannot order it.
	if installed == latest || !versions.IsNewer(installed, latest) {
		logger.V(1).Info("Plugin is up to date", "version", installed)
		result.Outcome = OutcomeNoUpdate
		result.Reason = ReasonUpToDate
		return result, nil
	}

	if opts.CheckOnly {
		location, err := src.DownloadLocation(ctx, plugin)
		if err != nil {
			return nil, m.fail(ctx, StageGate, reasonLocationUnresolved, err,
				"Update %s found but no download location: %v", latest, err)
		}
		logger.Info("Update available", "installed", installed, "latest", latest, "location", location)
		result.Outcome = OutcomeAvailable
		result.Reason = ReasonUpdateAvailable
		result.DownloadLocation = location
		return result, nil
	}

	logger.Info("Updating plugin", "installed", installed, "latest", latest)

	// Fetch
	downloaded, err := src.Download(ctx, plugin)
	if err != nil {
		return nil, m.fail(ctx, StageFetch, reasonDownloadFailed, err, "Download failed: %v", err)
	}
	defer removeTemp(ctx, downloaded)

	// Inspect
	artifact, cycleErr := m.inspect(ctx, plugin, downloaded)
	if cycleErr != nil {
		return nil, cycleErr
	}
	if artifact != downloaded {
		defer removeTemp(ctx, artifact)
	}

	// Store
	fileName := plugin.FileName(latest)
	if err := checkFileName(fileName); err != nil {
		return nil, m.fail(ctx, StageStore, reasonInvalidFileName, err,
			"Refusing to store version %s: %v", latest, err)
	}
	versioned := filepath.Join(m.targetDir, fileName)
	if err := moveFile(artifact, versioned); err != nil {
		return nil, m.fail(ctx, StageStore, reasonStoreFailed, err,
			"Failed to move %s to %s: %v", artifact, versioned, err)
	}
	logger.V(1).Info("Stored new version", "path", versioned)
	result.Path = versioned

	// Link
	if opts.DontLink {
		m.record.Set(plugin.Name(), latest)
		logger.Info("Stored update without linking it", "version", latest, "path", versioned)
		result.Outcome = OutcomeSuccess
		result.Reason = ReasonStoredNotLinked
		return result, nil
	}

	linkPath := filepath.Join(m.targetDir, plugin.Name()+".jar")
	if linkPath != versioned {
		kind, err := pointLink(linkPath, versioned)
		if err != nil {
			return nil, m.fail(ctx, StageLink, reasonLinkFailed, err, "Failed to link %s: %v", linkPath, err)
		}
		if kind == linkHard {
			logger.Info("Symbolic links are not supported, created a hard link",
				"severity", "warning", "link", linkPath)
		}
		result.Link = linkPath
	}

	m.record.Set(plugin.Name(), latest)
	logger.Info("Plugin updated", "version", latest, "path", versioned)
	result.Outcome = OutcomeSuccess
	result.Reason = ReasonUpdated
	return result, nil
}

// inspect returns the jar to install for the downloaded file
func (m *defaultManager) inspect(ctx context.Context, plugin *sources.Plugin, downloaded string) (string, *Error) {
	logger := logr.FromContextOrDiscard(ctx)

	contentType, err := detectContentType(downloaded)
	if err != nil {
		return "", m.fail(ctx, StageInspect, reasonInspectFailed, err, "Failed to inspect %s: %v", downloaded, err)
	}

	switch contentType {
	case sources.ContentJAR:
		return downloaded, nil
	case sources.ContentZIP:
	default:
		// unknown content is installed as is
		logger.Info("Unable to detect the content type of the download, installing it as is",
			"severity", "warning", "path", downloaded)
		return downloaded, nil
	}

	re, err := entryPattern(plugin)
	if err != nil {
		logger.Error(err, "Ignoring invalid archive entry pattern", "parameter", ParamZipEntryPattern)
	}

	dir, err := m.tempDir()
	if err != nil {
		return "", m.fail(ctx, StageInspect, reasonInspectFailed, err, "%v", err)
	}

	extracted, err := extractJar(downloaded, dir, re)
	if err != nil {
		reason := reasonInspectFailed
		if errors.Is(err, errNoMatchingEntry) {
			reason = reasonNoMatchingEntry
		}
		return "", m.fail(ctx, StageInspect, reason, err, "Failed to unpack %s: %v", downloaded, err)
	}
	logger.V(1).Info("Extracted jar from archive", "archive", downloaded, "path", extracted)
	return extracted, nil
}

func (m *defaultManager) tempDir() (string, error) {
	dir := m.temp.TempDir()
	if err := os.MkdirAll(dir, 0750); err != nil {
		return "", fmt.Errorf("failed to create temporary directory %s: %w", dir, err)
	}
	return dir, nil
}

// fail logs and builds the error of an aborted cycle
func (*defaultManager) fail(ctx context.Context, stage, reason string, err error, format string, args ...any) *Error {
	message := fmt.Sprintf(format, args...)
	logr.FromContextOrDiscard(ctx).Error(err, message, "stage", stage, "reason", reason)
	return &Error{
		Err:     err,
		Message: message,
		Stage:   stage,
		Reason:  reason,
	}
}

func entryPattern(plugin *sources.Plugin) (*regexp.Regexp, error) {
	pattern, ok := plugin.Parameter(ParamZipEntryPattern)
	if !ok || pattern == "" {
		return nil, nil
	}
	return sources.CompileFullMatch(pattern)
}

func removeTemp(ctx context.Context, path string) {
	if err := os.Remove(path); err != nil && !errors.Is(err, os.ErrNotExist) {
		logr.FromContextOrDiscard(ctx).V(1).Info("Failed to remove temporary file", "path", path, "error", err.Error())
	}
}
