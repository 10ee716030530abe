package sync

import (
	"context"

	"github.com/stacklok/plugin-updater/internal/sources"
)

// Outcome is the terminal state of a plugin update cycle
type Outcome string

const (
	// OutcomeSuccess means a new version was stored (and linked)
	OutcomeSuccess Outcome = "Success"

	// OutcomeNoUpdate means the source has no version newer than the installed one
	OutcomeNoUpdate Outcome = "NoUpdate"

	// OutcomeAvailable means a newer version exists but was not fetched (check-only mode)
	OutcomeAvailable Outcome = "Available"

	// OutcomeFailed means the cycle was aborted; see Error
	OutcomeFailed Outcome = "Failed"
)

// Stages of the update cycle
const (
	StageResolve = "Resolve"
	StageGate    = "Gate"
	StageFetch   = "Fetch"
	StageInspect = "Inspect"
	StageStore   = "Store"
	StageLink    = "Link"
)

// Result reasons
const (
	ReasonNoVersion       = "SourceHasNoVersion"
	ReasonUpToDate        = "UpToDate"
	ReasonUpdateAvailable = "UpdateAvailable"
	ReasonUpdated         = "Updated"
	ReasonStoredNotLinked = "StoredNotLinked"
)

// Failure reasons
const (
	reasonDownloadFailed     = "DownloadFailed"
	reasonInspectFailed      = "InspectFailed"
	reasonNoMatchingEntry    = "NoMatchingArchiveEntry"
	reasonStoreFailed        = "StoreFailed"
	reasonInvalidFileName    = "InvalidFileName"
	reasonLinkFailed         = "LinkFailed"
	reasonLocationUnresolved = "DownloadLocationUnresolved"
)

// ParamZipEntryPattern selects the archive entry to install from a zip download
const ParamZipEntryPattern = "zip-entry-pattern"

// Options control a single update cycle
type Options struct {
	// CheckOnly stops after the gate and reports the download location
	CheckOnly bool

	// DontLink stores the new version without re-pointing the stable link
	DontLink bool
}

// Result describes a finished update cycle
type Result struct {
	Plugin           string
	Outcome          Outcome
	Reason           string
	InstalledVersion string
	LatestVersion    string

	// DownloadLocation is set in check-only mode
	DownloadLocation string

	// Path is the versioned file in the target folder
	Path string

	// Link is the stable link, empty when linking was skipped
	Link string
}

// Changed reports whether the cycle installed a new version
func (r *Result) Changed() bool {
	return r != nil && r.Outcome == OutcomeSuccess
}

// Error represents a failed update cycle
type Error struct {
	Err     error
	Message string
	Stage   string
	Reason  string
}

func (e *Error) Error() string {
	return e.Message
}

func (e *Error) Unwrap() error {
	return e.Err
}

// Manager runs update cycles
//
//go:generate mockgen -destination=mocks/mock_manager.go -package=mocks -source=types.go Manager
type Manager interface {
	// Process runs the update cycle of plugin. Either the result or the error is nil.
	Process(ctx context.Context, plugin *sources.Plugin, opts Options) (*Result, *Error)
}
