package coordinator

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/go-logr/logr"
	"github.com/gofrs/flock"
	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/stacklok/plugin-updater/internal/discover"
	"github.com/stacklok/plugin-updater/internal/registry"
	"github.com/stacklok/plugin-updater/internal/sources"
	"github.com/stacklok/plugin-updater/internal/status"
	pkgsync "github.com/stacklok/plugin-updater/internal/sync"
)

// LockFileName is the advisory lock taken in the target folder during a run
const LockFileName = ".plugin-updater.lock"

var (
	// ErrLocked is returned when another run holds the target folder lock
	ErrLocked = errors.New("another run is using the target folder")

	// ErrTargetFolder is returned when the target folder is missing or not a directory
	ErrTargetFolder = errors.New("invalid target folder")
)

// Coordinator runs the update pipeline over the configured plugins
type Coordinator interface {
	// Run processes the selected plugins. Failures of single plugins are part
	// of the summary; the returned error means the run itself could not be
	// carried out.
	Run(ctx context.Context, opts RunOptions) (*Summary, error)
}

// RunOptions selects the plugins of a run and how they are processed
type RunOptions struct {
	pkgsync.Options

	// Plugin restricts the run to a single plugin. Empty means all plugins.
	Plugin string
}

// defaultCoordinator is the default implementation of Coordinator
type defaultCoordinator struct {
	manager   pkgsync.Manager
	registry  *registry.Registry
	record    status.VersionRecord
	targetDir string

	workers   int
	discovery bool
}

// Option is a function that configures the coordinator
type Option func(*defaultCoordinator)

// WithWorkers sets the number of plugins processed concurrently
func WithWorkers(workers int) Option {
	return func(c *defaultCoordinator) {
		if workers > 0 {
			c.workers = workers
		}
	}
}

// WithDiscovery enables or disables the inspection of unmanaged jars
func WithDiscovery(enabled bool) Option {
	return func(c *defaultCoordinator) {
		c.discovery = enabled
	}
}

// New creates a new coordinator with injected dependencies
func New(
	manager pkgsync.Manager,
	reg *registry.Registry,
	record status.VersionRecord,
	targetDir string,
	opts ...Option,
) Coordinator {
	c := &defaultCoordinator{
		manager:   manager,
		registry:  reg,
		record:    record,
		targetDir: targetDir,
		workers:   1,
		discovery: true,
	}

	for _, opt := range opts {
		opt(c)
	}

	return c
}

// Run processes the selected plugins
func (c *defaultCoordinator) Run(ctx context.Context, opts RunOptions) (*Summary, error) {
	logger := logr.FromContextOrDiscard(ctx).WithValues("run", uuid.NewString())
	ctx = logr.NewContext(ctx, logger)

	if err := checkTargetFolder(c.targetDir); err != nil {
		return nil, err
	}

	lock := flock.New(filepath.Join(c.targetDir, LockFileName))
	locked, err := lock.TryLock()
	if err != nil {
		return nil, fmt.Errorf("failed to lock target folder %s: %w", c.targetDir, err)
	}
	if !locked {
		return nil, fmt.Errorf("%w: %s", ErrLocked, c.targetDir)
	}
	defer func() {
		if err := lock.Unlock(); err != nil {
			logger.Error(err, "Failed to release target folder lock")
		}
	}()

	plugins, ok := c.selectPlugins(ctx, opts.Plugin)
	if !ok {
		return &Summary{}, nil
	}

	startTime := time.Now()
	logger.Info("Starting update run",
		"plugins", len(plugins),
		"workers", c.workers,
		"check_only", opts.CheckOnly,
		"dont_link", opts.DontLink)

	summary := c.process(ctx, plugins, opts.Options)

	if !opts.CheckOnly && c.record.Changed() {
		if err := c.record.Flush(ctx); err != nil {
			logger.Error(err, "Failed to save installed versions")
			return summary, fmt.Errorf("failed to save installed versions: %w", err)
		}
	}

	logger.Info("Update run finished",
		"duration", time.Since(startTime).String(),
		"updated", summary.Updated,
		"available", summary.Available,
		"up_to_date", summary.UpToDate,
		"failed", len(summary.Failures))

	return summary, nil
}

// selectPlugins returns the plugins of the run. It reports false when the
// requested plugin is unknown.
func (c *defaultCoordinator) selectPlugins(ctx context.Context, name string) ([]*sources.Plugin, bool) {
	logger := logr.FromContextOrDiscard(ctx)

	if name != "" {
		plugin, ok := c.registry.Plugin(name)
		if !ok {
			logger.Info("No plugin with this name is configured", "severity", "warning", "plugin", name)
			return nil, false
		}
		return []*sources.Plugin{plugin}, true
	}

	if c.discovery {
		managed := func(name string) bool {
			_, ok := c.registry.Plugin(name)
			return ok
		}
		suggestions, err := discover.Scan(ctx, c.targetDir, managed)
		if err != nil {
			logger.Error(err, "Failed to check installed jars")
		}
		discover.Report(ctx, suggestions)
	}

	return c.registry.Plugins(), true
}

// process runs the pipeline for every plugin, using up to c.workers goroutines
func (c *defaultCoordinator) process(ctx context.Context, plugins []*sources.Plugin, opts pkgsync.Options) *Summary {
	results := make([]*pkgsync.Result, len(plugins))
	failures := make([]*pkgsync.Error, len(plugins))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(c.workers)
	for i, plugin := range plugins {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				failures[i] = &pkgsync.Error{Err: err, Message: "run cancelled", Stage: pkgsync.StageResolve}
				return nil
			}
			results[i], failures[i] = c.manager.Process(gctx, plugin, opts)
			return nil
		})
	}
	// workers never return errors
	_ = g.Wait()

	summary := &Summary{}
	for i, plugin := range plugins {
		summary.add(plugin.Name(), results[i], failures[i])
	}
	return summary
}

func checkTargetFolder(dir string) error {
	if dir == "" {
		return fmt.Errorf("%w: no target folder specified", ErrTargetFolder)
	}
	info, err := os.Stat(dir)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrTargetFolder, err)
	}
	if !info.IsDir() {
		return fmt.Errorf("%w: %s is not a directory", ErrTargetFolder, dir)
	}
	return nil
}
