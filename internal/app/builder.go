package app

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/go-logr/logr"
	"github.com/google/uuid"

	"github.com/stacklok/plugin-updater/internal/config"
	"github.com/stacklok/plugin-updater/internal/httpclient"
	"github.com/stacklok/plugin-updater/internal/registry"
	"github.com/stacklok/plugin-updater/internal/sources"
	"github.com/stacklok/plugin-updater/internal/status"
	pkgsync "github.com/stacklok/plugin-updater/internal/sync"
	"github.com/stacklok/plugin-updater/internal/sync/coordinator"
	"github.com/stacklok/plugin-updater/internal/versions"
)

// tempDirName groups the per-run temporary directories
const tempDirName = "plugin-updater"

// UpdaterAppOptions is a function that configures the updater app builder
type UpdaterAppOptions func(*updaterAppConfig) error

// updaterAppConfig collects the settings of NewUpdaterApp.
// It supports dependency injection for testing while providing sensible defaults for production.
type updaterAppConfig struct {
	config *config.Config

	targetDir   string
	tempBaseDir string
	workers     int
	timeout     time.Duration
	discovery   bool

	// Optional component overrides (primarily for testing)
	httpClient  httpclient.Client
	endpoints   *sources.Endpoints
	syncManager pkgsync.Manager
}

func baseConfig(opts ...UpdaterAppOptions) (*updaterAppConfig, error) {
	cfg := &updaterAppConfig{
		tempBaseDir: os.TempDir(),
		discovery:   true,
	}

	// Apply options
	for _, opt := range opts {
		if err := opt(cfg); err != nil {
			return nil, err
		}
	}

	if cfg.config == nil {
		return nil, fmt.Errorf("config cannot be nil")
	}
	if cfg.targetDir == "" {
		return nil, fmt.Errorf("target folder is required")
	}

	return cfg, nil
}

// NewUpdaterApp builds all components of an update run
func NewUpdaterApp(ctx context.Context, opts ...UpdaterAppOptions) (*UpdaterApp, error) {
	logger := logr.FromContextOrDiscard(ctx)

	cfg, err := baseConfig(opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to build base configuration: %w", err)
	}

	tempDir := filepath.Join(cfg.tempBaseDir, tempDirName, uuid.NewString())
	if err := os.MkdirAll(tempDir, 0750); err != nil {
		return nil, fmt.Errorf("failed to create temporary directory: %w", err)
	}

	// Ensure cleanup happens on error
	cleanupNeeded := true
	defer func() {
		if cleanupNeeded {
			_ = os.RemoveAll(tempDir)
		}
	}()

	env := buildEnvironment(cfg, sources.TempDir(tempDir))

	reg, err := registry.New(ctx, cfg.config, env)
	if err != nil {
		return nil, fmt.Errorf("failed to build registry: %w", err)
	}

	components, err := buildSyncComponents(ctx, cfg, reg, sources.TempDir(tempDir))
	if err != nil {
		return nil, fmt.Errorf("failed to build sync components: %w", err)
	}

	logger.V(1).Info("Updater initialized",
		"target_folder", cfg.targetDir,
		"temp_dir", tempDir,
		"sources", len(reg.Sources()),
		"plugins", len(reg.Plugins()))

	cleanupNeeded = false
	return &UpdaterApp{
		config:     cfg.config,
		components: components,
		targetDir:  cfg.targetDir,
		tempDir:    tempDir,
	}, nil
}

// WithConfig sets the configuration
func WithConfig(c *config.Config) UpdaterAppOptions {
	return func(cfg *updaterAppConfig) error {
		cfg.config = c
		return nil
	}
}

// WithTargetFolder sets the folder plugins are installed into
func WithTargetFolder(dir string) UpdaterAppOptions {
	return func(cfg *updaterAppConfig) error {
		if dir == "" {
			return fmt.Errorf("target folder cannot be empty")
		}
		cfg.targetDir = dir
		return nil
	}
}

// WithTempDirectory sets the directory the per-run temporary directory is created in
func WithTempDirectory(dir string) UpdaterAppOptions {
	return func(cfg *updaterAppConfig) error {
		if dir != "" {
			cfg.tempBaseDir = dir
		}
		return nil
	}
}

// WithWorkers overrides the configured number of concurrent workers
func WithWorkers(workers int) UpdaterAppOptions {
	return func(cfg *updaterAppConfig) error {
		if workers < 0 {
			return fmt.Errorf("workers must not be negative, got %d", workers)
		}
		cfg.workers = workers
		return nil
	}
}

// WithTimeout overrides the configured HTTP timeout
func WithTimeout(timeout time.Duration) UpdaterAppOptions {
	return func(cfg *updaterAppConfig) error {
		cfg.timeout = timeout
		return nil
	}
}

// WithDiscovery enables or disables suggestions for unmanaged jars
func WithDiscovery(enabled bool) UpdaterAppOptions {
	return func(cfg *updaterAppConfig) error {
		cfg.discovery = enabled
		return nil
	}
}

// WithHTTPClient allows injecting a custom HTTP client (for testing)
func WithHTTPClient(c httpclient.Client) UpdaterAppOptions {
	return func(cfg *updaterAppConfig) error {
		cfg.httpClient = c
		return nil
	}
}

// WithEndpoints allows overriding the built-in source endpoints (for testing)
func WithEndpoints(endpoints sources.Endpoints) UpdaterAppOptions {
	return func(cfg *updaterAppConfig) error {
		cfg.endpoints = &endpoints
		return nil
	}
}

// WithSyncManager allows injecting a custom sync manager (for testing)
func WithSyncManager(sm pkgsync.Manager) UpdaterAppOptions {
	return func(cfg *updaterAppConfig) error {
		cfg.syncManager = sm
		return nil
	}
}

// buildEnvironment builds the HTTP client, the query cache and the source environment
func buildEnvironment(b *updaterAppConfig, temp sources.TempStorage) *sources.Environment {
	if b.httpClient == nil {
		timeout := b.timeout
		if timeout == 0 {
			timeout = b.config.GetTimeout()
		}
		var name, version string
		if ua := b.config.UserAgent; ua != nil {
			name, version = ua.Name, ua.Version
		}
		b.httpClient = httpclient.NewDefaultClient(timeout, versions.UserAgent(name, version))
	}

	var envOpts []sources.EnvironmentOption
	if b.endpoints != nil {
		envOpts = append(envOpts, sources.WithEndpoints(*b.endpoints))
	}
	return sources.NewEnvironment(httpclient.NewQueryCache(b.httpClient), temp, envOpts...)
}

// buildSyncComponents builds the version record, sync manager and coordinator
func buildSyncComponents(
	_ context.Context,
	b *updaterAppConfig,
	reg *registry.Registry,
	temp sources.TempStorage,
) (*AppComponents, error) {
	record, err := status.LoadFileVersionRecord(filepath.Join(b.targetDir, status.VersionsFileName))
	if err != nil {
		return nil, fmt.Errorf("failed to load installed versions: %w", err)
	}

	if b.syncManager == nil {
		b.syncManager = pkgsync.NewManager(b.targetDir, record, temp)
	}

	workers := b.workers
	if workers == 0 {
		workers = b.config.GetWorkers()
	}

	syncCoordinator := coordinator.New(b.syncManager, reg, record, b.targetDir,
		coordinator.WithWorkers(workers),
		coordinator.WithDiscovery(b.discovery))

	return &AppComponents{
		Registry:    reg,
		Record:      record,
		Manager:     b.syncManager,
		Coordinator: syncCoordinator,
	}, nil
}
