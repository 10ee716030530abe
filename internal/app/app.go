// Package app wires the plugin updater together: configuration, the shared
// HTTP client and query cache, the source registry, the installed-version
// record, the update pipeline and the coordinator.
package app

import (
	"context"
	"fmt"
	"os"

	"github.com/go-logr/logr"

	"github.com/stacklok/plugin-updater/internal/config"
	"github.com/stacklok/plugin-updater/internal/sync/coordinator"
)

// UpdaterApp encapsulates all components of an update run.
// Close must be called to remove the temporary directory.
type UpdaterApp struct {
	config     *config.Config
	components *AppComponents
	targetDir  string
	tempDir    string
}

// Run processes the selected plugins
func (app *UpdaterApp) Run(ctx context.Context, opts coordinator.RunOptions) (*coordinator.Summary, error) {
	return app.components.Coordinator.Run(ctx, opts)
}

// Close removes the temporary directory of the app
func (app *UpdaterApp) Close(ctx context.Context) error {
	if app.tempDir == "" {
		return nil
	}
	logr.FromContextOrDiscard(ctx).V(1).Info("Removing temporary directory", "path", app.tempDir)
	if err := os.RemoveAll(app.tempDir); err != nil {
		return fmt.Errorf("failed to remove temporary directory %s: %w", app.tempDir, err)
	}
	return nil
}

// GetConfig returns the application configuration
func (app *UpdaterApp) GetConfig() *config.Config {
	return app.config
}

// GetComponents returns the wired components
func (app *UpdaterApp) GetComponents() *AppComponents {
	return app.components
}

// GetTempDir returns the temporary directory of this run
func (app *UpdaterApp) GetTempDir() string {
	return app.tempDir
}
