package app

import (
	"github.com/stacklok/plugin-updater/internal/registry"
	"github.com/stacklok/plugin-updater/internal/status"
	pkgsync "github.com/stacklok/plugin-updater/internal/sync"
	"github.com/stacklok/plugin-updater/internal/sync/coordinator"
)

// AppComponents groups all application components
//
//nolint:revive // This name is fine
type AppComponents struct {
	// Registry holds the sources and the managed plugins
	Registry *registry.Registry

	// Record stores the installed plugin versions
	Record status.VersionRecord

	// Manager runs the update cycle of a single plugin
	Manager pkgsync.Manager

	// Coordinator runs the update cycle over the selected plugins
	Coordinator coordinator.Coordinator
}
