package app

import (
	"fmt"

	"github.com/go-logr/logr"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	updater "github.com/stacklok/plugin-updater/internal/app"
	"github.com/stacklok/plugin-updater/internal/config"
	pkgsync "github.com/stacklok/plugin-updater/internal/sync"
	"github.com/stacklok/plugin-updater/internal/sync/coordinator"
)

// newRunCmd creates the run command, or the check command when checkOnly is set
func newRunCmd(v *viper.Viper, checkOnly bool) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "run",
		Short: "Update the configured plugins",
		Long: `Update the configured plugins.

For every plugin the latest version is resolved from its source. A newer
version is downloaded into the target folder as a versioned file and the
stable <name>.jar link is pointed at it. Installed versions are recorded in
versions.yaml in the target folder.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			// run and check share the viper keys, bind the flags of the executing command
			if err := v.BindPFlags(cmd.Flags()); err != nil {
				return fmt.Errorf("failed to bind flags: %w", err)
			}
			return runUpdate(cmd, v, checkOnly)
		},
	}
	if checkOnly {
		cmd.Use = "check"
		cmd.Short = "Report available plugin updates without installing them"
		cmd.Long = `Report available plugin updates without installing them.

Versions are resolved and compared like the run command does, and the
download location of every newer version is logged. Nothing is downloaded
and the recorded versions are not changed.`
	}

	cmd.Flags().String(flagConfig, "", "Path to the configuration file (YAML or TOML, required)")
	cmd.Flags().StringP(flagTargetFolder, "t", "", "Folder the plugins are installed into (required)")
	cmd.Flags().StringP(flagPlugin, "p", "", "Only process the plugin with this name")
	cmd.Flags().BoolP(flagDontLink, "d", false, "Store new versions without re-pointing the stable link")
	cmd.Flags().String(flagTempDir, "", "Directory for temporary downloads (defaults to the system temp directory)")
	cmd.Flags().Int(flagWorkers, 0, "Number of plugins processed concurrently (overrides the configuration)")
	if !checkOnly {
		cmd.Flags().BoolP(flagCheckOnly, "c", false, "Only report available updates, like the check command")
	}

	return cmd
}

func runUpdate(cmd *cobra.Command, v *viper.Viper, checkOnly bool) error {
	ctx := cmd.Context()
	logger := logr.FromContextOrDiscard(ctx)

	configPath := v.GetString(flagConfig)
	if configPath == "" {
		return fmt.Errorf("--%s is required", flagConfig)
	}
	targetFolder := v.GetString(flagTargetFolder)
	if targetFolder == "" {
		return fmt.Errorf("--%s is required", flagTargetFolder)
	}

	cfg, err := config.LoadConfig(config.WithConfigPath(configPath))
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}
	logger.V(1).Info("Loaded configuration",
		"path", configPath,
		"sources", len(cfg.Sources),
		"plugins", len(cfg.Plugins))

	opts := coordinator.RunOptions{
		Options: pkgsync.Options{
			CheckOnly: checkOnly || v.GetBool(flagCheckOnly),
			DontLink:  v.GetBool(flagDontLink),
		},
		Plugin: v.GetString(flagPlugin),
	}

	app, err := updater.NewUpdaterApp(ctx,
		updater.WithConfig(cfg),
		updater.WithTargetFolder(targetFolder),
		updater.WithTempDirectory(v.GetString(flagTempDir)),
		updater.WithWorkers(v.GetInt(flagWorkers)),
	)
	if err != nil {
		return err
	}
	defer func() {
		if err := app.Close(ctx); err != nil {
			logger.Error(err, "Failed to clean up")
		}
	}()

	summary, err := app.Run(ctx, opts)
	if err != nil {
		return err
	}

	for plugin, failure := range summary.Failures {
		logger.Info("Plugin was not updated", "severity", "warning",
			"plugin", plugin, "stage", failure.Stage, "reason", failure.Reason, "error", failure.Message)
	}
	return nil
}
