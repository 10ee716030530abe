// Package app provides the command line interface of the plugin updater.
package app

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/go-logr/logr"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/stacklok/plugin-updater/internal/config"
	"github.com/stacklok/plugin-updater/internal/versions"
)

// Flag names, also used as viper keys
const (
	flagConfig       = "config"
	flagTargetFolder = "target-folder"
	flagPlugin       = "plugin"
	flagCheckOnly    = "check-only"
	flagDontLink     = "dont-link"
	flagTempDir      = "temp-dir"
	flagWorkers      = "workers"
	flagDebug        = "debug"
	flagLogLevel     = "log-level"
)

// NewRootCmd creates a new root command for the plugin updater
func NewRootCmd() *cobra.Command {
	v := viper.New()
	v.SetEnvPrefix(config.EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()

	var syncLogger func()
	rootCmd := &cobra.Command{
		Use:               "plugin-updater",
		DisableAutoGenTag: true,
		SilenceUsage:      true,
		Short:             "Keeps server plugin jars up to date",
		Long: `plugin-updater checks the configured sources for new plugin versions, stores
new versions next to the old ones in the target folder and points a stable
<name>.jar link at the newest one.`,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			logger, sync, err := newLogger(v.GetBool(flagDebug), v.GetString(flagLogLevel))
			if err != nil {
				return err
			}
			syncLogger = sync
			cmd.SetContext(logr.NewContext(cmd.Context(), logger))
			return nil
		},
		PersistentPostRun: func(_ *cobra.Command, _ []string) {
			if syncLogger != nil {
				syncLogger()
			}
		},
		RunE: func(cmd *cobra.Command, _ []string) error {
			// If no subcommand is provided, print help
			return cmd.Help()
		},
	}

	rootCmd.PersistentFlags().Bool(flagDebug, false, "Enable debug logging")
	rootCmd.PersistentFlags().String(flagLogLevel, "", "Log level (debug, info, warn, error)")
	if err := v.BindPFlags(rootCmd.PersistentFlags()); err != nil {
		panic(fmt.Sprintf("failed to bind flags: %v", err))
	}

	rootCmd.AddCommand(newRunCmd(v, false))
	rootCmd.AddCommand(newRunCmd(v, true))
	rootCmd.AddCommand(newVersionCmd())

	return rootCmd
}

func newVersionCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		RunE: func(cmd *cobra.Command, _ []string) error {
			info := versions.GetVersionInfo()
			format, err := cmd.Flags().GetString("format")
			if err != nil {
				return fmt.Errorf("error retrieving format flag: %w", err)
			}

			if format == "json" {
				output, err := json.MarshalIndent(info, "", "  ")
				if err != nil {
					return fmt.Errorf("error formatting version info as JSON: %w", err)
				}
				_, _ = fmt.Fprintln(cmd.OutOrStdout(), string(output))
				return nil
			}

			_, _ = fmt.Fprintf(cmd.OutOrStdout(), "plugin-updater %s (commit %s, built %s, %s, %s)\n",
				info.Version, info.Commit, info.BuildDate, info.GoVersion, info.Platform)
			return nil
		},
	}
	cmd.Flags().String("format", "", "Output format (json)")
	return cmd
}
