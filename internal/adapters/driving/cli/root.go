// Package cli implements the citetrack command line.
package cli

import (
	"context"

	"github.com/spf13/cobra"

	"github.com/tao-shen/CiteTrack-sub002/internal/core/ports/driving"
	"github.com/tao-shen/CiteTrack-sub002/internal/logger"
)

// version is set at build time with -ldflags.
var version = "dev"

// Driving ports used by the commands. Set by the composition root.
var (
	cacheService    driving.CacheService
	coordinator     driving.FetchCoordinator
	settingsService driving.SettingsService
	updater         driving.Updater
	scheduler       driving.Scheduler
)

var verbose bool

var rootCmd = &cobra.Command{
	Use:   "citetrack",
	Short: "Track citations of scholar profiles",
	Long: `CiteTrack fetches scholar profiles and the articles citing their
publications, keeps them in a shared cache and reports new citations.`,
	SilenceUsage: true,
	PersistentPreRun: func(_ *cobra.Command, _ []string) {
		logger.SetVerbose(verbose)
	},
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "print debug logs to stderr")
}

// Services holds the driving ports the commands operate on.
type Services struct {
	Cache       driving.CacheService
	Coordinator driving.FetchCoordinator
	Settings    driving.SettingsService
	Updater     driving.Updater
	Scheduler   driving.Scheduler
}

// SetServices installs the services used by the commands.
func SetServices(s Services) {
	cacheService = s.Cache
	coordinator = s.Coordinator
	settingsService = s.Settings
	updater = s.Updater
	scheduler = s.Scheduler
}

// SetVersion sets the version reported by the version command.
func SetVersion(v string) {
	if v != "" {
		version = v
	}
}

// Execute runs the root command.
func Execute(ctx context.Context) error {
	return rootCmd.ExecuteContext(ctx)
}

// commandContext returns the command's context, or Background when the
// command was executed without one.
func commandContext(cmd *cobra.Command) context.Context {
	if ctx := cmd.Context(); ctx != nil {
		return ctx
	}
	return context.Background()
}
