package cli

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"
)

var scholarCmd = &cobra.Command{
	Use:   "scholar",
	Short: "Manage tracked scholars",
	Long: `Tracked scholars are refreshed by 'citetrack refresh' and in the
background by 'citetrack watch'.`,
}

var scholarAddCmd = &cobra.Command{
	Use:   "add <scholar-id>",
	Short: "Track a scholar",
	Args:  cobra.ExactArgs(1),
	RunE:  runScholarAdd,
}

var scholarRemoveCmd = &cobra.Command{
	Use:     "remove <scholar-id>",
	Aliases: []string{"rm"},
	Short:   "Stop tracking a scholar",
	Args:    cobra.ExactArgs(1),
	RunE:    runScholarRemove,
}

var scholarListCmd = &cobra.Command{
	Use:     "list",
	Aliases: []string{"ls"},
	Short:   "List tracked scholars",
	RunE:    runScholarList,
}

func init() {
	scholarCmd.AddCommand(scholarAddCmd)
	scholarCmd.AddCommand(scholarRemoveCmd)
	scholarCmd.AddCommand(scholarListCmd)
	rootCmd.AddCommand(scholarCmd)
}

func runScholarAdd(cmd *cobra.Command, args []string) error {
	if settingsService == nil {
		return errors.New("settings service not configured")
	}
	if err := settingsService.TrackScholar(args[0]); err != nil {
		return fmt.Errorf("tracking %s: %w", args[0], err)
	}
	cmd.Printf("Tracking %s.\n", args[0])
	return nil
}

func runScholarRemove(cmd *cobra.Command, args []string) error {
	if settingsService == nil {
		return errors.New("settings service not configured")
	}
	if err := settingsService.UntrackScholar(args[0]); err != nil {
		return fmt.Errorf("untracking %s: %w", args[0], err)
	}
	cmd.Printf("Stopped tracking %s.\n", args[0])
	return nil
}

func runScholarList(cmd *cobra.Command, _ []string) error {
	if settingsService == nil {
		return errors.New("settings service not configured")
	}

	ids := settingsService.TrackedScholars()
	if len(ids) == 0 {
		cmd.Println("No tracked scholars. Add one with 'citetrack scholar add <scholar-id>'.")
		return nil
	}

	for _, id := range ids {
		if cacheService != nil {
			if info, ok := cacheService.GetBasicInfo(id); ok {
				cmd.Printf("  %-14s %s (%d citations)\n", id, info.Name, info.Citations)
				continue
			}
		}
		cmd.Printf("  %-14s (not cached)\n", id)
	}
	return nil
}
