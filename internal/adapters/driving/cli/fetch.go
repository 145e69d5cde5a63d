package cli

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"
)

var (
	fetchRefresh bool
	fetchNoWait  bool
)

var fetchCmd = &cobra.Command{
	Use:   "fetch <scholar-id>",
	Short: "Fetch a scholar profile and publications",
	Long: `Queues the profile summary and the first pages of publications under
every sort mode, then waits for the queue to drain.

Pages fetched earlier in this session are skipped unless --refresh is given.`,
	Args: cobra.ExactArgs(1),
	RunE: runFetch,
}

func init() {
	fetchCmd.Flags().BoolVar(&fetchRefresh, "refresh", false, "refetch pages fetched before")
	fetchCmd.Flags().BoolVar(&fetchNoWait, "no-wait", false, "queue the fetch and return immediately")
	rootCmd.AddCommand(fetchCmd)
}

func runFetch(cmd *cobra.Command, args []string) error {
	if coordinator == nil {
		return errors.New("fetch coordinator not configured")
	}

	ctx := commandContext(cmd)
	scholarID := args[0]

	plan := coordinator.FetchComprehensive
	if fetchRefresh {
		plan = coordinator.RefreshComprehensive
	}
	n, err := plan(ctx, scholarID)
	if err != nil {
		return fmt.Errorf("fetch failed: %w", err)
	}
	cmd.Printf("Queued %d fetches for %s.\n", n, scholarID)

	if fetchNoWait {
		return nil
	}

	before := coordinator.Stats()
	if err := drainWithProgress(ctx, cmd, coordinator); err != nil {
		return fmt.Errorf("waiting for fetches: %w", err)
	}
	after := coordinator.Stats()

	completed := after.Completed - before.Completed
	failed := after.Failed - before.Failed
	cmd.Printf("Done: %d fetched, %d failed, %d already cached.\n",
		completed, failed, after.Skipped-before.Skipped)

	if cacheService != nil {
		if info, ok := cacheService.GetBasicInfo(scholarID); ok {
			cmd.Printf("%s: %d citations\n", info.Name, info.Citations)
		}
	}
	if failed > 0 && completed == 0 {
		return fmt.Errorf("all %d fetches for %s failed", failed, scholarID)
	}
	return nil
}
