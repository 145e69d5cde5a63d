package cli

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"
)

var refreshCmd = &cobra.Command{
	Use:   "refresh",
	Short: "Refresh every tracked scholar once",
	Long: `Refetches the profile and first publication pages of every tracked
scholar and waits for the fetches to finish. New citations found along the way
are reported through the configured notification channel.`,
	RunE: runRefresh,
}

var watchCmd = &cobra.Command{
	Use:   "watch",
	Short: "Run background refresh until interrupted",
	Long: `Runs the scheduler in the foreground: tracked scholars are refreshed
and the cache is compacted on the configured intervals. New citations are
reported through the configured notification channel. Stop with Ctrl-C.`,
	RunE: runWatch,
}

func init() {
	rootCmd.AddCommand(refreshCmd)
	rootCmd.AddCommand(watchCmd)
}

func runRefresh(cmd *cobra.Command, _ []string) error {
	if updater == nil {
		return errors.New("updater not configured")
	}

	cmd.Println("Refreshing tracked scholars...")
	completed, failed, err := updater.RefreshAll(commandContext(cmd))
	cmd.Printf("Done: %d fetched, %d failed.\n", completed, failed)
	if err != nil {
		return fmt.Errorf("refresh failed: %w", err)
	}
	return nil
}

func runWatch(cmd *cobra.Command, _ []string) error {
	if scheduler == nil {
		return errors.New("scheduler not configured")
	}

	ctx := commandContext(cmd)
	cmd.Println("Watching tracked scholars. Press Ctrl-C to stop.")
	err := scheduler.Start(ctx)
	if stopErr := scheduler.Stop(); stopErr != nil {
		cmd.PrintErrf("scheduler stop error: %v\n", stopErr)
	}
	if ctx.Err() != nil && errors.Is(err, ctx.Err()) {
		cmd.Println("Stopped.")
		return nil
	}
	return err
}
