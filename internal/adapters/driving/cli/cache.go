package cli

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"
)

var cacheCmd = &cobra.Command{
	Use:   "cache",
	Short: "Inspect and clear the cache",
}

var cacheStatsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Show cache and fetch statistics",
	RunE:  runCacheStats,
}

var cacheClearCmd = &cobra.Command{
	Use:   "clear [entity-id]",
	Short: "Clear cached data",
	Long: `Clears everything cached for one scholar or publication. Without an
argument the whole cache is cleared, including the persisted copy.`,
	Args: cobra.MaximumNArgs(1),
	RunE: runCacheClear,
}

var cacheHistoryCmd = &cobra.Command{
	Use:   "history <entity-id>",
	Short: "List the snapshots ingested for a scholar or publication",
	Args:  cobra.ExactArgs(1),
	RunE:  runCacheHistory,
}

func init() {
	cacheCmd.AddCommand(cacheStatsCmd)
	cacheCmd.AddCommand(cacheClearCmd)
	cacheCmd.AddCommand(cacheHistoryCmd)
	rootCmd.AddCommand(cacheCmd)
}

func runCacheStats(cmd *cobra.Command, _ []string) error {
	if cacheService == nil {
		return errors.New("cache service not configured")
	}

	stats := cacheService.Stats()
	cmd.Println("[Cache]")
	cmd.Printf("  Scholars:        %d\n", stats.Scholars)
	cmd.Printf("  Publications:    %d\n", stats.Publications)
	cmd.Printf("  Citing articles: %d\n", stats.CitingArticles)
	cmd.Printf("  Snapshots:       %d\n", stats.Snapshots)

	if coordinator != nil {
		q := coordinator.Stats()
		cmd.Println()
		cmd.Println("[Fetch queue]")
		cmd.Printf("  Pending: %d\n", q.Pending)
		cmd.Printf("  Running: %t\n", q.Running)
		cmd.Printf("  Fetches: %s, %d skipped\n", q.Summary(), q.Skipped)
		for kind, n := range q.ByKind {
			cmd.Printf("    %s: %d\n", kind, n)
		}
	}
	return nil
}

func runCacheClear(cmd *cobra.Command, args []string) error {
	if cacheService == nil {
		return errors.New("cache service not configured")
	}

	ctx := commandContext(cmd)
	if len(args) == 1 {
		if err := cacheService.ClearCache(ctx, args[0]); err != nil {
			return fmt.Errorf("clearing %s: %w", args[0], err)
		}
		cmd.Printf("Cleared cached data for %s.\n", args[0])
		return nil
	}

	if err := cacheService.ClearAllCache(ctx); err != nil {
		return fmt.Errorf("clearing cache: %w", err)
	}
	if coordinator != nil {
		coordinator.ResetFetchStats()
	}
	cmd.Println("Cache cleared.")
	return nil
}

func runCacheHistory(cmd *cobra.Command, args []string) error {
	if cacheService == nil {
		return errors.New("cache service not configured")
	}

	history := cacheService.History(args[0])
	if len(history) == 0 {
		cmd.Printf("No snapshots for %s.\n", args[0])
		return nil
	}

	for _, snap := range history {
		what := fmt.Sprintf("%d publications (%s @%d)", len(snap.Publications), snap.SortMode, snap.PageOffset)
		if snap.Citing != nil {
			what = fmt.Sprintf("%d citing articles (by date: %t @%d)",
				len(snap.Citing.Articles), snap.Citing.SortByDate, snap.Citing.Offset)
		}
		cmd.Printf("  %s  %-16s %s\n", snap.Timestamp.Local().Format("2006-01-02 15:04:05"), snap.Source, what)
	}
	return nil
}
