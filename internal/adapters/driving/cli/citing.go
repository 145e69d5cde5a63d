package cli

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/tao-shen/CiteTrack-sub002/internal/core/domain"
)

var (
	citingByDate  bool
	citingLimit   int
	citingOffset  int
	citingRefresh bool
)

var citingCmd = &cobra.Command{
	Use:   "citing <cluster-id>",
	Short: "Show the articles citing a publication",
	Long: `Prints the cached articles citing a publication, fetching the first
pages when nothing is cached yet. Use --refresh to refetch the page even if it
was fetched earlier.`,
	Args: cobra.ExactArgs(1),
	RunE: runCiting,
}

func init() {
	citingCmd.Flags().BoolVar(&citingByDate, "by-date", false, "newest first instead of by relevance")
	citingCmd.Flags().IntVarP(&citingLimit, "limit", "n", 10, "maximum number of articles")
	citingCmd.Flags().IntVar(&citingOffset, "offset", 0, "index of the first article")
	citingCmd.Flags().BoolVar(&citingRefresh, "refresh", false, "refetch the page")
	rootCmd.AddCommand(citingCmd)
}

func runCiting(cmd *cobra.Command, args []string) error {
	if cacheService == nil {
		return errors.New("cache service not configured")
	}

	clusterID := args[0]
	ctx := commandContext(cmd)

	articles, ok := cacheService.GetCitingArticles(clusterID, citingByDate, citingOffset, citingLimit)
	switch {
	case coordinator == nil:
	case citingRefresh:
		ok = coordinator.RefreshCitedByPage(ctx, clusterID, citingByDate, citingOffset, domain.PriorityHigh)
	case !ok && citingOffset == 0:
		ok = coordinator.FetchCitingArticlesWithPrefetch(ctx, clusterID, domain.PriorityHigh)
	case !ok || len(articles) == 0:
		ok = coordinator.FetchCitedByPage(ctx, clusterID, citingByDate, citingOffset, domain.PriorityHigh)
	}
	if !ok {
		return fmt.Errorf("no citing articles available for %s", clusterID)
	}
	articles, _ = cacheService.GetCitingArticles(clusterID, citingByDate, citingOffset, citingLimit)

	if len(articles) == 0 {
		cmd.Println("No citing articles in this range.")
		return nil
	}

	for i, a := range articles {
		cmd.Printf("  %3d. %s\n", citingOffset+i+1, a.Title)
		line := a.AuthorsDisplay()
		if a.Venue != "" {
			line += " - " + a.Venue
		}
		if a.Year != nil {
			line += fmt.Sprintf(", %d", *a.Year)
		}
		cmd.Printf("       %s\n", line)
		if n, known := a.CitationValue(); known {
			cmd.Printf("       cited by %d\n", n)
		}
	}
	return nil
}
