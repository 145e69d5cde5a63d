package cli

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/tao-shen/CiteTrack-sub002/internal/core/domain"
)

var (
	showSort   string
	showLimit  int
	showOffset int
	showFetch  bool
)

var showCmd = &cobra.Command{
	Use:   "show <scholar-id>",
	Short: "Show a scholar's cached profile and publications",
	Long: `Prints the cached profile summary and a window of publications.

With --fetch, missing data is fetched first: the requested sort's first page
immediately and the other sort modes in the background.`,
	Args: cobra.ExactArgs(1),
	RunE: runShow,
}

func init() {
	showCmd.Flags().StringVarP(&showSort, "sort", "s", string(domain.DefaultSortMode), "sort mode: total, pubdate or title")
	showCmd.Flags().IntVarP(&showLimit, "limit", "n", 20, "maximum number of publications")
	showCmd.Flags().IntVar(&showOffset, "offset", 0, "index of the first publication")
	showCmd.Flags().BoolVar(&showFetch, "fetch", false, "fetch when nothing is cached")
	rootCmd.AddCommand(showCmd)
}

func runShow(cmd *cobra.Command, args []string) error {
	if cacheService == nil {
		return errors.New("cache service not configured")
	}

	scholarID := args[0]
	sort := domain.SortMode(showSort).OrDefault()
	if !sort.IsValid() {
		return fmt.Errorf("unknown sort mode %q", showSort)
	}

	pubs, ok := cacheService.GetPublications(scholarID, sort, showOffset, showLimit)
	if !ok || cacheService.NeedsFetchMore(scholarID, sort, showOffset) {
		if showFetch && coordinator != nil {
			ctx := commandContext(cmd)
			if !coordinator.FetchPublicationsWithPrefetch(ctx, scholarID, sort, domain.PriorityHigh, false) {
				return fmt.Errorf("could not fetch publications for %s", scholarID)
			}
			if showOffset > 0 {
				pages := showOffset/pageSizeHint + 1
				coordinator.PrefetchOtherPages(ctx, scholarID, sort, pages)
			}
			pubs, ok = cacheService.GetPublications(scholarID, sort, showOffset, showLimit)
		}
	}

	if info, found := cacheService.GetBasicInfo(scholarID); found {
		printBasicInfo(cmd, info)
	} else {
		cmd.Printf("%s (profile not cached)\n", scholarID)
	}
	cmd.Println()

	if !ok {
		cmd.Printf("No publications cached for sort %q. Run 'citetrack fetch %s' or use --fetch.\n", sort, scholarID)
		return nil
	}
	if len(pubs) == 0 {
		cmd.Println("No publications in this range.")
		return nil
	}

	cmd.Printf("Publications (%s):\n", sort)
	for i, p := range pubs {
		year := "----"
		if p.Year != nil {
			year = fmt.Sprintf("%d", *p.Year)
		}
		cites := "-"
		if n, known := p.CitationValue(); known {
			cites = fmt.Sprintf("%d", n)
		}
		cmd.Printf("  %3d. [%s] %5s  %s\n", showOffset+i+1, year, cites, p.Title)
		if p.ClusterID != "" {
			cmd.Printf("       cluster %s\n", p.ClusterID)
		}
	}
	return nil
}

// pageSizeHint is the profile page size used to turn an offset into a page
// count.
const pageSizeHint = 100

func printBasicInfo(cmd *cobra.Command, info *domain.BasicInfo) {
	cmd.Printf("%s (%s)\n", info.Name, info.ScholarID)
	cmd.Printf("  Citations: %d\n", info.Citations)
	if info.HIndex != nil {
		cmd.Printf("  h-index:   %d\n", *info.HIndex)
	}
	if info.I10Index != nil {
		cmd.Printf("  i10-index: %d\n", *info.I10Index)
	}
	if !info.LastUpdated.IsZero() {
		cmd.Printf("  Updated:   %s\n", info.LastUpdated.Local().Format("2006-01-02 15:04"))
	}
}
