package driving

import (
	"context"

	"github.com/tao-shen/CiteTrack-sub002/internal/core/domain"
)

// FetchCoordinator schedules fetches from the external source.
// Tasks are deduplicated by identity and executed one at a time.
type FetchCoordinator interface {
	// AddTask enqueues a fetch. Returns false if the task was dropped as a
	// duplicate or because the cache already satisfies it.
	AddTask(task domain.FetchTaskType, priority domain.Priority) (bool, error)

	// ProcessQueue drains the queue. Returns immediately if a drain is
	// already running.
	ProcessQueue(ctx context.Context)

	// ProcessTask executes one queued task out of order and reports whether
	// the data it targets is now cached.
	ProcessTask(ctx context.Context, task domain.FetchTaskType) bool

	// Drain blocks until the queue is empty and no drain is running.
	Drain(ctx context.Context) error

	// FetchProfilePage fetches one publications page.
	FetchProfilePage(ctx context.Context, scholarID string, sort domain.SortMode, offset int, priority domain.Priority) bool

	// FetchCitedByPage fetches one page of citing articles.
	FetchCitedByPage(ctx context.Context, publicationID string, sortByDate bool, offset int, priority domain.Priority) bool

	// RefreshCitedByPage refetches a page of citing articles even if it was
	// fetched before.
	RefreshCitedByPage(ctx context.Context, publicationID string, sortByDate bool, offset int, priority domain.Priority) bool

	// FetchComprehensive plans basic info and every sort mode's pages for a
	// scholar and starts draining in the background.
	// Returns the number of tasks enqueued.
	FetchComprehensive(ctx context.Context, scholarID string) (int, error)

	// RefreshComprehensive is FetchComprehensive with basic info and first
	// pages refetched even if they were fetched before.
	RefreshComprehensive(ctx context.Context, scholarID string) (int, error)

	// FetchPublicationsWithPrefetch fetches the first page of sort now and
	// queues the other sort modes for later unless onlyFirstPage is set.
	FetchPublicationsWithPrefetch(
		ctx context.Context,
		scholarID string,
		sort domain.SortMode,
		priority domain.Priority,
		onlyFirstPage bool,
	) bool

	// FetchCitingArticlesWithPrefetch fetches the first page of citing
	// articles under both orders and queues their second pages.
	FetchCitingArticlesWithPrefetch(ctx context.Context, publicationID string, priority domain.Priority) bool

	// PrefetchOtherPages queues pages 1..pages-1 of a sort mode at low priority.
	PrefetchOtherPages(ctx context.Context, scholarID string, sort domain.SortMode, pages int) int

	// ClearQueue drops all pending tasks and returns how many were dropped.
	ClearQueue() int

	// Stats returns queue counters and fetch statistics.
	Stats() QueueStats

	// ResetFetchStats zeroes the fetch statistics.
	ResetFetchStats()
}

// QueueStats reports queue state and fetch statistics.
type QueueStats struct {
	// Pending is the number of queued tasks.
	Pending int

	// Running indicates a drain is in progress.
	Running bool

	// Completed counts successful fetches.
	Completed int

	// Failed counts fetches that returned an error.
	Failed int

	// Skipped counts tasks satisfied by the cache without fetching.
	Skipped int

	// TotalFetches counts requests issued to the fetch service.
	TotalFetches int

	// ByKind counts requests per page kind.
	ByKind map[domain.PageKind]int
}

// Summary renders "N of M succeeded".
func (s QueueStats) Summary() string {
	return domain.TaskResult{ItemsProcessed: s.Completed, ItemsFailed: s.Failed}.Summary()
}
