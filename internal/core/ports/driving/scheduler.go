package driving

import "context"

// Scheduler runs the periodic scholar refresh and cache compaction.
type Scheduler interface {
	// Start blocks until ctx is cancelled. Tasks that came due while the
	// process was down run straight away.
	Start(ctx context.Context) error

	// Stop waits for a running task to finish. Calling it twice is safe.
	Stop() error
}

// Updater refreshes every tracked scholar.
type Updater interface {
	// RefreshAll queues a refresh for each tracked scholar, waits for the
	// queue to drain and returns the fetch counts of the run.
	RefreshAll(ctx context.Context) (completed, failed int, err error)
}
