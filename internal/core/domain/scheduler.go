package domain

import (
	"fmt"
	"time"
)

// Built-in periodic tasks.
const (
	// TaskIDScholarRefresh refreshes every tracked scholar.
	TaskIDScholarRefresh = "scholar-refresh"

	// TaskIDCacheCompact evicts expired cache entries and trims history.
	TaskIDCacheCompact = "cache-compact"
)

// ScheduledTask is the persisted state of one periodic task.
type ScheduledTask struct {
	ID       string
	Name     string
	Interval time.Duration
	Enabled  bool

	LastRun     time.Time
	NextRun     time.Time
	LastSuccess time.Time

	// LastError is empty after a successful run.
	LastError string
}

// TaskResult records one run. For a scholar refresh the item counts are
// the coordinator's completed and failed fetches during the run; for a
// compaction ItemsProcessed is the number of evicted entries.
type TaskResult struct {
	TaskID    string
	StartedAt time.Time
	EndedAt   time.Time
	Success   bool
	Error     string

	ItemsProcessed int
	ItemsFailed    int
}

// Summary renders the result as "N of M succeeded".
func (r TaskResult) Summary() string {
	total := r.ItemsProcessed + r.ItemsFailed
	return fmt.Sprintf("%d of %d succeeded", r.ItemsProcessed, total)
}

// SchedulerConfig switches the scheduler and its tasks.
type SchedulerConfig struct {
	Enabled     bool
	TaskConfigs map[string]TaskConfig
}

// TaskConfig is the per-task switch and interval.
type TaskConfig struct {
	Enabled  bool
	Interval time.Duration
}

// GetTaskConfig returns the zero TaskConfig for an unknown task.
func (c *SchedulerConfig) GetTaskConfig(taskID string) TaskConfig {
	return c.TaskConfigs[taskID]
}

// DefaultSchedulerConfig refreshes scholars every six hours and compacts
// the cache hourly.
func DefaultSchedulerConfig() SchedulerConfig {
	return SchedulerConfig{
		Enabled: true,
		TaskConfigs: map[string]TaskConfig{
			TaskIDScholarRefresh: {Enabled: true, Interval: 6 * time.Hour},
			TaskIDCacheCompact:   {Enabled: true, Interval: time.Hour},
		},
	}
}
