package driven

import (
	"context"

	"github.com/tao-shen/CiteTrack-sub002/internal/core/domain"
)

// SchedulerStore keeps the periodic tasks (scholar refresh, cache compaction)
// and their run history across restarts, so an interval that elapsed while
// the process was down is honoured on the next start.
type SchedulerStore interface {
	// GetTask returns nil, nil for an unknown id.
	GetTask(ctx context.Context, taskID string) (*domain.ScheduledTask, error)
	ListTasks(ctx context.Context) ([]domain.ScheduledTask, error)

	// SaveTask upserts by id.
	SaveTask(ctx context.Context, task *domain.ScheduledTask) error
	DeleteTask(ctx context.Context, taskID string) error

	// RecordResult appends one run, with its fetch counts.
	RecordResult(ctx context.Context, result *domain.TaskResult) error

	// GetTaskHistory returns up to limit runs, newest first.
	GetTaskHistory(ctx context.Context, taskID string, limit int) ([]domain.TaskResult, error)

	// PruneHistory keeps the newest keep runs of each task.
	PruneHistory(ctx context.Context, keep int) error
}
