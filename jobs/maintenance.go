package jobs

import (
	"context"
	"log/slog"
	"time"

	"github.com/hibiken/asynq"
)

// TaskTypeCleanupKeys prunes aged idempotency keys.
const TaskTypeCleanupKeys = "maintenance:cleanup_keys"

// KeyPruner removes idempotency entries older than the retention window.
type KeyPruner interface {
	Cleanup(ctx context.Context, olderThan time.Duration) error
}

// NewCleanupKeysTask builds the scheduled cleanup task.
func NewCleanupKeysTask() *asynq.Task {
	return asynq.NewTask(TaskTypeCleanupKeys, nil)
}

// CleanupJob prunes stale idempotency keys on a schedule.
type CleanupJob struct {
	pruner    KeyPruner
	retention time.Duration
	logger    *slog.Logger
}

func NewCleanupJob(pruner KeyPruner, retention time.Duration, logger *slog.Logger) *CleanupJob {
	if retention <= 0 {
		retention = 72 * time.Hour
	}
	return &CleanupJob{pruner: pruner, retention: retention, logger: logger}
}

// Handle runs the cleanup.
func (j *CleanupJob) Handle(ctx context.Context, _ *asynq.Task) error {
	if err := j.pruner.Cleanup(ctx, j.retention); err != nil {
		j.logger.Warn("cleanup idempotency keys", slog.Any("error", err))
		return err
	}
	j.logger.Info("idempotency keys pruned", slog.Duration("retention", j.retention))
	return nil
}
