package worker_jobs

import (
	"context"
	"time"

	"github.com/riverqueue/river"

	"github.com/quillhq/quill-backend/models"
	"github.com/quillhq/quill-backend/repositories"
	"github.com/quillhq/quill-backend/usecases/executor_factory"
	"github.com/quillhq/quill-backend/utils"
)

const (
	RETENTION_CLEANUP_INTERVAL = 1 * time.Hour
	RETENTION_CLEANUP_TIMEOUT  = 5 * time.Minute
	RETENTION_PERIOD           = 30 * 24 * time.Hour
)

func NewRetentionCleanupPeriodicJob() *river.PeriodicJob {
	return river.NewPeriodicJob(
		river.PeriodicInterval(RETENTION_CLEANUP_INTERVAL),
		func() (river.JobArgs, *river.InsertOpts) {
			return models.RetentionCleanupArgs{},
				&river.InsertOpts{
					UniqueOpts: river.UniqueOpts{
						ByPeriod: RETENTION_CLEANUP_INTERVAL,
					},
				}
		},
		&river.PeriodicJobOpts{RunOnStart: false},
	)
}

type retentionCleanupRepository interface {
	DeleteProcessedMarkersBefore(ctx context.Context, exec repositories.Executor, olderThan time.Time) (int64, error)
	DeleteOldDeliveryAttempts(ctx context.Context, exec repositories.Executor, olderThan time.Time) (int64, error)
	DeleteOldWebhookDeliveries(ctx context.Context, exec repositories.Executor, olderThan time.Time) (int64, error)
}

// RetentionCleanupWorker prunes bookkeeping rows past the retention window:
// processed markers, and the attempt plus delivery rows of finished webhook
// deliveries. The event log itself is never pruned.
type RetentionCleanupWorker struct {
	river.WorkerDefaults[models.RetentionCleanupArgs]

	repository      retentionCleanupRepository
	executorFactory executor_factory.ExecutorFactory
	retentionPeriod time.Duration
}

func NewRetentionCleanupWorker(
	repository retentionCleanupRepository,
	executorFactory executor_factory.ExecutorFactory,
) *RetentionCleanupWorker {
	return &RetentionCleanupWorker{
		repository:      repository,
		executorFactory: executorFactory,
		retentionPeriod: RETENTION_PERIOD,
	}
}

func (w *RetentionCleanupWorker) Timeout(job *river.Job[models.RetentionCleanupArgs]) time.Duration {
	return RETENTION_CLEANUP_TIMEOUT
}

func (w *RetentionCleanupWorker) Work(ctx context.Context, job *river.Job[models.RetentionCleanupArgs]) error {
	logger := utils.LoggerFromContext(ctx)
	exec := w.executorFactory.NewExecutor()
	cutoff := time.Now().Add(-w.retentionPeriod)

	markers, err := w.repository.DeleteProcessedMarkersBefore(ctx, exec, cutoff)
	if err != nil {
		return err
	}
	attempts, err := w.repository.DeleteOldDeliveryAttempts(ctx, exec, cutoff)
	if err != nil {
		return err
	}
	deliveries, err := w.repository.DeleteOldWebhookDeliveries(ctx, exec, cutoff)
	if err != nil {
		return err
	}

	if markers > 0 || attempts > 0 || deliveries > 0 {
		logger.InfoContext(ctx, "pruned retention data",
			"processed_markers", markers,
			"delivery_attempts", attempts,
			"webhook_deliveries", deliveries)
	}
	return nil
}
