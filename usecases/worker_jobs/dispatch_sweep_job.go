package worker_jobs

import (
	"context"
	"time"

	"github.com/riverqueue/river"

	"github.com/quillhq/quill-backend/models"
	"github.com/quillhq/quill-backend/usecases"
)

const (
	DISPATCH_SWEEP_INTERVAL = 1 * time.Minute
	DISPATCH_SWEEP_TIMEOUT  = 2 * time.Minute
)

func NewDispatchSweepPeriodicJob() *river.PeriodicJob {
	return river.NewPeriodicJob(
		river.PeriodicInterval(DISPATCH_SWEEP_INTERVAL),
		func() (river.JobArgs, *river.InsertOpts) {
			return models.DispatchSweepArgs{},
				&river.InsertOpts{
					UniqueOpts: river.UniqueOpts{
						ByPeriod: DISPATCH_SWEEP_INTERVAL,
					},
				}
		},
		&river.PeriodicJobOpts{RunOnStart: true},
	)
}

// DispatchSweepWorker periodically re-signals events whose dispatch signal
// was lost between the durable append and the queue insert.
type DispatchSweepWorker struct {
	river.WorkerDefaults[models.DispatchSweepArgs]

	sweeper usecases.DispatchSweeper
}

func NewDispatchSweepWorker(sweeper usecases.DispatchSweeper) *DispatchSweepWorker {
	return &DispatchSweepWorker{sweeper: sweeper}
}

func (w *DispatchSweepWorker) Timeout(job *river.Job[models.DispatchSweepArgs]) time.Duration {
	return DISPATCH_SWEEP_TIMEOUT
}

func (w *DispatchSweepWorker) Work(ctx context.Context, job *river.Job[models.DispatchSweepArgs]) error {
	_, err := w.sweeper.SweepOnce(ctx)
	return err
}
