package cmd

import (
	"context"
	"os/signal"
	"syscall"
	"time"

	"github.com/getsentry/sentry-go"
	"github.com/riverqueue/river"
	"github.com/riverqueue/river/riverdriver/riverpgxv5"

	"github.com/quillhq/quill-backend/infra"
	"github.com/quillhq/quill-backend/repositories"
	"github.com/quillhq/quill-backend/usecases"
	"github.com/quillhq/quill-backend/usecases/worker_jobs"
	"github.com/quillhq/quill-backend/utils"
)

const workerMaxConcurrency = 20

// RunWorker starts the pipeline worker: event dispatch, handler invocations,
// webhook deliveries and the dispatch sweeper all run here.
func RunWorker() error {
	config := loadConfiguration()

	logger := utils.NewLogger(config.loggingFormat)
	ctx := utils.StoreLoggerInContext(context.Background(), logger)

	infra.SetupSentry(config.sentryDsn, config.env)
	defer sentry.Flush(3 * time.Second)

	pool, err := infra.NewPostgresConnectionPool(ctx,
		config.pgConfig.GetConnectionString(), config.pgConfig.MaxPoolConnections)
	if err != nil {
		return err
	}

	// Insert-only client for the repositories. River uses the same client
	// type for inserting and running jobs, but the running client needs the
	// workers, and the workers need repositories, so two clients it is.
	insertClient, err := river.NewClient(riverpgxv5.New(pool), &river.Config{})
	if err != nil {
		return err
	}

	ucs := usecases.NewUsecases(usecases.Repositories{
		ExecutorGetter: repositories.NewExecutorGetter(pool),
		QuillDb:        repositories.QuillDbRepository{},
		TaskQueue:      repositories.NewTaskQueueRepository(insertClient),
	})

	dispatcher := ucs.NewDispatcher()

	workers := river.NewWorkers()
	river.AddWorker(workers, worker_jobs.NewEventDispatchWorker(
		dispatcher, ucs.QuillDb, ucs.NewExecutorFactory()))
	river.AddWorker(workers, worker_jobs.NewHandlerInvocationWorker(
		dispatcher, ucs.QuillDb, ucs.NewExecutorFactory()))
	river.AddWorker(workers, worker_jobs.NewWebhookDeliveryWorker(
		ucs.NewWebhookDeliverySender()))
	river.AddWorker(workers, worker_jobs.NewDispatchSweepWorker(
		ucs.NewDispatchSweeper()))
	river.AddWorker(workers, worker_jobs.NewRetentionCleanupWorker(
		ucs.QuillDb, ucs.NewExecutorFactory()))

	runClient, err := river.NewClient(riverpgxv5.New(pool), &river.Config{
		Queues: map[string]river.QueueConfig{
			river.QueueDefault: {MaxWorkers: workerMaxConcurrency},
		},
		Workers: workers,
		PeriodicJobs: []*river.PeriodicJob{
			worker_jobs.NewDispatchSweepPeriodicJob(),
			worker_jobs.NewRetentionCleanupPeriodicJob(),
		},
	})
	if err != nil {
		return err
	}

	notify, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	logger.InfoContext(ctx, "starting pipeline worker")
	if err := runClient.Start(ctx); err != nil {
		return err
	}

	<-notify.Done()
	logger.InfoContext(ctx, "shutting down pipeline worker")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	return runClient.Stop(shutdownCtx)
}
