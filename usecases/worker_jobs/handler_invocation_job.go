package worker_jobs

import (
	"context"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/google/uuid"
	"github.com/riverqueue/river"

	"github.com/quillhq/quill-backend/infra"
	"github.com/quillhq/quill-backend/models"
	"github.com/quillhq/quill-backend/repositories"
	"github.com/quillhq/quill-backend/usecases"
	"github.com/quillhq/quill-backend/usecases/executor_factory"
	"github.com/quillhq/quill-backend/utils"
)

const (
	HANDLER_INVOCATION_TIMEOUT = 30 * time.Second

	// Snooze when an earlier event for the same subject is still being
	// processed by the same handler.
	PREDECESSOR_SNOOZE = 2 * time.Second
)

type handlerInvocationRepository interface {
	GetHandlerInvocation(ctx context.Context, exec repositories.Executor, id uuid.UUID) (models.HandlerInvocation, error)
	UpdateHandlerInvocation(ctx context.Context, exec repositories.Executor, id uuid.UUID,
		status models.HandlerInvocationStatus, attempts int, lastError string) error
	HasUnfinishedPredecessor(ctx context.Context, exec repositories.Executor, inv models.HandlerInvocation, pattern string) (bool, error)
	GetEventById(ctx context.Context, exec repositories.Executor, eventId uuid.UUID) (models.Event, error)
}

// HandlerInvocationWorker runs stage two of the fan-out: one handler against
// one event. Each invocation retries in isolation, and per-subject ordering
// is enforced by snoozing behind unfinished predecessors.
type HandlerInvocationWorker struct {
	river.WorkerDefaults[models.HandlerInvocationArgs]

	dispatcher      *usecases.Dispatcher
	repository      handlerInvocationRepository
	executorFactory executor_factory.ExecutorFactory
}

func NewHandlerInvocationWorker(
	dispatcher *usecases.Dispatcher,
	repository handlerInvocationRepository,
	executorFactory executor_factory.ExecutorFactory,
) *HandlerInvocationWorker {
	return &HandlerInvocationWorker{
		dispatcher:      dispatcher,
		repository:      repository,
		executorFactory: executorFactory,
	}
}

func (w *HandlerInvocationWorker) Timeout(job *river.Job[models.HandlerInvocationArgs]) time.Duration {
	return HANDLER_INVOCATION_TIMEOUT
}

func (w *HandlerInvocationWorker) Work(ctx context.Context, job *river.Job[models.HandlerInvocationArgs]) error {
	logger := utils.LoggerFromContext(ctx)
	exec := w.executorFactory.NewExecutor()

	invocation, err := w.repository.GetHandlerInvocation(ctx, exec, job.Args.InvocationId)
	if err != nil {
		return err
	}
	if invocation.Status != models.HandlerInvocationPending {
		return nil
	}

	handler, ok := w.dispatcher.Handler(invocation.HandlerKey)
	if !ok {
		return errors.Newf("no handler registered for key %q", invocation.HandlerKey)
	}
	pattern, _ := w.dispatcher.SubscriptionPattern(invocation.HandlerKey)

	blocked, err := w.repository.HasUnfinishedPredecessor(ctx, exec, invocation, pattern)
	if err != nil {
		return err
	}
	if blocked {
		return river.JobSnooze(PREDECESSOR_SNOOZE)
	}

	event, err := w.repository.GetEventById(ctx, exec, invocation.EventId)
	if err != nil {
		return err
	}

	attempts := invocation.Attempts + 1
	handlerErr := handler(ctx, event)
	if handlerErr == nil {
		infra.HandlerInvocations.WithLabelValues(invocation.HandlerKey, "succeeded").Inc()
		return w.repository.UpdateHandlerInvocation(ctx, exec, invocation.Id,
			models.HandlerInvocationSucceeded, attempts, "")
	}

	if job.Attempt >= job.MaxAttempts {
		// Out of retries. Record the dead-letter on the invocation row and
		// alert; the event stays in the log for manual replay.
		if err := w.repository.UpdateHandlerInvocation(ctx, exec, invocation.Id,
			models.HandlerInvocationDeadLettered, attempts, handlerErr.Error()); err != nil {
			return err
		}
		infra.HandlerInvocations.WithLabelValues(invocation.HandlerKey, "dead_lettered").Inc()
		utils.LogAndReportSentryError(ctx, errors.Wrapf(handlerErr,
			"handler %s dead-lettered for event %s after %d attempts",
			invocation.HandlerKey, invocation.EventId, attempts))
		return nil
	}

	infra.HandlerInvocations.WithLabelValues(invocation.HandlerKey, "failed").Inc()
	if err := w.repository.UpdateHandlerInvocation(ctx, exec, invocation.Id,
		models.HandlerInvocationPending, attempts, handlerErr.Error()); err != nil {
		logger.WarnContext(ctx, "failed to record invocation attempt",
			"invocation_id", invocation.Id, "error", err)
	}
	return handlerErr
}
