package worker_jobs

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/riverqueue/river"

	"github.com/quillhq/quill-backend/models"
	"github.com/quillhq/quill-backend/repositories"
	"github.com/quillhq/quill-backend/usecases"
	"github.com/quillhq/quill-backend/usecases/executor_factory"
)

const EVENT_DISPATCH_TIMEOUT = 30 * time.Second

type eventDispatchRepository interface {
	GetEventById(ctx context.Context, exec repositories.Executor, eventId uuid.UUID) (models.Event, error)
}

// EventDispatchWorker runs stage one of the fan-out: it loads the appended
// event and hands it to the dispatcher, which creates one invocation job per
// subscribed handler.
type EventDispatchWorker struct {
	river.WorkerDefaults[models.EventDispatchArgs]

	dispatcher      *usecases.Dispatcher
	repository      eventDispatchRepository
	executorFactory executor_factory.ExecutorFactory
}

func NewEventDispatchWorker(
	dispatcher *usecases.Dispatcher,
	repository eventDispatchRepository,
	executorFactory executor_factory.ExecutorFactory,
) *EventDispatchWorker {
	return &EventDispatchWorker{
		dispatcher:      dispatcher,
		repository:      repository,
		executorFactory: executorFactory,
	}
}

func (w *EventDispatchWorker) Timeout(job *river.Job[models.EventDispatchArgs]) time.Duration {
	return EVENT_DISPATCH_TIMEOUT
}

func (w *EventDispatchWorker) Work(ctx context.Context, job *river.Job[models.EventDispatchArgs]) error {
	event, err := w.repository.GetEventById(ctx, w.executorFactory.NewExecutor(), job.Args.EventId)
	if err != nil {
		return err
	}
	return w.dispatcher.Dispatch(ctx, event)
}
