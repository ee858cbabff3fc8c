package usecases

import (
	"context"
	"time"

	"github.com/avast/retry-go/v4"
	"github.com/google/uuid"

	"github.com/quillhq/quill-backend/models"
	"github.com/quillhq/quill-backend/repositories"
	"github.com/quillhq/quill-backend/usecases/executor_factory"
	"github.com/quillhq/quill-backend/utils"
)

const (
	// Events younger than the grace window are left alone: their append call
	// may still be between the commit and the dispatch signal.
	sweepGraceWindow = 30 * time.Second
	sweepBatchSize   = 100
)

type sweeperRepository interface {
	ListDispatchPendingEvents(ctx context.Context, exec repositories.Executor, olderThan time.Time, limit int) ([]models.Event, error)
	MarkEventDispatched(ctx context.Context, exec repositories.Executor, eventId uuid.UUID) error
}

type sweeperTaskQueue interface {
	EnqueueEventDispatch(ctx context.Context, eventId uuid.UUID) error
}

// DispatchSweeper is the reconciliation half of the dual write: it re-sends
// the dispatch signal for events whose original signal was lost. Dispatch
// jobs are unique by event id, so re-signalling an event that made it after
// all is harmless.
type DispatchSweeper struct {
	repository      sweeperRepository
	taskQueue       sweeperTaskQueue
	executorFactory executor_factory.ExecutorFactory
}

func NewDispatchSweeper(
	repository sweeperRepository,
	taskQueue sweeperTaskQueue,
	executorFactory executor_factory.ExecutorFactory,
) DispatchSweeper {
	return DispatchSweeper{
		repository:      repository,
		taskQueue:       taskQueue,
		executorFactory: executorFactory,
	}
}

// SweepOnce processes one batch of stale pending events and returns how many
// signals it re-sent.
func (s DispatchSweeper) SweepOnce(ctx context.Context) (int, error) {
	logger := utils.LoggerFromContext(ctx)
	exec := s.executorFactory.NewExecutor()

	events, err := s.repository.ListDispatchPendingEvents(ctx, exec,
		time.Now().Add(-sweepGraceWindow), sweepBatchSize)
	if err != nil {
		return 0, err
	}

	swept := 0
	for _, event := range events {
		err := retry.Do(
			func() error {
				return s.taskQueue.EnqueueEventDispatch(ctx, event.Id)
			},
			retry.Attempts(3),
			retry.Delay(100*time.Millisecond),
			retry.Context(ctx),
			retry.LastErrorOnly(true),
		)
		if err != nil {
			// leave the flag set, the next sweep picks it up again
			logger.WarnContext(ctx, "sweeper failed to re-signal event",
				"event_id", event.Id, "error", err)
			continue
		}
		if err := s.repository.MarkEventDispatched(ctx, exec, event.Id); err != nil {
			return swept, err
		}
		swept++
	}

	if swept > 0 {
		logger.InfoContext(ctx, "re-signalled pending events", "count", swept)
	}
	return swept, nil
}
