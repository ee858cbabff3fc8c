package usecases

import (
	"context"
	"encoding/json"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/google/uuid"
	"github.com/guregu/null/v5"

	"github.com/quillhq/quill-backend/infra"
	"github.com/quillhq/quill-backend/models"
	"github.com/quillhq/quill-backend/repositories"
	"github.com/quillhq/quill-backend/usecases/executor_factory"
	"github.com/quillhq/quill-backend/utils"
)

type eventPublisherRepository interface {
	CreateEvent(ctx context.Context, exec repositories.Executor, event models.Event) error
	MarkEventDispatched(ctx context.Context, exec repositories.Executor, eventId uuid.UUID) error
}

type eventPublisherTaskQueue interface {
	EnqueueEventDispatch(ctx context.Context, eventId uuid.UUID) error
	EnqueueEventDispatchTx(ctx context.Context, tx repositories.Transaction, eventId uuid.UUID) error
}

// EventPublisher is the single entry point for recording events. Nothing else
// writes to the event log, and nothing mutates projections except domain
// workers reacting to events published here.
type EventPublisher struct {
	registry           models.EventRegistry
	eventRepository    eventPublisherRepository
	taskQueue          eventPublisherTaskQueue
	executorFactory    executor_factory.ExecutorFactory
	transactionFactory executor_factory.TransactionFactory
}

func NewEventPublisher(
	registry models.EventRegistry,
	eventRepository eventPublisherRepository,
	taskQueue eventPublisherTaskQueue,
	executorFactory executor_factory.ExecutorFactory,
	transactionFactory executor_factory.TransactionFactory,
) EventPublisher {
	return EventPublisher{
		registry:           registry,
		eventRepository:    eventRepository,
		taskQueue:          taskQueue,
		executorFactory:    executorFactory,
		transactionFactory: transactionFactory,
	}
}

type AppendEventInput struct {
	Type          models.EventType
	SubjectId     string
	SubjectType   string
	Data          json.RawMessage
	Metadata      json.RawMessage
	ActorId       string
	Source        models.EventSource
	CorrelationId string
	CausationId   string
}

func (input AppendEventInput) toEvent() models.Event {
	event := models.Event{
		Id:              uuid.Must(uuid.NewV7()),
		SchemaVersion:   models.EventSchemaVersion,
		Type:            input.Type,
		SubjectId:       input.SubjectId,
		SubjectType:     input.SubjectType,
		Data:            input.Data,
		Metadata:        input.Metadata,
		ActorId:         input.ActorId,
		Source:          input.Source,
		Timestamp:       time.Now(),
		DispatchPending: true,
	}
	if input.CorrelationId != "" {
		event.CorrelationId = null.StringFrom(input.CorrelationId)
	} else {
		// an event with no parent starts its own causal chain
		event.CorrelationId = null.StringFrom(event.Id.String())
	}
	if input.CausationId != "" {
		event.CausationId = null.StringFrom(input.CausationId)
	}
	return event
}

// Append durably writes the event, then signals dispatch. The write is never
// rolled back by a failed signal: the row stays flagged dispatch_pending and
// the sweeper re-sends the signal later, so dispatch is at-least-once.
func (p EventPublisher) Append(ctx context.Context, input AppendEventInput) (uuid.UUID, error) {
	if err := p.registry.Validate(input.Type); err != nil {
		return uuid.Nil, err
	}

	event := input.toEvent()

	err := p.transactionFactory.Transaction(ctx, func(tx repositories.Transaction) error {
		return p.eventRepository.CreateEvent(ctx, tx, event)
	})
	if err != nil {
		return uuid.Nil, errors.Wrap(err, "failed to append event")
	}
	infra.EventsAppended.WithLabelValues(string(event.Type.Table), string(event.Type.Stage)).Inc()

	// Past this point the append has succeeded whatever happens to the
	// dispatch signal.
	if err := p.taskQueue.EnqueueEventDispatch(ctx, event.Id); err != nil {
		utils.LoggerFromContext(ctx).WarnContext(ctx,
			"dispatch signal failed, leaving event pending for the sweeper",
			"event_id", event.Id, "error", err)
		return event.Id, nil
	}

	exec := p.executorFactory.NewExecutor()
	if err := p.eventRepository.MarkEventDispatched(ctx, exec, event.Id); err != nil {
		// The signal is in the queue; the flag only controls the sweeper,
		// and dispatch de-duplicates by event id.
		utils.LoggerFromContext(ctx).WarnContext(ctx,
			"failed to clear dispatch_pending flag",
			"event_id", event.Id, "error", err)
	}

	return event.Id, nil
}

// AppendInTransaction writes the event and the dispatch signal in the
// caller's transaction, so both commit or neither does. Used by pipeline
// components that are already inside a transactional step (validator,
// proposal manager, domain workers).
func (p EventPublisher) AppendInTransaction(
	ctx context.Context,
	tx repositories.Transaction,
	input AppendEventInput,
) (uuid.UUID, error) {
	if err := p.registry.Validate(input.Type); err != nil {
		return uuid.Nil, err
	}

	event := input.toEvent()
	// The dispatch job commits atomically with the row, no sweep needed.
	event.DispatchPending = false

	if err := p.eventRepository.CreateEvent(ctx, tx, event); err != nil {
		return uuid.Nil, errors.Wrap(err, "failed to append event")
	}
	if err := p.taskQueue.EnqueueEventDispatchTx(ctx, tx, event.Id); err != nil {
		return uuid.Nil, err
	}
	infra.EventsAppended.WithLabelValues(string(event.Type.Table), string(event.Type.Stage)).Inc()
	return event.Id, nil
}
