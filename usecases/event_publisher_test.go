package usecases

import (
	"context"
	"testing"

	"github.com/cockroachdb/errors"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"

	"github.com/quillhq/quill-backend/mocks"
	"github.com/quillhq/quill-backend/models"
	"github.com/quillhq/quill-backend/usecases/executor_factory"
)

type publisherTestHarness struct {
	publisher EventPublisher
	eventRepo *mocks.EventRepository
	taskQueue *mocks.TaskQueueRepository
}

func newPublisherTestHarness() publisherTestHarness {
	eventRepo := new(mocks.EventRepository)
	taskQueue := new(mocks.TaskQueueRepository)

	return publisherTestHarness{
		publisher: NewEventPublisher(models.NewEventRegistry(), eventRepo, taskQueue,
			executor_factory.NewExecutorFactoryStub(),
			executor_factory.NewTransactionFactoryStub()),
		eventRepo: eventRepo,
		taskQueue: taskQueue,
	}
}

func appendInput() AppendEventInput {
	return AppendEventInput{
		Type: models.EventType{
			Table:  models.TableEntities,
			Action: models.ActionCreate,
			Stage:  models.StageRequested,
		},
		SubjectId: "entity-1",
		ActorId:   "actor-1",
		Source:    models.SourceUserApi,
	}
}

func TestEventPublisherAppend(t *testing.T) {
	h := newPublisherTestHarness()

	var created models.Event
	h.eventRepo.On("CreateEvent", mock.Anything, mock.MatchedBy(func(event models.Event) bool {
		created = event
		return event.DispatchPending &&
			event.SchemaVersion == models.EventSchemaVersion &&
			// a root event starts its own causal chain
			event.CorrelationId.ValueOrZero() == event.Id.String() &&
			!event.CausationId.Valid
	})).Return(nil)
	h.taskQueue.On("EnqueueEventDispatch", mock.Anything).Return(nil)
	h.eventRepo.On("MarkEventDispatched", mock.Anything, mock.Anything).Return(nil)

	eventId, err := h.publisher.Append(context.Background(), appendInput())

	assert.NoError(t, err)
	assert.Equal(t, created.Id, eventId)
	h.eventRepo.AssertExpectations(t)
	h.taskQueue.AssertExpectations(t)
}

func TestEventPublisherAppendSurvivesDispatchSignalFailure(t *testing.T) {
	h := newPublisherTestHarness()

	h.eventRepo.On("CreateEvent", mock.Anything, mock.Anything).Return(nil)
	h.taskQueue.On("EnqueueEventDispatch", mock.Anything).
		Return(errors.New("queue unavailable"))

	eventId, err := h.publisher.Append(context.Background(), appendInput())

	assert.NoError(t, err)
	assert.NotEqual(t, uuid.Nil, eventId)
	// the row keeps its pending flag for the sweeper
	h.eventRepo.AssertNotCalled(t, "MarkEventDispatched", mock.Anything, mock.Anything)
}

func TestEventPublisherAppendRejectsUnknownType(t *testing.T) {
	h := newPublisherTestHarness()

	input := appendInput()
	input.Type.Action = models.ActionRestore
	input.Type.Table = models.TableRelations

	_, err := h.publisher.Append(context.Background(), input)

	assert.True(t, errors.Is(err, models.BadParameterError))
	h.eventRepo.AssertNotCalled(t, "CreateEvent", mock.Anything, mock.Anything)
}

func TestEventPublisherAppendFailsWhenWriteFails(t *testing.T) {
	h := newPublisherTestHarness()

	h.eventRepo.On("CreateEvent", mock.Anything, mock.Anything).
		Return(errors.New("connection refused"))

	_, err := h.publisher.Append(context.Background(), appendInput())

	assert.Error(t, err)
	h.taskQueue.AssertNotCalled(t, "EnqueueEventDispatch", mock.Anything)
}

func TestEventPublisherAppendInTransaction(t *testing.T) {
	h := newPublisherTestHarness()
	tx := new(mocks.Transaction)

	h.eventRepo.On("CreateEvent", tx, mock.MatchedBy(func(event models.Event) bool {
		// the job row commits with the event, no sweep needed
		return !event.DispatchPending &&
			event.CorrelationId.ValueOrZero() == "corr-1" &&
			event.CausationId.ValueOrZero() == "cause-1"
	})).Return(nil)
	h.taskQueue.On("EnqueueEventDispatchTx", tx, mock.Anything).Return(nil)

	input := appendInput()
	input.CorrelationId = "corr-1"
	input.CausationId = "cause-1"

	eventId, err := h.publisher.AppendInTransaction(context.Background(), tx, input)

	assert.NoError(t, err)
	assert.NotEqual(t, uuid.Nil, eventId)
	h.eventRepo.AssertExpectations(t)
	h.taskQueue.AssertExpectations(t)
}
