package usecases

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/cockroachdb/errors"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/tidwall/gjson"

	"github.com/quillhq/quill-backend/mocks"
	"github.com/quillhq/quill-backend/models"
	"github.com/quillhq/quill-backend/repositories"
	"github.com/quillhq/quill-backend/usecases/executor_factory"
)

type subjectMutatorMock struct {
	mock.Mock
}

func (m *subjectMutatorMock) Apply(ctx context.Context, tx repositories.Transaction, event models.Event) error {
	args := m.Called(tx, event)
	return args.Error(0)
}

type domainWorkerTestHarness struct {
	worker    DomainWorker
	mutator   *subjectMutatorMock
	repo      *mocks.DomainWorkerRepository
	eventRepo *mocks.EventRepository
	taskQueue *mocks.TaskQueueRepository
}

func newDomainWorkerTestHarness() domainWorkerTestHarness {
	mutator := new(subjectMutatorMock)
	repo := new(mocks.DomainWorkerRepository)
	eventRepo := new(mocks.EventRepository)
	taskQueue := new(mocks.TaskQueueRepository)

	executorFactory := executor_factory.NewExecutorFactoryStub()
	transactionFactory := executor_factory.NewTransactionFactoryStub()

	publisher := NewEventPublisher(models.NewEventRegistry(), eventRepo, taskQueue,
		executorFactory, transactionFactory)

	return domainWorkerTestHarness{
		worker:    NewDomainWorker(models.TableEntities, mutator, repo, publisher, transactionFactory),
		mutator:   mutator,
		repo:      repo,
		eventRepo: eventRepo,
		taskQueue: taskQueue,
	}
}

func approvedEvent() models.Event {
	return models.Event{
		Id: uuid.Must(uuid.NewV7()),
		Type: models.EventType{
			Table:  models.TableEntities,
			Action: models.ActionCreate,
			Stage:  models.StageApproved,
		},
		SubjectId: "entity-1",
		ActorId:   "actor-1",
		Source:    models.SourceSystem,
	}
}

func TestDomainWorkerAppliesMutationAndEmitsValidated(t *testing.T) {
	h := newDomainWorkerTestHarness()
	event := approvedEvent()

	h.repo.On("MarkEventProcessed", mock.Anything, "domain_worker_entities", event.Id).
		Return(true, nil)
	h.mutator.On("Apply", mock.Anything, event).Return(nil)
	h.eventRepo.On("CreateEvent", mock.Anything, mock.MatchedBy(func(appended models.Event) bool {
		return appended.Type.Stage == models.StageValidated &&
			appended.CausationId.ValueOrZero() == event.Id.String() &&
			appended.Source == models.SourceSystem
	})).Return(nil)
	h.taskQueue.On("EnqueueEventDispatchTx", mock.Anything, mock.Anything).Return(nil)

	err := h.worker.HandleApprovedEvent(context.Background(), event)

	assert.NoError(t, err)
	h.mutator.AssertExpectations(t)
	h.eventRepo.AssertExpectations(t)
}

func TestDomainWorkerValidatedEventReachesWebhookFanOut(t *testing.T) {
	h := newDomainWorkerTestHarness()
	workspaceId := uuid.Must(uuid.NewV7())
	event := approvedEvent()
	event.Metadata = json.RawMessage(`{"workspaceId": "` + workspaceId.String() + `"}`)

	var validated models.Event
	h.repo.On("MarkEventProcessed", mock.Anything, "domain_worker_entities", event.Id).
		Return(true, nil)
	h.mutator.On("Apply", mock.Anything, event).Return(nil)
	h.eventRepo.On("CreateEvent", mock.Anything, mock.Anything).
		Run(func(args mock.Arguments) { validated = args.Get(1).(models.Event) }).Return(nil)
	h.taskQueue.On("EnqueueEventDispatchTx", mock.Anything, mock.Anything).Return(nil)

	assert.NoError(t, h.worker.HandleApprovedEvent(context.Background(), event))
	assert.Equal(t, models.StageValidated, validated.Type.Stage)
	assert.Equal(t, workspaceId.String(),
		gjson.GetBytes(validated.Metadata, "workspaceId").String())

	// the broker must be able to route the worker's own output
	webhookRepo := new(mocks.WebhookRepository)
	broker := NewWebhookBroker(webhookRepo, new(mocks.TaskQueueRepository),
		executor_factory.NewExecutorFactoryStub(), executor_factory.NewTransactionFactoryStub())
	webhookRepo.On("ListActiveWebhookSubscriptions", mock.Anything, workspaceId).
		Return([]models.WebhookSubscription{}, nil)

	assert.NoError(t, broker.HandleValidatedEvent(context.Background(), validated))
	webhookRepo.AssertExpectations(t)
}

func TestDomainWorkerSkipsAlreadyProcessedEvent(t *testing.T) {
	h := newDomainWorkerTestHarness()
	event := approvedEvent()

	h.repo.On("MarkEventProcessed", mock.Anything, "domain_worker_entities", event.Id).
		Return(false, nil)

	err := h.worker.HandleApprovedEvent(context.Background(), event)

	assert.NoError(t, err)
	h.mutator.AssertNotCalled(t, "Apply", mock.Anything, mock.Anything)
	h.eventRepo.AssertNotCalled(t, "CreateEvent", mock.Anything, mock.Anything)
}

func TestDomainWorkerRecordsPermanentFailure(t *testing.T) {
	h := newDomainWorkerTestHarness()
	workspaceId := uuid.Must(uuid.NewV7())
	event := approvedEvent()
	event.Metadata = json.RawMessage(`{"workspaceId": "` + workspaceId.String() + `"}`)

	// first transaction rolls back the mutation, second one records the
	// failure marker and the .failed event
	h.repo.On("MarkEventProcessed", mock.Anything, "domain_worker_entities", event.Id).
		Return(true, nil).Twice()
	h.mutator.On("Apply", mock.Anything, event).
		Return(errors.Wrap(models.ErrMutationConflict, "version mismatch"))
	h.eventRepo.On("CreateEvent", mock.Anything, mock.MatchedBy(func(appended models.Event) bool {
		return appended.Type.Stage == models.StageFailed &&
			appended.CausationId.ValueOrZero() == event.Id.String() &&
			gjson.GetBytes(appended.Metadata, "workspaceId").String() == workspaceId.String() &&
			gjson.GetBytes(appended.Metadata, "error").String() != ""
	})).Return(nil)
	h.taskQueue.On("EnqueueEventDispatchTx", mock.Anything, mock.Anything).Return(nil)

	err := h.worker.HandleApprovedEvent(context.Background(), event)

	assert.NoError(t, err)
	h.repo.AssertExpectations(t)
	h.eventRepo.AssertExpectations(t)
}

func TestDomainWorkerPropagatesTransientErrors(t *testing.T) {
	h := newDomainWorkerTestHarness()
	event := approvedEvent()
	transient := errors.New("connection reset")

	h.repo.On("MarkEventProcessed", mock.Anything, "domain_worker_entities", event.Id).
		Return(true, nil)
	h.mutator.On("Apply", mock.Anything, event).Return(transient)

	err := h.worker.HandleApprovedEvent(context.Background(), event)

	assert.ErrorIs(t, err, transient)
	h.eventRepo.AssertNotCalled(t, "CreateEvent", mock.Anything, mock.Anything)
}

func TestDomainWorkerIgnoresForeignEvents(t *testing.T) {
	h := newDomainWorkerTestHarness()

	event := approvedEvent()
	event.Type.Table = models.TableRelations

	assert.NoError(t, h.worker.HandleApprovedEvent(context.Background(), event))

	event = approvedEvent()
	event.Type.Stage = models.StageValidated

	assert.NoError(t, h.worker.HandleApprovedEvent(context.Background(), event))
	h.repo.AssertNotCalled(t, "MarkEventProcessed", mock.Anything, mock.Anything, mock.Anything)
}
