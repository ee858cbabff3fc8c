package usecases

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/cockroachdb/errors"
	"github.com/google/uuid"
	"github.com/jackc/pgerrcode"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"

	"github.com/quillhq/quill-backend/mocks"
	"github.com/quillhq/quill-backend/models"
	"github.com/quillhq/quill-backend/usecases/executor_factory"
)

type validatorTestHarness struct {
	validator PermissionValidator
	repo      *mocks.ValidationRepository
	eventRepo *mocks.EventRepository
	taskQueue *mocks.TaskQueueRepository
}

func newValidatorTestHarness() validatorTestHarness {
	repo := new(mocks.ValidationRepository)
	eventRepo := new(mocks.EventRepository)
	taskQueue := new(mocks.TaskQueueRepository)

	executorFactory := executor_factory.NewExecutorFactoryStub()
	transactionFactory := executor_factory.NewTransactionFactoryStub()

	publisher := NewEventPublisher(models.NewEventRegistry(), eventRepo, taskQueue,
		executorFactory, transactionFactory)

	return validatorTestHarness{
		validator: NewPermissionValidator(repo, publisher, executorFactory, transactionFactory),
		repo:      repo,
		eventRepo: eventRepo,
		taskQueue: taskQueue,
	}
}

func requestedEvent(table models.TableFamily, action models.Action) models.Event {
	return models.Event{
		Id:        uuid.Must(uuid.NewV7()),
		Type:      models.EventType{Table: table, Action: action, Stage: models.StageRequested},
		SubjectId: "subject-1",
		ActorId:   "actor-1",
		Source:    models.SourceUserApi,
	}
}

func (h validatorTestHarness) expectNoPriorDecision(event models.Event) {
	h.repo.On("SiblingEventExists", mock.Anything, event.Id,
		event.Type.WithStage(models.StageApproved)).Return(false, nil)
	h.repo.On("SiblingEventExists", mock.Anything, event.Id,
		event.Type.WithStage(models.StageRejected)).Return(false, nil)
}

func TestPermissionValidatorAutoApproves(t *testing.T) {
	h := newValidatorTestHarness()
	event := requestedEvent(models.TableEntities, models.ActionCreate)

	h.expectNoPriorDecision(event)
	h.repo.On("GetEntityProjection", mock.Anything, "subject-1").Return(nil, nil)
	h.eventRepo.On("CreateEvent", mock.Anything, mock.MatchedBy(func(appended models.Event) bool {
		return appended.Type.Stage == models.StageApproved &&
			appended.Source == models.SourceSystem &&
			appended.CausationId.ValueOrZero() == event.Id.String()
	})).Return(nil)
	h.taskQueue.On("EnqueueEventDispatchTx", mock.Anything, mock.Anything).Return(nil)

	err := h.validator.HandleRequestedEvent(context.Background(), event)

	assert.NoError(t, err)
	h.repo.AssertNotCalled(t, "CreateProposal", mock.Anything, mock.Anything)
	h.eventRepo.AssertExpectations(t)
}

func TestPermissionValidatorProposesExternallyAuthoredRequest(t *testing.T) {
	h := newValidatorTestHarness()
	event := requestedEvent(models.TableEntities, models.ActionCreate)
	event.Source = models.SourceExternalIntelligence

	h.expectNoPriorDecision(event)
	h.repo.On("GetEntityProjection", mock.Anything, "subject-1").Return(nil, nil)
	h.repo.On("CreateProposal", mock.Anything, mock.MatchedBy(func(proposal models.Proposal) bool {
		return proposal.Status == models.ProposalStatusPending &&
			proposal.OriginatingEventId == event.Id &&
			proposal.TargetType == models.TableEntities
	})).Return(nil)

	err := h.validator.HandleRequestedEvent(context.Background(), event)

	assert.NoError(t, err)
	h.eventRepo.AssertNotCalled(t, "CreateEvent", mock.Anything, mock.Anything)
	h.repo.AssertExpectations(t)
}

func TestPermissionValidatorRejectsOnWorkspaceDeny(t *testing.T) {
	h := newValidatorTestHarness()
	workspaceId := uuid.Must(uuid.NewV7())

	event := requestedEvent(models.TableEntities, models.ActionCreate)
	event.Metadata = json.RawMessage(`{"workspaceId": "` + workspaceId.String() + `"}`)

	h.expectNoPriorDecision(event)
	h.repo.On("GetWorkspacePolicy", mock.Anything, workspaceId).Return(models.WorkspacePolicy{
		WorkspaceId: workspaceId,
		Overrides: map[models.TableFamily]map[models.Action]models.PolicyMode{
			models.TableEntities: {models.ActionCreate: models.PolicyModeDeny},
		},
	}, nil)
	h.repo.On("GetEntityProjection", mock.Anything, "subject-1").Return(nil, nil)
	h.eventRepo.On("CreateEvent", mock.Anything, mock.MatchedBy(func(appended models.Event) bool {
		return appended.Type.Stage == models.StageRejected &&
			appended.CausationId.ValueOrZero() == event.Id.String()
	})).Return(nil)
	h.taskQueue.On("EnqueueEventDispatchTx", mock.Anything, mock.Anything).Return(nil)

	err := h.validator.HandleRequestedEvent(context.Background(), event)

	assert.NoError(t, err)
	h.repo.AssertNotCalled(t, "CreateProposal", mock.Anything, mock.Anything)
	h.eventRepo.AssertExpectations(t)
}

func TestPermissionValidatorSkipsAlreadyDecidedEvent(t *testing.T) {
	h := newValidatorTestHarness()
	event := requestedEvent(models.TableEntities, models.ActionCreate)

	h.repo.On("SiblingEventExists", mock.Anything, event.Id,
		event.Type.WithStage(models.StageApproved)).Return(true, nil)

	err := h.validator.HandleRequestedEvent(context.Background(), event)

	assert.NoError(t, err)
	h.eventRepo.AssertNotCalled(t, "CreateEvent", mock.Anything, mock.Anything)
	h.repo.AssertNotCalled(t, "CreateProposal", mock.Anything, mock.Anything)
}

func TestPermissionValidatorIgnoresNonRequestedStages(t *testing.T) {
	h := newValidatorTestHarness()
	event := requestedEvent(models.TableEntities, models.ActionCreate)
	event.Type.Stage = models.StageApproved

	err := h.validator.HandleRequestedEvent(context.Background(), event)

	assert.NoError(t, err)
	h.repo.AssertNotCalled(t, "SiblingEventExists", mock.Anything, mock.Anything, mock.Anything)
}

func TestPermissionValidatorFailsOnMalformedWorkspaceId(t *testing.T) {
	h := newValidatorTestHarness()
	event := requestedEvent(models.TableEntities, models.ActionCreate)
	event.Metadata = json.RawMessage(`{"workspaceId": "not-a-uuid"}`)

	h.expectNoPriorDecision(event)

	err := h.validator.HandleRequestedEvent(context.Background(), event)

	assert.True(t, errors.Is(err, models.ErrValidationPolicy))
	h.eventRepo.AssertNotCalled(t, "CreateEvent", mock.Anything, mock.Anything)
	h.repo.AssertNotCalled(t, "CreateProposal", mock.Anything, mock.Anything)
}

func TestPermissionValidatorTreatsDuplicateProposalAsSuccess(t *testing.T) {
	h := newValidatorTestHarness()
	event := requestedEvent(models.TableEntities, models.ActionDelete)

	h.expectNoPriorDecision(event)
	h.repo.On("GetEntityProjection", mock.Anything, "subject-1").Return(nil, nil)
	h.repo.On("CreateProposal", mock.Anything, mock.Anything).
		Return(&pgconn.PgError{Code: pgerrcode.UniqueViolation})

	err := h.validator.HandleRequestedEvent(context.Background(), event)

	assert.NoError(t, err)
}
