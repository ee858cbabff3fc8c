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
	"github.com/quillhq/quill-backend/usecases/executor_factory"
)

var proposalWorkspaceId = uuid.Must(uuid.NewV7())

type proposalManagerTestHarness struct {
	manager   ProposalManager
	repo      *mocks.ProposalRepository
	eventRepo *mocks.EventRepository
	taskQueue *mocks.TaskQueueRepository
}

func newProposalManagerTestHarness() proposalManagerTestHarness {
	repo := new(mocks.ProposalRepository)
	eventRepo := new(mocks.EventRepository)
	taskQueue := new(mocks.TaskQueueRepository)

	executorFactory := executor_factory.NewExecutorFactoryStub()
	transactionFactory := executor_factory.NewTransactionFactoryStub()

	publisher := NewEventPublisher(models.NewEventRegistry(), eventRepo, taskQueue,
		executorFactory, transactionFactory)

	return proposalManagerTestHarness{
		manager:   NewProposalManager(repo, publisher, executorFactory, transactionFactory),
		repo:      repo,
		eventRepo: eventRepo,
		taskQueue: taskQueue,
	}
}

func pendingProposalFixture() (models.Proposal, models.Event) {
	originatingEvent := models.Event{
		Id: uuid.Must(uuid.NewV7()),
		Type: models.EventType{
			Table:  models.TableEntities,
			Action: models.ActionDelete,
			Stage:  models.StageRequested,
		},
		SubjectId: "entity-1",
		Metadata:  json.RawMessage(`{"workspaceId": "` + proposalWorkspaceId.String() + `"}`),
		ActorId:   "requester",
		Source:    models.SourceUserApi,
	}
	proposal := models.Proposal{
		Id:                 uuid.Must(uuid.NewV7()),
		TargetType:         models.TableEntities,
		Status:             models.ProposalStatusPending,
		OriginatingEventId: originatingEvent.Id,
		RequestType:        originatingEvent.Type,
	}
	return proposal, originatingEvent
}

func TestProposalManagerApprove(t *testing.T) {
	h := newProposalManagerTestHarness()
	proposal, originatingEvent := pendingProposalFixture()

	h.repo.On("GetProposalById", mock.Anything, proposal.Id).Return(proposal, nil)
	h.repo.On("GetEventById", mock.Anything, originatingEvent.Id).Return(originatingEvent, nil)
	h.repo.On("ResolveProposal", mock.Anything, proposal.Id,
		models.ProposalStatusValidated, "reviewer", (*string)(nil)).Return(int64(1), nil)
	h.eventRepo.On("CreateEvent", mock.Anything, mock.MatchedBy(func(appended models.Event) bool {
		return appended.Type.Stage == models.StageApproved &&
			appended.Type.Action == models.ActionDelete &&
			appended.ActorId == "reviewer" &&
			appended.CausationId.ValueOrZero() == originatingEvent.Id.String() &&
			gjson.GetBytes(appended.Metadata, "workspaceId").String() == proposalWorkspaceId.String() &&
			gjson.GetBytes(appended.Metadata, "proposalId").String() == proposal.Id.String()
	})).Return(nil)
	h.taskQueue.On("EnqueueEventDispatchTx", mock.Anything, mock.Anything).Return(nil)

	err := h.manager.Resolve(context.Background(), proposal.Id,
		models.ProposalDecisionApprove, "reviewer", nil)

	assert.NoError(t, err)
	h.repo.AssertExpectations(t)
	h.eventRepo.AssertExpectations(t)
}

func TestProposalManagerReject(t *testing.T) {
	h := newProposalManagerTestHarness()
	proposal, originatingEvent := pendingProposalFixture()
	reason := "not allowed in production"

	h.repo.On("GetProposalById", mock.Anything, proposal.Id).Return(proposal, nil)
	h.repo.On("GetEventById", mock.Anything, originatingEvent.Id).Return(originatingEvent, nil)
	h.repo.On("ResolveProposal", mock.Anything, proposal.Id,
		models.ProposalStatusRejected, "reviewer", &reason).Return(int64(1), nil)
	h.eventRepo.On("CreateEvent", mock.Anything, mock.MatchedBy(func(appended models.Event) bool {
		return appended.Type.Stage == models.StageRejected
	})).Return(nil)
	h.taskQueue.On("EnqueueEventDispatchTx", mock.Anything, mock.Anything).Return(nil)

	err := h.manager.Resolve(context.Background(), proposal.Id,
		models.ProposalDecisionReject, "reviewer", &reason)

	assert.NoError(t, err)
	h.repo.AssertExpectations(t)
	h.eventRepo.AssertExpectations(t)
}

func TestProposalManagerResolveTwiceFails(t *testing.T) {
	h := newProposalManagerTestHarness()
	proposal, originatingEvent := pendingProposalFixture()
	proposal.Status = models.ProposalStatusValidated

	h.repo.On("GetProposalById", mock.Anything, proposal.Id).Return(proposal, nil)
	h.repo.On("GetEventById", mock.Anything, originatingEvent.Id).Return(originatingEvent, nil)
	h.repo.On("ResolveProposal", mock.Anything, proposal.Id,
		models.ProposalStatusValidated, "reviewer", (*string)(nil)).Return(int64(0), nil)

	err := h.manager.Resolve(context.Background(), proposal.Id,
		models.ProposalDecisionApprove, "reviewer", nil)

	assert.True(t, errors.Is(err, models.ErrProposalAlreadyResolved))
	h.eventRepo.AssertNotCalled(t, "CreateEvent", mock.Anything, mock.Anything)
}

func TestProposalManagerRejectsUnknownDecision(t *testing.T) {
	h := newProposalManagerTestHarness()

	err := h.manager.Resolve(context.Background(), uuid.Must(uuid.NewV7()),
		models.ProposalDecision("defer"), "reviewer", nil)

	assert.True(t, errors.Is(err, models.BadParameterError))
	h.repo.AssertNotCalled(t, "GetProposalById", mock.Anything, mock.Anything)
}
