package usecases

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"

	"github.com/quillhq/quill-backend/mocks"
	"github.com/quillhq/quill-backend/models"
	"github.com/quillhq/quill-backend/usecases/executor_factory"
)

type brokerTestHarness struct {
	broker    WebhookBroker
	repo      *mocks.WebhookRepository
	taskQueue *mocks.TaskQueueRepository
}

func newBrokerTestHarness() brokerTestHarness {
	repo := new(mocks.WebhookRepository)
	taskQueue := new(mocks.TaskQueueRepository)

	return brokerTestHarness{
		broker: NewWebhookBroker(repo, taskQueue,
			executor_factory.NewExecutorFactoryStub(),
			executor_factory.NewTransactionFactoryStub()),
		repo:      repo,
		taskQueue: taskQueue,
	}
}

func validatedEvent(workspaceId uuid.UUID) models.Event {
	return models.Event{
		Id: uuid.Must(uuid.NewV7()),
		Type: models.EventType{
			Table:  models.TableEntities,
			Action: models.ActionCreate,
			Stage:  models.StageValidated,
		},
		SubjectId: "entity-1",
		Metadata:  json.RawMessage(`{"workspaceId": "` + workspaceId.String() + `"}`),
	}
}

func TestWebhookBrokerFansOutToMatchingSubscriptions(t *testing.T) {
	h := newBrokerTestHarness()
	workspaceId := uuid.Must(uuid.NewV7())
	event := validatedEvent(workspaceId)

	matching := models.WebhookSubscription{
		Id:                uuid.Must(uuid.NewV7()),
		WorkspaceId:       workspaceId,
		EventTypePatterns: []string{"entities.*"},
		Active:            true,
	}
	nonMatching := models.WebhookSubscription{
		Id:                uuid.Must(uuid.NewV7()),
		WorkspaceId:       workspaceId,
		EventTypePatterns: []string{"relations.*"},
		Active:            true,
	}

	h.repo.On("ListActiveWebhookSubscriptions", mock.Anything, workspaceId).
		Return([]models.WebhookSubscription{matching, nonMatching}, nil)
	h.repo.On("WebhookDeliveryExists", mock.Anything, event.Id, matching.Id).Return(false, nil)
	h.repo.On("CreateWebhookDelivery", mock.Anything, mock.MatchedBy(func(delivery models.WebhookDelivery) bool {
		return delivery.SubscriptionId == matching.Id &&
			delivery.EventId == event.Id &&
			delivery.Status == models.WebhookDeliveryStatusPending
	})).Return(nil)
	h.taskQueue.On("EnqueueWebhookDelivery", mock.Anything, mock.Anything).Return(nil)

	err := h.broker.HandleValidatedEvent(context.Background(), event)

	assert.NoError(t, err)
	h.repo.AssertExpectations(t)
	h.repo.AssertNotCalled(t, "WebhookDeliveryExists", mock.Anything, event.Id, nonMatching.Id)
}

func TestWebhookBrokerSkipsExistingDeliveries(t *testing.T) {
	h := newBrokerTestHarness()
	workspaceId := uuid.Must(uuid.NewV7())
	event := validatedEvent(workspaceId)

	subscription := models.WebhookSubscription{
		Id:                uuid.Must(uuid.NewV7()),
		WorkspaceId:       workspaceId,
		EventTypePatterns: []string{"*"},
		Active:            true,
	}

	h.repo.On("ListActiveWebhookSubscriptions", mock.Anything, workspaceId).
		Return([]models.WebhookSubscription{subscription}, nil)
	h.repo.On("WebhookDeliveryExists", mock.Anything, event.Id, subscription.Id).Return(true, nil)

	err := h.broker.HandleValidatedEvent(context.Background(), event)

	assert.NoError(t, err)
	h.repo.AssertNotCalled(t, "CreateWebhookDelivery", mock.Anything, mock.Anything)
}

func TestWebhookBrokerSkipsEventsWithoutWorkspace(t *testing.T) {
	h := newBrokerTestHarness()
	event := validatedEvent(uuid.Must(uuid.NewV7()))
	event.Metadata = nil

	err := h.broker.HandleValidatedEvent(context.Background(), event)

	assert.NoError(t, err)
	h.repo.AssertNotCalled(t, "ListActiveWebhookSubscriptions", mock.Anything, mock.Anything)
}

func TestWebhookBrokerIgnoresNonValidatedStages(t *testing.T) {
	h := newBrokerTestHarness()
	event := validatedEvent(uuid.Must(uuid.NewV7()))
	event.Type.Stage = models.StageApproved

	err := h.broker.HandleValidatedEvent(context.Background(), event)

	assert.NoError(t, err)
	h.repo.AssertNotCalled(t, "ListActiveWebhookSubscriptions", mock.Anything, mock.Anything)
}
