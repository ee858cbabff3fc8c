package usecases

import (
	"context"

	"github.com/cockroachdb/errors"
	"github.com/google/uuid"

	"github.com/quillhq/quill-backend/models"
	"github.com/quillhq/quill-backend/repositories"
	"github.com/quillhq/quill-backend/usecases/executor_factory"
	"github.com/quillhq/quill-backend/utils"
)

const HandlerKeyWebhookBroker = "webhook_broker"

type webhookBrokerRepository interface {
	ListActiveWebhookSubscriptions(ctx context.Context, exec repositories.Executor, workspaceId uuid.UUID) ([]models.WebhookSubscription, error)
	WebhookDeliveryExists(ctx context.Context, exec repositories.Executor, eventId, subscriptionId uuid.UUID) (bool, error)
	CreateWebhookDelivery(ctx context.Context, exec repositories.Executor, delivery models.WebhookDelivery) error
}

type webhookBrokerTaskQueue interface {
	EnqueueWebhookDelivery(ctx context.Context, tx repositories.Transaction, deliveryId uuid.UUID) error
}

// WebhookBroker fans a validated event out to the matching subscriptions of
// its workspace. It only creates delivery records and jobs; the actual HTTP
// sends run in the delivery worker, off this handler's path.
type WebhookBroker struct {
	repository         webhookBrokerRepository
	taskQueue          webhookBrokerTaskQueue
	executorFactory    executor_factory.ExecutorFactory
	transactionFactory executor_factory.TransactionFactory
}

func NewWebhookBroker(
	repository webhookBrokerRepository,
	taskQueue webhookBrokerTaskQueue,
	executorFactory executor_factory.ExecutorFactory,
	transactionFactory executor_factory.TransactionFactory,
) WebhookBroker {
	return WebhookBroker{
		repository:         repository,
		taskQueue:          taskQueue,
		executorFactory:    executorFactory,
		transactionFactory: transactionFactory,
	}
}

func (b WebhookBroker) HandleValidatedEvent(ctx context.Context, event models.Event) error {
	if event.Type.Stage != models.StageValidated {
		return nil
	}
	logger := utils.LoggerFromContext(ctx)
	exec := b.executorFactory.NewExecutor()

	workspaceId := workspaceIdFromMetadata(event.Metadata)
	if workspaceId == uuid.Nil {
		logger.DebugContext(ctx, "validated event has no workspace, skipping webhook fan-out",
			"event_id", event.Id)
		return nil
	}

	subscriptions, err := b.repository.ListActiveWebhookSubscriptions(ctx, exec, workspaceId)
	if err != nil {
		return err
	}

	eventType := event.Type.String()
	for _, sub := range subscriptions {
		if !matchesAnyPattern(sub.EventTypePatterns, eventType) {
			continue
		}

		exists, err := b.repository.WebhookDeliveryExists(ctx, exec, event.Id, sub.Id)
		if err != nil {
			return err
		}
		if exists {
			continue
		}

		delivery := models.WebhookDelivery{
			Id:             uuid.Must(uuid.NewV7()),
			SubscriptionId: sub.Id,
			EventId:        event.Id,
			Status:         models.WebhookDeliveryStatusPending,
		}
		err = b.transactionFactory.Transaction(ctx, func(tx repositories.Transaction) error {
			if err := b.repository.CreateWebhookDelivery(ctx, tx, delivery); err != nil {
				return err
			}
			return b.taskQueue.EnqueueWebhookDelivery(ctx, tx, delivery.Id)
		})
		if err != nil {
			if repositories.IsUniqueViolationError(err) {
				continue
			}
			return errors.Wrapf(err, "failed to create delivery for subscription %s", sub.Id)
		}

		logger.DebugContext(ctx, "created webhook delivery",
			"delivery_id", delivery.Id, "subscription_id", sub.Id, "event_id", event.Id)
	}
	return nil
}

func matchesAnyPattern(patterns []string, eventType string) bool {
	for _, pattern := range patterns {
		if MatchEventType(pattern, eventType) {
			return true
		}
	}
	return false
}
