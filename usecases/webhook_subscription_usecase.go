package usecases

import (
	"context"
	"crypto/rand"
	"encoding/hex"

	"github.com/cockroachdb/errors"
	"github.com/google/uuid"

	"github.com/quillhq/quill-backend/models"
	"github.com/quillhq/quill-backend/repositories"
	"github.com/quillhq/quill-backend/usecases/executor_factory"
)

type webhookSubscriptionRepository interface {
	CreateWebhookSubscription(ctx context.Context, exec repositories.Executor, sub models.WebhookSubscription) error
	GetWebhookSubscription(ctx context.Context, exec repositories.Executor, id uuid.UUID) (models.WebhookSubscription, error)
	ListWebhookSubscriptions(ctx context.Context, exec repositories.Executor, workspaceId uuid.UUID) ([]models.WebhookSubscription, error)
	UpdateWebhookSubscription(ctx context.Context, exec repositories.Executor, sub models.WebhookSubscription) error
	DeleteWebhookSubscription(ctx context.Context, exec repositories.Executor, id uuid.UUID) error
	ListDeliveriesForSubscription(ctx context.Context, exec repositories.Executor, subscriptionId uuid.UUID, limit int) ([]models.WebhookDelivery, error)
	ListDeliveryAttempts(ctx context.Context, exec repositories.Executor, deliveryId uuid.UUID) ([]models.DeliveryAttempt, error)
}

type WebhookSubscriptionUsecase struct {
	repository      webhookSubscriptionRepository
	executorFactory executor_factory.ExecutorFactory
}

func NewWebhookSubscriptionUsecase(
	repository webhookSubscriptionRepository,
	executorFactory executor_factory.ExecutorFactory,
) WebhookSubscriptionUsecase {
	return WebhookSubscriptionUsecase{
		repository:      repository,
		executorFactory: executorFactory,
	}
}

type CreateWebhookSubscriptionInput struct {
	WorkspaceId       uuid.UUID
	Url               string
	EventTypePatterns []string
}

// CreateSubscription registers a delivery target and generates its signing
// secret. The secret is returned once, on creation.
func (uc WebhookSubscriptionUsecase) CreateSubscription(
	ctx context.Context,
	input CreateWebhookSubscriptionInput,
) (models.WebhookSubscription, error) {
	if input.Url == "" {
		return models.WebhookSubscription{}, errors.Wrap(models.BadParameterError, "url is required")
	}
	if len(input.EventTypePatterns) == 0 {
		return models.WebhookSubscription{}, errors.Wrap(models.BadParameterError,
			"at least one event type pattern is required")
	}

	secret, err := generateWebhookSecret()
	if err != nil {
		return models.WebhookSubscription{}, err
	}

	subscription := models.WebhookSubscription{
		Id:                uuid.Must(uuid.NewV7()),
		WorkspaceId:       input.WorkspaceId,
		Url:               input.Url,
		EventTypePatterns: input.EventTypePatterns,
		Secret:            secret,
		Active:            true,
	}
	exec := uc.executorFactory.NewExecutor()
	if err := uc.repository.CreateWebhookSubscription(ctx, exec, subscription); err != nil {
		return models.WebhookSubscription{}, err
	}
	return subscription, nil
}

func (uc WebhookSubscriptionUsecase) GetSubscription(ctx context.Context, id uuid.UUID) (models.WebhookSubscription, error) {
	return uc.repository.GetWebhookSubscription(ctx, uc.executorFactory.NewExecutor(), id)
}

func (uc WebhookSubscriptionUsecase) ListSubscriptions(
	ctx context.Context,
	workspaceId uuid.UUID,
) ([]models.WebhookSubscription, error) {
	return uc.repository.ListWebhookSubscriptions(ctx, uc.executorFactory.NewExecutor(), workspaceId)
}

type UpdateWebhookSubscriptionInput struct {
	Url               *string
	EventTypePatterns []string
	Active            *bool
}

func (uc WebhookSubscriptionUsecase) UpdateSubscription(
	ctx context.Context,
	id uuid.UUID,
	input UpdateWebhookSubscriptionInput,
) (models.WebhookSubscription, error) {
	exec := uc.executorFactory.NewExecutor()
	subscription, err := uc.repository.GetWebhookSubscription(ctx, exec, id)
	if err != nil {
		return models.WebhookSubscription{}, err
	}

	if input.Url != nil {
		subscription.Url = *input.Url
	}
	if input.EventTypePatterns != nil {
		subscription.EventTypePatterns = input.EventTypePatterns
	}
	if input.Active != nil {
		subscription.Active = *input.Active
	}

	if err := uc.repository.UpdateWebhookSubscription(ctx, exec, subscription); err != nil {
		return models.WebhookSubscription{}, err
	}
	return subscription, nil
}

func (uc WebhookSubscriptionUsecase) DeleteSubscription(ctx context.Context, id uuid.UUID) error {
	exec := uc.executorFactory.NewExecutor()
	if _, err := uc.repository.GetWebhookSubscription(ctx, exec, id); err != nil {
		return err
	}
	return uc.repository.DeleteWebhookSubscription(ctx, exec, id)
}

func (uc WebhookSubscriptionUsecase) ListDeliveries(
	ctx context.Context,
	subscriptionId uuid.UUID,
	limit int,
) ([]models.WebhookDelivery, error) {
	return uc.repository.ListDeliveriesForSubscription(ctx,
		uc.executorFactory.NewExecutor(), subscriptionId, limit)
}

// ListDeliveryAttempts returns the per-try history of one delivery, in
// attempt order.
func (uc WebhookSubscriptionUsecase) ListDeliveryAttempts(
	ctx context.Context,
	deliveryId uuid.UUID,
) ([]models.DeliveryAttempt, error) {
	return uc.repository.ListDeliveryAttempts(ctx, uc.executorFactory.NewExecutor(), deliveryId)
}

func generateWebhookSecret() (string, error) {
	raw := make([]byte, 32)
	if _, err := rand.Read(raw); err != nil {
		return "", errors.Wrap(err, "failed to generate webhook secret")
	}
	return hex.EncodeToString(raw), nil
}
