package mocks

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/mock"

	"github.com/quillhq/quill-backend/models"
	"github.com/quillhq/quill-backend/repositories"
)

// WebhookRepository covers both the broker and the delivery sender surface.
type WebhookRepository struct {
	mock.Mock
}

func (r *WebhookRepository) ListActiveWebhookSubscriptions(
	ctx context.Context,
	exec repositories.Executor,
	workspaceId uuid.UUID,
) ([]models.WebhookSubscription, error) {
	args := r.Called(exec, workspaceId)
	return args.Get(0).([]models.WebhookSubscription), args.Error(1)
}

func (r *WebhookRepository) WebhookDeliveryExists(
	ctx context.Context,
	exec repositories.Executor,
	eventId, subscriptionId uuid.UUID,
) (bool, error) {
	args := r.Called(exec, eventId, subscriptionId)
	return args.Bool(0), args.Error(1)
}

func (r *WebhookRepository) CreateWebhookDelivery(
	ctx context.Context,
	exec repositories.Executor,
	delivery models.WebhookDelivery,
) error {
	args := r.Called(exec, delivery)
	return args.Error(0)
}

func (r *WebhookRepository) CreateWebhookSubscription(
	ctx context.Context,
	exec repositories.Executor,
	sub models.WebhookSubscription,
) error {
	args := r.Called(exec, sub)
	return args.Error(0)
}

func (r *WebhookRepository) ListWebhookSubscriptions(
	ctx context.Context,
	exec repositories.Executor,
	workspaceId uuid.UUID,
) ([]models.WebhookSubscription, error) {
	args := r.Called(exec, workspaceId)
	return args.Get(0).([]models.WebhookSubscription), args.Error(1)
}

func (r *WebhookRepository) UpdateWebhookSubscription(
	ctx context.Context,
	exec repositories.Executor,
	sub models.WebhookSubscription,
) error {
	args := r.Called(exec, sub)
	return args.Error(0)
}

func (r *WebhookRepository) DeleteWebhookSubscription(
	ctx context.Context,
	exec repositories.Executor,
	id uuid.UUID,
) error {
	args := r.Called(exec, id)
	return args.Error(0)
}

func (r *WebhookRepository) ListDeliveriesForSubscription(
	ctx context.Context,
	exec repositories.Executor,
	subscriptionId uuid.UUID,
	limit int,
) ([]models.WebhookDelivery, error) {
	args := r.Called(exec, subscriptionId, limit)
	return args.Get(0).([]models.WebhookDelivery), args.Error(1)
}

func (r *WebhookRepository) ListDeliveryAttempts(
	ctx context.Context,
	exec repositories.Executor,
	deliveryId uuid.UUID,
) ([]models.DeliveryAttempt, error) {
	args := r.Called(exec, deliveryId)
	return args.Get(0).([]models.DeliveryAttempt), args.Error(1)
}

func (r *WebhookRepository) GetWebhookDelivery(
	ctx context.Context,
	exec repositories.Executor,
	id uuid.UUID,
) (models.WebhookDelivery, error) {
	args := r.Called(exec, id)
	return args.Get(0).(models.WebhookDelivery), args.Error(1)
}

func (r *WebhookRepository) GetWebhookSubscription(
	ctx context.Context,
	exec repositories.Executor,
	id uuid.UUID,
) (models.WebhookSubscription, error) {
	args := r.Called(exec, id)
	return args.Get(0).(models.WebhookSubscription), args.Error(1)
}

func (r *WebhookRepository) GetEventById(
	ctx context.Context,
	exec repositories.Executor,
	eventId uuid.UUID,
) (models.Event, error) {
	args := r.Called(exec, eventId)
	return args.Get(0).(models.Event), args.Error(1)
}

func (r *WebhookRepository) UpdateWebhookDeliveryStatus(
	ctx context.Context,
	exec repositories.Executor,
	id uuid.UUID,
	status models.WebhookDeliveryStatus,
	attempts int,
	lastError *string,
	nextAttemptAt *time.Time,
) error {
	args := r.Called(exec, id, status, attempts, lastError, nextAttemptAt)
	return args.Error(0)
}

func (r *WebhookRepository) CreateDeliveryAttempt(
	ctx context.Context,
	exec repositories.Executor,
	attempt models.DeliveryAttempt,
) error {
	args := r.Called(exec, attempt)
	return args.Error(0)
}
