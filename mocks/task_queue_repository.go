package mocks

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/mock"

	"github.com/quillhq/quill-backend/models"
	"github.com/quillhq/quill-backend/repositories"
)

type TaskQueueRepository struct {
	mock.Mock
}

func (r *TaskQueueRepository) EnqueueEventDispatch(ctx context.Context, eventId uuid.UUID) error {
	args := r.Called(eventId)
	return args.Error(0)
}

func (r *TaskQueueRepository) EnqueueEventDispatchTx(ctx context.Context, tx repositories.Transaction, eventId uuid.UUID) error {
	args := r.Called(tx, eventId)
	return args.Error(0)
}

func (r *TaskQueueRepository) EnqueueHandlerInvocation(
	ctx context.Context,
	tx repositories.Transaction,
	jobArgs models.HandlerInvocationArgs,
) error {
	args := r.Called(tx, jobArgs)
	return args.Error(0)
}

func (r *TaskQueueRepository) EnqueueWebhookDelivery(ctx context.Context, tx repositories.Transaction, deliveryId uuid.UUID) error {
	args := r.Called(tx, deliveryId)
	return args.Error(0)
}

func (r *TaskQueueRepository) EnqueueWebhookDeliveryAt(ctx context.Context, tx repositories.Transaction, deliveryId uuid.UUID, scheduledAt time.Time) error {
	args := r.Called(tx, deliveryId, scheduledAt)
	return args.Error(0)
}
