package repositories

import (
	"context"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/riverqueue/river"

	"github.com/quillhq/quill-backend/models"
)

const (
	// Handler invocations use river's own backoff then dead-letter through
	// the invocation row, so give river enough attempts to cover transient
	// storage errors plus the handler retry budget.
	maxAttemptsHandlerInvocation = 8
	maxAttemptsEventDispatch     = 6

	// Webhook delivery retries are managed by the worker itself (fixed
	// schedule, attempt rows); river attempts only cover infrastructure
	// errors before the HTTP send is reached.
	maxAttemptsWebhookDelivery = 6
)

type TaskQueueRepository interface {
	EnqueueEventDispatch(ctx context.Context, eventId uuid.UUID) error
	EnqueueEventDispatchTx(ctx context.Context, tx Transaction, eventId uuid.UUID) error
	EnqueueHandlerInvocation(ctx context.Context, tx Transaction, args models.HandlerInvocationArgs) error
	EnqueueWebhookDelivery(ctx context.Context, tx Transaction, deliveryId uuid.UUID) error
	EnqueueWebhookDeliveryAt(ctx context.Context, tx Transaction, deliveryId uuid.UUID, scheduledAt time.Time) error
}

type riverRepository struct {
	client *river.Client[pgx.Tx]
}

func NewTaskQueueRepository(client *river.Client[pgx.Tx]) riverRepository {
	return riverRepository{client: client}
}

func (r riverRepository) EnqueueEventDispatch(ctx context.Context, eventId uuid.UUID) error {
	_, err := r.client.Insert(ctx, models.EventDispatchArgs{
		EventId: eventId,
	}, &river.InsertOpts{
		MaxAttempts: maxAttemptsEventDispatch,
		UniqueOpts:  river.UniqueOpts{ByArgs: true},
	})
	return errors.Wrap(err, "failed to enqueue event dispatch task")
}

func (r riverRepository) EnqueueEventDispatchTx(ctx context.Context, tx Transaction, eventId uuid.UUID) error {
	_, err := r.client.InsertTx(ctx, tx.RawTx(), models.EventDispatchArgs{
		EventId: eventId,
	}, &river.InsertOpts{
		MaxAttempts: maxAttemptsEventDispatch,
		UniqueOpts:  river.UniqueOpts{ByArgs: true},
	})
	return errors.Wrap(err, "failed to enqueue event dispatch task")
}

func (r riverRepository) EnqueueHandlerInvocation(ctx context.Context, tx Transaction, args models.HandlerInvocationArgs) error {
	_, err := r.client.InsertTx(ctx, tx.RawTx(), args, &river.InsertOpts{
		MaxAttempts: maxAttemptsHandlerInvocation,
		UniqueOpts:  river.UniqueOpts{ByArgs: true},
	})
	return errors.Wrap(err, "failed to enqueue handler invocation task")
}

func (r riverRepository) EnqueueWebhookDelivery(ctx context.Context, tx Transaction, deliveryId uuid.UUID) error {
	_, err := r.client.InsertTx(ctx, tx.RawTx(), models.WebhookDeliveryArgs{
		DeliveryId: deliveryId,
	}, &river.InsertOpts{
		MaxAttempts: maxAttemptsWebhookDelivery,
	})
	return errors.Wrap(err, "failed to enqueue webhook delivery task")
}

func (r riverRepository) EnqueueWebhookDeliveryAt(ctx context.Context, tx Transaction, deliveryId uuid.UUID, scheduledAt time.Time) error {
	_, err := r.client.InsertTx(ctx, tx.RawTx(), models.WebhookDeliveryArgs{
		DeliveryId: deliveryId,
	}, &river.InsertOpts{
		MaxAttempts: maxAttemptsWebhookDelivery,
		ScheduledAt: scheduledAt,
	})
	return errors.Wrap(err, "failed to enqueue scheduled webhook delivery task")
}
