package repositories

import (
	"context"
	"time"

	"github.com/Masterminds/squirrel"
	"github.com/google/uuid"

	"github.com/quillhq/quill-backend/models"
	"github.com/quillhq/quill-backend/repositories/dbmodels"
)

func (repo QuillDbRepository) CreateWebhookSubscription(ctx context.Context, exec Executor, sub models.WebhookSubscription) error {
	_, err := ExecBuilder(ctx, exec, NewQueryBuilder().
		Insert(dbmodels.TABLE_WEBHOOK_SUBSCRIPTIONS).
		Columns("id", "workspace_id", "url", "event_type_patterns", "secret", "active").
		Values(sub.Id, sub.WorkspaceId, sub.Url, sub.EventTypePatterns, sub.Secret, sub.Active),
	)
	return err
}

func (repo QuillDbRepository) GetWebhookSubscription(ctx context.Context, exec Executor, id uuid.UUID) (models.WebhookSubscription, error) {
	return SqlToModel(ctx, exec, NewQueryBuilder().
		Select(dbmodels.SelectWebhookSubscriptionColumns...).
		From(dbmodels.TABLE_WEBHOOK_SUBSCRIPTIONS).
		Where(squirrel.Eq{"id": id}),
		dbmodels.AdaptWebhookSubscription,
	)
}

func (repo QuillDbRepository) ListWebhookSubscriptions(ctx context.Context, exec Executor, workspaceId uuid.UUID) ([]models.WebhookSubscription, error) {
	return SqlToListOfModels(ctx, exec, NewQueryBuilder().
		Select(dbmodels.SelectWebhookSubscriptionColumns...).
		From(dbmodels.TABLE_WEBHOOK_SUBSCRIPTIONS).
		Where(squirrel.Eq{"workspace_id": workspaceId}).
		OrderBy("created_at desc"),
		dbmodels.AdaptWebhookSubscription,
	)
}

// ListActiveWebhookSubscriptions returns the active subscriptions of a
// workspace. Pattern matching against the event type happens in the broker,
// not in SQL.
func (repo QuillDbRepository) ListActiveWebhookSubscriptions(ctx context.Context, exec Executor, workspaceId uuid.UUID) ([]models.WebhookSubscription, error) {
	return SqlToListOfModels(ctx, exec, NewQueryBuilder().
		Select(dbmodels.SelectWebhookSubscriptionColumns...).
		From(dbmodels.TABLE_WEBHOOK_SUBSCRIPTIONS).
		Where(squirrel.Eq{"workspace_id": workspaceId}).
		Where(squirrel.Eq{"active": true}),
		dbmodels.AdaptWebhookSubscription,
	)
}

func (repo QuillDbRepository) UpdateWebhookSubscription(ctx context.Context, exec Executor, sub models.WebhookSubscription) error {
	_, err := ExecBuilder(ctx, exec, NewQueryBuilder().
		Update(dbmodels.TABLE_WEBHOOK_SUBSCRIPTIONS).
		Set("url", sub.Url).
		Set("event_type_patterns", sub.EventTypePatterns).
		Set("active", sub.Active).
		Where(squirrel.Eq{"id": sub.Id}),
	)
	return err
}

func (repo QuillDbRepository) DeleteWebhookSubscription(ctx context.Context, exec Executor, id uuid.UUID) error {
	_, err := ExecBuilder(ctx, exec, NewQueryBuilder().
		Delete(dbmodels.TABLE_WEBHOOK_SUBSCRIPTIONS).
		Where(squirrel.Eq{"id": id}),
	)
	return err
}

func (repo QuillDbRepository) CreateWebhookDelivery(ctx context.Context, exec Executor, delivery models.WebhookDelivery) error {
	_, err := ExecBuilder(ctx, exec, NewQueryBuilder().
		Insert(dbmodels.TABLE_WEBHOOK_DELIVERIES).
		Columns("id", "subscription_id", "event_id", "status", "attempts").
		Values(delivery.Id, delivery.SubscriptionId, delivery.EventId,
			string(delivery.Status), delivery.Attempts),
	)
	return err
}

func (repo QuillDbRepository) GetWebhookDelivery(ctx context.Context, exec Executor, id uuid.UUID) (models.WebhookDelivery, error) {
	return SqlToModel(ctx, exec, NewQueryBuilder().
		Select(dbmodels.SelectWebhookDeliveryColumns...).
		From(dbmodels.TABLE_WEBHOOK_DELIVERIES).
		Where(squirrel.Eq{"id": id}),
		dbmodels.AdaptWebhookDelivery,
	)
}

func (repo QuillDbRepository) WebhookDeliveryExists(ctx context.Context, exec Executor, eventId, subscriptionId uuid.UUID) (bool, error) {
	query := NewQueryBuilder().
		Select("count(*)").
		From(dbmodels.TABLE_WEBHOOK_DELIVERIES).
		Where(squirrel.Eq{"event_id": eventId}).
		Where(squirrel.Eq{"subscription_id": subscriptionId})

	sql, args, err := query.ToSql()
	if err != nil {
		return false, err
	}
	var count int
	if err := exec.QueryRow(ctx, sql, args...).Scan(&count); err != nil {
		return false, err
	}
	return count > 0, nil
}

func (repo QuillDbRepository) UpdateWebhookDeliveryStatus(
	ctx context.Context,
	exec Executor,
	id uuid.UUID,
	status models.WebhookDeliveryStatus,
	attempts int,
	lastError *string,
	nextAttemptAt *time.Time,
) error {
	_, err := ExecBuilder(ctx, exec, NewQueryBuilder().
		Update(dbmodels.TABLE_WEBHOOK_DELIVERIES).
		Set("status", string(status)).
		Set("attempts", attempts).
		Set("last_error", lastError).
		Set("next_attempt_at", nextAttemptAt).
		Set("updated_at", time.Now()).
		Where(squirrel.Eq{"id": id}),
	)
	return err
}

func (repo QuillDbRepository) CreateDeliveryAttempt(ctx context.Context, exec Executor, attempt models.DeliveryAttempt) error {
	_, err := ExecBuilder(ctx, exec, NewQueryBuilder().
		Insert(dbmodels.TABLE_DELIVERY_ATTEMPTS).
		Columns("id", "delivery_id", "subscription_id", "event_id",
			"attempt_number", "status", "last_error", "next_attempt_at").
		Values(attempt.Id, attempt.DeliveryId, attempt.SubscriptionId, attempt.EventId,
			attempt.AttemptNumber, string(attempt.Status), attempt.LastError, attempt.NextAttemptAt),
	)
	return err
}

func (repo QuillDbRepository) ListDeliveryAttempts(ctx context.Context, exec Executor, deliveryId uuid.UUID) ([]models.DeliveryAttempt, error) {
	return SqlToListOfModels(ctx, exec, NewQueryBuilder().
		Select(dbmodels.SelectDeliveryAttemptColumns...).
		From(dbmodels.TABLE_DELIVERY_ATTEMPTS).
		Where(squirrel.Eq{"delivery_id": deliveryId}).
		OrderBy("attempt_number asc"),
		dbmodels.AdaptDeliveryAttempt,
	)
}

var terminalDeliveryStatuses = []string{
	string(models.WebhookDeliveryStatusSuccess),
	string(models.WebhookDeliveryStatusDeadLettered),
}

// DeleteOldDeliveryAttempts removes the attempt rows of terminal deliveries
// past the retention window. Runs before DeleteOldWebhookDeliveries so the
// foreign key does not block the delivery rows.
func (repo QuillDbRepository) DeleteOldDeliveryAttempts(
	ctx context.Context,
	exec Executor,
	olderThan time.Time,
) (int64, error) {
	return ExecBuilder(ctx, exec, NewQueryBuilder().
		Delete(dbmodels.TABLE_DELIVERY_ATTEMPTS).
		Where(`delivery_id in (select id from `+dbmodels.TABLE_WEBHOOK_DELIVERIES+
			` where status = any(?) and updated_at < ?)`,
			terminalDeliveryStatuses, olderThan),
	)
}

func (repo QuillDbRepository) DeleteOldWebhookDeliveries(
	ctx context.Context,
	exec Executor,
	olderThan time.Time,
) (int64, error) {
	return ExecBuilder(ctx, exec, NewQueryBuilder().
		Delete(dbmodels.TABLE_WEBHOOK_DELIVERIES).
		Where(squirrel.Eq{"status": terminalDeliveryStatuses}).
		Where(squirrel.Lt{"updated_at": olderThan}),
	)
}

func (repo QuillDbRepository) ListDeliveriesForSubscription(
	ctx context.Context,
	exec Executor,
	subscriptionId uuid.UUID,
	limit int,
) ([]models.WebhookDelivery, error) {
	return SqlToListOfModels(ctx, exec, NewQueryBuilder().
		Select(dbmodels.SelectWebhookDeliveryColumns...).
		From(dbmodels.TABLE_WEBHOOK_DELIVERIES).
		Where(squirrel.Eq{"subscription_id": subscriptionId}).
		OrderBy("created_at desc").
		Limit(uint64(limit)),
		dbmodels.AdaptWebhookDelivery,
	)
}
