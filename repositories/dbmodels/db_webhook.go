package dbmodels

import (
	"time"

	"github.com/google/uuid"
	"github.com/guregu/null/v5"

	"github.com/quillhq/quill-backend/models"
	"github.com/quillhq/quill-backend/utils"
)

type DbWebhookSubscription struct {
	Id                uuid.UUID `db:"id"`
	WorkspaceId       uuid.UUID `db:"workspace_id"`
	Url               string    `db:"url"`
	EventTypePatterns []string  `db:"event_type_patterns"`
	Secret            string    `db:"secret"`
	Active            bool      `db:"active"`
	CreatedAt         time.Time `db:"created_at"`
}

const TABLE_WEBHOOK_SUBSCRIPTIONS = "webhook_subscriptions"

var SelectWebhookSubscriptionColumns = utils.ColumnList[DbWebhookSubscription]()

func AdaptWebhookSubscription(db DbWebhookSubscription) (models.WebhookSubscription, error) {
	return models.WebhookSubscription{
		Id:                db.Id,
		WorkspaceId:       db.WorkspaceId,
		Url:               db.Url,
		EventTypePatterns: db.EventTypePatterns,
		Secret:            db.Secret,
		Active:            db.Active,
		CreatedAt:         db.CreatedAt,
	}, nil
}

type DbWebhookDelivery struct {
	Id             uuid.UUID   `db:"id"`
	SubscriptionId uuid.UUID   `db:"subscription_id"`
	EventId        uuid.UUID   `db:"event_id"`
	Status         string      `db:"status"`
	Attempts       int         `db:"attempts"`
	LastError      null.String `db:"last_error"`
	NextAttemptAt  null.Time   `db:"next_attempt_at"`
	CreatedAt      time.Time   `db:"created_at"`
	UpdatedAt      time.Time   `db:"updated_at"`
}

const TABLE_WEBHOOK_DELIVERIES = "webhook_deliveries"

var SelectWebhookDeliveryColumns = utils.ColumnList[DbWebhookDelivery]()

func AdaptWebhookDelivery(db DbWebhookDelivery) (models.WebhookDelivery, error) {
	return models.WebhookDelivery{
		Id:             db.Id,
		SubscriptionId: db.SubscriptionId,
		EventId:        db.EventId,
		Status:         models.WebhookDeliveryStatusFrom(db.Status),
		Attempts:       db.Attempts,
		LastError:      db.LastError,
		NextAttemptAt:  db.NextAttemptAt,
		CreatedAt:      db.CreatedAt,
		UpdatedAt:      db.UpdatedAt,
	}, nil
}

type DbDeliveryAttempt struct {
	Id             uuid.UUID   `db:"id"`
	DeliveryId     uuid.UUID   `db:"delivery_id"`
	SubscriptionId uuid.UUID   `db:"subscription_id"`
	EventId        uuid.UUID   `db:"event_id"`
	AttemptNumber  int         `db:"attempt_number"`
	Status         string      `db:"status"`
	LastError      null.String `db:"last_error"`
	NextAttemptAt  null.Time   `db:"next_attempt_at"`
	CreatedAt      time.Time   `db:"created_at"`
}

const TABLE_DELIVERY_ATTEMPTS = "webhook_delivery_attempts"

var SelectDeliveryAttemptColumns = utils.ColumnList[DbDeliveryAttempt]()

func AdaptDeliveryAttempt(db DbDeliveryAttempt) (models.DeliveryAttempt, error) {
	return models.DeliveryAttempt{
		Id:             db.Id,
		DeliveryId:     db.DeliveryId,
		SubscriptionId: db.SubscriptionId,
		EventId:        db.EventId,
		AttemptNumber:  db.AttemptNumber,
		Status:         models.WebhookDeliveryStatusFrom(db.Status),
		LastError:      db.LastError,
		NextAttemptAt:  db.NextAttemptAt,
		CreatedAt:      db.CreatedAt,
	}, nil
}
