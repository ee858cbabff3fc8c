package models

import (
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/guregu/null/v5"
)

// WebhookSubscription is an external delivery target. Managed by workspace
// admins through the API; the broker only ever reads it.
type WebhookSubscription struct {
	Id                uuid.UUID
	WorkspaceId       uuid.UUID
	Url               string
	EventTypePatterns []string
	Secret            string
	Active            bool
	CreatedAt         time.Time
}

type WebhookDeliveryStatus string

const (
	WebhookDeliveryStatusPending      WebhookDeliveryStatus = "pending"
	WebhookDeliveryStatusSuccess      WebhookDeliveryStatus = "success"
	WebhookDeliveryStatusFailed       WebhookDeliveryStatus = "failed"
	WebhookDeliveryStatusDeadLettered WebhookDeliveryStatus = "dead_lettered"
)

func WebhookDeliveryStatusFrom(s string) WebhookDeliveryStatus {
	switch WebhookDeliveryStatus(s) {
	case WebhookDeliveryStatusPending, WebhookDeliveryStatusSuccess,
		WebhookDeliveryStatusFailed, WebhookDeliveryStatusDeadLettered:
		return WebhookDeliveryStatus(s)
	}
	panic(fmt.Errorf("unknown webhook delivery status: %s", s))
}

// WebhookDelivery tracks the delivery of one event to one subscription. The
// delivery job owns its retry schedule; each individual try is recorded as a
// DeliveryAttempt row.
type WebhookDelivery struct {
	Id             uuid.UUID
	SubscriptionId uuid.UUID
	EventId        uuid.UUID
	Status         WebhookDeliveryStatus
	Attempts       int
	LastError      null.String
	NextAttemptAt  null.Time
	CreatedAt      time.Time
	UpdatedAt      time.Time
}

// DeliveryAttempt is the bookkeeping row for a single HTTP try.
type DeliveryAttempt struct {
	Id             uuid.UUID
	DeliveryId     uuid.UUID
	SubscriptionId uuid.UUID
	EventId        uuid.UUID
	AttemptNumber  int
	Status         WebhookDeliveryStatus
	LastError      null.String
	NextAttemptAt  null.Time
	CreatedAt      time.Time
}
