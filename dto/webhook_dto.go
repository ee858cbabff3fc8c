package dto

import (
	"time"

	"github.com/quillhq/quill-backend/models"
)

type WebhookSubscription struct {
	Id                string    `json:"id"`
	WorkspaceId       string    `json:"workspace_id"`
	Url               string    `json:"url"`
	EventTypePatterns []string  `json:"event_type_patterns"`
	Active            bool      `json:"active"`
	CreatedAt         time.Time `json:"created_at"`

	// Secret is only populated in the creation response.
	Secret string `json:"secret,omitempty"`
}

func AdaptWebhookSubscriptionDto(sub models.WebhookSubscription) WebhookSubscription {
	return WebhookSubscription{
		Id:                sub.Id.String(),
		WorkspaceId:       sub.WorkspaceId.String(),
		Url:               sub.Url,
		EventTypePatterns: sub.EventTypePatterns,
		Active:            sub.Active,
		CreatedAt:         sub.CreatedAt,
	}
}

func AdaptWebhookSubscriptionWithSecretDto(sub models.WebhookSubscription) WebhookSubscription {
	out := AdaptWebhookSubscriptionDto(sub)
	out.Secret = sub.Secret
	return out
}

type CreateWebhookSubscriptionBody struct {
	Url               string   `json:"url" binding:"required,url"`
	EventTypePatterns []string `json:"event_type_patterns" binding:"required,min=1"`
}

type UpdateWebhookSubscriptionBody struct {
	Url               *string  `json:"url"`
	EventTypePatterns []string `json:"event_type_patterns"`
	Active            *bool    `json:"active"`
}

type WebhookDelivery struct {
	Id             string     `json:"id"`
	SubscriptionId string     `json:"subscription_id"`
	EventId        string     `json:"event_id"`
	Status         string     `json:"status"`
	Attempts       int        `json:"attempts"`
	LastError      string     `json:"last_error,omitempty"`
	NextAttemptAt  *time.Time `json:"next_attempt_at,omitempty"`
	CreatedAt      time.Time  `json:"created_at"`
	UpdatedAt      time.Time  `json:"updated_at"`
}

func AdaptWebhookDeliveryDto(delivery models.WebhookDelivery) WebhookDelivery {
	out := WebhookDelivery{
		Id:             delivery.Id.String(),
		SubscriptionId: delivery.SubscriptionId.String(),
		EventId:        delivery.EventId.String(),
		Status:         string(delivery.Status),
		Attempts:       delivery.Attempts,
		LastError:      delivery.LastError.ValueOrZero(),
		CreatedAt:      delivery.CreatedAt,
		UpdatedAt:      delivery.UpdatedAt,
	}
	if delivery.NextAttemptAt.Valid {
		next := delivery.NextAttemptAt.Time
		out.NextAttemptAt = &next
	}
	return out
}

type DeliveryAttempt struct {
	Id            string     `json:"id"`
	DeliveryId    string     `json:"delivery_id"`
	AttemptNumber int        `json:"attempt_number"`
	Status        string     `json:"status"`
	LastError     string     `json:"last_error,omitempty"`
	NextAttemptAt *time.Time `json:"next_attempt_at,omitempty"`
	CreatedAt     time.Time  `json:"created_at"`
}

func AdaptDeliveryAttemptDto(attempt models.DeliveryAttempt) DeliveryAttempt {
	out := DeliveryAttempt{
		Id:            attempt.Id.String(),
		DeliveryId:    attempt.DeliveryId.String(),
		AttemptNumber: attempt.AttemptNumber,
		Status:        string(attempt.Status),
		LastError:     attempt.LastError.ValueOrZero(),
		CreatedAt:     attempt.CreatedAt,
	}
	if attempt.NextAttemptAt.Valid {
		next := attempt.NextAttemptAt.Time
		out.NextAttemptAt = &next
	}
	return out
}
