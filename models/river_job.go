package models

import (
	"github.com/google/uuid"
)

// Stage 1: route a freshly appended event to its subscribed handlers.
type EventDispatchArgs struct {
	EventId uuid.UUID `json:"event_id"`
}

func (EventDispatchArgs) Kind() string { return "event_dispatch" }

// Stage 2: run one handler against one event, with isolated retry.
type HandlerInvocationArgs struct {
	InvocationId uuid.UUID `json:"invocation_id"`
	HandlerKey   string    `json:"handler_key"`
	EventId      uuid.UUID `json:"event_id"`
}

func (HandlerInvocationArgs) Kind() string { return "handler_invocation" }

// One HTTP delivery of one event to one webhook subscription.
type WebhookDeliveryArgs struct {
	DeliveryId uuid.UUID `json:"delivery_id"`
}

func (WebhookDeliveryArgs) Kind() string { return "webhook_delivery" }

// Periodic sweep re-signalling events whose dispatch signal was lost.
type DispatchSweepArgs struct{}

func (DispatchSweepArgs) Kind() string { return "dispatch_sweep" }

// Periodic pruning of processed markers and terminal webhook deliveries.
type RetentionCleanupArgs struct{}

func (RetentionCleanupArgs) Kind() string { return "retention_cleanup" }
