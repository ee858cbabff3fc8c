package infra

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Pipeline counters. Labels stay low-cardinality: table families and stages
// come from the static registry, handler keys from the startup subscription
// list.
var (
	EventsAppended = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "quill",
		Subsystem: "pipeline",
		Name:      "events_appended_total",
		Help:      "Events appended to the log, by table family and stage.",
	}, []string{"table", "stage"})

	EventsDispatched = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "quill",
		Subsystem: "pipeline",
		Name:      "events_dispatched_total",
		Help:      "Events routed to subscribed handlers.",
	}, []string{"handler"})

	HandlerInvocations = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "quill",
		Subsystem: "pipeline",
		Name:      "handler_invocations_total",
		Help:      "Handler invocation outcomes.",
	}, []string{"handler", "outcome"})

	PolicyDecisions = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "quill",
		Subsystem: "pipeline",
		Name:      "policy_decisions_total",
		Help:      "Permission validator decisions, by outcome and policy source.",
	}, []string{"outcome", "source"})

	WebhookDeliveries = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "quill",
		Subsystem: "pipeline",
		Name:      "webhook_deliveries_total",
		Help:      "Webhook delivery outcomes.",
	}, []string{"outcome"})
)
