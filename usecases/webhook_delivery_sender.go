package usecases

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/google/uuid"
	"github.com/guregu/null/v5"

	"github.com/quillhq/quill-backend/infra"
	"github.com/quillhq/quill-backend/models"
	"github.com/quillhq/quill-backend/repositories"
	"github.com/quillhq/quill-backend/usecases/executor_factory"
	"github.com/quillhq/quill-backend/utils"
)

const (
	// Retry schedule per delivery: an immediate try then three scheduled
	// retries, after which the delivery is dead-lettered.
	maxWebhookAttempts = 4

	webhookRequestTimeout = 10 * time.Second
)

var webhookRetrySchedule = []time.Duration{
	1 * time.Second,
	4 * time.Second,
	16 * time.Second,
}

type webhookDeliveryRepository interface {
	GetWebhookDelivery(ctx context.Context, exec repositories.Executor, id uuid.UUID) (models.WebhookDelivery, error)
	GetWebhookSubscription(ctx context.Context, exec repositories.Executor, id uuid.UUID) (models.WebhookSubscription, error)
	GetEventById(ctx context.Context, exec repositories.Executor, eventId uuid.UUID) (models.Event, error)
	UpdateWebhookDeliveryStatus(ctx context.Context, exec repositories.Executor, id uuid.UUID,
		status models.WebhookDeliveryStatus, attempts int, lastError *string, nextAttemptAt *time.Time) error
	CreateDeliveryAttempt(ctx context.Context, exec repositories.Executor, attempt models.DeliveryAttempt) error
}

type webhookDeliveryScheduler interface {
	EnqueueWebhookDeliveryAt(ctx context.Context, tx repositories.Transaction, deliveryId uuid.UUID, scheduledAt time.Time) error
}

// WebhookDeliverySender performs the HTTP sends for one delivery record,
// one attempt per call. Failed attempts schedule their own retry; the
// schedule is fixed and capped, never open-ended.
type WebhookDeliverySender struct {
	repository         webhookDeliveryRepository
	scheduler          webhookDeliveryScheduler
	executorFactory    executor_factory.ExecutorFactory
	transactionFactory executor_factory.TransactionFactory
	httpClient         *http.Client
}

func NewWebhookDeliverySender(
	repository webhookDeliveryRepository,
	scheduler webhookDeliveryScheduler,
	executorFactory executor_factory.ExecutorFactory,
	transactionFactory executor_factory.TransactionFactory,
) WebhookDeliverySender {
	return WebhookDeliverySender{
		repository:         repository,
		scheduler:          scheduler,
		executorFactory:    executorFactory,
		transactionFactory: transactionFactory,
		httpClient:         &http.Client{Timeout: webhookRequestTimeout},
	}
}

// webhookEnvelope is the wire shape posted to the subscriber endpoint.
type webhookEnvelope struct {
	Id            string          `json:"id"`
	SchemaVersion string          `json:"schemaVersion"`
	Type          string          `json:"type"`
	SubjectId     string          `json:"subjectId"`
	SubjectType   string          `json:"subjectType"`
	Data          json.RawMessage `json:"data"`
	Metadata      json.RawMessage `json:"metadata,omitempty"`
	ActorId       string          `json:"actorId"`
	Source        string          `json:"source"`
	Timestamp     time.Time       `json:"timestamp"`
	CorrelationId string          `json:"correlationId,omitempty"`
	CausationId   string          `json:"causationId,omitempty"`
	Delivery      struct {
		SubscriptionId string `json:"subscriptionId"`
		Attempt        int    `json:"attempt"`
	} `json:"delivery"`
}

func buildWebhookPayload(event models.Event, subscriptionId uuid.UUID, attempt int) ([]byte, error) {
	envelope := webhookEnvelope{
		Id:            event.Id.String(),
		SchemaVersion: event.SchemaVersion,
		Type:          event.Type.String(),
		SubjectId:     event.SubjectId,
		SubjectType:   event.SubjectType,
		Data:          event.Data,
		Metadata:      event.Metadata,
		ActorId:       event.ActorId,
		Source:        string(event.Source),
		Timestamp:     event.Timestamp,
		CorrelationId: event.CorrelationId.ValueOrZero(),
		CausationId:   event.CausationId.ValueOrZero(),
	}
	envelope.Delivery.SubscriptionId = subscriptionId.String()
	envelope.Delivery.Attempt = attempt
	return json.Marshal(envelope)
}

// ProcessDelivery runs one attempt for the delivery. It always records the
// attempt row and returns nil on a failed send: retries are driven by the
// schedule it enqueues, not by re-running this call.
func (s WebhookDeliverySender) ProcessDelivery(ctx context.Context, deliveryId uuid.UUID) error {
	logger := utils.LoggerFromContext(ctx)
	exec := s.executorFactory.NewExecutor()

	delivery, err := s.repository.GetWebhookDelivery(ctx, exec, deliveryId)
	if err != nil {
		return err
	}
	if delivery.Status == models.WebhookDeliveryStatusSuccess ||
		delivery.Status == models.WebhookDeliveryStatusDeadLettered {
		return nil
	}

	subscription, err := s.repository.GetWebhookSubscription(ctx, exec, delivery.SubscriptionId)
	if err != nil {
		return err
	}
	event, err := s.repository.GetEventById(ctx, exec, delivery.EventId)
	if err != nil {
		return err
	}

	attemptNumber := delivery.Attempts + 1
	payload, err := buildWebhookPayload(event, subscription.Id, attemptNumber)
	if err != nil {
		return err
	}

	sendErr := s.send(ctx, subscription, payload)

	attempt := models.DeliveryAttempt{
		Id:             uuid.Must(uuid.NewV7()),
		DeliveryId:     delivery.Id,
		SubscriptionId: subscription.Id,
		EventId:        event.Id,
		AttemptNumber:  attemptNumber,
	}

	// The attempt row, the delivery status and the retry job commit together:
	// a rerun of this call after a partial failure must not duplicate any of
	// them.
	if sendErr == nil {
		attempt.Status = models.WebhookDeliveryStatusSuccess
		err := s.transactionFactory.Transaction(ctx, func(tx repositories.Transaction) error {
			if err := s.repository.CreateDeliveryAttempt(ctx, tx, attempt); err != nil {
				return err
			}
			return s.repository.UpdateWebhookDeliveryStatus(ctx, tx, delivery.Id,
				models.WebhookDeliveryStatusSuccess, attemptNumber, nil, nil)
		})
		if err != nil {
			return err
		}
		infra.WebhookDeliveries.WithLabelValues("success").Inc()
		logger.InfoContext(ctx, "webhook delivered",
			"delivery_id", delivery.Id, "subscription_id", subscription.Id, "attempt", attemptNumber)
		return nil
	}

	errMessage := sendErr.Error()
	attempt.LastError = null.StringFrom(errMessage)

	if attemptNumber >= maxWebhookAttempts {
		attempt.Status = models.WebhookDeliveryStatusDeadLettered
		err := s.transactionFactory.Transaction(ctx, func(tx repositories.Transaction) error {
			if err := s.repository.CreateDeliveryAttempt(ctx, tx, attempt); err != nil {
				return err
			}
			return s.repository.UpdateWebhookDeliveryStatus(ctx, tx, delivery.Id,
				models.WebhookDeliveryStatusDeadLettered, attemptNumber, &errMessage, nil)
		})
		if err != nil {
			return err
		}
		infra.WebhookDeliveries.WithLabelValues("dead_lettered").Inc()
		utils.LogAndReportSentryError(ctx, errors.Wrapf(models.ErrDeliveryFailure,
			"webhook delivery %s dead-lettered after %d attempts: %s",
			delivery.Id, attemptNumber, errMessage))
		return nil
	}

	nextAttemptAt := time.Now().Add(webhookRetrySchedule[attemptNumber-1])
	attempt.Status = models.WebhookDeliveryStatusFailed
	attempt.NextAttemptAt = null.TimeFrom(nextAttemptAt)
	err = s.transactionFactory.Transaction(ctx, func(tx repositories.Transaction) error {
		if err := s.repository.CreateDeliveryAttempt(ctx, tx, attempt); err != nil {
			return err
		}
		if err := s.repository.UpdateWebhookDeliveryStatus(ctx, tx, delivery.Id,
			models.WebhookDeliveryStatusFailed, attemptNumber, &errMessage, &nextAttemptAt); err != nil {
			return err
		}
		return s.scheduler.EnqueueWebhookDeliveryAt(ctx, tx, delivery.Id, nextAttemptAt)
	})
	if err != nil {
		return err
	}
	infra.WebhookDeliveries.WithLabelValues("failed").Inc()
	logger.WarnContext(ctx, "webhook delivery attempt failed",
		"delivery_id", delivery.Id, "attempt", attemptNumber, "error", errMessage)
	return nil
}

func (s WebhookDeliverySender) send(
	ctx context.Context,
	subscription models.WebhookSubscription,
	payload []byte,
) error {
	ctx, cancel := context.WithTimeout(ctx, webhookRequestTimeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, subscription.Url, bytes.NewReader(payload))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set(signatureHeader, SignWebhookPayload(subscription.Secret, payload))

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	// drain so the connection can be reused
	_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, 4096))

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("endpoint returned status %d", resp.StatusCode)
	}
	return nil
}
