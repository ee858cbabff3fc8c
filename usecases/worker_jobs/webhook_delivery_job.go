package worker_jobs

import (
	"context"
	"time"

	"github.com/riverqueue/river"

	"github.com/quillhq/quill-backend/models"
	"github.com/quillhq/quill-backend/usecases"
)

// Covers the HTTP timeout plus bookkeeping writes.
const WEBHOOK_DELIVERY_JOB_TIMEOUT = 20 * time.Second

// WebhookDeliveryWorker runs one delivery attempt. The sender owns the retry
// schedule: a failed attempt enqueues its own follow-up job and this one
// completes normally.
type WebhookDeliveryWorker struct {
	river.WorkerDefaults[models.WebhookDeliveryArgs]

	sender usecases.WebhookDeliverySender
}

func NewWebhookDeliveryWorker(sender usecases.WebhookDeliverySender) *WebhookDeliveryWorker {
	return &WebhookDeliveryWorker{sender: sender}
}

func (w *WebhookDeliveryWorker) Timeout(job *river.Job[models.WebhookDeliveryArgs]) time.Duration {
	return WEBHOOK_DELIVERY_JOB_TIMEOUT
}

func (w *WebhookDeliveryWorker) Work(ctx context.Context, job *river.Job[models.WebhookDeliveryArgs]) error {
	return w.sender.ProcessDelivery(ctx, job.Args.DeliveryId)
}
