package usecases

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/cockroachdb/errors"
	"github.com/google/uuid"

	"github.com/quillhq/quill-backend/models"
	"github.com/quillhq/quill-backend/repositories"
	"github.com/quillhq/quill-backend/usecases/executor_factory"
	"github.com/quillhq/quill-backend/utils"
)

// SubjectMutator applies one approved event to its projection table. An error
// wrapped in ErrMutationConflict or BadParameterError is permanent and turns
// into a .failed event; any other error is transient and retried.
type SubjectMutator interface {
	Apply(ctx context.Context, tx repositories.Transaction, event models.Event) error
}

type domainWorkerRepository interface {
	MarkEventProcessed(ctx context.Context, exec repositories.Executor, handlerKey string, eventId uuid.UUID) (bool, error)
}

// DomainWorker executes the state mutation for one table family once an
// event is approved. The processed marker, the projection write and the
// .validated event commit in a single transaction, so redelivering the same
// approved event can never mutate twice or emit a second completion event.
type DomainWorker struct {
	family             models.TableFamily
	mutator            SubjectMutator
	repository         domainWorkerRepository
	eventPublisher     EventPublisher
	transactionFactory executor_factory.TransactionFactory
}

func NewDomainWorker(
	family models.TableFamily,
	mutator SubjectMutator,
	repository domainWorkerRepository,
	eventPublisher EventPublisher,
	transactionFactory executor_factory.TransactionFactory,
) DomainWorker {
	return DomainWorker{
		family:             family,
		mutator:            mutator,
		repository:         repository,
		eventPublisher:     eventPublisher,
		transactionFactory: transactionFactory,
	}
}

func (w DomainWorker) HandlerKey() string {
	return fmt.Sprintf("domain_worker_%s", w.family)
}

func (w DomainWorker) SubscriptionPattern() string {
	return fmt.Sprintf("%s.*.approved", w.family)
}

func isPermanentMutationError(err error) bool {
	return errors.Is(err, models.ErrMutationConflict) ||
		errors.Is(err, models.BadParameterError)
}

// outcomeMetadata carries the workspace of the approved event forward into
// the outcome event, where the webhook broker reads it back for fan-out.
func outcomeMetadata(event models.Event, cause error) json.RawMessage {
	payload := struct {
		WorkspaceId string `json:"workspaceId,omitempty"`
		Error       string `json:"error,omitempty"`
	}{}
	if workspaceId := workspaceIdFromMetadata(event.Metadata); workspaceId != uuid.Nil {
		payload.WorkspaceId = workspaceId.String()
	}
	if cause != nil {
		payload.Error = cause.Error()
	}
	if payload.WorkspaceId == "" && payload.Error == "" {
		return nil
	}
	raw, _ := json.Marshal(payload)
	return raw
}

func (w DomainWorker) HandleApprovedEvent(ctx context.Context, event models.Event) error {
	if event.Type.Stage != models.StageApproved || event.Type.Table != w.family {
		return nil
	}
	logger := utils.LoggerFromContext(ctx)

	var permanentErr error
	err := w.transactionFactory.Transaction(ctx, func(tx repositories.Transaction) error {
		inserted, err := w.repository.MarkEventProcessed(ctx, tx, w.HandlerKey(), event.Id)
		if err != nil {
			return err
		}
		if !inserted {
			// The marker commits together with the outcome event, so an
			// existing marker means this event is fully done.
			logger.DebugContext(ctx, "approved event already processed",
				"event_id", event.Id, "handler", w.HandlerKey())
			return nil
		}

		if err := w.mutator.Apply(ctx, tx, event); err != nil {
			if isPermanentMutationError(err) {
				permanentErr = err
				return models.ErrIgnoreRollBackError
			}
			return err
		}

		_, err = w.eventPublisher.AppendInTransaction(ctx, tx, AppendEventInput{
			Type:          event.Type.WithStage(models.StageValidated),
			SubjectId:     event.SubjectId,
			SubjectType:   event.SubjectType,
			Data:          event.Data,
			Metadata:      outcomeMetadata(event, nil),
			ActorId:       event.ActorId,
			Source:        models.SourceSystem,
			CorrelationId: event.CorrelationId.ValueOrZero(),
			CausationId:   event.Id.String(),
		})
		return err
	})
	if err != nil {
		return err
	}
	if permanentErr != nil {
		return w.recordFailure(ctx, event, permanentErr)
	}
	return nil
}

// recordFailure marks the event processed and appends the .failed outcome in
// a fresh transaction, after the mutation attempt has been rolled back.
func (w DomainWorker) recordFailure(ctx context.Context, event models.Event, cause error) error {
	err := w.transactionFactory.Transaction(ctx, func(tx repositories.Transaction) error {
		inserted, err := w.repository.MarkEventProcessed(ctx, tx, w.HandlerKey(), event.Id)
		if err != nil {
			return err
		}
		if !inserted {
			return nil
		}
		_, err = w.eventPublisher.AppendInTransaction(ctx, tx, AppendEventInput{
			Type:          event.Type.WithStage(models.StageFailed),
			SubjectId:     event.SubjectId,
			SubjectType:   event.SubjectType,
			Data:          event.Data,
			Metadata:      outcomeMetadata(event, cause),
			ActorId:       event.ActorId,
			Source:        models.SourceSystem,
			CorrelationId: event.CorrelationId.ValueOrZero(),
			CausationId:   event.Id.String(),
		})
		return err
	})
	if err != nil {
		return err
	}

	utils.LoggerFromContext(ctx).WarnContext(ctx, "domain mutation failed",
		"event_id", event.Id, "handler", w.HandlerKey(), "error", cause.Error())
	return nil
}
