package usecases

import (
	"context"
	"encoding/json"

	"github.com/cockroachdb/errors"
	"github.com/google/uuid"
	"github.com/tidwall/gjson"

	"github.com/quillhq/quill-backend/infra"
	"github.com/quillhq/quill-backend/models"
	"github.com/quillhq/quill-backend/repositories"
	"github.com/quillhq/quill-backend/usecases/executor_factory"
	"github.com/quillhq/quill-backend/utils"
)

const HandlerKeyPermissionValidator = "permission_validator"

type permissionValidatorRepository interface {
	SiblingEventExists(ctx context.Context, exec repositories.Executor, causationId uuid.UUID, eventType models.EventType) (bool, error)
	CreateProposal(ctx context.Context, exec repositories.Executor, proposal models.Proposal) error
	GetWorkspacePolicy(ctx context.Context, exec repositories.Executor, workspaceId uuid.UUID) (models.WorkspacePolicy, error)
	GetWorkspaceById(ctx context.Context, exec repositories.Executor, workspaceId uuid.UUID) (models.Workspace, error)
	GetEntityProjection(ctx context.Context, exec repositories.Executor, id string) (*models.EntityProjection, error)
}

// PermissionValidator gates every .requested event: auto-approve, route to a
// proposal, or reject, according to the resolved policy. It subscribes to
// *.*.requested and is the only component that appends .approved events
// without a human in the loop.
type PermissionValidator struct {
	repository         permissionValidatorRepository
	eventPublisher     EventPublisher
	executorFactory    executor_factory.ExecutorFactory
	transactionFactory executor_factory.TransactionFactory
}

func NewPermissionValidator(
	repository permissionValidatorRepository,
	eventPublisher EventPublisher,
	executorFactory executor_factory.ExecutorFactory,
	transactionFactory executor_factory.TransactionFactory,
) PermissionValidator {
	return PermissionValidator{
		repository:         repository,
		eventPublisher:     eventPublisher,
		executorFactory:    executorFactory,
		transactionFactory: transactionFactory,
	}
}

// decisionRecord is the audit trail written into the metadata of the event
// the decision produces.
type decisionRecord struct {
	RequiresValidation bool   `json:"requiresValidation"`
	Denied             bool   `json:"denied,omitempty"`
	Reason             string `json:"reason"`
	Source             string `json:"source"`
}

func decisionMetadata(decision models.PolicyDecision, workspaceId string) json.RawMessage {
	payload := struct {
		PolicyDecision decisionRecord `json:"policyDecision"`
		WorkspaceId    string         `json:"workspaceId,omitempty"`
	}{
		PolicyDecision: decisionRecord{
			RequiresValidation: decision.RequiresValidation,
			Denied:             decision.Denied,
			Reason:             decision.Reason,
			Source:             string(decision.Source),
		},
		WorkspaceId: workspaceId,
	}
	raw, _ := json.Marshal(payload)
	return raw
}

// HandleRequestedEvent decides the fate of one .requested event. It is safe
// to call twice with the same event: the outcome it produces (sibling event
// or proposal) is checked for before acting.
func (v PermissionValidator) HandleRequestedEvent(ctx context.Context, event models.Event) error {
	if event.Type.Stage != models.StageRequested {
		return nil
	}
	logger := utils.LoggerFromContext(ctx)
	exec := v.executorFactory.NewExecutor()

	handled, err := v.alreadyHandled(ctx, exec, event)
	if err != nil {
		return err
	}
	if handled {
		logger.DebugContext(ctx, "requested event already decided", "event_id", event.Id)
		return nil
	}

	workspaceId := gjson.GetBytes(event.Metadata, "workspaceId").String()

	workspacePolicy, err := v.loadWorkspacePolicy(ctx, exec, workspaceId)
	if err != nil {
		// Neither approve nor deny on a policy lookup failure. The error
		// bubbles up to the invocation worker, which retries with backoff
		// and dead-letters with an alert when attempts run out.
		return errors.Wrap(err, "policy resolution failed")
	}

	soleOwner, err := v.actorIsSoleOwner(ctx, exec, event)
	if err != nil {
		return errors.Wrapf(models.ErrValidationPolicy, "ownership lookup failed: %v", err)
	}

	decision := ResolvePolicy(PolicyInput{
		Table:            event.Type.Table,
		Action:           event.Type.Action,
		Source:           event.Source,
		Metadata:         event.Metadata,
		Workspace:        workspacePolicy,
		ActorIsSoleOwner: soleOwner,
	})

	switch {
	case decision.Denied:
		infra.PolicyDecisions.WithLabelValues("denied", string(decision.Source)).Inc()
		return v.reject(ctx, event, decision, workspaceId)
	case decision.RequiresValidation:
		infra.PolicyDecisions.WithLabelValues("proposed", string(decision.Source)).Inc()
		return v.propose(ctx, event, decision, workspaceId)
	default:
		infra.PolicyDecisions.WithLabelValues("approved", string(decision.Source)).Inc()
		return v.approve(ctx, event, decision, workspaceId)
	}
}

// alreadyHandled reports whether a previous invocation already produced a
// terminal decision for this requested event.
func (v PermissionValidator) alreadyHandled(
	ctx context.Context,
	exec repositories.Executor,
	event models.Event,
) (bool, error) {
	for _, stage := range []models.EventStage{models.StageApproved, models.StageRejected} {
		exists, err := v.repository.SiblingEventExists(ctx, exec, event.Id, event.Type.WithStage(stage))
		if err != nil {
			return false, err
		}
		if exists {
			return true, nil
		}
	}
	return false, nil
}

func (v PermissionValidator) loadWorkspacePolicy(
	ctx context.Context,
	exec repositories.Executor,
	workspaceId string,
) (models.WorkspacePolicy, error) {
	if workspaceId == "" {
		return models.WorkspacePolicy{}, nil
	}
	id, err := uuid.Parse(workspaceId)
	if err != nil {
		return models.WorkspacePolicy{}, errors.Wrap(models.ErrValidationPolicy,
			"malformed workspace id in event metadata")
	}
	return v.repository.GetWorkspacePolicy(ctx, exec, id)
}

// actorIsSoleOwner checks the subject's ownership for the shortcut. Only
// entities and workspaces carry an ownership notion; a subject that does not
// exist yet has no owner.
func (v PermissionValidator) actorIsSoleOwner(
	ctx context.Context,
	exec repositories.Executor,
	event models.Event,
) (bool, error) {
	switch event.Type.Table {
	case models.TableEntities:
		projection, err := v.repository.GetEntityProjection(ctx, exec, event.SubjectId)
		if err != nil {
			return false, err
		}
		if projection == nil {
			return false, nil
		}
		return len(projection.Owners) == 1 && projection.Owners[0] == event.ActorId, nil
	case models.TableWorkspaces:
		workspaceId, err := uuid.Parse(event.SubjectId)
		if err != nil {
			return false, nil
		}
		workspace, err := v.repository.GetWorkspaceById(ctx, exec, workspaceId)
		if err != nil {
			if errors.Is(err, models.NotFoundError) {
				return false, nil
			}
			return false, err
		}
		return workspace.OwnerId == event.ActorId, nil
	}
	return false, nil
}

func (v PermissionValidator) approve(
	ctx context.Context,
	event models.Event,
	decision models.PolicyDecision,
	workspaceId string,
) error {
	return v.transactionFactory.Transaction(ctx, func(tx repositories.Transaction) error {
		_, err := v.eventPublisher.AppendInTransaction(ctx, tx, AppendEventInput{
			Type:          event.Type.WithStage(models.StageApproved),
			SubjectId:     event.SubjectId,
			SubjectType:   event.SubjectType,
			Data:          event.Data,
			Metadata:      decisionMetadata(decision, workspaceId),
			ActorId:       event.ActorId,
			Source:        models.SourceSystem,
			CorrelationId: event.CorrelationId.ValueOrZero(),
			CausationId:   event.Id.String(),
		})
		return err
	})
}

func (v PermissionValidator) reject(
	ctx context.Context,
	event models.Event,
	decision models.PolicyDecision,
	workspaceId string,
) error {
	return v.transactionFactory.Transaction(ctx, func(tx repositories.Transaction) error {
		_, err := v.eventPublisher.AppendInTransaction(ctx, tx, AppendEventInput{
			Type:          event.Type.WithStage(models.StageRejected),
			SubjectId:     event.SubjectId,
			SubjectType:   event.SubjectType,
			Data:          event.Data,
			Metadata:      decisionMetadata(decision, workspaceId),
			ActorId:       event.ActorId,
			Source:        models.SourceSystem,
			CorrelationId: event.CorrelationId.ValueOrZero(),
			CausationId:   event.Id.String(),
		})
		return err
	})
}

func (v PermissionValidator) propose(
	ctx context.Context,
	event models.Event,
	decision models.PolicyDecision,
	workspaceId string,
) error {
	proposal := models.Proposal{
		Id:                 uuid.Must(uuid.NewV7()),
		TargetType:         event.Type.Table,
		Status:             models.ProposalStatusPending,
		OriginatingEventId: event.Id,
		RequestType:        event.Type,
		RequestData:        event.Data,
		Reason:             decision.Reason,
	}
	if workspaceId != "" {
		if id, err := uuid.Parse(workspaceId); err == nil {
			proposal.WorkspaceId = id
		}
	}

	err := v.transactionFactory.Transaction(ctx, func(tx repositories.Transaction) error {
		return v.repository.CreateProposal(ctx, tx, proposal)
	})
	if err != nil {
		if repositories.IsUniqueViolationError(err) {
			// another invocation already created the proposal
			return nil
		}
		return errors.Wrapf(err, "failed to create proposal for event %s", event.Id)
	}

	utils.LoggerFromContext(ctx).InfoContext(ctx, "created proposal",
		"proposal_id", proposal.Id, "event_id", event.Id, "reason", decision.Reason)
	return nil
}
