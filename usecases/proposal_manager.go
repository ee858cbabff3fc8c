package usecases

import (
	"context"
	"encoding/json"

	"github.com/cockroachdb/errors"
	"github.com/google/uuid"

	"github.com/quillhq/quill-backend/models"
	"github.com/quillhq/quill-backend/repositories"
	"github.com/quillhq/quill-backend/usecases/executor_factory"
	"github.com/quillhq/quill-backend/utils"
)

type proposalManagerRepository interface {
	GetProposalById(ctx context.Context, exec repositories.Executor, proposalId uuid.UUID) (models.Proposal, error)
	ListProposals(ctx context.Context, exec repositories.Executor, filters models.ProposalFilters, limit int) ([]models.Proposal, error)
	ResolveProposal(ctx context.Context, exec repositories.Executor, proposalId uuid.UUID,
		status models.ProposalStatus, resolvedBy string, resolutionReason *string) (int64, error)
	GetEventById(ctx context.Context, exec repositories.Executor, eventId uuid.UUID) (models.Event, error)
}

// ProposalManager resolves pending proposals. Approval re-enters the pipeline
// as an .approved event caused by the original .requested event, so replay
// sees the same causal chain whether approval was automatic or human.
type ProposalManager struct {
	repository         proposalManagerRepository
	eventPublisher     EventPublisher
	executorFactory    executor_factory.ExecutorFactory
	transactionFactory executor_factory.TransactionFactory
}

func NewProposalManager(
	repository proposalManagerRepository,
	eventPublisher EventPublisher,
	executorFactory executor_factory.ExecutorFactory,
	transactionFactory executor_factory.TransactionFactory,
) ProposalManager {
	return ProposalManager{
		repository:         repository,
		eventPublisher:     eventPublisher,
		executorFactory:    executorFactory,
		transactionFactory: transactionFactory,
	}
}

// resolutionMetadata records the human decision and keeps the originating
// event's workspace, so the re-entered event stays routable downstream.
func resolutionMetadata(originating models.Event, proposalId uuid.UUID, resolvedBy string, reason *string) json.RawMessage {
	payload := struct {
		ProposalId       string `json:"proposalId"`
		ResolvedBy       string `json:"resolvedBy"`
		ResolutionReason string `json:"resolutionReason,omitempty"`
		WorkspaceId      string `json:"workspaceId,omitempty"`
	}{
		ProposalId: proposalId.String(),
		ResolvedBy: resolvedBy,
	}
	if reason != nil {
		payload.ResolutionReason = *reason
	}
	if workspaceId := workspaceIdFromMetadata(originating.Metadata); workspaceId != uuid.Nil {
		payload.WorkspaceId = workspaceId.String()
	}
	raw, _ := json.Marshal(payload)
	return raw
}

func (m ProposalManager) GetProposal(ctx context.Context, proposalId uuid.UUID) (models.Proposal, error) {
	return m.repository.GetProposalById(ctx, m.executorFactory.NewExecutor(), proposalId)
}

func (m ProposalManager) ListProposals(
	ctx context.Context,
	filters models.ProposalFilters,
	limit int,
) ([]models.Proposal, error) {
	return m.repository.ListProposals(ctx, m.executorFactory.NewExecutor(), filters, limit)
}

// Resolve applies a human decision to a pending proposal, exactly once. A
// second resolution attempt returns ErrProposalAlreadyResolved whatever the
// decision was. The status flip and the follow-up event commit together.
func (m ProposalManager) Resolve(
	ctx context.Context,
	proposalId uuid.UUID,
	decision models.ProposalDecision,
	resolvedBy string,
	reason *string,
) error {
	if decision != models.ProposalDecisionApprove && decision != models.ProposalDecisionReject {
		return errors.Wrapf(models.BadParameterError, "unknown proposal decision %q", decision)
	}

	exec := m.executorFactory.NewExecutor()
	proposal, err := m.repository.GetProposalById(ctx, exec, proposalId)
	if err != nil {
		return err
	}
	originatingEvent, err := m.repository.GetEventById(ctx, exec, proposal.OriginatingEventId)
	if err != nil {
		return errors.Wrapf(err, "originating event of proposal %s not found", proposalId)
	}

	status := models.ProposalStatusValidated
	stage := models.StageApproved
	if decision == models.ProposalDecisionReject {
		status = models.ProposalStatusRejected
		stage = models.StageRejected
	}

	err = m.transactionFactory.Transaction(ctx, func(tx repositories.Transaction) error {
		updated, err := m.repository.ResolveProposal(ctx, tx, proposalId, status, resolvedBy, reason)
		if err != nil {
			return err
		}
		if updated == 0 {
			return errors.Wrapf(models.ErrProposalAlreadyResolved, "proposal %s", proposalId)
		}

		_, err = m.eventPublisher.AppendInTransaction(ctx, tx, AppendEventInput{
			Type:          originatingEvent.Type.WithStage(stage),
			SubjectId:     originatingEvent.SubjectId,
			SubjectType:   originatingEvent.SubjectType,
			Data:          originatingEvent.Data,
			Metadata:      resolutionMetadata(originatingEvent, proposalId, resolvedBy, reason),
			ActorId:       resolvedBy,
			Source:        models.SourceUserApi,
			CorrelationId: originatingEvent.CorrelationId.ValueOrZero(),
			CausationId:   originatingEvent.Id.String(),
		})
		return err
	})
	if err != nil {
		return err
	}

	utils.LoggerFromContext(ctx).InfoContext(ctx, "resolved proposal",
		"proposal_id", proposalId, "decision", string(decision), "resolved_by", resolvedBy)
	return nil
}
