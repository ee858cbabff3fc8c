package repositories

import (
	"context"
	"time"

	"github.com/Masterminds/squirrel"
	"github.com/google/uuid"

	"github.com/quillhq/quill-backend/models"
	"github.com/quillhq/quill-backend/repositories/dbmodels"
)

func (repo QuillDbRepository) CreateProposal(ctx context.Context, exec Executor, proposal models.Proposal) error {
	_, err := ExecBuilder(ctx, exec, NewQueryBuilder().
		Insert(dbmodels.TABLE_PROPOSALS).
		Columns(
			"id",
			"workspace_id",
			"target_type",
			"status",
			"originating_event_id",
			"request_type",
			"request_data",
			"reason",
		).
		Values(
			proposal.Id,
			proposal.WorkspaceId,
			string(proposal.TargetType),
			string(proposal.Status),
			proposal.OriginatingEventId,
			proposal.RequestType.String(),
			proposal.RequestData,
			proposal.Reason,
		),
	)
	return err
}

func (repo QuillDbRepository) GetProposalById(ctx context.Context, exec Executor, proposalId uuid.UUID) (models.Proposal, error) {
	return SqlToModel(ctx, exec, NewQueryBuilder().
		Select(dbmodels.SelectProposalColumns...).
		From(dbmodels.TABLE_PROPOSALS).
		Where(squirrel.Eq{"id": proposalId}),
		dbmodels.AdaptProposal,
	)
}

func (repo QuillDbRepository) ListProposals(
	ctx context.Context,
	exec Executor,
	filters models.ProposalFilters,
	limit int,
) ([]models.Proposal, error) {
	query := NewQueryBuilder().
		Select(dbmodels.SelectProposalColumns...).
		From(dbmodels.TABLE_PROPOSALS).
		Where(squirrel.Eq{"workspace_id": filters.WorkspaceId}).
		OrderBy("created_at desc").
		Limit(uint64(limit))

	if filters.Status != "" {
		query = query.Where(squirrel.Eq{"status": filters.Status})
	}
	if filters.TargetType != "" {
		query = query.Where(squirrel.Eq{"target_type": filters.TargetType})
	}

	return SqlToListOfModels(ctx, exec, query, dbmodels.AdaptProposal)
}

// ResolveProposal transitions a pending proposal to its terminal status.
// Returns the number of updated rows: 0 means the proposal was already
// resolved (or does not exist), which the caller turns into
// ErrProposalAlreadyResolved.
func (repo QuillDbRepository) ResolveProposal(
	ctx context.Context,
	exec Executor,
	proposalId uuid.UUID,
	status models.ProposalStatus,
	resolvedBy string,
	resolutionReason *string,
) (int64, error) {
	return ExecBuilder(ctx, exec, NewQueryBuilder().
		Update(dbmodels.TABLE_PROPOSALS).
		Set("status", string(status)).
		Set("resolved_at", time.Now()).
		Set("resolved_by", resolvedBy).
		Set("resolution_reason", resolutionReason).
		Where(squirrel.Eq{"id": proposalId}).
		Where(squirrel.Eq{"status": string(models.ProposalStatusPending)}),
	)
}
