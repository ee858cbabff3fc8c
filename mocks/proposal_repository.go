package mocks

import (
	"context"

	"github.com/google/uuid"
	"github.com/stretchr/testify/mock"

	"github.com/quillhq/quill-backend/models"
	"github.com/quillhq/quill-backend/repositories"
)

type ProposalRepository struct {
	mock.Mock
}

func (r *ProposalRepository) GetProposalById(
	ctx context.Context,
	exec repositories.Executor,
	proposalId uuid.UUID,
) (models.Proposal, error) {
	args := r.Called(exec, proposalId)
	return args.Get(0).(models.Proposal), args.Error(1)
}

func (r *ProposalRepository) ListProposals(
	ctx context.Context,
	exec repositories.Executor,
	filters models.ProposalFilters,
	limit int,
) ([]models.Proposal, error) {
	args := r.Called(exec, filters, limit)
	return args.Get(0).([]models.Proposal), args.Error(1)
}

func (r *ProposalRepository) ResolveProposal(
	ctx context.Context,
	exec repositories.Executor,
	proposalId uuid.UUID,
	status models.ProposalStatus,
	resolvedBy string,
	resolutionReason *string,
) (int64, error) {
	args := r.Called(exec, proposalId, status, resolvedBy, resolutionReason)
	return args.Get(0).(int64), args.Error(1)
}

func (r *ProposalRepository) GetEventById(
	ctx context.Context,
	exec repositories.Executor,
	eventId uuid.UUID,
) (models.Event, error) {
	args := r.Called(exec, eventId)
	return args.Get(0).(models.Event), args.Error(1)
}
