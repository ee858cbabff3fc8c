package mocks

import (
	"context"

	"github.com/google/uuid"
	"github.com/stretchr/testify/mock"

	"github.com/quillhq/quill-backend/models"
	"github.com/quillhq/quill-backend/repositories"
)

// ValidationRepository covers the repository surface of the permission
// validator.
type ValidationRepository struct {
	mock.Mock
}

func (r *ValidationRepository) SiblingEventExists(
	ctx context.Context,
	exec repositories.Executor,
	causationId uuid.UUID,
	eventType models.EventType,
) (bool, error) {
	args := r.Called(exec, causationId, eventType)
	return args.Bool(0), args.Error(1)
}

func (r *ValidationRepository) CreateProposal(ctx context.Context, exec repositories.Executor, proposal models.Proposal) error {
	args := r.Called(exec, proposal)
	return args.Error(0)
}

func (r *ValidationRepository) GetWorkspacePolicy(
	ctx context.Context,
	exec repositories.Executor,
	workspaceId uuid.UUID,
) (models.WorkspacePolicy, error) {
	args := r.Called(exec, workspaceId)
	return args.Get(0).(models.WorkspacePolicy), args.Error(1)
}

func (r *ValidationRepository) GetWorkspaceById(
	ctx context.Context,
	exec repositories.Executor,
	workspaceId uuid.UUID,
) (models.Workspace, error) {
	args := r.Called(exec, workspaceId)
	return args.Get(0).(models.Workspace), args.Error(1)
}

func (r *ValidationRepository) GetEntityProjection(
	ctx context.Context,
	exec repositories.Executor,
	id string,
) (*models.EntityProjection, error) {
	args := r.Called(exec, id)
	projection, _ := args.Get(0).(*models.EntityProjection)
	return projection, args.Error(1)
}
