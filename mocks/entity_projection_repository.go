package mocks

import (
	"context"

	"github.com/stretchr/testify/mock"

	"github.com/quillhq/quill-backend/models"
	"github.com/quillhq/quill-backend/repositories"
)

type EntityProjectionRepository struct {
	mock.Mock
}

func (r *EntityProjectionRepository) GetEntityProjection(
	ctx context.Context,
	exec repositories.Executor,
	id string,
) (*models.EntityProjection, error) {
	args := r.Called(exec, id)
	projection, _ := args.Get(0).(*models.EntityProjection)
	return projection, args.Error(1)
}

func (r *EntityProjectionRepository) UpsertEntityProjection(
	ctx context.Context,
	exec repositories.Executor,
	p models.EntityProjection,
) error {
	args := r.Called(exec, p)
	return args.Error(0)
}

func (r *EntityProjectionRepository) DeleteEntityProjection(
	ctx context.Context,
	exec repositories.Executor,
	id string,
) error {
	args := r.Called(exec, id)
	return args.Error(0)
}
