package mocks

import (
	"context"

	"github.com/stretchr/testify/mock"

	"github.com/quillhq/quill-backend/models"
	"github.com/quillhq/quill-backend/repositories"
)

type ReplayRepository struct {
	mock.Mock
}

func (r *ReplayRepository) ListApprovedEventsForSubject(
	ctx context.Context,
	exec repositories.Executor,
	subjectId string,
) ([]models.Event, error) {
	args := r.Called(exec, subjectId)
	return args.Get(0).([]models.Event), args.Error(1)
}

func (r *ReplayRepository) ResetEntityProjection(ctx context.Context, exec repositories.Executor, id string) error {
	args := r.Called(exec, id)
	return args.Error(0)
}

func (r *ReplayRepository) DeleteRelationProjection(ctx context.Context, exec repositories.Executor, id string) error {
	args := r.Called(exec, id)
	return args.Error(0)
}

func (r *ReplayRepository) DeleteAnnotationProjection(ctx context.Context, exec repositories.Executor, id string) error {
	args := r.Called(exec, id)
	return args.Error(0)
}
