package mocks

import (
	"context"

	"github.com/google/uuid"
	"github.com/stretchr/testify/mock"

	"github.com/quillhq/quill-backend/repositories"
)

type DomainWorkerRepository struct {
	mock.Mock
}

func (r *DomainWorkerRepository) MarkEventProcessed(
	ctx context.Context,
	exec repositories.Executor,
	handlerKey string,
	eventId uuid.UUID,
) (bool, error) {
	args := r.Called(exec, handlerKey, eventId)
	return args.Bool(0), args.Error(1)
}
