package mocks

import (
	"context"

	"github.com/google/uuid"
	"github.com/stretchr/testify/mock"

	"github.com/quillhq/quill-backend/models"
	"github.com/quillhq/quill-backend/repositories"
)

type HandlerInvocationRepository struct {
	mock.Mock
}

func (r *HandlerInvocationRepository) CreateHandlerInvocation(
	ctx context.Context,
	exec repositories.Executor,
	inv models.HandlerInvocation,
) error {
	args := r.Called(exec, inv)
	return args.Error(0)
}

func (r *HandlerInvocationRepository) HandlerInvocationExists(
	ctx context.Context,
	exec repositories.Executor,
	handlerKey string,
	eventId uuid.UUID,
) (bool, error) {
	args := r.Called(exec, handlerKey, eventId)
	return args.Bool(0), args.Error(1)
}

func (r *HandlerInvocationRepository) MarkEventDispatched(
	ctx context.Context,
	exec repositories.Executor,
	eventId uuid.UUID,
) error {
	args := r.Called(exec, eventId)
	return args.Error(0)
}
