package usecases

import (
	"context"
	"testing"

	"github.com/cockroachdb/errors"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"

	"github.com/quillhq/quill-backend/mocks"
	"github.com/quillhq/quill-backend/models"
	"github.com/quillhq/quill-backend/usecases/executor_factory"
)

func TestDispatchSweeperResignalsPendingEvents(t *testing.T) {
	repo := new(mocks.EventRepository)
	taskQueue := new(mocks.TaskQueueRepository)
	sweeper := NewDispatchSweeper(repo, taskQueue, executor_factory.NewExecutorFactoryStub())

	stale := []models.Event{
		{Id: uuid.Must(uuid.NewV7()), DispatchPending: true},
		{Id: uuid.Must(uuid.NewV7()), DispatchPending: true},
	}

	repo.On("ListDispatchPendingEvents", mock.Anything, mock.Anything, 100).Return(stale, nil)
	for _, event := range stale {
		taskQueue.On("EnqueueEventDispatch", event.Id).Return(nil)
		repo.On("MarkEventDispatched", mock.Anything, event.Id).Return(nil)
	}

	swept, err := sweeper.SweepOnce(context.Background())

	assert.NoError(t, err)
	assert.Equal(t, 2, swept)
	repo.AssertExpectations(t)
	taskQueue.AssertExpectations(t)
}

func TestDispatchSweeperLeavesFlagOnEnqueueFailure(t *testing.T) {
	repo := new(mocks.EventRepository)
	taskQueue := new(mocks.TaskQueueRepository)
	sweeper := NewDispatchSweeper(repo, taskQueue, executor_factory.NewExecutorFactoryStub())

	eventId := uuid.Must(uuid.NewV7())
	repo.On("ListDispatchPendingEvents", mock.Anything, mock.Anything, 100).
		Return([]models.Event{{Id: eventId, DispatchPending: true}}, nil)
	taskQueue.On("EnqueueEventDispatch", eventId).Return(errors.New("queue unavailable"))

	swept, err := sweeper.SweepOnce(context.Background())

	assert.NoError(t, err)
	assert.Equal(t, 0, swept)
	repo.AssertNotCalled(t, "MarkEventDispatched", mock.Anything, mock.Anything)
}

func TestDispatchSweeperEmptyBatch(t *testing.T) {
	repo := new(mocks.EventRepository)
	taskQueue := new(mocks.TaskQueueRepository)
	sweeper := NewDispatchSweeper(repo, taskQueue, executor_factory.NewExecutorFactoryStub())

	repo.On("ListDispatchPendingEvents", mock.Anything, mock.Anything, 100).
		Return([]models.Event{}, nil)

	swept, err := sweeper.SweepOnce(context.Background())

	assert.NoError(t, err)
	assert.Equal(t, 0, swept)
	taskQueue.AssertNotCalled(t, "EnqueueEventDispatch", mock.Anything)
}
