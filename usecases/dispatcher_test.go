package usecases

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"

	"github.com/quillhq/quill-backend/mocks"
	"github.com/quillhq/quill-backend/models"
	"github.com/quillhq/quill-backend/usecases/executor_factory"
)

func TestMatchEventType(t *testing.T) {
	tests := []struct {
		pattern   string
		eventType string
		expected  bool
	}{
		{"entities.create.requested", "entities.create.requested", true},
		{"entities.create.requested", "entities.update.requested", false},
		{"*", "entities.create.requested", true},
		{"entities.*", "entities.create.requested", true},
		{"entities.*", "relations.create.requested", false},
		{"*.*.requested", "entities.create.requested", true},
		{"*.*.requested", "entities.create.approved", false},
		{"entities.*.approved", "entities.delete.approved", true},
		{"entities.*.approved", "entities.delete.validated", false},
		{"entities.create.*", "entities.create.failed", true},
		{"entities.create", "entities.create.requested", false},
		{"entities.*", "entities", false},
	}

	for _, tt := range tests {
		t.Run(tt.pattern+" vs "+tt.eventType, func(t *testing.T) {
			assert.Equal(t, tt.expected, MatchEventType(tt.pattern, tt.eventType))
		})
	}
}

func TestDispatcherSubscriptionRouting(t *testing.T) {
	dispatcher := NewDispatcher(nil, nil, nil, nil)
	noop := func(ctx context.Context, event models.Event) error { return nil }

	dispatcher.Subscribe("*.*.requested", "validator", noop)
	dispatcher.Subscribe("entities.*.approved", "entities_worker", noop)
	dispatcher.Subscribe("*.*.validated", "broker", noop)

	assert.Equal(t, []string{"validator"},
		dispatcher.MatchingHandlerKeys("entities.create.requested"))
	assert.Equal(t, []string{"entities_worker"},
		dispatcher.MatchingHandlerKeys("entities.create.approved"))
	assert.Equal(t, []string{"broker"},
		dispatcher.MatchingHandlerKeys("entities.create.validated"))
	assert.Empty(t, dispatcher.MatchingHandlerKeys("relations.create.approved"))

	handler, ok := dispatcher.Handler("validator")
	assert.True(t, ok)
	assert.NotNil(t, handler)

	_, ok = dispatcher.Handler("unknown")
	assert.False(t, ok)
}

func TestDispatcherSubscribePanicsOnDuplicateKey(t *testing.T) {
	dispatcher := NewDispatcher(nil, nil, nil, nil)
	noop := func(ctx context.Context, event models.Event) error { return nil }

	dispatcher.Subscribe("*.*.requested", "validator", noop)
	assert.Panics(t, func() {
		dispatcher.Subscribe("*.*.approved", "validator", noop)
	})
}

func TestDispatcherDispatchCreatesInvocations(t *testing.T) {
	eventId := uuid.Must(uuid.NewV7())
	event := models.Event{
		Id:        eventId,
		Seq:       42,
		Type:      models.EventType{Table: models.TableEntities, Action: models.ActionCreate, Stage: models.StageRequested},
		SubjectId: "entity-1",
	}

	repo := new(mocks.HandlerInvocationRepository)
	repo.On("HandlerInvocationExists", mock.Anything, "validator", eventId).Return(false, nil)
	repo.On("CreateHandlerInvocation", mock.Anything, mock.MatchedBy(func(inv models.HandlerInvocation) bool {
		return inv.HandlerKey == "validator" &&
			inv.EventId == eventId &&
			inv.EventSeq == int64(42) &&
			inv.SubjectId == "entity-1" &&
			inv.Status == models.HandlerInvocationPending
	})).Return(nil)
	repo.On("MarkEventDispatched", mock.Anything, eventId).Return(nil)

	taskQueue := new(mocks.TaskQueueRepository)
	taskQueue.On("EnqueueHandlerInvocation", mock.Anything, mock.MatchedBy(func(args models.HandlerInvocationArgs) bool {
		return args.HandlerKey == "validator" && args.EventId == eventId
	})).Return(nil)

	dispatcher := NewDispatcher(repo, taskQueue,
		executor_factory.NewExecutorFactoryStub(),
		executor_factory.NewTransactionFactoryStub())
	dispatcher.Subscribe("*.*.requested", "validator",
		func(ctx context.Context, event models.Event) error { return nil })

	err := dispatcher.Dispatch(context.Background(), event)

	assert.NoError(t, err)
	repo.AssertExpectations(t)
	taskQueue.AssertExpectations(t)
}

func TestDispatcherDispatchSkipsExistingInvocations(t *testing.T) {
	eventId := uuid.Must(uuid.NewV7())
	event := models.Event{
		Id:   eventId,
		Type: models.EventType{Table: models.TableEntities, Action: models.ActionCreate, Stage: models.StageRequested},
	}

	repo := new(mocks.HandlerInvocationRepository)
	repo.On("HandlerInvocationExists", mock.Anything, "validator", eventId).Return(true, nil)
	repo.On("MarkEventDispatched", mock.Anything, eventId).Return(nil)

	dispatcher := NewDispatcher(repo, new(mocks.TaskQueueRepository),
		executor_factory.NewExecutorFactoryStub(),
		executor_factory.NewTransactionFactoryStub())
	dispatcher.Subscribe("*.*.requested", "validator",
		func(ctx context.Context, event models.Event) error { return nil })

	err := dispatcher.Dispatch(context.Background(), event)

	assert.NoError(t, err)
	repo.AssertNotCalled(t, "CreateHandlerInvocation", mock.Anything, mock.Anything)
	repo.AssertExpectations(t)
}

func TestDispatcherDispatchMarksEventWithNoSubscribers(t *testing.T) {
	eventId := uuid.Must(uuid.NewV7())
	event := models.Event{
		Id:   eventId,
		Type: models.EventType{Table: models.TableEntities, Action: models.ActionCreate, Stage: models.StageFailed},
	}

	repo := new(mocks.HandlerInvocationRepository)
	repo.On("MarkEventDispatched", mock.Anything, eventId).Return(nil)

	dispatcher := NewDispatcher(repo, new(mocks.TaskQueueRepository),
		executor_factory.NewExecutorFactoryStub(),
		executor_factory.NewTransactionFactoryStub())
	dispatcher.Subscribe("*.*.requested", "validator",
		func(ctx context.Context, event models.Event) error { return nil })

	err := dispatcher.Dispatch(context.Background(), event)

	assert.NoError(t, err)
	repo.AssertExpectations(t)
}
