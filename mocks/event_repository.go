package mocks

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/mock"

	"github.com/quillhq/quill-backend/models"
	"github.com/quillhq/quill-backend/repositories"
)

type EventRepository struct {
	mock.Mock
}

func (r *EventRepository) CreateEvent(ctx context.Context, exec repositories.Executor, event models.Event) error {
	args := r.Called(exec, event)
	return args.Error(0)
}

func (r *EventRepository) GetEventById(ctx context.Context, exec repositories.Executor, eventId uuid.UUID) (models.Event, error) {
	args := r.Called(exec, eventId)
	return args.Get(0).(models.Event), args.Error(1)
}

func (r *EventRepository) ListEvents(
	ctx context.Context,
	exec repositories.Executor,
	filters models.EventFilters,
	limit int,
) ([]models.Event, error) {
	args := r.Called(exec, filters, limit)
	return args.Get(0).([]models.Event), args.Error(1)
}

func (r *EventRepository) ListApprovedEventsForSubject(
	ctx context.Context,
	exec repositories.Executor,
	subjectId string,
) ([]models.Event, error) {
	args := r.Called(exec, subjectId)
	return args.Get(0).([]models.Event), args.Error(1)
}

func (r *EventRepository) ListDispatchPendingEvents(
	ctx context.Context,
	exec repositories.Executor,
	olderThan time.Time,
	limit int,
) ([]models.Event, error) {
	args := r.Called(exec, olderThan, limit)
	return args.Get(0).([]models.Event), args.Error(1)
}

func (r *EventRepository) MarkEventDispatched(ctx context.Context, exec repositories.Executor, eventId uuid.UUID) error {
	args := r.Called(exec, eventId)
	return args.Error(0)
}

func (r *EventRepository) SiblingEventExists(
	ctx context.Context,
	exec repositories.Executor,
	causationId uuid.UUID,
	eventType models.EventType,
) (bool, error) {
	args := r.Called(exec, causationId, eventType)
	return args.Bool(0), args.Error(1)
}
