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

func replayEvent(table models.TableFamily, action models.Action) models.Event {
	return models.Event{
		Id: uuid.Must(uuid.NewV7()),
		Type: models.EventType{
			Table:  table,
			Action: action,
			Stage:  models.StageApproved,
		},
		SubjectId: "entity-1",
	}
}

func TestReplaySubjectReappliesApprovedEvents(t *testing.T) {
	repo := new(mocks.ReplayRepository)
	mutator := new(subjectMutatorMock)

	usecase := NewReplayUsecase(repo,
		map[models.TableFamily]SubjectMutator{models.TableEntities: mutator},
		executor_factory.NewTransactionFactoryStub())

	created := replayEvent(models.TableEntities, models.ActionCreate)
	updated := replayEvent(models.TableEntities, models.ActionUpdate)
	foreign := replayEvent(models.TableRelations, models.ActionCreate)

	repo.On("ResetEntityProjection", mock.Anything, "entity-1").Return(nil)
	repo.On("ListApprovedEventsForSubject", mock.Anything, "entity-1").
		Return([]models.Event{created, foreign, updated}, nil)
	mutator.On("Apply", mock.Anything, created).Return(nil)
	mutator.On("Apply", mock.Anything, updated).Return(nil)

	applied, err := usecase.ReplaySubject(context.Background(), models.TableEntities, "entity-1")

	assert.NoError(t, err)
	assert.Equal(t, 2, applied)
	mutator.AssertNotCalled(t, "Apply", mock.Anything, foreign)
	repo.AssertExpectations(t)
}

func TestReplaySubjectSkipsPermanentlyFailingEvents(t *testing.T) {
	repo := new(mocks.ReplayRepository)
	mutator := new(subjectMutatorMock)

	usecase := NewReplayUsecase(repo,
		map[models.TableFamily]SubjectMutator{models.TableEntities: mutator},
		executor_factory.NewTransactionFactoryStub())

	good := replayEvent(models.TableEntities, models.ActionCreate)
	conflicting := replayEvent(models.TableEntities, models.ActionUpdate)

	repo.On("ResetEntityProjection", mock.Anything, "entity-1").Return(nil)
	repo.On("ListApprovedEventsForSubject", mock.Anything, "entity-1").
		Return([]models.Event{good, conflicting}, nil)
	mutator.On("Apply", mock.Anything, good).Return(nil)
	mutator.On("Apply", mock.Anything, conflicting).
		Return(errors.Wrap(models.ErrMutationConflict, "version mismatch"))

	applied, err := usecase.ReplaySubject(context.Background(), models.TableEntities, "entity-1")

	assert.NoError(t, err)
	assert.Equal(t, 1, applied)
}

func TestReplaySubjectRejectsUnknownFamily(t *testing.T) {
	usecase := NewReplayUsecase(new(mocks.ReplayRepository), nil,
		executor_factory.NewTransactionFactoryStub())

	_, err := usecase.ReplaySubject(context.Background(), models.TableWorkspaces, "ws-1")

	assert.True(t, errors.Is(err, models.BadParameterError))
}
