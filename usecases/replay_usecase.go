package usecases

import (
	"context"

	"github.com/cockroachdb/errors"

	"github.com/quillhq/quill-backend/models"
	"github.com/quillhq/quill-backend/repositories"
	"github.com/quillhq/quill-backend/usecases/executor_factory"
	"github.com/quillhq/quill-backend/utils"
)

type replayRepository interface {
	ListApprovedEventsForSubject(ctx context.Context, exec repositories.Executor, subjectId string) ([]models.Event, error)
	ResetEntityProjection(ctx context.Context, exec repositories.Executor, id string) error
	DeleteRelationProjection(ctx context.Context, exec repositories.Executor, id string) error
	DeleteAnnotationProjection(ctx context.Context, exec repositories.Executor, id string) error
}

// ReplayUsecase rebuilds a subject's projection from its approved events.
// The log is the source of truth; the projection is dropped and every
// .approved event re-applied in append order. Events that permanently failed
// the first time fail the same way on replay and are skipped, which keeps
// replay deterministic.
type ReplayUsecase struct {
	repository         replayRepository
	mutators           map[models.TableFamily]SubjectMutator
	transactionFactory executor_factory.TransactionFactory
}

func NewReplayUsecase(
	repository replayRepository,
	mutators map[models.TableFamily]SubjectMutator,
	transactionFactory executor_factory.TransactionFactory,
) ReplayUsecase {
	return ReplayUsecase{
		repository:         repository,
		mutators:           mutators,
		transactionFactory: transactionFactory,
	}
}

// ReplaySubject returns the number of events re-applied.
func (uc ReplayUsecase) ReplaySubject(
	ctx context.Context,
	family models.TableFamily,
	subjectId string,
) (int, error) {
	mutator, ok := uc.mutators[family]
	if !ok {
		return 0, errors.Wrapf(models.BadParameterError, "table family %q cannot be replayed", family)
	}
	logger := utils.LoggerFromContext(ctx)

	applied := 0
	err := uc.transactionFactory.Transaction(ctx, func(tx repositories.Transaction) error {
		if err := uc.resetProjection(ctx, tx, family, subjectId); err != nil {
			return err
		}

		events, err := uc.repository.ListApprovedEventsForSubject(ctx, tx, subjectId)
		if err != nil {
			return err
		}

		for _, event := range events {
			if event.Type.Table != family {
				continue
			}
			if err := mutator.Apply(ctx, tx, event); err != nil {
				if isPermanentMutationError(err) {
					logger.DebugContext(ctx, "skipping event that failed originally",
						"event_id", event.Id, "error", err.Error())
					continue
				}
				return err
			}
			applied++
		}
		return nil
	})
	if err != nil {
		return 0, errors.Wrapf(err, "failed to replay subject %s", subjectId)
	}

	logger.InfoContext(ctx, "replayed subject projection",
		"subject_id", subjectId, "family", string(family), "events_applied", applied)
	return applied, nil
}

func (uc ReplayUsecase) resetProjection(
	ctx context.Context,
	tx repositories.Transaction,
	family models.TableFamily,
	subjectId string,
) error {
	switch family {
	case models.TableEntities:
		return uc.repository.ResetEntityProjection(ctx, tx, subjectId)
	case models.TableRelations:
		return uc.repository.DeleteRelationProjection(ctx, tx, subjectId)
	case models.TableAnnotations:
		return uc.repository.DeleteAnnotationProjection(ctx, tx, subjectId)
	}
	return errors.Wrapf(models.BadParameterError, "table family %q has no projection", family)
}
