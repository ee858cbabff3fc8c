package repositories

import (
	"context"
	"time"

	"github.com/Masterminds/squirrel"
	"github.com/google/uuid"

	"github.com/quillhq/quill-backend/models"
	"github.com/quillhq/quill-backend/repositories/dbmodels"
)

func (repo QuillDbRepository) GetEntityProjection(ctx context.Context, exec Executor, id string) (*models.EntityProjection, error) {
	return SqlToOptionalModel(ctx, exec, NewQueryBuilder().
		Select(dbmodels.SelectEntityProjectionColumns...).
		From(dbmodels.TABLE_ENTITY_PROJECTIONS).
		Where(squirrel.Eq{"id": id}),
		dbmodels.AdaptEntityProjection,
	)
}

func (repo QuillDbRepository) UpsertEntityProjection(ctx context.Context, exec Executor, p models.EntityProjection) error {
	_, err := ExecBuilder(ctx, exec, NewQueryBuilder().
		Insert(dbmodels.TABLE_ENTITY_PROJECTIONS).
		Columns("id", "workspace_id", "entity_type", "data", "owners", "version", "deleted", "updated_at").
		Values(p.Id, p.WorkspaceId, p.EntityType, p.Data, p.Owners, p.Version, p.Deleted, time.Now()).
		Suffix(`on conflict (id) do update set
			data = excluded.data,
			owners = excluded.owners,
			version = excluded.version,
			deleted = excluded.deleted,
			updated_at = excluded.updated_at`),
	)
	return err
}

func (repo QuillDbRepository) DeleteEntityProjection(ctx context.Context, exec Executor, id string) error {
	_, err := ExecBuilder(ctx, exec, NewQueryBuilder().
		Update(dbmodels.TABLE_ENTITY_PROJECTIONS).
		Set("deleted", true).
		Set("updated_at", time.Now()).
		Where(squirrel.Eq{"id": id}),
	)
	return err
}

func (repo QuillDbRepository) ResetEntityProjection(ctx context.Context, exec Executor, id string) error {
	_, err := ExecBuilder(ctx, exec, NewQueryBuilder().
		Delete(dbmodels.TABLE_ENTITY_PROJECTIONS).
		Where(squirrel.Eq{"id": id}),
	)
	return err
}

func (repo QuillDbRepository) GetRelationProjection(ctx context.Context, exec Executor, id string) (*models.RelationProjection, error) {
	return SqlToOptionalModel(ctx, exec, NewQueryBuilder().
		Select(dbmodels.SelectRelationProjectionColumns...).
		From(dbmodels.TABLE_RELATION_PROJECTIONS).
		Where(squirrel.Eq{"id": id}),
		dbmodels.AdaptRelationProjection,
	)
}

func (repo QuillDbRepository) UpsertRelationProjection(ctx context.Context, exec Executor, p models.RelationProjection) error {
	_, err := ExecBuilder(ctx, exec, NewQueryBuilder().
		Insert(dbmodels.TABLE_RELATION_PROJECTIONS).
		Columns("id", "workspace_id", "from_id", "to_id", "relation_type", "data", "version", "updated_at").
		Values(p.Id, p.WorkspaceId, p.FromId, p.ToId, p.RelationType, p.Data, p.Version, time.Now()).
		Suffix(`on conflict (id) do update set
			data = excluded.data,
			version = excluded.version,
			updated_at = excluded.updated_at`),
	)
	return err
}

func (repo QuillDbRepository) DeleteRelationProjection(ctx context.Context, exec Executor, id string) error {
	_, err := ExecBuilder(ctx, exec, NewQueryBuilder().
		Delete(dbmodels.TABLE_RELATION_PROJECTIONS).
		Where(squirrel.Eq{"id": id}),
	)
	return err
}

func (repo QuillDbRepository) GetAnnotationProjection(ctx context.Context, exec Executor, id string) (*models.AnnotationProjection, error) {
	return SqlToOptionalModel(ctx, exec, NewQueryBuilder().
		Select(dbmodels.SelectAnnotationProjectionColumns...).
		From(dbmodels.TABLE_ANNOTATION_PROJECTIONS).
		Where(squirrel.Eq{"id": id}),
		dbmodels.AdaptAnnotationProjection,
	)
}

func (repo QuillDbRepository) UpsertAnnotationProjection(ctx context.Context, exec Executor, p models.AnnotationProjection) error {
	_, err := ExecBuilder(ctx, exec, NewQueryBuilder().
		Insert(dbmodels.TABLE_ANNOTATION_PROJECTIONS).
		Columns("id", "workspace_id", "subject_id", "data", "version", "updated_at").
		Values(p.Id, p.WorkspaceId, p.SubjectId, p.Data, p.Version, time.Now()).
		Suffix(`on conflict (id) do update set
			data = excluded.data,
			version = excluded.version,
			updated_at = excluded.updated_at`),
	)
	return err
}

func (repo QuillDbRepository) DeleteAnnotationProjection(ctx context.Context, exec Executor, id string) error {
	_, err := ExecBuilder(ctx, exec, NewQueryBuilder().
		Delete(dbmodels.TABLE_ANNOTATION_PROJECTIONS).
		Where(squirrel.Eq{"id": id}),
	)
	return err
}

const TABLE_PROCESSED_EVENTS = "processed_events"

// MarkEventProcessed inserts a processed marker for (handlerKey, eventId).
// Returns false when the marker already existed, which is the idempotency
// signal for domain workers.
func (repo QuillDbRepository) MarkEventProcessed(
	ctx context.Context,
	exec Executor,
	handlerKey string,
	eventId uuid.UUID,
) (bool, error) {
	inserted, err := ExecBuilder(ctx, exec, NewQueryBuilder().
		Insert(TABLE_PROCESSED_EVENTS).
		Columns("handler_key", "event_id").
		Values(handlerKey, eventId).
		Suffix("on conflict (handler_key, event_id) do nothing"),
	)
	if err != nil {
		return false, err
	}
	return inserted > 0, nil
}

// DeleteProcessedMarkersBefore prunes markers past the retention window.
// Markers only guard against redelivery, and the queue never redelivers
// jobs that old.
func (repo QuillDbRepository) DeleteProcessedMarkersBefore(
	ctx context.Context,
	exec Executor,
	olderThan time.Time,
) (int64, error) {
	return ExecBuilder(ctx, exec, NewQueryBuilder().
		Delete(TABLE_PROCESSED_EVENTS).
		Where(squirrel.Lt{"processed_at": olderThan}),
	)
}
