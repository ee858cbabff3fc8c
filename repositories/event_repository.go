package repositories

import (
	"context"
	"time"

	"github.com/Masterminds/squirrel"
	"github.com/google/uuid"

	"github.com/quillhq/quill-backend/models"
	"github.com/quillhq/quill-backend/repositories/dbmodels"
)

// CreateEvent appends one event row. Events are never updated or deleted
// afterwards; only the dispatch_pending flag is flipped by the dispatch path.
func (repo QuillDbRepository) CreateEvent(ctx context.Context, exec Executor, event models.Event) error {
	_, err := ExecBuilder(ctx, exec, NewQueryBuilder().
		Insert(dbmodels.TABLE_EVENTS).
		Columns(
			"id",
			"schema_version",
			"event_type",
			"subject_id",
			"subject_type",
			"data",
			"metadata",
			"actor_id",
			"source",
			"timestamp",
			"correlation_id",
			"causation_id",
			"dispatch_pending",
		).
		Values(
			event.Id,
			event.SchemaVersion,
			event.Type.String(),
			event.SubjectId,
			event.SubjectType,
			event.Data,
			event.Metadata,
			event.ActorId,
			string(event.Source),
			event.Timestamp,
			event.CorrelationId,
			event.CausationId,
			event.DispatchPending,
		),
	)
	return err
}

func (repo QuillDbRepository) GetEventById(ctx context.Context, exec Executor, eventId uuid.UUID) (models.Event, error) {
	return SqlToModel(ctx, exec, NewQueryBuilder().
		Select(dbmodels.SelectEventColumns...).
		From(dbmodels.TABLE_EVENTS).
		Where(squirrel.Eq{"id": eventId}),
		dbmodels.AdaptEvent,
	)
}

func (repo QuillDbRepository) ListEvents(
	ctx context.Context,
	exec Executor,
	filters models.EventFilters,
	limit int,
) ([]models.Event, error) {
	query := NewQueryBuilder().
		Select(dbmodels.SelectEventColumns...).
		From(dbmodels.TABLE_EVENTS).
		OrderBy("seq asc").
		Limit(uint64(limit))

	if filters.SubjectId != "" {
		query = query.Where(squirrel.Eq{"subject_id": filters.SubjectId})
	}
	if filters.SubjectType != "" {
		query = query.Where(squirrel.Eq{"subject_type": filters.SubjectType})
	}
	if filters.Type != "" {
		query = query.Where(squirrel.Eq{"event_type": filters.Type})
	}
	if filters.CorrelationId != "" {
		query = query.Where(squirrel.Eq{"correlation_id": filters.CorrelationId})
	}
	if filters.ActorId != "" {
		query = query.Where(squirrel.Eq{"actor_id": filters.ActorId})
	}

	return SqlToListOfModels(ctx, exec, query, dbmodels.AdaptEvent)
}

// ListApprovedEventsForSubject returns the .approved events of one subject in
// append order, for projection replay.
func (repo QuillDbRepository) ListApprovedEventsForSubject(
	ctx context.Context,
	exec Executor,
	subjectId string,
) ([]models.Event, error) {
	return SqlToListOfModels(ctx, exec, NewQueryBuilder().
		Select(dbmodels.SelectEventColumns...).
		From(dbmodels.TABLE_EVENTS).
		Where(squirrel.Eq{"subject_id": subjectId}).
		Where(squirrel.Like{"event_type": "%.approved"}).
		OrderBy("seq asc"),
		dbmodels.AdaptEvent,
	)
}

// ListDispatchPendingEvents returns events whose dispatch signal is still
// pending after the grace window, oldest first. Used by the sweeper.
func (repo QuillDbRepository) ListDispatchPendingEvents(
	ctx context.Context,
	exec Executor,
	olderThan time.Time,
	limit int,
) ([]models.Event, error) {
	return SqlToListOfModels(ctx, exec, NewQueryBuilder().
		Select(dbmodels.SelectEventColumns...).
		From(dbmodels.TABLE_EVENTS).
		Where(squirrel.Eq{"dispatch_pending": true}).
		Where(squirrel.Lt{"timestamp": olderThan}).
		OrderBy("seq asc").
		Limit(uint64(limit)),
		dbmodels.AdaptEvent,
	)
}

func (repo QuillDbRepository) MarkEventDispatched(ctx context.Context, exec Executor, eventId uuid.UUID) error {
	_, err := ExecBuilder(ctx, exec, NewQueryBuilder().
		Update(dbmodels.TABLE_EVENTS).
		Set("dispatch_pending", false).
		Where(squirrel.Eq{"id": eventId}),
	)
	return err
}

// SiblingEventExists reports whether an event of the given type caused by
// causationId has already been appended. Used to keep completion-event
// emission idempotent.
func (repo QuillDbRepository) SiblingEventExists(
	ctx context.Context,
	exec Executor,
	causationId uuid.UUID,
	eventType models.EventType,
) (bool, error) {
	query := NewQueryBuilder().
		Select("count(*)").
		From(dbmodels.TABLE_EVENTS).
		Where(squirrel.Eq{"causation_id": causationId.String()}).
		Where(squirrel.Eq{"event_type": eventType.String()})

	sql, args, err := query.ToSql()
	if err != nil {
		return false, err
	}
	var count int
	if err := exec.QueryRow(ctx, sql, args...).Scan(&count); err != nil {
		return false, err
	}
	return count > 0, nil
}
