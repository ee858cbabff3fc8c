package repositories

import (
	"context"
	"strings"
	"time"

	"github.com/Masterminds/squirrel"
	"github.com/google/uuid"

	"github.com/quillhq/quill-backend/models"
	"github.com/quillhq/quill-backend/repositories/dbmodels"
)

func (repo QuillDbRepository) CreateHandlerInvocation(ctx context.Context, exec Executor, inv models.HandlerInvocation) error {
	_, err := ExecBuilder(ctx, exec, NewQueryBuilder().
		Insert(dbmodels.TABLE_HANDLER_INVOCATIONS).
		Columns("id", "handler_key", "event_id", "event_seq", "subject_id", "status", "attempts", "last_error").
		Values(inv.Id, inv.HandlerKey, inv.EventId, inv.EventSeq, inv.SubjectId,
			string(inv.Status), inv.Attempts, inv.LastError),
	)
	return err
}

func (repo QuillDbRepository) GetHandlerInvocation(ctx context.Context, exec Executor, id uuid.UUID) (models.HandlerInvocation, error) {
	return SqlToModel(ctx, exec, NewQueryBuilder().
		Select(dbmodels.SelectHandlerInvocationColumns...).
		From(dbmodels.TABLE_HANDLER_INVOCATIONS).
		Where(squirrel.Eq{"id": id}),
		dbmodels.AdaptHandlerInvocation,
	)
}

func (repo QuillDbRepository) HandlerInvocationExists(
	ctx context.Context,
	exec Executor,
	handlerKey string,
	eventId uuid.UUID,
) (bool, error) {
	query := NewQueryBuilder().
		Select("count(*)").
		From(dbmodels.TABLE_HANDLER_INVOCATIONS).
		Where(squirrel.Eq{"handler_key": handlerKey}).
		Where(squirrel.Eq{"event_id": eventId})

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

func (repo QuillDbRepository) UpdateHandlerInvocation(
	ctx context.Context,
	exec Executor,
	id uuid.UUID,
	status models.HandlerInvocationStatus,
	attempts int,
	lastError string,
) error {
	_, err := ExecBuilder(ctx, exec, NewQueryBuilder().
		Update(dbmodels.TABLE_HANDLER_INVOCATIONS).
		Set("status", string(status)).
		Set("attempts", attempts).
		Set("last_error", lastError).
		Set("updated_at", time.Now()).
		Where(squirrel.Eq{"id": id}),
	)
	return err
}

// patternToLike rewrites a subscription pattern into a SQL LIKE pattern.
// Event types always have three segments, so a per-segment wildcard and a
// LIKE wildcard select the same rows.
func patternToLike(pattern string) string {
	return strings.ReplaceAll(pattern, "*", "%")
}

// HasUnfinishedPredecessor reports whether an earlier event for the same
// subject is still ahead of this invocation's handler: either its invocation
// row is pending, or it matches the handler's subscription but has no
// invocation row yet because its own dispatch job has not run. This is the
// per-subject FIFO guard: the invocation job snoozes until predecessors are
// terminal.
func (repo QuillDbRepository) HasUnfinishedPredecessor(
	ctx context.Context,
	exec Executor,
	inv models.HandlerInvocation,
	pattern string,
) (bool, error) {
	query := NewQueryBuilder().
		Select("count(*)").
		From(dbmodels.TABLE_EVENTS + " AS e").
		LeftJoin(dbmodels.TABLE_HANDLER_INVOCATIONS+
			" AS hi ON hi.event_id = e.id AND hi.handler_key = ?", inv.HandlerKey).
		Where(squirrel.Eq{"e.subject_id": inv.SubjectId}).
		Where(squirrel.Lt{"e.seq": inv.EventSeq}).
		Where(squirrel.Like{"e.event_type": patternToLike(pattern)}).
		Where(squirrel.Or{
			squirrel.Eq{"hi.id": nil},
			squirrel.Eq{"hi.status": string(models.HandlerInvocationPending)},
		})

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
