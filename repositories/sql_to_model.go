package repositories

import (
	"context"
	"fmt"
	"reflect"

	"github.com/Masterminds/squirrel"
	"github.com/cockroachdb/errors"
	"github.com/jackc/pgx/v5"

	"github.com/quillhq/quill-backend/models"
)

// ExecBuilder builds and executes a statement, returning the number of
// affected rows.
func ExecBuilder(ctx context.Context, exec TransactionOrPool, builder squirrel.Sqlizer) (int64, error) {
	query, args, err := builder.ToSql()
	if err != nil {
		return 0, errors.Wrap(err, "can't build sql query")
	}

	tag, err := exec.Exec(ctx, query, args...)
	if err != nil {
		return 0, errors.Wrap(err, fmt.Sprintf("error executing sql query: %s", query))
	}
	return tag.RowsAffected(), nil
}

// SqlToListOfModels executes the query and adapts every row through the
// provided adapter.
func SqlToListOfModels[DBModel, Model any](
	ctx context.Context,
	exec TransactionOrPool,
	query squirrel.Sqlizer,
	adapter func(dbModel DBModel) (Model, error),
) ([]Model, error) {
	sql, args, err := query.ToSql()
	if err != nil {
		return nil, errors.Wrap(err, "can't build sql query")
	}

	rows, err := exec.Query(ctx, sql, args...)
	if err != nil {
		return nil, errors.Wrap(err, "error executing sql query")
	}
	return pgx.CollectRows(rows, func(row pgx.CollectableRow) (Model, error) {
		dbModel, err := pgx.RowToStructByName[DBModel](row)
		if err != nil {
			var zeroModel Model
			return zeroModel, errors.Wrap(err,
				fmt.Sprintf("error scanning row to struct %T", dbModel))
		}
		return adapter(dbModel)
	})
}

// SqlToOptionalModel returns nil when the query has no result.
func SqlToOptionalModel[DBModel, Model any](
	ctx context.Context,
	exec TransactionOrPool,
	query squirrel.Sqlizer,
	adapter func(dbModel DBModel) (Model, error),
) (*Model, error) {
	modelsList, err := SqlToListOfModels(ctx, exec, query, adapter)
	if err != nil {
		return nil, err
	}

	numberOfResults := len(modelsList)
	if numberOfResults == 0 {
		return nil, nil
	}
	model := modelsList[0]
	if numberOfResults > 1 {
		return nil, errors.Newf("expected 1 or 0 %v, got %d rows",
			reflect.TypeOf(model), numberOfResults)
	}
	return &model, nil
}

// SqlToModel returns a NotFoundError when the query has no result.
func SqlToModel[DBModel, Model any](
	ctx context.Context,
	exec TransactionOrPool,
	query squirrel.Sqlizer,
	adapter func(dbModel DBModel) (Model, error),
) (Model, error) {
	model, err := SqlToOptionalModel(ctx, exec, query, adapter)
	var zeroModel Model
	if err != nil {
		return zeroModel, err
	}
	if model == nil {
		return zeroModel, errors.Wrap(models.NotFoundError,
			fmt.Sprintf("found no object of type %T", zeroModel))
	}
	return *model, nil
}

// SqlToRow executes the query and scans the single result row through fn.
func SqlToRow[Model any](
	ctx context.Context,
	exec TransactionOrPool,
	query squirrel.Sqlizer,
	fn func(row pgx.CollectableRow) (Model, error),
) (Model, error) {
	var zeroModel Model

	sql, args, err := query.ToSql()
	if err != nil {
		return zeroModel, errors.Wrap(err, "can't build sql query")
	}

	rows, err := exec.Query(ctx, sql, args...)
	if err != nil {
		return zeroModel, errors.Wrap(err, "error executing sql query")
	}
	return pgx.CollectOneRow(rows, fn)
}
