package executor_factory

import (
	"context"

	"github.com/cockroachdb/errors"
	"github.com/jackc/pgx/v5"
	"github.com/pashagolub/pgxmock/v4"

	"github.com/quillhq/quill-backend/models"
	"github.com/quillhq/quill-backend/repositories"
)

// ExecutorFactoryStub backs executors with a pgxmock pool for tests that
// never reach a real database.
type ExecutorFactoryStub struct {
	Mock pgxmock.PgxPoolIface
}

func NewExecutorFactoryStub() ExecutorFactoryStub {
	pool, _ := pgxmock.NewPool()

	return ExecutorFactoryStub{
		Mock: pool,
	}
}

type PgExecutorStub struct {
	pgxmock.PgxPoolIface
}

func (stub ExecutorFactoryStub) NewExecutor() repositories.Executor {
	return PgExecutorStub{
		stub.Mock,
	}
}

type pgTransactionStub struct {
	pgxmock.PgxPoolIface
}

func (stub pgTransactionStub) RawTx() pgx.Tx {
	return nil
}

// TransactionFactoryStub runs the callback against a stub transaction. It
// mirrors ExecutorGetter.Transaction: a callback returning
// models.ErrIgnoreRollBackError rolls back without surfacing an error.
type TransactionFactoryStub struct {
	Mock pgxmock.PgxPoolIface
}

func NewTransactionFactoryStub() TransactionFactoryStub {
	pool, _ := pgxmock.NewPool()

	return TransactionFactoryStub{
		Mock: pool,
	}
}

func (stub TransactionFactoryStub) Transaction(
	ctx context.Context,
	fn func(tx repositories.Transaction) error,
) error {
	err := fn(pgTransactionStub{stub.Mock})
	if errors.Is(err, models.ErrIgnoreRollBackError) {
		return nil
	}
	return err
}
