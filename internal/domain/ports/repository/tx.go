package repository

import (
	"context"

	"github.com/jackc/pgx/v4"
)

type Tx interface{}

var NoTX interface{}

// TransactionManager executes fn within a database transaction, passing the
// underlying transaction handle as tx.
//
// Repository methods accept the handle and use it for every statement, taking
// row locks (SELECT ... FOR UPDATE) when one is present. They MUST accept a nil
// tx, which means "use the pool, no transaction".
//
// USAGE
//
//	tm.WithTx(ctx, pgx.TxOptions{}, func(ctx context.Context, tx repository.Tx) error {
//		req, err := requests.FindByID(ctx, tx, id)
//		...
//		return err
//	})
//
// Returning an error from fn rolls the transaction back.
type TransactionManager interface {
	WithTx(ctx context.Context, txOpt pgx.TxOptions, fn func(ctx context.Context, tx Tx) error) error
}
