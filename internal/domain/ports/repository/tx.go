package repository

import (
	"context"

	"github.com/jackc/pgx/v4"
)

type Tx interface{}

// NoTX marks the non-transactional path; repositories fall back to the pool.
var NoTX Tx

// TransactionManager executes a function within a database transaction,
// passing the underlying transaction handle to repositories via `tx`.
//
// Repository methods accept `tx Tx` so use-case interfaces stay free of
// storage types; the concrete handle is infra-defined (pgx.Tx for Postgres)
// and a nil tx means "run against the pool". Inside a transaction the
// payment repository promotes its lookups to SELECT ... FOR UPDATE, which
// is the concurrency guard for duplicate webhook deliveries.
type TransactionManager interface {
	WithTx(ctx context.Context, txOpt pgx.TxOptions, fn func(ctx context.Context, tx Tx) error) error
}
