package dbx

import (
	"context"
	"database/sql"
)

// Transactor hands out the plain connection handle and runs functions inside
// a transaction. Services depend on it instead of *sql.DB so that in-memory
// repositories can be used without a database.
type Transactor interface {
	Conn() DBTX
	WithTx(ctx context.Context, opts *sql.TxOptions, fn func(ctx context.Context, tx DBTX) error) error
}

// SQLTransactor is the database/sql backed Transactor.
type SQLTransactor struct {
	db *sql.DB
}

func NewSQLTransactor(db *sql.DB) *SQLTransactor {
	return &SQLTransactor{db: db}
}

func (t *SQLTransactor) Conn() DBTX {
	return t.db
}

func (t *SQLTransactor) WithTx(ctx context.Context, opts *sql.TxOptions, fn func(ctx context.Context, tx DBTX) error) error {
	return WithTx(ctx, t.db, opts, fn)
}

// NopTransactor runs fn directly with a nil handle. It is meant for
// repositories that ignore the handle (in-memory implementations).
type NopTransactor struct{}

func (NopTransactor) Conn() DBTX {
	return nil
}

func (NopTransactor) WithTx(ctx context.Context, _ *sql.TxOptions, fn func(ctx context.Context, tx DBTX) error) error {
	return fn(ctx, nil)
}
