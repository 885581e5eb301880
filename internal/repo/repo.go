// Package repo holds the hand-written pgx repositories backing every
// domain querier. One Queries value serves the whole surface; WithTx
// rebinds it to a transaction so multi-row flows stay atomic.
package repo

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/noah-isme/backend-bazaar/internal/common"
)

// DBTX is the subset of pgx shared by pools and transactions.
type DBTX interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// Queries bundles every repository over one connection source.
type Queries struct {
	db DBTX
}

// New returns Queries bound to the pool or connection.
func New(db DBTX) *Queries {
	return &Queries{db: db}
}

// WithTx returns Queries bound to the transaction.
func (q *Queries) WithTx(tx pgx.Tx) *Queries {
	return &Queries{db: tx}
}

// translateError maps driver errors to the shared sentinels. Unique
// violations become ErrConflict; no-rows passes through untouched so
// services can keep matching pgx.ErrNoRows.
func translateError(err error) error {
	if err == nil {
		return nil
	}
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		switch pgErr.Code {
		case "23505":
			return common.ErrConflict
		case "23503":
			return common.ErrNotFound
		}
	}
	return err
}
