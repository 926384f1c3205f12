// Package pgstore implements the order ports (unit of work, inventory
// ledger, order store) on Postgres via pgx.
package pgstore

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/ariefcatur/go-retail-api.git/internal/orders"
)

type TxManager struct{ DB *pgxpool.Pool }

func (m *TxManager) Begin(ctx context.Context) (orders.UnitOfWork, error) {
	tx, err := m.DB.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return nil, err
	}
	return &unitOfWork{tx: tx}, nil
}

// unitOfWork wraps one pgx transaction. After Commit or Rollback it is done
// and any further ledger/store call through it fails with
// ErrNoActiveTransaction.
type unitOfWork struct {
	tx   pgx.Tx
	done bool
}

func (u *unitOfWork) Commit(ctx context.Context) error {
	if u.done {
		return orders.ErrNoActiveTransaction
	}
	u.done = true
	return u.tx.Commit(ctx)
}

func (u *unitOfWork) Rollback(ctx context.Context) error {
	if u.done {
		return nil
	}
	u.done = true
	err := u.tx.Rollback(ctx)
	if errors.Is(err, pgx.ErrTxClosed) {
		return nil
	}
	return err
}

// tx extracts the live pgx transaction out of a unit of work, enforcing the
// "no ledger/store mutation outside a transaction" rule at the boundary.
func tx(uow orders.UnitOfWork) (pgx.Tx, error) {
	u, ok := uow.(*unitOfWork)
	if !ok || u == nil || u.done {
		return nil, orders.ErrNoActiveTransaction
	}
	return u.tx, nil
}
