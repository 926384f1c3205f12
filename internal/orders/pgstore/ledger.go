package pgstore

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/ariefcatur/go-retail-api.git/internal/orders"
)

// Ledger is the only writer of products.stock. Locks are plain row locks
// (SELECT ... FOR UPDATE) scoped to the enclosing transaction; callers hold
// them until commit or rollback.
type Ledger struct{}

func NewLedger() *Ledger { return &Ledger{} }

func (l *Ledger) LockAndCheck(ctx context.Context, uow orders.UnitOfWork, productID int64) (orders.StockSnapshot, error) {
	t, err := tx(uow)
	if err != nil {
		return orders.StockSnapshot{}, err
	}
	var snap orders.StockSnapshot
	err = t.QueryRow(ctx,
		`SELECT stock, price FROM products WHERE product_id = $1 FOR UPDATE`,
		productID).Scan(&snap.Stock, &snap.Price)
	if errors.Is(err, pgx.ErrNoRows) {
		return orders.StockSnapshot{}, &orders.ProductNotFoundError{ProductID: productID}
	}
	if err != nil {
		return orders.StockSnapshot{}, fmt.Errorf("lock product %d: %w", productID, err)
	}
	return snap, nil
}

func (l *Ledger) Decrement(ctx context.Context, uow orders.UnitOfWork, productID int64, qty int) error {
	t, err := tx(uow)
	if err != nil {
		return err
	}
	// The stock >= qty guard is a backstop behind the locked check; if it
	// ever filters the row out we report underflow instead of going negative.
	ct, err := t.Exec(ctx,
		`UPDATE products SET stock = stock - $2 WHERE product_id = $1 AND stock >= $2`,
		productID, qty)
	if err != nil {
		return fmt.Errorf("decrement product %d: %w", productID, err)
	}
	if ct.RowsAffected() != 1 {
		return orders.ErrStockUnderflow
	}
	return nil
}

func (l *Ledger) Restore(ctx context.Context, uow orders.UnitOfWork, productID int64, qty int) error {
	t, err := tx(uow)
	if err != nil {
		return err
	}
	ct, err := t.Exec(ctx,
		`UPDATE products SET stock = stock + $2 WHERE product_id = $1`,
		productID, qty)
	if err != nil {
		return fmt.Errorf("restore product %d: %w", productID, err)
	}
	if ct.RowsAffected() != 1 {
		return &orders.ProductNotFoundError{ProductID: productID}
	}
	return nil
}
