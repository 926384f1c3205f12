package orders

import (
	"context"

	"github.com/shopspring/decimal"
)

// UnitOfWork is an explicit transaction handle. Every mutating ledger/store
// call takes one; there is no ambient transaction state. Rollback after a
// successful Commit is a no-op so it can sit in a defer.
type UnitOfWork interface {
	Commit(ctx context.Context) error
	Rollback(ctx context.Context) error
}

type TxManager interface {
	Begin(ctx context.Context) (UnitOfWork, error)
}

// StockSnapshot is what LockAndCheck observed under the row lock.
type StockSnapshot struct {
	Stock int
	Price decimal.Decimal
}

// Ledger owns products.stock. It is the only code path allowed to mutate it.
// All methods require a live unit of work and fail with
// ErrNoActiveTransaction otherwise. Callers must acquire locks in ascending
// product id when touching several products in one unit of work.
type Ledger interface {
	// LockAndCheck takes an exclusive row lock on the product, scoped to the
	// unit of work, and returns current stock and price. The returned stock
	// is the authoritative value for any subsequent decrement.
	LockAndCheck(ctx context.Context, uow UnitOfWork, productID int64) (StockSnapshot, error)
	// Decrement subtracts qty, failing with ErrStockUnderflow rather than
	// letting stock go negative.
	Decrement(ctx context.Context, uow UnitOfWork, productID int64, qty int) error
	// Restore credits qty back. Used only by cancellation/deletion.
	Restore(ctx context.Context, uow UnitOfWork, productID int64, qty int) error
}

// Store owns order and order-line persistence.
type Store interface {
	// Create inserts the order header inside the caller's unit of work and
	// returns the generated order id. Lines go in one at a time via AddLine.
	Create(ctx context.Context, uow UnitOfWork, o *Order) (int64, error)
	// AddLine inserts one order line. The caller must already hold the
	// product's row lock: the line's FK check takes a share lock on the
	// products row, and taking that before the exclusive lock lets two
	// placements deadlock each other.
	AddLine(ctx context.Context, uow UnitOfWork, orderID int64, line OrderLine) error
	// GetByID returns the order with its lines joined, or ErrOrderNotFound.
	GetByID(ctx context.Context, id int64) (*Order, error)
	// GetForUpdate is GetByID under a row lock on the order header, so two
	// concurrent cancellations of the same order serialize.
	GetForUpdate(ctx context.Context, uow UnitOfWork, id int64) (*Order, error)
	UpdateStatus(ctx context.Context, uow UnitOfWork, id int64, status Status) error
	// Delete removes the order, cascading to its lines, and reports whether
	// a row was actually removed.
	Delete(ctx context.Context, uow UnitOfWork, id int64) (bool, error)

	List(ctx context.Context) ([]Order, error)
	ListByBuyer(ctx context.Context, buyerID int64) ([]Order, error)
	Stats(ctx context.Context) (*Stats, error)
}

// BuyerReader and ProductReader are read-only lookups supplied by external
// collaborators. Absent records are reported as (nil, nil).
type BuyerReader interface {
	GetBuyer(ctx context.Context, id int64) (*Buyer, error)
}

type ProductReader interface {
	GetProduct(ctx context.Context, id int64) (*Product, error)
}
