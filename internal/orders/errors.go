package orders

import (
	"errors"
	"fmt"

	"github.com/shopspring/decimal"
)

var (
	ErrBuyerNotFound = errors.New("buyer not found")
	ErrOrderNotFound = errors.New("order not found")

	// ErrStockUnderflow means a decrement would have driven stock negative.
	// The ledger's guarded update makes this unreachable after a successful
	// locked check; seeing it indicates a bug in the calling workflow.
	ErrStockUnderflow = errors.New("stock underflow")

	// ErrNoActiveTransaction is a programming error: a ledger or store
	// mutation was called without a live unit of work.
	ErrNoActiveTransaction = errors.New("no active transaction")

	// ErrOrderCreationFailed / ErrOrderUpdateFailed wrap unexpected storage
	// failures. They are always preceded by a full rollback.
	ErrOrderCreationFailed = errors.New("order creation failed")
	ErrOrderUpdateFailed   = errors.New("order update failed")
)

// ValidationError rejects a malformed request before any data access.
type ValidationError struct {
	Reason string
}

func (e *ValidationError) Error() string { return "invalid order request: " + e.Reason }

type ProductNotFoundError struct {
	ProductID int64
}

func (e *ProductNotFoundError) Error() string {
	return fmt.Sprintf("product not found: %d", e.ProductID)
}

type InsufficientStockError struct {
	ProductID int64
	Available int
	Requested int
}

func (e *InsufficientStockError) Error() string {
	return fmt.Sprintf("insufficient stock for product %d: available=%d requested=%d",
		e.ProductID, e.Available, e.Requested)
}

type TotalMismatchError struct {
	Calculated decimal.Decimal
	Provided   decimal.Decimal
}

func (e *TotalMismatchError) Error() string {
	return fmt.Sprintf("total amount mismatch: calculated=%s provided=%s",
		e.Calculated.StringFixed(2), e.Provided.StringFixed(2))
}

type InvalidStatusError struct {
	Value string
}

func (e *InvalidStatusError) Error() string { return "invalid order status: " + e.Value }
