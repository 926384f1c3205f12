package orders

import (
	"context"
	"errors"
	"fmt"
	"sort"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/ariefcatur/go-retail-api.git/internal/audit"
)

// totalTolerance is the accepted gap between the declared and the computed
// order total.
var totalTolerance = decimal.NewFromFloat(0.01)

// Service orchestrates order placement, status transitions and deletion.
// Each call is one independent unit of work: it either commits in full or
// rolls back in full; no partial order or partial stock decrement is ever
// observable outside it.
type Service struct {
	log      *zap.Logger
	tx       TxManager
	ledger   Ledger
	store    Store
	buyers   BuyerReader
	products ProductReader
	audit    audit.Sink
}

func NewService(log *zap.Logger, tx TxManager, ledger Ledger, store Store,
	buyers BuyerReader, products ProductReader, sink audit.Sink) *Service {
	return &Service{
		log:      log,
		tx:       tx,
		ledger:   ledger,
		store:    store,
		buyers:   buyers,
		products: products,
		audit:    sink,
	}
}

// PlaceOrder validates the request, checks stock, and creates the order with
// its lines while decrementing inventory, all atomically. Returns the new
// order id.
func (s *Service) PlaceOrder(ctx context.Context, req PlaceOrderRequest) (int64, error) {
	id, err := s.placeOrder(ctx, req)
	s.audit.Emit(ctx, audit.OpOrderCreate, req, err)
	if err != nil {
		s.log.Warn("place order rejected", zap.Int64("buyer_id", req.BuyerID), zap.Error(err))
		return 0, err
	}
	s.log.Info("order placed", zap.Int64("order_id", id), zap.Int64("buyer_id", req.BuyerID))
	return id, nil
}

func (s *Service) placeOrder(ctx context.Context, req PlaceOrderRequest) (int64, error) {
	if err := ValidateRequest(req); err != nil {
		return 0, err
	}

	buyer, err := s.buyers.GetBuyer(ctx, req.BuyerID)
	if err != nil {
		return 0, fmt.Errorf("%w: resolve buyer: %v", ErrOrderCreationFailed, err)
	}
	if buyer == nil {
		return 0, ErrBuyerNotFound
	}

	// Resolve every product, pre-check stock and substitute missing prices.
	// This pass is unlocked: it exists to fail fast before a transaction
	// opens. The locked re-check below is the authoritative one.
	lines := make([]OrderLine, 0, len(req.Lines))
	for _, lr := range req.Lines {
		p, err := s.products.GetProduct(ctx, lr.ProductID)
		if err != nil {
			return 0, fmt.Errorf("%w: resolve product %d: %v", ErrOrderCreationFailed, lr.ProductID, err)
		}
		if p == nil {
			return 0, &ProductNotFoundError{ProductID: lr.ProductID}
		}
		if p.Stock < lr.Quantity {
			return 0, &InsufficientStockError{
				ProductID: lr.ProductID,
				Available: p.Stock,
				Requested: lr.Quantity,
			}
		}
		price := lr.UnitPrice
		if !price.IsPositive() {
			price = p.Price
		}
		lines = append(lines, OrderLine{
			ProductID: lr.ProductID,
			Quantity:  lr.Quantity,
			UnitPrice: price,
		})
	}

	calculated := decimal.Zero
	for _, ln := range lines {
		calculated = calculated.Add(ln.UnitPrice.Mul(decimal.NewFromInt(int64(ln.Quantity))))
	}
	if calculated.Sub(req.Total).Abs().GreaterThan(totalTolerance) {
		return 0, &TotalMismatchError{Calculated: calculated, Provided: req.Total}
	}

	uow, err := s.tx.Begin(ctx)
	if err != nil {
		return 0, fmt.Errorf("%w: begin: %v", ErrOrderCreationFailed, err)
	}
	defer func() { _ = uow.Rollback(ctx) }()

	order := &Order{
		BuyerID: req.BuyerID,
		Total:   calculated,
		Status:  StatusPending,
	}
	orderID, err := s.store.Create(ctx, uow, order)
	if err != nil {
		return 0, fmt.Errorf("%w: insert order: %v", ErrOrderCreationFailed, err)
	}

	// Lock, decrement and insert each line in ascending product id so two
	// orders over an overlapping product set can never deadlock on each
	// other. The line insert has to come after the lock: its FK check takes
	// a share lock on the products row.
	for _, ln := range ascendingByProduct(lines) {
		snap, err := s.ledger.LockAndCheck(ctx, uow, ln.ProductID)
		if err != nil {
			return 0, fmt.Errorf("%w: lock product %d: %v", ErrOrderCreationFailed, ln.ProductID, err)
		}
		// Re-check under the lock: the unlocked pre-check above may be
		// stale by now.
		if snap.Stock < ln.Quantity {
			return 0, &InsufficientStockError{
				ProductID: ln.ProductID,
				Available: snap.Stock,
				Requested: ln.Quantity,
			}
		}
		if err := s.ledger.Decrement(ctx, uow, ln.ProductID, ln.Quantity); err != nil {
			return 0, fmt.Errorf("%w: decrement product %d: %v", ErrOrderCreationFailed, ln.ProductID, err)
		}
		if err := s.store.AddLine(ctx, uow, orderID, ln); err != nil {
			return 0, fmt.Errorf("%w: insert line for product %d: %v", ErrOrderCreationFailed, ln.ProductID, err)
		}
	}

	if err := uow.Commit(ctx); err != nil {
		return 0, fmt.Errorf("%w: commit: %v", ErrOrderCreationFailed, err)
	}
	return orderID, nil
}

// UpdateOrderStatus overwrites the order's status. Moving a pending order to
// cancelled restores the stock its lines consumed; any other transition is a
// plain overwrite, including cancelling an already-cancelled order.
func (s *Service) UpdateOrderStatus(ctx context.Context, id int64, newStatus Status) error {
	err := s.updateOrderStatus(ctx, id, newStatus)
	s.audit.Emit(ctx, audit.OpOrderUpdate, map[string]any{"id": id, "status": newStatus}, err)
	if err != nil {
		s.log.Warn("order status update failed",
			zap.Int64("order_id", id), zap.String("status", string(newStatus)), zap.Error(err))
		return err
	}
	s.log.Info("order status updated",
		zap.Int64("order_id", id), zap.String("status", string(newStatus)))
	return nil
}

func (s *Service) updateOrderStatus(ctx context.Context, id int64, newStatus Status) error {
	if !newStatus.Valid() {
		return &InvalidStatusError{Value: string(newStatus)}
	}

	uow, err := s.tx.Begin(ctx)
	if err != nil {
		return fmt.Errorf("%w: begin: %v", ErrOrderUpdateFailed, err)
	}
	defer func() { _ = uow.Rollback(ctx) }()

	// The header row lock serializes concurrent transitions of the same
	// order; without it two racing cancellations could both observe
	// "pending" and double-credit stock.
	order, err := s.store.GetForUpdate(ctx, uow, id)
	if err != nil {
		if errors.Is(err, ErrOrderNotFound) {
			return ErrOrderNotFound
		}
		return fmt.Errorf("%w: load order: %v", ErrOrderUpdateFailed, err)
	}

	if RestoresStock(order.Status, newStatus) {
		if err := s.restoreLines(ctx, uow, order.Lines); err != nil {
			return err
		}
	}

	if err := s.store.UpdateStatus(ctx, uow, id, newStatus); err != nil {
		return fmt.Errorf("%w: update status: %v", ErrOrderUpdateFailed, err)
	}
	if err := uow.Commit(ctx); err != nil {
		return fmt.Errorf("%w: commit: %v", ErrOrderUpdateFailed, err)
	}
	return nil
}

// DeleteOrder removes the order and its lines. A still-pending order has its
// stock restored first, in the same unit of work.
func (s *Service) DeleteOrder(ctx context.Context, id int64) error {
	err := s.deleteOrder(ctx, id)
	s.audit.Emit(ctx, audit.OpOrderDelete, map[string]any{"id": id}, err)
	if err != nil {
		s.log.Warn("order delete failed", zap.Int64("order_id", id), zap.Error(err))
		return err
	}
	s.log.Info("order deleted", zap.Int64("order_id", id))
	return nil
}

func (s *Service) deleteOrder(ctx context.Context, id int64) error {
	uow, err := s.tx.Begin(ctx)
	if err != nil {
		return fmt.Errorf("%w: begin: %v", ErrOrderUpdateFailed, err)
	}
	defer func() { _ = uow.Rollback(ctx) }()

	order, err := s.store.GetForUpdate(ctx, uow, id)
	if err != nil {
		if errors.Is(err, ErrOrderNotFound) {
			return ErrOrderNotFound
		}
		return fmt.Errorf("%w: load order: %v", ErrOrderUpdateFailed, err)
	}

	if order.Status == StatusPending {
		if err := s.restoreLines(ctx, uow, order.Lines); err != nil {
			return err
		}
	}

	removed, err := s.store.Delete(ctx, uow, id)
	if err != nil {
		return fmt.Errorf("%w: delete order: %v", ErrOrderUpdateFailed, err)
	}
	if !removed {
		return ErrOrderNotFound
	}
	if err := uow.Commit(ctx); err != nil {
		return fmt.Errorf("%w: commit: %v", ErrOrderUpdateFailed, err)
	}
	return nil
}

// restoreLines credits each line's quantity back, locking products in the
// same ascending order the placement path uses.
func (s *Service) restoreLines(ctx context.Context, uow UnitOfWork, lines []OrderLine) error {
	for _, ln := range ascendingByProduct(lines) {
		if _, err := s.ledger.LockAndCheck(ctx, uow, ln.ProductID); err != nil {
			return fmt.Errorf("%w: lock product %d: %v", ErrOrderUpdateFailed, ln.ProductID, err)
		}
		if err := s.ledger.Restore(ctx, uow, ln.ProductID, ln.Quantity); err != nil {
			return fmt.Errorf("%w: restore product %d: %v", ErrOrderUpdateFailed, ln.ProductID, err)
		}
	}
	return nil
}

// GetOrder returns the order with its lines joined.
func (s *Service) GetOrder(ctx context.Context, id int64) (*Order, error) {
	return s.store.GetByID(ctx, id)
}

func (s *Service) ListOrders(ctx context.Context) ([]Order, error) {
	return s.store.List(ctx)
}

func (s *Service) ListBuyerOrders(ctx context.Context, buyerID int64) ([]Order, error) {
	return s.store.ListByBuyer(ctx, buyerID)
}

func (s *Service) OrderStats(ctx context.Context) (*Stats, error) {
	return s.store.Stats(ctx)
}

func ascendingByProduct(lines []OrderLine) []OrderLine {
	sorted := make([]OrderLine, len(lines))
	copy(sorted, lines)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].ProductID < sorted[j].ProductID })
	return sorted
}
