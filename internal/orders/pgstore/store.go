package pgstore

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/ariefcatur/go-retail-api.git/internal/orders"
)

// Store persists order headers and lines. Mutations run inside the caller's
// unit of work; reads go straight to the pool.
type Store struct{ DB *pgxpool.Pool }

func NewStore(db *pgxpool.Pool) *Store { return &Store{DB: db} }

func (s *Store) Create(ctx context.Context, uow orders.UnitOfWork, o *orders.Order) (int64, error) {
	t, err := tx(uow)
	if err != nil {
		return 0, err
	}

	var id int64
	err = t.QueryRow(ctx, `
		INSERT INTO orders(buyer_id, total_amount, status, created_at)
		VALUES ($1, $2, $3, NOW())
		RETURNING order_id, created_at
	`, o.BuyerID, o.Total, string(o.Status)).Scan(&id, &o.CreatedAt)
	if err != nil {
		return 0, fmt.Errorf("insert order: %w", err)
	}
	o.ID = id
	return id, nil
}

// AddLine runs after the product row is locked; the insert's FK check takes a
// share lock on products, and grabbing that before the exclusive lock would
// let two placements over the same product deadlock.
func (s *Store) AddLine(ctx context.Context, uow orders.UnitOfWork, orderID int64, line orders.OrderLine) error {
	t, err := tx(uow)
	if err != nil {
		return err
	}
	_, err = t.Exec(ctx, `
		INSERT INTO order_lines(order_id, product_id, quantity, unit_price)
		VALUES ($1, $2, $3, $4)
	`, orderID, line.ProductID, line.Quantity, line.UnitPrice)
	if err != nil {
		return fmt.Errorf("insert order line: %w", err)
	}
	return nil
}

func (s *Store) GetByID(ctx context.Context, id int64) (*orders.Order, error) {
	row := s.DB.QueryRow(ctx, `
		SELECT o.order_id, o.buyer_id, COALESCE(b.name, ''), o.total_amount, o.status, o.created_at
		FROM orders o
		LEFT JOIN buyers b ON o.buyer_id = b.buyer_id
		WHERE o.order_id = $1`, id)

	o, err := scanOrder(row)
	if err != nil {
		return nil, err
	}
	o.Lines, err = s.lines(ctx, s.DB, id)
	if err != nil {
		return nil, err
	}
	return o, nil
}

func (s *Store) GetForUpdate(ctx context.Context, uow orders.UnitOfWork, id int64) (*orders.Order, error) {
	t, err := tx(uow)
	if err != nil {
		return nil, err
	}

	// Lock only the header row; the join for the buyer name would extend
	// the lock to buyers.
	row := t.QueryRow(ctx, `
		SELECT order_id, buyer_id, '', total_amount, status, created_at
		FROM orders WHERE order_id = $1 FOR UPDATE`, id)

	o, err := scanOrder(row)
	if err != nil {
		return nil, err
	}
	o.Lines, err = s.lines(ctx, t, id)
	if err != nil {
		return nil, err
	}
	return o, nil
}

func (s *Store) UpdateStatus(ctx context.Context, uow orders.UnitOfWork, id int64, status orders.Status) error {
	t, err := tx(uow)
	if err != nil {
		return err
	}
	if !status.Valid() {
		return &orders.InvalidStatusError{Value: string(status)}
	}
	ct, err := t.Exec(ctx, `UPDATE orders SET status = $2 WHERE order_id = $1`, id, string(status))
	if err != nil {
		return fmt.Errorf("update order status: %w", err)
	}
	if ct.RowsAffected() == 0 {
		return orders.ErrOrderNotFound
	}
	return nil
}

func (s *Store) Delete(ctx context.Context, uow orders.UnitOfWork, id int64) (bool, error) {
	t, err := tx(uow)
	if err != nil {
		return false, err
	}
	// order_lines go away via ON DELETE CASCADE
	ct, err := t.Exec(ctx, `DELETE FROM orders WHERE order_id = $1`, id)
	if err != nil {
		return false, fmt.Errorf("delete order: %w", err)
	}
	return ct.RowsAffected() > 0, nil
}

func (s *Store) List(ctx context.Context) ([]orders.Order, error) {
	rows, err := s.DB.Query(ctx, `
		SELECT o.order_id, o.buyer_id, COALESCE(b.name, ''), o.total_amount, o.status, o.created_at
		FROM orders o
		LEFT JOIN buyers b ON o.buyer_id = b.buyer_id
		ORDER BY o.created_at DESC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return collectOrders(rows)
}

func (s *Store) ListByBuyer(ctx context.Context, buyerID int64) ([]orders.Order, error) {
	rows, err := s.DB.Query(ctx, `
		SELECT o.order_id, o.buyer_id, COALESCE(b.name, ''), o.total_amount, o.status, o.created_at
		FROM orders o
		LEFT JOIN buyers b ON o.buyer_id = b.buyer_id
		WHERE o.buyer_id = $1
		ORDER BY o.created_at DESC`, buyerID)
	if err != nil {
		return nil, err
	}
	out, err := func() ([]orders.Order, error) {
		defer rows.Close()
		return collectOrders(rows)
	}()
	if err != nil {
		return nil, err
	}
	for i := range out {
		out[i].Lines, err = s.lines(ctx, s.DB, out[i].ID)
		if err != nil {
			return nil, err
		}
	}
	return out, nil
}

func (s *Store) Stats(ctx context.Context) (*orders.Stats, error) {
	stats := &orders.Stats{StatusCounts: map[orders.Status]int{}}

	rows, err := s.DB.Query(ctx, `SELECT status, COUNT(*) FROM orders GROUP BY status`)
	if err != nil {
		return nil, err
	}
	for rows.Next() {
		var st string
		var n int
		if err := rows.Scan(&st, &n); err != nil {
			rows.Close()
			return nil, err
		}
		stats.StatusCounts[orders.Status(st)] = n
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return nil, err
	}

	err = s.DB.QueryRow(ctx, `
		SELECT COALESCE(SUM(total_amount), 0) FROM orders WHERE status != 'cancelled'
	`).Scan(&stats.TotalSales)
	if err != nil {
		return nil, err
	}

	rows, err = s.DB.Query(ctx, `
		SELECT p.product_id, p.name, SUM(ol.quantity), SUM(ol.quantity * ol.unit_price)
		FROM order_lines ol
		JOIN products p ON ol.product_id = p.product_id
		JOIN orders o ON ol.order_id = o.order_id
		WHERE o.status != 'cancelled'
		GROUP BY p.product_id, p.name
		ORDER BY SUM(ol.quantity) DESC
		LIMIT 5`)
	if err != nil {
		return nil, err
	}
	for rows.Next() {
		var tp orders.TopProduct
		if err := rows.Scan(&tp.ProductID, &tp.Name, &tp.TotalQuantity, &tp.TotalRevenue); err != nil {
			rows.Close()
			return nil, err
		}
		stats.TopProducts = append(stats.TopProducts, tp)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return nil, err
	}

	rows, err = s.DB.Query(ctx, `
		SELECT o.order_id, o.buyer_id, COALESCE(b.name, ''), o.total_amount, o.status, o.created_at
		FROM orders o
		JOIN buyers b ON o.buyer_id = b.buyer_id
		ORDER BY o.created_at DESC
		LIMIT 10`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	stats.RecentOrders, err = collectOrders(rows)
	if err != nil {
		return nil, err
	}
	return stats, nil
}

// querier lets line reads run either on the pool or inside a transaction.
type querier interface {
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
}

func (s *Store) lines(ctx context.Context, q querier, orderID int64) ([]orders.OrderLine, error) {
	rows, err := q.Query(ctx, `
		SELECT ol.order_id, ol.product_id, COALESCE(p.name, ''), ol.quantity, ol.unit_price
		FROM order_lines ol
		LEFT JOIN products p ON ol.product_id = p.product_id
		WHERE ol.order_id = $1
		ORDER BY ol.product_id`, orderID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []orders.OrderLine
	for rows.Next() {
		var ln orders.OrderLine
		if err := rows.Scan(&ln.OrderID, &ln.ProductID, &ln.ProductName, &ln.Quantity, &ln.UnitPrice); err != nil {
			return nil, err
		}
		out = append(out, ln)
	}
	return out, rows.Err()
}

func scanOrder(row pgx.Row) (*orders.Order, error) {
	var o orders.Order
	var status string
	err := row.Scan(&o.ID, &o.BuyerID, &o.BuyerName, &o.Total, &status, &o.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, orders.ErrOrderNotFound
	}
	if err != nil {
		return nil, err
	}
	o.Status = orders.Status(status)
	return &o, nil
}

func collectOrders(rows pgx.Rows) ([]orders.Order, error) {
	var out []orders.Order
	for rows.Next() {
		var o orders.Order
		var status string
		if err := rows.Scan(&o.ID, &o.BuyerID, &o.BuyerName, &o.Total, &status, &o.CreatedAt); err != nil {
			return nil, err
		}
		o.Status = orders.Status(status)
		out = append(out, o)
	}
	return out, rows.Err()
}
