package payments

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"
)

// Payments record outcomes from the downstream payment system against an
// order. They never touch stock or order status.

var (
	ErrNotFound      = errors.New("payment not found")
	ErrInvalidMethod = errors.New("invalid payment method")
	ErrInvalidStatus = errors.New("invalid payment status")
)

var validMethods = map[string]bool{
	"credit_card":   true,
	"debit_card":    true,
	"paypal":        true,
	"bank_transfer": true,
	"crypto":        true,
}

var validStatuses = map[string]bool{
	"pending":    true,
	"processing": true,
	"completed":  true,
	"failed":     true,
	"refunded":   true,
}

func ValidMethod(m string) bool { return validMethods[m] }
func ValidStatus(s string) bool { return validStatuses[s] }

type Payment struct {
	ID            int64           `json:"id"`
	OrderID       int64           `json:"order_id"`
	Amount        decimal.Decimal `json:"amount"`
	PaymentMethod string          `json:"payment_method"`
	Status        string          `json:"status"`
	TransactionID *string         `json:"transaction_id,omitempty"`
	CreatedAt     time.Time       `json:"created_at"`
}

type Repo struct{ DB *pgxpool.Pool }

func (r *Repo) Create(ctx context.Context, p *Payment) (int64, error) {
	if !ValidMethod(p.PaymentMethod) {
		return 0, ErrInvalidMethod
	}
	if p.Status == "" {
		p.Status = "pending"
	}
	if !ValidStatus(p.Status) {
		return 0, ErrInvalidStatus
	}
	var id int64
	err := r.DB.QueryRow(ctx, `
		INSERT INTO payments(order_id, amount, payment_method, status, transaction_id, created_at)
		VALUES ($1, $2, $3, $4, $5, NOW())
		RETURNING payment_id`,
		p.OrderID, p.Amount, p.PaymentMethod, p.Status, p.TransactionID).Scan(&id)
	if err != nil {
		return 0, fmt.Errorf("insert payment: %w", err)
	}
	p.ID = id
	return id, nil
}

func (r *Repo) GetByID(ctx context.Context, id int64) (*Payment, error) {
	var p Payment
	err := r.DB.QueryRow(ctx, `
		SELECT payment_id, order_id, amount, payment_method, status, transaction_id, created_at
		FROM payments WHERE payment_id = $1`, id).
		Scan(&p.ID, &p.OrderID, &p.Amount, &p.PaymentMethod, &p.Status, &p.TransactionID, &p.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &p, nil
}

func (r *Repo) ListByOrder(ctx context.Context, orderID int64) ([]Payment, error) {
	rows, err := r.DB.Query(ctx, `
		SELECT payment_id, order_id, amount, payment_method, status, transaction_id, created_at
		FROM payments WHERE order_id = $1 ORDER BY created_at DESC`, orderID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Payment
	for rows.Next() {
		var p Payment
		if err := rows.Scan(&p.ID, &p.OrderID, &p.Amount, &p.PaymentMethod, &p.Status, &p.TransactionID, &p.CreatedAt); err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	return out, rows.Err()
}

func (r *Repo) UpdateStatus(ctx context.Context, id int64, status string) error {
	if !ValidStatus(status) {
		return ErrInvalidStatus
	}
	ct, err := r.DB.Exec(ctx,
		`UPDATE payments SET status = $2 WHERE payment_id = $1`, id, status)
	if err != nil {
		return err
	}
	if ct.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}
