package products

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"

	"github.com/ariefcatur/go-retail-api.git/internal/orders"
)

var ErrNotFound = errors.New("product not found")

type Product struct {
	ID          int64           `json:"id"`
	Name        string          `json:"name"`
	Description string          `json:"description,omitempty"`
	Price       decimal.Decimal `json:"price"`
	Stock       int             `json:"stock"`
	CreatedAt   time.Time       `json:"created_at"`
	UpdatedAt   time.Time       `json:"updated_at"`
}

// Repo is product CRUD outside the order path. Stock edits here are the
// explicit product-edit path; the order workflows go through the inventory
// ledger instead.
type Repo struct{ DB *pgxpool.Pool }

func (r *Repo) List(ctx context.Context) ([]Product, error) {
	rows, err := r.DB.Query(ctx, `
		SELECT product_id, name, description, price, stock, created_at, updated_at
		FROM products ORDER BY product_id`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Product
	for rows.Next() {
		var p Product
		if err := rows.Scan(&p.ID, &p.Name, &p.Description, &p.Price, &p.Stock, &p.CreatedAt, &p.UpdatedAt); err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	return out, rows.Err()
}

func (r *Repo) GetByID(ctx context.Context, id int64) (*Product, error) {
	var p Product
	err := r.DB.QueryRow(ctx, `
		SELECT product_id, name, description, price, stock, created_at, updated_at
		FROM products WHERE product_id = $1`, id).
		Scan(&p.ID, &p.Name, &p.Description, &p.Price, &p.Stock, &p.CreatedAt, &p.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &p, nil
}

func (r *Repo) Create(ctx context.Context, name, description string, price decimal.Decimal, stock int) (int64, error) {
	var id int64
	err := r.DB.QueryRow(ctx, `
		INSERT INTO products(name, description, price, stock, created_at, updated_at)
		VALUES ($1, $2, $3, $4, NOW(), NOW())
		RETURNING product_id`, name, description, price, stock).Scan(&id)
	return id, err
}

func (r *Repo) Update(ctx context.Context, id int64, name, description string, price decimal.Decimal, stock int) error {
	ct, err := r.DB.Exec(ctx, `
		UPDATE products SET name = $2, description = $3, price = $4, stock = $5, updated_at = NOW()
		WHERE product_id = $1`, id, name, description, price, stock)
	if err != nil {
		return err
	}
	if ct.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *Repo) Delete(ctx context.Context, id int64) error {
	ct, err := r.DB.Exec(ctx, `DELETE FROM products WHERE product_id = $1`, id)
	if err != nil {
		return err
	}
	if ct.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// GetProduct implements orders.ProductReader: absent products are (nil, nil).
// It always reads the database; the redis cache is for the HTTP read path
// only, stock pre-checks must not see stale values.
func (r *Repo) GetProduct(ctx context.Context, id int64) (*orders.Product, error) {
	p, err := r.GetByID(ctx, id)
	if errors.Is(err, ErrNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &orders.Product{ID: p.ID, Name: p.Name, Price: p.Price, Stock: p.Stock}, nil
}
