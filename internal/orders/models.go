package orders

import (
	"time"

	"github.com/shopspring/decimal"
)

type Buyer struct {
	ID    int64  `json:"id"`
	Name  string `json:"name"`
	Email string `json:"email"`
}

// Product is the read view the order workflows need: current price + stock.
// Full product records (description, timestamps) live in internal/products.
type Product struct {
	ID    int64           `json:"id"`
	Name  string          `json:"name"`
	Price decimal.Decimal `json:"price"`
	Stock int             `json:"stock"`
}

type Order struct {
	ID        int64           `json:"id"`
	BuyerID   int64           `json:"buyer_id"`
	BuyerName string          `json:"buyer_name,omitempty"`
	Total     decimal.Decimal `json:"total"`
	Status    Status          `json:"status"`
	CreatedAt time.Time       `json:"created_at"`
	Lines     []OrderLine     `json:"lines,omitempty"`
}

// OrderLine captures the unit price at order time. It is never re-read from
// the product later, so historical orders survive price edits.
type OrderLine struct {
	OrderID     int64           `json:"order_id"`
	ProductID   int64           `json:"product_id"`
	ProductName string          `json:"product_name,omitempty"`
	Quantity    int             `json:"quantity"`
	UnitPrice   decimal.Decimal `json:"unit_price"`
}

// PlaceOrderRequest is the typed basket submitted by a caller. A zero or
// negative UnitPrice on a line means "charge the current product price".
type PlaceOrderRequest struct {
	BuyerID int64           `json:"buyer_id"`
	Lines   []LineRequest   `json:"lines"`
	Total   decimal.Decimal `json:"total"`
}

type LineRequest struct {
	ProductID int64           `json:"product_id"`
	Quantity  int             `json:"quantity"`
	UnitPrice decimal.Decimal `json:"unit_price"`
}

// Stats aggregates order data for the dashboard endpoint.
type Stats struct {
	StatusCounts map[Status]int  `json:"status_counts"`
	TotalSales   decimal.Decimal `json:"total_sales"`
	TopProducts  []TopProduct    `json:"top_products"`
	RecentOrders []Order         `json:"recent_orders"`
}

type TopProduct struct {
	ProductID     int64           `json:"product_id"`
	Name          string          `json:"name"`
	TotalQuantity int             `json:"total_quantity"`
	TotalRevenue  decimal.Decimal `json:"total_revenue"`
}
