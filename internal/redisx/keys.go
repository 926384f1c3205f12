package redisx

import "time"

const (
	// Cache order status: order_status:{order_id} -> {"status": "..."}
	KeyOrderStatus = "order_status:%d"

	// Read-through product cache: product:{product_id} -> product JSON
	KeyProduct = "product:%d"

	// Dedup for audit log consumption: dedup:audit:{event_id}
	KeyAuditDedup = "dedup:audit:%s"
)

var (
	TTLStatusCache  = 5 * time.Minute
	TTLProductCache = 10 * time.Minute
	TTLDedup        = 48 * time.Hour
)
