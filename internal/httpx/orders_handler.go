package httpx

import (
	"context"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/redis/go-redis/v9"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/ariefcatur/go-retail-api.git/internal/orders"
	"github.com/ariefcatur/go-retail-api.git/internal/redisx"
)

type OrdersHandler struct {
	Service *orders.Service
	Redis   *redis.Client
	Log     *zap.Logger
}

type placeOrderReq struct {
	BuyerID *int64         `json:"buyer_id" validate:"required"`
	Lines   []placeOrderLn `json:"lines" validate:"required"`
	Total   *float64       `json:"total" validate:"required"`
}

type placeOrderLn struct {
	ProductID int64    `json:"product_id"`
	Quantity  int      `json:"quantity"`
	UnitPrice *float64 `json:"unit_price"`
}

type updateStatusReq struct {
	Status *string `json:"status" validate:"required"`
}

func (h *OrdersHandler) Register(r *chi.Mux) {
	r.Post("/orders", h.placeOrder)
	r.Get("/orders", h.listOrders)
	r.Get("/orders/stats", h.orderStats)
	r.Get("/orders/{id}", h.getOrder)
	r.Get("/orders/{id}/status", h.getOrderStatus)
	r.Put("/orders/{id}", h.updateStatus)
	r.Delete("/orders/{id}", h.deleteOrder)
	r.Get("/users/{id}/orders", h.listBuyerOrders)
}

func (h *OrdersHandler) placeOrder(w http.ResponseWriter, r *http.Request) {
	var req placeOrderReq
	if err := decodeValid(r, &req); err != nil {
		writeError(w, err)
		return
	}

	domain := orders.PlaceOrderRequest{
		BuyerID: *req.BuyerID,
		Total:   decimal.NewFromFloat(*req.Total),
	}
	for _, ln := range req.Lines {
		dl := orders.LineRequest{ProductID: ln.ProductID, Quantity: ln.Quantity}
		if ln.UnitPrice != nil {
			dl.UnitPrice = decimal.NewFromFloat(*ln.UnitPrice)
		}
		domain.Lines = append(domain.Lines, dl)
	}

	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	id, err := h.Service.PlaceOrder(ctx, domain)
	if err != nil {
		writeError(w, err)
		return
	}

	h.cacheStatus(ctx, id, orders.StatusPending)
	writeJSON(w, http.StatusCreated, map[string]any{
		"order_id": id,
		"message":  "Order created successfully",
	})
}

func (h *OrdersHandler) getOrder(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		writeError(w, err)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), 3*time.Second)
	defer cancel()

	o, err := h.Service.GetOrder(ctx, id)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, o)
}

// getOrderStatus serves from the redis cache first and falls back to the
// database, refreshing the cache on a miss.
func (h *OrdersHandler) getOrderStatus(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		writeError(w, err)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), 3*time.Second)
	defer cancel()

	key := fmt.Sprintf(redisx.KeyOrderStatus, id)
	if s, err := h.Redis.Get(ctx, key).Result(); err == nil && s != "" {
		writeJSON(w, http.StatusOK, map[string]string{"status": s})
		return
	}

	o, err := h.Service.GetOrder(ctx, id)
	if err != nil {
		writeError(w, err)
		return
	}
	h.cacheStatus(ctx, id, o.Status)
	writeJSON(w, http.StatusOK, map[string]orders.Status{"status": o.Status})
}

func (h *OrdersHandler) listOrders(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 3*time.Second)
	defer cancel()

	out, err := h.Service.ListOrders(ctx)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, out)
}

func (h *OrdersHandler) listBuyerOrders(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		writeError(w, err)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), 3*time.Second)
	defer cancel()

	out, err := h.Service.ListBuyerOrders(ctx, id)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, out)
}

func (h *OrdersHandler) orderStats(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	stats, err := h.Service.OrderStats(ctx)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, stats)
}

func (h *OrdersHandler) updateStatus(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		writeError(w, err)
		return
	}
	var req updateStatusReq
	if err := decodeValid(r, &req); err != nil {
		writeError(w, err)
		return
	}
	status, err := orders.ParseStatus(*req.Status)
	if err != nil {
		writeError(w, err)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	if err := h.Service.UpdateOrderStatus(ctx, id, status); err != nil {
		writeError(w, err)
		return
	}
	h.cacheStatus(ctx, id, status)
	writeJSON(w, http.StatusOK, map[string]string{"message": "Order updated successfully"})
}

func (h *OrdersHandler) deleteOrder(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		writeError(w, err)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	if err := h.Service.DeleteOrder(ctx, id); err != nil {
		writeError(w, err)
		return
	}
	_ = h.Redis.Del(ctx, fmt.Sprintf(redisx.KeyOrderStatus, id)).Err()
	writeJSON(w, http.StatusOK, map[string]string{"message": "Order deleted successfully"})
}

// cacheStatus is best effort; a cache write failure never surfaces.
func (h *OrdersHandler) cacheStatus(ctx context.Context, id int64, status orders.Status) {
	key := fmt.Sprintf(redisx.KeyOrderStatus, id)
	if err := h.Redis.Set(ctx, key, string(status), redisx.TTLStatusCache).Err(); err != nil {
		h.Log.Debug("status cache write failed", zap.Int64("order_id", id), zap.Error(err))
	}
}

func pathID(r *http.Request) (int64, error) {
	raw := chi.URLParam(r, "id")
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || id <= 0 {
		return 0, &orders.ValidationError{Reason: "id must be a positive integer"}
	}
	return id, nil
}
