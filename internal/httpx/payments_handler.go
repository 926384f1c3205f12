package httpx

import (
	"context"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/shopspring/decimal"

	"github.com/ariefcatur/go-retail-api.git/internal/audit"
	"github.com/ariefcatur/go-retail-api.git/internal/orders"
	"github.com/ariefcatur/go-retail-api.git/internal/payments"
)

type PaymentsHandler struct {
	Repo   *payments.Repo
	Orders *orders.Service
	Audit  audit.Sink
}

type createPaymentReq struct {
	OrderID       *int64   `json:"order_id" validate:"required,gt=0"`
	Amount        *float64 `json:"amount" validate:"required,gt=0"`
	PaymentMethod string   `json:"payment_method" validate:"required"`
	TransactionID *string  `json:"transaction_id" validate:"omitempty,min=5"`
}

type updatePaymentReq struct {
	Status string `json:"status" validate:"required"`
}

func (h *PaymentsHandler) Register(r *chi.Mux) {
	r.Post("/payments", h.create)
	r.Get("/payments/{id}", h.get)
	r.Put("/payments/{id}", h.updateStatus)
	r.Get("/orders/{id}/payments", h.listByOrder)
}

func (h *PaymentsHandler) create(w http.ResponseWriter, r *http.Request) {
	var req createPaymentReq
	if err := decodeValid(r, &req); err != nil {
		writeError(w, err)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	// the payment must reference an existing order
	if _, err := h.Orders.GetOrder(ctx, *req.OrderID); err != nil {
		h.Audit.Emit(ctx, audit.OpPaymentCreate, req, err)
		writeError(w, err)
		return
	}

	p := &payments.Payment{
		OrderID:       *req.OrderID,
		Amount:        decimal.NewFromFloat(*req.Amount),
		PaymentMethod: req.PaymentMethod,
		TransactionID: req.TransactionID,
	}
	id, err := h.Repo.Create(ctx, p)
	h.Audit.Emit(ctx, audit.OpPaymentCreate, req, err)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, map[string]any{
		"payment_id": id,
		"message":    "Payment recorded successfully",
	})
}

func (h *PaymentsHandler) get(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		writeError(w, err)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), 3*time.Second)
	defer cancel()

	p, err := h.Repo.GetByID(ctx, id)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, p)
}

func (h *PaymentsHandler) listByOrder(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		writeError(w, err)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), 3*time.Second)
	defer cancel()

	out, err := h.Repo.ListByOrder(ctx, id)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, out)
}

func (h *PaymentsHandler) updateStatus(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		writeError(w, err)
		return
	}
	var req updatePaymentReq
	if err := decodeValid(r, &req); err != nil {
		writeError(w, err)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	err = h.Repo.UpdateStatus(ctx, id, req.Status)
	h.Audit.Emit(ctx, audit.OpPaymentUpdate, map[string]any{"id": id, "status": req.Status}, err)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"message": "Payment updated successfully"})
}
