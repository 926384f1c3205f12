package httpx

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-playground/validator/v10"

	"github.com/ariefcatur/go-retail-api.git/internal/orders"
	"github.com/ariefcatur/go-retail-api.git/internal/payments"
	"github.com/ariefcatur/go-retail-api.git/internal/products"
	"github.com/ariefcatur/go-retail-api.git/internal/users"
)

var validate = validator.New()

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}

// writeError maps the core error taxonomy onto HTTP status codes:
// validation-class -> 400, not-found -> 404, stock/total conflicts -> 409,
// everything else -> 500.
func writeError(w http.ResponseWriter, err error) {
	var (
		ve  *orders.ValidationError
		ise *orders.InsufficientStockError
		tme *orders.TotalMismatchError
		pnf *orders.ProductNotFoundError
		sts *orders.InvalidStatusError
	)

	switch {
	case errors.As(err, &ve):
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": ve.Reason})
	case errors.As(err, &sts):
		writeJSON(w, http.StatusBadRequest, map[string]any{
			"error":          err.Error(),
			"valid_statuses": []orders.Status{orders.StatusPending, orders.StatusProcessing, orders.StatusShipped, orders.StatusDelivered, orders.StatusCancelled},
		})
	case errors.Is(err, orders.ErrBuyerNotFound),
		errors.Is(err, orders.ErrOrderNotFound),
		errors.Is(err, users.ErrNotFound),
		errors.Is(err, products.ErrNotFound),
		errors.Is(err, payments.ErrNotFound):
		writeJSON(w, http.StatusNotFound, map[string]string{"error": err.Error()})
	case errors.As(err, &pnf):
		writeJSON(w, http.StatusNotFound, map[string]any{
			"error":      pnf.Error(),
			"product_id": pnf.ProductID,
		})
	case errors.As(err, &ise):
		writeJSON(w, http.StatusConflict, map[string]any{
			"error":      ise.Error(),
			"product_id": ise.ProductID,
			"available":  ise.Available,
			"requested":  ise.Requested,
		})
	case errors.As(err, &tme):
		writeJSON(w, http.StatusConflict, map[string]any{
			"error":      tme.Error(),
			"calculated": tme.Calculated.StringFixed(2),
			"provided":   tme.Provided.StringFixed(2),
		})
	case errors.Is(err, users.ErrEmailExists):
		writeJSON(w, http.StatusConflict, map[string]string{"error": err.Error()})
	case errors.Is(err, payments.ErrInvalidMethod), errors.Is(err, payments.ErrInvalidStatus):
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": err.Error()})
	default:
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": err.Error()})
	}
}

// decodeValid decodes JSON into req and runs its validator tags.
func decodeValid(r *http.Request, req any) error {
	if err := json.NewDecoder(r.Body).Decode(req); err != nil {
		return &orders.ValidationError{Reason: "invalid json"}
	}
	if err := validate.Struct(req); err != nil {
		return &orders.ValidationError{Reason: err.Error()}
	}
	return nil
}
