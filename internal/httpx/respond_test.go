package httpx

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http/httptest"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ariefcatur/go-retail-api.git/internal/orders"
	"github.com/ariefcatur/go-retail-api.git/internal/payments"
	"github.com/ariefcatur/go-retail-api.git/internal/users"
)

func TestWriteErrorStatusMapping(t *testing.T) {
	cases := []struct {
		name string
		err  error
		code int
	}{
		{"validation", &orders.ValidationError{Reason: "buyer id must be a positive integer"}, 400},
		{"invalid status", &orders.InvalidStatusError{Value: "nope"}, 400},
		{"invalid payment method", payments.ErrInvalidMethod, 400},
		{"buyer not found", orders.ErrBuyerNotFound, 404},
		{"order not found", orders.ErrOrderNotFound, 404},
		{"product not found", &orders.ProductNotFoundError{ProductID: 9}, 404},
		{"insufficient stock", &orders.InsufficientStockError{ProductID: 9, Available: 1, Requested: 2}, 409},
		{"total mismatch", &orders.TotalMismatchError{
			Calculated: decimal.RequireFromString("10.00"),
			Provided:   decimal.RequireFromString("9.00"),
		}, 409},
		{"duplicate email", users.ErrEmailExists, 409},
		{"unknown", errors.New("disk on fire"), 500},
		{"wrapped not found", fmt.Errorf("load: %w", orders.ErrOrderNotFound), 404},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			rec := httptest.NewRecorder()
			writeError(rec, tc.err)
			assert.Equal(t, tc.code, rec.Code)
			assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))
		})
	}
}

func TestWriteErrorConflictBody(t *testing.T) {
	rec := httptest.NewRecorder()
	writeError(rec, &orders.InsufficientStockError{ProductID: 9, Available: 1, Requested: 2})

	var body map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.EqualValues(t, 9, body["product_id"])
	assert.EqualValues(t, 1, body["available"])
	assert.EqualValues(t, 2, body["requested"])
}

func TestWriteErrorTotalMismatchBody(t *testing.T) {
	rec := httptest.NewRecorder()
	writeError(rec, &orders.TotalMismatchError{
		Calculated: decimal.RequireFromString("10.5"),
		Provided:   decimal.RequireFromString("10"),
	})

	var body map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, "10.50", body["calculated"])
	assert.Equal(t, "10.00", body["provided"])
}
