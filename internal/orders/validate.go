package orders

import "fmt"

// ValidateRequest runs the pure, storage-free checks on a basket request.
// Checks run in order and short-circuit on the first failure. A missing or
// non-positive line price is deliberately not rejected here; the placement
// workflow substitutes the product's current price for it.
func ValidateRequest(req PlaceOrderRequest) error {
	if len(req.Lines) == 0 {
		return &ValidationError{Reason: "order must contain at least one line"}
	}
	if req.BuyerID <= 0 {
		return &ValidationError{Reason: "buyer id must be a positive integer"}
	}
	if !req.Total.IsPositive() {
		return &ValidationError{Reason: "total amount must be positive"}
	}
	for i, ln := range req.Lines {
		if ln.ProductID <= 0 {
			return &ValidationError{Reason: fmt.Sprintf("line %d: product id must be a positive integer", i)}
		}
		if ln.Quantity <= 0 {
			return &ValidationError{Reason: fmt.Sprintf("line %d: quantity must be a positive integer", i)}
		}
	}
	return nil
}
