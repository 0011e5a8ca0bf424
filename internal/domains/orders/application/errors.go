package application

import (
	"errors"
	"fmt"

	"github.com/shopspring/decimal"
)

// ErrValidation is the sentinel every cart-revalidation failure wraps, so
// transport can map the whole family to one HTTP status.
var ErrValidation = errors.New("cart validation failed")

// ErrOrderNotPayable rejects a payment retry against an order that no
// longer awaits settlement.
var ErrOrderNotPayable = errors.New("order is not awaiting payment")

// ProductNotFoundError reports a cart line referencing an unknown or
// inactive product.
type ProductNotFoundError struct {
	ProductID string
}

func (e *ProductNotFoundError) Error() string {
	return fmt.Sprintf("product %s not found or unavailable", e.ProductID)
}

func (e *ProductNotFoundError) Unwrap() error { return ErrValidation }

// PriceMismatchError reports a client price deviating from the catalog
// price beyond tolerance.
type PriceMismatchError struct {
	ProductID string
	Submitted decimal.Decimal
	Expected  decimal.Decimal
}

func (e *PriceMismatchError) Error() string {
	return fmt.Sprintf("price mismatch for product %s: submitted %s, expected %s",
		e.ProductID, e.Submitted, e.Expected)
}

func (e *PriceMismatchError) Unwrap() error { return ErrValidation }

// IdentityMismatchError reports a submitted product name that does not
// match the catalog entry for its id.
type IdentityMismatchError struct {
	ProductID string
	Submitted string
	Expected  string
}

func (e *IdentityMismatchError) Error() string {
	return fmt.Sprintf("product name mismatch for %s: submitted %q, expected %q",
		e.ProductID, e.Submitted, e.Expected)
}

func (e *IdentityMismatchError) Unwrap() error { return ErrValidation }

// InvalidQuantityError reports a line quantity outside the allowed range.
type InvalidQuantityError struct {
	ProductID string
	Quantity  int
}

func (e *InvalidQuantityError) Error() string {
	return fmt.Sprintf("invalid quantity %d for product %s", e.Quantity, e.ProductID)
}

func (e *InvalidQuantityError) Unwrap() error { return ErrValidation }
