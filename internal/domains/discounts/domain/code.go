package domain

import (
	"errors"
	"fmt"
	"time"

	"github.com/shopspring/decimal"
)

// Type distinguishes percentage codes from fixed-amount codes.
type Type string

const (
	TypePercentage Type = "percentage"
	TypeFixed      Type = "fixed"
)

// Soft validation failures. Checkout treats all of them as "no discount",
// never as a reason to abort order creation.
var (
	ErrInactive   = errors.New("discount code is not active")
	ErrNotStarted = errors.New("discount code is not yet active")
	ErrExpired    = errors.New("discount code has expired")
	ErrExhausted  = errors.New("discount code has reached its usage limit")
)

// MinOrderError reports an order amount below the code's minimum.
type MinOrderError struct {
	Min decimal.Decimal
}

func (e *MinOrderError) Error() string {
	return fmt.Sprintf("minimum order amount of %s required", e.Min.StringFixed(2))
}

// Code is a promotional discount code with validity and usage rules.
type Code struct {
	ID          string
	Code        string
	Description string

	Type  Type
	Value decimal.Decimal

	MinOrderAmount    decimal.Decimal
	MaxDiscountAmount *decimal.Decimal

	Active   bool
	StartsAt *time.Time
	EndsAt   *time.Time

	MaxUses            *int
	MaxUsesPerCustomer int
	CurrentUses        int
}

// Validate checks whether the code can be used for the given order amount at
// the given instant. Validity is a pure function of (now, amount, usage state).
func (c *Code) Validate(now time.Time, orderAmount decimal.Decimal) error {
	if !c.Active {
		return ErrInactive
	}
	if c.StartsAt != nil && now.Before(*c.StartsAt) {
		return ErrNotStarted
	}
	if c.EndsAt != nil && now.After(*c.EndsAt) {
		return ErrExpired
	}
	if c.MaxUses != nil && c.CurrentUses >= *c.MaxUses {
		return ErrExhausted
	}
	if orderAmount.LessThan(c.MinOrderAmount) {
		return &MinOrderError{Min: c.MinOrderAmount}
	}
	return nil
}

// DiscountFor computes the discount amount for an order subtotal, applying
// the per-code cap and never exceeding the subtotal itself. The result is
// rounded to 2 decimal places, half up.
func (c *Code) DiscountFor(orderAmount decimal.Decimal) decimal.Decimal {
	var amount decimal.Decimal
	switch c.Type {
	case TypeFixed:
		amount = c.Value
	default:
		amount = orderAmount.Mul(c.Value).Div(decimal.NewFromInt(100))
	}
	if c.MaxDiscountAmount != nil && amount.GreaterThan(*c.MaxDiscountAmount) {
		amount = *c.MaxDiscountAmount
	}
	if amount.GreaterThan(orderAmount) {
		amount = orderAmount
	}
	if amount.IsNegative() {
		amount = decimal.Zero
	}
	return amount.Round(2)
}
