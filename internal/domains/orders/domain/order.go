package domain

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Status enumerates order lifecycle progression.
type Status string

const (
	StatusPending    Status = "pending"
	StatusConfirmed  Status = "confirmed"
	StatusProcessing Status = "processing"
	StatusShipped    Status = "shipped"
	StatusDelivered  Status = "delivered"
	StatusCancelled  Status = "cancelled"
	StatusRefunded   Status = "refunded"
)

// PaymentStatus tracks settlement progress independently of fulfilment.
type PaymentStatus string

const (
	PaymentPending    PaymentStatus = "pending"
	PaymentAuthorized PaymentStatus = "authorized"
	PaymentCaptured   PaymentStatus = "captured"
	PaymentFailed     PaymentStatus = "failed"
	PaymentCancelled  PaymentStatus = "cancelled"
	PaymentRefunded   PaymentStatus = "refunded"
)

var (
	ErrNoItems          = errors.New("order must contain at least one item")
	ErrInvalidQuantity  = errors.New("item quantity must be between 1 and 99")
	ErrNegativeAmount   = errors.New("order amounts must not be negative")
	ErrTotalMismatch    = errors.New("order total does not match its components")
	ErrLineTotalInvalid = errors.New("item total must equal unit price times quantity")
)

// Customer holds the contact fields captured at checkout.
type Customer struct {
	Email     string
	FirstName string
	LastName  string
	Phone     string
}

// FullName joins the customer name fields for display and notifications.
func (c Customer) FullName() string {
	return strings.TrimSpace(c.FirstName + " " + c.LastName)
}

// ShippingAddress is the destination captured at checkout.
type ShippingAddress struct {
	AddressLine1 string
	AddressLine2 string
	City         string
	State        string
	PostalCode   string
	Country      string
}

// OneLine renders the street portion the way invoices expect it.
func (a ShippingAddress) OneLine() string {
	if a.AddressLine2 == "" {
		return a.AddressLine1
	}
	return a.AddressLine1 + ", " + a.AddressLine2
}

// OrderItem is a line item owned by exactly one order. Unit price and total
// are frozen snapshots taken at order-creation time; later catalog price
// changes never alter historical orders.
type OrderItem struct {
	ID          int64
	ProductID   string
	ProductName string
	Size        string
	Quantity    int
	UnitPrice   decimal.Decimal
	TotalPrice  decimal.Decimal
}

// Order is the immutable-once-paid aggregate root of a checkout. It is a
// financial record: never deleted, and after capture mutated only through
// payment reconciliation or cancellation.
type Order struct {
	ID     string
	UserID *string
	Number string

	Status        Status
	PaymentStatus PaymentStatus

	Subtotal       decimal.Decimal
	TaxAmount      decimal.Decimal
	ShippingAmount decimal.Decimal
	DiscountAmount decimal.Decimal
	TotalAmount    decimal.Decimal

	PaymentMethod    string
	PaymentReference string

	Customer Customer
	Shipping ShippingAddress

	Items []OrderItem

	CreatedAt time.Time
	UpdatedAt time.Time
}

// NewOrder assembles a pending order from validated items and server-side
// totals. The identifier is generated here, never supplied by the caller;
// a nil userID means guest checkout.
func NewOrder(userID *string, items []OrderItem, customer Customer, shipping ShippingAddress, totals Totals, now time.Time) (*Order, error) {
	id := uuid.NewString()
	order := &Order{
		ID:             id,
		UserID:         userID,
		Number:         NewOrderNumber(id),
		Status:         StatusPending,
		PaymentStatus:  PaymentPending,
		Subtotal:       totals.Subtotal,
		TaxAmount:      totals.Tax,
		ShippingAmount: totals.Shipping,
		DiscountAmount: totals.Discount,
		TotalAmount:    totals.Total,
		Customer:       customer,
		Shipping:       shipping,
		Items:          items,
		CreatedAt:      now,
		UpdatedAt:      now,
	}
	if err := order.Validate(); err != nil {
		return nil, err
	}
	return order, nil
}

// NewOrderNumber derives the human-readable order number from the order id.
func NewOrderNumber(id string) string {
	compact := strings.ReplaceAll(id, "-", "")
	if len(compact) > 8 {
		compact = compact[:8]
	}
	return "ORD-" + strings.ToUpper(compact)
}

// Validate enforces the aggregate invariants: non-negative amounts, the
// total equation, and per-line arithmetic.
func (o *Order) Validate() error {
	if len(o.Items) == 0 {
		return ErrNoItems
	}
	for _, amount := range []decimal.Decimal{o.Subtotal, o.TaxAmount, o.ShippingAmount, o.DiscountAmount, o.TotalAmount} {
		if amount.IsNegative() {
			return ErrNegativeAmount
		}
	}
	expected := o.Subtotal.Sub(o.DiscountAmount).Add(o.TaxAmount).Add(o.ShippingAmount)
	if !o.TotalAmount.Equal(expected) {
		return fmt.Errorf("%w: total %s, components %s", ErrTotalMismatch, o.TotalAmount, expected)
	}
	for _, item := range o.Items {
		if item.Quantity <= 0 || item.Quantity > MaxItemQuantity {
			return fmt.Errorf("%w: product %s has quantity %d", ErrInvalidQuantity, item.ProductID, item.Quantity)
		}
		if !item.TotalPrice.Equal(item.UnitPrice.Mul(decimal.NewFromInt(int64(item.Quantity)))) {
			return fmt.Errorf("%w: product %s", ErrLineTotalInvalid, item.ProductID)
		}
	}
	return nil
}

// TotalQuantity sums item quantities across the order.
func (o *Order) TotalQuantity() int {
	total := 0
	for _, item := range o.Items {
		total += item.Quantity
	}
	return total
}
