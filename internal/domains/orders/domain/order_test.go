package domain

import (
	"strings"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func validItems() []OrderItem {
	return []OrderItem{
		{ProductID: "p1", ProductName: "Pro Grip Roll", Size: "9", Quantity: 2, UnitPrice: d("50.00"), TotalPrice: d("100.00")},
	}
}

func validTotals() Totals {
	return Totals{
		Subtotal: d("100.00"),
		Discount: decimal.Zero,
		Tax:      decimal.Zero,
		Shipping: decimal.Zero,
		Total:    d("100.00"),
	}
}

func TestNewOrder_AssignsIdentityAndStatus(t *testing.T) {
	order, err := NewOrder(nil, validItems(), Customer{Email: "a@b.es"}, ShippingAddress{}, validTotals(), time.Now())
	require.NoError(t, err)

	assert.NotEmpty(t, order.ID)
	assert.Equal(t, StatusPending, order.Status)
	assert.Equal(t, PaymentPending, order.PaymentStatus)
	assert.Nil(t, order.UserID)

	require.True(t, strings.HasPrefix(order.Number, "ORD-"))
	assert.Len(t, order.Number, len("ORD-")+8)
	assert.Equal(t, strings.ToUpper(order.Number), order.Number)
}

func TestNewOrder_RejectsEmptyItems(t *testing.T) {
	_, err := NewOrder(nil, nil, Customer{}, ShippingAddress{}, validTotals(), time.Now())
	assert.ErrorIs(t, err, ErrNoItems)
}

func TestValidate_TotalMustMatchComponents(t *testing.T) {
	order, err := NewOrder(nil, validItems(), Customer{}, ShippingAddress{}, validTotals(), time.Now())
	require.NoError(t, err)

	order.TotalAmount = d("99.00")
	assert.ErrorIs(t, order.Validate(), ErrTotalMismatch)
}

func TestValidate_RejectsNegativeAmounts(t *testing.T) {
	order, err := NewOrder(nil, validItems(), Customer{}, ShippingAddress{}, validTotals(), time.Now())
	require.NoError(t, err)

	order.DiscountAmount = d("-1.00")
	assert.ErrorIs(t, order.Validate(), ErrNegativeAmount)
}

func TestValidate_RejectsQuantityOutOfRange(t *testing.T) {
	items := validItems()
	items[0].Quantity = 100
	items[0].TotalPrice = d("5000.00")
	totals := Totals{Subtotal: d("5000.00"), Total: d("5000.00")}

	_, err := NewOrder(nil, items, Customer{}, ShippingAddress{}, totals, time.Now())
	assert.ErrorIs(t, err, ErrInvalidQuantity)
}

func TestValidate_RejectsLineArithmeticMismatch(t *testing.T) {
	items := validItems()
	items[0].TotalPrice = d("99.00")
	totals := Totals{Subtotal: d("99.00"), Total: d("99.00")}

	_, err := NewOrder(nil, items, Customer{}, ShippingAddress{}, totals, time.Now())
	assert.ErrorIs(t, err, ErrLineTotalInvalid)
}

func TestTotalQuantity(t *testing.T) {
	order := &Order{Items: []OrderItem{{Quantity: 2}, {Quantity: 3}}}
	assert.Equal(t, 5, order.TotalQuantity())
}
