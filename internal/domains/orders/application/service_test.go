package application

import (
	"context"
	"errors"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	catalogdomain "github.com/guantera/checkout-api/internal/domains/catalog/domain"
	ordersmemory "github.com/guantera/checkout-api/internal/domains/orders/adapters/memory"
	ordersdomain "github.com/guantera/checkout-api/internal/domains/orders/domain"
	"github.com/guantera/checkout-api/internal/domains/orders/ports"
	paymentsdomain "github.com/guantera/checkout-api/internal/domains/payments/domain"
	paymentsports "github.com/guantera/checkout-api/internal/domains/payments/ports"
)

func d(s string) decimal.Decimal { return decimal.RequireFromString(s) }

type fakeCatalog struct {
	products map[string]*catalogdomain.Product
}

func (f *fakeCatalog) GetProduct(_ context.Context, id string) (*catalogdomain.Product, error) {
	if p, ok := f.products[id]; ok {
		return p, nil
	}
	return nil, errors.New("not found")
}

type fakeInitiator struct {
	err     error
	started []string
}

func (f *fakeInitiator) InitiatePayment(_ context.Context, orderID string) (*paymentsdomain.Payment, *paymentsports.SignedForm, error) {
	if f.err != nil {
		return nil, nil, f.err
	}
	f.started = append(f.started, orderID)
	return &paymentsdomain.Payment{ID: "pay-1", OrderID: orderID, Status: paymentsdomain.StatusPending},
		&paymentsports.SignedForm{URL: "https://sis-t.redsys.es:25443/sis/realizarPago", DsOrder: "250830120012"},
		nil
}

type fakeDiscounts struct {
	amount decimal.Decimal
	err    error
	calls  int
}

func (f *fakeDiscounts) Apply(_ context.Context, _ string, _ decimal.Decimal) (decimal.Decimal, error) {
	f.calls++
	if f.err != nil {
		return decimal.Zero, f.err
	}
	return f.amount, nil
}

func gloveProduct() *catalogdomain.Product {
	return &catalogdomain.Product{
		ID:     "p1",
		Name:   "Quantum Grip Pro",
		Price:  d("79.99"),
		Active: true,
	}
}

func newTestService(catalog *fakeCatalog, initiator *fakeInitiator, opts ...Option) (*Service, *ordersmemory.Repository) {
	repo := ordersmemory.NewRepository()
	return NewService(repo, catalog, initiator, opts...), repo
}

func TestCreateOrder_UsesAuthoritativePrices(t *testing.T) {
	catalog := &fakeCatalog{products: map[string]*catalogdomain.Product{"p1": gloveProduct()}}
	initiator := &fakeInitiator{}
	svc, repo := newTestService(catalog, initiator)

	input := ports.CreateOrderInput{
		Items: []ports.CartItem{
			{ProductID: "p1", ProductName: "Quantum Grip Pro", Size: "9", Quantity: 1, UnitPrice: d("79.99")},
		},
	}
	result, err := svc.CreateOrder(context.Background(), input)
	require.NoError(t, err)

	assert.True(t, result.Order.Subtotal.Equal(d("79.99")))
	assert.True(t, result.Order.ShippingAmount.Equal(d("3.00")))
	assert.True(t, result.Order.TotalAmount.Equal(d("82.99")))
	assert.Equal(t, []string{result.Order.ID}, initiator.started)

	persisted, err := repo.GetByID(context.Background(), result.Order.ID)
	require.NoError(t, err)
	assert.True(t, persisted.Items[0].UnitPrice.Equal(d("79.99")))
}

func TestCreateOrder_SalePriceIsAuthoritative(t *testing.T) {
	product := gloveProduct()
	sale := d("59.99")
	product.SalePrice = &sale
	catalog := &fakeCatalog{products: map[string]*catalogdomain.Product{"p1": product}}
	svc, _ := newTestService(catalog, &fakeInitiator{})

	input := ports.CreateOrderInput{
		Items: []ports.CartItem{
			{ProductID: "p1", Quantity: 1, UnitPrice: d("59.99")},
		},
	}
	result, err := svc.CreateOrder(context.Background(), input)
	require.NoError(t, err)
	assert.True(t, result.Order.Items[0].UnitPrice.Equal(sale))
}

func TestCreateOrder_RejectsTamperedPrice(t *testing.T) {
	catalog := &fakeCatalog{products: map[string]*catalogdomain.Product{"p1": gloveProduct()}}
	svc, _ := newTestService(catalog, &fakeInitiator{})

	input := ports.CreateOrderInput{
		Items: []ports.CartItem{
			{ProductID: "p1", Quantity: 1, UnitPrice: d("0.99")},
		},
	}
	_, err := svc.CreateOrder(context.Background(), input)
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrValidation)

	var mismatch *PriceMismatchError
	require.ErrorAs(t, err, &mismatch)
	assert.Equal(t, "p1", mismatch.ProductID)
}

func TestCreateOrder_ToleratesOneCentDeviation(t *testing.T) {
	catalog := &fakeCatalog{products: map[string]*catalogdomain.Product{"p1": gloveProduct()}}
	svc, _ := newTestService(catalog, &fakeInitiator{})

	input := ports.CreateOrderInput{
		Items: []ports.CartItem{
			{ProductID: "p1", Quantity: 1, UnitPrice: d("79.98")},
		},
	}
	result, err := svc.CreateOrder(context.Background(), input)
	require.NoError(t, err)
	assert.True(t, result.Order.Items[0].UnitPrice.Equal(d("79.99")), "authoritative price wins")
}

func TestCreateOrder_RejectsNameMismatch(t *testing.T) {
	catalog := &fakeCatalog{products: map[string]*catalogdomain.Product{"p1": gloveProduct()}}
	svc, _ := newTestService(catalog, &fakeInitiator{})

	input := ports.CreateOrderInput{
		Items: []ports.CartItem{
			{ProductID: "p1", ProductName: "Discount Keeper", Quantity: 1, UnitPrice: d("79.99")},
		},
	}
	_, err := svc.CreateOrder(context.Background(), input)
	var mismatch *IdentityMismatchError
	require.ErrorAs(t, err, &mismatch)
	assert.ErrorIs(t, err, ErrValidation)
}

func TestCreateOrder_NameCheckIgnoresCaseAndSpace(t *testing.T) {
	catalog := &fakeCatalog{products: map[string]*catalogdomain.Product{"p1": gloveProduct()}}
	svc, _ := newTestService(catalog, &fakeInitiator{})

	input := ports.CreateOrderInput{
		Items: []ports.CartItem{
			{ProductID: "p1", ProductName: "  quantum grip PRO ", Quantity: 1, UnitPrice: d("79.99")},
		},
	}
	_, err := svc.CreateOrder(context.Background(), input)
	assert.NoError(t, err)
}

func TestCreateOrder_RejectsUnknownProduct(t *testing.T) {
	catalog := &fakeCatalog{products: map[string]*catalogdomain.Product{}}
	svc, _ := newTestService(catalog, &fakeInitiator{})

	input := ports.CreateOrderInput{
		Items: []ports.CartItem{
			{ProductID: "ghost", Quantity: 1, UnitPrice: d("10.00")},
		},
	}
	_, err := svc.CreateOrder(context.Background(), input)
	var notFound *ProductNotFoundError
	assert.ErrorAs(t, err, &notFound)
}

func TestCreateOrder_RejectsInactiveProduct(t *testing.T) {
	product := gloveProduct()
	product.Active = false
	catalog := &fakeCatalog{products: map[string]*catalogdomain.Product{"p1": product}}
	svc, _ := newTestService(catalog, &fakeInitiator{})

	input := ports.CreateOrderInput{
		Items: []ports.CartItem{
			{ProductID: "p1", Quantity: 1, UnitPrice: d("79.99")},
		},
	}
	_, err := svc.CreateOrder(context.Background(), input)
	var notFound *ProductNotFoundError
	assert.ErrorAs(t, err, &notFound)
}

func TestCreateOrder_RejectsBadQuantity(t *testing.T) {
	catalog := &fakeCatalog{products: map[string]*catalogdomain.Product{"p1": gloveProduct()}}
	svc, _ := newTestService(catalog, &fakeInitiator{})

	for _, quantity := range []int{0, -1, 100} {
		input := ports.CreateOrderInput{
			Items: []ports.CartItem{
				{ProductID: "p1", Quantity: quantity, UnitPrice: d("79.99")},
			},
		}
		_, err := svc.CreateOrder(context.Background(), input)
		var invalid *InvalidQuantityError
		assert.ErrorAs(t, err, &invalid, "quantity %d", quantity)
	}
}

func TestCreateOrder_DiscountFailureIsNotFatal(t *testing.T) {
	catalog := &fakeCatalog{products: map[string]*catalogdomain.Product{"p1": gloveProduct()}}
	discounts := &fakeDiscounts{err: errors.New("code expired")}
	svc, _ := newTestService(catalog, &fakeInitiator{}, WithDiscounts(discounts))

	input := ports.CreateOrderInput{
		Items: []ports.CartItem{
			{ProductID: "p1", Quantity: 2, UnitPrice: d("79.99")},
		},
		DiscountCode: "SUMMER10",
	}
	result, err := svc.CreateOrder(context.Background(), input)
	require.NoError(t, err)
	assert.Equal(t, 1, discounts.calls)
	assert.True(t, result.Order.DiscountAmount.IsZero())
	assert.True(t, result.Order.TotalAmount.Equal(d("159.98")))
}

func TestCreateOrder_DiscountApplied(t *testing.T) {
	catalog := &fakeCatalog{products: map[string]*catalogdomain.Product{"p1": gloveProduct()}}
	discounts := &fakeDiscounts{amount: d("16.00")}
	svc, _ := newTestService(catalog, &fakeInitiator{}, WithDiscounts(discounts))

	input := ports.CreateOrderInput{
		Items: []ports.CartItem{
			{ProductID: "p1", Quantity: 2, UnitPrice: d("79.99")},
		},
		DiscountCode: "SUMMER10",
	}
	result, err := svc.CreateOrder(context.Background(), input)
	require.NoError(t, err)
	assert.True(t, result.Order.DiscountAmount.Equal(d("16.00")))
	assert.True(t, result.Order.TotalAmount.Equal(d("143.98")))
}

func TestCreateOrder_PaymentInitFailureLeavesOrderPayable(t *testing.T) {
	catalog := &fakeCatalog{products: map[string]*catalogdomain.Product{"p1": gloveProduct()}}
	svc, repo := newTestService(catalog, &fakeInitiator{err: errors.New("gateway misconfigured")})

	input := ports.CreateOrderInput{
		Items: []ports.CartItem{
			{ProductID: "p1", Quantity: 1, UnitPrice: d("79.99")},
		},
	}
	result, err := svc.CreateOrder(context.Background(), input)
	require.NoError(t, err)
	assert.Nil(t, result.Payment, "no attempt exists when initiation fails")
	assert.Nil(t, result.Form)

	// The order survived and stays payable through the retry endpoint.
	persisted, err := repo.GetByID(context.Background(), result.Order.ID)
	require.NoError(t, err)
	assert.Equal(t, ordersdomain.StatusPending, persisted.Status)
	assert.Equal(t, ordersdomain.PaymentPending, persisted.PaymentStatus)
}

func TestRetryPayment_RejectsSettledOrder(t *testing.T) {
	catalog := &fakeCatalog{products: map[string]*catalogdomain.Product{"p1": gloveProduct()}}
	initiator := &fakeInitiator{}
	svc, repo := newTestService(catalog, initiator)

	input := ports.CreateOrderInput{
		Items: []ports.CartItem{
			{ProductID: "p1", Quantity: 1, UnitPrice: d("79.99")},
		},
	}
	result, err := svc.CreateOrder(context.Background(), input)
	require.NoError(t, err)

	require.NoError(t, repo.ApplyOutcome(context.Background(), result.Order.ID, "confirmed", "captured", "250830120012"))

	_, err = svc.RetryPayment(context.Background(), result.Order.ID)
	assert.ErrorIs(t, err, ErrOrderNotPayable)
}

func TestRetryPayment_StartsNewAttempt(t *testing.T) {
	catalog := &fakeCatalog{products: map[string]*catalogdomain.Product{"p1": gloveProduct()}}
	initiator := &fakeInitiator{}
	svc, _ := newTestService(catalog, initiator)

	input := ports.CreateOrderInput{
		Items: []ports.CartItem{
			{ProductID: "p1", Quantity: 1, UnitPrice: d("79.99")},
		},
	}
	result, err := svc.CreateOrder(context.Background(), input)
	require.NoError(t, err)

	retry, err := svc.RetryPayment(context.Background(), result.Order.ID)
	require.NoError(t, err)
	assert.Equal(t, result.Order.ID, retry.Order.ID)
	assert.Len(t, initiator.started, 2)
}
