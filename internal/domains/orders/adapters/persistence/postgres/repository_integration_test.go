//go:build integration

package postgres

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	tcpostgres "github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"

	"github.com/guantera/checkout-api/internal/domains/orders/domain"
	"github.com/guantera/checkout-api/internal/domains/orders/ports"
	"github.com/guantera/checkout-api/internal/platform/migrations"
)

func setupOrdersPostgresContainer(t *testing.T) (*gorm.DB, func()) {
	ctx := context.Background()

	pgContainer, err := tcpostgres.RunContainer(ctx,
		testcontainers.WithImage("postgres:15-alpine"),
		tcpostgres.WithDatabase("checkout_test"),
		tcpostgres.WithUsername("test"),
		tcpostgres.WithPassword("test"),
		testcontainers.WithWaitStrategy(
			wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(30*time.Second),
		),
	)
	require.NoError(t, err)

	dsn, err := pgContainer.ConnectionString(ctx, "sslmode=disable")
	require.NoError(t, err)

	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{})
	require.NoError(t, err)

	err = migrations.Run(db)
	require.NoError(t, err)

	cleanup := func() {
		sqlDB, _ := db.DB()
		if sqlDB != nil {
			sqlDB.Close()
		}
		pgContainer.Terminate(ctx)
	}

	return db, cleanup
}

func makeTestOrder(t *testing.T) *domain.Order {
	t.Helper()
	price := decimal.RequireFromString("79.99")
	items := []domain.OrderItem{{
		ProductID:   uuid.NewString(),
		ProductName: "Pro Grip Roll Finger",
		Size:        "9",
		Quantity:    2,
		UnitPrice:   price,
		TotalPrice:  price.Mul(decimal.NewFromInt(2)),
	}}
	totals := domain.Totals{
		Subtotal: decimal.RequireFromString("159.98"),
		Total:    decimal.RequireFromString("159.98"),
	}
	order, err := domain.NewOrder(nil, items,
		domain.Customer{Email: "keeper@example.com", FirstName: "Iker", LastName: "Soto"},
		domain.ShippingAddress{AddressLine1: "Calle Mayor 1", City: "Madrid", PostalCode: "28001", Country: "ES"},
		totals, time.Now().UTC())
	require.NoError(t, err)
	return order
}

func TestRepository_CreateAndGetByID(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test")
	}

	db, cleanup := setupOrdersPostgresContainer(t)
	defer cleanup()

	repo := NewRepository(db)
	ctx := context.Background()

	order := makeTestOrder(t)
	require.NoError(t, repo.Create(ctx, order))
	assert.NotZero(t, order.Items[0].ID, "item ids copied back after insert")

	fetched, err := repo.GetByID(ctx, order.ID)
	require.NoError(t, err)
	assert.Equal(t, order.Number, fetched.Number)
	assert.Equal(t, domain.StatusPending, fetched.Status)
	assert.Equal(t, domain.PaymentPending, fetched.PaymentStatus)
	assert.True(t, fetched.TotalAmount.Equal(order.TotalAmount))
	require.Len(t, fetched.Items, 1)
	assert.Equal(t, "Pro Grip Roll Finger", fetched.Items[0].ProductName)
	assert.True(t, fetched.Items[0].UnitPrice.Equal(order.Items[0].UnitPrice))
}

func TestRepository_GetByNumber(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test")
	}

	db, cleanup := setupOrdersPostgresContainer(t)
	defer cleanup()

	repo := NewRepository(db)
	ctx := context.Background()

	order := makeTestOrder(t)
	require.NoError(t, repo.Create(ctx, order))

	fetched, err := repo.GetByNumber(ctx, order.Number)
	require.NoError(t, err)
	assert.Equal(t, order.ID, fetched.ID)

	_, err = repo.GetByNumber(ctx, "ORD-MISSING1")
	assert.ErrorIs(t, err, ports.ErrOrderNotFound)
}

func TestRepository_GetByID_NotFound(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test")
	}

	db, cleanup := setupOrdersPostgresContainer(t)
	defer cleanup()

	repo := NewRepository(db)

	_, err := repo.GetByID(context.Background(), uuid.NewString())
	assert.ErrorIs(t, err, ports.ErrOrderNotFound)
}

func TestRepository_DuplicateOrderNumberRejected(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test")
	}

	db, cleanup := setupOrdersPostgresContainer(t)
	defer cleanup()

	repo := NewRepository(db)
	ctx := context.Background()

	order := makeTestOrder(t)
	require.NoError(t, repo.Create(ctx, order))

	duplicate := makeTestOrder(t)
	duplicate.Number = order.Number
	assert.Error(t, repo.Create(ctx, duplicate))
}
