//go:build integration

package postgres

import (
	"context"
	"sync"
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

	"github.com/guantera/checkout-api/internal/domains/catalog/ports"
	"github.com/guantera/checkout-api/internal/platform/migrations"
)

func setupCatalogPostgresContainer(t *testing.T) (*gorm.DB, func()) {
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

func seedProduct(t *testing.T, db *gorm.DB, stock int) string {
	t.Helper()
	id := uuid.NewString()
	salePrice := decimal.RequireFromString("64.99")
	require.NoError(t, db.Create(&productRecord{
		ID:        id,
		Name:      "Pro Grip Roll Finger",
		Price:     decimal.RequireFromString("79.99"),
		SalePrice: &salePrice,
		Active:    true,
		CreatedAt: time.Now().UTC(),
		UpdatedAt: time.Now().UTC(),
	}).Error)
	require.NoError(t, db.Create(&productSizeRecord{
		ProductID:     id,
		Size:          "9",
		StockQuantity: stock,
		Available:     stock > 0,
		CreatedAt:     time.Now().UTC(),
		UpdatedAt:     time.Now().UTC(),
	}).Error)
	return id
}

func TestRepository_GetProduct(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test")
	}

	db, cleanup := setupCatalogPostgresContainer(t)
	defer cleanup()

	repo := NewRepository(db)
	ctx := context.Background()
	id := seedProduct(t, db, 5)

	product, err := repo.GetProduct(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, "Pro Grip Roll Finger", product.Name)
	assert.True(t, product.CurrentPrice().Equal(decimal.RequireFromString("64.99")), "sale price wins")

	_, err = repo.GetProduct(ctx, uuid.NewString())
	assert.ErrorIs(t, err, ports.ErrProductNotFound)
}

func TestRepository_DecrementStock(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test")
	}

	db, cleanup := setupCatalogPostgresContainer(t)
	defer cleanup()

	repo := NewRepository(db)
	ctx := context.Background()
	id := seedProduct(t, db, 3)

	ok, err := repo.DecrementStock(ctx, id, "9", 2)
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = repo.DecrementStock(ctx, id, "9", 2)
	require.NoError(t, err)
	assert.False(t, ok, "conditional update refuses to go negative")

	ok, err = repo.DecrementStock(ctx, id, "9", 1)
	require.NoError(t, err)
	assert.True(t, ok)

	var record productSizeRecord
	require.NoError(t, db.First(&record, "product_id = ? AND size = ?", id, "9").Error)
	assert.Equal(t, 0, record.StockQuantity)
	assert.False(t, record.Available)
}

func TestRepository_DecrementStock_Concurrent(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test")
	}

	db, cleanup := setupCatalogPostgresContainer(t)
	defer cleanup()

	repo := NewRepository(db)
	ctx := context.Background()
	id := seedProduct(t, db, 10)

	var wg sync.WaitGroup
	var mu sync.Mutex
	succeeded := 0
	for i := 0; i < 25; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			ok, err := repo.DecrementStock(ctx, id, "9", 1)
			assert.NoError(t, err)
			if ok {
				mu.Lock()
				succeeded++
				mu.Unlock()
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, 10, succeeded)

	var record productSizeRecord
	require.NoError(t, db.First(&record, "product_id = ? AND size = ?", id, "9").Error)
	assert.Equal(t, 0, record.StockQuantity)
}
